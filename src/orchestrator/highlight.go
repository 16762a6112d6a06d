package orchestrator

import (
	"bytes"
	"strings"

	"github.com/alecthomas/chroma/v2"
	"github.com/alecthomas/chroma/v2/formatters"
	"github.com/alecthomas/chroma/v2/lexers"
	"github.com/alecthomas/chroma/v2/styles"
)

// highlightCode colors the bodies of fenced code blocks in text. The fences
// themselves are kept; an unterminated block is left as is.
func highlightCode(text, style string) string {
	if style == "" || !strings.Contains(text, "```") {
		return text
	}

	var b strings.Builder
	var code []string
	var lang string
	inCode := false

	for _, line := range strings.Split(text, "\n") {
		fence := strings.HasPrefix(strings.TrimSpace(line), "```")
		switch {
		case fence && !inCode:
			inCode = true
			lang = strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(line), "```"))
			code = code[:0]
			b.WriteString(line + "\n")
		case fence:
			inCode = false
			b.WriteString(highlight(strings.Join(code, "\n"), lang, style) + "\n")
			b.WriteString(line + "\n")
		case inCode:
			code = append(code, line)
		default:
			b.WriteString(line + "\n")
		}
	}
	if inCode {
		for _, line := range code {
			b.WriteString(line + "\n")
		}
	}
	return strings.TrimSuffix(b.String(), "\n")
}

func highlight(code, lang, style string) string {
	lexer := lexers.Get(lang)
	if lexer == nil {
		lexer = lexers.Analyse(code)
	}
	if lexer == nil {
		lexer = lexers.Fallback
	}
	lexer = chroma.Coalesce(lexer)

	it, err := lexer.Tokenise(nil, code)
	if err != nil {
		return code
	}
	var buf bytes.Buffer
	if err := formatters.Get("terminal256").Format(&buf, styles.Get(style), it); err != nil {
		return code
	}
	return strings.TrimRight(buf.String(), "\n")
}
