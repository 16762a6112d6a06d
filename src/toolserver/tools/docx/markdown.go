package docx

import (
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	east "github.com/yuin/goldmark/extension/ast"
	"github.com/yuin/goldmark/text"
)

var markdown = goldmark.New(goldmark.WithExtensions(extension.Table, extension.Strikethrough))

// FromMarkdown converts markdown into document blocks.
func FromMarkdown(src []byte) []Block {
	doc := markdown.Parser().Parse(text.NewReader(src))
	c := converter{src: src}
	for n := doc.FirstChild(); n != nil; n = n.NextSibling() {
		c.block(n, "")
	}
	return c.blocks
}

type converter struct {
	src    []byte
	blocks []Block
}

func (c *converter) block(n ast.Node, listStyle string) {
	switch n := n.(type) {
	case *ast.Heading:
		p := Heading(n.Level, "")
		p.Runs = c.runs(n)
		c.add(p)
	case *ast.Paragraph, *ast.TextBlock:
		c.add(Paragraph{Style: listStyle, Runs: c.runs(n)})
	case *ast.List:
		style := StyleBullet
		if n.IsOrdered() {
			style = StyleNumber
		}
		for item := n.FirstChild(); item != nil; item = item.NextSibling() {
			for child := item.FirstChild(); child != nil; child = child.NextSibling() {
				c.block(child, style)
			}
		}
	case *ast.FencedCodeBlock, *ast.CodeBlock:
		var sb strings.Builder
		lines := n.Lines()
		for i := 0; i < lines.Len(); i++ {
			seg := lines.At(i)
			sb.Write(seg.Value(c.src))
		}
		c.add(Paragraph{Style: StyleCode, Runs: []Run{{Text: strings.TrimRight(sb.String(), "\n"), Code: true}}})
	case *ast.Blockquote:
		for child := n.FirstChild(); child != nil; child = child.NextSibling() {
			c.block(child, listStyle)
		}
	case *east.Table:
		c.add(c.table(n))
	}
}

func (c *converter) add(p Block) {
	if para, ok := p.(Paragraph); ok && strings.TrimSpace(para.Text()) == "" {
		return
	}
	c.blocks = append(c.blocks, p)
}

func (c *converter) table(n *east.Table) Table {
	var t Table
	for row := n.FirstChild(); row != nil; row = row.NextSibling() {
		var cells []string
		for cell := row.FirstChild(); cell != nil; cell = cell.NextSibling() {
			cells = append(cells, plain(c.runs(cell)))
		}
		if _, ok := row.(*east.TableHeader); ok {
			t.Header = cells
			continue
		}
		t.Rows = append(t.Rows, cells)
	}
	return t
}

func (c *converter) runs(n ast.Node) []Run {
	var out []Run
	c.inline(n, Run{}, &out)
	return out
}

func (c *converter) inline(n ast.Node, style Run, out *[]Run) {
	for child := n.FirstChild(); child != nil; child = child.NextSibling() {
		switch child := child.(type) {
		case *ast.Text:
			s := string(child.Segment.Value(c.src))
			switch {
			case child.HardLineBreak():
				s += "\n"
			case child.SoftLineBreak():
				s += " "
			}
			appendRun(out, style, s)
		case *ast.String:
			appendRun(out, style, string(child.Value))
		case *ast.Emphasis:
			next := style
			if child.Level >= 2 {
				next.Bold = true
			} else {
				next.Italic = true
			}
			c.inline(child, next, out)
		case *ast.CodeSpan:
			next := style
			next.Code = true
			c.inline(child, next, out)
		case *ast.AutoLink:
			appendRun(out, style, string(child.URL(c.src)))
		case *ast.RawHTML, *ast.Image:
		default:
			c.inline(child, style, out)
		}
	}
}

// appendRun merges text into the previous run when formatting matches.
func appendRun(out *[]Run, style Run, s string) {
	if s == "" {
		return
	}
	if n := len(*out); n > 0 {
		last := &(*out)[n-1]
		if last.Bold == style.Bold && last.Italic == style.Italic && last.Code == style.Code {
			last.Text += s
			return
		}
	}
	style.Text = s
	*out = append(*out, style)
}

func plain(runs []Run) string {
	return strings.TrimSpace(Paragraph{Runs: runs}.Text())
}
