package docx

import (
	"archive/zip"
	"bytes"
	"io"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func readPart(t *testing.T, data []byte, name string) string {
	t.Helper()
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	require.NoError(t, err)
	for _, f := range zr.File {
		if f.Name != name {
			continue
		}
		rc, err := f.Open()
		require.NoError(t, err)
		defer rc.Close()
		body, err := io.ReadAll(rc)
		require.NoError(t, err)
		return string(body)
	}
	t.Fatalf("part %s not found", name)
	return ""
}

func TestDocumentWrite(t *testing.T) {
	doc := &Document{
		Title:   "Weekly <Report>",
		Author:  "Nova",
		Created: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
		Blocks: []Block{
			Paragraph{Style: StyleTitle, Centered: true, Runs: []Run{{Text: "Weekly <Report>"}}},
			Heading(2, "Summary"),
			Paragraph{Runs: []Run{{Text: "plain "}, {Text: "bold", Bold: true}}},
			Table{Header: []string{"Name", "Score"}, Rows: [][]string{{"Ada", "10"}}},
		},
	}

	var buf bytes.Buffer
	require.NoError(t, doc.Write(&buf))

	body := readPart(t, buf.Bytes(), "word/document.xml")
	assert.Contains(t, body, `Weekly &lt;Report&gt;`)
	assert.Contains(t, body, `<w:pStyle w:val="Heading2"/>`)
	assert.Contains(t, body, `<w:jc w:val="center"/>`)
	assert.Contains(t, body, `<w:b/>`)
	assert.Contains(t, body, `<w:tbl>`)
	assert.Contains(t, body, `w:fill="E0E0E0"`)

	core := readPart(t, buf.Bytes(), "docProps/core.xml")
	assert.Contains(t, core, `<dc:creator>Nova</dc:creator>`)
	assert.Contains(t, core, `2026-03-01T12:00:00Z`)
	assert.NotContains(t, core, `dc:subject`, "empty metadata is omitted")

	types := readPart(t, buf.Bytes(), "[Content_Types].xml")
	assert.Contains(t, types, "wordprocessingml.document.main+xml")
}

func TestFromMarkdown(t *testing.T) {
	src := []byte(`# Title

Some *italic* and **bold** text with ` + "`code`" + `.

## Tasks

- first
- second

1. one
2. two

| Name | Score |
|------|-------|
| Ada  | 10    |

` + "```" + `
go test ./...
` + "```" + `
`)

	blocks := FromMarkdown(src)
	require.Len(t, blocks, 9)

	h1 := blocks[0].(Paragraph)
	assert.Equal(t, StyleHeading1, h1.Style)
	assert.Equal(t, "Title", h1.Text())

	para := blocks[1].(Paragraph)
	assert.Equal(t, "Some italic and bold text with code.", para.Text())
	assert.Contains(t, para.Runs, Run{Text: "italic", Italic: true})
	assert.Contains(t, para.Runs, Run{Text: "bold", Bold: true})
	assert.Contains(t, para.Runs, Run{Text: "code", Code: true})

	assert.Equal(t, StyleHeading2, blocks[2].(Paragraph).Style)
	assert.Equal(t, StyleBullet, blocks[3].(Paragraph).Style)
	assert.Equal(t, "second", blocks[4].(Paragraph).Text())
	assert.Equal(t, StyleNumber, blocks[5].(Paragraph).Style)
	assert.Equal(t, StyleNumber, blocks[6].(Paragraph).Style)

	table := blocks[7].(Table)
	assert.Equal(t, []string{"Name", "Score"}, table.Header)
	assert.Equal(t, [][]string{{"Ada", "10"}}, table.Rows)

	code := blocks[8].(Paragraph)
	assert.Equal(t, StyleCode, code.Style)
	assert.Equal(t, "go test ./...", code.Text())
}

func TestRunLineBreaks(t *testing.T) {
	var buf bytes.Buffer
	Run{Text: "a\nb"}.writeXML(&buf)
	assert.Equal(t, `<w:r><w:t xml:space="preserve">a</w:t><w:br/><w:t xml:space="preserve">b</w:t></w:r>`, buf.String())
}
