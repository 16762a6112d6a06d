// Package docx writes minimal WordprocessingML (.docx) files: headings,
// paragraphs with bold and italic runs, bullet and numbered items, and tables.
package docx

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"fmt"
	"io"
	"strings"
	"time"
)

// Paragraph styles understood by the bundled styles.xml.
const (
	StyleNormal   = ""
	StyleTitle    = "Title"
	StyleHeading1 = "Heading1"
	StyleHeading2 = "Heading2"
	StyleHeading3 = "Heading3"
	StyleBullet   = "ListBullet"
	StyleNumber   = "ListNumber"
	StyleCode     = "Code"
)

// Run is a span of uniformly formatted text.
type Run struct {
	Text   string
	Bold   bool
	Italic bool
	Code   bool
}

// Block is a top-level body element: a Paragraph or a Table.
type Block interface {
	writeXML(b *bytes.Buffer)
}

// Paragraph is a styled paragraph.
type Paragraph struct {
	Style    string
	Centered bool
	Runs     []Run
}

// Text joins the paragraph's runs.
func (p Paragraph) Text() string {
	var sb strings.Builder
	for _, r := range p.Runs {
		sb.WriteString(r.Text)
	}
	return sb.String()
}

// Table is a full-width table. A header row is bold and shaded.
type Table struct {
	Header []string
	Rows   [][]string
	// Widths are column widths in percent; empty means equal columns.
	Widths []int
	// BoldFirstColumn renders the first column as labels.
	BoldFirstColumn bool
}

// Document is the content and metadata of one .docx file.
type Document struct {
	Title       string
	Author      string
	Subject     string
	Description string
	Created     time.Time
	Blocks      []Block
}

// Text returns a plain paragraph.
func Text(s string) Paragraph {
	return Paragraph{Runs: []Run{{Text: s}}}
}

// Heading returns a heading paragraph of level 1 to 3.
func Heading(level int, s string) Paragraph {
	style := StyleHeading2
	switch {
	case level <= 1:
		style = StyleHeading1
	case level >= 3:
		style = StyleHeading3
	}
	return Paragraph{Style: style, Runs: []Run{{Text: s}}}
}

// Write encodes the document as a .docx archive.
func (d *Document) Write(w io.Writer) error {
	created := d.Created
	if created.IsZero() {
		created = time.Now()
	}

	parts := []struct {
		name string
		body []byte
	}{
		{"[Content_Types].xml", []byte(contentTypesXML)},
		{"_rels/.rels", []byte(relsXML)},
		{"docProps/core.xml", d.coreXML(created)},
		{"word/_rels/document.xml.rels", []byte(documentRelsXML)},
		{"word/styles.xml", []byte(stylesXML)},
		{"word/numbering.xml", []byte(numberingXML)},
		{"word/document.xml", d.documentXML()},
	}

	zw := zip.NewWriter(w)
	for _, p := range parts {
		f, err := zw.Create(p.name)
		if err != nil {
			return fmt.Errorf("failed to add %s: %w", p.name, err)
		}
		if _, err := f.Write(p.body); err != nil {
			return fmt.Errorf("failed to write %s: %w", p.name, err)
		}
	}
	if err := zw.Close(); err != nil {
		return fmt.Errorf("failed to finish archive: %w", err)
	}
	return nil
}

func (d *Document) documentXML() []byte {
	var b bytes.Buffer
	b.WriteString(xml.Header)
	b.WriteString(`<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main"><w:body>`)
	for _, block := range d.Blocks {
		block.writeXML(&b)
	}
	// 1440 twips = 1 inch margins
	b.WriteString(`<w:sectPr><w:pgSz w:w="12240" w:h="15840"/><w:pgMar w:top="1440" w:right="1440" w:bottom="1440" w:left="1440" w:header="720" w:footer="720" w:gutter="0"/></w:sectPr>`)
	b.WriteString(`</w:body></w:document>`)
	return b.Bytes()
}

func (d *Document) coreXML(created time.Time) []byte {
	var b bytes.Buffer
	b.WriteString(xml.Header)
	b.WriteString(`<cp:coreProperties xmlns:cp="http://schemas.openxmlformats.org/package/2006/metadata/core-properties" xmlns:dc="http://purl.org/dc/elements/1.1/" xmlns:dcterms="http://purl.org/dc/terms/" xmlns:xsi="http://www.w3.org/2001/XMLSchema-instance">`)
	element(&b, "dc:title", d.Title)
	element(&b, "dc:subject", d.Subject)
	element(&b, "dc:creator", d.Author)
	element(&b, "dc:description", d.Description)
	stamp := created.UTC().Format(time.RFC3339)
	fmt.Fprintf(&b, `<dcterms:created xsi:type="dcterms:W3CDTF">%s</dcterms:created>`, stamp)
	fmt.Fprintf(&b, `<dcterms:modified xsi:type="dcterms:W3CDTF">%s</dcterms:modified>`, stamp)
	b.WriteString(`</cp:coreProperties>`)
	return b.Bytes()
}

func element(b *bytes.Buffer, name, value string) {
	if value == "" {
		return
	}
	fmt.Fprintf(b, "<%s>", name)
	escape(b, value)
	fmt.Fprintf(b, "</%s>", name)
}

func escape(b *bytes.Buffer, s string) {
	_ = xml.EscapeText(b, []byte(s))
}

func (p Paragraph) writeXML(b *bytes.Buffer) {
	b.WriteString(`<w:p>`)
	if p.Style != "" || p.Centered {
		b.WriteString(`<w:pPr>`)
		if p.Style != "" {
			fmt.Fprintf(b, `<w:pStyle w:val="%s"/>`, p.Style)
		}
		switch p.Style {
		case StyleBullet:
			b.WriteString(`<w:numPr><w:ilvl w:val="0"/><w:numId w:val="1"/></w:numPr>`)
		case StyleNumber:
			b.WriteString(`<w:numPr><w:ilvl w:val="0"/><w:numId w:val="2"/></w:numPr>`)
		}
		if p.Centered {
			b.WriteString(`<w:jc w:val="center"/>`)
		}
		b.WriteString(`</w:pPr>`)
	}
	for _, r := range p.Runs {
		r.writeXML(b)
	}
	b.WriteString(`</w:p>`)
}

func (r Run) writeXML(b *bytes.Buffer) {
	b.WriteString(`<w:r>`)
	if r.Bold || r.Italic || r.Code {
		b.WriteString(`<w:rPr>`)
		if r.Code {
			b.WriteString(`<w:rFonts w:ascii="Consolas" w:hAnsi="Consolas"/>`)
		}
		if r.Bold {
			b.WriteString(`<w:b/>`)
		}
		if r.Italic {
			b.WriteString(`<w:i/>`)
		}
		b.WriteString(`</w:rPr>`)
	}
	for i, line := range strings.Split(r.Text, "\n") {
		if i > 0 {
			b.WriteString(`<w:br/>`)
		}
		b.WriteString(`<w:t xml:space="preserve">`)
		escape(b, line)
		b.WriteString(`</w:t>`)
	}
	b.WriteString(`</w:r>`)
}

func (t Table) writeXML(b *bytes.Buffer) {
	cols := len(t.Header)
	for _, row := range t.Rows {
		cols = max(cols, len(row))
	}
	if cols == 0 {
		return
	}

	b.WriteString(`<w:tbl><w:tblPr><w:tblStyle w:val="TableGrid"/><w:tblW w:w="5000" w:type="pct"/></w:tblPr><w:tblGrid>`)
	for i := 0; i < cols; i++ {
		fmt.Fprintf(b, `<w:gridCol w:w="%d"/>`, 9360*t.width(i, cols)/100)
	}
	b.WriteString(`</w:tblGrid>`)

	if len(t.Header) > 0 {
		t.writeRow(b, t.Header, cols, true)
	}
	for _, row := range t.Rows {
		t.writeRow(b, row, cols, false)
	}
	b.WriteString(`</w:tbl>`)
	// Word requires a paragraph between adjacent tables.
	b.WriteString(`<w:p/>`)
}

func (t Table) width(i, cols int) int {
	if i < len(t.Widths) && t.Widths[i] > 0 {
		return t.Widths[i]
	}
	return 100 / cols
}

func (t Table) writeRow(b *bytes.Buffer, cells []string, cols int, header bool) {
	b.WriteString(`<w:tr>`)
	for i := 0; i < cols; i++ {
		var text string
		if i < len(cells) {
			text = cells[i]
		}
		fmt.Fprintf(b, `<w:tc><w:tcPr><w:tcW w:w="%d" w:type="pct"/>`, t.width(i, cols)*50)
		if header {
			b.WriteString(`<w:shd w:val="clear" w:color="auto" w:fill="E0E0E0"/>`)
		}
		b.WriteString(`</w:tcPr>`)
		Paragraph{Runs: []Run{{Text: text, Bold: header || (t.BoldFirstColumn && i == 0)}}}.writeXML(b)
		b.WriteString(`</w:tc>`)
	}
	b.WriteString(`</w:tr>`)
}
