package tool_worddoc

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/elee1766/toolchat/src/mcp"
	"github.com/elee1766/toolchat/src/toolkit"
	"github.com/elee1766/toolchat/src/toolserver/tools/docx"
	"github.com/elee1766/toolchat/src/toolserver/tools/toolsutil"
	"github.com/spf13/afero"
)

// Tool name constant
const Name = "createWordDocument"

const wordDocPrompt = "Create Word documents with custom content and formatting"

const (
	defaultTitle  = "Generated Document"
	defaultAuthor = "Document Creator"
)

// WordDocInput represents the parameters for createWordDocument
type WordDocInput struct {
	Content     string `json:"content" required:"true" description:"Content for the document (text, markdown-like formatting, or JSON structure)" validate:"required"`
	OutputFile  string `json:"output_file" required:"true" description:"Path for output Word document (e.g., 'output.doc' or 'report.docx')" validate:"required"`
	Title       string `json:"title,omitempty" description:"Document title"`
	Author      string `json:"author,omitempty" description:"Document author"`
	Subject     string `json:"subject,omitempty" description:"Document subject"`
	Description string `json:"description,omitempty" description:"Document description"`
}

// WordDocOutput reports the written document.
type WordDocOutput struct {
	Path string
	Size int
}

func (o WordDocOutput) Content() []mcp.ContentItem {
	return []mcp.ContentItem{{Type: mcp.ContentTypeText, Text: "Successfully created Word document: " + o.Path}}
}

// Tool returns the createWordDocument tool writing into ws.
func Tool(ws *toolsutil.Workspace) (toolkit.Tool, error) {
	return toolkit.NewGenericTool(Name, wordDocPrompt, makeWordDocHandler(ws, time.Now))
}

func makeWordDocHandler(ws *toolsutil.Workspace, now func() time.Time) toolkit.GenericToolHandler[WordDocInput, WordDocOutput] {
	return func(ctx context.Context, input WordDocInput) (WordDocOutput, error) {
		resolved, err := ws.Resolve(input.OutputFile)
		if err != nil {
			return WordDocOutput{}, toolkit.Failf("Error creating Word document: %w", err)
		}

		doc := &docx.Document{
			Title:       orDefault(input.Title, defaultTitle),
			Author:      orDefault(input.Author, defaultAuthor),
			Subject:     input.Subject,
			Description: input.Description,
			Created:     now(),
		}
		doc.Blocks = append(doc.Blocks,
			docx.Paragraph{Style: docx.StyleTitle, Centered: true, Runs: []docx.Run{{Text: doc.Title}}})
		doc.Blocks = append(doc.Blocks, contentBlocks(input.Content)...)

		size, err := Save(ws, resolved, doc)
		if err != nil {
			return WordDocOutput{}, toolkit.Failf("Error creating Word document: %w", err)
		}
		toolsutil.GetLogger().Info("word document created", "path", resolved, "size", size, "blocks", len(doc.Blocks))
		return WordDocOutput{Path: input.OutputFile, Size: size}, nil
	}
}

// Save encodes doc and writes it to an already-resolved workspace path.
func Save(ws *toolsutil.Workspace, resolved string, doc *docx.Document) (int, error) {
	var buf bytes.Buffer
	if err := doc.Write(&buf); err != nil {
		return 0, err
	}
	if err := ws.EnsureParent(resolved); err != nil {
		return 0, err
	}
	if err := afero.WriteFile(ws.Fs, resolved, buf.Bytes(), 0o644); err != nil {
		return 0, fmt.Errorf("failed to write document: %w", err)
	}
	return buf.Len(), nil
}

func orDefault(s, def string) string {
	if strings.TrimSpace(s) == "" {
		return def
	}
	return s
}

// contentBlocks accepts JSON structures first and falls back to markdown.
func contentBlocks(content string) []docx.Block {
	trimmed := strings.TrimSpace(content)
	if strings.HasPrefix(trimmed, "{") || strings.HasPrefix(trimmed, "[") {
		if blocks, ok := structuredBlocks([]byte(trimmed)); ok {
			return blocks
		}
	}
	return promoteShoutedLines(docx.FromMarkdown([]byte(content)))
}

var shouted = regexp.MustCompile(`^[A-Z\s]+$`)

// promoteShoutedLines turns all-caps paragraphs into section headings.
func promoteShoutedLines(blocks []docx.Block) []docx.Block {
	for i, b := range blocks {
		p, ok := b.(docx.Paragraph)
		if !ok || p.Style != docx.StyleNormal {
			continue
		}
		text := strings.TrimSpace(p.Text())
		if len(text) > 3 && shouted.MatchString(text) {
			blocks[i] = docx.Heading(2, text)
		}
	}
	return blocks
}

// item is one element of an array-shaped document.
type item struct {
	Type    string   `json:"type"`
	Text    string   `json:"text"`
	Level   int      `json:"level"`
	Headers []string `json:"headers"`
	Data    [][]any  `json:"data"`
}

// sectioned is an object-shaped document.
type sectioned struct {
	Sections []struct {
		Title   string          `json:"title"`
		Content json.RawMessage `json:"content"`
	} `json:"sections"`
}

func structuredBlocks(data []byte) ([]docx.Block, bool) {
	if data[0] == '[' {
		var raw []json.RawMessage
		if err := json.Unmarshal(data, &raw); err != nil {
			return nil, false
		}
		var blocks []docx.Block
		for _, r := range raw {
			var s string
			if err := json.Unmarshal(r, &s); err == nil {
				blocks = append(blocks, docx.Text(s))
				continue
			}
			var it item
			if err := json.Unmarshal(r, &it); err != nil {
				continue
			}
			switch it.Type {
			case "heading":
				level := it.Level
				if level == 0 {
					level = 2
				}
				blocks = append(blocks, docx.Heading(level, it.Text))
			case "paragraph":
				blocks = append(blocks, docx.Text(it.Text))
			case "table":
				if it.Data == nil {
					continue
				}
				t := docx.Table{Header: it.Headers}
				for _, row := range it.Data {
					cells := make([]string, len(row))
					for i, cell := range row {
						cells[i] = fmt.Sprint(cell)
					}
					t.Rows = append(t.Rows, cells)
				}
				blocks = append(blocks, t)
			}
		}
		return blocks, true
	}

	var doc sectioned
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, false
	}
	var blocks []docx.Block
	for _, section := range doc.Sections {
		if section.Title != "" {
			blocks = append(blocks, docx.Heading(2, section.Title))
		}
		var paragraphs []string
		if err := json.Unmarshal(section.Content, &paragraphs); err != nil {
			var single string
			if err := json.Unmarshal(section.Content, &single); err == nil && single != "" {
				paragraphs = []string{single}
			}
		}
		for _, p := range paragraphs {
			blocks = append(blocks, docx.Text(p))
		}
	}
	return blocks, true
}
