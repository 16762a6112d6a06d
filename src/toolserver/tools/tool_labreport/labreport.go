package tool_labreport

import (
	"context"
	"regexp"
	"strings"
	"time"

	"github.com/elee1766/toolchat/src/mcp"
	"github.com/elee1766/toolchat/src/toolkit"
	"github.com/elee1766/toolchat/src/toolserver/tools/docx"
	"github.com/elee1766/toolchat/src/toolserver/tools/tool_worddoc"
	"github.com/elee1766/toolchat/src/toolserver/tools/toolsutil"
	"github.com/spf13/afero"
)

// Tool name constant
const Name = "simpleDocCreator"

const labReportPrompt = "Create Word documents from text files"

const reportTitle = "LABORATORY EVALUATION REPORT"

// LabReportInput represents the parameters for simpleDocCreator
type LabReportInput struct {
	InputFile  string `json:"input_file" required:"true" description:"Path to input text file" validate:"required"`
	OutputFile string `json:"output_file" required:"true" description:"Path for output Word document" validate:"required"`
}

// LabReportOutput reports the written document.
type LabReportOutput struct {
	Path string
}

func (o LabReportOutput) Content() []mcp.ContentItem {
	return []mcp.ContentItem{{Type: mcp.ContentTypeText, Text: "Successfully created Word document: " + o.Path}}
}

// Tool returns the simpleDocCreator tool reading from and writing into ws.
func Tool(ws *toolsutil.Workspace) (toolkit.Tool, error) {
	return toolkit.NewGenericTool(Name, labReportPrompt, makeLabReportHandler(ws, time.Now))
}

func makeLabReportHandler(ws *toolsutil.Workspace, now func() time.Time) toolkit.GenericToolHandler[LabReportInput, LabReportOutput] {
	return func(ctx context.Context, input LabReportInput) (LabReportOutput, error) {
		in, err := ws.Resolve(input.InputFile)
		if err != nil {
			return LabReportOutput{}, toolkit.Failf("Error creating Word document: %w", err)
		}
		out, err := ws.Resolve(input.OutputFile)
		if err != nil {
			return LabReportOutput{}, toolkit.Failf("Error creating Word document: %w", err)
		}

		text, err := afero.ReadFile(ws.Fs, in)
		if err != nil {
			return LabReportOutput{}, toolkit.Failf("Error creating Word document: %w", err)
		}
		if !toolsutil.IsTextFile(text) {
			return LabReportOutput{}, toolkit.Failf("Error creating Word document: %w", toolsutil.ErrNotTextFile)
		}

		doc := Report(string(text), now())
		size, err := tool_worddoc.Save(ws, out, doc)
		if err != nil {
			return LabReportOutput{}, toolkit.Failf("Error creating Word document: %w", err)
		}
		toolsutil.GetLogger().Info("lab report created", "input", in, "output", out, "size", size)
		return LabReportOutput{Path: input.OutputFile}, nil
	}
}

var (
	numbered = regexp.MustCompile(`^\d+\.`)
	shouted  = regexp.MustCompile(`^[A-Z\s]+$`)
)

// Report lays text out under the fixed report header: a student details
// table followed by the experiment content, one paragraph per non-blank line.
func Report(text string, date time.Time) *docx.Document {
	doc := &docx.Document{
		Title:   reportTitle,
		Created: date,
		Blocks: []docx.Block{
			docx.Paragraph{Style: docx.StyleHeading1, Centered: true, Runs: []docx.Run{{Text: reportTitle}}},
			docx.Table{
				Widths:          []int{30, 70},
				BoldFirstColumn: true,
				Rows: [][]string{
					{"Student Name:", "_________________"},
					{"Roll Number:", "_________________"},
					{"Date:", date.Format("1/2/2006")},
				},
			},
			docx.Heading(2, "EXPERIMENT CONTENT"),
		},
	}

	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimRight(line, "\r")
		if strings.TrimSpace(line) == "" {
			continue
		}
		if numbered.MatchString(line) || (shouted.MatchString(line) && len(line) > 3) {
			doc.Blocks = append(doc.Blocks, docx.Heading(3, line))
			continue
		}
		doc.Blocks = append(doc.Blocks, docx.Text(line))
	}
	return doc
}
