package genaiclient

import (
	"encoding/json"
	"fmt"

	"github.com/elee1766/toolchat/src/aisdk"
	"google.golang.org/genai"
)

// FallbackText is used when the model replies with neither text nor a call.
const FallbackText = aisdk.FallbackText

// toContents splits the history into a system instruction and the content
// list sent to the model.
func toContents(turns []aisdk.Turn) (*genai.Content, []*genai.Content) {
	var system *genai.Content
	contents := make([]*genai.Content, 0, len(turns))

	for _, turn := range turns {
		if turn.System {
			system = genai.NewContentFromText(turn.Text(), genai.RoleUser)
			continue
		}

		parts := make([]*genai.Part, 0, len(turn.Parts))
		for _, p := range turn.Parts {
			switch {
			case p.FunctionCall != nil:
				// A bare function call without its response is rejected by
				// the API, so replay it as narration.
				parts = append(parts, genai.NewPartFromText(fmt.Sprintf("Calling tool %s with %s", p.FunctionCall.Name, string(p.FunctionCall.Arguments))))
			case p.Text != "":
				parts = append(parts, genai.NewPartFromText(p.Text))
			}
		}
		if len(parts) == 0 {
			continue
		}

		role := genai.RoleUser
		if turn.Role == aisdk.RoleModel {
			role = genai.RoleModel
		}
		contents = append(contents, &genai.Content{Role: role, Parts: parts})
	}

	return system, contents
}

// toTools converts tool declarations into a single function-calling tool.
func toTools(decls []aisdk.ToolDeclaration) []*genai.Tool {
	if len(decls) == 0 {
		return nil
	}

	fns := make([]*genai.FunctionDeclaration, 0, len(decls))
	for _, d := range decls {
		fd := &genai.FunctionDeclaration{
			Name:        d.Name,
			Description: d.Description,
		}
		if len(d.Parameters) > 0 {
			var schema map[string]any
			if err := json.Unmarshal(d.Parameters, &schema); err == nil {
				fd.ParametersJsonSchema = schema
			}
		}
		fns = append(fns, fd)
	}
	return []*genai.Tool{{FunctionDeclarations: fns}}
}

// fromResponse interprets the first part of the first candidate. A function
// call takes precedence over text; neither yields FallbackText.
func fromResponse(resp *genai.GenerateContentResponse) (*aisdk.Response, error) {
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0] == nil {
		return nil, ErrEmptyResponse
	}

	candidate := resp.Candidates[0]
	out := &aisdk.Response{
		Text:         FallbackText,
		FinishReason: string(candidate.FinishReason),
	}
	if resp.UsageMetadata != nil {
		out.Usage = aisdk.Usage{
			PromptTokens:     int(resp.UsageMetadata.PromptTokenCount),
			CompletionTokens: int(resp.UsageMetadata.CandidatesTokenCount),
			TotalTokens:      int(resp.UsageMetadata.TotalTokenCount),
		}
	}

	if candidate.Content == nil || len(candidate.Content.Parts) == 0 || candidate.Content.Parts[0] == nil {
		return out, nil
	}

	part := candidate.Content.Parts[0]
	if part.FunctionCall != nil {
		args, err := json.Marshal(part.FunctionCall.Args)
		if err != nil {
			return nil, fmt.Errorf("failed to encode function call arguments: %w", err)
		}
		if part.FunctionCall.Args == nil {
			args = []byte("{}")
		}
		out.FunctionCall = &aisdk.FunctionCall{
			Name:      part.FunctionCall.Name,
			Arguments: args,
		}
		out.Text = ""
		return out, nil
	}
	if part.Text != "" {
		out.Text = part.Text
	}
	return out, nil
}
