// Package tools assembles the server's tool set.
package tools

import (
	"fmt"
	"net/http"
	"time"

	"github.com/elee1766/toolchat/src/toolkit"
	tool_fileops "github.com/elee1766/toolchat/src/toolserver/tools/tool_fileops"
	tool_labreport "github.com/elee1766/toolchat/src/toolserver/tools/tool_labreport"
	tool_post "github.com/elee1766/toolchat/src/toolserver/tools/tool_post"
	tool_webfetch "github.com/elee1766/toolchat/src/toolserver/tools/tool_webfetch"
	tool_worddoc "github.com/elee1766/toolchat/src/toolserver/tools/tool_worddoc"
	tool_youtube "github.com/elee1766/toolchat/src/toolserver/tools/tool_youtube"
	"github.com/elee1766/toolchat/src/toolserver/tools/toolsutil"
)

// Tool name constants - re-exported from individual packages
const (
	FileOperationsName     = tool_fileops.Name
	PlayYouTubeVideoName   = tool_youtube.Name
	CreateWordDocumentName = tool_worddoc.Name
	SimpleDocCreatorName   = tool_labreport.Name
	CreatePostName         = tool_post.Name
	FetchWebPageName       = tool_webfetch.Name
)

// Deps are the shared resources tools are built from.
type Deps struct {
	Workspace      *toolsutil.Workspace
	Player         tool_youtube.Player
	Post           tool_post.Config
	HTTPClient     *http.Client
	CommandTimeout time.Duration
}

// Build constructs every tool. A nil Player leaves playYouTubeVideo out.
func Build(deps Deps) ([]toolkit.Tool, error) {
	if deps.Workspace == nil {
		return nil, fmt.Errorf("workspace is required")
	}

	builders := []func() (toolkit.Tool, error){
		func() (toolkit.Tool, error) {
			return tool_fileops.Tool(deps.Workspace, tool_fileops.Options{CommandTimeout: deps.CommandTimeout})
		},
		func() (toolkit.Tool, error) { return tool_worddoc.Tool(deps.Workspace) },
		func() (toolkit.Tool, error) { return tool_labreport.Tool(deps.Workspace) },
		func() (toolkit.Tool, error) { return tool_post.Tool(deps.Post) },
		func() (toolkit.Tool, error) { return tool_webfetch.Tool(deps.HTTPClient) },
	}
	if deps.Player != nil {
		builders = append(builders, func() (toolkit.Tool, error) { return tool_youtube.Tool(deps.Player) })
	}

	out := make([]toolkit.Tool, 0, len(builders))
	for _, build := range builders {
		tool, err := build()
		if err != nil {
			return nil, fmt.Errorf("failed to build tool: %w", err)
		}
		out = append(out, tool)
	}
	return out, nil
}

// Register builds every tool into tb.
func Register(tb *toolkit.Toolbox, deps Deps) error {
	built, err := Build(deps)
	if err != nil {
		return err
	}
	for _, tool := range built {
		if err := tb.RegisterTool(tool); err != nil {
			return err
		}
	}
	return nil
}
