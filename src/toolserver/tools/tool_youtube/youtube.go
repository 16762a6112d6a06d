package tool_youtube

import (
	"context"
	"errors"
	"fmt"

	"github.com/elee1766/toolchat/src/mcp"
	"github.com/elee1766/toolchat/src/toolkit"
	"github.com/elee1766/toolchat/src/toolserver/tools/toolsutil"
)

// Tool name constant
const Name = "playYouTubeVideo"

const youtubePrompt = "Play a YouTube video by searching for the provided query"

// ErrNoTitle is returned by a Player that started playback but could not read
// the video title.
var ErrNoTitle = errors.New("video title not found")

// Player searches for and plays a video, returning its title.
type Player interface {
	Play(ctx context.Context, query string) (string, error)
}

// YouTubeInput represents the parameters for playYouTubeVideo
type YouTubeInput struct {
	Query string `json:"query" required:"true" description:"Search query for the YouTube video" validate:"required"`
}

// YouTubeOutput is the playback confirmation line.
type YouTubeOutput struct {
	Message string `json:"message"`
}

func (o YouTubeOutput) Content() []mcp.ContentItem {
	return []mcp.ContentItem{{Type: mcp.ContentTypeText, Text: o.Message}}
}

// Tool returns the playYouTubeVideo tool backed by player.
func Tool(player Player) (toolkit.Tool, error) {
	if player == nil {
		return nil, fmt.Errorf("%s requires a player", Name)
	}
	return toolkit.NewGenericTool(Name, youtubePrompt, makeYouTubeHandler(player))
}

func makeYouTubeHandler(player Player) toolkit.GenericToolHandler[YouTubeInput, YouTubeOutput] {
	return func(ctx context.Context, input YouTubeInput) (YouTubeOutput, error) {
		title, err := player.Play(ctx, input.Query)
		switch {
		case errors.Is(err, ErrNoTitle) || (err == nil && title == ""):
			return YouTubeOutput{Message: fmt.Sprintf("Playing YouTube video for: %q", input.Query)}, nil
		case err != nil:
			toolsutil.GetLogger().Error("youtube playback failed", "query", input.Query, "error", err)
			return YouTubeOutput{}, toolkit.Failf("Error playing YouTube video: %w", err)
		}
		toolsutil.GetLogger().Info("playing video", "query", input.Query, "title", title)
		return YouTubeOutput{Message: fmt.Sprintf("Playing YouTube video: %q", title)}, nil
	}
}
