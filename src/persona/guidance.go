package persona

import (
	"slices"
	"strings"
	"time"

	"github.com/elee1766/toolchat/src/chain"
)

// recentWindow is how far back "recently used" looks.
const recentWindow = 5 * time.Minute

// intentRule maps request keywords to the tool that serves them.
type intentRule struct {
	intent   string
	keywords []string
	tool     string
	hint     string
}

var intentRules = []intentRule{
	{
		intent:   "file",
		keywords: []string{"file", "read", "write", "delete", "create"},
		tool:     "fileOperations",
		hint:     "Use fileOperations for file management tasks",
	},
	{
		intent:   "media",
		keywords: []string{"video", "youtube", "play", "watch", "song", "music"},
		tool:     "playYouTubeVideo",
		hint:     "Use playYouTubeVideo for video and music content",
	},
	{
		intent:   "command",
		keywords: []string{"command", "run", "execute"},
		tool:     "fileOperations",
		hint:     "Use fileOperations with the execute operation to run commands",
	},
	{
		intent:   "document",
		keywords: []string{"document", "docx", "word", "report"},
		tool:     "createWordDocument",
		hint:     "Use createWordDocument to write formatted Word documents",
	},
	{
		intent:   "post",
		keywords: []string{"tweet", "twitter", "post"},
		tool:     "createPost",
		hint:     "Use createPost to publish a short status update",
	},
	{
		intent:   "web",
		keywords: []string{"http://", "https://", "website", "web page", "url"},
		tool:     "fetchWebPage",
		hint:     "Use fetchWebPage to read a web page",
	},
}

// Intents returns the intents whose keywords occur in the utterance.
func Intents(utterance string) []string {
	lower := strings.ToLower(utterance)
	var out []string
	for _, r := range intentRules {
		if containsAny(lower, r.keywords) {
			out = append(out, r.intent)
		}
	}
	return out
}

// Guidance returns tool selection hints for an utterance, limited to the
// available tools. A nil tracker skips the recent-use note.
func Guidance(utterance string, tracker *chain.Tracker, available []string) []string {
	lower := strings.ToLower(utterance)
	var out []string
	for _, r := range intentRules {
		if !slices.Contains(available, r.tool) || !containsAny(lower, r.keywords) {
			continue
		}
		if !slices.Contains(out, r.hint) {
			out = append(out, r.hint)
		}
	}
	if tracker != nil && tracker.WasRecentlyUsed("fileOperations", recentWindow) {
		out = append(out, "fileOperations was recently used - consider building on previous operations")
	}
	return out
}

// selectionRules lists every hint whose tool is available, for the prompt.
func selectionRules(available []string) []string {
	var out []string
	for _, r := range intentRules {
		if !slices.Contains(available, r.tool) {
			continue
		}
		out = append(out, "When the user mentions "+strings.Join(r.keywords, ", ")+": "+r.hint)
	}
	return out
}

func containsAny(s string, keywords []string) bool {
	for _, k := range keywords {
		if strings.Contains(s, k) {
			return true
		}
	}
	return false
}
