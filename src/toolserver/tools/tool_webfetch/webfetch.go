package tool_webfetch

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	md "github.com/JohannesKaufmann/html-to-markdown"
	"github.com/PuerkitoBio/goquery"
	"github.com/elee1766/toolchat/src/mcp"
	"github.com/elee1766/toolchat/src/toolkit"
	"github.com/elee1766/toolchat/src/toolserver/tools/toolsutil"
)

// Tool name constant
const Name = "fetchWebPage"

const webFetchPrompt = `Fetches a web page and returns its content as text, markdown, or html.
Use it to look something up for the user or to read a page they mention.
Responses over 5MB are truncated; only http and https URLs are supported.`

const maxSize = 5 * 1024 * 1024

// WebFetchInput represents the parameters for fetchWebPage
type WebFetchInput struct {
	URL     string `json:"url" required:"true" description:"The URL to fetch content from" validate:"required,http_url"`
	Format  string `json:"format,omitempty" enum:"text,markdown,html" description:"The format to return the content in (default markdown)" validate:"omitempty,oneof=text markdown html"`
	Timeout int    `json:"timeout,omitempty" description:"Optional timeout in seconds (max 120, default 30)" validate:"omitempty,min=1,max=120"`
}

// WebFetchOutput represents the response from fetchWebPage
type WebFetchOutput struct {
	Body        string `json:"content"`
	StatusCode  int    `json:"status_code"`
	URL         string `json:"url"`
	ContentType string `json:"content_type,omitempty"`
}

func (o WebFetchOutput) Content() []mcp.ContentItem {
	return []mcp.ContentItem{{Type: mcp.ContentTypeText, Text: o.Body}}
}

// Tool returns the fetchWebPage tool.
func Tool(client *http.Client) (toolkit.Tool, error) {
	if client == nil {
		client = &http.Client{}
	}
	return toolkit.NewGenericTool(Name, webFetchPrompt, makeWebFetchHandler(client))
}

func makeWebFetchHandler(base *http.Client) toolkit.GenericToolHandler[WebFetchInput, WebFetchOutput] {
	return func(ctx context.Context, input WebFetchInput) (WebFetchOutput, error) {
		format := input.Format
		if format == "" {
			format = "markdown"
		}
		timeout := input.Timeout
		if timeout == 0 {
			timeout = 30
		}

		client := *base
		client.Timeout = time.Duration(timeout) * time.Second
		client.CheckRedirect = func(req *http.Request, via []*http.Request) error {
			if len(via) >= 10 {
				return fmt.Errorf("too many redirects")
			}
			return nil
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, input.URL, nil)
		if err != nil {
			return WebFetchOutput{}, toolkit.Failf("Error fetching page: %w", err)
		}
		req.Header.Set("User-Agent", "toolchat/1.0")
		req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
		req.Header.Set("Accept-Language", "en-US,en;q=0.9")

		resp, err := client.Do(req)
		if err != nil {
			return WebFetchOutput{}, toolkit.Failf("Error fetching page: %w", err)
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			return WebFetchOutput{}, toolkit.Failf("Error fetching page: request failed with status code: %d", resp.StatusCode)
		}

		body, err := io.ReadAll(io.LimitReader(resp.Body, maxSize))
		if err != nil {
			return WebFetchOutput{}, toolkit.Failf("Error fetching page: failed to read response: %w", err)
		}

		content := string(body)
		contentType := resp.Header.Get("Content-Type")
		isHTML := strings.Contains(contentType, "text/html")

		var processed string
		switch format {
		case "text":
			processed = content
			if isHTML {
				if text, err := extractTextFromHTML(content); err == nil {
					processed = text
				} else {
					toolsutil.GetLogger().Warn("failed to extract text from HTML, returning raw content", "error", err)
				}
			}
		case "markdown":
			switch {
			case isHTML:
				if markdown, err := convertHTMLToMarkdown(content); err == nil {
					processed = markdown
				} else {
					toolsutil.GetLogger().Warn("failed to convert HTML to markdown, wrapping in code block", "error", err)
					processed = "```html\n" + content + "\n```"
				}
			case strings.Contains(contentType, "application/json"):
				processed = "```json\n" + content + "\n```"
			default:
				processed = "```\n" + content + "\n```"
			}
		default:
			processed = content
		}

		toolsutil.GetLogger().Info("fetched web content",
			"url", input.URL,
			"status", resp.StatusCode,
			"size", len(body),
			"format", format,
		)

		return WebFetchOutput{
			Body:        processed,
			StatusCode:  resp.StatusCode,
			URL:         resp.Request.URL.String(),
			ContentType: contentType,
		}, nil
	}
}

// extractTextFromHTML extracts plain text from HTML content
func extractTextFromHTML(html string) (string, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return "", fmt.Errorf("failed to parse HTML: %w", err)
	}
	doc.Find("script, style, noscript").Remove()

	var lines []string
	for _, line := range strings.Split(doc.Text(), "\n") {
		if trimmed := strings.TrimSpace(line); trimmed != "" {
			lines = append(lines, trimmed)
		}
	}
	return strings.Join(lines, "\n"), nil
}

// convertHTMLToMarkdown converts HTML content to Markdown
func convertHTMLToMarkdown(html string) (string, error) {
	converter := md.NewConverter("", true, nil)
	converter.Remove("script", "style", "noscript")
	markdown, err := converter.ConvertString(html)
	if err != nil {
		return "", fmt.Errorf("failed to convert HTML to Markdown: %w", err)
	}
	markdown = strings.TrimSpace(markdown)
	for strings.Contains(markdown, "\n\n\n") {
		markdown = strings.ReplaceAll(markdown, "\n\n\n", "\n\n")
	}
	return markdown, nil
}
