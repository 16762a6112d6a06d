package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/mark3labs/mcp-go/client"
	"github.com/mark3labs/mcp-go/mcp"
)

const (
	defaultTimeout       = 60 * time.Second
	defaultClientName    = "toolchat"
	defaultClientVersion = "1.0.0"
)

var _ Registry = (*Client)(nil)

// Config holds configuration for the registry client
type Config struct {
	URL           string        // SSE endpoint, e.g. http://localhost:3001/sse
	Timeout       time.Duration // per-call timeout
	ClientName    string
	ClientVersion string
	Logger        *slog.Logger
}

// Client is a connection to a remote tool registry over SSE.
type Client struct {
	client     *client.Client
	timeout    time.Duration
	logger     *slog.Logger
	serverName string
}

// Connect opens the SSE transport and performs the initialize handshake.
// Any failure is reported as ErrRegistryUnreachable.
func Connect(ctx context.Context, config Config) (*Client, error) {
	if config.URL == "" {
		return nil, fmt.Errorf("%w: no URL configured", ErrRegistryUnreachable)
	}
	mcpClient, err := client.NewSSEMCPClient(config.URL)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrRegistryUnreachable, err)
	}
	return newClient(ctx, mcpClient, config)
}

func newClient(ctx context.Context, mcpClient *client.Client, config Config) (*Client, error) {
	if config.Timeout == 0 {
		config.Timeout = defaultTimeout
	}
	if config.ClientName == "" {
		config.ClientName = defaultClientName
	}
	if config.ClientVersion == "" {
		config.ClientVersion = defaultClientVersion
	}
	logger := config.Logger
	if logger == nil {
		logger = slog.Default()
	}

	c := &Client{
		client:  mcpClient,
		timeout: config.Timeout,
		logger:  logger.With("component", "mcp_client", "url", config.URL),
	}

	if err := mcpClient.Start(ctx); err != nil {
		mcpClient.Close()
		return nil, fmt.Errorf("%w: %v", ErrRegistryUnreachable, err)
	}
	if err := c.initialize(ctx, config); err != nil {
		mcpClient.Close()
		return nil, fmt.Errorf("%w: %v", ErrRegistryUnreachable, err)
	}
	return c, nil
}

func (c *Client) initialize(ctx context.Context, config Config) error {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	initReq := mcp.InitializeRequest{
		Params: mcp.InitializeParams{
			ProtocolVersion: mcp.LATEST_PROTOCOL_VERSION,
			Capabilities:    mcp.ClientCapabilities{},
			ClientInfo: mcp.Implementation{
				Name:    config.ClientName,
				Version: config.ClientVersion,
			},
		},
	}

	result, err := c.client.Initialize(ctx, initReq)
	if err != nil {
		return fmt.Errorf("initialize failed: %w", err)
	}
	c.serverName = result.ServerInfo.Name

	c.logger.Info("connected to tool registry",
		"server", result.ServerInfo.Name,
		"server_version", result.ServerInfo.Version,
		"protocol", result.ProtocolVersion)
	return nil
}

// ServerName returns the name the registry reported during initialize.
func (c *Client) ServerName() string {
	return c.serverName
}

// ListTools retrieves the list of available tools from the registry.
func (c *Client) ListTools(ctx context.Context) ([]ToolDefinition, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	result, err := c.client.ListTools(ctx, mcp.ListToolsRequest{})
	if err != nil {
		return nil, fmt.Errorf("failed to list tools: %w", err)
	}

	tools := make([]ToolDefinition, 0, len(result.Tools))
	for _, tool := range result.Tools {
		schema, err := inputSchema(tool)
		if err != nil {
			return nil, err
		}
		tools = append(tools, ToolDefinition{
			Name:        tool.Name,
			Description: tool.Description,
			InputSchema: schema,
		})
	}
	c.logger.Debug("listed tools", "count", len(tools))
	return tools, nil
}

// inputSchema prefers the raw schema and otherwise extracts inputSchema from
// the marshaled tool.
func inputSchema(tool mcp.Tool) (json.RawMessage, error) {
	if len(tool.RawInputSchema) > 0 {
		return tool.RawInputSchema, nil
	}
	toolBytes, err := tool.MarshalJSON()
	if err != nil {
		return nil, fmt.Errorf("failed to marshal tool %s: %w", tool.Name, err)
	}
	var toolMap map[string]json.RawMessage
	if err := json.Unmarshal(toolBytes, &toolMap); err != nil {
		return nil, fmt.Errorf("failed to unmarshal tool %s: %w", tool.Name, err)
	}
	return toolMap["inputSchema"], nil
}

// CallTool executes a tool. A tool-level failure is reported through
// CallToolResult.IsError; the returned error is reserved for transport failures.
func (c *Client) CallTool(ctx context.Context, name string, arguments map[string]any) (*CallToolResult, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	req := mcp.CallToolRequest{
		Params: mcp.CallToolParams{
			Name:      name,
			Arguments: arguments,
		},
	}

	start := time.Now()
	result, err := c.client.CallTool(ctx, req)
	if err != nil {
		c.logger.Error("tool call failed", "tool", name, "error", err)
		return nil, fmt.Errorf("tool call %s failed: %w", name, err)
	}

	out := &CallToolResult{
		IsError: result.IsError,
		Content: make([]ContentItem, 0, len(result.Content)),
	}
	for _, content := range result.Content {
		out.Content = append(out.Content, convertContent(content))
	}

	c.logger.Debug("tool call completed",
		"tool", name,
		"is_error", out.IsError,
		"duration", time.Since(start))
	return out, nil
}

func convertContent(content mcp.Content) ContentItem {
	if text, ok := mcp.AsTextContent(content); ok {
		return ContentItem{Type: ContentTypeText, Text: text.Text}
	}
	if image, ok := mcp.AsImageContent(content); ok {
		return ContentItem{Type: ContentTypeImage, Data: image.Data, MimeType: image.MIMEType}
	}
	if embedded, ok := mcp.AsEmbeddedResource(content); ok {
		if res, ok := mcp.AsTextResourceContents(embedded.Resource); ok {
			return ContentItem{Type: ContentTypeResource, Text: res.Text, URI: res.URI, MimeType: res.MIMEType}
		}
		return ContentItem{Type: ContentTypeResource}
	}
	return ContentItem{Type: "unknown"}
}

// Ping checks the connection is still alive.
func (c *Client) Ping(ctx context.Context) error {
	if err := c.client.Ping(ctx); err != nil {
		return fmt.Errorf("ping failed: %w", err)
	}
	return nil
}

// Close closes the connection to the registry.
func (c *Client) Close() error {
	if err := c.client.Close(); err != nil {
		return fmt.Errorf("failed to close client: %w", err)
	}
	return nil
}
