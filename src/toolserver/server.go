// Package toolserver exposes a toolkit.Toolbox as an MCP server over SSE.
package toolserver

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/elee1766/toolchat/src/mcp"
	"github.com/elee1766/toolchat/src/toolkit"
	mcpgo "github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"
)

const (
	DefaultName    = "toolchat-tools"
	DefaultAddr    = ":3001"
	DefaultRate    = rate.Limit(100.0 / 60.0)
	DefaultBurst   = 10
	shutdownPeriod = 5 * time.Second
)

// Config holds configuration for the tool server
type Config struct {
	Name    string
	Version string
	Addr    string
	// BaseURL is the externally reachable origin advertised to SSE clients.
	// Derived from Addr when empty.
	BaseURL string
	// RateLimit is the sustained tool calls per second across all clients.
	RateLimit rate.Limit
	Burst     int
	Logger    *slog.Logger
}

// Server serves the toolbox's tools.
type Server struct {
	config   Config
	toolbox  *toolkit.Toolbox
	mcp      *server.MCPServer
	sse      *server.SSEServer
	http     *http.Server
	registry *prometheus.Registry
	logger   *slog.Logger
}

// New wraps toolbox with logging, metrics and rate limiting middleware and
// registers every tool with a new MCP server.
func New(toolbox *toolkit.Toolbox, config Config) (*Server, error) {
	if toolbox == nil {
		return nil, errors.New("toolbox is required")
	}
	if config.Name == "" {
		config.Name = DefaultName
	}
	if config.Version == "" {
		config.Version = "dev"
	}
	if config.Addr == "" {
		config.Addr = DefaultAddr
	}
	if config.BaseURL == "" {
		config.BaseURL = baseURL(config.Addr)
	}
	if config.RateLimit == 0 {
		config.RateLimit = DefaultRate
	}
	if config.Burst == 0 {
		config.Burst = DefaultBurst
	}
	logger := config.Logger
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With("component", "tool_server")

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	metrics, err := toolkit.NewMetrics(registry)
	if err != nil {
		return nil, err
	}

	toolbox.RegisterMiddleware(toolkit.LoggingMiddleware(logger))
	toolbox.RegisterMiddleware(toolkit.MetricsMiddleware(metrics))
	toolbox.RegisterMiddleware(toolkit.RateLimitMiddleware(rate.NewLimiter(config.RateLimit, config.Burst)))

	s := &Server{
		config:   config,
		toolbox:  toolbox,
		mcp:      server.NewMCPServer(config.Name, config.Version, server.WithToolCapabilities(true), server.WithRecovery()),
		registry: registry,
		logger:   logger,
	}
	if err := s.registerTools(); err != nil {
		return nil, err
	}
	s.http = &http.Server{
		Addr:              config.Addr,
		ReadHeaderTimeout: 10 * time.Second,
	}
	// The SSE server owns shutdown so open streams are closed before the
	// listener drains.
	s.sse = server.NewSSEServer(s.mcp,
		server.WithBaseURL(config.BaseURL),
		server.WithSSEEndpoint("/sse"),
		server.WithMessageEndpoint("/messages"),
		server.WithHTTPServer(s.http),
	)
	s.http.Handler = s.Handler()
	return s, nil
}

func baseURL(addr string) string {
	host, port, err := net.SplitHostPort(addr)
	if err != nil {
		return "http://localhost" + addr
	}
	if host == "" || host == "0.0.0.0" || host == "::" {
		host = "localhost"
	}
	return "http://" + net.JoinHostPort(host, port)
}

func (s *Server) registerTools() error {
	for _, tool := range s.toolbox.Tools() {
		schema, err := toolkit.SchemaJSON(tool)
		if err != nil {
			return err
		}
		s.mcp.AddTool(mcpgo.NewToolWithRawSchema(tool.GetName(), tool.GetDescription(), schema), s.handler(tool.GetName()))
		s.logger.Debug("registered tool", "tool", tool.GetName())
	}
	return nil
}

func (s *Server) handler(name string) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcpgo.CallToolRequest) (*mcpgo.CallToolResult, error) {
		args, err := json.Marshal(request.GetArguments())
		if err != nil {
			return mcpgo.NewToolResultError(fmt.Sprintf("Error calling tool %s: invalid arguments: %v", name, err)), nil
		}
		result, err := s.toolbox.ExecuteTool(ctx, name, args)
		if err != nil {
			return mcpgo.NewToolResultError(fmt.Sprintf("Error calling tool %s: %v", name, err)), nil
		}
		return toMCPResult(result), nil
	}
}

func toMCPResult(result *mcp.CallToolResult) *mcpgo.CallToolResult {
	out := &mcpgo.CallToolResult{IsError: result.IsError}
	for _, item := range result.Content {
		switch item.Type {
		case mcp.ContentTypeImage:
			out.Content = append(out.Content, mcpgo.NewImageContent(item.Data, item.MimeType))
		case mcp.ContentTypeResource:
			out.Content = append(out.Content, mcpgo.NewEmbeddedResource(mcpgo.TextResourceContents{
				URI:      item.URI,
				MIMEType: item.MimeType,
				Text:     item.Text,
			}))
		default:
			out.Content = append(out.Content, mcpgo.NewTextContent(item.Text))
		}
	}
	return out
}

// MCP returns the underlying protocol server, for in-process clients.
func (s *Server) MCP() *server.MCPServer {
	return s.mcp
}

// Handler routes /sse, /messages and /metrics.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.Handle("/sse", s.sse.SSEHandler())
	mux.Handle("/messages", s.sse.MessageHandler())
	mux.Handle("/metrics", promhttp.HandlerFor(s.registry, promhttp.HandlerOpts{}))
	return mux
}

// Run serves until ctx is canceled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		s.logger.Info("tool server listening", "addr", s.config.Addr, "sse", s.config.BaseURL+"/sse")
		if err := s.http.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("tool server failed: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		s.logger.Info("shutting down tool server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownPeriod)
		defer cancel()
		return s.sse.Shutdown(shutdownCtx)
	})

	return g.Wait()
}
