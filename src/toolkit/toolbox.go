package toolkit

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/elee1766/toolchat/src/mcp"
	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/time/rate"
)

// ToolExecutor is a function type for tool execution
type ToolExecutor func(ctx context.Context, name string, arguments json.RawMessage) (*mcp.CallToolResult, error)

// ToolMiddleware is a function that wraps a ToolExecutor to add functionality.
type ToolMiddleware func(next ToolExecutor) ToolExecutor

// Toolbox holds the registered tools and the middleware chain.
type Toolbox struct {
	mu         sync.RWMutex
	tools      map[string]Tool
	middleware []ToolMiddleware
}

// NewToolbox creates an empty toolbox.
func NewToolbox() *Toolbox {
	return &Toolbox{
		tools: make(map[string]Tool),
	}
}

// RegisterTool registers a tool.
func (tb *Toolbox) RegisterTool(tool Tool) error {
	if tool.GetName() == "" {
		return fmt.Errorf("tool name cannot be empty")
	}

	tb.mu.Lock()
	defer tb.mu.Unlock()
	if _, exists := tb.tools[tool.GetName()]; exists {
		return fmt.Errorf("tool %s is already registered", tool.GetName())
	}
	tb.tools[tool.GetName()] = tool
	return nil
}

// RegisterMiddleware registers middleware that will be applied to all tool executions.
// Middleware is applied in the order it's registered (first registered = outermost layer).
func (tb *Toolbox) RegisterMiddleware(middleware ToolMiddleware) {
	tb.mu.Lock()
	defer tb.mu.Unlock()
	tb.middleware = append(tb.middleware, middleware)
}

// Tools returns the registered tools sorted by name.
func (tb *Toolbox) Tools() []Tool {
	tb.mu.RLock()
	defer tb.mu.RUnlock()
	out := make([]Tool, 0, len(tb.tools))
	for _, tool := range tb.tools {
		out = append(out, tool)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].GetName() < out[j].GetName() })
	return out
}

// GetTool returns a specific tool by name.
func (tb *Toolbox) GetTool(name string) (Tool, bool) {
	tb.mu.RLock()
	defer tb.mu.RUnlock()
	tool, exists := tb.tools[name]
	return tool, exists
}

// ExecuteTool executes a tool call with middleware applied.
func (tb *Toolbox) ExecuteTool(ctx context.Context, name string, arguments json.RawMessage) (*mcp.CallToolResult, error) {
	tb.mu.RLock()
	tool, exists := tb.tools[name]
	middleware := tb.middleware
	tb.mu.RUnlock()
	if !exists {
		return nil, fmt.Errorf("tool %s not found", name)
	}

	final := ToolExecutor(func(ctx context.Context, _ string, arguments json.RawMessage) (*mcp.CallToolResult, error) {
		return tool.Execute(ctx, arguments)
	})
	for i := len(middleware) - 1; i >= 0; i-- {
		final = middleware[i](final)
	}
	return final(ctx, name, arguments)
}

// LoggingMiddleware logs tool execution details.
func LoggingMiddleware(logger *slog.Logger) ToolMiddleware {
	return func(next ToolExecutor) ToolExecutor {
		return func(ctx context.Context, name string, arguments json.RawMessage) (*mcp.CallToolResult, error) {
			logger.Info("executing tool", "tool", name, "params", string(arguments))
			start := time.Now()
			result, err := next(ctx, name, arguments)
			switch {
			case err != nil:
				logger.Error("tool execution failed", "tool", name, "error", err)
			case result != nil && result.IsError:
				logger.Warn("tool reported an error", "tool", name, "result", result.FirstText(), "duration", time.Since(start))
			default:
				logger.Info("tool execution completed successfully", "tool", name, "duration", time.Since(start))
			}
			return result, err
		}
	}
}

// Metrics are the per-tool counters exported by MetricsMiddleware.
type Metrics struct {
	calls    *prometheus.CounterVec
	duration *prometheus.HistogramVec
}

// NewMetrics creates and registers the tool metrics.
func NewMetrics(reg prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		calls: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "toolchat",
			Subsystem: "tools",
			Name:      "calls_total",
			Help:      "Tool calls by tool and outcome.",
		}, []string{"tool", "outcome"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "toolchat",
			Subsystem: "tools",
			Name:      "call_duration_seconds",
			Help:      "Tool call latency.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"tool"}),
	}
	for _, c := range []prometheus.Collector{m.calls, m.duration} {
		if err := reg.Register(c); err != nil {
			return nil, fmt.Errorf("failed to register tool metrics: %w", err)
		}
	}
	return m, nil
}

// MetricsMiddleware counts calls and observes their latency.
func MetricsMiddleware(m *Metrics) ToolMiddleware {
	return func(next ToolExecutor) ToolExecutor {
		return func(ctx context.Context, name string, arguments json.RawMessage) (*mcp.CallToolResult, error) {
			start := time.Now()
			result, err := next(ctx, name, arguments)
			m.duration.WithLabelValues(name).Observe(time.Since(start).Seconds())

			outcome := "success"
			switch {
			case err != nil:
				outcome = "failure"
			case result != nil && result.IsError:
				outcome = "error"
			}
			m.calls.WithLabelValues(name, outcome).Inc()
			return result, err
		}
	}
}

// RateLimitMiddleware rejects calls once the shared limiter is exhausted.
// Rejections are tool-level errors so the caller still gets a result.
func RateLimitMiddleware(limiter *rate.Limiter) ToolMiddleware {
	return func(next ToolExecutor) ToolExecutor {
		return func(ctx context.Context, name string, arguments json.RawMessage) (*mcp.CallToolResult, error) {
			if !limiter.Allow() {
				return ErrorResult(fmt.Sprintf("Error calling tool %s: rate limit exceeded, try again shortly", name)), nil
			}
			return next(ctx, name, arguments)
		}
	}
}
