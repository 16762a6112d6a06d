// Package app assembles the chat client and the tool server from configuration.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"

	"github.com/elee1766/toolchat/src/aisdk"
	"github.com/elee1766/toolchat/src/chain"
	"github.com/elee1766/toolchat/src/config"
	"github.com/elee1766/toolchat/src/genaiclient"
	"github.com/elee1766/toolchat/src/mcp"
	"github.com/elee1766/toolchat/src/orchestrator"
	"github.com/elee1766/toolchat/src/persona"
	"github.com/elee1766/toolchat/src/session"
	"github.com/elee1766/toolchat/src/storage"
	"github.com/elee1766/toolchat/src/toolkit"
	"github.com/elee1766/toolchat/src/toolserver"
	"github.com/elee1766/toolchat/src/toolserver/tools"
	"github.com/elee1766/toolchat/src/toolserver/tools/tool_post"
	"github.com/elee1766/toolchat/src/toolserver/tools/tool_youtube"
	"github.com/elee1766/toolchat/src/toolserver/tools/toolsutil"
	"github.com/spf13/afero"
	"golang.org/x/time/rate"
)

// Chat is a ready-to-run chat session and the resources it holds.
type Chat struct {
	Loop     *orchestrator.Loop
	Registry *mcp.Client
	Store    *session.Store
	Audit    *storage.DB
	Logger   *slog.Logger

	watcher *persona.Watcher
	events  orchestrator.EventSink
}

// ChatOptions carries the pieces the CLI decides rather than the config file.
type ChatOptions struct {
	Fs     afero.Fs
	Logger *slog.Logger
	Input  orchestrator.InputSource
	Events orchestrator.EventSink
}

// NewChat connects to the model and the tool registry, restores the session
// and builds the loop. An unreachable registry is fatal and is reported as
// mcp.ErrRegistryUnreachable.
func NewChat(ctx context.Context, cfg *config.Config, opts ChatOptions) (*Chat, error) {
	if cfg == nil {
		return nil, errors.New("configuration is required")
	}
	fs := opts.Fs
	if fs == nil {
		fs = afero.NewOsFs()
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	if opts.Input == nil {
		return nil, errors.New("input source is required")
	}

	apiKey, err := cfg.Model.ResolveAPIKey()
	if err != nil {
		return nil, err
	}
	model, err := genaiclient.NewClient(ctx, genaiclient.Config{
		APIKey:     apiKey,
		Model:      cfg.Model.Name,
		Logger:     logger,
		Timeout:    cfg.Model.Timeout.D(),
		RetryCount: cfg.Model.RetryCount,
		RetryDelay: cfg.Model.RetryDelay.D(),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create model client: %w", err)
	}

	registry, err := mcp.Connect(ctx, mcp.Config{
		URL:     cfg.Registry.URL,
		Timeout: cfg.Registry.Timeout.D(),
		Logger:  logger,
	})
	if err != nil {
		return nil, err
	}

	c := &Chat{Registry: registry, Logger: logger}
	if err := c.build(ctx, cfg, fs, model, opts); err != nil {
		c.Close()
		return nil, err
	}
	return c, nil
}

func (c *Chat) build(ctx context.Context, cfg *config.Config, fs afero.Fs, model aisdk.ModelClient, opts ChatOptions) error {
	defs, err := c.Registry.ListTools(ctx)
	if err != nil {
		return fmt.Errorf("%w: %w", mcp.ErrRegistryUnreachable, err)
	}
	declarations := Declarations(defs)

	c.Store = session.NewStore(fs, cfg.Session.Path, c.Logger)
	state := c.Store.Load()

	var audit orchestrator.AuditRecorder
	if cfg.Session.AuditDBPath != "" {
		db, err := storage.Open(cfg.Session.AuditDBPath)
		if err != nil {
			return fmt.Errorf("failed to open audit database: %w", err)
		}
		c.Audit = db
		log, err := storage.NewAuditLog(ctx, db, state.SessionID, model.ModelName())
		if err != nil {
			return fmt.Errorf("failed to start audit log: %w", err)
		}
		audit = log
	}

	personaConfig, err := persona.Load(fs, cfg.Persona.File)
	if err != nil {
		return err
	}
	p := persona.New(personaConfig, declarations, persona.WithLogger(c.Logger))
	if cfg.Persona.File != "" && cfg.Persona.Watch {
		w, err := persona.Watch(fs, cfg.Persona.File, p, c.Logger)
		if err != nil {
			c.Logger.Warn("persona hot reload disabled", "error", err)
		} else {
			c.watcher = w
		}
	}

	c.events = opts.Events
	loop, err := orchestrator.New(orchestrator.Config{
		Model:              model,
		Registry:           c.Registry,
		Tools:              declarations,
		Input:              opts.Input,
		State:              state,
		Store:              c.Store,
		Tracker:            chain.New(),
		Guard:              orchestrator.NewGuard(cfg.Chat.RateSensitiveTools, cfg.Chat.DebounceCooldown.D(), nil),
		Persona:            p,
		Audit:              audit,
		Events:             opts.Events,
		Logger:             c.Logger,
		MaxHistory:         cfg.Chat.MaxHistory,
		CheckpointEvery:    cfg.Chat.CheckpointEvery,
		ReminderAfterTurns: cfg.Chat.ReminderAfterTurns,
		ReminderWindow:     cfg.Chat.ReminderWindow.D(),
	})
	if err != nil {
		return err
	}
	c.Loop = loop
	return nil
}

// Declarations converts registry tool definitions into model declarations.
func Declarations(defs []mcp.ToolDefinition) []aisdk.ToolDeclaration {
	out := make([]aisdk.ToolDeclaration, 0, len(defs))
	for _, d := range defs {
		out = append(out, aisdk.ToolDeclaration{
			Name:        d.Name,
			Description: d.Description,
			Parameters:  d.InputSchema,
		})
	}
	return out
}

// Close releases everything the chat holds.
func (c *Chat) Close() error {
	var errs []error
	if c.watcher != nil {
		errs = append(errs, c.watcher.Close())
	}
	if c.events != nil {
		errs = append(errs, c.events.Close())
	}
	if c.Audit != nil {
		errs = append(errs, c.Audit.Close())
	}
	if c.Registry != nil {
		errs = append(errs, c.Registry.Close())
	}
	return errors.Join(errs...)
}

// Server is the tool server and the browser it may own.
type Server struct {
	*toolserver.Server
	player *tool_youtube.BrowserPlayer
}

// ServerOptions carries the pieces the CLI decides rather than the config file.
type ServerOptions struct {
	Fs         afero.Fs
	Logger     *slog.Logger
	Version    string
	NoBrowser  bool
	HTTPClient *http.Client
}

// NewServer builds the toolbox and the SSE server in front of it.
func NewServer(cfg *config.Config, opts ServerOptions) (*Server, error) {
	if cfg == nil {
		return nil, errors.New("configuration is required")
	}
	fs := opts.Fs
	if fs == nil {
		fs = afero.NewOsFs()
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	toolsutil.SetLogger(logger)

	root := cfg.Server.WorkspaceRoot
	if root == "" {
		root = "."
	}
	root, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve workspace root: %w", err)
	}
	ws, err := toolsutil.NewWorkspace(fs, root)
	if err != nil {
		return nil, err
	}

	deps := tools.Deps{
		Workspace:      ws,
		Post:           postConfig(cfg.Server),
		HTTPClient:     opts.HTTPClient,
		CommandTimeout: cfg.Server.CommandTimeout.D(),
	}
	s := &Server{}
	if !opts.NoBrowser {
		s.player = tool_youtube.NewBrowserPlayer(tool_youtube.BrowserConfig{
			ControlURL:  cfg.Server.Browser.ControlURL,
			Bin:         cfg.Server.Browser.Bin,
			UserDataDir: cfg.Server.Browser.UserDataDir,
			Headless:    cfg.Server.Browser.Headless,
		})
		deps.Player = s.player
	}

	tb := toolkit.NewToolbox()
	if err := tools.Register(tb, deps); err != nil {
		return nil, err
	}

	limit := rate.Inf
	if rpm := cfg.Server.RateLimit.RequestsPerMinute; rpm > 0 {
		limit = rate.Limit(float64(rpm) / 60)
	}
	srv, err := toolserver.New(tb, toolserver.Config{
		Version:   opts.Version,
		Addr:      cfg.Server.Addr,
		BaseURL:   cfg.Server.BaseURL,
		RateLimit: limit,
		Burst:     cfg.Server.RateLimit.BurstSize,
		Logger:    logger,
	})
	if err != nil {
		return nil, err
	}
	s.Server = srv

	logger.Info("tool server configured",
		"workspace", root,
		"tools", len(tb.Tools()),
		"post_test_mode", deps.Post.TestMode())
	return s, nil
}

func postConfig(cfg config.ServerConfig) tool_post.Config {
	var pc tool_post.Config
	if cfg.PostTokenEnvVar != "" {
		pc.AccessToken = os.Getenv(cfg.PostTokenEnvVar)
	}
	return pc
}

// Close shuts down the browser if one was started.
func (s *Server) Close() error {
	if s.player != nil {
		return s.player.Close()
	}
	return nil
}
