package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/alecthomas/kong"
	"github.com/elee1766/toolchat/src/app"
	"github.com/elee1766/toolchat/src/config"
)

// ServeCmd runs the tool server
type ServeCmd struct {
	Addr      string `short:"a" help:"Listen address (overrides config)"`
	Workspace string `short:"w" type:"path" help:"Directory file tools are confined to (overrides config)"`
	Headless  bool   `help:"Run the browser without a window"`
	NoBrowser bool   `help:"Do not offer the YouTube tool"`
}

// Run executes the serve command
func (c *ServeCmd) Run(kctx *kong.Context, cli *CLI) error {
	cfg, err := loadConfig(cli)
	if err != nil {
		return err
	}
	c.apply(cfg)

	logger := createCLILogger(cli.level(cfg.Logging.Level), cfg.Logging.Format)

	srv, err := app.NewServer(cfg, app.ServerOptions{
		Logger:    logger,
		Version:   version,
		NoBrowser: c.NoBrowser,
	})
	if err != nil {
		return err
	}
	defer srv.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return srv.Run(ctx)
}

func (c *ServeCmd) apply(cfg *config.Config) {
	if c.Addr != "" {
		cfg.Server.Addr = c.Addr
	}
	if c.Workspace != "" {
		cfg.Server.WorkspaceRoot = c.Workspace
	}
	if c.Headless {
		cfg.Server.Browser.Headless = true
	}
}
