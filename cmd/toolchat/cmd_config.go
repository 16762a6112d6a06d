package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/alecthomas/kong"
	"github.com/elee1766/toolchat/src/config"
)

// ConfigCmd inspects and creates configuration files
type ConfigCmd struct {
	Show ConfigShowCmd `cmd:"" default:"1" help:"Print the effective configuration"`
	Path ConfigPathCmd `cmd:"" help:"Print the configuration file in use"`
	Init ConfigInitCmd `cmd:"" help:"Write a default configuration file"`
}

// ConfigShowCmd prints the merged configuration
type ConfigShowCmd struct{}

// Run executes the config show command
func (c *ConfigShowCmd) Run(kctx *kong.Context, cli *CLI) error {
	cfg, err := loadConfig(cli)
	if err != nil {
		return err
	}
	if cfg.Model.APIKey != "" {
		cfg.Model.APIKey = maskAPIKey(cfg.Model.APIKey)
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(cfg)
}

// ConfigPathCmd prints the highest-precedence configuration file found
type ConfigPathCmd struct{}

// Run executes the config path command
func (c *ConfigPathCmd) Run(kctx *kong.Context, cli *CLI) error {
	if cli.ConfigFile != "" {
		fmt.Println(cli.ConfigFile)
		return nil
	}
	path, err := config.FindConfigFile()
	if err != nil {
		fmt.Println("No configuration file found; using defaults")
		return nil
	}
	fmt.Println(path)
	return nil
}

// ConfigInitCmd writes the defaults to a file
type ConfigInitCmd struct {
	Path  string `arg:"" optional:"" type:"path" help:"Destination (defaults to the user config path)"`
	Force bool   `help:"Overwrite an existing file"`
}

// Run executes the config init command
func (c *ConfigInitCmd) Run(kctx *kong.Context, cli *CLI) error {
	precedence := config.GetConfigPaths()
	path := c.Path
	if path == "" {
		path = precedence.UserConfig
	}

	if _, err := os.Stat(path); err == nil && !c.Force {
		return fmt.Errorf("%s already exists (use --force to overwrite)", path)
	} else if err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}

	if err := config.NewLoader(precedence).SaveFile(config.DefaultConfig(), path); err != nil {
		return err
	}
	fmt.Printf("Wrote %s\n", path)
	return nil
}
