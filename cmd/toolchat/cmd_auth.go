package main

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/alecthomas/kong"
	"github.com/elee1766/toolchat/src/config"
	"golang.org/x/term"
)

// AuthCmd manages the model API key
type AuthCmd struct {
	SetKey    AuthSetKeyCmd    `cmd:"set-key" help:"Store the model API key in the system keychain"`
	DeleteKey AuthDeleteKeyCmd `cmd:"delete-key" help:"Remove the model API key from the system keychain"`
	Status    AuthStatusCmd    `cmd:"" help:"Show which API key would be used"`
}

// AuthSetKeyCmd stores an API key
type AuthSetKeyCmd struct {
	Key string `arg:"" optional:"" help:"API key; read from the terminal when omitted"`
}

// Run executes the set-key command
func (c *AuthSetKeyCmd) Run(kctx *kong.Context, cli *CLI) error {
	key := strings.TrimSpace(c.Key)
	if key == "" {
		var err error
		key, err = readSecret("API key: ")
		if err != nil {
			return err
		}
	}
	if key == "" {
		return errors.New("invalid API key: empty")
	}
	if err := config.StoreAPIKey(key); err != nil {
		return err
	}
	fmt.Println("API key stored in the system keychain")
	return nil
}

// AuthDeleteKeyCmd removes the stored API key
type AuthDeleteKeyCmd struct{}

// Run executes the delete-key command
func (c *AuthDeleteKeyCmd) Run(kctx *kong.Context, cli *CLI) error {
	if err := config.DeleteAPIKey(); err != nil {
		return err
	}
	fmt.Println("API key removed from the system keychain")
	return nil
}

// AuthStatusCmd reports the resolved API key, masked
type AuthStatusCmd struct{}

// Run executes the status command
func (c *AuthStatusCmd) Run(kctx *kong.Context, cli *CLI) error {
	cfg, err := loadConfig(cli)
	if err != nil {
		return err
	}
	key, err := cfg.Model.ResolveAPIKey()
	if err != nil {
		return err
	}
	fmt.Printf("Model: %s (%s)\n", cfg.Model.Name, cfg.Model.Provider)
	fmt.Printf("API key: %s\n", maskAPIKey(key))
	return nil
}

// readSecret reads a line without echo when stdin is a terminal
func readSecret(prompt string) (string, error) {
	fd := int(os.Stdin.Fd())
	if term.IsTerminal(fd) {
		fmt.Fprint(os.Stderr, prompt)
		b, err := term.ReadPassword(fd)
		fmt.Fprintln(os.Stderr)
		if err != nil {
			return "", fmt.Errorf("failed to read API key: %w", err)
		}
		return strings.TrimSpace(string(b)), nil
	}
	line, err := bufio.NewReader(os.Stdin).ReadString('\n')
	if err != nil && line == "" {
		return "", fmt.Errorf("failed to read API key: %w", err)
	}
	return strings.TrimSpace(line), nil
}
