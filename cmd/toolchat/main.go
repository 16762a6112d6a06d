package main

import (
	"github.com/alecthomas/kong"
)

var version = "dev"

// CLI represents the main CLI structure
type CLI struct {
	ConfigFile string `name:"config" short:"c" type:"path" help:"Config file (replaces the user config)"`
	LogLevel   string `help:"Log level (debug, info, warn, error); overrides the config"`
	Verbose    bool   `short:"v" help:"Shorthand for --log-level=debug"`

	// Chat is the default command
	Chat ChatCmd `cmd:"" default:"withargs" help:"Start an interactive chat session (default)"`

	Serve   ServeCmd   `cmd:"" help:"Run the MCP tool server"`
	Tools   ToolsCmd   `cmd:"" help:"List the tools the tool server offers"`
	Session SessionCmd `cmd:"" help:"Inspect or reset the saved session"`
	Audit   AuditCmd   `cmd:"" help:"Show recent tool executions"`
	Auth    AuthCmd    `cmd:"" help:"Manage the model API key in the system keychain"`
	Config  ConfigCmd  `cmd:"" help:"Show or create configuration"`

	Version kong.VersionFlag `help:"Print the version and exit"`
}

func main() {
	var cli CLI
	ctx := kong.Parse(&cli,
		kong.Name("toolchat"),
		kong.Description("Chat with a Gemini model that can use tools from an MCP server"),
		kong.UsageOnError(),
		kong.ConfigureHelp(kong.HelpOptions{
			Compact: true,
		}),
		kong.Vars{"version": version},
	)

	err := ctx.Run(&cli)
	if err != nil {
		FatalError(createCLILogger(cli.level(""), "text"), err)
	}
}
