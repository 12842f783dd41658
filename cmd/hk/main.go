// Package main provides the hk command-line tool: a git-hook step
// scheduler driven by hk.yaml.
package main

import (
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/mitchellh/cli"

	"github.com/markjaquith/hk/internal/commands"
)

// Version information set by GoReleaser
var (
	version = "dev"
	commit  = "none"    //nolint:unused // Set by GoReleaser
	date    = "unknown" //nolint:unused // Set by GoReleaser
	builtBy = "unknown" //nolint:unused // Set by GoReleaser
)

func main() {
	c := cli.NewCLI("hk", version)
	c.Args = os.Args[1:]
	c.HelpFunc = customHelpFunc
	c.Commands = map[string]cli.CommandFactory{
		"run":           commands.RunCommandFactory,
		"install":       commands.InstallCommandFactory,
		"install-hooks": commands.InstallHooksCommandFactory,
		"uninstall":     commands.UninstallCommandFactory,
		"help":          commands.HelpCommandFactory,
	}

	exitStatus, err := c.Run()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	}
	os.Exit(exitStatus)
}

// customHelpFunc lists every registered top-level command.
func customHelpFunc(cmdFactories map[string]cli.CommandFactory) string {
	var commandNames []string
	for name := range cmdFactories {
		if name != "help" {
			commandNames = append(commandNames, name)
		}
	}
	sort.Strings(commandNames)

	usageLine := "usage: hk [-h] [--version]\n"
	usageLine += "          {" + strings.Join(commandNames, ",") + "}\n          ...\n"

	helpText := usageLine + `
A git-hook step scheduler: runs the linters, formatters, and other checks
declared in hk.yaml against the files relevant to each hook invocation.

positional arguments:
  {` + strings.Join(commandNames, ",") + `}
    run                 Run the steps configured for a hook
    install             Install git hooks for every hook declared in hk.yaml
    install-hooks       Validate the config file without installing git hooks
    uninstall           Remove hk-installed git hooks

optional arguments:
  -h, --help            show this help message and exit
  --version             show program's version number and exit
`

	return helpText
}
