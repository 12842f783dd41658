package commands

import (
	"errors"
	"fmt"
	"sort"

	"github.com/jessevdk/go-flags"
	"github.com/mitchellh/cli"
)

// HelpCommand handles the help command functionality
type HelpCommand struct {
	UI cli.Ui // User interface for command output
}

// HelpOptions holds command-line options for the help command
type HelpOptions struct {
	Help bool `short:"h" long:"help" description:"Show this help message"`
}

// commandHelp maps each registered command to a one-line description.
var commandHelp = map[string]string{
	"run":           "Run the steps configured for a hook.",
	"install":       "Install git hooks for every hook declared in the config file.",
	"install-hooks": "Validate the config file without installing git hooks.",
	"uninstall":     "Remove hk-installed git hooks.",
	"help":          "Show help information for commands.",
}

// Help returns the help text for the help command
func (c *HelpCommand) Help() string {
	names := make([]string, 0, len(commandHelp))
	for name := range commandHelp {
		names = append(names, name)
	}
	sort.Strings(names)

	helpText := "\nShow help for a specific command.\n\nUsage: hk help [COMMAND]\n\n" +
		"If COMMAND is specified, shows detailed help for that command.\n" +
		"If no command is specified, shows general help.\n\nAvailable commands:\n"
	for _, name := range names {
		helpText += fmt.Sprintf("  %-14s %s\n", name, commandHelp[name])
	}
	return helpText
}

// Synopsis returns a short description of the help command
func (c *HelpCommand) Synopsis() string {
	return "Show help for a specific command"
}

// Run executes the help command
func (c *HelpCommand) Run(args []string) int {
	var opts HelpOptions
	parser := flags.NewParser(&opts, flags.Default)
	parser.Usage = "[COMMAND]"

	remaining, err := parser.ParseArgs(args)
	if err != nil {
		var flagsErr *flags.Error
		if errors.As(err, &flagsErr) && flagsErr.Type == flags.ErrHelp {
			return 0
		}
		fmt.Printf("Error parsing arguments: %v\n", err)
		return 1
	}

	if len(remaining) == 0 {
		fmt.Print(c.Help())
		return 0
	}

	command := remaining[0]
	if help, exists := commandHelp[command]; exists {
		fmt.Printf("Command: %s\n\n", command)
		fmt.Printf("Description: %s\n\n", help)
		fmt.Printf("For detailed usage information, run:\n")
		fmt.Printf("  hk %s --help\n", command)
		return 0
	}

	fmt.Printf("Unknown command: %s\n\n", command)
	fmt.Println("Available commands:")
	names := make([]string, 0, len(commandHelp))
	for name := range commandHelp {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		fmt.Printf("  %s\n", name)
	}
	return 1
}

// HelpCommandFactory creates a new help command instance
func HelpCommandFactory() (cli.Command, error) {
	return &HelpCommand{}, nil
}
