package commands

import (
	"errors"
	"fmt"
	"sort"

	"github.com/jessevdk/go-flags"
	"github.com/mitchellh/cli"

	"github.com/markjaquith/hk/pkg/config"
)

// InstallHooksCommand loads and validates the config file without touching
// .git/hooks, the CI-friendly counterpart to "hk install": it catches
// malformed steps (spec.md §3's invariants, enforced by scheduler.Step.Validate
// at decode time) before a real invocation would discover them mid-run.
type InstallHooksCommand struct{}

// InstallHooksOptions holds command-line options for the install-hooks command
type InstallHooksOptions struct {
	Config  string `short:"c" long:"config"  description:"Path to config file" default:"hk.yaml"`
	Verbose bool   `short:"v" long:"verbose" description:"Verbose output"`
	Help    bool   `short:"h" long:"help"    description:"Show this help message"`
}

// Help returns the help text for the install-hooks command
func (c *InstallHooksCommand) Help() string {
	var opts InstallHooksOptions
	parser := flags.NewParser(&opts, flags.Default)
	parser.Usage = OptionsUsage

	formatter := &HelpFormatter{
		Command:     "install-hooks",
		Description: "Validate the config file and report its hooks and steps.",
		Examples: []Example{
			{Command: "hk install-hooks", Description: "Validate hk.yaml"},
			{Command: "hk install-hooks --verbose", Description: "List every step per hook"},
		},
		Notes: []string{
			"Useful in CI to fail fast on a malformed config before 'hk run'",
			"is invoked for real. Unlike 'hk install', this never writes to",
			"the .git/hooks directory.",
		},
	}

	return formatter.FormatHelp(parser)
}

// Synopsis returns a short description of the install-hooks command
func (c *InstallHooksCommand) Synopsis() string {
	return "Validate the config file without installing git hooks"
}

// Run executes the install-hooks command
func (c *InstallHooksCommand) Run(args []string) int {
	var opts InstallHooksOptions
	parser := flags.NewParser(&opts, flags.Default)
	parser.Usage = OptionsUsage

	_, err := parser.ParseArgs(args)
	if err != nil {
		var flagsErr *flags.Error
		if errors.As(err, &flagsErr) && flagsErr.Type == flags.ErrHelp {
			return 0
		}
		fmt.Printf("Error parsing arguments: %v\n", err)
		return 1
	}

	cfg, err := config.Load(opts.Config)
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		return 1
	}

	names := make([]string, 0, len(cfg.Hooks))
	for name := range cfg.Hooks {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		hook := cfg.Hooks[name]
		fmt.Printf("%s: %d step(s)\n", name, len(hook.Steps))
		if opts.Verbose {
			for _, step := range hook.Steps {
				fmt.Printf("  - %s\n", step.Name)
			}
		}
	}
	fmt.Printf("%s is valid\n", opts.Config)
	return 0
}

// InstallHooksCommandFactory creates a new install-hooks command instance
func InstallHooksCommandFactory() (cli.Command, error) {
	return &InstallHooksCommand{}, nil
}
