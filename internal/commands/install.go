package commands

import (
	"errors"
	"fmt"

	"github.com/jessevdk/go-flags"
	"github.com/mitchellh/cli"

	"github.com/markjaquith/hk/pkg/config"
	"github.com/markjaquith/hk/pkg/git"
)

// InstallCommand writes a git hook shim for each hook declared in the
// config file, grounded on original_source/src/cli/install.rs's add_hook
// closure: one ".git/hooks/<name>" file per configured hook, each execing
// "hk run <name>".
type InstallCommand struct{}

// InstallOptions holds command-line options for the install command
type InstallOptions struct {
	Config    string `short:"c" long:"config"    description:"Path to config file"                   default:"hk.yaml"`
	Overwrite bool   `short:"f" long:"overwrite" description:"Overwrite existing hooks"`
	Mise      bool   `          long:"mise"      description:"Run hooks via 'mise x -- hk run' instead of invoking hk directly"`
	Help      bool   `short:"h" long:"help"      description:"Show this help message"`
}

// Help returns the help text for the install command
func (c *InstallCommand) Help() string {
	var opts InstallOptions
	parser := flags.NewParser(&opts, flags.Default)
	parser.Usage = OptionsUsage

	formatter := &HelpFormatter{
		Command:     "install",
		Description: "Install git hooks that run hk for every hook declared in the config file.",
		Examples: []Example{
			{Command: "hk install", Description: "Install a git hook shim for each configured hook"},
			{Command: "hk install --overwrite", Description: "Overwrite existing hook files"},
			{Command: "hk install --mise", Description: "Invoke hooks through 'mise x -- hk run'"},
		},
		Notes: []string{
			"Only hooks present in the config file are installed: if hk.yaml",
			"defines pre-commit and pre-push hooks, only those two shims are written.",
		},
	}

	return formatter.FormatHelp(parser)
}

// Synopsis returns a short description of the install command
func (c *InstallCommand) Synopsis() string {
	return "Install git hooks for every hook declared in the config file"
}

// Run executes the install command
func (c *InstallCommand) Run(args []string) int {
	opts, err := c.parseArguments(args)
	if err != nil {
		return c.handleParseError(err)
	}
	if opts == nil {
		return 0
	}

	repo, err := git.NewRepository("")
	if err != nil {
		fmt.Printf("Error: not in a git repository: %v\n", err)
		return 1
	}

	cfg, err := config.Load(opts.Config)
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		return 1
	}
	if len(cfg.Hooks) == 0 {
		fmt.Println("No hooks defined in config; nothing to install")
		return 1
	}

	installed := 0
	for name := range cfg.Hooks {
		if !opts.Overwrite && repo.HasHook(name) {
			fmt.Printf("Hook %s already exists (use --overwrite to replace)\n", name)
			continue
		}
		if err := repo.InstallHook(name, hookScript(name, opts.Mise)); err != nil {
			fmt.Printf("Error: failed to install %s hook: %v\n", name, err)
			return 1
		}
		fmt.Printf("Installed hk hook: .git/hooks/%s\n", name)
		installed++
	}

	if installed == 0 {
		fmt.Println("No hooks were installed")
		return 1
	}
	return 0
}

func (c *InstallCommand) parseArguments(args []string) (*InstallOptions, error) {
	var opts InstallOptions
	parser := flags.NewParser(&opts, flags.Default)
	parser.Usage = OptionsUsage

	_, err := parser.ParseArgs(args)
	if err != nil {
		var flagsErr *flags.Error
		if errors.As(err, &flagsErr) && flagsErr.Type == flags.ErrHelp {
			return nil, nil
		}
		return nil, err
	}
	return &opts, nil
}

func (c *InstallCommand) handleParseError(err error) int {
	fmt.Printf("Error parsing arguments: %v\n", err)
	return 1
}

// hookScript is the shim original_source/src/cli/install.rs writes: a
// one-liner execing "hk run <name>", optionally wrapped in "mise x --" so
// hooks run without requiring mise to already be activated in the shell.
func hookScript(name string, mise bool) string {
	command := fmt.Sprintf("hk run %s", name)
	if mise {
		command = fmt.Sprintf("mise x -- hk run %s", name)
	}
	return fmt.Sprintf("#!/bin/sh\nexec %s \"$@\"\n", command)
}

// InstallCommandFactory creates a new install command instance
func InstallCommandFactory() (cli.Command, error) {
	return &InstallCommand{}, nil
}
