package commands

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/jessevdk/go-flags"
	"github.com/mitchellh/cli"

	"github.com/markjaquith/hk/pkg/git"
)

// UninstallCommand removes every git hook that hk installed, grounded on
// original_source/src/cli/uninstall.rs: scan .git/hooks, remove any file
// whose last non-empty line execs "hk run" (directly or via mise),
// leaving hooks installed by other tools untouched.
type UninstallCommand struct{}

// UninstallOptions holds command-line options for the uninstall command
type UninstallOptions struct {
	Help bool `short:"h" long:"help" description:"Show this help message"`
}

// Help returns the help text for the uninstall command
func (c *UninstallCommand) Help() string {
	var opts UninstallOptions
	parser := flags.NewParser(&opts, flags.Default)
	parser.Usage = OptionsUsage

	formatter := &HelpFormatter{
		Command:     "uninstall",
		Description: "Remove git hooks that were installed with 'hk install'.",
		Examples: []Example{
			{Command: "hk uninstall", Description: "Remove every hk-installed hook"},
		},
		Notes: []string{
			"Hooks not written by 'hk install' are left untouched.",
			"This does not affect the hk.yaml config file.",
		},
	}

	return formatter.FormatHelp(parser)
}

// Synopsis returns a short description of the uninstall command
func (c *UninstallCommand) Synopsis() string {
	return "Remove hk-installed git hooks"
}

// Run executes the uninstall command
func (c *UninstallCommand) Run(args []string) int {
	var opts UninstallOptions
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

	repo, err := git.NewRepository("")
	if err != nil {
		fmt.Printf("Error: not in a git repository: %v\n", err)
		return 1
	}

	names, err := hkInstalledHooks(repo.Root())
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		return 1
	}
	if len(names) == 0 {
		fmt.Println("No hk hooks installed")
		return 0
	}

	for _, name := range names {
		if err := repo.UninstallHook(name); err != nil {
			fmt.Printf("Error: failed to uninstall %s hook: %v\n", name, err)
			return 1
		}
		fmt.Printf("Removed hook: .git/hooks/%s\n", name)
	}
	return 0
}

// hkInstalledHooks lists hook names under .git/hooks whose script was
// written by "hk install".
func hkInstalledHooks(root string) ([]string, error) {
	hooksDir := filepath.Join(root, ".git", "hooks")
	entries, err := os.ReadDir(hooksDir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to list %s: %w", hooksDir, err)
	}

	var names []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		content, err := os.ReadFile(filepath.Join(hooksDir, entry.Name())) // #nosec G304 -- fixed hooks dir
		if err != nil {
			continue
		}
		if isHkHookScript(string(content)) {
			names = append(names, entry.Name())
		}
	}
	return names, nil
}

func isHkHookScript(content string) bool {
	lines := strings.Split(strings.TrimRight(content, "\n"), "\n")
	if len(lines) == 0 {
		return false
	}
	last := strings.TrimSpace(lines[len(lines)-1])
	return strings.HasPrefix(last, "exec hk run") || strings.HasPrefix(last, "exec mise x -- hk run")
}

// UninstallCommandFactory creates a new uninstall command instance
func UninstallCommandFactory() (cli.Command, error) {
	return &UninstallCommand{}, nil
}
