package commands

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/jessevdk/go-flags"
	"github.com/mitchellh/cli"

	"github.com/markjaquith/hk/pkg/config"
	"github.com/markjaquith/hk/pkg/git"
	"github.com/markjaquith/hk/pkg/progress"
	"github.com/markjaquith/hk/pkg/render"
	"github.com/markjaquith/hk/pkg/scheduler"
)

// RunCommand drives one hook invocation end to end: load the config,
// resolve the named hook's steps, and hand them to pkg/scheduler, following
// the top-level sequence original_source/src/hook.rs's run function
// describes (spec.md §4's "start progress, resolve files, stash, run
// groups, pop stash").
type RunCommand struct{}

// RunOptions is the run command's flag struct, expanded from the teacher's
// pre-commit-flavored RunOptions to the hook_options.rs CLI surface this
// module implements: --all, --fix/--check (mutually overriding), --exclude,
// --exclude-glob, --from-ref/--to-ref, --glob, --plan, --step.
type RunOptions struct {
	Config      string   `short:"c" long:"config"       description:"Path to config file"                             default:"hk.yaml"`
	All         bool     `short:"a" long:"all"          description:"Run on every tracked file, not just staged/changed ones"`
	Fix         bool     `          long:"fix"          description:"Run each step's fix command instead of its check command"`
	Check       bool     `          long:"check"        description:"Run each step's check command even if the hook defaults to fix"`
	Glob        []string `short:"g" long:"glob"         description:"Limit the file set to files matching this glob (repeatable)"`
	Exclude     []string `          long:"exclude"      description:"Remove an exact path from the resolved file set (repeatable)"`
	ExcludeGlob []string `          long:"exclude-glob" description:"Remove files matching this glob from the resolved set (repeatable)"`
	FromRef     string   `short:"s" long:"from-ref"     description:"From ref for a two-ref file diff"`
	ToRef       string   `short:"o" long:"to-ref"       description:"To ref for a two-ref file diff"`
	Files       []string `          long:"file"         description:"Run only on this file (repeatable; overrides every other selection mode)"`
	Step        []string `          long:"step"         description:"Run only this step (repeatable)"`
	Plan        bool     `          long:"plan"         description:"Print the resolved step groups and files without running anything"`
	Jobs        int      `short:"j" long:"jobs"         description:"Maximum concurrent steps (default: number of CPUs)"`
	Verbose     bool     `short:"v" long:"verbose"      description:"Enable verbose output"`
	Help        bool     `short:"h" long:"help"         description:"Show this help message"`
}

func (c *RunCommand) Help() string {
	var opts RunOptions
	parser := flags.NewParser(&opts, flags.Default)
	parser.Usage = "[OPTIONS] HOOK"

	formatter := &HelpFormatter{
		Command:     "run",
		Description: "Run the steps configured for a hook.",
		Examples: []Example{
			{Command: "hk run pre-commit", Description: "Run the pre-commit hook on its default file set"},
			{Command: "hk run pre-commit --all", Description: "Run on every tracked file"},
			{Command: "hk run pre-commit --fix", Description: "Apply fixes instead of only checking"},
			{Command: "hk run pre-push --from-ref HEAD~5 --to-ref HEAD", Description: "Run on files changed between two refs"},
			{Command: "hk run pre-commit --step eslint", Description: "Run only the eslint step"},
		},
		Notes: []string{
			"HOOK is the hook name as declared in hk.yaml, e.g. pre-commit or pre-push.",
			"--fix and --check override the step's own default run type for this invocation.",
		},
	}

	return formatter.FormatHelp(parser)
}

func (c *RunCommand) Synopsis() string {
	return "Run the steps configured for a hook"
}

func (c *RunCommand) Run(args []string) int {
	opts, positional, err := c.parseArguments(args)
	if err != nil {
		return c.handleParseError(err)
	}
	if opts == nil {
		return 0
	}
	if len(positional) == 0 {
		fmt.Println(`Error: missing HOOK argument (e.g. "hk run pre-commit")`)
		return 1
	}
	hookName := positional[0]

	cfg, err := config.Load(opts.Config)
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		return 1
	}
	hook, ok := cfg.Hook(hookName)
	if !ok {
		fmt.Printf("Error: no hook named %q in %s\n", hookName, opts.Config)
		return 1
	}

	repo, err := git.NewRepository("")
	if err != nil {
		fmt.Printf("Error: not in a git repository: %v\n", err)
		return 1
	}

	settings := scheduler.NewSettings()
	c.applyOverrides(settings, opts)

	runOpts := c.buildRunOptions(opts)

	if opts.Plan {
		return c.printPlan(hook, runOpts)
	}

	sink := progress.NewConsoleSink(os.Stderr)
	tctx := &render.Context{Root: repo.Root()}
	hctx := scheduler.NewHookContext(hookName, settings, repo, sink, tctx)

	ctx, stop := scheduler.WatchCtrlC(context.Background(), func() {
		hctx.MarkAborted()
		os.Exit(1)
	})
	defer stop()

	schedHook := hook.ToSchedulerHook(hookName)
	runErr := schedHook.Run(ctx, hctx, runOpts)
	sink.Flush()

	if runErr != nil {
		if errors.Is(runErr, scheduler.Cancelled) {
			fmt.Println("cancelled")
			return 130
		}
		fmt.Printf("Error: %v\n", runErr)
		return 1
	}
	return 0
}

func (c *RunCommand) parseArguments(args []string) (*RunOptions, []string, error) {
	var opts RunOptions
	parser := flags.NewParser(&opts, flags.Default)
	parser.Usage = "[OPTIONS] HOOK"

	positional, err := parser.ParseArgs(args)
	if err != nil {
		var flagsErr *flags.Error
		if errors.As(err, &flagsErr) && flagsErr.Type == flags.ErrHelp {
			return nil, nil, nil
		}
		return nil, nil, err
	}
	return &opts, positional, nil
}

func (c *RunCommand) handleParseError(err error) int {
	fmt.Printf("Error parsing arguments: %v\n", err)
	return 1
}

// applyOverrides layers run-command flags on top of the environment-derived
// Settings, following spec.md §6's note that command-line flags take
// precedence over HK_* environment variables for the same knob.
func (c *RunCommand) applyOverrides(settings *scheduler.Settings, opts *RunOptions) {
	if opts.Jobs > 0 {
		settings.Jobs = opts.Jobs
	}
	if opts.Fix {
		settings.Fix = true
	}
	if opts.Check {
		settings.Fix = false
	}
	for _, name := range opts.Step {
		name = strings.TrimSpace(name)
		if name != "" {
			delete(settings.SkipSteps, name)
		}
	}
}

func (c *RunCommand) buildRunOptions(opts *RunOptions) scheduler.RunOptions {
	runType := scheduler.CheckPlainRT
	if opts.Fix {
		runType = scheduler.Fix
	}

	var onlySteps map[string]bool
	if len(opts.Step) > 0 {
		onlySteps = make(map[string]bool, len(opts.Step))
		for _, s := range opts.Step {
			onlySteps[strings.TrimSpace(s)] = true
		}
	}

	return scheduler.RunOptions{
		Files:       opts.Files,
		ExtraGlob:   opts.Glob,
		FromRef:     opts.FromRef,
		ToRef:       opts.ToRef,
		AllFiles:    opts.All,
		Exclude:     opts.Exclude,
		ExcludeGlob: opts.ExcludeGlob,
		RunType:     runType,
		OnlySteps:   onlySteps,
	}
}

// printPlan reports the step groups and resolved run type without executing
// anything, for "hk run --plan" dry runs.
func (c *RunCommand) printPlan(hook *config.Hook, opts scheduler.RunOptions) int {
	fmt.Printf("run type: %s\n", opts.RunType)
	groups := scheduler.BuildGroups(hook.Steps)
	for i, group := range groups {
		fmt.Printf("group %d:\n", i+1)
		for _, step := range group.Steps {
			if len(opts.OnlySteps) > 0 && !opts.OnlySteps[step.Name] {
				continue
			}
			fmt.Printf("  - %s\n", step.Name)
		}
	}
	return 0
}

// RunCommandFactory creates a new run command instance
func RunCommandFactory() (cli.Command, error) {
	return &RunCommand{}, nil
}
