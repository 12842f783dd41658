package scheduler

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/markjaquith/hk/pkg/glob"
	"github.com/markjaquith/hk/pkg/render"
)

// ExecuteJob renders and runs job's command, implementing spec.md §4.8
// (subprocess execution) and §4.9 (check-first optimisation). On a
// check-first job, the step's preferred check variant runs first; on any
// failure it falls through to the fix phase, narrowing the file set to
// F' ∩ F (canonicalised) when the failure was a CheckListFailed, or keeping
// the original file set for any other failure kind.
func ExecuteJob(ctx context.Context, hctx *HookContext, sctx *StepContext, job *StepJob) error {
	if job.CheckFirst {
		rt := RunType{Kind: RunCheck, Check: job.Step.PreferredCheckType()}
		err := runOne(ctx, hctx, sctx, job, rt)
		if err == nil {
			return nil
		}
		fixJob := job
		var listFailed *CheckListFailed
		if errors.As(err, &listFailed) {
			narrowed := *job
			narrowed.Files = narrowFiles(job.Step.Name, job.Files, listFailed.Stdout)
			if len(narrowed.Files) == 0 {
				return nil
			}
			fixJob = &narrowed
		}
		return runOne(ctx, hctx, sctx, fixJob, job.RunType)
	}
	return runOne(ctx, hctx, sctx, job, job.RunType)
}

// narrowFiles implements spec.md §4.9 point 3 / Testable Property 7: the
// fixer receives exactly F' ∩ F (the job's original files, filtered to
// those the check-first script listed), compared by canonical path. Listed
// paths that don't canonicalize to any file in F are warned about and
// dropped rather than passed through.
func narrowFiles(stepName string, files []string, listStdout string) []string {
	listed := make(map[string]bool)
	for _, f := range splitNonEmptyLines(listStdout) {
		listed[canonicalizePath(f)] = true
	}

	var kept []string
	matched := make(map[string]bool, len(listed))
	for _, f := range files {
		c := canonicalizePath(f)
		if listed[c] {
			kept = append(kept, f)
			matched[c] = true
		}
	}

	for c := range listed {
		if !matched[c] {
			fmt.Fprintf(os.Stderr, "%s: file in check_list_files not found in original files: %s\n", stepName, c)
		}
	}
	return kept
}

// canonicalizePath resolves f to an absolute, symlink-free path for
// comparison purposes, falling back to the cleaned input if it doesn't
// exist (e.g. a check script reporting a path relative to a different cwd).
func canonicalizePath(f string) string {
	if resolved, err := filepath.EvalSymlinks(f); err == nil {
		if abs, err := filepath.Abs(resolved); err == nil {
			return abs
		}
		return resolved
	}
	if abs, err := filepath.Abs(f); err == nil {
		return filepath.Clean(abs)
	}
	return filepath.Clean(f)
}

func splitNonEmptyLines(s string) []string {
	var out []string
	for _, line := range strings.Split(s, "\n") {
		line = strings.TrimSpace(line)
		if line != "" {
			out = append(out, line)
		}
	}
	return out
}

// runOne renders and executes one concrete invocation of job's step under
// rt, returning a *ScriptFailed, *CheckListFailed, or nil.
func runOne(ctx context.Context, hctx *HookContext, sctx *StepContext, job *StepJob, rt RunType) error {
	step := job.Step
	script, ok := step.RunCmd(rt)
	if !ok {
		return nil
	}

	tctx := &render.Context{
		Files:              render.QuoteFiles(render.ShellPOSIX, job.Files),
		Globs:              step.Glob,
		Root:               hctx.Repo.Root(),
		WorkspaceIndicator: job.WorkspaceIndicator,
	}
	if hctx.RootTemplateContext != nil {
		tctx.Workspace = hctx.RootTemplateContext.Workspace
		for k, v := range hctx.RootTemplateContext.Extra {
			tctx.Insert(k, v)
		}
	}

	rendered, err := render.Render(script, tctx)
	if err != nil {
		return err
	}

	argv := step.ShellCmd()
	argv = append(append([]string{}, argv...), rendered)

	cmd := exec.CommandContext(ctx, argv[0], argv[1:]...)
	if step.Dir != "" {
		cmd.Dir = step.Dir
	}
	cmd.Env = mergeEnv(os.Environ(), step.Env)

	var out, stdout bytes.Buffer
	cmd.Stdout = io.MultiWriter(&out, &stdout)
	cmd.Stderr = &out

	runErr := cmd.Run()
	if runErr == nil {
		if rt.Kind == RunFix && len(step.Stage) > 0 {
			if err := restage(hctx, step.Stage); err != nil {
				return fmt.Errorf("restaging %s output: %w", step.Name, err)
			}
		}
		return nil
	}

	if ctx.Err() != nil {
		return Cancelled
	}
	if rt.Kind == RunCheck && rt.Check == CheckListFiles && len(splitNonEmptyLines(stdout.String())) > 0 {
		return &CheckListFailed{Stdout: stdout.String()}
	}

	exitCode := -1
	var exitErr *exec.ExitError
	if errors.As(runErr, &exitErr) {
		exitCode = exitErr.ExitCode()
	}
	return &ScriptFailed{
		Bin:            argv[0],
		Args:           argv[1:],
		CombinedOutput: out.String(),
		ExitCode:       exitCode,
		Err:            runErr,
	}
}

// restage implements spec.md §4.10: after a fix script succeeds, stage
// every unstaged (modified or untracked) file that matches the step's stage
// patterns, so a fixer's output is committed alongside the change it
// corrected rather than left unstaged. Files outside the stage patterns are
// left alone; a matching file is staged whether or not the fix script
// changed it.
func restage(hctx *HookContext, stagePatterns []string) error {
	unstaged, err := hctx.Repo.UnstagedFiles()
	if err != nil {
		return fmt.Errorf("listing unstaged files: %w", err)
	}
	if len(unstaged) == 0 {
		return nil
	}
	matcher, err := glob.New(stagePatterns)
	if err != nil {
		return fmt.Errorf("compiling stage patterns: %w", err)
	}
	var toAdd []string
	for _, f := range unstaged {
		if matcher.Match(f) {
			toAdd = append(toAdd, f)
		}
	}
	if len(toAdd) == 0 {
		return nil
	}
	return hctx.Repo.Add(toAdd)
}

// mergeEnv scrubs GIT_* variables that would leak the hook's own index
// state into the step's subprocess — notably GIT_INDEX_FILE, which
// original_source/src/env.rs documents as able to produce "invalid object"
// errors if a step shells back out to git (the same concern pkg/git.NoGitEnv
// addresses for its own subprocess calls; duplicated here in miniature so
// this package doesn't need to depend on pkg/git) — then appends
// step-declared env vars on top, letting step-declared values win on key
// collision.
func mergeEnv(base []string, extra map[string]string) []string {
	filtered := make([]string, 0, len(base))
	for _, kv := range base {
		key, _, _ := strings.Cut(kv, "=")
		if key == "GIT_INDEX_FILE" || key == "GIT_WORK_TREE" || key == "GIT_DIR" {
			continue
		}
		filtered = append(filtered, kv)
	}
	if len(extra) == 0 {
		return filtered
	}
	out := make([]string, 0, len(filtered)+len(extra))
	out = append(out, filtered...)
	for k, v := range extra {
		out = append(out, k+"="+v)
	}
	return out
}
