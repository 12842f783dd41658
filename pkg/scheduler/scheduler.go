package scheduler

import (
	"context"
	"errors"
	"fmt"

	"github.com/markjaquith/hk/pkg/glob"
	"github.com/markjaquith/hk/pkg/progress"
)

// Hook is an ordered list of steps bound to a name ("pre-commit",
// "pre-push", ...), the top-level unit a command invokes. Ports
// original_source/src/hook.rs::Hook.
type Hook struct {
	Name  string
	Steps []*Step
}

// RunOptions carries the per-invocation overrides spec.md §4.1 and
// original_source/src/hook_options.rs describe: file-selection mode, an
// explicit run type, and a subset of step names to run.
type RunOptions struct {
	// Files, FromRef/ToRef, AllFiles select the file set, in the precedence
	// order spec.md §4.1 names: explicit Files first, then ExtraGlob against
	// the tracked set, then FromRef/ToRef, then AllFiles, then staged (when
	// stashing is enabled) or staged+unstaged.
	Files     []string
	ExtraGlob []string
	FromRef   string
	ToRef     string
	AllFiles  bool

	// Exclude and ExcludeGlob are applied uniformly after whichever
	// precedence rule above resolves the base file set, per spec.md §4.1.
	Exclude     []string
	ExcludeGlob []string

	RunType   RunType
	OnlySteps map[string]bool
}

// Run executes every group of h.Steps in order against the resolved file
// set, implementing spec.md §4's full sequence: file resolution, stash,
// group-by-group execution, and guaranteed stash pop. Under fail-fast
// settings the returned error is the first failing group's error and later
// groups do not run; otherwise every group runs and the returned error
// joins every failing group's error.
func (h *Hook) Run(ctx context.Context, hctx *HookContext, opts RunOptions) error {
	files, err := opts.resolveFiles(hctx)
	if err != nil {
		return err
	}

	steps := h.selectSteps(hctx, opts)
	if len(steps) == 0 {
		return nil
	}

	// spec.md §4.1 early exit: an empty file set is only "nothing to run"
	// if every selected step actually requires files to act on. A step
	// with no Dir/Glob/Exclude filters runs unconditionally and must not
	// be skipped just because the file set happened to resolve empty.
	if len(files) == 0 {
		hasWork, err := hasAnyStepWork(steps, files)
		if err != nil {
			return err
		}
		if !hasWork {
			return nil
		}
	}

	handle, err := stashIfNeeded(hctx)
	if err != nil {
		return err
	}

	runErr := h.runGroups(ctx, hctx, steps, files, opts.RunType)

	if popErr := popStash(hctx, handle); popErr != nil {
		if runErr != nil {
			return fmt.Errorf("%w (also failed to restore stash: %v)", runErr, popErr)
		}
		return popErr
	}
	return runErr
}

func (h *Hook) runGroups(ctx context.Context, hctx *HookContext, steps []*Step, files []string, runType RunType) error {
	groups := BuildGroups(steps)
	var hookJob progress.Job
	if hctx.Sink != nil {
		hookJob = hctx.Sink.Start(h.Name)
	}

	var errs []error
	for _, group := range groups {
		if hctx.ShouldCancel() {
			return Cancelled
		}
		var groupJob progress.Job
		if hookJob != nil {
			groupJob = hookJob
		}
		if err := group.Run(ctx, hctx, files, runType, groupJob); err != nil {
			if !errors.Is(err, Cancelled) {
				hctx.MarkFailed()
			}
			if hctx.Settings.FailFast {
				if hookJob != nil {
					hookJob.SetStatus(progress.StatusFailed)
				}
				return err
			}
			errs = append(errs, err)
		}
	}

	if hookJob != nil {
		if hctx.Failed() {
			hookJob.SetStatus(progress.StatusFailed)
		} else {
			hookJob.SetStatus(progress.StatusDone)
		}
	}
	if len(errs) > 0 {
		return errors.Join(errs...)
	}
	return nil
}

// selectSteps applies OnlySteps (from "--step") and profile gating.
func (h *Hook) selectSteps(hctx *HookContext, opts RunOptions) []*Step {
	var out []*Step
	for _, s := range h.Steps {
		if len(opts.OnlySteps) > 0 && !opts.OnlySteps[s.Name] {
			continue
		}
		if !s.IsProfileEnabled(hctx.Settings.EnabledProfiles, hctx.Settings.DisabledProfiles) {
			continue
		}
		out = append(out, s)
	}
	return out
}

// resolveFiles implements spec.md §4.1's precedence:
//  1. explicit Files
//  2. ExtraGlob matched against the repo's tracked file list
//  3. FromRef/ToRef diff name-list
//  4. AllFiles ⇒ the repo's full tracked file list
//  5. otherwise, staged files if stashing is enabled, else staged ∪ unstaged
//
// Exclude/ExcludeGlob are then applied uniformly to whichever base set won,
// rather than being tied to any one precedence branch.
func (o *RunOptions) resolveFiles(hctx *HookContext) ([]string, error) {
	files, err := o.resolveBaseFiles(hctx)
	if err != nil {
		return nil, err
	}
	return o.applyExclusions(files)
}

func (o *RunOptions) resolveBaseFiles(hctx *HookContext) ([]string, error) {
	if len(o.Files) > 0 {
		return o.Files, nil
	}

	if len(o.ExtraGlob) > 0 {
		all, err := hctx.Repo.AllFiles()
		if err != nil {
			return nil, &FileSelectionError{Err: err}
		}
		matched, err := glob.Matches(o.ExtraGlob, all)
		if err != nil {
			return nil, &FileSelectionError{Err: err}
		}
		return matched, nil
	}

	if o.FromRef != "" && o.ToRef != "" {
		files, err := hctx.Repo.FilesBetweenRefs(o.FromRef, o.ToRef)
		if err != nil {
			return nil, &FileSelectionError{Err: err}
		}
		return files, nil
	}

	if o.AllFiles {
		files, err := hctx.Repo.AllFiles()
		if err != nil {
			return nil, &FileSelectionError{Err: err}
		}
		return files, nil
	}

	staged, err := hctx.Repo.StagedFiles()
	if err != nil {
		return nil, &FileSelectionError{Err: err}
	}
	if hctx.Settings.StashMethod != StashNone {
		return staged, nil
	}
	unstaged, err := hctx.Repo.UnstagedFiles()
	if err != nil {
		return nil, &FileSelectionError{Err: err}
	}
	return dedupeUnion(staged, unstaged), nil
}

// applyExclusions implements spec.md §4.1's exclude/exclude_glob step,
// applied after the base file set is resolved regardless of which
// precedence branch produced it.
func (o *RunOptions) applyExclusions(files []string) ([]string, error) {
	if len(o.Exclude) == 0 && len(o.ExcludeGlob) == 0 {
		return files, nil
	}

	out := files
	if len(o.Exclude) > 0 {
		excluded := make(map[string]bool, len(o.Exclude))
		for _, e := range o.Exclude {
			excluded[e] = true
		}
		filtered := make([]string, 0, len(out))
		for _, f := range out {
			if !excluded[f] {
				filtered = append(filtered, f)
			}
		}
		out = filtered
	}

	if len(o.ExcludeGlob) > 0 {
		matched, err := glob.Matches(negate(o.ExcludeGlob), out)
		if err != nil {
			return nil, &FileSelectionError{Err: err}
		}
		out = matched
	}

	return out, nil
}

// hasAnyStepWork reports whether at least one step would produce a job
// against files, using the same per-step Dir/Glob/Exclude matching
// buildJobsForStep applies, but without constructing jobs. A step with no
// declared filters always counts as having work, since it runs
// unconditionally per spec.md §4.4.
func hasAnyStepWork(steps []*Step, files []string) (bool, error) {
	for _, step := range steps {
		stepFiles := filterByDir(step.Dir, files)
		declaredFilter := step.Dir != ""
		if step.Dir != "" && len(stepFiles) == 0 {
			continue
		}

		if len(step.Glob) > 0 || len(step.Exclude) > 0 {
			declaredFilter = true
			matched, err := glob.Matches(append(append([]string{}, step.Glob...), negate(step.Exclude)...), stepFiles)
			if err != nil {
				return false, &FileSelectionError{Step: step.Name, Err: err}
			}
			stepFiles = matched
		}

		if declaredFilter && len(stepFiles) == 0 {
			continue
		}
		return true, nil
	}
	return false, nil
}

func dedupeUnion(a, b []string) []string {
	seen := make(map[string]bool, len(a)+len(b))
	out := make([]string, 0, len(a)+len(b))
	for _, list := range [][]string{a, b} {
		for _, f := range list {
			if !seen[f] {
				seen[f] = true
				out = append(out, f)
			}
		}
	}
	return out
}
