package scheduler

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/markjaquith/hk/pkg/glob"
)

// Group is a maximal run of consecutive non-exclusive steps plus any
// singleton exclusive step (spec.md glossary, §4.3). Groups run strictly
// sequentially; steps within a group run concurrently.
type Group struct {
	Steps []*Step
}

// BuildGroups folds an ordered step list into groups: an exclusive step
// starts (and ends) its own group; non-exclusive steps accumulate into the
// current group. Empty groups are discarded. Ports
// original_source/src/step_group.rs::build_all and
// step_queue.rs::StepQueueBuilder::build's identical fold.
func BuildGroups(steps []*Step) []*Group {
	var groups []*Group
	for _, step := range steps {
		if step.Exclusive || len(groups) == 0 {
			groups = append(groups, &Group{})
		}
		last := groups[len(groups)-1]
		last.Steps = append(last.Steps, step)
		if step.Exclusive {
			groups = append(groups, &Group{})
		}
	}
	out := groups[:0]
	for _, g := range groups {
		if len(g.Steps) > 0 {
			out = append(out, g)
		}
	}
	return out
}

// StepQueueBuilder builds, for one Group, the ordered list of StepJobs to
// run. Kept as a pure, synchronization-free function of (steps, files,
// runType) outside the scheduler itself, per
// original_source/src/step_queue.rs's own doc comment: "this is kept
// outside of the Scheduler so the logic here is pure where the scheduler
// deals with parallel execution synchronization."
type StepQueueBuilder struct {
	Steps   []*Step
	Files   []string
	RunType RunType
	Jobs    int // parallelism, for batch-size computation
}

// Build returns the round-robin-interleaved job queue for the group.
func (b *StepQueueBuilder) Build() ([]*StepJob, error) {
	var perStep [][]*StepJob
	for _, step := range b.Steps {
		jobs, err := b.buildJobsForStep(step)
		if err != nil {
			return nil, err
		}
		if len(jobs) > 0 {
			perStep = append(perStep, jobs)
		}
	}

	// Round-robin through the steps so one step's jobs don't monopolize the
	// front of the queue, matching step_queue.rs's queue-draining loop.
	var queue []*StepJob
	for len(perStep) > 0 {
		remaining := perStep[:0]
		for _, jobs := range perStep {
			if len(jobs) > 0 {
				queue = append(queue, jobs[0])
				jobs = jobs[1:]
			}
			if len(jobs) > 0 {
				remaining = append(remaining, jobs)
			}
		}
		perStep = remaining
	}

	if anyCheckFirst(queue) {
		contention, err := b.filesInContention()
		if err != nil {
			return nil, err
		}
		for _, job := range queue {
			if !job.CheckFirst {
				continue
			}
			job.CheckFirst = fileSetIntersects(job.Files, contention)
		}
	}

	return queue, nil
}

func anyCheckFirst(jobs []*StepJob) bool {
	for _, j := range jobs {
		if j.CheckFirst {
			return true
		}
	}
	return false
}

func fileSetIntersects(files []string, set map[string]bool) bool {
	for _, f := range files {
		if set[f] {
			return true
		}
	}
	return false
}

// buildJobsForStep implements spec.md §4.4's per-step job construction.
func (b *StepQueueBuilder) buildJobsForStep(step *Step) ([]*StepJob, error) {
	rt, ok := step.AvailableRunType(b.RunType)
	if !ok {
		return nil, nil
	}

	files := filterByDir(step.Dir, b.Files)
	declaredFilter := step.Dir != ""
	if step.Dir != "" && len(files) == 0 {
		return nil, nil
	}

	if len(step.Glob) > 0 || len(step.Exclude) > 0 {
		declaredFilter = true
		matched, err := glob.Matches(append(append([]string{}, step.Glob...), negate(step.Exclude)...), files)
		if err != nil {
			return nil, &FileSelectionError{Step: step.Name, Err: err}
		}
		files = matched
	}
	if declaredFilter && len(files) == 0 {
		return nil, nil
	}

	switch {
	case step.WorkspaceIndicator != "":
		return b.buildWorkspaceJobs(step, files, rt)
	case step.Batch:
		return b.buildBatchJobs(step, files, rt), nil
	default:
		return []*StepJob{NewStepJob(step, files, rt)}, nil
	}
}

func negate(excludes []string) []string {
	out := make([]string, len(excludes))
	for i, e := range excludes {
		out[i] = "!" + e
	}
	return out
}

// filterByDir retains files under dir and strips the dir prefix from the
// survivors, per spec.md §4.4 point 2.
func filterByDir(dir string, files []string) []string {
	if dir == "" {
		return append([]string{}, files...)
	}
	dir = filepath.ToSlash(dir)
	var out []string
	for _, f := range files {
		sf := filepath.ToSlash(f)
		if sf == dir || strings.HasPrefix(sf, dir+"/") {
			out = append(out, strings.TrimPrefix(strings.TrimPrefix(sf, dir), "/"))
		}
	}
	return out
}

// buildWorkspaceJobs walks up from each file's directory to find the
// nearest ancestor containing the step's WorkspaceIndicator file, grouping
// files by that ancestor (spec.md §4.4's workspace_indicator partitioning).
func (b *StepQueueBuilder) buildWorkspaceJobs(step *Step, files []string, rt RunType) ([]*StepJob, error) {
	byWorkspace := map[string][]string{}
	for _, f := range files {
		ws, err := findWorkspaceRoot(f, step.WorkspaceIndicator)
		if err != nil {
			return nil, &FileSelectionError{Step: step.Name, Err: err}
		}
		if ws == "" {
			continue
		}
		byWorkspace[ws] = append(byWorkspace[ws], f)
	}
	if len(byWorkspace) == 0 {
		return nil, nil
	}
	roots := make([]string, 0, len(byWorkspace))
	for ws := range byWorkspace {
		roots = append(roots, ws)
	}
	sort.Strings(roots)
	jobs := make([]*StepJob, 0, len(roots))
	for _, ws := range roots {
		jobs = append(jobs, NewStepJob(step, byWorkspace[ws], rt).WithWorkspaceIndicator(ws))
	}
	return jobs, nil
}

// findWorkspaceRoot walks up from file's directory looking for indicator,
// returning the directory containing it, or "" if none is found up to the
// filesystem root.
func findWorkspaceRoot(file, indicator string) (string, error) {
	dir := filepath.Dir(file)
	for {
		candidate := filepath.Join(dir, indicator)
		if _, err := os.Stat(candidate); err == nil {
			return dir, nil
		} else if !os.IsNotExist(err) {
			return "", err
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return "", nil
		}
		dir = parent
	}
}

// buildBatchJobs splits files into consecutive chunks of max(1, len/jobs)
// files each; a final shorter chunk holds any remainder.
func (b *StepQueueBuilder) buildBatchJobs(step *Step, files []string, rt RunType) []*StepJob {
	jobs := b.Jobs
	if jobs < 1 {
		jobs = 1
	}
	chunkSize := len(files) / jobs
	if chunkSize < 1 {
		chunkSize = 1
	}
	var out []*StepJob
	for i := 0; i < len(files); i += chunkSize {
		end := i + chunkSize
		if end > len(files) {
			end = len(files)
		}
		out = append(out, NewStepJob(step, files[i:end], rt))
	}
	return out
}

// filesInContention implements spec.md §4.5: a file is in contention if
// more than one step in the group matches it and at least one of those
// steps declares a Fix script (the same test NewStepJob applies before
// enabling check-first).
func (b *StepQueueBuilder) filesInContention() (map[string]bool, error) {
	stepsPerFile := map[string][]*Step{}
	for _, step := range b.Steps {
		matched, err := glob.Matches(step.Glob, b.Files)
		if err != nil {
			return nil, fmt.Errorf("step %s: %w", step.Name, err)
		}
		for _, f := range matched {
			stepsPerFile[f] = append(stepsPerFile[f], step)
		}
	}
	out := map[string]bool{}
	for f, steps := range stepsPerFile {
		if len(steps) <= 1 {
			continue
		}
		for _, s := range steps {
			if s.Fix != "" {
				out[f] = true
				break
			}
		}
	}
	return out, nil
}
