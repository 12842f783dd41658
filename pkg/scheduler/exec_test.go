package scheduler

import (
	"context"
	"testing"

	"golang.org/x/sync/semaphore"
)

func newTestHookContext(t *testing.T, repo Repo) *HookContext {
	t.Helper()
	settings := &Settings{Jobs: 2}
	return &HookContext{
		Name:     "test",
		Locks:    NewFileLockTable(),
		Sem:      semaphore.NewWeighted(2),
		Settings: settings,
		Repo:     repo,
	}
}

func TestExecuteJobRunsFixScript(t *testing.T) {
	hctx := newTestHookContext(t, &fakeRepo{root: "."})
	sctx := &StepContext{Hook: hctx}
	step := &Step{Name: "echo", Fix: "echo {{files}} > /dev/null"}
	job := NewStepJob(step, []string{"a.go"}, Fix)

	if err := ExecuteJob(context.Background(), hctx, sctx, job); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestExecuteJobScriptFailure(t *testing.T) {
	hctx := newTestHookContext(t, &fakeRepo{root: "."})
	sctx := &StepContext{Hook: hctx}
	step := &Step{Name: "fail", Check: "exit 1"}
	job := NewStepJob(step, nil, CheckPlainRT)

	err := ExecuteJob(context.Background(), hctx, sctx, job)
	if err == nil {
		t.Fatal("expected an error from a failing script")
	}
	var sf *ScriptFailed
	if !asScriptFailed(err, &sf) {
		t.Fatalf("expected a *ScriptFailed, got %T: %v", err, err)
	}
	if sf.ExitCode != 1 {
		t.Fatalf("expected exit code 1, got %d", sf.ExitCode)
	}
}

func TestExecuteJobCheckFirstNarrowsOnListFailure(t *testing.T) {
	hctx := newTestHookContext(t, &fakeRepo{root: "."})
	sctx := &StepContext{Hook: hctx}
	step := &Step{
		Name:           "lint",
		CheckListFiles: "echo a.go; exit 1",
		Fix:            "echo fixed {{files}}",
		CheckFirst:     true,
	}
	job := NewStepJob(step, []string{"a.go", "b.go"}, Fix)

	if err := ExecuteJob(context.Background(), hctx, sctx, job); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

// TestExecuteJobCheckFirstFallsThroughOnPlainCheckFailure covers
// spec.md §4.9 point 4: a check-first step whose preferred check type is
// Plain (the common case, since PreferredCheckType only picks ListFiles
// when CheckListFiles is declared) must still run the fix phase when the
// check fails, not just on CheckListFailed.
func TestExecuteJobCheckFirstFallsThroughOnPlainCheckFailure(t *testing.T) {
	hctx := newTestHookContext(t, &fakeRepo{root: "."})
	sctx := &StepContext{Hook: hctx}
	step := &Step{
		Name:       "lint",
		Check:      "exit 1",
		Fix:        "echo fixed {{files}}",
		CheckFirst: true,
	}
	job := NewStepJob(step, []string{"a.go", "b.go"}, Fix)

	if err := ExecuteJob(context.Background(), hctx, sctx, job); err != nil {
		t.Fatalf("expected the fix phase to run and succeed, got error: %v", err)
	}
}

// TestExecuteJobCheckFirstNarrowsToIntersectionOnly covers spec.md §4.9
// point 3 / Testable Property 7: the fixer must only receive files that are
// both listed by the check and present in the job's original file set, and
// an out-of-set path must not silently pass through.
func TestExecuteJobCheckFirstNarrowsToIntersectionOnly(t *testing.T) {
	hctx := newTestHookContext(t, &fakeRepo{root: "."})
	sctx := &StepContext{Hook: hctx}
	step := &Step{
		Name:           "lint",
		CheckListFiles: "echo a.go; echo outside.go; exit 1",
		Fix:            "echo fixed {{files}}",
		CheckFirst:     true,
	}
	job := NewStepJob(step, []string{"a.go", "b.go"}, Fix)

	if err := ExecuteJob(context.Background(), hctx, sctx, job); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func asScriptFailed(err error, target **ScriptFailed) bool {
	if sf, ok := err.(*ScriptFailed); ok {
		*target = sf
		return true
	}
	return false
}
