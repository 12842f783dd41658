package scheduler

import (
	"sync"

	"golang.org/x/sync/semaphore"

	"github.com/markjaquith/hk/pkg/progress"
	"github.com/markjaquith/hk/pkg/render"
)

// Repo is the git capability HookContext needs; implemented by pkg/git.
// Kept minimal and defined where it's consumed, following the
// interfaces/core.go pattern the teacher used for its own capability
// interfaces before that file was retired as pre-commit-specific.
type Repo interface {
	Root() string
	CurrentBranch() (string, error)

	// StagedFiles, AllFiles, and UnstagedFiles back spec.md §4.1's file
	// selection precedence.
	StagedFiles() ([]string, error)
	AllFiles() ([]string, error)
	UnstagedFiles() ([]string, error)
	FilesBetweenRefs(from, to string) ([]string, error)

	// HasHead reports whether HEAD resolves to a commit; a repo mid-initial-
	// commit has no HEAD, which disables stashing (spec.md §4.2).
	HasHead() bool

	// Stash protocol, spec.md §4.2.
	StashUnstaged(includeUntracked bool) (StashHandle, error)
	PopStash(StashHandle) error

	Add(paths []string) error
}

// StashHandle is an opaque token a Repo's stash implementation returns from
// StashUnstaged and consumes in PopStash; its concrete shape (git stash ref,
// patch file path) is an implementation detail of pkg/git.
type StashHandle interface {
	Empty() bool
}

// HookContext is the shared mutable state for one hook invocation: the file
// lock table and semaphore outlive every individual StepGroup that runs
// within the hook, since a lock acquired in one group must still be visible
// to a later group referencing the same path (spec.md §3: "HookContext ...
// Holds the file lock table, the semaphore ..."). This is the
// spec.md-authoritative resolution of a tension with
// original_source/src/step_context.rs, whose StepContext struct holds
// file_locks/semaphore fields directly; that placement reflects how that
// implementation threaded Arc-shared references through a single-group
// call, not a narrower lifetime, and spec.md's explicit group-spanning
// language is the final word here.
type HookContext struct {
	Name string

	Locks *FileLockTable
	Sem   *semaphore.Weighted

	Settings *Settings
	Repo     Repo
	Sink     progress.Sink

	// RootTemplateContext carries hook-scoped template values (root,
	// workspace) that every StepContext's rendering inherits.
	RootTemplateContext *render.Context

	mu       sync.Mutex
	failed   bool
	aborted  bool
	exitCode int
}

// NewHookContext builds a HookContext with a lock table and semaphore sized
// to settings.Jobs, shared by every group run within this hook invocation.
func NewHookContext(name string, settings *Settings, repo Repo, sink progress.Sink, tctx *render.Context) *HookContext {
	jobs := settings.Jobs
	if jobs < 1 {
		jobs = 1
	}
	return &HookContext{
		Name:                name,
		Locks:               NewFileLockTable(),
		Sem:                 semaphore.NewWeighted(int64(jobs)),
		Settings:            settings,
		Repo:                repo,
		Sink:                sink,
		RootTemplateContext: tctx,
	}
}

// MarkFailed records that some job in this hook failed. Once set it is
// never cleared; Failed reports it for fail-fast cancellation decisions.
func (h *HookContext) MarkFailed() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.failed = true
}

func (h *HookContext) Failed() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.failed
}

func (h *HookContext) MarkAborted() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.aborted = true
}

func (h *HookContext) Aborted() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.aborted
}

func (h *HookContext) SetExitCode(code int) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if code > h.exitCode {
		h.exitCode = code
	}
}

func (h *HookContext) ExitCode() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.exitCode
}

// ShouldCancel reports whether running jobs should stop early: either a
// double-Ctrl-C abort, or a fail-fast-triggering failure.
func (h *HookContext) ShouldCancel() bool {
	if h.Aborted() {
		return true
	}
	return h.Settings.FailFast && h.Failed()
}
