package scheduler

// stashIfNeeded implements spec.md §4.2's stash protocol: skip entirely on
// StashNone, on a HEAD-less repo, or when there are no unstaged changes to
// protect; otherwise stash through Repo.StashUnstaged, the same call for
// StashGit and StashPatchFile (the method only decides whether to stash at
// all), and always attempt the matching pop, even on a later failure, so a
// crash never leaves the worktree stashed. Grounded on the teacher's
// pkg/git/stash.go StashUnstagedChanges/RestoreFromStash pair and
// original_source/src/git.rs::stash_unstaged's early-return-on-no-HEAD.
func stashIfNeeded(hctx *HookContext) (StashHandle, error) {
	if hctx.Settings.StashMethod == StashNone {
		return nil, nil
	}
	if !hctx.Repo.HasHead() {
		return nil, nil
	}
	handle, err := hctx.Repo.StashUnstaged(hctx.Settings.StashUntracked)
	if err != nil {
		return nil, &StashError{Op: "stash", Err: err}
	}
	if handle == nil || handle.Empty() {
		return nil, nil
	}
	return handle, nil
}

// popStash always attempts the pop; it never panics or discards the
// original run error, but it does report its own failure distinctly so a
// caller can surface both ("step X failed" and "failed to restore stash").
func popStash(hctx *HookContext, handle StashHandle) error {
	if handle == nil {
		return nil
	}
	if err := hctx.Repo.PopStash(handle); err != nil {
		return &StashError{Op: "pop", Err: err}
	}
	return nil
}
