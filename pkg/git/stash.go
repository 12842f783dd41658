package git

import (
	"crypto/rand"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/markjaquith/hk/pkg/scheduler"
)

// PatchStash is a scheduler.StashHandle backed by a binary unified diff
// file. Ports the teacher's StashInfo/StashUnstagedChanges implementation
// to spec.md §4.2's PatchFile stash method: diff index vs. worktree for
// tracked files, write the patch under <root>/.git/hk/patches/, then reset
// the worktree to match the index. Untracked files are not part of the
// patch and stay in the worktree.
type PatchStash struct {
	PatchFile string
	Files     []string
}

// Empty reports whether there was nothing to stash.
func (s *PatchStash) Empty() bool { return s == nil || s.PatchFile == "" }

// StashUnstaged implements scheduler.Repo's stash capability: stash
// unstaged changes as a binary patch and reset the worktree to the index.
func (r *Repository) StashUnstaged(includeUntracked bool) (scheduler.StashHandle, error) {
	hasChanges, err := r.hasUnstagedChanges()
	if err != nil {
		return nil, err
	}
	if !hasChanges {
		return &PatchStash{}, nil
	}

	files, err := r.unstagedChangesFiles()
	if err != nil {
		return nil, err
	}

	patchFile, err := r.createPatchFile()
	if err != nil {
		return nil, err
	}

	// Only tracked-file unstaged changes are captured; includeUntracked
	// (HK_STASH_UNTRACKED) has no effect on the patch.
	cmd := exec.Command("git", "diff", "--binary")
	cmd.Dir = r.root
	patchContent, err := cmd.Output()
	if err != nil {
		_ = os.Remove(patchFile)
		return nil, fmt.Errorf("failed to create patch: %w", err)
	}

	if err := os.WriteFile(patchFile, patchContent, 0o600); err != nil {
		_ = os.Remove(patchFile)
		return nil, fmt.Errorf("failed to write patch file: %w", err)
	}

	for _, file := range files {
		if err := r.checkoutFileFromIndex(file); err != nil {
			if err := r.writeFileFromStaged(file); err != nil {
				stash := &PatchStash{PatchFile: patchFile, Files: files}
				if restoreErr := r.PopStash(stash); restoreErr != nil {
					return nil, fmt.Errorf("failed to write staged content for %s: %w (also failed to restore: %v)", file, err, restoreErr)
				}
				return nil, fmt.Errorf("failed to write staged content for %s: %w", file, err)
			}
		}
	}

	return &PatchStash{PatchFile: patchFile, Files: files}, nil
}

// PopStash applies the stashed patch back onto the worktree and removes it.
func (r *Repository) PopStash(handle scheduler.StashHandle) error {
	if handle == nil || handle.Empty() {
		return nil
	}
	stash, ok := handle.(*PatchStash)
	if !ok {
		return fmt.Errorf("pkg/git: PopStash received a stash handle of type %T", handle)
	}
	cmd := exec.Command("git", "apply", stash.PatchFile)
	cmd.Dir = r.root
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("failed to restore stashed changes: %w", err)
	}
	if err := os.Remove(stash.PatchFile); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to remove patch file: %w", err)
	}
	return nil
}

func (r *Repository) hasUnstagedChanges() (bool, error) {
	cmd := exec.Command("git", "diff", "--quiet", "--exit-code")
	cmd.Dir = r.root
	err := cmd.Run()
	if err != nil {
		var exitError *exec.ExitError
		if errors.As(err, &exitError) && exitError.ExitCode() == 1 {
			return true, nil
		}
		return false, fmt.Errorf("failed to check for unstaged changes: %w", err)
	}
	return false, nil
}

func (r *Repository) unstagedChangesFiles() ([]string, error) {
	cmd := exec.Command("git", "diff", "--name-only")
	cmd.Dir = r.root
	output, err := cmd.Output()
	if err != nil {
		return nil, fmt.Errorf("failed to get unstaged files: %w", err)
	}
	var files []string
	for _, line := range strings.Split(strings.TrimSpace(string(output)), "\n") {
		line = strings.TrimSpace(line)
		if line != "" {
			files = append(files, line)
		}
	}
	return files, nil
}

func (r *Repository) checkoutFileFromIndex(file string) error {
	cmd := exec.Command("git", "checkout", "--", file)
	cmd.Dir = r.root
	return cmd.Run()
}

func (r *Repository) writeFileFromStaged(file string) error {
	cmd := exec.Command("git", "show", ":"+file)
	cmd.Dir = r.root
	content, err := cmd.Output()
	if err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(r.root, file), content, 0o600)
}

// createPatchFile names a patch file <root>/.git/hk/patches/<date>-<rand>.patch,
// per spec.md §6's persisted-state layout.
func (r *Repository) createPatchFile() (string, error) {
	dir := filepath.Join(r.root, ".git", "hk", "patches")
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return "", fmt.Errorf("failed to create patch directory: %w", err)
	}

	timestamp := time.Now().Format("20060102-150405")
	randomBytes := make([]byte, 4)
	if _, err := rand.Read(randomBytes); err != nil {
		return "", fmt.Errorf("failed to generate random bytes: %w", err)
	}

	filename := fmt.Sprintf("%s-%x.patch", timestamp, randomBytes)
	return filepath.Join(dir, filename), nil
}
