// Package git implements the scheduler.Repo capability against a real git
// worktree, split between go-git/v5 for read-only plumbing (status, tree
// diffing, ref resolution) and exec.Command("git", ...) for porcelain
// go-git doesn't expose well (stash, apply) — the same split the teacher's
// original pkg/git used.
package git

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
)

// Repository implements the scheduler.Repo interface.
type Repository struct {
	repo *git.Repository
	root string
}

// NewRepository opens the repository containing path (or the current
// directory if path is empty).
func NewRepository(path string) (*Repository, error) {
	root, err := FindGitRoot(path)
	if err != nil {
		return nil, err
	}

	repo, err := git.PlainOpen(root)
	if err != nil {
		return nil, fmt.Errorf("failed to open git repository: %w", err)
	}

	return &Repository{root: root, repo: repo}, nil
}

// FindGitRoot walks upward from path looking for a .git directory or
// gitdir-file (worktree), returning the containing directory.
func FindGitRoot(path string) (string, error) {
	if path == "" {
		var err error
		path, err = os.Getwd()
		if err != nil {
			return "", fmt.Errorf("failed to get current directory: %w", err)
		}
	}

	path, err := filepath.Abs(path)
	if err != nil {
		return "", fmt.Errorf("failed to get absolute path: %w", err)
	}

	for {
		gitDir := filepath.Join(path, ".git")
		if info, err := os.Stat(gitDir); err == nil {
			if info.IsDir() {
				return path, nil
			}
			// #nosec G304 -- reading git metadata
			if content, err := os.ReadFile(gitDir); err == nil {
				line := strings.TrimSpace(string(content))
				if strings.HasPrefix(line, "gitdir: ") {
					return path, nil
				}
			}
		}

		parent := filepath.Dir(path)
		if parent == path {
			return "", fmt.Errorf("not in a git repository")
		}
		path = parent
	}
}

// IsInRepository checks if the current directory is inside a git repository.
func IsInRepository() bool {
	_, err := FindGitRoot("")
	return err == nil
}

// Root returns the repository's top-level directory.
func (r *Repository) Root() string { return r.root }

func (r *Repository) worktreeStatus() (git.Status, *git.Worktree, error) {
	if r.repo == nil {
		return nil, nil, errors.New("repository is not initialized")
	}
	worktree, err := r.repo.Worktree()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to get worktree: %w", err)
	}
	status, err := worktree.Status()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to get status: %w", err)
	}
	return status, worktree, nil
}

// StagedFiles returns files added, modified, or copied in the index.
func (r *Repository) StagedFiles() ([]string, error) {
	status, _, err := r.worktreeStatus()
	if err != nil {
		return nil, err
	}
	var files []string
	for file, fs := range status {
		if fs.Staging == git.Added || fs.Staging == git.Modified || fs.Staging == git.Copied {
			files = append(files, file)
		}
	}
	return files, nil
}

// UnstagedFiles returns files modified or newly created in the worktree but
// not staged.
func (r *Repository) UnstagedFiles() ([]string, error) {
	status, _, err := r.worktreeStatus()
	if err != nil {
		return nil, err
	}
	var files []string
	for file, fs := range status {
		if fs.Worktree == git.Modified || fs.Worktree == git.Untracked {
			files = append(files, file)
		}
	}
	return files, nil
}

// AllFiles returns the union of every tracked file (HEAD plus index), best
// effort against a HEAD-less (freshly initialized) repository.
func (r *Repository) AllFiles() ([]string, error) {
	status, _, err := r.worktreeStatus()
	if err != nil {
		return nil, err
	}

	fileSet := make(map[string]bool)
	for file, fs := range status {
		if fs.Worktree == git.Untracked {
			continue
		}
		fileSet[file] = true
	}
	r.addHeadFilesToSet(fileSet)

	files := make([]string, 0, len(fileSet))
	for file := range fileSet {
		files = append(files, file)
	}
	return files, nil
}

func (r *Repository) addHeadFilesToSet(fileSet map[string]bool) {
	head, err := r.repo.Head()
	if err != nil {
		return
	}
	commit, err := r.repo.CommitObject(head.Hash())
	if err != nil {
		return
	}
	tree, err := commit.Tree()
	if err != nil {
		return
	}
	//nolint:errcheck // best-effort file collection
	tree.Files().ForEach(func(f *object.File) error {
		fileSet[f.Name] = true
		return nil
	})
}

// HasHead reports whether HEAD resolves to a commit.
func (r *Repository) HasHead() bool {
	_, err := r.repo.Head()
	return err == nil
}

// CurrentBranch returns the short name of the branch HEAD points to.
func (r *Repository) CurrentBranch() (string, error) {
	head, err := r.repo.Head()
	if err != nil {
		return "", fmt.Errorf("failed to get HEAD: %w", err)
	}
	if !head.Name().IsBranch() {
		return "", fmt.Errorf("HEAD is not pointing to a branch")
	}
	return head.Name().Short(), nil
}

// FilesBetweenRefs returns the ACM-filtered file list changed between two
// resolvable refs (branch, tag, or commit hash), backing spec.md §4.1's
// from_ref/to_ref file-selection mode.
func (r *Repository) FilesBetweenRefs(fromRef, toRef string) ([]string, error) {
	fromHash, err := r.resolveReference(fromRef)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve reference %s: %w", fromRef, err)
	}
	toHash, err := r.resolveReference(toRef)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve reference %s: %w", toRef, err)
	}

	fromCommit, err := r.repo.CommitObject(fromHash)
	if err != nil {
		return nil, fmt.Errorf("failed to get commit %s: %w", fromRef, err)
	}
	toCommit, err := r.repo.CommitObject(toHash)
	if err != nil {
		return nil, fmt.Errorf("failed to get commit %s: %w", toRef, err)
	}

	fromTree, err := fromCommit.Tree()
	if err != nil {
		return nil, fmt.Errorf("failed to get tree for %s: %w", fromRef, err)
	}
	toTree, err := toCommit.Tree()
	if err != nil {
		return nil, fmt.Errorf("failed to get tree for %s: %w", toRef, err)
	}

	changes, err := fromTree.Diff(toTree)
	if err != nil {
		return nil, fmt.Errorf("failed to get diff between %s and %s: %w", fromRef, toRef, err)
	}

	var files []string
	for _, change := range changes {
		if change.To.Name != "" {
			files = append(files, change.To.Name)
		}
	}
	return files, nil
}

func (r *Repository) resolveReference(ref string) (plumbing.Hash, error) {
	if resolvedRef, err := r.repo.ResolveRevision(plumbing.Revision(ref)); err == nil {
		return *resolvedRef, nil
	}
	if hash := plumbing.NewHash(ref); !hash.IsZero() {
		return hash, nil
	}
	return plumbing.ZeroHash, fmt.Errorf("unable to resolve reference: %s", ref)
}

// Add stages paths, backing spec.md §4.10's post-fix re-staging step.
func (r *Repository) Add(paths []string) error {
	if len(paths) == 0 {
		return nil
	}
	worktree, err := r.repo.Worktree()
	if err != nil {
		return fmt.Errorf("failed to get worktree: %w", err)
	}
	for _, p := range paths {
		if _, err := worktree.Add(p); err != nil {
			return fmt.Errorf("failed to stage %s: %w", p, err)
		}
	}
	return nil
}

// InstallHook writes script as an executable git hook.
func (r *Repository) InstallHook(hookName, script string) error {
	hooksDir := filepath.Join(r.root, ".git", "hooks")
	if err := os.MkdirAll(hooksDir, 0o750); err != nil {
		return fmt.Errorf("failed to create hooks directory: %w", err)
	}

	hookPath := filepath.Join(hooksDir, hookName)
	if err := os.WriteFile(hookPath, []byte(script), 0o600); err != nil {
		return fmt.Errorf("failed to write hook file: %w", err)
	}

	// #nosec G302 - hook scripts need to be executable
	if err := os.Chmod(hookPath, 0o700); err != nil {
		return fmt.Errorf("failed to make hook executable: %w", err)
	}
	return nil
}

// UninstallHook removes a previously installed hook, if present.
func (r *Repository) UninstallHook(hookName string) error {
	hookPath := filepath.Join(r.root, ".git", "hooks", hookName)
	if err := os.Remove(hookPath); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to remove hook: %w", err)
	}
	return nil
}

// HasHook reports whether a hook is installed.
func (r *Repository) HasHook(hookName string) bool {
	hookPath := filepath.Join(r.root, ".git", "hooks", hookName)
	_, err := os.Stat(hookPath)
	return err == nil
}
