package git

import (
	"os"
	"os/exec"
	"path/filepath"
	"testing"
)

func initTestRepo(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	run := func(args ...string) {
		cmd := exec.Command("git", args...)
		cmd.Dir = dir
		cmd.Env = append(os.Environ(),
			"GIT_AUTHOR_NAME=test", "GIT_AUTHOR_EMAIL=test@example.com",
			"GIT_COMMITTER_NAME=test", "GIT_COMMITTER_EMAIL=test@example.com",
		)
		if out, err := cmd.CombinedOutput(); err != nil {
			t.Fatalf("git %v: %v\n%s", args, err, out)
		}
	}
	run("init", "-q")
	run("config", "user.email", "test@example.com")
	run("config", "user.name", "test")
	return dir
}

func writeFile(t *testing.T, dir, name, content string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}
}

func TestFindGitRoot(t *testing.T) {
	dir := initTestRepo(t)
	sub := filepath.Join(dir, "a", "b")
	if err := os.MkdirAll(sub, 0o750); err != nil {
		t.Fatal(err)
	}

	root, err := FindGitRoot(sub)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if root != dir {
		// macOS TempDir may be under a symlink (/var -> /private/var);
		// compare the resolved form as a fallback.
		resolved, _ := filepath.EvalSymlinks(dir)
		rootResolved, _ := filepath.EvalSymlinks(root)
		if resolved != rootResolved {
			t.Fatalf("expected root %q, got %q", dir, root)
		}
	}
}

func TestFindGitRootOutsideRepo(t *testing.T) {
	if _, err := FindGitRoot(os.TempDir()); err == nil {
		t.Skip("test environment's temp dir is itself inside a git repository")
	}
}

func TestStagedAndUnstagedFiles(t *testing.T) {
	dir := initTestRepo(t)
	writeFile(t, dir, "committed.txt", "v1\n")
	cmd := exec.Command("git", "add", "committed.txt")
	cmd.Dir = dir
	if out, err := cmd.CombinedOutput(); err != nil {
		t.Fatalf("git add: %v\n%s", err, out)
	}
	cmd = exec.Command("git", "commit", "-q", "-m", "initial")
	cmd.Dir = dir
	cmd.Env = append(os.Environ(), "GIT_AUTHOR_NAME=t", "GIT_AUTHOR_EMAIL=t@t.com", "GIT_COMMITTER_NAME=t", "GIT_COMMITTER_EMAIL=t@t.com")
	if out, err := cmd.CombinedOutput(); err != nil {
		t.Fatalf("git commit: %v\n%s", err, out)
	}

	writeFile(t, dir, "committed.txt", "v2\n")
	writeFile(t, dir, "new.txt", "new\n")
	cmd = exec.Command("git", "add", "new.txt")
	cmd.Dir = dir
	if out, err := cmd.CombinedOutput(); err != nil {
		t.Fatalf("git add: %v\n%s", err, out)
	}

	repo, err := NewRepository(dir)
	if err != nil {
		t.Fatalf("NewRepository: %v", err)
	}

	staged, err := repo.StagedFiles()
	if err != nil {
		t.Fatalf("StagedFiles: %v", err)
	}
	if !contains(staged, "new.txt") {
		t.Fatalf("expected new.txt to be staged, got %v", staged)
	}

	unstaged, err := repo.UnstagedFiles()
	if err != nil {
		t.Fatalf("UnstagedFiles: %v", err)
	}
	if !contains(unstaged, "committed.txt") {
		t.Fatalf("expected committed.txt to be unstaged (modified), got %v", unstaged)
	}

	if !repo.HasHead() {
		t.Fatal("expected HasHead to be true after a commit")
	}
}

func TestHasHeadOnFreshRepo(t *testing.T) {
	dir := initTestRepo(t)
	repo, err := NewRepository(dir)
	if err != nil {
		t.Fatalf("NewRepository: %v", err)
	}
	if repo.HasHead() {
		t.Fatal("expected HasHead to be false before any commit")
	}
}

func TestInstallAndUninstallHook(t *testing.T) {
	dir := initTestRepo(t)
	repo, err := NewRepository(dir)
	if err != nil {
		t.Fatalf("NewRepository: %v", err)
	}

	if repo.HasHook("pre-commit") {
		t.Fatal("expected no pre-commit hook initially")
	}
	if err := repo.InstallHook("pre-commit", "#!/bin/sh\nexit 0\n"); err != nil {
		t.Fatalf("InstallHook: %v", err)
	}
	if !repo.HasHook("pre-commit") {
		t.Fatal("expected pre-commit hook to be installed")
	}
	if err := repo.UninstallHook("pre-commit"); err != nil {
		t.Fatalf("UninstallHook: %v", err)
	}
	if repo.HasHook("pre-commit") {
		t.Fatal("expected pre-commit hook to be removed")
	}
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
