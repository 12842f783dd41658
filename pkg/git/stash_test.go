package git

import (
	"os"
	"os/exec"
	"path/filepath"
	"testing"
)

func TestStashUnstagedAndPop(t *testing.T) {
	dir := initTestRepo(t)
	writeFile(t, dir, "a.txt", "v1\n")
	run := func(args ...string) {
		cmd := exec.Command("git", args...)
		cmd.Dir = dir
		cmd.Env = append(os.Environ(), "GIT_AUTHOR_NAME=t", "GIT_AUTHOR_EMAIL=t@t.com", "GIT_COMMITTER_NAME=t", "GIT_COMMITTER_EMAIL=t@t.com")
		if out, err := cmd.CombinedOutput(); err != nil {
			t.Fatalf("git %v: %v\n%s", args, err, out)
		}
	}
	run("add", "a.txt")
	run("commit", "-q", "-m", "initial")

	writeFile(t, dir, "a.txt", "v2 unstaged\n")

	repo, err := NewRepository(dir)
	if err != nil {
		t.Fatalf("NewRepository: %v", err)
	}

	handle, err := repo.StashUnstaged(false)
	if err != nil {
		t.Fatalf("StashUnstaged: %v", err)
	}
	if handle.Empty() {
		t.Fatal("expected a non-empty stash handle")
	}

	content, err := os.ReadFile(filepath.Join(dir, "a.txt"))
	if err != nil {
		t.Fatal(err)
	}
	if string(content) != "v1\n" {
		t.Fatalf("expected worktree to be reset to v1, got %q", content)
	}

	if err := repo.PopStash(handle); err != nil {
		t.Fatalf("PopStash: %v", err)
	}

	content, err = os.ReadFile(filepath.Join(dir, "a.txt"))
	if err != nil {
		t.Fatal(err)
	}
	if string(content) != "v2 unstaged\n" {
		t.Fatalf("expected worktree to be restored to v2, got %q", content)
	}
}

func TestStashUnstagedNoopWhenClean(t *testing.T) {
	dir := initTestRepo(t)
	writeFile(t, dir, "a.txt", "v1\n")
	run := func(args ...string) {
		cmd := exec.Command("git", args...)
		cmd.Dir = dir
		cmd.Env = append(os.Environ(), "GIT_AUTHOR_NAME=t", "GIT_AUTHOR_EMAIL=t@t.com", "GIT_COMMITTER_NAME=t", "GIT_COMMITTER_EMAIL=t@t.com")
		if out, err := cmd.CombinedOutput(); err != nil {
			t.Fatalf("git %v: %v\n%s", args, err, out)
		}
	}
	run("add", "a.txt")
	run("commit", "-q", "-m", "initial")

	repo, err := NewRepository(dir)
	if err != nil {
		t.Fatalf("NewRepository: %v", err)
	}

	handle, err := repo.StashUnstaged(false)
	if err != nil {
		t.Fatalf("StashUnstaged: %v", err)
	}
	if !handle.Empty() {
		t.Fatal("expected an empty stash handle on a clean worktree")
	}
	if err := repo.PopStash(handle); err != nil {
		t.Fatalf("PopStash on an empty handle should be a no-op, got: %v", err)
	}
}

func TestNoGitEnvFiltersIndexFile(t *testing.T) {
	env := []string{"PATH=/usr/bin", "GIT_INDEX_FILE=/tmp/foo", "GIT_SSH=ssh", "HOME=/root"}
	filtered := NoGitEnv(env)

	for _, kv := range filtered {
		if kv == "GIT_INDEX_FILE=/tmp/foo" {
			t.Fatal("expected GIT_INDEX_FILE to be filtered out")
		}
	}
	foundSSH, foundPath := false, false
	for _, kv := range filtered {
		if kv == "GIT_SSH=ssh" {
			foundSSH = true
		}
		if kv == "PATH=/usr/bin" {
			foundPath = true
		}
	}
	if !foundSSH {
		t.Fatal("expected GIT_SSH to be preserved as a safe override")
	}
	if !foundPath {
		t.Fatal("expected non-GIT_ vars to be preserved")
	}
}
