package git

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	gogit "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// initTestRepo creates a repository with a single commit and returns its
// path and the commit hash.
func initTestRepo(t *testing.T) (string, string) {
	t.Helper()
	dir := t.TempDir()

	repo, err := gogit.PlainInit(dir, false)
	require.NoError(t, err)

	path := filepath.Join(dir, "main.go")
	require.NoError(t, os.WriteFile(path, []byte("package main\n"), 0644))

	wt, err := repo.Worktree()
	require.NoError(t, err)

	_, err = wt.Add("main.go")
	require.NoError(t, err)

	hash, err := wt.Commit("initial commit", &gogit.CommitOptions{
		Author: &object.Signature{
			Name:  "tester",
			Email: "tester@example.com",
			When:  time.Now(),
		},
	})
	require.NoError(t, err)

	return dir, hash.String()
}

func TestService_HasGitRepo(t *testing.T) {
	dir, _ := initTestRepo(t)
	svc := NewService(nil)

	assert.True(t, svc.HasGitRepo(dir))

	nested := filepath.Join(dir, "internal", "deep")
	require.NoError(t, os.MkdirAll(nested, 0755))
	assert.True(t, svc.HasGitRepo(nested), "nested paths resolve via .git detection")

	assert.False(t, svc.HasGitRepo(t.TempDir()))
}

func TestService_HeadCommitHash(t *testing.T) {
	dir, want := initTestRepo(t)

	svc := NewService(nil)
	require.NoError(t, svc.InitRepo(dir))

	got, err := svc.HeadCommitHash()
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestService_HeadCommitHash_NotInitialized(t *testing.T) {
	svc := NewService(nil)

	_, err := svc.HeadCommitHash()
	assert.Error(t, err)
}
