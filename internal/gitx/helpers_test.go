package gitx

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/stretchr/testify/require"

	"github.com/upstreamed/forksync/internal/execx"
)

var testSig = Signature{Name: "test", Email: "test@example.com"}

// initRepo creates a local non-bare repository in a temp dir.
func initRepo(t *testing.T) (string, *git.Repository) {
	t.Helper()
	path := t.TempDir()
	repo, err := git.PlainInit(path, false)
	require.NoError(t, err, "failed to init test repository")
	return path, repo
}

// initBareRepo creates a local bare repository in a temp dir.
func initBareRepo(t *testing.T) string {
	t.Helper()
	path := t.TempDir()
	_, err := git.PlainInit(path, true)
	require.NoError(t, err, "failed to init bare test repository")
	return path
}

// commitFile writes a file and commits it, returning the commit hash.
func commitFile(t *testing.T, repo *git.Repository, dir, name, content, msg string) string {
	t.Helper()

	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))

	wt, err := repo.Worktree()
	require.NoError(t, err)

	_, err = wt.Add(name)
	require.NoError(t, err)

	hash, err := wt.Commit(msg, &git.CommitOptions{
		Author: &object.Signature{
			Name:  testSig.Name,
			Email: testSig.Email,
			When:  time.Now(),
		},
	})
	require.NoError(t, err)

	return hash.String()
}

// cloneTo clones src into a fresh temp dir.
func cloneTo(t *testing.T, src string) *Repo {
	t.Helper()

	repo, err := Clone(t.Context(), &CloneOptions{
		URL:  src,
		Path: filepath.Join(t.TempDir(), "clone"),
	})
	require.NoError(t, err, "failed to clone test repository")
	return repo
}

// requireGitCLI skips tests that shell out to the git binary when it is
// not installed.
func requireGitCLI(t *testing.T) {
	t.Helper()
	if !execx.NewRunner("git").Available() {
		t.Skip("git binary not available")
	}
}
