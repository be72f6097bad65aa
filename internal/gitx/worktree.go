// Worktree operations: hard reset and committing files.

package gitx

import (
	"errors"
	"time"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
)

// HardReset moves the current branch and worktree to the given revision,
// discarding local changes and commits.
func (r *Repo) HardReset(rev string) error {
	hash, err := r.repo.ResolveRevision(plumbing.Revision(rev))
	if err != nil {
		return WrapError(ErrResolveFailed, rev)
	}

	err = r.wt.Reset(&git.ResetOptions{
		Commit: *hash,
		Mode:   git.HardReset,
	})
	if err != nil {
		return WrapError(err, "hard reset")
	}

	return nil
}

// IsClean reports whether the worktree has no uncommitted changes.
func (r *Repo) IsClean() (bool, error) {
	status, err := r.wt.Status()
	if err != nil {
		return false, WrapError(err, "status")
	}
	return status.IsClean(), nil
}

// CommitPaths stages the given paths and commits them. Returns
// ErrNothingToCommit when the staged content matches HEAD.
func (r *Repo) CommitPaths(message string, sig Signature, paths ...string) (string, error) {
	for _, p := range paths {
		if _, err := r.wt.Add(p); err != nil {
			return "", WrapError(err, "stage "+p)
		}
	}

	when := sig.When
	if when.IsZero() {
		when = time.Now()
	}

	hash, err := r.wt.Commit(message, &git.CommitOptions{
		Author: &object.Signature{
			Name:  sig.Name,
			Email: sig.Email,
			When:  when,
		},
	})
	if err != nil {
		if errors.Is(err, git.ErrEmptyCommit) {
			return "", ErrNothingToCommit
		}
		return "", WrapError(err, "commit")
	}

	return hash.String(), nil
}
