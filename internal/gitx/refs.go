// Reference operations: resolving heads, branches and revisions.

package gitx

import (
	"github.com/go-git/go-git/v5/plumbing"
)

// Head returns the commit hash HEAD points at.
func (r *Repo) Head() (string, error) {
	ref, err := r.repo.Head()
	if err != nil {
		return "", WrapError(err, "head")
	}
	return ref.Hash().String(), nil
}

// CurrentBranch returns the short name of the branch HEAD points at.
func (r *Repo) CurrentBranch() (string, error) {
	ref, err := r.repo.Head()
	if err != nil {
		return "", WrapError(err, "head")
	}
	if !ref.Name().IsBranch() {
		return "", ErrDetachedHead
	}
	return ref.Name().Short(), nil
}

// ResolveRevision resolves any revision syntax (branch, remote-tracking
// ref, tag, SHA) to a full commit hash.
func (r *Repo) ResolveRevision(rev string) (string, error) {
	hash, err := r.repo.ResolveRevision(plumbing.Revision(rev))
	if err != nil {
		return "", WrapError(ErrResolveFailed, rev)
	}
	return hash.String(), nil
}

// HasRevision reports whether rev resolves to a commit.
func (r *Repo) HasRevision(rev string) bool {
	_, err := r.ResolveRevision(rev)
	return err == nil
}
