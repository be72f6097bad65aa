// Remote synchronization operations: remotes, fetch and push.

package gitx

import (
	"context"
	"errors"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/config"
	"github.com/go-git/go-git/v5/plumbing/transport"
)

// SetRemote creates or replaces a named remote pointing at url. The URL
// must not embed credentials; auth is passed per operation instead.
func (r *Repo) SetRemote(name, url string) error {
	if _, err := r.repo.Remote(name); err == nil {
		if err := r.repo.DeleteRemote(name); err != nil {
			return WrapError(err, "replace remote")
		}
	}
	_, err := r.repo.CreateRemote(&config.RemoteConfig{
		Name: name,
		URLs: []string{url},
	})
	if err != nil {
		return WrapError(err, "create remote")
	}
	return nil
}

// Fetch fetches changes from the named remote. Returns ErrAlreadyUpToDate
// when there is nothing new.
func (r *Repo) Fetch(ctx context.Context, remote string, auth transport.AuthMethod) error {
	if remote == "" {
		remote = DefaultRemoteName
	}

	err := r.repo.FetchContext(ctx, &git.FetchOptions{
		RemoteName: remote,
		Auth:       auth,
	})
	if err != nil {
		if errors.Is(err, git.NoErrAlreadyUpToDate) {
			return ErrAlreadyUpToDate
		}
		if errors.Is(err, transport.ErrEmptyRemoteRepository) {
			return WrapError(ErrEmptyRepository, "fetch")
		}
		return wrapTransportErr("fetch "+remote, err)
	}

	return nil
}

// Push pushes the current branch to the named remote. Returns
// ErrAlreadyUpToDate when the remote already has the local head, and
// ErrNotFastForward when the remote moved and force was not set.
func (r *Repo) Push(ctx context.Context, remote string, force bool, auth transport.AuthMethod) error {
	if remote == "" {
		remote = DefaultRemoteName
	}

	err := r.repo.PushContext(ctx, &git.PushOptions{
		RemoteName: remote,
		Force:      force,
		Auth:       auth,
	})
	if err != nil {
		if errors.Is(err, git.NoErrAlreadyUpToDate) {
			return ErrAlreadyUpToDate
		}
		if errors.Is(err, git.ErrNonFastForwardUpdate) {
			return ErrNotFastForward
		}
		return wrapTransportErr("push "+remote, err)
	}

	return nil
}
