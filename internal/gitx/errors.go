package gitx

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-git/go-git/v5/plumbing/transport"
	"github.com/upstreamed/forksync/internal/retry"
)

// Sentinel errors checkable with errors.Is. These wrap the underlying
// go-git errors behind a stable surface.

// ErrAlreadyUpToDate is returned when a fetch or push results in no
// changes because both sides are already synchronized.
var ErrAlreadyUpToDate = errors.New("already up to date")

// ErrEmptyRepository is returned when the remote repository has no refs,
// i.e. it was created but never pushed to.
var ErrEmptyRepository = errors.New("remote repository is empty")

// ErrNotFastForward is returned when a push would overwrite remote
// changes and force was not requested.
var ErrNotFastForward = errors.New("not a fast-forward")

// ErrMergeConflict is returned when a merge hits conflicts that cannot be
// resolved automatically. The merge is aborted before this is returned.
var ErrMergeConflict = errors.New("merge conflict")

// ErrUnrelatedHistories is returned when a merge is refused because the
// two branches share no common ancestor.
var ErrUnrelatedHistories = errors.New("unrelated histories")

// ErrResolveFailed is returned when a revision cannot be resolved to a
// commit hash.
var ErrResolveFailed = errors.New("cannot resolve revision")

// ErrNothingToCommit is returned when a commit is requested but the
// worktree is clean.
var ErrNothingToCommit = errors.New("nothing to commit")

// ErrGitBinaryMissing is returned by merge operations when no git
// executable is available on PATH.
var ErrGitBinaryMissing = errors.New("git binary not found")

// ErrDetachedHead is returned when an operation needs a branch but HEAD
// does not point at one.
var ErrDetachedHead = errors.New("detached head")

// WrapError wraps an error with additional context while preserving
// errors.Is checks against sentinels.
func WrapError(err error, msg string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", msg, err)
}

// TransportError carries a failed network git operation together with its
// retry classification.
type TransportError struct {
	Op   string
	Err  error
	Kind retry.Kind
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("git %s: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// RetryKind classifies the error for retry policies.
func (e *TransportError) RetryKind() retry.Kind {
	return e.Kind
}

var _ retry.Classifier = (*TransportError)(nil)

// wrapTransportErr classifies a fetch/clone/push failure. Auth and
// missing-repo failures are terminal; throttling and flaky-network
// failures are marked retryable by kind.
func wrapTransportErr(op string, err error) error {
	return &TransportError{Op: op, Err: err, Kind: classifyTransportErr(err)}
}

func classifyTransportErr(err error) retry.Kind {
	switch {
	case errors.Is(err, transport.ErrAuthenticationRequired),
		errors.Is(err, transport.ErrAuthorizationFailed):
		return retry.KindAuth
	case errors.Is(err, transport.ErrRepositoryNotFound):
		return retry.KindNotFound
	}

	// The smart HTTP transport surfaces server responses as opaque error
	// strings, so status sniffing is the best available signal here.
	msg := strings.ToLower(err.Error())
	switch {
	case strings.Contains(msg, "429") || strings.Contains(msg, "rate limit"):
		return retry.KindRateLimit
	case strings.Contains(msg, "502") || strings.Contains(msg, "503") || strings.Contains(msg, "504"):
		return retry.KindNetwork
	}

	return retry.Classify(err)
}
