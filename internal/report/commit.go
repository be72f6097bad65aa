package report

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/upstreamed/forksync/internal/gitx"
)

// commitMessage carries [skip ci] so the status commit does not trigger
// another scheduled run on platforms that honor the marker.
const commitMessage = "Update fork status report [skip ci]"

// CommitReadme commits the status document in the repository that
// contains it and pushes the commit to origin. The repository root is
// detected from the document's directory, so the tool can run from a
// checkout subdirectory. A document whose content already matches HEAD
// is a no-op, not an error.
func CommitReadme(ctx context.Context, readmePath string, sig gitx.Signature, token string) error {
	abs, err := filepath.Abs(readmePath)
	if err != nil {
		return fmt.Errorf("resolve %s: %w", readmePath, err)
	}

	repo, err := gitx.Open(filepath.Dir(abs))
	if err != nil {
		return fmt.Errorf("status document is not inside a repository: %w", err)
	}

	rel, err := filepath.Rel(repo.Path(), abs)
	if err != nil || strings.HasPrefix(rel, "..") {
		return fmt.Errorf("status document %s is outside the repository %s", abs, repo.Path())
	}

	branch, err := repo.CurrentBranch()
	if err != nil {
		return fmt.Errorf("commit status document: %w", err)
	}

	hash, err := repo.CommitPaths(commitMessage, sig, filepath.ToSlash(rel))
	if err != nil {
		if errors.Is(err, gitx.ErrNothingToCommit) {
			slog.Debug("status document already committed", "path", rel)
			return nil
		}
		return fmt.Errorf("commit status document: %w", err)
	}

	if err := repo.Push(ctx, gitx.DefaultRemoteName, false, gitx.TokenAuth(token)); err != nil && !errors.Is(err, gitx.ErrAlreadyUpToDate) {
		return fmt.Errorf("push status document: %w", err)
	}

	slog.Info("status document committed", "path", rel, "branch", branch, "commit", fmt.Sprintf("%.7s", hash))
	return nil
}
