package syncer

import (
	"context"
	"fmt"
	"log/slog"
	"path"
	"strings"
	"time"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/upstreamed/forksync/internal/ghapi"
	"github.com/upstreamed/forksync/internal/retry"
)

const (
	listPageSize = 100

	discoveryAttempts  = 5
	discoveryBaseDelay = 2 * time.Second
	discoveryMaxDelay  = 60 * time.Second
)

// discoveryPolicy retries rate-limited discovery calls with exponential
// backoff. Any other failure is structural: it aborts the run instead
// of marking every remaining repository failed.
func discoveryPolicy() retry.Policy {
	return retry.Exponential(discoveryAttempts, discoveryBaseDelay, discoveryMaxDelay, retry.KindRateLimit)
}

// discoveryRetry is swapped out in tests.
var discoveryRetry = discoveryPolicy()

// resolveOwner returns the account whose forks are synced. With a token
// it always looks up the authenticated user first, which doubles as a
// credential check before any clone work starts.
func (s *Syncer) resolveOwner(ctx context.Context) (string, error) {
	if s.cfg.Token == "" {
		// validated: token-less runs are dry runs with an explicit owner
		return s.cfg.Owner, nil
	}

	user, err := s.users.GetAuthenticated(ctx)
	if err != nil {
		return "", err
	}
	slog.Debug("authenticated", "login", user.Login)

	if s.cfg.Owner != "" {
		return s.cfg.Owner, nil
	}
	return user.Login, nil
}

// discoverForks builds the ordered set of ForkRecords to consider. With
// a specific repository configured it returns exactly that record,
// fork or not, so single-repo reruns work. Otherwise it pages through
// the owner's repositories keeping the forks.
func (s *Syncer) discoverForks(ctx context.Context, owner string) ([]*ForkRecord, error) {
	if s.cfg.Repo != "" {
		name := s.cfg.Repo
		if o, n, ok := strings.Cut(name, "/"); ok {
			owner, name = o, n
		}
		rec, err := s.lookupRepo(ctx, owner, name)
		if err != nil {
			return nil, err
		}
		return []*ForkRecord{rec}, nil
	}

	var records []*ForkRecord
	for page := 1; ; page++ {
		var repos []*ghapi.Repository
		err := retry.Do(ctx, discoveryRetry, func(ctx context.Context) error {
			var err error
			repos, err = s.repos.ListForUser(ctx, &ghapi.ListReposParams{
				Username: owner,
				Page:     page,
				PerPage:  listPageSize,
			})
			return err
		})
		if err != nil {
			return nil, fmt.Errorf("list repositories page %d: %w", page, err)
		}

		for _, repo := range repos {
			if !repo.Fork {
				continue
			}
			if s.excluded(repo.FullName) {
				slog.Debug("excluded", "repo", repo.FullName)
				continue
			}
			// the list endpoint never carries the parent reference
			rec, err := s.lookupRepo(ctx, owner, repo.Name)
			if err != nil {
				return nil, err
			}
			records = append(records, rec)
		}

		if len(repos) < listPageSize {
			break
		}
	}

	return records, nil
}

// lookupRepo fetches the full record for one repository, including the
// parent reference for forks.
func (s *Syncer) lookupRepo(ctx context.Context, owner, name string) (*ForkRecord, error) {
	var repo *ghapi.Repository
	err := retry.Do(ctx, discoveryRetry, func(ctx context.Context) error {
		var err error
		repo, err = s.repos.Get(ctx, owner, name)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("get %s/%s: %w", owner, name, err)
	}
	return newForkRecord(repo), nil
}

// excluded matches a repository against the configured exclude
// patterns, by full name and by bare name.
func (s *Syncer) excluded(fullName string) bool {
	for _, pattern := range s.cfg.Exclude {
		if ok, _ := doublestar.Match(pattern, fullName); ok {
			return true
		}
		if ok, _ := doublestar.Match(pattern, path.Base(fullName)); ok {
			return true
		}
	}
	return false
}

func newForkRecord(repo *ghapi.Repository) *ForkRecord {
	rec := &ForkRecord{
		Name:          RepoName(repo.FullName),
		Fork:          repo.Fork,
		Archived:      repo.Archived,
		DefaultBranch: repo.DefaultBranch,
		Language:      repo.Language,
		Description:   repo.Description,
		CloneURL:      repo.CloneURL,
		HTMLURL:       repo.HTMLURL,
	}
	if repo.PushedAt != nil {
		rec.PushedAt = *repo.PushedAt
	}
	if parent := repo.Parent; parent != nil {
		rec.Parent = RepoName(parent.FullName)
		rec.ParentDefaultBranch = parent.DefaultBranch
		rec.ParentCloneURL = parent.CloneURL
		rec.ParentHTMLURL = parent.HTMLURL
	}
	return rec
}
