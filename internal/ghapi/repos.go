package ghapi

import (
	"context"
	"strconv"

	"github.com/imroc/req/v3"
)

const (
	v3UserRepos  = "/users/{username}/repos"
	v3Repo       = "/repos/{owner}/{repo}"
	v3RepoBranch = "/repos/{owner}/{repo}/branches/{branch}"
)

// ReposAPI covers repository endpoints.
type ReposAPI struct {
	client *req.Client
}

func newReposAPI(client *req.Client) *ReposAPI {
	return &ReposAPI{
		client: client,
	}
}

// ListForUser fetches a single page of a user's repositories. Fork
// filtering is left to the caller; the page is the unit of retry.
func (r *ReposAPI) ListForUser(ctx context.Context, params *ListReposParams) (repos []*Repository, err error) {
	if params.Username == "" {
		return nil, ErrNoOwner
	}

	resp, err := r.client.R().
		SetContext(ctx).
		SetPathParam("username", params.Username).
		SetQueryParam("page", strconv.Itoa(params.Page)).
		SetQueryParam("per_page", strconv.Itoa(params.PerPage)).
		SetQueryParam("sort", "full_name").
		SetSuccessResult(&repos).
		Get(v3UserRepos)

	if err := handleAPIError(resp, err, "repos list"); err != nil {
		return nil, err
	}

	return repos, nil
}

// Get fetches the full record for a single repository. Unlike the list
// endpoint, this includes the parent and source for forks.
func (r *ReposAPI) Get(ctx context.Context, owner, repo string) (result *Repository, err error) {
	if owner == "" {
		return nil, ErrNoOwner
	}
	if repo == "" {
		return nil, ErrNoRepo
	}

	resp, err := r.client.R().
		SetContext(ctx).
		SetPathParam("owner", owner).
		SetPathParam("repo", repo).
		SetSuccessResult(&result).
		Get(v3Repo)

	if err := handleAPIError(resp, err, "repo get"); err != nil {
		return nil, err
	}

	return result, nil
}

// GetBranch fetches a branch and its head commit. A missing branch comes
// back as an APIError satisfying IsNotFound.
func (r *ReposAPI) GetBranch(ctx context.Context, owner, repo, branch string) (result *Branch, err error) {
	if owner == "" {
		return nil, ErrNoOwner
	}
	if repo == "" {
		return nil, ErrNoRepo
	}

	resp, err := r.client.R().
		SetContext(ctx).
		SetPathParam("owner", owner).
		SetPathParam("repo", repo).
		SetPathParam("branch", branch).
		SetSuccessResult(&result).
		Get(v3RepoBranch)

	if err := handleAPIError(resp, err, "branch get"); err != nil {
		return nil, err
	}

	return result, nil
}
