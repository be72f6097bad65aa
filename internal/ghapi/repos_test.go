package ghapi

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/upstreamed/forksync/internal/retry"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	client, err := New(server.URL, "test-token")
	require.NoError(t, err)
	return client
}

func TestListForUser(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/users/alice/repos", r.URL.Path)
		assert.Equal(t, "2", r.URL.Query().Get("page"))
		assert.Equal(t, "100", r.URL.Query().Get("per_page"))
		assert.Equal(t, "Bearer test-token", r.Header.Get("Authorization"))
		assert.Equal(t, acceptGitHubJSON, r.Header.Get(HeaderAccept))
		assert.Equal(t, apiVersion, r.Header.Get(HeaderAPIVersion))

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`[
			{"id": 1, "name": "alpha", "full_name": "alice/alpha", "fork": true, "default_branch": "main"},
			{"id": 2, "name": "beta", "full_name": "alice/beta", "fork": false, "default_branch": "master"}
		]`))
	})

	repos, err := client.Repos.ListForUser(t.Context(), &ListReposParams{
		Username: "alice",
		Page:     2,
		PerPage:  100,
	})
	require.NoError(t, err)
	require.Len(t, repos, 2)
	assert.Equal(t, "alice/alpha", repos[0].FullName)
	assert.True(t, repos[0].Fork)
	assert.False(t, repos[1].Fork)
}

func TestListForUserValidation(t *testing.T) {
	client, err := New("http://127.0.0.1:1", "")
	require.NoError(t, err)

	_, err = client.Repos.ListForUser(t.Context(), &ListReposParams{Page: 1, PerPage: 10})
	assert.ErrorIs(t, err, ErrNoOwner)
}

func TestGetRepoWithParent(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/repos/alice/alpha", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{
			"id": 1,
			"name": "alpha",
			"full_name": "alice/alpha",
			"fork": true,
			"language": "Go",
			"description": "a fork",
			"default_branch": "main",
			"clone_url": "https://github.com/alice/alpha.git",
			"owner": {"login": "alice"},
			"parent": {
				"id": 7,
				"full_name": "upstream/alpha",
				"default_branch": "develop",
				"clone_url": "https://github.com/upstream/alpha.git",
				"owner": {"login": "upstream"}
			}
		}`))
	})

	repo, err := client.Repos.Get(t.Context(), "alice", "alpha")
	require.NoError(t, err)
	assert.Equal(t, "alice", repo.OwnerLogin())
	assert.Equal(t, "Go", repo.Language)
	require.NotNil(t, repo.Parent)
	assert.Equal(t, "upstream/alpha", repo.Parent.FullName)
	assert.Equal(t, "develop", repo.Parent.DefaultBranch)
}

func TestGetBranch(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/repos/alice/alpha/branches/main", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"name": "main", "commit": {"sha": "abc123"}}`))
	})

	branch, err := client.Repos.GetBranch(t.Context(), "alice", "alpha", "main")
	require.NoError(t, err)
	assert.Equal(t, "main", branch.Name)
	assert.Equal(t, "abc123", branch.Commit.SHA)
}

func TestGetBranchNotFound(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusNotFound)
		w.Write([]byte(`{"message": "Branch not found"}`))
	})

	_, err := client.Repos.GetBranch(t.Context(), "alice", "alpha", "gone")
	require.Error(t, err)
	assert.True(t, IsNotFound(err))
	assert.Equal(t, retry.KindNotFound, retry.Classify(err))
}

func TestRateLimitClassification(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Header().Set(HeaderRateRemaining, "0")
		w.WriteHeader(http.StatusForbidden)
		w.Write([]byte(`{"message": "API rate limit exceeded for user"}`))
	})

	_, err := client.Repos.ListForUser(t.Context(), &ListReposParams{Username: "alice", Page: 1, PerPage: 100})
	require.Error(t, err)
	assert.Equal(t, retry.KindRateLimit, retry.Classify(err))
}

func TestSecondaryRateLimitClassification(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusTooManyRequests)
		w.Write([]byte(`{"message": "You have exceeded a secondary rate limit"}`))
	})

	_, err := client.Repos.Get(t.Context(), "alice", "alpha")
	require.Error(t, err)
	assert.Equal(t, retry.KindRateLimit, retry.Classify(err))
}

func TestServerErrorClassification(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadGateway)
		w.Write([]byte(`{"message": "Server Error"}`))
	})

	_, err := client.Repos.Get(t.Context(), "alice", "alpha")
	require.Error(t, err)
	assert.Equal(t, retry.KindNetwork, retry.Classify(err))
}

func TestAuthErrorClassification(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"message": "Bad credentials"}`))
	})

	_, err := client.Users.GetAuthenticated(t.Context())
	require.Error(t, err)
	assert.Equal(t, retry.KindAuth, retry.Classify(err))
	assert.False(t, IsNotFound(err))
}
