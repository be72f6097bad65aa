// Package ghapi is a thin GitHub REST v3 client covering the endpoints the
// fork reconciler needs: repository metadata, fork listings and branch heads.
//
// The client performs no automatic retries. Retry pacing is owned by the
// retry package so that policies are applied exactly once, at the call site.
package ghapi

import (
	"time"

	"github.com/imroc/req/v3"
)

// DefaultBaseURL is the public GitHub API endpoint.
const DefaultBaseURL = "https://api.github.com"

// Client is the main client for the GitHub REST API.
type Client struct {
	client  *req.Client
	baseURL string
	Repos   *ReposAPI
	Users   *UsersAPI
}

// New creates a GitHub API client. The token may be empty, in which case
// requests are unauthenticated and subject to the anonymous rate limit.
func New(baseURL string, token string) (*Client, error) {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}

	client := req.C().
		SetBaseURL(baseURL).
		SetTimeout(30*time.Second).
		SetUserAgent(ForkSyncUserAgent).
		SetCommonHeader(HeaderAccept, acceptGitHubJSON).
		SetCommonHeader(HeaderAPIVersion, apiVersion).
		SetCommonErrorResult(&APIError{}).
		SetJsonMarshal(jsonMarshal).
		SetJsonUnmarshal(jsonUmarshal)

	if token != "" {
		client.SetCommonBearerAuthToken(token)
	}

	return &Client{
		client:  client,
		baseURL: baseURL,
		Repos:   newReposAPI(client),
		Users:   newUsersAPI(client),
	}, nil
}

// Close terminates idle connections held by the client.
func (c *Client) Close() {
	c.client.GetTransport().CloseIdleConnections()
}
