package ghapi

import (
	"context"

	"github.com/imroc/req/v3"
)

const (
	v3AuthUser = "/user"
)

// UsersAPI covers user endpoints.
type UsersAPI struct {
	client *req.Client
}

func newUsersAPI(client *req.Client) *UsersAPI {
	return &UsersAPI{
		client: client,
	}
}

// GetAuthenticated fetches the user the token belongs to. Used to resolve
// the account owner when none is configured, and as an early credential
// check before any clone work starts.
func (u *UsersAPI) GetAuthenticated(ctx context.Context) (result *User, err error) {
	resp, err := u.client.R().
		SetContext(ctx).
		SetSuccessResult(&result).
		Get(v3AuthUser)

	if err := handleAPIError(resp, err, "authenticated user"); err != nil {
		return nil, err
	}

	return result, nil
}
