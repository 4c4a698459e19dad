package identitysdk

import (
	"context"
	"net/http"
	"net/url"
)

// Register creates a new unverified account.
func (c *SDKClient) Register(ctx context.Context, email, username, password string) (*RegisterResponse, error) {
	resp, err := c.postJSON(ctx, "/auth/register", RegisterRequest{
		Email:    email,
		Username: username,
		Password: password,
	})
	if err != nil {
		return nil, err
	}

	var out RegisterResponse
	if err := decodeJSON(resp, &out, http.StatusCreated); err != nil {
		return nil, err
	}
	return &out, nil
}

// CheckEmail reports whether the email is free to register.
func (c *SDKClient) CheckEmail(ctx context.Context, email string) (bool, error) {
	return c.checkAvailability(ctx, "/auth/check-email", "email", email)
}

// CheckUsername reports whether the username is free to register.
func (c *SDKClient) CheckUsername(ctx context.Context, username string) (bool, error) {
	return c.checkAvailability(ctx, "/auth/check-username", "username", username)
}

func (c *SDKClient) checkAvailability(ctx context.Context, path, param, value string) (bool, error) {
	query := url.Values{param: {value}}
	resp, err := c.doRequest(ctx, http.MethodGet, path+"?"+query.Encode(), nil, nil)
	if err != nil {
		return false, err
	}

	var out AvailabilityResponse
	if err := decodeJSON(resp, &out, http.StatusOK); err != nil {
		return false, err
	}
	return out.Available, nil
}
