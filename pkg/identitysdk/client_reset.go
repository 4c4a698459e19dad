package identitysdk

import (
	"context"
	"net/http"
)

// RequestPasswordReset asks for a reset link to be mailed. Always
// acknowledged with 202 regardless of whether the email is registered.
func (c *SDKClient) RequestPasswordReset(ctx context.Context, email string) error {
	resp, err := c.postJSON(ctx, "/auth/reset-password", PasswordResetRequest{Email: email})
	if err != nil {
		return err
	}
	return decodeJSON(resp, nil, http.StatusAccepted)
}

// SubmitPasswordReset redeems a reset token with the replacement password.
func (c *SDKClient) SubmitPasswordReset(ctx context.Context, token, newPassword string) error {
	resp, err := c.postJSON(ctx, "/auth/reset-password", PasswordResetRequest{
		Token:    token,
		Password: newPassword,
	})
	if err != nil {
		return err
	}

	var out MessageResponse
	return decodeJSON(resp, &out, http.StatusOK)
}
