package identitysdk

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
)

// VerifyEmail redeems a verification token and returns the URL the service
// redirects the browser to. Success and failure both land on a page; the
// outcome is in the target (error pages carry a reason query parameter).
func (c *SDKClient) VerifyEmail(ctx context.Context, token string) (string, error) {
	query := url.Values{}
	if token != "" {
		query.Set("token", token)
	}

	resp, err := c.doRequest(ctx, http.MethodGet, "/auth/verify-email?"+query.Encode(), nil, nil)
	if err != nil {
		return "", err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusSeeOther && resp.StatusCode != http.StatusFound {
		return "", &APIError{StatusCode: resp.StatusCode, Code: ErrorCodeServerError,
			Description: "expected a redirect"}
	}

	location := resp.Header.Get("Location")
	if location == "" {
		return "", fmt.Errorf("redirect response without Location header")
	}
	return location, nil
}

// ResendVerification asks for a fresh verification email. The service
// always acknowledges with 202 so callers learn nothing about whether the
// email is registered.
func (c *SDKClient) ResendVerification(ctx context.Context, email string) error {
	resp, err := c.postJSON(ctx, "/auth/resend-verification", ResendVerificationRequest{Email: email})
	if err != nil {
		return err
	}
	return decodeJSON(resp, nil, http.StatusAccepted)
}
