package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/url"

	"github.com/pictogramapp/pictogram/internal/identity/service"
	"github.com/pictogramapp/pictogram/pkg/httpx"
	"github.com/pictogramapp/pictogram/pkg/identitysdk"
	"github.com/pictogramapp/pictogram/pkg/slogx"
)

// VerifyEmailHandler redeems verification links clicked from email, so it
// answers with browser redirects rather than JSON. Error pages carry a
// reason query parameter the frontend can render.
type VerifyEmailHandler struct {
	TokenRedeemer *service.TokenRedeemer

	SuccessURL string
	FailureURL string
}

// ServeHTTP godoc
//
//	@Summary		Verify Email Endpoint
//	@Description	Redeem an email verification token and mark the account verified. Redirects the browser
//	@Description	to the success page, or to the failure page with reason=missing, invalid or expired.
//	@Tags			Verification
//	@Param			token	query	string	false	"Verification token from the email link"
//	@Success		303		"Redirect to success or failure page"
//	@Router			/auth/verify-email [get].
func (h *VerifyEmailHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	token := r.URL.Query().Get("token")
	if token == "" {
		h.redirectFailure(w, r, "missing")
		return
	}

	err := h.TokenRedeemer.RedeemVerification(ctx, token)
	switch {
	case err == nil:
		http.Redirect(w, r, h.SuccessURL, http.StatusSeeOther)
	case errors.Is(err, service.ErrTokenExpired):
		h.redirectFailure(w, r, "expired")
	case errors.Is(err, service.ErrTokenNotFound):
		h.redirectFailure(w, r, "invalid")
	default:
		log.Error("failed to verify email", "err", err)
		h.redirectFailure(w, r, "invalid")
	}
}

func (h *VerifyEmailHandler) redirectFailure(w http.ResponseWriter, r *http.Request, reason string) {
	target := h.FailureURL
	if u, err := url.Parse(target); err == nil {
		q := u.Query()
		q.Set("reason", reason)
		u.RawQuery = q.Encode()
		target = u.String()
	}
	http.Redirect(w, r, target, http.StatusSeeOther)
}

type ResendVerificationHandler struct {
	AccountService *service.AccountService
}

// ServeHTTP godoc
//
//	@Summary		Resend Verification Endpoint
//	@Description	Issue a fresh verification token for the email's account, invalidating any previous one,
//	@Description	and send it by email. Always answers 202 so callers cannot probe which emails are registered.
//	@Tags			Verification
//	@Accept			json
//	@Produce		json
//	@Param			request	body		identitysdk.ResendVerificationRequest	true	"email"
//	@Success		202		{object}	identitysdk.MessageResponse				"message"
//	@Failure		400		{object}	identitysdk.ErrorResponse				"error, error_description"
//	@Router			/auth/resend-verification [post].
func (h *ResendVerificationHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	var req identitysdk.ResendVerificationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpx.WriteError(w, http.StatusBadRequest,
			identitysdk.ErrorCodeInvalidRequest, "Invalid JSON body")
		return
	}
	if req.Email == "" {
		httpx.WriteError(w, http.StatusBadRequest,
			identitysdk.ErrorCodeInvalidRequest, "email is required")
		return
	}

	// Unknown emails and internal failures both collapse into the same
	// acknowledgement; anything else would leak which emails exist.
	if err := h.AccountService.ResendVerification(ctx, req.Email); err != nil &&
		!errors.Is(err, service.ErrAccountNotFound) {
		log.Error("failed to resend verification", "err", err)
	}

	httpx.WriteJSON(w, http.StatusAccepted, identitysdk.MessageResponse{
		Message: "If that email is registered, a verification link has been sent.",
	})
}
