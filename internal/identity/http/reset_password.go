package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/pictogramapp/pictogram/internal/identity/service"
	"github.com/pictogramapp/pictogram/pkg/httpx"
	"github.com/pictogramapp/pictogram/pkg/identitysdk"
	"github.com/pictogramapp/pictogram/pkg/slogx"
)

// ResetPasswordHandler covers both phases of password recovery on one
// endpoint: a body with an email requests a reset link, a body with a token
// and password submits the new password.
type ResetPasswordHandler struct {
	AccountService *service.AccountService
	TokenRedeemer  *service.TokenRedeemer
}

// ServeHTTP godoc
//
//	@Summary		Password Reset Endpoint
//	@Description	With {email}: mail a reset link to the address, always answering 202 so callers cannot
//	@Description	probe which emails are registered. With {token, password}: redeem the token and replace
//	@Description	the account's password. Each token works exactly once.
//	@Tags			Recovery
//	@Accept			json
//	@Produce		json
//	@Param			request	body		identitysdk.PasswordResetRequest	true	"email, or token and password"
//	@Success		200		{object}	identitysdk.MessageResponse			"message (submit phase)"
//	@Success		202		{object}	identitysdk.MessageResponse			"message (request phase)"
//	@Failure		400		{object}	identitysdk.ErrorResponse			"error, error_description"
//	@Failure		500		{object}	identitysdk.ErrorResponse			"error, error_description"
//	@Router			/auth/reset-password [post].
func (h *ResetPasswordHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	var req identitysdk.PasswordResetRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpx.WriteError(w, http.StatusBadRequest,
			identitysdk.ErrorCodeInvalidRequest, "Invalid JSON body")
		return
	}

	switch {
	case req.Token != "":
		h.handleSubmit(w, r, req)
	case req.Email != "":
		h.handleRequest(w, r, req)
	default:
		httpx.WriteError(w, http.StatusBadRequest,
			identitysdk.ErrorCodeInvalidRequest, "either email or token is required")
	}
}

func (h *ResetPasswordHandler) handleRequest(w http.ResponseWriter, r *http.Request, req identitysdk.PasswordResetRequest) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	if err := h.AccountService.RequestPasswordReset(ctx, req.Email); err != nil &&
		!errors.Is(err, service.ErrAccountNotFound) {
		log.Error("failed to request password reset", "err", err)
	}

	httpx.WriteJSON(w, http.StatusAccepted, identitysdk.MessageResponse{
		Message: "If that email is registered, a password reset link has been sent.",
	})
}

func (h *ResetPasswordHandler) handleSubmit(w http.ResponseWriter, r *http.Request, req identitysdk.PasswordResetRequest) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	err := h.TokenRedeemer.RedeemPasswordReset(ctx, req.Token, req.Password)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrPasswordFormat):
			httpx.WriteError(w, http.StatusBadRequest,
				identitysdk.ErrorCodeInvalidRequest, err.Error())
		case errors.Is(err, service.ErrTokenExpired):
			httpx.WriteError(w, http.StatusBadRequest,
				identitysdk.ErrorCodeTokenExpired, "Reset token has expired")
		case errors.Is(err, service.ErrTokenNotFound):
			httpx.WriteError(w, http.StatusBadRequest,
				identitysdk.ErrorCodeInvalidToken, "Reset token is invalid or has already been used")
		default:
			log.Error("failed to reset password", "err", err)
			httpx.WriteError(w, http.StatusInternalServerError,
				identitysdk.ErrorCodeServerError, "Failed to reset password")
		}
		return
	}

	httpx.WriteJSON(w, http.StatusOK, identitysdk.MessageResponse{
		Message: "Password has been reset. You can now sign in.",
	})
}
