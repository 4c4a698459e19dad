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

type RegisterHandler struct {
	AccountService *service.AccountService
}

// ServeHTTP godoc
//
//	@Summary		Register Account Endpoint
//	@Description	Create a new unverified account. A verification link is emailed to the given address;
//	@Description	the account cannot sign in until the link is followed.
//	@Tags			Accounts
//	@Accept			json
//	@Produce		json
//	@Param			request	body		identitysdk.RegisterRequest		true	"email, username, password"
//	@Success		201		{object}	identitysdk.RegisterResponse	"id, username"
//	@Failure		400		{object}	identitysdk.ErrorResponse		"error, error_description"
//	@Failure		409		{object}	identitysdk.ErrorResponse		"error, error_description"
//	@Failure		500		{object}	identitysdk.ErrorResponse		"error, error_description"
//	@Router			/auth/register [post].
func (h *RegisterHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	var req identitysdk.RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpx.WriteError(w, http.StatusBadRequest,
			identitysdk.ErrorCodeInvalidRequest, "Invalid JSON body")
		return
	}

	account, err := h.AccountService.Register(ctx, req.Email, req.Username, req.Password)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrEmailFormat),
			errors.Is(err, service.ErrUsernameFormat),
			errors.Is(err, service.ErrPasswordFormat):
			httpx.WriteError(w, http.StatusBadRequest,
				identitysdk.ErrorCodeInvalidRequest, err.Error())
		case errors.Is(err, service.ErrEmailTaken),
			errors.Is(err, service.ErrUsernameTaken):
			httpx.WriteError(w, http.StatusConflict,
				identitysdk.ErrorCodeConflict, err.Error())
		default:
			log.Error("failed to register account", "err", err)
			httpx.WriteError(w, http.StatusInternalServerError,
				identitysdk.ErrorCodeServerError, "Failed to register account")
		}
		return
	}

	httpx.WriteJSON(w, http.StatusCreated, identitysdk.RegisterResponse{
		ID:       account.ID,
		Username: account.Username,
	})
}
