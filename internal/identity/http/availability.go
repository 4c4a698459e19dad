package http

import (
	"net/http"

	"github.com/pictogramapp/pictogram/internal/identity/service"
	"github.com/pictogramapp/pictogram/pkg/httpx"
	"github.com/pictogramapp/pictogram/pkg/identitysdk"
	"github.com/pictogramapp/pictogram/pkg/slogx"
)

type AvailabilityHandler struct {
	AccountService *service.AccountService
}

// HandleEmail godoc
//
//	@Summary		Check Email Availability Endpoint
//	@Description	Report whether the given email is free to register.
//	@Tags			Accounts
//	@Produce		json
//	@Param			email	query		string							true	"Email to check"
//	@Success		200		{object}	identitysdk.AvailabilityResponse	"available"
//	@Failure		400		{object}	identitysdk.ErrorResponse		"error, error_description"
//	@Failure		500		{object}	identitysdk.ErrorResponse		"error, error_description"
//	@Router			/auth/check-email [get].
func (h *AvailabilityHandler) HandleEmail(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	email := r.URL.Query().Get("email")
	if email == "" {
		httpx.WriteError(w, http.StatusBadRequest,
			identitysdk.ErrorCodeInvalidRequest, "email query parameter is required")
		return
	}

	available, err := h.AccountService.EmailAvailable(ctx, email)
	if err != nil {
		log.Error("failed to check email availability", "err", err)
		httpx.WriteError(w, http.StatusInternalServerError,
			identitysdk.ErrorCodeServerError, "Failed to check availability")
		return
	}

	httpx.WriteJSON(w, http.StatusOK, identitysdk.AvailabilityResponse{Available: available})
}

// HandleUsername godoc
//
//	@Summary		Check Username Availability Endpoint
//	@Description	Report whether the given username is free to register. The check is case-insensitive.
//	@Tags			Accounts
//	@Produce		json
//	@Param			username	query		string							true	"Username to check"
//	@Success		200			{object}	identitysdk.AvailabilityResponse	"available"
//	@Failure		400			{object}	identitysdk.ErrorResponse		"error, error_description"
//	@Failure		500			{object}	identitysdk.ErrorResponse		"error, error_description"
//	@Router			/auth/check-username [get].
func (h *AvailabilityHandler) HandleUsername(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	username := r.URL.Query().Get("username")
	if username == "" {
		httpx.WriteError(w, http.StatusBadRequest,
			identitysdk.ErrorCodeInvalidRequest, "username query parameter is required")
		return
	}

	available, err := h.AccountService.UsernameAvailable(ctx, username)
	if err != nil {
		log.Error("failed to check username availability", "err", err)
		httpx.WriteError(w, http.StatusInternalServerError,
			identitysdk.ErrorCodeServerError, "Failed to check availability")
		return
	}

	httpx.WriteJSON(w, http.StatusOK, identitysdk.AvailabilityResponse{Available: available})
}
