package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/pictogramapp/pictogram/internal/identity/service"
	"github.com/pictogramapp/pictogram/internal/identity/store"
	"github.com/pictogramapp/pictogram/pkg/httpx"
	"github.com/pictogramapp/pictogram/pkg/slogx"

	_ "github.com/pictogramapp/pictogram/api/identity" // Swagger docs
	httpSwagger "github.com/swaggo/http-swagger"
)

// Router holds shared dependencies for HTTP handlers.
type Router struct {
	Mux         *http.ServeMux
	middlewares []httpx.Middleware

	buildVersion string
	startTime    time.Time
	logger       *slog.Logger

	store store.Store

	AccountService *service.AccountService
	TokenIssuer    *service.TokenIssuer
	TokenRedeemer  *service.TokenRedeemer

	// Browser destinations for the verification redirect flow.
	VerifySuccessURL string
	VerifyFailureURL string
}

func NewRouter(buildVersion string, st store.Store, logger *slog.Logger) *Router {
	r := &Router{
		Mux:          http.NewServeMux(),
		buildVersion: buildVersion,
		startTime:    time.Now(),
		store:        st,
		logger:       logger,
	}

	// Set default middleware chain
	r.middlewares = []httpx.Middleware{
		slogx.HTTPMiddleware(r.logger),
	}

	return r
}

func (r *Router) ApplyRoutes() {
	r.registerAccounts()
	r.registerVerification()
	r.registerPasswordReset()
	r.registerSystem()

	r.Mux.Handle("/swagger/", httpSwagger.Handler())
}

// ServeHTTP implements http.Handler for Router and applies the global middleware chain.
//
//	@title			Pictogram Identity Service API
//	@version		0.1.0
//	@description	Identity verification and credential recovery for the Pictogram social app:
//	@description	registration, email verification and password reset with single-use opaque tokens.
//
//	@contact.name	Pictogram Team
//	@contact.url	https://github.com/pictogramapp/pictogram
//
//	@license.name	MIT
//	@license.url	https://opensource.org/licenses/MIT
//
//	@host			localhost:8080
//	@BasePath		/
//
//	@schemes		http https
func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	httpx.Chain(r.Mux, r.middlewares...).ServeHTTP(w, req)
}

func (r *Router) registerAccounts() {
	registerHandler := &RegisterHandler{AccountService: r.AccountService}
	availabilityHandler := &AvailabilityHandler{AccountService: r.AccountService}

	// POST /auth/register - moderate rate limit by IP (public signup endpoint)
	r.Mux.Handle("POST /auth/register",
		httpx.Chain(registerHandler,
			httpx.RateLimitByIP(httpx.ModerateLimit),
		),
	)

	// Availability checks run on every keystroke of a signup form, so the
	// limit is lenient.
	r.Mux.Handle("GET /auth/check-email",
		httpx.Chain(http.HandlerFunc(availabilityHandler.HandleEmail),
			httpx.RateLimitByIP(httpx.LenientLimit),
		),
	)
	r.Mux.Handle("GET /auth/check-username",
		httpx.Chain(http.HandlerFunc(availabilityHandler.HandleUsername),
			httpx.RateLimitByIP(httpx.LenientLimit),
		),
	)
}

func (r *Router) registerVerification() {
	verifyHandler := &VerifyEmailHandler{
		TokenRedeemer: r.TokenRedeemer,
		SuccessURL:    r.VerifySuccessURL,
		FailureURL:    r.VerifyFailureURL,
	}
	resendHandler := &ResendVerificationHandler{AccountService: r.AccountService}

	// GET /auth/verify-email - strict rate limit by IP (token guessing)
	r.Mux.Handle("GET /auth/verify-email",
		httpx.Chain(verifyHandler,
			httpx.RateLimitByIP(httpx.StrictLimit),
		),
	)

	// POST /auth/resend-verification - strict rate limit by IP (sends email)
	r.Mux.Handle("POST /auth/resend-verification",
		httpx.Chain(resendHandler,
			httpx.RateLimitByIP(httpx.StrictLimit),
		),
	)
}

func (r *Router) registerPasswordReset() {
	h := &ResetPasswordHandler{
		AccountService: r.AccountService,
		TokenRedeemer:  r.TokenRedeemer,
	}

	// POST /auth/reset-password - strict rate limit by IP (sends email on the
	// request phase, consumes credentials on the submit phase)
	r.Mux.Handle("POST /auth/reset-password",
		httpx.Chain(h,
			httpx.RateLimitByIP(httpx.StrictLimit),
		),
	)
}

func (r *Router) registerSystem() {
	// Health check endpoints - lenient rate limits (monitoring systems may poll frequently)
	r.Mux.Handle("GET /livez",
		httpx.Chain(LivezHandler(r.startTime, r.buildVersion),
			httpx.RateLimitByIP(httpx.LenientLimit),
		),
	)
	r.Mux.Handle("GET /readyz",
		httpx.Chain(ReadyzHandler(r.startTime, r.buildVersion, r.store),
			httpx.RateLimitByIP(httpx.LenientLimit),
		),
	)
}
