package adapthttp

import (
	"net/http"

	"emaily/internal/app"
	"emaily/internal/domain"
	"emaily/internal/observability"

	"github.com/rs/zerolog"
)

// Options configures a Server.
type Options struct {
	// WebDir holds the built client; it is only served in production.
	WebDir     string
	Production bool
	// SecureCookies marks cookies Secure; set when served over HTTPS.
	SecureCookies bool
	// LoginRedirect is where a completed sign-in lands.
	LoginRedirect string
}

// Server is the driving HTTP adapter that routes requests to application
// services.
type Server struct {
	auth     *app.AuthService
	billing  *app.BillingService
	identity domain.IdentityProvider
	log      zerolog.Logger
	opts     Options
}

// New creates a Server wired to the given application services. identity
// may be nil, in which case the Google routes answer 404.
func New(auth *app.AuthService, billing *app.BillingService, identity domain.IdentityProvider, log zerolog.Logger, opts Options) *Server {
	if opts.LoginRedirect == "" {
		opts.LoginRedirect = "/surveys"
	}
	return &Server{auth: auth, billing: billing, identity: identity, log: log, opts: opts}
}

// Handler returns the root http.Handler for the application.
func (s *Server) Handler() http.Handler {
	api := http.NewServeMux()
	api.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{"ok": true})
	})
	api.HandleFunc("/current_user", s.handleCurrentUser)
	api.HandleFunc("/logout", s.handleLogout)
	api.Handle("/stripe", s.requireLogin(http.HandlerFunc(s.handleStripe)))

	root := http.NewServeMux()
	root.HandleFunc("/auth/google", s.handleGoogleLogin)
	root.HandleFunc("/auth/google/callback", s.handleGoogleCallback)
	root.Handle("/api/", withNoCache(http.StripPrefix("/api", s.withUser(withRoute("/api", api)))))
	root.Handle("/metrics", observability.Handler())
	if s.opts.Production {
		root.Handle("/", spaFromDisk(s.opts.WebDir))
	}

	return s.loggingMiddleware(root)
}
