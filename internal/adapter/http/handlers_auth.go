// Package adapthttp implements the HTTP adapter for the application.
package adapthttp

import (
	"net/http"

	"emaily/internal/app"
	"emaily/internal/observability"
)

const (
	sessionCookie = "session"
	stateCookie   = "oauth_state"
)

func (s *Server) handleGoogleLogin(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	if s.identity == nil {
		http.Error(w, "google sign-in disabled", http.StatusNotFound)
		return
	}
	state, err := app.GenerateState()
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	http.SetCookie(w, &http.Cookie{
		Name:     stateCookie,
		Value:    state,
		Path:     "/",
		HttpOnly: true,
		Secure:   s.opts.SecureCookies,
		SameSite: http.SameSiteLaxMode, // Lax required for cross-site redirect returns
		MaxAge:   300,
	})
	http.Redirect(w, r, s.identity.AuthCodeURL(state), http.StatusFound)
}

func (s *Server) handleGoogleCallback(w http.ResponseWriter, r *http.Request) {
	if s.identity == nil {
		http.Error(w, "google sign-in disabled", http.StatusNotFound)
		return
	}

	state, err := r.Cookie(stateCookie)
	if err != nil || state.Value == "" || r.URL.Query().Get("state") != state.Value {
		observability.RecordSignIn("invalid_state")
		http.Error(w, "invalid state", http.StatusBadRequest)
		return
	}
	http.SetCookie(w, &http.Cookie{Name: stateCookie, MaxAge: -1, Path: "/"})

	identity, err := s.identity.Exchange(r.Context(), r.URL.Query().Get("code"))
	if err != nil {
		observability.RecordSignIn("exchange_failed")
		s.log.Warn().Err(err).Msg("google exchange failed")
		http.Error(w, "failed to exchange token", http.StatusBadGateway)
		return
	}

	cookie, user, err := s.auth.LoginWithIdentity(r.Context(), identity, r.UserAgent(), r.RemoteAddr)
	if err != nil {
		observability.RecordSignIn("error")
		s.log.Error().Err(err).Msg("login failed")
		http.Error(w, "login failed", http.StatusInternalServerError)
		return
	}
	observability.RecordSignIn("success")
	s.log.Info().Str("user_id", user.ID).Msg("signed in")

	s.setSessionCookie(w, cookie)
	http.Redirect(w, r, s.opts.LoginRedirect, http.StatusFound)
}

func (s *Server) handleCurrentUser(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	user := userFromContext(r.Context())
	if user == nil {
		writeJSON(w, http.StatusOK, false)
		return
	}
	writeJSON(w, http.StatusOK, user)
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet && r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	if cookie, err := r.Cookie(sessionCookie); err == nil {
		if err := s.auth.Logout(r.Context(), cookie.Value); err != nil {
			s.log.Warn().Err(err).Msg("logout: delete session")
		}
	}

	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookie,
		Value:    "",
		Path:     "/",
		HttpOnly: true,
		MaxAge:   -1,
	})
	http.Redirect(w, r, "/", http.StatusFound)
}

func (s *Server) setSessionCookie(w http.ResponseWriter, value string) {
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookie,
		Value:    value,
		Path:     "/",
		HttpOnly: true,
		Secure:   s.opts.SecureCookies,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   int(app.SessionTTL.Seconds()),
	})
}
