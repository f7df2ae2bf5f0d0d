package adapthttp

import (
	"context"
	"errors"
	"net/http"
	"time"

	"emaily/internal/app"
	"emaily/internal/domain"
	"emaily/internal/observability"
)

type contextKey string

const (
	userContextKey  contextKey = "user"
	routeContextKey contextKey = "route"
)

// routeLabel carries the matched pattern of a nested mux back out to the
// logging middleware, which only sees the outer request.
type routeLabel struct {
	pattern string
}

// withRoute records the pattern the wrapped mux matched, prefixed with the
// path it is mounted under.
func withRoute(prefix string, mux *http.ServeMux) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mux.ServeHTTP(w, r)
		if label, ok := r.Context().Value(routeContextKey).(*routeLabel); ok && r.Pattern != "" {
			label.pattern = prefix + r.Pattern
		}
	})
}

func userFromContext(ctx context.Context) *domain.User {
	u, _ := ctx.Value(userContextKey).(*domain.User)
	return u
}

// withUser resolves the session cookie, when present, into the request's
// user. A missing or stale session leaves the request anonymous.
func (s *Server) withUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		cookie, err := r.Cookie(sessionCookie)
		if err != nil || cookie.Value == "" {
			next.ServeHTTP(w, r)
			return
		}

		user, err := s.auth.ValidateSession(r.Context(), cookie.Value)
		switch {
		case err == nil:
			ctx := context.WithValue(r.Context(), userContextKey, user)
			next.ServeHTTP(w, r.WithContext(ctx))
		case errors.Is(err, app.ErrInvalidCookie),
			errors.Is(err, app.ErrSessionNotFound),
			errors.Is(err, app.ErrSessionExpired),
			errors.Is(err, app.ErrUserNotFound):
			next.ServeHTTP(w, r)
		default:
			s.log.Error().Err(err).Msg("validate session")
			http.Error(w, "internal error", http.StatusInternalServerError)
		}
	})
}

// requireLogin rejects anonymous requests.
func (s *Server) requireLogin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if userFromContext(r.Context()) == nil {
			writeJSON(w, http.StatusUnauthorized, map[string]any{"error": "You must log in!"})
			return
		}
		next.ServeHTTP(w, r)
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
	bytes  int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func (r *statusRecorder) Write(b []byte) (int, error) {
	if r.status == 0 {
		r.status = http.StatusOK
	}
	n, err := r.ResponseWriter.Write(b)
	r.bytes += n
	return n, err
}

func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w}
		label := &routeLabel{}
		r = r.WithContext(context.WithValue(r.Context(), routeContextKey, label))
		next.ServeHTTP(rec, r)
		if rec.status == 0 {
			rec.status = http.StatusOK
		}
		elapsed := time.Since(start)

		// Patterns come from the muxes, which keeps metric labels bounded.
		route := label.pattern
		if route == "" {
			route = r.Pattern
		}
		if route == "" {
			route = "unmatched"
		}
		observability.RecordHTTPRequest(r.Method, route, rec.status, elapsed)

		ev := s.log.Info()
		switch {
		case rec.status >= 500:
			ev = s.log.Error()
		case rec.status >= 400:
			ev = s.log.Warn()
		}
		ev.Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", rec.status).
			Int("bytes", rec.bytes).
			Dur("duration", elapsed).
			Msg("request")
	})
}
