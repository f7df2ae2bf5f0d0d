package adapthttp

import (
	"errors"
	"net/http"

	"emaily/internal/app"
	"emaily/internal/domain"
)

func (s *Server) handleStripe(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	// The body is the Stripe token object; only its id matters.
	var body struct {
		ID string `json:"id"`
	}
	if err := parseJSON(r, &body); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	user := userFromContext(r.Context())
	updated, err := s.billing.AddCredits(r.Context(), user.ID, body.ID)
	switch {
	case err == nil:
		writeJSON(w, http.StatusOK, updated)
	case errors.Is(err, app.ErrInvalidToken):
		writeError(w, http.StatusBadRequest, err)
	case errors.Is(err, domain.ErrPaymentDeclined):
		writeError(w, http.StatusPaymentRequired, err)
	case errors.Is(err, app.ErrUserNotFound):
		writeError(w, http.StatusUnauthorized, err)
	default:
		s.log.Error().Err(err).Str("user_id", user.ID).Msg("add credits failed")
		writeError(w, http.StatusInternalServerError, errors.New("internal error"))
	}
}
