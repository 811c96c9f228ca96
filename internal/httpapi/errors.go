package httpapi

import (
	"context"
	"errors"
	"net/http"

	"whatssound/internal/app"
	"whatssound/internal/auth"
	"whatssound/internal/logging"
	"whatssound/internal/musicapi"
	"whatssound/internal/store"
)

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, errorResponse{Error: message})
}

// writeServiceError maps an application error onto a status code and a
// message the client can show. Anything unrecognised is logged and hidden
// behind a 500.
func writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	var verr *app.ValidationError
	if errors.As(err, &verr) {
		writeError(w, http.StatusBadRequest, verr.Reason)
		return
	}

	switch {
	case errors.Is(err, auth.ErrUnauthorized):
		writeError(w, http.StatusUnauthorized, "unauthorized")
	case errors.Is(err, auth.ErrOTPRateLimited):
		w.Header().Set("Retry-After", "60")
		writeError(w, http.StatusTooManyRequests, "too many attempts, try again later")
	case errors.Is(err, auth.ErrOTPRejected):
		writeError(w, http.StatusUnauthorized, "invalid or expired code")
	case errors.Is(err, app.ErrForbidden):
		writeError(w, http.StatusForbidden, "only the session's DJ can do that")
	case errors.Is(err, store.ErrSessionNotFound):
		writeError(w, http.StatusNotFound, "session not found")
	case errors.Is(err, store.ErrEntryNotFound):
		writeError(w, http.StatusNotFound, "queue entry not found")
	case errors.Is(err, store.ErrProfileNotFound):
		writeError(w, http.StatusNotFound, "profile not found")
	case errors.Is(err, store.ErrAlreadyVoted):
		writeError(w, http.StatusConflict, "already voted for this song")
	case errors.Is(err, app.ErrDuplicateRequest):
		writeError(w, http.StatusConflict, "song already in the queue")
	case errors.Is(err, store.ErrInvalidTransition):
		writeError(w, http.StatusConflict, "status change not allowed")
	case errors.Is(err, store.ErrSessionEnded):
		writeError(w, http.StatusConflict, "session has ended")
	case errors.Is(err, store.ErrEntryClosed):
		writeError(w, http.StatusConflict, "song is no longer in the queue")
	case errors.Is(err, store.ErrJoinCodeTaken):
		writeError(w, http.StatusConflict, "could not allocate a join code, try again")
	case errors.Is(err, musicapi.ErrProviderUnavailable):
		writeError(w, http.StatusServiceUnavailable, "music search is temporarily unavailable")
	case errors.Is(err, app.ErrUnavailable):
		writeError(w, http.StatusServiceUnavailable, app.ErrUnavailable.Error())
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		writeError(w, http.StatusServiceUnavailable, "request cancelled")
	default:
		logging.FromContext(r.Context()).Error().Err(err).
			Str("path", r.URL.Path).
			Msg("request failed")
		writeError(w, http.StatusInternalServerError, "internal server error")
	}
}
