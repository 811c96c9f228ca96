package httpapi

import (
	"errors"
	"net/http"
	"strconv"

	"whatssound/internal/app"
	"whatssound/internal/http/middleware"
	"whatssound/internal/logging"
	"whatssound/internal/musicapi"
)

type recentResponse struct {
	Searches []string `json:"searches"`
}

// searchOwner keys recent searches by user, or by device for guests who
// have not logged in yet.
func searchOwner(r *http.Request) string {
	if userID := middleware.UserID(r); userID != "" {
		return "user:" + userID
	}
	if device := r.Header.Get("X-Device-ID"); device != "" {
		return "device:" + device
	}
	return ""
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()

	limit := 0
	if raw := query.Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid limit")
			return
		}
		limit = n
	}

	result, err := s.search.Search(r.Context(), searchOwner(r), query.Get("q"), limit)
	if err != nil {
		var verr *app.ValidationError
		if errors.As(err, &verr) || errors.Is(err, musicapi.ErrProviderUnavailable) || r.Context().Err() != nil {
			writeServiceError(w, r, err)
			return
		}
		logging.FromContext(r.Context()).Warn().Err(err).Msg("track search failed")
		writeError(w, http.StatusBadGateway, "music search failed")
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (s *Server) handleRecentSearches(w http.ResponseWriter, r *http.Request) {
	owner := searchOwner(r)
	if owner == "" {
		writeError(w, http.StatusBadRequest, "login or X-Device-ID header required")
		return
	}

	searches, err := s.search.Recent(r.Context(), owner)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	if searches == nil {
		searches = []string{}
	}
	writeJSON(w, http.StatusOK, recentResponse{Searches: searches})
}

func (s *Server) handleClearRecentSearches(w http.ResponseWriter, r *http.Request) {
	owner := searchOwner(r)
	if owner == "" {
		writeError(w, http.StatusBadRequest, "login or X-Device-ID header required")
		return
	}

	if err := s.search.ClearRecent(r.Context(), owner); err != nil {
		writeServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
