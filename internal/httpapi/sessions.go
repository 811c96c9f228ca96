package httpapi

import (
	"net/http"

	"github.com/gorilla/mux"

	"whatssound/internal/app/requests"
	"whatssound/internal/http/middleware"
	"whatssound/internal/queue"
	"whatssound/internal/validate"
)

// queueResponse wraps a list of entries so the payload can grow fields
// without breaking clients.
type queueResponse struct {
	SessionID string        `json:"session_id"`
	Entries   []queue.Entry `json:"entries"`
}

func (s *Server) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	var form validate.SessionForm
	if err := decodeJSON(w, r, &form); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	session, err := s.sessions.Create(r.Context(), middleware.UserID(r), form)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, session)
}

func (s *Server) handleGetSession(w http.ResponseWriter, r *http.Request) {
	session, err := s.sessions.Get(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, session)
}

func (s *Server) handleSessionByCode(w http.ResponseWriter, r *http.Request) {
	session, err := s.sessions.GetByCode(r.Context(), mux.Vars(r)["code"])
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, session)
}

func (s *Server) handleEndSession(w http.ResponseWriter, r *http.Request) {
	session, err := s.sessions.End(r.Context(), middleware.UserID(r), mux.Vars(r)["id"])
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, session)
}

func (s *Server) handleNextUp(w http.ResponseWriter, r *http.Request) {
	sessionID := mux.Vars(r)["id"]
	entries, err := s.requests.NextUp(r.Context(), sessionID)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, queueResponse{SessionID: sessionID, Entries: nonNil(entries)})
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	sessionID := mux.Vars(r)["id"]
	entries, err := s.requests.History(r.Context(), sessionID)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, queueResponse{SessionID: sessionID, Entries: nonNil(entries)})
}

func (s *Server) handleRequestSong(w http.ResponseWriter, r *http.Request) {
	var req requests.SongRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	entry, err := s.requests.Request(r.Context(), middleware.UserID(r), mux.Vars(r)["id"], req)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, entry)
}

func nonNil(entries []queue.Entry) []queue.Entry {
	if entries == nil {
		return []queue.Entry{}
	}
	return entries
}
