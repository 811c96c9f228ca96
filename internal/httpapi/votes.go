package httpapi

import (
	"net/http"

	"github.com/gorilla/mux"

	"whatssound/internal/http/middleware"
	"whatssound/internal/queue"
)

type voteResponse struct {
	EntryID string `json:"entry_id"`
	Votes   int    `json:"votes"`
}

type statusRequest struct {
	Status string `json:"status"`
}

func (s *Server) handleVote(w http.ResponseWriter, r *http.Request) {
	entryID := mux.Vars(r)["id"]
	votes, err := s.requests.Vote(r.Context(), middleware.UserID(r), entryID)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, voteResponse{EntryID: entryID, Votes: votes})
}

func (s *Server) handleVoteCount(w http.ResponseWriter, r *http.Request) {
	entryID := mux.Vars(r)["id"]
	votes, err := s.requests.VoteCount(r.Context(), entryID)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, voteResponse{EntryID: entryID, Votes: votes})
}

func (s *Server) handleSetStatus(w http.ResponseWriter, r *http.Request) {
	var req statusRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	status, ok := queue.ParseStatus(req.Status)
	if !ok {
		writeError(w, http.StatusBadRequest, "unknown status")
		return
	}

	entry, err := s.requests.SetStatus(r.Context(), middleware.UserID(r), mux.Vars(r)["id"], status)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, entry)
}
