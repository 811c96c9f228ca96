package httpapi

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/sony/gobreaker/v2"

	"whatssound/internal/app/requests"
	"whatssound/internal/app/search"
	"whatssound/internal/auth"
	"whatssound/internal/http/middleware"
	"whatssound/internal/queue"
	"whatssound/internal/store"
	"whatssound/internal/validate"
)

// UserService captures the phone login operations needed by the handlers.
type UserService interface {
	RequestCode(ctx context.Context, phone string) error
	VerifyCode(ctx context.Context, phone, code string) (auth.Session, error)
}

// SessionService describes the DJ session lifecycle.
type SessionService interface {
	Create(ctx context.Context, djID string, form validate.SessionForm) (store.Session, error)
	Get(ctx context.Context, id string) (store.Session, error)
	GetByCode(ctx context.Context, code string) (store.Session, error)
	End(ctx context.Context, djID, id string) (store.Session, error)
}

// RequestService coordinates song requests, votes and moderation.
type RequestService interface {
	Request(ctx context.Context, userID, sessionID string, req requests.SongRequest) (queue.Entry, error)
	NextUp(ctx context.Context, sessionID string) ([]queue.Entry, error)
	History(ctx context.Context, sessionID string) ([]queue.Entry, error)
	Vote(ctx context.Context, userID, entryID string) (int, error)
	VoteCount(ctx context.Context, entryID string) (int, error)
	SetStatus(ctx context.Context, djID, entryID string, status queue.Status) (queue.Entry, error)
}

// SearchService proxies track search and recent-search history.
type SearchService interface {
	Search(ctx context.Context, owner, query string, limit int) (search.Result, error)
	Recent(ctx context.Context, owner string) ([]string, error)
	ClearRecent(ctx context.Context, owner string) error
}

// ProfileService exposes profile workflows.
type ProfileService interface {
	Get(ctx context.Context, userID string) (store.Profile, error)
	Update(ctx context.Context, userID string, form validate.ProfileForm) (store.Profile, error)
}

// Services groups the application services the API depends on.
type Services struct {
	Users    UserService
	Sessions SessionService
	Requests RequestService
	Search   SearchService
	Profiles ProfileService
}

// Server exposes HTTP handlers for the queue API.
type Server struct {
	users    UserService
	sessions SessionService
	requests RequestService
	search   SearchService
	profiles ProfileService

	verifier       middleware.TokenVerifier
	searchLimiter  *middleware.RateLimiter
	allowedOrigins []string
	metrics        http.Handler
	dependencies   map[string]Dependency
}

// Dependency is an upstream guarded by a circuit breaker.
type Dependency interface {
	State() gobreaker.State
}

// Option customises a Server.
type Option func(*Server)

// WithSearchLimiter rate limits the search endpoint per client.
func WithSearchLimiter(rl *middleware.RateLimiter) Option {
	return func(s *Server) { s.searchLimiter = rl }
}

// WithAllowedOrigins sets the CORS allow list.
func WithAllowedOrigins(origins []string) Option {
	return func(s *Server) { s.allowedOrigins = origins }
}

// WithMetricsHandler serves h at /metrics.
func WithMetricsHandler(h http.Handler) Option {
	return func(s *Server) { s.metrics = h }
}

// WithDependency reports d's breaker state under name at /health.
func WithDependency(name string, d Dependency) Option {
	return func(s *Server) {
		if s.dependencies == nil {
			s.dependencies = make(map[string]Dependency)
		}
		s.dependencies[name] = d
	}
}

// New constructs a Server.
func New(svc Services, verifier middleware.TokenVerifier, opts ...Option) *Server {
	s := &Server{
		users:    svc.Users,
		sessions: svc.Sessions,
		requests: svc.Requests,
		search:   svc.Search,
		profiles: svc.Profiles,
		verifier: verifier,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Routes registers the HTTP routes and wraps them in the middleware chain.
func (s *Server) Routes() http.Handler {
	r := mux.NewRouter()
	r.Use(middleware.Metrics())

	r.HandleFunc("/health", s.handleHealth).Methods(http.MethodGet)
	if s.metrics != nil {
		r.Handle("/metrics", s.metrics).Methods(http.MethodGet)
	}

	api := r.PathPrefix("/api/v1").Subrouter()

	api.HandleFunc("/auth/otp", s.handleRequestCode).Methods(http.MethodPost)
	api.HandleFunc("/auth/verify", s.handleVerifyCode).Methods(http.MethodPost)

	searchHandler := http.Handler(http.HandlerFunc(s.handleSearch))
	if s.searchLimiter != nil {
		searchHandler = middleware.RateLimit(s.searchLimiter, "search")(searchHandler)
	}
	api.Handle("/search", s.optional(searchHandler)).Methods(http.MethodGet)

	api.Handle("/me/recent-searches", s.optional(http.HandlerFunc(s.handleRecentSearches))).
		Methods(http.MethodGet)
	api.Handle("/me/recent-searches", s.optional(http.HandlerFunc(s.handleClearRecentSearches))).
		Methods(http.MethodDelete)
	api.Handle("/me/profile", s.required(http.HandlerFunc(s.handleGetProfile))).Methods(http.MethodGet)
	api.Handle("/me/profile", s.required(http.HandlerFunc(s.handleUpdateProfile))).Methods(http.MethodPut)

	api.Handle("/sessions", s.required(http.HandlerFunc(s.handleCreateSession))).Methods(http.MethodPost)
	api.HandleFunc("/sessions/code/{code}", s.handleSessionByCode).Methods(http.MethodGet)
	api.HandleFunc("/sessions/{id}", s.handleGetSession).Methods(http.MethodGet)
	api.Handle("/sessions/{id}/end", s.required(http.HandlerFunc(s.handleEndSession))).Methods(http.MethodPost)
	api.HandleFunc("/sessions/{id}/queue", s.handleNextUp).Methods(http.MethodGet)
	api.Handle("/sessions/{id}/queue", s.required(http.HandlerFunc(s.handleRequestSong))).Methods(http.MethodPost)
	api.HandleFunc("/sessions/{id}/history", s.handleHistory).Methods(http.MethodGet)

	api.Handle("/queue/{id}/votes", s.required(http.HandlerFunc(s.handleVote))).Methods(http.MethodPost)
	api.HandleFunc("/queue/{id}/votes", s.handleVoteCount).Methods(http.MethodGet)
	api.Handle("/queue/{id}/status", s.required(http.HandlerFunc(s.handleSetStatus))).Methods(http.MethodPut)

	var handler http.Handler = r
	handler = middleware.CORS(s.allowedOrigins)(handler)
	handler = middleware.Recovery()(handler)
	handler = middleware.RequestLogging()(handler)
	return handler
}

func (s *Server) required(h http.Handler) http.Handler {
	return middleware.Authenticate(s.verifier, true)(h)
}

func (s *Server) optional(h http.Handler) http.Handler {
	return middleware.Authenticate(s.verifier, false)(h)
}

type healthResponse struct {
	Status       string            `json:"status"`
	Dependencies map[string]string `json:"dependencies,omitempty"`
}

// handleHealth stays 200 while a dependency is down; the API still serves
// everything except the affected feature.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	resp := healthResponse{Status: "ok"}
	if len(s.dependencies) > 0 {
		resp.Dependencies = make(map[string]string, len(s.dependencies))
		for name, dep := range s.dependencies {
			state := dep.State()
			resp.Dependencies[name] = state.String()
			if state == gobreaker.StateOpen {
				resp.Status = "degraded"
			}
		}
	}
	writeJSON(w, http.StatusOK, resp)
}

type errorResponse struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload == nil {
		return
	}
	_ = json.NewEncoder(w).Encode(payload)
}

func decodeJSON(w http.ResponseWriter, r *http.Request, dst interface{}) error {
	defer r.Body.Close()
	return json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(dst)
}

const maxBodyBytes = 1 << 20
