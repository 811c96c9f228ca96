package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/sony/gobreaker/v2"

	"whatssound/internal/app"
	"whatssound/internal/app/requests"
	"whatssound/internal/app/search"
	"whatssound/internal/auth"
	"whatssound/internal/http/middleware"
	"whatssound/internal/musicapi"
	"whatssound/internal/queue"
	"whatssound/internal/store"
	"whatssound/internal/validate"
)

type stubVerifier struct{}

func (stubVerifier) Verify(token string) (string, error) {
	switch token {
	case "dj-token":
		return "dj-1", nil
	case "guest-token":
		return "guest-1", nil
	default:
		return "", auth.ErrUnauthorized
	}
}

type stubUserService struct {
	requestErr error
	verifyErr  error
	lastPhone  string
}

func (s *stubUserService) RequestCode(ctx context.Context, phone string) error {
	s.lastPhone = phone
	return s.requestErr
}

func (s *stubUserService) VerifyCode(ctx context.Context, phone, code string) (auth.Session, error) {
	s.lastPhone = phone
	if s.verifyErr != nil {
		return auth.Session{}, s.verifyErr
	}
	return auth.Session{AccessToken: "access", TokenType: "bearer", UserID: "user-1"}, nil
}

type stubSessionService struct {
	session   store.Session
	err       error
	lastDJ    string
	lastForm  validate.SessionForm
	lastCode  string
	lastEndID string
}

func (s *stubSessionService) Create(ctx context.Context, djID string, form validate.SessionForm) (store.Session, error) {
	s.lastDJ = djID
	s.lastForm = form
	if s.err != nil {
		return store.Session{}, s.err
	}
	return s.session, nil
}

func (s *stubSessionService) Get(ctx context.Context, id string) (store.Session, error) {
	if s.err != nil {
		return store.Session{}, s.err
	}
	return s.session, nil
}

func (s *stubSessionService) GetByCode(ctx context.Context, code string) (store.Session, error) {
	s.lastCode = code
	if s.err != nil {
		return store.Session{}, s.err
	}
	return s.session, nil
}

func (s *stubSessionService) End(ctx context.Context, djID, id string) (store.Session, error) {
	s.lastDJ = djID
	s.lastEndID = id
	if s.err != nil {
		return store.Session{}, s.err
	}
	return s.session, nil
}

type stubRequestService struct {
	entries []queue.Entry
	entry   queue.Entry
	votes   int
	err     error

	lastUser    string
	lastEntryID string
	lastStatus  queue.Status
	lastRequest requests.SongRequest
}

func (s *stubRequestService) Request(ctx context.Context, userID, sessionID string, req requests.SongRequest) (queue.Entry, error) {
	s.lastUser = userID
	s.lastRequest = req
	if s.err != nil {
		return queue.Entry{}, s.err
	}
	return s.entry, nil
}

func (s *stubRequestService) NextUp(ctx context.Context, sessionID string) ([]queue.Entry, error) {
	if s.err != nil {
		return nil, s.err
	}
	return queue.Rank(s.entries), nil
}

func (s *stubRequestService) History(ctx context.Context, sessionID string) ([]queue.Entry, error) {
	return s.entries, s.err
}

func (s *stubRequestService) Vote(ctx context.Context, userID, entryID string) (int, error) {
	s.lastUser = userID
	s.lastEntryID = entryID
	if s.err != nil {
		return 0, s.err
	}
	return s.votes, nil
}

func (s *stubRequestService) VoteCount(ctx context.Context, entryID string) (int, error) {
	s.lastEntryID = entryID
	return s.votes, s.err
}

func (s *stubRequestService) SetStatus(ctx context.Context, djID, entryID string, status queue.Status) (queue.Entry, error) {
	s.lastUser = djID
	s.lastEntryID = entryID
	s.lastStatus = status
	if s.err != nil {
		return queue.Entry{}, s.err
	}
	return queue.Entry{ID: entryID, Status: status}, nil
}

type stubSearchService struct {
	result    search.Result
	err       error
	recent    []string
	cleared   bool
	lastOwner string
	lastQuery string
	lastLimit int
}

func (s *stubSearchService) Search(ctx context.Context, owner, query string, limit int) (search.Result, error) {
	s.lastOwner = owner
	s.lastQuery = query
	s.lastLimit = limit
	if s.err != nil {
		return search.Result{}, s.err
	}
	return s.result, nil
}

func (s *stubSearchService) Recent(ctx context.Context, owner string) ([]string, error) {
	s.lastOwner = owner
	return s.recent, s.err
}

func (s *stubSearchService) ClearRecent(ctx context.Context, owner string) error {
	s.lastOwner = owner
	s.cleared = true
	return s.err
}

type stubProfileService struct {
	profile  store.Profile
	err      error
	lastUser string
}

func (s *stubProfileService) Get(ctx context.Context, userID string) (store.Profile, error) {
	s.lastUser = userID
	if s.err != nil {
		return store.Profile{}, s.err
	}
	return s.profile, nil
}

func (s *stubProfileService) Update(ctx context.Context, userID string, form validate.ProfileForm) (store.Profile, error) {
	s.lastUser = userID
	if s.err != nil {
		return store.Profile{}, s.err
	}
	return store.Profile{UserID: userID, DisplayName: form.DisplayName, Genres: form.Genres}, nil
}

func newTestServer(t *testing.T, svc Services, opts ...Option) *Server {
	t.Helper()
	if svc.Users == nil {
		svc.Users = &stubUserService{}
	}
	if svc.Sessions == nil {
		svc.Sessions = &stubSessionService{}
	}
	if svc.Requests == nil {
		svc.Requests = &stubRequestService{}
	}
	if svc.Search == nil {
		svc.Search = &stubSearchService{}
	}
	if svc.Profiles == nil {
		svc.Profiles = &stubProfileService{}
	}
	return New(svc, stubVerifier{}, opts...)
}

func serve(server *Server, req *http.Request) *httptest.ResponseRecorder {
	rr := httptest.NewRecorder()
	server.Routes().ServeHTTP(rr, req)
	return rr
}

func decodeError(t *testing.T, rr *httptest.ResponseRecorder) string {
	t.Helper()
	var payload errorResponse
	if err := json.NewDecoder(rr.Body).Decode(&payload); err != nil {
		t.Fatalf("decode error body: %v", err)
	}
	return payload.Error
}

type stubDependency struct {
	state gobreaker.State
}

func (d stubDependency) State() gobreaker.State { return d.state }

func TestHealth(t *testing.T) {
	tests := []struct {
		name       string
		opts       []Option
		wantStatus string
		wantDeps   map[string]string
	}{
		{name: "no dependencies", wantStatus: "ok"},
		{
			name:       "breaker closed",
			opts:       []Option{WithDependency("deezer", stubDependency{gobreaker.StateClosed})},
			wantStatus: "ok",
			wantDeps:   map[string]string{"deezer": "closed"},
		},
		{
			name:       "breaker half open",
			opts:       []Option{WithDependency("deezer", stubDependency{gobreaker.StateHalfOpen})},
			wantStatus: "ok",
			wantDeps:   map[string]string{"deezer": "half-open"},
		},
		{
			name:       "breaker open",
			opts:       []Option{WithDependency("deezer", stubDependency{gobreaker.StateOpen})},
			wantStatus: "degraded",
			wantDeps:   map[string]string{"deezer": "open"},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			server := newTestServer(t, Services{}, tc.opts...)
			rr := serve(server, httptest.NewRequest(http.MethodGet, "/health", nil))
			if rr.Code != http.StatusOK {
				t.Fatalf("expected status 200, got %d", rr.Code)
			}

			var body healthResponse
			if err := json.NewDecoder(rr.Body).Decode(&body); err != nil {
				t.Fatalf("decode health: %v", err)
			}
			if body.Status != tc.wantStatus {
				t.Fatalf("expected status %q, got %q", tc.wantStatus, body.Status)
			}
			if len(body.Dependencies) != len(tc.wantDeps) {
				t.Fatalf("expected dependencies %v, got %v", tc.wantDeps, body.Dependencies)
			}
			for name, state := range tc.wantDeps {
				if body.Dependencies[name] != state {
					t.Fatalf("expected %s=%s, got %v", name, state, body.Dependencies)
				}
			}
		})
	}
}

func TestRequestCodeAccepted(t *testing.T) {
	users := &stubUserService{}
	server := newTestServer(t, Services{Users: users})

	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/otp", strings.NewReader(`{"phone":"+34 612 345 678"}`))
	rr := serve(server, req)

	if rr.Code != http.StatusAccepted {
		t.Fatalf("expected status 202, got %d", rr.Code)
	}
	if users.lastPhone != "+34 612 345 678" {
		t.Fatalf("expected phone forwarded, got %q", users.lastPhone)
	}
}

func TestRequestCodeInvalidPhone(t *testing.T) {
	users := &stubUserService{requestErr: app.Invalid(app.ErrInvalidInput, validate.ReasonInvalidPhone)}
	server := newTestServer(t, Services{Users: users})

	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/otp", strings.NewReader(`{"phone":"12"}`))
	rr := serve(server, req)

	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected status 400, got %d", rr.Code)
	}
	if got := decodeError(t, rr); got != validate.ReasonInvalidPhone {
		t.Fatalf("expected reason %q, got %q", validate.ReasonInvalidPhone, got)
	}
}

func TestRequestCodeProviderThrottled(t *testing.T) {
	users := &stubUserService{requestErr: fmt.Errorf("send code: %w", auth.ErrOTPRateLimited)}
	server := newTestServer(t, Services{Users: users})

	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/otp", strings.NewReader(`{"phone":"+34 612 345 678"}`))
	rr := serve(server, req)

	if rr.Code != http.StatusTooManyRequests {
		t.Fatalf("expected status 429, got %d", rr.Code)
	}
	if rr.Header().Get("Retry-After") == "" {
		t.Fatal("expected Retry-After header")
	}
}

func TestVerifyCodeErrorMapping(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"rejected", auth.ErrOTPRejected, http.StatusUnauthorized},
		{"throttled", auth.ErrOTPRateLimited, http.StatusTooManyRequests},
		{"not configured", fmt.Errorf("verify: %w", app.ErrUnavailable), http.StatusServiceUnavailable},
		{"malformed code", app.Invalid(app.ErrInvalidInput, validate.ReasonInvalidCode), http.StatusBadRequest},
		{"unexpected", errors.New("boom"), http.StatusInternalServerError},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			server := newTestServer(t, Services{Users: &stubUserService{verifyErr: tc.err}})
			req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/verify", strings.NewReader(`{"phone":"612345678","code":"123456"}`))
			if rr := serve(server, req); rr.Code != tc.want {
				t.Fatalf("expected status %d, got %d", tc.want, rr.Code)
			}
		})
	}
}

func TestVerifyCodeSuccess(t *testing.T) {
	server := newTestServer(t, Services{})
	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/verify", strings.NewReader(`{"phone":"612345678","code":"123456"}`))
	rr := serve(server, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rr.Code)
	}
	var session auth.Session
	if err := json.NewDecoder(rr.Body).Decode(&session); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if session.AccessToken != "access" || session.UserID != "user-1" {
		t.Fatalf("unexpected session payload: %#v", session)
	}
}

func TestSearchUsesDeviceOwnerForGuests(t *testing.T) {
	searchStub := &stubSearchService{
		result: search.Result{Query: "bad bunny", Tracks: []musicapi.Track{{ExternalID: "1", Title: "Tití Me Preguntó"}}},
	}
	server := newTestServer(t, Services{Search: searchStub})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/search?q=Bad+Bunny&limit=10", nil)
	req.Header.Set("X-Device-ID", "device-9")
	rr := serve(server, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rr.Code)
	}
	if searchStub.lastOwner != "device:device-9" {
		t.Fatalf("expected device owner, got %q", searchStub.lastOwner)
	}
	if searchStub.lastQuery != "Bad Bunny" || searchStub.lastLimit != 10 {
		t.Fatalf("unexpected query forwarded: %q limit %d", searchStub.lastQuery, searchStub.lastLimit)
	}

	var payload search.Result
	if err := json.NewDecoder(rr.Body).Decode(&payload); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(payload.Tracks) != 1 || payload.Query != "bad bunny" {
		t.Fatalf("unexpected payload: %#v", payload)
	}
}

func TestSearchUsesUserOwnerWhenAuthenticated(t *testing.T) {
	searchStub := &stubSearchService{}
	server := newTestServer(t, Services{Search: searchStub})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/search?q=queen", nil)
	req.Header.Set("Authorization", "Bearer guest-token")
	req.Header.Set("X-Device-ID", "device-9")
	rr := serve(server, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rr.Code)
	}
	if searchStub.lastOwner != "user:guest-1" {
		t.Fatalf("expected user owner, got %q", searchStub.lastOwner)
	}
}

func TestSearchRejectsBadToken(t *testing.T) {
	server := newTestServer(t, Services{})
	req := httptest.NewRequest(http.MethodGet, "/api/v1/search?q=queen", nil)
	req.Header.Set("Authorization", "Bearer nope")

	if rr := serve(server, req); rr.Code != http.StatusUnauthorized {
		t.Fatalf("expected status 401, got %d", rr.Code)
	}
}

func TestSearchErrorMapping(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantBody   string
	}{
		{"short query", app.Invalid(app.ErrInvalidQuery, validate.ReasonQueryTooShort), http.StatusBadRequest, validate.ReasonQueryTooShort},
		{"breaker open", fmt.Errorf("search: %w", musicapi.ErrProviderUnavailable), http.StatusServiceUnavailable, ""},
		{"upstream failure", errors.New("deezer: status 500"), http.StatusBadGateway, ""},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			server := newTestServer(t, Services{Search: &stubSearchService{err: tc.err}})
			rr := serve(server, httptest.NewRequest(http.MethodGet, "/api/v1/search?q=x", nil))
			if rr.Code != tc.wantStatus {
				t.Fatalf("expected status %d, got %d", tc.wantStatus, rr.Code)
			}
			if tc.wantBody != "" {
				if got := decodeError(t, rr); got != tc.wantBody {
					t.Fatalf("expected error %q, got %q", tc.wantBody, got)
				}
			}
		})
	}
}

func TestSearchInvalidLimit(t *testing.T) {
	server := newTestServer(t, Services{})
	rr := serve(server, httptest.NewRequest(http.MethodGet, "/api/v1/search?q=queen&limit=many", nil))
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected status 400, got %d", rr.Code)
	}
}

func TestSearchRateLimited(t *testing.T) {
	limiter := middleware.NewRateLimiter(1)
	defer limiter.Stop()
	server := newTestServer(t, Services{}, WithSearchLimiter(limiter))

	newReq := func() *http.Request {
		req := httptest.NewRequest(http.MethodGet, "/api/v1/search?q=queen", nil)
		req.Header.Set("X-Device-ID", "device-1")
		return req
	}

	if rr := serve(server, newReq()); rr.Code != http.StatusOK {
		t.Fatalf("expected first request to pass, got %d", rr.Code)
	}
	rr := serve(server, newReq())
	if rr.Code != http.StatusTooManyRequests {
		t.Fatalf("expected status 429, got %d", rr.Code)
	}
	if rr.Header().Get("Retry-After") == "" {
		t.Fatal("expected Retry-After header")
	}
}

func TestRecentSearchesRequiresOwner(t *testing.T) {
	server := newTestServer(t, Services{})
	rr := serve(server, httptest.NewRequest(http.MethodGet, "/api/v1/me/recent-searches", nil))
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected status 400, got %d", rr.Code)
	}
}

func TestRecentSearchesListAndClear(t *testing.T) {
	searchStub := &stubSearchService{recent: []string{"queen", "bad bunny"}}
	server := newTestServer(t, Services{Search: searchStub})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/me/recent-searches", nil)
	req.Header.Set("X-Device-ID", "device-1")
	rr := serve(server, req)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rr.Code)
	}
	var payload recentResponse
	if err := json.NewDecoder(rr.Body).Decode(&payload); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(payload.Searches) != 2 || payload.Searches[0] != "queen" {
		t.Fatalf("unexpected searches: %v", payload.Searches)
	}

	req = httptest.NewRequest(http.MethodDelete, "/api/v1/me/recent-searches", nil)
	req.Header.Set("X-Device-ID", "device-1")
	rr = serve(server, req)
	if rr.Code != http.StatusNoContent {
		t.Fatalf("expected status 204, got %d", rr.Code)
	}
	if !searchStub.cleared || searchStub.lastOwner != "device:device-1" {
		t.Fatalf("expected clear for device owner, got cleared=%v owner=%q", searchStub.cleared, searchStub.lastOwner)
	}
}

func TestProfileRequiresToken(t *testing.T) {
	server := newTestServer(t, Services{})
	rr := serve(server, httptest.NewRequest(http.MethodGet, "/api/v1/me/profile", nil))
	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("expected status 401, got %d", rr.Code)
	}
}

func TestProfileGetNotFound(t *testing.T) {
	server := newTestServer(t, Services{Profiles: &stubProfileService{err: store.ErrProfileNotFound}})
	req := httptest.NewRequest(http.MethodGet, "/api/v1/me/profile", nil)
	req.Header.Set("Authorization", "Bearer guest-token")

	if rr := serve(server, req); rr.Code != http.StatusNotFound {
		t.Fatalf("expected status 404, got %d", rr.Code)
	}
}

func TestProfileUpdate(t *testing.T) {
	profiles := &stubProfileService{}
	server := newTestServer(t, Services{Profiles: profiles})

	body, _ := json.Marshal(validate.ProfileForm{DisplayName: "Ana", Genres: []string{"pop"}})
	req := httptest.NewRequest(http.MethodPut, "/api/v1/me/profile", bytes.NewReader(body))
	req.Header.Set("Authorization", "Bearer guest-token")
	rr := serve(server, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rr.Code)
	}
	if profiles.lastUser != "guest-1" {
		t.Fatalf("expected update for guest-1, got %q", profiles.lastUser)
	}
}

func TestCreateSession(t *testing.T) {
	sessions := &stubSessionService{
		session: store.Session{ID: "s1", DJID: "dj-1", Name: "Friday", JoinCode: "ABC234", Active: true, CreatedAt: time.Now()},
	}
	server := newTestServer(t, Services{Sessions: sessions})

	body, _ := json.Marshal(validate.SessionForm{Name: "Friday", Genres: []string{"house"}})
	req := httptest.NewRequest(http.MethodPost, "/api/v1/sessions", bytes.NewReader(body))
	req.Header.Set("Authorization", "Bearer dj-token")
	rr := serve(server, req)

	if rr.Code != http.StatusCreated {
		t.Fatalf("expected status 201, got %d", rr.Code)
	}
	if sessions.lastDJ != "dj-1" || sessions.lastForm.Name != "Friday" {
		t.Fatalf("unexpected create call: dj=%q form=%#v", sessions.lastDJ, sessions.lastForm)
	}
	var payload store.Session
	if err := json.NewDecoder(rr.Body).Decode(&payload); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if payload.JoinCode != "ABC234" {
		t.Fatalf("expected join code in payload, got %#v", payload)
	}
}

func TestCreateSessionValidationError(t *testing.T) {
	sessions := &stubSessionService{err: app.Invalid(app.ErrInvalidInput, validate.ReasonTooManyGenres)}
	server := newTestServer(t, Services{Sessions: sessions})

	req := httptest.NewRequest(http.MethodPost, "/api/v1/sessions", strings.NewReader(`{"name":"Friday","genres":["a","b","c","d","e","f"]}`))
	req.Header.Set("Authorization", "Bearer dj-token")
	rr := serve(server, req)

	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected status 400, got %d", rr.Code)
	}
	if got := decodeError(t, rr); got != validate.ReasonTooManyGenres {
		t.Fatalf("expected reason %q, got %q", validate.ReasonTooManyGenres, got)
	}
}

func TestCreateSessionBadJSON(t *testing.T) {
	server := newTestServer(t, Services{})
	req := httptest.NewRequest(http.MethodPost, "/api/v1/sessions", strings.NewReader(`{"name":`))
	req.Header.Set("Authorization", "Bearer dj-token")

	if rr := serve(server, req); rr.Code != http.StatusBadRequest {
		t.Fatalf("expected status 400, got %d", rr.Code)
	}
}

func TestSessionByCodeNotFound(t *testing.T) {
	sessions := &stubSessionService{err: store.ErrSessionNotFound}
	server := newTestServer(t, Services{Sessions: sessions})

	rr := serve(server, httptest.NewRequest(http.MethodGet, "/api/v1/sessions/code/abc234", nil))
	if rr.Code != http.StatusNotFound {
		t.Fatalf("expected status 404, got %d", rr.Code)
	}
	if sessions.lastCode != "abc234" {
		t.Fatalf("expected raw code forwarded, got %q", sessions.lastCode)
	}
}

func TestEndSessionForbidden(t *testing.T) {
	sessions := &stubSessionService{err: app.ErrForbidden}
	server := newTestServer(t, Services{Sessions: sessions})

	req := httptest.NewRequest(http.MethodPost, "/api/v1/sessions/s1/end", nil)
	req.Header.Set("Authorization", "Bearer guest-token")
	rr := serve(server, req)

	if rr.Code != http.StatusForbidden {
		t.Fatalf("expected status 403, got %d", rr.Code)
	}
	if sessions.lastDJ != "guest-1" || sessions.lastEndID != "s1" {
		t.Fatalf("unexpected end call: dj=%q id=%q", sessions.lastDJ, sessions.lastEndID)
	}
}

func TestNextUpReturnsRankedQueue(t *testing.T) {
	requestStub := &stubRequestService{
		entries: []queue.Entry{
			{ID: "a", Status: queue.StatusPending, Votes: 5},
			{ID: "b", Status: queue.StatusPlayed, Votes: 50},
			{ID: "c", Status: queue.StatusApproved, Votes: 0},
			{ID: "d", Status: queue.StatusPending, Votes: 9},
		},
	}
	server := newTestServer(t, Services{Requests: requestStub})

	rr := serve(server, httptest.NewRequest(http.MethodGet, "/api/v1/sessions/s1/queue", nil))
	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rr.Code)
	}

	var payload queueResponse
	if err := json.NewDecoder(rr.Body).Decode(&payload); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	var ids []string
	for _, e := range payload.Entries {
		ids = append(ids, e.ID)
	}
	if strings.Join(ids, ",") != "c,d,a" {
		t.Fatalf("unexpected order %v", ids)
	}
}

func TestHistoryEmptyQueueIsArray(t *testing.T) {
	server := newTestServer(t, Services{})
	rr := serve(server, httptest.NewRequest(http.MethodGet, "/api/v1/sessions/s1/history", nil))
	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rr.Code)
	}
	if !strings.Contains(rr.Body.String(), `"entries":[]`) {
		t.Fatalf("expected empty entries array, got %s", rr.Body.String())
	}
}

func TestRequestSong(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"created", nil, http.StatusCreated},
		{"duplicate", app.ErrDuplicateRequest, http.StatusConflict},
		{"session ended", store.ErrSessionEnded, http.StatusConflict},
		{"unknown session", store.ErrSessionNotFound, http.StatusNotFound},
		{"missing title", app.Invalid(app.ErrInvalidInput, "title and artist are required"), http.StatusBadRequest},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			requestStub := &stubRequestService{err: tc.err, entry: queue.Entry{ID: "e1", Status: queue.StatusPending}}
			server := newTestServer(t, Services{Requests: requestStub})

			req := httptest.NewRequest(http.MethodPost, "/api/v1/sessions/s1/queue", strings.NewReader(`{"title":"Despacito","artist":"Luis Fonsi"}`))
			req.Header.Set("Authorization", "Bearer guest-token")
			rr := serve(server, req)

			if rr.Code != tc.want {
				t.Fatalf("expected status %d, got %d", tc.want, rr.Code)
			}
			if requestStub.lastUser != "guest-1" || requestStub.lastRequest.Title != "Despacito" {
				t.Fatalf("unexpected request call: user=%q req=%#v", requestStub.lastUser, requestStub.lastRequest)
			}
		})
	}
}

func TestVote(t *testing.T) {
	requestStub := &stubRequestService{votes: 4}
	server := newTestServer(t, Services{Requests: requestStub})

	req := httptest.NewRequest(http.MethodPost, "/api/v1/queue/e1/votes", nil)
	req.Header.Set("Authorization", "Bearer guest-token")
	rr := serve(server, req)

	if rr.Code != http.StatusCreated {
		t.Fatalf("expected status 201, got %d", rr.Code)
	}
	var payload voteResponse
	if err := json.NewDecoder(rr.Body).Decode(&payload); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if payload.Votes != 4 || payload.EntryID != "e1" {
		t.Fatalf("unexpected payload %#v", payload)
	}
	if requestStub.lastUser != "guest-1" {
		t.Fatalf("expected vote from guest-1, got %q", requestStub.lastUser)
	}
}

func TestVoteRequiresToken(t *testing.T) {
	server := newTestServer(t, Services{})
	rr := serve(server, httptest.NewRequest(http.MethodPost, "/api/v1/queue/e1/votes", nil))
	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("expected status 401, got %d", rr.Code)
	}
}

func TestVoteErrorMapping(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"repeat vote", store.ErrAlreadyVoted, http.StatusConflict},
		{"entry closed", store.ErrEntryClosed, http.StatusConflict},
		{"unknown entry", store.ErrEntryNotFound, http.StatusNotFound},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			server := newTestServer(t, Services{Requests: &stubRequestService{err: tc.err}})
			req := httptest.NewRequest(http.MethodPost, "/api/v1/queue/e1/votes", nil)
			req.Header.Set("Authorization", "Bearer guest-token")
			if rr := serve(server, req); rr.Code != tc.want {
				t.Fatalf("expected status %d, got %d", tc.want, rr.Code)
			}
		})
	}
}

func TestVoteCountIsPublic(t *testing.T) {
	server := newTestServer(t, Services{Requests: &stubRequestService{votes: 7}})
	rr := serve(server, httptest.NewRequest(http.MethodGet, "/api/v1/queue/e1/votes", nil))

	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rr.Code)
	}
	if !strings.Contains(rr.Body.String(), `"votes":7`) {
		t.Fatalf("expected vote count in body, got %s", rr.Body.String())
	}
}

func TestSetStatus(t *testing.T) {
	requestStub := &stubRequestService{}
	server := newTestServer(t, Services{Requests: requestStub})

	req := httptest.NewRequest(http.MethodPut, "/api/v1/queue/e1/status", strings.NewReader(`{"status":"approved"}`))
	req.Header.Set("Authorization", "Bearer dj-token")
	rr := serve(server, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rr.Code)
	}
	if requestStub.lastStatus != queue.StatusApproved || requestStub.lastUser != "dj-1" {
		t.Fatalf("unexpected status call: %q by %q", requestStub.lastStatus, requestStub.lastUser)
	}
}

func TestSetStatusErrors(t *testing.T) {
	tests := []struct {
		name string
		body string
		err  error
		want int
	}{
		{"unknown status", `{"status":"skipped"}`, nil, http.StatusBadRequest},
		{"not the dj", `{"status":"played"}`, app.ErrForbidden, http.StatusForbidden},
		{"backwards transition", `{"status":"pending"}`, fmt.Errorf("played -> pending: %w", store.ErrInvalidTransition), http.StatusConflict},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			server := newTestServer(t, Services{Requests: &stubRequestService{err: tc.err}})
			req := httptest.NewRequest(http.MethodPut, "/api/v1/queue/e1/status", strings.NewReader(tc.body))
			req.Header.Set("Authorization", "Bearer dj-token")
			if rr := serve(server, req); rr.Code != tc.want {
				t.Fatalf("expected status %d, got %d", tc.want, rr.Code)
			}
		})
	}
}

func TestCORSPreflight(t *testing.T) {
	server := newTestServer(t, Services{}, WithAllowedOrigins([]string{"http://localhost:8081"}))

	req := httptest.NewRequest(http.MethodOptions, "/api/v1/sessions", nil)
	req.Header.Set("Origin", "http://localhost:8081")
	rr := serve(server, req)

	if rr.Code != http.StatusNoContent {
		t.Fatalf("expected status 204, got %d", rr.Code)
	}
	if got := rr.Header().Get("Access-Control-Allow-Origin"); got != "http://localhost:8081" {
		t.Fatalf("expected allowed origin echoed, got %q", got)
	}
}

func TestMetricsEndpoint(t *testing.T) {
	metricsHandler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("# metrics"))
	})
	server := newTestServer(t, Services{}, WithMetricsHandler(metricsHandler))

	rr := serve(server, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if rr.Code != http.StatusOK || rr.Body.String() != "# metrics" {
		t.Fatalf("unexpected metrics response: %d %q", rr.Code, rr.Body.String())
	}
}
