// Copyright (c) 2026 TTBT Enterprises LLC
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//      http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package backend

import (
	"context"
	"crypto/sha256"
	"crypto/tls"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/c2FmZQ/storage"

	"github.com/ttbt-io/wicketkeeper/backend/scoring"
)

func generateETag(data []byte) string {
	return fmt.Sprintf("\"%x\"", sha256.Sum256(data))
}

func hubBusyResponse(w http.ResponseWriter, retryAfter string) {
	w.Header().Set("Retry-After", retryAfter)
	http.Error(w, "Too Many Requests: Server is busy", http.StatusTooManyRequests)
}

// Options represent server options.
type Options struct {
	Addr     string
	Cert     *tls.Certificate
	Listener net.Listener
	DataDir  string
	Debug    bool

	// Storage backs the default MatchStore. Ignored when Repo is set.
	Storage  *storage.Storage
	Repo     MatchRepository
	Registry *Registry

	// Auth Options
	UseMockAuth    bool
	AuthCookieName string
	AuthJWKSURL    string
	TokenSecret    []byte
	TokenTTL       time.Duration
}

const (
	retryAfterLoad   = "2"
	retryAfterAction = "5"
)

// Server represents the running server instance.
type Server struct {
	httpServer *http.Server
	handler    http.Handler

	repo    MatchRepository
	reg     *Registry
	hubs    *HubManager
	tokens  *TokenIssuer
	metrics *Metrics
	debugf  func(string, ...any)
}

// Shutdown stops accepting requests and writes out every dirty match.
func (s *Server) Shutdown(ctx context.Context) error {
	var errs []error
	if s.httpServer != nil {
		if err := s.httpServer.Shutdown(ctx); err != nil {
			errs = append(errs, fmt.Errorf("http: %w", err))
		}
	}
	if err := s.repo.FlushAll(); err != nil {
		errs = append(errs, fmt.Errorf("flush: %w", err))
	}
	return errors.Join(errs...)
}

// Handler returns the HTTP handler of the server.
func (s *Server) Handler() http.Handler {
	return s.handler
}

// StartServer starts the web server and registers the API handlers.
func StartServer(opts Options) (*Server, error) {
	s := NewServer(opts)

	httpServer := &http.Server{
		Addr:              opts.Addr,
		Handler:           s.handler,
		ReadHeaderTimeout: 10 * time.Second,
	}
	if opts.Cert != nil {
		httpServer.TLSConfig = &tls.Config{
			Certificates: []tls.Certificate{*opts.Cert},
		}
	}
	s.httpServer = httpServer

	listener := opts.Listener
	if listener == nil {
		l, err := net.Listen("tcp", opts.Addr)
		if err != nil {
			return nil, fmt.Errorf("listen %s: %w", opts.Addr, err)
		}
		listener = l
	}

	go func() {
		var err error
		if httpServer.TLSConfig != nil {
			log.Printf("Starting HTTPS server on %s...", listener.Addr())
			err = httpServer.ServeTLS(listener, "", "")
		} else {
			log.Printf("Starting HTTP server on %s...", listener.Addr())
			err = httpServer.Serve(listener)
		}
		if err != nil && !errors.Is(err, net.ErrClosed) && err != http.ErrServerClosed {
			log.Printf("Server error: %v", err)
		}
	}()

	return s, nil
}

// NewServerHandler creates and configures the HTTP handler for the server.
func NewServerHandler(opts Options) http.Handler {
	return NewServer(opts).handler
}

// NewServer wires the stores, hubs and routes without listening.
func NewServer(opts Options) *Server {
	if opts.DataDir == "" {
		opts.DataDir = "data"
	}

	repo := opts.Repo
	if repo == nil {
		if opts.Storage == nil {
			opts.Storage = storage.New(opts.DataDir, nil)
		}
		ms := NewMatchStore(opts.DataDir, opts.Storage)
		ms.Debug = opts.Debug
		repo = ms
	}

	registry := opts.Registry
	if registry == nil {
		registry = NewRegistry(repo)
	}

	debugf := func(string, ...any) {}
	if opts.Debug {
		debugf = func(f string, a ...any) {
			log.Printf("[DEBUG BACKEND] "+f, a...)
		}
	}

	metrics := NewMetrics(registry.CountMatches)
	s := &Server{
		repo:    repo,
		reg:     registry,
		hubs:    NewHubManager(repo, registry, metrics, debugf),
		tokens:  NewTokenIssuer(opts.TokenSecret, opts.TokenTTL),
		metrics: metrics,
		debugf:  debugf,
	}

	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/matches", s.createMatch)
	mux.HandleFunc("GET /api/matches", s.listMatches)
	mux.HandleFunc("GET /api/matches/{id}", s.loadMatch)
	mux.HandleFunc("DELETE /api/matches/{id}", s.deleteMatch)
	mux.HandleFunc("POST /api/matches/{id}/actions", s.postAction)
	mux.HandleFunc("POST /api/matches/{id}/actions/batch", s.postActions)
	mux.HandleFunc("POST /api/matches/{id}/token", s.issueToken)
	mux.HandleFunc("GET /api/matches/{id}/scorecard", s.scorecard)
	mux.HandleFunc("GET /api/join/{code}", s.join)
	mux.HandleFunc("GET /api/ws", func(w http.ResponseWriter, r *http.Request) {
		ServeWS(s, w, r)
	})
	mux.Handle("GET /metrics", metrics.Handler())
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{
			"status":   "ok",
			"version":  CurrentAppVersion,
			"protocol": CurrentProtocolVersion,
		})
	})

	mux.HandleFunc("/api/login", func(w http.ResponseWriter, r *http.Request) {
		if opts.UseMockAuth {
			user := r.URL.Query().Get("user")
			if user == "" {
				user = "test@example.com"
			}
			if !isValidEmail(user) {
				http.Error(w, "Bad Request: invalid user", http.StatusBadRequest)
				return
			}
			http.SetCookie(w, &http.Cookie{
				Name:  mockAuthCookie,
				Value: normalizeEmail(user),
				Path:  "/",
			})
		} else if userID := getUserID(r); userID == "" || !isValidEmail(userID) {
			http.Error(w, "Forbidden: Invalid User ID", http.StatusForbidden)
			return
		}
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.Write([]byte("Login successful.\n"))
	})
	mux.HandleFunc("POST /api/logout", logoutHandler)

	handler := http.Handler(mux)
	if opts.UseMockAuth {
		handler = mockAuthMiddleware(handler)
	} else {
		handler = jwtAuthMiddleware(opts, handler)
	}
	handler = loggingMiddleware(handler)
	handler = metricsMiddleware(metrics, handler)
	handler = securityMiddleware(handler)
	handler = cacheControlMiddleware(handler)
	s.handler = handler

	return s
}

// callHub sends req to the match's hub and waits for the reply. It writes
// the error response itself and returns false when there is nothing to send.
func (s *Server) callHub(w http.ResponseWriter, r *http.Request, matchID string, req HubRequest, retryAfter string) (scoring.Match, bool) {
	hub := s.hubs.GetHub(matchID)
	reply := make(chan HubResponse, 1)
	req.Reply = reply
	select {
	case hub.requests <- req:
		select {
		case resp := <-reply:
			if resp.Error != nil {
				writeError(w, resp.Error)
				return scoring.Match{}, false
			}
			return resp.Match, true
		case <-r.Context().Done():
			return scoring.Match{}, false
		}
	default:
		hubBusyResponse(w, retryAfter)
		return scoring.Match{}, false
	}
}

// matchID returns the {id} path value, or writes 400.
func matchID(w http.ResponseWriter, r *http.Request) (string, bool) {
	id := r.PathValue("id")
	if !isValidUUID(id) {
		http.Error(w, "Bad Request: match id is missing or invalid", http.StatusBadRequest)
		return "", false
	}
	return id, true
}

// scorerCheck authorizes the request as the scorer of matchID.
func (s *Server) scorerCheck(r *http.Request, matchID string) func(string) error {
	return func(owner string) error {
		return authorizeScorer(s.tokens, r, matchID, owner)
	}
}

// ownerCheck only allows the signed-in owner of the match.
func ownerCheck(r *http.Request) func(string) error {
	userID := getUserID(r)
	return func(owner string) error {
		if userID == "" || normalizeEmail(owner) != userID {
			return ErrForbidden
		}
		return nil
	}
}

type createMatchRequest struct {
	// TotalOvers is a whole number, either as a JSON number or a string.
	TotalOvers json.RawMessage `json:"totalOvers"`
}

func (req createMatchRequest) overs() (int, error) {
	raw := strings.TrimSpace(string(req.TotalOvers))
	if raw == "" || raw == "null" {
		return 0, scoring.ErrInvalidOversCount
	}
	if strings.HasPrefix(raw, `"`) {
		var s string
		if err := json.Unmarshal(req.TotalOvers, &s); err != nil {
			return 0, scoring.ErrInvalidOversCount
		}
		raw = s
	}
	return scoring.ParseOvers(raw)
}

type createMatchResponse struct {
	Match       scoring.Match `json:"match"`
	ScorerToken string        `json:"scorerToken"`
}

func (s *Server) createMatch(w http.ResponseWriter, r *http.Request) {
	var req createMatchRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 4096)).Decode(&req); err != nil {
		http.Error(w, "Bad Request: Malformed JSON", http.StatusBadRequest)
		return
	}

	overs, err := req.overs()
	if err != nil {
		writeError(w, err)
		return
	}

	userID := getUserID(r)
	k := scoring.NewKeeper(s.repo)
	k.NewCode = s.unusedJoinCode
	m, err := k.Create(overs, userID)
	if err != nil {
		writeError(w, err)
		return
	}
	s.reg.UpdateMatch(&m)

	token, err := s.tokens.Issue(m.ID, userID)
	if err != nil {
		writeError(w, err)
		return
	}
	log.Printf("[API] Match %s created by %s (code %s, %d overs)", m.ID, maskEmail(userID), m.Code, m.TotalOvers)
	writeJSON(w, http.StatusCreated, createMatchResponse{Match: m, ScorerToken: token})
}

// unusedJoinCode draws join codes until one is free.
func (s *Server) unusedJoinCode() string {
	code := scoring.NewJoinCode()
	for range 10 {
		if _, err := s.repo.FindByCode(code); err != nil {
			return code
		}
		code = scoring.NewJoinCode()
	}
	return code
}

func (s *Server) listMatches(w http.ResponseWriter, r *http.Request) {
	userID := getUserID(r)
	if userID == "" || !isValidEmail(userID) {
		http.Error(w, "Unauthenticated", http.StatusForbidden)
		return
	}
	matches := s.reg.ListMatches(userID, r.URL.Query().Get("q"))
	writeJSON(w, http.StatusOK, map[string]any{
		"matches": matches,
		"total":   len(matches),
	})
}

func (s *Server) loadMatch(w http.ResponseWriter, r *http.Request) {
	id, ok := matchID(w, r)
	if !ok {
		return
	}
	m, ok := s.callHub(w, r, id, HubRequest{Type: ReqTypeLoad, Authorize: s.scorerCheck(r, id)}, retryAfterLoad)
	if !ok {
		return
	}
	writeCacheableJSON(w, r, m)
}

func (s *Server) deleteMatch(w http.ResponseWriter, r *http.Request) {
	id, ok := matchID(w, r)
	if !ok {
		return
	}
	if _, ok := s.callHub(w, r, id, HubRequest{Type: ReqTypeDelete, Authorize: ownerCheck(r)}, retryAfterAction); !ok {
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) postAction(w http.ResponseWriter, r *http.Request) {
	id, ok := matchID(w, r)
	if !ok {
		return
	}
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, 1048576))
	if err != nil || !json.Valid(body) {
		http.Error(w, "Bad Request: Malformed JSON", http.StatusBadRequest)
		return
	}
	m, ok := s.callHub(w, r, id, HubRequest{Type: ReqTypeAction, Action: body, Authorize: s.scorerCheck(r, id)}, retryAfterAction)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, m)
}

// maxBatchActions caps the actions accepted by one batch request.
const maxBatchActions = 100

// postActions replays a queue of actions, e.g. from a scorer that was
// offline. The whole batch is validated before any action is applied.
// Application stops at the first rejected action; the ones before it stay
// applied and are skipped by id if the batch is retried.
func (s *Server) postActions(w http.ResponseWriter, r *http.Request) {
	id, ok := matchID(w, r)
	if !ok {
		return
	}
	var actions []json.RawMessage
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1048576)).Decode(&actions); err != nil {
		http.Error(w, "Bad Request: Malformed JSON", http.StatusBadRequest)
		return
	}
	if len(actions) == 0 || len(actions) > maxBatchActions {
		http.Error(w, fmt.Sprintf("Bad Request: batch must hold 1 to %d actions", maxBatchActions), http.StatusBadRequest)
		return
	}
	if err := ValidateActions(actions); err != nil {
		writeError(w, err)
		return
	}

	var m scoring.Match
	for _, action := range actions {
		if m, ok = s.callHub(w, r, id, HubRequest{Type: ReqTypeAction, Action: action, Authorize: s.scorerCheck(r, id)}, retryAfterAction); !ok {
			return
		}
	}
	writeJSON(w, http.StatusOK, m)
}

// issueToken hands the owner a fresh scorer token, e.g. for another device.
func (s *Server) issueToken(w http.ResponseWriter, r *http.Request) {
	id, ok := matchID(w, r)
	if !ok {
		return
	}
	if _, ok := s.callHub(w, r, id, HubRequest{Type: ReqTypeLoad, Authorize: ownerCheck(r)}, retryAfterLoad); !ok {
		return
	}
	token, err := s.tokens.Issue(id, getUserID(r))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"scorerToken": token})
}

func (s *Server) scorecard(w http.ResponseWriter, r *http.Request) {
	id, ok := matchID(w, r)
	if !ok {
		return
	}
	m, ok := s.callHub(w, r, id, HubRequest{Type: ReqTypeLoad, Authorize: s.scorerCheck(r, id)}, retryAfterLoad)
	if !ok {
		return
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	io.WriteString(w, RenderScorecard(m))
}

// join serves the spectator view of a match.
func (s *Server) join(w http.ResponseWriter, r *http.Request) {
	found, err := s.repo.FindByCode(r.PathValue("code"))
	if err != nil {
		writeError(w, err)
		return
	}
	m, ok := s.callHub(w, r, found.ID, HubRequest{Type: ReqTypeLoad}, retryAfterLoad)
	if !ok {
		return
	}
	m.OwnerID = ""
	writeCacheableJSON(w, r, m)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("[API] Error encoding response: %v", err)
	}
}

// writeCacheableJSON honors If-None-Match.
func writeCacheableJSON(w http.ResponseWriter, r *http.Request, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		writeError(w, err)
		return
	}
	etag := generateETag(data)
	if r.Header.Get("If-None-Match") == etag {
		w.WriteHeader(http.StatusNotModified)
		return
	}
	w.Header().Set("ETag", etag)
	w.Header().Set("Content-Type", "application/json")
	w.Write(data)
}

// errorStatuses maps known errors to HTTP status codes. The first match wins.
var errorStatuses = []struct {
	err    error
	status int
}{
	{ErrInvalidAction, http.StatusBadRequest},
	{scoring.ErrInvalidOversCount, http.StatusBadRequest},
	{scoring.ErrInvalidRuns, http.StatusBadRequest},
	{scoring.ErrInvalidExtraKind, http.StatusBadRequest},
	{scoring.ErrInvalidWicketKind, http.StatusBadRequest},
	{scoring.ErrInvalidTossDecision, http.StatusBadRequest},
	{scoring.ErrInvalidTeam, http.StatusBadRequest},
	{scoring.ErrInvalidName, http.StatusBadRequest},
	{scoring.ErrUnknownPlayer, http.StatusBadRequest},
	{scoring.ErrNotAtCrease, http.StatusBadRequest},
	{scoring.ErrIncompleteLineup, http.StatusConflict},
	{scoring.ErrNothingToUndo, http.StatusConflict},
	{scoring.ErrMatchCompleted, http.StatusConflict},
	{scoring.ErrInningsNotInProgress, http.StatusConflict},
	{scoring.ErrInvalidTransition, http.StatusConflict},
	{scoring.ErrAllOut, http.StatusConflict},
	{scoring.ErrRosterLocked, http.StatusConflict},
	{ErrForbidden, http.StatusForbidden},
	{scoring.ErrInvalidJoinCode, http.StatusNotFound},
	{os.ErrNotExist, http.StatusNotFound},
	{errHubClosed, http.StatusServiceUnavailable},
}

// errorStatus returns the status code and short name of err, e.g.
// (409, "NothingToUndo").
func errorStatus(err error) (int, string) {
	for _, e := range errorStatuses {
		if errors.Is(err, e.err) {
			name, _, _ := strings.Cut(e.err.Error(), ":")
			switch e.err {
			case os.ErrNotExist:
				name = "NotFound"
			case errHubClosed:
				name = "Unavailable"
			}
			return e.status, name
		}
	}
	return http.StatusInternalServerError, "Internal"
}

func errorName(err error) string {
	_, name := errorStatus(err)
	return name
}

// writeError sends err with its mapped status. Unknown errors are logged and
// hidden from the client.
func writeError(w http.ResponseWriter, err error) {
	status, name := errorStatus(err)
	if status == http.StatusInternalServerError {
		log.Printf("[API] Internal error: %v", err)
		http.Error(w, "Internal Server Error", status)
		return
	}
	if name == "NotFound" || name == "Unavailable" {
		http.Error(w, name, status)
		return
	}
	http.Error(w, err.Error(), status)
}

// cacheControlMiddleware keeps API responses out of shared caches.
func cacheControlMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.HasPrefix(r.URL.Path, "/api/") {
			w.Header().Set("Cache-Control", "private, no-cache, no-transform")
		} else {
			w.Header().Set("Cache-Control", "no-store")
		}
		next.ServeHTTP(w, r)
	})
}

// securityMiddleware adds HTTP security headers to responses.
func securityMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Security-Policy", "default-src 'none'; frame-ancestors 'none'")
		w.Header().Set("X-Frame-Options", "DENY")
		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")
		next.ServeHTTP(w, r)
	})
}

// logoutHandler clears the mock auth cookie.
func logoutHandler(w http.ResponseWriter, r *http.Request) {
	http.SetCookie(w, &http.Cookie{
		Name:    mockAuthCookie,
		Value:   "",
		Path:    "/",
		Expires: time.Unix(0, 0),
		MaxAge:  -1,
	})
	w.WriteHeader(http.StatusOK)
}

// loggingMiddleware logs the method and URL path of every incoming HTTP request.
func loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		log.Printf("Received request: %s %s", r.Method, r.URL.Path)
		next.ServeHTTP(w, r)
	})
}
