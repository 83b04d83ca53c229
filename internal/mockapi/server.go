// Package mockapi is an in-memory stand-in for the pull-request service,
// serving the two endpoints a load run exercises. It is used for local runs
// and end-to-end tests.
package mockapi

import (
	"encoding/json"
	"math/rand"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
)

// APIError is the error body returned by every failing endpoint.
type APIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

var (
	ErrTeamExists = APIError{Code: "TEAM_EXISTS", Message: "team already exists"}
	ErrPRExists   = APIError{Code: "PR_EXISTS", Message: "pull request already exists"}
	ErrNotFound   = APIError{Code: "NOT_FOUND", Message: "resource not found"}
	ErrServer     = APIError{Code: "SERVER_ERROR", Message: "internal server error"}
)

// Member is a team member as sent to team/add.
type Member struct {
	UserID   string `json:"user_id"`
	Username string `json:"username"`
	IsActive bool   `json:"is_active"`
}

// Team is the team/add body.
type Team struct {
	TeamName string   `json:"team_name"`
	Members  []Member `json:"members"`
}

// PullRequest is a stored pull request.
type PullRequest struct {
	PullRequestID     string   `json:"pull_request_id"`
	PullRequestName   string   `json:"pull_request_name"`
	AuthorID          string   `json:"author_id"`
	Status            string   `json:"status"`
	AssignedReviewers []string `json:"assigned_reviewers"`
}

type createPRRequest struct {
	PullRequestID   string `json:"pull_request_id"`
	PullRequestName string `json:"pull_request_name"`
	AuthorID        string `json:"author_id"`
}

// StatusScript overrides the status of the n-th pull-request creation call
// (1-based). Returning 0 leaves the call to the normal handler.
type StatusScript func(n int64) int

// Server is the mock service. It is safe for concurrent use.
type Server struct {
	logger  *zap.Logger
	latency time.Duration
	script  StatusScript

	mu      sync.Mutex
	teams   map[string]Team
	members map[string]string // user id -> team name
	prs     map[string]PullRequest
	rng     *rand.Rand

	teamCalls atomic.Int64
	prCalls   atomic.Int64
}

// Option configures a Server.
type Option func(*Server)

// WithLatency delays every response by d.
func WithLatency(d time.Duration) Option {
	return func(s *Server) {
		s.latency = d
	}
}

// WithStatusScript scripts the status of pull-request creation calls.
func WithStatusScript(script StatusScript) Option {
	return func(s *Server) {
		s.script = script
	}
}

// WithLogger sets the logger; every request is logged at debug.
func WithLogger(logger *zap.Logger) Option {
	return func(s *Server) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// New creates an empty server.
func New(opts ...Option) *Server {
	s := &Server{
		logger:  zap.NewNop(),
		teams:   make(map[string]Team),
		members: make(map[string]string),
		prs:     make(map[string]PullRequest),
		rng:     rand.New(rand.NewSource(time.Now().UnixNano())),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Handler returns the HTTP handler serving the mock endpoints.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /team/add/", s.addTeam)
	mux.HandleFunc("GET /team/get/", s.getTeam)
	mux.HandleFunc("POST /pullRequest/create/", s.createPR)
	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})
	return s.withLatency(mux)
}

// TeamCalls returns the number of team/add calls served.
func (s *Server) TeamCalls() int64 { return s.teamCalls.Load() }

// PRCalls returns the number of pullRequest/create calls served.
func (s *Server) PRCalls() int64 { return s.prCalls.Load() }

// PullRequests returns the number of stored pull requests.
func (s *Server) PullRequests() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.prs)
}

func (s *Server) withLatency(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.latency > 0 {
			timer := time.NewTimer(s.latency)
			select {
			case <-timer.C:
			case <-r.Context().Done():
				timer.Stop()
				return
			}
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) addTeam(w http.ResponseWriter, r *http.Request) {
	s.teamCalls.Add(1)

	var team Team
	if err := json.NewDecoder(r.Body).Decode(&team); err != nil || team.TeamName == "" {
		writeJSON(w, http.StatusNotFound, ErrNotFound)
		return
	}

	s.mu.Lock()
	if _, exists := s.teams[team.TeamName]; exists {
		s.mu.Unlock()
		s.logger.Debug("team exists", zap.String("team", team.TeamName))
		writeJSON(w, http.StatusBadRequest, ErrTeamExists)
		return
	}
	s.teams[team.TeamName] = team
	for _, m := range team.Members {
		s.members[m.UserID] = team.TeamName
	}
	s.mu.Unlock()

	s.logger.Debug("team created", zap.String("team", team.TeamName), zap.Int("members", len(team.Members)))
	writeJSON(w, http.StatusCreated, map[string]Team{"team": team})
}

func (s *Server) getTeam(w http.ResponseWriter, r *http.Request) {
	name := r.URL.Query().Get("team_name")

	s.mu.Lock()
	team, ok := s.teams[name]
	s.mu.Unlock()

	if !ok {
		writeJSON(w, http.StatusNotFound, ErrNotFound)
		return
	}
	writeJSON(w, http.StatusOK, team)
}

func (s *Server) createPR(w http.ResponseWriter, r *http.Request) {
	n := s.prCalls.Add(1)

	if s.script != nil {
		if status := s.script(n); status != 0 {
			writeScripted(w, status)
			return
		}
	}

	var req createPRRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.PullRequestID == "" {
		writeJSON(w, http.StatusNotFound, ErrNotFound)
		return
	}

	s.mu.Lock()
	if _, exists := s.prs[req.PullRequestID]; exists {
		s.mu.Unlock()
		writeJSON(w, http.StatusConflict, ErrPRExists)
		return
	}
	teamName, ok := s.members[req.AuthorID]
	if !ok {
		s.mu.Unlock()
		writeJSON(w, http.StatusNotFound, ErrNotFound)
		return
	}

	pr := PullRequest{
		PullRequestID:     req.PullRequestID,
		PullRequestName:   req.PullRequestName,
		AuthorID:          req.AuthorID,
		Status:            "OPEN",
		AssignedReviewers: s.pickReviewers(s.teams[teamName], req.AuthorID, 2),
	}
	s.prs[pr.PullRequestID] = pr
	s.mu.Unlock()

	writeJSON(w, http.StatusCreated, map[string]PullRequest{"pr": pr})
}

// pickReviewers returns up to n active teammates of author in random order.
// The caller holds mu.
func (s *Server) pickReviewers(team Team, author string, n int) []string {
	candidates := make([]string, 0, len(team.Members))
	for _, m := range team.Members {
		if m.IsActive && m.UserID != author {
			candidates = append(candidates, m.UserID)
		}
	}
	s.rng.Shuffle(len(candidates), func(i, j int) {
		candidates[i], candidates[j] = candidates[j], candidates[i]
	})
	if len(candidates) > n {
		candidates = candidates[:n]
	}
	return candidates
}

func writeScripted(w http.ResponseWriter, status int) {
	switch status {
	case http.StatusConflict:
		writeJSON(w, status, ErrPRExists)
	case http.StatusNotFound:
		writeJSON(w, status, ErrNotFound)
	case http.StatusCreated:
		writeJSON(w, status, map[string]string{})
	default:
		writeJSON(w, status, ErrServer)
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
