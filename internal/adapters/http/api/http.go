// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/okian/scout/internal/domain/listing"
	"github.com/okian/scout/pkg/logger"
)

// maxBodyBytes bounds JSON request bodies.
const maxBodyBytes = 1 << 20

// Dependencies required by HTTP handlers. Using an interface bundle keeps
// the handler layer loosely coupled to implementations in other packages.
type Dependencies interface {
	ContributorDependencies
	ProjectDependencies
	VoteDependencies
	AdminDependencies
	StatsProvider
}

// Server wires HTTP routes for the business API.
type Server struct {
	healthHandler       *HealthHandler
	statsHandler        *StatsHandler
	contributorsHandler *ContributorsHandler
	projectsHandler     *ProjectsHandler
	votesHandler        *VotesHandler
	adminHandler        *AdminHandler
}

// Option configures a Server.
type Option func(*serverConfig)

type serverConfig struct {
	limits     listing.Limits
	adminToken string
}

// WithLimits sets the page size bounds applied to listing queries.
func WithLimits(l listing.Limits) Option {
	return func(c *serverConfig) { c.limits = l }
}

// WithAdminToken enables the moderation routes behind the X-Admin-Token
// header. An empty token leaves them disabled.
func WithAdminToken(token string) Option {
	return func(c *serverConfig) { c.adminToken = token }
}

// NewServer creates a new API server with all handlers.
func NewServer(deps Dependencies, opts ...Option) *Server {
	cfg := serverConfig{limits: listing.DefaultLimits}
	for _, opt := range opts {
		opt(&cfg)
	}
	return &Server{
		healthHandler:       NewHealthHandler(),
		statsHandler:        NewStatsHandler(deps),
		contributorsHandler: NewContributorsHandler(deps, cfg.limits),
		projectsHandler:     NewProjectsHandler(deps, cfg.limits),
		votesHandler:        NewVotesHandler(deps),
		adminHandler:        NewAdminHandler(deps, cfg.adminToken, cfg.limits),
	}
}

// Register attaches all HTTP routes to mux.
func (s *Server) Register(ctx context.Context, mux *http.ServeMux) {
	mux.HandleFunc("GET /healthz", MetricsMiddleware(s.healthHandler.HandleHealth, "healthz"))
	mux.HandleFunc("GET /stats", MetricsMiddleware(s.statsHandler.HandleStats, "stats"))

	mux.HandleFunc("GET /contributors", MetricsMiddleware(s.contributorsHandler.HandleList, "contributors"))
	mux.HandleFunc("GET /contributors/{id}", MetricsMiddleware(s.contributorsHandler.HandleGet, "contributor"))

	mux.HandleFunc("GET /projects", MetricsMiddleware(s.projectsHandler.HandleList, "projects"))
	mux.HandleFunc("GET /projects/{id}", MetricsMiddleware(s.projectsHandler.HandleGet, "project"))
	mux.HandleFunc("POST /projects", MetricsMiddleware(s.projectsHandler.HandleSuggest, "suggest"))

	mux.HandleFunc("POST /votes", MetricsMiddleware(s.votesHandler.HandlePostVote, "votes"))

	admin := s.adminHandler
	mux.HandleFunc("GET /admin/suggestions", MetricsMiddleware(admin.guard(admin.HandleSuggestions), "admin_suggestions"))
	mux.HandleFunc("POST /admin/projects/{id}/approve", MetricsMiddleware(admin.guard(admin.HandleApprove), "admin_approve"))
	mux.HandleFunc("POST /admin/projects/{id}/reject", MetricsMiddleware(admin.guard(admin.HandleReject), "admin_reject"))

	logger.Get().Named("api").Debug(ctx, "routes registered", logger.Bool("admin", admin.enabled()))
}

type ackResponse struct {
	Status    string `json:"status"`
	Duplicate bool   `json:"duplicate"`
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code string, err error) {
	msg := http.StatusText(status)
	if err != nil {
		msg = err.Error()
	}
	writeJSON(w, status, errorResponse{Code: code, Message: msg})
}

// writeFailure writes err with the status its kind maps to.
func writeFailure(w http.ResponseWriter, err error) {
	status, code := classify(err)
	writeError(w, status, code, err)
}

// decodeBody reads a single JSON object from r into v.
func decodeBody(w http.ResponseWriter, r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("invalid JSON body: %w", err)
	}
	if dec.More() {
		return errors.New("invalid JSON body: trailing data")
	}
	return nil
}

// pathID returns the {id} path value, or an error when it is blank.
func pathID(r *http.Request) (string, error) {
	id := strings.TrimSpace(r.PathValue("id"))
	if id == "" {
		return "", errors.New("missing id")
	}
	return id, nil
}
