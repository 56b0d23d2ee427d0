package api

import (
	"context"
	"net/http"
	"strings"

	"github.com/okian/scout/internal/domain/listing"
	"github.com/okian/scout/internal/domain/model"
	"github.com/okian/scout/internal/domain/types"
)

// ProjectDependencies defines the public project operations.
type ProjectDependencies interface {
	ListProjects(ctx context.Context, p listing.Params) (types.Page[model.Project], error)
	GetProject(ctx context.Context, id string) (model.Project, error)
	SuggestProject(ctx context.Context, p model.Project) (model.Project, error)
}

// ProjectsHandler handles project requests.
type ProjectsHandler struct {
	deps   ProjectDependencies
	limits listing.Limits
}

// NewProjectsHandler creates a new projects handler.
func NewProjectsHandler(deps ProjectDependencies, limits listing.Limits) *ProjectsHandler {
	return &ProjectsHandler{deps: deps, limits: limits}
}

// HandleList handles GET /projects requests. Only approved, visible
// projects are listed whatever status the query asks for.
func (h *ProjectsHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	const op = "api.list_projects"
	page, err := h.deps.ListProjects(r.Context(), listing.ParseQuery(r.URL.Query(), h.limits))
	if err != nil {
		writeFailure(w, Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusOK, page)
}

// HandleGet handles GET /projects/{id} requests.
func (h *ProjectsHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	const op = "api.get_project"
	id, err := pathID(r)
	if err != nil {
		writeFailure(w, WrapKind(op, ErrBadRequest, err))
		return
	}
	p, err := h.deps.GetProject(r.Context(), id)
	if err != nil {
		writeFailure(w, Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusOK, p)
}

// suggestRequest mirrors the OpenAPI schema for POST /projects.
type suggestRequest struct {
	Name        string         `json:"name"`
	Owner       string         `json:"owner"`
	Description string         `json:"description"`
	RepoURL     string         `json:"repo_url"`
	Topics      []string       `json:"topics"`
	Languages   map[string]int `json:"languages"`
	Tags        []string       `json:"tags"`
	SuggestedBy string         `json:"suggested_by"`
}

func (s suggestRequest) project() model.Project {
	p := model.Project{
		Name:        s.Name,
		Owner:       s.Owner,
		Description: strings.TrimSpace(s.Description),
		RepoURL:     strings.TrimSpace(s.RepoURL),
		Topics:      s.Topics,
		Languages:   s.Languages,
		SuggestedBy: strings.TrimSpace(s.SuggestedBy),
	}
	for _, kind := range s.Tags {
		if kind = strings.TrimSpace(kind); kind != "" {
			p.Tags = append(p.Tags, model.Tag{Kind: kind})
		}
	}
	return p
}

// HandleSuggest handles POST /projects requests.
func (h *ProjectsHandler) HandleSuggest(w http.ResponseWriter, r *http.Request) {
	const op = "api.suggest_project"
	var req suggestRequest
	if err := decodeBody(w, r, &req); err != nil {
		writeFailure(w, WrapKind(op, ErrBadRequest, err))
		return
	}
	p, err := h.deps.SuggestProject(r.Context(), req.project())
	if err != nil {
		writeFailure(w, Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusCreated, p)
}
