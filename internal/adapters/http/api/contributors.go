package api

import (
	"context"
	"net/http"

	"github.com/okian/scout/internal/domain/listing"
	"github.com/okian/scout/internal/domain/model"
	"github.com/okian/scout/internal/domain/types"
)

// ContributorDependencies defines the contributor read operations.
type ContributorDependencies interface {
	ListContributors(ctx context.Context, p listing.Params) (types.Page[model.Contributor], error)
	GetContributor(ctx context.Context, id string) (model.Contributor, error)
}

// ContributorsHandler handles contributor requests.
type ContributorsHandler struct {
	deps   ContributorDependencies
	limits listing.Limits
}

// NewContributorsHandler creates a new contributors handler.
func NewContributorsHandler(deps ContributorDependencies, limits listing.Limits) *ContributorsHandler {
	return &ContributorsHandler{deps: deps, limits: limits}
}

// HandleList handles GET /contributors requests.
func (h *ContributorsHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	const op = "api.list_contributors"
	page, err := h.deps.ListContributors(r.Context(), listing.ParseQuery(r.URL.Query(), h.limits))
	if err != nil {
		writeFailure(w, Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusOK, page)
}

// HandleGet handles GET /contributors/{id} requests.
func (h *ContributorsHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	const op = "api.get_contributor"
	id, err := pathID(r)
	if err != nil {
		writeFailure(w, WrapKind(op, ErrBadRequest, err))
		return
	}
	c, err := h.deps.GetContributor(r.Context(), id)
	if err != nil {
		writeFailure(w, Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusOK, c)
}
