package api

import (
	"context"
	"crypto/subtle"
	"net/http"

	"github.com/okian/scout/internal/domain/listing"
	"github.com/okian/scout/internal/domain/model"
	"github.com/okian/scout/internal/domain/types"
)

// AdminTokenHeader carries the moderation token.
const AdminTokenHeader = "X-Admin-Token"

// AdminDependencies defines the moderation operations.
type AdminDependencies interface {
	ListSuggestions(ctx context.Context, p listing.Params) (types.Page[model.Project], error)
	ApproveProject(ctx context.Context, id string) (model.Project, error)
	RejectProject(ctx context.Context, id string) error
}

// AdminHandler handles moderation requests.
type AdminHandler struct {
	deps   AdminDependencies
	token  []byte
	limits listing.Limits
}

// NewAdminHandler creates a new admin handler. An empty token disables
// every admin route.
func NewAdminHandler(deps AdminDependencies, token string, limits listing.Limits) *AdminHandler {
	return &AdminHandler{deps: deps, token: []byte(token), limits: limits}
}

func (h *AdminHandler) enabled() bool { return len(h.token) > 0 }

// guard rejects requests without the admin token. Disabled routes answer
// 404 so they look absent.
func (h *AdminHandler) guard(next http.HandlerFunc) http.HandlerFunc {
	const op = "api.admin"
	return func(w http.ResponseWriter, r *http.Request) {
		if !h.enabled() {
			writeFailure(w, NewKind(op, ErrNotFound))
			return
		}
		got := []byte(r.Header.Get(AdminTokenHeader))
		if subtle.ConstantTimeCompare(got, h.token) != 1 {
			writeFailure(w, NewKind(op, ErrUnauthorized))
			return
		}
		next(w, r)
	}
}

// HandleSuggestions handles GET /admin/suggestions requests.
func (h *AdminHandler) HandleSuggestions(w http.ResponseWriter, r *http.Request) {
	const op = "api.list_suggestions"
	page, err := h.deps.ListSuggestions(r.Context(), listing.ParseQuery(r.URL.Query(), h.limits))
	if err != nil {
		writeFailure(w, Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusOK, page)
}

// HandleApprove handles POST /admin/projects/{id}/approve requests.
func (h *AdminHandler) HandleApprove(w http.ResponseWriter, r *http.Request) {
	const op = "api.approve_project"
	id, err := pathID(r)
	if err != nil {
		writeFailure(w, WrapKind(op, ErrBadRequest, err))
		return
	}
	p, err := h.deps.ApproveProject(r.Context(), id)
	if err != nil {
		writeFailure(w, Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusOK, p)
}

// HandleReject handles POST /admin/projects/{id}/reject requests.
func (h *AdminHandler) HandleReject(w http.ResponseWriter, r *http.Request) {
	const op = "api.reject_project"
	id, err := pathID(r)
	if err != nil {
		writeFailure(w, WrapKind(op, ErrBadRequest, err))
		return
	}
	if err := h.deps.RejectProject(r.Context(), id); err != nil {
		writeFailure(w, Wrap(op, err))
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
