package api

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/okian/scout/internal/domain/model"
)

// VoteDependencies defines the vote submission dependency.
type VoteDependencies interface {
	// SubmitVote queues a vote. duplicate reports an already seen vote ID.
	SubmitVote(ctx context.Context, v model.Vote) (duplicate bool, err error)
}

// VotesHandler handles vote requests.
type VotesHandler struct {
	deps VoteDependencies
}

// NewVotesHandler creates a new votes handler.
func NewVotesHandler(deps VoteDependencies) *VotesHandler {
	return &VotesHandler{deps: deps}
}

// voteRequest mirrors the OpenAPI schema for POST /votes.
type voteRequest struct {
	VoteID    string `json:"vote_id"`
	ProjectID string `json:"project_id"`
	UserID    string `json:"user_id"`
	Direction string `json:"direction"`
	TS        string `json:"ts"`
}

func (v voteRequest) vote() (model.Vote, error) {
	out := model.Vote{
		VoteID:    v.VoteID,
		ProjectID: v.ProjectID,
		UserID:    strings.TrimSpace(v.UserID),
		Direction: model.Direction(strings.ToLower(strings.TrimSpace(v.Direction))),
	}
	if ts := strings.TrimSpace(v.TS); ts != "" {
		parsed, err := time.Parse(time.RFC3339, ts)
		if err != nil {
			return model.Vote{}, errors.New("invalid ts; must be RFC3339")
		}
		out.TS = parsed
	}
	return out, nil
}

// HandlePostVote handles POST /votes requests. Accepted votes are applied
// asynchronously; a repeated vote_id is acknowledged without effect.
func (h *VotesHandler) HandlePostVote(w http.ResponseWriter, r *http.Request) {
	const op = "api.post_vote"
	var req voteRequest
	if err := decodeBody(w, r, &req); err != nil {
		writeFailure(w, WrapKind(op, ErrBadRequest, err))
		return
	}
	vote, err := req.vote()
	if err != nil {
		writeFailure(w, WrapKind(op, ErrBadRequest, err))
		return
	}

	duplicate, err := h.deps.SubmitVote(r.Context(), vote)
	if err != nil {
		writeFailure(w, Wrap(op, err))
		return
	}
	if duplicate {
		writeJSON(w, http.StatusOK, ackResponse{Status: "duplicate", Duplicate: true})
		return
	}
	writeJSON(w, http.StatusAccepted, ackResponse{Status: "accepted", Duplicate: false})
}
