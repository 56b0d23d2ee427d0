// Package types contains common response types used across the application
package types

import "github.com/okian/scout/internal/domain/listing"

// Page is one page of a listing response.
type Page[T any] struct {
	Items      []T `json:"items"`
	Total      int `json:"total"`
	Page       int `json:"page"`
	PageSize   int `json:"page_size"`
	TotalPages int `json:"total_pages"`
}

// NewPage wraps a pipeline result with the paging parameters that produced it.
func NewPage[T any](res listing.Result[T], page, pageSize int) Page[T] {
	items := res.Items
	if items == nil {
		items = []T{}
	}
	return Page[T]{
		Items:      items,
		Total:      res.Total,
		Page:       page,
		PageSize:   pageSize,
		TotalPages: listing.TotalPages(res.Total, pageSize),
	}
}

// Stats summarizes the catalogue.
type Stats struct {
	Contributors     int   `json:"contributors"`
	Projects         int   `json:"projects"`
	ApprovedProjects int   `json:"approved_projects"`
	PendingProjects  int   `json:"pending_projects"`
	VotesApplied     int64 `json:"votes_applied"`
	QueueDepth       int   `json:"queue_depth"`
	DedupeSize       int64 `json:"dedupe_size"`
}
