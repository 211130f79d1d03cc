// Package dto provides Data Transfer Objects for API requests/responses.
package dto

import (
	"github.com/abbakari/works/internal/core/apperror"
	"github.com/abbakari/works/internal/core/entity"
	"github.com/abbakari/works/internal/core/id"
	"github.com/abbakari/works/internal/domain"
)

// ListQuery holds the query parameters shared by list endpoints.
type ListQuery struct {
	Search          string `form:"search"`
	Status          string `form:"status"`
	Year            int    `form:"year" binding:"omitempty,min=2000,max=2100"`
	CustomerID      string `form:"customerId" binding:"omitempty,uuid"`
	ItemID          string `form:"itemId" binding:"omitempty,uuid"`
	OwnerID         string `form:"createdBy" binding:"omitempty,uuid"`
	IncludeInactive bool   `form:"includeInactive"`
	OrderBy         string `form:"orderBy"`
	Limit           int    `form:"limit" binding:"omitempty,min=1,max=500"`
	Offset          int    `form:"offset" binding:"omitempty,min=0"`
}

// ToFilter converts the query into a domain filter.
func (q *ListQuery) ToFilter() (domain.ListFilter, error) {
	f := domain.ListFilter{
		Search:          q.Search,
		Year:            q.Year,
		IncludeInactive: q.IncludeInactive,
		OrderBy:         q.OrderBy,
		Limit:           q.Limit,
		Offset:          q.Offset,
	}
	if q.Status != "" {
		st := entity.Status(q.Status)
		if !st.Valid() {
			return f, apperror.NewValidation("unknown status").WithDetail("value", q.Status)
		}
		f.Status = st
	}
	var err error
	if f.CustomerID, err = id.ParseOptional(q.CustomerID); err != nil {
		return f, apperror.NewValidation("invalid customerId")
	}
	if f.ItemID, err = id.ParseOptional(q.ItemID); err != nil {
		return f, apperror.NewValidation("invalid itemId")
	}
	if f.OwnerID, err = id.ParseOptional(q.OwnerID); err != nil {
		return f, apperror.NewValidation("invalid createdBy")
	}
	return f.Normalize(), nil
}

// ListResponse wraps list results with paging metadata.
type ListResponse[T any] struct {
	Items      []T   `json:"items"`
	TotalCount int64 `json:"totalCount"`
	Limit      int   `json:"limit"`
	Offset     int   `json:"offset"`
}

// FromListResult passes a domain page through unchanged, with a non-nil item slice.
func FromListResult[T any](r domain.ListResult[T]) ListResponse[T] {
	items := r.Items
	if items == nil {
		items = []T{}
	}
	return ListResponse[T]{Items: items, TotalCount: r.TotalCount, Limit: r.Limit, Offset: r.Offset}
}

// TransitionRequest is the body of submit/review/approve/reject/forward.
type TransitionRequest struct {
	Comment string `json:"comment"`
	// Version, when set, must match the stored record.
	Version int `json:"version" binding:"omitempty,min=1"`
}

// StatusTransitionRequest names the target state explicitly.
type StatusTransitionRequest struct {
	TransitionRequest
	Status string `json:"status" binding:"required"`
}

// Target parses the requested status.
func (r *StatusTransitionRequest) Target() (entity.Status, error) {
	st := entity.Status(r.Status)
	if !st.Valid() {
		return "", apperror.NewValidation("unknown status").WithDetail("value", r.Status)
	}
	return st, nil
}

// VersionRequest carries only the optimistic lock version.
type VersionRequest struct {
	Version int `json:"version" binding:"omitempty,min=1"`
}

// IDResponse for create operations.
type IDResponse struct {
	ID string `json:"id"`
}

// SuccessResponse for operations without data.
type SuccessResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
}

// ErrorResponse documents the error body written by the error middleware.
type ErrorResponse struct {
	Code    string         `json:"code"`
	Message string         `json:"message"`
	Details map[string]any `json:"details,omitempty"`
	TraceID string         `json:"trace_id,omitempty"`
}

func parseOptionalID(s, field string) (*id.ID, error) {
	v, err := id.ParseOptional(s)
	if err != nil {
		return nil, apperror.NewValidation("invalid " + field).WithDetail("field", field)
	}
	return v, nil
}

func parseID(s, field string) (id.ID, error) {
	v, err := id.Parse(s)
	if err != nil {
		return id.Nil(), apperror.NewValidation("invalid " + field).WithDetail("field", field)
	}
	return v, nil
}
