package entity

import (
	"time"

	"github.com/abbakari/works/internal/core/id"
)

// Record is the header shared by every owned, lifecycle-managed entity
// (budgets, forecasts, workflow items, stock requests).
type Record struct {
	BaseEntity

	// CreatedBy is the owner. Visibility rules are evaluated against it.
	CreatedBy id.ID    `db:"created_by" json:"createdBy"`
	Status    Status   `db:"status" json:"status"`
	Priority  Priority `db:"priority" json:"priority"`
	IsActive  bool     `db:"is_active" json:"isActive"`

	SubmittedAt *time.Time `db:"submitted_at" json:"submittedAt,omitempty"`
	ReviewedAt  *time.Time `db:"reviewed_at" json:"reviewedAt,omitempty"`
	ReviewedBy  *id.ID     `db:"reviewed_by" json:"reviewedBy,omitempty"`
	ApprovedAt  *time.Time `db:"approved_at" json:"approvedAt,omitempty"`
	ApprovedBy  *id.ID     `db:"approved_by" json:"approvedBy,omitempty"`
	RejectedAt  *time.Time `db:"rejected_at" json:"rejectedAt,omitempty"`
	RejectedBy  *id.ID     `db:"rejected_by" json:"rejectedBy,omitempty"`
	ForwardedAt *time.Time `db:"forwarded_at" json:"forwardedAt,omitempty"`
	ForwardedBy *id.ID     `db:"forwarded_by" json:"forwardedBy,omitempty"`

	// AllowedTransitions is filled per caller on single-record reads.
	AllowedTransitions []Status `json:"allowedTransitions,omitempty"`
}

// NewRecord creates a draft record owned by owner.
func NewRecord(owner id.ID) Record {
	return Record{
		BaseEntity: NewBaseEntity(),
		CreatedBy:  owner,
		Status:     StatusDraft,
		Priority:   PriorityLow,
		IsActive:   true,
	}
}

// Header returns the record itself; lets embedding types satisfy
// interfaces that need the shared header.
func (r *Record) Header() *Record { return r }

// OwnerID returns the owning user.
func (r *Record) OwnerID() id.ID { return r.CreatedBy }

// CurrentStatus returns the lifecycle state.
func (r *Record) CurrentStatus() Status { return r.Status }

// IsDraft reports whether the record is still editable by its owner.
func (r *Record) IsDraft() bool { return r.Status == StatusDraft }

// MarkTransition moves the record to status `to` and stamps the
// per-state timestamp and actor.
func (r *Record) MarkTransition(to Status, actor id.ID, at time.Time) {
	at = at.UTC()
	switch to {
	case StatusSubmitted:
		r.SubmittedAt = &at
	case StatusInReview:
		r.ReviewedAt = &at
		r.ReviewedBy = id.Ptr(actor)
	case StatusApproved:
		r.ApprovedAt = &at
		r.ApprovedBy = id.Ptr(actor)
	case StatusRejected:
		r.RejectedAt = &at
		r.RejectedBy = id.Ptr(actor)
	case StatusForwarded:
		r.ForwardedAt = &at
		r.ForwardedBy = id.Ptr(actor)
	}
	r.Status = to
	r.UpdatedAt = at
}
