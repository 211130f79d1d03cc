// Package workflow implements the approval center: items that bundle a
// budget or forecast submission, their comments and dashboard counts.
package workflow

import (
	"context"
	"strconv"
	"strings"
	"time"

	"github.com/abbakari/works/internal/core/apperror"
	"github.com/abbakari/works/internal/core/entity"
	"github.com/abbakari/works/internal/core/id"
	"github.com/abbakari/works/internal/core/security"
	"github.com/abbakari/works/internal/core/types"
)

// EntityType is the audit entity name of a workflow item.
const EntityType = "workflow_item"

// ItemType is what a workflow item carries.
type ItemType string

const (
	TypeSalesBudget     ItemType = "sales_budget"
	TypeRollingForecast ItemType = "rolling_forecast"
)

// Valid reports whether t is known.
func (t ItemType) Valid() bool {
	return t == TypeSalesBudget || t == TypeRollingForecast
}

// Item is one submission tracked by the approval center.
type Item struct {
	entity.Record

	Number        string        `db:"number" json:"number"`
	Type          ItemType      `db:"type" json:"type"`
	Title         string        `db:"title" json:"title"`
	Description   string        `db:"description" json:"description,omitempty"`
	CreatedByRole security.Role `db:"created_by_role" json:"createdByRole"`
	Customers     []string      `db:"customers" json:"customers"`
	Amount        types.Money   `db:"total_value" json:"totalValue"`
	Year          int           `db:"year" json:"year"`
	// LinkedRecordID points at the budget or forecast the item was raised for.
	LinkedRecordID *id.ID `db:"linked_record_id" json:"linkedRecordId,omitempty"`
}

// NewItem creates a draft item owned by actor.
func NewItem(actor security.Actor, typ ItemType, title string, year int) *Item {
	return &Item{
		Record:        entity.NewRecord(actor.ID),
		Type:          typ,
		Title:         strings.TrimSpace(title),
		CreatedByRole: actor.Role,
		Customers:     []string{},
		Amount:        types.Zero(),
		Year:          year,
	}
}

// Validate checks required fields.
func (i *Item) Validate(_ context.Context) error {
	if !i.Type.Valid() {
		return apperror.NewValidation("unknown workflow type").WithDetail("value", i.Type)
	}
	if i.Title == "" {
		return apperror.NewValidation("title is required").WithDetail("field", "title")
	}
	if i.Year < 2000 || i.Year > 2100 {
		return apperror.NewValidation("year is out of range").WithDetail("value", i.Year)
	}
	if i.Amount.IsNegative() {
		return apperror.NewValidation("total value can not be negative").WithDetail("field", "totalValue")
	}
	return nil
}

// Recompute trims and de-duplicates the customer list.
func (i *Item) Recompute() {
	seen := make(map[string]bool, len(i.Customers))
	out := i.Customers[:0]
	for _, c := range i.Customers {
		c = strings.TrimSpace(c)
		if c == "" || seen[c] {
			continue
		}
		seen[c] = true
		out = append(out, c)
	}
	i.Customers = out
	i.Amount = types.Round2(i.Amount)
}

// TotalValue implements lifecycle.Record.
func (i *Item) TotalValue() types.Money { return i.Amount }

// Label implements lifecycle.Record.
func (i *Item) Label() string {
	return i.Title + " (" + strconv.Itoa(i.Year) + ")"
}

// CommentType classifies a comment.
type CommentType string

const (
	CommentPlain          CommentType = "comment"
	CommentApproval       CommentType = "approval"
	CommentRejection      CommentType = "rejection"
	CommentRequestChanges CommentType = "request_changes"
)

// Valid reports whether t is known.
func (t CommentType) Valid() bool {
	switch t {
	case CommentPlain, CommentApproval, CommentRejection, CommentRequestChanges:
		return true
	}
	return false
}

// Reviewer reports whether only reviewers may post this type.
func (t CommentType) Reviewer() bool { return t != CommentPlain }

// Comment is a note on a workflow item.
type Comment struct {
	ID           id.ID         `db:"id" json:"id"`
	ItemID       id.ID         `db:"workflow_item_id" json:"workflowItemId"`
	AuthorID     id.ID         `db:"author_id" json:"authorId"`
	AuthorRole   security.Role `db:"author_role" json:"authorRole"`
	Message      string        `db:"message" json:"message"`
	Type         CommentType   `db:"type" json:"type"`
	IsFollowBack bool          `db:"is_follow_back" json:"isFollowBack"`
	CreatedAt    time.Time     `db:"created_at" json:"timestamp"`
}

// Dashboard counts visible items by state.
type Dashboard struct {
	Total         int64                   `json:"total"`
	ByState       map[entity.Status]int64 `json:"byState"`
	PendingReview int64                   `json:"pendingReview"`
	TotalValue    types.Money             `json:"totalValue"`
}

// Pending returns the number of items waiting for a reviewer.
func (d *Dashboard) Pending() int64 {
	return d.ByState[entity.StatusSubmitted] + d.ByState[entity.StatusInReview]
}
