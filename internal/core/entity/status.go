// Package entity defines the shared shapes of persisted records.
package entity

import (
	"github.com/shopspring/decimal"
)

// Status is the lifecycle state of an owned record.
type Status string

const (
	StatusDraft     Status = "draft"
	StatusSubmitted Status = "submitted"
	StatusInReview  Status = "in_review"
	StatusApproved  Status = "approved"
	StatusRejected  Status = "rejected"
	StatusForwarded Status = "forwarded"
)

// AllStatuses lists lifecycle states in flow order.
var AllStatuses = []Status{
	StatusDraft, StatusSubmitted, StatusInReview,
	StatusApproved, StatusRejected, StatusForwarded,
}

// Valid reports whether s is a known status.
func (s Status) Valid() bool {
	switch s {
	case StatusDraft, StatusSubmitted, StatusInReview, StatusApproved, StatusRejected, StatusForwarded:
		return true
	}
	return false
}

func (s Status) String() string { return string(s) }

// Priority is derived from the record total value.
type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
)

var (
	highPriorityThreshold   = decimal.NewFromInt(200000)
	mediumPriorityThreshold = decimal.NewFromInt(100000)
)

// PriorityFor maps a total value to a priority bucket.
// Thresholds are strict: exactly 200000 is medium.
func PriorityFor(total decimal.Decimal) Priority {
	switch {
	case total.GreaterThan(highPriorityThreshold):
		return PriorityHigh
	case total.GreaterThan(mediumPriorityThreshold):
		return PriorityMedium
	default:
		return PriorityLow
	}
}
