package dto

import (
	"github.com/abbakari/works/internal/core/types"
	"github.com/abbakari/works/internal/domain/workflow"
)

// CreateWorkflowItemRequest creates a draft approval item.
type CreateWorkflowItemRequest struct {
	Type           string      `json:"type" binding:"required"`
	Title          string      `json:"title" binding:"required"`
	Description    string      `json:"description"`
	Customers      []string    `json:"customers"`
	TotalValue     types.Money `json:"totalValue"`
	Year           int         `json:"year" binding:"required"`
	LinkedRecordID string      `json:"linkedRecordId" binding:"omitempty,uuid"`
}

// ToInput converts to the service input.
func (r *CreateWorkflowItemRequest) ToInput() (workflow.CreateInput, error) {
	linked, err := parseOptionalID(r.LinkedRecordID, "linkedRecordId")
	if err != nil {
		return workflow.CreateInput{}, err
	}
	return workflow.CreateInput{
		Type:           workflow.ItemType(r.Type),
		Title:          r.Title,
		Description:    r.Description,
		Customers:      r.Customers,
		TotalValue:     r.TotalValue,
		Year:           r.Year,
		LinkedRecordID: linked,
	}, nil
}

// CommentRequest adds a comment to an item.
type CommentRequest struct {
	Message      string `json:"message" binding:"required"`
	Type         string `json:"type"`
	IsFollowBack bool   `json:"isFollowBack"`
}

// ToInput converts to the service input.
func (r *CommentRequest) ToInput() workflow.CommentInput {
	return workflow.CommentInput{
		Message:      r.Message,
		Type:         workflow.CommentType(r.Type),
		IsFollowBack: r.IsFollowBack,
	}
}
