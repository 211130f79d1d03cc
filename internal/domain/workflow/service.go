package workflow

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/abbakari/works/internal/core/apperror"
	"github.com/abbakari/works/internal/core/entity"
	"github.com/abbakari/works/internal/core/id"
	"github.com/abbakari/works/internal/core/security"
	"github.com/abbakari/works/internal/core/tx"
	"github.com/abbakari/works/internal/core/types"
	"github.com/abbakari/works/internal/domain"
	"github.com/abbakari/works/internal/domain/audit"
	"github.com/abbakari/works/internal/domain/lifecycle"
	"github.com/abbakari/works/pkg/logger"
)

// Service implements approval center use cases.
type Service struct {
	repo     Repository
	txm      tx.Manager
	perms    *security.Resolver
	scopes   lifecycle.ScopeSource
	machine  *lifecycle.Machine
	trail    *audit.Trail
	comments CommentNotifier
}

// NewService creates a workflow service. comments may be nil.
func NewService(
	repo Repository,
	txm tx.Manager,
	perms *security.Resolver,
	scopes lifecycle.ScopeSource,
	machine *lifecycle.Machine,
	trail *audit.Trail,
	comments CommentNotifier,
) *Service {
	if comments == nil {
		comments = nopCommentNotifier{}
	}
	return &Service{repo: repo, txm: txm, perms: perms, scopes: scopes, machine: machine, trail: trail, comments: comments}
}

// CreateInput holds the fields of a new workflow item.
type CreateInput struct {
	Type           ItemType
	Title          string
	Description    string
	Customers      []string
	TotalValue     types.Money
	Year           int
	LinkedRecordID *id.ID
}

// Create stores a draft item owned by actor.
func (s *Service) Create(ctx context.Context, actor security.Actor, in CreateInput) (*Item, error) {
	if err := actor.Require(s.perms, security.ResourceApprovals, security.ActionSubmit); err != nil {
		return nil, err
	}

	item := NewItem(actor, in.Type, in.Title, in.Year)
	item.Description = in.Description
	item.Customers = append(item.Customers, in.Customers...)
	item.Amount = in.TotalValue
	item.LinkedRecordID = in.LinkedRecordID
	item.Recompute()
	item.Priority = entity.PriorityFor(item.TotalValue())
	if err := item.Validate(ctx); err != nil {
		return nil, err
	}

	err := s.txm.RunInTransaction(ctx, func(ctx context.Context) error {
		if err := s.repo.Create(ctx, item); err != nil {
			return fmt.Errorf("create workflow item: %w", err)
		}
		return s.trail.Created(ctx, EntityType, &item.Record, item, actor)
	})
	if err != nil {
		return nil, err
	}

	logger.Info(ctx, "workflow item created",
		"item_id", item.ID,
		"type", item.Type,
		"priority", item.Priority)
	return item, nil
}

// Get returns a visible item.
func (s *Service) Get(ctx context.Context, actor security.Actor, itemID id.ID) (*Item, error) {
	item, err := s.repo.GetByID(ctx, itemID)
	if err != nil {
		return nil, err
	}
	scope, err := s.scopes.Resolve(ctx, actor, security.ResourceApprovals)
	if err != nil {
		return nil, err
	}
	if err := lifecycle.RequireVisible(lifecycle.KindWorkflowItem, scope, item, itemID); err != nil {
		return nil, err
	}
	item.AllowedTransitions = s.machine.AllowedTargets(lifecycle.WorkflowItemSpec, item, actor)
	return item, nil
}

// List returns items visible to actor.
func (s *Service) List(ctx context.Context, actor security.Actor, filter domain.ListFilter) (domain.ListResult[Item], error) {
	scope, err := s.scopes.Resolve(ctx, actor, security.ResourceApprovals)
	if err != nil {
		return domain.ListResult[Item]{}, err
	}
	return s.repo.List(ctx, scope, filter.Normalize())
}

// Dashboard counts visible items by state.
func (s *Service) Dashboard(ctx context.Context, actor security.Actor) (*Dashboard, error) {
	scope, err := s.scopes.Resolve(ctx, actor, security.ResourceApprovals)
	if err != nil {
		return nil, err
	}
	d, err := s.repo.Dashboard(ctx, scope)
	if err != nil {
		return nil, err
	}
	d.PendingReview = d.Pending()
	return d, nil
}

// Transition moves an item through the approval flow.
func (s *Service) Transition(ctx context.Context, actor security.Actor, itemID id.ID, target entity.Status, comment string, version int) (*Item, error) {
	rec, err := s.machine.Transition(ctx, lifecycle.WorkflowItemSpec, transitionStore{s.repo}, lifecycle.Request{
		RecordID:        itemID,
		Target:          target,
		Actor:           actor,
		Comment:         comment,
		ExpectedVersion: version,
	})
	if err != nil {
		return nil, err
	}
	return rec.(*Item), nil
}

// Submit is Transition to submitted.
func (s *Service) Submit(ctx context.Context, actor security.Actor, itemID id.ID, comment string) (*Item, error) {
	return s.Transition(ctx, actor, itemID, entity.StatusSubmitted, comment, 0)
}

// Review is Transition to in_review.
func (s *Service) Review(ctx context.Context, actor security.Actor, itemID id.ID, comment string) (*Item, error) {
	return s.Transition(ctx, actor, itemID, entity.StatusInReview, comment, 0)
}

// Approve is Transition to approved.
func (s *Service) Approve(ctx context.Context, actor security.Actor, itemID id.ID, comment string) (*Item, error) {
	return s.Transition(ctx, actor, itemID, entity.StatusApproved, comment, 0)
}

// Reject is Transition to rejected.
func (s *Service) Reject(ctx context.Context, actor security.Actor, itemID id.ID, comment string) (*Item, error) {
	return s.Transition(ctx, actor, itemID, entity.StatusRejected, comment, 0)
}

// Forward sends an approved item to supply chain.
func (s *Service) Forward(ctx context.Context, actor security.Actor, itemID id.ID, comment string) (*Item, error) {
	return s.Transition(ctx, actor, itemID, entity.StatusForwarded, comment, 0)
}

// CommentInput is a new comment.
type CommentInput struct {
	Message      string
	Type         CommentType
	IsFollowBack bool
}

// AddComment attaches a comment to a visible item. Review comment types
// are limited to actors who may approve.
func (s *Service) AddComment(ctx context.Context, actor security.Actor, itemID id.ID, in CommentInput) (*Comment, error) {
	if in.Type == "" {
		in.Type = CommentPlain
	}
	if !in.Type.Valid() {
		return nil, apperror.NewValidation("unknown comment type").WithDetail("value", in.Type)
	}
	msg := strings.TrimSpace(in.Message)
	if msg == "" {
		return nil, apperror.NewValidation("message is required").WithDetail("field", "message")
	}
	if in.Type.Reviewer() {
		if err := actor.Require(s.perms, security.ResourceApprovals, security.ActionApprove); err != nil {
			return nil, err
		}
	}

	c := &Comment{
		ID:           id.New(),
		ItemID:       itemID,
		AuthorID:     actor.ID,
		AuthorRole:   actor.Role,
		Message:      msg,
		Type:         in.Type,
		IsFollowBack: in.IsFollowBack,
		CreatedAt:    time.Now().UTC(),
	}
	err := s.txm.RunInTransaction(ctx, func(ctx context.Context) error {
		item, err := s.Get(ctx, actor, itemID)
		if err != nil {
			return err
		}
		if err := s.repo.AddComment(ctx, c); err != nil {
			return fmt.Errorf("add comment: %w", err)
		}
		return s.comments.OnComment(ctx, item, c)
	})
	if err != nil {
		return nil, err
	}
	logger.Debug(ctx, "workflow comment added", "item_id", itemID, "type", c.Type)
	return c, nil
}

// Comments lists the comments of a visible item, oldest first.
func (s *Service) Comments(ctx context.Context, actor security.Actor, itemID id.ID) ([]Comment, error) {
	if _, err := s.Get(ctx, actor, itemID); err != nil {
		return nil, err
	}
	return s.repo.ListComments(ctx, itemID)
}

// History returns the audit entries of a visible item, newest first.
func (s *Service) History(ctx context.Context, actor security.Actor, itemID id.ID) ([]audit.Entry, error) {
	if _, err := s.Get(ctx, actor, itemID); err != nil {
		return nil, err
	}
	return s.trail.HistoryFor(ctx, EntityType, itemID)
}

type transitionStore struct{ repo Repository }

func (t transitionStore) LockForTransition(ctx context.Context, recordID id.ID) (lifecycle.Record, error) {
	item, err := t.repo.GetForUpdate(ctx, recordID)
	if err != nil {
		return nil, err
	}
	return item, nil
}

func (t transitionStore) SaveTransition(ctx context.Context, rec lifecycle.Record) error {
	return t.repo.Update(ctx, rec.(*Item))
}
