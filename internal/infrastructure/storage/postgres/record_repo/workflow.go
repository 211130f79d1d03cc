package record_repo

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"

	"github.com/abbakari/works/internal/core/entity"
	"github.com/abbakari/works/internal/core/id"
	"github.com/abbakari/works/internal/core/security"
	"github.com/abbakari/works/internal/core/types"
	"github.com/abbakari/works/internal/domain"
	"github.com/abbakari/works/internal/domain/workflow"
	"github.com/abbakari/works/internal/infrastructure/storage/postgres"
	"github.com/abbakari/works/pkg/numerator"
)

var workflowOrder = headerOrder("number", "title", "total_value", "year", "type")

// WorkflowRepo implements workflow.Repository.
type WorkflowRepo struct {
	txm      *postgres.TxManager
	items    *postgres.Table[workflow.Item]
	comments *postgres.Table[workflow.Comment]
	numbers  *numerator.Service
}

// NewWorkflowRepo creates a workflow repository.
func NewWorkflowRepo(txm *postgres.TxManager) *WorkflowRepo {
	return &WorkflowRepo{
		txm:      txm,
		items:    postgres.NewTable[workflow.Item](txm, "workflow_items", workflow.EntityType),
		comments: postgres.NewTable[workflow.Comment](txm, "workflow_comments", "workflow comment"),
		numbers:  newNumerator(txm),
	}
}

func (r *WorkflowRepo) Create(ctx context.Context, item *workflow.Item) error {
	if item.Customers == nil {
		item.Customers = []string{}
	}
	if item.Number == "" {
		n, err := nextNumber(ctx, r.numbers, workflowPrefix, item.CreatedAt)
		if err != nil {
			return err
		}
		item.Number = n
	}
	return r.items.Insert(ctx, item)
}

func (r *WorkflowRepo) GetByID(ctx context.Context, itemID id.ID) (*workflow.Item, error) {
	return r.items.Get(ctx, r.items.Select().Where(squirrel.Eq{"id": itemID, "is_active": true}), itemID)
}

func (r *WorkflowRepo) GetForUpdate(ctx context.Context, itemID id.ID) (*workflow.Item, error) {
	q := r.items.Select().Where(squirrel.Eq{"id": itemID, "is_active": true}).Suffix("FOR UPDATE")
	return r.items.Get(ctx, q, itemID)
}

func (r *WorkflowRepo) Update(ctx context.Context, item *workflow.Item) error {
	if item.Customers == nil {
		item.Customers = []string{}
	}
	return r.items.Update(ctx, item)
}

func (r *WorkflowRepo) List(ctx context.Context, scope security.Scope, filter domain.ListFilter) (domain.ListResult[workflow.Item], error) {
	q := visible(r.items.Select(), r.items.Columns(), scope, filter, "number", "title", "description")
	return r.items.Page(ctx, q, filter, filter.OrderClause(workflowOrder, "created_at DESC"))
}

// Dashboard counts the active items of scope by state.
func (r *WorkflowRepo) Dashboard(ctx context.Context, scope security.Scope) (*workflow.Dashboard, error) {
	base := visible(r.items.Select(), r.items.Columns(), scope, domain.ListFilter{})
	sql, args, err := postgres.Builder().
		Select("status", "COUNT(*)", "COALESCE(SUM(total_value), 0)").
		FromSelect(base, "sub").
		GroupBy("status").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build dashboard: %w", err)
	}

	rows, err := r.txm.GetQuerier(ctx).Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("query dashboard: %w", err)
	}
	defer rows.Close()

	d := &workflow.Dashboard{ByState: make(map[entity.Status]int64)}
	for rows.Next() {
		var (
			status string
			count  int64
			total  types.Money
		)
		if err := rows.Scan(&status, &count, &total); err != nil {
			return nil, fmt.Errorf("scan dashboard: %w", err)
		}
		d.ByState[entity.Status(status)] = count
		d.Total += count
		d.TotalValue = d.TotalValue.Add(total)
	}
	return d, rows.Err()
}

func (r *WorkflowRepo) AddComment(ctx context.Context, c *workflow.Comment) error {
	return r.comments.Insert(ctx, c)
}

// ListComments returns the thread oldest first.
func (r *WorkflowRepo) ListComments(ctx context.Context, itemID id.ID) ([]workflow.Comment, error) {
	return r.comments.All(ctx, r.comments.Select().
		Where(squirrel.Eq{"workflow_item_id": itemID}).
		OrderBy("created_at ASC", "id ASC"))
}

var _ workflow.Repository = (*WorkflowRepo)(nil)
