package repo

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"wzrd/internal/domain"
	"wzrd/internal/infra"
	"wzrd/internal/sqlinline"
)

// WorkflowActionRepositoryPG implements domain.WorkflowActionRepository.
type WorkflowActionRepositoryPG struct {
	sql infra.SQLExecutor
}

func NewWorkflowActionRepository(sql infra.SQLExecutor) *WorkflowActionRepositoryPG {
	return &WorkflowActionRepositoryPG{sql: sql}
}

// Create inserts a new workflow action, assigning an id when empty.
func (r *WorkflowActionRepositoryPG) Create(ctx context.Context, action *domain.WorkflowAction) error {
	if action.ID == "" {
		action.ID = uuid.NewString()
	}
	if action.Status == "" {
		action.Status = domain.WorkflowActionDraft
	}
	row := r.sql.QueryRow(ctx, sqlinline.QInsertWorkflowAction,
		action.ID,
		action.UserID,
		action.Name,
		action.Language,
		action.Code,
		string(action.Status),
	)
	if err := row.Scan(&action.CreatedAt, &action.UpdatedAt); err != nil {
		return fmt.Errorf("insert workflow action: %w", err)
	}
	return nil
}

// GetByID fetches a workflow action by its identifier.
func (r *WorkflowActionRepositoryPG) GetByID(ctx context.Context, id string) (*domain.WorkflowAction, error) {
	row := r.sql.QueryRow(ctx, sqlinline.QSelectWorkflowAction, id)
	action, err := scanWorkflowAction(row)
	if err != nil {
		if infra.IsNoRows(err) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return action, nil
}

func (r *WorkflowActionRepositoryPG) ListByUser(ctx context.Context, userID string, limit int) ([]domain.WorkflowAction, error) {
	rows, err := r.sql.Query(ctx, sqlinline.QListWorkflowActions, userID, clampLimit(limit))
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []domain.WorkflowAction
	for rows.Next() {
		action, err := scanWorkflowAction(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *action)
	}
	return out, rows.Err()
}

// UpdateRecord stores the outcome of the latest execution.
func (r *WorkflowActionRepositoryPG) UpdateRecord(ctx context.Context, id string, fields domain.RecordFields) error {
	tag, err := r.sql.Exec(ctx, sqlinline.QUpdateWorkflowActionResult, id, fields.Status, fields.ResultURL, fields.ErrorMessage)
	if err != nil {
		return fmt.Errorf("update workflow action %s: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanWorkflowAction(row scanner) (*domain.WorkflowAction, error) {
	var action domain.WorkflowAction
	var status string
	if err := row.Scan(
		&action.ID,
		&action.UserID,
		&action.Name,
		&action.Language,
		&action.Code,
		&status,
		&action.OutputURL,
		&action.LastError,
		&action.CreatedAt,
		&action.UpdatedAt,
	); err != nil {
		return nil, err
	}
	action.Status = domain.WorkflowActionStatus(status)
	return &action, nil
}

func clampLimit(limit int) int {
	if limit <= 0 {
		return 50
	}
	if limit > 200 {
		return 200
	}
	return limit
}

var _ domain.WorkflowActionRepository = (*WorkflowActionRepositoryPG)(nil)
