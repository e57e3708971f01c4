package repo

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"wzrd/internal/domain"
	"wzrd/internal/infra"
	"wzrd/internal/sqlinline"
)

// ExecutionLogRepositoryPG implements domain.ExecutionLogRepository.
type ExecutionLogRepositoryPG struct {
	sql infra.SQLExecutor
}

func NewExecutionLogRepository(sql infra.SQLExecutor) *ExecutionLogRepositoryPG {
	return &ExecutionLogRepositoryPG{sql: sql}
}

func (r *ExecutionLogRepositoryPG) Insert(ctx context.Context, log *domain.ExecutionLog) error {
	if log.ID == "" {
		log.ID = uuid.NewString()
	}
	row := r.sql.QueryRow(ctx, sqlinline.QInsertExecutionLog,
		log.ID,
		log.WorkflowActionID,
		log.UserID,
		log.JobID,
		string(log.Status),
		log.OutputURL,
		log.ErrorMessage,
	)
	if err := row.Scan(&log.CreatedAt); err != nil {
		return fmt.Errorf("insert execution log: %w", err)
	}
	return nil
}

func (r *ExecutionLogRepositoryPG) ListByAction(ctx context.Context, workflowActionID string, limit int) ([]domain.ExecutionLog, error) {
	rows, err := r.sql.Query(ctx, sqlinline.QListExecutionLogs, workflowActionID, clampLimit(limit))
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []domain.ExecutionLog
	for rows.Next() {
		var log domain.ExecutionLog
		var status string
		if err := rows.Scan(
			&log.ID,
			&log.WorkflowActionID,
			&log.UserID,
			&log.JobID,
			&status,
			&log.OutputURL,
			&log.ErrorMessage,
			&log.CreatedAt,
		); err != nil {
			return nil, err
		}
		log.Status = domain.JobStatus(status)
		out = append(out, log)
	}
	return out, rows.Err()
}

// DailyCounts returns per-day totals since the given instant. Days without
// executions are absent.
func (r *ExecutionLogRepositoryPG) DailyCounts(ctx context.Context, userID string, since time.Time) ([]domain.UsagePoint, error) {
	rows, err := r.sql.Query(ctx, sqlinline.QExecutionDailyCounts, userID, since)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []domain.UsagePoint
	for rows.Next() {
		var p domain.UsagePoint
		if err := rows.Scan(&p.Day, &p.Total, &p.Succeeded, &p.Failed); err != nil {
			return nil, err
		}
		p.Day = p.Day.UTC()
		out = append(out, p)
	}
	return out, rows.Err()
}

var _ domain.ExecutionLogRepository = (*ExecutionLogRepositoryPG)(nil)
