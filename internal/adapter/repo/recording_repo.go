package repo

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"wzrd/internal/domain"
	"wzrd/internal/infra"
	"wzrd/internal/sqlinline"
)

// ScreenRecordingRepositoryPG implements domain.ScreenRecordingRepository.
type ScreenRecordingRepositoryPG struct {
	sql infra.SQLExecutor
}

func NewScreenRecordingRepository(sql infra.SQLExecutor) *ScreenRecordingRepositoryPG {
	return &ScreenRecordingRepositoryPG{sql: sql}
}

func (r *ScreenRecordingRepositoryPG) Create(ctx context.Context, rec *domain.ScreenRecording) error {
	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}
	row := r.sql.QueryRow(ctx, sqlinline.QInsertScreenRecording,
		rec.ID,
		rec.UserID,
		rec.Title,
		rec.StorageKey,
		rec.MIME,
		rec.Bytes,
		rec.DurationSec,
	)
	if err := row.Scan(&rec.CreatedAt); err != nil {
		return fmt.Errorf("insert screen recording: %w", err)
	}
	return nil
}

func (r *ScreenRecordingRepositoryPG) ListByUser(ctx context.Context, userID string, limit int) ([]domain.ScreenRecording, error) {
	rows, err := r.sql.Query(ctx, sqlinline.QListScreenRecordings, userID, clampLimit(limit))
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []domain.ScreenRecording
	for rows.Next() {
		var rec domain.ScreenRecording
		if err := rows.Scan(&rec.ID, &rec.UserID, &rec.Title, &rec.StorageKey, &rec.MIME, &rec.Bytes, &rec.DurationSec, &rec.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

var _ domain.ScreenRecordingRepository = (*ScreenRecordingRepositoryPG)(nil)
