package repo

import (
	"context"
	"fmt"

	"wzrd/internal/domain"
	"wzrd/internal/infra"
	"wzrd/internal/sqlinline"
)

// MessageRepositoryPG attaches generated videos to chat messages.
type MessageRepositoryPG struct {
	sql infra.SQLExecutor
}

// NewMessageRepository creates a chat message repository backed by PostgreSQL.
func NewMessageRepository(sql infra.SQLExecutor) *MessageRepositoryPG {
	return &MessageRepositoryPG{sql: sql}
}

// UpdateRecord applies the non-nil fields to the message. Repeating the same
// update leaves the row unchanged apart from updated_at.
func (r *MessageRepositoryPG) UpdateRecord(ctx context.Context, id string, fields domain.RecordFields) error {
	tag, err := r.sql.Exec(ctx, sqlinline.QUpdateChatMessageVideo, id, fields.Status, fields.ResultURL, fields.ErrorMessage)
	if err != nil {
		return fmt.Errorf("update chat message %s: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

var _ domain.RecordUpdater = (*MessageRepositoryPG)(nil)
