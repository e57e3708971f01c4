package repo

import (
	"context"
	"fmt"

	"wzrd/internal/domain"
	"wzrd/internal/infra"
	"wzrd/internal/sqlinline"
)

// PreferencesRepositoryPG implements domain.PreferencesRepository.
type PreferencesRepositoryPG struct {
	sql infra.SQLExecutor
}

func NewPreferencesRepository(sql infra.SQLExecutor) *PreferencesRepositoryPG {
	return &PreferencesRepositoryPG{sql: sql}
}

func (r *PreferencesRepositoryPG) Get(ctx context.Context, userID string) (*domain.UserPreferences, error) {
	row := r.sql.QueryRow(ctx, sqlinline.QSelectUserPreferences, userID)
	var prefs domain.UserPreferences
	if err := row.Scan(&prefs.UserID, &prefs.Theme, &prefs.Language, &prefs.NotificationsEnabled, &prefs.UpdatedAt); err != nil {
		if infra.IsNoRows(err) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return &prefs, nil
}

func (r *PreferencesRepositoryPG) Upsert(ctx context.Context, prefs *domain.UserPreferences) error {
	row := r.sql.QueryRow(ctx, sqlinline.QUpsertUserPreferences, prefs.UserID, prefs.Theme, prefs.Language, prefs.NotificationsEnabled)
	if err := row.Scan(&prefs.UpdatedAt); err != nil {
		return fmt.Errorf("upsert preferences: %w", err)
	}
	return nil
}

var _ domain.PreferencesRepository = (*PreferencesRepositoryPG)(nil)
