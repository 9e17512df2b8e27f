package repository

import (
	"context"
	"database/sql"
)

type FavoriteRepository struct {
	db *sql.DB
}

func NewFavoriteRepository(db *sql.DB) *FavoriteRepository {
	return &FavoriteRepository{db: db}
}

// Toggle flips the user's favorite membership on a scheme and reports
// the resulting state. The insert is conflict-tolerant and the pair is
// the table's primary key, so two racing toggles cannot produce a
// duplicate row; at worst both observe "already present" and remove.
func (r *FavoriteRepository) Toggle(ctx context.Context, userID, schemeID int64) (added bool, err error) {
	res, err := r.db.ExecContext(ctx, `
		INSERT INTO scheme_favorites (user_id, scheme_id) VALUES ($1, $2)
		ON CONFLICT DO NOTHING`,
		userID, schemeID,
	)
	if err != nil {
		return false, err
	}
	if n, _ := res.RowsAffected(); n > 0 {
		return true, nil
	}

	_, err = r.db.ExecContext(ctx, `
		DELETE FROM scheme_favorites WHERE user_id = $1 AND scheme_id = $2`,
		userID, schemeID,
	)
	return false, err
}

func (r *FavoriteRepository) IsFavorited(ctx context.Context, userID, schemeID int64) (bool, error) {
	var exists bool
	err := r.db.QueryRowContext(ctx, `
		SELECT EXISTS(SELECT 1 FROM scheme_favorites WHERE user_id = $1 AND scheme_id = $2)`,
		userID, schemeID,
	).Scan(&exists)
	return exists, err
}
