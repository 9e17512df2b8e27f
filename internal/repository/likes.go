package repository

import (
	"context"
	"database/sql"
)

type LikeRepository struct {
	db *sql.DB
}

func NewLikeRepository(db *sql.DB) *LikeRepository {
	return &LikeRepository{db: db}
}

// Toggle creates the like if absent (result: liked) or deletes it if
// present (result: unliked). The UNIQUE (user_id, scheme_id)
// constraint is the correctness backstop: under two simultaneous
// toggles from one user, exactly one insert wins, the other sees the
// conflict and deletes.
func (r *LikeRepository) Toggle(ctx context.Context, userID, schemeID int64) (liked bool, err error) {
	res, err := r.db.ExecContext(ctx, `
		INSERT INTO likes (user_id, scheme_id) VALUES ($1, $2)
		ON CONFLICT (user_id, scheme_id) DO NOTHING`,
		userID, schemeID,
	)
	if err != nil {
		return false, err
	}
	if n, _ := res.RowsAffected(); n > 0 {
		return true, nil
	}

	_, err = r.db.ExecContext(ctx, `
		DELETE FROM likes WHERE user_id = $1 AND scheme_id = $2`,
		userID, schemeID,
	)
	return false, err
}

func (r *LikeRepository) IsLiked(ctx context.Context, userID, schemeID int64) (bool, error) {
	var exists bool
	err := r.db.QueryRowContext(ctx, `
		SELECT EXISTS(SELECT 1 FROM likes WHERE user_id = $1 AND scheme_id = $2)`,
		userID, schemeID,
	).Scan(&exists)
	return exists, err
}
