package repository

import (
	"context"
	"database/sql"

	"stitchery/internal/models"
)

type CommentRepository struct {
	db *sql.DB
}

func NewCommentRepository(db *sql.DB) *CommentRepository {
	return &CommentRepository{db: db}
}

// ListByScheme returns a scheme's comments oldest-first with each
// author's identity joined in.
func (r *CommentRepository) ListByScheme(ctx context.Context, schemeID int64) ([]models.Comment, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT c.id, c.scheme_id, c.author_id, c.text, c.created_at, c.updated_at,
		       u.username, p.avatar
		FROM comments c
		JOIN users u ON u.id = c.author_id
		JOIN profiles p ON p.user_id = u.id
		WHERE c.scheme_id = $1
		ORDER BY c.created_at ASC, c.id ASC`, schemeID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var comments []models.Comment
	for rows.Next() {
		var c models.Comment
		var username, avatar string
		if err := rows.Scan(&c.ID, &c.SchemeID, &c.AuthorID, &c.Text, &c.CreatedAt, &c.UpdatedAt, &username, &avatar); err != nil {
			return nil, err
		}
		c.Author = &models.User{
			ID:       c.AuthorID,
			Username: username,
			Profile:  &models.Profile{UserID: c.AuthorID, Avatar: avatar},
		}
		comments = append(comments, c)
	}
	return comments, rows.Err()
}

// GetByID loads a single comment with the author joined in, shaped
// exactly like the ListByScheme rows.
func (r *CommentRepository) GetByID(ctx context.Context, id int64) (*models.Comment, error) {
	var c models.Comment
	var username, avatar string
	err := r.db.QueryRowContext(ctx, `
		SELECT c.id, c.scheme_id, c.author_id, c.text, c.created_at, c.updated_at,
		       u.username, p.avatar
		FROM comments c
		JOIN users u ON u.id = c.author_id
		JOIN profiles p ON p.user_id = u.id
		WHERE c.id = $1`, id,
	).Scan(&c.ID, &c.SchemeID, &c.AuthorID, &c.Text, &c.CreatedAt, &c.UpdatedAt, &username, &avatar)
	if err != nil {
		return nil, err
	}
	c.Author = &models.User{
		ID:       c.AuthorID,
		Username: username,
		Profile:  &models.Profile{UserID: c.AuthorID, Avatar: avatar},
	}
	return &c, nil
}

func (r *CommentRepository) Create(ctx context.Context, c *models.Comment) error {
	return r.db.QueryRowContext(ctx, `
		INSERT INTO comments (scheme_id, author_id, text)
		VALUES ($1, $2, $3)
		RETURNING id, created_at, updated_at`,
		c.SchemeID, c.AuthorID, c.Text,
	).Scan(&c.ID, &c.CreatedAt, &c.UpdatedAt)
}
