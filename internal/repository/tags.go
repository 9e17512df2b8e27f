package repository

import (
	"context"
	"database/sql"

	"stitchery/internal/models"
)

type TagRepository struct {
	db *sql.DB
}

func NewTagRepository(db *sql.DB) *TagRepository {
	return &TagRepository{db: db}
}

func (r *TagRepository) GetAll(ctx context.Context) ([]models.Tag, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT id, name, slug FROM tags ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var tags []models.Tag
	for rows.Next() {
		var t models.Tag
		if err := rows.Scan(&t.ID, &t.Name, &t.Slug); err != nil {
			return nil, err
		}
		tags = append(tags, t)
	}
	return tags, rows.Err()
}

func (r *TagRepository) GetByID(ctx context.Context, id int64) (*models.Tag, error) {
	t := &models.Tag{}
	err := r.db.QueryRowContext(ctx, `SELECT id, name, slug FROM tags WHERE id = $1`, id).
		Scan(&t.ID, &t.Name, &t.Slug)
	if err != nil {
		return nil, err
	}
	return t, nil
}

func (r *TagRepository) Create(ctx context.Context, t *models.Tag) error {
	return r.db.QueryRowContext(ctx, `
		INSERT INTO tags (name, slug) VALUES ($1, $2) RETURNING id`,
		t.Name, t.Slug,
	).Scan(&t.ID)
}

func (r *TagRepository) Update(ctx context.Context, t *models.Tag) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE tags SET name = $1, slug = $2 WHERE id = $3`,
		t.Name, t.Slug, t.ID,
	)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return sql.ErrNoRows
	}
	return nil
}

func (r *TagRepository) Delete(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM tags WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// GetOrCreateTx resolves a tag by the slug of name, inserting it if
// absent. The conflict-tolerant insert plus the unique slug constraint
// make this safe under concurrent identical submissions: whoever loses
// the insert race falls through to the select and finds the winner's
// row. First-seen casing of the name is kept.
func GetOrCreateTagTx(ctx context.Context, tx *sql.Tx, name string) (*models.Tag, error) {
	slug := models.Slugify(name)
	t := &models.Tag{Name: name, Slug: slug}

	err := tx.QueryRowContext(ctx, `
		INSERT INTO tags (name, slug) VALUES ($1, $2)
		ON CONFLICT (slug) DO NOTHING
		RETURNING id`,
		name, slug,
	).Scan(&t.ID)
	if err == nil {
		return t, nil
	}
	if err != sql.ErrNoRows {
		return nil, err
	}

	// Conflict: the slug already exists, fetch the existing row.
	err = tx.QueryRowContext(ctx, `SELECT id, name, slug FROM tags WHERE slug = $1`, slug).
		Scan(&t.ID, &t.Name, &t.Slug)
	if err != nil {
		return nil, err
	}
	return t, nil
}
