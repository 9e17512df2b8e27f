package repository

import (
	"context"
	"database/sql"

	"stitchery/internal/models"
)

type LicenseRepository struct {
	db *sql.DB
}

func NewLicenseRepository(db *sql.DB) *LicenseRepository {
	return &LicenseRepository{db: db}
}

func (r *LicenseRepository) GetAll(ctx context.Context) ([]models.License, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, name, short_name, url, description
		FROM licenses ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var licenses []models.License
	for rows.Next() {
		var l models.License
		if err := rows.Scan(&l.ID, &l.Name, &l.ShortName, &l.URL, &l.Description); err != nil {
			return nil, err
		}
		licenses = append(licenses, l)
	}
	return licenses, rows.Err()
}

func (r *LicenseRepository) GetByID(ctx context.Context, id int64) (*models.License, error) {
	l := &models.License{}
	err := r.db.QueryRowContext(ctx, `
		SELECT id, name, short_name, url, description
		FROM licenses WHERE id = $1`, id,
	).Scan(&l.ID, &l.Name, &l.ShortName, &l.URL, &l.Description)
	if err != nil {
		return nil, err
	}
	return l, nil
}

func (r *LicenseRepository) GetByShortName(ctx context.Context, shortName string) (*models.License, error) {
	l := &models.License{}
	err := r.db.QueryRowContext(ctx, `
		SELECT id, name, short_name, url, description
		FROM licenses WHERE short_name = $1`, shortName,
	).Scan(&l.ID, &l.Name, &l.ShortName, &l.URL, &l.Description)
	if err != nil {
		return nil, err
	}
	return l, nil
}

func (r *LicenseRepository) Create(ctx context.Context, l *models.License) error {
	return r.db.QueryRowContext(ctx, `
		INSERT INTO licenses (name, short_name, url, description)
		VALUES ($1, $2, $3, $4)
		RETURNING id`,
		l.Name, l.ShortName, l.URL, l.Description,
	).Scan(&l.ID)
}

func (r *LicenseRepository) Update(ctx context.Context, l *models.License) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE licenses SET name = $1, short_name = $2, url = $3, description = $4
		WHERE id = $5`,
		l.Name, l.ShortName, l.URL, l.Description, l.ID,
	)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// Delete fails with a foreign key violation while any scheme still
// references the license; the schemes FK is ON DELETE RESTRICT.
func (r *LicenseRepository) Delete(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM licenses WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return sql.ErrNoRows
	}
	return nil
}
