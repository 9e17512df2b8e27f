package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"stitchery/internal/models"
)

type SchemeRepository struct {
	db *sql.DB
}

func NewSchemeRepository(db *sql.DB) *SchemeRepository {
	return &SchemeRepository{db: db}
}

// Create inserts the scheme, its tag set, the initial file and any
// gallery images in a single transaction. Tag names are resolved
// through the conflict-tolerant get-or-create, so duplicate names that
// normalize to one slug collapse to a single association.
func (r *SchemeRepository) Create(ctx context.Context, s *models.Scheme, tagNames []string, file *models.SchemeFile, images []models.SchemeImage) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	err = tx.QueryRowContext(ctx, `
		INSERT INTO schemes (
			title, author_id, description, main_image, category_id, license_id,
			difficulty, size_stitches_width, size_stitches_height, number_of_colors,
			recommended_canvas, recommended_threads, visibility
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		RETURNING id, views_count, created_at, updated_at`,
		s.Title, s.AuthorID, s.Description, s.MainImage, s.CategoryID, s.LicenseID,
		s.Difficulty, s.SizeStitchesWidth, s.SizeStitchesHeight, s.NumberOfColors,
		s.RecommendedCanvas, s.RecommendedThreads, s.Visibility,
	).Scan(&s.ID, &s.ViewsCount, &s.CreatedAt, &s.UpdatedAt)
	if err != nil {
		return err
	}

	s.Tags, err = associateTagsTx(ctx, tx, s.ID, tagNames)
	if err != nil {
		return err
	}

	file.SchemeID = s.ID
	if err := addFileTx(ctx, tx, file); err != nil {
		return err
	}
	s.Files = []models.SchemeFile{*file}

	for i := range images {
		images[i].SchemeID = s.ID
		if err := addImageTx(ctx, tx, &images[i]); err != nil {
			return err
		}
	}
	s.Images = images

	return tx.Commit()
}

func associateTagsTx(ctx context.Context, tx *sql.Tx, schemeID int64, names []string) ([]models.Tag, error) {
	var tags []models.Tag
	for _, name := range names {
		t, err := GetOrCreateTagTx(ctx, tx, name)
		if err != nil {
			return nil, fmt.Errorf("get or create tag %q: %w", name, err)
		}
		_, err = tx.ExecContext(ctx, `
			INSERT INTO scheme_tags (scheme_id, tag_id) VALUES ($1, $2)
			ON CONFLICT DO NOTHING`,
			schemeID, t.ID,
		)
		if err != nil {
			return nil, err
		}
		tags = append(tags, *t)
	}
	return tags, nil
}

func (r *SchemeRepository) GetByID(ctx context.Context, id int64) (*models.Scheme, error) {
	s := &models.Scheme{}
	author := &models.User{Profile: &models.Profile{}}
	license := &models.License{}
	var catID sql.NullInt64
	var catName, catSlug, catDescription sql.NullString

	err := r.db.QueryRowContext(ctx, `
		SELECT s.id, s.title, s.author_id, s.description, s.main_image,
		       s.category_id, s.license_id, s.difficulty, s.visibility,
		       s.size_stitches_width, s.size_stitches_height, s.number_of_colors,
		       s.recommended_canvas, s.recommended_threads,
		       s.views_count, s.created_at, s.updated_at,
		       u.id, u.email, u.username, u.date_joined,
		       p.avatar, p.bio, p.location, p.social_telegram, p.social_vk,
		       l.id, l.name, l.short_name, l.url, l.description,
		       c.id, c.name, c.slug, c.description
		FROM schemes s
		JOIN users u ON u.id = s.author_id
		JOIN profiles p ON p.user_id = u.id
		JOIN licenses l ON l.id = s.license_id
		LEFT JOIN categories c ON c.id = s.category_id
		WHERE s.id = $1`, id,
	).Scan(
		&s.ID, &s.Title, &s.AuthorID, &s.Description, &s.MainImage,
		&s.CategoryID, &s.LicenseID, &s.Difficulty, &s.Visibility,
		&s.SizeStitchesWidth, &s.SizeStitchesHeight, &s.NumberOfColors,
		&s.RecommendedCanvas, &s.RecommendedThreads,
		&s.ViewsCount, &s.CreatedAt, &s.UpdatedAt,
		&author.ID, &author.Email, &author.Username, &author.DateJoined,
		&author.Profile.Avatar, &author.Profile.Bio, &author.Profile.Location,
		&author.Profile.SocialTelegram, &author.Profile.SocialVK,
		&license.ID, &license.Name, &license.ShortName, &license.URL, &license.Description,
		&catID, &catName, &catSlug, &catDescription,
	)
	if err != nil {
		return nil, err
	}

	author.Profile.UserID = author.ID
	s.Author = author
	s.License = license
	if catID.Valid {
		s.Category = &models.Category{
			ID:          catID.Int64,
			Name:        catName.String,
			Slug:        catSlug.String,
			Description: catDescription.String,
		}
	}

	if s.Tags, err = r.schemeTags(ctx, id); err != nil {
		return nil, err
	}
	if s.Files, err = r.GetFilesByScheme(ctx, id); err != nil {
		return nil, err
	}
	if s.Images, err = r.GetImagesByScheme(ctx, id); err != nil {
		return nil, err
	}
	return s, nil
}

func (r *SchemeRepository) schemeTags(ctx context.Context, schemeID int64) ([]models.Tag, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT t.id, t.name, t.slug FROM tags t
		JOIN scheme_tags st ON st.tag_id = t.id
		WHERE st.scheme_id = $1
		ORDER BY t.name`, schemeID)
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

// GetOwnerVisibility loads just enough of a scheme to decide whether
// a viewer may see it, without paying for the full detail load.
func (r *SchemeRepository) GetOwnerVisibility(ctx context.Context, id int64) (int64, models.Visibility, error) {
	var authorID int64
	var visibility models.Visibility
	err := r.db.QueryRowContext(ctx, `
		SELECT author_id, visibility FROM schemes WHERE id = $1`, id,
	).Scan(&authorID, &visibility)
	return authorID, visibility, err
}

// IncrementViews bumps views_count by one in-store. Concurrent readers
// never lose an increment because the arithmetic runs inside the
// database, not as read-modify-write in the caller.
func (r *SchemeRepository) IncrementViews(ctx context.Context, id int64) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE schemes SET views_count = views_count + 1 WHERE id = $1`, id)
	return err
}

// List returns one page of schemes matching params together with the
// social counts and viewer flags each row's serialization needs, plus
// the total match count for pagination.
func (r *SchemeRepository) List(ctx context.Context, params models.SchemeListParams) ([]models.SchemeListRow, int, error) {
	if params.Page < 1 {
		params.Page = 1
	}
	if params.PageSize < 1 || params.PageSize > 100 {
		params.PageSize = 20
	}

	where, args := buildSchemeFilter(params)

	var total int
	countQuery := `SELECT COUNT(*) FROM schemes s ` + where
	if err := r.db.QueryRowContext(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	viewer := fmt.Sprintf("$%d", len(args)+1)
	limit := fmt.Sprintf("$%d", len(args)+2)
	offset := fmt.Sprintf("$%d", len(args)+3)
	args = append(args, params.ViewerID, params.PageSize, (params.Page-1)*params.PageSize)

	query := `
		SELECT s.id, s.title, s.author_id, s.main_image, s.category_id,
		       s.difficulty, s.visibility, s.views_count, s.created_at,
		       u.username, c.name,
		       (SELECT COUNT(*) FROM likes lk WHERE lk.scheme_id = s.id),
		       EXISTS(SELECT 1 FROM likes lk WHERE lk.scheme_id = s.id AND lk.user_id = ` + viewer + `),
		       (SELECT COUNT(*) FROM scheme_favorites sf WHERE sf.scheme_id = s.id),
		       EXISTS(SELECT 1 FROM scheme_favorites sf WHERE sf.scheme_id = s.id AND sf.user_id = ` + viewer + `)
		FROM schemes s
		JOIN users u ON u.id = s.author_id
		LEFT JOIN categories c ON c.id = s.category_id
		` + where + `
		ORDER BY s.created_at DESC, s.id DESC
		LIMIT ` + limit + ` OFFSET ` + offset

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var result []models.SchemeListRow
	for rows.Next() {
		var row models.SchemeListRow
		var username string
		var catName sql.NullString
		if err := rows.Scan(
			&row.ID, &row.Title, &row.AuthorID, &row.MainImage, &row.CategoryID,
			&row.Difficulty, &row.Visibility, &row.ViewsCount, &row.CreatedAt,
			&username, &catName,
			&row.LikesCount, &row.IsLiked,
			&row.FavoritesCount, &row.IsFavorited,
		); err != nil {
			return nil, 0, err
		}
		row.Author = &models.User{ID: row.AuthorID, Username: username}
		if row.CategoryID != nil {
			row.Category = &models.Category{ID: *row.CategoryID, Name: catName.String}
		}
		if row.Tags, err = r.schemeTags(ctx, row.ID); err != nil {
			return nil, 0, err
		}
		result = append(result, row)
	}
	return result, total, rows.Err()
}

// buildSchemeFilter translates list params into a WHERE clause over
// schemes s. Every condition references only the schemes table or an
// IN-subquery, so multi-valued filters never duplicate result rows.
func buildSchemeFilter(params models.SchemeListParams) (string, []interface{}) {
	var conditions []string
	var args []interface{}

	next := func(v interface{}) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	if params.AuthorID != nil {
		conditions = append(conditions, "s.author_id = "+next(*params.AuthorID))
	}
	if params.FavoritedBy != nil {
		conditions = append(conditions,
			"s.id IN (SELECT scheme_id FROM scheme_favorites WHERE user_id = "+next(*params.FavoritedBy)+")")
	}
	// PublicOnly combines with the other scopes: another user's profile
	// page lists their public schemes only.
	if params.PublicOnly {
		conditions = append(conditions, "s.visibility = "+next(models.VisibilityPublic))
	}

	if params.Search != "" {
		conditions = append(conditions, "s.title ILIKE '%' || "+next(params.Search)+" || '%'")
	}
	if params.CategoryID != nil {
		conditions = append(conditions, "s.category_id = "+next(*params.CategoryID))
	}
	if params.LicenseID != nil {
		conditions = append(conditions, "s.license_id = "+next(*params.LicenseID))
	}
	if params.Difficulty.Valid() {
		conditions = append(conditions, "s.difficulty = "+next(params.Difficulty))
	}
	// Tag filters match on overlap: a scheme qualifies when its tag set
	// shares at least one entry with the requested ids or names.
	if len(params.TagIDs) > 0 {
		placeholders := make([]string, len(params.TagIDs))
		for i, id := range params.TagIDs {
			placeholders[i] = next(id)
		}
		conditions = append(conditions, fmt.Sprintf(
			"s.id IN (SELECT scheme_id FROM scheme_tags WHERE tag_id IN (%s))",
			strings.Join(placeholders, ", ")))
	}
	if len(params.TagNames) > 0 {
		placeholders := make([]string, len(params.TagNames))
		for i, name := range params.TagNames {
			placeholders[i] = next(name)
		}
		conditions = append(conditions, fmt.Sprintf(
			"s.id IN (SELECT st.scheme_id FROM scheme_tags st JOIN tags t ON t.id = st.tag_id WHERE t.name IN (%s))",
			strings.Join(placeholders, ", ")))
	}

	if len(conditions) == 0 {
		return "", args
	}
	return "WHERE " + strings.Join(conditions, " AND "), args
}

// Update persists the author-mutable columns. Counters and ownership
// are deliberately not touched here.
func (r *SchemeRepository) Update(ctx context.Context, s *models.Scheme) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE schemes SET
			title = $1, description = $2, main_image = $3, category_id = $4,
			license_id = $5, difficulty = $6, visibility = $7,
			size_stitches_width = $8, size_stitches_height = $9, number_of_colors = $10,
			recommended_canvas = $11, recommended_threads = $12,
			updated_at = NOW()
		WHERE id = $13`,
		s.Title, s.Description, s.MainImage, s.CategoryID,
		s.LicenseID, s.Difficulty, s.Visibility,
		s.SizeStitchesWidth, s.SizeStitchesHeight, s.NumberOfColors,
		s.RecommendedCanvas, s.RecommendedThreads,
		s.ID,
	)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// ReplaceTags swaps the scheme's whole tag set for the given names.
// An empty name list clears all tags.
func (r *SchemeRepository) ReplaceTags(ctx context.Context, schemeID int64, names []string) ([]models.Tag, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM scheme_tags WHERE scheme_id = $1`, schemeID); err != nil {
		return nil, err
	}

	tags, err := associateTagsTx(ctx, tx, schemeID, names)
	if err != nil {
		return nil, err
	}
	return tags, tx.Commit()
}

func (r *SchemeRepository) Delete(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM schemes WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return sql.ErrNoRows
	}
	return nil
}

func addFileTx(ctx context.Context, tx *sql.Tx, f *models.SchemeFile) error {
	return tx.QueryRowContext(ctx, `
		INSERT INTO scheme_files (scheme_id, file_path, description, file_type)
		VALUES ($1, $2, $3, $4)
		RETURNING id, downloads_count, uploaded_at`,
		f.SchemeID, f.FilePath, f.Description, f.FileType,
	).Scan(&f.ID, &f.DownloadsCount, &f.UploadedAt)
}

func addImageTx(ctx context.Context, tx *sql.Tx, img *models.SchemeImage) error {
	return tx.QueryRowContext(ctx, `
		INSERT INTO scheme_images (scheme_id, image_path, caption)
		VALUES ($1, $2, $3)
		RETURNING id, uploaded_at`,
		img.SchemeID, img.ImagePath, img.Caption,
	).Scan(&img.ID, &img.UploadedAt)
}

// AddFile appends a file to an existing scheme; files are never
// replaced through the API, only added.
func (r *SchemeRepository) AddFile(ctx context.Context, f *models.SchemeFile) error {
	return r.db.QueryRowContext(ctx, `
		INSERT INTO scheme_files (scheme_id, file_path, description, file_type)
		VALUES ($1, $2, $3, $4)
		RETURNING id, downloads_count, uploaded_at`,
		f.SchemeID, f.FilePath, f.Description, f.FileType,
	).Scan(&f.ID, &f.DownloadsCount, &f.UploadedAt)
}

func (r *SchemeRepository) AddImage(ctx context.Context, img *models.SchemeImage) error {
	return r.db.QueryRowContext(ctx, `
		INSERT INTO scheme_images (scheme_id, image_path, caption)
		VALUES ($1, $2, $3)
		RETURNING id, uploaded_at`,
		img.SchemeID, img.ImagePath, img.Caption,
	).Scan(&img.ID, &img.UploadedAt)
}

func (r *SchemeRepository) GetFilesByScheme(ctx context.Context, schemeID int64) ([]models.SchemeFile, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, scheme_id, file_path, description, file_type, downloads_count, uploaded_at
		FROM scheme_files WHERE scheme_id = $1
		ORDER BY uploaded_at DESC, id DESC`, schemeID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var files []models.SchemeFile
	for rows.Next() {
		var f models.SchemeFile
		if err := rows.Scan(&f.ID, &f.SchemeID, &f.FilePath, &f.Description, &f.FileType, &f.DownloadsCount, &f.UploadedAt); err != nil {
			return nil, err
		}
		files = append(files, f)
	}
	return files, rows.Err()
}

func (r *SchemeRepository) GetImagesByScheme(ctx context.Context, schemeID int64) ([]models.SchemeImage, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, scheme_id, image_path, caption, uploaded_at
		FROM scheme_images WHERE scheme_id = $1
		ORDER BY uploaded_at DESC, id DESC`, schemeID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var images []models.SchemeImage
	for rows.Next() {
		var img models.SchemeImage
		if err := rows.Scan(&img.ID, &img.SchemeID, &img.ImagePath, &img.Caption, &img.UploadedAt); err != nil {
			return nil, err
		}
		images = append(images, img)
	}
	return images, rows.Err()
}

// GetFile looks a file up by id scoped to its scheme, so a file id
// belonging to another scheme comes back as no rows.
func (r *SchemeRepository) GetFile(ctx context.Context, schemeID, fileID int64) (*models.SchemeFile, error) {
	f := &models.SchemeFile{}
	err := r.db.QueryRowContext(ctx, `
		SELECT id, scheme_id, file_path, description, file_type, downloads_count, uploaded_at
		FROM scheme_files WHERE id = $1 AND scheme_id = $2`,
		fileID, schemeID,
	).Scan(&f.ID, &f.SchemeID, &f.FilePath, &f.Description, &f.FileType, &f.DownloadsCount, &f.UploadedAt)
	if err != nil {
		return nil, err
	}
	return f, nil
}

// IncrementDownloads is the file counterpart of IncrementViews: an
// atomic relative update executed by the store.
func (r *SchemeRepository) IncrementDownloads(ctx context.Context, fileID int64) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE scheme_files SET downloads_count = downloads_count + 1 WHERE id = $1`, fileID)
	return err
}

// TotalDownloads sums downloads over the scheme's files on demand; the
// aggregate is never stored.
func (r *SchemeRepository) TotalDownloads(ctx context.Context, schemeID int64) (int64, error) {
	var total int64
	err := r.db.QueryRowContext(ctx, `
		SELECT COALESCE(SUM(downloads_count), 0) FROM scheme_files WHERE scheme_id = $1`,
		schemeID,
	).Scan(&total)
	return total, err
}

// Interactions loads the social counts and per-viewer flags for one
// scheme. viewerID zero (anonymous) yields false flags.
func (r *SchemeRepository) Interactions(ctx context.Context, schemeID, viewerID int64) (models.InteractionState, error) {
	var st models.InteractionState
	err := r.db.QueryRowContext(ctx, `
		SELECT
			(SELECT COUNT(*) FROM likes WHERE scheme_id = $1),
			EXISTS(SELECT 1 FROM likes WHERE scheme_id = $1 AND user_id = $2),
			(SELECT COUNT(*) FROM scheme_favorites WHERE scheme_id = $1),
			EXISTS(SELECT 1 FROM scheme_favorites WHERE scheme_id = $1 AND user_id = $2)`,
		schemeID, viewerID,
	).Scan(&st.LikesCount, &st.IsLiked, &st.FavoritesCount, &st.IsFavorited)
	return st, err
}
