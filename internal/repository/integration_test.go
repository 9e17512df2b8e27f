package repository

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"sync"
	"testing"
	"time"

	"stitchery/internal/database"
	"stitchery/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// openTestDB connects to the database named by TEST_DATABASE_URL and
// runs the migrations; tests that need a live database skip when the
// variable is unset.
func openTestDB(t *testing.T) *sql.DB {
	t.Helper()
	dsn := os.Getenv("TEST_DATABASE_URL")
	if dsn == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}
	db, err := database.Open(dsn)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func uniqueName(prefix string) string {
	return fmt.Sprintf("%s-%d", prefix, time.Now().UnixNano())
}

func createTestUser(t *testing.T, db *sql.DB) *models.User {
	t.Helper()
	name := uniqueName("user")
	u, err := NewUserRepository(db).Create(context.Background(), name+"@example.com", name, "secret1")
	require.NoError(t, err)
	return u
}

func createTestScheme(t *testing.T, db *sql.DB, authorID int64, visibility models.Visibility) *models.Scheme {
	t.Helper()
	ctx := context.Background()

	license, err := NewLicenseRepository(db).GetByShortName(ctx, "CC BY")
	require.NoError(t, err)

	s := &models.Scheme{
		Title:      uniqueName("scheme"),
		AuthorID:   authorID,
		MainImage:  "schemes/main_images/t.png",
		LicenseID:  license.ID,
		Difficulty: models.DifficultyMedium,
		Visibility: visibility,
	}
	file := &models.SchemeFile{FilePath: "schemes/files/t.pdf", FileType: models.FileTypePDF}
	err = NewSchemeRepository(db).Create(ctx, s, []string{"integration"}, file, nil)
	require.NoError(t, err)
	return s
}

func TestLicenseSeedPresent(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	licenses, err := NewLicenseRepository(db).GetAll(ctx)
	require.NoError(t, err)
	require.GreaterOrEqual(t, len(licenses), 7)

	byShort := map[string]bool{}
	for _, l := range licenses {
		byShort[l.ShortName] = true
	}
	for _, short := range []string{"CC BY", "CC BY-SA", "CC BY-NC", "CC0"} {
		assert.True(t, byShort[short], short)
	}
}

func TestGetOrCreateTagConcurrentSafe(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()
	name := uniqueName("tag")

	tx, err := db.BeginTx(ctx, nil)
	require.NoError(t, err)
	first, err := GetOrCreateTagTx(ctx, tx, name)
	require.NoError(t, err)
	require.NoError(t, tx.Commit())

	// Second call with different casing lands on the same row.
	tx, err = db.BeginTx(ctx, nil)
	require.NoError(t, err)
	second, err := GetOrCreateTagTx(ctx, tx, " "+name+" ")
	require.NoError(t, err)
	require.NoError(t, tx.Commit())

	assert.Equal(t, first.ID, second.ID)
}

func TestSchemeCreateAndGet(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()
	u := createTestUser(t, db)
	created := createTestScheme(t, db, u.ID, models.VisibilityPublic)

	repo := NewSchemeRepository(db)
	s, err := repo.GetByID(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, created.Title, s.Title)
	require.NotNil(t, s.Author)
	assert.Equal(t, u.Username, s.Author.Username)
	require.NotNil(t, s.License)
	assert.Equal(t, "CC BY", s.License.ShortName)
	require.Len(t, s.Tags, 1)
	assert.Equal(t, "integration", s.Tags[0].Name)
	require.Len(t, s.Files, 1)
	assert.Equal(t, models.FileTypePDF, s.Files[0].FileType)
}

// Filtering by several tag names returns every scheme whose tag set
// overlaps the request; carrying just one of the names is enough.
func TestListTagNameOverlap(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()
	u := createTestUser(t, db)
	s := createTestScheme(t, db, u.ID, models.VisibilityPublic)

	repo := NewSchemeRepository(db)
	only := uniqueName("only")
	other := uniqueName("other")
	_, err := repo.ReplaceTags(ctx, s.ID, []string{only})
	require.NoError(t, err)

	rows, _, err := repo.List(ctx, models.SchemeListParams{
		AuthorID: &u.ID,
		TagNames: []string{only, other},
	})
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, s.ID, rows[0].ID)
}

func TestIncrementViewsIsCumulative(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()
	u := createTestUser(t, db)
	s := createTestScheme(t, db, u.ID, models.VisibilityPublic)

	repo := NewSchemeRepository(db)
	require.NoError(t, repo.IncrementViews(ctx, s.ID))
	require.NoError(t, repo.IncrementViews(ctx, s.ID))

	got, err := repo.GetByID(ctx, s.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(2), got.ViewsCount)
}

// N concurrent increments must land as exactly +N; the arithmetic runs
// in the database, so no increment is lost to a stale read.
func TestIncrementViewsConcurrent(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()
	u := createTestUser(t, db)
	s := createTestScheme(t, db, u.ID, models.VisibilityPublic)

	repo := NewSchemeRepository(db)
	const n = 20
	errs := make(chan error, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			errs <- repo.IncrementViews(ctx, s.ID)
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		require.NoError(t, err)
	}

	got, err := repo.GetByID(ctx, s.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(n), got.ViewsCount)
}

func TestListScopes(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()
	u := createTestUser(t, db)
	pub := createTestScheme(t, db, u.ID, models.VisibilityPublic)
	priv := createTestScheme(t, db, u.ID, models.VisibilityPrivate)

	repo := NewSchemeRepository(db)

	rows, _, err := repo.List(ctx, models.SchemeListParams{AuthorID: &u.ID})
	require.NoError(t, err)
	ids := map[int64]bool{}
	for _, row := range rows {
		ids[row.ID] = true
	}
	assert.True(t, ids[pub.ID])
	assert.True(t, ids[priv.ID])

	rows, _, err = repo.List(ctx, models.SchemeListParams{AuthorID: &u.ID, PublicOnly: true})
	require.NoError(t, err)
	ids = map[int64]bool{}
	for _, row := range rows {
		ids[row.ID] = true
	}
	assert.True(t, ids[pub.ID])
	assert.False(t, ids[priv.ID])
}

func TestFavoriteToggleRoundTrip(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()
	u := createTestUser(t, db)
	s := createTestScheme(t, db, u.ID, models.VisibilityPublic)

	favs := NewFavoriteRepository(db)

	added, err := favs.Toggle(ctx, u.ID, s.ID)
	require.NoError(t, err)
	assert.True(t, added)

	is, err := favs.IsFavorited(ctx, u.ID, s.ID)
	require.NoError(t, err)
	assert.True(t, is)

	added, err = favs.Toggle(ctx, u.ID, s.ID)
	require.NoError(t, err)
	assert.False(t, added)

	is, err = favs.IsFavorited(ctx, u.ID, s.ID)
	require.NoError(t, err)
	assert.False(t, is)
}

// Toggling a like twice returns to the starting state, and the unique
// pair constraint keeps the row count at most one throughout.
func TestLikeToggleRoundTrip(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()
	u := createTestUser(t, db)
	s := createTestScheme(t, db, u.ID, models.VisibilityPublic)

	likes := NewLikeRepository(db)

	likeRows := func() int {
		var n int
		require.NoError(t, db.QueryRowContext(ctx, `
			SELECT COUNT(*) FROM likes WHERE user_id = $1 AND scheme_id = $2`,
			u.ID, s.ID,
		).Scan(&n))
		return n
	}

	liked, err := likes.Toggle(ctx, u.ID, s.ID)
	require.NoError(t, err)
	assert.True(t, liked)
	assert.Equal(t, 1, likeRows())

	is, err := likes.IsLiked(ctx, u.ID, s.ID)
	require.NoError(t, err)
	assert.True(t, is)

	liked, err = likes.Toggle(ctx, u.ID, s.ID)
	require.NoError(t, err)
	assert.False(t, liked)
	assert.Equal(t, 0, likeRows())

	is, err = likes.IsLiked(ctx, u.ID, s.ID)
	require.NoError(t, err)
	assert.False(t, is)
}

func TestLikeToggleDrivesInteractions(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()
	u := createTestUser(t, db)
	other := createTestUser(t, db)
	s := createTestScheme(t, db, u.ID, models.VisibilityPublic)

	likes := NewLikeRepository(db)
	liked, err := likes.Toggle(ctx, other.ID, s.ID)
	require.NoError(t, err)
	assert.True(t, liked)

	repo := NewSchemeRepository(db)
	st, err := repo.Interactions(ctx, s.ID, other.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), st.LikesCount)
	assert.True(t, st.IsLiked)

	st, err = repo.Interactions(ctx, s.ID, u.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), st.LikesCount)
	assert.False(t, st.IsLiked)
}

func TestReplaceTags(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()
	u := createTestUser(t, db)
	s := createTestScheme(t, db, u.ID, models.VisibilityPublic)

	repo := NewSchemeRepository(db)
	fresh := uniqueName("retag")
	tags, err := repo.ReplaceTags(ctx, s.ID, []string{fresh})
	require.NoError(t, err)
	require.Len(t, tags, 1)
	assert.Equal(t, fresh, tags[0].Name)

	tags, err = repo.ReplaceTags(ctx, s.ID, nil)
	require.NoError(t, err)
	assert.Empty(t, tags)
}

func TestDownloadCounting(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()
	u := createTestUser(t, db)
	s := createTestScheme(t, db, u.ID, models.VisibilityPublic)

	repo := NewSchemeRepository(db)
	files, err := repo.GetFilesByScheme(ctx, s.ID)
	require.NoError(t, err)
	require.Len(t, files, 1)

	require.NoError(t, repo.IncrementDownloads(ctx, files[0].ID))
	require.NoError(t, repo.IncrementDownloads(ctx, files[0].ID))

	total, err := repo.TotalDownloads(ctx, s.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)

	// A file id from another scheme must not resolve.
	otherScheme := createTestScheme(t, db, u.ID, models.VisibilityPublic)
	_, err = repo.GetFile(ctx, otherScheme.ID, files[0].ID)
	assert.ErrorIs(t, err, sql.ErrNoRows)
}

func TestCommentThreadOrder(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()
	u := createTestUser(t, db)
	s := createTestScheme(t, db, u.ID, models.VisibilityPublic)

	comments := NewCommentRepository(db)
	first := &models.Comment{SchemeID: s.ID, AuthorID: u.ID, Text: "first"}
	require.NoError(t, comments.Create(ctx, first))
	second := &models.Comment{SchemeID: s.ID, AuthorID: u.ID, Text: "second"}
	require.NoError(t, comments.Create(ctx, second))

	thread, err := comments.ListByScheme(ctx, s.ID)
	require.NoError(t, err)
	require.Len(t, thread, 2)
	assert.Equal(t, "first", thread[0].Text)
	assert.Equal(t, "second", thread[1].Text)
	require.NotNil(t, thread[0].Author)
	assert.Equal(t, u.Username, thread[0].Author.Username)
}

func TestUpdateProfilePartial(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()
	u := createTestUser(t, db)

	users := NewUserRepository(db)
	bio := "I stitch."
	require.NoError(t, users.UpdateProfile(ctx, u.ID, UpdateProfileParams{Bio: &bio}))

	got, err := users.GetByID(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, u.Username, got.Username)
	require.NotNil(t, got.Profile)
	assert.Equal(t, "I stitch.", got.Profile.Bio)
}

func TestRegisterDuplicateEmailIsUniqueViolation(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()
	u := createTestUser(t, db)

	users := NewUserRepository(db)
	_, err := users.Create(ctx, u.Email, uniqueName("other"), "secret1")
	require.Error(t, err)
	assert.True(t, IsUniqueViolation(err))
}
