package handlers

import (
	"encoding/json"
	"testing"
	"time"

	"stitchery/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMediaURL(t *testing.T) {
	assert.Equal(t, "/media/schemes/files/a.pdf", mediaURL("schemes/files/a.pdf"))
	assert.Equal(t, "", mediaURL(""))
}

func TestNewSchemeListItem(t *testing.T) {
	created := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	row := models.SchemeListRow{
		Scheme: models.Scheme{
			ID:         5,
			Title:      "Rose Garden",
			MainImage:  "schemes/main_images/r.png",
			Difficulty: models.DifficultyHard,
			ViewsCount: 9,
			CreatedAt:  created,
			Author:     &models.User{ID: 2, Username: "needleworker"},
			Category:   &models.Category{ID: 1, Name: "Flowers"},
			Tags:       []models.Tag{{Name: "floral"}, {Name: "summer"}},
		},
		InteractionState: models.InteractionState{
			LikesCount:     3,
			IsLiked:        true,
			FavoritesCount: 1,
		},
	}

	item := newSchemeListItem(row)
	assert.Equal(t, int64(5), item.ID)
	assert.Equal(t, "needleworker", item.Author)
	require.NotNil(t, item.Category)
	assert.Equal(t, "Flowers", *item.Category)
	assert.Equal(t, []string{"floral", "summer"}, item.Tags)
	assert.Equal(t, "hard", item.Difficulty)
	assert.Equal(t, "/media/schemes/main_images/r.png", item.MainImage)
	assert.Equal(t, int64(3), item.LikesCount)
	assert.True(t, item.IsLiked)
	assert.False(t, item.IsFavorited)
	assert.Equal(t, created, item.CreatedAt)
}

// Uncategorized schemes serialize with an explicit null category and
// an empty, not null, tag list.
func TestNewSchemeListItemEmptyRelations(t *testing.T) {
	item := newSchemeListItem(models.SchemeListRow{
		Scheme: models.Scheme{ID: 1, Difficulty: models.DifficultyEasy},
	})

	raw, err := json.Marshal(item)
	require.NoError(t, err)

	var decoded map[string]interface{}
	require.NoError(t, json.Unmarshal(raw, &decoded))
	assert.Nil(t, decoded["category"])
	assert.Equal(t, []interface{}{}, decoded["tags"])
	assert.Equal(t, "", decoded["author"])
}

func TestNewSchemeDetail(t *testing.T) {
	width := 200
	s := &models.Scheme{
		ID:          7,
		Title:       "Winter Sampler",
		Description: "A sampler.",
		MainImage:   "schemes/main_images/w.png",
		Difficulty:  models.DifficultyExpert,
		Visibility:  models.VisibilityUnlisted,
		ViewsCount:  12,

		SizeStitchesWidth: &width,

		Author: &models.User{
			ID:       3,
			Username: "frost",
			Profile:  &models.Profile{Avatar: "avatars/f.png", Bio: "stitcher"},
		},
		License: &models.License{ID: 2, Name: "Attribution 4.0 International", ShortName: "CC BY"},
		Tags:    []models.Tag{{ID: 1, Name: "winter", Slug: "winter"}},
		Files: []models.SchemeFile{{
			ID:             4,
			FilePath:       "schemes/files/w.pdf",
			FileType:       models.FileTypePDF,
			DownloadsCount: 6,
		}},
		Images: []models.SchemeImage{{ID: 9, ImagePath: "schemes/gallery/g.png", Caption: "detail"}},
	}
	st := models.InteractionState{LikesCount: 2, FavoritesCount: 5, IsFavorited: true}

	d := newSchemeDetail(s, st, 6)
	assert.Equal(t, "frost", d.Author.Username)
	require.NotNil(t, d.Author.Profile)
	assert.Equal(t, "/media/avatars/f.png", d.Author.Profile.Avatar)
	assert.Equal(t, "CC BY", d.License.ShortName)
	assert.Equal(t, "expert", d.Difficulty)
	assert.Equal(t, "unlisted", d.Visibility)
	require.NotNil(t, d.SizeStitchesWidth)
	assert.Equal(t, 200, *d.SizeStitchesWidth)
	assert.Equal(t, int64(6), d.TotalDownloadsCount)
	require.Len(t, d.Files, 1)
	assert.Equal(t, "/media/schemes/files/w.pdf", d.Files[0].File)
	assert.Equal(t, "PDF", d.Files[0].FileType)
	assert.Equal(t, "PDF Document", d.Files[0].FileTypeDisplay)
	require.Len(t, d.Images, 1)
	assert.Equal(t, "/media/schemes/gallery/g.png", d.Images[0].Image)
	assert.True(t, d.IsFavorited)
	assert.False(t, d.IsLiked)
}

func TestNewCommentPayload(t *testing.T) {
	c := models.Comment{
		ID:       11,
		Text:     "lovely",
		AuthorID: 3,
		Author: &models.User{
			ID:       3,
			Username: "frost",
			Profile:  &models.Profile{Avatar: "avatars/f.png"},
		},
	}
	p := newCommentPayload(c)
	assert.Equal(t, int64(11), p.ID)
	assert.Equal(t, "frost", p.Author.Username)
	assert.Equal(t, "/media/avatars/f.png", p.Author.Avatar)
}

func TestNewPublicUserPayload(t *testing.T) {
	u := &models.User{
		ID:         3,
		Username:   "frost",
		Email:      "frost@example.com",
		DateJoined: time.Date(2025, 1, 2, 0, 0, 0, 0, time.UTC),
		Profile:    &models.Profile{Location: "Oslo"},
	}
	p := newPublicUserPayload(u, nil, 0)
	assert.Equal(t, "frost", p.Username)
	assert.Equal(t, []schemeListItem{}, p.Schemes)
	assert.Equal(t, 0, p.SchemesCount)

	// The public shape must not leak the email address.
	raw, err := json.Marshal(p)
	require.NoError(t, err)
	assert.NotContains(t, string(raw), "frost@example.com")
}

// schemes_count reports the full match total, not the page size, so a
// prolific profile is visibly paged rather than silently truncated.
func TestNewPublicUserPayloadCountExceedsPage(t *testing.T) {
	u := &models.User{ID: 3, Username: "frost"}
	page := []models.SchemeListRow{
		{Scheme: models.Scheme{ID: 1, Difficulty: models.DifficultyEasy}},
	}
	p := newPublicUserPayload(u, page, 123)
	assert.Len(t, p.Schemes, 1)
	assert.Equal(t, 123, p.SchemesCount)
}
