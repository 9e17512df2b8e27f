package handlers

import (
	"time"

	"stitchery/internal/models"
)

// Response shapes are explicit structs with named constructors; each
// route picks the one it returns instead of switching on an action
// name. The list item is deliberately narrow, the detail nests full
// objects.

type profilePayload struct {
	Avatar         string `json:"avatar"`
	Bio            string `json:"bio"`
	Location       string `json:"location"`
	SocialTelegram string `json:"social_telegram"`
	SocialVK       string `json:"social_vk"`
}

type userPayload struct {
	ID       int64           `json:"id"`
	Username string          `json:"username"`
	Email    string          `json:"email"`
	Profile  *profilePayload `json:"profile"`
}

type categoryPayload struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
	Slug string `json:"slug"`
}

type tagPayload struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
	Slug string `json:"slug"`
}

type filePayload struct {
	ID              int64  `json:"id"`
	File            string `json:"file"`
	Description     string `json:"description"`
	FileType        string `json:"file_type"`
	FileTypeDisplay string `json:"file_type_display"`
	DownloadsCount  int64  `json:"downloads_count"`
}

type imagePayload struct {
	ID      int64  `json:"id"`
	Image   string `json:"image"`
	Caption string `json:"caption"`
}

type schemeListItem struct {
	ID             int64     `json:"id"`
	Title          string    `json:"title"`
	MainImage      string    `json:"main_image"`
	Author         string    `json:"author"`
	Category       *string   `json:"category"`
	Tags           []string  `json:"tags"`
	Difficulty     string    `json:"difficulty"`
	ViewsCount     int64     `json:"views_count"`
	LikesCount     int64     `json:"likes_count"`
	IsLiked        bool      `json:"is_liked"`
	FavoritesCount int64     `json:"favorites_count"`
	IsFavorited    bool      `json:"is_favorited"`
	CreatedAt      time.Time `json:"created_at"`
}

type schemeDetail struct {
	ID          int64            `json:"id"`
	Title       string           `json:"title"`
	Author      userPayload      `json:"author"`
	Description string           `json:"description"`
	MainImage   string           `json:"main_image"`
	Category    *categoryPayload `json:"category"`
	Tags        []tagPayload     `json:"tags"`
	License     models.License   `json:"license"`
	Difficulty  string           `json:"difficulty"`
	Visibility  string           `json:"visibility"`

	SizeStitchesWidth  *int   `json:"size_stitches_width"`
	SizeStitchesHeight *int   `json:"size_stitches_height"`
	NumberOfColors     *int   `json:"number_of_colors"`
	RecommendedCanvas  string `json:"recommended_canvas"`
	RecommendedThreads string `json:"recommended_threads"`

	ViewsCount          int64 `json:"views_count"`
	TotalDownloadsCount int64 `json:"total_downloads_count"`

	Files  []filePayload  `json:"files"`
	Images []imagePayload `json:"images"`

	LikesCount     int64 `json:"likes_count"`
	IsLiked        bool  `json:"is_liked"`
	FavoritesCount int64 `json:"favorites_count"`
	IsFavorited    bool  `json:"is_favorited"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type commentAuthorPayload struct {
	ID       int64  `json:"id"`
	Username string `json:"username"`
	Avatar   string `json:"avatar"`
}

type commentPayload struct {
	ID        int64                `json:"id"`
	Author    commentAuthorPayload `json:"author"`
	Text      string               `json:"text"`
	CreatedAt time.Time            `json:"created_at"`
	UpdatedAt time.Time            `json:"updated_at"`
}

type publicUserPayload struct {
	ID         int64           `json:"id"`
	Username   string          `json:"username"`
	DateJoined time.Time       `json:"date_joined"`
	Profile    *profilePayload `json:"profile"`

	// One page of the user's public schemes; schemes_count carries the
	// full total for pagination.
	Schemes      []schemeListItem `json:"schemes"`
	SchemesCount int              `json:"schemes_count"`
}

func mediaURL(path string) string {
	if path == "" {
		return ""
	}
	return "/media/" + path
}

func newProfilePayload(p *models.Profile) *profilePayload {
	if p == nil {
		return nil
	}
	return &profilePayload{
		Avatar:         mediaURL(p.Avatar),
		Bio:            p.Bio,
		Location:       p.Location,
		SocialTelegram: p.SocialTelegram,
		SocialVK:       p.SocialVK,
	}
}

func newUserPayload(u *models.User) userPayload {
	return userPayload{
		ID:       u.ID,
		Username: u.Username,
		Email:    u.Email,
		Profile:  newProfilePayload(u.Profile),
	}
}

func newSchemeListItem(row models.SchemeListRow) schemeListItem {
	item := schemeListItem{
		ID:             row.ID,
		Title:          row.Title,
		MainImage:      mediaURL(row.MainImage),
		Difficulty:     row.Difficulty.Token(),
		ViewsCount:     row.ViewsCount,
		LikesCount:     row.LikesCount,
		IsLiked:        row.IsLiked,
		FavoritesCount: row.FavoritesCount,
		IsFavorited:    row.IsFavorited,
		CreatedAt:      row.CreatedAt,
		Tags:           []string{},
	}
	if row.Author != nil {
		item.Author = row.Author.Username
	}
	if row.Category != nil {
		name := row.Category.Name
		item.Category = &name
	}
	for _, t := range row.Tags {
		item.Tags = append(item.Tags, t.Name)
	}
	return item
}

func newSchemeDetail(s *models.Scheme, st models.InteractionState, totalDownloads int64) schemeDetail {
	d := schemeDetail{
		ID:          s.ID,
		Title:       s.Title,
		Description: s.Description,
		MainImage:   mediaURL(s.MainImage),
		Difficulty:  s.Difficulty.Token(),
		Visibility:  s.Visibility.Token(),

		SizeStitchesWidth:  s.SizeStitchesWidth,
		SizeStitchesHeight: s.SizeStitchesHeight,
		NumberOfColors:     s.NumberOfColors,
		RecommendedCanvas:  s.RecommendedCanvas,
		RecommendedThreads: s.RecommendedThreads,

		ViewsCount:          s.ViewsCount,
		TotalDownloadsCount: totalDownloads,

		LikesCount:     st.LikesCount,
		IsLiked:        st.IsLiked,
		FavoritesCount: st.FavoritesCount,
		IsFavorited:    st.IsFavorited,

		Tags:   []tagPayload{},
		Files:  []filePayload{},
		Images: []imagePayload{},

		CreatedAt: s.CreatedAt,
		UpdatedAt: s.UpdatedAt,
	}
	if s.Author != nil {
		d.Author = newUserPayload(s.Author)
	}
	if s.License != nil {
		d.License = *s.License
	}
	if s.Category != nil {
		d.Category = &categoryPayload{ID: s.Category.ID, Name: s.Category.Name, Slug: s.Category.Slug}
	}
	for _, t := range s.Tags {
		d.Tags = append(d.Tags, tagPayload{ID: t.ID, Name: t.Name, Slug: t.Slug})
	}
	for _, f := range s.Files {
		d.Files = append(d.Files, filePayload{
			ID:              f.ID,
			File:            mediaURL(f.FilePath),
			Description:     f.Description,
			FileType:        string(f.FileType),
			FileTypeDisplay: f.FileType.Display(),
			DownloadsCount:  f.DownloadsCount,
		})
	}
	for _, img := range s.Images {
		d.Images = append(d.Images, imagePayload{
			ID:      img.ID,
			Image:   mediaURL(img.ImagePath),
			Caption: img.Caption,
		})
	}
	return d
}

func newCommentPayload(c models.Comment) commentPayload {
	p := commentPayload{
		ID:        c.ID,
		Text:      c.Text,
		CreatedAt: c.CreatedAt,
		UpdatedAt: c.UpdatedAt,
	}
	if c.Author != nil {
		p.Author = commentAuthorPayload{ID: c.Author.ID, Username: c.Author.Username}
		if c.Author.Profile != nil {
			p.Author.Avatar = mediaURL(c.Author.Profile.Avatar)
		}
	}
	return p
}

func newPublicUserPayload(u *models.User, schemes []models.SchemeListRow, total int) publicUserPayload {
	p := publicUserPayload{
		ID:           u.ID,
		Username:     u.Username,
		DateJoined:   u.DateJoined,
		Profile:      newProfilePayload(u.Profile),
		Schemes:      []schemeListItem{},
		SchemesCount: total,
	}
	for _, row := range schemes {
		p.Schemes = append(p.Schemes, newSchemeListItem(row))
	}
	return p
}
