package models

import "time"

type License struct {
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	ShortName   string `json:"short_name"`
	URL         string `json:"url"`
	Description string `json:"description"`
}

type Category struct {
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	Slug        string `json:"slug"`
	Description string `json:"description"`
}

type Tag struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
	Slug string `json:"slug"`
}

type User struct {
	ID           int64     `json:"id"`
	Email        string    `json:"email"`
	Username     string    `json:"username"`
	PasswordHash string    `json:"-"`
	DateJoined   time.Time `json:"date_joined"`

	Profile *Profile `json:"profile,omitempty"`
}

type Profile struct {
	UserID         int64  `json:"-"`
	Avatar         string `json:"avatar"`
	Bio            string `json:"bio"`
	Location       string `json:"location"`
	SocialTelegram string `json:"social_telegram"`
	SocialVK       string `json:"social_vk"`
}

type Scheme struct {
	ID          int64      `json:"id"`
	Title       string     `json:"title"`
	AuthorID    int64      `json:"author_id"`
	Description string     `json:"description"`
	MainImage   string     `json:"main_image"`
	CategoryID  *int64     `json:"category_id"`
	LicenseID   int64      `json:"license_id"`
	Difficulty  Difficulty `json:"difficulty"`
	Visibility  Visibility `json:"visibility"`

	SizeStitchesWidth  *int `json:"size_stitches_width"`
	SizeStitchesHeight *int `json:"size_stitches_height"`
	NumberOfColors     *int `json:"number_of_colors"`

	RecommendedCanvas  string `json:"recommended_canvas"`
	RecommendedThreads string `json:"recommended_threads"`

	ViewsCount int64     `json:"views_count"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`

	// Joined rows, populated on detail lookups.
	Author   *User         `json:"author,omitempty"`
	Category *Category     `json:"category,omitempty"`
	License  *License      `json:"license,omitempty"`
	Tags     []Tag         `json:"tags,omitempty"`
	Files    []SchemeFile  `json:"files,omitempty"`
	Images   []SchemeImage `json:"images,omitempty"`
}

type SchemeFile struct {
	ID             int64     `json:"id"`
	SchemeID       int64     `json:"scheme_id"`
	FilePath       string    `json:"file"`
	Description    string    `json:"description"`
	FileType       FileType  `json:"file_type"`
	DownloadsCount int64     `json:"downloads_count"`
	UploadedAt     time.Time `json:"uploaded_at"`
}

type SchemeImage struct {
	ID         int64     `json:"id"`
	SchemeID   int64     `json:"scheme_id"`
	ImagePath  string    `json:"image"`
	Caption    string    `json:"caption"`
	UploadedAt time.Time `json:"uploaded_at"`
}

type Comment struct {
	ID        int64     `json:"id"`
	SchemeID  int64     `json:"scheme_id"`
	AuthorID  int64     `json:"author_id"`
	Text      string    `json:"text"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Author *User `json:"author,omitempty"`
}

// InteractionState is what a given viewer sees on a scheme: the social
// counts plus whether the viewer liked or favorited it themselves.
// Anonymous viewers always get false booleans.
type InteractionState struct {
	LikesCount     int64 `json:"likes_count"`
	IsLiked        bool  `json:"is_liked"`
	FavoritesCount int64 `json:"favorites_count"`
	IsFavorited    bool  `json:"is_favorited"`
}

// SchemeListRow is one listing entry: the scheme plus the viewer's
// interaction state, fetched in the same query.
type SchemeListRow struct {
	Scheme
	InteractionState
}

// SchemeListParams selects and filters a scheme listing. The scopes
// stack: the open catalog sets PublicOnly alone, /schemes/my sets
// AuthorID, /schemes/favorited sets FavoritedBy, and a profile page
// sets AuthorID together with PublicOnly.
type SchemeListParams struct {
	PublicOnly  bool
	AuthorID    *int64
	FavoritedBy *int64

	Search     string
	CategoryID *int64
	LicenseID  *int64
	TagIDs     []int64
	TagNames   []string
	Difficulty Difficulty // empty = not filtered

	// ViewerID drives is_liked/is_favorited in list rows; zero means
	// anonymous.
	ViewerID int64

	Page     int
	PageSize int
}
