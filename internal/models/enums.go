package models

// Enum columns keep the original storage codes; the API speaks
// human-facing tokens and maps them at the edge.

type Difficulty string

const (
	DifficultyEasy   Difficulty = "EA"
	DifficultyMedium Difficulty = "ME"
	DifficultyHard   Difficulty = "HA"
	DifficultyExpert Difficulty = "EX"
)

var difficultyTokens = map[string]Difficulty{
	"easy":   DifficultyEasy,
	"medium": DifficultyMedium,
	"hard":   DifficultyHard,
	"expert": DifficultyExpert,
}

// ParseDifficulty maps a wire token to its stored code. An
// unrecognized token returns ok=false; callers filtering a listing
// treat that as "no difficulty filter", not an error.
func ParseDifficulty(token string) (Difficulty, bool) {
	d, ok := difficultyTokens[token]
	return d, ok
}

func (d Difficulty) Token() string {
	switch d {
	case DifficultyEasy:
		return "easy"
	case DifficultyMedium:
		return "medium"
	case DifficultyHard:
		return "hard"
	case DifficultyExpert:
		return "expert"
	}
	return ""
}

func (d Difficulty) Valid() bool {
	return d.Token() != ""
}

type Visibility string

const (
	VisibilityPublic   Visibility = "PUB"
	VisibilityUnlisted Visibility = "UNL"
	VisibilityPrivate  Visibility = "PRI"
)

func ParseVisibility(token string) (Visibility, bool) {
	switch token {
	case "public":
		return VisibilityPublic, true
	case "unlisted":
		return VisibilityUnlisted, true
	case "private":
		return VisibilityPrivate, true
	}
	return "", false
}

func (v Visibility) Token() string {
	switch v {
	case VisibilityPublic:
		return "public"
	case VisibilityUnlisted:
		return "unlisted"
	case VisibilityPrivate:
		return "private"
	}
	return ""
}

type FileType string

const (
	FileTypePDF   FileType = "PDF"
	FileTypeXSD   FileType = "XSD"
	FileTypeSaga  FileType = "SAGA"
	FileTypeImage FileType = "IMG"
	FileTypeOther FileType = "OTH"
)

func ParseFileType(code string) (FileType, bool) {
	switch FileType(code) {
	case FileTypePDF, FileTypeXSD, FileTypeSaga, FileTypeImage, FileTypeOther:
		return FileType(code), true
	}
	return "", false
}

// Display returns the human-readable label used in serialized files.
func (t FileType) Display() string {
	switch t {
	case FileTypePDF:
		return "PDF Document"
	case FileTypeXSD:
		return "Pattern Maker File"
	case FileTypeSaga:
		return "Cross Stitch Saga File"
	case FileTypeImage:
		return "Image (PNG/JPG)"
	default:
		return "Other"
	}
}

// FileTypeForExt guesses a file type from a filename extension when
// the uploader did not specify one.
func FileTypeForExt(ext string) FileType {
	switch ext {
	case ".pdf":
		return FileTypePDF
	case ".xsd":
		return FileTypeXSD
	case ".saga":
		return FileTypeSaga
	case ".png", ".jpg", ".jpeg":
		return FileTypeImage
	}
	return FileTypeOther
}
