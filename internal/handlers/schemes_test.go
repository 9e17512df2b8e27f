package handlers

import (
	"bytes"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"stitchery/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseSchemeFilters(t *testing.T) {
	q := url.Values{}
	q.Set("search", "rose")
	q.Set("category", "3")
	q.Set("license", "2")
	q.Set("difficulty", "hard")
	q.Set("tags", "1, floral ,2")
	q.Set("page", "2")
	q.Set("page_size", "10")

	var params models.SchemeListParams
	parseSchemeFilters(q, &params)

	assert.Equal(t, "rose", params.Search)
	require.NotNil(t, params.CategoryID)
	assert.Equal(t, int64(3), *params.CategoryID)
	require.NotNil(t, params.LicenseID)
	assert.Equal(t, int64(2), *params.LicenseID)
	assert.Equal(t, models.DifficultyHard, params.Difficulty)
	assert.Equal(t, []int64{1, 2}, params.TagIDs)
	assert.Equal(t, []string{"floral"}, params.TagNames)
	assert.Equal(t, 2, params.Page)
	assert.Equal(t, 10, params.PageSize)
}

// An unknown difficulty token must not narrow the listing and must
// not fail the request either.
func TestParseSchemeFiltersBadDifficulty(t *testing.T) {
	q := url.Values{}
	q.Set("difficulty", "legendary")

	var params models.SchemeListParams
	parseSchemeFilters(q, &params)
	assert.Equal(t, models.Difficulty(""), params.Difficulty)
}

func TestParseSchemeFiltersGarbageNumbers(t *testing.T) {
	q := url.Values{}
	q.Set("category", "abc")
	q.Set("license", "-1")

	var params models.SchemeListParams
	parseSchemeFilters(q, &params)
	assert.Nil(t, params.CategoryID)
	assert.Nil(t, params.LicenseID)
}

func TestParseTagsFilter(t *testing.T) {
	ids, names := parseTagsFilter("1,2,floral, winter ,")
	assert.Equal(t, []int64{1, 2}, ids)
	assert.Equal(t, []string{"floral", "winter"}, names)

	ids, names = parseTagsFilter("")
	assert.Nil(t, ids)
	assert.Nil(t, names)
}

func TestCanView(t *testing.T) {
	assert.True(t, canView(models.VisibilityPublic, 1, 0))
	assert.True(t, canView(models.VisibilityUnlisted, 1, 0))
	assert.False(t, canView(models.VisibilityPrivate, 1, 0))
	assert.False(t, canView(models.VisibilityPrivate, 1, 2))
	assert.True(t, canView(models.VisibilityPrivate, 1, 1))
}

func multipartRequest(t *testing.T, fields map[string]string, files map[string][]byte) *http.Request {
	t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	for k, v := range fields {
		require.NoError(t, mw.WriteField(k, v))
	}
	for name, content := range files {
		part, err := mw.CreateFormFile(name, name+".bin")
		require.NoError(t, err)
		_, err = part.Write(content)
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

// formField tells a missing field apart from an empty one; partial
// updates rely on that to clear tags with an empty tags_str.
func TestFormFieldPresence(t *testing.T) {
	req := multipartRequest(t, map[string]string{"tags_str": ""}, nil)
	require.NoError(t, req.ParseMultipartForm(1<<20))

	v, ok := formField(req, "tags_str")
	assert.True(t, ok)
	assert.Equal(t, "", v)

	_, ok = formField(req, "title")
	assert.False(t, ok)
}

func TestFormFileHelpers(t *testing.T) {
	req := multipartRequest(t, nil, map[string][]byte{"main_image": []byte("png")})
	require.NoError(t, req.ParseMultipartForm(1<<20))

	fh := formFile(req, "main_image")
	require.NotNil(t, fh)
	assert.Equal(t, "main_image.bin", fh.Filename)

	assert.Nil(t, formFile(req, "scheme_file"))
	assert.Empty(t, formFiles(req, "images"))
}

func TestParseOptionalInt(t *testing.T) {
	fields := map[string]string{}

	assert.Nil(t, parseOptionalInt("", "w", fields))
	assert.Empty(t, fields)

	v := parseOptionalInt("120", "w", fields)
	require.NotNil(t, v)
	assert.Equal(t, 120, *v)
	assert.Empty(t, fields)

	assert.Nil(t, parseOptionalInt("-3", "w", fields))
	assert.Contains(t, fields, "w")

	assert.Nil(t, parseOptionalInt("abc", "h", fields))
	assert.Contains(t, fields, "h")
}
