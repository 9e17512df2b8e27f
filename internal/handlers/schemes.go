package handlers

import (
	"database/sql"
	"errors"
	"mime/multipart"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"stitchery/internal/middleware"
	"stitchery/internal/models"
	"stitchery/internal/repository"
	"stitchery/internal/storage"

	"go.uber.org/zap"
)

const maxUploadBytes = 64 << 20

type SchemeHandler struct {
	schemeRepo   *repository.SchemeRepository
	licenseRepo  *repository.LicenseRepository
	categoryRepo *repository.CategoryRepository
	favRepo      *repository.FavoriteRepository
	likeRepo     *repository.LikeRepository
	media        *storage.MediaStore

	// defaultLicense is the short_name applied when a create request
	// carries no license_id.
	defaultLicense string

	log *zap.Logger
}

func NewSchemeHandler(
	sr *repository.SchemeRepository,
	lr *repository.LicenseRepository,
	cr *repository.CategoryRepository,
	fr *repository.FavoriteRepository,
	kr *repository.LikeRepository,
	media *storage.MediaStore,
	defaultLicense string,
	log *zap.Logger,
) *SchemeHandler {
	return &SchemeHandler{
		schemeRepo:     sr,
		licenseRepo:    lr,
		categoryRepo:   cr,
		favRepo:        fr,
		likeRepo:       kr,
		media:          media,
		defaultLicense: defaultLicense,
		log:            log,
	}
}

type schemeListResponse struct {
	Count    int              `json:"count"`
	Page     int              `json:"page"`
	PageSize int              `json:"page_size"`
	Results  []schemeListItem `json:"results"`
}

// parseSchemeFilters reads the shared filter query params. An
// unrecognized difficulty token is deliberately ignored rather than
// rejected.
func parseSchemeFilters(q url.Values, params *models.SchemeListParams) {
	params.Search = q.Get("search")

	if v := q.Get("category"); v != "" {
		if id, err := strconv.ParseInt(v, 10, 64); err == nil && id > 0 {
			params.CategoryID = &id
		}
	}
	if v := q.Get("license"); v != "" {
		if id, err := strconv.ParseInt(v, 10, 64); err == nil && id > 0 {
			params.LicenseID = &id
		}
	}
	if v := q.Get("difficulty"); v != "" {
		if d, ok := models.ParseDifficulty(v); ok {
			params.Difficulty = d
		}
	}
	if v := q.Get("tags"); v != "" {
		params.TagIDs, params.TagNames = parseTagsFilter(v)
	}

	params.Page, _ = strconv.Atoi(q.Get("page"))
	params.PageSize, _ = strconv.Atoi(q.Get("page_size"))
}

// parseTagsFilter splits a comma-separated tags value into numeric ids
// and plain names; both forms are accepted, mixed freely.
func parseTagsFilter(value string) (ids []int64, names []string) {
	for _, part := range strings.Split(value, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		if id, err := strconv.ParseInt(part, 10, 64); err == nil && id > 0 {
			ids = append(ids, id)
			continue
		}
		names = append(names, part)
	}
	return ids, names
}

func (h *SchemeHandler) list(w http.ResponseWriter, r *http.Request, params models.SchemeListParams) {
	params.ViewerID = middleware.GetUserID(r.Context())
	parseSchemeFilters(r.URL.Query(), &params)

	rows, total, err := h.schemeRepo.List(r.Context(), params)
	if err != nil {
		h.log.Error("list schemes", zap.Error(err))
		respondError(w, http.StatusInternalServerError, "failed to list schemes")
		return
	}

	items := []schemeListItem{}
	for _, row := range rows {
		items = append(items, newSchemeListItem(row))
	}
	if params.Page < 1 {
		params.Page = 1
	}
	if params.PageSize < 1 || params.PageSize > 100 {
		params.PageSize = 20
	}
	respondJSON(w, http.StatusOK, schemeListResponse{
		Count:    total,
		Page:     params.Page,
		PageSize: params.PageSize,
		Results:  items,
	})
}

// List is the open catalog: public schemes only, newest first.
func (h *SchemeHandler) List(w http.ResponseWriter, r *http.Request) {
	h.list(w, r, models.SchemeListParams{PublicOnly: true})
}

// My returns the requester's own schemes regardless of visibility.
func (h *SchemeHandler) My(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	h.list(w, r, models.SchemeListParams{AuthorID: &userID})
}

// Favorited returns the schemes the requester has favorited.
func (h *SchemeHandler) Favorited(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	h.list(w, r, models.SchemeListParams{FavoritedBy: &userID})
}

// canView applies the visibility policy: private schemes exist only
// for their author; public and unlisted are readable by anyone who has
// the id.
func canView(visibility models.Visibility, authorID, viewerID int64) bool {
	return visibility != models.VisibilityPrivate || authorID == viewerID
}

// authorizeView resolves the scheme's owner and visibility and writes
// a 404 when the viewer may not see it. Hidden schemes are
// indistinguishable from missing ones.
func (h *SchemeHandler) authorizeView(w http.ResponseWriter, r *http.Request, schemeID int64) bool {
	authorID, visibility, err := h.schemeRepo.GetOwnerVisibility(r.Context(), schemeID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			respondError(w, http.StatusNotFound, "scheme not found")
			return false
		}
		h.log.Error("load scheme visibility", zap.Error(err))
		respondError(w, http.StatusInternalServerError, "failed to load scheme")
		return false
	}
	if !canView(visibility, authorID, middleware.GetUserID(r.Context())) {
		respondError(w, http.StatusNotFound, "scheme not found")
		return false
	}
	return true
}

// Retrieve increments the view counter in-store, then returns the
// refreshed detail.
func (h *SchemeHandler) Retrieve(w http.ResponseWriter, r *http.Request) {
	id, ok := parseIDParam(r, "id")
	if !ok {
		respondError(w, http.StatusBadRequest, "invalid scheme id")
		return
	}
	if !h.authorizeView(w, r, id) {
		return
	}

	if err := h.schemeRepo.IncrementViews(r.Context(), id); err != nil {
		h.log.Error("increment views", zap.Error(err), zap.Int64("scheme_id", id))
		respondError(w, http.StatusInternalServerError, "failed to load scheme")
		return
	}

	h.respondDetail(w, r, id, http.StatusOK)
}

func (h *SchemeHandler) respondDetail(w http.ResponseWriter, r *http.Request, id int64, status int) {
	s, err := h.schemeRepo.GetByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			respondError(w, http.StatusNotFound, "scheme not found")
			return
		}
		h.log.Error("load scheme", zap.Error(err), zap.Int64("scheme_id", id))
		respondError(w, http.StatusInternalServerError, "failed to load scheme")
		return
	}

	viewerID := middleware.GetUserID(r.Context())
	st, err := h.schemeRepo.Interactions(r.Context(), id, viewerID)
	if err != nil {
		h.log.Error("load scheme interactions", zap.Error(err), zap.Int64("scheme_id", id))
		respondError(w, http.StatusInternalServerError, "failed to load scheme")
		return
	}
	total, err := h.schemeRepo.TotalDownloads(r.Context(), id)
	if err != nil {
		h.log.Error("load scheme downloads", zap.Error(err), zap.Int64("scheme_id", id))
		respondError(w, http.StatusInternalServerError, "failed to load scheme")
		return
	}

	respondJSON(w, status, newSchemeDetail(s, st, total))
}

// Create accepts a multipart form: metadata fields plus the required
// main image, one required scheme file and optional gallery images.
// Whatever visibility the client asks for, a new scheme is public.
func (h *SchemeHandler) Create(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		respondError(w, http.StatusBadRequest, "invalid multipart form")
		return
	}

	fields := make(map[string]string)

	title := strings.TrimSpace(r.FormValue("title"))
	if title == "" {
		fields["title"] = "required"
	}

	mainImage := formFile(r, "main_image")
	if mainImage == nil {
		fields["main_image"] = "required"
	}
	schemeFile := formFile(r, "scheme_file")
	if schemeFile == nil {
		fields["scheme_file"] = "required"
	}

	difficulty := models.DifficultyMedium
	if v := r.FormValue("difficulty"); v != "" {
		d, ok := models.ParseDifficulty(v)
		if !ok {
			fields["difficulty"] = "must be one of easy, medium, hard, expert"
		} else {
			difficulty = d
		}
	}

	var categoryID *int64
	if v := r.FormValue("category_id"); v != "" {
		id, err := strconv.ParseInt(v, 10, 64)
		if err != nil || id < 1 {
			fields["category_id"] = "must be a positive integer"
		} else if _, err := h.categoryRepo.GetByID(r.Context(), id); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				fields["category_id"] = "category does not exist"
			} else {
				h.log.Error("check category", zap.Error(err))
				respondError(w, http.StatusInternalServerError, "failed to create scheme")
				return
			}
		} else {
			categoryID = &id
		}
	}

	var license *models.License
	if v := r.FormValue("license_id"); v != "" {
		id, err := strconv.ParseInt(v, 10, 64)
		if err != nil || id < 1 {
			fields["license_id"] = "must be a positive integer"
		} else if license, err = h.licenseRepo.GetByID(r.Context(), id); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				fields["license_id"] = "license does not exist"
				license = nil
			} else {
				h.log.Error("check license", zap.Error(err))
				respondError(w, http.StatusInternalServerError, "failed to create scheme")
				return
			}
		}
	} else {
		var err error
		if license, err = h.licenseRepo.GetByShortName(r.Context(), h.defaultLicense); err != nil {
			h.log.Error("load default license", zap.Error(err), zap.String("short_name", h.defaultLicense))
			respondError(w, http.StatusInternalServerError, "default license is not configured")
			return
		}
	}

	width := parseOptionalInt(r.FormValue("size_stitches_width"), "size_stitches_width", fields)
	height := parseOptionalInt(r.FormValue("size_stitches_height"), "size_stitches_height", fields)
	colors := parseOptionalInt(r.FormValue("number_of_colors"), "number_of_colors", fields)

	fileType := models.FileTypeForExt(storage.Ext(fileName(schemeFile)))
	if v := r.FormValue("file_type"); v != "" {
		ft, ok := models.ParseFileType(v)
		if !ok {
			fields["file_type"] = "unknown file type"
		} else {
			fileType = ft
		}
	}

	if len(fields) > 0 {
		respondFieldErrors(w, fields)
		return
	}

	mainImagePath, err := h.media.Save(mainImage, "schemes/main_images")
	if err != nil {
		h.log.Error("store main image", zap.Error(err))
		respondError(w, http.StatusInternalServerError, "failed to store main image")
		return
	}
	filePath, err := h.media.Save(schemeFile, "schemes/files")
	if err != nil {
		h.log.Error("store scheme file", zap.Error(err))
		respondError(w, http.StatusInternalServerError, "failed to store scheme file")
		return
	}

	var images []models.SchemeImage
	for _, fh := range formFiles(r, "images") {
		imagePath, err := h.media.Save(fh, "schemes/gallery")
		if err != nil {
			h.log.Error("store gallery image", zap.Error(err))
			respondError(w, http.StatusInternalServerError, "failed to store gallery image")
			return
		}
		images = append(images, models.SchemeImage{ImagePath: imagePath})
	}

	s := &models.Scheme{
		Title:       title,
		AuthorID:    middleware.GetUserID(r.Context()),
		Description: r.FormValue("description"),
		MainImage:   mainImagePath,
		CategoryID:  categoryID,
		LicenseID:   license.ID,
		Difficulty:  difficulty,
		// Creation always yields a public scheme; any client-supplied
		// visibility is ignored on this path.
		Visibility: models.VisibilityPublic,

		SizeStitchesWidth:  width,
		SizeStitchesHeight: height,
		NumberOfColors:     colors,
		RecommendedCanvas:  r.FormValue("recommended_canvas"),
		RecommendedThreads: r.FormValue("recommended_threads"),
	}

	file := &models.SchemeFile{
		FilePath:    filePath,
		Description: r.FormValue("file_description"),
		FileType:    fileType,
	}
	tagNames := models.SplitTagNames(r.FormValue("tags_str"))

	if err := h.schemeRepo.Create(r.Context(), s, tagNames, file, images); err != nil {
		h.log.Error("create scheme", zap.Error(err))
		respondError(w, http.StatusInternalServerError, "failed to create scheme")
		return
	}

	h.respondDetail(w, r, s.ID, http.StatusCreated)
}

// Update applies a partial author-only update. A supplied tags_str,
// even an empty one, replaces the whole tag set; a supplied file or
// gallery image is appended, never a replacement.
func (h *SchemeHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := parseIDParam(r, "id")
	if !ok {
		respondError(w, http.StatusBadRequest, "invalid scheme id")
		return
	}

	s, err := h.schemeRepo.GetByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			respondError(w, http.StatusNotFound, "scheme not found")
			return
		}
		h.log.Error("load scheme", zap.Error(err), zap.Int64("scheme_id", id))
		respondError(w, http.StatusInternalServerError, "failed to load scheme")
		return
	}

	if s.AuthorID != middleware.GetUserID(r.Context()) {
		respondError(w, http.StatusForbidden, "only the author may modify a scheme")
		return
	}

	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		respondError(w, http.StatusBadRequest, "invalid multipart form")
		return
	}

	fields := make(map[string]string)

	if v, ok := formField(r, "title"); ok {
		title := strings.TrimSpace(v)
		if title == "" {
			fields["title"] = "must not be empty"
		} else {
			s.Title = title
		}
	}
	if v, ok := formField(r, "description"); ok {
		s.Description = v
	}
	if v, ok := formField(r, "difficulty"); ok {
		d, dok := models.ParseDifficulty(v)
		if !dok {
			fields["difficulty"] = "must be one of easy, medium, hard, expert"
		} else {
			s.Difficulty = d
		}
	}
	if v, ok := formField(r, "visibility"); ok {
		vis, vok := models.ParseVisibility(v)
		if !vok {
			fields["visibility"] = "must be one of public, unlisted, private"
		} else {
			s.Visibility = vis
		}
	}
	if v, ok := formField(r, "category_id"); ok {
		if v == "" {
			s.CategoryID = nil
		} else if cid, err := strconv.ParseInt(v, 10, 64); err != nil || cid < 1 {
			fields["category_id"] = "must be a positive integer"
		} else if _, err := h.categoryRepo.GetByID(r.Context(), cid); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				fields["category_id"] = "category does not exist"
			} else {
				h.log.Error("check category", zap.Error(err))
				respondError(w, http.StatusInternalServerError, "failed to update scheme")
				return
			}
		} else {
			s.CategoryID = &cid
		}
	}
	if v, ok := formField(r, "license_id"); ok {
		lid, err := strconv.ParseInt(v, 10, 64)
		if err != nil || lid < 1 {
			fields["license_id"] = "must be a positive integer"
		} else if _, err := h.licenseRepo.GetByID(r.Context(), lid); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				fields["license_id"] = "license does not exist"
			} else {
				h.log.Error("check license", zap.Error(err))
				respondError(w, http.StatusInternalServerError, "failed to update scheme")
				return
			}
		} else {
			s.LicenseID = lid
		}
	}
	if v, ok := formField(r, "size_stitches_width"); ok {
		s.SizeStitchesWidth = parseOptionalInt(v, "size_stitches_width", fields)
	}
	if v, ok := formField(r, "size_stitches_height"); ok {
		s.SizeStitchesHeight = parseOptionalInt(v, "size_stitches_height", fields)
	}
	if v, ok := formField(r, "number_of_colors"); ok {
		s.NumberOfColors = parseOptionalInt(v, "number_of_colors", fields)
	}
	if v, ok := formField(r, "recommended_canvas"); ok {
		s.RecommendedCanvas = v
	}
	if v, ok := formField(r, "recommended_threads"); ok {
		s.RecommendedThreads = v
	}

	newFile := formFile(r, "scheme_file")
	fileType := models.FileTypeOther
	if newFile != nil {
		fileType = models.FileTypeForExt(storage.Ext(fileName(newFile)))
	}
	if v, ok := formField(r, "file_type"); ok && v != "" {
		ft, fok := models.ParseFileType(v)
		if !fok {
			fields["file_type"] = "unknown file type"
		} else {
			fileType = ft
		}
	}

	if len(fields) > 0 {
		respondFieldErrors(w, fields)
		return
	}

	if mainImage := formFile(r, "main_image"); mainImage != nil {
		path, err := h.media.Save(mainImage, "schemes/main_images")
		if err != nil {
			h.log.Error("store main image", zap.Error(err))
			respondError(w, http.StatusInternalServerError, "failed to store main image")
			return
		}
		s.MainImage = path
	}

	if err := h.schemeRepo.Update(r.Context(), s); err != nil {
		h.log.Error("update scheme", zap.Error(err), zap.Int64("scheme_id", id))
		respondError(w, http.StatusInternalServerError, "failed to update scheme")
		return
	}

	if tagsStr, ok := formField(r, "tags_str"); ok {
		if _, err := h.schemeRepo.ReplaceTags(r.Context(), id, models.SplitTagNames(tagsStr)); err != nil {
			h.log.Error("replace tags", zap.Error(err), zap.Int64("scheme_id", id))
			respondError(w, http.StatusInternalServerError, "failed to update tags")
			return
		}
	}

	if newFile != nil {
		path, err := h.media.Save(newFile, "schemes/files")
		if err != nil {
			h.log.Error("store scheme file", zap.Error(err))
			respondError(w, http.StatusInternalServerError, "failed to store scheme file")
			return
		}
		f := &models.SchemeFile{
			SchemeID:    id,
			FilePath:    path,
			Description: r.FormValue("file_description"),
			FileType:    fileType,
		}
		if err := h.schemeRepo.AddFile(r.Context(), f); err != nil {
			h.log.Error("add scheme file", zap.Error(err), zap.Int64("scheme_id", id))
			respondError(w, http.StatusInternalServerError, "failed to add scheme file")
			return
		}
	}

	for _, fh := range formFiles(r, "images") {
		path, err := h.media.Save(fh, "schemes/gallery")
		if err != nil {
			h.log.Error("store gallery image", zap.Error(err))
			respondError(w, http.StatusInternalServerError, "failed to store gallery image")
			return
		}
		img := &models.SchemeImage{SchemeID: id, ImagePath: path}
		if err := h.schemeRepo.AddImage(r.Context(), img); err != nil {
			h.log.Error("add gallery image", zap.Error(err), zap.Int64("scheme_id", id))
			respondError(w, http.StatusInternalServerError, "failed to add gallery image")
			return
		}
	}

	h.respondDetail(w, r, id, http.StatusOK)
}

func (h *SchemeHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := parseIDParam(r, "id")
	if !ok {
		respondError(w, http.StatusBadRequest, "invalid scheme id")
		return
	}

	authorID, _, err := h.schemeRepo.GetOwnerVisibility(r.Context(), id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			respondError(w, http.StatusNotFound, "scheme not found")
			return
		}
		h.log.Error("load scheme visibility", zap.Error(err))
		respondError(w, http.StatusInternalServerError, "failed to load scheme")
		return
	}
	if authorID != middleware.GetUserID(r.Context()) {
		respondError(w, http.StatusForbidden, "only the author may delete a scheme")
		return
	}

	if err := h.schemeRepo.Delete(r.Context(), id); err != nil {
		h.log.Error("delete scheme", zap.Error(err), zap.Int64("scheme_id", id))
		respondError(w, http.StatusInternalServerError, "failed to delete scheme")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ToggleFavorite flips the requester's favorite membership and reports
// which way it went.
func (h *SchemeHandler) ToggleFavorite(w http.ResponseWriter, r *http.Request) {
	id, ok := parseIDParam(r, "id")
	if !ok {
		respondError(w, http.StatusBadRequest, "invalid scheme id")
		return
	}
	if !h.authorizeView(w, r, id) {
		return
	}

	added, err := h.favRepo.Toggle(r.Context(), middleware.GetUserID(r.Context()), id)
	if err != nil {
		h.log.Error("toggle favorite", zap.Error(err), zap.Int64("scheme_id", id))
		respondError(w, http.StatusInternalServerError, "failed to toggle favorite")
		return
	}

	status := "removed"
	if added {
		status = "added"
	}
	respondJSON(w, http.StatusOK, map[string]string{"status": status})
}

// ToggleLike creates or removes the requester's like; a fresh like
// answers 201, removal answers 200.
func (h *SchemeHandler) ToggleLike(w http.ResponseWriter, r *http.Request) {
	id, ok := parseIDParam(r, "id")
	if !ok {
		respondError(w, http.StatusBadRequest, "invalid scheme id")
		return
	}
	if !h.authorizeView(w, r, id) {
		return
	}

	liked, err := h.likeRepo.Toggle(r.Context(), middleware.GetUserID(r.Context()), id)
	if err != nil {
		h.log.Error("toggle like", zap.Error(err), zap.Int64("scheme_id", id))
		respondError(w, http.StatusInternalServerError, "failed to toggle like")
		return
	}

	if liked {
		respondJSON(w, http.StatusCreated, map[string]string{"status": "liked"})
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"status": "unliked"})
}

// DownloadFile counts the download and redirects to the blob. The file
// id must belong to the scheme in the path.
func (h *SchemeHandler) DownloadFile(w http.ResponseWriter, r *http.Request) {
	id, ok := parseIDParam(r, "id")
	if !ok {
		respondError(w, http.StatusBadRequest, "invalid scheme id")
		return
	}
	fileID, ok := parseIDParam(r, "fileId")
	if !ok {
		respondError(w, http.StatusBadRequest, "invalid file id")
		return
	}
	if !h.authorizeView(w, r, id) {
		return
	}

	f, err := h.schemeRepo.GetFile(r.Context(), id, fileID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			respondError(w, http.StatusNotFound, "file not found")
			return
		}
		h.log.Error("load scheme file", zap.Error(err), zap.Int64("file_id", fileID))
		respondError(w, http.StatusInternalServerError, "failed to load file")
		return
	}

	if err := h.schemeRepo.IncrementDownloads(r.Context(), fileID); err != nil {
		h.log.Error("increment downloads", zap.Error(err), zap.Int64("file_id", fileID))
		respondError(w, http.StatusInternalServerError, "failed to count download")
		return
	}

	http.Redirect(w, r, mediaURL(f.FilePath), http.StatusFound)
}

// formField distinguishes "field absent" from "field present but
// empty", which partial updates depend on (an empty tags_str clears
// the tag set).
func formField(r *http.Request, name string) (string, bool) {
	if r.MultipartForm == nil {
		return "", false
	}
	vals, ok := r.MultipartForm.Value[name]
	if !ok || len(vals) == 0 {
		return "", false
	}
	return vals[0], true
}

func formFile(r *http.Request, name string) *multipart.FileHeader {
	if r.MultipartForm == nil {
		return nil
	}
	if fhs := r.MultipartForm.File[name]; len(fhs) > 0 {
		return fhs[0]
	}
	return nil
}

func formFiles(r *http.Request, name string) []*multipart.FileHeader {
	if r.MultipartForm == nil {
		return nil
	}
	return r.MultipartForm.File[name]
}

func fileName(fh *multipart.FileHeader) string {
	if fh == nil {
		return ""
	}
	return fh.Filename
}

func parseOptionalInt(v, field string, fields map[string]string) *int {
	if v == "" {
		return nil
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 0 {
		fields[field] = "must be a non-negative integer"
		return nil
	}
	return &n
}
