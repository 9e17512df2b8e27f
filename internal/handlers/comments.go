package handlers

import (
	"database/sql"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"stitchery/internal/middleware"
	"stitchery/internal/models"
	"stitchery/internal/repository"

	"go.uber.org/zap"
)

type CommentHandler struct {
	commentRepo *repository.CommentRepository
	schemeRepo  *repository.SchemeRepository
	log         *zap.Logger
}

func NewCommentHandler(cr *repository.CommentRepository, sr *repository.SchemeRepository, log *zap.Logger) *CommentHandler {
	return &CommentHandler{commentRepo: cr, schemeRepo: sr, log: log}
}

// resolveScheme applies the same visibility policy as scheme retrieval:
// comments on a scheme the viewer may not see answer 404.
func (h *CommentHandler) resolveScheme(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, ok := parseIDParam(r, "id")
	if !ok {
		respondError(w, http.StatusBadRequest, "invalid scheme id")
		return 0, false
	}

	authorID, visibility, err := h.schemeRepo.GetOwnerVisibility(r.Context(), id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			respondError(w, http.StatusNotFound, "scheme not found")
			return 0, false
		}
		h.log.Error("load scheme visibility", zap.Error(err))
		respondError(w, http.StatusInternalServerError, "failed to load scheme")
		return 0, false
	}
	if !canView(visibility, authorID, middleware.GetUserID(r.Context())) {
		respondError(w, http.StatusNotFound, "scheme not found")
		return 0, false
	}
	return id, true
}

// List returns a scheme's comment thread, oldest first.
func (h *CommentHandler) List(w http.ResponseWriter, r *http.Request) {
	schemeID, ok := h.resolveScheme(w, r)
	if !ok {
		return
	}

	comments, err := h.commentRepo.ListByScheme(r.Context(), schemeID)
	if err != nil {
		h.log.Error("list comments", zap.Error(err), zap.Int64("scheme_id", schemeID))
		respondError(w, http.StatusInternalServerError, "failed to list comments")
		return
	}

	payload := []commentPayload{}
	for _, c := range comments {
		payload = append(payload, newCommentPayload(c))
	}
	respondJSON(w, http.StatusOK, payload)
}

type createCommentRequest struct {
	Text string `json:"text"`
}

func (h *CommentHandler) Create(w http.ResponseWriter, r *http.Request) {
	schemeID, ok := h.resolveScheme(w, r)
	if !ok {
		return
	}

	var req createCommentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if strings.TrimSpace(req.Text) == "" {
		respondFieldErrors(w, map[string]string{"text": "required"})
		return
	}

	c := &models.Comment{
		SchemeID: schemeID,
		AuthorID: middleware.GetUserID(r.Context()),
		Text:     req.Text,
	}
	if err := h.commentRepo.Create(r.Context(), c); err != nil {
		h.log.Error("create comment", zap.Error(err), zap.Int64("scheme_id", schemeID))
		respondError(w, http.StatusInternalServerError, "failed to create comment")
		return
	}

	// Re-read through the join so the payload carries the author's
	// username and avatar like every other comment.
	loaded, err := h.commentRepo.GetByID(r.Context(), c.ID)
	if err != nil {
		h.log.Error("reload comment", zap.Error(err), zap.Int64("comment_id", c.ID))
		respondError(w, http.StatusInternalServerError, "failed to load comment")
		return
	}
	respondJSON(w, http.StatusCreated, newCommentPayload(*loaded))
}
