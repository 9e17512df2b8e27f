package handlers

import (
	"database/sql"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"stitchery/internal/models"
	"stitchery/internal/repository"

	"go.uber.org/zap"
)

type TagHandler struct {
	tagRepo *repository.TagRepository
	log     *zap.Logger
}

func NewTagHandler(tr *repository.TagRepository, log *zap.Logger) *TagHandler {
	return &TagHandler{tagRepo: tr, log: log}
}

func (h *TagHandler) List(w http.ResponseWriter, r *http.Request) {
	tags, err := h.tagRepo.GetAll(r.Context())
	if err != nil {
		h.log.Error("list tags", zap.Error(err))
		respondError(w, http.StatusInternalServerError, "failed to list tags")
		return
	}
	if tags == nil {
		tags = []models.Tag{}
	}
	respondJSON(w, http.StatusOK, tags)
}

func (h *TagHandler) Retrieve(w http.ResponseWriter, r *http.Request) {
	id, ok := parseIDParam(r, "id")
	if !ok {
		respondError(w, http.StatusBadRequest, "invalid tag id")
		return
	}
	t, err := h.tagRepo.GetByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			respondError(w, http.StatusNotFound, "tag not found")
			return
		}
		h.log.Error("get tag", zap.Error(err))
		respondError(w, http.StatusInternalServerError, "failed to get tag")
		return
	}
	respondJSON(w, http.StatusOK, t)
}

type tagRequest struct {
	Name string `json:"name"`
	Slug string `json:"slug"`
}

func (h *TagHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req tagRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		respondFieldErrors(w, map[string]string{"name": "required"})
		return
	}
	if req.Slug == "" {
		req.Slug = models.Slugify(req.Name)
	}

	t := &models.Tag{Name: req.Name, Slug: req.Slug}
	if err := h.tagRepo.Create(r.Context(), t); err != nil {
		if repository.IsUniqueViolation(err) {
			respondError(w, http.StatusConflict, "tag name and slug must be unique")
			return
		}
		h.log.Error("create tag", zap.Error(err))
		respondError(w, http.StatusInternalServerError, "failed to create tag")
		return
	}
	respondJSON(w, http.StatusCreated, t)
}

func (h *TagHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := parseIDParam(r, "id")
	if !ok {
		respondError(w, http.StatusBadRequest, "invalid tag id")
		return
	}
	var req tagRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		respondFieldErrors(w, map[string]string{"name": "required"})
		return
	}
	if req.Slug == "" {
		req.Slug = models.Slugify(req.Name)
	}

	t := &models.Tag{ID: id, Name: req.Name, Slug: req.Slug}
	if err := h.tagRepo.Update(r.Context(), t); err != nil {
		switch {
		case errors.Is(err, sql.ErrNoRows):
			respondError(w, http.StatusNotFound, "tag not found")
		case repository.IsUniqueViolation(err):
			respondError(w, http.StatusConflict, "tag name and slug must be unique")
		default:
			h.log.Error("update tag", zap.Error(err))
			respondError(w, http.StatusInternalServerError, "failed to update tag")
		}
		return
	}
	respondJSON(w, http.StatusOK, t)
}

func (h *TagHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := parseIDParam(r, "id")
	if !ok {
		respondError(w, http.StatusBadRequest, "invalid tag id")
		return
	}
	if err := h.tagRepo.Delete(r.Context(), id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			respondError(w, http.StatusNotFound, "tag not found")
			return
		}
		h.log.Error("delete tag", zap.Error(err))
		respondError(w, http.StatusInternalServerError, "failed to delete tag")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
