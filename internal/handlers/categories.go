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

type CategoryHandler struct {
	categoryRepo *repository.CategoryRepository
	log          *zap.Logger
}

func NewCategoryHandler(cr *repository.CategoryRepository, log *zap.Logger) *CategoryHandler {
	return &CategoryHandler{categoryRepo: cr, log: log}
}

func (h *CategoryHandler) List(w http.ResponseWriter, r *http.Request) {
	categories, err := h.categoryRepo.GetAll(r.Context())
	if err != nil {
		h.log.Error("list categories", zap.Error(err))
		respondError(w, http.StatusInternalServerError, "failed to list categories")
		return
	}
	if categories == nil {
		categories = []models.Category{}
	}
	respondJSON(w, http.StatusOK, categories)
}

func (h *CategoryHandler) Retrieve(w http.ResponseWriter, r *http.Request) {
	id, ok := parseIDParam(r, "id")
	if !ok {
		respondError(w, http.StatusBadRequest, "invalid category id")
		return
	}
	c, err := h.categoryRepo.GetByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			respondError(w, http.StatusNotFound, "category not found")
			return
		}
		h.log.Error("get category", zap.Error(err))
		respondError(w, http.StatusInternalServerError, "failed to get category")
		return
	}
	respondJSON(w, http.StatusOK, c)
}

type categoryRequest struct {
	Name        string `json:"name"`
	Slug        string `json:"slug"`
	Description string `json:"description"`
}

func (h *CategoryHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req categoryRequest
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

	c := &models.Category{Name: req.Name, Slug: req.Slug, Description: req.Description}
	if err := h.categoryRepo.Create(r.Context(), c); err != nil {
		if repository.IsUniqueViolation(err) {
			respondError(w, http.StatusConflict, "category name and slug must be unique")
			return
		}
		h.log.Error("create category", zap.Error(err))
		respondError(w, http.StatusInternalServerError, "failed to create category")
		return
	}
	respondJSON(w, http.StatusCreated, c)
}

func (h *CategoryHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := parseIDParam(r, "id")
	if !ok {
		respondError(w, http.StatusBadRequest, "invalid category id")
		return
	}
	var req categoryRequest
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

	c := &models.Category{ID: id, Name: req.Name, Slug: req.Slug, Description: req.Description}
	if err := h.categoryRepo.Update(r.Context(), c); err != nil {
		switch {
		case errors.Is(err, sql.ErrNoRows):
			respondError(w, http.StatusNotFound, "category not found")
		case repository.IsUniqueViolation(err):
			respondError(w, http.StatusConflict, "category name and slug must be unique")
		default:
			h.log.Error("update category", zap.Error(err))
			respondError(w, http.StatusInternalServerError, "failed to update category")
		}
		return
	}
	respondJSON(w, http.StatusOK, c)
}

func (h *CategoryHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := parseIDParam(r, "id")
	if !ok {
		respondError(w, http.StatusBadRequest, "invalid category id")
		return
	}
	if err := h.categoryRepo.Delete(r.Context(), id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			respondError(w, http.StatusNotFound, "category not found")
			return
		}
		h.log.Error("delete category", zap.Error(err))
		respondError(w, http.StatusInternalServerError, "failed to delete category")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
