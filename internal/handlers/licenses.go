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

type LicenseHandler struct {
	licenseRepo *repository.LicenseRepository
	log         *zap.Logger
}

func NewLicenseHandler(lr *repository.LicenseRepository, log *zap.Logger) *LicenseHandler {
	return &LicenseHandler{licenseRepo: lr, log: log}
}

func (h *LicenseHandler) List(w http.ResponseWriter, r *http.Request) {
	licenses, err := h.licenseRepo.GetAll(r.Context())
	if err != nil {
		h.log.Error("list licenses", zap.Error(err))
		respondError(w, http.StatusInternalServerError, "failed to list licenses")
		return
	}
	if licenses == nil {
		licenses = []models.License{}
	}
	respondJSON(w, http.StatusOK, licenses)
}

func (h *LicenseHandler) Retrieve(w http.ResponseWriter, r *http.Request) {
	id, ok := parseIDParam(r, "id")
	if !ok {
		respondError(w, http.StatusBadRequest, "invalid license id")
		return
	}
	l, err := h.licenseRepo.GetByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			respondError(w, http.StatusNotFound, "license not found")
			return
		}
		h.log.Error("get license", zap.Error(err))
		respondError(w, http.StatusInternalServerError, "failed to get license")
		return
	}
	respondJSON(w, http.StatusOK, l)
}

type licenseRequest struct {
	Name        string `json:"name"`
	ShortName   string `json:"short_name"`
	URL         string `json:"url"`
	Description string `json:"description"`
}

func (req *licenseRequest) validate() map[string]string {
	fields := make(map[string]string)
	if strings.TrimSpace(req.Name) == "" {
		fields["name"] = "required"
	}
	if strings.TrimSpace(req.ShortName) == "" {
		fields["short_name"] = "required"
	}
	if strings.TrimSpace(req.URL) == "" {
		fields["url"] = "required"
	}
	return fields
}

func (h *LicenseHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req licenseRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if fields := req.validate(); len(fields) > 0 {
		respondFieldErrors(w, fields)
		return
	}

	l := &models.License{
		Name:        strings.TrimSpace(req.Name),
		ShortName:   strings.TrimSpace(req.ShortName),
		URL:         strings.TrimSpace(req.URL),
		Description: req.Description,
	}
	if err := h.licenseRepo.Create(r.Context(), l); err != nil {
		if repository.IsUniqueViolation(err) {
			respondError(w, http.StatusConflict, "license name, short name and url must be unique")
			return
		}
		h.log.Error("create license", zap.Error(err))
		respondError(w, http.StatusInternalServerError, "failed to create license")
		return
	}
	respondJSON(w, http.StatusCreated, l)
}

func (h *LicenseHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := parseIDParam(r, "id")
	if !ok {
		respondError(w, http.StatusBadRequest, "invalid license id")
		return
	}
	var req licenseRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if fields := req.validate(); len(fields) > 0 {
		respondFieldErrors(w, fields)
		return
	}

	l := &models.License{
		ID:          id,
		Name:        strings.TrimSpace(req.Name),
		ShortName:   strings.TrimSpace(req.ShortName),
		URL:         strings.TrimSpace(req.URL),
		Description: req.Description,
	}
	if err := h.licenseRepo.Update(r.Context(), l); err != nil {
		switch {
		case errors.Is(err, sql.ErrNoRows):
			respondError(w, http.StatusNotFound, "license not found")
		case repository.IsUniqueViolation(err):
			respondError(w, http.StatusConflict, "license name, short name and url must be unique")
		default:
			h.log.Error("update license", zap.Error(err))
			respondError(w, http.StatusInternalServerError, "failed to update license")
		}
		return
	}
	respondJSON(w, http.StatusOK, l)
}

func (h *LicenseHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := parseIDParam(r, "id")
	if !ok {
		respondError(w, http.StatusBadRequest, "invalid license id")
		return
	}
	if err := h.licenseRepo.Delete(r.Context(), id); err != nil {
		switch {
		case errors.Is(err, sql.ErrNoRows):
			respondError(w, http.StatusNotFound, "license not found")
		case repository.IsForeignKeyViolation(err):
			respondError(w, http.StatusConflict, "license is referenced by existing schemes")
		default:
			h.log.Error("delete license", zap.Error(err))
			respondError(w, http.StatusInternalServerError, "failed to delete license")
		}
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
