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

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

type UserHandler struct {
	userRepo   *repository.UserRepository
	schemeRepo *repository.SchemeRepository
	log        *zap.Logger
}

func NewUserHandler(ur *repository.UserRepository, sr *repository.SchemeRepository, log *zap.Logger) *UserHandler {
	return &UserHandler{userRepo: ur, schemeRepo: sr, log: log}
}

// Me returns the authenticated account, private fields included.
func (h *UserHandler) Me(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	u, err := h.userRepo.GetByID(r.Context(), userID)
	if err != nil {
		h.log.Error("load account", zap.Error(err), zap.Int64("user_id", userID))
		respondError(w, http.StatusInternalServerError, "failed to load account")
		return
	}
	respondJSON(w, http.StatusOK, newUserPayload(u))
}

type updateMeRequest struct {
	Username *string `json:"username"`
	Email    *string `json:"email"`
	Profile  *struct {
		Avatar         *string `json:"avatar"`
		Bio            *string `json:"bio"`
		Location       *string `json:"location"`
		SocialTelegram *string `json:"social_telegram"`
		SocialVK       *string `json:"social_vk"`
	} `json:"profile"`
}

// UpdateMe applies a partial self-update; omitted fields stay as they
// were. The request mirrors the GET shape, with profile fields nested.
func (h *UserHandler) UpdateMe(w http.ResponseWriter, r *http.Request) {
	var req updateMeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	fields := make(map[string]string)
	if req.Username != nil && strings.TrimSpace(*req.Username) == "" {
		fields["username"] = "must not be empty"
	}
	if req.Email != nil && !strings.Contains(*req.Email, "@") {
		fields["email"] = "must be a valid email address"
	}
	if len(fields) > 0 {
		respondFieldErrors(w, fields)
		return
	}

	userID := middleware.GetUserID(r.Context())
	params := repository.UpdateProfileParams{
		Username: req.Username,
		Email:    req.Email,
	}
	if req.Profile != nil {
		params.Avatar = req.Profile.Avatar
		params.Bio = req.Profile.Bio
		params.Location = req.Profile.Location
		params.SocialTelegram = req.Profile.SocialTelegram
		params.SocialVK = req.Profile.SocialVK
	}
	if err := h.userRepo.UpdateProfile(r.Context(), userID, params); err != nil {
		if repository.IsUniqueViolation(err) {
			respondError(w, http.StatusConflict, "email or username already taken")
			return
		}
		h.log.Error("update account", zap.Error(err), zap.Int64("user_id", userID))
		respondError(w, http.StatusInternalServerError, "failed to update account")
		return
	}

	u, err := h.userRepo.GetByID(r.Context(), userID)
	if err != nil {
		h.log.Error("reload account", zap.Error(err), zap.Int64("user_id", userID))
		respondError(w, http.StatusInternalServerError, "failed to load account")
		return
	}
	respondJSON(w, http.StatusOK, newUserPayload(u))
}

// Retrieve is the public profile page: account basics plus the user's
// public schemes, with the viewer's own like/favorite flags resolved.
func (h *UserHandler) Retrieve(w http.ResponseWriter, r *http.Request) {
	username := chi.URLParam(r, "username")
	if username == "" {
		respondError(w, http.StatusBadRequest, "invalid username")
		return
	}

	u, err := h.userRepo.GetByUsername(r.Context(), username)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			respondError(w, http.StatusNotFound, "user not found")
			return
		}
		h.log.Error("load user", zap.Error(err), zap.String("username", username))
		respondError(w, http.StatusInternalServerError, "failed to load user")
		return
	}

	// The scheme list takes the same page/page_size (and filter) params
	// as the catalog, so prolific profiles page rather than truncate.
	params := models.SchemeListParams{
		PublicOnly: true,
		AuthorID:   &u.ID,
		ViewerID:   middleware.GetUserID(r.Context()),
	}
	parseSchemeFilters(r.URL.Query(), &params)

	rows, total, err := h.schemeRepo.List(r.Context(), params)
	if err != nil {
		h.log.Error("load user schemes", zap.Error(err), zap.Int64("user_id", u.ID))
		respondError(w, http.StatusInternalServerError, "failed to load user")
		return
	}

	respondJSON(w, http.StatusOK, newPublicUserPayload(u, rows, total))
}
