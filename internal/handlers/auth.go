package handlers

import (
	"database/sql"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"stitchery/internal/middleware"
	"stitchery/internal/repository"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

type AuthHandler struct {
	userRepo  *repository.UserRepository
	jwtSecret string
	log       *zap.Logger
}

func NewAuthHandler(userRepo *repository.UserRepository, jwtSecret string, log *zap.Logger) *AuthHandler {
	return &AuthHandler{userRepo: userRepo, jwtSecret: jwtSecret, log: log}
}

type registerRequest struct {
	Email    string `json:"email"`
	Username string `json:"username"`
	Password string `json:"password"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type tokenResponse struct {
	Token string      `json:"token"`
	User  userPayload `json:"user"`
}

func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	fields := make(map[string]string)
	req.Email = strings.TrimSpace(req.Email)
	req.Username = strings.TrimSpace(req.Username)
	if req.Email == "" || !strings.Contains(req.Email, "@") {
		fields["email"] = "a valid email is required"
	}
	if req.Username == "" {
		fields["username"] = "required"
	}
	if len(req.Password) < 6 {
		fields["password"] = "must be at least 6 characters"
	}
	if len(fields) > 0 {
		respondFieldErrors(w, fields)
		return
	}

	user, err := h.userRepo.Create(r.Context(), req.Email, req.Username, req.Password)
	if err != nil {
		if repository.IsUniqueViolation(err) {
			respondError(w, http.StatusConflict, "email or username already taken")
			return
		}
		h.log.Error("register user", zap.Error(err))
		respondError(w, http.StatusInternalServerError, "failed to create user")
		return
	}

	token, err := middleware.IssueToken(h.jwtSecret, user.ID, user.Username)
	if err != nil {
		h.log.Error("issue token", zap.Error(err))
		respondError(w, http.StatusInternalServerError, "failed to issue token")
		return
	}

	respondJSON(w, http.StatusCreated, tokenResponse{Token: token, User: newUserPayload(user)})
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	user, err := h.userRepo.GetByEmail(r.Context(), strings.TrimSpace(req.Email))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			respondError(w, http.StatusUnauthorized, "invalid email or password")
			return
		}
		h.log.Error("load user for login", zap.Error(err))
		respondError(w, http.StatusInternalServerError, "login failed")
		return
	}

	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)) != nil {
		respondError(w, http.StatusUnauthorized, "invalid email or password")
		return
	}

	token, err := middleware.IssueToken(h.jwtSecret, user.ID, user.Username)
	if err != nil {
		h.log.Error("issue token", zap.Error(err))
		respondError(w, http.StatusInternalServerError, "failed to issue token")
		return
	}

	respondJSON(w, http.StatusOK, tokenResponse{Token: token, User: newUserPayload(user)})
}
