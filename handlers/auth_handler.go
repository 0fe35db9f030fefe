package handlers

import (
	"net/http"
	"time"

	"github.com/arenaops/tournament-hub/middleware"
	"github.com/arenaops/tournament-hub/services"
	"github.com/golang-jwt/jwt/v4"
)

const tokenTTL = 24 * time.Hour

type AuthHandler struct {
	authService services.AuthService
	jwtSecret   []byte
}

func NewAuthHandler(authService services.AuthService, jwtSecret []byte) *AuthHandler {
	return &AuthHandler{authService: authService, jwtSecret: jwtSecret}
}

// Signup registers a new account.
// @Summary      Register a new user
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        input body services.SignupInput true "Signup payload"
// @Success      201 {object} models.User
// @Failure      400 {object} map[string]string
// @Failure      409 {object} map[string]string
// @Router       /auth/signup [post]
func (h *AuthHandler) Signup(w http.ResponseWriter, r *http.Request) {
	var input services.SignupInput
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}
	if input.Email == "" || input.Password == "" {
		errorResponse(w, r, http.StatusBadRequest, "email and password are required")
		return
	}

	user, err := h.authService.Signup(r.Context(), input)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusCreated, jsonResponse{"user": user}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// Login authenticates a user and issues a JWT.
// @Summary      Log in
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        input body services.LoginInput true "Login payload"
// @Success      200 {object} map[string]interface{}
// @Failure      401 {object} map[string]string
// @Router       /auth/login [post]
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var input services.LoginInput
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	user, err := h.authService.Login(r.Context(), input)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	now := time.Now()
	claims := jwt.MapClaims{
		"user_id": user.ID,
		"name":    user.Name,
		"iat":     now.Unix(),
		"exp":     now.Add(tokenTTL).Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(h.jwtSecret)
	if err != nil {
		serverErrorResponse(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"token": signed, "user": user}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// Me returns the authenticated user's profile.
// @Summary      Current user
// @Tags         auth
// @Produce      json
// @Security     BearerAuth
// @Success      200 {object} models.User
// @Failure      401 {object} map[string]string
// @Router       /auth/me [get]
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.GetUserIDFromContext(r.Context())
	if err != nil {
		unauthorizedResponse(w, r, "invalid or missing authentication token")
		return
	}

	user, err := h.authService.GetUserByID(r.Context(), userID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"user": user}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}
