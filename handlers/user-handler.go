package handlers

import (
	"errors"
	"net/http"

	"taskboard-service/logging"
	"taskboard-service/middleware"
	"taskboard-service/services"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type UserHandler struct {
	UserService   *services.UserService
	JWTService    *services.JWTService
	SecureCookies bool
}

func NewUserHandler(userService *services.UserService, jwtService *services.JWTService, secureCookies bool) *UserHandler {
	return &UserHandler{
		UserService:   userService,
		JWTService:    jwtService,
		SecureCookies: secureCookies,
	}
}

type registerRequest struct {
	Name     string `json:"name" validate:"required,min=2"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=6"`
	Role     string `json:"role" validate:"omitempty,oneof=member manager"`
}

type loginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type authResponse struct {
	ID    primitive.ObjectID `json:"id"`
	Name  string             `json:"name"`
	Email string             `json:"email"`
	Role  string             `json:"role"`
}

func (h *UserHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request payload")
		return
	}

	user, err := h.UserService.Register(r.Context(), req.Name, req.Email, req.Password, req.Role)
	if err != nil {
		if errors.Is(err, services.ErrEmailTaken) {
			writeError(w, http.StatusBadRequest, "User already exists")
			return
		}
		logging.Logger.Errorf("Event ID: REGISTER_FAILED, Description: %v", err)
		writeError(w, http.StatusInternalServerError, "Failed to register user")
		return
	}

	token, err := h.JWTService.GenerateSessionToken(user.ID.Hex())
	if err != nil {
		logging.Logger.Errorf("Event ID: SESSION_ISSUE_FAILED, Description: %v", err)
		writeError(w, http.StatusInternalServerError, "Failed to issue session")
		return
	}

	h.setSessionCookie(w, token)
	writeJSON(w, http.StatusCreated, authResponse{ID: user.ID, Name: user.Name, Email: user.Email, Role: user.Role})
}

func (h *UserHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request payload")
		return
	}

	user, token, err := h.UserService.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		if errors.Is(err, services.ErrInvalidCredentials) {
			writeError(w, http.StatusUnauthorized, "Invalid credentials")
			return
		}
		logging.Logger.Errorf("Event ID: LOGIN_FAILED, Description: %v", err)
		writeError(w, http.StatusInternalServerError, "Failed to log in")
		return
	}

	h.setSessionCookie(w, token)
	writeJSON(w, http.StatusOK, authResponse{ID: user.ID, Name: user.Name, Email: user.Email, Role: user.Role})
}

// Logout clears the client-held cookie. Stateless tokens cannot be revoked
// server-side; an already-issued token stays valid until it expires.
func (h *UserHandler) Logout(w http.ResponseWriter, r *http.Request) {
	h.clearSessionCookie(w)
	writeJSON(w, http.StatusOK, map[string]string{"message": "Logged out successfully"})
}

func (h *UserHandler) Profile(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "Unauthenticated")
		return
	}

	user, err := h.UserService.GetProfile(r.Context(), userID)
	if err != nil {
		if errors.Is(err, services.ErrUserNotFound) {
			writeError(w, http.StatusNotFound, "User not found")
			return
		}
		logging.Logger.Errorf("Event ID: PROFILE_FETCH_FAILED, Description: %v", err)
		writeError(w, http.StatusInternalServerError, "Failed to fetch profile")
		return
	}

	writeJSON(w, http.StatusOK, user)
}

func (h *UserHandler) AllUsers(w http.ResponseWriter, r *http.Request) {
	users, err := h.UserService.ListUsers(r.Context())
	if err != nil {
		logging.Logger.Errorf("Event ID: USER_LIST_FAILED, Description: %v", err)
		writeError(w, http.StatusInternalServerError, "Failed to fetch users")
		return
	}

	writeJSON(w, http.StatusOK, users)
}

func (h *UserHandler) setSessionCookie(w http.ResponseWriter, token string) {
	http.SetCookie(w, &http.Cookie{
		Name:     middleware.SessionCookieName,
		Value:    token,
		Path:     "/",
		MaxAge:   int(h.JWTService.TTL().Seconds()),
		HttpOnly: true,
		Secure:   h.SecureCookies,
		SameSite: http.SameSiteNoneMode,
	})
}

func (h *UserHandler) clearSessionCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     middleware.SessionCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   h.SecureCookies,
		SameSite: http.SameSiteNoneMode,
	})
}
