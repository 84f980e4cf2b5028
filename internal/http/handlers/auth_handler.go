package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/eazyparking/parking-bookings/internal/domain"
	"github.com/eazyparking/parking-bookings/internal/http/middleware"
	"github.com/eazyparking/parking-bookings/internal/http/response"
	"github.com/eazyparking/parking-bookings/internal/service"
)

type AuthHandler struct {
	Auth service.AuthService
}

func NewAuthHandler(auth service.AuthService) *AuthHandler {
	return &AuthHandler{Auth: auth}
}

func (h *AuthHandler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Post("/register", h.register)
	r.Post("/login", h.login)
	return r
}

func (h *AuthHandler) AdminRoutes() chi.Router {
	r := chi.NewRouter()
	r.Post("/login", h.adminLogin)
	return r
}

func (h *AuthHandler) register(w http.ResponseWriter, r *http.Request) {
	var in domain.RegisterReq
	if err := decodeValid(r, &in); err != nil {
		response.FromError(w, err)
		return
	}

	user, err := h.Auth.Register(r.Context(), &in)
	if err != nil {
		response.FromError(w, err)
		return
	}
	response.JSON(w, http.StatusCreated, user.DTO())
}

func (h *AuthHandler) login(w http.ResponseWriter, r *http.Request) {
	h.loginWithRole(w, r, domain.RoleUser)
}

func (h *AuthHandler) adminLogin(w http.ResponseWriter, r *http.Request) {
	h.loginWithRole(w, r, domain.RoleAdmin)
}

func (h *AuthHandler) loginWithRole(w http.ResponseWriter, r *http.Request, role domain.Role) {
	var in domain.LoginReq
	if err := decodeValid(r, &in); err != nil {
		response.FromError(w, err)
		return
	}

	token, user, err := h.Auth.Login(r.Context(), &in, role)
	if err != nil {
		response.FromError(w, err)
		return
	}
	response.JSON(w, http.StatusOK, map[string]any{
		"token": token,
		"user":  user.DTO(),
	})
}

// Profile serves both the user and admin profile pages.
func (h *AuthHandler) Profile(w http.ResponseWriter, r *http.Request) {
	claims := middleware.Claims(r)
	if claims == nil {
		response.Unauthorized(w, "missing credentials")
		return
	}
	user, err := h.Auth.Profile(r.Context(), claims.Sub)
	if err != nil {
		response.FromError(w, err)
		return
	}
	response.JSON(w, http.StatusOK, user.DTO())
}
