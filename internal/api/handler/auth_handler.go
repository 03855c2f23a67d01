package handler

import (
	"net/http"

	"codedojo/internal/api/middleware"
	"codedojo/internal/app/service"
	"codedojo/internal/common"

	"github.com/go-chi/chi/v5"
)

type AuthHandler struct {
	authService *service.AuthService
}

func NewAuthHandler(authService *service.AuthService) *AuthHandler {
	return &AuthHandler{authService: authService}
}

type usernameResponse struct {
	Username string `json:"username"`
}

func (h *AuthHandler) RegisterRoutes(r chi.Router) {
	r.Post("/token", h.token)
	r.Post("/register", h.register)

	r.Group(func(authed chi.Router) {
		authed.Use(middleware.RequireUser)
		authed.Get("/me", h.me)
	})
}

// token is the form-encoded password grant.
func (h *AuthHandler) token(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		common.RespondWithError(w, http.StatusUnprocessableEntity, "Invalid form payload: "+err.Error())
		return
	}
	resp, err := h.authService.Login(r.Context(), r.PostForm.Get("username"), r.PostForm.Get("password"))
	if err != nil {
		common.RespondWithErr(w, err)
		return
	}
	common.RespondWithJSON(w, http.StatusOK, resp)
}

func (h *AuthHandler) register(w http.ResponseWriter, r *http.Request) {
	var req service.RegisterRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	user, err := h.authService.Register(r.Context(), req)
	if err != nil {
		common.RespondWithErr(w, err)
		return
	}
	common.RespondWithJSON(w, http.StatusOK, usernameResponse{Username: user.Username})
}

func (h *AuthHandler) me(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.GetUserFromContext(r.Context())
	common.RespondWithJSON(w, http.StatusOK, usernameResponse{Username: user.Username})
}
