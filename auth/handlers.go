// Package auth, as part of the authentication module.
// This file, `handlers.go`, is responsible for handling HTTP requests related to authentication.
// It acts as the "Controller" layer, analogous to a Controller class in Nest.js (e.g., `AuthController`).
package auth

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/user/taskmanager-go/apperror"
	"github.com/user/taskmanager-go/response"
)

// Handlers wraps the Service to provide HTTP handlers.
type Handlers struct {
	service *Service
	tokens  Verifier
}

// NewHandlers creates a new Handlers instance. tokens guards the profile route.
func NewHandlers(service *Service, tokens Verifier) *Handlers {
	return &Handlers{service: service, tokens: tokens}
}

// RegisterRoutes mounts the auth endpoints on r (mounted at /api/auth).
func (h *Handlers) RegisterRoutes(r chi.Router) {
	r.Post("/register", h.HandleRegister())
	r.Post("/login", h.HandleLogin())
	r.With(Require(h.tokens)).Get("/profile", h.HandleProfile())
}

// The `godoc` comments (like `@Summary`, `@Tags`, etc.) are annotations used by
// `swaggo/swag` to generate OpenAPI/Swagger documentation.

// HandleRegister godoc
// @Summary User Registration
// @Description Registers a new user and returns it with a bearer token.
// @Tags Auth
// @Accept json
// @Produce json
// @Param registerBody body auth.RegisterRequest true "User registration details"
// @Success 201 {object} response.Envelope{data=auth.AuthResponse} "User registered successfully"
// @Failure 400 {object} response.ErrorResponse "Validation error"
// @Failure 409 {object} response.ErrorResponse "User with this email already exists"
// @Failure 500 {object} response.ErrorResponse "Internal Server Error"
// @Router /auth/register [post]
func (h *Handlers) HandleRegister() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req RegisterRequest
		if err := response.DecodeJSON(r, &req); err != nil {
			response.Error(w, r, err)
			return
		}

		res, err := h.service.Register(r.Context(), req)
		if err != nil {
			response.Error(w, r, err)
			return
		}
		response.Success(w, http.StatusCreated, res, "User registered successfully")
	}
}

// HandleLogin godoc
// @Summary User Login
// @Description Logs in an existing user and returns a bearer token.
// @Tags Auth
// @Accept json
// @Produce json
// @Param loginBody body auth.LoginRequest true "User login credentials"
// @Success 200 {object} response.Envelope{data=auth.AuthResponse} "Login successful"
// @Failure 400 {object} response.ErrorResponse "Validation error"
// @Failure 401 {object} response.ErrorResponse "Invalid email or password"
// @Failure 500 {object} response.ErrorResponse "Internal Server Error"
// @Router /auth/login [post]
func (h *Handlers) HandleLogin() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req LoginRequest
		if err := response.DecodeJSON(r, &req); err != nil {
			response.Error(w, r, err)
			return
		}

		res, err := h.service.Login(r.Context(), req)
		if err != nil {
			response.Error(w, r, err)
			return
		}
		response.Success(w, http.StatusOK, res, "Login successful")
	}
}

// HandleProfile godoc
// @Summary Current user profile
// @Description Returns the user behind the bearer token.
// @Tags Auth
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Envelope{data=users.User}
// @Failure 401 {object} response.ErrorResponse "Missing, expired or invalid token"
// @Failure 404 {object} response.ErrorResponse "User not found"
// @Failure 500 {object} response.ErrorResponse "Internal Server Error"
// @Router /auth/profile [get]
func (h *Handlers) HandleProfile() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := IdentityFrom(r.Context())
		if !ok {
			response.Error(w, r, apperror.NewUnauthorizedError("Access token required", nil))
			return
		}

		user, err := h.service.GetProfile(r.Context(), id.UserID)
		if err != nil {
			response.Error(w, r, err)
			return
		}
		response.Success(w, http.StatusOK, user, "")
	}
}
