package handlers

import (
	"net/http"

	"go.uber.org/zap"

	"ctdportal/application/services"
	"ctdportal/domain/core/entities"
	"ctdportal/domain/core/valueobjects"
	"ctdportal/interfaces/http/rest/middleware"
	apperrors "ctdportal/pkg/errors"
)

// DashboardPath is where a successful login lands.
const DashboardPath = "/dashboard"

// FormField describes one input of a form
type FormField struct {
	Name     string   `json:"name"`
	Type     string   `json:"type"`
	Required bool     `json:"required"`
	Options  []string `json:"options,omitempty"`
}

// FormSchema describes a form the client renders
type FormSchema struct {
	Action string      `json:"action"`
	Method string      `json:"method"`
	Fields []FormField `json:"fields"`
}

var loginForm = FormSchema{
	Action: "/login",
	Method: http.MethodPost,
	Fields: []FormField{
		{Name: "email", Type: "email", Required: true},
		{Name: "password", Type: "password", Required: true},
	},
}

func registerForm() FormSchema {
	roles := make([]string, 0, len(valueobjects.Roles))
	for _, r := range valueobjects.Roles {
		roles = append(roles, string(r))
	}
	return FormSchema{
		Action: "/register",
		Method: http.MethodPost,
		Fields: []FormField{
			{Name: "email", Type: "email", Required: true},
			{Name: "password", Type: "password", Required: true},
			{Name: "name", Type: "text", Required: true},
			{Name: "role", Type: "select", Required: true, Options: roles},
			{Name: "organization", Type: "text"},
		},
	}
}

// AuthHandler handles login, registration and logout
type AuthHandler struct {
	responder
	auth *services.AuthService
}

// NewAuthHandler creates a new auth handler
func NewAuthHandler(auth *services.AuthService, errors *apperrors.ErrorHandler, logger *zap.Logger) *AuthHandler {
	return &AuthHandler{responder: responder{errors: errors, logger: logger}, auth: auth}
}

// LoginForm handles GET /login
func (h *AuthHandler) LoginForm(w http.ResponseWriter, r *http.Request) {
	if s := sessionOf(r); s != nil && s.IsAuthenticated() {
		http.Redirect(w, r, DashboardPath, http.StatusFound)
		return
	}
	h.respondJSON(w, http.StatusOK, loginForm)
}

// RegisterForm handles GET /register
func (h *AuthHandler) RegisterForm(w http.ResponseWriter, r *http.Request) {
	h.respondJSON(w, http.StatusOK, registerForm())
}

// Login handles POST /login. Bad credentials are reported inline instead of
// redirecting back to the form.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req entities.LoginRequest
	if err := decode(r, &req); err != nil {
		h.errors.Handle(w, r, err)
		return
	}

	if _, err := h.auth.Login(r.Context(), sessionOf(r), req); err != nil {
		h.errors.Handle(w, r, err)
		return
	}

	http.Redirect(w, r, DashboardPath, http.StatusSeeOther)
}

// Register handles POST /register
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req entities.RegisterRequest
	if err := decode(r, &req); err != nil {
		h.errors.Handle(w, r, err)
		return
	}

	resp, err := h.auth.Register(r.Context(), sessionOf(r), req)
	if err != nil {
		h.errors.Handle(w, r, err)
		return
	}

	h.respondJSON(w, http.StatusCreated, resp)
}

// Logout handles POST /logout
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	if err := h.auth.Logout(sessionOf(r)); err != nil {
		h.errors.Handle(w, r, err)
		return
	}
	http.Redirect(w, r, middleware.LoginPath, http.StatusSeeOther)
}
