package handler

import (
	"encoding/json"
	"net/http"

	"github.com/go-playground/validator/v10"

	"github.com/ganaa/loantrack/internal/domain"
	"github.com/ganaa/loantrack/internal/service"
	"github.com/ganaa/loantrack/pkg/response"
)

type AuthHandler struct {
	service   *service.AuthService
	validator *validator.Validate
}

func NewAuthHandler(service *service.AuthService) *AuthHandler {
	return &AuthHandler{
		service:   service,
		validator: validator.New(),
	}
}

// Register handles POST /api/auth/register
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var request domain.RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
		response.BadRequest(w, "Invalid request body")
		return
	}

	if err := h.validator.Struct(&request); err != nil {
		response.BadRequest(w, err.Error())
		return
	}

	result, err := h.service.Register(r.Context(), &request)
	if err != nil {
		response.ErrorFrom(w, err)
		return
	}

	response.Created(w, result)
}

// Login handles POST /api/auth/login
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var request domain.LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
		response.BadRequest(w, "Invalid request body")
		return
	}

	if err := h.validator.Struct(&request); err != nil {
		response.BadRequest(w, err.Error())
		return
	}

	result, err := h.service.Login(r.Context(), &request)
	if err != nil {
		response.ErrorFrom(w, err)
		return
	}

	response.Success(w, result)
}

// Me handles GET /api/auth/me
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	ownerID, ok := OwnerID(r)
	if !ok {
		response.Unauthorized(w, "Unauthorized")
		return
	}

	user, err := h.service.GetUser(r.Context(), ownerID)
	if err != nil {
		response.ErrorFrom(w, err)
		return
	}

	response.Success(w, user)
}

// Logout handles POST /api/auth/logout. Tokens are stateless, so this only
// acknowledges; the client drops its copy.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	response.Success(w, map[string]string{"message": "Logged out"})
}
