package handler

import (
	"encoding/json"
	"net/http"

	"github.com/go-playground/validator/v10"

	"github.com/ganaa/loantrack/internal/domain"
	"github.com/ganaa/loantrack/internal/service"
	"github.com/ganaa/loantrack/pkg/response"
)

type CustomerHandler struct {
	service   *service.CustomerService
	validator *validator.Validate
}

func NewCustomerHandler(service *service.CustomerService) *CustomerHandler {
	return &CustomerHandler{
		service:   service,
		validator: validator.New(),
	}
}

// GetCustomers handles GET /api/customers
func (h *CustomerHandler) GetCustomers(w http.ResponseWriter, r *http.Request) {
	ownerID, ok := OwnerID(r)
	if !ok {
		response.Unauthorized(w, "Unauthorized")
		return
	}

	customers, err := h.service.GetCustomers(r.Context(), ownerID)
	if err != nil {
		response.ErrorFrom(w, err)
		return
	}

	response.Success(w, customers)
}

// GetCustomer handles GET /api/customers/{id}
func (h *CustomerHandler) GetCustomer(w http.ResponseWriter, r *http.Request) {
	ownerID, ok := OwnerID(r)
	if !ok {
		response.Unauthorized(w, "Unauthorized")
		return
	}

	customerID, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	customer, err := h.service.GetCustomer(r.Context(), customerID, ownerID)
	if err != nil {
		response.ErrorFrom(w, err)
		return
	}

	response.Success(w, customer)
}

// CreateCustomer handles POST /api/customers
func (h *CustomerHandler) CreateCustomer(w http.ResponseWriter, r *http.Request) {
	ownerID, ok := OwnerID(r)
	if !ok {
		response.Unauthorized(w, "Unauthorized")
		return
	}

	var request domain.CreateCustomerRequest
	if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
		response.BadRequest(w, "Invalid request body")
		return
	}

	if err := h.validator.Struct(&request); err != nil {
		response.BadRequest(w, err.Error())
		return
	}

	customer, err := h.service.CreateCustomer(r.Context(), ownerID, &request)
	if err != nil {
		response.ErrorFrom(w, err)
		return
	}

	response.Created(w, customer)
}

// UpdateCustomer handles PUT /api/customers/{id}
func (h *CustomerHandler) UpdateCustomer(w http.ResponseWriter, r *http.Request) {
	ownerID, ok := OwnerID(r)
	if !ok {
		response.Unauthorized(w, "Unauthorized")
		return
	}

	customerID, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	var request domain.UpdateCustomerRequest
	if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
		response.BadRequest(w, "Invalid request body")
		return
	}

	customer, err := h.service.UpdateCustomer(r.Context(), customerID, ownerID, &request)
	if err != nil {
		response.ErrorFrom(w, err)
		return
	}

	response.Success(w, customer)
}

// DeleteCustomer handles DELETE /api/customers/{id}
func (h *CustomerHandler) DeleteCustomer(w http.ResponseWriter, r *http.Request) {
	ownerID, ok := OwnerID(r)
	if !ok {
		response.Unauthorized(w, "Unauthorized")
		return
	}

	customerID, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	if err := h.service.DeleteCustomer(r.Context(), customerID, ownerID); err != nil {
		response.ErrorFrom(w, err)
		return
	}

	response.Success(w, map[string]string{"message": "Customer deleted successfully"})
}

// GetCustomerStats handles GET /api/customers/{id}/stats
func (h *CustomerHandler) GetCustomerStats(w http.ResponseWriter, r *http.Request) {
	ownerID, ok := OwnerID(r)
	if !ok {
		response.Unauthorized(w, "Unauthorized")
		return
	}

	customerID, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	stats, err := h.service.GetCustomerStats(r.Context(), customerID, ownerID)
	if err != nil {
		response.ErrorFrom(w, err)
		return
	}

	response.Success(w, stats)
}
