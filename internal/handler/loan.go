package handler

import (
	"encoding/json"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"github.com/ganaa/loantrack/internal/domain"
	"github.com/ganaa/loantrack/internal/service"
	"github.com/ganaa/loantrack/pkg/response"
)

type LoanHandler struct {
	service   *service.LoanService
	validator *validator.Validate
}

func NewLoanHandler(service *service.LoanService) *LoanHandler {
	return &LoanHandler{
		service:   service,
		validator: validator.New(),
	}
}

// GetLoans handles GET /api/loans
func (h *LoanHandler) GetLoans(w http.ResponseWriter, r *http.Request) {
	ownerID, ok := OwnerID(r)
	if !ok {
		response.Unauthorized(w, "Unauthorized")
		return
	}

	loans, err := h.service.GetLoans(r.Context(), ownerID)
	if err != nil {
		response.ErrorFrom(w, err)
		return
	}

	response.Success(w, loans)
}

// GetLoan handles GET /api/loans/{id}
func (h *LoanHandler) GetLoan(w http.ResponseWriter, r *http.Request) {
	ownerID, ok := OwnerID(r)
	if !ok {
		response.Unauthorized(w, "Unauthorized")
		return
	}

	loanID, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	loan, err := h.service.GetLoan(r.Context(), loanID, ownerID)
	if err != nil {
		response.ErrorFrom(w, err)
		return
	}

	response.Success(w, loan)
}

// CreateLoan handles POST /api/loans
func (h *LoanHandler) CreateLoan(w http.ResponseWriter, r *http.Request) {
	ownerID, ok := OwnerID(r)
	if !ok {
		response.Unauthorized(w, "Unauthorized")
		return
	}

	var request domain.CreateLoanRequest
	if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
		response.BadRequest(w, "Invalid request body")
		return
	}

	if err := h.validator.Struct(&request); err != nil {
		response.BadRequest(w, err.Error())
		return
	}

	loan, err := h.service.CreateLoan(r.Context(), ownerID, &request)
	if err != nil {
		response.ErrorFrom(w, err)
		return
	}

	response.Created(w, loan)
}

// UpdateLoan handles PUT /api/loans/{id}
func (h *LoanHandler) UpdateLoan(w http.ResponseWriter, r *http.Request) {
	ownerID, ok := OwnerID(r)
	if !ok {
		response.Unauthorized(w, "Unauthorized")
		return
	}

	loanID, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	var request domain.UpdateLoanRequest
	if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
		response.BadRequest(w, "Invalid request body")
		return
	}

	loan, err := h.service.UpdateLoan(r.Context(), loanID, ownerID, &request)
	if err != nil {
		response.ErrorFrom(w, err)
		return
	}

	response.Success(w, loan)
}

// DeleteLoan handles DELETE /api/loans/{id}
func (h *LoanHandler) DeleteLoan(w http.ResponseWriter, r *http.Request) {
	ownerID, ok := OwnerID(r)
	if !ok {
		response.Unauthorized(w, "Unauthorized")
		return
	}

	loanID, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	if err := h.service.DeleteLoan(r.Context(), loanID, ownerID); err != nil {
		response.ErrorFrom(w, err)
		return
	}

	response.Success(w, map[string]string{"message": "Loan deleted successfully"})
}

// MarkPaid handles PATCH /api/loans/{id}/paid
func (h *LoanHandler) MarkPaid(w http.ResponseWriter, r *http.Request) {
	ownerID, ok := OwnerID(r)
	if !ok {
		response.Unauthorized(w, "Unauthorized")
		return
	}

	loanID, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	loan, err := h.service.MarkFullyPaid(r.Context(), loanID, ownerID)
	if err != nil {
		response.ErrorFrom(w, err)
		return
	}

	response.Success(w, loan)
}

// AddPayment handles POST /api/loans/{id}/payments
func (h *LoanHandler) AddPayment(w http.ResponseWriter, r *http.Request) {
	ownerID, ok := OwnerID(r)
	if !ok {
		response.Unauthorized(w, "Unauthorized")
		return
	}

	loanID, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	var request domain.AddPaymentRequest
	if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
		response.BadRequest(w, "Invalid request body")
		return
	}

	if err := h.validator.Struct(&request); err != nil {
		response.BadRequest(w, err.Error())
		return
	}

	loan, err := h.service.AddPayment(r.Context(), loanID, ownerID, &request)
	if err != nil {
		response.ErrorFrom(w, err)
		return
	}

	response.Success(w, loan)
}

// GetPayments handles GET /api/loans/{id}/payments
func (h *LoanHandler) GetPayments(w http.ResponseWriter, r *http.Request) {
	ownerID, ok := OwnerID(r)
	if !ok {
		response.Unauthorized(w, "Unauthorized")
		return
	}

	loanID, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	payments, err := h.service.GetPayments(r.Context(), loanID, ownerID)
	if err != nil {
		response.ErrorFrom(w, err)
		return
	}

	response.Success(w, payments)
}

// RemovePayment handles DELETE /api/loans/{id}/payments/{paymentId}
func (h *LoanHandler) RemovePayment(w http.ResponseWriter, r *http.Request) {
	ownerID, ok := OwnerID(r)
	if !ok {
		response.Unauthorized(w, "Unauthorized")
		return
	}

	loanID, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	paymentID, ok := pathID(w, r, "paymentId")
	if !ok {
		return
	}

	loan, err := h.service.RemovePayment(r.Context(), loanID, paymentID, ownerID)
	if err != nil {
		response.ErrorFrom(w, err)
		return
	}

	response.Success(w, loan)
}

// GetStats handles GET /api/loans/stats
func (h *LoanHandler) GetStats(w http.ResponseWriter, r *http.Request) {
	ownerID, ok := OwnerID(r)
	if !ok {
		response.Unauthorized(w, "Unauthorized")
		return
	}

	stats, err := h.service.GetStats(r.Context(), ownerID)
	if err != nil {
		response.ErrorFrom(w, err)
		return
	}

	response.Success(w, stats)
}

// pathID parses a uuid path variable, writing a 404 on malformed input so a
// bad id is indistinguishable from a missing record.
func pathID(w http.ResponseWriter, r *http.Request, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(mux.Vars(r)[name])
	if err != nil {
		response.NotFound(w, "Not found")
		return uuid.Nil, false
	}
	return id, true
}
