package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const (
	LoanStatusActive  = "ACTIVE"
	LoanStatusPaid    = "PAID"
	LoanStatusOverdue = "OVERDUE"

	LoanTypeBorrowed = "BORROWED"
	LoanTypeLent     = "LENT"
)

// Loan represents a tracked debt between the owning user and a counterparty.
// RemainingAmount is maintained incrementally by the payment operations; it
// is not recomputed from the payment rows on read.
type Loan struct {
	ID              uuid.UUID       `json:"id" db:"id"`
	UserID          uuid.UUID       `json:"userId" db:"user_id"`
	CustomerID      *uuid.UUID      `json:"customerId" db:"customer_id"`
	OtherParty      string          `json:"otherParty" db:"other_party"`
	Amount          decimal.Decimal `json:"amount" db:"amount"`
	RemainingAmount decimal.Decimal `json:"remainingAmount" db:"remaining_amount"`
	Type            string          `json:"type" db:"type"`
	Status          string          `json:"status" db:"status"`
	Description     string          `json:"description" db:"description"`
	LoanDate        time.Time       `json:"loanDate" db:"loan_date"`
	DueDate         *time.Time      `json:"dueDate" db:"due_date"`
	CreatedAt       time.Time       `json:"createdAt" db:"created_at"`
	UpdatedAt       time.Time       `json:"updatedAt" db:"updated_at"`

	Customer *Customer  `json:"customer,omitempty" db:"-"`
	Payments []*Payment `json:"payments" db:"-"`
}

// DTOs for requests and responses

type CreateLoanRequest struct {
	Amount      decimal.Decimal `json:"amount" validate:"required"`
	Type        string          `json:"type" validate:"required,oneof=BORROWED LENT"`
	CustomerID  *uuid.UUID      `json:"customerId"`
	OtherParty  string          `json:"otherParty"`
	Description string          `json:"description"`
	LoanDate    *time.Time      `json:"loanDate"`
	DueDate     *time.Time      `json:"dueDate"`
}

// UpdateLoanRequest carries a partial loan edit. Nil fields are left
// untouched; a changed Amount triggers the remaining-balance recompute.
type UpdateLoanRequest struct {
	Amount      *decimal.Decimal `json:"amount"`
	CustomerID  *uuid.UUID       `json:"customerId"`
	OtherParty  *string          `json:"otherParty"`
	Description *string          `json:"description"`
	LoanDate    *time.Time       `json:"loanDate"`
	DueDate     *time.Time       `json:"dueDate"`
	Status      *string          `json:"status"`
}

type LoanStatsBucket struct {
	Count int             `json:"count"`
	Total decimal.Decimal `json:"total"`
}

// LoanStats aggregates the owner's ACTIVE loans by direction.
type LoanStats struct {
	Borrowed   LoanStatsBucket `json:"borrowed"`
	Lent       LoanStatsBucket `json:"lent"`
	NetBalance decimal.Decimal `json:"netBalance"`
}

// IsValidLoanType reports whether t is one of the two loan directions.
func IsValidLoanType(t string) bool {
	return t == LoanTypeBorrowed || t == LoanTypeLent
}

// IsValidLoanStatus reports whether s is a known loan status.
func IsValidLoanStatus(s string) bool {
	return s == LoanStatusActive || s == LoanStatusPaid || s == LoanStatusOverdue
}
