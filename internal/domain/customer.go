package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Customer is a registered counterparty owned by a single user. A loan may
// reference a customer or carry a free-text party name instead.
type Customer struct {
	ID        uuid.UUID `json:"id" db:"id"`
	UserID    uuid.UUID `json:"userId" db:"user_id"`
	Name      string    `json:"name" db:"name"`
	Register  string    `json:"register" db:"register"`
	Phone     string    `json:"phone" db:"phone"`
	CreatedAt time.Time `json:"createdAt" db:"created_at"`
	UpdatedAt time.Time `json:"updatedAt" db:"updated_at"`

	LoanCount int     `json:"loanCount" db:"loan_count"`
	Loans     []*Loan `json:"loans,omitempty" db:"-"`
}

type CreateCustomerRequest struct {
	Name     string `json:"name" validate:"required"`
	Register string `json:"register"`
	Phone    string `json:"phone"`
}

type UpdateCustomerRequest struct {
	Name     *string `json:"name"`
	Register *string `json:"register"`
	Phone    *string `json:"phone"`
}

type CustomerStatsBucket struct {
	Count       int             `json:"count"`
	TotalAmount decimal.Decimal `json:"totalAmount"`
	Remaining   decimal.Decimal `json:"remaining"`
}

// CustomerStats summarizes every loan tied to one customer, regardless of
// status, split by direction.
type CustomerStats struct {
	Customer   *Customer           `json:"customer"`
	Borrowed   CustomerStatsBucket `json:"borrowed"`
	Lent       CustomerStatsBucket `json:"lent"`
	NetBalance decimal.Decimal     `json:"netBalance"`
}
