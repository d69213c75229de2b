package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// FullSettlementDescription marks the payment synthesized when a loan is
// closed out in one step.
const FullSettlementDescription = "Full settlement"

type Payment struct {
	ID          uuid.UUID       `json:"id" db:"id"`
	LoanID      uuid.UUID       `json:"loanId" db:"loan_id"`
	Amount      decimal.Decimal `json:"amount" db:"amount"`
	Description string          `json:"description" db:"description"`
	PaymentDate time.Time       `json:"paymentDate" db:"payment_date"`
	CreatedAt   time.Time       `json:"createdAt" db:"created_at"`
}

type AddPaymentRequest struct {
	Amount      decimal.Decimal `json:"amount" validate:"required"`
	Description string          `json:"description"`
	PaymentDate *time.Time      `json:"paymentDate"`
}
