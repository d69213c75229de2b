package repository

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/ganaa/loantrack/internal/domain"
)

// ErrInsufficientBalance is returned by ApplyPayment when the conditional
// balance decrement matched no row, i.e. a concurrent payment drained the
// loan between the caller's read and this write.
var ErrInsufficientBalance = errors.New("insufficient remaining balance")

// Every method is scoped to the owning user; a record that exists but belongs
// to someone else behaves exactly like a missing record (sql.ErrNoRows).

// LoanRepository defines the interface for loan data operations
type LoanRepository interface {
	// Create persists a new loan
	Create(ctx context.Context, loan *domain.Loan) error

	// GetByID retrieves a loan with its customer, scoped to the owner
	GetByID(ctx context.Context, loanID, ownerID uuid.UUID) (*domain.Loan, error)

	// ListByOwner retrieves all of the owner's loans, newest loan date first
	ListByOwner(ctx context.Context, ownerID uuid.UUID) ([]*domain.Loan, error)

	// ListActiveByOwner retrieves the owner's ACTIVE loans
	ListActiveByOwner(ctx context.Context, ownerID uuid.UUID) ([]*domain.Loan, error)

	// ListByCustomer retrieves every loan referencing the given customer
	ListByCustomer(ctx context.Context, customerID, ownerID uuid.UUID) ([]*domain.Loan, error)

	// CountByCustomer counts loans referencing the given customer
	CountByCustomer(ctx context.Context, customerID, ownerID uuid.UUID) (int, error)

	// Update writes the mutable loan fields
	Update(ctx context.Context, loan *domain.Loan) error

	// Delete removes a loan and all of its payments in one transaction
	Delete(ctx context.Context, loanID, ownerID uuid.UUID) error

	// MarkOverdue flags ACTIVE loans whose due date has passed as OVERDUE
	// and returns the number of loans flagged
	MarkOverdue(ctx context.Context, asOf time.Time) (int64, error)
}

// PaymentRepository defines the interface for payment data operations.
// The mutating methods pair the payment row change with the loan balance
// change in a single transaction.
type PaymentRepository interface {
	// ApplyPayment inserts the payment and decrements the loan's remaining
	// balance, flipping status to PAID when the balance reaches zero. The
	// decrement is conditional on remaining_amount >= amount; when no row
	// matches, ErrInsufficientBalance is returned and nothing is written.
	ApplyPayment(ctx context.Context, payment *domain.Payment, ownerID uuid.UUID) error

	// ReversePayment deletes the payment, restores its amount to the loan's
	// remaining balance and resets the loan status to ACTIVE.
	ReversePayment(ctx context.Context, loanID, paymentID, ownerID uuid.UUID) error

	// Settle zeroes the loan's balance and marks it PAID. When the balance
	// was above zero a settlement payment covering it is inserted and
	// returned; otherwise the returned payment is nil.
	Settle(ctx context.Context, loanID, ownerID uuid.UUID, paymentDate time.Time) (*domain.Payment, error)

	// GetByID retrieves a payment belonging to the given loan
	GetByID(ctx context.Context, paymentID, loanID, ownerID uuid.UUID) (*domain.Payment, error)

	// ListByLoan retrieves a loan's payments, newest payment date first
	ListByLoan(ctx context.Context, loanID, ownerID uuid.UUID) ([]*domain.Payment, error)
}

// CustomerRepository defines the interface for customer data operations
type CustomerRepository interface {
	// Create persists a new customer
	Create(ctx context.Context, customer *domain.Customer) error

	// GetByID retrieves a customer scoped to the owner
	GetByID(ctx context.Context, customerID, ownerID uuid.UUID) (*domain.Customer, error)

	// ListByOwner retrieves the owner's customers with loan counts, newest first
	ListByOwner(ctx context.Context, ownerID uuid.UUID) ([]*domain.Customer, error)

	// FindByRegister looks up a customer by registration number, excluding
	// excludeID when non-nil (used for duplicate checks on update)
	FindByRegister(ctx context.Context, ownerID uuid.UUID, register string, excludeID *uuid.UUID) (*domain.Customer, error)

	// Update writes the mutable customer fields
	Update(ctx context.Context, customer *domain.Customer) error

	// Delete removes a customer
	Delete(ctx context.Context, customerID, ownerID uuid.UUID) error
}

// UserRepository defines the interface for user data operations
type UserRepository interface {
	// Create persists a new user
	Create(ctx context.Context, user *domain.User) error

	// GetByID retrieves a user by id
	GetByID(ctx context.Context, userID uuid.UUID) (*domain.User, error)

	// GetByEmail retrieves a user by email
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
}
