package service

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/ganaa/loantrack/internal/cache"
	"github.com/ganaa/loantrack/internal/domain"
	"github.com/ganaa/loantrack/internal/repository"
	apperrors "github.com/ganaa/loantrack/pkg/errors"
)

// LoanService owns the loan balance accounting rules: the remaining balance
// starts at the principal, every payment decrements it inside one database
// transaction, and status follows the balance except where an operation
// forces it.
type LoanService struct {
	loanRepo     repository.LoanRepository
	paymentRepo  repository.PaymentRepository
	customerRepo repository.CustomerRepository
	stats        *cache.StatsCache
}

func NewLoanService(
	loanRepo repository.LoanRepository,
	paymentRepo repository.PaymentRepository,
	customerRepo repository.CustomerRepository,
	stats *cache.StatsCache,
) *LoanService {
	return &LoanService{
		loanRepo:     loanRepo,
		paymentRepo:  paymentRepo,
		customerRepo: customerRepo,
		stats:        stats,
	}
}

// CreateLoan opens a new loan with the full principal outstanding.
func (s *LoanService) CreateLoan(ctx context.Context, ownerID uuid.UUID, request *domain.CreateLoanRequest) (*domain.Loan, error) {
	if !request.Amount.IsPositive() {
		return nil, apperrors.WrapInvalidAmount("loan amount must be positive")
	}

	if !domain.IsValidLoanType(request.Type) {
		return nil, apperrors.WrapInvalidLoanType(request.Type)
	}

	if request.CustomerID == nil && request.OtherParty == "" {
		return nil, apperrors.WrapMissingCounterparty()
	}

	if request.CustomerID != nil {
		if _, err := s.customerRepo.GetByID(ctx, *request.CustomerID, ownerID); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return nil, apperrors.WrapCustomerNotFound()
			}
			return nil, apperrors.WrapDatabaseError(err)
		}
	}

	loanDate := time.Now()
	if request.LoanDate != nil {
		loanDate = *request.LoanDate
	}

	loan := &domain.Loan{
		ID:              uuid.New(),
		UserID:          ownerID,
		CustomerID:      request.CustomerID,
		OtherParty:      request.OtherParty,
		Amount:          request.Amount,
		RemainingAmount: request.Amount,
		Type:            request.Type,
		Status:          domain.LoanStatusActive,
		Description:     request.Description,
		LoanDate:        loanDate,
		DueDate:         request.DueDate,
		Payments:        []*domain.Payment{},
	}

	if err := s.loanRepo.Create(ctx, loan); err != nil {
		return nil, apperrors.WrapDatabaseError(err)
	}

	s.stats.Invalidate(ctx, ownerID)

	return s.GetLoan(ctx, loan.ID, ownerID)
}

// GetLoans returns all of the owner's loans with their payment histories.
func (s *LoanService) GetLoans(ctx context.Context, ownerID uuid.UUID) ([]*domain.Loan, error) {
	loans, err := s.loanRepo.ListByOwner(ctx, ownerID)
	if err != nil {
		return nil, apperrors.WrapDatabaseError(err)
	}

	for _, loan := range loans {
		if err := s.attachPayments(ctx, loan, ownerID); err != nil {
			return nil, err
		}
	}

	return loans, nil
}

// GetLoan returns one loan with its payment history, newest payment first.
func (s *LoanService) GetLoan(ctx context.Context, loanID, ownerID uuid.UUID) (*domain.Loan, error) {
	loan, err := s.findLoan(ctx, loanID, ownerID)
	if err != nil {
		return nil, err
	}

	if err := s.attachPayments(ctx, loan, ownerID); err != nil {
		return nil, err
	}

	return loan, nil
}

// UpdateLoan applies a partial edit. A changed principal re-derives the
// remaining balance from what has been paid so far, clamped at zero.
func (s *LoanService) UpdateLoan(ctx context.Context, loanID, ownerID uuid.UUID, request *domain.UpdateLoanRequest) (*domain.Loan, error) {
	loan, err := s.findLoan(ctx, loanID, ownerID)
	if err != nil {
		return nil, err
	}

	if request.CustomerID != nil {
		if *request.CustomerID == uuid.Nil {
			// Zero id clears the customer reference.
			loan.CustomerID = nil
		} else {
			if _, err := s.customerRepo.GetByID(ctx, *request.CustomerID, ownerID); err != nil {
				if errors.Is(err, sql.ErrNoRows) {
					return nil, apperrors.WrapCustomerNotFound()
				}
				return nil, apperrors.WrapDatabaseError(err)
			}
			loan.CustomerID = request.CustomerID
		}
	}

	if request.Amount != nil {
		if !request.Amount.IsPositive() {
			return nil, apperrors.WrapInvalidAmount("loan amount must be positive")
		}

		// The one place the balance is derived instead of incremented.
		// totalPaid can exceed the new principal; the balance clamps at
		// zero and the payment history is left as it stands.
		totalPaid := loan.Amount.Sub(loan.RemainingAmount)
		newRemaining := request.Amount.Sub(totalPaid)
		if newRemaining.IsNegative() {
			newRemaining = decimal.Zero
		}

		loan.Amount = *request.Amount
		loan.RemainingAmount = newRemaining
	}

	if request.OtherParty != nil {
		loan.OtherParty = *request.OtherParty
	}
	if request.Description != nil {
		loan.Description = *request.Description
	}
	if request.LoanDate != nil {
		loan.LoanDate = *request.LoanDate
	}
	if request.DueDate != nil {
		loan.DueDate = request.DueDate
	}
	if request.Status != nil {
		if !domain.IsValidLoanStatus(*request.Status) {
			return nil, apperrors.WrapInvalidStatus(*request.Status)
		}
		// No cross-check against the balance: a force-set status stands.
		loan.Status = *request.Status
	}

	if err := s.loanRepo.Update(ctx, loan); err != nil {
		return nil, apperrors.WrapDatabaseError(err)
	}

	s.stats.Invalidate(ctx, ownerID)

	return s.GetLoan(ctx, loanID, ownerID)
}

// DeleteLoan removes the loan and all of its payments.
func (s *LoanService) DeleteLoan(ctx context.Context, loanID, ownerID uuid.UUID) error {
	if _, err := s.findLoan(ctx, loanID, ownerID); err != nil {
		return err
	}

	if err := s.loanRepo.Delete(ctx, loanID, ownerID); err != nil {
		return apperrors.WrapDatabaseError(err)
	}

	s.stats.Invalidate(ctx, ownerID)

	return nil
}

// AddPayment records a partial payment against the loan's remaining balance.
// Bringing the balance to exactly zero marks the loan PAID.
func (s *LoanService) AddPayment(ctx context.Context, loanID, ownerID uuid.UUID, request *domain.AddPaymentRequest) (*domain.Loan, error) {
	if !request.Amount.IsPositive() {
		return nil, apperrors.WrapInvalidAmount("payment amount must be positive")
	}

	loan, err := s.findLoan(ctx, loanID, ownerID)
	if err != nil {
		return nil, err
	}

	if request.Amount.GreaterThan(loan.RemainingAmount) {
		return nil, apperrors.WrapExceedsBalance(loan.RemainingAmount.String())
	}

	paymentDate := time.Now()
	if request.PaymentDate != nil {
		paymentDate = *request.PaymentDate
	}

	payment := &domain.Payment{
		ID:          uuid.New(),
		LoanID:      loanID,
		Amount:      request.Amount,
		Description: request.Description,
		PaymentDate: paymentDate,
	}

	if err := s.paymentRepo.ApplyPayment(ctx, payment, ownerID); err != nil {
		if errors.Is(err, repository.ErrInsufficientBalance) {
			// A concurrent payment got there first.
			return nil, apperrors.WrapExceedsBalance(loan.RemainingAmount.String())
		}
		return nil, apperrors.WrapDatabaseError(err)
	}

	s.stats.Invalidate(ctx, ownerID)

	return s.GetLoan(ctx, loanID, ownerID)
}

// GetPayments returns the loan's payment history, newest first.
func (s *LoanService) GetPayments(ctx context.Context, loanID, ownerID uuid.UUID) ([]*domain.Payment, error) {
	if _, err := s.findLoan(ctx, loanID, ownerID); err != nil {
		return nil, err
	}

	payments, err := s.paymentRepo.ListByLoan(ctx, loanID, ownerID)
	if err != nil {
		return nil, apperrors.WrapDatabaseError(err)
	}

	return payments, nil
}

// RemovePayment deletes a payment and restores its amount to the loan's
// balance. The loan status always drops back to ACTIVE, even when it was
// PAID or OVERDUE before.
func (s *LoanService) RemovePayment(ctx context.Context, loanID, paymentID, ownerID uuid.UUID) (*domain.Loan, error) {
	if _, err := s.findLoan(ctx, loanID, ownerID); err != nil {
		return nil, err
	}

	if _, err := s.paymentRepo.GetByID(ctx, paymentID, loanID, ownerID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperrors.WrapPaymentNotFound()
		}
		return nil, apperrors.WrapDatabaseError(err)
	}

	if err := s.paymentRepo.ReversePayment(ctx, loanID, paymentID, ownerID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperrors.WrapPaymentNotFound()
		}
		return nil, apperrors.WrapDatabaseError(err)
	}

	s.stats.Invalidate(ctx, ownerID)

	return s.GetLoan(ctx, loanID, ownerID)
}

// MarkFullyPaid settles the loan in one step. An outstanding balance is
// covered by a single synthesized settlement payment; a loan already at zero
// just has its PAID status re-affirmed, with no extra payment row.
func (s *LoanService) MarkFullyPaid(ctx context.Context, loanID, ownerID uuid.UUID) (*domain.Loan, error) {
	if _, err := s.findLoan(ctx, loanID, ownerID); err != nil {
		return nil, err
	}

	if _, err := s.paymentRepo.Settle(ctx, loanID, ownerID, time.Now()); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperrors.WrapLoanNotFound()
		}
		return nil, apperrors.WrapDatabaseError(err)
	}

	s.stats.Invalidate(ctx, ownerID)

	return s.GetLoan(ctx, loanID, ownerID)
}

// GetStats aggregates the owner's ACTIVE loans by direction. PAID and
// OVERDUE loans are excluded.
func (s *LoanService) GetStats(ctx context.Context, ownerID uuid.UUID) (*domain.LoanStats, error) {
	if cached := s.stats.Get(ctx, ownerID); cached != nil {
		return cached, nil
	}

	loans, err := s.loanRepo.ListActiveByOwner(ctx, ownerID)
	if err != nil {
		return nil, apperrors.WrapDatabaseError(err)
	}

	stats := &domain.LoanStats{
		Borrowed: domain.LoanStatsBucket{Total: decimal.Zero},
		Lent:     domain.LoanStatsBucket{Total: decimal.Zero},
	}

	for _, loan := range loans {
		switch loan.Type {
		case domain.LoanTypeBorrowed:
			stats.Borrowed.Count++
			stats.Borrowed.Total = stats.Borrowed.Total.Add(loan.RemainingAmount)
		case domain.LoanTypeLent:
			stats.Lent.Count++
			stats.Lent.Total = stats.Lent.Total.Add(loan.RemainingAmount)
		}
	}

	stats.NetBalance = stats.Lent.Total.Sub(stats.Borrowed.Total)

	s.stats.Set(ctx, ownerID, stats)

	return stats, nil
}

// findLoan loads a loan scoped to its owner. A loan that exists under a
// different owner is indistinguishable from a missing one.
func (s *LoanService) findLoan(ctx context.Context, loanID, ownerID uuid.UUID) (*domain.Loan, error) {
	loan, err := s.loanRepo.GetByID(ctx, loanID, ownerID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperrors.WrapLoanNotFound()
		}
		return nil, apperrors.WrapDatabaseError(err)
	}

	return loan, nil
}

func (s *LoanService) attachPayments(ctx context.Context, loan *domain.Loan, ownerID uuid.UUID) error {
	payments, err := s.paymentRepo.ListByLoan(ctx, loan.ID, ownerID)
	if err != nil {
		return apperrors.WrapDatabaseError(err)
	}
	if payments == nil {
		payments = []*domain.Payment{}
	}
	loan.Payments = payments

	return nil
}
