package service

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/ganaa/loantrack/internal/domain"
	"github.com/ganaa/loantrack/internal/repository"
	apperrors "github.com/ganaa/loantrack/pkg/errors"
	"github.com/ganaa/loantrack/tests/mocks"
)

func newLoanService() (*LoanService, *mocks.MockLoanRepository, *mocks.MockPaymentRepository, *mocks.MockCustomerRepository) {
	loanRepo := &mocks.MockLoanRepository{}
	paymentRepo := &mocks.MockPaymentRepository{}
	customerRepo := &mocks.MockCustomerRepository{}
	svc := NewLoanService(loanRepo, paymentRepo, customerRepo, nil)
	return svc, loanRepo, paymentRepo, customerRepo
}

func testLoan(ownerID uuid.UUID, amount, remaining int64, status string) *domain.Loan {
	return &domain.Loan{
		ID:              uuid.New(),
		UserID:          ownerID,
		OtherParty:      "A",
		Amount:          decimal.NewFromInt(amount),
		RemainingAmount: decimal.NewFromInt(remaining),
		Type:            domain.LoanTypeLent,
		Status:          status,
		LoanDate:        time.Now(),
	}
}

func TestCreateLoan_Success(t *testing.T) {
	svc, loanRepo, paymentRepo, _ := newLoanService()
	ownerID := uuid.New()

	loanRepo.On("Create", mock.Anything, mock.MatchedBy(func(loan *domain.Loan) bool {
		return loan.UserID == ownerID &&
			loan.RemainingAmount.Equal(decimal.NewFromInt(100000)) &&
			loan.Status == domain.LoanStatusActive
	})).Return(nil)
	loanRepo.On("GetByID", mock.Anything, mock.Anything, ownerID).
		Return(testLoan(ownerID, 100000, 100000, domain.LoanStatusActive), nil)
	paymentRepo.On("ListByLoan", mock.Anything, mock.Anything, ownerID).
		Return([]*domain.Payment{}, nil)

	loan, err := svc.CreateLoan(context.Background(), ownerID, &domain.CreateLoanRequest{
		Amount:     decimal.NewFromInt(100000),
		Type:       domain.LoanTypeLent,
		OtherParty: "A",
	})

	assert.NoError(t, err)
	assert.True(t, loan.RemainingAmount.Equal(decimal.NewFromInt(100000)))
	assert.Equal(t, domain.LoanStatusActive, loan.Status)
	assert.Empty(t, loan.Payments)

	loanRepo.AssertExpectations(t)
}

func TestCreateLoan_MissingCounterparty(t *testing.T) {
	svc, loanRepo, _, _ := newLoanService()

	_, err := svc.CreateLoan(context.Background(), uuid.New(), &domain.CreateLoanRequest{
		Amount: decimal.NewFromInt(100000),
		Type:   domain.LoanTypeBorrowed,
	})

	assert.ErrorIs(t, err, apperrors.ErrValidation)
	loanRepo.AssertNotCalled(t, "Create")
}

func TestCreateLoan_NonPositiveAmount(t *testing.T) {
	svc, loanRepo, _, _ := newLoanService()

	_, err := svc.CreateLoan(context.Background(), uuid.New(), &domain.CreateLoanRequest{
		Amount:     decimal.Zero,
		Type:       domain.LoanTypeLent,
		OtherParty: "A",
	})

	assert.ErrorIs(t, err, apperrors.ErrValidation)
	loanRepo.AssertNotCalled(t, "Create")
}

func TestCreateLoan_InvalidType(t *testing.T) {
	svc, _, _, _ := newLoanService()

	_, err := svc.CreateLoan(context.Background(), uuid.New(), &domain.CreateLoanRequest{
		Amount:     decimal.NewFromInt(100),
		Type:       "GIFTED",
		OtherParty: "A",
	})

	assert.ErrorIs(t, err, apperrors.ErrValidation)
}

func TestCreateLoan_UnknownCustomer(t *testing.T) {
	svc, _, _, customerRepo := newLoanService()
	ownerID := uuid.New()
	customerID := uuid.New()

	customerRepo.On("GetByID", mock.Anything, customerID, ownerID).
		Return(nil, sql.ErrNoRows)

	_, err := svc.CreateLoan(context.Background(), ownerID, &domain.CreateLoanRequest{
		Amount:     decimal.NewFromInt(100),
		Type:       domain.LoanTypeLent,
		CustomerID: &customerID,
	})

	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestAddPayment_PartialPayment(t *testing.T) {
	svc, loanRepo, paymentRepo, _ := newLoanService()
	ownerID := uuid.New()
	before := testLoan(ownerID, 100000, 100000, domain.LoanStatusActive)
	after := testLoan(ownerID, 100000, 60000, domain.LoanStatusActive)
	after.ID = before.ID

	loanRepo.On("GetByID", mock.Anything, before.ID, ownerID).Return(before, nil).Once()
	paymentRepo.On("ApplyPayment", mock.Anything, mock.MatchedBy(func(p *domain.Payment) bool {
		return p.LoanID == before.ID && p.Amount.Equal(decimal.NewFromInt(40000))
	}), ownerID).Return(nil)
	loanRepo.On("GetByID", mock.Anything, before.ID, ownerID).Return(after, nil)
	paymentRepo.On("ListByLoan", mock.Anything, before.ID, ownerID).
		Return([]*domain.Payment{{LoanID: before.ID, Amount: decimal.NewFromInt(40000)}}, nil)

	loan, err := svc.AddPayment(context.Background(), before.ID, ownerID, &domain.AddPaymentRequest{
		Amount: decimal.NewFromInt(40000),
	})

	assert.NoError(t, err)
	assert.True(t, loan.RemainingAmount.Equal(decimal.NewFromInt(60000)))
	assert.Equal(t, domain.LoanStatusActive, loan.Status)
	assert.Len(t, loan.Payments, 1)

	paymentRepo.AssertExpectations(t)
}

func TestAddPayment_RejectsNonPositiveAmount(t *testing.T) {
	svc, loanRepo, paymentRepo, _ := newLoanService()

	_, err := svc.AddPayment(context.Background(), uuid.New(), uuid.New(), &domain.AddPaymentRequest{
		Amount: decimal.NewFromInt(-5),
	})

	assert.ErrorIs(t, err, apperrors.ErrValidation)
	loanRepo.AssertNotCalled(t, "GetByID")
	paymentRepo.AssertNotCalled(t, "ApplyPayment")
}

func TestAddPayment_RejectsOverdraw(t *testing.T) {
	svc, loanRepo, paymentRepo, _ := newLoanService()
	ownerID := uuid.New()
	loan := testLoan(ownerID, 100000, 0, domain.LoanStatusPaid)

	loanRepo.On("GetByID", mock.Anything, loan.ID, ownerID).Return(loan, nil)

	_, err := svc.AddPayment(context.Background(), loan.ID, ownerID, &domain.AddPaymentRequest{
		Amount: decimal.NewFromInt(1),
	})

	assert.ErrorIs(t, err, apperrors.ErrValidation)
	assert.Contains(t, err.Error(), "exceeds remaining balance")
	paymentRepo.AssertNotCalled(t, "ApplyPayment")
}

func TestAddPayment_ConcurrentDrainSurfacesAsValidation(t *testing.T) {
	svc, loanRepo, paymentRepo, _ := newLoanService()
	ownerID := uuid.New()
	loan := testLoan(ownerID, 100000, 40000, domain.LoanStatusActive)

	loanRepo.On("GetByID", mock.Anything, loan.ID, ownerID).Return(loan, nil)
	paymentRepo.On("ApplyPayment", mock.Anything, mock.Anything, ownerID).
		Return(repository.ErrInsufficientBalance)

	_, err := svc.AddPayment(context.Background(), loan.ID, ownerID, &domain.AddPaymentRequest{
		Amount: decimal.NewFromInt(40000),
	})

	assert.ErrorIs(t, err, apperrors.ErrValidation)
}

func TestAddPayment_NotOwnedLoanIsNotFound(t *testing.T) {
	svc, loanRepo, _, _ := newLoanService()
	ownerID := uuid.New()
	loanID := uuid.New()

	// The row exists under a different owner; the scoped lookup sees nothing.
	loanRepo.On("GetByID", mock.Anything, loanID, ownerID).Return(nil, sql.ErrNoRows)

	_, err := svc.AddPayment(context.Background(), loanID, ownerID, &domain.AddPaymentRequest{
		Amount: decimal.NewFromInt(10),
	})

	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestRemovePayment_AlwaysResetsToActive(t *testing.T) {
	svc, loanRepo, paymentRepo, _ := newLoanService()
	ownerID := uuid.New()
	before := testLoan(ownerID, 100000, 0, domain.LoanStatusPaid)
	after := testLoan(ownerID, 100000, 40000, domain.LoanStatusActive)
	after.ID = before.ID
	payment := &domain.Payment{ID: uuid.New(), LoanID: before.ID, Amount: decimal.NewFromInt(40000)}

	loanRepo.On("GetByID", mock.Anything, before.ID, ownerID).Return(before, nil).Once()
	paymentRepo.On("GetByID", mock.Anything, payment.ID, before.ID, ownerID).Return(payment, nil)
	paymentRepo.On("ReversePayment", mock.Anything, before.ID, payment.ID, ownerID).Return(nil)
	loanRepo.On("GetByID", mock.Anything, before.ID, ownerID).Return(after, nil)
	paymentRepo.On("ListByLoan", mock.Anything, before.ID, ownerID).
		Return([]*domain.Payment{}, nil)

	loan, err := svc.RemovePayment(context.Background(), before.ID, payment.ID, ownerID)

	assert.NoError(t, err)
	assert.Equal(t, domain.LoanStatusActive, loan.Status)
	assert.True(t, loan.RemainingAmount.Equal(decimal.NewFromInt(40000)))

	paymentRepo.AssertExpectations(t)
}

func TestRemovePayment_UnknownPayment(t *testing.T) {
	svc, loanRepo, paymentRepo, _ := newLoanService()
	ownerID := uuid.New()
	loan := testLoan(ownerID, 100000, 60000, domain.LoanStatusActive)
	paymentID := uuid.New()

	loanRepo.On("GetByID", mock.Anything, loan.ID, ownerID).Return(loan, nil)
	paymentRepo.On("GetByID", mock.Anything, paymentID, loan.ID, ownerID).
		Return(nil, sql.ErrNoRows)

	_, err := svc.RemovePayment(context.Background(), loan.ID, paymentID, ownerID)

	assert.ErrorIs(t, err, apperrors.ErrNotFound)
	paymentRepo.AssertNotCalled(t, "ReversePayment")
}

func TestMarkFullyPaid_SynthesizesSettlementPayment(t *testing.T) {
	svc, loanRepo, paymentRepo, _ := newLoanService()
	ownerID := uuid.New()
	before := testLoan(ownerID, 100000, 60000, domain.LoanStatusActive)
	after := testLoan(ownerID, 100000, 0, domain.LoanStatusPaid)
	after.ID = before.ID
	settlement := &domain.Payment{
		ID:          uuid.New(),
		LoanID:      before.ID,
		Amount:      decimal.NewFromInt(60000),
		Description: domain.FullSettlementDescription,
	}

	loanRepo.On("GetByID", mock.Anything, before.ID, ownerID).Return(before, nil).Once()
	paymentRepo.On("Settle", mock.Anything, before.ID, ownerID, mock.Anything).
		Return(settlement, nil)
	loanRepo.On("GetByID", mock.Anything, before.ID, ownerID).Return(after, nil)
	paymentRepo.On("ListByLoan", mock.Anything, before.ID, ownerID).
		Return([]*domain.Payment{settlement}, nil)

	loan, err := svc.MarkFullyPaid(context.Background(), before.ID, ownerID)

	assert.NoError(t, err)
	assert.True(t, loan.RemainingAmount.IsZero())
	assert.Equal(t, domain.LoanStatusPaid, loan.Status)
	assert.Len(t, loan.Payments, 1)
	assert.True(t, loan.Payments[0].Amount.Equal(decimal.NewFromInt(60000)))

	paymentRepo.AssertNumberOfCalls(t, "Settle", 1)
}

func TestMarkFullyPaid_AlreadySettled(t *testing.T) {
	svc, loanRepo, paymentRepo, _ := newLoanService()
	ownerID := uuid.New()
	loan := testLoan(ownerID, 100000, 0, domain.LoanStatusPaid)

	loanRepo.On("GetByID", mock.Anything, loan.ID, ownerID).Return(loan, nil)
	// No balance left: Settle inserts nothing and returns no payment.
	paymentRepo.On("Settle", mock.Anything, loan.ID, ownerID, mock.Anything).
		Return(nil, nil)
	paymentRepo.On("ListByLoan", mock.Anything, loan.ID, ownerID).
		Return([]*domain.Payment{}, nil)

	result, err := svc.MarkFullyPaid(context.Background(), loan.ID, ownerID)

	assert.NoError(t, err)
	assert.Equal(t, domain.LoanStatusPaid, result.Status)
}

func TestUpdateLoan_PrincipalEditClampsRemaining(t *testing.T) {
	svc, loanRepo, paymentRepo, _ := newLoanService()
	ownerID := uuid.New()
	// 60000 already paid off the original 100000.
	loan := testLoan(ownerID, 100000, 40000, domain.LoanStatusActive)

	loanRepo.On("GetByID", mock.Anything, loan.ID, ownerID).Return(loan, nil)
	loanRepo.On("Update", mock.Anything, mock.MatchedBy(func(l *domain.Loan) bool {
		// New principal 50000 is below the 60000 paid: remaining clamps to 0.
		return l.Amount.Equal(decimal.NewFromInt(50000)) && l.RemainingAmount.IsZero()
	})).Return(nil)
	paymentRepo.On("ListByLoan", mock.Anything, loan.ID, ownerID).
		Return([]*domain.Payment{}, nil)

	newAmount := decimal.NewFromInt(50000)
	_, err := svc.UpdateLoan(context.Background(), loan.ID, ownerID, &domain.UpdateLoanRequest{
		Amount: &newAmount,
	})

	assert.NoError(t, err)
	loanRepo.AssertExpectations(t)
}

func TestUpdateLoan_PrincipalRaiseGrowsRemaining(t *testing.T) {
	svc, loanRepo, paymentRepo, _ := newLoanService()
	ownerID := uuid.New()
	loan := testLoan(ownerID, 100000, 40000, domain.LoanStatusActive)

	loanRepo.On("GetByID", mock.Anything, loan.ID, ownerID).Return(loan, nil)
	loanRepo.On("Update", mock.Anything, mock.MatchedBy(func(l *domain.Loan) bool {
		return l.Amount.Equal(decimal.NewFromInt(150000)) &&
			l.RemainingAmount.Equal(decimal.NewFromInt(90000))
	})).Return(nil)
	paymentRepo.On("ListByLoan", mock.Anything, loan.ID, ownerID).
		Return([]*domain.Payment{}, nil)

	newAmount := decimal.NewFromInt(150000)
	_, err := svc.UpdateLoan(context.Background(), loan.ID, ownerID, &domain.UpdateLoanRequest{
		Amount: &newAmount,
	})

	assert.NoError(t, err)
	loanRepo.AssertExpectations(t)
}

func TestUpdateLoan_ForceStatus(t *testing.T) {
	svc, loanRepo, paymentRepo, _ := newLoanService()
	ownerID := uuid.New()
	loan := testLoan(ownerID, 100000, 40000, domain.LoanStatusActive)

	loanRepo.On("GetByID", mock.Anything, loan.ID, ownerID).Return(loan, nil)
	loanRepo.On("Update", mock.Anything, mock.MatchedBy(func(l *domain.Loan) bool {
		// OVERDUE stands even with a nonzero balance; no cross-check.
		return l.Status == domain.LoanStatusOverdue
	})).Return(nil)
	paymentRepo.On("ListByLoan", mock.Anything, loan.ID, ownerID).
		Return([]*domain.Payment{}, nil)

	status := domain.LoanStatusOverdue
	_, err := svc.UpdateLoan(context.Background(), loan.ID, ownerID, &domain.UpdateLoanRequest{
		Status: &status,
	})

	assert.NoError(t, err)
	loanRepo.AssertExpectations(t)
}

func TestUpdateLoan_RejectsUnknownStatus(t *testing.T) {
	svc, loanRepo, _, _ := newLoanService()
	ownerID := uuid.New()
	loan := testLoan(ownerID, 100000, 40000, domain.LoanStatusActive)

	loanRepo.On("GetByID", mock.Anything, loan.ID, ownerID).Return(loan, nil)

	status := "SETTLED"
	_, err := svc.UpdateLoan(context.Background(), loan.ID, ownerID, &domain.UpdateLoanRequest{
		Status: &status,
	})

	assert.ErrorIs(t, err, apperrors.ErrValidation)
	loanRepo.AssertNotCalled(t, "Update")
}

func TestGetStats_AggregatesActiveLoansByDirection(t *testing.T) {
	svc, loanRepo, _, _ := newLoanService()
	ownerID := uuid.New()

	active := []*domain.Loan{
		{Type: domain.LoanTypeLent, RemainingAmount: decimal.NewFromInt(100)},
		{Type: domain.LoanTypeLent, RemainingAmount: decimal.NewFromInt(50)},
		{Type: domain.LoanTypeBorrowed, RemainingAmount: decimal.NewFromInt(30)},
	}

	loanRepo.On("ListActiveByOwner", mock.Anything, ownerID).Return(active, nil)

	stats, err := svc.GetStats(context.Background(), ownerID)

	assert.NoError(t, err)
	assert.Equal(t, 2, stats.Lent.Count)
	assert.True(t, stats.Lent.Total.Equal(decimal.NewFromInt(150)))
	assert.Equal(t, 1, stats.Borrowed.Count)
	assert.True(t, stats.Borrowed.Total.Equal(decimal.NewFromInt(30)))
	assert.True(t, stats.NetBalance.Equal(decimal.NewFromInt(120)))
}

func TestGetStats_NoActiveLoans(t *testing.T) {
	svc, loanRepo, _, _ := newLoanService()
	ownerID := uuid.New()

	loanRepo.On("ListActiveByOwner", mock.Anything, ownerID).Return([]*domain.Loan{}, nil)

	stats, err := svc.GetStats(context.Background(), ownerID)

	assert.NoError(t, err)
	assert.Equal(t, 0, stats.Borrowed.Count)
	assert.Equal(t, 0, stats.Lent.Count)
	assert.True(t, stats.NetBalance.IsZero())
}

func TestDeleteLoan_UnknownLoan(t *testing.T) {
	svc, loanRepo, _, _ := newLoanService()
	ownerID := uuid.New()
	loanID := uuid.New()

	loanRepo.On("GetByID", mock.Anything, loanID, ownerID).Return(nil, sql.ErrNoRows)

	err := svc.DeleteLoan(context.Background(), loanID, ownerID)

	assert.ErrorIs(t, err, apperrors.ErrNotFound)
	loanRepo.AssertNotCalled(t, "Delete")
}

func TestDeleteLoan_StorageFailureSurfaces(t *testing.T) {
	svc, loanRepo, _, _ := newLoanService()
	ownerID := uuid.New()
	loan := testLoan(ownerID, 100000, 100000, domain.LoanStatusActive)

	loanRepo.On("GetByID", mock.Anything, loan.ID, ownerID).Return(loan, nil)
	loanRepo.On("Delete", mock.Anything, loan.ID, ownerID).Return(errors.New("connection reset"))

	err := svc.DeleteLoan(context.Background(), loan.ID, ownerID)

	assert.ErrorIs(t, err, apperrors.ErrStorage)
}
