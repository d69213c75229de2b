package service

import (
	"context"
	"database/sql"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/ganaa/loantrack/internal/domain"
	apperrors "github.com/ganaa/loantrack/pkg/errors"
	"github.com/ganaa/loantrack/tests/mocks"
)

func newCustomerService() (*CustomerService, *mocks.MockCustomerRepository, *mocks.MockLoanRepository) {
	customerRepo := &mocks.MockCustomerRepository{}
	loanRepo := &mocks.MockLoanRepository{}
	return NewCustomerService(customerRepo, loanRepo), customerRepo, loanRepo
}

func TestCreateCustomer_Success(t *testing.T) {
	svc, customerRepo, _ := newCustomerService()
	ownerID := uuid.New()

	customerRepo.On("FindByRegister", mock.Anything, ownerID, "УП99112233", (*uuid.UUID)(nil)).
		Return(nil, sql.ErrNoRows)
	customerRepo.On("Create", mock.Anything, mock.MatchedBy(func(c *domain.Customer) bool {
		return c.UserID == ownerID && c.Name == "Bat"
	})).Return(nil)

	customer, err := svc.CreateCustomer(context.Background(), ownerID, &domain.CreateCustomerRequest{
		Name:     "Bat",
		Register: "УП99112233",
	})

	assert.NoError(t, err)
	assert.Equal(t, "Bat", customer.Name)
	customerRepo.AssertExpectations(t)
}

func TestCreateCustomer_DuplicateRegister(t *testing.T) {
	svc, customerRepo, _ := newCustomerService()
	ownerID := uuid.New()
	existing := &domain.Customer{ID: uuid.New(), UserID: ownerID, Register: "УП99112233"}

	customerRepo.On("FindByRegister", mock.Anything, ownerID, "УП99112233", (*uuid.UUID)(nil)).
		Return(existing, nil)

	_, err := svc.CreateCustomer(context.Background(), ownerID, &domain.CreateCustomerRequest{
		Name:     "Bat",
		Register: "УП99112233",
	})

	assert.ErrorIs(t, err, apperrors.ErrValidation)
	customerRepo.AssertNotCalled(t, "Create")
}

func TestCreateCustomer_NameRequired(t *testing.T) {
	svc, customerRepo, _ := newCustomerService()

	_, err := svc.CreateCustomer(context.Background(), uuid.New(), &domain.CreateCustomerRequest{})

	assert.ErrorIs(t, err, apperrors.ErrValidation)
	customerRepo.AssertNotCalled(t, "Create")
}

func TestDeleteCustomer_BlockedByLoans(t *testing.T) {
	svc, customerRepo, loanRepo := newCustomerService()
	ownerID := uuid.New()
	customer := &domain.Customer{ID: uuid.New(), UserID: ownerID, Name: "Bat"}

	customerRepo.On("GetByID", mock.Anything, customer.ID, ownerID).Return(customer, nil)
	loanRepo.On("CountByCustomer", mock.Anything, customer.ID, ownerID).Return(2, nil)

	err := svc.DeleteCustomer(context.Background(), customer.ID, ownerID)

	assert.ErrorIs(t, err, apperrors.ErrValidation)
	customerRepo.AssertNotCalled(t, "Delete")
}

func TestDeleteCustomer_Success(t *testing.T) {
	svc, customerRepo, loanRepo := newCustomerService()
	ownerID := uuid.New()
	customer := &domain.Customer{ID: uuid.New(), UserID: ownerID, Name: "Bat"}

	customerRepo.On("GetByID", mock.Anything, customer.ID, ownerID).Return(customer, nil)
	loanRepo.On("CountByCustomer", mock.Anything, customer.ID, ownerID).Return(0, nil)
	customerRepo.On("Delete", mock.Anything, customer.ID, ownerID).Return(nil)

	err := svc.DeleteCustomer(context.Background(), customer.ID, ownerID)

	assert.NoError(t, err)
	customerRepo.AssertExpectations(t)
}

func TestDeleteCustomer_NotOwned(t *testing.T) {
	svc, customerRepo, _ := newCustomerService()
	ownerID := uuid.New()
	customerID := uuid.New()

	customerRepo.On("GetByID", mock.Anything, customerID, ownerID).Return(nil, sql.ErrNoRows)

	err := svc.DeleteCustomer(context.Background(), customerID, ownerID)

	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestGetCustomerStats_SumsAllLoanStatuses(t *testing.T) {
	svc, customerRepo, loanRepo := newCustomerService()
	ownerID := uuid.New()
	customer := &domain.Customer{ID: uuid.New(), UserID: ownerID, Name: "Bat"}

	// Unlike the owner dashboard, customer stats include PAID and OVERDUE
	// loans as well.
	loans := []*domain.Loan{
		{Type: domain.LoanTypeLent, Status: domain.LoanStatusActive,
			Amount: decimal.NewFromInt(1000), RemainingAmount: decimal.NewFromInt(400)},
		{Type: domain.LoanTypeLent, Status: domain.LoanStatusPaid,
			Amount: decimal.NewFromInt(500), RemainingAmount: decimal.Zero},
		{Type: domain.LoanTypeBorrowed, Status: domain.LoanStatusOverdue,
			Amount: decimal.NewFromInt(300), RemainingAmount: decimal.NewFromInt(300)},
	}

	customerRepo.On("GetByID", mock.Anything, customer.ID, ownerID).Return(customer, nil)
	loanRepo.On("ListByCustomer", mock.Anything, customer.ID, ownerID).Return(loans, nil)

	stats, err := svc.GetCustomerStats(context.Background(), customer.ID, ownerID)

	assert.NoError(t, err)
	assert.Equal(t, 2, stats.Lent.Count)
	assert.True(t, stats.Lent.TotalAmount.Equal(decimal.NewFromInt(1500)))
	assert.True(t, stats.Lent.Remaining.Equal(decimal.NewFromInt(400)))
	assert.Equal(t, 1, stats.Borrowed.Count)
	assert.True(t, stats.Borrowed.Remaining.Equal(decimal.NewFromInt(300)))
	assert.True(t, stats.NetBalance.Equal(decimal.NewFromInt(100)))
}

func TestUpdateCustomer_RegisterDuplicateCheckExcludesSelf(t *testing.T) {
	svc, customerRepo, _ := newCustomerService()
	ownerID := uuid.New()
	customer := &domain.Customer{ID: uuid.New(), UserID: ownerID, Name: "Bat", Register: "OLD"}

	customerRepo.On("GetByID", mock.Anything, customer.ID, ownerID).Return(customer, nil)
	customerRepo.On("FindByRegister", mock.Anything, ownerID, "NEW", &customer.ID).
		Return(nil, sql.ErrNoRows)
	customerRepo.On("Update", mock.Anything, mock.MatchedBy(func(c *domain.Customer) bool {
		return c.Register == "NEW"
	})).Return(nil)

	register := "NEW"
	updated, err := svc.UpdateCustomer(context.Background(), customer.ID, ownerID, &domain.UpdateCustomerRequest{
		Register: &register,
	})

	assert.NoError(t, err)
	assert.Equal(t, "NEW", updated.Register)
	customerRepo.AssertExpectations(t)
}
