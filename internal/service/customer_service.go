package service

import (
	"context"
	"database/sql"
	"errors"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/ganaa/loantrack/internal/domain"
	"github.com/ganaa/loantrack/internal/repository"
	apperrors "github.com/ganaa/loantrack/pkg/errors"
)

// CustomerService manages registered counterparties. Customers with loans
// attached cannot be deleted; the loans keep the accounting, the customer
// record just names the other party.
type CustomerService struct {
	customerRepo repository.CustomerRepository
	loanRepo     repository.LoanRepository
}

func NewCustomerService(customerRepo repository.CustomerRepository, loanRepo repository.LoanRepository) *CustomerService {
	return &CustomerService{
		customerRepo: customerRepo,
		loanRepo:     loanRepo,
	}
}

func (s *CustomerService) CreateCustomer(ctx context.Context, ownerID uuid.UUID, request *domain.CreateCustomerRequest) (*domain.Customer, error) {
	if request.Name == "" {
		return nil, apperrors.WrapMissingField("name")
	}

	if request.Register != "" {
		if err := s.checkDuplicateRegister(ctx, ownerID, request.Register, nil); err != nil {
			return nil, err
		}
	}

	customer := &domain.Customer{
		ID:       uuid.New(),
		UserID:   ownerID,
		Name:     request.Name,
		Register: request.Register,
		Phone:    request.Phone,
	}

	if err := s.customerRepo.Create(ctx, customer); err != nil {
		return nil, apperrors.WrapDatabaseError(err)
	}

	return customer, nil
}

func (s *CustomerService) GetCustomers(ctx context.Context, ownerID uuid.UUID) ([]*domain.Customer, error) {
	customers, err := s.customerRepo.ListByOwner(ctx, ownerID)
	if err != nil {
		return nil, apperrors.WrapDatabaseError(err)
	}

	return customers, nil
}

// GetCustomer returns the customer with their loans, newest first.
func (s *CustomerService) GetCustomer(ctx context.Context, customerID, ownerID uuid.UUID) (*domain.Customer, error) {
	customer, err := s.findCustomer(ctx, customerID, ownerID)
	if err != nil {
		return nil, err
	}

	loans, err := s.loanRepo.ListByCustomer(ctx, customerID, ownerID)
	if err != nil {
		return nil, apperrors.WrapDatabaseError(err)
	}
	customer.Loans = loans
	customer.LoanCount = len(loans)

	return customer, nil
}

func (s *CustomerService) UpdateCustomer(ctx context.Context, customerID, ownerID uuid.UUID, request *domain.UpdateCustomerRequest) (*domain.Customer, error) {
	customer, err := s.findCustomer(ctx, customerID, ownerID)
	if err != nil {
		return nil, err
	}

	if request.Register != nil && *request.Register != "" && *request.Register != customer.Register {
		if err := s.checkDuplicateRegister(ctx, ownerID, *request.Register, &customerID); err != nil {
			return nil, err
		}
	}

	if request.Name != nil {
		if *request.Name == "" {
			return nil, apperrors.WrapMissingField("name")
		}
		customer.Name = *request.Name
	}
	if request.Register != nil {
		customer.Register = *request.Register
	}
	if request.Phone != nil {
		customer.Phone = *request.Phone
	}

	if err := s.customerRepo.Update(ctx, customer); err != nil {
		return nil, apperrors.WrapDatabaseError(err)
	}

	return customer, nil
}

// DeleteCustomer removes a customer, refusing while any loan references them.
func (s *CustomerService) DeleteCustomer(ctx context.Context, customerID, ownerID uuid.UUID) error {
	if _, err := s.findCustomer(ctx, customerID, ownerID); err != nil {
		return err
	}

	count, err := s.loanRepo.CountByCustomer(ctx, customerID, ownerID)
	if err != nil {
		return apperrors.WrapDatabaseError(err)
	}
	if count > 0 {
		return apperrors.WrapCustomerHasLoans()
	}

	if err := s.customerRepo.Delete(ctx, customerID, ownerID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return apperrors.WrapCustomerNotFound()
		}
		return apperrors.WrapDatabaseError(err)
	}

	return nil
}

// GetCustomerStats sums every loan tied to the customer by direction,
// regardless of loan status.
func (s *CustomerService) GetCustomerStats(ctx context.Context, customerID, ownerID uuid.UUID) (*domain.CustomerStats, error) {
	customer, err := s.findCustomer(ctx, customerID, ownerID)
	if err != nil {
		return nil, err
	}

	loans, err := s.loanRepo.ListByCustomer(ctx, customerID, ownerID)
	if err != nil {
		return nil, apperrors.WrapDatabaseError(err)
	}

	stats := &domain.CustomerStats{
		Customer: customer,
		Borrowed: domain.CustomerStatsBucket{TotalAmount: decimal.Zero, Remaining: decimal.Zero},
		Lent:     domain.CustomerStatsBucket{TotalAmount: decimal.Zero, Remaining: decimal.Zero},
	}

	for _, loan := range loans {
		switch loan.Type {
		case domain.LoanTypeBorrowed:
			stats.Borrowed.Count++
			stats.Borrowed.TotalAmount = stats.Borrowed.TotalAmount.Add(loan.Amount)
			stats.Borrowed.Remaining = stats.Borrowed.Remaining.Add(loan.RemainingAmount)
		case domain.LoanTypeLent:
			stats.Lent.Count++
			stats.Lent.TotalAmount = stats.Lent.TotalAmount.Add(loan.Amount)
			stats.Lent.Remaining = stats.Lent.Remaining.Add(loan.RemainingAmount)
		}
	}

	stats.NetBalance = stats.Lent.Remaining.Sub(stats.Borrowed.Remaining)

	return stats, nil
}

func (s *CustomerService) findCustomer(ctx context.Context, customerID, ownerID uuid.UUID) (*domain.Customer, error) {
	customer, err := s.customerRepo.GetByID(ctx, customerID, ownerID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperrors.WrapCustomerNotFound()
		}
		return nil, apperrors.WrapDatabaseError(err)
	}

	return customer, nil
}

func (s *CustomerService) checkDuplicateRegister(ctx context.Context, ownerID uuid.UUID, register string, excludeID *uuid.UUID) error {
	_, err := s.customerRepo.FindByRegister(ctx, ownerID, register, excludeID)
	if err == nil {
		return apperrors.WrapDuplicateRegister(register)
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return apperrors.WrapDatabaseError(err)
	}
	return nil
}
