package errors

import (
	"errors"
	"fmt"
)

// Error kinds. Every BusinessError wraps exactly one of these so callers can
// classify with errors.Is without looking at codes.
var (
	ErrValidation = errors.New("validation error")
	ErrNotFound   = errors.New("not found")
	ErrStorage    = errors.New("storage error")
)

// BusinessError represents a business logic error
type BusinessError struct {
	Code    string
	Message string
	Err     error
}

func (e *BusinessError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s (%v)", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *BusinessError) Unwrap() error {
	return e.Err
}

// NewBusinessError creates a new business error
func NewBusinessError(code, message string, err error) *BusinessError {
	return &BusinessError{
		Code:    code,
		Message: message,
		Err:     err,
	}
}

// Error codes
const (
	ErrCodeLoanNotFound       = "LOAN_NOT_FOUND"
	ErrCodePaymentNotFound    = "PAYMENT_NOT_FOUND"
	ErrCodeCustomerNotFound   = "CUSTOMER_NOT_FOUND"
	ErrCodeUserNotFound       = "USER_NOT_FOUND"
	ErrCodeInvalidAmount      = "INVALID_AMOUNT"
	ErrCodeMissingField       = "MISSING_FIELD"
	ErrCodeExceedsBalance     = "EXCEEDS_REMAINING_BALANCE"
	ErrCodeInvalidLoanType    = "INVALID_LOAN_TYPE"
	ErrCodeInvalidStatus      = "INVALID_STATUS"
	ErrCodeMissingParty       = "MISSING_COUNTERPARTY"
	ErrCodeCustomerHasLoans   = "CUSTOMER_HAS_LOANS"
	ErrCodeDuplicateRegister  = "DUPLICATE_REGISTER"
	ErrCodeEmailTaken         = "EMAIL_TAKEN"
	ErrCodeInvalidCredentials = "INVALID_CREDENTIALS"
	ErrCodeTokenError         = "TOKEN_ERROR"
	ErrCodeDatabaseError      = "DATABASE_ERROR"
	ErrCodeCacheError         = "CACHE_ERROR"
)

// Wrap common errors with business context

func WrapLoanNotFound() *BusinessError {
	return NewBusinessError(ErrCodeLoanNotFound, "Loan not found", ErrNotFound)
}

func WrapPaymentNotFound() *BusinessError {
	return NewBusinessError(ErrCodePaymentNotFound, "Payment not found", ErrNotFound)
}

func WrapCustomerNotFound() *BusinessError {
	return NewBusinessError(ErrCodeCustomerNotFound, "Customer not found", ErrNotFound)
}

func WrapUserNotFound() *BusinessError {
	return NewBusinessError(ErrCodeUserNotFound, "User not found", ErrNotFound)
}

func WrapInvalidAmount(message string) *BusinessError {
	return NewBusinessError(ErrCodeInvalidAmount, message, ErrValidation)
}

func WrapMissingField(field string) *BusinessError {
	return NewBusinessError(
		ErrCodeMissingField,
		fmt.Sprintf("%s is required", field),
		ErrValidation,
	)
}

func WrapExceedsBalance(remaining string) *BusinessError {
	return NewBusinessError(
		ErrCodeExceedsBalance,
		fmt.Sprintf("amount exceeds remaining balance of %s", remaining),
		ErrValidation,
	)
}

func WrapInvalidLoanType(t string) *BusinessError {
	return NewBusinessError(
		ErrCodeInvalidLoanType,
		fmt.Sprintf("loan type must be BORROWED or LENT, got %q", t),
		ErrValidation,
	)
}

func WrapInvalidStatus(s string) *BusinessError {
	return NewBusinessError(
		ErrCodeInvalidStatus,
		fmt.Sprintf("status must be ACTIVE, PAID or OVERDUE, got %q", s),
		ErrValidation,
	)
}

func WrapMissingCounterparty() *BusinessError {
	return NewBusinessError(
		ErrCodeMissingParty,
		"either customerId or otherParty is required",
		ErrValidation,
	)
}

func WrapCustomerHasLoans() *BusinessError {
	return NewBusinessError(
		ErrCodeCustomerHasLoans,
		"customer has loans attached and cannot be deleted",
		ErrValidation,
	)
}

func WrapDuplicateRegister(register string) *BusinessError {
	return NewBusinessError(
		ErrCodeDuplicateRegister,
		fmt.Sprintf("a customer with register %s already exists", register),
		ErrValidation,
	)
}

func WrapEmailTaken(email string) *BusinessError {
	return NewBusinessError(
		ErrCodeEmailTaken,
		fmt.Sprintf("an account with email %s already exists", email),
		ErrValidation,
	)
}

func WrapInvalidCredentials() *BusinessError {
	return NewBusinessError(ErrCodeInvalidCredentials, "invalid email or password", ErrValidation)
}

func WrapDatabaseError(err error) *BusinessError {
	return &BusinessError{
		Code:    ErrCodeDatabaseError,
		Message: "database operation failed",
		Err:     fmt.Errorf("%w: %w", ErrStorage, err),
	}
}

func WrapCacheError(err error) *BusinessError {
	return &BusinessError{
		Code:    ErrCodeCacheError,
		Message: "cache operation failed",
		Err:     fmt.Errorf("%w: %w", ErrStorage, err),
	}
}
