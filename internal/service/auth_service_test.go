package service

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/ganaa/loantrack/internal/auth"
	"github.com/ganaa/loantrack/internal/domain"
	apperrors "github.com/ganaa/loantrack/pkg/errors"
	"github.com/ganaa/loantrack/tests/mocks"
)

func newAuthService() (*AuthService, *mocks.MockUserRepository) {
	userRepo := &mocks.MockUserRepository{}
	tokens := auth.NewTokenManager("test-secret", time.Hour)
	return NewAuthService(userRepo, tokens), userRepo
}

func TestRegister_IssuesToken(t *testing.T) {
	svc, userRepo := newAuthService()

	userRepo.On("GetByEmail", mock.Anything, "bat@example.mn").Return(nil, sql.ErrNoRows)
	userRepo.On("Create", mock.Anything, mock.MatchedBy(func(u *domain.User) bool {
		// Password must be stored hashed, never verbatim.
		return u.Email == "bat@example.mn" && u.PasswordHash != "hunter2secret"
	})).Return(nil)

	result, err := svc.Register(context.Background(), &domain.RegisterRequest{
		Email:    "Bat@Example.mn",
		Name:     "Bat",
		Password: "hunter2secret",
	})

	require.NoError(t, err)
	assert.NotEmpty(t, result.Token)
	assert.Equal(t, "bat@example.mn", result.User.Email)
	userRepo.AssertExpectations(t)
}

func TestRegister_EmailTaken(t *testing.T) {
	svc, userRepo := newAuthService()
	existing := &domain.User{Email: "bat@example.mn"}

	userRepo.On("GetByEmail", mock.Anything, "bat@example.mn").Return(existing, nil)

	_, err := svc.Register(context.Background(), &domain.RegisterRequest{
		Email:    "bat@example.mn",
		Name:     "Bat",
		Password: "hunter2secret",
	})

	assert.ErrorIs(t, err, apperrors.ErrValidation)
	userRepo.AssertNotCalled(t, "Create")
}

func TestLogin_Success(t *testing.T) {
	svc, userRepo := newAuthService()

	hash, err := bcrypt.GenerateFromPassword([]byte("hunter2secret"), bcrypt.MinCost)
	require.NoError(t, err)
	user := &domain.User{Email: "bat@example.mn", Name: "Bat", PasswordHash: string(hash)}

	userRepo.On("GetByEmail", mock.Anything, "bat@example.mn").Return(user, nil)

	result, err := svc.Login(context.Background(), &domain.LoginRequest{
		Email:    "bat@example.mn",
		Password: "hunter2secret",
	})

	require.NoError(t, err)
	assert.NotEmpty(t, result.Token)
}

func TestLogin_WrongPassword(t *testing.T) {
	svc, userRepo := newAuthService()

	hash, err := bcrypt.GenerateFromPassword([]byte("hunter2secret"), bcrypt.MinCost)
	require.NoError(t, err)
	user := &domain.User{Email: "bat@example.mn", PasswordHash: string(hash)}

	userRepo.On("GetByEmail", mock.Anything, "bat@example.mn").Return(user, nil)

	_, err = svc.Login(context.Background(), &domain.LoginRequest{
		Email:    "bat@example.mn",
		Password: "wrong",
	})

	assert.ErrorIs(t, err, apperrors.ErrValidation)
}

func TestLogin_UnknownEmailLooksLikeBadCredentials(t *testing.T) {
	svc, userRepo := newAuthService()

	userRepo.On("GetByEmail", mock.Anything, "ghost@example.mn").Return(nil, sql.ErrNoRows)

	_, err := svc.Login(context.Background(), &domain.LoginRequest{
		Email:    "ghost@example.mn",
		Password: "whatever",
	})

	// Same error as a wrong password, so probing for accounts tells nothing.
	assert.ErrorIs(t, err, apperrors.ErrValidation)
}
