package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/ganaa/loantrack/internal/domain"
)

type customerRepository struct {
	db *sqlx.DB
}

func NewCustomerRepository(db *sqlx.DB) CustomerRepository {
	return &customerRepository{db: db}
}

func (r *customerRepository) Create(ctx context.Context, customer *domain.Customer) error {
	query := `
		INSERT INTO customers (id, user_id, name, register, phone, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`

	now := time.Now()
	customer.CreatedAt = now
	customer.UpdatedAt = now

	_, err := r.db.ExecContext(ctx, query,
		customer.ID,
		customer.UserID,
		customer.Name,
		customer.Register,
		customer.Phone,
		customer.CreatedAt,
		customer.UpdatedAt,
	)

	return err
}

func (r *customerRepository) GetByID(ctx context.Context, customerID, ownerID uuid.UUID) (*domain.Customer, error) {
	query := `
		SELECT id, user_id, name, register, phone, created_at, updated_at
		FROM customers
		WHERE id = $1 AND user_id = $2
	`

	var customer domain.Customer
	err := r.db.GetContext(ctx, &customer, query, customerID, ownerID)
	if err != nil {
		return nil, err
	}

	return &customer, nil
}

func (r *customerRepository) ListByOwner(ctx context.Context, ownerID uuid.UUID) ([]*domain.Customer, error) {
	query := `
		SELECT c.id, c.user_id, c.name, c.register, c.phone, c.created_at, c.updated_at,
		       COUNT(l.id) AS loan_count
		FROM customers c
		LEFT JOIN loans l ON l.customer_id = c.id
		WHERE c.user_id = $1
		GROUP BY c.id
		ORDER BY c.created_at DESC
	`

	var customers []*domain.Customer
	err := r.db.SelectContext(ctx, &customers, query, ownerID)
	if err != nil {
		return nil, err
	}

	return customers, nil
}

func (r *customerRepository) FindByRegister(ctx context.Context, ownerID uuid.UUID, register string, excludeID *uuid.UUID) (*domain.Customer, error) {
	query := `
		SELECT id, user_id, name, register, phone, created_at, updated_at
		FROM customers
		WHERE user_id = $1 AND register = $2 AND ($3::uuid IS NULL OR id <> $3)
	`

	var customer domain.Customer
	err := r.db.GetContext(ctx, &customer, query, ownerID, register, excludeID)
	if err != nil {
		return nil, err
	}

	return &customer, nil
}

func (r *customerRepository) Update(ctx context.Context, customer *domain.Customer) error {
	query := `
		UPDATE customers
		SET name = $3, register = $4, phone = $5, updated_at = $6
		WHERE id = $1 AND user_id = $2
	`

	customer.UpdatedAt = time.Now()

	_, err := r.db.ExecContext(ctx, query,
		customer.ID,
		customer.UserID,
		customer.Name,
		customer.Register,
		customer.Phone,
		customer.UpdatedAt,
	)

	return err
}

func (r *customerRepository) Delete(ctx context.Context, customerID, ownerID uuid.UUID) error {
	query := `DELETE FROM customers WHERE id = $1 AND user_id = $2`

	result, err := r.db.ExecContext(ctx, query, customerID, ownerID)
	if err != nil {
		return err
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return sql.ErrNoRows
	}

	return nil
}
