package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/ganaa/loantrack/internal/domain"
)

type loanRepository struct {
	db *sqlx.DB
}

func NewLoanRepository(db *sqlx.DB) LoanRepository {
	return &loanRepository{db: db}
}

const loanColumns = `id, user_id, customer_id, other_party, amount, remaining_amount, type, status, description, loan_date, due_date, created_at, updated_at`

func (r *loanRepository) Create(ctx context.Context, loan *domain.Loan) error {
	query := `
		INSERT INTO loans (id, user_id, customer_id, other_party, amount, remaining_amount, type, status, description, loan_date, due_date, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
	`

	now := time.Now()
	loan.CreatedAt = now
	loan.UpdatedAt = now

	_, err := r.db.ExecContext(ctx, query,
		loan.ID,
		loan.UserID,
		loan.CustomerID,
		loan.OtherParty,
		loan.Amount,
		loan.RemainingAmount,
		loan.Type,
		loan.Status,
		loan.Description,
		loan.LoanDate,
		loan.DueDate,
		loan.CreatedAt,
		loan.UpdatedAt,
	)

	return err
}

func (r *loanRepository) GetByID(ctx context.Context, loanID, ownerID uuid.UUID) (*domain.Loan, error) {
	query := `
		SELECT ` + loanColumns + `
		FROM loans
		WHERE id = $1 AND user_id = $2
	`

	var loan domain.Loan
	if err := r.db.GetContext(ctx, &loan, query, loanID, ownerID); err != nil {
		return nil, err
	}

	if err := r.attachCustomers(ctx, ownerID, &loan); err != nil {
		return nil, err
	}

	return &loan, nil
}

func (r *loanRepository) ListByOwner(ctx context.Context, ownerID uuid.UUID) ([]*domain.Loan, error) {
	query := `
		SELECT ` + loanColumns + `
		FROM loans
		WHERE user_id = $1
		ORDER BY loan_date DESC
	`

	var loans []*domain.Loan
	if err := r.db.SelectContext(ctx, &loans, query, ownerID); err != nil {
		return nil, err
	}

	if err := r.attachCustomers(ctx, ownerID, loans...); err != nil {
		return nil, err
	}

	return loans, nil
}

func (r *loanRepository) ListActiveByOwner(ctx context.Context, ownerID uuid.UUID) ([]*domain.Loan, error) {
	query := `
		SELECT ` + loanColumns + `
		FROM loans
		WHERE user_id = $1 AND status = $2
		ORDER BY loan_date DESC
	`

	var loans []*domain.Loan
	err := r.db.SelectContext(ctx, &loans, query, ownerID, domain.LoanStatusActive)
	if err != nil {
		return nil, err
	}

	return loans, nil
}

func (r *loanRepository) ListByCustomer(ctx context.Context, customerID, ownerID uuid.UUID) ([]*domain.Loan, error) {
	query := `
		SELECT ` + loanColumns + `
		FROM loans
		WHERE customer_id = $1 AND user_id = $2
		ORDER BY loan_date DESC
	`

	var loans []*domain.Loan
	err := r.db.SelectContext(ctx, &loans, query, customerID, ownerID)
	if err != nil {
		return nil, err
	}

	return loans, nil
}

func (r *loanRepository) CountByCustomer(ctx context.Context, customerID, ownerID uuid.UUID) (int, error) {
	query := `SELECT COUNT(*) FROM loans WHERE customer_id = $1 AND user_id = $2`

	var count int
	err := r.db.GetContext(ctx, &count, query, customerID, ownerID)
	return count, err
}

func (r *loanRepository) Update(ctx context.Context, loan *domain.Loan) error {
	query := `
		UPDATE loans
		SET customer_id = $3, other_party = $4, amount = $5, remaining_amount = $6,
		    type = $7, status = $8, description = $9, loan_date = $10, due_date = $11, updated_at = $12
		WHERE id = $1 AND user_id = $2
	`

	loan.UpdatedAt = time.Now()

	_, err := r.db.ExecContext(ctx, query,
		loan.ID,
		loan.UserID,
		loan.CustomerID,
		loan.OtherParty,
		loan.Amount,
		loan.RemainingAmount,
		loan.Type,
		loan.Status,
		loan.Description,
		loan.LoanDate,
		loan.DueDate,
		loan.UpdatedAt,
	)

	return err
}

// Delete removes the loan together with its payments. No FK cascade is
// assumed, so both statements run in one transaction.
func (r *loanRepository) Delete(ctx context.Context, loanID, ownerID uuid.UUID) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err = tx.ExecContext(ctx,
		`DELETE FROM payments WHERE loan_id = $1`, loanID); err != nil {
		return err
	}

	if _, err = tx.ExecContext(ctx,
		`DELETE FROM loans WHERE id = $1 AND user_id = $2`, loanID, ownerID); err != nil {
		return err
	}

	return tx.Commit()
}

func (r *loanRepository) MarkOverdue(ctx context.Context, asOf time.Time) (int64, error) {
	query := `
		UPDATE loans
		SET status = $1, updated_at = $2
		WHERE status = $3 AND due_date IS NOT NULL AND due_date < $4
	`

	result, err := r.db.ExecContext(ctx, query,
		domain.LoanStatusOverdue, time.Now(), domain.LoanStatusActive, asOf)
	if err != nil {
		return 0, err
	}

	return result.RowsAffected()
}

// attachCustomers resolves the customer reference of each loan in one query.
func (r *loanRepository) attachCustomers(ctx context.Context, ownerID uuid.UUID, loans ...*domain.Loan) error {
	ids := make([]uuid.UUID, 0, len(loans))
	seen := make(map[uuid.UUID]bool)
	for _, loan := range loans {
		if loan.CustomerID != nil && !seen[*loan.CustomerID] {
			seen[*loan.CustomerID] = true
			ids = append(ids, *loan.CustomerID)
		}
	}
	if len(ids) == 0 {
		return nil
	}

	query := `
		SELECT id, user_id, name, register, phone, created_at, updated_at
		FROM customers
		WHERE id = ANY($1) AND user_id = $2
	`

	var customers []*domain.Customer
	if err := r.db.SelectContext(ctx, &customers, query, pq.Array(ids), ownerID); err != nil {
		return err
	}

	byID := make(map[uuid.UUID]*domain.Customer, len(customers))
	for _, c := range customers {
		byID[c.ID] = c
	}
	for _, loan := range loans {
		if loan.CustomerID != nil {
			loan.Customer = byID[*loan.CustomerID]
		}
	}

	return nil
}
