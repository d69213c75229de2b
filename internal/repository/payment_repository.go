package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"

	"github.com/ganaa/loantrack/internal/domain"
)

type paymentRepository struct {
	db *sqlx.DB
}

func NewPaymentRepository(db *sqlx.DB) PaymentRepository {
	return &paymentRepository{db: db}
}

const paymentColumnsPrefixed = `p.id, p.loan_id, p.amount, p.description, p.payment_date, p.created_at`

func (r *paymentRepository) ApplyPayment(ctx context.Context, payment *domain.Payment, ownerID uuid.UUID) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	// Conditional decrement: the WHERE clause rejects the write if another
	// payment drained the balance since the caller's read, so two racing
	// payments can never overdraw the loan.
	decrement := `
		UPDATE loans
		SET remaining_amount = remaining_amount - $3,
		    status = CASE WHEN remaining_amount - $3 = 0 THEN $4 ELSE status END,
		    updated_at = $5
		WHERE id = $1 AND user_id = $2 AND remaining_amount >= $3
	`

	result, err := tx.ExecContext(ctx, decrement,
		payment.LoanID, ownerID, payment.Amount, domain.LoanStatusPaid, time.Now())
	if err != nil {
		return err
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return ErrInsufficientBalance
	}

	insert := `
		INSERT INTO payments (id, loan_id, amount, description, payment_date, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`

	payment.CreatedAt = time.Now()
	if _, err = tx.ExecContext(ctx, insert,
		payment.ID,
		payment.LoanID,
		payment.Amount,
		payment.Description,
		payment.PaymentDate,
		payment.CreatedAt,
	); err != nil {
		return err
	}

	return tx.Commit()
}

func (r *paymentRepository) ReversePayment(ctx context.Context, loanID, paymentID, ownerID uuid.UUID) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	var amount decimal.Decimal
	err = tx.GetContext(ctx, &amount,
		`DELETE FROM payments WHERE id = $1 AND loan_id = $2 RETURNING amount`,
		paymentID, loanID)
	if err != nil {
		return err
	}

	// The loan always drops back to ACTIVE, even when the restored amount
	// leaves nothing outstanding.
	restore := `
		UPDATE loans
		SET remaining_amount = remaining_amount + $3, status = $4, updated_at = $5
		WHERE id = $1 AND user_id = $2
	`

	result, err := tx.ExecContext(ctx, restore,
		loanID, ownerID, amount, domain.LoanStatusActive, time.Now())
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

	return tx.Commit()
}

func (r *paymentRepository) Settle(ctx context.Context, loanID, ownerID uuid.UUID, paymentDate time.Time) (*domain.Payment, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	// Lock the row so the synthesized payment matches the balance it clears.
	var remaining decimal.Decimal
	err = tx.GetContext(ctx, &remaining,
		`SELECT remaining_amount FROM loans WHERE id = $1 AND user_id = $2 FOR UPDATE`,
		loanID, ownerID)
	if err != nil {
		return nil, err
	}

	var payment *domain.Payment
	if remaining.IsPositive() {
		payment = &domain.Payment{
			ID:          uuid.New(),
			LoanID:      loanID,
			Amount:      remaining,
			Description: domain.FullSettlementDescription,
			PaymentDate: paymentDate,
			CreatedAt:   time.Now(),
		}

		insert := `
			INSERT INTO payments (id, loan_id, amount, description, payment_date, created_at)
			VALUES ($1, $2, $3, $4, $5, $6)
		`
		if _, err = tx.ExecContext(ctx, insert,
			payment.ID, payment.LoanID, payment.Amount,
			payment.Description, payment.PaymentDate, payment.CreatedAt); err != nil {
			return nil, err
		}
	}

	settle := `
		UPDATE loans
		SET remaining_amount = 0, status = $3, updated_at = $4
		WHERE id = $1 AND user_id = $2
	`
	if _, err = tx.ExecContext(ctx, settle,
		loanID, ownerID, domain.LoanStatusPaid, time.Now()); err != nil {
		return nil, err
	}

	if err = tx.Commit(); err != nil {
		return nil, err
	}

	return payment, nil
}

func (r *paymentRepository) GetByID(ctx context.Context, paymentID, loanID, ownerID uuid.UUID) (*domain.Payment, error) {
	query := `
		SELECT ` + paymentColumnsPrefixed + `
		FROM payments p
		JOIN loans l ON l.id = p.loan_id
		WHERE p.id = $1 AND p.loan_id = $2 AND l.user_id = $3
	`

	var payment domain.Payment
	err := r.db.GetContext(ctx, &payment, query, paymentID, loanID, ownerID)
	if err != nil {
		return nil, err
	}

	return &payment, nil
}

func (r *paymentRepository) ListByLoan(ctx context.Context, loanID, ownerID uuid.UUID) ([]*domain.Payment, error) {
	query := `
		SELECT ` + paymentColumnsPrefixed + `
		FROM payments p
		JOIN loans l ON l.id = p.loan_id
		WHERE p.loan_id = $1 AND l.user_id = $2
		ORDER BY p.payment_date DESC
	`

	var payments []*domain.Payment
	err := r.db.SelectContext(ctx, &payments, query, loanID, ownerID)
	if err != nil {
		return nil, err
	}

	return payments, nil
}
