package payment

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/policardmed/carteirinha/internal/domain/account"
	"github.com/policardmed/carteirinha/internal/platform/apperr"
	"github.com/policardmed/carteirinha/internal/platform/auth"
	"github.com/policardmed/carteirinha/internal/platform/db"
)

type paymentRepoPG struct {
	pool *pgxpool.Pool
}

func NewPaymentRepo(pool *pgxpool.Pool) PaymentRepository {
	return &paymentRepoPG{pool: pool}
}

func (r *paymentRepoPG) conn(ctx context.Context) db.Queryable {
	return db.Conn(ctx, r.pool)
}

const paymentColumns = `p.id, p.user_id, p.amount, p.status, p.created_at, p.updated_at,
	u.username, u.name, u.role, u.created_at, u.updated_at`

const paymentFrom = ` FROM payment p LEFT JOIN users u ON u.id = p.user_id`

func (r *paymentRepoPG) scanPayment(row pgx.Row) (*Payment, error) {
	var (
		p                    Payment
		username, name, role *string
		userCreated          *time.Time
		userUpdated          *time.Time
	)
	err := row.Scan(
		&p.ID, &p.UserID, &p.Amount, &p.Status, &p.CreatedAt, &p.UpdatedAt,
		&username, &name, &role, &userCreated, &userUpdated,
	)
	if err != nil {
		return nil, err
	}
	if username != nil {
		p.User = &account.User{
			ID:        p.UserID,
			Username:  *username,
			Name:      *name,
			Role:      auth.Role(*role),
			CreatedAt: *userCreated,
			UpdatedAt: *userUpdated,
		}
	}
	return &p, nil
}

func (r *paymentRepoPG) Create(ctx context.Context, p *Payment) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	err := r.conn(ctx).QueryRow(ctx, `
		INSERT INTO payment (id, user_id, amount, status)
		VALUES ($1, $2, $3, $4)
		RETURNING created_at, updated_at`,
		p.ID, p.UserID, p.Amount, string(p.Status),
	).Scan(&p.CreatedAt, &p.UpdatedAt)
	if err == nil {
		return nil
	}
	if _, ok := db.ForeignKeyViolation(err); ok {
		return apperr.NotFound("User not found")
	}
	return fmt.Errorf("insert payment: %w", err)
}

func (r *paymentRepoPG) GetByID(ctx context.Context, id uuid.UUID) (*Payment, error) {
	p, err := r.scanPayment(r.conn(ctx).QueryRow(ctx, `SELECT `+paymentColumns+paymentFrom+` WHERE p.id = $1`, id))
	if db.IsNoRows(err) {
		return nil, apperr.NotFound("Payment with ID %q not found", id)
	}
	return p, err
}

func (r *paymentRepoPG) ListByUser(ctx context.Context, userID uuid.UUID) ([]*Payment, error) {
	return r.query(ctx, `SELECT `+paymentColumns+paymentFrom+` WHERE p.user_id = $1 ORDER BY p.created_at DESC`, userID)
}

func (r *paymentRepoPG) UpdateStatus(ctx context.Context, id uuid.UUID, from, to Status) (*Payment, error) {
	var updatedAt time.Time
	err := r.conn(ctx).QueryRow(ctx, `
		UPDATE payment SET status = $3, updated_at = NOW()
		WHERE id = $1 AND status = $2
		RETURNING updated_at`,
		id, string(from), string(to),
	).Scan(&updatedAt)
	if db.IsNoRows(err) {
		return nil, apperr.Conflict("Payment with ID %q is no longer %s", id, from)
	}
	if err != nil {
		return nil, fmt.Errorf("update payment status: %w", err)
	}
	return r.GetByID(ctx, id)
}

func (r *paymentRepoPG) ListRecent(ctx context.Context, limit int) ([]*Payment, error) {
	return r.query(ctx, `SELECT `+paymentColumns+paymentFrom+` ORDER BY p.created_at DESC LIMIT $1`, limit)
}

func (r *paymentRepoPG) ListByUsers(ctx context.Context, userIDs []uuid.UUID) ([]*Payment, error) {
	if len(userIDs) == 0 {
		return []*Payment{}, nil
	}
	return r.query(ctx, `SELECT `+paymentColumns+paymentFrom+` WHERE p.user_id = ANY($1) ORDER BY p.created_at DESC`, userIDs)
}

func (r *paymentRepoPG) query(ctx context.Context, sql string, args ...any) ([]*Payment, error) {
	rows, err := r.conn(ctx).Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	payments := []*Payment{}
	for rows.Next() {
		p, err := r.scanPayment(rows)
		if err != nil {
			return nil, err
		}
		payments = append(payments, p)
	}
	return payments, rows.Err()
}
