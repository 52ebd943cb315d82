package healthcard

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/policardmed/carteirinha/internal/platform/apperr"
	"github.com/policardmed/carteirinha/internal/platform/db"
)

type healthCardRepoPG struct {
	pool *pgxpool.Pool
}

func NewHealthCardRepo(pool *pgxpool.Pool) HealthCardRepository {
	return &healthCardRepoPG{pool: pool}
}

func (r *healthCardRepoPG) conn(ctx context.Context) db.Queryable {
	return db.Conn(ctx, r.pool)
}

const cardColumns = `id, card_number, issue_date, expiration_date, status, patient_id, created_at, updated_at`

func (r *healthCardRepoPG) scanCard(row pgx.Row) (*HealthCard, error) {
	var hc HealthCard
	err := row.Scan(&hc.ID, &hc.CardNumber, &hc.IssueDate, &hc.ExpirationDate,
		&hc.Status, &hc.PatientID, &hc.CreatedAt, &hc.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &hc, nil
}

func (r *healthCardRepoPG) Create(ctx context.Context, hc *HealthCard) error {
	if hc.ID == uuid.Nil {
		hc.ID = uuid.New()
	}
	err := r.conn(ctx).QueryRow(ctx, `
		INSERT INTO health_card (id, card_number, issue_date, expiration_date, status, patient_id)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING created_at, updated_at`,
		hc.ID, hc.CardNumber, hc.IssueDate, hc.ExpirationDate, string(hc.Status), hc.PatientID,
	).Scan(&hc.CreatedAt, &hc.UpdatedAt)
	return mapWriteErr(err)
}

func (r *healthCardRepoPG) GetByID(ctx context.Context, id uuid.UUID) (*HealthCard, error) {
	hc, err := r.scanCard(r.conn(ctx).QueryRow(ctx, `SELECT `+cardColumns+` FROM health_card WHERE id = $1`, id))
	if db.IsNoRows(err) {
		return nil, apperr.NotFound("Health card with ID %s not found", id)
	}
	return hc, err
}

func (r *healthCardRepoPG) ListByPatient(ctx context.Context, patientID uuid.UUID) ([]*HealthCard, error) {
	rows, err := r.conn(ctx).Query(ctx,
		`SELECT `+cardColumns+` FROM health_card WHERE patient_id = $1 ORDER BY issue_date DESC, created_at DESC`, patientID)
	if err != nil {
		return nil, err
	}
	return r.collect(rows)
}

func (r *healthCardRepoPG) Update(ctx context.Context, hc *HealthCard) error {
	err := r.conn(ctx).QueryRow(ctx, `
		UPDATE health_card SET
			card_number = $2, issue_date = $3, expiration_date = $4, status = $5, updated_at = NOW()
		WHERE id = $1
		RETURNING updated_at`,
		hc.ID, hc.CardNumber, hc.IssueDate, hc.ExpirationDate, string(hc.Status),
	).Scan(&hc.UpdatedAt)
	if db.IsNoRows(err) {
		return apperr.NotFound("Health card with ID %s not found", hc.ID)
	}
	return mapWriteErr(err)
}

func (r *healthCardRepoPG) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.conn(ctx).Exec(ctx, `DELETE FROM health_card WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFound("Health card with ID %s not found", id)
	}
	return nil
}

func (r *healthCardRepoPG) List(ctx context.Context, limit, offset int) ([]*HealthCard, int, error) {
	var total int
	if err := r.conn(ctx).QueryRow(ctx, `SELECT COUNT(*) FROM health_card`).Scan(&total); err != nil {
		return nil, 0, err
	}

	query := `SELECT ` + cardColumns + ` FROM health_card ORDER BY created_at, id`
	var args []any
	if limit > 0 {
		query += ` LIMIT $1 OFFSET $2`
		args = append(args, limit, offset)
	} else if offset > 0 {
		query += ` OFFSET $1`
		args = append(args, offset)
	}

	rows, err := r.conn(ctx).Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	cards, err := r.collect(rows)
	return cards, total, err
}

func (r *healthCardRepoPG) collect(rows pgx.Rows) ([]*HealthCard, error) {
	defer rows.Close()
	cards := []*HealthCard{}
	for rows.Next() {
		hc, err := r.scanCard(rows)
		if err != nil {
			return nil, err
		}
		cards = append(cards, hc)
	}
	return cards, rows.Err()
}

func mapWriteErr(err error) error {
	if err == nil {
		return nil
	}
	if _, ok := db.UniqueViolation(err); ok {
		return apperr.Conflict("card number already exists")
	}
	if _, ok := db.ForeignKeyViolation(err); ok {
		return apperr.NotFound("Patient not found")
	}
	return fmt.Errorf("write health card: %w", err)
}
