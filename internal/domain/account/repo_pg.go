package account

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/policardmed/carteirinha/internal/platform/apperr"
	"github.com/policardmed/carteirinha/internal/platform/auth"
	"github.com/policardmed/carteirinha/internal/platform/db"
)

type userRepoPG struct {
	pool *pgxpool.Pool
}

func NewUserRepo(pool *pgxpool.Pool) UserRepository {
	return &userRepoPG{pool: pool}
}

func (r *userRepoPG) conn(ctx context.Context) db.Queryable {
	return db.Conn(ctx, r.pool)
}

const userColumns = `u.id, u.username, u.password, u.name, u.role, u.created_at, u.updated_at,
	p.id, p.first_name, p.sur_name, p.cpf, p.medical_record_number`

const userFrom = ` FROM users u LEFT JOIN patient p ON p.user_id = u.id`

func (r *userRepoPG) scanUser(row pgx.Row) (*User, error) {
	var (
		u                       User
		patientID               *uuid.UUID
		firstName, surName, cpf *string
		medicalRecordNumber     *string
	)
	err := row.Scan(&u.ID, &u.Username, &u.Password, &u.Name, &u.Role, &u.CreatedAt, &u.UpdatedAt,
		&patientID, &firstName, &surName, &cpf, &medicalRecordNumber)
	if err != nil {
		return nil, err
	}
	if patientID != nil {
		u.Patient = &PatientRef{
			ID:                  *patientID,
			FirstName:           deref(firstName),
			SurName:             deref(surName),
			CPF:                 deref(cpf),
			MedicalRecordNumber: deref(medicalRecordNumber),
		}
	}
	return &u, nil
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func (r *userRepoPG) Create(ctx context.Context, u *User) error {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	err := r.conn(ctx).QueryRow(ctx, `
		INSERT INTO users (id, username, password, name, role)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING created_at, updated_at`,
		u.ID, u.Username, u.Password, u.Name, string(u.Role),
	).Scan(&u.CreatedAt, &u.UpdatedAt)
	return mapWriteErr(err)
}

func (r *userRepoPG) GetByID(ctx context.Context, id uuid.UUID) (*User, error) {
	u, err := r.scanUser(r.conn(ctx).QueryRow(ctx, `SELECT `+userColumns+userFrom+` WHERE u.id = $1`, id))
	if db.IsNoRows(err) {
		return nil, apperr.NotFound("User with id %s not found", id)
	}
	return u, err
}

func (r *userRepoPG) GetByUsername(ctx context.Context, username string) (*User, error) {
	u, err := r.scanUser(r.conn(ctx).QueryRow(ctx, `SELECT `+userColumns+userFrom+` WHERE u.username = $1`, username))
	if db.IsNoRows(err) {
		return nil, apperr.NotFound("User with username %s not found", username)
	}
	return u, err
}

func (r *userRepoPG) Update(ctx context.Context, u *User) error {
	err := r.conn(ctx).QueryRow(ctx, `
		UPDATE users SET username = $2, password = $3, name = $4, role = $5, updated_at = NOW()
		WHERE id = $1
		RETURNING updated_at`,
		u.ID, u.Username, u.Password, u.Name, string(u.Role),
	).Scan(&u.UpdatedAt)
	if db.IsNoRows(err) {
		return apperr.NotFound("User with id %s not found", u.ID)
	}
	return mapWriteErr(err)
}

func (r *userRepoPG) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.conn(ctx).Exec(ctx, `DELETE FROM users WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFound("User with id %s not found", id)
	}
	return nil
}

func (r *userRepoPG) List(ctx context.Context, limit, offset int) ([]*User, int, error) {
	var total int
	if err := r.conn(ctx).QueryRow(ctx, `SELECT COUNT(*) FROM users`).Scan(&total); err != nil {
		return nil, 0, err
	}

	query := `SELECT ` + userColumns + userFrom + ` ORDER BY u.created_at, u.username`
	args := []any{}
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
	defer rows.Close()

	users := []*User{}
	for rows.Next() {
		u, err := r.scanUser(rows)
		if err != nil {
			return nil, 0, err
		}
		users = append(users, u)
	}
	return users, total, rows.Err()
}

func (r *userRepoPG) CountByRole(ctx context.Context, role auth.Role) (int, error) {
	var n int
	err := r.conn(ctx).QueryRow(ctx, `SELECT COUNT(*) FROM users WHERE role = $1`, string(role)).Scan(&n)
	return n, err
}

func (r *userRepoPG) IDsByRole(ctx context.Context, role auth.Role) ([]uuid.UUID, error) {
	rows, err := r.conn(ctx).Query(ctx, `SELECT id FROM users WHERE role = $1`, string(role))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []uuid.UUID
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func mapWriteErr(err error) error {
	if err == nil {
		return nil
	}
	if constraint, ok := db.UniqueViolation(err); ok && constraint == "users_username_key" {
		return apperr.Conflict("Username already exists")
	}
	return fmt.Errorf("write user: %w", err)
}
