package patient

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

type patientRepoPG struct {
	pool *pgxpool.Pool
}

func NewPatientRepo(pool *pgxpool.Pool) PatientRepository {
	return &patientRepoPG{pool: pool}
}

func (r *patientRepoPG) conn(ctx context.Context) db.Queryable {
	return db.Conn(ctx, r.pool)
}

const patientColumns = `p.id, p.first_name, p.sur_name, p.cpf, p.birth_date,
	p.medical_record_number, p.medical_record_number_holder,
	p.contract_start_date, p.contract_expiration_date, p.contract_type,
	p.user_id, p.created_at, p.updated_at,
	u.username, u.name, u.role, u.created_at, u.updated_at`

const patientFrom = ` FROM patient p LEFT JOIN users u ON u.id = p.user_id`

func (r *patientRepoPG) scanPatient(row pgx.Row) (*Patient, error) {
	var (
		p                    Patient
		username, name, role *string
		userCreated          *time.Time
		userUpdated          *time.Time
	)
	err := row.Scan(
		&p.ID, &p.FirstName, &p.SurName, &p.CPF, &p.BirthDate,
		&p.MedicalRecordNumber, &p.MedicalRecordNumberHolder,
		&p.ContractStartDate, &p.ContractExpirationDate, &p.ContractType,
		&p.UserID, &p.CreatedAt, &p.UpdatedAt,
		&username, &name, &role, &userCreated, &userUpdated,
	)
	if err != nil {
		return nil, err
	}
	if p.UserID != nil && username != nil {
		p.User = &account.User{
			ID:        *p.UserID,
			Username:  *username,
			Name:      *name,
			Role:      auth.Role(*role),
			CreatedAt: *userCreated,
			UpdatedAt: *userUpdated,
		}
	}
	return &p, nil
}

func (r *patientRepoPG) Create(ctx context.Context, p *Patient) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	err := r.conn(ctx).QueryRow(ctx, `
		INSERT INTO patient (
			id, first_name, sur_name, cpf, birth_date,
			medical_record_number, medical_record_number_holder,
			contract_start_date, contract_expiration_date, contract_type, user_id
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		RETURNING created_at, updated_at`,
		p.ID, p.FirstName, p.SurName, p.CPF, p.BirthDate,
		p.MedicalRecordNumber, p.MedicalRecordNumberHolder,
		p.ContractStartDate, p.ContractExpirationDate, string(p.ContractType), p.UserID,
	).Scan(&p.CreatedAt, &p.UpdatedAt)
	return mapWriteErr(err)
}

func (r *patientRepoPG) GetByID(ctx context.Context, id uuid.UUID) (*Patient, error) {
	p, err := r.scanPatient(r.conn(ctx).QueryRow(ctx, `SELECT `+patientColumns+patientFrom+` WHERE p.id = $1`, id))
	if db.IsNoRows(err) {
		return nil, apperr.NotFound("Patient not found")
	}
	return p, err
}

func (r *patientRepoPG) GetByCPF(ctx context.Context, cpf string) (*Patient, error) {
	p, err := r.scanPatient(r.conn(ctx).QueryRow(ctx, `SELECT `+patientColumns+patientFrom+` WHERE p.cpf = $1`, cpf))
	if db.IsNoRows(err) {
		return nil, apperr.NotFound("Patient not found")
	}
	return p, err
}

func (r *patientRepoPG) Update(ctx context.Context, p *Patient) error {
	err := r.conn(ctx).QueryRow(ctx, `
		UPDATE patient SET
			first_name = $2, sur_name = $3, cpf = $4, birth_date = $5,
			medical_record_number = $6, medical_record_number_holder = $7,
			contract_start_date = $8, contract_expiration_date = $9, contract_type = $10,
			updated_at = NOW()
		WHERE id = $1
		RETURNING updated_at`,
		p.ID, p.FirstName, p.SurName, p.CPF, p.BirthDate,
		p.MedicalRecordNumber, p.MedicalRecordNumberHolder,
		p.ContractStartDate, p.ContractExpirationDate, string(p.ContractType),
	).Scan(&p.UpdatedAt)
	if db.IsNoRows(err) {
		return apperr.NotFound("Patient not found")
	}
	return mapWriteErr(err)
}

func (r *patientRepoPG) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.conn(ctx).Exec(ctx, `DELETE FROM patient WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFound("Patient not found")
	}
	return nil
}

func (r *patientRepoPG) List(ctx context.Context, limit, offset int) ([]*Patient, int, error) {
	var total int
	if err := r.conn(ctx).QueryRow(ctx, `SELECT COUNT(*) FROM patient`).Scan(&total); err != nil {
		return nil, 0, err
	}

	query := `SELECT ` + patientColumns + patientFrom + ` ORDER BY p.created_at, p.id`
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
	defer rows.Close()

	patients := []*Patient{}
	for rows.Next() {
		p, err := r.scanPatient(rows)
		if err != nil {
			return nil, 0, err
		}
		patients = append(patients, p)
	}
	return patients, total, rows.Err()
}

// constraintMessages maps the patient table's unique constraints to the
// conflict reported to the caller.
var constraintMessages = map[string]string{
	"patient_cpf_key":                   "CPF already exists",
	"patient_medical_record_number_key": "medical record number already exists",
	"patient_user_id_key":               "user already has a patient record",
}

func mapWriteErr(err error) error {
	if err == nil {
		return nil
	}
	if constraint, ok := db.UniqueViolation(err); ok {
		if msg, known := constraintMessages[constraint]; known {
			return apperr.Conflict(msg)
		}
		return apperr.Conflict("patient already exists")
	}
	if _, ok := db.ForeignKeyViolation(err); ok {
		return apperr.NotFound("User not found")
	}
	return fmt.Errorf("write patient: %w", err)
}
