package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/pm/patient-system/internal/core/domain"
)

const patientColumns = `id::text, patient_code, name, email, address, birth_date, registered_date`

type PatientRepository struct {
	db DBTX
}

func NewPatientRepository(db DBTX) *PatientRepository {
	return &PatientRepository{db: db}
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanPatient(row rowScanner) (*domain.Patient, error) {
	p := &domain.Patient{}
	if err := row.Scan(&p.ID, &p.Code, &p.Name, &p.Email, &p.Address, &p.BirthDate, &p.RegisteredDate); err != nil {
		return nil, err
	}
	p.BirthDate = p.BirthDate.UTC()
	p.RegisteredDate = p.RegisteredDate.UTC()
	return p, nil
}

// FindAll returns every patient ordered by code.
func (r *PatientRepository) FindAll(ctx context.Context) ([]*domain.Patient, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+patientColumns+` FROM patients ORDER BY patient_code`)
	if err != nil {
		return nil, fmt.Errorf("list patients: %w", err)
	}
	defer rows.Close()

	var out []*domain.Patient
	for rows.Next() {
		p, err := scanPatient(rows)
		if err != nil {
			return nil, fmt.Errorf("scan patient: %w", err)
		}
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list patients: %w", err)
	}
	return out, nil
}

func (r *PatientRepository) FindByID(ctx context.Context, id string) (*domain.Patient, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+patientColumns+` FROM patients WHERE id = $1`, id)
	p, err := scanPatient(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) || isInvalidText(err) {
			return nil, domain.ErrPatientNotFound
		}
		return nil, fmt.Errorf("find patient: %w", err)
	}
	return p, nil
}

func (r *PatientRepository) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	var found bool
	err := r.db.QueryRowContext(ctx, `SELECT EXISTS (SELECT 1 FROM patients WHERE email = $1)`, email).Scan(&found)
	if err != nil {
		return false, fmt.Errorf("lookup patient: %w", err)
	}
	return found, nil
}

func (r *PatientRepository) ExistsByID(ctx context.Context, id string) (bool, error) {
	var found bool
	err := r.db.QueryRowContext(ctx, `SELECT EXISTS (SELECT 1 FROM patients WHERE id = $1)`, id).Scan(&found)
	if err != nil {
		if isInvalidText(err) {
			return false, nil
		}
		return false, fmt.Errorf("lookup patient: %w", err)
	}
	return found, nil
}

// Create inserts a new patient row. The patients_email_key constraint turns a
// concurrent duplicate into domain.ErrEmailAlreadyExists.
func (r *PatientRepository) Create(ctx context.Context, p *domain.Patient) error {
	query :=
		`INSERT INTO patients (id, patient_code, name, email, address, birth_date, registered_date)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`

	_, err := r.db.ExecContext(ctx, query, p.ID, p.Code, p.Name, p.Email, p.Address, p.BirthDate, p.RegisteredDate)
	if err != nil {
		if isUniqueViolation(err, "patients_email_key") {
			return domain.ErrEmailAlreadyExists
		}
		return fmt.Errorf("insert patient: %w", err)
	}
	return nil
}

func (r *PatientRepository) Update(ctx context.Context, p *domain.Patient) error {
	query :=
		`UPDATE patients
		 SET name = $2, email = $3, address = $4, birth_date = $5, registered_date = $6
		 WHERE id = $1`

	res, err := r.db.ExecContext(ctx, query, p.ID, p.Name, p.Email, p.Address, p.BirthDate, p.RegisteredDate)
	if err != nil {
		if isUniqueViolation(err, "patients_email_key") {
			return domain.ErrEmailAlreadyExists
		}
		if isInvalidText(err) {
			return domain.ErrPatientNotFound
		}
		return fmt.Errorf("update patient: %w", err)
	}
	return requireAffected(res)
}

func (r *PatientRepository) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM patients WHERE id = $1`, id)
	if err != nil {
		if isInvalidText(err) {
			return domain.ErrPatientNotFound
		}
		return fmt.Errorf("delete patient: %w", err)
	}
	return requireAffected(res)
}

func requireAffected(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return domain.ErrPatientNotFound
	}
	return nil
}
