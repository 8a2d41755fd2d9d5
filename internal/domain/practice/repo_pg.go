package practice

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type practiceRepoPG struct{ pool *pgxpool.Pool }

func NewPracticeRepoPG(pool *pgxpool.Pool) PracticeRepository { return &practiceRepoPG{pool: pool} }

const practiceCols = `id, name, address_line, city, state, zip,
	phone, fax, email, npi, tax_id, contact_name, created_at, updated_at`

func scanPractice(row pgx.Row) (*Practice, error) {
	var p Practice
	err := row.Scan(&p.ID, &p.Name, &p.AddressLine, &p.City, &p.State, &p.Zip,
		&p.Phone, &p.Fax, &p.Email, &p.NPI, &p.TaxID, &p.ContactName, &p.CreatedAt, &p.UpdatedAt)
	return &p, err
}

func (r *practiceRepoPG) Create(ctx context.Context, p *Practice) error {
	p.ID = uuid.New()
	_, err := r.pool.Exec(ctx, `
		INSERT INTO practice (id, name, address_line, city, state, zip,
			phone, fax, email, npi, tax_id, contact_name)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12)`,
		p.ID, p.Name, p.AddressLine, p.City, p.State, p.Zip,
		p.Phone, p.Fax, p.Email, p.NPI, p.TaxID, p.ContactName)
	return err
}

func (r *practiceRepoPG) GetByID(ctx context.Context, id uuid.UUID) (*Practice, error) {
	return scanPractice(r.pool.QueryRow(ctx, `SELECT `+practiceCols+` FROM practice WHERE id = $1`, id))
}

func (r *practiceRepoPG) Update(ctx context.Context, p *Practice) error {
	_, err := r.pool.Exec(ctx, `
		UPDATE practice SET name=$2, address_line=$3, city=$4, state=$5, zip=$6,
			phone=$7, fax=$8, email=$9, npi=$10, tax_id=$11, contact_name=$12, updated_at=NOW()
		WHERE id = $1`,
		p.ID, p.Name, p.AddressLine, p.City, p.State, p.Zip,
		p.Phone, p.Fax, p.Email, p.NPI, p.TaxID, p.ContactName)
	return err
}

type patientRepoPG struct{ pool *pgxpool.Pool }

func NewPatientRepoPG(pool *pgxpool.Pool) PatientRepository { return &patientRepoPG{pool: pool} }

const patientCols = `id, practice_id, first_name, last_name, date_of_birth,
	member_id, insurer_name, plan_type, created_at, updated_at`

func scanPatient(row pgx.Row) (*Patient, error) {
	var p Patient
	err := row.Scan(&p.ID, &p.PracticeID, &p.FirstName, &p.LastName, &p.DateOfBirth,
		&p.MemberID, &p.InsurerName, &p.PlanType, &p.CreatedAt, &p.UpdatedAt)
	return &p, err
}

func (r *patientRepoPG) Create(ctx context.Context, p *Patient) error {
	p.ID = uuid.New()
	_, err := r.pool.Exec(ctx, `
		INSERT INTO patient (id, practice_id, first_name, last_name, date_of_birth,
			member_id, insurer_name, plan_type)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8)`,
		p.ID, p.PracticeID, p.FirstName, p.LastName, p.DateOfBirth,
		p.MemberID, p.InsurerName, p.PlanType)
	return err
}

func (r *patientRepoPG) GetByID(ctx context.Context, id uuid.UUID) (*Patient, error) {
	return scanPatient(r.pool.QueryRow(ctx, `SELECT `+patientCols+` FROM patient WHERE id = $1`, id))
}

func (r *patientRepoPG) ListByPractice(ctx context.Context, practiceID uuid.UUID, limit, offset int) ([]*Patient, int, error) {
	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM patient WHERE practice_id = $1`, practiceID).Scan(&total); err != nil {
		return nil, 0, err
	}

	rows, err := r.pool.Query(ctx, `SELECT `+patientCols+` FROM patient
		WHERE practice_id = $1 ORDER BY last_name, first_name LIMIT $2 OFFSET $3`,
		practiceID, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var patients []*Patient
	for rows.Next() {
		p, err := scanPatient(rows)
		if err != nil {
			return nil, 0, err
		}
		patients = append(patients, p)
	}
	return patients, total, rows.Err()
}
