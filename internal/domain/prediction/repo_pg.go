package prediction

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

type historyRepoPG struct{ pool *pgxpool.Pool }

func NewHistoryRepoPG(pool *pgxpool.Pool) HistoryRepository { return &historyRepoPG{pool: pool} }

const recordCols = `id, insurer_name, procedure_code, charged_amount, paid_amount,
	service_date, plan_type, deductible_met, region, patient_age, session_type, created_at`

func (r *historyRepoPG) Append(ctx context.Context, records []*Record) error {
	for _, rec := range records {
		rec.ID = uuid.New()
		_, err := r.pool.Exec(ctx, `
			INSERT INTO reimbursement_history (id, insurer_name, procedure_code,
				charged_amount, paid_amount, service_date,
				plan_type, deductible_met, region, patient_age, session_type)
			VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)`,
			rec.ID, rec.InsurerName, rec.ProcedureCode,
			rec.ChargedAmount, rec.PaidAmount, rec.ServiceDate,
			rec.PlanType, rec.DeductibleMet, rec.Region, rec.PatientAge, rec.SessionType)
		if err != nil {
			return err
		}
	}
	return nil
}

func (r *historyRepoPG) QueryByCodes(ctx context.Context, codes []string) ([]*Record, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+recordCols+` FROM reimbursement_history
		 WHERE procedure_code = ANY($1) ORDER BY service_date DESC`, codes)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []*Record
	for rows.Next() {
		var rec Record
		if err := rows.Scan(&rec.ID, &rec.InsurerName, &rec.ProcedureCode,
			&rec.ChargedAmount, &rec.PaidAmount, &rec.ServiceDate,
			&rec.PlanType, &rec.DeductibleMet, &rec.Region, &rec.PatientAge,
			&rec.SessionType, &rec.CreatedAt); err != nil {
			return nil, err
		}
		records = append(records, &rec)
	}
	return records, rows.Err()
}
