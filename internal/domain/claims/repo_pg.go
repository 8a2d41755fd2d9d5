package claims

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type claimRepoPG struct{ pool *pgxpool.Pool }

func NewClaimRepoPG(pool *pgxpool.Pool) ClaimRepository { return &claimRepoPG{pool: pool} }

const claimCols = `id, practice_id, patient_id, insurer_name, status,
	total_amount, submitted_amount, paid_amount,
	submitted_at, paid_at, denied_at, denial_reason, review_score,
	created_at, updated_at`

func scanClaim(row pgx.Row) (*Claim, error) {
	var c Claim
	err := row.Scan(&c.ID, &c.PracticeID, &c.PatientID, &c.InsurerName, &c.Status,
		&c.TotalAmount, &c.SubmittedAmount, &c.PaidAmount,
		&c.SubmittedAt, &c.PaidAt, &c.DeniedAt, &c.DenialReason, &c.ReviewScore,
		&c.CreatedAt, &c.UpdatedAt)
	return &c, err
}

func (r *claimRepoPG) Create(ctx context.Context, c *Claim) error {
	c.ID = uuid.New()
	if c.Status == "" {
		c.Status = StatusDraft
	}
	_, err := r.pool.Exec(ctx, `
		INSERT INTO claim (id, practice_id, patient_id, insurer_name, status, total_amount, review_score)
		VALUES ($1,$2,$3,$4,$5,$6,$7)`,
		c.ID, c.PracticeID, c.PatientID, c.InsurerName, c.Status, c.TotalAmount, c.ReviewScore)
	return err
}

func (r *claimRepoPG) GetByID(ctx context.Context, id uuid.UUID) (*Claim, error) {
	return scanClaim(r.pool.QueryRow(ctx, `SELECT `+claimCols+` FROM claim WHERE id = $1`, id))
}

func (r *claimRepoPG) Update(ctx context.Context, c *Claim) error {
	_, err := r.pool.Exec(ctx, `
		UPDATE claim SET insurer_name=$2, total_amount=$3, review_score=$4, updated_at=NOW()
		WHERE id = $1`,
		c.ID, c.InsurerName, c.TotalAmount, c.ReviewScore)
	return err
}

// UpdateStatus writes the transition guarded by the expected source status.
// Zero rows affected means the claim moved since it was read.
func (r *claimRepoPG) UpdateStatus(ctx context.Context, id uuid.UUID, from, to ClaimStatus, patch StatusPatch) (bool, error) {
	tag, err := r.pool.Exec(ctx, `
		UPDATE claim SET status=$3,
			submitted_amount = COALESCE($4, submitted_amount),
			paid_amount      = COALESCE($5, paid_amount),
			denial_reason    = COALESCE($6, denial_reason),
			submitted_at     = COALESCE($7, submitted_at),
			paid_at          = COALESCE($8, paid_at),
			denied_at        = COALESCE($9, denied_at),
			updated_at = NOW()
		WHERE id = $1 AND status = $2`,
		id, from, to,
		patch.SubmittedAmount, patch.PaidAmount, patch.DenialReason,
		patch.SubmittedAt, patch.PaidAt, patch.DeniedAt)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}

func (r *claimRepoPG) ListByPractice(ctx context.Context, practiceID uuid.UUID, status ClaimStatus, limit, offset int) ([]*Claim, int, error) {
	where := `WHERE practice_id = $1`
	args := []interface{}{practiceID}
	if status != "" {
		where += ` AND status = $2`
		args = append(args, status)
	}

	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM claim `+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	args = append(args, limit, offset)
	n := len(args)
	rows, err := r.pool.Query(ctx,
		fmt.Sprintf(`SELECT `+claimCols+` FROM claim `+where+
			` ORDER BY created_at DESC LIMIT $%d OFFSET $%d`, n-1, n), args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var result []*Claim
	for rows.Next() {
		c, err := scanClaim(rows)
		if err != nil {
			return nil, 0, err
		}
		result = append(result, c)
	}
	return result, total, rows.Err()
}

func (r *claimRepoPG) AddLineItem(ctx context.Context, item *ClaimLineItem) error {
	item.ID = uuid.New()
	item.Amount = item.Rate * float64(item.Units)
	_, err := r.pool.Exec(ctx, `
		INSERT INTO claim_line_item (id, claim_id, procedure_code, diagnosis_code,
			units, rate, amount, service_date, modifier)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)`,
		item.ID, item.ClaimID, item.ProcedureCode, item.DiagnosisCode,
		item.Units, item.Rate, item.Amount, item.ServiceDate, item.Modifier)
	return err
}

func (r *claimRepoPG) GetLineItems(ctx context.Context, claimID uuid.UUID) ([]*ClaimLineItem, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, claim_id, procedure_code, diagnosis_code, units, rate, amount,
			service_date, modifier, created_at
		FROM claim_line_item WHERE claim_id = $1 ORDER BY created_at`, claimID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []*ClaimLineItem
	for rows.Next() {
		var li ClaimLineItem
		if err := rows.Scan(&li.ID, &li.ClaimID, &li.ProcedureCode, &li.DiagnosisCode,
			&li.Units, &li.Rate, &li.Amount, &li.ServiceDate, &li.Modifier, &li.CreatedAt); err != nil {
			return nil, err
		}
		items = append(items, &li)
	}
	return items, rows.Err()
}

func (r *claimRepoPG) SetTotalAmount(ctx context.Context, id uuid.UUID, total float64) error {
	_, err := r.pool.Exec(ctx, `UPDATE claim SET total_amount=$2, updated_at=NOW() WHERE id = $1`, id, total)
	return err
}

type appealRepoPG struct{ pool *pgxpool.Pool }

func NewAppealRepoPG(pool *pgxpool.Pool) AppealRepository { return &appealRepoPG{pool: pool} }

const appealCols = `id, claim_id, denial_category, letter_text, success_probability,
	suggested_actions, key_arguments, status, generated_at, status_changed_at`

func scanAppeal(row pgx.Row) (*AppealRecord, error) {
	var a AppealRecord
	err := row.Scan(&a.ID, &a.ClaimID, &a.DenialCategory, &a.LetterText, &a.SuccessProbability,
		&a.SuggestedActions, &a.KeyArguments, &a.Status, &a.GeneratedAt, &a.StatusChangedAt)
	return &a, err
}

func (r *appealRepoPG) Create(ctx context.Context, a *AppealRecord) error {
	a.ID = uuid.New()
	if a.Status == "" {
		a.Status = AppealPending
	}
	if a.GeneratedAt.IsZero() {
		a.GeneratedAt = time.Now().UTC()
	}
	_, err := r.pool.Exec(ctx, `
		INSERT INTO appeal_record (id, claim_id, denial_category, letter_text,
			success_probability, suggested_actions, key_arguments, status, generated_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)`,
		a.ID, a.ClaimID, a.DenialCategory, a.LetterText,
		a.SuccessProbability, a.SuggestedActions, a.KeyArguments, a.Status, a.GeneratedAt)
	return err
}

func (r *appealRepoPG) GetByID(ctx context.Context, id uuid.UUID) (*AppealRecord, error) {
	return scanAppeal(r.pool.QueryRow(ctx, `SELECT `+appealCols+` FROM appeal_record WHERE id = $1`, id))
}

func (r *appealRepoPG) ListByClaim(ctx context.Context, claimID uuid.UUID) ([]*AppealRecord, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+appealCols+` FROM appeal_record WHERE claim_id = $1 ORDER BY generated_at DESC`, claimID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var appeals []*AppealRecord
	for rows.Next() {
		a, err := scanAppeal(rows)
		if err != nil {
			return nil, err
		}
		appeals = append(appeals, a)
	}
	return appeals, rows.Err()
}

func (r *appealRepoPG) UpdateStatus(ctx context.Context, id uuid.UUID, status AppealStatus, at time.Time) error {
	_, err := r.pool.Exec(ctx,
		`UPDATE appeal_record SET status=$2, status_changed_at=$3 WHERE id = $1`, id, status, at)
	return err
}
