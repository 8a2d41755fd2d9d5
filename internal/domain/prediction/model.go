package prediction

import (
	"time"

	"github.com/google/uuid"
)

// Record is one observed real-world payment. Append-only; the predictor
// never mutates or deletes history.
type Record struct {
	ID            uuid.UUID `db:"id" json:"id"`
	InsurerName   string    `db:"insurer_name" json:"insurer_name"`
	ProcedureCode string    `db:"procedure_code" json:"procedure_code"`
	ChargedAmount float64   `db:"charged_amount" json:"charged_amount"`
	PaidAmount    float64   `db:"paid_amount" json:"paid_amount"`
	ServiceDate   time.Time `db:"service_date" json:"service_date"`
	PlanType      *string   `db:"plan_type" json:"plan_type,omitempty"`
	DeductibleMet *bool     `db:"deductible_met" json:"deductible_met,omitempty"`
	Region        *string   `db:"region" json:"region,omitempty"`
	PatientAge    *int      `db:"patient_age" json:"patient_age,omitempty"`
	SessionType   *string   `db:"session_type" json:"session_type,omitempty"`
	CreatedAt     time.Time `db:"created_at" json:"created_at"`
}

// Query describes one reimbursement question.
type Query struct {
	Insurer       string  `json:"insurer"`
	ProcedureCode string  `json:"procedure_code"`
	ChargedAmount float64 `json:"charged_amount"`
	PlanType      *string `json:"plan_type,omitempty"`
	DeductibleMet *bool   `json:"deductible_met,omitempty"`
	Region        *string `json:"region,omitempty"`
	PatientAge    *int    `json:"patient_age,omitempty"`
	SessionType   *string `json:"session_type,omitempty"`
}

// Prediction is the best-effort estimate for a query. Always populated;
// empty history resolves to the fallback branch rather than an error.
type Prediction struct {
	ProcedureCode          string   `json:"procedure_code"`
	PredictedReimbursement float64  `json:"predicted_reimbursement"`
	Confidence             float64  `json:"confidence"`
	DataPoints             int      `json:"data_points"`
	RecentTrendPct         float64  `json:"recent_trend_pct"`
	SeasonalVariation      float64  `json:"seasonal_variation"`
	Recommendations        []string `json:"recommendations"`
}
