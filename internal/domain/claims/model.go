package claims

import (
	"time"

	"github.com/google/uuid"
)

// ClaimStatus is the lifecycle state of a claim.
type ClaimStatus string

const (
	StatusDraft     ClaimStatus = "draft"
	StatusSubmitted ClaimStatus = "submitted"
	StatusPaid      ClaimStatus = "paid"
	StatusDenied    ClaimStatus = "denied"
)

// Event is a lifecycle transition request.
type Event string

const (
	EventSubmit Event = "submit"
	EventPay    Event = "pay"
	EventDeny   Event = "deny"
)

// AppealStatus is the delivery state of a generated appeal.
type AppealStatus string

const (
	AppealPending   AppealStatus = "pending"
	AppealSent      AppealStatus = "sent"
	AppealCompleted AppealStatus = "completed"
	AppealFailed    AppealStatus = "failed"
)

// Claim maps to the claim table. TotalAmount always equals the sum of its
// line item amounts; only draft claims accept field edits.
type Claim struct {
	ID              uuid.UUID   `db:"id" json:"id"`
	PracticeID      uuid.UUID   `db:"practice_id" json:"practice_id"`
	PatientID       uuid.UUID   `db:"patient_id" json:"patient_id"`
	InsurerName     string      `db:"insurer_name" json:"insurer_name"`
	Status          ClaimStatus `db:"status" json:"status"`
	TotalAmount     float64     `db:"total_amount" json:"total_amount"`
	SubmittedAmount *float64    `db:"submitted_amount" json:"submitted_amount,omitempty"`
	PaidAmount      *float64    `db:"paid_amount" json:"paid_amount,omitempty"`
	SubmittedAt     *time.Time  `db:"submitted_at" json:"submitted_at,omitempty"`
	PaidAt          *time.Time  `db:"paid_at" json:"paid_at,omitempty"`
	DeniedAt        *time.Time  `db:"denied_at" json:"denied_at,omitempty"`
	DenialReason    *string     `db:"denial_reason" json:"denial_reason,omitempty"`
	ReviewScore     *int        `db:"review_score" json:"review_score,omitempty"`
	CreatedAt       time.Time   `db:"created_at" json:"created_at"`
	UpdatedAt       time.Time   `db:"updated_at" json:"updated_at"`
}

// ClaimLineItem is one procedure-code charge within a claim. Rate is fixed
// at billing time; Amount is always Rate times Units.
type ClaimLineItem struct {
	ID            uuid.UUID `db:"id" json:"id"`
	ClaimID       uuid.UUID `db:"claim_id" json:"claim_id"`
	ProcedureCode string    `db:"procedure_code" json:"procedure_code"`
	DiagnosisCode *string   `db:"diagnosis_code" json:"diagnosis_code,omitempty"`
	Units         int       `db:"units" json:"units"`
	Rate          float64   `db:"rate" json:"rate"`
	Amount        float64   `db:"amount" json:"amount"`
	ServiceDate   time.Time `db:"service_date" json:"service_date"`
	Modifier      *string   `db:"modifier" json:"modifier,omitempty"`
	CreatedAt     time.Time `db:"created_at" json:"created_at"`
}

// AppealRecord is one generated appeal tied to a denial event. A claim may
// accumulate several records when the appeal is regenerated.
type AppealRecord struct {
	ID                 uuid.UUID    `db:"id" json:"id"`
	ClaimID            uuid.UUID    `db:"claim_id" json:"claim_id"`
	DenialCategory     string       `db:"denial_category" json:"denial_category"`
	LetterText         string       `db:"letter_text" json:"letter_text"`
	SuccessProbability int          `db:"success_probability" json:"success_probability"`
	SuggestedActions   []string     `db:"suggested_actions" json:"suggested_actions"`
	KeyArguments       []string     `db:"key_arguments" json:"key_arguments"`
	Status             AppealStatus `db:"status" json:"status"`
	GeneratedAt        time.Time    `db:"generated_at" json:"generated_at"`
	StatusChangedAt    *time.Time   `db:"status_changed_at" json:"status_changed_at,omitempty"`
}

// RecalculateTotal sets the claim total to the sum of its line item amounts.
func (c *Claim) RecalculateTotal(items []*ClaimLineItem) {
	total := 0.0
	for _, item := range items {
		total += item.Amount
	}
	c.TotalAmount = total
}

// IsTerminal reports whether no lifecycle event can move the claim any
// further. Derived from the transition table so the two never disagree.
func (s ClaimStatus) IsTerminal() bool {
	return len(transitions[s]) == 0
}
