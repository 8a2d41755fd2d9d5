package claims

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// AppealDraft is the rendered output of an appeal generator.
type AppealDraft struct {
	DenialCategory     string
	LetterText         string
	SuccessProbability int
	SuggestedActions   []string
	KeyArguments       []string
}

// AppealGenerator drafts an appeal for a denied claim. Implementations are
// pure over their inputs; persistence stays with the caller.
type AppealGenerator interface {
	Generate(ctx context.Context, claim *Claim, items []*ClaimLineItem) (*AppealDraft, error)
}

// Notifier receives claim lifecycle events after they are committed.
// Delivery is best-effort and never affects the transition outcome.
type Notifier interface {
	NotifyStatusChange(ctx context.Context, c *Claim)
}

type Service struct {
	claims   ClaimRepository
	appeals  AppealRepository
	drafter  AppealGenerator
	notifier Notifier
}

func NewService(claims ClaimRepository, appeals AppealRepository, drafter AppealGenerator) *Service {
	return &Service{claims: claims, appeals: appeals, drafter: drafter}
}

func (s *Service) SetNotifier(n Notifier) {
	s.notifier = n
}

func (s *Service) notify(ctx context.Context, c *Claim) {
	if s.notifier != nil && c != nil {
		s.notifier.NotifyStatusChange(ctx, c)
	}
}

// CreateClaim persists a draft claim and its line items. The claim total is
// always recomputed from the line items.
func (s *Service) CreateClaim(ctx context.Context, c *Claim, items []*ClaimLineItem) error {
	if c.PatientID == uuid.Nil {
		return fmt.Errorf("%w: patient_id", ErrMissingRequiredField)
	}
	if c.InsurerName == "" {
		return fmt.Errorf("%w: insurer_name", ErrMissingRequiredField)
	}
	for _, item := range items {
		if item.ProcedureCode == "" {
			return fmt.Errorf("%w: procedure_code", ErrMissingRequiredField)
		}
		if item.Units < 1 {
			return fmt.Errorf("%w: units must be a positive integer", ErrMissingRequiredField)
		}
		if item.Rate <= 0 {
			return fmt.Errorf("%w: rate must be positive", ErrMissingRequiredField)
		}
	}
	if c.ReviewScore != nil && (*c.ReviewScore < 0 || *c.ReviewScore > 100) {
		return fmt.Errorf("review_score must be between 0 and 100, got %d", *c.ReviewScore)
	}

	c.Status = StatusDraft
	if err := s.claims.Create(ctx, c); err != nil {
		return err
	}

	for _, item := range items {
		item.ClaimID = c.ID
		if err := s.claims.AddLineItem(ctx, item); err != nil {
			return err
		}
	}

	c.RecalculateTotal(items)
	return s.claims.SetTotalAmount(ctx, c.ID, c.TotalAmount)
}

func (s *Service) GetClaim(ctx context.Context, id uuid.UUID) (*Claim, error) {
	return s.claims.GetByID(ctx, id)
}

func (s *Service) GetLineItems(ctx context.Context, claimID uuid.UUID) ([]*ClaimLineItem, error) {
	return s.claims.GetLineItems(ctx, claimID)
}

func (s *Service) ListClaims(ctx context.Context, practiceID uuid.UUID, status ClaimStatus, limit, offset int) ([]*Claim, int, error) {
	return s.claims.ListByPractice(ctx, practiceID, status, limit, offset)
}

// AddLineItem appends a line item to a draft claim and recomputes the total.
// Non-draft claims are edit-locked.
func (s *Service) AddLineItem(ctx context.Context, item *ClaimLineItem) error {
	c, err := s.claims.GetByID(ctx, item.ClaimID)
	if err != nil {
		return err
	}
	if c.Status != StatusDraft {
		return fmt.Errorf("%w: claim %s is edit-locked in status %q", ErrInvalidTransition, c.ID, c.Status)
	}
	if item.Units < 1 {
		return fmt.Errorf("%w: units must be a positive integer", ErrMissingRequiredField)
	}
	if item.Rate <= 0 {
		return fmt.Errorf("%w: rate must be positive", ErrMissingRequiredField)
	}
	if err := s.claims.AddLineItem(ctx, item); err != nil {
		return err
	}

	items, err := s.claims.GetLineItems(ctx, item.ClaimID)
	if err != nil {
		return err
	}
	c.RecalculateTotal(items)
	return s.claims.SetTotalAmount(ctx, c.ID, c.TotalAmount)
}

// transition applies one lifecycle event with compare-and-swap semantics.
// A failed swap means the claim's status changed since it was read.
func (s *Service) transition(ctx context.Context, id uuid.UUID, event Event, patch StatusPatch) (*Claim, error) {
	c, err := s.claims.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	next, err := NextStatus(c.ID, c.Status, event)
	if err != nil {
		return nil, err
	}

	ok, err := s.claims.UpdateStatus(ctx, id, c.Status, next, patch)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, &InvalidTransitionError{ClaimID: id, From: c.Status, Event: event}
	}

	return s.claims.GetByID(ctx, id)
}

// Submit moves a draft claim to submitted. The submitted amount defaults to
// the claim total when not given.
func (s *Service) Submit(ctx context.Context, id uuid.UUID, submittedAmount *float64) (*Claim, error) {
	c, err := s.claims.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	amount := c.TotalAmount
	if submittedAmount != nil {
		amount = *submittedAmount
	}
	now := time.Now().UTC()

	c, err = s.transition(ctx, id, EventSubmit, StatusPatch{
		SubmittedAmount: &amount,
		SubmittedAt:     &now,
	})
	if err != nil {
		return nil, err
	}
	s.notify(ctx, c)
	return c, nil
}

// MarkPaid moves a submitted claim to paid. The paid amount defaults to the
// submitted amount, falling back to the claim total.
func (s *Service) MarkPaid(ctx context.Context, id uuid.UUID, paidAmount *float64) (*Claim, error) {
	c, err := s.claims.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	amount := c.TotalAmount
	if c.SubmittedAmount != nil {
		amount = *c.SubmittedAmount
	}
	if paidAmount != nil {
		amount = *paidAmount
	}
	now := time.Now().UTC()

	c, err = s.transition(ctx, id, EventPay, StatusPatch{
		PaidAmount: &amount,
		PaidAt:     &now,
	})
	if err != nil {
		return nil, err
	}
	s.notify(ctx, c)
	return c, nil
}

// DenialResult reports the outcome of a denial transition. Appeal drafting
// is best-effort; its failure never rolls back the denial.
type DenialResult struct {
	Claim           *Claim        `json:"claim"`
	Appeal          *AppealRecord `json:"appeal,omitempty"`
	AppealGenerated bool          `json:"appeal_generated"`
}

// Deny moves a submitted claim to denied and synchronously attempts to
// draft an appeal. The denial reason defaults when omitted.
func (s *Service) Deny(ctx context.Context, id uuid.UUID, reason string) (*DenialResult, error) {
	if reason == "" {
		reason = "No reason provided"
	}
	now := time.Now().UTC()

	c, err := s.transition(ctx, id, EventDeny, StatusPatch{
		DenialReason: &reason,
		DeniedAt:     &now,
	})
	if err != nil {
		return nil, err
	}

	s.notify(ctx, c)

	result := &DenialResult{Claim: c}
	appeal, err := s.generateAppeal(ctx, c)
	if err == nil {
		result.Appeal = appeal
		result.AppealGenerated = true
	}
	return result, nil
}

// RegenerateAppeal drafts a fresh appeal for a denied claim without touching
// claim status. Each call adds a new AppealRecord.
func (s *Service) RegenerateAppeal(ctx context.Context, claimID uuid.UUID) (*AppealRecord, error) {
	c, err := s.claims.GetByID(ctx, claimID)
	if err != nil {
		return nil, err
	}
	if c.Status != StatusDenied {
		return nil, fmt.Errorf("%w: claim %s is not denied (status %q)", ErrInvalidTransition, c.ID, c.Status)
	}
	return s.generateAppeal(ctx, c)
}

func (s *Service) generateAppeal(ctx context.Context, c *Claim) (*AppealRecord, error) {
	if s.drafter == nil {
		return nil, fmt.Errorf("no appeal drafter configured")
	}

	items, err := s.claims.GetLineItems(ctx, c.ID)
	if err != nil {
		return nil, err
	}

	draft, err := s.drafter.Generate(ctx, c, items)
	if err != nil {
		return nil, err
	}

	record := &AppealRecord{
		ClaimID:            c.ID,
		DenialCategory:     draft.DenialCategory,
		LetterText:         draft.LetterText,
		SuccessProbability: draft.SuccessProbability,
		SuggestedActions:   draft.SuggestedActions,
		KeyArguments:       draft.KeyArguments,
		Status:             AppealPending,
		GeneratedAt:        time.Now().UTC(),
	}
	if err := s.appeals.Create(ctx, record); err != nil {
		return nil, err
	}
	return record, nil
}

func (s *Service) ListAppeals(ctx context.Context, claimID uuid.UUID) ([]*AppealRecord, error) {
	return s.appeals.ListByClaim(ctx, claimID)
}

// UpdateAppealStatus applies an explicit appeal sub-state transition.
func (s *Service) UpdateAppealStatus(ctx context.Context, id uuid.UUID, status AppealStatus) (*AppealRecord, error) {
	a, err := s.appeals.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !CanAppealTransition(a.Status, status) {
		return nil, fmt.Errorf("%w: appeal %s cannot move from %q to %q", ErrInvalidTransition, a.ID, a.Status, status)
	}

	now := time.Now().UTC()
	if err := s.appeals.UpdateStatus(ctx, id, status, now); err != nil {
		return nil, err
	}
	a.Status = status
	a.StatusChangedAt = &now
	return a, nil
}
