package integration

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rcm/rcm/internal/domain/claims"
	"github.com/rcm/rcm/internal/domain/denials"
	"github.com/rcm/rcm/internal/domain/practice"
)

func newClaimService(t *testing.T) *claims.Service {
	t.Helper()
	practiceRepo := practice.NewPracticeRepoPG(globalDB.Pool)
	patientRepo := practice.NewPatientRepoPG(globalDB.Pool)
	drafter := denials.NewDrafter(practiceRepo, patientRepo)

	claimRepo := claims.NewClaimRepoPG(globalDB.Pool)
	appealRepo := claims.NewAppealRepoPG(globalDB.Pool)
	return claims.NewService(claimRepo, appealRepo, drafter)
}

func newPersistedClaim(t *testing.T, ctx context.Context, svc *claims.Service) *claims.Claim {
	t.Helper()
	prac := createTestPractice(t, ctx)
	pat := createTestPatient(t, ctx, prac.ID)

	c := &claims.Claim{
		PracticeID:  prac.ID,
		PatientID:   pat.ID,
		InsurerName: "Aetna",
	}
	items := []*claims.ClaimLineItem{
		{ProcedureCode: "97533", DiagnosisCode: ptrStr("F84.0"), Units: 2, Rate: 50, ServiceDate: time.Now()},
		{ProcedureCode: "97110", Units: 1, Rate: 45, ServiceDate: time.Now()},
	}
	if err := svc.CreateClaim(ctx, c, items); err != nil {
		t.Fatalf("create claim: %v", err)
	}
	return c
}

func TestClaimLifecycle_SubmitPay(t *testing.T) {
	ctx := context.Background()
	svc := newClaimService(t)
	c := newPersistedClaim(t, ctx, svc)

	if c.TotalAmount != 145 {
		t.Errorf("expected total 145, got %v", c.TotalAmount)
	}

	submitted, err := svc.Submit(ctx, c.ID, nil)
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if submitted.Status != claims.StatusSubmitted || submitted.SubmittedAt == nil {
		t.Errorf("expected submitted claim with timestamp, got %+v", submitted)
	}
	if submitted.SubmittedAmount == nil || *submitted.SubmittedAmount != 145 {
		t.Errorf("expected submitted amount 145, got %v", submitted.SubmittedAmount)
	}

	paid, err := svc.MarkPaid(ctx, c.ID, ptrFloat(120))
	if err != nil {
		t.Fatalf("mark paid: %v", err)
	}
	if paid.Status != claims.StatusPaid || paid.PaidAmount == nil || *paid.PaidAmount != 120 {
		t.Errorf("expected paid claim at 120, got %+v", paid)
	}
}

func TestClaimLifecycle_GuardedTransitions(t *testing.T) {
	ctx := context.Background()
	svc := newClaimService(t)
	c := newPersistedClaim(t, ctx, svc)

	// Paying a draft claim skips a state and must fail.
	if _, err := svc.MarkPaid(ctx, c.ID, nil); !errors.Is(err, claims.ErrInvalidTransition) {
		t.Errorf("expected invalid transition error, got %v", err)
	}

	if _, err := svc.Submit(ctx, c.ID, nil); err != nil {
		t.Fatalf("submit: %v", err)
	}

	// Double submit races against the committed status and must fail too.
	if _, err := svc.Submit(ctx, c.ID, nil); !errors.Is(err, claims.ErrInvalidTransition) {
		t.Errorf("expected invalid transition error on double submit, got %v", err)
	}

	// Submitted claims are edit-locked.
	err := svc.AddLineItem(ctx, &claims.ClaimLineItem{
		ClaimID: c.ID, ProcedureCode: "97112", Units: 1, Rate: 40, ServiceDate: time.Now(),
	})
	if !errors.Is(err, claims.ErrInvalidTransition) {
		t.Errorf("expected edit lock error, got %v", err)
	}
}

func TestClaimLifecycle_DenyGeneratesAppeal(t *testing.T) {
	ctx := context.Background()
	svc := newClaimService(t)
	c := newPersistedClaim(t, ctx, svc)

	if _, err := svc.Submit(ctx, c.ID, nil); err != nil {
		t.Fatalf("submit: %v", err)
	}

	result, err := svc.Deny(ctx, c.ID, "Service not medically necessary")
	if err != nil {
		t.Fatalf("deny: %v", err)
	}
	if result.Claim.Status != claims.StatusDenied {
		t.Errorf("expected denied status, got %s", result.Claim.Status)
	}
	if !result.AppealGenerated || result.Appeal == nil {
		t.Fatalf("expected generated appeal, got %+v", result)
	}
	if result.Appeal.DenialCategory != "medical_necessity" {
		t.Errorf("expected medical_necessity category, got %s", result.Appeal.DenialCategory)
	}
	if result.Appeal.LetterText == "" || len(result.Appeal.KeyArguments) == 0 {
		t.Error("expected populated appeal letter and arguments")
	}

	// The record round-trips through the database, arrays included.
	stored, err := svc.ListAppeals(ctx, c.ID)
	if err != nil {
		t.Fatalf("list appeals: %v", err)
	}
	if len(stored) != 1 {
		t.Fatalf("expected 1 stored appeal, got %d", len(stored))
	}
	if len(stored[0].SuggestedActions) == 0 || stored[0].Status != claims.AppealPending {
		t.Errorf("expected pending appeal with actions, got %+v", stored[0])
	}

	// Regeneration adds a second record without touching claim status.
	if _, err := svc.RegenerateAppeal(ctx, c.ID); err != nil {
		t.Fatalf("regenerate appeal: %v", err)
	}
	stored, _ = svc.ListAppeals(ctx, c.ID)
	if len(stored) != 2 {
		t.Errorf("expected 2 appeals after regeneration, got %d", len(stored))
	}
	got, _ := svc.GetClaim(ctx, c.ID)
	if got.Status != claims.StatusDenied {
		t.Errorf("regeneration changed claim status to %s", got.Status)
	}
}

func TestClaimRepo_CompareAndSwap(t *testing.T) {
	ctx := context.Background()
	svc := newClaimService(t)
	c := newPersistedClaim(t, ctx, svc)

	repo := claims.NewClaimRepoPG(globalDB.Pool)

	// A stale writer expecting "submitted" loses against the draft row.
	ok, err := repo.UpdateStatus(ctx, c.ID, claims.StatusSubmitted, claims.StatusPaid, claims.StatusPatch{})
	if err != nil {
		t.Fatalf("update status: %v", err)
	}
	if ok {
		t.Error("expected stale compare-and-swap to affect zero rows")
	}

	ok, err = repo.UpdateStatus(ctx, c.ID, claims.StatusDraft, claims.StatusSubmitted, claims.StatusPatch{})
	if err != nil {
		t.Fatalf("update status: %v", err)
	}
	if !ok {
		t.Error("expected matching compare-and-swap to succeed")
	}
}
