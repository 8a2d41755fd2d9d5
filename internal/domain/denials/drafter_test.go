package denials

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/rcm/rcm/internal/domain/claims"
	"github.com/rcm/rcm/internal/domain/practice"
)

type fixedPracticeRepo struct{ p *practice.Practice }

func (r *fixedPracticeRepo) Create(_ context.Context, _ *practice.Practice) error { return nil }
func (r *fixedPracticeRepo) GetByID(_ context.Context, _ uuid.UUID) (*practice.Practice, error) {
	return r.p, nil
}
func (r *fixedPracticeRepo) Update(_ context.Context, _ *practice.Practice) error { return nil }

type fixedPatientRepo struct{ p *practice.Patient }

func (r *fixedPatientRepo) Create(_ context.Context, _ *practice.Patient) error { return nil }
func (r *fixedPatientRepo) GetByID(_ context.Context, _ uuid.UUID) (*practice.Patient, error) {
	return r.p, nil
}
func (r *fixedPatientRepo) ListByPractice(_ context.Context, _ uuid.UUID, _, _ int) ([]*practice.Patient, int, error) {
	return []*practice.Patient{r.p}, 1, nil
}

func str(s string) *string { return &s }

func testFixtures() (*claims.Claim, []*claims.ClaimLineItem, *practice.Patient, *practice.Practice) {
	deniedAt := time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)
	claim := &claims.Claim{
		ID:           uuid.MustParse("6ba7b810-9dad-11d1-80b4-00c04fd430c8"),
		PracticeID:   uuid.New(),
		PatientID:    uuid.New(),
		InsurerName:  "Aetna",
		Status:       claims.StatusDenied,
		TotalAmount:  180,
		DeniedAt:     &deniedAt,
		DenialReason: str("prior auth not obtained"),
	}
	items := []*claims.ClaimLineItem{
		{ProcedureCode: "97533", DiagnosisCode: str("F84.0"), Units: 2, Rate: 50, Amount: 100},
		{ProcedureCode: "97110", DiagnosisCode: str("F84.0"), Units: 2, Rate: 40, Amount: 80},
		{ProcedureCode: "97110", DiagnosisCode: str("F84.0"), Units: 1, Rate: 40, Amount: 40},
	}
	dob := time.Date(2018, 6, 2, 0, 0, 0, 0, time.UTC)
	pat := &practice.Patient{
		FirstName:   "Jordan",
		LastName:    "Lee",
		DateOfBirth: &dob,
		MemberID:    str("W1234567"),
	}
	prac := &practice.Practice{
		Name:        "Sunrise Pediatric Therapy",
		AddressLine: str("120 Main St"),
		City:        str("Austin"),
		State:       str("TX"),
		Zip:         str("78701"),
		Phone:       str("512-555-0100"),
		Email:       str("billing@sunrisepeds.example"),
		ContactName: str("Casey Morgan"),
		NPI:         str("1234567890"),
	}
	return claim, items, pat, prac
}

func TestRenderLetter_Structure(t *testing.T) {
	claim, items, pat, prac := testFixtures()
	pattern := Classify(*claim.DenialReason)
	letter := RenderLetter(pattern, claim, items, pat, prac, time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC))

	for _, want := range []string{
		"Sunrise Pediatric Therapy",
		"April 1, 2026",
		"Aetna",
		"Appeals Department",
		"Jordan Lee",
		"Member ID: W1234567",
		"Claim ID: " + claim.ID.String(),
		"CPT 97533 (Dx F84.0)",
		"CPT 97110 (Dx F84.0)",
		"1. ",
		"Sincerely,",
		"Casey Morgan",
	} {
		if !strings.Contains(letter, want) {
			t.Errorf("letter missing %q", want)
		}
	}

	// Duplicate procedure/diagnosis pairs collapse into a single line
	if strings.Count(letter, "CPT 97110 (Dx F84.0)") != 1 {
		t.Error("expected duplicate line items deduplicated")
	}
}

func TestRenderLetter_BracketedPlaceholders(t *testing.T) {
	claim, items, pat, prac := testFixtures()
	prac.AddressLine = nil
	prac.Phone = nil
	prac.ContactName = nil
	pat.MemberID = nil
	pat.DateOfBirth = nil

	pattern := Classify(*claim.DenialReason)
	letter := RenderLetter(pattern, claim, items, pat, prac, time.Now())

	for _, want := range []string{
		"[Practice Address]",
		"[Phone]",
		"[Contact Name]",
		"[Member ID]",
		"[Date of Birth]",
	} {
		if !strings.Contains(letter, want) {
			t.Errorf("letter missing placeholder %q", want)
		}
	}
}

func TestRenderLetter_IdempotentExceptDate(t *testing.T) {
	claim, items, pat, prac := testFixtures()
	pattern := Classify(*claim.DenialReason)

	date := time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC)
	first := RenderLetter(pattern, claim, items, pat, prac, date)
	second := RenderLetter(pattern, claim, items, pat, prac, date)
	if first != second {
		t.Error("expected identical letters for identical inputs and date")
	}

	later := RenderLetter(pattern, claim, items, pat, prac, date.AddDate(0, 0, 1))
	if first == later {
		t.Error("expected letters to differ only when the date changes")
	}
	if strings.ReplaceAll(first, "April 1, 2026", "April 2, 2026") != later {
		t.Error("expected the date to be the only difference")
	}
}

func TestDrafter_Generate(t *testing.T) {
	claim, items, pat, prac := testFixtures()
	d := NewDrafter(&fixedPracticeRepo{p: prac}, &fixedPatientRepo{p: pat})
	d.now = func() time.Time { return time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC) }

	draft, err := d.Generate(context.Background(), claim, items)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}

	if draft.DenialCategory != "auth_missing" {
		t.Errorf("expected auth_missing, got %s", draft.DenialCategory)
	}
	if draft.SuccessProbability != Classify("prior auth not obtained").SuccessRate {
		t.Errorf("expected pattern success rate, got %d", draft.SuccessProbability)
	}
	if len(draft.KeyArguments) == 0 || len(draft.SuggestedActions) == 0 {
		t.Error("expected key arguments and suggested actions")
	}
	if !strings.Contains(draft.LetterText, "Jordan Lee") {
		t.Error("expected patient name in letter")
	}
}

func TestRenderLetter_NoLineItems(t *testing.T) {
	claim, _, pat, prac := testFixtures()
	pattern := Classify(*claim.DenialReason)
	letter := RenderLetter(pattern, claim, nil, pat, prac, time.Now())

	if !strings.Contains(letter, "[No line items on file]") {
		t.Error("expected placeholder for missing line items")
	}
}
