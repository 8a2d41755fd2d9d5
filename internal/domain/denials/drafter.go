package denials

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rcm/rcm/internal/domain/claims"
	"github.com/rcm/rcm/internal/domain/practice"
)

// Drafter renders appeal letters for denied claims. It implements the
// claims.AppealGenerator contract; persistence of the resulting record
// stays with the caller.
type Drafter struct {
	practices practice.PracticeRepository
	patients  practice.PatientRepository
	now       func() time.Time
}

func NewDrafter(practices practice.PracticeRepository, patients practice.PatientRepository) *Drafter {
	return &Drafter{practices: practices, patients: patients, now: time.Now}
}

func (d *Drafter) Generate(ctx context.Context, claim *claims.Claim, items []*claims.ClaimLineItem) (*claims.AppealDraft, error) {
	var reason string
	if claim.DenialReason != nil {
		reason = *claim.DenialReason
	}
	pattern := Classify(reason)

	pat, err := d.patients.GetByID(ctx, claim.PatientID)
	if err != nil {
		return nil, fmt.Errorf("load patient: %w", err)
	}
	prac, err := d.practices.GetByID(ctx, claim.PracticeID)
	if err != nil {
		return nil, fmt.Errorf("load practice: %w", err)
	}

	letter := RenderLetter(pattern, claim, items, pat, prac, d.now().UTC())

	return &claims.AppealDraft{
		DenialCategory:     pattern.Category,
		LetterText:         letter,
		SuccessProbability: pattern.SuccessRate,
		SuggestedActions:   pattern.SuggestedActions,
		KeyArguments:       pattern.KeyArguments,
	}, nil
}

// orBracket substitutes a bracketed placeholder for missing optional fields
// so a letter always renders.
func orBracket(v *string, placeholder string) string {
	if v != nil && *v != "" {
		return *v
	}
	return "[" + placeholder + "]"
}

// RenderLetter produces the appeal letter text. Pure over its inputs; the
// only varying element between calls is the letter date.
func RenderLetter(pattern DenialPattern, claim *claims.Claim, items []*claims.ClaimLineItem,
	pat *practice.Patient, prac *practice.Practice, date time.Time) string {

	var b strings.Builder

	// Letterhead
	b.WriteString(prac.Name + "\n")
	b.WriteString(orBracket(prac.AddressLine, "Practice Address") + "\n")
	b.WriteString(fmt.Sprintf("%s, %s %s\n",
		orBracket(prac.City, "City"), orBracket(prac.State, "State"), orBracket(prac.Zip, "Zip")))
	b.WriteString("Phone: " + orBracket(prac.Phone, "Phone") + "\n")
	if prac.NPI != nil && *prac.NPI != "" {
		b.WriteString("NPI: " + *prac.NPI + "\n")
	}
	b.WriteString("\n")

	b.WriteString(date.Format("January 2, 2006") + "\n\n")

	b.WriteString(claim.InsurerName + "\n")
	b.WriteString("Appeals Department\n\n")

	// Identifying block
	b.WriteString("RE: Appeal of Claim Denial\n")
	b.WriteString("Patient: " + pat.FullName() + "\n")
	if pat.DateOfBirth != nil {
		b.WriteString("Date of Birth: " + pat.DateOfBirth.Format("01/02/2006") + "\n")
	} else {
		b.WriteString("Date of Birth: [Date of Birth]\n")
	}
	b.WriteString("Member ID: " + orBracket(pat.MemberID, "Member ID") + "\n")
	b.WriteString("Claim ID: " + claim.ID.String() + "\n")
	if claim.DeniedAt != nil {
		b.WriteString("Denial Date: " + claim.DeniedAt.Format("01/02/2006") + "\n")
	}
	if claim.DenialReason != nil && *claim.DenialReason != "" {
		b.WriteString("Stated Reason: " + *claim.DenialReason + "\n")
	}
	b.WriteString("\n")

	b.WriteString("Dear Appeals Department,\n\n")
	b.WriteString(fmt.Sprintf(
		"We are writing to formally appeal the denial of the above-referenced claim in the amount of $%.2f. "+
			"We respectfully disagree with the determination and request reconsideration based on the following.\n\n",
		claim.TotalAmount))

	// Deduplicated service lines
	b.WriteString("Services under appeal:\n")
	for _, line := range serviceLines(items) {
		b.WriteString("  - " + line + "\n")
	}
	b.WriteString("\n")

	b.WriteString("Grounds for appeal:\n")
	for i, arg := range pattern.KeyArguments {
		b.WriteString(fmt.Sprintf("%d. %s\n", i+1, arg))
	}
	b.WriteString("\n")

	b.WriteString("The services at issue were delivered by a licensed therapist under an active plan of care, " +
		"with contemporaneous documentation of skilled intervention, measurable goals, and patient response. " +
		"Complete clinical documentation is available upon request and is enclosed where applicable.\n\n")

	b.WriteString("We request that this denial be reversed and the claim reprocessed for payment. " +
		"Please direct any questions or requests for additional records to the contact below.\n\n")

	b.WriteString("Sincerely,\n\n")
	b.WriteString(orBracket(prac.ContactName, "Contact Name") + "\n")
	b.WriteString(prac.Name + "\n")
	b.WriteString("Phone: " + orBracket(prac.Phone, "Phone") + "\n")
	b.WriteString("Email: " + orBracket(prac.Email, "Email") + "\n")

	return b.String()
}

// serviceLines renders deduplicated procedure/diagnosis line descriptions in
// first-seen order.
func serviceLines(items []*claims.ClaimLineItem) []string {
	if len(items) == 0 {
		return []string{"[No line items on file]"}
	}

	seen := make(map[string]bool)
	var lines []string
	for _, item := range items {
		line := "CPT " + item.ProcedureCode
		if item.DiagnosisCode != nil && *item.DiagnosisCode != "" {
			line += " (Dx " + *item.DiagnosisCode + ")"
		}
		if seen[line] {
			continue
		}
		seen[line] = true
		lines = append(lines, line)
	}
	return lines
}
