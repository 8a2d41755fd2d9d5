package practice

import (
	"time"

	"github.com/google/uuid"
)

// Practice maps to the practice table. It holds the letterhead and contact
// fields referenced by appeal letters.
type Practice struct {
	ID          uuid.UUID `db:"id" json:"id"`
	Name        string    `db:"name" json:"name"`
	AddressLine *string   `db:"address_line" json:"address_line,omitempty"`
	City        *string   `db:"city" json:"city,omitempty"`
	State       *string   `db:"state" json:"state,omitempty"`
	Zip         *string   `db:"zip" json:"zip,omitempty"`
	Phone       *string   `db:"phone" json:"phone,omitempty"`
	Fax         *string   `db:"fax" json:"fax,omitempty"`
	Email       *string   `db:"email" json:"email,omitempty"`
	NPI         *string   `db:"npi" json:"npi,omitempty"`
	TaxID       *string   `db:"tax_id" json:"tax_id,omitempty"`
	ContactName *string   `db:"contact_name" json:"contact_name,omitempty"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time `db:"updated_at" json:"updated_at"`
}

// Patient maps to the patient table. Only the fields billing needs.
type Patient struct {
	ID          uuid.UUID  `db:"id" json:"id"`
	PracticeID  uuid.UUID  `db:"practice_id" json:"practice_id"`
	FirstName   string     `db:"first_name" json:"first_name"`
	LastName    string     `db:"last_name" json:"last_name"`
	DateOfBirth *time.Time `db:"date_of_birth" json:"date_of_birth,omitempty"`
	MemberID    *string    `db:"member_id" json:"member_id,omitempty"`
	InsurerName *string    `db:"insurer_name" json:"insurer_name,omitempty"`
	PlanType    *string    `db:"plan_type" json:"plan_type,omitempty"`
	CreatedAt   time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time  `db:"updated_at" json:"updated_at"`
}

// FullName returns the patient's display name.
func (p *Patient) FullName() string {
	if p.FirstName == "" {
		return p.LastName
	}
	if p.LastName == "" {
		return p.FirstName
	}
	return p.FirstName + " " + p.LastName
}
