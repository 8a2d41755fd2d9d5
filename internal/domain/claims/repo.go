package claims

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// StatusPatch carries the transition-specific fields written alongside a
// status change.
type StatusPatch struct {
	SubmittedAmount *float64
	PaidAmount      *float64
	DenialReason    *string
	SubmittedAt     *time.Time
	PaidAt          *time.Time
	DeniedAt        *time.Time
}

type ClaimRepository interface {
	Create(ctx context.Context, c *Claim) error
	GetByID(ctx context.Context, id uuid.UUID) (*Claim, error)
	Update(ctx context.Context, c *Claim) error
	// UpdateStatus applies a status transition with compare-and-swap
	// semantics: the write only succeeds if the claim is still in the
	// expected source state. Returns false when the guard fails.
	UpdateStatus(ctx context.Context, id uuid.UUID, from, to ClaimStatus, patch StatusPatch) (bool, error)
	ListByPractice(ctx context.Context, practiceID uuid.UUID, status ClaimStatus, limit, offset int) ([]*Claim, int, error)
	AddLineItem(ctx context.Context, item *ClaimLineItem) error
	GetLineItems(ctx context.Context, claimID uuid.UUID) ([]*ClaimLineItem, error)
	SetTotalAmount(ctx context.Context, id uuid.UUID, total float64) error
}

type AppealRepository interface {
	Create(ctx context.Context, a *AppealRecord) error
	GetByID(ctx context.Context, id uuid.UUID) (*AppealRecord, error)
	ListByClaim(ctx context.Context, claimID uuid.UUID) ([]*AppealRecord, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status AppealStatus, at time.Time) error
}
