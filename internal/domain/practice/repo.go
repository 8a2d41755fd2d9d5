package practice

import (
	"context"

	"github.com/google/uuid"
)

type PracticeRepository interface {
	Create(ctx context.Context, p *Practice) error
	GetByID(ctx context.Context, id uuid.UUID) (*Practice, error)
	Update(ctx context.Context, p *Practice) error
}

type PatientRepository interface {
	Create(ctx context.Context, p *Patient) error
	GetByID(ctx context.Context, id uuid.UUID) (*Patient, error)
	ListByPractice(ctx context.Context, practiceID uuid.UUID, limit, offset int) ([]*Patient, int, error)
}
