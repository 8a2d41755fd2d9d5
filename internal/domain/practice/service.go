package practice

import (
	"context"
	"fmt"

	"github.com/google/uuid"
)

type Service struct {
	practices PracticeRepository
	patients  PatientRepository
}

func NewService(practices PracticeRepository, patients PatientRepository) *Service {
	return &Service{practices: practices, patients: patients}
}

func (s *Service) CreatePractice(ctx context.Context, p *Practice) error {
	if p.Name == "" {
		return fmt.Errorf("practice name is required")
	}
	return s.practices.Create(ctx, p)
}

func (s *Service) GetPractice(ctx context.Context, id uuid.UUID) (*Practice, error) {
	return s.practices.GetByID(ctx, id)
}

func (s *Service) UpdatePractice(ctx context.Context, p *Practice) error {
	if p.Name == "" {
		return fmt.Errorf("practice name is required")
	}
	if _, err := s.practices.GetByID(ctx, p.ID); err != nil {
		return err
	}
	return s.practices.Update(ctx, p)
}

func (s *Service) CreatePatient(ctx context.Context, p *Patient) error {
	if p.FirstName == "" || p.LastName == "" {
		return fmt.Errorf("patient first and last name are required")
	}
	if p.PracticeID == uuid.Nil {
		return fmt.Errorf("practice_id is required")
	}
	if _, err := s.practices.GetByID(ctx, p.PracticeID); err != nil {
		return fmt.Errorf("practice lookup: %w", err)
	}
	return s.patients.Create(ctx, p)
}

func (s *Service) GetPatient(ctx context.Context, id uuid.UUID) (*Patient, error) {
	return s.patients.GetByID(ctx, id)
}

func (s *Service) ListPatients(ctx context.Context, practiceID uuid.UUID, limit, offset int) ([]*Patient, int, error) {
	return s.patients.ListByPractice(ctx, practiceID, limit, offset)
}
