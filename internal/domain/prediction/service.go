package prediction

import (
	"context"
	"fmt"
	"time"
)

// Service wires the pure predictor to the history store. Retry and backoff
// policy for the store belongs to callers.
type Service struct {
	history HistoryRepository
	now     func() time.Time
}

func NewService(history HistoryRepository) *Service {
	return &Service{history: history, now: time.Now}
}

// Predict answers one reimbursement query against stored history.
func (s *Service) Predict(ctx context.Context, q Query) (Prediction, error) {
	if q.Insurer == "" || q.ProcedureCode == "" {
		return Prediction{}, fmt.Errorf("insurer and procedure_code are required")
	}

	records, err := s.history.QueryByCodes(ctx, FamilyCodes(q.ProcedureCode))
	if err != nil {
		return Prediction{}, fmt.Errorf("query history: %w", err)
	}
	return Predict(records, q, s.now().UTC()), nil
}

// PredictBatch answers one query per code for a single insurer.
func (s *Service) PredictBatch(ctx context.Context, insurer string, chargedAmount float64, codes []string) ([]Prediction, error) {
	if insurer == "" || len(codes) == 0 {
		return nil, fmt.Errorf("insurer and at least one procedure_code are required")
	}

	// One fetch covering every requested family; the predictor filters
	// per code.
	codeSet := make(map[string]bool)
	var all []string
	for _, code := range codes {
		for _, c := range FamilyCodes(code) {
			if !codeSet[c] {
				codeSet[c] = true
				all = append(all, c)
			}
		}
	}

	records, err := s.history.QueryByCodes(ctx, all)
	if err != nil {
		return nil, fmt.Errorf("query history: %w", err)
	}
	return PredictBatch(records, insurer, chargedAmount, codes, s.now().UTC()), nil
}

// QueryHistory returns stored records for the given codes, most recent
// first.
func (s *Service) QueryHistory(ctx context.Context, codes []string) ([]*Record, error) {
	if len(codes) == 0 {
		return nil, fmt.Errorf("at least one procedure_code is required")
	}
	return s.history.QueryByCodes(ctx, codes)
}

// AppendHistory stores observed payments. Records are append-only.
func (s *Service) AppendHistory(ctx context.Context, records []*Record) error {
	for _, r := range records {
		if r.InsurerName == "" || r.ProcedureCode == "" {
			return fmt.Errorf("insurer_name and procedure_code are required on every record")
		}
		if r.PaidAmount < 0 || r.ChargedAmount < 0 {
			return fmt.Errorf("amounts must be non-negative")
		}
		if r.ServiceDate.IsZero() {
			r.ServiceDate = s.now().UTC()
		}
	}
	return s.history.Append(ctx, records)
}
