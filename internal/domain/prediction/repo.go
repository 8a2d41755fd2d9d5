package prediction

import "context"

// HistoryRepository is the append-only historical reimbursement store.
type HistoryRepository interface {
	Append(ctx context.Context, records []*Record) error
	// QueryByCodes returns all records whose procedure code is in the
	// given set; insurer similarity filtering happens in the predictor.
	QueryByCodes(ctx context.Context, codes []string) ([]*Record, error)
}
