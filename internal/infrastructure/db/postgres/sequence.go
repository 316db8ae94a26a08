package postgres

import (
	"context"
	"fmt"
)

// CodeSequence draws patient code numbers from patient_code_seq. nextval is
// never rolled back, so a failed insert leaves a gap rather than a reuse.
type CodeSequence struct {
	db DBTX
}

func NewCodeSequence(db DBTX) *CodeSequence {
	return &CodeSequence{db: db}
}

func (s *CodeSequence) Next(ctx context.Context) (int64, error) {
	var n int64
	if err := s.db.QueryRowContext(ctx, `SELECT nextval('patient_code_seq')`).Scan(&n); err != nil {
		return 0, fmt.Errorf("next patient code: %w", err)
	}
	return n, nil
}
