package store

import (
	"context"
	"fmt"
	"strings"

	"github.com/agext/levenshtein"
)

// DefaultDuplicateThreshold is the minimum name similarity treated as a duplicate.
const DefaultDuplicateThreshold = 0.8

// Duplicate is the closest existing record to a candidate name.
type Duplicate struct {
	Record     ProductRecord
	Similarity float64
}

// Similarity compares two product names case-insensitively, returning a value
// between 0 (unrelated) and 1 (identical).
func Similarity(a, b string) float64 {
	a = strings.ToLower(strings.TrimSpace(a))
	b = strings.ToLower(strings.TrimSpace(b))
	if a == "" && b == "" {
		return 1
	}
	return levenshtein.Similarity(a, b, nil)
}

// FindDuplicate returns the product whose name is most similar to name, if
// that similarity reaches threshold. Run rows are never considered.
func (s *Store) FindDuplicate(ctx context.Context, name string, threshold float64) (*Duplicate, error) {
	if threshold <= 0 {
		threshold = DefaultDuplicateThreshold
	}

	rows, err := s.db.QueryContext(ctx,
		selectColumns+` WHERE category IS NOT ? ORDER BY created_at ASC, rowid ASC`, CategoryRun)
	if err != nil {
		return nil, fmt.Errorf("failed to scan products: %w", err)
	}
	defer rows.Close()

	var best *Duplicate
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		sim := Similarity(name, rec.Name)
		if sim >= threshold && (best == nil || sim > best.Similarity) {
			best = &Duplicate{Record: *rec, Similarity: sim}
		}
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return best, nil
}
