package store

import (
	"context"
	"fmt"
)

// SelectEmailIDs executes a read-only statement produced by the search
// builder and scans the resulting email identifiers. Reads may run
// concurrently with ingestion; each statement sees a consistent snapshot.
func (s *Store) SelectEmailIDs(ctx context.Context, query string, args []interface{}) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("execute search: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan email id: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}
