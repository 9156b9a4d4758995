package catalog

import (
	"context"
	"database/sql"
	"fmt"
)

// Aggregate derives run statistics from the ledger. Both queries run inside
// one read transaction so concurrent appends cannot tear the snapshot.
func (s *Store) Aggregate(ctx context.Context) (Stats, error) {
	tx, err := s.db.BeginTx(ctx, &sql.TxOptions{ReadOnly: true})
	if err != nil {
		return Stats{}, fmt.Errorf("begin stats tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	stats := Stats{Yearly: make(map[string]int)}

	row := tx.QueryRowContext(ctx, `
        SELECT
            COUNT(CASE WHEN status != 'existing' THEN 1 END),
            COUNT(CASE WHEN status IN ('copied', 'simulated') THEN 1 END),
            COUNT(CASE WHEN status = 'duplicate' THEN 1 END),
            COUNT(CASE WHEN status = 'unsupported' THEN 1 END),
            COUNT(CASE WHEN status = 'error' THEN 1 END),
            COUNT(CASE WHEN status = 'existing' THEN 1 END),
            COUNT(CASE WHEN status IN ('copied', 'simulated') AND media_kind = 'PHOTO' THEN 1 END),
            COUNT(CASE WHEN status IN ('copied', 'simulated') AND media_kind = 'VIDEO' THEN 1 END),
            COALESCE(SUM(CASE WHEN status = 'copied' THEN file_size END), 0)
        FROM files`)
	if err := row.Scan(
		&stats.TotalFiles,
		&stats.ProcessedFiles,
		&stats.DuplicateFiles,
		&stats.UnsupportedFiles,
		&stats.ErrorFiles,
		&stats.ExistingFiles,
		&stats.Photos,
		&stats.Videos,
		&stats.BytesCopied,
	); err != nil {
		return Stats{}, fmt.Errorf("aggregate totals: %w", err)
	}

	rows, err := tx.QueryContext(ctx, `
        SELECT year, COUNT(*)
        FROM files
        WHERE year IS NOT NULL AND year != ? AND status != 'existing'
        GROUP BY year
        ORDER BY year DESC`, UnknownDate)
	if err != nil {
		return Stats{}, fmt.Errorf("aggregate yearly: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var year string
		var count int
		if err := rows.Scan(&year, &count); err != nil {
			return Stats{}, err
		}
		stats.Yearly[year] = count
	}
	if err := rows.Err(); err != nil {
		return Stats{}, err
	}

	if err := tx.Commit(); err != nil {
		return Stats{}, fmt.Errorf("commit stats tx: %w", err)
	}
	return stats, nil
}
