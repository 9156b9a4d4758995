package catalog

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

const recordColumns = "id, original_path, digest, year, month, media_kind, status, destination_path, final_name, file_size, worker_id, notes, created_at"

// Append inserts one ledger row and returns its identifier. Storage faults
// surface to the caller so the pipeline can downgrade the file to an error
// record instead of silently losing it.
func (s *Store) Append(ctx context.Context, record *Record) (int64, error) {
	if record == nil {
		return 0, errors.New("record is nil")
	}
	if !record.Status.Valid() {
		return 0, fmt.Errorf("invalid record status %q", record.Status)
	}
	if record.OriginalPath == "" {
		return 0, errors.New("record original path is empty")
	}

	now := time.Now().UTC()
	record.CreatedAt = now

	res, err := s.db.ExecContext(
		ctx,
		`INSERT INTO files (
            original_path, digest, year, month, media_kind, status,
            destination_path, final_name, file_size, worker_id, notes, created_at
        ) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		record.OriginalPath,
		nullableString(record.Digest),
		nullableString(record.Year),
		nullableString(record.Month),
		nullableString(string(record.MediaKind)),
		string(record.Status),
		nullableString(record.DestinationPath),
		nullableString(record.FinalName),
		record.FileSize,
		nullableString(record.WorkerID),
		nullableString(record.Notes),
		now.Format(time.RFC3339Nano),
	)
	if err != nil {
		return 0, fmt.Errorf("append record: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("last insert id: %w", err)
	}
	record.ID = id
	return id, nil
}

// ClaimDigest atomically reserves a digest in the duplicate index. It returns
// true when the caller is the first observer of that digest (the primary) and
// false when the digest was already claimed. The reservation is a single
// conflict-ignoring insert, so two workers racing on the same digest can never
// both see true.
func (s *Store) ClaimDigest(ctx context.Context, digest string) (bool, error) {
	if digest == "" {
		return false, errors.New("digest is empty")
	}
	res, err := s.db.ExecContext(
		ctx,
		`INSERT INTO digests (digest) VALUES (?) ON CONFLICT(digest) DO NOTHING`,
		digest,
	)
	if err != nil {
		return false, fmt.Errorf("claim digest: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected: %w", err)
	}
	return affected == 1, nil
}

// ReleaseDigest removes a claim so a later identical file can become primary.
// Called when the pipeline fails after claiming but before a Copied record
// landed; without the release the content would be duplicate-classified
// forever despite no primary copy existing.
func (s *Store) ReleaseDigest(ctx context.Context, digest string) error {
	if digest == "" {
		return nil
	}
	if _, err := s.db.ExecContext(ctx, `DELETE FROM digests WHERE digest = ?`, digest); err != nil {
		return fmt.Errorf("release digest: %w", err)
	}
	return nil
}

// HasDigest reports whether a digest has been observed before.
func (s *Store) HasDigest(ctx context.Context, digest string) (bool, error) {
	if digest == "" {
		return false, nil
	}
	var exists int
	err := s.db.QueryRowContext(ctx, `SELECT EXISTS(SELECT 1 FROM digests WHERE digest = ?)`, digest).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("lookup digest: %w", err)
	}
	return exists == 1, nil
}

// List returns ledger rows filtered by status set (or all rows when no status
// is provided), ordered by insertion.
func (s *Store) List(ctx context.Context, statuses ...Status) ([]*Record, error) {
	var (
		rows *sql.Rows
		err  error
	)

	baseQuery := `SELECT ` + recordColumns + ` FROM files`
	orderClause := ` ORDER BY id`

	if len(statuses) == 0 {
		rows, err = s.db.QueryContext(ctx, baseQuery+orderClause)
	} else {
		placeholders := makePlaceholders(len(statuses))
		args := make([]any, len(statuses))
		for i, status := range statuses {
			args[i] = string(status)
		}
		query := baseQuery + ` WHERE status IN (` + placeholders + `)` + orderClause
		rows, err = s.db.QueryContext(ctx, query, args...)
	}
	if err != nil {
		return nil, fmt.Errorf("list records: %w", err)
	}
	defer rows.Close()

	var records []*Record
	for rows.Next() {
		record, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, record)
	}
	return records, rows.Err()
}

// FindByOriginalPath returns the first record for a source path, or nil.
func (s *Store) FindByOriginalPath(ctx context.Context, path string) (*Record, error) {
	row := s.db.QueryRowContext(
		ctx,
		`SELECT `+recordColumns+` FROM files WHERE original_path = ? ORDER BY id LIMIT 1`,
		path,
	)
	record, err := scanRecord(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find by original path: %w", err)
	}
	return record, nil
}

func scanRecord(scanner interface{ Scan(dest ...any) error }) (*Record, error) {
	var (
		id         int64
		origPath   string
		digest     sql.NullString
		year       sql.NullString
		month      sql.NullString
		mediaKind  sql.NullString
		statusStr  string
		destPath   sql.NullString
		finalName  sql.NullString
		fileSize   sql.NullInt64
		workerID   sql.NullString
		notes      sql.NullString
		createdRaw sql.NullString
	)

	if err := scanner.Scan(
		&id,
		&origPath,
		&digest,
		&year,
		&month,
		&mediaKind,
		&statusStr,
		&destPath,
		&finalName,
		&fileSize,
		&workerID,
		&notes,
		&createdRaw,
	); err != nil {
		return nil, err
	}

	record := &Record{
		ID:              id,
		OriginalPath:    origPath,
		Digest:          digest.String,
		Year:            year.String,
		Month:           month.String,
		MediaKind:       MediaKind(mediaKind.String),
		Status:          Status(statusStr),
		DestinationPath: destPath.String,
		FinalName:       finalName.String,
		FileSize:        fileSize.Int64,
		WorkerID:        workerID.String,
		Notes:           notes.String,
	}
	if created, err := time.Parse(time.RFC3339Nano, createdRaw.String); err == nil {
		record.CreatedAt = created
	}
	return record, nil
}

func makePlaceholders(count int) string {
	if count <= 0 {
		return ""
	}
	placeholders := make([]byte, 0, count*2)
	for i := 0; i < count; i++ {
		if i > 0 {
			placeholders = append(placeholders, ',')
		}
		placeholders = append(placeholders, '?')
	}
	return string(placeholders)
}
