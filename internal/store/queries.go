package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/reza-ygb/apex-launcher/internal/catalog"
	"github.com/reza-ygb/apex-launcher/internal/category"
)

// Usage counts survive upserts: a rescan replaces what was discovered but
// never what the user did.
const upsertQuery = `
	INSERT INTO applications
	(name, command, description, category, origin, icon_hint, usage_count, scan_time)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	ON CONFLICT(name) DO UPDATE SET
		command = excluded.command,
		description = excluded.description,
		category = excluded.category,
		origin = excluded.origin,
		icon_hint = excluded.icon_hint,
		scan_time = excluded.scan_time
`

const selectColumns = `name, command, description, category, origin, icon_hint, usage_count, scan_time`

// UpsertApplications writes records in a single transaction, stamping each
// with scanTime. Writing the same batch twice leaves the table unchanged.
func (s *Store) UpsertApplications(ctx context.Context, records []catalog.Record, scanTime time.Time) error {
	return s.ReplaceApplications(ctx, records, scanTime, nil)
}

// ReplaceApplications upserts records and, in the same transaction, removes
// rows belonging to any origin in completed that were not part of this batch.
// Origins not listed in completed keep their previous rows.
func (s *Store) ReplaceApplications(ctx context.Context, records []catalog.Record, scanTime time.Time, completed []catalog.Origin) error {
	stamp := scanTime.UnixMilli()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, upsertQuery)
	if err != nil {
		tx.Rollback() //nolint:errcheck
		return fmt.Errorf("failed to prepare upsert: %w", wrapNoTable(err))
	}
	defer stmt.Close()

	for _, rec := range records {
		cat := rec.Category
		if !category.Valid(cat) {
			cat = category.Other
		}
		if _, err := stmt.ExecContext(ctx,
			rec.Name,
			rec.Command,
			rec.Description,
			string(cat),
			string(rec.Origin),
			rec.IconHint,
			rec.UsageCount,
			stamp,
		); err != nil {
			tx.Rollback() //nolint:errcheck
			return fmt.Errorf("failed to upsert application %s: %w", rec.Name, err)
		}
	}

	for _, origin := range completed {
		if _, err := tx.ExecContext(ctx,
			`DELETE FROM applications WHERE origin = ? AND scan_time <> ?`,
			string(origin), stamp,
		); err != nil {
			tx.Rollback() //nolint:errcheck
			return fmt.Errorf("failed to prune %s applications: %w", origin, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit applications: %w", err)
	}
	return nil
}

// ListApplications returns every cached application ordered by name.
func (s *Store) ListApplications(ctx context.Context) ([]catalog.Record, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+selectColumns+` FROM applications ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("failed to list applications: %w", wrapNoTable(err))
	}
	defer rows.Close()

	var records []catalog.Record
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan application: %w", err)
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating applications: %w", err)
	}

	return records, nil
}

// GetApplication returns the application with the given name.
func (s *Store) GetApplication(ctx context.Context, name string) (catalog.Record, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+selectColumns+` FROM applications WHERE name = ?`, name)
	rec, err := scanRecord(row)
	if errors.Is(err, sql.ErrNoRows) {
		return catalog.Record{}, fmt.Errorf("application %s: %w", name, ErrNotFound)
	}
	if err != nil {
		return catalog.Record{}, fmt.Errorf("failed to get application %s: %w", name, wrapNoTable(err))
	}
	return rec, nil
}

// LastScanTime returns the newest scan time in the cache, or the zero time
// when the cache is empty.
func (s *Store) LastScanTime(ctx context.Context) (time.Time, error) {
	var stamp sql.NullInt64
	if err := s.db.QueryRowContext(ctx, `SELECT MAX(scan_time) FROM applications`).Scan(&stamp); err != nil {
		return time.Time{}, fmt.Errorf("failed to read last scan time: %w", wrapNoTable(err))
	}
	if !stamp.Valid {
		return time.Time{}, nil
	}
	return time.UnixMilli(stamp.Int64), nil
}

// CountApplications returns the number of cached applications.
func (s *Store) CountApplications(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM applications`).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count applications: %w", wrapNoTable(err))
	}
	return n, nil
}

// IncrementUsage bumps the usage count of the named application.
func (s *Store) IncrementUsage(ctx context.Context, name string) error {
	res, err := s.db.ExecContext(ctx, `UPDATE applications SET usage_count = usage_count + 1 WHERE name = ?`, name)
	if err != nil {
		return fmt.Errorf("failed to increment usage for %s: %w", name, wrapNoTable(err))
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check rows affected: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("application %s: %w", name, ErrNotFound)
	}
	return nil
}

// DeleteApplications removes every cached application.
func (s *Store) DeleteApplications(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM applications`); err != nil {
		return fmt.Errorf("failed to delete applications: %w", wrapNoTable(err))
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRecord(row rowScanner) (catalog.Record, error) {
	var (
		rec      catalog.Record
		cat      string
		origin   string
		scanTime int64
	)
	if err := row.Scan(
		&rec.Name,
		&rec.Command,
		&rec.Description,
		&cat,
		&origin,
		&rec.IconHint,
		&rec.UsageCount,
		&scanTime,
	); err != nil {
		return catalog.Record{}, err
	}

	rec.Category = category.Parse(cat)
	if o, ok := catalog.ParseOrigin(origin); ok {
		rec.Origin = o
	} else {
		rec.Origin = catalog.Origin(origin)
	}
	rec.ScanTime = time.UnixMilli(scanTime)
	return rec, nil
}

// UsageCounts returns the usage count of every application that has been
// launched at least once.
func (s *Store) UsageCounts(ctx context.Context) (map[string]int, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT name, usage_count FROM applications WHERE usage_count > 0`)
	if err != nil {
		return nil, fmt.Errorf("failed to read usage counts: %w", wrapNoTable(err))
	}
	defer rows.Close()

	counts := make(map[string]int)
	for rows.Next() {
		var name string
		var n int
		if err := rows.Scan(&name, &n); err != nil {
			return nil, fmt.Errorf("failed to scan usage count: %w", err)
		}
		counts[name] = n
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating usage counts: %w", err)
	}
	return counts, nil
}
