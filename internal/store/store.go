// Package store handles SQLite persistence.
package store

import (
	"context"
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/verte-zerg/babylog/internal/model"

	_ "modernc.org/sqlite" // SQLite driver.
)

// ErrImportNotFound is returned when an import id does not exist.
var ErrImportNotFound = errors.New("import not found")

// Store wraps SQLite access for imported records.
type Store struct {
	db *sql.DB
}

// Open opens or creates the SQLite database and applies migrations.
func Open(path string) (*Store, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create data dir: %w", err)
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	store := &Store{db: db}
	if err := store.migrate(); err != nil {
		if cerr := db.Close(); cerr != nil {
			// Best-effort close on migration failure.
			_ = cerr
		}
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}
	return store, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS imports (
			id INTEGER PRIMARY KEY,
			filename TEXT NOT NULL,
			format TEXT NOT NULL,
			imported_at TEXT NOT NULL,
			total_lines INTEGER NOT NULL,
			record_count INTEGER NOT NULL,
			inserted INTEGER NOT NULL,
			error_count INTEGER NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS records (
			id TEXT PRIMARY KEY,
			import_id INTEGER NOT NULL REFERENCES imports(id),
			ts TEXT NOT NULL,
			ts_unix_ms INTEGER NOT NULL,
			activity_type TEXT NOT NULL,
			duration REAL,
			quantity REAL,
			notes TEXT NOT NULL,
			imported_at TEXT NOT NULL,
			imported_filename TEXT NOT NULL,
			fingerprint TEXT NOT NULL UNIQUE
		);`,
		`CREATE TABLE IF NOT EXISTS parse_errors (
			import_id INTEGER NOT NULL REFERENCES imports(id),
			line INTEGER NOT NULL,
			field TEXT NOT NULL,
			message TEXT NOT NULL,
			raw_text TEXT NOT NULL
		);`,
		`CREATE INDEX IF NOT EXISTS idx_records_ts ON records(ts_unix_ms);`,
		`CREATE INDEX IF NOT EXISTS idx_records_activity ON records(activity_type, ts_unix_ms);`,
		`CREATE INDEX IF NOT EXISTS idx_parse_errors_import ON parse_errors(import_id, line);`,
	}
	for _, stmt := range stmts {
		if _, err := s.db.Exec(stmt); err != nil {
			return err
		}
	}
	return nil
}

// Fingerprint identifies a record by content so re-imports do not duplicate it.
// occurrence is the record's ordinal among identical records of the same
// import, so repeated same-minute events in one file stay distinct while a
// second import of that file maps onto the same fingerprints.
func Fingerprint(r model.Record, occurrence int) string {
	key := contentKey(r) + "\x1f" + strconv.Itoa(occurrence)
	sum := sha256.Sum256([]byte(key))
	return hex.EncodeToString(sum[:])
}

func contentKey(r model.Record) string {
	return strings.Join([]string{
		strconv.FormatInt(r.Timestamp.UnixMilli(), 10),
		string(r.ActivityType),
		optional(r.Duration),
		optional(r.Quantity),
		r.Notes,
	}, "\x1f")
}

func optional(v *float64) string {
	if v == nil {
		return "-"
	}
	return strconv.FormatFloat(*v, 'g', -1, 64)
}

// InsertImport stores one import with its records and parse errors. Records
// already present by fingerprint are skipped; the returned summary carries the
// assigned id and the number actually inserted.
func (s *Store) InsertImport(ctx context.Context, summary model.ImportSummary, result model.ParseResult) (out model.ImportSummary, err error) {
	summary.TotalLines = result.TotalLines
	summary.RecordCount = len(result.Records)
	summary.ErrorCount = len(result.Errors)

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return model.ImportSummary{}, fmt.Errorf("failed to begin import: %w", err)
	}
	defer func() {
		if err != nil {
			if rerr := tx.Rollback(); rerr != nil {
				// Best-effort rollback.
				_ = rerr
			}
		}
	}()

	res, err := tx.ExecContext(ctx,
		`INSERT INTO imports (filename, format, imported_at, total_lines, record_count, inserted, error_count)
		 VALUES (?, ?, ?, ?, ?, 0, ?)`,
		summary.Filename,
		summary.Format,
		summary.ImportedAt.Format(time.RFC3339Nano),
		summary.TotalLines,
		summary.RecordCount,
		summary.ErrorCount,
	)
	if err != nil {
		return model.ImportSummary{}, fmt.Errorf("failed to insert import: %w", err)
	}
	summary.ID, err = res.LastInsertId()
	if err != nil {
		return model.ImportSummary{}, err
	}

	summary.Inserted, err = insertRecords(ctx, tx, summary.ID, result.Records)
	if err != nil {
		return model.ImportSummary{}, err
	}
	if err = insertParseErrors(ctx, tx, summary.ID, result.Errors); err != nil {
		return model.ImportSummary{}, err
	}
	if _, err = tx.ExecContext(ctx, `UPDATE imports SET inserted = ? WHERE id = ?`, summary.Inserted, summary.ID); err != nil {
		return model.ImportSummary{}, fmt.Errorf("failed to update import: %w", err)
	}
	if err = tx.Commit(); err != nil {
		return model.ImportSummary{}, fmt.Errorf("failed to commit import: %w", err)
	}
	return summary, nil
}

func insertRecords(ctx context.Context, tx *sql.Tx, importID int64, records []model.Record) (int, error) {
	if len(records) == 0 {
		return 0, nil
	}
	stmt, err := tx.PrepareContext(ctx,
		`INSERT OR IGNORE INTO records (id, import_id, ts, ts_unix_ms, activity_type, duration, quantity, notes, imported_at, imported_filename, fingerprint)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return 0, fmt.Errorf("failed to prepare record insert: %w", err)
	}
	defer func() {
		if cerr := stmt.Close(); cerr != nil {
			// Best-effort statement close.
			_ = cerr
		}
	}()

	inserted := 0
	seen := make(map[string]int, len(records))
	for _, r := range records {
		key := contentKey(r)
		occurrence := seen[key]
		seen[key]++
		res, err := stmt.ExecContext(ctx,
			r.ID,
			importID,
			r.Timestamp.Format(time.RFC3339Nano),
			r.Timestamp.UnixMilli(),
			string(r.ActivityType),
			nullFloat(r.Duration),
			nullFloat(r.Quantity),
			r.Notes,
			r.Metadata.ImportedAt.Format(time.RFC3339Nano),
			r.Metadata.ImportedFilename,
			Fingerprint(r, occurrence),
		)
		if err != nil {
			return 0, fmt.Errorf("failed to insert record %s: %w", r.ID, err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return 0, err
		}
		inserted += int(n)
	}
	return inserted, nil
}

func insertParseErrors(ctx context.Context, tx *sql.Tx, importID int64, errs []model.ParseError) error {
	if len(errs) == 0 {
		return nil
	}
	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO parse_errors (import_id, line, field, message, raw_text) VALUES (?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("failed to prepare parse error insert: %w", err)
	}
	defer func() {
		if cerr := stmt.Close(); cerr != nil {
			// Best-effort statement close.
			_ = cerr
		}
	}()
	for _, pe := range errs {
		if _, err := stmt.ExecContext(ctx, importID, pe.Line, pe.Field, pe.Message, pe.RawText); err != nil {
			return fmt.Errorf("failed to insert parse error: %w", err)
		}
	}
	return nil
}

func nullFloat(v *float64) sql.NullFloat64 {
	if v == nil {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: *v, Valid: true}
}

// ListRecords returns stored records matching filter, oldest first. Since and
// Until are inclusive instants.
func (s *Store) ListRecords(ctx context.Context, filter model.RecordFilter) ([]model.Record, error) {
	clauses := []string{"1=1"}
	args := []any{}
	if filter.Activity != "" {
		clauses = append(clauses, "activity_type = ?")
		args = append(args, string(filter.Activity))
	}
	if filter.Since != nil {
		clauses = append(clauses, "ts_unix_ms >= ?")
		args = append(args, filter.Since.UnixMilli())
	}
	if filter.Until != nil {
		clauses = append(clauses, "ts_unix_ms <= ?")
		args = append(args, filter.Until.UnixMilli())
	}
	query := fmt.Sprintf(`SELECT id, ts, activity_type, duration, quantity, notes, imported_at, imported_filename
		FROM records
		WHERE %s
		ORDER BY ts_unix_ms ASC, id ASC`, strings.Join(clauses, " AND "))
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query records: %w", err)
	}
	defer func() {
		if cerr := rows.Close(); cerr != nil {
			// Best-effort rows close.
			_ = cerr
		}
	}()

	var records []model.Record
	for rows.Next() {
		var (
			r                  model.Record
			ts, importedAt     string
			activity           string
			duration, quantity sql.NullFloat64
		)
		if err := rows.Scan(&r.ID, &ts, &activity, &duration, &quantity, &r.Notes, &importedAt, &r.Metadata.ImportedFilename); err != nil {
			return nil, err
		}
		if r.Timestamp, err = time.Parse(time.RFC3339Nano, ts); err != nil {
			return nil, fmt.Errorf("record %s: %w", r.ID, err)
		}
		if r.Metadata.ImportedAt, err = time.Parse(time.RFC3339Nano, importedAt); err != nil {
			return nil, fmt.Errorf("record %s: %w", r.ID, err)
		}
		r.ActivityType = model.ActivityType(activity)
		if duration.Valid {
			r.Duration = model.Float(duration.Float64)
		}
		if quantity.Valid {
			r.Quantity = model.Float(quantity.Float64)
		}
		records = append(records, r)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return records, nil
}

// ListImports returns import history, newest first.
func (s *Store) ListImports(ctx context.Context) ([]model.ImportSummary, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, filename, format, imported_at, total_lines, record_count, inserted, error_count
		FROM imports
		ORDER BY id DESC`)
	if err != nil {
		return nil, fmt.Errorf("failed to query imports: %w", err)
	}
	defer func() {
		if cerr := rows.Close(); cerr != nil {
			// Best-effort rows close.
			_ = cerr
		}
	}()

	var imports []model.ImportSummary
	for rows.Next() {
		var imp model.ImportSummary
		var importedAt string
		if err := rows.Scan(&imp.ID, &imp.Filename, &imp.Format, &importedAt, &imp.TotalLines, &imp.RecordCount, &imp.Inserted, &imp.ErrorCount); err != nil {
			return nil, err
		}
		parsed, err := time.Parse(time.RFC3339Nano, importedAt)
		if err != nil {
			return nil, err
		}
		imp.ImportedAt = parsed
		imports = append(imports, imp)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return imports, nil
}

// ListParseErrors returns the parse errors stored for an import, by line.
func (s *Store) ListParseErrors(ctx context.Context, importID int64) ([]model.ParseError, error) {
	var exists int
	err := s.db.QueryRowContext(ctx, `SELECT 1 FROM imports WHERE id = ?`, importID).Scan(&exists)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("import %d: %w", importID, ErrImportNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to look up import: %w", err)
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT line, field, message, raw_text FROM parse_errors WHERE import_id = ? ORDER BY line ASC, rowid ASC`,
		importID)
	if err != nil {
		return nil, fmt.Errorf("failed to query parse errors: %w", err)
	}
	defer func() {
		if cerr := rows.Close(); cerr != nil {
			// Best-effort rows close.
			_ = cerr
		}
	}()

	var result []model.ParseError
	for rows.Next() {
		var pe model.ParseError
		if err := rows.Scan(&pe.Line, &pe.Field, &pe.Message, &pe.RawText); err != nil {
			return nil, err
		}
		result = append(result, pe)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}
