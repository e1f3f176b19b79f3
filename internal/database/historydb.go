package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/nao1215/sitehash/internal/model"
)

// FileName is the database file name inside the data directory.
const FileName = "sitehash.db"

// HistoryDB provides SQLite-based storage for fingerprint history.
type HistoryDB struct {
	// db is the underlying SQL database connection.
	db *sql.DB

	// dbPath is the path to the SQLite database file.
	dbPath string
}

// Options configures HistoryDB behavior.
type Options struct {
	// CreateIfNotExists creates the database file if it doesn't exist.
	CreateIfNotExists bool

	// EnableWAL enables Write-Ahead Logging for better concurrent performance.
	EnableWAL bool
}

// DefaultOptions returns the default database options.
func DefaultOptions() Options {
	return Options{
		CreateIfNotExists: true,
		EnableWAL:         true,
	}
}

// Open opens or creates a HistoryDB in dbDir.
// If CreateIfNotExists is false and the database doesn't exist, an error is returned.
func Open(dbDir string, opts Options) (*HistoryDB, error) {
	dbPath := filepath.Join(dbDir, FileName)

	if !opts.CreateIfNotExists {
		if _, err := os.Stat(dbPath); os.IsNotExist(err) {
			return nil, fmt.Errorf("database not found at %s (run the server or hash command first)", dbPath)
		} else if err != nil {
			return nil, fmt.Errorf("failed to check database path: %w", err)
		}
	} else {
		if err := os.MkdirAll(dbDir, 0750); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	// mode=rw refuses to create a new file, mode=rwc allows it.
	dsn := dbPath + "?mode=rw"
	if opts.CreateIfNotExists {
		dsn = dbPath + "?mode=rwc"
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// SQLite only supports one writer.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(time.Hour)

	hdb := &HistoryDB{
		db:     db,
		dbPath: dbPath,
	}

	if opts.EnableWAL {
		if _, err := db.ExecContext(context.Background(), "PRAGMA journal_mode=WAL"); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
		}
	}

	if err := hdb.createTables(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}

	return hdb, nil
}

// Path returns the database file path.
func (hdb *HistoryDB) Path() string {
	return hdb.dbPath
}

// Close closes the database connection.
func (hdb *HistoryDB) Close() error {
	return hdb.db.Close()
}

// createTables creates the database schema if it doesn't exist.
func (hdb *HistoryDB) createTables() error {
	schema := `
	-- One row per computed fingerprint
	CREATE TABLE IF NOT EXISTS fingerprints (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		url TEXT NOT NULL,
		fingerprint TEXT NOT NULL,
		last_updated TEXT NOT NULL,
		computed_at TEXT NOT NULL,
		source TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_fingerprints_url ON fingerprints(url, id);
	`

	_, err := hdb.db.ExecContext(context.Background(), schema)
	return err
}

// Record is one stored fingerprint computation.
type Record struct {
	ID          int64             `json:"id"`
	URL         string            `json:"url"`
	Fingerprint model.Fingerprint `json:"fingerprint"`
	LastUpdated time.Time         `json:"last_updated"`
	ComputedAt  time.Time         `json:"computed_at"`
	Source      model.Source      `json:"source"`
}

// Insert stores a record and returns its ID.
func (hdb *HistoryDB) Insert(ctx context.Context, record *Record) (int64, error) {
	query := `
	INSERT INTO fingerprints (url, fingerprint, last_updated, computed_at, source)
	VALUES (?, ?, ?, ?, ?)
	`

	result, err := hdb.db.ExecContext(ctx, query,
		record.URL,
		record.Fingerprint.String(),
		formatTimestamp(record.LastUpdated),
		formatTimestamp(record.ComputedAt),
		string(record.Source),
	)
	if err != nil {
		return 0, fmt.Errorf("failed to insert fingerprint record: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to get record ID: %w", err)
	}
	return id, nil
}

// Latest returns the most recent record for url, or nil if there is none.
func (hdb *HistoryDB) Latest(ctx context.Context, url string) (*Record, error) {
	records, err := hdb.History(ctx, url, 1)
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, nil
	}
	return &records[0], nil
}

// History returns records for url, newest first.
// A limit of zero or less returns every record.
func (hdb *HistoryDB) History(ctx context.Context, url string, limit int) ([]Record, error) {
	query := `
	SELECT id, url, fingerprint, last_updated, computed_at, source
	FROM fingerprints
	WHERE url = ?
	ORDER BY id DESC
	`
	args := []any{url}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := hdb.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query history: %w", err)
	}
	defer func() {
		_ = rows.Close()
	}()

	records := make([]Record, 0)
	for rows.Next() {
		var (
			record      Record
			fingerprint string
			lastUpdated string
			computedAt  string
			source      string
		)
		if err := rows.Scan(&record.ID, &record.URL, &fingerprint, &lastUpdated, &computedAt, &source); err != nil {
			return nil, fmt.Errorf("failed to scan history row: %w", err)
		}
		record.Fingerprint = model.Fingerprint(fingerprint)
		record.LastUpdated = parseTimestamp(lastUpdated)
		record.ComputedAt = parseTimestamp(computedAt)
		record.Source = model.Source(source)
		records = append(records, record)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate history: %w", err)
	}
	return records, nil
}

// TrackedURL summarizes the history of one URL.
type TrackedURL struct {
	URL         string            `json:"url"`
	Fingerprint model.Fingerprint `json:"fingerprint"`
	Records     int               `json:"records"`
	LastSeen    time.Time         `json:"last_seen"`
}

// ListURLs returns every URL with at least one record, with its latest
// fingerprint, ordered by URL.
func (hdb *HistoryDB) ListURLs(ctx context.Context) ([]TrackedURL, error) {
	query := `
	SELECT f.url, f.fingerprint, counts.n, f.computed_at
	FROM fingerprints f
	JOIN (
		SELECT url, MAX(id) AS last_id, COUNT(*) AS n
		FROM fingerprints
		GROUP BY url
	) counts ON f.id = counts.last_id
	ORDER BY f.url
	`

	rows, err := hdb.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list tracked URLs: %w", err)
	}
	defer func() {
		_ = rows.Close()
	}()

	tracked := make([]TrackedURL, 0)
	for rows.Next() {
		var (
			t           TrackedURL
			fingerprint string
			lastSeen    string
		)
		if err := rows.Scan(&t.URL, &fingerprint, &t.Records, &lastSeen); err != nil {
			return nil, fmt.Errorf("failed to scan tracked URL: %w", err)
		}
		t.Fingerprint = model.Fingerprint(fingerprint)
		t.LastSeen = parseTimestamp(lastSeen)
		tracked = append(tracked, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate tracked URLs: %w", err)
	}
	return tracked, nil
}

// Prune deletes all but the newest keep records of url and returns the
// number of deleted rows.
func (hdb *HistoryDB) Prune(ctx context.Context, url string, keep int) (int64, error) {
	if keep < 0 {
		return 0, errors.New("keep must not be negative")
	}
	query := `
	DELETE FROM fingerprints
	WHERE url = ? AND id NOT IN (
		SELECT id FROM fingerprints WHERE url = ? ORDER BY id DESC LIMIT ?
	)
	`
	result, err := hdb.db.ExecContext(ctx, query, url, url, keep)
	if err != nil {
		return 0, fmt.Errorf("failed to prune history: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to count pruned rows: %w", err)
	}
	return n, nil
}

// formatTimestamp stores times as UTC RFC3339 with nanoseconds.
func formatTimestamp(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

// timestampFormats contains the timestamp formats that SQLite may return.
// The order matters: more specific formats should come first.
var timestampFormats = []string{
	time.RFC3339Nano,          // Format written by formatTimestamp
	"2006-01-02 15:04:05",     // SQLite default datetime format
	"2006-01-02T15:04:05Z",    // ISO 8601 with Z suffix
	"2006-01-02T15:04:05",     // ISO 8601 without timezone
	"2006-01-02 15:04:05.999", // SQLite with milliseconds
}

// parseTimestamp attempts to parse a timestamp string using multiple formats.
// If parsing fails with all formats, returns zero time.
func parseTimestamp(s string) time.Time {
	for _, format := range timestampFormats {
		if t, err := time.Parse(format, s); err == nil {
			return t
		}
	}
	return time.Time{}
}
