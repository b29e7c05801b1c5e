package store

import (
	"context"
	"database/sql"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	pcerrors "github.com/maxkimambo/prodcrew/internal/errors"
	"github.com/maxkimambo/prodcrew/internal/logger"
	_ "modernc.org/sqlite"
)

// CategoryRun marks rows that hold a whole pipeline run report.
const CategoryRun = "pipeline_run"

// timeLayout sorts lexically in the same order as chronologically.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

// ErrNotFound is returned when a record does not exist.
var ErrNotFound = stderrors.New("product record not found")

// ProductRecord is one indexed row.
type ProductRecord struct {
	ID        string          `json:"id"`
	Name      string          `json:"name"`
	Category  string          `json:"category"`
	Payload   json.RawMessage `json:"data"`
	Score     float64         `json:"overall_score"`
	Approved  bool            `json:"is_approved"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
}

// Store is a SQLite-backed product index.
type Store struct {
	db     *sql.DB
	dbPath string
	now    func() time.Time
}

// Open initializes the database at path, creating parent directories and
// the schema as needed.
func Open(path string) (*Store, error) {
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			return nil, fmt.Errorf("failed to create directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	db.SetMaxOpenConns(1)

	s := &Store{db: db, dbPath: path, now: time.Now}
	if err := s.initialize(); err != nil {
		db.Close()
		return nil, err
	}

	logger.Op.WithFields(map[string]interface{}{
		"path": path,
	}).Debug("Product store opened")
	return s, nil
}

func (s *Store) initialize() error {
	if _, err := s.db.Exec("PRAGMA busy_timeout = 5000"); err != nil {
		return fmt.Errorf("failed to set busy_timeout: %w", err)
	}

	schema := `
	CREATE TABLE IF NOT EXISTS products (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		category TEXT,
		data TEXT NOT NULL,
		overall_score REAL,
		is_approved INTEGER,
		created_at TIMESTAMP,
		updated_at TIMESTAMP
	);
	CREATE INDEX IF NOT EXISTS idx_score ON products(overall_score DESC);
	CREATE INDEX IF NOT EXISTS idx_approved ON products(is_approved);
	CREATE INDEX IF NOT EXISTS idx_created ON products(created_at DESC);
	`
	if _, err := s.db.Exec(schema); err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}
	return nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Path returns the database location.
func (s *Store) Path() string {
	return s.dbPath
}

func (s *Store) prepare(rec *ProductRecord) error {
	if strings.TrimSpace(rec.Name) == "" {
		return pcerrors.NewValidationFailedError("name", rec.Name, "Product record insert")
	}
	if len(rec.Payload) == 0 {
		rec.Payload = json.RawMessage("{}")
	}
	if !json.Valid(rec.Payload) {
		return pcerrors.NewValidationFailedError("data", "invalid JSON", "Product record insert")
	}
	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}
	now := s.now().UTC()
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = now
	}
	rec.UpdatedAt = now
	return nil
}

// Insert adds a single record inside its own transaction. The ID and
// timestamps are filled in when empty.
func (s *Store) Insert(ctx context.Context, rec *ProductRecord) error {
	if err := s.prepare(rec); err != nil {
		return err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return pcerrors.NewPersistenceError(pcerrors.CodePersistenceStore, "product record", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO products (id, name, category, data, overall_score, is_approved, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.ID, rec.Name, rec.Category, string(rec.Payload), rec.Score, boolToInt(rec.Approved),
		rec.CreatedAt.UTC().Format(timeLayout), rec.UpdatedAt.UTC().Format(timeLayout))
	if err != nil {
		return pcerrors.NewPersistenceError(pcerrors.CodePersistenceStore, "product record", err).
			WithContext("id", rec.ID)
	}

	if err := tx.Commit(); err != nil {
		return pcerrors.NewPersistenceError(pcerrors.CodePersistenceStore, "product record", err)
	}
	return nil
}

// Upsert inserts rec or replaces the row with the same ID, keeping its
// original creation time.
func (s *Store) Upsert(ctx context.Context, rec *ProductRecord) error {
	if err := s.prepare(rec); err != nil {
		return err
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO products (id, name, category, data, overall_score, is_approved, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			category = excluded.category,
			data = excluded.data,
			overall_score = excluded.overall_score,
			is_approved = excluded.is_approved,
			updated_at = excluded.updated_at`,
		rec.ID, rec.Name, rec.Category, string(rec.Payload), rec.Score, boolToInt(rec.Approved),
		rec.CreatedAt.UTC().Format(timeLayout), rec.UpdatedAt.UTC().Format(timeLayout))
	if err != nil {
		return pcerrors.NewPersistenceError(pcerrors.CodePersistenceStore, "product record", err).
			WithContext("id", rec.ID)
	}
	return nil
}

const selectColumns = `SELECT id, name, category, data, overall_score, is_approved, created_at, updated_at FROM products`

// Get returns the record with id or ErrNotFound.
func (s *Store) Get(ctx context.Context, id string) (*ProductRecord, error) {
	row := s.db.QueryRowContext(ctx, selectColumns+` WHERE id = ?`, id)
	rec, err := scanRecord(row)
	if stderrors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	return rec, err
}

type OrderBy string

const (
	OrderByScore   OrderBy = "score"
	OrderByCreated OrderBy = "created"
)

type ListOptions struct {
	ApprovedOnly bool
	// Category filters to one category when set
	Category string
	// SkipRuns leaves out pipeline run rows
	SkipRuns bool
	Limit    int
	OrderBy  OrderBy
}

// List returns records matching opts.
func (s *Store) List(ctx context.Context, opts ListOptions) ([]ProductRecord, error) {
	var (
		where []string
		args  []interface{}
	)
	if opts.ApprovedOnly {
		where = append(where, "is_approved = 1")
	}
	if opts.Category != "" {
		where = append(where, "category = ?")
		args = append(args, opts.Category)
	}
	if opts.SkipRuns {
		where = append(where, "category IS NOT ?")
		args = append(args, CategoryRun)
	}

	query := selectColumns
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	switch opts.OrderBy {
	case OrderByCreated:
		query += " ORDER BY created_at DESC, rowid DESC"
	default:
		query += " ORDER BY overall_score DESC, created_at DESC"
	}
	if opts.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, opts.Limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list products: %w", err)
	}
	defer rows.Close()

	var records []ProductRecord
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, *rec)
	}
	return records, rows.Err()
}

// Latest returns the most recently created record in category, or ErrNotFound.
func (s *Store) Latest(ctx context.Context, category string) (*ProductRecord, error) {
	records, err := s.List(ctx, ListOptions{Category: category, Limit: 1, OrderBy: OrderByCreated})
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, ErrNotFound
	}
	return &records[0], nil
}

// Count returns the number of stored records.
func (s *Store) Count(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM products`).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count products: %w", err)
	}
	return n, nil
}

type scanner interface {
	Scan(dest ...interface{}) error
}

func scanRecord(row scanner) (*ProductRecord, error) {
	var (
		rec      ProductRecord
		category sql.NullString
		data     string
		score    sql.NullFloat64
		approved sql.NullInt64
		created  sql.NullString
		updated  sql.NullString
	)
	if err := row.Scan(&rec.ID, &rec.Name, &category, &data, &score, &approved, &created, &updated); err != nil {
		return nil, err
	}
	rec.Category = category.String
	rec.Payload = json.RawMessage(data)
	rec.Score = score.Float64
	rec.Approved = approved.Int64 == 1
	rec.CreatedAt = parseTime(created.String)
	rec.UpdatedAt = parseTime(updated.String)
	return &rec, nil
}

func parseTime(s string) time.Time {
	for _, layout := range []string{timeLayout, time.RFC3339Nano, "2006-01-02 15:04:05.999999999-07:00", "2006-01-02 15:04:05"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC()
		}
	}
	return time.Time{}
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
