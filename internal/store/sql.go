package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	// register database/sql drivers
	_ "github.com/jackc/pgx/v5/stdlib"
	_ "modernc.org/sqlite"

	"github.com/davidbz/claimrelay/internal/domain"
)

const schema = `
CREATE TABLE IF NOT EXISTS submissions (
	id TEXT PRIMARY KEY,
	description TEXT NOT NULL,
	invention_type TEXT NOT NULL,
	tech_field TEXT NOT NULL,
	key_features TEXT NOT NULL,
	draft TEXT NOT NULL,
	mode TEXT NOT NULL,
	created_at BIGINT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_submissions_created ON submissions(created_at DESC);
`

const selectColumns = `SELECT id, description, invention_type, tech_field, key_features, draft, mode, created_at FROM submissions`

// SQLStore implements domain.SubmissionStore on database/sql. Queries are
// written with ? placeholders and rebound for postgres.
type SQLStore struct {
	db       *sql.DB
	numbered bool
}

// NewSQLite opens (or creates) a SQLite store at path.
func NewSQLite(ctx context.Context, path string) (*SQLStore, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create store directory: %w", err)
		}
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	if _, err := db.ExecContext(ctx, `PRAGMA journal_mode=WAL`); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("enable WAL: %w", err)
	}
	return newSQLStore(ctx, db, false)
}

// NewPostgres opens a PostgreSQL store using dsn.
func NewPostgres(ctx context.Context, dsn string) (*SQLStore, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("open postgres db: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping postgres db: %w", err)
	}
	return newSQLStore(ctx, db, true)
}

func newSQLStore(ctx context.Context, db *sql.DB, numbered bool) (*SQLStore, error) {
	s := &SQLStore{db: db, numbered: numbered}
	if _, err := db.ExecContext(ctx, schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}
	return s, nil
}

// Close releases underlying database resources.
func (s *SQLStore) Close() error {
	return s.db.Close()
}

// Save inserts a submission.
func (s *SQLStore) Save(ctx context.Context, sub *domain.Submission) error {
	if sub == nil || sub.ID == "" {
		return errors.New("submission requires an id")
	}
	created := sub.CreatedAt
	if created.IsZero() {
		created = time.Now().UTC()
	}
	_, err := s.db.ExecContext(ctx, s.rebind(`
INSERT INTO submissions(id, description, invention_type, tech_field, key_features, draft, mode, created_at)
VALUES(?, ?, ?, ?, ?, ?, ?, ?)`),
		sub.ID,
		sub.Description,
		sub.InventionType,
		sub.TechField,
		sub.KeyFeatures,
		sub.Draft,
		sub.Mode,
		created.UnixNano(),
	)
	if err != nil {
		return fmt.Errorf("insert submission: %w", err)
	}
	return nil
}

// Get returns the submission with id or domain.ErrNotFound.
func (s *SQLStore) Get(ctx context.Context, id string) (*domain.Submission, error) {
	row := s.db.QueryRowContext(ctx, s.rebind(selectColumns+` WHERE id = ?`), id)
	sub, err := scanSubmission(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get submission: %w", err)
	}
	return sub, nil
}

// ListRecent returns up to limit submissions, newest first.
func (s *SQLStore) ListRecent(ctx context.Context, limit int) ([]*domain.Submission, error) {
	rows, err := s.db.QueryContext(ctx, s.rebind(selectColumns+` ORDER BY created_at DESC LIMIT ?`), limit)
	if err != nil {
		return nil, fmt.Errorf("list submissions: %w", err)
	}
	defer rows.Close()

	var subs []*domain.Submission
	for rows.Next() {
		sub, err := scanSubmission(rows)
		if err != nil {
			return nil, fmt.Errorf("scan submission: %w", err)
		}
		subs = append(subs, sub)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate submissions: %w", err)
	}
	return subs, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanSubmission(row scanner) (*domain.Submission, error) {
	var sub domain.Submission
	var created int64
	if err := row.Scan(
		&sub.ID,
		&sub.Description,
		&sub.InventionType,
		&sub.TechField,
		&sub.KeyFeatures,
		&sub.Draft,
		&sub.Mode,
		&created,
	); err != nil {
		return nil, err
	}
	sub.CreatedAt = time.Unix(0, created).UTC()
	return &sub, nil
}

// rebind turns ? placeholders into $n for postgres.
func (s *SQLStore) rebind(query string) string {
	if !s.numbered {
		return query
	}
	var sb strings.Builder
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			sb.WriteString("$" + strconv.Itoa(n))
			continue
		}
		sb.WriteRune(r)
	}
	return sb.String()
}
