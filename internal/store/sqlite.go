package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3" // SQLite driver
	"github.com/pkg/errors"
	"github.com/pressly/goose/v3"
	"github.com/rs/zerolog/log"

	"gwi.com/prompt-history/internal/store/migrations"
)

type SQLiteStore struct {
	db *sqlx.DB
}

// DSNForPath turns a plain database file path into a DSN with WAL and a busy
// timeout so concurrent requests wait on the write lock instead of failing.
// ":memory:" becomes a uniquely named shared-cache database so every pooled
// connection sees the same schema. Other file: URIs are returned unchanged.
func DSNForPath(path string) string {
	path = strings.TrimSpace(path)
	if path == ":memory:" {
		return fmt.Sprintf("file:%s?mode=memory&cache=shared&_busy_timeout=5000", uuid.NewString())
	}
	if strings.HasPrefix(path, "file:") {
		return path
	}
	return fmt.Sprintf("file:%s?_journal_mode=WAL&_busy_timeout=5000", path)
}

// NewSQLiteStore opens the database at path and applies pending migrations.
func NewSQLiteStore(ctx context.Context, path string) (*SQLiteStore, error) {
	if strings.TrimSpace(path) == "" {
		return nil, errors.New("sqlite store: empty path")
	}
	db, err := sqlx.Open("sqlite3", DSNForPath(path))
	if err != nil {
		return nil, errors.Wrap(err, "open sqlite")
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, errors.Wrap(err, "ping sqlite")
	}

	s := &SQLiteStore{db: db}
	if _, err := s.Migrate(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

func (s *SQLiteStore) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Migrate applies the embedded goose migrations and returns how many ran.
func (s *SQLiteStore) Migrate(ctx context.Context) (int, error) {
	provider, err := goose.NewProvider(goose.DialectSQLite3, s.db.DB, migrations.FS)
	if err != nil {
		return 0, errors.Wrap(err, "init migration provider")
	}
	results, err := provider.Up(ctx)
	if err != nil {
		return 0, errors.Wrap(err, "apply migrations")
	}
	for _, r := range results {
		log.Debug().Str("migration", r.Source.Path).Dur("took", r.Duration).Msg("applied migration")
	}
	return len(results), nil
}

// Insert appends a record and returns its generated id. The timestamp is set
// by the database.
func (s *SQLiteStore) Insert(ctx context.Context, prompt, response string) (int64, error) {
	res, err := s.db.ExecContext(ctx, "INSERT INTO chat_history (prompt, response) VALUES (?, ?)", prompt, response)
	if err != nil {
		return 0, opError("insert", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, opError("insert", err)
	}
	return id, nil
}

// ListAll returns every record, oldest first. Records sharing a timestamp
// come back in id order.
func (s *SQLiteStore) ListAll(ctx context.Context) ([]ChatRecord, error) {
	records := []ChatRecord{}
	err := s.db.SelectContext(ctx, &records, `
        SELECT id, COALESCE(prompt, '') AS prompt, COALESCE(response, '') AS response, timestamp
        FROM chat_history
        ORDER BY timestamp ASC, id ASC
    `)
	if err != nil {
		return nil, opError("list", err)
	}
	return records, nil
}

func (s *SQLiteStore) Get(ctx context.Context, id int64) (*ChatRecord, error) {
	var rec ChatRecord
	err := s.db.GetContext(ctx, &rec, `
        SELECT id, COALESCE(prompt, '') AS prompt, COALESCE(response, '') AS response, timestamp
        FROM chat_history
        WHERE id = ?
    `, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, opError("get", err)
	}
	return &rec, nil
}

// DeleteByID removes the record with the given id, or returns ErrNotFound
// when nothing was deleted.
func (s *SQLiteStore) DeleteByID(ctx context.Context, id int64) error {
	res, err := s.db.ExecContext(ctx, "DELETE FROM chat_history WHERE id = ?", id)
	if err != nil {
		return opError("delete", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return opError("delete", err)
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}
