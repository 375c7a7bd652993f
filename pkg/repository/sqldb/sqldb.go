package sqldb

import (
	"context"
	"os"
	"path/filepath"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/echonotes/pkg/domain/interfaces"
	_ "modernc.org/sqlite"
)

// Dialect selects the SQL flavor of the backing database
type Dialect string

const (
	DialectSQLite   Dialect = "sqlite"
	DialectPostgres Dialect = "postgres"
)

func init() {
	sqlx.BindDriver(string(DialectSQLite), sqlx.QUESTION)
}

// DB is a relational repository backed by SQLite or PostgreSQL
type DB struct {
	db      *sqlx.DB
	dialect Dialect
	now     func() time.Time
}

var _ interfaces.Repository = &DB{}

// Option configures DB
type Option func(*DB)

// WithClock replaces the timestamp source
func WithClock(now func() time.Time) Option {
	return func(d *DB) {
		d.now = now
	}
}

// NewSQLite opens the SQLite database at path, creating parent directories as needed
func NewSQLite(ctx context.Context, path string, opts ...Option) (*DB, error) {
	if dir := filepath.Dir(path); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, goerr.Wrap(err, "failed to create database directory", goerr.V("dir", dir))
		}
	}

	dsn := "file:" + path + "?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)&_txlock=immediate"
	db, err := sqlx.ConnectContext(ctx, string(DialectSQLite), dsn)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to open sqlite database", goerr.V("path", path))
	}
	// SQLite allows a single writer
	db.SetMaxOpenConns(1)

	return newDB(db, DialectSQLite, opts...), nil
}

// NewPostgres connects to PostgreSQL with the given DSN
func NewPostgres(ctx context.Context, dsn string, opts ...Option) (*DB, error) {
	db, err := sqlx.ConnectContext(ctx, string(DialectPostgres), dsn)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to connect postgres")
	}
	db.SetMaxOpenConns(10)
	db.SetConnMaxIdleTime(5 * time.Minute)

	return newDB(db, DialectPostgres, opts...), nil
}

func newDB(db *sqlx.DB, dialect Dialect, opts ...Option) *DB {
	d := &DB{
		db:      db,
		dialect: dialect,
		now:     func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

func (d *DB) Note() interfaces.NoteRepository {
	return &noteRepository{d: d}
}

func (d *DB) CostLedger() interfaces.CostLedgerRepository {
	return &costLedgerRepository{d: d}
}

func (d *DB) ReflectionEvent() interfaces.ReflectionEventRepository {
	return &reflectionEventRepository{d: d}
}

// RunInTx runs fn in one database transaction
func (d *DB) RunInTx(ctx context.Context, fn func(ctx context.Context, tx interfaces.NoteTx) error) error {
	tx, err := d.db.BeginTxx(ctx, nil)
	if err != nil {
		return goerr.Wrap(err, "failed to begin transaction")
	}

	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	if err := fn(ctx, &noteTx{tx: tx, now: d.now}); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return goerr.Wrap(err, "failed to commit transaction")
	}
	committed = true
	return nil
}

func (d *DB) Close() error {
	return d.db.Close()
}

const timeLayout = time.RFC3339Nano

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func parseTime(s string) (time.Time, error) {
	t, err := time.Parse(timeLayout, s)
	if err != nil {
		return time.Time{}, goerr.Wrap(err, "invalid timestamp", goerr.V("value", s))
	}
	return t, nil
}
