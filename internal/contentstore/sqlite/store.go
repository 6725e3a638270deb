package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/specialistvlad/charsmith/internal/content"
	"github.com/specialistvlad/charsmith/internal/contentstore/sqlite/migrations"
	"github.com/specialistvlad/charsmith/internal/ctxlog"
	_ "modernc.org/sqlite"
)

// Store persists rule objects in SQLite.
type Store struct {
	sqlDB *sql.DB
}

// Open opens a SQLite content store and applies embedded migrations.
func Open(ctx context.Context, path string) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("storage path is required")
	}
	dsn := filepath.Clean(path) + "?_journal_mode=WAL&_foreign_keys=ON&_busy_timeout=5000&_synchronous=NORMAL"
	sqlDB, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	if err := sqlDB.PingContext(ctx); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}
	if err := applyMigrations(ctx, sqlDB, migrations.FS); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}
	ctxlog.FromContext(ctx).Debug("Opened content store.", "path", path)
	return &Store{sqlDB: sqlDB}, nil
}

// Close closes the SQLite handle.
func (s *Store) Close() error {
	if s == nil || s.sqlDB == nil {
		return nil
	}
	return s.sqlDB.Close()
}

// Put upserts objs in a single transaction.
func (s *Store) Put(ctx context.Context, objs ...*content.Object) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	tx, err := s.sqlDB.BeginTx(ctx, nil)
	if err != nil {
		return storeErr("begin import", err)
	}
	defer func() { _ = tx.Rollback() }()

	now := time.Now().UTC().UnixMilli()
	for _, o := range objs {
		if strings.TrimSpace(o.ID) == "" {
			return fmt.Errorf("object id is required")
		}
		mutators, err := encodeMutators(o.Mutators)
		if err != nil {
			return fmt.Errorf("object %q: %w", o.ID, err)
		}
		_, err = tx.ExecContext(ctx,
			`INSERT INTO objects (id, kind, name, summary, text, mutators, updated_at)
			 VALUES (?, ?, ?, ?, ?, ?, ?)
			 ON CONFLICT(id) DO UPDATE SET
			   kind = excluded.kind,
			   name = excluded.name,
			   summary = excluded.summary,
			   text = excluded.text,
			   mutators = excluded.mutators,
			   updated_at = excluded.updated_at`,
			o.ID, string(o.Kind), o.Name, o.Summary, o.Text, mutators, now,
		)
		if err != nil {
			return storeErr(fmt.Sprintf("put object %q", o.ID), err)
		}
	}
	if err := tx.Commit(); err != nil {
		return storeErr("commit import", err)
	}
	ctxlog.FromContext(ctx).Debug("Stored content objects.", "count", len(objs))
	return nil
}

// FetchObject implements content.Provider.
func (s *Store) FetchObject(ctx context.Context, id string, kind content.Kind) (*content.Object, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var (
		obj      = &content.Object{ID: id}
		rawKind  string
		mutators string
	)
	err := s.sqlDB.QueryRowContext(ctx,
		`SELECT kind, name, summary, text, mutators FROM objects WHERE id = ?`, id,
	).Scan(&rawKind, &obj.Name, &obj.Summary, &obj.Text, &mutators)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, content.NotFound(id, kind)
	}
	if err != nil {
		return nil, storeErr(fmt.Sprintf("fetch object %q", id), err)
	}
	obj.Kind = content.Kind(rawKind)
	if obj.Kind != kind {
		return nil, content.NotFound(id, kind)
	}
	if obj.Mutators, err = decodeMutators(mutators); err != nil {
		return nil, storeErr(fmt.Sprintf("fetch object %q", id), err)
	}
	return obj, nil
}

// FetchIndirect implements content.Provider.
func (s *Store) FetchIndirect(ctx context.Context, id string) (content.Brief, error) {
	if err := ctx.Err(); err != nil {
		return content.Brief{}, err
	}
	var (
		brief   = content.Brief{ID: id}
		rawKind string
	)
	err := s.sqlDB.QueryRowContext(ctx,
		`SELECT kind, name, summary, text FROM objects WHERE id = ?`, id,
	).Scan(&rawKind, &brief.Name, &brief.Summary, &brief.Text)
	if errors.Is(err, sql.ErrNoRows) {
		return content.Brief{}, content.NotFound(id, "")
	}
	if err != nil {
		return content.Brief{}, storeErr(fmt.Sprintf("fetch indirect %q", id), err)
	}
	brief.Kind = content.Kind(rawKind)
	return brief, nil
}

// Count returns the number of stored objects of each kind.
func (s *Store) Count(ctx context.Context) (map[content.Kind]int, error) {
	rows, err := s.sqlDB.QueryContext(ctx, `SELECT kind, COUNT(*) FROM objects GROUP BY kind`)
	if err != nil {
		return nil, storeErr("count objects", err)
	}
	defer rows.Close()

	out := make(map[content.Kind]int)
	for rows.Next() {
		var (
			kind string
			n    int
		)
		if err := rows.Scan(&kind, &n); err != nil {
			return nil, storeErr("count objects", err)
		}
		out[content.Kind(kind)] = n
	}
	if err := rows.Err(); err != nil {
		return nil, storeErr("count objects", err)
	}
	return out, nil
}

func storeErr(op string, err error) error {
	return fmt.Errorf("%s: %w: %w", op, content.ErrStore, err)
}
