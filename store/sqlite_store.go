package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/mattn/go-sqlite3"
	"github.com/reelvault/asset-services/models/asset"
)

const schema = `
CREATE TABLE IF NOT EXISTS assets (
	id               INTEGER PRIMARY KEY AUTOINCREMENT,
	filename         TEXT    NOT NULL,
	storage_location TEXT    NOT NULL,
	size_bytes       INTEGER NOT NULL CHECK (size_bytes > 0),
	duration_seconds REAL    NOT NULL CHECK (duration_seconds > 0),
	format_id        TEXT    NOT NULL DEFAULT '',
	created_at       TEXT    NOT NULL
);
CREATE TABLE IF NOT EXISTS share_grants (
	id         INTEGER PRIMARY KEY AUTOINCREMENT,
	asset_id   INTEGER NOT NULL,
	token      TEXT    NOT NULL UNIQUE,
	expires_at TEXT    NOT NULL,
	created_at TEXT    NOT NULL
);
`

const assetColumns = "id, filename, storage_location, size_bytes, duration_seconds, format_id, created_at"

// SQLiteStore keeps assets and share grants in a SQLite database.
// Timestamps are stored as RFC 3339 text with nanoseconds.
type SQLiteStore struct {
	db *sql.DB
}

var _ AssetStore = (*SQLiteStore)(nil)

func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	dsn := fmt.Sprintf("file:%s?_busy_timeout=5000&_journal_mode=WAL", dbPath)
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, err
	}
	if _, err = db.Exec(schema); err != nil {
		db.Close()
		return nil, err
	}
	return &SQLiteStore{db: db}, nil
}

func (s *SQLiteStore) InsertAsset(ctx context.Context, a *asset.Asset) (int64, error) {
	var id int64
	err := s.inTx(ctx, func(tx *sql.Tx) error {
		result, err := tx.ExecContext(ctx,
			`INSERT INTO assets (filename, storage_location, size_bytes, duration_seconds, format_id, created_at)
			 VALUES (?, ?, ?, ?, ?, ?)`,
			a.Filename, a.StorageLocation, a.SizeBytes, a.DurationSeconds, a.FormatID, formatTime(a.CreatedAt))
		if err != nil {
			return err
		}
		id, err = result.LastInsertId()
		return err
	})
	if err != nil {
		return 0, fmt.Errorf("InsertAsset: %w", err)
	}
	a.ID = id
	return id, nil
}

func (s *SQLiteStore) AssetByID(ctx context.Context, id int64) (*asset.Asset, error) {
	row := s.db.QueryRowContext(ctx, "SELECT "+assetColumns+" FROM assets WHERE id = ?", id)
	a, err := scanAsset(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("AssetByID (%d): %w", id, err)
	}
	return a, nil
}

func (s *SQLiteStore) AssetsByIDs(ctx context.Context, ids []int64) (map[int64]*asset.Asset, error) {
	assets := make(map[int64]*asset.Asset, len(ids))
	unique := uniqueIDs(ids)
	if len(unique) == 0 {
		return assets, nil
	}
	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(unique)), ",")
	args := make([]interface{}, len(unique))
	for i, id := range unique {
		args[i] = id
	}
	rows, err := s.db.QueryContext(ctx,
		"SELECT "+assetColumns+" FROM assets WHERE id IN ("+placeholders+")", args...)
	if err != nil {
		return nil, fmt.Errorf("AssetsByIDs: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		a, err := scanAsset(rows)
		if err != nil {
			return nil, fmt.Errorf("AssetsByIDs: %w", err)
		}
		assets[a.ID] = a
	}
	return assets, rows.Err()
}

func (s *SQLiteStore) InsertShareGrant(ctx context.Context, g *asset.ShareGrant) (int64, error) {
	var id int64
	err := s.inTx(ctx, func(tx *sql.Tx) error {
		result, err := tx.ExecContext(ctx,
			`INSERT INTO share_grants (asset_id, token, expires_at, created_at) VALUES (?, ?, ?, ?)`,
			g.AssetID, g.Token, formatTime(g.ExpiresAt), formatTime(g.CreatedAt))
		if err != nil {
			return err
		}
		id, err = result.LastInsertId()
		return err
	})
	if err != nil {
		var sqliteErr sqlite3.Error
		if errors.As(err, &sqliteErr) && sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique {
			return 0, ErrDuplicateToken
		}
		return 0, fmt.Errorf("InsertShareGrant: %w", err)
	}
	g.ID = id
	return id, nil
}

func (s *SQLiteStore) ShareGrantByToken(ctx context.Context, token string) (*asset.ShareGrant, error) {
	row := s.db.QueryRowContext(ctx,
		"SELECT id, asset_id, token, expires_at, created_at FROM share_grants WHERE token = ?", token)
	g := &asset.ShareGrant{}
	var expiresAt, createdAt string
	err := row.Scan(&g.ID, &g.AssetID, &g.Token, &expiresAt, &createdAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("ShareGrantByToken: %w", err)
	}
	if g.ExpiresAt, err = parseTime(expiresAt); err != nil {
		return nil, err
	}
	if g.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, err
	}
	return g, nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// inTx runs fn in a transaction, rolling back if fn or the commit
// fails.
func (s *SQLiteStore) inTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	if err = fn(tx); err != nil {
		tx.Rollback()
		return err
	}
	if err = tx.Commit(); err != nil {
		tx.Rollback()
		return err
	}
	return nil
}

type scanner interface {
	Scan(dest ...interface{}) error
}

func scanAsset(row scanner) (*asset.Asset, error) {
	a := &asset.Asset{}
	var createdAt string
	err := row.Scan(&a.ID, &a.Filename, &a.StorageLocation, &a.SizeBytes,
		&a.DurationSeconds, &a.FormatID, &createdAt)
	if err != nil {
		return nil, err
	}
	if a.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, err
	}
	return a, nil
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

func parseTime(value string) (time.Time, error) {
	return time.Parse(time.RFC3339Nano, value)
}
