package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"time"

	go_json "github.com/goccy/go-json"
	_ "github.com/mattn/go-sqlite3"

	"github.com/garrettladley/storefront/internal/migrations"
)

var (
	_ CacheStorage = (*SQLiteCacheStorage)(nil)
	_ Cache        = (*sqliteCache)(nil)
)

// SQLiteCacheStorage persists partitions on local disk so a single edge
// node keeps serving its offline copy across restarts.
type SQLiteCacheStorage struct {
	db *sql.DB
}

// OpenSQLiteCacheStorage opens (or creates) the database at path and applies
// pending migrations.
func OpenSQLiteCacheStorage(ctx context.Context, path string) (*SQLiteCacheStorage, error) {
	db, err := sql.Open("sqlite3", path+"?_foreign_keys=on&_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping sqlite: %w", err)
	}
	if _, err := migrations.Apply(ctx, db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("migrations: %w", err)
	}
	return &SQLiteCacheStorage{db: db}, nil
}

func (s *SQLiteCacheStorage) Close() error {
	return s.db.Close()
}

func (s *SQLiteCacheStorage) Open(ctx context.Context, name string) (Cache, error) {
	if _, err := s.db.ExecContext(ctx, `INSERT OR IGNORE INTO cache_partitions (name) VALUES (?)`, name); err != nil {
		return nil, fmt.Errorf("create cache partition: %w", err)
	}

	var id int64
	if err := s.db.QueryRowContext(ctx, `SELECT id FROM cache_partitions WHERE name = ?`, name).Scan(&id); err != nil {
		return nil, fmt.Errorf("get cache partition: %w", err)
	}
	return &sqliteCache{db: s.db, partitionID: id}, nil
}

func (s *SQLiteCacheStorage) Has(ctx context.Context, name string) (bool, error) {
	var count int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM cache_partitions WHERE name = ?`, name).Scan(&count); err != nil {
		return false, fmt.Errorf("look up cache partition: %w", err)
	}
	return count > 0, nil
}

func (s *SQLiteCacheStorage) Delete(ctx context.Context, name string) (bool, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM cache_partitions WHERE name = ?`, name)
	if err != nil {
		return false, fmt.Errorf("delete cache partition: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("delete cache partition: %w", err)
	}
	return n > 0, nil
}

func (s *SQLiteCacheStorage) Keys(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT name FROM cache_partitions ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("list cache partitions: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("scan cache partition: %w", err)
		}
		names = append(names, name)
	}
	return names, rows.Err()
}

func (s *SQLiteCacheStorage) Match(ctx context.Context, key string) (*CachedResponse, string, error) {
	const query = `
		SELECT p.name, e.status_code, e.header, e.body, e.stored_at
		FROM cache_entries e
		JOIN cache_partitions p ON p.id = e.partition_id
		WHERE e.request_key = ?
		ORDER BY p.id
		LIMIT 1
	`

	var name string
	resp, err := scanCachedResponse(s.db.QueryRowContext(ctx, query, key), &name)
	if err != nil {
		return nil, "", err
	}
	return resp, name, nil
}

type sqliteCache struct {
	db          *sql.DB
	partitionID int64
}

func (c *sqliteCache) Match(ctx context.Context, key string) (*CachedResponse, error) {
	const query = `
		SELECT status_code, header, body, stored_at
		FROM cache_entries
		WHERE partition_id = ? AND request_key = ?
	`
	return scanCachedResponse(c.db.QueryRowContext(ctx, query, c.partitionID, key))
}

func (c *sqliteCache) Put(ctx context.Context, key string, resp *CachedResponse) error {
	header, err := go_json.Marshal(resp.Header)
	if err != nil {
		return fmt.Errorf("marshal cached header: %w", err)
	}

	const query = `
		INSERT INTO cache_entries (partition_id, request_key, status_code, header, body, stored_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT (partition_id, request_key) DO UPDATE SET
			status_code = excluded.status_code,
			header = excluded.header,
			body = excluded.body,
			stored_at = excluded.stored_at
	`
	_, err = c.db.ExecContext(ctx, query, c.partitionID, key, resp.StatusCode, string(header), resp.Body, resp.StoredAt.UnixMilli())
	if err != nil {
		return fmt.Errorf("put cache entry: %w", err)
	}
	return nil
}

func (c *sqliteCache) Delete(ctx context.Context, key string) (bool, error) {
	res, err := c.db.ExecContext(ctx, `DELETE FROM cache_entries WHERE partition_id = ? AND request_key = ?`, c.partitionID, key)
	if err != nil {
		return false, fmt.Errorf("delete cache entry: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("delete cache entry: %w", err)
	}
	return n > 0, nil
}

// scanCachedResponse reads a row of (status_code, header, body, stored_at),
// optionally preceded by the extra destinations in lead.
func scanCachedResponse(row *sql.Row, lead ...any) (*CachedResponse, error) {
	var (
		resp     CachedResponse
		header   string
		storedAt int64
	)
	dest := append(lead, &resp.StatusCode, &header, &resp.Body, &storedAt)
	if err := row.Scan(dest...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("scan cache entry: %w", err)
	}

	resp.Header = http.Header{}
	if err := go_json.Unmarshal([]byte(header), &resp.Header); err != nil {
		return nil, fmt.Errorf("unmarshal cached header: %w", err)
	}
	resp.StoredAt = time.UnixMilli(storedAt)
	return &resp, nil
}
