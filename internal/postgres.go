package internal

import (
	"bytes"
	"compress/gzip"
	"context"
	"database/sql"
	_ "embed" // For schema.
	"errors"
	"fmt"
	"io"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib" // pgx driver
	"go.uber.org/zap/buffer"
)

//go:embed schema.sql
var _schema string

// _buffers reduces GC.
var _buffers = buffer.NewPool()

func newPostgres(ctx context.Context, dsn string) (*pgcache, error) {
	db, err := newDB(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("creating db: %w", err)
	}
	return &pgcache{db: db}, nil
}

// newDB connects to our DB and applies our schema.
func newDB(ctx context.Context, dsn string) (*sql.DB, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("dbinit: %w", err)
	}
	err = db.PingContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("establishing db connection: %w", err)
	}

	_logHandler.Info("ensuring DB schema")
	_, err = db.ExecContext(ctx, _schema)
	if err != nil {
		return nil, fmt.Errorf("ensuring schema: %w", err)
	}

	return db, nil
}

// pgcache is the persistent layer. Values are compressed with gzip at rest.
type pgcache struct {
	db *sql.DB
}

var _ cacher = (*pgcache)(nil)

func (pg *pgcache) GetWithTTL(ctx context.Context, key string) ([]byte, time.Duration, bool) {
	var compressed []byte
	var expires time.Time
	err := pg.db.QueryRowContext(ctx, `SELECT value, expires FROM cache WHERE key = $1;`, key).Scan(&compressed, &expires)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, 0, false
	}
	if err != nil {
		Log(ctx).Warn("problem reading cache", "err", err, "key", key)
		return nil, 0, false
	}

	ttl := time.Until(expires)
	if ttl <= 0 {
		return nil, 0, false
	}

	buf := _buffers.Get()
	defer buf.Free()

	if err := decompress(ctx, bytes.NewReader(compressed), buf); err != nil {
		return nil, 0, false
	}

	// We can't return the buffer's underlying byte slice, so make a copy.
	return bytes.Clone(buf.Bytes()), ttl, true
}

func (pg *pgcache) Set(ctx context.Context, key string, val []byte, ttl time.Duration) error {
	expires := time.Now().Add(ttl)

	buf := _buffers.Get()
	defer buf.Free()

	if err := compress(bytes.NewReader(val), buf); err != nil {
		Log(ctx).Error("problem compressing value", "err", err, "key", key)
		return err
	}

	_, err := pg.db.ExecContext(ctx,
		`INSERT INTO cache (key, value, expires) VALUES ($1, $2, $3) ON CONFLICT (key) DO UPDATE SET value = $2, expires = $3;`,
		key, buf.Bytes(), expires,
	)
	if err != nil {
		Log(ctx).Error("problem setting cache", "err", err)
	}
	return err
}

// Delete keeps data but marks it as expired.
func (pg *pgcache) Delete(ctx context.Context, key string) error {
	_, err := pg.db.ExecContext(ctx, `UPDATE cache SET expires = $1 WHERE key = $2;`, time.UnixMicro(0), key)
	return err
}

func compress(plaintext io.Reader, buf *buffer.Buffer) error {
	zw := gzip.NewWriter(buf)
	_, err := io.Copy(zw, plaintext)
	return errors.Join(err, zw.Close())
}

func decompress(ctx context.Context, compressed io.Reader, buf *buffer.Buffer) error {
	zr, err := gzip.NewReader(compressed)
	if err != nil && !errors.Is(err, io.EOF) {
		Log(ctx).Warn("problem unzipping", "err", err)
		return err
	}

	_, err = io.Copy(buf, zr)
	if err != nil && !errors.Is(err, io.EOF) {
		Log(ctx).Warn("problem decompressing", "err", err)
		return err
	}
	if err := zr.Close(); err != nil {
		Log(ctx).Warn("problem closing zip reader", "err", err)
	}

	return nil
}
