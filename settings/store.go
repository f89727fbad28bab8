package settings

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"sync"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Store keeps opaque JSON documents under string keys.
type Store interface {
	// Load decodes the document stored under key into v. It reports false when
	// nothing is stored and leaves v untouched.
	Load(ctx context.Context, key string, v any) (bool, error)
	// Mutate decodes the document under key into v, runs fn and stores v,
	// holding the document locked throughout. v keeps its initial value when
	// nothing is stored. Nothing is written if fn fails.
	Mutate(ctx context.Context, key string, v any, fn func() error) error
}

type MemStore struct {
	mu   sync.Mutex
	docs map[string][]byte
}

func NewMemStore() *MemStore {
	return &MemStore{docs: make(map[string][]byte)}
}

func (s *MemStore) Load(_ context.Context, key string, v any) (bool, error) {
	s.mu.Lock()
	data, ok := s.docs[key]
	s.mu.Unlock()

	if !ok {
		return false, nil
	}

	if err := json.Unmarshal(data, v); err != nil {
		return false, fmt.Errorf("decode %s: %w", key, err)
	}
	return true, nil
}

func (s *MemStore) Mutate(_ context.Context, key string, v any, fn func() error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if data, ok := s.docs[key]; ok {
		if err := json.Unmarshal(data, v); err != nil {
			return fmt.Errorf("decode %s: %w", key, err)
		}
	}

	if err := fn(); err != nil {
		return err
	}

	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode %s: %w", key, err)
	}

	s.docs[key] = data
	return nil
}

// PgStore is a PostgreSQL-backed settings store.
type PgStore struct {
	pool *pgxpool.Pool
}

func NewPgStore(pool *pgxpool.Pool) *PgStore {
	return &PgStore{pool: pool}
}

func (s *PgStore) Load(ctx context.Context, key string, v any) (bool, error) {
	var data []byte
	err := s.pool.QueryRow(ctx, `SELECT value FROM settings WHERE key = $1`, key).Scan(&data)
	if stderrors.Is(err, pgx.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("load %s: %w", key, err)
	}

	if err := json.Unmarshal(data, v); err != nil {
		return false, fmt.Errorf("decode %s: %w", key, err)
	}
	return true, nil
}

func (s *PgStore) Mutate(ctx context.Context, key string, v any, fn func() error) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("mutate %s: %w", key, err)
	}
	defer tx.Rollback(ctx)

	// a placeholder row gives the first writer something to lock
	_, err = tx.Exec(ctx, `
		INSERT INTO settings (key, value) VALUES ($1, 'null'::jsonb)
		ON CONFLICT (key) DO NOTHING`, key)
	if err != nil {
		return fmt.Errorf("mutate %s: %w", key, err)
	}

	var data []byte
	err = tx.QueryRow(ctx, `SELECT value FROM settings WHERE key = $1 FOR UPDATE`, key).Scan(&data)
	if err != nil {
		return fmt.Errorf("lock %s: %w", key, err)
	}

	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("decode %s: %w", key, err)
	}

	if err := fn(); err != nil {
		return err
	}

	data, err = json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode %s: %w", key, err)
	}

	_, err = tx.Exec(ctx, `UPDATE settings SET value = $2::jsonb, updated_at = NOW() WHERE key = $1`, key, string(data))
	if err != nil {
		return fmt.Errorf("save %s: %w", key, err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit %s: %w", key, err)
	}
	return nil
}
