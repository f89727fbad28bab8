package clients

import (
	"context"
	stderrors "errors"
	"fmt"

	"github.com/freelanceflow/freelanceflow-api/errors"
	"github.com/freelanceflow/freelanceflow-api/model"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PgStore is a PostgreSQL-backed client store.
type PgStore struct {
	pool *pgxpool.Pool
}

func NewPgStore(pool *pgxpool.Pool) *PgStore {
	return &PgStore{pool: pool}
}

func (s *PgStore) Create(ctx context.Context, c *model.Client) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO clients (id, name, email, created_at)
		VALUES ($1, $2, $3, $4)`,
		c.ID, c.Name, c.Email, c.CreatedAt)
	if err != nil {
		return fmt.Errorf("create client: %w", err)
	}
	return nil
}

func (s *PgStore) Get(ctx context.Context, id string) (*model.Client, error) {
	var c model.Client
	err := s.pool.QueryRow(ctx, `
		SELECT id, name, email, created_at FROM clients WHERE id = $1`, id).
		Scan(&c.ID, &c.Name, &c.Email, &c.CreatedAt)
	if stderrors.Is(err, pgx.ErrNoRows) {
		return nil, errors.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get client %s: %w", id, err)
	}
	return &c, nil
}

func (s *PgStore) Update(ctx context.Context, c *model.Client) error {
	err := s.pool.QueryRow(ctx, `
		UPDATE clients SET name = $1, email = $2 WHERE id = $3
		RETURNING created_at`,
		c.Name, c.Email, c.ID).Scan(&c.CreatedAt)
	if stderrors.Is(err, pgx.ErrNoRows) {
		return errors.ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("update client %s: %w", c.ID, err)
	}
	return nil
}

func (s *PgStore) Delete(ctx context.Context, id string) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM clients WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete client %s: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return errors.ErrNotFound
	}
	return nil
}

func (s *PgStore) List(ctx context.Context) ([]model.Client, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, name, email, created_at FROM clients ORDER BY created_at ASC, id ASC`)
	if err != nil {
		return nil, fmt.Errorf("list clients: %w", err)
	}
	defer rows.Close()

	clients := make([]model.Client, 0)
	for rows.Next() {
		var c model.Client
		if err := rows.Scan(&c.ID, &c.Name, &c.Email, &c.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan client: %w", err)
		}
		clients = append(clients, c)
	}
	return clients, rows.Err()
}
