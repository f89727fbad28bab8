package projects

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"

	"github.com/freelanceflow/freelanceflow-api/errors"
	"github.com/freelanceflow/freelanceflow-api/model"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const projectColumns = `id, client_id, name, description, tasks, expenses, team_members, created_by, last_modified_by, created_at`

// PgStore is a PostgreSQL-backed project store. Tasks and expenses live in
// JSONB columns of the project row.
type PgStore struct {
	pool *pgxpool.Pool
}

func NewPgStore(pool *pgxpool.Pool) *PgStore {
	return &PgStore{pool: pool}
}

func (s *PgStore) Create(ctx context.Context, p *model.Project) error {
	tasksJSON, expensesJSON, err := marshalChildren(p)
	if err != nil {
		return err
	}

	_, err = s.pool.Exec(ctx, `
		INSERT INTO projects (`+projectColumns+`)
		VALUES ($1, $2, $3, $4, $5::jsonb, $6::jsonb, $7, $8, $9, $10)`,
		p.ID, p.ClientID, p.Name, p.Description, tasksJSON, expensesJSON, p.TeamMembers, p.CreatedBy, p.LastModifiedBy, p.CreatedAt)
	if err != nil {
		return fmt.Errorf("create project: %w", err)
	}
	return nil
}

func (s *PgStore) Get(ctx context.Context, id string) (*model.Project, error) {
	p, err := scanProject(s.pool.QueryRow(ctx, `SELECT `+projectColumns+` FROM projects WHERE id = $1`, id))
	if err != nil {
		return nil, fmt.Errorf("get project %s: %w", id, err)
	}
	return p, nil
}

func (s *PgStore) List(ctx context.Context, clientID string) ([]model.Project, error) {
	var (
		rows pgx.Rows
		err  error
	)
	if clientID != "" {
		rows, err = s.pool.Query(ctx, `SELECT `+projectColumns+` FROM projects
			WHERE client_id = $1 ORDER BY created_at ASC, id ASC`, clientID)
	} else {
		rows, err = s.pool.Query(ctx, `SELECT `+projectColumns+` FROM projects ORDER BY created_at ASC, id ASC`)
	}
	if err != nil {
		return nil, fmt.Errorf("list projects: %w", err)
	}
	defer rows.Close()

	projects := make([]model.Project, 0)
	for rows.Next() {
		p, err := scanProject(rows)
		if err != nil {
			return nil, fmt.Errorf("list projects: %w", err)
		}
		projects = append(projects, *p)
	}
	return projects, rows.Err()
}

func (s *PgStore) Mutate(ctx context.Context, id string, fn func(p *model.Project) error) (*model.Project, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("mutate project %s: %w", id, err)
	}
	defer tx.Rollback(ctx)

	p, err := scanProject(tx.QueryRow(ctx, `SELECT `+projectColumns+` FROM projects WHERE id = $1 FOR UPDATE`, id))
	if err != nil {
		return nil, fmt.Errorf("mutate project %s: %w", id, err)
	}

	if err := fn(p); err != nil {
		return nil, err
	}

	tasksJSON, expensesJSON, err := marshalChildren(p)
	if err != nil {
		return nil, err
	}

	_, err = tx.Exec(ctx, `
		UPDATE projects SET client_id = $1, name = $2, description = $3, tasks = $4::jsonb,
			expenses = $5::jsonb, team_members = $6, last_modified_by = $7
		WHERE id = $8`,
		p.ClientID, p.Name, p.Description, tasksJSON, expensesJSON, p.TeamMembers, p.LastModifiedBy, p.ID)
	if err != nil {
		return nil, fmt.Errorf("update project %s: %w", id, err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit project %s: %w", id, err)
	}
	return p, nil
}

func (s *PgStore) Delete(ctx context.Context, id string) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM projects WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete project %s: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return errors.ErrNotFound
	}
	return nil
}

func marshalChildren(p *model.Project) (string, string, error) {
	tasksJSON, err := json.Marshal(p.Tasks)
	if err != nil {
		return "", "", fmt.Errorf("marshal tasks: %w", err)
	}
	expensesJSON, err := json.Marshal(p.Expenses)
	if err != nil {
		return "", "", fmt.Errorf("marshal expenses: %w", err)
	}
	return string(tasksJSON), string(expensesJSON), nil
}

func scanProject(row pgx.Row) (*model.Project, error) {
	var p model.Project
	var tasksJSON, expensesJSON []byte
	err := row.Scan(&p.ID, &p.ClientID, &p.Name, &p.Description, &tasksJSON, &expensesJSON,
		&p.TeamMembers, &p.CreatedBy, &p.LastModifiedBy, &p.CreatedAt)
	if stderrors.Is(err, pgx.ErrNoRows) {
		return nil, errors.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(tasksJSON, &p.Tasks); err != nil {
		return nil, fmt.Errorf("unmarshal tasks: %w", err)
	}
	if err := json.Unmarshal(expensesJSON, &p.Expenses); err != nil {
		return nil, fmt.Errorf("unmarshal expenses: %w", err)
	}
	return &p, nil
}
