package team

import (
	"context"
	stderrors "errors"
	"fmt"

	"github.com/freelanceflow/freelanceflow-api/errors"
	"github.com/freelanceflow/freelanceflow-api/model"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

const (
	memberColumns = `id, email, name, role, project_ids`

	uniqueViolation = "23505"
	singleOwner     = "members_single_owner"
)

// PgStore is a PostgreSQL-backed team store.
type PgStore struct {
	pool *pgxpool.Pool
}

func NewPgStore(pool *pgxpool.Pool) *PgStore {
	return &PgStore{pool: pool}
}

// translate maps driver errors onto the store sentinels.
func translate(err error) error {
	if stderrors.Is(err, pgx.ErrNoRows) {
		return errors.ErrNotFound
	}

	var pgErr *pgconn.PgError
	if stderrors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
		if pgErr.ConstraintName == singleOwner {
			return ErrOwnerTaken
		}
		return errors.ErrExists
	}

	return err
}

func scanMember(row pgx.Row) (*model.TeamMember, error) {
	var m model.TeamMember
	if err := row.Scan(&m.ID, &m.Email, &m.Name, &m.Role, &m.ProjectIDs); err != nil {
		return nil, translate(err)
	}
	if m.ProjectIDs == nil {
		m.ProjectIDs = []string{}
	}
	return &m, nil
}

func (s *PgStore) CreateMember(ctx context.Context, m *model.TeamMember) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO members (`+memberColumns+`) VALUES ($1, $2, $3, $4, $5)`,
		m.ID, m.Email, m.Name, m.Role, m.ProjectIDs)
	if err != nil {
		return fmt.Errorf("create member: %w", translate(err))
	}
	return nil
}

func (s *PgStore) GetMember(ctx context.Context, id string) (*model.TeamMember, error) {
	m, err := scanMember(s.pool.QueryRow(ctx, `SELECT `+memberColumns+` FROM members WHERE id = $1`, id))
	if err != nil {
		return nil, fmt.Errorf("get member %s: %w", id, err)
	}
	return m, nil
}

func (s *PgStore) MutateMember(ctx context.Context, id string, fn func(m *model.TeamMember) error) (*model.TeamMember, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("mutate member %s: %w", id, err)
	}
	defer tx.Rollback(ctx)

	m, err := scanMember(tx.QueryRow(ctx, `SELECT `+memberColumns+` FROM members WHERE id = $1 FOR UPDATE`, id))
	if err != nil {
		return nil, fmt.Errorf("mutate member %s: %w", id, err)
	}

	if err := fn(m); err != nil {
		return nil, err
	}

	_, err = tx.Exec(ctx, `
		UPDATE members SET email = $1, name = $2, role = $3, project_ids = $4 WHERE id = $5`,
		m.Email, m.Name, m.Role, m.ProjectIDs, m.ID)
	if err != nil {
		return nil, fmt.Errorf("update member %s: %w", id, translate(err))
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit member %s: %w", id, err)
	}
	return m, nil
}

func (s *PgStore) DeleteMember(ctx context.Context, id string) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM members WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete member %s: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return errors.ErrNotFound
	}
	return nil
}

func (s *PgStore) ListMembers(ctx context.Context) ([]model.TeamMember, error) {
	rows, err := s.pool.Query(ctx, `SELECT `+memberColumns+` FROM members ORDER BY created_at ASC, id ASC`)
	if err != nil {
		return nil, fmt.Errorf("list members: %w", err)
	}
	defer rows.Close()

	members := make([]model.TeamMember, 0)
	for rows.Next() {
		m, err := scanMember(rows)
		if err != nil {
			return nil, fmt.Errorf("scan member: %w", err)
		}
		members = append(members, *m)
	}
	return members, rows.Err()
}

func (s *PgStore) CreateInvite(ctx context.Context, inv model.Invite) error {
	_, err := s.pool.Exec(ctx, `INSERT INTO invites (email, role) VALUES ($1, $2)`, inv.Email, inv.Role)
	if err != nil {
		return fmt.Errorf("create invite: %w", translate(err))
	}
	return nil
}

func (s *PgStore) DeleteInvite(ctx context.Context, email string) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM invites WHERE lower(email) = lower($1)`, email)
	if err != nil {
		return fmt.Errorf("delete invite: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return errors.ErrNotFound
	}
	return nil
}

func (s *PgStore) ListInvites(ctx context.Context) ([]model.Invite, error) {
	rows, err := s.pool.Query(ctx, `SELECT email, role FROM invites ORDER BY created_at ASC, email ASC`)
	if err != nil {
		return nil, fmt.Errorf("list invites: %w", err)
	}
	defer rows.Close()

	invites := make([]model.Invite, 0)
	for rows.Next() {
		var inv model.Invite
		if err := rows.Scan(&inv.Email, &inv.Role); err != nil {
			return nil, fmt.Errorf("scan invite: %w", err)
		}
		invites = append(invites, inv)
	}
	return invites, rows.Err()
}
