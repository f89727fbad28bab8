package invoices

import (
	"context"
	stderrors "errors"
	"fmt"

	"github.com/freelanceflow/freelanceflow-api/errors"
	"github.com/freelanceflow/freelanceflow-api/model"
	"github.com/freelanceflow/freelanceflow-api/money"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

const (
	invoiceColumns    = `id, client_id, project_ids, total_hours::text, total_cents, currency, status, created_at, due_date, sent_at, paid_at`
	automationColumns = `id, client_id, frequency, start_date, enabled, last_run_at, last_invoice_id, created_at`

	uniqueViolation = "23505"
)

// PgStore is a PostgreSQL-backed invoice store. Project coverage is kept in
// invoice_projects whose primary key rejects a second invoice for a project.
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
		return errors.ErrExists
	}

	return err
}

func scanInvoice(row pgx.Row) (*model.Invoice, error) {
	var (
		inv      model.Invoice
		hours    string
		cents    int64
		currency string
	)
	err := row.Scan(&inv.ID, &inv.ClientID, &inv.ProjectIDs, &hours, &cents, &currency, &inv.Status,
		&inv.CreatedAt, &inv.DueDate, &inv.SentAt, &inv.PaidAt)
	if err != nil {
		return nil, translate(err)
	}

	if inv.TotalHours, err = decimal.NewFromString(hours); err != nil {
		return nil, fmt.Errorf("parse hours of invoice %s: %w", inv.ID, err)
	}
	inv.Total = money.FromCents(cents, money.Currency(currency))
	return &inv, nil
}

func (s *PgStore) Create(ctx context.Context, inv *model.Invoice) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("create invoice: %w", err)
	}
	defer tx.Rollback(ctx)

	_, err = tx.Exec(ctx, `
		INSERT INTO invoices (id, client_id, project_ids, total_hours, total_cents, currency, status, created_at, due_date, sent_at, paid_at)
		VALUES ($1, $2, $3, $4::numeric, $5, $6, $7, $8, $9, $10, $11)`,
		inv.ID, inv.ClientID, inv.ProjectIDs, inv.TotalHours.String(), inv.Total.Cents(), string(inv.Total.Currency),
		string(inv.Status), inv.CreatedAt, inv.DueDate, inv.SentAt, inv.PaidAt)
	if err != nil {
		return fmt.Errorf("create invoice: %w", translate(err))
	}

	for _, pid := range inv.ProjectIDs {
		_, err = tx.Exec(ctx, `INSERT INTO invoice_projects (project_id, invoice_id) VALUES ($1, $2)`, pid, inv.ID)
		if err != nil {
			return fmt.Errorf("claim project %s: %w", pid, translate(err))
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit invoice %s: %w", inv.ID, err)
	}
	return nil
}

func (s *PgStore) Get(ctx context.Context, id string) (*model.Invoice, error) {
	inv, err := scanInvoice(s.pool.QueryRow(ctx, `SELECT `+invoiceColumns+` FROM invoices WHERE id = $1`, id))
	if err != nil {
		return nil, fmt.Errorf("get invoice %s: %w", id, err)
	}
	return inv, nil
}

func (s *PgStore) Mutate(ctx context.Context, id string, fn func(inv *model.Invoice) error) (*model.Invoice, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("mutate invoice %s: %w", id, err)
	}
	defer tx.Rollback(ctx)

	inv, err := scanInvoice(tx.QueryRow(ctx, `SELECT `+invoiceColumns+` FROM invoices WHERE id = $1 FOR UPDATE`, id))
	if err != nil {
		return nil, fmt.Errorf("mutate invoice %s: %w", id, err)
	}

	if err := fn(inv); err != nil {
		return nil, err
	}

	_, err = tx.Exec(ctx, `
		UPDATE invoices SET status = $1, sent_at = $2, paid_at = $3 WHERE id = $4`,
		string(inv.Status), inv.SentAt, inv.PaidAt, inv.ID)
	if err != nil {
		return nil, fmt.Errorf("update invoice %s: %w", id, err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit invoice %s: %w", id, err)
	}
	return inv, nil
}

func (s *PgStore) Delete(ctx context.Context, id string) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM invoices WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete invoice %s: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return errors.ErrNotFound
	}
	return nil
}

func (s *PgStore) List(ctx context.Context, filter ListFilter) ([]model.Invoice, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT `+invoiceColumns+` FROM invoices
		WHERE ($1 = '' OR client_id = $1) AND ($2 = '' OR status = $2)
		ORDER BY created_at ASC, id ASC`,
		filter.ClientID, string(filter.Status))
	if err != nil {
		return nil, fmt.Errorf("list invoices: %w", err)
	}
	defer rows.Close()

	invoices := make([]model.Invoice, 0)
	for rows.Next() {
		inv, err := scanInvoice(rows)
		if err != nil {
			return nil, fmt.Errorf("scan invoice: %w", err)
		}
		invoices = append(invoices, *inv)
	}
	return invoices, rows.Err()
}

func scanAutomation(row pgx.Row) (*model.Automation, error) {
	var a model.Automation
	var frequency string
	err := row.Scan(&a.ID, &a.ClientID, &frequency, &a.StartDate, &a.Enabled, &a.LastRunAt, &a.LastInvoiceID, &a.CreatedAt)
	if err != nil {
		return nil, translate(err)
	}
	a.Frequency = model.Frequency(frequency)
	return &a, nil
}

func (s *PgStore) CreateAutomation(ctx context.Context, a *model.Automation) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO automations (`+automationColumns+`) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		a.ID, a.ClientID, string(a.Frequency), a.StartDate, a.Enabled, a.LastRunAt, a.LastInvoiceID, a.CreatedAt)
	if err != nil {
		return fmt.Errorf("create automation: %w", translate(err))
	}
	return nil
}

func (s *PgStore) GetAutomation(ctx context.Context, id string) (*model.Automation, error) {
	a, err := scanAutomation(s.pool.QueryRow(ctx, `SELECT `+automationColumns+` FROM automations WHERE id = $1`, id))
	if err != nil {
		return nil, fmt.Errorf("get automation %s: %w", id, err)
	}
	return a, nil
}

func (s *PgStore) MutateAutomation(ctx context.Context, id string, fn func(a *model.Automation) error) (*model.Automation, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("mutate automation %s: %w", id, err)
	}
	defer tx.Rollback(ctx)

	a, err := scanAutomation(tx.QueryRow(ctx, `SELECT `+automationColumns+` FROM automations WHERE id = $1 FOR UPDATE`, id))
	if err != nil {
		return nil, fmt.Errorf("mutate automation %s: %w", id, err)
	}

	if err := fn(a); err != nil {
		return nil, err
	}

	_, err = tx.Exec(ctx, `
		UPDATE automations SET enabled = $1, last_run_at = $2, last_invoice_id = $3 WHERE id = $4`,
		a.Enabled, a.LastRunAt, a.LastInvoiceID, a.ID)
	if err != nil {
		return nil, fmt.Errorf("update automation %s: %w", id, err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit automation %s: %w", id, err)
	}
	return a, nil
}

func (s *PgStore) DeleteAutomation(ctx context.Context, id string) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM automations WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete automation %s: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return errors.ErrNotFound
	}
	return nil
}

func (s *PgStore) ListAutomations(ctx context.Context) ([]model.Automation, error) {
	rows, err := s.pool.Query(ctx, `SELECT `+automationColumns+` FROM automations ORDER BY created_at ASC, id ASC`)
	if err != nil {
		return nil, fmt.Errorf("list automations: %w", err)
	}
	defer rows.Close()

	automations := make([]model.Automation, 0)
	for rows.Next() {
		a, err := scanAutomation(rows)
		if err != nil {
			return nil, fmt.Errorf("scan automation: %w", err)
		}
		automations = append(automations, *a)
	}
	return automations, rows.Err()
}
