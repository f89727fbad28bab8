// Package invoices derives invoices from project hours and drives each one
// through its lifecycle as a durable workflow.
package invoices

import (
	"context"
	"fmt"
	"sync"
	"time"

	"encore.dev/rlog"
	"encore.dev/storage/sqldb"
	"github.com/freelanceflow/freelanceflow-api/billing"
	"github.com/freelanceflow/freelanceflow-api/clients"
	"github.com/freelanceflow/freelanceflow-api/errors"
	"github.com/freelanceflow/freelanceflow-api/invoices/config"
	"github.com/freelanceflow/freelanceflow-api/invoices/workflow"
	"github.com/freelanceflow/freelanceflow-api/model"
	"github.com/freelanceflow/freelanceflow-api/money"
	"github.com/freelanceflow/freelanceflow-api/projects"
	"github.com/freelanceflow/freelanceflow-api/settings"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.temporal.io/api/serviceerror"
	"go.temporal.io/sdk/client"
	"go.temporal.io/sdk/temporal"
	temporalworker "go.temporal.io/sdk/worker"
)

var db = sqldb.NewDatabase("invoices", sqldb.DatabaseConfig{
	Migrations: "./migrations",
})

// directory resolves the records invoices are derived from.
type directory interface {
	GetClient(ctx context.Context, id string) (*model.Client, error)
	ListClients(ctx context.Context) ([]model.Client, error)
	// ListProjects lists the projects of clientID, or all of them when empty.
	ListProjects(ctx context.Context, clientID string) ([]model.Project, error)
	CompanyName(ctx context.Context) (string, error)
}

type services struct{}

func (services) GetClient(ctx context.Context, id string) (*model.Client, error) {
	return clients.GetClient(ctx, id)
}

func (services) ListClients(ctx context.Context) ([]model.Client, error) {
	resp, err := clients.ListClients(ctx)
	if err != nil {
		return nil, err
	}
	return resp.Clients, nil
}

func (services) ListProjects(ctx context.Context, clientID string) ([]model.Project, error) {
	resp, err := projects.ListProjects(ctx, &projects.ListProjectsParams{ClientID: clientID})
	if err != nil {
		return nil, err
	}
	return resp.Projects, nil
}

func (services) CompanyName(ctx context.Context) (string, error) {
	company, err := settings.GetCompanySettings(ctx)
	if err != nil {
		return "", err
	}
	return company.Name, nil
}

//encore:service
type Service struct {
	temporalClient client.Client
	worker         temporalworker.Worker
	store          Store
	directory      directory
	now            func() time.Time

	// generateMu serialises invoice generation within the process; the
	// store rejects a project claimed by another instance.
	generateMu sync.Mutex
}

func initService() (service *Service, err error) {
	temporalClient, err := client.NewLazyClient(client.Options{HostPort: config.TemporalServerURL})
	if err != nil {
		err = fmt.Errorf("failed to create Temporal client: %v", err)
		return
	}

	service = &Service{
		temporalClient: temporalClient,
		store:          NewPgStore(sqldb.Driver[*pgxpool.Pool](db)),
		directory:      services{},
		now:            func() time.Time { return time.Now().UTC() },
	}

	worker := temporalworker.New(temporalClient, config.InvoiceTaskQueue, temporalworker.Options{})

	worker.RegisterWorkflow(workflow.InvoiceWorkflow)
	worker.RegisterWorkflow(workflow.RecurringInvoiceWorkflow)
	worker.RegisterActivity(workflow.SendInvoiceEmail)
	worker.RegisterActivity(workflow.SendOverdueReminder)
	worker.RegisterActivity(&workflow.AutomationActivities{Invoicer: service})

	if err = worker.Start(); err != nil {
		err = fmt.Errorf("failed to start worker: %v", err)
		return
	}

	service.worker = worker

	return
}

func (s *Service) Shutdown(force context.Context) {
	s.temporalClient.Close()
	s.worker.Stop()
}

func workflowRetryPolicy() *temporal.RetryPolicy {
	return &temporal.RetryPolicy{
		InitialInterval:    time.Second,
		BackoffCoefficient: 2.0,
		MaximumInterval:    time.Minute,
		MaximumAttempts:    5,
	}
}

// GenerateInvoice creates a draft invoice covering the selected projects of a client.
//
//encore:api public method=POST path=/invoices
func (s *Service) GenerateInvoice(ctx context.Context, params *GenerateInvoiceParams) (*model.Invoice, error) {
	if err := params.Validate(); err != nil {
		return nil, err
	}

	return s.generate(ctx, params.ClientID, params.ProjectIDs, params.Currency)
}

func (s *Service) generate(ctx context.Context, clientID string, projectIDs []string, currency money.Currency) (*model.Invoice, error) {
	if _, err := s.directory.GetClient(ctx, clientID); err != nil {
		return nil, err
	}

	s.generateMu.Lock()
	defer s.generateMu.Unlock()

	eligible, err := s.eligibleProjects(ctx, clientID)
	if err != nil {
		return nil, err
	}

	eligibleIDs := make(map[string]struct{}, len(eligible))
	for _, p := range eligible {
		eligibleIDs[p.ID] = struct{}{}
	}

	for _, id := range projectIDs {
		if _, ok := eligibleIDs[id]; !ok {
			return nil, errors.BadRequestError(fmt.Sprintf("project %s is not eligible for invoicing", id))
		}
	}

	derived, err := billing.NewInvoice(uuid.New().String(), clientID, projectIDs, eligible, currency, s.now())
	if err != nil {
		return nil, errors.BadRequestError(err.Error())
	}

	if err := s.store.Create(ctx, &derived); err != nil {
		return nil, errors.FromStore(err, "invoice for a selected project", "failed to store invoice")
	}

	_, err = s.temporalClient.ExecuteWorkflow(
		ctx,
		client.StartWorkflowOptions{
			ID:          derived.ID,
			TaskQueue:   config.InvoiceTaskQueue,
			RetryPolicy: workflowRetryPolicy(),
		},
		workflow.InvoiceWorkflow,
		derived,
	)
	if err != nil {
		if delErr := s.store.Delete(ctx, derived.ID); delErr != nil {
			rlog.Error("failed to roll back invoice", "invoice_id", derived.ID, "error", delErr)
		}
		return nil, errors.SafeInternalError(err, "failed to start workflow")
	}

	rlog.Info("generated invoice",
		"invoice_id", derived.ID,
		"client_id", derived.ClientID,
		"projects", len(derived.ProjectIDs),
		"total", derived.Total.String(),
	)

	return s.withOverdue(&derived), nil
}

// EligibleProjects lists the projects of a client that can still be invoiced.
//
//encore:api public method=GET path=/eligible-projects
func (s *Service) EligibleProjects(ctx context.Context, params *EligibleProjectsParams) (*EligibleProjectsResponse, error) {
	if err := params.Validate(); err != nil {
		return nil, err
	}

	eligible, err := s.eligibleProjects(ctx, params.ClientID)
	if err != nil {
		return nil, err
	}

	return &EligibleProjectsResponse{Projects: eligible}, nil
}

// eligibleProjects checks the client's projects against every stored invoice,
// whichever client it was issued to.
func (s *Service) eligibleProjects(ctx context.Context, clientID string) ([]model.Project, error) {
	candidates, err := s.directory.ListProjects(ctx, clientID)
	if err != nil {
		return nil, err
	}

	existing, err := s.store.List(ctx, ListFilter{})
	if err != nil {
		return nil, errors.SafeInternalError(err, "failed to list invoices")
	}

	return billing.EligibleProjects(clientID, candidates, existing), nil
}

// SendInvoice emails an invoice to the client and marks it sent.
//
//encore:api public method=POST path=/invoices/:invoiceID/send
func (s *Service) SendInvoice(ctx context.Context, invoiceID string, params *SendInvoiceParams) (*model.Invoice, error) {
	invoice, err := s.getInvoice(ctx, invoiceID)
	if err != nil {
		return nil, err
	}

	if invoice.Paid() {
		return nil, errors.PreconditionError("invoice is already paid")
	}

	owner, err := s.directory.GetClient(ctx, invoice.ClientID)
	if err != nil {
		return nil, err
	}

	company, err := s.directory.CompanyName(ctx)
	if err != nil {
		return nil, err
	}

	if err := params.withDefaults(invoice, owner, company); err != nil {
		return nil, err
	}

	signal := workflow.SendInvoiceSignal{
		Recipient: params.Recipient,
		Subject:   params.Subject,
		Message:   params.Message,
		SentAt:    s.now(),
	}

	if err := s.temporalClient.SignalWorkflow(ctx, invoiceID, "", workflow.SignalSendInvoice, signal); err != nil {
		return nil, errors.SafeInternalError(err, "failed to send invoice")
	}

	return s.mutate(ctx, invoiceID, func(inv *model.Invoice) error {
		if inv.Paid() {
			return errors.PreconditionError("invoice is already paid")
		}
		inv.Status = model.InvoiceStatusSent
		inv.SentAt = &signal.SentAt
		return nil
	})
}

// PayInvoice marks an invoice as paid.
//
//encore:api public method=POST path=/invoices/:invoiceID/pay
func (s *Service) PayInvoice(ctx context.Context, invoiceID string) (*model.Invoice, error) {
	invoice, err := s.getInvoice(ctx, invoiceID)
	if err != nil {
		return nil, err
	}

	if invoice.Paid() {
		return nil, errors.PreconditionError("invoice is already paid")
	}

	signal := workflow.MarkPaidSignal{PaidAt: s.now()}

	if err := s.temporalClient.SignalWorkflow(ctx, invoiceID, "", workflow.SignalMarkPaid, signal); err != nil {
		return nil, errors.SafeInternalError(err, "failed to mark invoice paid")
	}

	return s.mutate(ctx, invoiceID, func(inv *model.Invoice) error {
		inv.Status = model.InvoiceStatusPaid
		inv.PaidAt = &signal.PaidAt
		return nil
	})
}

// DeleteInvoice discards an invoice. Its projects become eligible again.
//
//encore:api public method=DELETE path=/invoices/:invoiceID
func (s *Service) DeleteInvoice(ctx context.Context, invoiceID string) error {
	if _, err := s.getInvoice(ctx, invoiceID); err != nil {
		return err
	}

	s.generateMu.Lock()
	defer s.generateMu.Unlock()

	err := s.temporalClient.TerminateWorkflow(ctx, invoiceID, "", "invoice deleted")
	if err != nil {
		// paid invoices have no running workflow
		if _, ok := err.(*serviceerror.NotFound); !ok {
			return errors.SafeInternalError(err, "failed to delete invoice")
		}
	}

	if err := s.store.Delete(ctx, invoiceID); err != nil {
		return errors.FromStore(err, "invoice", "failed to delete invoice")
	}

	rlog.Info("deleted invoice", "invoice_id", invoiceID)
	return nil
}

// GetInvoice retrieves an invoice by ID.
//
//encore:api public method=GET path=/invoices/:invoiceID
func (s *Service) GetInvoice(ctx context.Context, invoiceID string) (*model.Invoice, error) {
	return s.getInvoice(ctx, invoiceID)
}

func (s *Service) getInvoice(ctx context.Context, invoiceID string) (*model.Invoice, error) {
	invoice, err := s.store.Get(ctx, invoiceID)
	if err != nil {
		return nil, errors.FromStore(err, "invoice", "failed to get invoice")
	}

	return s.withOverdue(invoice), nil
}

func (s *Service) mutate(ctx context.Context, invoiceID string, fn func(inv *model.Invoice) error) (*model.Invoice, error) {
	invoice, err := s.store.Mutate(ctx, invoiceID, fn)
	if err != nil {
		if errors.IsAPIError(err) {
			return nil, err
		}
		return nil, errors.FromStore(err, "invoice", "failed to update invoice")
	}

	return s.withOverdue(invoice), nil
}

// withOverdue sets the overdue flag against the current time.
func (s *Service) withOverdue(inv *model.Invoice) *model.Invoice {
	inv.Overdue = inv.IsOverdue(s.now())
	return inv
}

// ListInvoices lists invoices, optionally filtered by client and status.
//
//encore:api public method=GET path=/invoices
func (s *Service) ListInvoices(ctx context.Context, params *ListInvoicesParams) (*ListInvoicesResponse, error) {
	if err := params.Validate(); err != nil {
		return nil, err
	}

	invoices, err := s.listInvoices(ctx, ListFilter{ClientID: params.ClientID, Status: model.InvoiceStatus(params.Status)})
	if err != nil {
		return nil, err
	}

	response := &ListInvoicesResponse{Invoices: make([]*model.Invoice, 0, len(invoices))}
	for i := range invoices {
		response.Invoices = append(response.Invoices, &invoices[i])
	}

	return response, nil
}

func (s *Service) listInvoices(ctx context.Context, filter ListFilter) ([]model.Invoice, error) {
	invoices, err := s.store.List(ctx, filter)
	if err != nil {
		return nil, errors.SafeInternalError(err, "failed to list invoices")
	}

	for i := range invoices {
		s.withOverdue(&invoices[i])
	}

	return invoices, nil
}
