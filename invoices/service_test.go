package invoices

import (
	"context"
	"testing"
	"time"

	"encore.dev/beta/errs"
	"github.com/freelanceflow/freelanceflow-api/errors"
	"github.com/freelanceflow/freelanceflow-api/invoices/workflow"
	"github.com/freelanceflow/freelanceflow-api/model"
	"github.com/freelanceflow/freelanceflow-api/money"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/suite"
	"go.temporal.io/api/serviceerror"
	"go.temporal.io/sdk/mocks"
)

type fakeDirectory struct {
	clients  map[string]*model.Client
	projects []model.Project
}

func (d *fakeDirectory) GetClient(_ context.Context, id string) (*model.Client, error) {
	c, ok := d.clients[id]
	if !ok {
		return nil, errors.NotFoundError(nil, "client")
	}
	return c, nil
}

func (d *fakeDirectory) ListClients(_ context.Context) ([]model.Client, error) {
	out := make([]model.Client, 0, len(d.clients))
	for _, c := range d.clients {
		out = append(out, *c)
	}
	return out, nil
}

func (d *fakeDirectory) ListProjects(_ context.Context, clientID string) ([]model.Project, error) {
	out := make([]model.Project, 0, len(d.projects))
	for _, p := range d.projects {
		if clientID == "" || p.ClientID == clientID {
			out = append(out, p)
		}
	}
	return out, nil
}

func (d *fakeDirectory) CompanyName(_ context.Context) (string, error) {
	return "Studio", nil
}

func (d *fakeDirectory) move(projectID, clientID string) {
	for i := range d.projects {
		if d.projects[i].ID == projectID {
			d.projects[i].ClientID = clientID
		}
	}
}

func project(id, clientID string, hours ...int64) model.Project {
	p := model.Project{ID: id, ClientID: clientID, Name: id}
	for _, h := range hours {
		p.Tasks = append(p.Tasks, model.Task{ID: id + "-task", Hours: decimal.NewFromInt(h)})
	}
	return p
}

type ServiceTestSuite struct {
	suite.Suite

	ctx       context.Context
	temporal  *mocks.Client
	directory *fakeDirectory
	service   *Service
	now       time.Time
}

func TestServiceTestSuite(t *testing.T) {
	suite.Run(t, new(ServiceTestSuite))
}

func (s *ServiceTestSuite) SetupTest() {
	s.ctx = context.Background()
	s.now = time.Date(2026, 5, 4, 9, 0, 0, 0, time.UTC)

	s.temporal = new(mocks.Client)
	s.temporal.On("ExecuteWorkflow", mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return(&mocks.WorkflowRun{}, nil).Maybe()
	s.temporal.On("SignalWorkflow", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return(nil).Maybe()
	s.temporal.On("TerminateWorkflow", mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return(nil).Maybe()

	s.directory = &fakeDirectory{
		clients: map[string]*model.Client{
			"acme":   {ID: "acme", Name: "Acme", Email: "billing@acme.test"},
			"globex": {ID: "globex", Name: "Globex", Email: "ap@globex.test"},
		},
		projects: []model.Project{
			project("website", "acme", 10),
			project("logo", "acme", 2, 3),
			project("empty", "acme"),
			project("portal", "globex", 4),
		},
	}

	s.service = &Service{
		temporalClient: s.temporal,
		store:          NewMemStore(),
		directory:      s.directory,
		now:            func() time.Time { return s.now },
	}
}

func (s *ServiceTestSuite) generate(clientID string, projectIDs ...string) *model.Invoice {
	inv, err := s.service.GenerateInvoice(s.ctx, &GenerateInvoiceParams{ClientID: clientID, ProjectIDs: projectIDs})
	s.Require().NoError(err)
	return inv
}

func (s *ServiceTestSuite) eligibleIDs(clientID string) []string {
	resp, err := s.service.EligibleProjects(s.ctx, &EligibleProjectsParams{ClientID: clientID})
	s.Require().NoError(err)

	ids := make([]string, 0, len(resp.Projects))
	for _, p := range resp.Projects {
		ids = append(ids, p.ID)
	}
	return ids
}

func (s *ServiceTestSuite) Test_GenerateInvoice() {
	inv := s.generate("acme", "website", "logo")

	s.NotEmpty(inv.ID)
	s.Equal(model.InvoiceStatusDraft, inv.Status)
	s.True(decimal.NewFromInt(15).Equal(inv.TotalHours))
	s.Equal(money.USD, inv.Total.Currency)
	s.Equal(int64(1500), inv.Total.Cents())
	s.Equal(s.now, inv.CreatedAt)
	s.False(inv.Overdue)

	stored, err := s.service.GetInvoice(s.ctx, inv.ID)
	s.Require().NoError(err)
	s.Equal(inv.ProjectIDs, stored.ProjectIDs)

	s.temporal.AssertCalled(s.T(), "ExecuteWorkflow", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	s.Empty(s.eligibleIDs("acme"))
}

func (s *ServiceTestSuite) Test_GenerateInvoice_RejectsIneligibleProjects() {
	_, err := s.service.GenerateInvoice(s.ctx, &GenerateInvoiceParams{ClientID: "acme", ProjectIDs: []string{"empty"}})
	s.Equal(errs.InvalidArgument, errs.Code(err))

	_, err = s.service.GenerateInvoice(s.ctx, &GenerateInvoiceParams{ClientID: "acme", ProjectIDs: []string{"portal"}})
	s.Equal(errs.InvalidArgument, errs.Code(err))

	s.generate("acme", "website")

	_, err = s.service.GenerateInvoice(s.ctx, &GenerateInvoiceParams{ClientID: "acme", ProjectIDs: []string{"website"}})
	s.Equal(errs.InvalidArgument, errs.Code(err))
}

func (s *ServiceTestSuite) Test_GenerateInvoice_RejectsEmptySelection() {
	_, err := s.service.GenerateInvoice(s.ctx, &GenerateInvoiceParams{ClientID: "acme"})
	s.Equal(errs.InvalidArgument, errs.Code(err))

	s.temporal.AssertNotCalled(s.T(), "ExecuteWorkflow", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func (s *ServiceTestSuite) Test_GenerateInvoice_UnknownClient() {
	_, err := s.service.GenerateInvoice(s.ctx, &GenerateInvoiceParams{ClientID: "initech", ProjectIDs: []string{"website"}})
	s.Equal(errs.NotFound, errs.Code(err))
}

func (s *ServiceTestSuite) Test_GenerateInvoice_ProjectMovedToAnotherClient() {
	s.generate("acme", "website")

	s.directory.move("website", "globex")

	s.ElementsMatch([]string{"portal"}, s.eligibleIDs("globex"))

	_, err := s.service.GenerateInvoice(s.ctx, &GenerateInvoiceParams{ClientID: "globex", ProjectIDs: []string{"website"}})
	s.Equal(errs.InvalidArgument, errs.Code(err))

	globex, err := s.service.ListInvoices(s.ctx, &ListInvoicesParams{ClientID: "globex"})
	s.Require().NoError(err)
	s.Empty(globex.Invoices)
}

func (s *ServiceTestSuite) Test_GenerateInvoice_RollsBackWhenWorkflowFails() {
	s.temporal = new(mocks.Client)
	s.temporal.On("ExecuteWorkflow", mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return(nil, serviceerror.NewUnavailable("temporal down"))
	s.service.temporalClient = s.temporal

	_, err := s.service.GenerateInvoice(s.ctx, &GenerateInvoiceParams{ClientID: "acme", ProjectIDs: []string{"website"}})
	s.Equal(errs.Internal, errs.Code(err))

	all, err := s.service.ListInvoices(s.ctx, &ListInvoicesParams{})
	s.Require().NoError(err)
	s.Empty(all.Invoices)
	s.Contains(s.eligibleIDs("acme"), "website")
}

func (s *ServiceTestSuite) Test_SendInvoice() {
	inv := s.generate("acme", "website")

	sent, err := s.service.SendInvoice(s.ctx, inv.ID, &SendInvoiceParams{})
	s.Require().NoError(err)
	s.Equal(model.InvoiceStatusSent, sent.Status)
	s.Require().NotNil(sent.SentAt)
	s.Equal(s.now, *sent.SentAt)

	s.temporal.AssertCalled(s.T(), "SignalWorkflow", mock.Anything, inv.ID, "", workflow.SignalSendInvoice,
		mock.MatchedBy(func(sig workflow.SendInvoiceSignal) bool {
			return sig.Recipient == "billing@acme.test" && sig.Subject == "Invoice "+inv.ID+" from Studio"
		}))
}

func (s *ServiceTestSuite) Test_PaidInvoiceIsFinal() {
	inv := s.generate("acme", "website")

	paid, err := s.service.PayInvoice(s.ctx, inv.ID)
	s.Require().NoError(err)
	s.Equal(model.InvoiceStatusPaid, paid.Status)
	s.Require().NotNil(paid.PaidAt)

	_, err = s.service.PayInvoice(s.ctx, inv.ID)
	s.Equal(errs.FailedPrecondition, errs.Code(err))

	_, err = s.service.SendInvoice(s.ctx, inv.ID, &SendInvoiceParams{})
	s.Equal(errs.FailedPrecondition, errs.Code(err))

	s.temporal.AssertNumberOfCalls(s.T(), "SignalWorkflow", 1)
}

func (s *ServiceTestSuite) Test_PaidInvoiceIsNotOverdue() {
	inv := s.generate("acme", "website")

	s.now = inv.DueDate.Add(24 * time.Hour)

	overdue, err := s.service.GetInvoice(s.ctx, inv.ID)
	s.Require().NoError(err)
	s.True(overdue.Overdue)

	paid, err := s.service.PayInvoice(s.ctx, inv.ID)
	s.Require().NoError(err)
	s.False(paid.Overdue)
}

func (s *ServiceTestSuite) Test_DeleteInvoice_ReleasesProjects() {
	inv := s.generate("acme", "website", "logo")
	s.Empty(s.eligibleIDs("acme"))

	s.Require().NoError(s.service.DeleteInvoice(s.ctx, inv.ID))
	s.temporal.AssertCalled(s.T(), "TerminateWorkflow", mock.Anything, inv.ID, "", mock.Anything)

	s.ElementsMatch([]string{"website", "logo"}, s.eligibleIDs("acme"))

	_, err := s.service.GetInvoice(s.ctx, inv.ID)
	s.Equal(errs.NotFound, errs.Code(err))

	s.generate("acme", "website")
}

func (s *ServiceTestSuite) Test_DeleteInvoice_WorkflowAlreadyGone() {
	inv := s.generate("acme", "website")

	s.temporal = new(mocks.Client)
	s.temporal.On("TerminateWorkflow", mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return(serviceerror.NewNotFound("workflow not found"))
	s.service.temporalClient = s.temporal

	s.Require().NoError(s.service.DeleteInvoice(s.ctx, inv.ID))
	s.Contains(s.eligibleIDs("acme"), "website")
}

func (s *ServiceTestSuite) Test_ListInvoices_Filters() {
	draft := s.generate("acme", "website")
	s.now = s.now.Add(time.Hour)
	paid := s.generate("acme", "logo")
	s.now = s.now.Add(time.Hour)
	other := s.generate("globex", "portal")

	_, err := s.service.PayInvoice(s.ctx, paid.ID)
	s.Require().NoError(err)

	all, err := s.service.ListInvoices(s.ctx, &ListInvoicesParams{})
	s.Require().NoError(err)
	s.Equal([]string{draft.ID, paid.ID, other.ID}, invoiceIDs(all.Invoices))

	drafts, err := s.service.ListInvoices(s.ctx, &ListInvoicesParams{Status: "draft"})
	s.Require().NoError(err)
	s.Equal([]string{draft.ID, other.ID}, invoiceIDs(drafts.Invoices))

	acmePaid, err := s.service.ListInvoices(s.ctx, &ListInvoicesParams{ClientID: "acme", Status: "paid"})
	s.Require().NoError(err)
	s.Equal([]string{paid.ID}, invoiceIDs(acmePaid.Invoices))

	_, err = s.service.ListInvoices(s.ctx, &ListInvoicesParams{Status: "void"})
	s.Equal(errs.InvalidArgument, errs.Code(err))
}

func invoiceIDs(invoices []*model.Invoice) []string {
	ids := make([]string, 0, len(invoices))
	for _, inv := range invoices {
		ids = append(ids, inv.ID)
	}
	return ids
}

func (s *ServiceTestSuite) Test_Automations() {
	automation, err := s.service.CreateAutomation(s.ctx, &AutomationParams{
		ClientID:  "acme",
		Frequency: model.FrequencyMonthly,
		StartDate: "2026-05-01",
	})
	s.Require().NoError(err)
	s.True(automation.Enabled)

	s.temporal.AssertCalled(s.T(), "ExecuteWorkflow", mock.Anything, mock.Anything, mock.Anything, *automation)

	disabled, err := s.service.DisableAutomation(s.ctx, automation.ID)
	s.Require().NoError(err)
	s.False(disabled.Enabled)
	s.temporal.AssertCalled(s.T(), "TerminateWorkflow", mock.Anything, workflow.AutomationWorkflowID(automation.ID), "", mock.Anything)

	enabled, err := s.service.EnableAutomation(s.ctx, automation.ID)
	s.Require().NoError(err)
	s.True(enabled.Enabled)
	s.temporal.AssertNumberOfCalls(s.T(), "ExecuteWorkflow", 2)

	list, err := s.service.ListAutomations(s.ctx)
	s.Require().NoError(err)
	s.Len(list.Automations, 1)

	s.Require().NoError(s.service.DeleteAutomation(s.ctx, automation.ID))

	list, err = s.service.ListAutomations(s.ctx)
	s.Require().NoError(err)
	s.Empty(list.Automations)
}

func (s *ServiceTestSuite) Test_CreateAutomation_Validates() {
	_, err := s.service.CreateAutomation(s.ctx, &AutomationParams{ClientID: "acme", Frequency: "weekly", StartDate: "2026-05-01"})
	s.Equal(errs.InvalidArgument, errs.Code(err))

	_, err = s.service.CreateAutomation(s.ctx, &AutomationParams{ClientID: "acme", Frequency: model.FrequencyYearly, StartDate: "May 1"})
	s.Equal(errs.InvalidArgument, errs.Code(err))

	_, err = s.service.CreateAutomation(s.ctx, &AutomationParams{ClientID: "initech", Frequency: model.FrequencyYearly, StartDate: "2026-05-01"})
	s.Equal(errs.NotFound, errs.Code(err))
}

func (s *ServiceTestSuite) Test_GenerateRecurring() {
	automation, err := s.service.CreateAutomation(s.ctx, &AutomationParams{
		ClientID:  "acme",
		Frequency: model.FrequencyQuarterly,
		StartDate: "2026-01-01",
	})
	s.Require().NoError(err)

	invoiceID, err := s.service.GenerateRecurring(s.ctx, automation.ID)
	s.Require().NoError(err)
	s.Require().NotEmpty(invoiceID)

	inv, err := s.service.GetInvoice(s.ctx, invoiceID)
	s.Require().NoError(err)
	s.ElementsMatch([]string{"website", "logo"}, inv.ProjectIDs)

	// nothing left to bill
	invoiceID, err = s.service.GenerateRecurring(s.ctx, automation.ID)
	s.Require().NoError(err)
	s.Empty(invoiceID)

	list, err := s.service.ListAutomations(s.ctx)
	s.Require().NoError(err)
	s.Require().Len(list.Automations, 1)
	s.Equal(inv.ID, list.Automations[0].LastInvoiceID)
	s.Require().NotNil(list.Automations[0].LastRunAt)
	s.Equal(s.now, *list.Automations[0].LastRunAt)
}

func (s *ServiceTestSuite) Test_GenerateRecurring_Disabled() {
	automation, err := s.service.CreateAutomation(s.ctx, &AutomationParams{
		ClientID:  "acme",
		Frequency: model.FrequencyMonthly,
		StartDate: "2026-01-01",
	})
	s.Require().NoError(err)

	_, err = s.service.DisableAutomation(s.ctx, automation.ID)
	s.Require().NoError(err)

	invoiceID, err := s.service.GenerateRecurring(s.ctx, automation.ID)
	s.Require().NoError(err)
	s.Empty(invoiceID)
	s.Len(s.eligibleIDs("acme"), 2)
}
