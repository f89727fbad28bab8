package invoices

import (
	"context"
	"strings"

	"encore.dev/rlog"
	"github.com/freelanceflow/freelanceflow-api/errors"
	"github.com/freelanceflow/freelanceflow-api/invoices/config"
	"github.com/freelanceflow/freelanceflow-api/invoices/workflow"
	"github.com/freelanceflow/freelanceflow-api/model"
	"github.com/freelanceflow/freelanceflow-api/validate"
	"github.com/google/uuid"
	"go.temporal.io/api/serviceerror"
	"go.temporal.io/sdk/client"
)

type AutomationParams struct {
	ClientID  string          `json:"client_id"`
	Frequency model.Frequency `json:"frequency"`
	StartDate string          `json:"start_date"`
}

type ListAutomationsResponse struct {
	Automations []model.Automation `json:"automations"`
}

func (p *AutomationParams) Validate() error {
	p.StartDate = strings.TrimSpace(p.StartDate)

	if err := validate.Required("client_id", p.ClientID); err != nil {
		return err
	}

	if p.Frequency.Months() == 0 {
		return errors.BadRequestError("frequency must be monthly, quarterly or yearly")
	}

	return validate.Date("start_date", p.StartDate)
}

// CreateAutomation schedules recurring invoices for a client.
//
//encore:api public method=POST path=/automations
func (s *Service) CreateAutomation(ctx context.Context, params *AutomationParams) (*model.Automation, error) {
	if err := params.Validate(); err != nil {
		return nil, err
	}

	if _, err := s.directory.GetClient(ctx, params.ClientID); err != nil {
		return nil, err
	}

	automation := &model.Automation{
		ID:        uuid.Must(uuid.NewV7()).String(),
		ClientID:  params.ClientID,
		Frequency: params.Frequency,
		StartDate: params.StartDate,
		Enabled:   true,
		CreatedAt: s.now(),
	}

	if err := s.store.CreateAutomation(ctx, automation); err != nil {
		return nil, errors.FromStore(err, "automation", "failed to create automation")
	}

	if err := s.startSchedule(ctx, automation); err != nil {
		if delErr := s.store.DeleteAutomation(ctx, automation.ID); delErr != nil {
			rlog.Error("failed to roll back automation", "automation_id", automation.ID, "error", delErr)
		}
		return nil, err
	}

	rlog.Info("created automation", "automation_id", automation.ID, "client_id", automation.ClientID, "frequency", automation.Frequency)
	return automation, nil
}

// ListAutomations lists recurring invoice schedules.
//
//encore:api public method=GET path=/automations
func (s *Service) ListAutomations(ctx context.Context) (*ListAutomationsResponse, error) {
	automations, err := s.store.ListAutomations(ctx)
	if err != nil {
		return nil, errors.SafeInternalError(err, "failed to list automations")
	}

	return &ListAutomationsResponse{Automations: automations}, nil
}

// EnableAutomation resumes a disabled schedule.
//
//encore:api public method=POST path=/automations/:id/enable
func (s *Service) EnableAutomation(ctx context.Context, id string) (*model.Automation, error) {
	var started bool

	automation, err := s.mutateAutomation(ctx, id, func(a *model.Automation) error {
		if a.Enabled {
			return nil
		}
		if err := s.startSchedule(ctx, a); err != nil {
			return err
		}
		a.Enabled = true
		started = true
		return nil
	})
	if err != nil {
		return nil, err
	}

	if started {
		rlog.Info("enabled automation", "automation_id", id)
	}
	return automation, nil
}

// DisableAutomation pauses a schedule until it is enabled again.
//
//encore:api public method=POST path=/automations/:id/disable
func (s *Service) DisableAutomation(ctx context.Context, id string) (*model.Automation, error) {
	return s.mutateAutomation(ctx, id, func(a *model.Automation) error {
		if !a.Enabled {
			return nil
		}
		if err := s.stopSchedule(ctx, a.ID, "automation disabled"); err != nil {
			return err
		}
		a.Enabled = false
		return nil
	})
}

// DeleteAutomation stops and removes a schedule. Invoices it generated stay.
//
//encore:api public method=DELETE path=/automations/:id
func (s *Service) DeleteAutomation(ctx context.Context, id string) error {
	automation, err := s.store.GetAutomation(ctx, id)
	if err != nil {
		return errors.FromStore(err, "automation", "failed to get automation")
	}

	if automation.Enabled {
		if err := s.stopSchedule(ctx, id, "automation deleted"); err != nil {
			return err
		}
	}

	if err := s.store.DeleteAutomation(ctx, id); err != nil {
		return errors.FromStore(err, "automation", "failed to delete automation")
	}

	rlog.Info("deleted automation", "automation_id", id)
	return nil
}

// GenerateRecurring invoices every eligible project of the automation's
// client. It returns an empty id when there was nothing to invoice.
func (s *Service) GenerateRecurring(ctx context.Context, automationID string) (string, error) {
	automation, err := s.store.GetAutomation(ctx, automationID)
	if err != nil {
		return "", errors.FromStore(err, "automation", "failed to get automation")
	}

	if !automation.Enabled {
		return "", nil
	}

	eligible, err := s.eligibleProjects(ctx, automation.ClientID)
	if err != nil {
		return "", err
	}

	var invoiceID string
	if len(eligible) > 0 {
		ids := make([]string, 0, len(eligible))
		for _, p := range eligible {
			ids = append(ids, p.ID)
		}

		invoice, err := s.generate(ctx, automation.ClientID, ids, config.DefaultCurrency)
		if err != nil {
			return "", err
		}
		invoiceID = invoice.ID
	}

	ranAt := s.now()
	_, err = s.mutateAutomation(ctx, automationID, func(a *model.Automation) error {
		a.LastRunAt = &ranAt
		if invoiceID != "" {
			a.LastInvoiceID = invoiceID
		}
		return nil
	})
	if err != nil {
		return "", err
	}

	return invoiceID, nil
}

func (s *Service) mutateAutomation(ctx context.Context, id string, fn func(a *model.Automation) error) (*model.Automation, error) {
	automation, err := s.store.MutateAutomation(ctx, id, fn)
	if err != nil {
		if errors.IsAPIError(err) {
			return nil, err
		}
		return nil, errors.FromStore(err, "automation", "failed to update automation")
	}

	return automation, nil
}

func (s *Service) startSchedule(ctx context.Context, automation *model.Automation) error {
	_, err := s.temporalClient.ExecuteWorkflow(
		ctx,
		client.StartWorkflowOptions{
			ID:        workflow.AutomationWorkflowID(automation.ID),
			TaskQueue: config.InvoiceTaskQueue,
		},
		workflow.RecurringInvoiceWorkflow,
		*automation,
	)
	if err != nil {
		return errors.SafeInternalError(err, "failed to start automation")
	}

	return nil
}

func (s *Service) stopSchedule(ctx context.Context, id, reason string) error {
	err := s.temporalClient.TerminateWorkflow(ctx, workflow.AutomationWorkflowID(id), "", reason)
	if err != nil {
		if _, ok := err.(*serviceerror.NotFound); !ok {
			return errors.SafeInternalError(err, "failed to stop automation")
		}
	}

	return nil
}
