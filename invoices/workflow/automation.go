package workflow

import (
	"context"
	"fmt"
	"time"

	"github.com/freelanceflow/freelanceflow-api/model"
	"go.temporal.io/sdk/activity"
	"go.temporal.io/sdk/workflow"
)

// AutomationWorkflowID is the workflow id of the schedule of automation id.
func AutomationWorkflowID(id string) string {
	return "automation-" + id
}

// RecurringInvoiceWorkflow sleeps until the next period boundary of the
// automation, invoices the client's eligible projects and continues as new
// for the following period.
func RecurringInvoiceWorkflow(ctx workflow.Context, automation model.Automation) error {
	logger := workflow.GetLogger(ctx)

	months := automation.Frequency.Months()
	if months == 0 {
		return fmt.Errorf("automation %s: unknown frequency %q", automation.ID, automation.Frequency)
	}

	start, err := time.Parse(time.DateOnly, automation.StartDate)
	if err != nil {
		return fmt.Errorf("automation %s: %w", automation.ID, err)
	}

	wait := untilNextPeriod(start, months, workflow.Now(ctx).UTC())
	logger.Info("waiting for next period", "automation_id", automation.ID, "wait", wait)

	if err := workflow.Sleep(ctx, wait); err != nil {
		return err
	}

	var activities *AutomationActivities
	var invoiceID string

	activityCtx := activityContext(ctx)
	err = workflow.ExecuteActivity(activityCtx, activities.GenerateRecurringInvoice, automation.ID).Get(activityCtx, &invoiceID)
	if err != nil {
		logger.Error("Failed to generate recurring invoice",
			"automation_id", automation.ID,
			"client_id", automation.ClientID,
			"error", err)
	} else {
		logger.Info("recurring invoice run", "automation_id", automation.ID, "invoice_id", invoiceID)
	}

	return workflow.NewContinueAsNewError(ctx, RecurringInvoiceWorkflow, automation)
}

// RecurringInvoicer generates the invoice of one automation run. It returns
// an empty id when the client had nothing to invoice.
type RecurringInvoicer interface {
	GenerateRecurring(ctx context.Context, automationID string) (string, error)
}

type AutomationActivities struct {
	Invoicer RecurringInvoicer
}

func (a *AutomationActivities) GenerateRecurringInvoice(ctx context.Context, automationID string) (string, error) {
	logger := activity.GetLogger(ctx)

	invoiceID, err := a.Invoicer.GenerateRecurring(ctx, automationID)
	if err != nil {
		return "", err
	}

	if invoiceID == "" {
		logger.Info("nothing to invoice", "automation_id", automationID)
	}

	return invoiceID, nil
}
