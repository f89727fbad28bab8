package workflow

import (
	"time"

	"github.com/freelanceflow/freelanceflow-api/model"
	"go.temporal.io/sdk/temporal"
	"go.temporal.io/sdk/workflow"
)

// InvoiceWorkflow owns the lifecycle of one invoice: draft until sent, sent
// until paid. It flags the invoice overdue once the due date passes unpaid and
// completes when the invoice is paid.
func InvoiceWorkflow(ctx workflow.Context, invoice model.Invoice) error {
	logger := workflow.GetLogger(ctx)
	inv := &invoice

	err := workflow.SetQueryHandler(ctx, QueryGetInvoice, func() (*model.Invoice, error) {
		return inv, nil
	})
	if err != nil {
		return err
	}

	dueTimer := workflow.NewTimer(ctx, untilDue(workflow.Now(ctx), inv.DueDate))
	sendChan := workflow.GetSignalChannel(ctx, SignalSendInvoice)
	payChan := workflow.GetSignalChannel(ctx, SignalMarkPaid)

	var recipient string
	dueFired := false

	for !inv.Paid() {
		selector := workflow.NewSelector(ctx)

		selector.AddReceive(sendChan, func(ch workflow.ReceiveChannel, more bool) {
			var signal SendInvoiceSignal
			ch.Receive(ctx, &signal)

			inv.Status = model.InvoiceStatusSent
			inv.SentAt = &signal.SentAt
			recipient = signal.Recipient
			logger.Info("sent invoice", "invoice_id", inv.ID, "recipient", signal.Recipient)

			sendEmail(ctx, inv, signal)
		})

		selector.AddReceive(payChan, func(ch workflow.ReceiveChannel, more bool) {
			var signal MarkPaidSignal
			ch.Receive(ctx, &signal)

			inv.Status = model.InvoiceStatusPaid
			inv.PaidAt = &signal.PaidAt
			inv.Overdue = false
			logger.Info("invoice paid", "invoice_id", inv.ID)
		})

		if !dueFired {
			selector.AddFuture(dueTimer, func(f workflow.Future) {
				dueFired = true
				if err := f.Get(ctx, nil); err != nil {
					logger.Warn("due date timer failed", "invoice_id", inv.ID, "error", err)
					return
				}

				inv.Overdue = true
				logger.Info("invoice overdue", "invoice_id", inv.ID)

				if inv.Status == model.InvoiceStatusSent {
					sendReminder(ctx, inv, recipient)
				}
			})
		}

		selector.Select(ctx)
	}

	return nil
}

func activityContext(ctx workflow.Context) workflow.Context {
	return workflow.WithActivityOptions(ctx, workflow.ActivityOptions{
		StartToCloseTimeout: time.Minute * 5,
		RetryPolicy: &temporal.RetryPolicy{
			InitialInterval:    time.Second,
			BackoffCoefficient: 2.0,
			MaximumInterval:    time.Minute * 5,
			MaximumAttempts:    5,
		},
	})
}

func sendEmail(ctx workflow.Context, inv *model.Invoice, signal SendInvoiceSignal) {
	activityCtx := activityContext(ctx)

	details := EmailDetails{
		Invoice:   inv,
		Recipient: signal.Recipient,
		Subject:   signal.Subject,
		Message:   signal.Message,
	}

	err := workflow.ExecuteActivity(activityCtx, SendInvoiceEmail, details).Get(activityCtx, nil)
	if err != nil {
		workflow.GetLogger(ctx).Error("Failed to send invoice email",
			"error_type", "EMAIL_SERVICE_ERROR",
			"invoice_id", inv.ID,
			"client_id", inv.ClientID,
			"error", err)
	}
}

func sendReminder(ctx workflow.Context, inv *model.Invoice, recipient string) {
	activityCtx := activityContext(ctx)

	details := ReminderDetails{Invoice: inv, Recipient: recipient}

	err := workflow.ExecuteActivity(activityCtx, SendOverdueReminder, details).Get(activityCtx, nil)
	if err != nil {
		workflow.GetLogger(ctx).Error("Failed to send overdue reminder",
			"error_type", "EMAIL_SERVICE_ERROR",
			"invoice_id", inv.ID,
			"client_id", inv.ClientID,
			"error", err)
	}
}
