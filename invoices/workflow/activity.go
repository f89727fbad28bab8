package workflow

import (
	"context"
	"fmt"

	"go.temporal.io/sdk/activity"
)

func SendInvoiceEmail(ctx context.Context, details EmailDetails) error {
	logger := activity.GetLogger(ctx)

	msg := fmt.Sprintf(`%s

Invoice #%s
Issued: %s
Due: %s
Hours: %s
Total: %s
`,
		details.Message,
		details.Invoice.ID,
		details.Invoice.CreatedAt.Format("January 2, 2006"),
		details.Invoice.DueDate.Format("January 2, 2006"),
		details.Invoice.TotalHours.String(),
		details.Invoice.Total.String())

	logger.Info("Sending invoice email",
		"recipient", details.Recipient,
		"subject", details.Subject,
		"client_id", details.Invoice.ClientID,
		"invoice_id", details.Invoice.ID,
		"total", details.Invoice.Total.String(),
		"message", msg)

	return nil
}

func SendOverdueReminder(ctx context.Context, details ReminderDetails) error {
	logger := activity.GetLogger(ctx)

	logger.Info("Sending overdue reminder",
		"recipient", details.Recipient,
		"client_id", details.Invoice.ClientID,
		"invoice_id", details.Invoice.ID,
		"due_date", details.Invoice.DueDate.Format("January 2, 2006"),
		"total", details.Invoice.Total.String())

	return nil
}
