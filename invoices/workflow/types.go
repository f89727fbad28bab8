package workflow

import (
	"time"

	"github.com/freelanceflow/freelanceflow-api/model"
)

const (
	QueryGetInvoice   = "get-invoice"
	SignalSendInvoice = "send-invoice"
	SignalMarkPaid    = "mark-paid"
)

type SendInvoiceSignal struct {
	Recipient string    `json:"recipient"`
	Subject   string    `json:"subject"`
	Message   string    `json:"message"`
	SentAt    time.Time `json:"sent_at"`
}

type MarkPaidSignal struct {
	PaidAt time.Time `json:"paid_at"`
}

type EmailDetails struct {
	Invoice   *model.Invoice
	Recipient string
	Subject   string
	Message   string
}

type ReminderDetails struct {
	Invoice   *model.Invoice
	Recipient string
}
