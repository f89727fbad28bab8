// Package model holds the records shared by the FreelanceFlow services.
package model

import (
	"time"

	"github.com/freelanceflow/freelanceflow-api/money"
	"github.com/shopspring/decimal"
)

type Client struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"created_at"`
}

type Project struct {
	ID             string    `json:"id"`
	ClientID       string    `json:"client_id"`
	Name           string    `json:"name"`
	Description    string    `json:"description,omitempty"`
	Tasks          []Task    `json:"tasks"`
	Expenses       []Expense `json:"expenses"`
	TeamMembers    []string  `json:"team_members"`
	CreatedBy      string    `json:"created_by"`
	LastModifiedBy string    `json:"last_modified_by"`
	CreatedAt      time.Time `json:"created_at"`
}

// Hours is the sum of hours over all tasks of the project.
func (p *Project) Hours() decimal.Decimal {
	total := decimal.Zero
	for _, t := range p.Tasks {
		total = total.Add(t.Hours)
	}

	return total
}

func (p *Project) TaskIndex(taskID string) int {
	for i := range p.Tasks {
		if p.Tasks[i].ID == taskID {
			return i
		}
	}

	return -1
}

func (p *Project) ExpenseIndex(expenseID string) int {
	for i := range p.Expenses {
		if p.Expenses[i].ID == expenseID {
			return i
		}
	}

	return -1
}

type Task struct {
	ID             string          `json:"id"`
	Description    string          `json:"description"`
	Hours          decimal.Decimal `json:"hours"`
	Completed      bool            `json:"completed"`
	TimerStartedAt *time.Time      `json:"timer_started_at,omitempty"`
}

type Expense struct {
	ID          string          `json:"id"`
	Description string          `json:"description"`
	Amount      decimal.Decimal `json:"amount"`
	// Date is a calendar day formatted as YYYY-MM-DD.
	Date string `json:"date"`
}

type InvoiceStatus string

const (
	InvoiceStatusDraft InvoiceStatus = "draft"
	InvoiceStatusSent  InvoiceStatus = "sent"
	InvoiceStatusPaid  InvoiceStatus = "paid"
)

func (s InvoiceStatus) Valid() bool {
	switch s {
	case InvoiceStatusDraft, InvoiceStatusSent, InvoiceStatusPaid:
		return true
	}

	return false
}

type Invoice struct {
	ID         string          `json:"id"`
	ClientID   string          `json:"client_id"`
	ProjectIDs []string        `json:"project_ids"`
	TotalHours decimal.Decimal `json:"total_hours"`
	Total      money.Money     `json:"total"`
	Status     InvoiceStatus   `json:"status"`
	CreatedAt  time.Time       `json:"created_at"`
	DueDate    time.Time       `json:"due_date"`
	SentAt     *time.Time      `json:"sent_at,omitempty"`
	PaidAt     *time.Time      `json:"paid_at,omitempty"`
	Overdue    bool            `json:"overdue"`
}

func (i *Invoice) Paid() bool {
	return i.Status == InvoiceStatusPaid
}

// IsOverdue reports whether the invoice is unpaid past its due date at now.
func (i *Invoice) IsOverdue(now time.Time) bool {
	return !i.Paid() && now.After(i.DueDate)
}

type Frequency string

const (
	FrequencyMonthly   Frequency = "monthly"
	FrequencyQuarterly Frequency = "quarterly"
	FrequencyYearly    Frequency = "yearly"
)

// Months is the length of one period, or 0 for an unknown frequency.
func (f Frequency) Months() int {
	switch f {
	case FrequencyMonthly:
		return 1
	case FrequencyQuarterly:
		return 3
	case FrequencyYearly:
		return 12
	}

	return 0
}

// Automation invoices a client's eligible projects once per period, starting
// at StartDate.
type Automation struct {
	ID        string    `json:"id"`
	ClientID  string    `json:"client_id"`
	Frequency Frequency `json:"frequency"`
	// StartDate is a calendar day formatted as YYYY-MM-DD.
	StartDate     string     `json:"start_date"`
	Enabled       bool       `json:"enabled"`
	LastRunAt     *time.Time `json:"last_run_at,omitempty"`
	LastInvoiceID string     `json:"last_invoice_id,omitempty"`
	CreatedAt     time.Time  `json:"created_at"`
}
