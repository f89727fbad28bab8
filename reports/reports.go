// Package reports aggregates clients, projects and invoices into the figures
// shown on the dashboard and the monthly report. Every function is pure; the
// caller supplies the records and the clock.
package reports

import (
	stderrors "errors"
	"sort"
	"time"

	"github.com/freelanceflow/freelanceflow-api/model"
	"github.com/freelanceflow/freelanceflow-api/money"
	"github.com/shopspring/decimal"
)

// TopN bounds the top clients, outstanding invoices and recent activity lists.
const TopN = 5

var ErrInvalidPeriod = stderrors.New("period must be 7, 30 or 90 days")

// Periods lists the revenue windows, in days, a series can cover.
var Periods = []int{7, 30, 90}

// Data is the state a report is computed from.
type Data struct {
	Clients  []model.Client
	Projects []model.Project
	Invoices []model.Invoice
}

func (d *Data) clientName(id string) string {
	for _, c := range d.Clients {
		if c.ID == id {
			return c.Name
		}
	}

	return "Unknown Client"
}

// Reporter converts every amount into Currency before aggregating it.
type Reporter struct {
	Currency money.Currency
	Rates    *money.ExchangeRates
}

func (r *Reporter) convert(m money.Money) (money.Money, error) {
	return m.ConvertTo(r.Currency, r.Rates)
}

func (r *Reporter) revenue(invoices []model.Invoice) (money.Money, error) {
	amounts := make([]money.Money, 0, len(invoices))
	for _, inv := range invoices {
		amounts = append(amounts, inv.Total)
	}

	return money.Sum(r.Currency, r.Rates, amounts...)
}

func divide(m money.Money, by decimal.Decimal) money.Money {
	if by.IsZero() {
		return money.Zero(m.Currency)
	}

	return money.New(m.Amount().Div(by), m.Currency)
}

func startOfDay(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

type Summary struct {
	TotalHours          decimal.Decimal `json:"total_hours"`
	TotalRevenue        money.Money     `json:"total_revenue"`
	TotalExpenses       money.Money     `json:"total_expenses"`
	InvoiceCount        int             `json:"invoice_count"`
	ProjectCount        int             `json:"project_count"`
	ClientCount         int             `json:"client_count"`
	CompletedProjects   int             `json:"completed_projects"`
	AverageProjectValue money.Money     `json:"average_project_value"`
}

// Summarize computes the headline figures. Expenses carry no currency and are
// taken to be in the reporting currency.
func (r *Reporter) Summarize(d Data) (Summary, error) {
	revenue, err := r.revenue(d.Invoices)
	if err != nil {
		return Summary{}, err
	}

	hours := decimal.Zero
	expenses := decimal.Zero
	completed := 0
	for i := range d.Projects {
		p := &d.Projects[i]
		hours = hours.Add(p.Hours())
		for _, e := range p.Expenses {
			expenses = expenses.Add(e.Amount)
		}
		if classify(p) == stateCompleted {
			completed++
		}
	}

	projects := max(len(d.Projects), 1)

	return Summary{
		TotalHours:          hours,
		TotalRevenue:        revenue,
		TotalExpenses:       money.New(expenses, r.Currency),
		InvoiceCount:        len(d.Invoices),
		ProjectCount:        len(d.Projects),
		ClientCount:         len(d.Clients),
		CompletedProjects:   completed,
		AverageProjectValue: divide(revenue, decimal.NewFromInt(int64(projects))),
	}, nil
}

type projectState int

const (
	stateNotStarted projectState = iota
	stateInProgress
	stateCompleted
)

// classify places a project by the share of its tasks that are complete.
func classify(p *model.Project) projectState {
	done := 0
	for _, t := range p.Tasks {
		if t.Completed {
			done++
		}
	}

	switch {
	case len(p.Tasks) == 0 || done == 0:
		return stateNotStarted
	case done == len(p.Tasks):
		return stateCompleted
	default:
		return stateInProgress
	}
}

type ProjectStatus struct {
	Total      int `json:"total"`
	NotStarted int `json:"not_started"`
	InProgress int `json:"in_progress"`
	Completed  int `json:"completed"`
}

func StatusOf(projects []model.Project) ProjectStatus {
	status := ProjectStatus{Total: len(projects)}
	for i := range projects {
		switch classify(&projects[i]) {
		case stateNotStarted:
			status.NotStarted++
		case stateInProgress:
			status.InProgress++
		case stateCompleted:
			status.Completed++
		}
	}

	return status
}

type ProjectHours struct {
	ProjectID string          `json:"project_id"`
	Name      string          `json:"name"`
	Hours     decimal.Decimal `json:"hours"`
}

// HoursByProject lists projects with logged time, in project order.
func HoursByProject(projects []model.Project) []ProjectHours {
	out := make([]ProjectHours, 0, len(projects))
	for i := range projects {
		hours := projects[i].Hours()
		if !hours.IsPositive() {
			continue
		}
		out = append(out, ProjectHours{ProjectID: projects[i].ID, Name: projects[i].Name, Hours: hours})
	}

	return out
}

type ClientRevenue struct {
	ClientID     string      `json:"client_id"`
	ClientName   string      `json:"client_name"`
	Revenue      money.Money `json:"revenue"`
	InvoiceCount int         `json:"invoice_count"`
	ProjectCount int         `json:"project_count"`
}

// TopClients ranks clients by invoiced revenue, highest first. Ties keep
// client order.
func (r *Reporter) TopClients(d Data) ([]ClientRevenue, error) {
	stats := make([]ClientRevenue, len(d.Clients))
	index := make(map[string]int, len(d.Clients))
	for i, c := range d.Clients {
		stats[i] = ClientRevenue{ClientID: c.ID, ClientName: c.Name, Revenue: money.Zero(r.Currency)}
		index[c.ID] = i
	}

	for _, inv := range d.Invoices {
		i, ok := index[inv.ClientID]
		if !ok {
			continue
		}

		amount, err := r.convert(inv.Total)
		if err != nil {
			return nil, err
		}
		if stats[i].Revenue, err = stats[i].Revenue.Add(amount); err != nil {
			return nil, err
		}
		stats[i].InvoiceCount++
	}

	for _, p := range d.Projects {
		if i, ok := index[p.ClientID]; ok {
			stats[i].ProjectCount++
		}
	}

	sort.SliceStable(stats, func(i, j int) bool {
		return stats[i].Revenue.Cents() > stats[j].Revenue.Cents()
	})

	return stats[:min(len(stats), TopN)], nil
}

type OutstandingInvoice struct {
	InvoiceID  string      `json:"invoice_id"`
	ClientID   string      `json:"client_id"`
	ClientName string      `json:"client_name"`
	Total      money.Money `json:"total"`
	Status     string      `json:"status"`
	DueDate    time.Time   `json:"due_date"`
	Overdue    bool        `json:"overdue"`
}

type Outstanding struct {
	// Total and Count cover every unpaid invoice, not only the listed ones.
	Total    money.Money          `json:"total"`
	Count    int                  `json:"count"`
	Invoices []OutstandingInvoice `json:"invoices"`
}

// Outstanding lists unpaid invoices soonest due first.
func (r *Reporter) Outstanding(d Data, now time.Time) (Outstanding, error) {
	unpaid := make([]model.Invoice, 0, len(d.Invoices))
	for _, inv := range d.Invoices {
		if !inv.Paid() {
			unpaid = append(unpaid, inv)
		}
	}

	total, err := r.revenue(unpaid)
	if err != nil {
		return Outstanding{}, err
	}

	sort.SliceStable(unpaid, func(i, j int) bool {
		return unpaid[i].DueDate.Before(unpaid[j].DueDate)
	})

	listed := unpaid[:min(len(unpaid), TopN)]
	out := Outstanding{Total: total, Count: len(unpaid), Invoices: make([]OutstandingInvoice, 0, len(listed))}
	for i := range listed {
		inv := &listed[i]
		out.Invoices = append(out.Invoices, OutstandingInvoice{
			InvoiceID:  inv.ID,
			ClientID:   inv.ClientID,
			ClientName: d.clientName(inv.ClientID),
			Total:      inv.Total,
			Status:     string(inv.Status),
			DueDate:    inv.DueDate,
			Overdue:    inv.IsOverdue(now),
		})
	}

	return out, nil
}

type ActivityType string

const (
	ActivityInvoice ActivityType = "invoice"
	ActivityProject ActivityType = "project"
	ActivityClient  ActivityType = "client"
)

type Activity struct {
	ID     string       `json:"id"`
	Type   ActivityType `json:"type"`
	Title  string       `json:"title"`
	Date   time.Time    `json:"date"`
	Amount *money.Money `json:"amount,omitempty"`
}

// RecentActivity merges invoice, project and client creation newest first.
func RecentActivity(d Data) []Activity {
	all := make([]Activity, 0, len(d.Invoices)+len(d.Projects)+len(d.Clients))

	for _, inv := range d.Invoices {
		amount := inv.Total
		all = append(all, Activity{
			ID:     inv.ID,
			Type:   ActivityInvoice,
			Title:  "Invoice created for " + d.clientName(inv.ClientID),
			Date:   inv.CreatedAt,
			Amount: &amount,
		})
	}
	for _, p := range d.Projects {
		all = append(all, Activity{ID: p.ID, Type: ActivityProject, Title: "New project: " + p.Name, Date: p.CreatedAt})
	}
	for _, c := range d.Clients {
		all = append(all, Activity{ID: c.ID, Type: ActivityClient, Title: "New client: " + c.Name, Date: c.CreatedAt})
	}

	sort.SliceStable(all, func(i, j int) bool {
		return all[i].Date.After(all[j].Date)
	})

	return all[:min(len(all), TopN)]
}

type Dashboard struct {
	Summary        Summary         `json:"summary"`
	ProjectStatus  ProjectStatus   `json:"project_status"`
	ProjectHours   []ProjectHours  `json:"project_hours"`
	TopClients     []ClientRevenue `json:"top_clients"`
	Outstanding    Outstanding     `json:"outstanding"`
	RecentActivity []Activity      `json:"recent_activity"`
}

// Dashboard computes every dashboard panel from one consistent Data.
func (r *Reporter) Dashboard(d Data, now time.Time) (*Dashboard, error) {
	summary, err := r.Summarize(d)
	if err != nil {
		return nil, err
	}

	top, err := r.TopClients(d)
	if err != nil {
		return nil, err
	}

	outstanding, err := r.Outstanding(d, now)
	if err != nil {
		return nil, err
	}

	return &Dashboard{
		Summary:        summary,
		ProjectStatus:  StatusOf(d.Projects),
		ProjectHours:   HoursByProject(d.Projects),
		TopClients:     top,
		Outstanding:    outstanding,
		RecentActivity: RecentActivity(d),
	}, nil
}
