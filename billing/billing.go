// Package billing derives invoices from the hours logged on a client's projects.
//
// Every function is pure: callers pass the current projects and invoices and get
// a result that depends on nothing else.
package billing

import (
	"errors"
	"time"

	"github.com/freelanceflow/freelanceflow-api/model"
	"github.com/freelanceflow/freelanceflow-api/money"
	"github.com/shopspring/decimal"
)

// DueOffset is the time between invoice creation and its due date.
const DueOffset = 30 * 24 * time.Hour

var ErrNoProjects = errors.New("at least one project must be selected")

// InvoicedProjectIDs returns the ids of every project referenced by invoices.
func InvoicedProjectIDs(invoices []model.Invoice) map[string]struct{} {
	ids := make(map[string]struct{})
	for _, inv := range invoices {
		for _, id := range inv.ProjectIDs {
			ids[id] = struct{}{}
		}
	}

	return ids
}

// EligibleProjects returns the projects of clientID that have tasks and are not
// covered by any invoice yet, in their original order.
func EligibleProjects(clientID string, projects []model.Project, invoices []model.Invoice) []model.Project {
	invoiced := InvoicedProjectIDs(invoices)

	eligible := make([]model.Project, 0)
	for _, p := range projects {
		if p.ClientID != clientID || len(p.Tasks) == 0 {
			continue
		}

		if _, ok := invoiced[p.ID]; ok {
			continue
		}

		eligible = append(eligible, p)
	}

	return eligible
}

// NewInvoice snapshots the hours of the selected projects into a draft invoice
// created at now. Ids that match no project add nothing to the total.
func NewInvoice(id, clientID string, projectIDs []string, projects []model.Project, currency money.Currency, now time.Time) (model.Invoice, error) {
	if len(projectIDs) == 0 {
		return model.Invoice{}, ErrNoProjects
	}

	byID := make(map[string]*model.Project, len(projects))
	for i := range projects {
		byID[projects[i].ID] = &projects[i]
	}

	seen := make(map[string]struct{}, len(projectIDs))
	selected := make([]string, 0, len(projectIDs))
	hours := decimal.Zero

	for _, pid := range projectIDs {
		if _, dup := seen[pid]; dup {
			continue
		}
		seen[pid] = struct{}{}
		selected = append(selected, pid)

		if p, ok := byID[pid]; ok {
			hours = hours.Add(p.Hours())
		}
	}

	return model.Invoice{
		ID:         id,
		ClientID:   clientID,
		ProjectIDs: selected,
		TotalHours: hours,
		Total:      money.FromHours(hours, currency),
		Status:     model.InvoiceStatusDraft,
		CreatedAt:  now,
		DueDate:    now.Add(DueOffset),
	}, nil
}
