package invoices

import (
	"context"
	"time"

	"github.com/freelanceflow/freelanceflow-api/errors"
	"github.com/freelanceflow/freelanceflow-api/invoices/config"
	"github.com/freelanceflow/freelanceflow-api/reports"
	"golang.org/x/sync/errgroup"
)

const defaultRevenueDays = 30

type RevenueParams struct {
	Days int `json:"days" query:"days,omitempty"`
}

type MonthlyReportParams struct {
	// Month is YYYY-MM; the current month when empty.
	Month string `json:"month" query:"month,omitempty"`
}

func (p *RevenueParams) Validate() error {
	if p.Days == 0 {
		p.Days = defaultRevenueDays
	}

	for _, days := range reports.Periods {
		if p.Days == days {
			return nil
		}
	}

	return errors.BadRequestError(reports.ErrInvalidPeriod.Error())
}

func (p *MonthlyReportParams) month(now time.Time) (time.Time, error) {
	if p.Month == "" {
		return now, nil
	}

	month, err := reports.ParseMonth(p.Month)
	if err != nil {
		return time.Time{}, errors.BadRequestError("month must be in YYYY-MM format")
	}

	return month, nil
}

func reporter() *reports.Reporter {
	return &reports.Reporter{Currency: config.ReportingCurrency, Rates: config.Rates}
}

// reportData fetches clients, projects and invoices concurrently.
func (s *Service) reportData(ctx context.Context) (reports.Data, error) {
	var data reports.Data

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		clients, err := s.directory.ListClients(ctx)
		if err != nil {
			return err
		}
		data.Clients = clients
		return nil
	})

	g.Go(func() error {
		projects, err := s.directory.ListProjects(ctx, "")
		if err != nil {
			return err
		}
		data.Projects = projects
		return nil
	})

	g.Go(func() error {
		invoices, err := s.listInvoices(ctx, ListFilter{})
		if err != nil {
			return err
		}
		data.Invoices = invoices
		return nil
	})

	if err := g.Wait(); err != nil {
		return reports.Data{}, err
	}

	return data, nil
}

// Dashboard returns the figures behind the dashboard panels.
//
//encore:api public method=GET path=/reports/dashboard
func (s *Service) Dashboard(ctx context.Context) (*reports.Dashboard, error) {
	data, err := s.reportData(ctx)
	if err != nil {
		return nil, err
	}

	dashboard, err := reporter().Dashboard(data, s.now())
	if err != nil {
		return nil, errors.SafeInternalError(err, "failed to compute dashboard")
	}

	return dashboard, nil
}

// Revenue returns daily revenue for the last 7, 30 or 90 days next to the
// window before it.
//
//encore:api public method=GET path=/reports/revenue
func (s *Service) Revenue(ctx context.Context, params *RevenueParams) (*reports.RevenueSeries, error) {
	if err := params.Validate(); err != nil {
		return nil, err
	}

	invoices, err := s.listInvoices(ctx, ListFilter{})
	if err != nil {
		return nil, err
	}

	series, err := reporter().RevenueSeries(invoices, params.Days, s.now())
	if err != nil {
		return nil, errors.SafeInternalError(err, "failed to compute revenue")
	}

	return series, nil
}

// MonthlyReport returns hours per client and daily revenue for a month.
//
//encore:api public method=GET path=/reports/monthly
func (s *Service) MonthlyReport(ctx context.Context, params *MonthlyReportParams) (*reports.MonthlyReport, error) {
	month, err := params.month(s.now())
	if err != nil {
		return nil, err
	}

	data, err := s.reportData(ctx)
	if err != nil {
		return nil, err
	}

	report, err := reporter().Monthly(data, month)
	if err != nil {
		return nil, errors.SafeInternalError(err, "failed to compute monthly report")
	}

	return report, nil
}
