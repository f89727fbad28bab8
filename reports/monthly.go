package reports

import (
	"time"

	"github.com/freelanceflow/freelanceflow-api/money"
	"github.com/shopspring/decimal"
)

type ClientHours struct {
	ClientID string          `json:"client_id"`
	Name     string          `json:"name"`
	Hours    decimal.Decimal `json:"hours"`
}

type DailyRevenue struct {
	Date    string      `json:"date"`
	Revenue money.Money `json:"revenue"`
}

type MonthlyReport struct {
	// Month is formatted as YYYY-MM.
	Month        string         `json:"month"`
	ClientHours  []ClientHours  `json:"client_hours"`
	DailyRevenue []DailyRevenue `json:"daily_revenue"`
	MonthRevenue money.Money    `json:"month_revenue"`
	// TotalHours, TotalRevenue and AverageHourlyRate are all-time figures.
	TotalHours        decimal.Decimal `json:"total_hours"`
	TotalRevenue      money.Money     `json:"total_revenue"`
	AverageHourlyRate money.Money     `json:"average_hourly_rate"`
}

// Monthly reports hours per client and the revenue of each day of month.
// Only the year and month of month are used.
func (r *Reporter) Monthly(d Data, month time.Time) (*MonthlyReport, error) {
	first := time.Date(month.Year(), month.Month(), 1, 0, 0, 0, 0, time.UTC)
	next := first.AddDate(0, 1, 0)
	days := int(next.Sub(first) / day)

	report := &MonthlyReport{
		Month:        first.Format("2006-01"),
		ClientHours:  make([]ClientHours, 0, len(d.Clients)),
		DailyRevenue: make([]DailyRevenue, days),
		MonthRevenue: money.Zero(r.Currency),
		TotalHours:   decimal.Zero,
	}

	for _, c := range d.Clients {
		hours := decimal.Zero
		for i := range d.Projects {
			if d.Projects[i].ClientID == c.ID {
				hours = hours.Add(d.Projects[i].Hours())
			}
		}

		report.ClientHours = append(report.ClientHours, ClientHours{ClientID: c.ID, Name: c.Name, Hours: hours})
	}

	// projects of deleted clients still count towards the total
	for i := range d.Projects {
		report.TotalHours = report.TotalHours.Add(d.Projects[i].Hours())
	}

	for i := range report.DailyRevenue {
		report.DailyRevenue[i] = DailyRevenue{
			Date:    first.AddDate(0, 0, i).Format(time.DateOnly),
			Revenue: money.Zero(r.Currency),
		}
	}

	for _, inv := range d.Invoices {
		created := startOfDay(inv.CreatedAt)
		if created.Before(first) || !created.Before(next) {
			continue
		}

		amount, err := r.convert(inv.Total)
		if err != nil {
			return nil, err
		}

		entry := &report.DailyRevenue[created.Day()-1]
		if entry.Revenue, err = entry.Revenue.Add(amount); err != nil {
			return nil, err
		}
		if report.MonthRevenue, err = report.MonthRevenue.Add(amount); err != nil {
			return nil, err
		}
	}

	total, err := r.revenue(d.Invoices)
	if err != nil {
		return nil, err
	}

	report.TotalRevenue = total
	report.AverageHourlyRate = divide(total, report.TotalHours)

	return report, nil
}

// ParseMonth reads a YYYY-MM month.
func ParseMonth(s string) (time.Time, error) {
	return time.Parse("2006-01", s)
}
