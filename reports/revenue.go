package reports

import (
	"slices"
	"time"

	"github.com/freelanceflow/freelanceflow-api/model"
	"github.com/freelanceflow/freelanceflow-api/money"
	"github.com/shopspring/decimal"
)

const day = 24 * time.Hour

type RevenuePoint struct {
	// Date is the day of the current window, YYYY-MM-DD.
	Date    string      `json:"date"`
	Revenue money.Money `json:"revenue"`
	// PreviousRevenue is the revenue of the matching day one window earlier.
	PreviousRevenue money.Money `json:"previous_revenue"`
}

type RevenueSeries struct {
	Days          int             `json:"days"`
	Points        []RevenuePoint  `json:"points"`
	Total         money.Money     `json:"total"`
	PreviousTotal money.Money     `json:"previous_total"`
	ChangePercent decimal.Decimal `json:"change_percent"`
}

// RevenueSeries buckets invoice totals by creation day over the last days
// days ending today, next to the window of equal length before it.
func (r *Reporter) RevenueSeries(invoices []model.Invoice, days int, now time.Time) (*RevenueSeries, error) {
	if !slices.Contains(Periods, days) {
		return nil, ErrInvalidPeriod
	}

	end := startOfDay(now)
	start := end.Add(-time.Duration(days-1) * day)
	previousStart := start.Add(-time.Duration(days) * day)

	series := &RevenueSeries{
		Days:          days,
		Points:        make([]RevenuePoint, days),
		Total:         money.Zero(r.Currency),
		PreviousTotal: money.Zero(r.Currency),
	}
	for i := range series.Points {
		series.Points[i] = RevenuePoint{
			Date:            start.Add(time.Duration(i) * day).Format(time.DateOnly),
			Revenue:         money.Zero(r.Currency),
			PreviousRevenue: money.Zero(r.Currency),
		}
	}

	for _, inv := range invoices {
		created := startOfDay(inv.CreatedAt)
		if created.Before(previousStart) || created.After(end) {
			continue
		}

		amount, err := r.convert(inv.Total)
		if err != nil {
			return nil, err
		}

		if !created.Before(start) {
			p := &series.Points[int(created.Sub(start)/day)]
			if p.Revenue, err = p.Revenue.Add(amount); err != nil {
				return nil, err
			}
			if series.Total, err = series.Total.Add(amount); err != nil {
				return nil, err
			}
			continue
		}

		p := &series.Points[int(created.Sub(previousStart)/day)]
		if p.PreviousRevenue, err = p.PreviousRevenue.Add(amount); err != nil {
			return nil, err
		}
		if series.PreviousTotal, err = series.PreviousTotal.Add(amount); err != nil {
			return nil, err
		}
	}

	series.ChangePercent = changePercent(series.Total, series.PreviousTotal)
	return series, nil
}

// changePercent is zero when there is nothing to compare against.
func changePercent(current, previous money.Money) decimal.Decimal {
	if previous.IsZero() {
		return decimal.Zero
	}

	return current.Amount().Sub(previous.Amount()).
		Div(previous.Amount()).
		Mul(decimal.NewFromInt(100)).
		Round(2)
}
