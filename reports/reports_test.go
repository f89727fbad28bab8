package reports

import (
	"testing"
	"time"

	"github.com/freelanceflow/freelanceflow-api/model"
	"github.com/freelanceflow/freelanceflow-api/money"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var now = time.Date(2026, 5, 20, 15, 0, 0, 0, time.UTC)

func may(day, hour int) time.Time {
	return time.Date(2026, 5, day, hour, 0, 0, 0, time.UTC)
}

func task(hours int64, completed bool) model.Task {
	return model.Task{ID: "t", Description: "work", Hours: decimal.NewFromInt(hours), Completed: completed}
}

func usd(amount int64) money.Money {
	return money.New(decimal.NewFromInt(amount), money.USD)
}

func reporter() *Reporter {
	return &Reporter{
		Currency: money.USD,
		Rates:    money.NewExchangeRates().Set(money.EUR, money.USD, decimal.RequireFromString("1.5")),
	}
}

func fixtures() Data {
	return Data{
		Clients: []model.Client{
			{ID: "acme", Name: "Acme", CreatedAt: may(1, 9)},
			{ID: "globex", Name: "Globex", CreatedAt: may(3, 9)},
			{ID: "initech", Name: "Initech", CreatedAt: may(5, 9)},
		},
		Projects: []model.Project{
			{
				ID: "website", ClientID: "acme", Name: "Website", CreatedAt: may(2, 9),
				Tasks:    []model.Task{task(20, true), task(35, true)},
				Expenses: []model.Expense{{ID: "e", Description: "Fonts", Amount: decimal.RequireFromString("100.50"), Date: "2026-05-02"}},
			},
			{ID: "mobile", ClientID: "acme", Name: "Mobile", CreatedAt: may(4, 9), Tasks: []model.Task{task(10, false)}},
			{ID: "api", ClientID: "globex", Name: "API", CreatedAt: may(6, 9), Tasks: []model.Task{task(5, true), task(3, false)}},
			{ID: "empty", ClientID: "initech", Name: "Audit", CreatedAt: may(7, 9)},
		},
		Invoices: []model.Invoice{
			{
				ID: "inv-1", ClientID: "acme", ProjectIDs: []string{"website"}, Total: usd(55),
				Status: model.InvoiceStatusPaid, CreatedAt: may(10, 11), DueDate: may(10, 11).AddDate(0, 0, 30),
			},
			{
				ID: "inv-2", ClientID: "globex", ProjectIDs: []string{"api"}, Total: money.New(decimal.NewFromInt(8), money.EUR),
				Status: model.InvoiceStatusSent, CreatedAt: may(19, 23), DueDate: may(19, 23).AddDate(0, 0, 30),
			},
			{
				ID: "inv-3", ClientID: "acme", ProjectIDs: []string{"mobile"}, Total: usd(10),
				Status: model.InvoiceStatusDraft, CreatedAt: time.Date(2026, 4, 15, 8, 0, 0, 0, time.UTC), DueDate: may(15, 8),
			},
		},
	}
}

func Test_Summarize(t *testing.T) {
	summary, err := reporter().Summarize(fixtures())
	require.NoError(t, err)

	assert.True(t, decimal.NewFromInt(73).Equal(summary.TotalHours))
	assert.Equal(t, "$77.00", summary.TotalRevenue.String())
	assert.Equal(t, "$100.50", summary.TotalExpenses.String())
	assert.Equal(t, 3, summary.InvoiceCount)
	assert.Equal(t, 4, summary.ProjectCount)
	assert.Equal(t, 3, summary.ClientCount)
	assert.Equal(t, 1, summary.CompletedProjects)
	assert.Equal(t, "$19.25", summary.AverageProjectValue.String())
}

func Test_Summarize_Empty(t *testing.T) {
	summary, err := reporter().Summarize(Data{})
	require.NoError(t, err)

	assert.True(t, summary.TotalRevenue.IsZero())
	assert.True(t, summary.AverageProjectValue.IsZero())
	assert.Equal(t, money.USD, summary.AverageProjectValue.Currency)
}

func Test_Summarize_UnknownRate(t *testing.T) {
	d := fixtures()
	d.Invoices = append(d.Invoices, model.Invoice{ID: "inv-4", Total: money.New(decimal.NewFromInt(1), money.GEL)})

	_, err := reporter().Summarize(d)
	assert.Error(t, err)
}

func Test_StatusOf(t *testing.T) {
	assert.Equal(t, ProjectStatus{Total: 4, NotStarted: 2, InProgress: 1, Completed: 1}, StatusOf(fixtures().Projects))
}

func Test_HoursByProject_SkipsEmptyProjects(t *testing.T) {
	hours := HoursByProject(fixtures().Projects)

	require.Len(t, hours, 3)
	assert.Equal(t, "website", hours[0].ProjectID)
	assert.True(t, decimal.NewFromInt(55).Equal(hours[0].Hours))
}

func Test_TopClients(t *testing.T) {
	top, err := reporter().TopClients(fixtures())
	require.NoError(t, err)
	require.Len(t, top, 3)

	assert.Equal(t, "acme", top[0].ClientID)
	assert.Equal(t, "$65.00", top[0].Revenue.String())
	assert.Equal(t, 2, top[0].InvoiceCount)
	assert.Equal(t, 2, top[0].ProjectCount)

	assert.Equal(t, "globex", top[1].ClientID)
	assert.Equal(t, "$12.00", top[1].Revenue.String())

	assert.Equal(t, "initech", top[2].ClientID)
	assert.True(t, top[2].Revenue.IsZero())
	assert.Equal(t, 1, top[2].ProjectCount)
}

func Test_TopClients_KeepsFive(t *testing.T) {
	d := Data{}
	for _, id := range []string{"a", "b", "c", "d", "e", "f", "g"} {
		d.Clients = append(d.Clients, model.Client{ID: id, Name: id})
	}
	d.Invoices = []model.Invoice{{ID: "i", ClientID: "g", Total: usd(1)}}

	top, err := reporter().TopClients(d)
	require.NoError(t, err)
	require.Len(t, top, TopN)
	assert.Equal(t, "g", top[0].ClientID)
	assert.Equal(t, "a", top[1].ClientID)
}

func Test_Outstanding(t *testing.T) {
	out, err := reporter().Outstanding(fixtures(), now)
	require.NoError(t, err)

	assert.Equal(t, 2, out.Count)
	assert.Equal(t, "$22.00", out.Total.String())
	require.Len(t, out.Invoices, 2)

	assert.Equal(t, "inv-3", out.Invoices[0].InvoiceID)
	assert.Equal(t, "Acme", out.Invoices[0].ClientName)
	assert.True(t, out.Invoices[0].Overdue)

	assert.Equal(t, "inv-2", out.Invoices[1].InvoiceID)
	assert.Equal(t, "€8.00", out.Invoices[1].Total.String())
	assert.False(t, out.Invoices[1].Overdue)
}

func Test_RecentActivity(t *testing.T) {
	activity := RecentActivity(fixtures())
	require.Len(t, activity, TopN)

	assert.Equal(t, "inv-2", activity[0].ID)
	assert.Equal(t, ActivityInvoice, activity[0].Type)
	assert.Equal(t, "Invoice created for Globex", activity[0].Title)
	require.NotNil(t, activity[0].Amount)

	assert.Equal(t, "inv-1", activity[1].ID)
	assert.Equal(t, "New project: Audit", activity[2].Title)
	assert.Equal(t, "api", activity[3].ID)
	assert.Equal(t, "New client: Initech", activity[4].Title)
	assert.Nil(t, activity[4].Amount)
}

func Test_RevenueSeries(t *testing.T) {
	series, err := reporter().RevenueSeries(fixtures().Invoices, 7, now)
	require.NoError(t, err)
	require.Len(t, series.Points, 7)

	assert.Equal(t, "2026-05-14", series.Points[0].Date)
	assert.Equal(t, "2026-05-20", series.Points[6].Date)

	assert.Equal(t, "$12.00", series.Points[5].Revenue.String())
	assert.Equal(t, "$55.00", series.Points[3].PreviousRevenue.String())

	assert.Equal(t, "$12.00", series.Total.String())
	assert.Equal(t, "$55.00", series.PreviousTotal.String())
	assert.Equal(t, "-78.18", series.ChangePercent.String())
}

func Test_RevenueSeries_WindowLengths(t *testing.T) {
	for _, days := range Periods {
		series, err := reporter().RevenueSeries(nil, days, now)
		require.NoError(t, err)
		assert.Len(t, series.Points, days)
		assert.True(t, series.ChangePercent.IsZero())
	}

	_, err := reporter().RevenueSeries(nil, 14, now)
	assert.ErrorIs(t, err, ErrInvalidPeriod)
}

func Test_Monthly(t *testing.T) {
	report, err := reporter().Monthly(fixtures(), may(1, 0))
	require.NoError(t, err)

	assert.Equal(t, "2026-05", report.Month)
	require.Len(t, report.DailyRevenue, 31)
	assert.Equal(t, "2026-05-10", report.DailyRevenue[9].Date)
	assert.Equal(t, "$55.00", report.DailyRevenue[9].Revenue.String())
	assert.Equal(t, "$12.00", report.DailyRevenue[18].Revenue.String())
	assert.Equal(t, "$67.00", report.MonthRevenue.String())

	require.Len(t, report.ClientHours, 3)
	assert.True(t, decimal.NewFromInt(65).Equal(report.ClientHours[0].Hours))
	assert.True(t, decimal.NewFromInt(8).Equal(report.ClientHours[1].Hours))
	assert.True(t, report.ClientHours[2].Hours.IsZero())

	assert.True(t, decimal.NewFromInt(73).Equal(report.TotalHours))
	assert.Equal(t, "$77.00", report.TotalRevenue.String())
	assert.Equal(t, "$1.05", report.AverageHourlyRate.String())
}

func Test_Monthly_DeletedClientHoursStayInTotal(t *testing.T) {
	d := fixtures()
	// globex was deleted; its project and invoice remain
	d.Clients = []model.Client{d.Clients[0], d.Clients[2]}

	report, err := reporter().Monthly(d, may(1, 0))
	require.NoError(t, err)

	require.Len(t, report.ClientHours, 2)
	assert.Equal(t, "acme", report.ClientHours[0].ClientID)
	assert.Equal(t, "initech", report.ClientHours[1].ClientID)

	assert.True(t, decimal.NewFromInt(73).Equal(report.TotalHours))
	assert.Equal(t, "$1.05", report.AverageHourlyRate.String())

	summary, err := reporter().Summarize(d)
	require.NoError(t, err)
	assert.True(t, summary.TotalHours.Equal(report.TotalHours))
}

func Test_Monthly_April(t *testing.T) {
	month, err := ParseMonth("2026-04")
	require.NoError(t, err)

	report, err := reporter().Monthly(fixtures(), month)
	require.NoError(t, err)

	assert.Len(t, report.DailyRevenue, 30)
	assert.Equal(t, "$10.00", report.DailyRevenue[14].Revenue.String())
	assert.Equal(t, "$10.00", report.MonthRevenue.String())

	_, err = ParseMonth("May 2026")
	assert.Error(t, err)
}

func Test_Dashboard(t *testing.T) {
	dash, err := reporter().Dashboard(fixtures(), now)
	require.NoError(t, err)

	assert.Equal(t, 4, dash.ProjectStatus.Total)
	assert.Len(t, dash.TopClients, 3)
	assert.Len(t, dash.RecentActivity, TopN)
	assert.Equal(t, 2, dash.Outstanding.Count)
}
