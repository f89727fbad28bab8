package config

import (
	"encore.dev"
	"github.com/freelanceflow/freelanceflow-api/money"
	"github.com/shopspring/decimal"
)

var (
	Rates = money.NewExchangeRates().
		Set(money.USD, money.GEL, decimal.NewFromFloat(2.7777)).
		Set(money.GEL, money.USD, decimal.NewFromFloat(0.3601)).
		Set(money.EUR, money.USD, decimal.NewFromFloat(1.0850)).
		Set(money.USD, money.EUR, decimal.NewFromFloat(0.9217)).
		Set(money.EUR, money.GEL, decimal.NewFromFloat(3.0138)).
		Set(money.GEL, money.EUR, decimal.NewFromFloat(0.3318))
	DefaultCurrency   = money.USD
	ReportingCurrency = money.USD
	TemporalServerURL = "127.0.0.1:7233"
	EnvName           = encore.Meta().Environment.Name
	InvoiceTaskQueue  = EnvName + "-invoices"
)
