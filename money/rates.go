package money

import "github.com/shopspring/decimal"

type Currency string

const (
	USD Currency = "USD"
	EUR Currency = "EUR"
	GEL Currency = "GEL"
)

var currencies = []Currency{USD, EUR, GEL}

func (c Currency) Symbol() string {
	switch c {
	case USD:
		return "$"
	case EUR:
		return "€"
	case GEL:
		return "₾"
	default:
		return string(c)
	}
}

func (c Currency) Valid() bool {
	for _, known := range currencies {
		if c == known {
			return true
		}
	}

	return false
}

type pair struct {
	from Currency
	to   Currency
}

// ExchangeRates holds directed conversion rates between currencies.
type ExchangeRates struct {
	rates map[pair]decimal.Decimal
}

func NewExchangeRates() *ExchangeRates {
	return &ExchangeRates{rates: make(map[pair]decimal.Decimal)}
}

// Set registers the rate for converting one unit of from into to.
func (r *ExchangeRates) Set(from, to Currency, rate decimal.Decimal) *ExchangeRates {
	r.rates[pair{from, to}] = rate
	return r
}

func (r *ExchangeRates) Rate(from, to Currency) (decimal.Decimal, bool) {
	if from == to {
		return decimal.NewFromInt(1), true
	}

	if r == nil {
		return decimal.Decimal{}, false
	}

	rate, ok := r.rates[pair{from, to}]
	return rate, ok
}
