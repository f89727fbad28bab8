package money

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// HourlyUnitRate is the price of one billed hour, in units of the invoice currency.
var HourlyUnitRate = decimal.NewFromInt(1)

type Money struct {
	cents    int64
	Currency Currency `json:"currency"`
}

func New(amount decimal.Decimal, currency Currency) Money {
	return Money{
		cents:    decimalToCents(amount),
		Currency: currency,
	}
}

// FromCents restores an amount stored as minor units.
func FromCents(cents int64, currency Currency) Money {
	return Money{cents: cents, Currency: currency}
}

func Zero(currency Currency) Money {
	return Money{Currency: currency}
}

// FromHours prices billed hours at HourlyUnitRate.
func FromHours(hours decimal.Decimal, currency Currency) Money {
	return New(hours.Mul(HourlyUnitRate), currency)
}

func (m Money) Add(other Money) (Money, error) {
	if m.Currency != other.Currency {
		return Money{}, fmt.Errorf("cannot add different currencies: %s and %s", m.Currency, other.Currency)
	}

	return Money{
		cents:    m.cents + other.cents,
		Currency: m.Currency,
	}, nil
}

// Sum converts every amount into currency and adds them up.
func Sum(currency Currency, rates *ExchangeRates, amounts ...Money) (Money, error) {
	total := Zero(currency)

	for _, amount := range amounts {
		converted, err := amount.ConvertTo(currency, rates)
		if err != nil {
			return Money{}, err
		}

		total.cents += converted.cents
	}

	return total, nil
}

func (m Money) IsZero() bool {
	return m.cents == 0
}

func (m Money) Cents() int64 {
	return m.cents
}

func (m Money) String() string {
	return m.FormatWithSymbol()
}

func (m Money) validate() error {
	if !m.Currency.Valid() {
		return fmt.Errorf("invalid currency: %s", m.Currency)
	}

	if m.cents < 0 {
		return fmt.Errorf("amount cannot be negative")
	}

	return nil
}

func NewFromString(amount string, currency Currency) (money Money, err error) {
	decimal, err := decimal.NewFromString(amount)
	if err != nil {
		err = fmt.Errorf("invalid amount format: %w", err)
		return
	}

	money = New(decimal, currency)
	if err = money.validate(); err != nil {
		err = fmt.Errorf("invalid amount: %w", err)
		return
	}

	return
}

func (m Money) ConvertTo(targetCurrency Currency, rates *ExchangeRates) (Money, error) {
	if m.Currency == targetCurrency {
		return m, nil
	}

	rate, ok := rates.Rate(m.Currency, targetCurrency)
	if !ok {
		return Money{}, fmt.Errorf("unsupported currency conversion from %s to %s", m.Currency, targetCurrency)
	}

	return New(centsToDecimal(m.cents).Mul(rate), targetCurrency), nil
}

func decimalToCents(amount decimal.Decimal) int64 {
	return amount.Mul(decimal.NewFromInt(100)).Round(0).IntPart()
}

func centsToDecimal(cents int64) decimal.Decimal {
	return decimal.NewFromInt(cents).Div(decimal.NewFromInt(100))
}

func centsToDecimalString(cents int64) string {
	return centsToDecimal(cents).StringFixed(2)
}

func (m Money) Amount() decimal.Decimal {
	return centsToDecimal(m.cents)
}

func (m Money) FormatWithSymbol() string {
	return m.Currency.Symbol() + centsToDecimalString(m.cents)
}

func (m Money) MarshalJSON() ([]byte, error) {
	return json.Marshal(m.FormatWithSymbol())
}

func (m *Money) UnmarshalJSON(data []byte) error {
	var valueStr string
	if err := json.Unmarshal(data, &valueStr); err != nil {
		return err
	}

	valueStr = strings.TrimSpace(valueStr)

	for _, c := range currencies {
		if strings.HasPrefix(valueStr, c.Symbol()) {
			m.Currency = c
			valueStr = strings.TrimSpace(strings.TrimPrefix(valueStr, c.Symbol()))
			break
		}
	}

	amount, err := decimal.NewFromString(valueStr)
	if err != nil {
		return fmt.Errorf("invalid amount: %v", err)
	}

	m.cents = decimalToCents(amount)
	return m.validate()
}
