package validate

import (
	"testing"

	"encore.dev/beta/errs"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func Test_MinLength(t *testing.T) {
	assert.NoError(t, MinLength("name", "Jo", 2))
	assert.Error(t, MinLength("name", " J ", 2))
	assert.Equal(t, errs.InvalidArgument, errs.Code(MinLength("name", "", 2)))
}

func Test_Email(t *testing.T) {
	assert.NoError(t, Email("email", "jane.smith@example.com"))
	assert.Error(t, Email("email", "jane.smith"))
	assert.Error(t, Email("email", "Jane <jane@example.com>"))
	assert.Error(t, Email("email", ""))
}

func Test_URL(t *testing.T) {
	assert.NoError(t, URL("website", "https://example.com"))
	assert.Error(t, URL("website", "example.com"))
}

func Test_HexColor(t *testing.T) {
	assert.NoError(t, HexColor("primary_color", "#fff"))
	assert.NoError(t, HexColor("primary_color", "#1A2b3C"))
	assert.Error(t, HexColor("primary_color", "1a2b3c"))
	assert.Error(t, HexColor("primary_color", "#1a2b3"))
}

func Test_Date(t *testing.T) {
	assert.NoError(t, Date("date", "2026-02-28"))
	assert.Error(t, Date("date", "2026-02-30"))
	assert.Error(t, Date("date", "28/02/2026"))
}

func Test_Numbers(t *testing.T) {
	assert.NoError(t, NonNegative("hours", decimal.Zero))
	assert.Error(t, NonNegative("hours", decimal.NewFromInt(-1)))

	min := decimal.RequireFromString("0.01")
	assert.NoError(t, AtLeast("amount", min, min))
	assert.Error(t, AtLeast("amount", decimal.Zero, min))
}

func Test_First(t *testing.T) {
	assert.NoError(t, First(nil, nil))
	assert.EqualError(t, First(nil, Required("name", ""), Required("email", "")), Required("name", "").Error())
}
