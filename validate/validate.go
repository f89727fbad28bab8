// Package validate holds the field checks applied to request params before
// any record is touched.
package validate

import (
	"fmt"
	"net/mail"
	"net/url"
	"regexp"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/freelanceflow/freelanceflow-api/errors"
	"github.com/shopspring/decimal"
)

var hexColor = regexp.MustCompile(`^#([A-Fa-f0-9]{6}|[A-Fa-f0-9]{3})$`)

// MinLength rejects values shorter than n characters once trimmed.
func MinLength(field, value string, n int) error {
	if utf8.RuneCountInString(strings.TrimSpace(value)) < n {
		return errors.BadRequestError(fmt.Sprintf("%s must be at least %d characters", field, n))
	}

	return nil
}

func Required(field, value string) error {
	if strings.TrimSpace(value) == "" {
		return errors.BadRequestError(field + " is required")
	}

	return nil
}

func Email(field, value string) error {
	addr, err := mail.ParseAddress(value)
	if err != nil || addr.Address != strings.TrimSpace(value) {
		return errors.BadRequestError(field + " must be a valid email address")
	}

	return nil
}

func URL(field, value string) error {
	u, err := url.Parse(value)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return errors.BadRequestError(field + " must be a valid URL")
	}

	return nil
}

func HexColor(field, value string) error {
	if !hexColor.MatchString(value) {
		return errors.BadRequestError(field + " must be a hex colour like #1a2b3c")
	}

	return nil
}

// Date accepts calendar days in YYYY-MM-DD form.
func Date(field, value string) error {
	if _, err := time.Parse(time.DateOnly, value); err != nil {
		return errors.BadRequestError(field + " must be in YYYY-MM-DD format")
	}

	return nil
}

func NonNegative(field string, value decimal.Decimal) error {
	if value.IsNegative() {
		return errors.BadRequestError(field + " must not be negative")
	}

	return nil
}

func AtLeast(field string, value, min decimal.Decimal) error {
	if value.LessThan(min) {
		return errors.BadRequestError(fmt.Sprintf("%s must be at least %s", field, min.String()))
	}

	return nil
}

// First returns the first non-nil error.
func First(errs ...error) error {
	for _, err := range errs {
		if err != nil {
			return err
		}
	}

	return nil
}
