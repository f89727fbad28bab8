// Package settings keeps the company profile printed on invoices and the
// subscription plan of the account.
package settings

import (
	"context"
	"strings"
	"time"

	"encore.dev/rlog"
	"encore.dev/storage/sqldb"
	"github.com/freelanceflow/freelanceflow-api/errors"
	"github.com/freelanceflow/freelanceflow-api/validate"
	"github.com/jackc/pgx/v5/pgxpool"
)

const (
	companyKey         = "company-settings"
	defaultCompanyName = "My Company"
)

var db = sqldb.NewDatabase("settings", sqldb.DatabaseConfig{
	Migrations: "./migrations",
})

var (
	store Store = NewPgStore(sqldb.Driver[*pgxpool.Pool](db))
	now         = func() time.Time { return time.Now().UTC() }
)

type CompanySettings struct {
	Name         string `json:"name"`
	Logo         string `json:"logo,omitempty"`
	Address      string `json:"address,omitempty"`
	Phone        string `json:"phone,omitempty"`
	Email        string `json:"email,omitempty"`
	Website      string `json:"website,omitempty"`
	TaxNumber    string `json:"tax_number,omitempty"`
	BankAccount  string `json:"bank_account,omitempty"`
	InvoiceNotes string `json:"invoice_notes,omitempty"`
	PrimaryColor string `json:"primary_color,omitempty"`
}

// UpdateCompanyParams merges into the stored settings; nil fields are kept.
type UpdateCompanyParams struct {
	Name         *string `json:"name,omitempty"`
	Logo         *string `json:"logo,omitempty"`
	Address      *string `json:"address,omitempty"`
	Phone        *string `json:"phone,omitempty"`
	Email        *string `json:"email,omitempty"`
	Website      *string `json:"website,omitempty"`
	TaxNumber    *string `json:"tax_number,omitempty"`
	BankAccount  *string `json:"bank_account,omitempty"`
	InvoiceNotes *string `json:"invoice_notes,omitempty"`
	PrimaryColor *string `json:"primary_color,omitempty"`
}

func (p *UpdateCompanyParams) Validate() error {
	var checks []error

	if p.Name != nil {
		trimmed := strings.TrimSpace(*p.Name)
		p.Name = &trimmed
		checks = append(checks, validate.MinLength("name", trimmed, 2))
	}
	if p.Email != nil && *p.Email != "" {
		checks = append(checks, validate.Email("email", *p.Email))
	}
	if p.Website != nil && *p.Website != "" {
		checks = append(checks, validate.URL("website", *p.Website))
	}
	if p.PrimaryColor != nil && *p.PrimaryColor != "" {
		checks = append(checks, validate.HexColor("primary_color", *p.PrimaryColor))
	}

	return validate.First(checks...)
}

func (p *UpdateCompanyParams) apply(s *CompanySettings) {
	set := func(dst *string, src *string) {
		if src != nil {
			*dst = *src
		}
	}

	set(&s.Name, p.Name)
	set(&s.Logo, p.Logo)
	set(&s.Address, p.Address)
	set(&s.Phone, p.Phone)
	set(&s.Email, p.Email)
	set(&s.Website, p.Website)
	set(&s.TaxNumber, p.TaxNumber)
	set(&s.BankAccount, p.BankAccount)
	set(&s.InvoiceNotes, p.InvoiceNotes)
	set(&s.PrimaryColor, p.PrimaryColor)
}

func loadCompany(ctx context.Context) (*CompanySettings, error) {
	settings := &CompanySettings{Name: defaultCompanyName}
	if _, err := store.Load(ctx, companyKey, settings); err != nil {
		return nil, errors.SafeInternalError(err, "failed to load company settings")
	}

	return settings, nil
}

// GetCompanySettings returns the company profile.
//
//encore:api public method=GET path=/settings/company
func GetCompanySettings(ctx context.Context) (*CompanySettings, error) {
	return loadCompany(ctx)
}

// UpdateCompanySettings merges the given fields into the company profile.
//
//encore:api public method=PATCH path=/settings/company
func UpdateCompanySettings(ctx context.Context, params *UpdateCompanyParams) (*CompanySettings, error) {
	if err := params.Validate(); err != nil {
		return nil, err
	}

	settings := &CompanySettings{Name: defaultCompanyName}
	err := store.Mutate(ctx, companyKey, settings, func() error {
		params.apply(settings)
		return nil
	})
	if err != nil {
		return nil, errors.SafeInternalError(err, "failed to save company settings")
	}

	rlog.Info("updated company settings", "name", settings.Name)
	return settings, nil
}
