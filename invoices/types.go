package invoices

import (
	"strings"

	"github.com/freelanceflow/freelanceflow-api/errors"
	"github.com/freelanceflow/freelanceflow-api/invoices/config"
	"github.com/freelanceflow/freelanceflow-api/model"
	"github.com/freelanceflow/freelanceflow-api/money"
	"github.com/freelanceflow/freelanceflow-api/validate"
)

type GenerateInvoiceParams struct {
	ClientID   string         `json:"client_id"`
	ProjectIDs []string       `json:"project_ids"`
	Currency   money.Currency `json:"currency"`
}

type ListInvoicesParams struct {
	ClientID string `json:"client_id" query:"client_id,omitempty"`
	Status   string `json:"status" query:"status,omitempty"`
}

type EligibleProjectsParams struct {
	ClientID string `json:"client_id" query:"client_id"`
}

type SendInvoiceParams struct {
	Recipient string `json:"recipient"`
	Subject   string `json:"subject"`
	Message   string `json:"message"`
}

type ListInvoicesResponse struct {
	Invoices []*model.Invoice `json:"invoices"`
}

type EligibleProjectsResponse struct {
	Projects []model.Project `json:"projects"`
}

func (p *GenerateInvoiceParams) Validate() error {
	if err := validate.Required("client_id", p.ClientID); err != nil {
		return err
	}

	if len(p.ProjectIDs) == 0 {
		return errors.BadRequestError("select at least one project to invoice")
	}

	if p.Currency == "" {
		p.Currency = config.DefaultCurrency
	}

	if !p.Currency.Valid() {
		return errors.BadRequestError("invalid currency")
	}

	return nil
}

func (p *ListInvoicesParams) Validate() error {
	if p.Status != "" && !model.InvoiceStatus(p.Status).Valid() {
		return errors.BadRequestError("invalid status")
	}

	return nil
}

func (p *EligibleProjectsParams) Validate() error {
	return validate.Required("client_id", p.ClientID)
}

// withDefaults fills unset fields from the client and the company settings.
func (p *SendInvoiceParams) withDefaults(inv *model.Invoice, client *model.Client, company string) error {
	p.Recipient = strings.TrimSpace(p.Recipient)
	if p.Recipient == "" {
		p.Recipient = client.Email
	}

	if p.Subject == "" {
		p.Subject = "Invoice " + inv.ID + " from " + company
	}

	if p.Message == "" {
		p.Message = "Dear " + client.Name + ",\n\n" +
			"Please find attached your invoice for services rendered.\n\n" +
			"Best regards,\n" + company
	}

	return validate.Email("recipient", p.Recipient)
}
