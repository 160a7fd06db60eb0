package render

import (
	"bytes"
	"context"
	"fmt"
	"text/template"

	"carrental/internal/invoices/service"
)

// textRenderer is the default document collaborator: a plain-text invoice.
// Swap in a PDF renderer behind the same interface for production billing.
type textRenderer struct {
	tmpl *template.Template
}

const invoiceTemplate = `CAR RENTAL INVOICE
==================

Booking number:      {{.BookingNumber}}
Invoice date:        {{.IssuedAt.Format "2006-01-02"}}
Customer:            {{.CustomerID}}
Email:               {{.Email}}

Rental details
--------------
Registration number: {{.RegistrationNumber}}
Category:            {{.Category}}
Pickup:              {{.PickupTime.Format "2006-01-02 15:04"}} at {{.PickupMeter}} km
Return:              {{.ReturnTime.Format "2006-01-02 15:04"}} at {{.ReturnMeter}} km
Billable days:       {{.Days}}
Distance:            {{.Km}} km

TOTAL: {{.Price.StringFixed 2}}
`

func NewTextRenderer() (service.DocumentRenderer, error) {
	tmpl, err := template.New("invoice").Parse(invoiceTemplate)
	if err != nil {
		return nil, fmt.Errorf("failed to parse invoice template: %w", err)
	}
	return &textRenderer{tmpl: tmpl}, nil
}

func (r *textRenderer) RenderInvoice(_ context.Context, invoice *service.Invoice) ([]byte, error) {
	var buf bytes.Buffer
	if err := r.tmpl.Execute(&buf, invoice); err != nil {
		return nil, fmt.Errorf("failed to render invoice %s: %w", invoice.BookingNumber, err)
	}
	return buf.Bytes(), nil
}

func (r *textRenderer) ContentType() string {
	return "text/plain; charset=utf-8"
}
