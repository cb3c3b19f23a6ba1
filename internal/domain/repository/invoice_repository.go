package repository

import (
	"context"

	"github.com/jhoicas/saphety-bridge/internal/domain/entity"
)

// InvoiceRepository lectura del esquema de ventas de X3. El puente nunca
// escribe en estas tablas.
type InvoiceRepository interface {
	// FetchPendingInvoices facturas marcadas para Saphety (YSAPHFLG=Sí) que
	// todavía no tienen registro de control (anti-join sobre YSAPHCTL).
	// invoiceNumber vacío trae todas las candidatas.
	FetchPendingInvoices(ctx context.Context, invoiceNumber string) ([]*entity.SalesInvoice, error)
	// FetchLines líneas de detalle (SINVOICED) de una factura.
	FetchLines(ctx context.Context, invoiceNumber string) ([]entity.InvoiceLine, error)
	// FetchTaxes líneas de impuesto (SVCRVAT) de una factura.
	FetchTaxes(ctx context.Context, invoiceNumber string) ([]entity.InvoiceTax, error)
}

// CompanyRepository lectura de la sociedad emisora con su dirección por
// defecto (COMPANY + BPADDRESS).
type CompanyRepository interface {
	FindWithAddress(ctx context.Context, company string) (*entity.Company, error)
}
