package entity

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Las entidades de este fichero son de solo lectura: reflejan el esquema
// legado de Sage X3 (SINVOICEV, SINVOICE, SINVOICED, SVCRVAT) y el puente
// nunca las escribe.

// DefaultLegacyDate fecha centinela de X3 para "sin fecha" (1753-01-01).
var DefaultLegacyDate = time.Date(1753, time.January, 1, 0, 0, 0, 0, time.UTC)

// IsLegacyZero informa si una fecha X3 debe tratarse como vacía.
func IsLegacyZero(t time.Time) bool {
	return t.IsZero() || !t.After(DefaultLegacyDate)
}

// SalesInvoice agregado de factura de venta (SINVOICEV) con la cabecera
// contable, el cliente y las líneas ya cargadas por el repositorio.
type SalesInvoice struct {
	InvoiceNumber          string
	Company                string
	Category               InvoiceCategory
	InvoiceDate            time.Time
	Currency               string
	BillToCustomer         string
	SourceDocumentCategory InvoiceOrigin
	SourceDocumentNumber   string
	SourceDocumentDate     time.Time
	OrderNumber            string

	// Dirección de entrega (BG-15, obligatoria en Portugal)
	ShipToAddressLines [3]string
	ShipToCity         string
	ShipToPostalCode   string
	ShipToCountry      string

	// NIF del cliente facturado tal como está en la factura
	BillToEUVatNumber string

	Header   *InvoiceHeader
	Customer *Customer
	Lines    []InvoiceLine
	Taxes    []InvoiceTax
}

// InvoiceHeader cabecera contable de la factura (SINVOICE).
type InvoiceHeader struct {
	InvoiceNumber               string
	BusinessPartner             string
	BillToCustomerName1         string
	BillToCustomerName2         string
	BillToCustomerAddressLines  [3]string
	BillToCustomerCity          string
	BillToCustomerPostalCode    string
	BillToCustomerCountry       string
	Currency                    string
	TotalAmountExcludingTax     decimal.Decimal
	TotalAmountIncludingTax     decimal.Decimal
	DueDateCalculationStartDate time.Time
}

// BillToName nombre completo del cliente facturado (BPYNAM_0 + BPYNAM_1).
func (h *InvoiceHeader) BillToName() string {
	return joinNonEmpty(h.BillToCustomerName1, h.BillToCustomerName2)
}

// Customer tercero cliente con su NIF intracomunitario (BPCUSTOMER/BPARTNER).
type Customer struct {
	Code              string
	Name              string
	EuropeanVatNumber string
}

// Company sociedad emisora (COMPANY) con su dirección por defecto.
type Company struct {
	Code                    string
	Name                    string
	IntraCommunityVatNumber string
	AddressLines            [3]string
	City                    string
	PostalCode              string
	Country                 string
}

// FullAddress concatena las líneas de dirección no vacías.
func (c *Company) FullAddress() string {
	return joinNonEmpty(c.AddressLines[0], c.AddressLines[1], c.AddressLines[2])
}

// InvoiceLine línea de detalle de la factura (SINVOICED).
type InvoiceLine struct {
	InvoiceNumber          string
	LineNumber             int
	Product                string
	Description            string
	Quantity               decimal.Decimal
	NetPrice               decimal.Decimal
	LineAmountExcludingTax decimal.Decimal
	TaxRate                decimal.Decimal
}

// InvoiceTax línea de impuesto de la factura (SVCRVAT): un subtotal por
// combinación de impuesto y taxa.
type InvoiceTax struct {
	InvoiceNumber string
	Rate          decimal.Decimal
	TaxBasis      decimal.Decimal
	TaxAmount     decimal.Decimal
}

func joinNonEmpty(parts ...string) string {
	clean := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			clean = append(clean, p)
		}
	}
	return strings.Join(clean, " ")
}
