package postgres

import (
	"context"
	"fmt"

	"github.com/jhoicas/saphety-bridge/internal/domain/entity"
	"github.com/jhoicas/saphety-bridge/internal/domain/repository"
)

var _ repository.InvoiceRepository = (*SalesInvoiceRepo)(nil)

// SalesInvoiceRepo lectura del esquema de ventas de X3 (SINVOICEV, SINVOICE,
// SINVOICED, SVCRVAT). Solo lectura: el flag YSAPHFLG lo pone el ERP y el
// avance del ciclo de vida se registra en la tabla de control, nunca aquí.
type SalesInvoiceRepo struct {
	q      Querier
	schema string
}

func NewSalesInvoiceRepository(q Querier, schema string) *SalesInvoiceRepo {
	return &SalesInvoiceRepo{q: q, schema: schema}
}

// FetchPendingInvoices facturas marcadas para Saphety sin registro de control
// todavía. El anti-join sobre YSAPHCTL hace que una factura deje de ser
// candidata en cuanto se intenta generar, con éxito o sin él.
func (r *SalesInvoiceRepo) FetchPendingInvoices(ctx context.Context, invoiceNumber string) ([]*entity.SalesInvoice, error) {
	query := fmt.Sprintf(`
		SELECT v.NUM_0, v.CPY_0, v.INVTYP_0, v.INVDAT_0, v.CUR_0, v.BPCINV_0,
		       v.SIHORI_0, v.SIHORINUM_0, v.SIHORIDAT_0,
		       v.BPDADDLIG_0, v.BPDADDLIG_1, v.BPDADDLIG_2,
		       v.BPDCTY_0, v.BPDPOSCOD_0, v.BPDCRY_0, v.BPIEECNUM_0,
		       i.BPR_0, i.BPRNAM_0, i.BPRNAM_1,
		       i.BPAADDLIG_0, i.BPAADDLIG_1, i.BPAADDLIG_2,
		       i.CTY_0, i.POSCOD_0, i.CRY_0,
		       i.AMTNOT_0, i.AMTATI_0, i.STRDUDDAT_0, i.ZNUMENC_0,
		       c.BPCNUM_0, c.BPCNAM_0, b.EECNUM_0
		FROM %[1]s.SINVOICEV v
		JOIN %[1]s.SINVOICE i ON i.NUM_0 = v.NUM_0
		JOIN %[1]s.BPCUSTOMER c ON c.BPCNUM_0 = v.BPCINV_0
		JOIN %[1]s.BPARTNER b ON b.BPRNUM_0 = c.BPCNUM_0
		WHERE v.YSAPHFLG_0 = 2
		  AND NOT EXISTS (
		      SELECT 1 FROM %[1]s.YSAPHCTL ctl WHERE ctl.INVNUM_0 = v.NUM_0
		  )`, r.schema)
	args := []any{}
	if invoiceNumber != "" {
		query += " AND v.NUM_0 = $1"
		args = append(args, invoiceNumber)
	}
	query += " ORDER BY v.NUM_0"

	rows, err := r.q.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("error al consultar facturas pendientes: %w", err)
	}
	defer rows.Close()

	var invoices []*entity.SalesInvoice
	for rows.Next() {
		inv := &entity.SalesInvoice{
			Header:   &entity.InvoiceHeader{},
			Customer: &entity.Customer{},
		}
		err := rows.Scan(
			&inv.InvoiceNumber,
			&inv.Company,
			&inv.Category,
			&inv.InvoiceDate,
			&inv.Currency,
			&inv.BillToCustomer,
			&inv.SourceDocumentCategory,
			&inv.SourceDocumentNumber,
			&inv.SourceDocumentDate,
			&inv.ShipToAddressLines[0],
			&inv.ShipToAddressLines[1],
			&inv.ShipToAddressLines[2],
			&inv.ShipToCity,
			&inv.ShipToPostalCode,
			&inv.ShipToCountry,
			&inv.BillToEUVatNumber,
			&inv.Header.BusinessPartner,
			&inv.Header.BillToCustomerName1,
			&inv.Header.BillToCustomerName2,
			&inv.Header.BillToCustomerAddressLines[0],
			&inv.Header.BillToCustomerAddressLines[1],
			&inv.Header.BillToCustomerAddressLines[2],
			&inv.Header.BillToCustomerCity,
			&inv.Header.BillToCustomerPostalCode,
			&inv.Header.BillToCustomerCountry,
			&inv.Header.TotalAmountExcludingTax,
			&inv.Header.TotalAmountIncludingTax,
			&inv.Header.DueDateCalculationStartDate,
			&inv.OrderNumber,
			&inv.Customer.Code,
			&inv.Customer.Name,
			&inv.Customer.EuropeanVatNumber,
		)
		if err != nil {
			return nil, fmt.Errorf("error al escanear la factura pendiente: %w", err)
		}
		inv.Header.InvoiceNumber = inv.InvoiceNumber
		inv.Header.Currency = inv.Currency
		invoices = append(invoices, inv)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error al recorrer facturas pendientes: %w", err)
	}

	// Precarga de líneas e impuestos: el generador trabaja con el agregado
	// completo en memoria.
	for _, inv := range invoices {
		if inv.Lines, err = r.FetchLines(ctx, inv.InvoiceNumber); err != nil {
			return nil, err
		}
		if inv.Taxes, err = r.FetchTaxes(ctx, inv.InvoiceNumber); err != nil {
			return nil, err
		}
	}
	return invoices, nil
}

// FetchLines líneas de detalle en el orden del documento.
func (r *SalesInvoiceRepo) FetchLines(ctx context.Context, invoiceNumber string) ([]entity.InvoiceLine, error) {
	query := fmt.Sprintf(`
		SELECT SIDLIN_0, ITMREF_0, ITMDES1_0, QTY_0, NETPRI_0,
		       AMTNOTLIN_0, RATTAXLIN_0
		FROM %s.SINVOICED
		WHERE NUM_0 = $1
		ORDER BY SIDLIN_0`, r.schema)

	rows, err := r.q.Query(ctx, query, invoiceNumber)
	if err != nil {
		return nil, fmt.Errorf("error al consultar las líneas de %s: %w", invoiceNumber, err)
	}
	defer rows.Close()

	var lines []entity.InvoiceLine
	for rows.Next() {
		line := entity.InvoiceLine{InvoiceNumber: invoiceNumber}
		err := rows.Scan(
			&line.LineNumber,
			&line.Product,
			&line.Description,
			&line.Quantity,
			&line.NetPrice,
			&line.LineAmountExcludingTax,
			&line.TaxRate,
		)
		if err != nil {
			return nil, fmt.Errorf("error al escanear la línea de %s: %w", invoiceNumber, err)
		}
		lines = append(lines, line)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error al recorrer las líneas de %s: %w", invoiceNumber, err)
	}
	return lines, nil
}

// FetchTaxes subtotales de impuesto de la factura.
func (r *SalesInvoiceRepo) FetchTaxes(ctx context.Context, invoiceNumber string) ([]entity.InvoiceTax, error) {
	query := fmt.Sprintf(`
		SELECT VATRAT_0, BASTAX_0, AMTTAX_0
		FROM %s.SVCRVAT
		WHERE NUM_0 = $1
		ORDER BY VATRAT_0 DESC`, r.schema)

	rows, err := r.q.Query(ctx, query, invoiceNumber)
	if err != nil {
		return nil, fmt.Errorf("error al consultar los impuestos de %s: %w", invoiceNumber, err)
	}
	defer rows.Close()

	var taxes []entity.InvoiceTax
	for rows.Next() {
		tax := entity.InvoiceTax{InvoiceNumber: invoiceNumber}
		if err := rows.Scan(&tax.Rate, &tax.TaxBasis, &tax.TaxAmount); err != nil {
			return nil, fmt.Errorf("error al escanear el impuesto de %s: %w", invoiceNumber, err)
		}
		taxes = append(taxes, tax)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error al recorrer los impuestos de %s: %w", invoiceNumber, err)
	}
	return taxes, nil
}
