// Package ubl genera los documentos UBL 2.1 con el perfil CIUS-PT y gestiona
// los ficheros XML resultantes en la carpeta de salida.
package ubl

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/beevik/etree"
	"github.com/shopspring/decimal"

	app "github.com/jhoicas/saphety-bridge/internal/application/saphety"
	"github.com/jhoicas/saphety-bridge/internal/domain/ciuspt"
	"github.com/jhoicas/saphety-bridge/internal/domain/entity"
	"github.com/jhoicas/saphety-bridge/internal/domain/repository"
	"github.com/jhoicas/saphety-bridge/pkg/logger"
)

// Namespaces UBL 2.1.
const (
	nsInvoice = "urn:oasis:names:specification:ubl:schema:xsd:Invoice-2"
	nsCAC     = "urn:oasis:names:specification:ubl:schema:xsd:CommonAggregateComponents-2"
	nsCBC     = "urn:oasis:names:specification:ubl:schema:xsd:CommonBasicComponents-2"
)

const dateLayout = "2006-01-02"

var _ app.DocumentBuilder = (*Builder)(nil)

// Builder construye el árbol UBL de una factura. Las notas de crédito usan la
// misma raíz Invoice con InvoiceTypeCode 381, que es lo que espera el formato
// de país PT de Saphety.
type Builder struct {
	companies repository.CompanyRepository
	mapper    ciuspt.Mapper
	log       *logger.Logger
}

// NewBuilder construye el generador con el mapper del perfil de cliente
// configurado.
func NewBuilder(companies repository.CompanyRepository, mapper ciuspt.Mapper, log *logger.Logger) *Builder {
	return &Builder{companies: companies, mapper: mapper, log: log}
}

// Build genera el documento completo de una factura. documentID es el
// identificador del documento (cbc:ID), ya sanitizado.
func (b *Builder) Build(ctx context.Context, inv *entity.SalesInvoice, documentID string) (*etree.Document, error) {
	if inv.Header == nil {
		return nil, fmt.Errorf("cabecera contable en falta para la factura %s", inv.InvoiceNumber)
	}

	b.log.Info().Str("invoice", inv.InvoiceNumber).Msg("construir el XML de la factura")

	doc := etree.NewDocument()
	doc.CreateProcInst("xml", `version="1.0" encoding="UTF-8"`)

	root := doc.CreateElement("Invoice")
	root.CreateAttr("xmlns", nsInvoice)
	root.CreateAttr("xmlns:cac", nsCAC)
	root.CreateAttr("xmlns:cbc", nsCBC)

	b.headerInfo(root, inv, documentID)

	if err := b.supplierParty(ctx, root, inv); err != nil {
		return nil, err
	}
	if err := b.customerParty(root, inv); err != nil {
		return nil, err
	}

	b.delivery(root, inv)
	b.taxTotal(root, inv)
	b.legalMonetaryTotal(root, inv)
	b.invoiceLines(root, inv)

	return doc, nil
}

// headerInfo elementos generales de cabecera, incluidos los puntos de
// customización del perfil de cliente.
func (b *Builder) headerInfo(root *etree.Element, inv *entity.SalesInvoice, documentID string) {
	addText(root, "cbc:CustomizationID", ciuspt.CustomizationID)
	addText(root, "cbc:ID", documentID)
	addText(root, "cbc:IssueDate", inv.InvoiceDate.Format(dateLayout))

	if !entity.IsLegacyZero(inv.Header.DueDateCalculationStartDate) {
		addText(root, "cbc:DueDate", inv.Header.DueDateCalculationStartDate.Format(dateLayout))
	}

	typeCode := ciuspt.TypeCodeInvoice
	if inv.Category != entity.CategoryInvoice {
		typeCode = ciuspt.TypeCodeCreditNote
	}
	addText(root, "cbc:InvoiceTypeCode", typeCode)
	addText(root, "cbc:DocumentCurrencyCode", inv.Currency)

	if buyerRef := b.mapper.BuyerReference(inv); buyerRef != "" {
		addText(root, "cbc:BuyerReference", buyerRef)
	}

	if orderRef := b.mapper.OrderReference(inv); orderRef != nil {
		ref := root.CreateElement("cac:OrderReference")
		addText(ref, "cbc:ID", orderRef.OrderNumber)
	}

	if docRef := b.mapper.AdditionalDocumentReference(inv); docRef != nil {
		ref := root.CreateElement("cac:AdditionalDocumentReference")
		id := ref.CreateElement("cbc:ID")
		id.CreateAttr("schemeID", docRef.SchemeID)
		id.SetText(inv.InvoiceNumber)
		addText(ref, "cbc:DocumentTypeCode", docRef.TypeCode)
		addText(ref, "cbc:DocumentDescription", docRef.Description)

		attachment := ref.CreateElement("cac:Attachment")
		embedded := attachment.CreateElement("cbc:EmbeddedDocumentBinaryObject")
		embedded.CreateAttr("mimeCode", "application/pdf")
		embedded.CreateAttr("filename", docRef.Filename)
		embedded.SetText(docRef.PDFBase64)
	}

	// BG-3: las notas de crédito referencian la factura original
	if inv.Category == entity.CategoryCreditNote && strings.TrimSpace(inv.SourceDocumentNumber) != "" {
		billingRef := root.CreateElement("cac:BillingReference")
		docRef := billingRef.CreateElement("cac:InvoiceDocumentReference")
		addText(docRef, "cbc:ID", inv.SourceDocumentNumber)
		addText(docRef, "cbc:IssueDate", inv.SourceDocumentDate.Format(dateLayout))
	}
}

// supplierParty bloque del emisor (AccountingSupplierParty), cargado de la
// sociedad del ERP con su dirección por defecto.
func (b *Builder) supplierParty(ctx context.Context, root *etree.Element, inv *entity.SalesInvoice) error {
	supplier, err := b.companies.FindWithAddress(ctx, inv.Company)
	if err != nil {
		return fmt.Errorf("cargar la sociedad %s: %w", inv.Company, err)
	}
	if supplier == nil {
		return fmt.Errorf("sociedad %s no encontrada", inv.Company)
	}

	party := root.CreateElement("cac:AccountingSupplierParty").CreateElement("cac:Party")

	name := strings.TrimSpace(supplier.Name)
	addText(party.CreateElement("cac:PartyName"), "cbc:Name", name)

	address := party.CreateElement("cac:PostalAddress")
	addText(address, "cbc:StreetName", supplier.FullAddress())
	addText(address, "cbc:CityName", strings.TrimSpace(supplier.City))
	addText(address, "cbc:PostalZone", strings.TrimSpace(supplier.PostalCode))
	addText(address.CreateElement("cac:Country"), "cbc:IdentificationCode", strings.TrimSpace(supplier.Country))

	taxScheme := party.CreateElement("cac:PartyTaxScheme")
	// NIF precedido del código de país
	addText(taxScheme, "cbc:CompanyID", strings.TrimSpace(supplier.IntraCommunityVatNumber))
	addText(taxScheme.CreateElement("cac:TaxScheme"), "cbc:ID", "VAT")

	addText(party.CreateElement("cac:PartyLegalEntity"), "cbc:RegistrationName", name)
	return nil
}

// customerParty bloque del cliente facturado (AccountingCustomerParty).
func (b *Builder) customerParty(root *etree.Element, inv *entity.SalesInvoice) error {
	if inv.Customer == nil {
		return fmt.Errorf("datos del cliente en falta para la factura %s", inv.InvoiceNumber)
	}

	party := root.CreateElement("cac:AccountingCustomerParty").CreateElement("cac:Party")

	fullName := inv.Header.BillToName()
	addText(party.CreateElement("cac:PartyName"), "cbc:Name", fullName)

	address := party.CreateElement("cac:PostalAddress")
	addText(address, "cbc:StreetName", joinParts(inv.Header.BillToCustomerAddressLines[:]...))
	addText(address, "cbc:CityName", strings.TrimSpace(inv.Header.BillToCustomerCity))
	addText(address, "cbc:PostalZone", strings.TrimSpace(inv.Header.BillToCustomerPostalCode))
	addText(address.CreateElement("cac:Country"), "cbc:IdentificationCode", strings.TrimSpace(inv.Header.BillToCustomerCountry))

	// Cuando el facturado no es el tercero de la cabecera, vale el NIF de la
	// ficha del cliente; si coinciden, el NIF grabado en la propia factura.
	vatNumber := inv.BillToEUVatNumber
	if inv.BillToCustomer != inv.Header.BusinessPartner {
		vatNumber = inv.Customer.EuropeanVatNumber
	}

	taxScheme := party.CreateElement("cac:PartyTaxScheme")
	addText(taxScheme, "cbc:CompanyID", strings.TrimSpace(vatNumber))
	addText(taxScheme.CreateElement("cac:TaxScheme"), "cbc:ID", "VAT")

	addText(party.CreateElement("cac:PartyLegalEntity"), "cbc:RegistrationName", fullName)
	return nil
}

// delivery bloque de la dirección de entrega (BG-15), obligatorio en Portugal.
func (b *Builder) delivery(root *etree.Element, inv *entity.SalesInvoice) {
	address := root.CreateElement("cac:Delivery").
		CreateElement("cac:DeliveryLocation").
		CreateElement("cac:Address")

	addText(address, "cbc:StreetName", joinParts(inv.ShipToAddressLines[:]...))
	addText(address, "cbc:CityName", strings.TrimSpace(inv.ShipToCity))
	addText(address, "cbc:PostalZone", strings.TrimSpace(inv.ShipToPostalCode))
	addText(address.CreateElement("cac:Country"), "cbc:IdentificationCode", strings.TrimSpace(inv.ShipToCountry))
}

// taxSubtotal acumulador de un subtotal de IVA por (categoría, taxa).
type taxSubtotal struct {
	code    string
	rate    decimal.Decimal
	taxable decimal.Decimal
	tax     decimal.Decimal
}

// taxTotal bloque de resumen de impuestos. Sin líneas de impuesto el bloque
// se omite con aviso, igual que hace el ERP con documentos exentos antiguos.
func (b *Builder) taxTotal(root *etree.Element, inv *entity.SalesInvoice) {
	if len(inv.Taxes) == 0 {
		b.log.Warn().Str("invoice", inv.InvoiceNumber).Msg("sin datos de impuesto, se omite el bloque TaxTotal")
		return
	}

	total := decimal.Zero
	for _, tax := range inv.Taxes {
		total = total.Add(tax.TaxAmount)
	}

	block := root.CreateElement("cac:TaxTotal")
	addAmount(block, "cbc:TaxAmount", inv.Currency, total)

	for _, sub := range aggregateTaxes(inv.Taxes) {
		subBlock := block.CreateElement("cac:TaxSubtotal")
		addAmount(subBlock, "cbc:TaxableAmount", inv.Currency, sub.taxable)
		addAmount(subBlock, "cbc:TaxAmount", inv.Currency, sub.tax)

		category := subBlock.CreateElement("cac:TaxCategory")
		addText(category, "cbc:ID", sub.code)
		addText(category, "cbc:Percent", ciuspt.FormatMonetary(sub.rate))
		addText(category.CreateElement("cac:TaxScheme"), "cbc:ID", "VAT")
	}
}

// aggregateTaxes suma las líneas de impuesto por combinación de categoría
// CIUS y taxa, conservando el orden de primera aparición.
func aggregateTaxes(taxes []entity.InvoiceTax) []*taxSubtotal {
	index := make(map[string]*taxSubtotal)
	var ordered []*taxSubtotal

	for _, tax := range taxes {
		code := ciuspt.TaxCategoryCode(tax.Rate)
		key := code + "|" + ciuspt.FormatMonetary(tax.Rate)

		sub, ok := index[key]
		if !ok {
			sub = &taxSubtotal{code: code, rate: tax.Rate}
			index[key] = sub
			ordered = append(ordered, sub)
		}
		sub.taxable = sub.taxable.Add(tax.TaxBasis)
		sub.tax = sub.tax.Add(tax.TaxAmount)
	}
	return ordered
}

// legalMonetaryTotal totales monetarios del documento.
func (b *Builder) legalMonetaryTotal(root *etree.Element, inv *entity.SalesInvoice) {
	block := root.CreateElement("cac:LegalMonetaryTotal")

	addAmount(block, "cbc:LineExtensionAmount", inv.Currency, inv.Header.TotalAmountExcludingTax)
	addAmount(block, "cbc:TaxExclusiveAmount", inv.Currency, inv.Header.TotalAmountExcludingTax)
	addAmount(block, "cbc:TaxInclusiveAmount", inv.Currency, inv.Header.TotalAmountIncludingTax)

	if !entity.IsLegacyZero(inv.Header.DueDateCalculationStartDate) {
		addAmount(block, "cbc:PayableAmount", inv.Currency, inv.Header.TotalAmountIncludingTax)
	}
}

// invoiceLines líneas de detalle del documento.
func (b *Builder) invoiceLines(root *etree.Element, inv *entity.SalesInvoice) {
	for _, line := range inv.Lines {
		lineBlock := root.CreateElement("cac:InvoiceLine")

		// X3 numera las líneas en múltiplos de 1000
		addText(lineBlock, "cbc:ID", strconv.Itoa(line.LineNumber/1000))

		qty := lineBlock.CreateElement("cbc:InvoicedQuantity")
		qty.CreateAttr("unitCode", "C62")
		qty.SetText(ciuspt.FormatQuantity(line.Quantity))

		addAmount(lineBlock, "cbc:LineExtensionAmount", inv.Currency, line.LineAmountExcludingTax)

		item := lineBlock.CreateElement("cac:Item")
		addText(item, "cbc:Name", strings.TrimSpace(line.Description))

		category := item.CreateElement("cac:ClassifiedTaxCategory")
		addText(category, "cbc:ID", ciuspt.TaxCategoryCode(line.TaxRate))
		addText(category, "cbc:Percent", ciuspt.FormatMonetary(line.TaxRate))
		addText(category.CreateElement("cac:TaxScheme"), "cbc:ID", "VAT")

		price := lineBlock.CreateElement("cac:Price")
		addAmount(price, "cbc:PriceAmount", inv.Currency, line.NetPrice)
	}
}

// ── helpers ───────────────────────────────────────────────────────────────────

func addText(parent *etree.Element, tag, text string) *etree.Element {
	el := parent.CreateElement(tag)
	el.SetText(text)
	return el
}

func addAmount(parent *etree.Element, tag, currency string, amount decimal.Decimal) {
	el := parent.CreateElement(tag)
	el.CreateAttr("currencyID", currency)
	el.SetText(ciuspt.FormatMonetary(amount))
}

func joinParts(parts ...string) string {
	clean := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			clean = append(clean, p)
		}
	}
	return strings.Join(clean, " ")
}
