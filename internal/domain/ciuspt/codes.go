// Package ciuspt contiene la lógica de dominio del perfil CIUS-PT:
// códigos de categoría de IVA, formato de importes y los puntos de
// customización por cliente (Mapper).
package ciuspt

import (
	"strings"

	"github.com/shopspring/decimal"
)

// Identificador de la especificación CIUS-PT (cbc:CustomizationID, valor fijo).
const CustomizationID = "urn:cen.eu:en16931:2017#compliant#urn:feap.gov.pt:CIUS-PT:2.0.0"

// Códigos UNTDID 1001 de tipo de documento.
const (
	TypeCodeInvoice    = "380"
	TypeCodeCreditNote = "381"
)

// TaxCategoryCode convierte una taxa de IVA portuguesa al código de
// categoría CIUS-PT: 23% normal, 13% intermedia, 6% reducida, 0% exenta.
func TaxCategoryCode(rate decimal.Decimal) string {
	switch rate.IntPart() {
	case 23:
		return "NOR"
	case 13:
		return "INT"
	case 6:
		return "RED"
	case 0:
		return "ISE"
	default:
		return "NOR"
	}
}

// FormatMonetary formatea un importe con dos decimales, el formato que
// exige el esquema UBL para los campos Amount.
func FormatMonetary(d decimal.Decimal) string {
	return d.Round(2).StringFixed(2)
}

// FormatQuantity formatea una cantidad con dos decimales.
func FormatQuantity(d decimal.Decimal) string {
	return d.Round(2).StringFixed(2)
}

// SanitizeFilename deriva el nombre del fichero XML del número de factura
// conservando solo los caracteres alfanuméricos ("FAT-2024/001" -> "FAT2024001").
func SanitizeFilename(invoiceNumber string) string {
	var b strings.Builder
	for _, r := range invoiceNumber {
		if (r >= '0' && r <= '9') || (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') {
			b.WriteRune(r)
		}
	}
	return b.String()
}
