package ciuspt

import (
	"encoding/base64"
	"os"
	"path/filepath"
	"strings"

	"github.com/jhoicas/saphety-bridge/internal/domain/entity"
)

// ProfileMOP perfil del cliente MOP: exige la referencia del comprador y
// adjunta la representación PDF de la factura dentro del XML.
const ProfileMOP = "MOP"

func init() {
	RegisterMapper(ProfileMOP, &MOPMapper{})
}

// MOPMapper customizaciones del cliente MOP. PDFDirectory apunta a la
// carpeta donde el ERP deja los PDF de factura, nombrados igual que el XML.
type MOPMapper struct {
	DefaultMapper
	PDFDirectory string
}

var _ Mapper = (*MOPMapper)(nil)

// BuyerReference MOP rellena BT-10 con el número de pedido del cliente.
func (m *MOPMapper) BuyerReference(inv *entity.SalesInvoice) string {
	return strings.TrimSpace(inv.OrderNumber)
}

// AdditionalDocumentReference adjunta el PDF de la factura en base64
// (schemeID AIM, código 130). Si el PDF no está disponible el bloque se
// omite; no es motivo para fallar la generación.
func (m *MOPMapper) AdditionalDocumentReference(inv *entity.SalesInvoice) *AdditionalDocumentReference {
	if m.PDFDirectory == "" {
		return nil
	}

	name := SanitizeFilename(inv.InvoiceNumber) + ".pdf"
	raw, err := os.ReadFile(filepath.Join(m.PDFDirectory, name))
	if err != nil {
		return nil
	}

	return &AdditionalDocumentReference{
		SchemeID:    "AIM",
		TypeCode:    "130",
		Description: "INVOICE_REPRESENTATION",
		Filename:    name,
		PDFBase64:   base64.StdEncoding.EncodeToString(raw),
	}
}
