package ciuspt

import "github.com/jhoicas/saphety-bridge/internal/domain/entity"

// ProfileDefault perfil base: norma CIUS-PT sin customizaciones.
const ProfileDefault = "DEFAULT"

func init() {
	RegisterMapper(ProfileDefault, DefaultMapper{})
}

// DefaultMapper comportamiento estándar de la norma. Los campos opcionales
// solo se emiten cuando la factura trae el dato correspondiente.
type DefaultMapper struct{}

var _ Mapper = DefaultMapper{}

// BuyerReference el campo es opcional en la norma base; no se emite.
func (DefaultMapper) BuyerReference(*entity.SalesInvoice) string { return "" }

// OrderReference se emite solo si el documento procede de un pedido.
func (DefaultMapper) OrderReference(inv *entity.SalesInvoice) *OrderReference {
	if inv.SourceDocumentCategory == entity.OriginOrder && inv.SourceDocumentNumber != "" {
		return &OrderReference{OrderNumber: inv.SourceDocumentNumber}
	}
	return nil
}

// AdditionalDocumentReference sin adjuntos en el perfil base.
func (DefaultMapper) AdditionalDocumentReference(*entity.SalesInvoice) *AdditionalDocumentReference {
	return nil
}
