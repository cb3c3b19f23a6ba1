package ciuspt

import (
	"sort"
	"sync"

	"github.com/jhoicas/saphety-bridge/internal/domain/entity"
)

// OrderReference referencia de pedido (BT-13) para el bloque cac:OrderReference.
type OrderReference struct {
	OrderNumber string
}

// AdditionalDocumentReference referencia de documento adicional (BT-23) con
// un adjunto embebido en base64 (típicamente la representación PDF de la
// factura).
type AdditionalDocumentReference struct {
	SchemeID    string
	TypeCode    string
	Description string
	Filename    string
	PDFBase64   string
}

// Mapper define los puntos del documento UBL que cada cliente puede
// customizar. El comportamiento por defecto lo da DefaultMapper; los perfiles
// específicos sobrescriben solo lo que necesitan.
type Mapper interface {
	// BuyerReference referencia del comprador (BT-10); "" si no aplica.
	BuyerReference(inv *entity.SalesInvoice) string
	// OrderReference referencia del pedido; nil si no aplica.
	OrderReference(inv *entity.SalesInvoice) *OrderReference
	// AdditionalDocumentReference documento adjunto; nil si no aplica.
	AdditionalDocumentReference(inv *entity.SalesInvoice) *AdditionalDocumentReference
}

// El registro se llena en init() de cada mapper: la selección por perfil es
// una búsqueda en mapa en el arranque, sin reflexión ni carga dinámica.
var (
	registryMu sync.RWMutex
	registry   = map[string]Mapper{}
)

// RegisterMapper registra un mapper bajo un nombre de perfil. Un registro
// repetido sobrescribe el anterior (útil en tests).
func RegisterMapper(profile string, m Mapper) {
	registryMu.Lock()
	defer registryMu.Unlock()
	registry[profile] = m
}

// MapperFor devuelve el mapper del perfil pedido y true, o el mapper
// DEFAULT y false si el perfil no está registrado.
func MapperFor(profile string) (Mapper, bool) {
	registryMu.RLock()
	defer registryMu.RUnlock()
	if m, ok := registry[profile]; ok {
		return m, true
	}
	return registry[ProfileDefault], false
}

// Profiles lista los perfiles registrados, ordenados.
func Profiles() []string {
	registryMu.RLock()
	defer registryMu.RUnlock()
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
