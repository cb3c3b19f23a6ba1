package repository

import (
	"context"
	"time"

	"github.com/jhoicas/saphety-bridge/internal/domain/entity"
)

// ControlPatch es la actualización dispersa de un registro de control: cada
// campo en nil se deja como está; cada campo con valor sobrescribe la columna
// (last-write-wins por campo).
type ControlPatch struct {
	Status             *entity.Status
	RequestStatus      *entity.RequestStatus
	IntegrationStatus  *entity.IntegrationStatus
	NotificationStatus *entity.NotificationStatus
	Filename           *string
	Message            *string
	SendDate           *time.Time
	RequestID          *string
	FinancialID        *string
}

// Apply vuelca sobre rec los campos presentes del patch. El mensaje se
// trunca siempre a entity.MaxMessageLen. Es la única lógica de merge del
// upsert: aplicar dos veces el mismo patch deja el registro igual.
func (p ControlPatch) Apply(rec *entity.ControlRecord) {
	if p.Status != nil {
		rec.Status = *p.Status
	}
	if p.RequestStatus != nil {
		rec.RequestStatus = *p.RequestStatus
	}
	if p.IntegrationStatus != nil {
		rec.IntegrationStatus = *p.IntegrationStatus
	}
	if p.NotificationStatus != nil {
		rec.NotificationStatus = *p.NotificationStatus
	}
	if p.Filename != nil {
		rec.Filename = *p.Filename
	}
	if p.Message != nil {
		rec.Message = entity.TruncateMessage(*p.Message)
	}
	if p.SendDate != nil {
		rec.SendDate = *p.SendDate
	}
	if p.RequestID != nil {
		rec.RequestID = *p.RequestID
	}
	if p.FinancialID != nil {
		rec.FinancialID = *p.FinancialID
	}
}

// ControlRepository acceso de escritura a la tabla de control YSAPHCTL.
// Una implementación atada a una transacción solo prepara los cambios; el
// commit lo hace quien abrió la transacción.
type ControlRepository interface {
	// GetByInvoiceNumber devuelve nil, nil si no existe registro.
	GetByInvoiceNumber(ctx context.Context, invoiceNumber string) (*entity.ControlRecord, error)
	// Upsert crea el registro si no existe (defaults de esquema + patch) o
	// actualiza solo los campos presentes del patch si ya existe. Nunca
	// produce duplicados para el mismo número de factura.
	Upsert(ctx context.Context, invoiceNumber string, patch ControlPatch) (*entity.ControlRecord, error)
}

// ControlQueryRepository acceso de lectura sobre la vista de candidatos
// YVWSAPHCTL (registro de control + columnas de la factura).
type ControlQueryRepository interface {
	// ListPending registros con status=WAITING, opcionalmente filtrados a
	// una factura.
	ListPending(ctx context.Context, invoiceNumber string) ([]entity.ControlCandidate, error)
	// ListByRequestStatus registros con un requestStatus concreto.
	ListByRequestStatus(ctx context.Context, status entity.RequestStatus, invoiceNumber string) ([]entity.ControlCandidate, error)
	// ListToVerify registros con requestStatus=FINISHED cuya integración aún
	// no está confirmada (integrationStatus<>RECEIVED).
	ListToVerify(ctx context.Context, invoiceNumber string) ([]entity.ControlCandidate, error)
}
