package saphety

import (
	"context"
	"errors"
	"time"

	"github.com/jhoicas/saphety-bridge/internal/domain/entity"
	"github.com/jhoicas/saphety-bridge/internal/domain/repository"
	"github.com/jhoicas/saphety-bridge/pkg/logger"
)

// ErrEmptyInvoiceNumber toda transición exige un número de factura.
var ErrEmptyInvoiceNumber = errors.New("número de factura vacío")

// Mensajes persistidos en la columna MSGAPI_0; en portugués porque los leen
// los usuarios del ERP.
const (
	msgXMLGenerated = "Ficheiro XML gerado"
	msgSentOK       = "Enviado com sucesso"
)

// ControlService transiciones con nombre sobre la tabla de control. Los
// métodos de escritura reciben el repositorio atado a la transacción del
// llamador; las consultas van contra la vista de candidatos con el pool.
type ControlService struct {
	queries repository.ControlQueryRepository
	log     *logger.Logger
}

// NewControlService construye el servicio de control.
func NewControlService(queries repository.ControlQueryRepository, log *logger.Logger) *ControlService {
	return &ControlService{queries: queries, log: log}
}

// MarkGenerated registra que el XML de la factura se generó con éxito.
// Crea el registro de control si no existe.
func (s *ControlService) MarkGenerated(ctx context.Context, ledger repository.ControlRepository, invoiceNumber, filePath string) error {
	if invoiceNumber == "" {
		return ErrEmptyInvoiceNumber
	}
	s.log.Info().Str("invoice", invoiceNumber).Str("file", filePath).Msg("marcar factura como XML generado")

	_, err := ledger.Upsert(ctx, invoiceNumber, repository.ControlPatch{
		Status:   ptr(entity.StatusWaiting),
		Filename: ptr(filePath),
		Message:  ptr(msgXMLGenerated),
	})
	return err
}

// LogProcessingError registra un fallo durante la generación del XML. El
// mensaje se trunca al límite de la columna.
func (s *ControlService) LogProcessingError(ctx context.Context, ledger repository.ControlRepository, invoiceNumber string, cause error) error {
	if invoiceNumber == "" {
		return ErrEmptyInvoiceNumber
	}
	s.log.Error().Str("invoice", invoiceNumber).Err(cause).Msg("registrar error de generación")

	_, err := ledger.Upsert(ctx, invoiceNumber, repository.ControlPatch{
		Status:  ptr(entity.StatusGenerationError),
		Message: ptr(cause.Error()),
	})
	return err
}

// MarkSent registra un envío aceptado por la API. Sobrescribe status, mensaje
// y fecha de envío del patch recibido; el resto de campos (requestStatus,
// requestId, financialId...) los aporta el llamador según la respuesta.
func (s *ControlService) MarkSent(ctx context.Context, ledger repository.ControlRepository, invoiceNumber string, patch repository.ControlPatch) error {
	if invoiceNumber == "" {
		return ErrEmptyInvoiceNumber
	}

	patch.Status = ptr(entity.StatusSentSuccessfully)
	patch.Message = ptr(msgSentOK)
	patch.SendDate = ptr(time.Now().UTC())

	_, err := ledger.Upsert(ctx, invoiceNumber, patch)
	return err
}

// LogSendingError registra un error devuelto por la API durante el envío.
// El mensaje de error viene en el patch del llamador.
func (s *ControlService) LogSendingError(ctx context.Context, ledger repository.ControlRepository, invoiceNumber string, patch repository.ControlPatch) error {
	if invoiceNumber == "" {
		return ErrEmptyInvoiceNumber
	}

	patch.Status = ptr(entity.StatusSentError)
	patch.SendDate = ptr(time.Now().UTC())

	_, err := ledger.Upsert(ctx, invoiceNumber, patch)
	return err
}

// UpdateIntegrationStatus vuelca tal cual el patch de estados de integración
// y notificación; no toca el status local.
func (s *ControlService) UpdateIntegrationStatus(ctx context.Context, ledger repository.ControlRepository, invoiceNumber string, patch repository.ControlPatch) error {
	if invoiceNumber == "" {
		return ErrEmptyInvoiceNumber
	}

	_, err := ledger.Upsert(ctx, invoiceNumber, patch)
	return err
}

// ── consultas sobre la vista de candidatos ────────────────────────────────────

// PendingInvoices facturas con XML generado pendientes de envío.
// invoiceNumber vacío trae todas.
func (s *ControlService) PendingInvoices(ctx context.Context, invoiceNumber string) ([]entity.ControlCandidate, error) {
	return s.queries.ListPending(ctx, invoiceNumber)
}

// InvoicesByRequestStatus facturas filtradas por estado del job asíncrono.
func (s *ControlService) InvoicesByRequestStatus(ctx context.Context, status entity.RequestStatus, invoiceNumber string) ([]entity.ControlCandidate, error) {
	return s.queries.ListByRequestStatus(ctx, status, invoiceNumber)
}

// InvoicesToVerify facturas enviadas cuya integración todavía no está
// confirmada por la red receptora.
func (s *ControlService) InvoicesToVerify(ctx context.Context, invoiceNumber string) ([]entity.ControlCandidate, error) {
	return s.queries.ListToVerify(ctx, invoiceNumber)
}

func ptr[T any](v T) *T { return &v }
