package saphety

import (
	"context"
	"fmt"
	"strings"

	"github.com/jhoicas/saphety-bridge/internal/domain/entity"
	"github.com/jhoicas/saphety-bridge/internal/domain/repository"
	saphetyapi "github.com/jhoicas/saphety-bridge/internal/infrastructure/saphety"
	"github.com/jhoicas/saphety-bridge/pkg/logger"
)

// SubmissionOrchestrator envía a la API Saphety los XML ya generados y
// traduce la respuesta a transiciones del registro de control. Un solo login
// cubre todo el lote (el token dura una hora); cada factura confirma sus
// cambios en su propia transacción.
type SubmissionOrchestrator struct {
	control *ControlService
	store   DocumentStore
	auth    AuthClient
	api     APIClient
	tx      ControlTxRunner
	creds   Credentials
	log     *logger.Logger
}

// NewSubmissionOrchestrator construye el orquestador de envío.
func NewSubmissionOrchestrator(
	control *ControlService,
	store DocumentStore,
	auth AuthClient,
	api APIClient,
	tx ControlTxRunner,
	creds Credentials,
	log *logger.Logger,
) *SubmissionOrchestrator {
	return &SubmissionOrchestrator{
		control: control,
		store:   store,
		auth:    auth,
		api:     api,
		tx:      tx,
		creds:   creds,
		log:     log,
	}
}

// SendPendingInvoices ejecuta un ciclo de envío sobre las facturas en estado
// WAITING. invoiceNumber vacío envía todas las pendientes.
func (o *SubmissionOrchestrator) SendPendingInvoices(ctx context.Context, invoiceNumber string) error {
	pending, err := o.control.PendingInvoices(ctx, invoiceNumber)
	if err != nil {
		return fmt.Errorf("buscar facturas pendientes de envío: %w", err)
	}
	if len(pending) == 0 {
		o.log.Info().Msg("ninguna factura pendiente de envío")
		return nil
	}

	token, err := o.auth.Login(ctx, o.creds.Username, o.creds.Password)
	if err != nil {
		return fmt.Errorf("autenticación Saphety: %w", err)
	}
	defer func() {
		if err := o.auth.Logout(ctx, token); err != nil {
			o.log.Warn().Err(err).Msg("no se pudo cerrar la sesión Saphety")
		}
	}()

	for _, cand := range pending {
		resp := o.submitOne(ctx, token, cand)
		if err := o.applyResponse(ctx, cand.InvoiceNumber, resp); err != nil {
			o.log.Error().Err(err).Str("invoice", cand.InvoiceNumber).Msg("no se pudo actualizar el registro de control")
		}
	}
	return nil
}

// submitOne envía el XML de una factura y devuelve la respuesta que decide
// su transición: la del polling inmediato si el envío fue aceptado, o la
// respuesta de error en caso contrario. Nunca devuelve nil.
func (o *SubmissionOrchestrator) submitOne(ctx context.Context, token string, cand entity.ControlCandidate) *saphetyapi.Response {
	xml, err := o.store.Read(cand.Filename)
	if err != nil {
		o.log.Info().Str("invoice", cand.InvoiceNumber).Str("file", cand.Filename).Msg("fichero XML no encontrado")
		return saphetyapi.ErrorResponse("", "Ficheiro XML não encontrado.")
	}

	resp := o.api.ProcessDocument(ctx, token, cand.Sender, cand.Category.DocumentType(), xml)
	if !resp.IsValid {
		o.log.Error().Str("invoice", cand.InvoiceNumber).Str("errors", resp.JoinedErrors()).Msg("error al enviar la factura")
		return resp
	}

	requestID, ok := resp.StringData()
	if !ok || requestID == "" {
		return resp
	}

	status := o.api.RequestStatus(ctx, token, requestID)
	if status.IsValid {
		o.log.Info().Str("invoice", cand.InvoiceNumber).Str("request_id", requestID).Msg("factura enviada con éxito")
	} else {
		o.log.Error().Str("invoice", cand.InvoiceNumber).Str("errors", status.JoinedErrors()).Msg("error al consultar el estado del envío")
	}
	return status
}

// applyResponse interpreta la respuesta y confirma la transición en su propia
// transacción. Los errores de nivel superior mandan sobre cualquier Data,
// estructurado o plano; sin errores, el Data estructurado vuelca el estado del
// job y el Data plano deja el envío en cola.
func (o *SubmissionOrchestrator) applyResponse(ctx context.Context, invoiceNumber string, resp *saphetyapi.Response) error {
	return o.tx.Run(ctx, func(ledger repository.ControlRepository) error {
		if len(resp.Errors) > 0 {
			return o.control.LogSendingError(ctx, ledger, invoiceNumber, repository.ControlPatch{
				RequestStatus: ptr(entity.RequestError),
				Message:       ptr(resp.JoinedErrors()),
			})
		}
		if data, ok := resp.AsyncData(); ok {
			return applyAsyncTransition(ctx, o.control, o.log, ledger, invoiceNumber, data)
		}
		if _, ok := resp.StringData(); ok {
			return o.control.MarkSent(ctx, ledger, invoiceNumber, repository.ControlPatch{
				RequestStatus: ptr(entity.RequestQueued),
			})
		}
		return nil
	})
}

// applyAsyncTransition vuelca el estado de un job asíncrono sobre el registro
// de control. Lo comparten el envío (polling inmediato) y la verificación
// (re-polling de jobs en cola).
func applyAsyncTransition(ctx context.Context, control *ControlService, log *logger.Logger, ledger repository.ControlRepository, invoiceNumber string, data *saphetyapi.AsyncData) error {
	status, ok := entity.ParseRequestStatus(data.AsyncStatus)
	if !ok {
		log.Warn().Str("invoice", invoiceNumber).Str("async_status", data.AsyncStatus).Msg("estado asíncrono no reconocido")
		return nil
	}

	patch := repository.ControlPatch{
		RequestStatus: &status,
		RequestID:     ptr(data.CorrelationID),
	}

	switch status {
	case entity.RequestFinished:
		patch.FinancialID = ptr(data.OutboundFinancialDocumentID)
		return control.MarkSent(ctx, ledger, invoiceNumber, patch)
	case entity.RequestError:
		patch.Message = ptr(strings.Join(data.Errors, ", "))
		return control.LogSendingError(ctx, ledger, invoiceNumber, patch)
	default:
		// Queued o Running: el job sigue vivo en la red
		return control.MarkSent(ctx, ledger, invoiceNumber, patch)
	}
}
