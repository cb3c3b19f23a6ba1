package saphety

import (
	"context"
	"fmt"

	"github.com/jhoicas/saphety-bridge/internal/domain/entity"
	"github.com/jhoicas/saphety-bridge/internal/domain/repository"
	saphetyapi "github.com/jhoicas/saphety-bridge/internal/infrastructure/saphety"
	"github.com/jhoicas/saphety-bridge/pkg/logger"
)

// CheckAll valor centinela de la CLI: verificar todas las facturas en lugar
// de una concreta.
const CheckAll = "CHECK_ALL"

// StatusCheckOrchestrator consulta en la red Saphety el estado de integración
// de las facturas ya procesadas (job FINISHED) cuya recepción todavía no está
// confirmada, y vuelca los estados devueltos en el registro de control.
type StatusCheckOrchestrator struct {
	control *ControlService
	auth    AuthClient
	api     APIClient
	tx      ControlTxRunner
	creds   Credentials
	log     *logger.Logger
}

// NewStatusCheckOrchestrator construye el orquestador de verificación.
func NewStatusCheckOrchestrator(
	control *ControlService,
	auth AuthClient,
	api APIClient,
	tx ControlTxRunner,
	creds Credentials,
	log *logger.Logger,
) *StatusCheckOrchestrator {
	return &StatusCheckOrchestrator{
		control: control,
		auth:    auth,
		api:     api,
		tx:      tx,
		creds:   creds,
		log:     log,
	}
}

// VerifyInvoiceStatus ejecuta un ciclo de verificación. invoiceNumber vacío o
// CheckAll verifica todas las facturas candidatas. Primero reconsulta los jobs
// todavía en cola o corriendo, de modo que una factura que terminó de
// procesarse entra en la verificación de integración de la misma pasada.
func (o *StatusCheckOrchestrator) VerifyInvoiceStatus(ctx context.Context, invoiceNumber string) error {
	if invoiceNumber == CheckAll {
		invoiceNumber = ""
	}

	inFlight, err := o.inFlightJobs(ctx, invoiceNumber)
	if err != nil {
		return fmt.Errorf("buscar jobs en curso: %w", err)
	}
	sent, err := o.control.InvoicesToVerify(ctx, invoiceNumber)
	if err != nil {
		return fmt.Errorf("buscar facturas por verificar: %w", err)
	}
	if len(inFlight) == 0 && len(sent) == 0 {
		o.log.Info().Msg("ninguna factura enviada pendiente de verificación")
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

	if len(inFlight) > 0 {
		o.repollJobs(ctx, token, inFlight)
		// los jobs recién terminados entran en la verificación de esta pasada
		if sent, err = o.control.InvoicesToVerify(ctx, invoiceNumber); err != nil {
			return fmt.Errorf("buscar facturas por verificar: %w", err)
		}
	}

	for _, cand := range sent {
		resp := o.api.IntegrationStatus(ctx, token, cand.FinancialID)
		if resp.IsValid {
			o.log.Info().Str("invoice", cand.InvoiceNumber).Msg("estado de integración consultado")
		} else {
			o.log.Error().Str("invoice", cand.InvoiceNumber).Str("errors", resp.JoinedErrors()).Msg("error al verificar la factura")
		}

		if err := o.applyStatus(ctx, cand.InvoiceNumber, resp); err != nil {
			o.log.Error().Err(err).Str("invoice", cand.InvoiceNumber).Msg("no se pudo actualizar el registro de control")
		}
	}
	return nil
}

// inFlightJobs facturas cuyo job asíncrono sigue en cola o corriendo en la
// red Saphety.
func (o *StatusCheckOrchestrator) inFlightJobs(ctx context.Context, invoiceNumber string) ([]entity.ControlCandidate, error) {
	queued, err := o.control.InvoicesByRequestStatus(ctx, entity.RequestQueued, invoiceNumber)
	if err != nil {
		return nil, err
	}
	running, err := o.control.InvoicesByRequestStatus(ctx, entity.RequestRunning, invoiceNumber)
	if err != nil {
		return nil, err
	}
	return append(queued, running...), nil
}

// repollJobs reconsulta los jobs en curso y vuelca cada transición en su
// propia transacción. Un registro sin requestId nunca llegó a enviarse y se
// omite; un fallo de la consulta se registra sin tocar el registro, para no
// marcar como error un job que sigue vivo.
func (o *StatusCheckOrchestrator) repollJobs(ctx context.Context, token string, jobs []entity.ControlCandidate) {
	for _, cand := range jobs {
		if cand.RequestID == "" {
			continue
		}

		resp := o.api.RequestStatus(ctx, token, cand.RequestID)
		if !resp.IsValid {
			o.log.Error().Str("invoice", cand.InvoiceNumber).Str("errors", resp.JoinedErrors()).Msg("error al reconsultar el job")
			continue
		}
		data, ok := resp.AsyncData()
		if !ok {
			continue
		}

		err := o.tx.Run(ctx, func(ledger repository.ControlRepository) error {
			return applyAsyncTransition(ctx, o.control, o.log, ledger, cand.InvoiceNumber, data)
		})
		if err != nil {
			o.log.Error().Err(err).Str("invoice", cand.InvoiceNumber).Msg("no se pudo actualizar el registro de control")
		}
	}
}

// applyStatus vuelca los estados de integración y notificación devueltos por
// la API. Los valores no reconocidos se ignoran campo a campo: un estado
// nuevo del lado Saphety no debe corromper el registro.
func (o *StatusCheckOrchestrator) applyStatus(ctx context.Context, invoiceNumber string, resp *saphetyapi.Response) error {
	data, ok := resp.IntegrationData()
	if !ok {
		return nil
	}

	patch := repository.ControlPatch{RequestID: ptr(resp.CorrelationID)}

	if ns, ok := entity.ParseNotificationStatus(data.NotificationStatus); ok {
		patch.NotificationStatus = &ns
	}
	if is, ok := entity.ParseIntegrationStatus(data.IntegrationStatus); ok {
		patch.IntegrationStatus = &is
	}

	return o.tx.Run(ctx, func(ledger repository.ControlRepository) error {
		return o.control.MarkSent(ctx, ledger, invoiceNumber, patch)
	})
}
