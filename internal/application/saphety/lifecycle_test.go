package saphety_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/saphety-bridge/internal/application/saphety"
	"github.com/jhoicas/saphety-bridge/internal/domain/entity"
	saphetyapi "github.com/jhoicas/saphety-bridge/internal/infrastructure/saphety"
	"github.com/jhoicas/saphety-bridge/pkg/logger"
)

// TestCicloCompleto_GeneracionEnvioVerificacion los tres orquestadores
// encadenados sobre la misma tabla de control: la factura arranca en WAITING
// con su XML generado, el envío la deja enviada con el job en cola, y la
// verificación reconsulta el job hasta FINISHED y confirma la recepción en la
// red receptora, todo leyendo cada ciclo lo que confirmó el anterior.
func TestCicloCompleto_GeneracionEnvioVerificacion(t *testing.T) {
	ledger := newMemLedger()
	queries := &ledgerQueries{ledger: ledger}
	tx := &memTx{ledger: ledger}
	store := newMemStore()
	control := saphety.NewControlService(queries, logger.Nop())
	ctx := context.Background()

	// 1. generación: XML en el almacén y registro de control en WAITING
	invoices := &fakeInvoices{invoices: []*entity.SalesInvoice{
		{InvoiceNumber: "FAT-2024/042"},
	}}
	gen := saphety.NewGenerationOrchestrator(invoices, &fakeBuilder{}, store, control, tx, logger.Nop())
	require.NoError(t, gen.ProcessPendingInvoices(ctx, ""))

	rec := ledger.records["FAT-2024/042"]
	require.NotNil(t, rec)
	require.Equal(t, entity.StatusWaiting, rec.Status)
	require.Equal(t, "/out/FAT2024042.xml", rec.Filename)

	// 2. envío: aceptado, con el polling inmediato devolviendo el job aún en
	// cola; las reconsultas siguientes lo dan por terminado
	polls := 0
	api := &fakeAPI{
		processFn: func(string, string, []byte) *saphetyapi.Response {
			return validResponse("corr-0", `"req-1"`)
		},
		statusFn: func(string) *saphetyapi.Response {
			polls++
			if polls == 1 {
				return validResponse("corr-0", `{"CorrelationId": "req-1", "AsyncStatus": "Queued"}`)
			}
			return validResponse("corr-0", `{
				"CorrelationId": "req-1",
				"AsyncStatus": "Finished",
				"OutboundFinancialDocumentId": "fin-7"
			}`)
		},
		integrationFn: func(string) *saphetyapi.Response {
			return validResponse("corr-5", `{
				"IntegrationStatus": "Received",
				"NotificationStatus": "delivered"
			}`)
		},
	}
	auth := &fakeAuth{token: "tok-1"}
	creds := saphety.Credentials{Username: "u", Password: "p"}
	send := saphety.NewSubmissionOrchestrator(control, store, auth, api, tx, creds, logger.Nop())
	require.NoError(t, send.SendPendingInvoices(ctx, ""))

	rec = ledger.records["FAT-2024/042"]
	require.Equal(t, entity.StatusSentSuccessfully, rec.Status)
	require.Equal(t, entity.RequestQueued, rec.RequestStatus)
	require.Equal(t, "req-1", rec.RequestID)

	// 3. verificación: reconsulta el job en cola, lo da por terminado y
	// confirma la integración en la misma pasada
	check := saphety.NewStatusCheckOrchestrator(control, auth, api, tx, creds, logger.Nop())
	require.NoError(t, check.VerifyInvoiceStatus(ctx, ""))

	rec = ledger.records["FAT-2024/042"]
	assert.Equal(t, entity.StatusSentSuccessfully, rec.Status)
	assert.Equal(t, entity.RequestFinished, rec.RequestStatus)
	assert.Equal(t, "fin-7", rec.FinancialID)
	assert.Equal(t, entity.IntegrationReceived, rec.IntegrationStatus)
	assert.Equal(t, entity.NotificationDelivered, rec.NotificationStatus)
}
