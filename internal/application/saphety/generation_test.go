package saphety_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/saphety-bridge/internal/application/saphety"
	"github.com/jhoicas/saphety-bridge/internal/domain/entity"
	"github.com/jhoicas/saphety-bridge/pkg/logger"
)

func newGeneration(invoices *fakeInvoices, builder *fakeBuilder, store *memStore, ledger *memLedger) *saphety.GenerationOrchestrator {
	control := saphety.NewControlService(nil, logger.Nop())
	tx := &memTx{ledger: ledger}
	return saphety.NewGenerationOrchestrator(invoices, builder, store, control, tx, logger.Nop())
}

// TestProcessPendingInvoices_GeneraYMarca el camino feliz: XML guardado con
// el nombre sanitizado y registro de control en WAITING.
func TestProcessPendingInvoices_GeneraYMarca(t *testing.T) {
	invoices := &fakeInvoices{invoices: []*entity.SalesInvoice{
		{InvoiceNumber: "FAT-2024/001"},
	}}
	store := newMemStore()
	ledger := newMemLedger()
	orch := newGeneration(invoices, &fakeBuilder{}, store, ledger)

	require.NoError(t, orch.ProcessPendingInvoices(context.Background(), ""))

	assert.Equal(t, []string{"FAT2024001.xml"}, store.saved)

	rec := ledger.records["FAT-2024/001"]
	require.NotNil(t, rec)
	assert.Equal(t, entity.StatusWaiting, rec.Status)
	assert.Equal(t, "/out/FAT2024001.xml", rec.Filename)
}

// TestProcessPendingInvoices_AislaFallos el fallo de una factura se anota
// como error de generación y no detiene el resto del lote.
func TestProcessPendingInvoices_AislaFallos(t *testing.T) {
	invoices := &fakeInvoices{invoices: []*entity.SalesInvoice{
		{InvoiceNumber: "FAC-001"},
		{InvoiceNumber: "FAC-002"},
		{InvoiceNumber: "FAC-003"},
	}}
	builder := &fakeBuilder{failFor: map[string]error{
		"FAC-002": errors.New("sociedad ZZ no encontrada"),
	}}
	store := newMemStore()
	ledger := newMemLedger()
	orch := newGeneration(invoices, builder, store, ledger)

	require.NoError(t, orch.ProcessPendingInvoices(context.Background(), ""))

	// las otras dos facturas siguieron su curso
	assert.Equal(t, entity.StatusWaiting, ledger.records["FAC-001"].Status)
	assert.Equal(t, entity.StatusWaiting, ledger.records["FAC-003"].Status)

	failed := ledger.records["FAC-002"]
	require.NotNil(t, failed, "el fallo también debe quedar registrado")
	assert.Equal(t, entity.StatusGenerationError, failed.Status)
	assert.Contains(t, failed.Message, "sociedad ZZ no encontrada")
	assert.Empty(t, failed.Filename, "una factura fallida no tiene fichero")
}

func TestProcessPendingInvoices_SinCandidatas(t *testing.T) {
	ledger := newMemLedger()
	orch := newGeneration(&fakeInvoices{}, &fakeBuilder{}, newMemStore(), ledger)

	require.NoError(t, orch.ProcessPendingInvoices(context.Background(), ""))
	assert.Zero(t, ledger.upserts)
}

// TestProcessPendingInvoices_FiltraPorFactura la ejecución bajo demanda desde
// la CLI limita el ciclo a una sola factura.
func TestProcessPendingInvoices_FiltraPorFactura(t *testing.T) {
	invoices := &fakeInvoices{invoices: []*entity.SalesInvoice{
		{InvoiceNumber: "FAC-001"},
		{InvoiceNumber: "FAC-002"},
	}}
	ledger := newMemLedger()
	orch := newGeneration(invoices, &fakeBuilder{}, newMemStore(), ledger)

	require.NoError(t, orch.ProcessPendingInvoices(context.Background(), "FAC-002"))

	assert.Len(t, ledger.records, 1)
	assert.NotNil(t, ledger.records["FAC-002"])
}
