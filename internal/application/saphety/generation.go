package saphety

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/jhoicas/saphety-bridge/internal/domain/ciuspt"
	"github.com/jhoicas/saphety-bridge/internal/domain/entity"
	"github.com/jhoicas/saphety-bridge/internal/domain/repository"
	"github.com/jhoicas/saphety-bridge/pkg/logger"
)

// GenerationOrchestrator recorre las facturas del ERP marcadas para Saphety
// que aún no tienen registro de control, genera su XML CIUS-PT y anota el
// resultado en la tabla de control. Un fallo en una factura se registra como
// GENERATION_ERROR y no detiene el resto del lote.
type GenerationOrchestrator struct {
	invoices repository.InvoiceRepository
	builder  DocumentBuilder
	store    DocumentStore
	control  *ControlService
	tx       ControlTxRunner
	log      *logger.Logger
}

// NewGenerationOrchestrator construye el orquestador de generación.
func NewGenerationOrchestrator(
	invoices repository.InvoiceRepository,
	builder DocumentBuilder,
	store DocumentStore,
	control *ControlService,
	tx ControlTxRunner,
	log *logger.Logger,
) *GenerationOrchestrator {
	return &GenerationOrchestrator{
		invoices: invoices,
		builder:  builder,
		store:    store,
		control:  control,
		tx:       tx,
		log:      log,
	}
}

// ProcessPendingInvoices ejecuta un ciclo de generación. invoiceNumber vacío
// procesa todas las facturas candidatas; con valor limita el ciclo a esa
// factura (ejecución bajo demanda desde la CLI).
func (o *GenerationOrchestrator) ProcessPendingInvoices(ctx context.Context, invoiceNumber string) error {
	zl := o.log.With().Str("job", "generacion").Str("run_id", uuid.NewString()).Logger()
	zl.Info().Msg("ciclo de generación iniciado")

	invoices, err := o.invoices.FetchPendingInvoices(ctx, invoiceNumber)
	if err != nil {
		return fmt.Errorf("buscar facturas pendientes: %w", err)
	}
	if len(invoices) == 0 {
		zl.Info().Msg("ninguna factura pendiente de generación")
		return nil
	}

	var generated, failed int
	for _, inv := range invoices {
		if err := o.processOne(ctx, inv); err != nil {
			failed++
			zl.Error().Err(err).Str("invoice", inv.InvoiceNumber).Msg("fallo al generar la factura")
			o.markError(ctx, inv.InvoiceNumber, err)
			continue
		}
		generated++
	}

	zl.Info().Int("generadas", generated).Int("fallidas", failed).Msg("ciclo de generación terminado")
	return nil
}

// processOne genera y persiste el XML de una factura y confirma el registro
// de control en su propia transacción.
func (o *GenerationOrchestrator) processOne(ctx context.Context, inv *entity.SalesInvoice) error {
	name := ciuspt.SanitizeFilename(inv.InvoiceNumber)

	doc, err := o.builder.Build(ctx, inv, name)
	if err != nil {
		return fmt.Errorf("construir XML: %w", err)
	}

	path, err := o.store.Save(doc, name+".xml")
	if err != nil {
		return fmt.Errorf("guardar XML: %w", err)
	}

	return o.tx.Run(ctx, func(ledger repository.ControlRepository) error {
		return o.control.MarkGenerated(ctx, ledger, inv.InvoiceNumber, path)
	})
}

// markError registra el fallo de una factura en su propia transacción. Si ni
// siquiera eso es posible, el log es el único rastro.
func (o *GenerationOrchestrator) markError(ctx context.Context, invoiceNumber string, cause error) {
	err := o.tx.Run(ctx, func(ledger repository.ControlRepository) error {
		return o.control.LogProcessingError(ctx, ledger, invoiceNumber, cause)
	})
	if err != nil {
		o.log.Error().Err(err).Str("invoice", invoiceNumber).Msg("no se pudo registrar el error de generación")
	}
}
