package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/jhoicas/saphety-bridge/internal/domain/entity"
	"github.com/jhoicas/saphety-bridge/internal/domain/repository"
)

var _ repository.ControlRepository = (*ControlRepo)(nil)

// ControlRepo acceso de escritura a la tabla de control YSAPHCTL. Acepta el
// pool o una transacción vía Querier; el TxRunner construye una instancia
// atada a la transacción de cada factura.
type ControlRepo struct {
	q      Querier
	schema string
}

// NewControlRepository crea el repositorio sobre el esquema X3 indicado.
func NewControlRepository(q Querier, schema string) *ControlRepo {
	return &ControlRepo{q: q, schema: schema}
}

// GetByInvoiceNumber devuelve nil, nil si la factura no tiene registro.
func (r *ControlRepo) GetByInvoiceNumber(ctx context.Context, invoiceNumber string) (*entity.ControlRecord, error) {
	query := fmt.Sprintf(`
		SELECT INVNUM_0, STAAPI_0, STAREQ_0, STAINT_0, STANOT_0,
		       FICHIER_0, MSGAPI_0, SNDDAT_0, REQUESTID_0, OUTFINID_0,
		       CREDATTIM_0, UPDDATTIM_0
		FROM %s.YSAPHCTL
		WHERE INVNUM_0 = $1`, r.schema)

	var rec entity.ControlRecord
	err := r.q.QueryRow(ctx, query, invoiceNumber).Scan(
		&rec.InvoiceNumber,
		&rec.Status,
		&rec.RequestStatus,
		&rec.IntegrationStatus,
		&rec.NotificationStatus,
		&rec.Filename,
		&rec.Message,
		&rec.SendDate,
		&rec.RequestID,
		&rec.FinancialID,
		&rec.CreatedAt,
		&rec.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("error al leer el registro de control %s: %w", invoiceNumber, err)
	}
	return &rec, nil
}

// Upsert crea o actualiza el registro de la factura aplicando solo los campos
// presentes del patch. El merge vive en ControlPatch.Apply; aquí solo se
// decide INSERT o UPDATE según exista la fila.
func (r *ControlRepo) Upsert(ctx context.Context, invoiceNumber string, patch repository.ControlPatch) (*entity.ControlRecord, error) {
	rec, err := r.GetByInvoiceNumber(ctx, invoiceNumber)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	if rec == nil {
		rec = entity.NewControlRecord(invoiceNumber)
		patch.Apply(rec)
		rec.CreatedAt = now
		rec.UpdatedAt = now
		if rec.SendDate.IsZero() {
			rec.SendDate = entity.DefaultLegacyDate
		}
		if err := r.insert(ctx, rec); err != nil {
			return nil, err
		}
		return rec, nil
	}

	patch.Apply(rec)
	rec.UpdatedAt = now
	if err := r.update(ctx, rec); err != nil {
		return nil, err
	}
	return rec, nil
}

func (r *ControlRepo) insert(ctx context.Context, rec *entity.ControlRecord) error {
	query := fmt.Sprintf(`
		INSERT INTO %s.YSAPHCTL (
			INVNUM_0, STAAPI_0, STAREQ_0, STAINT_0, STANOT_0,
			FICHIER_0, MSGAPI_0, SNDDAT_0, REQUESTID_0, OUTFINID_0,
			CREDATTIM_0, UPDDATTIM_0
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`, r.schema)

	_, err := r.q.Exec(ctx, query,
		rec.InvoiceNumber,
		rec.Status,
		rec.RequestStatus,
		rec.IntegrationStatus,
		rec.NotificationStatus,
		rec.Filename,
		rec.Message,
		rec.SendDate,
		rec.RequestID,
		rec.FinancialID,
		rec.CreatedAt,
		rec.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("registro de control duplicado para %s: %w", rec.InvoiceNumber, err)
		}
		return fmt.Errorf("error al insertar el registro de control %s: %w", rec.InvoiceNumber, err)
	}
	return nil
}

func (r *ControlRepo) update(ctx context.Context, rec *entity.ControlRecord) error {
	query := fmt.Sprintf(`
		UPDATE %s.YSAPHCTL SET
			STAAPI_0 = $2, STAREQ_0 = $3, STAINT_0 = $4, STANOT_0 = $5,
			FICHIER_0 = $6, MSGAPI_0 = $7, SNDDAT_0 = $8,
			REQUESTID_0 = $9, OUTFINID_0 = $10, UPDDATTIM_0 = $11
		WHERE INVNUM_0 = $1`, r.schema)

	tag, err := r.q.Exec(ctx, query,
		rec.InvoiceNumber,
		rec.Status,
		rec.RequestStatus,
		rec.IntegrationStatus,
		rec.NotificationStatus,
		rec.Filename,
		rec.Message,
		rec.SendDate,
		rec.RequestID,
		rec.FinancialID,
		rec.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("error al actualizar el registro de control %s: %w", rec.InvoiceNumber, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("el registro de control %s desapareció durante la actualización", rec.InvoiceNumber)
	}
	return nil
}
