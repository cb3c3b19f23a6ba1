package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/jhoicas/saphety-bridge/internal/domain/entity"
	"github.com/jhoicas/saphety-bridge/internal/domain/repository"
)

var _ repository.ControlQueryRepository = (*ControlViewRepo)(nil)

// Columnas comunes de la vista de candidatos. La vista YVWSAPHCTL une la
// tabla de control con SINVOICEV para exponer el emisor, el receptor y la
// categoría sin que los jobs tengan que volver a leer las tablas de venta.
const candidateColumns = `
	INVNUM_0, INVTYP_0, INVDAT_0, FICHIER_0, SNDDAT_0, MSGAPI_0,
	STAAPI_0, STAREQ_0, STAINT_0, STANOT_0,
	REQUESTID_0, OUTFINID_0, CPY_0, SENDER_0, RECEIVER_0, BPCNUM_0`

// ControlViewRepo lectura de candidatos sobre la vista YVWSAPHCTL.
type ControlViewRepo struct {
	q      Querier
	schema string
}

func NewControlViewRepository(q Querier, schema string) *ControlViewRepo {
	return &ControlViewRepo{q: q, schema: schema}
}

// ListPending registros a la espera de envío (status=WAITING).
func (r *ControlViewRepo) ListPending(ctx context.Context, invoiceNumber string) ([]entity.ControlCandidate, error) {
	query := fmt.Sprintf(`
		SELECT %s
		FROM %s.YVWSAPHCTL
		WHERE STAAPI_0 = $1`, candidateColumns, r.schema)
	args := []any{entity.StatusWaiting}
	if invoiceNumber != "" {
		query += " AND INVNUM_0 = $2"
		args = append(args, invoiceNumber)
	}
	query += " ORDER BY INVNUM_0"
	return r.list(ctx, query, args...)
}

// ListByRequestStatus registros con un estado de petición concreto.
func (r *ControlViewRepo) ListByRequestStatus(ctx context.Context, status entity.RequestStatus, invoiceNumber string) ([]entity.ControlCandidate, error) {
	query := fmt.Sprintf(`
		SELECT %s
		FROM %s.YVWSAPHCTL
		WHERE STAREQ_0 = $1`, candidateColumns, r.schema)
	args := []any{status}
	if invoiceNumber != "" {
		query += " AND INVNUM_0 = $2"
		args = append(args, invoiceNumber)
	}
	query += " ORDER BY INVNUM_0"
	return r.list(ctx, query, args...)
}

// ListToVerify registros ya procesados por la red (requestStatus=FINISHED)
// cuya integración todavía no consta como recibida.
func (r *ControlViewRepo) ListToVerify(ctx context.Context, invoiceNumber string) ([]entity.ControlCandidate, error) {
	query := fmt.Sprintf(`
		SELECT %s
		FROM %s.YVWSAPHCTL
		WHERE STAREQ_0 = $1 AND STAINT_0 <> $2`, candidateColumns, r.schema)
	args := []any{entity.RequestFinished, entity.IntegrationReceived}
	if invoiceNumber != "" {
		query += " AND INVNUM_0 = $3"
		args = append(args, invoiceNumber)
	}
	query += " ORDER BY INVNUM_0"
	return r.list(ctx, query, args...)
}

func (r *ControlViewRepo) list(ctx context.Context, query string, args ...any) ([]entity.ControlCandidate, error) {
	rows, err := r.q.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("error al consultar la vista de control: %w", err)
	}
	defer rows.Close()

	var candidates []entity.ControlCandidate
	for rows.Next() {
		cand, err := scanCandidate(rows)
		if err != nil {
			return nil, err
		}
		candidates = append(candidates, cand)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error al recorrer la vista de control: %w", err)
	}
	return candidates, nil
}

func scanCandidate(row pgx.Row) (entity.ControlCandidate, error) {
	var cand entity.ControlCandidate
	err := row.Scan(
		&cand.InvoiceNumber,
		&cand.Category,
		&cand.InvoiceDate,
		&cand.Filename,
		&cand.SendDate,
		&cand.Message,
		&cand.Status,
		&cand.RequestStatus,
		&cand.IntegrationStatus,
		&cand.NotificationStatus,
		&cand.RequestID,
		&cand.FinancialID,
		&cand.Company,
		&cand.Sender,
		&cand.Receiver,
		&cand.Customer,
	)
	if err != nil {
		return entity.ControlCandidate{}, fmt.Errorf("error al escanear el candidato: %w", err)
	}
	return cand, nil
}
