package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	app "github.com/jhoicas/saphety-bridge/internal/application/saphety"
	"github.com/jhoicas/saphety-bridge/internal/domain/repository"
)

var _ app.ControlTxRunner = (*TxRunner)(nil)

// TxRunner ejecuta una función contra la tabla de control dentro de su propia
// transacción. Cada factura del lote se confirma por separado: el fallo de una
// nunca revierte las anteriores.
type TxRunner struct {
	pool   *pgxpool.Pool
	schema string
}

// NewTxRunner crea el runner sobre el pool y el esquema X3.
func NewTxRunner(pool *pgxpool.Pool, schema string) *TxRunner {
	return &TxRunner{pool: pool, schema: schema}
}

// Run abre la transacción, entrega un repositorio atado a ella y confirma si
// fn devuelve nil. El rollback diferido es inocuo tras el commit.
func (t *TxRunner) Run(ctx context.Context, fn func(ledger repository.ControlRepository) error) error {
	tx, err := t.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("abrir transacción: %w", err)
	}
	defer tx.Rollback(ctx)

	if err := fn(NewControlRepository(tx, t.schema)); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("confirmar transacción: %w", err)
	}
	return nil
}
