package postgres

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/jhoicas/Inventario-rooftop/internal/domain/entity"
	"github.com/jhoicas/Inventario-rooftop/internal/domain/repository"
)

var _ repository.LedgerStore = (*LedgerStore)(nil)

// LedgerStore escritura condicional de ítems + alta del movimiento en una sola transacción.
type LedgerStore struct {
	tx    *TxRunner
	state *InventoryStateRepo
	items *InventoryItemRepo
}

// NewLedgerStore construye el store transaccional del motor de movimientos.
func NewLedgerStore(pool Querier, tx *TxRunner) *LedgerStore {
	return &LedgerStore{
		tx:    tx,
		state: NewInventoryStateRepository(pool, tx),
		items: NewInventoryItemRepository(pool, tx),
	}
}

// InventoryState lectura del estado actual.
func (s *LedgerStore) InventoryState(ctx context.Context) (*entity.InventoryState, error) {
	return s.state.Get(ctx)
}

// GetItem lectura del ítem o (nil, nil).
func (s *LedgerStore) GetItem(ctx context.Context, id string) (*entity.InventoryItem, error) {
	return s.items.GetByID(ctx, id)
}

// CommitMovement toma el estado FOR SHARE (un cierre en curso lo bloquea), actualiza el ítem
// solo si version = expectedVersion y agrega el movimiento. now() es constante dentro de la
// transacción, así el ítem y el movimiento comparten la hora del servidor.
func (s *LedgerStore) CommitMovement(ctx context.Context, item *entity.InventoryItem, expectedVersion int64, mov *entity.Movement) (*entity.InventoryItem, *entity.Movement, error) {
	var (
		outItem *entity.InventoryItem
		outMov  *entity.Movement
	)
	err := s.tx.Run(ctx, func(q Querier) error {
		if err := ensureOpenTx(ctx, q); err != nil {
			return err
		}

		query := `
			UPDATE inventory_items
			SET bodega = $2, cocina = $3, ingreso = $4, salida = $5, responsable = $6, observations = $7,
				version = version + 1, last_updated = now()
			WHERE id = $1 AND version = $8
			RETURNING ` + itemColumns
		updated, err := scanItem(q.QueryRow(ctx, query,
			item.ID, item.Bodega, item.Cocina, item.Ingreso, item.Salida, item.Responsable, item.Observations,
			expectedVersion,
		))
		if errors.Is(err, pgx.ErrNoRows) {
			return missingOrConflict(ctx, q, item.ID)
		}
		if err != nil {
			return storeErr("update item stock", err)
		}

		m := *mov
		m.ID = uuid.New().String()
		m.Timestamp = updated.LastUpdated
		if err := insertMovement(ctx, q, &m); err != nil {
			return err
		}
		outItem, outMov = updated, &m
		return nil
	})
	if err != nil {
		return nil, nil, err
	}
	return outItem, outMov, nil
}
