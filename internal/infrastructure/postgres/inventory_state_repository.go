package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/jhoicas/Inventario-rooftop/internal/domain"
	"github.com/jhoicas/Inventario-rooftop/internal/domain/entity"
	"github.com/jhoicas/Inventario-rooftop/internal/domain/repository"
)

var _ repository.InventoryStateRepository = (*InventoryStateRepo)(nil)

// InventoryStateRepo ciclo de vida del inventario. Cerrar y reabrir toman el estado
// FOR UPDATE, lo que espera a las escrituras de ítems en curso y bloquea las nuevas.
type InventoryStateRepo struct {
	q  Querier
	tx *TxRunner
}

// NewInventoryStateRepository construye el adaptador.
func NewInventoryStateRepository(q Querier, tx *TxRunner) *InventoryStateRepo {
	return &InventoryStateRepo{q: q, tx: tx}
}

const stateColumns = `is_closed, updated_at, updated_by, version`

func scanState(row rowScanner) (*entity.InventoryState, error) {
	var st entity.InventoryState
	if err := row.Scan(&st.IsClosed, &st.UpdatedAt, &st.UpdatedBy, &st.Version); err != nil {
		return nil, err
	}
	return &st, nil
}

// Get devuelve el estado. La fila la crea el esquema; si falta se considera abierto.
func (r *InventoryStateRepo) Get(ctx context.Context) (*entity.InventoryState, error) {
	st, err := scanState(r.q.QueryRow(ctx, `SELECT `+stateColumns+` FROM inventory_state WHERE id = 1`))
	if errors.Is(err, pgx.ErrNoRows) {
		return &entity.InventoryState{}, nil
	}
	if err != nil {
		return nil, storeErr("get inventory state", err)
	}
	return st, nil
}

func lockState(ctx context.Context, q Querier) (*entity.InventoryState, error) {
	st, err := scanState(q.QueryRow(ctx, `SELECT `+stateColumns+` FROM inventory_state WHERE id = 1 FOR UPDATE`))
	if err != nil {
		return nil, storeErr("lock inventory state", err)
	}
	return st, nil
}

// Close copia todos los ítems a un snapshot y marca cerrado, en una transacción.
func (r *InventoryStateRepo) Close(ctx context.Context, actor string) (*entity.InventorySnapshot, error) {
	var snap *entity.InventorySnapshot
	err := r.tx.Run(ctx, func(q Querier) error {
		st, err := lockState(ctx, q)
		if err != nil {
			return err
		}
		if st.IsClosed {
			return fmt.Errorf("%w: el inventario ya está cerrado", domain.ErrConflict)
		}

		rows, err := q.Query(ctx, `SELECT `+itemColumns+` FROM inventory_items ORDER BY lower(name), id`)
		if err != nil {
			return storeErr("leer items para snapshot", err)
		}
		items, err := collectItems(rows)
		if err != nil {
			return err
		}

		snap = &entity.InventorySnapshot{
			ID:        uuid.New().String(),
			Items:     make([]entity.InventoryItem, 0, len(items)),
			CreatedBy: actor,
		}
		for _, it := range items {
			snap.Items = append(snap.Items, *it)
		}
		payload, err := json.Marshal(snapshotItemsToJSON(snap.Items))
		if err != nil {
			return fmt.Errorf("serializar snapshot: %w", err)
		}
		err = q.QueryRow(ctx, `
			INSERT INTO inventory_snapshots (id, items, created_by, created_at)
			VALUES ($1, $2, $3, now())
			RETURNING created_at`, snap.ID, payload, actor).Scan(&snap.CreatedAt)
		if err != nil {
			return storeErr("insert snapshot", err)
		}

		_, err = q.Exec(ctx, `
			UPDATE inventory_state
			SET is_closed = true, updated_at = now(), updated_by = $1, version = version + 1
			WHERE id = 1`, actor)
		if err != nil {
			return storeErr("cerrar inventario", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return snap, nil
}

// Reopen reinicia ingreso, salida y observaciones de todos los ítems y marca abierto.
func (r *InventoryStateRepo) Reopen(ctx context.Context, actor string) (*entity.InventoryState, error) {
	var out *entity.InventoryState
	err := r.tx.Run(ctx, func(q Querier) error {
		st, err := lockState(ctx, q)
		if err != nil {
			return err
		}
		if !st.IsClosed {
			return fmt.Errorf("%w: el inventario no está cerrado", domain.ErrConflict)
		}
		_, err = q.Exec(ctx, `
			UPDATE inventory_items
			SET ingreso = 0, salida = 0, observations = NULL, version = version + 1`)
		if err != nil {
			return storeErr("reiniciar acumulados", err)
		}
		out, err = scanState(q.QueryRow(ctx, `
			UPDATE inventory_state
			SET is_closed = false, updated_at = now(), updated_by = $1, version = version + 1
			WHERE id = 1
			RETURNING `+stateColumns, actor))
		if err != nil {
			return storeErr("reabrir inventario", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}
