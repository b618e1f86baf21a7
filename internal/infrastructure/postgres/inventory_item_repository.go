package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/jhoicas/Inventario-rooftop/internal/domain"
	"github.com/jhoicas/Inventario-rooftop/internal/domain/entity"
	"github.com/jhoicas/Inventario-rooftop/internal/domain/repository"
)

var _ repository.InventoryItemRepository = (*InventoryItemRepo)(nil)

const itemColumns = `id, name, bodega, cocina, ingreso, salida, stock_min, stock_max,
	responsable, observations, version, last_updated, created_at`

// rowScanner pgx.Row o pgx.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanItem(row rowScanner) (*entity.InventoryItem, error) {
	var it entity.InventoryItem
	err := row.Scan(
		&it.ID, &it.Name, &it.Bodega, &it.Cocina, &it.Ingreso, &it.Salida, &it.StockMin, &it.StockMax,
		&it.Responsable, &it.Observations, &it.Version, &it.LastUpdated, &it.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &it, nil
}

func collectItems(rows pgx.Rows) ([]*entity.InventoryItem, error) {
	defer rows.Close()
	list := make([]*entity.InventoryItem, 0)
	for rows.Next() {
		it, err := scanItem(rows)
		if err != nil {
			return nil, storeErr("scan item", err)
		}
		list = append(list, it)
	}
	if err := rows.Err(); err != nil {
		return nil, storeErr("iterar items", err)
	}
	return list, nil
}

// InventoryItemRepo implementación sobre PostgreSQL. Las escrituras corren en una transacción
// que toma el estado del inventario FOR SHARE, así un cierre concurrente las bloquea.
type InventoryItemRepo struct {
	q  Querier
	tx *TxRunner
}

// NewInventoryItemRepository construye el adaptador.
func NewInventoryItemRepository(q Querier, tx *TxRunner) *InventoryItemRepo {
	return &InventoryItemRepo{q: q, tx: tx}
}

// ensureOpenTx verifica dentro de la transacción que el inventario no esté cerrado.
func ensureOpenTx(ctx context.Context, q Querier) error {
	var closed bool
	if err := q.QueryRow(ctx, `SELECT is_closed FROM inventory_state WHERE id = 1 FOR SHARE`).Scan(&closed); err != nil {
		return storeErr("leer estado del inventario", err)
	}
	if closed {
		return domain.ErrInventoryClosed
	}
	return nil
}

// Create persiste un ítem nuevo con versión 1.
func (r *InventoryItemRepo) Create(ctx context.Context, item *entity.InventoryItem) error {
	if item.ID == "" {
		item.ID = uuid.New().String()
	}
	return r.tx.Run(ctx, func(q Querier) error {
		if err := ensureOpenTx(ctx, q); err != nil {
			return err
		}
		query := `
			INSERT INTO inventory_items (id, name, bodega, cocina, ingreso, salida, stock_min, stock_max,
				responsable, observations, version, last_updated, created_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, 1, now(), now())
			RETURNING version, last_updated, created_at`
		err := q.QueryRow(ctx, query,
			item.ID, item.Name, item.Bodega, item.Cocina, item.Ingreso, item.Salida, item.StockMin, item.StockMax,
			item.Responsable, item.Observations,
		).Scan(&item.Version, &item.LastUpdated, &item.CreatedAt)
		if err != nil {
			if isUniqueViolation(err) {
				return domain.ErrDuplicate
			}
			return storeErr("insert item", err)
		}
		return nil
	})
}

// GetByID devuelve (nil, nil) si no existe.
func (r *InventoryItemRepo) GetByID(ctx context.Context, id string) (*entity.InventoryItem, error) {
	it, err := scanItem(r.q.QueryRow(ctx, `SELECT `+itemColumns+` FROM inventory_items WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, storeErr("get item", err)
	}
	return it, nil
}

// FindByName coincidencia exacta sin distinguir mayúsculas ni espacios externos.
func (r *InventoryItemRepo) FindByName(ctx context.Context, name string) ([]*entity.InventoryItem, error) {
	rows, err := r.q.Query(ctx, `
		SELECT `+itemColumns+` FROM inventory_items
		WHERE lower(btrim(name)) = lower(btrim($1))
		ORDER BY lower(name), id`, name)
	if err != nil {
		return nil, storeErr("find item by name", err)
	}
	return collectItems(rows)
}

// Search subcadena del nombre, sin distinguir mayúsculas.
func (r *InventoryItemRepo) Search(ctx context.Context, query string, limit int) ([]*entity.InventoryItem, error) {
	sql := `
		SELECT ` + itemColumns + ` FROM inventory_items
		WHERE strpos(lower(name), lower(btrim($1))) > 0
		ORDER BY lower(name), id`
	args := []any{query}
	if limit > 0 {
		sql += ` LIMIT $2`
		args = append(args, limit)
	}
	rows, err := r.q.Query(ctx, sql, args...)
	if err != nil {
		return nil, storeErr("search items", err)
	}
	return collectItems(rows)
}

// List todos los ítems ordenados por nombre.
func (r *InventoryItemRepo) List(ctx context.Context) ([]*entity.InventoryItem, error) {
	rows, err := r.q.Query(ctx, `SELECT `+itemColumns+` FROM inventory_items ORDER BY lower(name), id`)
	if err != nil {
		return nil, storeErr("list items", err)
	}
	return collectItems(rows)
}

// ListLowStock ítems con bodega <= stock mínimo.
func (r *InventoryItemRepo) ListLowStock(ctx context.Context) ([]*entity.InventoryItem, error) {
	rows, err := r.q.Query(ctx, `
		SELECT `+itemColumns+` FROM inventory_items
		WHERE bodega <= stock_min
		ORDER BY lower(name), id`)
	if err != nil {
		return nil, storeErr("list low stock", err)
	}
	return collectItems(rows)
}

// UpdateDetails actualiza nombre, umbrales y responsable si la versión coincide.
func (r *InventoryItemRepo) UpdateDetails(ctx context.Context, item *entity.InventoryItem, expectedVersion int64) error {
	return r.tx.Run(ctx, func(q Querier) error {
		if err := ensureOpenTx(ctx, q); err != nil {
			return err
		}
		query := `
			UPDATE inventory_items
			SET name = $2, stock_min = $3, stock_max = $4, responsable = $5,
				version = version + 1, last_updated = now()
			WHERE id = $1 AND version = $6
			RETURNING version, last_updated`
		err := q.QueryRow(ctx, query,
			item.ID, item.Name, item.StockMin, item.StockMax, item.Responsable, expectedVersion,
		).Scan(&item.Version, &item.LastUpdated)
		if errors.Is(err, pgx.ErrNoRows) {
			return missingOrConflict(ctx, q, item.ID)
		}
		if err != nil {
			return storeErr("update item", err)
		}
		return nil
	})
}

// Delete elimina el ítem; sus movimientos se conservan.
func (r *InventoryItemRepo) Delete(ctx context.Context, id string) error {
	return r.tx.Run(ctx, func(q Querier) error {
		if err := ensureOpenTx(ctx, q); err != nil {
			return err
		}
		tag, err := q.Exec(ctx, `DELETE FROM inventory_items WHERE id = $1`, id)
		if err != nil {
			return storeErr("delete item", err)
		}
		if tag.RowsAffected() == 0 {
			return domain.ErrNotFound
		}
		return nil
	})
}

// missingOrConflict distingue, tras un UPDATE condicional sin filas, entre ítem inexistente
// y versión desactualizada.
func missingOrConflict(ctx context.Context, q Querier, id string) error {
	var exists bool
	if err := q.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM inventory_items WHERE id = $1)`, id).Scan(&exists); err != nil {
		return storeErr("verificar item", err)
	}
	if !exists {
		return fmt.Errorf("item %s: %w", id, domain.ErrNotFound)
	}
	return fmt.Errorf("item %s: %w", id, domain.ErrVersionConflict)
}
