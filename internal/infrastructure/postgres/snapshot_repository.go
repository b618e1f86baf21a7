package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/jhoicas/Inventario-rooftop/internal/domain/entity"
	"github.com/jhoicas/Inventario-rooftop/internal/domain/repository"
)

var _ repository.SnapshotRepository = (*SnapshotRepo)(nil)

// snapshotItemJSON forma persistida de cada ítem dentro de inventory_snapshots.items.
type snapshotItemJSON struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Bodega       int64     `json:"bodega"`
	Cocina       int64     `json:"cocina"`
	Ingreso      int64     `json:"ingreso"`
	Salida       int64     `json:"salida"`
	StockMin     int64     `json:"stock_min"`
	StockMax     int64     `json:"stock_max"`
	Responsable  string    `json:"responsable"`
	Observations *string   `json:"observations,omitempty"`
	LastUpdated  time.Time `json:"last_updated"`
	CreatedAt    time.Time `json:"created_at"`
	Version      int64     `json:"version"`
}

func snapshotItemsToJSON(items []entity.InventoryItem) []snapshotItemJSON {
	out := make([]snapshotItemJSON, len(items))
	for i, it := range items {
		out[i] = snapshotItemJSON{
			ID: it.ID, Name: it.Name, Bodega: it.Bodega, Cocina: it.Cocina, Ingreso: it.Ingreso,
			Salida: it.Salida, StockMin: it.StockMin, StockMax: it.StockMax, Responsable: it.Responsable,
			Observations: it.Observations, LastUpdated: it.LastUpdated, CreatedAt: it.CreatedAt, Version: it.Version,
		}
	}
	return out
}

func snapshotItemsFromJSON(in []snapshotItemJSON) []entity.InventoryItem {
	out := make([]entity.InventoryItem, len(in))
	for i, it := range in {
		out[i] = entity.InventoryItem{
			ID: it.ID, Name: it.Name, Bodega: it.Bodega, Cocina: it.Cocina, Ingreso: it.Ingreso,
			Salida: it.Salida, StockMin: it.StockMin, StockMax: it.StockMax, Responsable: it.Responsable,
			Observations: it.Observations, LastUpdated: it.LastUpdated, CreatedAt: it.CreatedAt, Version: it.Version,
		}
	}
	return out
}

// SnapshotRepo lectura de snapshots de cierre.
type SnapshotRepo struct {
	q Querier
}

// NewSnapshotRepository construye el adaptador.
func NewSnapshotRepository(q Querier) *SnapshotRepo {
	return &SnapshotRepo{q: q}
}

// List más recientes primero, sin ítems.
func (r *SnapshotRepo) List(ctx context.Context, limit int) ([]*entity.InventorySnapshot, error) {
	query := `SELECT id, created_by, created_at FROM inventory_snapshots ORDER BY created_at DESC, id DESC`
	args := []any{}
	if limit > 0 {
		query += ` LIMIT $1`
		args = append(args, limit)
	}
	rows, err := r.q.Query(ctx, query, args...)
	if err != nil {
		return nil, storeErr("list snapshots", err)
	}
	list, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (*entity.InventorySnapshot, error) {
		var s entity.InventorySnapshot
		err := row.Scan(&s.ID, &s.CreatedBy, &s.CreatedAt)
		return &s, err
	})
	if err != nil {
		return nil, storeErr("scan snapshots", err)
	}
	return list, nil
}

// GetByID devuelve (nil, nil) si no existe.
func (r *SnapshotRepo) GetByID(ctx context.Context, id string) (*entity.InventorySnapshot, error) {
	var (
		s   entity.InventorySnapshot
		raw []byte
	)
	err := r.q.QueryRow(ctx, `SELECT id, items, created_by, created_at FROM inventory_snapshots WHERE id = $1`, id).
		Scan(&s.ID, &raw, &s.CreatedBy, &s.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, storeErr("get snapshot", err)
	}
	var items []snapshotItemJSON
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil, storeErr("decodificar snapshot", err)
	}
	s.Items = snapshotItemsFromJSON(items)
	return &s, nil
}
