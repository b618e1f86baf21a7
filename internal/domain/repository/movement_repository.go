package repository

import (
	"context"
	"time"

	"github.com/jhoicas/Inventario-rooftop/internal/domain/entity"
)

// MovementFilter filtros del historial. Rango [From, To) sobre timestamp.
type MovementFilter struct {
	From      *time.Time
	To        *time.Time
	ProductID string
	Types     []entity.MovementType
	Limit     int
}

// OutflowTotal cantidad total de salida por nombre de producto.
type OutflowTotal struct {
	ProductName string
	Quantity    int64
}

// MovementRepository lectura del libro de movimientos. No existe método para modificar
// ni borrar un movimiento: solo se crean dentro de LedgerStore.CommitMovement.
type MovementRepository interface {
	// List ordena por timestamp descendente.
	List(ctx context.Context, f MovementFilter) ([]*entity.Movement, error)
	// OutflowTotals agrega movimientos salida-* por product_name en [from, to), mayor primero.
	OutflowTotals(ctx context.Context, from, to time.Time) ([]OutflowTotal, error)
	// ActivityDays devuelve los días (en loc) con al menos un movimiento en [from, to).
	ActivityDays(ctx context.Context, from, to time.Time, loc *time.Location) ([]time.Time, error)
}

// LedgerStore primitiva transaccional del motor de movimientos.
type LedgerStore interface {
	InventoryState(ctx context.Context) (*entity.InventoryState, error)
	GetItem(ctx context.Context, id string) (*entity.InventoryItem, error)
	// CommitMovement escribe el ítem solo si su versión sigue siendo expectedVersion y agrega el
	// movimiento en la misma transacción. Asigna la hora del servidor a ambos, el ID del
	// movimiento y la nueva versión. Errores: domain.ErrVersionConflict, domain.ErrInventoryClosed,
	// domain.ErrNotFound o domain.ErrStoreUnavailable envuelto.
	CommitMovement(ctx context.Context, item *entity.InventoryItem, expectedVersion int64, mov *entity.Movement) (*entity.InventoryItem, *entity.Movement, error)
}
