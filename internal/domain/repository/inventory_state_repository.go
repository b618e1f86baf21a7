package repository

import (
	"context"

	"github.com/jhoicas/Inventario-rooftop/internal/domain/entity"
)

// InventoryStateRepository ciclo de vida abierto/cerrado del inventario.
type InventoryStateRepository interface {
	Get(ctx context.Context) (*entity.InventoryState, error)
	// Close en una transacción: copia todos los ítems a un snapshot y marca cerrado.
	// domain.ErrConflict si ya estaba cerrado.
	Close(ctx context.Context, actor string) (*entity.InventorySnapshot, error)
	// Reopen en una transacción: reinicia ingreso, salida y observaciones de todos los ítems
	// y marca abierto. domain.ErrConflict si no estaba cerrado.
	Reopen(ctx context.Context, actor string) (*entity.InventoryState, error)
}

// SnapshotRepository lectura de snapshots de cierre (inmutables).
type SnapshotRepository interface {
	// List devuelve los snapshots más recientes primero, sin ítems.
	List(ctx context.Context, limit int) ([]*entity.InventorySnapshot, error)
	GetByID(ctx context.Context, id string) (*entity.InventorySnapshot, error)
}
