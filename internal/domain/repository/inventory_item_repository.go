package repository

import (
	"context"

	"github.com/jhoicas/Inventario-rooftop/internal/domain/entity"
)

// InventoryItemRepository define el puerto de persistencia para InventoryItem (DIP).
// Las escrituras re-verifican el estado del inventario dentro de su transacción y devuelven
// domain.ErrInventoryClosed si está cerrado. GetByID devuelve (nil, nil) si no existe.
type InventoryItemRepository interface {
	Create(ctx context.Context, item *entity.InventoryItem) error
	GetByID(ctx context.Context, id string) (*entity.InventoryItem, error)
	// FindByName busca por nombre exacto sin distinguir mayúsculas.
	FindByName(ctx context.Context, name string) ([]*entity.InventoryItem, error)
	// Search busca por subcadena del nombre (sugerencias al registrar movimientos).
	Search(ctx context.Context, query string, limit int) ([]*entity.InventoryItem, error)
	List(ctx context.Context) ([]*entity.InventoryItem, error)
	ListLowStock(ctx context.Context) ([]*entity.InventoryItem, error)
	// UpdateDetails actualiza nombre, umbrales y responsable si la versión coincide
	// (domain.ErrVersionConflict si no).
	UpdateDetails(ctx context.Context, item *entity.InventoryItem, expectedVersion int64) error
	Delete(ctx context.Context, id string) error
}
