package inventory

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"github.com/jhoicas/Inventario-rooftop/internal/application/dto"
	"github.com/jhoicas/Inventario-rooftop/internal/domain"
	"github.com/jhoicas/Inventario-rooftop/internal/domain/authz"
	"github.com/jhoicas/Inventario-rooftop/internal/domain/entity"
	"github.com/jhoicas/Inventario-rooftop/internal/domain/ledger"
	"github.com/jhoicas/Inventario-rooftop/internal/domain/repository"
)

const defaultSearchLimit = 10

// ItemUseCase CRUD de productos del inventario. Toda escritura se rechaza con
// ErrInventoryClosed mientras el inventario esté cerrado.
type ItemUseCase struct {
	items      repository.InventoryItemRepository
	state      repository.InventoryStateRepository
	notifier   ChangeNotifier
	maxRetries int
	log        zerolog.Logger
}

// NewItemUseCase construye el caso de uso.
func NewItemUseCase(items repository.InventoryItemRepository, state repository.InventoryStateRepository, notifier ChangeNotifier, maxRetries int, log zerolog.Logger) *ItemUseCase {
	return &ItemUseCase{items: items, state: state, notifier: notifier, maxRetries: maxRetries, log: log}
}

// Create registra un producto con stock inicial; ingreso y salida empiezan en cero.
func (uc *ItemUseCase) Create(ctx context.Context, actor *authz.Actor, in dto.CreateItemRequest) (*dto.ItemResponse, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return nil, fmt.Errorf("%w: el nombre es obligatorio", domain.ErrInvalidInput)
	}
	if in.Bodega < 0 || in.Cocina < 0 || in.StockMin < 0 || in.StockMax < 0 {
		return nil, fmt.Errorf("%w: las cantidades no pueden ser negativas", domain.ErrInvalidInput)
	}
	if err := validateThresholds(in.StockMin, in.StockMax); err != nil {
		return nil, err
	}
	if err := uc.ensureOpen(ctx); err != nil {
		return nil, err
	}
	item := &entity.InventoryItem{
		Name:        name,
		Bodega:      in.Bodega,
		Cocina:      in.Cocina,
		StockMin:    in.StockMin,
		StockMax:    in.StockMax,
		Responsable: actor.DisplayName(),
	}
	if err := uc.items.Create(ctx, item); err != nil {
		return nil, err
	}
	uc.notify(ctx, item.ID)
	out := dto.ItemFromEntity(item)
	return &out, nil
}

// Update edita nombre y umbrales con verificación de versión (reintenta si otro escritor
// cambió el ítem entre la lectura y la escritura).
func (uc *ItemUseCase) Update(ctx context.Context, actor *authz.Actor, id string, in dto.UpdateItemRequest) (*dto.ItemResponse, error) {
	if in.Name != nil && strings.TrimSpace(*in.Name) == "" {
		return nil, fmt.Errorf("%w: el nombre no puede quedar vacío", domain.ErrInvalidInput)
	}
	if err := uc.ensureOpen(ctx); err != nil {
		return nil, err
	}
	var updated *entity.InventoryItem
	err := ledger.WithOptimisticRetry(ctx, uc.maxRetries, func(ctx context.Context, _ int) error {
		item, err := uc.items.GetByID(ctx, id)
		if err != nil {
			return err
		}
		if item == nil {
			return domain.ErrNotFound
		}
		expected := item.Version
		if in.Name != nil {
			item.Name = strings.TrimSpace(*in.Name)
		}
		if in.StockMin != nil {
			item.StockMin = *in.StockMin
		}
		if in.StockMax != nil {
			item.StockMax = *in.StockMax
		}
		if item.StockMin < 0 || item.StockMax < 0 {
			return fmt.Errorf("%w: los umbrales no pueden ser negativos", domain.ErrInvalidInput)
		}
		if err := validateThresholds(item.StockMin, item.StockMax); err != nil {
			return err
		}
		item.Responsable = actor.DisplayName()
		if err := uc.items.UpdateDetails(ctx, item, expected); err != nil {
			return err
		}
		updated = item
		return nil
	})
	if err != nil {
		return nil, err
	}
	uc.notify(ctx, id)
	out := dto.ItemFromEntity(updated)
	return &out, nil
}

// Delete elimina el producto. Su historial de movimientos se conserva.
func (uc *ItemUseCase) Delete(ctx context.Context, id string) error {
	if err := uc.ensureOpen(ctx); err != nil {
		return err
	}
	if err := uc.items.Delete(ctx, id); err != nil {
		return err
	}
	uc.notify(ctx, id)
	return nil
}

// GetByID devuelve ErrNotFound si no existe.
func (uc *ItemUseCase) GetByID(ctx context.Context, id string) (*dto.ItemResponse, error) {
	item, err := uc.items.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if item == nil {
		return nil, domain.ErrNotFound
	}
	out := dto.ItemFromEntity(item)
	return &out, nil
}

// List todos los productos ordenados por nombre.
func (uc *ItemUseCase) List(ctx context.Context) ([]dto.ItemResponse, error) {
	items, err := uc.items.List(ctx)
	if err != nil {
		return nil, err
	}
	return dto.ItemsFromEntities(items), nil
}

// Search sugerencias por nombre para el formulario de movimientos.
func (uc *ItemUseCase) Search(ctx context.Context, query string, limit int) ([]dto.ItemResponse, error) {
	if strings.TrimSpace(query) == "" {
		return []dto.ItemResponse{}, nil
	}
	if limit <= 0 || limit > 50 {
		limit = defaultSearchLimit
	}
	items, err := uc.items.Search(ctx, query, limit)
	if err != nil {
		return nil, err
	}
	return dto.ItemsFromEntities(items), nil
}

func (uc *ItemUseCase) ensureOpen(ctx context.Context) error {
	st, err := uc.state.Get(ctx)
	if err != nil {
		return err
	}
	if st.IsClosed {
		return domain.ErrInventoryClosed
	}
	return nil
}

func (uc *ItemUseCase) notify(ctx context.Context, itemID string) {
	if uc.notifier == nil {
		return
	}
	if err := uc.notifier.Notify(ctx, domain.TopicItems); err != nil {
		uc.log.Warn().Err(err).Str("item_id", itemID).Msg("no se pudo notificar el cambio")
	}
}

// validateThresholds stock_max 0 = sin máximo.
func validateThresholds(min, max int64) error {
	if max > 0 && max < min {
		return fmt.Errorf("%w: stock_max (%d) menor que stock_min (%d)", domain.ErrInvalidInput, max, min)
	}
	return nil
}
