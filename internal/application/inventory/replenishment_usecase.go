package inventory

import (
	"context"
	"sort"
	"time"

	"github.com/jhoicas/Inventario-rooftop/internal/application/dto"
	domaininv "github.com/jhoicas/Inventario-rooftop/internal/domain/inventory"
	"github.com/jhoicas/Inventario-rooftop/internal/domain/repository"
)

// replenishmentWindow ventana de consumo usada para priorizar la reposición.
const replenishmentWindow = 30 * 24 * time.Hour

// ReplenishmentUseCase genera la lista de reposición de bodega.
// Combina los productos en stock bajo con las salidas recientes para priorizar los críticos.
type ReplenishmentUseCase struct {
	items     repository.InventoryItemRepository
	movements repository.MovementRepository
	now       func() time.Time
}

// NewReplenishmentUseCase construye el caso de uso de reposición.
func NewReplenishmentUseCase(items repository.InventoryItemRepository, movements repository.MovementRepository) *ReplenishmentUseCase {
	return &ReplenishmentUseCase{items: items, movements: movements, now: time.Now}
}

// GenerateReplenishmentList devuelve los productos con bodega <= stock mínimo, la cantidad
// sugerida para volver al máximo (o al doble del mínimo si no hay máximo) y los días de
// cobertura estimados con el consumo de los últimos 30 días. Los de menor cobertura van primero.
func (uc *ReplenishmentUseCase) GenerateReplenishmentList(ctx context.Context) ([]dto.ReplenishmentSuggestion, error) {
	low, err := uc.items.ListLowStock(ctx)
	if err != nil {
		return nil, err
	}
	if len(low) == 0 {
		return []dto.ReplenishmentSuggestion{}, nil
	}

	end := uc.now()
	start := end.Add(-replenishmentWindow)
	totals, err := uc.movements.OutflowTotals(ctx, start, end)
	if err != nil {
		return nil, err
	}
	outByName := make(map[string]int64, len(totals))
	for _, t := range totals {
		outByName[t.ProductName] = t.Quantity
	}

	days := replenishmentWindow.Hours() / 24
	out := make([]dto.ReplenishmentSuggestion, 0, len(low))
	for _, it := range low {
		s := dto.ReplenishmentSuggestion{
			ItemID:        it.ID,
			Name:          it.Name,
			Bodega:        it.Bodega,
			Cocina:        it.Cocina,
			StockMin:      it.StockMin,
			StockMax:      it.StockMax,
			SuggestedQty:  domaininv.SuggestedOrder(it.Bodega, it.StockMin, it.StockMax),
			Outflow30Days: outByName[it.Name],
		}
		s.DaysOfCover = domaininv.DaysOfCover(it.Total(), s.Outflow30Days, days)
		out = append(out, s)
	}

	// Sin consumo registrado (cobertura desconocida) va al final.
	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i].DaysOfCover, out[j].DaysOfCover
		switch {
		case a != nil && b != nil:
			return *a < *b
		case a != nil:
			return true
		case b != nil:
			return false
		}
		return out[i].SuggestedQty > out[j].SuggestedQty
	})
	return out, nil
}
