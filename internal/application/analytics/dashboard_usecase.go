package analytics

import (
	"context"
	"fmt"
	"time"

	"github.com/jhoicas/Inventario-rooftop/internal/application/dto"
	"github.com/jhoicas/Inventario-rooftop/internal/domain/repository"
)

const (
	dashboardTopProducts = 5    // productos en el widget de mayores salidas
	dashboardMovementCap = 5000 // tope de movimientos contados para el día
)

// DashboardUseCase resumen del día y del mes en curso para la pantalla principal.
type DashboardUseCase struct {
	items     repository.InventoryItemRepository
	movements repository.MovementRepository
	loc       *time.Location
	now       func() time.Time
}

// NewDashboardUseCase construye el caso de uso.
func NewDashboardUseCase(items repository.InventoryItemRepository, movements repository.MovementRepository, loc *time.Location) *DashboardUseCase {
	if loc == nil {
		loc = time.Local
	}
	return &DashboardUseCase{items: items, movements: movements, loc: loc, now: time.Now}
}

// GetSummary construye el resumen.
//
// Cuatro consultas en paralelo:
//  1. OutflowTotals(hoy)      → TodayOutflow
//  2. OutflowTotals(mes)      → MonthlyOutflow + TopOutflows
//  3. ListLowStock            → LowStockCount
//  4. List(movimientos hoy)   → TodayMovements
func (uc *DashboardUseCase) GetSummary(ctx context.Context) (*dto.DashboardSummary, error) {
	now := uc.now().In(uc.loc)
	todayStart := startOfDay(now)
	todayEnd := todayStart.AddDate(0, 0, 1)
	monthStart := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, uc.loc)
	monthEnd := monthStart.AddDate(0, 1, 0)

	type totalsResult struct {
		totals []repository.OutflowTotal
		err    error
	}
	type countResult struct {
		n   int
		err error
	}

	todayCh := make(chan totalsResult, 1)
	monthCh := make(chan totalsResult, 1)
	lowCh := make(chan countResult, 1)
	movCh := make(chan countResult, 1)

	go func() {
		t, err := uc.movements.OutflowTotals(ctx, todayStart, todayEnd)
		todayCh <- totalsResult{t, err}
	}()
	go func() {
		t, err := uc.movements.OutflowTotals(ctx, monthStart, monthEnd)
		monthCh <- totalsResult{t, err}
	}()
	go func() {
		items, err := uc.items.ListLowStock(ctx)
		lowCh <- countResult{len(items), err}
	}()
	go func() {
		movs, err := uc.movements.List(ctx, repository.MovementFilter{From: &todayStart, To: &todayEnd, Limit: dashboardMovementCap})
		movCh <- countResult{len(movs), err}
	}()

	today := <-todayCh
	month := <-monthCh
	low := <-lowCh
	movs := <-movCh

	if today.err != nil {
		return nil, fmt.Errorf("dashboard: salidas de hoy: %w", today.err)
	}
	if month.err != nil {
		return nil, fmt.Errorf("dashboard: salidas del mes: %w", month.err)
	}
	if low.err != nil {
		return nil, fmt.Errorf("dashboard: stock bajo: %w", low.err)
	}
	if movs.err != nil {
		return nil, fmt.Errorf("dashboard: movimientos de hoy: %w", movs.err)
	}

	out := &dto.DashboardSummary{
		TodayOutflow:   sumTotals(today.totals),
		MonthlyOutflow: sumTotals(month.totals),
		TodayMovements: movs.n,
		LowStockCount:  low.n,
		TopOutflows:    make([]dto.OutflowEntry, 0, dashboardTopProducts),
		DateLabel:      monthLabel(now),
	}
	for i, t := range month.totals {
		if i == dashboardTopProducts {
			break
		}
		out.TopOutflows = append(out.TopOutflows, dto.OutflowEntry{ProductName: t.ProductName, Quantity: t.Quantity})
	}
	return out, nil
}

func sumTotals(totals []repository.OutflowTotal) int64 {
	var sum int64
	for _, t := range totals {
		sum += t.Quantity
	}
	return sum
}
