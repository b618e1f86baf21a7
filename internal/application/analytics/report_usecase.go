// Package analytics contiene los casos de uso de reportes del inventario: stock bajo,
// salidas por periodo, historial de movimientos y cierres.
package analytics

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/jhoicas/Inventario-rooftop/internal/application/dto"
	"github.com/jhoicas/Inventario-rooftop/internal/domain"
	"github.com/jhoicas/Inventario-rooftop/internal/domain/entity"
	"github.com/jhoicas/Inventario-rooftop/internal/domain/repository"
)

const (
	defaultHistoryLimit  = 100
	maxHistoryLimit      = 1000
	defaultSnapshotLimit = 50
)

// ReportUseCase reportes de solo lectura.
type ReportUseCase struct {
	items     repository.InventoryItemRepository
	movements repository.MovementRepository
	snapshots repository.SnapshotRepository
	loc       *time.Location
	now       func() time.Time
}

// NewReportUseCase construye el caso de uso. loc define el calendario de los reportes.
func NewReportUseCase(items repository.InventoryItemRepository, movements repository.MovementRepository, snapshots repository.SnapshotRepository, loc *time.Location) *ReportUseCase {
	if loc == nil {
		loc = time.Local
	}
	return &ReportUseCase{items: items, movements: movements, snapshots: snapshots, loc: loc, now: time.Now}
}

// LowStock productos con bodega <= stock mínimo.
func (uc *ReportUseCase) LowStock(ctx context.Context) (*dto.LowStockResponse, error) {
	items, err := uc.items.ListLowStock(ctx)
	if err != nil {
		return nil, err
	}
	return &dto.LowStockResponse{Count: len(items), Items: dto.ItemsFromEntities(items)}, nil
}

// Outflows salidas (salida-cocina + salida-bodega) agregadas por nombre de producto.
func (uc *ReportUseCase) Outflows(ctx context.Context, q dto.OutflowQuery) (*dto.OutflowReportResponse, error) {
	rng, err := ResolveRange(q.Period, q.Date, q.From, q.To, uc.now(), uc.loc)
	if err != nil {
		return nil, err
	}
	totals, err := uc.movements.OutflowTotals(ctx, rng.From, rng.To)
	if err != nil {
		return nil, err
	}
	out := &dto.OutflowReportResponse{
		Period: rng.Period,
		Label:  rng.Label,
		From:   rng.From,
		To:     rng.To,
		Items:  make([]dto.OutflowEntry, 0, len(totals)),
	}
	for _, t := range totals {
		out.Items = append(out.Items, dto.OutflowEntry{ProductName: t.ProductName, Quantity: t.Quantity})
		out.Total += t.Quantity
	}
	return out, nil
}

// SnapshotOutflows salidas registradas en un cierre: ítems del snapshot con salida > 0.
func (uc *ReportUseCase) SnapshotOutflows(ctx context.Context, snapshotID string) (*dto.OutflowReportResponse, error) {
	snap, err := uc.snapshots.GetByID(ctx, snapshotID)
	if err != nil {
		return nil, err
	}
	if snap == nil {
		return nil, domain.ErrNotFound
	}
	created := snap.CreatedAt.In(uc.loc)
	out := &dto.OutflowReportResponse{
		Period: "snapshot",
		Label:  "Cierre del " + created.Format("02/01/2006 15:04"),
		To:     snap.CreatedAt,
		Items:  make([]dto.OutflowEntry, 0),
	}
	for _, it := range snap.Items {
		if it.Salida > 0 {
			out.Items = append(out.Items, dto.OutflowEntry{ProductName: it.Name, Quantity: it.Salida})
			out.Total += it.Salida
		}
	}
	sort.SliceStable(out.Items, func(i, j int) bool { return out.Items[i].Quantity > out.Items[j].Quantity })
	return out, nil
}

// Snapshots lista de cierres, más reciente primero.
func (uc *ReportUseCase) Snapshots(ctx context.Context, limit int) ([]dto.SnapshotResponse, error) {
	if limit <= 0 {
		limit = defaultSnapshotLimit
	}
	snaps, err := uc.snapshots.List(ctx, limit)
	if err != nil {
		return nil, err
	}
	out := make([]dto.SnapshotResponse, 0, len(snaps))
	for _, s := range snaps {
		out = append(out, dto.SnapshotFromEntity(s, false))
	}
	return out, nil
}

// Snapshot un cierre con todos sus ítems.
func (uc *ReportUseCase) Snapshot(ctx context.Context, id string) (*dto.SnapshotResponse, error) {
	snap, err := uc.snapshots.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if snap == nil {
		return nil, domain.ErrNotFound
	}
	out := dto.SnapshotFromEntity(snap, true)
	return &out, nil
}

// MovementHistory historial filtrado, más reciente primero.
func (uc *ReportUseCase) MovementHistory(ctx context.Context, q dto.MovementHistoryQuery) ([]dto.MovementResponse, error) {
	from, err := ParseTimeParam(q.From, uc.loc)
	if err != nil {
		return nil, err
	}
	to, err := ParseTimeParam(q.To, uc.loc)
	if err != nil {
		return nil, err
	}
	if from != nil && to != nil && to.Before(*from) {
		return nil, fmt.Errorf("%w: to es anterior a from", domain.ErrInvalidInput)
	}
	f := repository.MovementFilter{From: from, To: to, ProductID: strings.TrimSpace(q.ProductID), Limit: q.Limit}
	if q.Type != "" {
		t := entity.MovementType(q.Type)
		if !t.Valid() {
			return nil, fmt.Errorf("%w: %q", domain.ErrInvalidMovementType, q.Type)
		}
		f.Types = []entity.MovementType{t}
	}
	if f.Limit <= 0 {
		f.Limit = defaultHistoryLimit
	}
	if f.Limit > maxHistoryLimit {
		f.Limit = maxHistoryLimit
	}
	movs, err := uc.movements.List(ctx, f)
	if err != nil {
		return nil, err
	}
	return dto.MovementsFromEntities(movs), nil
}

// ActivityDays días del mes con al menos un movimiento (marcas del calendario).
func (uc *ReportUseCase) ActivityDays(ctx context.Context, year, month int) (*dto.ActivityResponse, error) {
	if month < 1 || month > 12 || year < 2000 || year > 2100 {
		return nil, fmt.Errorf("%w: mes %d/%d", domain.ErrInvalidInput, month, year)
	}
	start := time.Date(year, time.Month(month), 1, 0, 0, 0, 0, uc.loc)
	days, err := uc.movements.ActivityDays(ctx, start, start.AddDate(0, 1, 0), uc.loc)
	if err != nil {
		return nil, err
	}
	out := &dto.ActivityResponse{Year: year, Month: month, Days: make([]string, 0, len(days))}
	for _, d := range days {
		out.Days = append(out.Days, d.Format(dateLayout))
	}
	return out, nil
}
