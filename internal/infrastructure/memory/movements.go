package memory

import (
	"context"
	"sort"
	"time"

	"github.com/jhoicas/Inventario-rooftop/internal/domain/entity"
	"github.com/jhoicas/Inventario-rooftop/internal/domain/repository"
)

var _ repository.MovementRepository = (*MovementRepository)(nil)

// MovementRepository vista de solo lectura del libro de movimientos.
type MovementRepository struct{ s *Store }

// Movements devuelve el repositorio de movimientos.
func (s *Store) Movements() *MovementRepository { return &MovementRepository{s: s} }

// List historial filtrado, más reciente primero.
func (r *MovementRepository) List(_ context.Context, f repository.MovementFilter) ([]*entity.Movement, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	out := make([]*entity.Movement, 0)
	for _, m := range r.s.movements {
		if !matches(m, f) {
			continue
		}
		c := *m
		out = append(out, &c)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Timestamp.After(out[j].Timestamp) })
	if f.Limit > 0 && len(out) > f.Limit {
		out = out[:f.Limit]
	}
	return out, nil
}

func matches(m *entity.Movement, f repository.MovementFilter) bool {
	if f.From != nil && m.Timestamp.Before(*f.From) {
		return false
	}
	if f.To != nil && !m.Timestamp.Before(*f.To) {
		return false
	}
	if f.ProductID != "" && m.ProductID != f.ProductID {
		return false
	}
	if len(f.Types) > 0 {
		ok := false
		for _, t := range f.Types {
			if m.Type == t {
				ok = true
				break
			}
		}
		if !ok {
			return false
		}
	}
	return true
}

// OutflowTotals suma las salidas por nombre de producto, mayor cantidad primero.
func (r *MovementRepository) OutflowTotals(ctx context.Context, from, to time.Time) ([]repository.OutflowTotal, error) {
	movs, err := r.List(ctx, repository.MovementFilter{From: &from, To: &to, Types: entity.OutflowTypes})
	if err != nil {
		return nil, err
	}
	totals := make(map[string]int64)
	for _, m := range movs {
		totals[m.ProductName] += m.Quantity
	}
	out := make([]repository.OutflowTotal, 0, len(totals))
	for name, q := range totals {
		out = append(out, repository.OutflowTotal{ProductName: name, Quantity: q})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Quantity != out[j].Quantity {
			return out[i].Quantity > out[j].Quantity
		}
		return out[i].ProductName < out[j].ProductName
	})
	return out, nil
}

// ActivityDays días distintos (medianoche en loc) con movimientos, en orden ascendente.
func (r *MovementRepository) ActivityDays(ctx context.Context, from, to time.Time, loc *time.Location) ([]time.Time, error) {
	if loc == nil {
		loc = time.Local
	}
	movs, err := r.List(ctx, repository.MovementFilter{From: &from, To: &to})
	if err != nil {
		return nil, err
	}
	seen := make(map[time.Time]bool)
	days := make([]time.Time, 0)
	for _, m := range movs {
		t := m.Timestamp.In(loc)
		d := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, loc)
		if !seen[d] {
			seen[d] = true
			days = append(days, d)
		}
	}
	sort.Slice(days, func(i, j int) bool { return days[i].Before(days[j]) })
	return days, nil
}
