// Package memory implementa todos los puertos de persistencia sobre mapas protegidos por un
// mutex. Se usa con STORE_DRIVER=memory y en las pruebas de casos de uso; respeta la misma
// semántica transaccional que el adaptador de PostgreSQL.
package memory

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/jhoicas/Inventario-rooftop/internal/domain"
	"github.com/jhoicas/Inventario-rooftop/internal/domain/entity"
	"github.com/jhoicas/Inventario-rooftop/internal/domain/repository"
)

var (
	_ repository.LedgerStore              = (*Store)(nil)
	_ repository.InventoryItemRepository  = (*ItemRepository)(nil)
	_ repository.InventoryStateRepository = (*StateRepository)(nil)
	_ repository.SnapshotRepository       = (*SnapshotRepository)(nil)
)

// Store almacén en memoria. Cada operación pública es atómica bajo mu. Los repositorios
// son vistas sobre el mismo Store (Items, Movements, State, Snapshots, Roles, Users).
type Store struct {
	mu        sync.RWMutex
	now       func() time.Time
	items     map[string]*entity.InventoryItem
	movements []*entity.Movement
	state     entity.InventoryState
	snapshots []*entity.InventorySnapshot
	roles     map[string]*entity.Role
	users     map[string]*entity.User
}

// New crea un store vacío con el inventario abierto.
func New() *Store {
	return &Store{
		now:   time.Now,
		items: make(map[string]*entity.InventoryItem),
		roles: make(map[string]*entity.Role),
		users: make(map[string]*entity.User),
	}
}

// SetClock reemplaza la hora del servidor (pruebas).
func (s *Store) SetClock(now func() time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.now = now
}

// Ping cumple con el health check.
func (s *Store) Ping(context.Context) error { return nil }

// ItemRepository vista de ítems.
type ItemRepository struct{ s *Store }

// StateRepository vista del ciclo de vida.
type StateRepository struct{ s *Store }

// SnapshotRepository vista de snapshots.
type SnapshotRepository struct{ s *Store }

// Items devuelve el repositorio de ítems.
func (s *Store) Items() *ItemRepository { return &ItemRepository{s: s} }

// State devuelve el repositorio del estado del inventario.
func (s *Store) State() *StateRepository { return &StateRepository{s: s} }

// Snapshots devuelve el repositorio de snapshots.
func (s *Store) Snapshots() *SnapshotRepository { return &SnapshotRepository{s: s} }

// --- LedgerStore ---

// InventoryState devuelve una copia del estado actual.
func (s *Store) InventoryState(ctx context.Context) (*entity.InventoryState, error) {
	return s.State().Get(ctx)
}

// GetItem devuelve una copia del ítem o (nil, nil).
func (s *Store) GetItem(ctx context.Context, id string) (*entity.InventoryItem, error) {
	return s.Items().GetByID(ctx, id)
}

// CommitMovement escritura condicional del ítem + alta del movimiento, atómica bajo el mutex.
func (s *Store) CommitMovement(ctx context.Context, item *entity.InventoryItem, expectedVersion int64, mov *entity.Movement) (*entity.InventoryItem, *entity.Movement, error) {
	if err := ctx.Err(); err != nil {
		return nil, nil, fmt.Errorf("%w: %v", domain.ErrStoreUnavailable, err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state.IsClosed {
		return nil, nil, domain.ErrInventoryClosed
	}
	cur, ok := s.items[item.ID]
	if !ok {
		return nil, nil, domain.ErrNotFound
	}
	if cur.Version != expectedVersion {
		return nil, nil, fmt.Errorf("item %s: %w", item.ID, domain.ErrVersionConflict)
	}

	now := s.now()
	next := item.Clone()
	next.Version = expectedVersion + 1
	next.LastUpdated = now
	next.CreatedAt = cur.CreatedAt
	s.items[item.ID] = next

	m := *mov
	m.ID = uuid.New().String()
	m.Timestamp = now
	s.movements = append(s.movements, &m)

	out := m
	return next.Clone(), &out, nil
}

// --- InventoryItemRepository ---

// Create asigna ID, versión y fechas.
func (r *ItemRepository) Create(_ context.Context, item *entity.InventoryItem) error {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state.IsClosed {
		return domain.ErrInventoryClosed
	}
	if item.ID == "" {
		item.ID = uuid.New().String()
	}
	now := s.now()
	item.Version = 1
	item.CreatedAt = now
	item.LastUpdated = now
	s.items[item.ID] = item.Clone()
	return nil
}

// GetByID devuelve (nil, nil) si no existe.
func (r *ItemRepository) GetByID(_ context.Context, id string) (*entity.InventoryItem, error) {
	s := r.s
	s.mu.RLock()
	defer s.mu.RUnlock()
	it, ok := s.items[id]
	if !ok {
		return nil, nil
	}
	return it.Clone(), nil
}

// FindByName coincidencia exacta sin distinguir mayúsculas ni espacios externos.
func (r *ItemRepository) FindByName(_ context.Context, name string) ([]*entity.InventoryItem, error) {
	key := strings.ToLower(strings.TrimSpace(name))
	return r.s.filterItems(func(it *entity.InventoryItem) bool {
		return strings.ToLower(strings.TrimSpace(it.Name)) == key
	}, 0), nil
}

// Search subcadena del nombre, sin distinguir mayúsculas.
func (r *ItemRepository) Search(_ context.Context, query string, limit int) ([]*entity.InventoryItem, error) {
	q := strings.ToLower(strings.TrimSpace(query))
	return r.s.filterItems(func(it *entity.InventoryItem) bool {
		return strings.Contains(strings.ToLower(it.Name), q)
	}, limit), nil
}

// List todos los ítems ordenados por nombre.
func (r *ItemRepository) List(context.Context) ([]*entity.InventoryItem, error) {
	return r.s.filterItems(func(*entity.InventoryItem) bool { return true }, 0), nil
}

// ListLowStock ítems con bodega <= stock mínimo.
func (r *ItemRepository) ListLowStock(context.Context) ([]*entity.InventoryItem, error) {
	return r.s.filterItems(func(it *entity.InventoryItem) bool { return it.IsLowStock() }, 0), nil
}

func (s *Store) filterItems(keep func(*entity.InventoryItem) bool, limit int) []*entity.InventoryItem {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*entity.InventoryItem, 0, len(s.items))
	for _, it := range s.items {
		if keep(it) {
			out = append(out, it.Clone())
		}
	}
	sortItems(out)
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}

func sortItems(items []*entity.InventoryItem) {
	sort.Slice(items, func(i, j int) bool {
		a, b := strings.ToLower(items[i].Name), strings.ToLower(items[j].Name)
		if a != b {
			return a < b
		}
		return items[i].ID < items[j].ID
	})
}

// UpdateDetails actualiza nombre, umbrales y responsable con verificación de versión.
func (r *ItemRepository) UpdateDetails(_ context.Context, item *entity.InventoryItem, expectedVersion int64) error {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state.IsClosed {
		return domain.ErrInventoryClosed
	}
	cur, ok := s.items[item.ID]
	if !ok {
		return domain.ErrNotFound
	}
	if cur.Version != expectedVersion {
		return domain.ErrVersionConflict
	}
	next := cur.Clone()
	next.Name = item.Name
	next.StockMin = item.StockMin
	next.StockMax = item.StockMax
	next.Responsable = item.Responsable
	next.LastUpdated = s.now()
	next.Version++
	s.items[item.ID] = next

	item.Version = next.Version
	item.LastUpdated = next.LastUpdated
	return nil
}

// Delete elimina el ítem; sus movimientos se conservan.
func (r *ItemRepository) Delete(_ context.Context, id string) error {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state.IsClosed {
		return domain.ErrInventoryClosed
	}
	if _, ok := s.items[id]; !ok {
		return domain.ErrNotFound
	}
	delete(s.items, id)
	return nil
}

// --- InventoryStateRepository ---

// Get devuelve una copia del estado.
func (r *StateRepository) Get(context.Context) (*entity.InventoryState, error) {
	s := r.s
	s.mu.RLock()
	defer s.mu.RUnlock()
	st := s.state
	return &st, nil
}

// Close toma el snapshot y marca cerrado en una sola sección crítica.
func (r *StateRepository) Close(_ context.Context, actor string) (*entity.InventorySnapshot, error) {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state.IsClosed {
		return nil, fmt.Errorf("%w: el inventario ya está cerrado", domain.ErrConflict)
	}
	now := s.now()
	items := make([]*entity.InventoryItem, 0, len(s.items))
	for _, it := range s.items {
		items = append(items, it)
	}
	sortItems(items)
	snap := &entity.InventorySnapshot{
		ID:        uuid.New().String(),
		Items:     make([]entity.InventoryItem, 0, len(items)),
		CreatedBy: actor,
		CreatedAt: now,
	}
	for _, it := range items {
		snap.Items = append(snap.Items, *it.Clone())
	}
	s.snapshots = append(s.snapshots, snap)
	s.state = entity.InventoryState{IsClosed: true, UpdatedAt: now, UpdatedBy: actor, Version: s.state.Version + 1}
	return copySnapshot(snap, true), nil
}

// Reopen reinicia acumulados y observaciones de todos los ítems y marca abierto.
func (r *StateRepository) Reopen(_ context.Context, actor string) (*entity.InventoryState, error) {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.state.IsClosed {
		return nil, fmt.Errorf("%w: el inventario no está cerrado", domain.ErrConflict)
	}
	now := s.now()
	for id, it := range s.items {
		next := it.Clone()
		next.Ingreso = 0
		next.Salida = 0
		next.Observations = nil
		next.Version++
		s.items[id] = next
	}
	s.state = entity.InventoryState{IsClosed: false, UpdatedAt: now, UpdatedBy: actor, Version: s.state.Version + 1}
	st := s.state
	return &st, nil
}

// --- SnapshotRepository ---

// List más recientes primero, sin ítems.
func (r *SnapshotRepository) List(_ context.Context, limit int) ([]*entity.InventorySnapshot, error) {
	s := r.s
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*entity.InventorySnapshot, 0, len(s.snapshots))
	for i := len(s.snapshots) - 1; i >= 0; i-- {
		out = append(out, copySnapshot(s.snapshots[i], false))
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out, nil
}

// GetByID devuelve (nil, nil) si no existe.
func (r *SnapshotRepository) GetByID(_ context.Context, id string) (*entity.InventorySnapshot, error) {
	s := r.s
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, snap := range s.snapshots {
		if snap.ID == id {
			return copySnapshot(snap, true), nil
		}
	}
	return nil, nil
}

func copySnapshot(snap *entity.InventorySnapshot, withItems bool) *entity.InventorySnapshot {
	c := &entity.InventorySnapshot{ID: snap.ID, CreatedBy: snap.CreatedBy, CreatedAt: snap.CreatedAt}
	if withItems {
		c.Items = make([]entity.InventoryItem, len(snap.Items))
		for i := range snap.Items {
			c.Items[i] = *snap.Items[i].Clone()
		}
	}
	return c
}
