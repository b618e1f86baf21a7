package inventory

import (
	"context"
	"errors"
	"math"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/Inventario-rooftop/internal/domain"
	"github.com/jhoicas/Inventario-rooftop/internal/domain/entity"
	"github.com/jhoicas/Inventario-rooftop/internal/domain/repository"
	"github.com/jhoicas/Inventario-rooftop/internal/infrastructure/memory"
)

// flakyStore inyecta conflictos de versión o fallas sobre el store en memoria.
type flakyStore struct {
	*memory.Store
	commitCalls   int32
	conflictsLeft int32
	commitErr     error
}

func (f *flakyStore) CommitMovement(ctx context.Context, item *entity.InventoryItem, v int64, mov *entity.Movement) (*entity.InventoryItem, *entity.Movement, error) {
	atomic.AddInt32(&f.commitCalls, 1)
	if f.commitErr != nil {
		return nil, nil, f.commitErr
	}
	if atomic.AddInt32(&f.conflictsLeft, -1) >= 0 {
		return nil, nil, domain.ErrVersionConflict
	}
	return f.Store.CommitMovement(ctx, item, v, mov)
}

// interleavingStore obliga a que las dos primeras lecturas del ítem ocurran antes de
// cualquier escritura, forzando un conflicto real entre dos escritores.
type interleavingStore struct {
	*memory.Store
	reads   int32
	barrier sync.WaitGroup
}

func (s *interleavingStore) GetItem(ctx context.Context, id string) (*entity.InventoryItem, error) {
	it, err := s.Store.GetItem(ctx, id)
	if atomic.AddInt32(&s.reads, 1) <= 2 {
		s.barrier.Done()
		s.barrier.Wait()
	}
	return it, err
}

type notifierMock struct{ mock.Mock }

func (m *notifierMock) Notify(ctx context.Context, topics ...string) error {
	return m.Called(ctx, topics).Error(0)
}

type publisherMock struct{ mock.Mock }

func (m *publisherMock) PublishMovement(ctx context.Context, mov *entity.Movement) error {
	return m.Called(ctx, mov).Error(0)
}

func seedItem(t *testing.T, s *memory.Store, it *entity.InventoryItem) *entity.InventoryItem {
	t.Helper()
	require.NoError(t, s.Items().Create(context.Background(), it))
	return it
}

func movementCount(t *testing.T, s *memory.Store) int {
	t.Helper()
	movs, err := s.Movements().List(context.Background(), repository.MovementFilter{})
	require.NoError(t, err)
	return len(movs)
}

func newUC(store repository.LedgerStore, mem *memory.Store, maxRetries int) *MovementUseCase {
	return NewMovementUseCase(store, mem.Items(), nil, nil, maxRetries, zerolog.Nop())
}

func TestApplyMovement_IngresoClearsLowStock(t *testing.T) {
	ctx := context.Background()
	mem := memory.New()
	it := seedItem(t, mem, &entity.InventoryItem{Name: "Limón", Bodega: 10, Cocina: 5, StockMin: 8})
	uc := newUC(mem, mem, 5)

	res, err := uc.ApplyMovement(ctx, MovementInput{ItemID: it.ID, Type: entity.MovementIngresoBodega, Quantity: 5, ActorName: "ana perez", ActorID: "u-1"})
	require.NoError(t, err)
	assert.Equal(t, int64(15), res.Item.Bodega)
	assert.Equal(t, int64(5), res.Item.Ingreso)
	assert.False(t, res.Item.IsLowStock())
	assert.Equal(t, "ana perez", res.Item.Responsable)
	assert.Equal(t, int64(2), res.Item.Version)

	assert.Equal(t, int64(10), res.Movement.BeforeBodega)
	assert.Equal(t, int64(5), res.Movement.BeforeCocina)
	assert.Equal(t, res.Item.LastUpdated, res.Movement.Timestamp)
	assert.Equal(t, 1, movementCount(t, mem))
}

func TestApplyMovement_InsufficientStockLeavesNoTrace(t *testing.T) {
	ctx := context.Background()
	mem := memory.New()
	it := seedItem(t, mem, &entity.InventoryItem{Name: "Ron", Bodega: 3})
	uc := newUC(mem, mem, 5)

	_, err := uc.ApplyMovement(ctx, MovementInput{ItemID: it.ID, Type: entity.MovementSalidaBodega, Quantity: 5})
	require.ErrorIs(t, err, domain.ErrInsufficientStock)

	got, err := mem.GetItem(ctx, it.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(3), got.Bodega)
	assert.Equal(t, int64(0), got.Cocina)
	assert.Equal(t, int64(0), got.Ingreso)
	assert.Equal(t, int64(0), got.Salida)
	assert.Equal(t, int64(1), got.Version)
	assert.Equal(t, 0, movementCount(t, mem))
}

func TestApplyMovement_OverflowKeepsStockNonNegative(t *testing.T) {
	ctx := context.Background()
	mem := memory.New()
	it := seedItem(t, mem, &entity.InventoryItem{Name: "Sal", Bodega: 1})
	uc := newUC(mem, mem, 5)

	_, err := uc.ApplyMovement(ctx, MovementInput{ItemID: it.ID, Type: entity.MovementIngresoBodega, Quantity: math.MaxInt64})
	require.ErrorIs(t, err, domain.ErrInvalidQuantity)

	got, err := mem.GetItem(ctx, it.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), got.Bodega)
	assert.Equal(t, int64(0), got.Ingreso)
	assert.Equal(t, int64(1), got.Version)
	assert.Equal(t, 0, movementCount(t, mem))
}

func TestApplyMovement_TransferScenario(t *testing.T) {
	mem := memory.New()
	it := seedItem(t, mem, &entity.InventoryItem{Name: "Harina", Bodega: 10, Cocina: 2})
	uc := newUC(mem, mem, 5)

	res, err := uc.ApplyMovement(context.Background(), MovementInput{ItemID: it.ID, Type: entity.MovementBodegaCocina, Quantity: 4})
	require.NoError(t, err)
	assert.Equal(t, int64(6), res.Item.Bodega)
	assert.Equal(t, int64(6), res.Item.Cocina)
	assert.Zero(t, res.Item.Ingreso)
	assert.Zero(t, res.Item.Salida)
	assert.Equal(t, "N/A", res.Movement.Responsible)
}

func TestApplyMovement_ValidationBeforeStoreAccess(t *testing.T) {
	mem := memory.New()
	it := seedItem(t, mem, &entity.InventoryItem{Name: "Sal", Bodega: 10})
	store := &flakyStore{Store: mem}
	uc := newUC(store, mem, 5)

	_, err := uc.ApplyMovement(context.Background(), MovementInput{ItemID: it.ID, Type: entity.MovementIngresoBodega, Quantity: 0})
	assert.ErrorIs(t, err, domain.ErrInvalidQuantity)
	_, err = uc.ApplyMovement(context.Background(), MovementInput{ItemID: it.ID, Type: "devolucion", Quantity: 2})
	assert.ErrorIs(t, err, domain.ErrInvalidMovementType)
	_, err = uc.ApplyMovement(context.Background(), MovementInput{Type: entity.MovementIngresoBodega, Quantity: 2})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
	_, err = uc.ApplyMovement(context.Background(), MovementInput{ItemID: "no-existe", Type: entity.MovementIngresoBodega, Quantity: 2})
	assert.ErrorIs(t, err, domain.ErrNotFound)

	assert.Equal(t, int32(0), atomic.LoadInt32(&store.commitCalls))
}

func TestApplyMovement_ResolveByName(t *testing.T) {
	ctx := context.Background()
	mem := memory.New()
	uc := newUC(mem, mem, 5)
	seedItem(t, mem, &entity.InventoryItem{Name: "Aguacate", Bodega: 1})
	seedItem(t, mem, &entity.InventoryItem{Name: "Limón"})
	seedItem(t, mem, &entity.InventoryItem{Name: "limón "})

	res, err := uc.ApplyMovement(ctx, MovementInput{ItemName: "  AGUACATE", Type: entity.MovementIngresoCocina, Quantity: 2})
	require.NoError(t, err)
	assert.Equal(t, int64(2), res.Item.Cocina)
	assert.Equal(t, "Aguacate", res.Movement.ProductName)

	_, err = uc.ApplyMovement(ctx, MovementInput{ItemName: "limón", Type: entity.MovementIngresoCocina, Quantity: 2})
	assert.ErrorIs(t, err, domain.ErrAmbiguousName)

	_, err = uc.ApplyMovement(ctx, MovementInput{ItemName: "mango", Type: entity.MovementIngresoCocina, Quantity: 2})
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestApplyMovement_RejectedWhileClosed(t *testing.T) {
	ctx := context.Background()
	mem := memory.New()
	it := seedItem(t, mem, &entity.InventoryItem{Name: "Vino", Bodega: 10})
	store := &flakyStore{Store: mem}
	uc := newUC(store, mem, 5)

	_, err := mem.State().Close(ctx, "admin")
	require.NoError(t, err)

	_, err = uc.ApplyMovement(ctx, MovementInput{ItemID: it.ID, Type: entity.MovementIngresoBodega, Quantity: 1})
	assert.ErrorIs(t, err, domain.ErrInventoryClosed)
	assert.Equal(t, int32(0), atomic.LoadInt32(&store.commitCalls))
	assert.Equal(t, 0, movementCount(t, mem))
}

func TestApplyMovement_RetriesVersionConflicts(t *testing.T) {
	mem := memory.New()
	it := seedItem(t, mem, &entity.InventoryItem{Name: "Queso", Bodega: 10})
	store := &flakyStore{Store: mem, conflictsLeft: 2}
	uc := newUC(store, mem, 5)

	res, err := uc.ApplyMovement(context.Background(), MovementInput{ItemID: it.ID, Type: entity.MovementSalidaBodega, Quantity: 4})
	require.NoError(t, err)
	assert.Equal(t, int64(6), res.Item.Bodega)
	assert.Equal(t, int32(3), atomic.LoadInt32(&store.commitCalls))
	assert.Equal(t, 1, movementCount(t, mem))
}

func TestApplyMovement_ContentionAfterMaxRetries(t *testing.T) {
	ctx := context.Background()
	mem := memory.New()
	it := seedItem(t, mem, &entity.InventoryItem{Name: "Queso", Bodega: 10})
	store := &flakyStore{Store: mem, conflictsLeft: 100}
	uc := newUC(store, mem, 4)

	_, err := uc.ApplyMovement(ctx, MovementInput{ItemID: it.ID, Type: entity.MovementSalidaBodega, Quantity: 4})
	require.ErrorIs(t, err, domain.ErrContention)
	assert.Equal(t, int32(4), atomic.LoadInt32(&store.commitCalls))

	got, _ := mem.GetItem(ctx, it.ID)
	assert.Equal(t, int64(10), got.Bodega)
	assert.Equal(t, 0, movementCount(t, mem))
}

func TestApplyMovement_StoreUnavailableIsNotRetried(t *testing.T) {
	mem := memory.New()
	it := seedItem(t, mem, &entity.InventoryItem{Name: "Queso", Bodega: 10})
	store := &flakyStore{Store: mem, commitErr: errors.New("connection reset by peer")}
	uc := newUC(store, mem, 5)

	_, err := uc.ApplyMovement(context.Background(), MovementInput{ItemID: it.ID, Type: entity.MovementIngresoBodega, Quantity: 1})
	require.ErrorIs(t, err, domain.ErrStoreUnavailable)
	assert.Contains(t, err.Error(), "connection reset")
	assert.Equal(t, int32(1), atomic.LoadInt32(&store.commitCalls))
}

func TestApplyMovement_ConcurrentIngresoNoLostUpdate(t *testing.T) {
	ctx := context.Background()
	mem := memory.New()
	it := seedItem(t, mem, &entity.InventoryItem{Name: "Papa", Bodega: 20})
	store := &interleavingStore{Store: mem}
	store.barrier.Add(2)
	uc := newUC(store, mem, 5)

	var wg sync.WaitGroup
	errs := make([]error, 2)
	for i, q := range []int64{3, 7} {
		wg.Add(1)
		go func(i int, q int64) {
			defer wg.Done()
			_, errs[i] = uc.ApplyMovement(ctx, MovementInput{ItemID: it.ID, Type: entity.MovementIngresoBodega, Quantity: q})
		}(i, q)
	}
	wg.Wait()
	require.NoError(t, errs[0])
	require.NoError(t, errs[1])

	got, _ := mem.GetItem(ctx, it.ID)
	assert.Equal(t, int64(30), got.Bodega)
	assert.Equal(t, int64(10), got.Ingreso)
	assert.GreaterOrEqual(t, atomic.LoadInt32(&store.reads), int32(3), "el perdedor vuelve a leer")

	movs, err := mem.Movements().List(ctx, repository.MovementFilter{})
	require.NoError(t, err)
	require.Len(t, movs, 2)
	befores := []int64{movs[0].BeforeBodega, movs[1].BeforeBodega}
	assert.Contains(t, befores, int64(20))
	for _, m := range movs {
		assert.Equal(t, m.BeforeBodega+m.Quantity, m.AfterBodega)
	}
}

func TestApplyMovement_ManyConcurrentWriters(t *testing.T) {
	ctx := context.Background()
	mem := memory.New()
	it := seedItem(t, mem, &entity.InventoryItem{Name: "Huevos", Bodega: 0})
	uc := newUC(mem, mem, 200)

	const writers = 10
	var wg sync.WaitGroup
	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := uc.ApplyMovement(ctx, MovementInput{ItemID: it.ID, Type: entity.MovementIngresoBodega, Quantity: 2})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	got, _ := mem.GetItem(ctx, it.ID)
	assert.Equal(t, int64(2*writers), got.Bodega)
	assert.Equal(t, writers, movementCount(t, mem))
}

func TestApplyMovement_SideEffectFailuresDoNotUndoCommit(t *testing.T) {
	mem := memory.New()
	it := seedItem(t, mem, &entity.InventoryItem{Name: "Leche", Bodega: 2})

	notifier := &notifierMock{}
	notifier.On("Notify", mock.Anything, []string{domain.TopicItems, domain.TopicMovements}).
		Return(errors.New("redis caído")).Once()
	publisher := &publisherMock{}
	publisher.On("PublishMovement", mock.Anything, mock.MatchedBy(func(m *entity.Movement) bool {
		return m.ProductID == it.ID && m.Quantity == 1
	})).Return(errors.New("kafka caído")).Once()

	uc := NewMovementUseCase(mem, mem.Items(), notifier, publisher, 5, zerolog.Nop())
	res, err := uc.ApplyMovement(context.Background(), MovementInput{ItemID: it.ID, Type: entity.MovementSalidaBodega, Quantity: 1})
	require.NoError(t, err)
	assert.Equal(t, int64(1), res.Item.Bodega)
	assert.Equal(t, 1, movementCount(t, mem))

	notifier.AssertExpectations(t)
	publisher.AssertExpectations(t)
}
