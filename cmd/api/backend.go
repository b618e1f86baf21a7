package main

import (
	"context"

	"github.com/jhoicas/Inventario-rooftop/internal/domain/repository"
	"github.com/jhoicas/Inventario-rooftop/internal/infrastructure/memory"
	"github.com/jhoicas/Inventario-rooftop/internal/infrastructure/postgres"
	"github.com/jhoicas/Inventario-rooftop/pkg/config"
)

// backend puertos de persistencia del driver elegido (postgres o memory).
type backend struct {
	ledger    repository.LedgerStore
	items     repository.InventoryItemRepository
	movements repository.MovementRepository
	state     repository.InventoryStateRepository
	snapshots repository.SnapshotRepository
	roles     repository.RoleRepository
	users     repository.UserRepository
	ping      func(ctx context.Context) error
	close     func()
}

// openBackend abre el store configurado. Con postgres aplica el esquema embebido al arrancar.
func openBackend(ctx context.Context, cfg *config.Config) (*backend, error) {
	if cfg.Store.UsesMemory() {
		mem := memory.New()
		return &backend{
			ledger:    mem,
			items:     mem.Items(),
			movements: mem.Movements(),
			state:     mem.State(),
			snapshots: mem.Snapshots(),
			roles:     mem.Roles(),
			users:     mem.Users(),
			ping:      mem.Ping,
			close:     func() {},
		}, nil
	}

	pool, err := postgres.NewPool(ctx, cfg.DB)
	if err != nil {
		return nil, err
	}
	store := postgres.NewStore(pool)
	if err := store.Migrate(ctx); err != nil {
		store.Close()
		return nil, err
	}
	return &backend{
		ledger:    store.Ledger,
		items:     store.Items,
		movements: store.Movements,
		state:     store.State,
		snapshots: store.Snapshots,
		roles:     store.Roles,
		users:     store.Users,
		ping:      store.Ping,
		close:     store.Close,
	}, nil
}
