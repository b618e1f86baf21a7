package postgres

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Store agrupa los adaptadores que comparten el mismo pool.
type Store struct {
	pool      *pgxpool.Pool
	Tx        *TxRunner
	Ledger    *LedgerStore
	Items     *InventoryItemRepo
	Movements *MovementRepo
	State     *InventoryStateRepo
	Snapshots *SnapshotRepo
	Roles     *RoleRepo
	Users     *UserRepo
}

// NewStore construye todos los repositorios sobre pool.
func NewStore(pool *pgxpool.Pool) *Store {
	tx := NewTxRunner(pool)
	return &Store{
		pool:      pool,
		Tx:        tx,
		Ledger:    NewLedgerStore(pool, tx),
		Items:     NewInventoryItemRepository(pool, tx),
		Movements: NewMovementRepository(pool),
		State:     NewInventoryStateRepository(pool, tx),
		Snapshots: NewSnapshotRepository(pool),
		Roles:     NewRoleRepository(pool, tx),
		Users:     NewUserRepository(pool, tx),
	}
}

// Migrate aplica el esquema embebido.
func (s *Store) Migrate(ctx context.Context) error {
	return Migrate(ctx, s.pool)
}

// Ping health check.
func (s *Store) Ping(ctx context.Context) error {
	return s.Tx.Ping(ctx)
}

// Close libera el pool.
func (s *Store) Close() {
	s.pool.Close()
}
