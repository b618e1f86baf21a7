package ledger

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/jhoicas/Inventario-rooftop/internal/domain"
)

func TestWithOptimisticRetry(t *testing.T) {
	ctx := context.Background()

	t.Run("reintenta conflictos hasta tener éxito", func(t *testing.T) {
		calls := 0
		err := WithOptimisticRetry(ctx, 5, func(context.Context, int) error {
			calls++
			if calls < 3 {
				return fmt.Errorf("item it-1: %w", domain.ErrVersionConflict)
			}
			return nil
		})
		assert.NoError(t, err)
		assert.Equal(t, 3, calls)
	})

	t.Run("agotar intentos devuelve contención", func(t *testing.T) {
		calls := 0
		err := WithOptimisticRetry(ctx, 4, func(context.Context, int) error {
			calls++
			return domain.ErrVersionConflict
		})
		assert.ErrorIs(t, err, domain.ErrContention)
		assert.Equal(t, 4, calls)
	})

	t.Run("store caído no se reintenta", func(t *testing.T) {
		calls := 0
		err := WithOptimisticRetry(ctx, 5, func(context.Context, int) error {
			calls++
			return fmt.Errorf("%w: conexión rechazada", domain.ErrStoreUnavailable)
		})
		assert.ErrorIs(t, err, domain.ErrStoreUnavailable)
		assert.Equal(t, 1, calls)
	})

	t.Run("rechazo de negocio no se reintenta", func(t *testing.T) {
		calls := 0
		err := WithOptimisticRetry(ctx, 5, func(context.Context, int) error {
			calls++
			return domain.ErrInsufficientStock
		})
		assert.ErrorIs(t, err, domain.ErrInsufficientStock)
		assert.Equal(t, 1, calls)
	})

	t.Run("contexto cancelado corta la espera", func(t *testing.T) {
		cctx, cancel := context.WithCancel(ctx)
		err := WithOptimisticRetry(cctx, 5, func(context.Context, int) error {
			cancel()
			return domain.ErrVersionConflict
		})
		assert.True(t, errors.Is(err, context.Canceled))
	})
}
