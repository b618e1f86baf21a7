package ledger

import (
	"context"
	"errors"
	"time"

	"github.com/jhoicas/Inventario-rooftop/internal/domain"
)

// Backoff espera entre intentos de escritura optimista (crece lineal por intento).
var Backoff = 2 * time.Millisecond

// WithOptimisticRetry ejecuta attempt hasta maxAttempts veces mientras devuelva
// domain.ErrVersionConflict. Cualquier otro error (rechazo o falla del store) se devuelve
// de inmediato. Agotados los intentos devuelve domain.ErrContention.
func WithOptimisticRetry(ctx context.Context, maxAttempts int, attempt func(ctx context.Context, n int) error) error {
	if maxAttempts < 1 {
		maxAttempts = 1
	}
	for n := 1; n <= maxAttempts; n++ {
		err := attempt(ctx, n)
		if err == nil {
			return nil
		}
		if !errors.Is(err, domain.ErrVersionConflict) {
			return err
		}
		if n == maxAttempts {
			break
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(time.Duration(n) * Backoff):
		}
	}
	return domain.ErrContention
}
