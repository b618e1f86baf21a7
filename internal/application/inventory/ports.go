package inventory

import (
	"context"

	"github.com/jhoicas/Inventario-rooftop/internal/domain/entity"
)

// ChangeNotifier avisa a los suscriptores en tiempo real que cambió un tema
// (items, movements, state...). Es best effort: un error no deshace la operación.
type ChangeNotifier interface {
	Notify(ctx context.Context, topics ...string) error
}

// MovementPublisher publica cada movimiento aceptado hacia consumidores externos.
type MovementPublisher interface {
	PublishMovement(ctx context.Context, mov *entity.Movement) error
}
