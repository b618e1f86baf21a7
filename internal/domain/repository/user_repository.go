package repository

import (
	"context"

	"github.com/jhoicas/Inventario-rooftop/internal/domain/entity"
)

// UserRepository define el puerto de persistencia para User (DIP).
// Create y Update verifican el cupo del rol (max_users) dentro de la misma transacción
// y devuelven domain.ErrRoleFull si está completo.
type UserRepository interface {
	Create(ctx context.Context, user *entity.User) error
	GetByID(ctx context.Context, id string) (*entity.User, error)
	GetByEmail(ctx context.Context, email string) (*entity.User, error)
	List(ctx context.Context) ([]*entity.User, error)
	Update(ctx context.Context, user *entity.User) error
	Delete(ctx context.Context, id string) error
}
