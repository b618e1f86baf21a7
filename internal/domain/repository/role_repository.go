package repository

import (
	"context"

	"github.com/jhoicas/Inventario-rooftop/internal/domain/entity"
)

// RoleRepository define el puerto de persistencia para Role (DIP).
type RoleRepository interface {
	Create(ctx context.Context, role *entity.Role) error
	GetByID(ctx context.Context, id string) (*entity.Role, error)
	GetByName(ctx context.Context, name string) (*entity.Role, error)
	List(ctx context.Context) ([]*entity.Role, error)
	Update(ctx context.Context, role *entity.Role) error
	// Delete devuelve domain.ErrConflict si hay usuarios con el rol.
	Delete(ctx context.Context, id string) error
	// UserCounts cantidad de usuarios por role_id.
	UserCounts(ctx context.Context) (map[string]int, error)
}
