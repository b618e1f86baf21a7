package usecase

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"github.com/jhoicas/Inventario-rooftop/internal/application/dto"
	"github.com/jhoicas/Inventario-rooftop/internal/domain"
	"github.com/jhoicas/Inventario-rooftop/internal/domain/authz"
	"github.com/jhoicas/Inventario-rooftop/internal/domain/entity"
	"github.com/jhoicas/Inventario-rooftop/internal/domain/repository"
)

// Notifier avisa a los suscriptores en tiempo real. Puede ser nil.
type Notifier interface {
	Notify(ctx context.Context, topics ...string) error
}

// RoleUseCase casos de uso de administración de roles.
type RoleUseCase struct {
	repo     repository.RoleRepository
	notifier Notifier
	log      zerolog.Logger
}

// NewRoleUseCase construye el caso de uso.
func NewRoleUseCase(repo repository.RoleRepository, notifier Notifier, log zerolog.Logger) *RoleUseCase {
	return &RoleUseCase{repo: repo, notifier: notifier, log: log}
}

// Create crea un rol. El nombre no puede repetirse (sin distinguir mayúsculas).
func (uc *RoleUseCase) Create(ctx context.Context, in dto.RoleRequest) (*dto.RoleResponse, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" || in.MaxUsers < 0 {
		return nil, domain.ErrInvalidInput
	}
	existing, err := uc.repo.GetByName(ctx, name)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, fmt.Errorf("rol %q: %w", name, domain.ErrDuplicate)
	}
	role := &entity.Role{
		Name:        name,
		MaxUsers:    in.MaxUsers,
		Permissions: permissionsFromRequest(in.Permissions),
	}
	if err := uc.repo.Create(ctx, role); err != nil {
		return nil, err
	}
	uc.log.Info().Str("role_id", role.ID).Str("name", role.Name).Msg("rol creado")
	uc.notify(ctx)
	out := dto.RoleFromEntity(role, 0)
	return &out, nil
}

// Update reemplaza nombre, cupo y permisos. Bajar el cupo por debajo de los usuarios actuales
// no expulsa a nadie; solo impide nuevas asignaciones.
func (uc *RoleUseCase) Update(ctx context.Context, id string, in dto.RoleRequest) (*dto.RoleResponse, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" || in.MaxUsers < 0 {
		return nil, domain.ErrInvalidInput
	}
	role, err := uc.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if role == nil {
		return nil, domain.ErrNotFound
	}
	if other, err := uc.repo.GetByName(ctx, name); err != nil {
		return nil, err
	} else if other != nil && other.ID != role.ID {
		return nil, fmt.Errorf("rol %q: %w", name, domain.ErrDuplicate)
	}

	role.Name = name
	role.MaxUsers = in.MaxUsers
	role.Permissions = permissionsFromRequest(in.Permissions)
	if err := uc.repo.Update(ctx, role); err != nil {
		return nil, err
	}
	counts, err := uc.repo.UserCounts(ctx)
	if err != nil {
		return nil, err
	}
	uc.notify(ctx)
	out := dto.RoleFromEntity(role, counts[role.ID])
	return &out, nil
}

// Delete elimina el rol; falla con ErrConflict mientras haya usuarios con él.
func (uc *RoleUseCase) Delete(ctx context.Context, id string) error {
	if err := uc.repo.Delete(ctx, id); err != nil {
		return err
	}
	uc.log.Info().Str("role_id", id).Msg("rol eliminado")
	uc.notify(ctx)
	return nil
}

// GetByID obtiene un rol con su ocupación.
func (uc *RoleUseCase) GetByID(ctx context.Context, id string) (*dto.RoleResponse, error) {
	role, err := uc.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if role == nil {
		return nil, domain.ErrNotFound
	}
	counts, err := uc.repo.UserCounts(ctx)
	if err != nil {
		return nil, err
	}
	out := dto.RoleFromEntity(role, counts[role.ID])
	return &out, nil
}

// List roles ordenados por nombre, con la cantidad de usuarios de cada uno.
func (uc *RoleUseCase) List(ctx context.Context) ([]dto.RoleResponse, error) {
	roles, err := uc.repo.List(ctx)
	if err != nil {
		return nil, err
	}
	counts, err := uc.repo.UserCounts(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]dto.RoleResponse, 0, len(roles))
	for _, r := range roles {
		out = append(out, dto.RoleFromEntity(r, counts[r.ID]))
	}
	return out, nil
}

// Available roles que todavía aceptan usuarios, para el formulario de registro.
func (uc *RoleUseCase) Available(ctx context.Context) ([]dto.AvailableRoleResponse, error) {
	roles, err := uc.repo.List(ctx)
	if err != nil {
		return nil, err
	}
	counts, err := uc.repo.UserCounts(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]dto.AvailableRoleResponse, 0, len(roles))
	for _, r := range roles {
		if !r.HasCapacity(counts[r.ID]) {
			continue
		}
		item := dto.AvailableRoleResponse{ID: r.ID, Name: r.Name}
		if r.MaxUsers > 0 {
			remaining := r.MaxUsers - counts[r.ID]
			item.Remaining = &remaining
		}
		out = append(out, item)
	}
	return out, nil
}

func (uc *RoleUseCase) notify(ctx context.Context) {
	if uc.notifier == nil {
		return
	}
	if err := uc.notifier.Notify(ctx, domain.TopicRoles); err != nil {
		uc.log.Warn().Err(err).Msg("no se pudo notificar el cambio de roles")
	}
}

// permissionsFromRequest descarta claves desconocidas y completa las faltantes en false.
func permissionsFromRequest(in map[string]bool) map[entity.Permission]bool {
	raw := make(map[entity.Permission]bool, len(in))
	for k, v := range in {
		raw[entity.Permission(k)] = v
	}
	return authz.Normalize(raw)
}
