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

// UserUseCase aplica reglas de negocio para usuarios.
type UserUseCase struct {
	repo     repository.UserRepository
	roles    repository.RoleRepository
	notifier Notifier
	log      zerolog.Logger
}

// NewUserUseCase construye el caso de uso con los puertos de persistencia.
func NewUserUseCase(repo repository.UserRepository, roles repository.RoleRepository, notifier Notifier, log zerolog.Logger) *UserUseCase {
	return &UserUseCase{repo: repo, roles: roles, notifier: notifier, log: log}
}

// ResolveActor carga el registro vigente del usuario y su rol. Se usa en cada request
// autorizado, así un cambio de rol aplica sin esperar a un nuevo login.
func (uc *UserUseCase) ResolveActor(ctx context.Context, userID string) (*authz.Actor, error) {
	user, err := uc.repo.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, domain.ErrUserNotFound
	}
	role, err := uc.roles.GetByID(ctx, user.RoleID)
	if err != nil {
		return nil, err
	}
	return authz.ActorFromUser(user, role), nil
}

// GetByID obtiene un usuario por ID.
func (uc *UserUseCase) GetByID(ctx context.Context, id string) (*dto.UserResponse, error) {
	user, err := uc.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, domain.ErrUserNotFound
	}
	role, err := uc.roles.GetByID(ctx, user.RoleID)
	if err != nil {
		return nil, err
	}
	out := dto.UserFromEntity(user, role)
	return &out, nil
}

// List usuarios con el nombre de su rol.
func (uc *UserUseCase) List(ctx context.Context) ([]dto.UserResponse, error) {
	users, err := uc.repo.List(ctx)
	if err != nil {
		return nil, err
	}
	roles, err := uc.roles.List(ctx)
	if err != nil {
		return nil, err
	}
	byID := make(map[string]*entity.Role, len(roles))
	for _, r := range roles {
		byID[r.ID] = r
	}
	out := make([]dto.UserResponse, 0, len(users))
	for _, u := range users {
		out = append(out, dto.UserFromEntity(u, byID[u.RoleID]))
	}
	return out, nil
}

// UpdateProfile edita nombre, apellidos y celular del propio usuario.
func (uc *UserUseCase) UpdateProfile(ctx context.Context, userID string, in dto.UpdateProfileRequest) (*dto.UserResponse, error) {
	return uc.update(ctx, userID, in, nil)
}

// Update edición administrativa; permite cambiar el rol (sujeto al cupo del rol destino).
func (uc *UserUseCase) Update(ctx context.Context, userID string, in dto.UpdateUserRequest) (*dto.UserResponse, error) {
	return uc.update(ctx, userID, in.UpdateProfileRequest, in.RoleID)
}

func (uc *UserUseCase) update(ctx context.Context, userID string, in dto.UpdateProfileRequest, roleID *string) (*dto.UserResponse, error) {
	user, err := uc.repo.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, domain.ErrUserNotFound
	}
	if in.Nombre != nil {
		nombre := strings.ToLower(strings.TrimSpace(*in.Nombre))
		if nombre == "" {
			return nil, fmt.Errorf("%w: el nombre es obligatorio", domain.ErrInvalidInput)
		}
		user.Nombre = nombre
	}
	if in.Apellidos != nil {
		user.Apellidos = strings.ToLower(strings.TrimSpace(*in.Apellidos))
	}
	if in.Celular != nil {
		user.Celular = strings.TrimSpace(*in.Celular)
	}
	topics := []string{domain.TopicUsers}
	if roleID != nil && strings.TrimSpace(*roleID) != "" && *roleID != user.RoleID {
		role, err := uc.roles.GetByID(ctx, strings.TrimSpace(*roleID))
		if err != nil {
			return nil, err
		}
		if role == nil {
			return nil, fmt.Errorf("rol %q: %w", *roleID, domain.ErrNotFound)
		}
		user.RoleID = role.ID
		topics = append(topics, domain.TopicRoles)
	}
	// El cupo del rol nuevo se verifica dentro de la transacción del repositorio.
	if err := uc.repo.Update(ctx, user); err != nil {
		return nil, err
	}
	role, err := uc.roles.GetByID(ctx, user.RoleID)
	if err != nil {
		return nil, err
	}
	uc.notify(ctx, topics...)
	out := dto.UserFromEntity(user, role)
	return &out, nil
}

// Delete elimina un usuario. Un usuario no puede eliminarse a sí mismo.
func (uc *UserUseCase) Delete(ctx context.Context, actorID, userID string) error {
	if actorID == userID {
		return fmt.Errorf("%w: no puede eliminar su propio usuario", domain.ErrConflict)
	}
	if err := uc.repo.Delete(ctx, userID); err != nil {
		return err
	}
	uc.log.Info().Str("user_id", userID).Str("by", actorID).Msg("usuario eliminado")
	uc.notify(ctx, domain.TopicUsers, domain.TopicRoles)
	return nil
}

func (uc *UserUseCase) notify(ctx context.Context, topics ...string) {
	if uc.notifier == nil {
		return
	}
	if err := uc.notifier.Notify(ctx, topics...); err != nil {
		uc.log.Warn().Err(err).Msg("no se pudo notificar el cambio de usuarios")
	}
}
