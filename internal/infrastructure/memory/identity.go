package memory

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/google/uuid"

	"github.com/jhoicas/Inventario-rooftop/internal/domain"
	"github.com/jhoicas/Inventario-rooftop/internal/domain/entity"
	"github.com/jhoicas/Inventario-rooftop/internal/domain/repository"
)

var (
	_ repository.RoleRepository = (*RoleRepository)(nil)
	_ repository.UserRepository = (*UserRepository)(nil)
)

// RoleRepository vista de roles.
type RoleRepository struct{ s *Store }

// UserRepository vista de usuarios.
type UserRepository struct{ s *Store }

// Roles devuelve el repositorio de roles.
func (s *Store) Roles() *RoleRepository { return &RoleRepository{s: s} }

// Users devuelve el repositorio de usuarios.
func (s *Store) Users() *UserRepository { return &UserRepository{s: s} }

func copyRole(r *entity.Role) *entity.Role {
	c := *r
	c.Permissions = make(map[entity.Permission]bool, len(r.Permissions))
	for k, v := range r.Permissions {
		c.Permissions[k] = v
	}
	return &c
}

// Create rechaza nombres repetidos (sin distinguir mayúsculas).
func (r *RoleRepository) Create(_ context.Context, role *entity.Role) error {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.roleByNameLocked(role.Name) != nil {
		return domain.ErrDuplicate
	}
	if role.ID == "" {
		role.ID = uuid.New().String()
	}
	now := s.now()
	role.CreatedAt, role.UpdatedAt = now, now
	s.roles[role.ID] = copyRole(role)
	return nil
}

func (s *Store) roleByNameLocked(name string) *entity.Role {
	for _, role := range s.roles {
		if strings.EqualFold(role.Name, strings.TrimSpace(name)) {
			return role
		}
	}
	return nil
}

// GetByID devuelve (nil, nil) si no existe.
func (r *RoleRepository) GetByID(_ context.Context, id string) (*entity.Role, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	role, ok := r.s.roles[id]
	if !ok {
		return nil, nil
	}
	return copyRole(role), nil
}

// GetByName sin distinguir mayúsculas.
func (r *RoleRepository) GetByName(_ context.Context, name string) (*entity.Role, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	role := r.s.roleByNameLocked(name)
	if role == nil {
		return nil, nil
	}
	return copyRole(role), nil
}

// List roles ordenados por nombre.
func (r *RoleRepository) List(context.Context) ([]*entity.Role, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	out := make([]*entity.Role, 0, len(r.s.roles))
	for _, role := range r.s.roles {
		out = append(out, copyRole(role))
	}
	sort.Slice(out, func(i, j int) bool { return strings.ToLower(out[i].Name) < strings.ToLower(out[j].Name) })
	return out, nil
}

// Update reemplaza nombre, cupo y permisos.
func (r *RoleRepository) Update(_ context.Context, role *entity.Role) error {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()
	cur, ok := s.roles[role.ID]
	if !ok {
		return domain.ErrNotFound
	}
	if other := s.roleByNameLocked(role.Name); other != nil && other.ID != role.ID {
		return domain.ErrDuplicate
	}
	role.CreatedAt = cur.CreatedAt
	role.UpdatedAt = s.now()
	s.roles[role.ID] = copyRole(role)
	return nil
}

// Delete falla con ErrConflict si algún usuario tiene el rol.
func (r *RoleRepository) Delete(_ context.Context, id string) error {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.roles[id]; !ok {
		return domain.ErrNotFound
	}
	if n := s.countUsersLocked(id); n > 0 {
		return fmt.Errorf("%w: %d usuarios tienen este rol", domain.ErrConflict, n)
	}
	delete(s.roles, id)
	return nil
}

// UserCounts cantidad de usuarios por rol.
func (r *RoleRepository) UserCounts(context.Context) (map[string]int, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	out := make(map[string]int)
	for _, u := range r.s.users {
		out[u.RoleID]++
	}
	return out, nil
}

func (s *Store) countUsersLocked(roleID string) int {
	n := 0
	for _, u := range s.users {
		if u.RoleID == roleID {
			n++
		}
	}
	return n
}

// checkCapacityLocked verifica que el rol exista y tenga cupo para un usuario más.
func (s *Store) checkCapacityLocked(roleID string) error {
	role, ok := s.roles[roleID]
	if !ok {
		return fmt.Errorf("rol %s: %w", roleID, domain.ErrNotFound)
	}
	if !role.HasCapacity(s.countUsersLocked(roleID)) {
		return domain.ErrRoleFull
	}
	return nil
}

// Create verifica email único y cupo del rol en la misma sección crítica.
func (r *UserRepository) Create(_ context.Context, user *entity.User) error {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if strings.EqualFold(u.Email, user.Email) {
			return domain.ErrEmailAlreadyExists
		}
	}
	if err := s.checkCapacityLocked(user.RoleID); err != nil {
		return err
	}
	if user.ID == "" {
		user.ID = uuid.New().String()
	}
	now := s.now()
	user.CreatedAt, user.UpdatedAt = now, now
	c := *user
	s.users[user.ID] = &c
	return nil
}

// GetByID devuelve (nil, nil) si no existe.
func (r *UserRepository) GetByID(_ context.Context, id string) (*entity.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	u, ok := r.s.users[id]
	if !ok {
		return nil, nil
	}
	c := *u
	return &c, nil
}

// GetByEmail sin distinguir mayúsculas.
func (r *UserRepository) GetByEmail(_ context.Context, email string) (*entity.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	for _, u := range r.s.users {
		if strings.EqualFold(u.Email, strings.TrimSpace(email)) {
			c := *u
			return &c, nil
		}
	}
	return nil, nil
}

// List usuarios ordenados por nombre y apellidos.
func (r *UserRepository) List(context.Context) ([]*entity.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	out := make([]*entity.User, 0, len(r.s.users))
	for _, u := range r.s.users {
		c := *u
		out = append(out, &c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].FullName() < out[j].FullName() })
	return out, nil
}

// Update guarda el perfil; si cambia el rol verifica cupo en el nuevo.
func (r *UserRepository) Update(_ context.Context, user *entity.User) error {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()
	cur, ok := s.users[user.ID]
	if !ok {
		return domain.ErrUserNotFound
	}
	if cur.RoleID != user.RoleID {
		if err := s.checkCapacityLocked(user.RoleID); err != nil {
			return err
		}
	}
	user.CreatedAt = cur.CreatedAt
	user.UpdatedAt = s.now()
	c := *user
	s.users[user.ID] = &c
	return nil
}

// Delete elimina el usuario.
func (r *UserRepository) Delete(_ context.Context, id string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.users[id]; !ok {
		return domain.ErrUserNotFound
	}
	delete(r.s.users, id)
	return nil
}
