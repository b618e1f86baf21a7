package usecase

import (
	"context"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/Inventario-rooftop/internal/application/dto"
	"github.com/jhoicas/Inventario-rooftop/internal/domain"
	"github.com/jhoicas/Inventario-rooftop/internal/domain/entity"
	"github.com/jhoicas/Inventario-rooftop/internal/infrastructure/memory"
)

type notifierMock struct{ mock.Mock }

func (m *notifierMock) Notify(ctx context.Context, topics ...string) error {
	return m.Called(ctx, topics).Error(0)
}

func newRole(t *testing.T, s *memory.Store, name string, maxUsers int, perms ...entity.Permission) *entity.Role {
	t.Helper()
	role := &entity.Role{Name: name, MaxUsers: maxUsers, Permissions: map[entity.Permission]bool{}}
	for _, p := range perms {
		role.Permissions[p] = true
	}
	require.NoError(t, s.Roles().Create(context.Background(), role))
	return role
}

func newUser(t *testing.T, s *memory.Store, email, roleID string) *entity.User {
	t.Helper()
	u := &entity.User{Email: email, Nombre: "ana", Apellidos: "perez", RoleID: roleID}
	require.NoError(t, s.Users().Create(context.Background(), u))
	return u
}

func TestRoleUseCase_CreateRejectsDuplicateName(t *testing.T) {
	s := memory.New()
	notifier := &notifierMock{}
	notifier.On("Notify", mock.Anything, []string{domain.TopicRoles}).Return(nil).Once()
	uc := NewRoleUseCase(s.Roles(), notifier, zerolog.Nop())
	ctx := context.Background()

	created, err := uc.Create(ctx, dto.RoleRequest{
		Name:        "Cocinero",
		MaxUsers:    2,
		Permissions: map[string]bool{"registerMovement": true, "desconocido": true},
	})
	require.NoError(t, err)
	assert.True(t, created.Permissions["registerMovement"])
	assert.False(t, created.Permissions["viewReports"])
	_, unknown := created.Permissions["desconocido"]
	assert.False(t, unknown)

	_, err = uc.Create(ctx, dto.RoleRequest{Name: "cocinero"})
	assert.ErrorIs(t, err, domain.ErrDuplicate)

	_, err = uc.Create(ctx, dto.RoleRequest{Name: "  "})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
	notifier.AssertExpectations(t)
}

func TestRoleUseCase_AvailableAndDelete(t *testing.T) {
	s := memory.New()
	uc := NewRoleUseCase(s.Roles(), nil, zerolog.Nop())
	ctx := context.Background()

	full := newRole(t, s, "Admin", 1)
	limited := newRole(t, s, "Cocinero", 3)
	open := newRole(t, s, "Mesero", 0)
	newUser(t, s, "a@rooftop.co", full.ID)
	newUser(t, s, "b@rooftop.co", limited.ID)

	avail, err := uc.Available(ctx)
	require.NoError(t, err)
	require.Len(t, avail, 2)
	assert.Equal(t, limited.ID, avail[0].ID)
	require.NotNil(t, avail[0].Remaining)
	assert.Equal(t, 2, *avail[0].Remaining)
	assert.Equal(t, open.ID, avail[1].ID)
	assert.Nil(t, avail[1].Remaining)

	list, err := uc.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 3)
	assert.Equal(t, 1, list[0].UserCount)

	assert.ErrorIs(t, uc.Delete(ctx, limited.ID), domain.ErrConflict)
	require.NoError(t, uc.Delete(ctx, open.ID))
	_, err = uc.GetByID(ctx, open.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestRoleUseCase_Update(t *testing.T) {
	s := memory.New()
	uc := NewRoleUseCase(s.Roles(), nil, zerolog.Nop())
	ctx := context.Background()
	admin := newRole(t, s, "Admin", 0)
	cook := newRole(t, s, "Cocinero", 0)

	_, err := uc.Update(ctx, cook.ID, dto.RoleRequest{Name: "ADMIN"})
	assert.ErrorIs(t, err, domain.ErrDuplicate)

	out, err := uc.Update(ctx, cook.ID, dto.RoleRequest{Name: "Chef", MaxUsers: 4, Permissions: map[string]bool{"viewReports": true}})
	require.NoError(t, err)
	assert.Equal(t, "Chef", out.Name)
	assert.Equal(t, 4, out.MaxUsers)
	assert.True(t, out.Permissions["viewReports"])

	_, err = uc.Update(ctx, "no-existe", dto.RoleRequest{Name: "X"})
	assert.ErrorIs(t, err, domain.ErrNotFound)
	assert.NotEqual(t, admin.ID, cook.ID)
}

func TestUserUseCase_ResolveActorUsesCurrentRole(t *testing.T) {
	s := memory.New()
	uc := NewUserUseCase(s.Users(), s.Roles(), nil, zerolog.Nop())
	ctx := context.Background()
	viewer := newRole(t, s, "Visor", 0, entity.PermViewReports)
	cook := newRole(t, s, "Cocinero", 0, entity.PermRegisterMovement)
	u := newUser(t, s, "ana@rooftop.co", viewer.ID)

	actor, err := uc.ResolveActor(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, "ana perez", actor.DisplayName())
	assert.False(t, actor.Can(entity.PermRegisterMovement))

	_, err = uc.Update(ctx, u.ID, dto.UpdateUserRequest{RoleID: &cook.ID})
	require.NoError(t, err)

	actor, err = uc.ResolveActor(ctx, u.ID)
	require.NoError(t, err)
	assert.True(t, actor.Can(entity.PermRegisterMovement))

	_, err = uc.ResolveActor(ctx, "no-existe")
	assert.ErrorIs(t, err, domain.ErrUserNotFound)
}

func TestUserUseCase_UpdateRespectsRoleCapacity(t *testing.T) {
	s := memory.New()
	notifier := &notifierMock{}
	notifier.On("Notify", mock.Anything, []string{domain.TopicUsers}).Return(nil).Once()
	uc := NewUserUseCase(s.Users(), s.Roles(), notifier, zerolog.Nop())
	ctx := context.Background()
	admin := newRole(t, s, "Admin", 1)
	cook := newRole(t, s, "Cocinero", 0)
	newUser(t, s, "jefe@rooftop.co", admin.ID)
	u := newUser(t, s, "ana@rooftop.co", cook.ID)

	_, err := uc.Update(ctx, u.ID, dto.UpdateUserRequest{RoleID: &admin.ID})
	assert.ErrorIs(t, err, domain.ErrRoleFull)

	nombre, cel := "  María ", "3001234567"
	out, err := uc.UpdateProfile(ctx, u.ID, dto.UpdateProfileRequest{Nombre: &nombre, Celular: &cel})
	require.NoError(t, err)
	assert.Equal(t, "maría", out.Nombre)
	assert.Equal(t, "perez", out.Apellidos)
	assert.Equal(t, "3001234567", out.Celular)
	assert.Equal(t, "Cocinero", out.RoleName)

	empty := ""
	_, err = uc.UpdateProfile(ctx, u.ID, dto.UpdateProfileRequest{Nombre: &empty})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
	notifier.AssertExpectations(t)
}

func TestUserUseCase_ListAndDelete(t *testing.T) {
	s := memory.New()
	uc := NewUserUseCase(s.Users(), s.Roles(), nil, zerolog.Nop())
	ctx := context.Background()
	role := newRole(t, s, "Cocinero", 0)
	a := newUser(t, s, "a@rooftop.co", role.ID)
	b := newUser(t, s, "b@rooftop.co", role.ID)

	list, err := uc.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "Cocinero", list[0].RoleName)

	assert.ErrorIs(t, uc.Delete(ctx, a.ID, a.ID), domain.ErrConflict)
	require.NoError(t, uc.Delete(ctx, a.ID, b.ID))
	assert.ErrorIs(t, uc.Delete(ctx, a.ID, b.ID), domain.ErrUserNotFound)

	_, err = uc.GetByID(ctx, b.ID)
	assert.ErrorIs(t, err, domain.ErrUserNotFound)
}
