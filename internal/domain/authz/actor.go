package authz

import "github.com/jhoicas/Inventario-rooftop/internal/domain/entity"

// Actor usuario autenticado que ejecuta una operación, con su rol vigente.
type Actor struct {
	UserID string
	Name   string // nombre para mostrar como responsable
	Email  string
	Role   *entity.Role
}

// Can indica si el actor tiene el permiso.
func (a *Actor) Can(perm entity.Permission) bool {
	if a == nil {
		return false
	}
	return Can(a.Role, perm)
}

// DisplayName nombre del responsable; "N/A" si el actor no tiene nombre.
func (a *Actor) DisplayName() string {
	if a == nil || a.Name == "" {
		return "N/A"
	}
	return a.Name
}

// ActorFromUser arma el actor a partir del registro actual del usuario y su rol.
func ActorFromUser(u *entity.User, role *entity.Role) *Actor {
	if u == nil {
		return nil
	}
	return &Actor{UserID: u.ID, Name: u.FullName(), Email: u.Email, Role: role}
}
