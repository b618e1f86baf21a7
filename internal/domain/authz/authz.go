// Package authz decide si un rol puede ejecutar una acción.
package authz

import "github.com/jhoicas/Inventario-rooftop/internal/domain/entity"

// Can es el único punto de decisión de permisos. Un rol nil o un permiso desconocido niegan.
func Can(role *entity.Role, perm entity.Permission) bool {
	if role == nil || role.Permissions == nil {
		return false
	}
	return role.Permissions[perm]
}

// Granted lista los permisos habilitados del rol en el orden canónico.
func Granted(role *entity.Role) []entity.Permission {
	out := make([]entity.Permission, 0, len(entity.AllPermissions))
	for _, p := range entity.AllPermissions {
		if Can(role, p) {
			out = append(out, p)
		}
	}
	return out
}

// Normalize devuelve un mapa con todos los permisos conocidos (false por defecto),
// descartando claves desconocidas.
func Normalize(in map[entity.Permission]bool) map[entity.Permission]bool {
	out := make(map[entity.Permission]bool, len(entity.AllPermissions))
	for _, p := range entity.AllPermissions {
		out[p] = in[p]
	}
	return out
}

// IsKnown indica si el permiso existe.
func IsKnown(perm entity.Permission) bool {
	for _, p := range entity.AllPermissions {
		if p == perm {
			return true
		}
	}
	return false
}
