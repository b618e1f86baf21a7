package entity

import "time"

// Permission capacidad que un rol puede tener habilitada.
type Permission string

// Permisos reconocidos por la aplicación.
const (
	PermAddProduct          Permission = "addProduct"
	PermEditProduct         Permission = "editProduct"
	PermDeleteProduct       Permission = "deleteProduct"
	PermRegisterMovement    Permission = "registerMovement"
	PermViewReports         Permission = "viewReports"
	PermEditRole            Permission = "editRole"
	PermViewUserManagement  Permission = "viewUserManagement"
	PermViewRoleManagement  Permission = "viewRoleManagement"
	PermViewMovementHistory Permission = "viewMovementHistory"
	PermManageInventory     Permission = "manageInventory" // cerrar / reabrir
)

// AllPermissions lista todos los permisos en el orden del editor de roles.
var AllPermissions = []Permission{
	PermAddProduct,
	PermEditProduct,
	PermDeleteProduct,
	PermRegisterMovement,
	PermViewReports,
	PermEditRole,
	PermViewUserManagement,
	PermViewRoleManagement,
	PermViewMovementHistory,
	PermManageInventory,
}

// Role agrupa permisos y limita cuántos usuarios pueden tenerlo (MaxUsers 0 = sin límite).
type Role struct {
	ID          string
	Name        string
	MaxUsers    int
	Permissions map[Permission]bool
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// HasCapacity indica si el rol admite un usuario más dado el conteo actual.
func (r *Role) HasCapacity(current int) bool {
	return r.MaxUsers <= 0 || current < r.MaxUsers
}
