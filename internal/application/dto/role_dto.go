package dto

import "time"

// RoleRequest alta o edición de un rol. MaxUsers 0 = sin límite.
type RoleRequest struct {
	Name        string          `json:"name" validate:"required,min=1,max=100"`
	MaxUsers    int             `json:"max_users" validate:"min=0"`
	Permissions map[string]bool `json:"permissions"`
}

// RoleResponse salida de un rol con su ocupación.
type RoleResponse struct {
	ID          string          `json:"id"`
	Name        string          `json:"name"`
	MaxUsers    int             `json:"max_users"`
	UserCount   int             `json:"user_count"`
	Permissions map[string]bool `json:"permissions"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
}

// AvailableRoleResponse rol ofrecido en el formulario de registro.
type AvailableRoleResponse struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Remaining *int   `json:"remaining,omitempty"` // nil = sin límite
}
