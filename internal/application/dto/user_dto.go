package dto

import "time"

// RegisterRequest entrada para registro: credenciales más perfil y rol elegido.
// Formato de email y largo de password los valida el caso de uso (ErrInvalidEmail, ErrWeakPassword).
type RegisterRequest struct {
	Email     string `json:"email" validate:"required"`
	Password  string `json:"password" validate:"required"`
	Nombre    string `json:"nombre" validate:"required,max=100"`
	Apellidos string `json:"apellidos" validate:"max=100"`
	Celular   string `json:"celular" validate:"max=30"`
	RoleID    string `json:"role_id" validate:"required"`
}

// LoginRequest entrada para login.
type LoginRequest struct {
	Email    string `json:"email" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// LoginResponse salida con token JWT.
type LoginResponse struct {
	Token     string       `json:"token"`
	ExpiresAt time.Time    `json:"expires_at"`
	User      UserResponse `json:"user"`
}

// UserResponse salida de un usuario (sin password).
type UserResponse struct {
	ID          string    `json:"id"`
	Email       string    `json:"email"`
	Nombre      string    `json:"nombre"`
	Apellidos   string    `json:"apellidos"`
	Celular     string    `json:"celular"`
	RoleID      string    `json:"role_id"`
	RoleName    string    `json:"role_name,omitempty"`
	Permissions []string  `json:"permissions,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// UpdateProfileRequest edición del propio perfil.
type UpdateProfileRequest struct {
	Nombre    *string `json:"nombre" validate:"omitempty,min=1,max=100"`
	Apellidos *string `json:"apellidos" validate:"omitempty,max=100"`
	Celular   *string `json:"celular" validate:"omitempty,max=30"`
}

// UpdateUserRequest edición administrativa de un usuario (incluye cambio de rol).
type UpdateUserRequest struct {
	UpdateProfileRequest
	RoleID *string `json:"role_id"`
}
