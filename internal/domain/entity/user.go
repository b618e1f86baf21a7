package entity

import (
	"strings"
	"time"
)

// User perfil de un usuario autenticado. PasswordHash nunca sale del dominio.
type User struct {
	ID           string
	Email        string
	PasswordHash string // bcrypt
	Nombre       string
	Apellidos    string
	Celular      string
	RoleID       string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// FullName nombre para mostrar como responsable de un cambio; "N/A" si no hay datos.
func (u *User) FullName() string {
	if u == nil {
		return "N/A"
	}
	name := strings.TrimSpace(strings.TrimSpace(u.Nombre) + " " + strings.TrimSpace(u.Apellidos))
	if name == "" {
		return "N/A"
	}
	return name
}
