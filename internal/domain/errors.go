package domain

import "errors"

// Errores de dominio (sin dependencias externas).
var (
	// Validación: entrada mal formada, se rechaza antes de tocar el store.
	ErrInvalidInput        = errors.New("entrada inválida")
	ErrInvalidQuantity     = errors.New("la cantidad debe ser un entero positivo")
	ErrInvalidMovementType = errors.New("tipo de movimiento no válido")
	ErrAmbiguousName       = errors.New("el nombre coincide con varios productos")
	ErrInvalidEmail        = errors.New("el formato del correo electrónico no es válido")
	ErrWeakPassword        = errors.New("la contraseña debe tener al menos 6 caracteres")

	// Reglas de negocio.
	ErrInsufficientStock  = errors.New("stock insuficiente")
	ErrInventoryClosed    = errors.New("el inventario está cerrado")
	ErrRoleFull           = errors.New("el rol alcanzó su cantidad máxima de usuarios")
	ErrConflict           = errors.New("conflicto con el estado actual")
	ErrDuplicate          = errors.New("recurso duplicado")
	ErrEmailAlreadyExists = errors.New("el email ya está registrado")

	// Referencias inexistentes.
	ErrNotFound     = errors.New("recurso no encontrado")
	ErrUserNotFound = errors.New("usuario no encontrado")

	// Concurrencia y colaboradores externos.
	ErrVersionConflict  = errors.New("el registro cambió durante la transacción")
	ErrContention       = errors.New("demasiados conflictos concurrentes, intente de nuevo")
	ErrStoreUnavailable = errors.New("almacenamiento no disponible")

	// Autenticación / autorización.
	ErrUnauthorized  = errors.New("no autorizado")
	ErrWrongPassword = errors.New("contraseña incorrecta")
	ErrForbidden     = errors.New("acceso denegado")
)

// Categorías de error expuestas a los llamadores.
const (
	CategoryValidation       = "validation"
	CategoryBusinessRule     = "business_rule"
	CategoryNotFound         = "not_found"
	CategoryContention       = "contention"
	CategoryStoreUnavailable = "store_unavailable"
	CategoryAuth             = "auth"
	CategoryInternal         = "internal"
)

// Category clasifica un error (posiblemente envuelto) dentro de la taxonomía del dominio.
func Category(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrInvalidInput), errors.Is(err, ErrInvalidQuantity),
		errors.Is(err, ErrInvalidMovementType), errors.Is(err, ErrAmbiguousName),
		errors.Is(err, ErrInvalidEmail), errors.Is(err, ErrWeakPassword):
		return CategoryValidation
	case errors.Is(err, ErrInsufficientStock), errors.Is(err, ErrInventoryClosed),
		errors.Is(err, ErrRoleFull), errors.Is(err, ErrConflict),
		errors.Is(err, ErrDuplicate), errors.Is(err, ErrEmailAlreadyExists):
		return CategoryBusinessRule
	case errors.Is(err, ErrNotFound), errors.Is(err, ErrUserNotFound):
		return CategoryNotFound
	case errors.Is(err, ErrContention), errors.Is(err, ErrVersionConflict):
		return CategoryContention
	case errors.Is(err, ErrStoreUnavailable):
		return CategoryStoreUnavailable
	case errors.Is(err, ErrUnauthorized), errors.Is(err, ErrWrongPassword), errors.Is(err, ErrForbidden):
		return CategoryAuth
	default:
		return CategoryInternal
	}
}

// IsRejection indica si el error es un rechazo local (validación, regla de negocio o referencia
// inexistente). Los rechazos nunca se reintentan.
func IsRejection(err error) bool {
	switch Category(err) {
	case CategoryValidation, CategoryBusinessRule, CategoryNotFound:
		return true
	}
	return false
}
