package http

import (
	"context"
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/Inventario-rooftop/internal/application/dto"
	"github.com/jhoicas/Inventario-rooftop/internal/domain"
	"github.com/jhoicas/Inventario-rooftop/internal/domain/authz"
	"github.com/jhoicas/Inventario-rooftop/internal/domain/entity"
)

// ActorResolver carga el usuario vigente y su rol. Lo implementa *usecase.UserUseCase.
type ActorResolver interface {
	ResolveActor(ctx context.Context, userID string) (*authz.Actor, error)
}

// LoadActor resuelve el actor del request y lo deja en c.Locals. Debe usarse DESPUÉS de
// AuthMiddleware. El rol se lee en cada request: un cambio de rol aplica de inmediato.
//   - 401 si el usuario del token ya no existe.
//   - 503 ante fallos de infraestructura.
func LoadActor(resolver ActorResolver) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if _, ok := resolveActor(c, resolver); !ok {
			return nil
		}
		return c.Next()
	}
}

// RequirePermission verifica con authz.Can que el rol vigente del actor tenga el permiso.
// Responde 403 FORBIDDEN si no lo tiene.
func RequirePermission(perm entity.Permission, resolver ActorResolver) fiber.Handler {
	return func(c *fiber.Ctx) error {
		actor, ok := resolveActor(c, resolver)
		if !ok {
			return nil
		}
		if !actor.Can(perm) {
			return c.Status(fiber.StatusForbidden).JSON(dto.ErrorResponse{
				Code:    "FORBIDDEN",
				Message: "su rol no tiene el permiso '" + string(perm) + "'",
			})
		}
		return c.Next()
	}
}

// resolveActor devuelve el actor ya cargado o lo resuelve. Si falla, escribe la respuesta
// de error y devuelve ok=false.
func resolveActor(c *fiber.Ctx, resolver ActorResolver) (*authz.Actor, bool) {
	if actor := GetActor(c); actor != nil {
		return actor, true
	}
	userID := GetUserID(c)
	if userID == "" {
		_ = c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Code: "UNAUTHORIZED", Message: "user_id no encontrado en el token"})
		return nil, false
	}
	actor, err := resolver.ResolveActor(c.UserContext(), userID)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			_ = c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Code: "UNAUTHORIZED", Message: "el usuario ya no existe"})
			return nil, false
		}
		_ = c.Status(fiber.StatusServiceUnavailable).JSON(dto.ErrorResponse{Code: "ACTOR_CHECK_FAILED", Message: "no se pudo verificar el usuario, intente más tarde"})
		return nil, false
	}
	c.Locals(LocalActor, actor)
	return actor, true
}

// GetActor devuelve el actor resuelto por LoadActor / RequirePermission (o nil).
func GetActor(c *fiber.Ctx) *authz.Actor {
	actor, _ := c.Locals(LocalActor).(*authz.Actor)
	return actor
}
