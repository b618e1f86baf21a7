package http

import (
	"context"

	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/Inventario-rooftop/internal/application/dto"
	"github.com/jhoicas/Inventario-rooftop/internal/domain"
	"github.com/jhoicas/Inventario-rooftop/internal/domain/entity"
	"github.com/jhoicas/Inventario-rooftop/internal/infrastructure/realtime"
)

// TopicSubscriber fuente de temas en tiempo real. Lo implementa *realtime.Hub.
type TopicSubscriber interface {
	HasTopic(name string) bool
	Subscribe(ctx context.Context, name string) (<-chan realtime.Message, func(), error)
}

// Temas que exigen un permiso además de la sesión.
var topicPermissions = map[string]entity.Permission{
	domain.TopicMovements: entity.PermViewMovementHistory,
	domain.TopicUsers:     entity.PermViewUserManagement,
}

// RealtimeHandler expone los temas del hub por WebSocket.
type RealtimeHandler struct {
	hub TopicSubscriber
}

// NewRealtimeHandler construye el handler.
func NewRealtimeHandler(hub TopicSubscriber) *RealtimeHandler {
	return &RealtimeHandler{hub: hub}
}

// Upgrade valida tema y permisos antes de aceptar el WebSocket. Va después de LoadActor.
//
// GET /api/realtime/:topic?token=...
func (h *RealtimeHandler) Upgrade(c *fiber.Ctx) error {
	if !websocket.IsWebSocketUpgrade(c) {
		return fiber.ErrUpgradeRequired
	}
	topic := c.Params("topic")
	if !h.hub.HasTopic(topic) {
		return c.Status(fiber.StatusNotFound).JSON(dto.ErrorResponse{Code: "NOT_FOUND", Message: "tema desconocido"})
	}
	if perm, ok := topicPermissions[topic]; ok && !GetActor(c).Can(perm) {
		return c.Status(fiber.StatusForbidden).JSON(dto.ErrorResponse{Code: "FORBIDDEN", Message: "permiso requerido: " + string(perm)})
	}
	return c.Next()
}

// Stream envía el estado completo del tema en cada cambio hasta que el cliente se desconecta
// o el hub descarta al suscriptor.
func (h *RealtimeHandler) Stream() fiber.Handler {
	return websocket.New(func(conn *websocket.Conn) {
		ctx, stop := context.WithCancel(context.Background())
		defer stop()

		ch, cancel, err := h.hub.Subscribe(ctx, conn.Params("topic"))
		if err != nil {
			_ = conn.WriteJSON(dto.ErrorResponse{Code: "SUBSCRIBE_FAILED", Message: err.Error()})
			return
		}
		defer cancel()

		// El cliente no envía datos; el lazo de lectura solo detecta el cierre.
		go func() {
			defer stop()
			for {
				if _, _, err := conn.ReadMessage(); err != nil {
					return
				}
			}
		}()

		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-ch:
				if !ok {
					return
				}
				if err := conn.WriteJSON(msg); err != nil {
					return
				}
			}
		}
	})
}
