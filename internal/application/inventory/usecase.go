package inventory

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"github.com/jhoicas/Inventario-rooftop/internal/domain"
	"github.com/jhoicas/Inventario-rooftop/internal/domain/entity"
	"github.com/jhoicas/Inventario-rooftop/internal/domain/ledger"
	"github.com/jhoicas/Inventario-rooftop/internal/domain/repository"
)

const instrumentationName = "github.com/jhoicas/Inventario-rooftop/internal/application/inventory"

// MovementInput movimiento pedido por un actor. ItemID tiene prioridad sobre ItemName.
type MovementInput struct {
	ItemID       string
	ItemName     string
	Type         entity.MovementType
	Quantity     int64
	ActorID      string
	ActorName    string
	Observations *string
}

// MovementResult ítem ya actualizado y el movimiento registrado.
type MovementResult struct {
	Item     *entity.InventoryItem
	Movement *entity.Movement
}

// MovementUseCase motor de movimientos: valida, aplica la transición pura y confirma con
// escritura optimista (versión) reintentando ante conflictos hasta maxRetries veces.
type MovementUseCase struct {
	store      repository.LedgerStore
	items      repository.InventoryItemRepository
	notifier   ChangeNotifier
	publisher  MovementPublisher
	maxRetries int
	log        zerolog.Logger
	now        func() time.Time

	tracer    trace.Tracer
	applied   metric.Int64Counter
	rejected  metric.Int64Counter
	conflicts metric.Int64Counter
}

// NewMovementUseCase construye el caso de uso. notifier y publisher pueden ser nil.
func NewMovementUseCase(
	store repository.LedgerStore,
	items repository.InventoryItemRepository,
	notifier ChangeNotifier,
	publisher MovementPublisher,
	maxRetries int,
	log zerolog.Logger,
) *MovementUseCase {
	if maxRetries < 1 {
		maxRetries = 1
	}
	meter := otel.Meter(instrumentationName)
	applied, _ := meter.Int64Counter("inventory.movements.applied",
		metric.WithDescription("Movimientos confirmados"))
	rejected, _ := meter.Int64Counter("inventory.movements.rejected",
		metric.WithDescription("Movimientos rechazados por categoría de error"))
	conflicts, _ := meter.Int64Counter("inventory.movements.version_conflicts",
		metric.WithDescription("Conflictos de versión que provocaron reintento"))

	return &MovementUseCase{
		store:      store,
		items:      items,
		notifier:   notifier,
		publisher:  publisher,
		maxRetries: maxRetries,
		log:        log,
		now:        time.Now,
		tracer:     otel.Tracer(instrumentationName),
		applied:    applied,
		rejected:   rejected,
		conflicts:  conflicts,
	}
}

// ApplyMovement aplica un movimiento sobre un ítem.
// Errores: ErrInvalidQuantity, ErrInvalidMovementType, ErrAmbiguousName, ErrNotFound,
// ErrInsufficientStock, ErrInventoryClosed (sin reintento), ErrContention (reintentos agotados)
// y ErrStoreUnavailable (sin reintento).
func (uc *MovementUseCase) ApplyMovement(ctx context.Context, in MovementInput) (*MovementResult, error) {
	ctx, span := uc.tracer.Start(ctx, "inventory.ApplyMovement", trace.WithAttributes(
		attribute.String("movement.type", string(in.Type)),
		attribute.Int64("movement.quantity", in.Quantity),
	))
	defer span.End()

	res, attempts, err := uc.apply(ctx, in)
	span.SetAttributes(attribute.Int("movement.attempts", attempts))
	if err != nil {
		category := domain.Category(err)
		uc.rejected.Add(ctx, 1, metric.WithAttributes(attribute.String("category", category)))
		span.SetStatus(codes.Error, category)
		if !domain.IsRejection(err) {
			span.RecordError(err)
			uc.log.Warn().Err(err).Str("item_id", in.ItemID).Str("type", string(in.Type)).
				Int("attempts", attempts).Msg("movimiento no aplicado")
		}
		return nil, err
	}
	uc.applied.Add(ctx, 1, metric.WithAttributes(attribute.String("type", string(in.Type))))
	span.SetAttributes(attribute.String("item.id", res.Item.ID), attribute.String("movement.id", res.Movement.ID))

	uc.log.Info().
		Str("item_id", res.Item.ID).
		Str("movement_id", res.Movement.ID).
		Str("type", string(in.Type)).
		Int64("quantity", in.Quantity).
		Int64("bodega", res.Item.Bodega).
		Int64("cocina", res.Item.Cocina).
		Msg("movimiento aplicado")

	uc.afterCommit(ctx, res.Movement)
	return res, nil
}

func (uc *MovementUseCase) apply(ctx context.Context, in MovementInput) (*MovementResult, int, error) {
	if err := ledger.ValidateInput(in.Type, in.Quantity); err != nil {
		return nil, 0, err
	}
	itemID, err := uc.resolveItemID(ctx, in)
	if err != nil {
		return nil, 0, err
	}

	var (
		res      *MovementResult
		attempts int
	)
	err = ledger.WithOptimisticRetry(ctx, uc.maxRetries, func(ctx context.Context, n int) error {
		attempts = n
		state, err := uc.store.InventoryState(ctx)
		if err != nil {
			return storeErr(err)
		}
		if state.IsClosed {
			return domain.ErrInventoryClosed
		}
		item, err := uc.store.GetItem(ctx, itemID)
		if err != nil {
			return storeErr(err)
		}
		if item == nil {
			return fmt.Errorf("producto %s: %w", itemID, domain.ErrNotFound)
		}

		next, mov, err := ledger.Apply(item, ledger.Request{
			Type:         in.Type,
			Quantity:     in.Quantity,
			Actor:        in.ActorName,
			ActorID:      in.ActorID,
			Observations: in.Observations,
			At:           uc.now(),
		})
		if err != nil {
			return err
		}

		saved, savedMov, err := uc.store.CommitMovement(ctx, next, item.Version, mov)
		if err != nil {
			if errors.Is(err, domain.ErrVersionConflict) {
				uc.conflicts.Add(ctx, 1)
				uc.log.Debug().Str("item_id", itemID).Int("attempt", n).Msg("conflicto de versión, reintentando")
				return err
			}
			if domain.IsRejection(err) {
				return err
			}
			return storeErr(err)
		}
		res = &MovementResult{Item: saved, Movement: savedMov}
		return nil
	})
	if err != nil {
		return nil, attempts, err
	}
	return res, attempts, nil
}

// resolveItemID usa el ID si viene; si no, busca por nombre exacto.
func (uc *MovementUseCase) resolveItemID(ctx context.Context, in MovementInput) (string, error) {
	if id := strings.TrimSpace(in.ItemID); id != "" {
		return id, nil
	}
	name := strings.TrimSpace(in.ItemName)
	if name == "" {
		return "", fmt.Errorf("%w: se requiere item_id o item_name", domain.ErrInvalidInput)
	}
	matches, err := uc.items.FindByName(ctx, name)
	if err != nil {
		return "", storeErr(err)
	}
	switch len(matches) {
	case 0:
		return "", fmt.Errorf("producto %q: %w", name, domain.ErrNotFound)
	case 1:
		return matches[0].ID, nil
	default:
		return "", fmt.Errorf("%w: %q (%d productos)", domain.ErrAmbiguousName, name, len(matches))
	}
}

// afterCommit notifica y publica; las fallas se registran y no afectan el resultado.
func (uc *MovementUseCase) afterCommit(ctx context.Context, mov *entity.Movement) {
	if uc.notifier != nil {
		if err := uc.notifier.Notify(ctx, domain.TopicItems, domain.TopicMovements); err != nil {
			uc.log.Warn().Err(err).Str("movement_id", mov.ID).Msg("no se pudo notificar el cambio")
		}
	}
	if uc.publisher != nil {
		if err := uc.publisher.PublishMovement(ctx, mov); err != nil {
			uc.log.Warn().Err(err).Str("movement_id", mov.ID).Str("item_id", mov.ProductID).Msg("no se pudo publicar el movimiento")
		}
	}
}

// storeErr clasifica una falla del store como ErrStoreUnavailable (si no lo era ya).
func storeErr(err error) error {
	if errors.Is(err, domain.ErrStoreUnavailable) {
		return err
	}
	return fmt.Errorf("%w: %v", domain.ErrStoreUnavailable, err)
}
