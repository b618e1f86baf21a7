package inventory

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/jhoicas/Inventario-rooftop/internal/application/dto"
	"github.com/jhoicas/Inventario-rooftop/internal/domain"
	"github.com/jhoicas/Inventario-rooftop/internal/domain/authz"
	"github.com/jhoicas/Inventario-rooftop/internal/domain/repository"
)

// LifecycleUseCase cierre y reapertura del inventario.
//
//	OPEN --Close--> CLOSED : snapshot de todos los ítems + bandera, en una transacción.
//	CLOSED --Reopen--> OPEN: ingreso/salida/observaciones a cero en todos los ítems + bandera.
type LifecycleUseCase struct {
	state    repository.InventoryStateRepository
	notifier ChangeNotifier
	log      zerolog.Logger
}

// NewLifecycleUseCase construye el caso de uso.
func NewLifecycleUseCase(state repository.InventoryStateRepository, notifier ChangeNotifier, log zerolog.Logger) *LifecycleUseCase {
	return &LifecycleUseCase{state: state, notifier: notifier, log: log}
}

// State estado actual.
func (uc *LifecycleUseCase) State(ctx context.Context) (*dto.InventoryStateResponse, error) {
	st, err := uc.state.Get(ctx)
	if err != nil {
		return nil, err
	}
	out := dto.StateFromEntity(st)
	return &out, nil
}

// Close cierra el inventario y devuelve el snapshot creado. ErrConflict si ya estaba cerrado.
func (uc *LifecycleUseCase) Close(ctx context.Context, actor *authz.Actor) (*dto.SnapshotResponse, error) {
	snap, err := uc.state.Close(ctx, actor.DisplayName())
	if err != nil {
		return nil, err
	}
	uc.log.Info().Str("snapshot_id", snap.ID).Int("items", len(snap.Items)).Str("by", snap.CreatedBy).Msg("inventario cerrado")
	uc.notify(ctx, domain.TopicState)
	out := dto.SnapshotFromEntity(snap, false)
	return &out, nil
}

// Reopen reabre el inventario reiniciando los acumulados. ErrConflict si no estaba cerrado.
func (uc *LifecycleUseCase) Reopen(ctx context.Context, actor *authz.Actor) (*dto.InventoryStateResponse, error) {
	st, err := uc.state.Reopen(ctx, actor.DisplayName())
	if err != nil {
		return nil, err
	}
	uc.log.Info().Str("by", st.UpdatedBy).Msg("inventario reabierto")
	uc.notify(ctx, domain.TopicState, domain.TopicItems)
	out := dto.StateFromEntity(st)
	return &out, nil
}

func (uc *LifecycleUseCase) notify(ctx context.Context, topics ...string) {
	if uc.notifier == nil {
		return
	}
	if err := uc.notifier.Notify(ctx, topics...); err != nil {
		uc.log.Warn().Err(err).Strs("topics", topics).Msg("no se pudo notificar el cambio")
	}
}
