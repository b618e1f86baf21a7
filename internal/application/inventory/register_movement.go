package inventory

import (
	"context"

	"github.com/jhoicas/Inventario-rooftop/internal/application/dto"
	"github.com/jhoicas/Inventario-rooftop/internal/domain/authz"
	"github.com/jhoicas/Inventario-rooftop/internal/domain/entity"
)

// RegisterMovementFromRequest adapta el request HTTP al motor ApplyMovement, tomando al
// actor autenticado como responsable.
func (uc *MovementUseCase) RegisterMovementFromRequest(ctx context.Context, actor *authz.Actor, in dto.RegisterMovementRequest) (*dto.MovementResultResponse, error) {
	input := MovementInput{
		ItemID:       in.ItemID,
		ItemName:     in.ItemName,
		Type:         entity.MovementType(in.Type),
		Quantity:     in.Quantity,
		Observations: in.Observations,
	}
	if actor != nil {
		input.ActorName = actor.DisplayName()
		input.ActorID = actor.UserID
	}
	res, err := uc.ApplyMovement(ctx, input)
	if err != nil {
		return nil, err
	}
	return &dto.MovementResultResponse{
		Item:     dto.ItemFromEntity(res.Item),
		Movement: dto.MovementFromEntity(res.Movement),
	}, nil
}
