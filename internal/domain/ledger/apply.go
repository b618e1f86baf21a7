// Package ledger contiene la regla de transición de stock de un ítem ante un movimiento.
// No toca el almacenamiento: recibe el estado leído y devuelve el nuevo estado o un rechazo.
package ledger

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/jhoicas/Inventario-rooftop/internal/domain"
	"github.com/jhoicas/Inventario-rooftop/internal/domain/entity"
)

// Request movimiento solicitado sobre un ítem ya resuelto.
type Request struct {
	Type         entity.MovementType
	Quantity     int64
	Actor        string
	ActorID      string
	Observations *string
	At           time.Time
}

// Validate revisa la forma del pedido sin consultar el store.
func (r Request) Validate() error {
	return ValidateInput(r.Type, r.Quantity)
}

// ValidateInput valida cantidad y tipo de movimiento.
func ValidateInput(t entity.MovementType, quantity int64) error {
	if quantity <= 0 {
		return fmt.Errorf("%w: %d", domain.ErrInvalidQuantity, quantity)
	}
	if !t.Valid() {
		return fmt.Errorf("%w: %q", domain.ErrInvalidMovementType, string(t))
	}
	return nil
}

// Apply calcula el nuevo estado del ítem y el registro de movimiento correspondiente.
// El ítem recibido no se modifica. Los rechazos (cantidad, tipo, stock insuficiente) no
// producen estado nuevo.
func Apply(item *entity.InventoryItem, req Request) (*entity.InventoryItem, *entity.Movement, error) {
	if item == nil {
		return nil, nil, domain.ErrNotFound
	}
	if err := req.Validate(); err != nil {
		return nil, nil, err
	}

	q := req.Quantity
	if err := checkOverflow(item, req.Type, q); err != nil {
		return nil, nil, err
	}
	next := item.Clone()

	switch req.Type {
	case entity.MovementIngresoBodega:
		next.Bodega += q
		next.Ingreso += q
	case entity.MovementIngresoCocina:
		next.Cocina += q
		next.Ingreso += q
	case entity.MovementBodegaCocina:
		if item.Bodega < q {
			return nil, nil, insufficient("bodega", item.Bodega, q)
		}
		next.Bodega -= q
		next.Cocina += q
	case entity.MovementSalidaCocina:
		if item.Cocina < q {
			return nil, nil, insufficient("cocina", item.Cocina, q)
		}
		next.Cocina -= q
		next.Salida += q
	case entity.MovementSalidaBodega:
		if item.Bodega < q {
			return nil, nil, insufficient("bodega", item.Bodega, q)
		}
		next.Bodega -= q
		next.Salida += q
	}

	actor := strings.TrimSpace(req.Actor)
	if actor == "" {
		actor = "N/A"
	}
	next.Responsable = actor
	next.LastUpdated = req.At
	if obs := normalizeObservations(req.Observations); obs != nil {
		next.Observations = obs
	}

	mov := &entity.Movement{
		ProductID:     item.ID,
		ProductName:   item.Name,
		Type:          req.Type,
		Quantity:      q,
		BeforeBodega:  item.Bodega,
		BeforeCocina:  item.Cocina,
		AfterBodega:   next.Bodega,
		AfterCocina:   next.Cocina,
		Responsible:   actor,
		ResponsibleID: req.ActorID,
		Observations:  normalizeObservations(req.Observations),
		Timestamp:     req.At,
	}
	return next, mov, nil
}

// checkOverflow rechaza el movimiento si alguno de los contadores que incrementa
// superaría math.MaxInt64.
func checkOverflow(item *entity.InventoryItem, t entity.MovementType, q int64) error {
	var grows []int64
	switch t {
	case entity.MovementIngresoBodega:
		grows = []int64{item.Bodega, item.Ingreso}
	case entity.MovementIngresoCocina:
		grows = []int64{item.Cocina, item.Ingreso}
	case entity.MovementBodegaCocina:
		grows = []int64{item.Cocina}
	case entity.MovementSalidaCocina, entity.MovementSalidaBodega:
		grows = []int64{item.Salida}
	}
	for _, v := range grows {
		if v > math.MaxInt64-q {
			return fmt.Errorf("%w: %d excede el máximo representable", domain.ErrInvalidQuantity, q)
		}
	}
	return nil
}

func insufficient(location string, available, requested int64) error {
	return fmt.Errorf("%w en %s: disponible %d, solicitado %d", domain.ErrInsufficientStock, location, available, requested)
}

func normalizeObservations(obs *string) *string {
	if obs == nil {
		return nil
	}
	s := strings.TrimSpace(*obs)
	if s == "" {
		return nil
	}
	return &s
}
