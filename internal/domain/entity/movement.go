package entity

import "time"

// MovementType tipo de movimiento de stock entre bodega, cocina y el exterior.
type MovementType string

// Tipos de movimiento de inventario.
const (
	MovementIngresoBodega MovementType = "ingreso-bodega" // entrada a bodega
	MovementIngresoCocina MovementType = "ingreso-cocina" // entrada a cocina
	MovementBodegaCocina  MovementType = "bodega-cocina"  // traslado bodega -> cocina
	MovementSalidaCocina  MovementType = "salida-cocina"  // salida desde cocina
	MovementSalidaBodega  MovementType = "salida-bodega"  // salida desde bodega
)

// MovementTypes lista los tipos válidos en orden de presentación.
var MovementTypes = []MovementType{
	MovementIngresoBodega,
	MovementIngresoCocina,
	MovementBodegaCocina,
	MovementSalidaCocina,
	MovementSalidaBodega,
}

// OutflowTypes son los tipos que cuentan como salida en los reportes.
var OutflowTypes = []MovementType{MovementSalidaCocina, MovementSalidaBodega}

// Valid indica si el tipo es uno de los cinco reconocidos.
func (t MovementType) Valid() bool {
	switch t {
	case MovementIngresoBodega, MovementIngresoCocina, MovementBodegaCocina,
		MovementSalidaCocina, MovementSalidaBodega:
		return true
	}
	return false
}

// IsOutflow indica si el movimiento incrementa el acumulado de salida.
func (t MovementType) IsOutflow() bool {
	return t == MovementSalidaCocina || t == MovementSalidaBodega
}

// IsInflow indica si el movimiento incrementa el acumulado de ingreso.
func (t MovementType) IsInflow() bool {
	return t == MovementIngresoBodega || t == MovementIngresoCocina
}

// Movement registro inmutable de un movimiento aceptado. ProductName se copia al momento
// de escribir para que el historial sobreviva a renombres y borrados del producto.
type Movement struct {
	ID            string
	ProductID     string
	ProductName   string
	Type          MovementType
	Quantity      int64
	BeforeBodega  int64
	BeforeCocina  int64
	AfterBodega   int64
	AfterCocina   int64
	Responsible   string
	ResponsibleID string
	Observations  *string
	Timestamp     time.Time
}
