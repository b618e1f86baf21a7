package dto

import "time"

// CreateItemRequest entrada para crear un producto del inventario.
// Bodega y cocina son el stock inicial; ingreso y salida empiezan en cero.
type CreateItemRequest struct {
	Name     string `json:"name" validate:"required,min=1,max=200"`
	Bodega   int64  `json:"bodega" validate:"min=0"`
	Cocina   int64  `json:"cocina" validate:"min=0"`
	StockMin int64  `json:"stock_min" validate:"min=0"`
	StockMax int64  `json:"stock_max" validate:"min=0"`
}

// UpdateItemRequest entrada para editar un producto (sin tocar stock: eso solo lo hace un movimiento).
type UpdateItemRequest struct {
	Name     *string `json:"name" validate:"omitempty,min=1,max=200"`
	StockMin *int64  `json:"stock_min" validate:"omitempty,min=0"`
	StockMax *int64  `json:"stock_max" validate:"omitempty,min=0"`
}

// ItemResponse salida de un producto.
type ItemResponse struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Bodega       int64     `json:"bodega"`
	Cocina       int64     `json:"cocina"`
	Total        int64     `json:"total"`
	Ingreso      int64     `json:"ingreso"`
	Salida       int64     `json:"salida"`
	StockMin     int64     `json:"stock_min"`
	StockMax     int64     `json:"stock_max"`
	LowStock     bool      `json:"low_stock"`
	Responsable  string    `json:"responsable"`
	Observations *string   `json:"observations,omitempty"`
	LastUpdated  time.Time `json:"last_updated"`
	Version      int64     `json:"version"`
}

// RegisterMovementRequest entrada para registrar un movimiento. Se identifica el producto
// por item_id o, si no se envía, por nombre exacto (item_name). Tipo y cantidad positiva los
// valida el motor para devolver errores específicos; aquí solo se acota la cantidad máxima.
type RegisterMovementRequest struct {
	ItemID       string  `json:"item_id"`
	ItemName     string  `json:"item_name"`
	Type         string  `json:"type"`
	Quantity     int64   `json:"quantity" validate:"max=1000000000"`
	Observations *string `json:"observations,omitempty"`
}

// MovementResponse salida de un movimiento del libro.
type MovementResponse struct {
	ID            string    `json:"id"`
	ProductID     string    `json:"product_id"`
	ProductName   string    `json:"product_name"`
	Type          string    `json:"type"`
	Quantity      int64     `json:"quantity"`
	BeforeBodega  int64     `json:"before_bodega"`
	BeforeCocina  int64     `json:"before_cocina"`
	AfterBodega   int64     `json:"after_bodega"`
	AfterCocina   int64     `json:"after_cocina"`
	Responsible   string    `json:"responsible"`
	ResponsibleID string    `json:"responsible_id,omitempty"`
	Observations  *string   `json:"observations,omitempty"`
	Timestamp     time.Time `json:"timestamp"`
}

// MovementResultResponse resultado de aplicar un movimiento.
type MovementResultResponse struct {
	Item     ItemResponse     `json:"item"`
	Movement MovementResponse `json:"movement"`
}

// MovementHistoryQuery filtros del historial (query string).
type MovementHistoryQuery struct {
	From      string `query:"from"` // RFC3339 o YYYY-MM-DD
	To        string `query:"to"`
	ProductID string `query:"product_id"`
	Type      string `query:"type"`
	Limit     int    `query:"limit"`
}

// InventoryStateResponse estado abierto/cerrado.
type InventoryStateResponse struct {
	IsClosed  bool      `json:"is_closed"`
	UpdatedAt time.Time `json:"updated_at"`
	UpdatedBy string    `json:"updated_by"`
}

// SnapshotResponse snapshot tomado al cerrar el inventario.
type SnapshotResponse struct {
	ID        string         `json:"id"`
	CreatedBy string         `json:"created_by"`
	CreatedAt time.Time      `json:"created_at"`
	ItemCount int            `json:"item_count"`
	Items     []ItemResponse `json:"items,omitempty"`
}
