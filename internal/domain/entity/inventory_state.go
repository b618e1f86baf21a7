package entity

import "time"

// InventoryState bandera única de apertura/cierre del inventario.
type InventoryState struct {
	IsClosed  bool
	UpdatedAt time.Time
	UpdatedBy string
	Version   int64
}

// InventorySnapshot copia inmutable de todos los ítems tomada al cerrar el inventario.
type InventorySnapshot struct {
	ID        string
	Items     []InventoryItem
	CreatedBy string
	CreatedAt time.Time
}
