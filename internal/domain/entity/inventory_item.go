package entity

import "time"

// InventoryItem representa un producto con stock en dos ubicaciones: bodega y cocina.
// Ingreso y Salida son acumulados históricos; solo se reinician al reabrir el inventario.
type InventoryItem struct {
	ID           string
	Name         string
	Bodega       int64
	Cocina       int64
	Ingreso      int64
	Salida       int64
	StockMin     int64
	StockMax     int64
	Responsable  string
	Observations *string
	LastUpdated  time.Time
	CreatedAt    time.Time
	Version      int64 // token de concurrencia optimista, aumenta en cada escritura
}

// Total devuelve el stock disponible en ambas ubicaciones.
func (i *InventoryItem) Total() int64 {
	return i.Bodega + i.Cocina
}

// IsLowStock indica si la bodega está en o por debajo del stock mínimo.
func (i *InventoryItem) IsLowStock() bool {
	return i.Bodega <= i.StockMin
}

// Clone devuelve una copia independiente (incluida la observación).
func (i *InventoryItem) Clone() *InventoryItem {
	if i == nil {
		return nil
	}
	c := *i
	if i.Observations != nil {
		obs := *i.Observations
		c.Observations = &obs
	}
	return &c
}
