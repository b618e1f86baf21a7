package dto

import "time"

// OutflowQuery rango del reporte de salidas.
// Period: daily | weekly | monthly | custom. Date es la fecha de referencia (YYYY-MM-DD);
// From/To solo aplican a custom.
type OutflowQuery struct {
	Period string `query:"period"`
	Date   string `query:"date"`
	From   string `query:"from"`
	To     string `query:"to"`
}

// OutflowEntry total de salida de un producto.
type OutflowEntry struct {
	ProductName string `json:"product_name"`
	Quantity    int64  `json:"quantity"`
}

// OutflowReportResponse salidas agregadas por producto en un rango.
type OutflowReportResponse struct {
	Period string         `json:"period"`
	Label  string         `json:"label"`
	From   time.Time      `json:"from"`
	To     time.Time      `json:"to"`
	Total  int64          `json:"total"`
	Items  []OutflowEntry `json:"items"`
}

// ActivityResponse días de un mes con al menos un movimiento.
type ActivityResponse struct {
	Year  int      `json:"year"`
	Month int      `json:"month"`
	Days  []string `json:"days"` // YYYY-MM-DD
}

// LowStockResponse productos con bodega en o bajo el mínimo.
type LowStockResponse struct {
	Count int            `json:"count"`
	Items []ItemResponse `json:"items"`
}

// ReplenishmentSuggestion producto a reponer con la cantidad sugerida.
type ReplenishmentSuggestion struct {
	ItemID        string   `json:"item_id"`
	Name          string   `json:"name"`
	Bodega        int64    `json:"bodega"`
	Cocina        int64    `json:"cocina"`
	StockMin      int64    `json:"stock_min"`
	StockMax      int64    `json:"stock_max"`
	SuggestedQty  int64    `json:"suggested_qty"`
	Outflow30Days int64    `json:"outflow_30_days"`
	DaysOfCover   *float64 `json:"days_of_cover,omitempty"`
}

// DashboardSummary resumen de la pantalla principal.
type DashboardSummary struct {
	TodayOutflow   int64          `json:"today_outflow"`
	MonthlyOutflow int64          `json:"monthly_outflow"`
	TodayMovements int            `json:"today_movements"`
	LowStockCount  int            `json:"low_stock_count"`
	TopOutflows    []OutflowEntry `json:"top_outflows"`
	DateLabel      string         `json:"date_label"`
}
