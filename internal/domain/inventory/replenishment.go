package inventory

// SuggestedOrder cantidad a pedir para reponer la bodega.
// Objetivo = max(StockMax, 2 * StockMin); Pedido = max(Objetivo - Bodega, 0)
func SuggestedOrder(bodega, stockMin, stockMax int64) int64 {
	target := max(stockMax, 2*stockMin)
	if target <= bodega {
		return 0
	}
	return target - bodega
}

// DaysOfCover días que alcanza el stock total al ritmo de salidas de la ventana.
// nil si no hubo salidas (cobertura desconocida).
func DaysOfCover(total, outflow int64, windowDays float64) *float64 {
	if outflow <= 0 || windowDays <= 0 {
		return nil
	}
	daily := float64(outflow) / windowDays
	cover := float64(total) / daily
	return &cover
}
