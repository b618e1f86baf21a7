package http

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/Inventario-rooftop/internal/application/analytics"
	"github.com/jhoicas/Inventario-rooftop/internal/application/dto"
)

const defaultSnapshotLimit = 50

// ReportHandler reportes de solo lectura (requiere viewReports).
type ReportHandler struct {
	uc  *analytics.ReportUseCase
	loc *time.Location
}

// NewReportHandler construye el handler. loc define el mes por defecto de /activity.
func NewReportHandler(uc *analytics.ReportUseCase, loc *time.Location) *ReportHandler {
	if loc == nil {
		loc = time.Local
	}
	return &ReportHandler{uc: uc, loc: loc}
}

// LowStock godoc
// @Summary      Productos con bodega en o bajo el stock mínimo
// @Tags         reports
// @Security     Bearer
// @Produce      json
// @Success      200  {object}  dto.LowStockResponse
// @Router       /api/reports/low-stock [get]
func (h *ReportHandler) LowStock(c *fiber.Ctx) error {
	out, err := h.uc.LowStock(c.UserContext())
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}

// Outflows godoc
// @Summary      Salidas por producto en un período
// @Description  Suma los movimientos salida-cocina y salida-bodega por nombre de producto.
// @Tags         reports
// @Security     Bearer
// @Produce      json
// @Param        period  query  string  false  "daily | weekly | monthly | custom (default daily)"
// @Param        date    query  string  false  "Fecha de referencia YYYY-MM-DD (default hoy)"
// @Param        from    query  string  false  "Inicio (solo custom)"
// @Param        to      query  string  false  "Fin inclusive (solo custom)"
// @Success      200  {object}  dto.OutflowReportResponse
// @Failure      400  {object}  dto.ErrorResponse
// @Router       /api/reports/outflows [get]
func (h *ReportHandler) Outflows(c *fiber.Ctx) error {
	var q dto.OutflowQuery
	if err := c.QueryParser(&q); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_PARAMS", Message: "parámetros de consulta inválidos"})
	}
	out, err := h.uc.Outflows(c.UserContext(), q)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}

// Activity godoc
// @Summary      Días del mes con movimientos
// @Tags         reports
// @Security     Bearer
// @Produce      json
// @Param        year   query  int  false  "Año (default actual)"
// @Param        month  query  int  false  "Mes 1-12 (default actual)"
// @Success      200  {object}  dto.ActivityResponse
// @Failure      400  {object}  dto.ErrorResponse
// @Router       /api/reports/activity [get]
func (h *ReportHandler) Activity(c *fiber.Ctx) error {
	now := time.Now().In(h.loc)
	out, err := h.uc.ActivityDays(c.UserContext(), c.QueryInt("year", now.Year()), c.QueryInt("month", int(now.Month())))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}

// Snapshots godoc
// @Summary      Snapshots de cierre, más recientes primero
// @Tags         reports
// @Security     Bearer
// @Produce      json
// @Param        limit  query  int  false  "Máximo de resultados (default 50)"
// @Success      200  {array}  dto.SnapshotResponse
// @Router       /api/reports/snapshots [get]
func (h *ReportHandler) Snapshots(c *fiber.Ctx) error {
	out, err := h.uc.Snapshots(c.UserContext(), c.QueryInt("limit", defaultSnapshotLimit))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}

// Snapshot godoc
// @Summary      Snapshot de cierre con sus productos
// @Tags         reports
// @Security     Bearer
// @Produce      json
// @Param        id  path  string  true  "ID del snapshot"
// @Success      200  {object}  dto.SnapshotResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/reports/snapshots/{id} [get]
func (h *ReportHandler) Snapshot(c *fiber.Ctx) error {
	out, err := h.uc.Snapshot(c.UserContext(), c.Params("id"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}

// SnapshotOutflows godoc
// @Summary      Salidas registradas en un snapshot de cierre
// @Tags         reports
// @Security     Bearer
// @Produce      json
// @Param        id  path  string  true  "ID del snapshot"
// @Success      200  {object}  dto.OutflowReportResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/reports/snapshots/{id}/outflows [get]
func (h *ReportHandler) SnapshotOutflows(c *fiber.Ctx) error {
	out, err := h.uc.SnapshotOutflows(c.UserContext(), c.Params("id"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}
