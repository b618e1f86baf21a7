package http

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/Inventario-rooftop/internal/application/analytics"
	"github.com/jhoicas/Inventario-rooftop/internal/application/auth"
	"github.com/jhoicas/Inventario-rooftop/internal/application/inventory"
	"github.com/jhoicas/Inventario-rooftop/internal/application/usecase"
	"github.com/jhoicas/Inventario-rooftop/internal/domain/entity"
)

// RouterDeps dependencias para el router.
type RouterDeps struct {
	AuthUC        *auth.AuthUseCase
	RoleUC        *usecase.RoleUseCase
	UserUC        *usecase.UserUseCase
	ItemUC        *inventory.ItemUseCase
	MovementUC    *inventory.MovementUseCase
	LifecycleUC   *inventory.LifecycleUseCase
	Replenishment *inventory.ReplenishmentUseCase
	ReportUC      *analytics.ReportUseCase
	DashboardUC   *analytics.DashboardUseCase
	Realtime      TopicSubscriber // nil = sin WebSocket
	JWTSecret     string
	Location      *time.Location
}

// Router registra las rutas de la API.
func Router(app *fiber.App, deps RouterDeps) {
	api := app.Group("/api")

	// Auth (público)
	authGroup := api.Group("/auth")
	authHandler := NewAuthHandler(deps.AuthUC)
	authGroup.Post("/register", authHandler.Register)
	authGroup.Post("/login", authHandler.Login)

	// Roles disponibles para el formulario de registro (público)
	roleHandler := NewRoleHandler(deps.RoleUC)
	api.Get("/roles/available", roleHandler.Available)

	// Rutas protegidas (requieren Bearer Token; el rol se resuelve en cada request)
	resolver := deps.UserUC
	protected := api.Group("/", AuthMiddleware(deps.JWTSecret, deps.AuthUC), LoadActor(resolver))
	perm := func(p entity.Permission) fiber.Handler { return RequirePermission(p, resolver) }

	protected.Post("/auth/logout", authHandler.Logout)
	protected.Get("/auth/me", authHandler.Me)

	// Perfil propio y administración de usuarios
	userHandler := NewUserHandler(deps.UserUC)
	protected.Get("/profile", userHandler.GetProfile)
	protected.Put("/profile", userHandler.UpdateProfile)
	users := protected.Group("/users", perm(entity.PermViewUserManagement))
	users.Get("/", userHandler.List)
	users.Put("/:id", userHandler.Update)
	users.Delete("/:id", userHandler.Delete)

	// Roles
	roles := protected.Group("/roles")
	roles.Get("/", perm(entity.PermViewRoleManagement), roleHandler.List)
	roles.Get("/:id", perm(entity.PermViewRoleManagement), roleHandler.GetByID)
	roles.Post("/", perm(entity.PermEditRole), roleHandler.Create)
	roles.Put("/:id", perm(entity.PermEditRole), roleHandler.Update)
	roles.Delete("/:id", perm(entity.PermEditRole), roleHandler.Delete)

	// Items: consulta para cualquier usuario autenticado, escritura según permiso
	items := protected.Group("/items")
	itemHandler := NewItemHandler(deps.ItemUC)
	items.Get("/", itemHandler.List)
	items.Get("/search", itemHandler.Search)
	items.Get("/:id", itemHandler.GetByID)
	items.Post("/", perm(entity.PermAddProduct), itemHandler.Create)
	items.Put("/:id", perm(entity.PermEditProduct), itemHandler.Update)
	items.Delete("/:id", perm(entity.PermDeleteProduct), itemHandler.Delete)

	// Inventario: movimientos y ciclo de vida
	invGroup := protected.Group("/inventory")
	inventoryHandler := NewInventoryHandler(deps.MovementUC, deps.LifecycleUC, deps.ReportUC, deps.Replenishment)
	invGroup.Post("/movements", perm(entity.PermRegisterMovement), inventoryHandler.RegisterMovement)
	invGroup.Get("/movements", perm(entity.PermViewMovementHistory), inventoryHandler.ListMovements)
	invGroup.Get("/state", inventoryHandler.GetState)
	invGroup.Post("/close", perm(entity.PermManageInventory), inventoryHandler.Close)
	invGroup.Post("/reopen", perm(entity.PermManageInventory), inventoryHandler.Reopen)
	invGroup.Get("/replenishment-list", perm(entity.PermViewReports), inventoryHandler.GetReplenishmentList)

	// Reportes (solo lectura)
	reports := protected.Group("/reports", perm(entity.PermViewReports))
	reportHandler := NewReportHandler(deps.ReportUC, deps.Location)
	reports.Get("/low-stock", reportHandler.LowStock)
	reports.Get("/outflows", reportHandler.Outflows)
	reports.Get("/activity", reportHandler.Activity)
	reports.Get("/snapshots", reportHandler.Snapshots)
	reports.Get("/snapshots/:id", reportHandler.Snapshot)
	reports.Get("/snapshots/:id/outflows", reportHandler.SnapshotOutflows)

	// Dashboard
	dashboardHandler := NewDashboardHandler(deps.DashboardUC)
	protected.Get("/dashboard/summary", perm(entity.PermViewReports), dashboardHandler.GetSummary)

	// Tiempo real (WebSocket, token en ?token=)
	if deps.Realtime != nil {
		realtimeHandler := NewRealtimeHandler(deps.Realtime)
		protected.Get("/realtime/:topic", realtimeHandler.Upgrade, realtimeHandler.Stream())
	}
}
