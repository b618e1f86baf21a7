package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/gofiber/contrib/swagger"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"

	appanalytics "github.com/jhoicas/Inventario-rooftop/internal/application/analytics"
	"github.com/jhoicas/Inventario-rooftop/internal/application/auth"
	"github.com/jhoicas/Inventario-rooftop/internal/application/dto"
	"github.com/jhoicas/Inventario-rooftop/internal/application/inventory"
	"github.com/jhoicas/Inventario-rooftop/internal/application/usecase"
	"github.com/jhoicas/Inventario-rooftop/internal/domain"
	"github.com/jhoicas/Inventario-rooftop/internal/infrastructure/kafka"
	"github.com/jhoicas/Inventario-rooftop/internal/infrastructure/realtime"
	"github.com/jhoicas/Inventario-rooftop/internal/infrastructure/session"
	httpRouter "github.com/jhoicas/Inventario-rooftop/internal/interfaces/http"
	"github.com/jhoicas/Inventario-rooftop/pkg/config"
	"github.com/jhoicas/Inventario-rooftop/pkg/logger"
	"github.com/jhoicas/Inventario-rooftop/pkg/telemetry"
)

// realtimeMovementLimit movimientos enviados en el tema "movements".
const realtimeMovementLimit = 100

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("cargar configuración: " + err.Error())
	}

	log := logger.New(logger.Config{
		Env:     cfg.App.Env,
		Level:   cfg.Log.Level,
		Service: cfg.App.Name,
	})
	log.Info().
		Str("env", cfg.App.Env).
		Str("app", cfg.App.Name).
		Str("store", cfg.Store.Driver).
		Msg("iniciando aplicación")

	ctx, stop := context.WithCancel(context.Background())
	defer stop()

	shutdownTelemetry, err := telemetry.Setup(ctx, telemetry.Config{
		Endpoint:       cfg.Telemetry.Endpoint,
		ServiceName:    cfg.Telemetry.ServiceName,
		ServiceVersion: cfg.App.Version,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("inicializar telemetría")
	}

	repos, err := openBackend(ctx, cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("inicializar almacenamiento")
	}
	defer repos.close()

	// Redis (opcional): bus de cambios entre instancias y lista de revocación compartida.
	var redisClient *redis.Client
	var revoker auth.TokenRevoker = session.NewMemoryRevoker()
	if cfg.Redis.URL != "" {
		opts, err := redis.ParseURL(cfg.Redis.URL)
		if err != nil {
			log.Fatal().Err(err).Msg("REDIS_URL inválida")
		}
		redisClient = redis.NewClient(opts)
		defer redisClient.Close()
		if err := redisClient.Ping(ctx).Err(); err != nil {
			log.Fatal().Err(err).Msg("conexión a Redis")
		}
		revoker = session.NewRedisRevoker(redisClient)
	}

	hub := realtime.NewHub(redisClient, cfg.Redis.Channel, log.Component("realtime"))

	// Kafka (opcional): cada movimiento aceptado se publica para consumidores externos.
	var publisher inventory.MovementPublisher
	if cfg.Kafka.Enabled() {
		kp := kafka.NewMovementPublisher(cfg.Kafka.Brokers, cfg.Kafka.MovementsTopic)
		defer kp.Close()
		publisher = kp
	}

	loc := cfg.App.Location()
	maxRetries := cfg.Ledger.MaxRetries

	authUC := auth.NewAuthUseCase(repos.users, repos.roles, revoker, hub, auth.JWTConfig{
		Secret:     cfg.JWT.Secret,
		ExpMinutes: cfg.JWT.Expiration,
		Issuer:     cfg.JWT.Issuer,
	}, log.Component("auth"))
	roleUC := usecase.NewRoleUseCase(repos.roles, hub, log.Component("roles"))
	userUC := usecase.NewUserUseCase(repos.users, repos.roles, hub, log.Component("users"))
	itemUC := inventory.NewItemUseCase(repos.items, repos.state, hub, maxRetries, log.Component("items"))
	movementUC := inventory.NewMovementUseCase(repos.ledger, repos.items, hub, publisher, maxRetries, log.Component("ledger"))
	lifecycleUC := inventory.NewLifecycleUseCase(repos.state, hub, log.Component("lifecycle"))
	replenishmentUC := inventory.NewReplenishmentUseCase(repos.items, repos.movements)
	reportUC := appanalytics.NewReportUseCase(repos.items, repos.movements, repos.snapshots, loc)
	dashboardUC := appanalytics.NewDashboardUseCase(repos.items, repos.movements, loc)

	// Temas en tiempo real: cada aviso re-envía la colección completa.
	hub.Register(domain.TopicItems, func(ctx context.Context) (any, error) { return itemUC.List(ctx) })
	hub.Register(domain.TopicMovements, func(ctx context.Context) (any, error) {
		return reportUC.MovementHistory(ctx, dto.MovementHistoryQuery{Limit: realtimeMovementLimit})
	})
	hub.Register(domain.TopicState, func(ctx context.Context) (any, error) { return lifecycleUC.State(ctx) })
	hub.Register(domain.TopicRoles, func(ctx context.Context) (any, error) { return roleUC.List(ctx) })
	hub.Register(domain.TopicUsers, func(ctx context.Context) (any, error) { return userUC.List(ctx) })

	hubDone := make(chan struct{})
	go func() {
		defer close(hubDone)
		if err := hub.Run(ctx); err != nil {
			log.Error().Err(err).Msg("hub de tiempo real finalizado")
		}
	}()

	app := fiber.New(fiber.Config{
		AppName:      cfg.App.Name,
		ReadTimeout:  time.Second * 10,
		WriteTimeout: time.Second * 10,
		IdleTimeout:  time.Second * 60,
	})
	app.Use(recover.New())

	// Swagger UI en local: http://localhost:<port>/docs
	if _, err := os.Stat("./docs/swagger.json"); err == nil {
		app.Use(swagger.New(swagger.Config{
			BasePath: "/",
			FilePath: "./docs/swagger.json",
			Path:     "docs",
			Title:    "Inventario Rooftop API",
		}))
	}

	app.Get("/health", func(c *fiber.Ctx) error {
		checkCtx, cancel := context.WithTimeout(c.UserContext(), 2*time.Second)
		defer cancel()
		status := fiber.Map{"status": "ok", "service": cfg.App.Name, "store": "ok"}
		if err := repos.ping(checkCtx); err != nil {
			status["status"], status["store"] = "degraded", err.Error()
		}
		if redisClient != nil {
			status["redis"] = "ok"
			if err := redisClient.Ping(checkCtx).Err(); err != nil {
				status["status"], status["redis"] = "degraded", err.Error()
			}
		}
		if status["status"] != "ok" {
			return c.Status(fiber.StatusServiceUnavailable).JSON(status)
		}
		return c.JSON(status)
	})

	httpRouter.Router(app, httpRouter.RouterDeps{
		AuthUC:        authUC,
		RoleUC:        roleUC,
		UserUC:        userUC,
		ItemUC:        itemUC,
		MovementUC:    movementUC,
		LifecycleUC:   lifecycleUC,
		Replenishment: replenishmentUC,
		ReportUC:      reportUC,
		DashboardUC:   dashboardUC,
		Realtime:      hub,
		JWTSecret:     cfg.JWT.Secret,
		Location:      loc,
	})

	go func() {
		if err := app.Listen(cfg.HTTP.Addr()); err != nil {
			log.Error().Err(err).Msg("servidor HTTP finalizado")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("señal de apagado recibida, cerrando servidor...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("apagado del servidor")
	}
	stop()
	<-hubDone
	if err := shutdownTelemetry(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("apagado de telemetría")
	}

	log.Info().Msg("aplicación detenida")
}
