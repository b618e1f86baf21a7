// seed prepara una base nueva: aplica el esquema, crea la fila de estado del inventario,
// un rol "admin" con todos los permisos y un usuario administrador.
//
// Uso: SEED_ADMIN_EMAIL=admin@rooftop.co SEED_ADMIN_PASSWORD=secreto go run ./cmd/seed
// Es idempotente: si el rol o el usuario ya existen no los modifica.
package main

import (
	"context"
	"time"

	"github.com/spf13/viper"

	"github.com/jhoicas/Inventario-rooftop/internal/application/auth"
	"github.com/jhoicas/Inventario-rooftop/internal/application/dto"
	"github.com/jhoicas/Inventario-rooftop/internal/domain/entity"
	"github.com/jhoicas/Inventario-rooftop/internal/infrastructure/postgres"
	"github.com/jhoicas/Inventario-rooftop/internal/infrastructure/session"
	"github.com/jhoicas/Inventario-rooftop/pkg/config"
	"github.com/jhoicas/Inventario-rooftop/pkg/logger"
)

const adminRoleName = "admin"

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("cargar configuración: " + err.Error())
	}
	log := logger.New(logger.Config{Env: cfg.App.Env, Level: cfg.Log.Level, Service: "seed"})

	v := viper.New()
	v.AutomaticEnv()
	v.SetDefault("SEED_ADMIN_EMAIL", "admin@rooftop.co")
	v.SetDefault("SEED_ADMIN_NAME", "administrador")
	email := v.GetString("SEED_ADMIN_EMAIL")
	password := v.GetString("SEED_ADMIN_PASSWORD")
	if password == "" {
		log.Fatal().Msg("SEED_ADMIN_PASSWORD es obligatorio")
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	pool, err := postgres.NewPool(ctx, cfg.DB)
	if err != nil {
		log.Fatal().Err(err).Msg("conexión a PostgreSQL")
	}
	store := postgres.NewStore(pool)
	defer store.Close()

	if err := store.Migrate(ctx); err != nil {
		log.Fatal().Err(err).Msg("aplicar esquema")
	}
	log.Info().Msg("esquema aplicado")

	role, err := ensureAdminRole(ctx, store)
	if err != nil {
		log.Fatal().Err(err).Msg("crear rol admin")
	}

	existing, err := store.Users.GetByEmail(ctx, email)
	if err != nil {
		log.Fatal().Err(err).Msg("buscar usuario admin")
	}
	if existing != nil {
		log.Info().Str("email", email).Msg("el usuario admin ya existe")
		return
	}

	authUC := auth.NewAuthUseCase(store.Users, store.Roles, session.NewMemoryRevoker(), nil, auth.JWTConfig{
		Secret:     cfg.JWT.Secret,
		ExpMinutes: cfg.JWT.Expiration,
		Issuer:     cfg.JWT.Issuer,
	}, log.Component("auth"))
	user, err := authUC.Register(ctx, dto.RegisterRequest{
		Email:    email,
		Password: password,
		Nombre:   v.GetString("SEED_ADMIN_NAME"),
		RoleID:   role.ID,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("crear usuario admin")
	}
	log.Info().Str("user_id", user.ID).Str("email", user.Email).Msg("usuario admin creado")
}

func ensureAdminRole(ctx context.Context, store *postgres.Store) (*entity.Role, error) {
	role, err := store.Roles.GetByName(ctx, adminRoleName)
	if err != nil || role != nil {
		return role, err
	}
	perms := make(map[entity.Permission]bool, len(entity.AllPermissions))
	for _, p := range entity.AllPermissions {
		perms[p] = true
	}
	role = &entity.Role{Name: adminRoleName, Permissions: perms}
	if err := store.Roles.Create(ctx, role); err != nil {
		return nil, err
	}
	return role, nil
}
