package auth

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"

	"github.com/jhoicas/Inventario-rooftop/internal/application/dto"
	"github.com/jhoicas/Inventario-rooftop/internal/domain"
	"github.com/jhoicas/Inventario-rooftop/internal/domain/entity"
	"github.com/jhoicas/Inventario-rooftop/internal/domain/repository"
	"github.com/jhoicas/Inventario-rooftop/pkg/jwt"
	"github.com/jhoicas/Inventario-rooftop/pkg/validation"
)

const minPasswordLength = 6

// JWTConfig configuración para generación de tokens.
type JWTConfig struct {
	Secret     string
	ExpMinutes int
	Issuer     string
}

// TokenRevoker lista de tokens revocados por logout (por jti, hasta su expiración).
type TokenRevoker interface {
	Revoke(ctx context.Context, tokenID string, ttl time.Duration) error
	IsRevoked(ctx context.Context, tokenID string) (bool, error)
}

// Notifier avisa a los suscriptores en tiempo real (usuarios y cupos de roles).
type Notifier interface {
	Notify(ctx context.Context, topics ...string) error
}

// AuthUseCase casos de uso de autenticación: registro, login, logout y perfil actual.
type AuthUseCase struct {
	userRepo repository.UserRepository
	roleRepo repository.RoleRepository
	revoker  TokenRevoker
	notifier Notifier
	jwtCfg   JWTConfig
	log      zerolog.Logger
}

// NewAuthUseCase construye el caso de uso de auth. notifier puede ser nil.
func NewAuthUseCase(userRepo repository.UserRepository, roleRepo repository.RoleRepository, revoker TokenRevoker, notifier Notifier, jwtCfg JWTConfig, log zerolog.Logger) *AuthUseCase {
	return &AuthUseCase{userRepo: userRepo, roleRepo: roleRepo, revoker: revoker, notifier: notifier, jwtCfg: jwtCfg, log: log}
}

// Register crea un usuario con el rol elegido.
// Errores: ErrInvalidEmail, ErrWeakPassword, ErrInvalidInput, ErrEmailAlreadyExists,
// ErrNotFound (rol) y ErrRoleFull (cupo del rol agotado).
func (uc *AuthUseCase) Register(ctx context.Context, in dto.RegisterRequest) (*dto.UserResponse, error) {
	email := normalizeEmail(in.Email)
	if !validation.IsEmail(email) {
		return nil, domain.ErrInvalidEmail
	}
	if len(in.Password) < minPasswordLength {
		return nil, domain.ErrWeakPassword
	}
	nombre := strings.ToLower(strings.TrimSpace(in.Nombre))
	if nombre == "" {
		return nil, fmt.Errorf("%w: el nombre es obligatorio", domain.ErrInvalidInput)
	}

	role, err := uc.roleRepo.GetByID(ctx, strings.TrimSpace(in.RoleID))
	if err != nil {
		return nil, err
	}
	if role == nil {
		return nil, fmt.Errorf("rol %q: %w", in.RoleID, domain.ErrNotFound)
	}
	existing, err := uc.userRepo.GetByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, domain.ErrEmailAlreadyExists
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}
	user := &entity.User{
		Email:        email,
		PasswordHash: string(hash),
		Nombre:       nombre,
		Apellidos:    strings.ToLower(strings.TrimSpace(in.Apellidos)),
		Celular:      strings.TrimSpace(in.Celular),
		RoleID:       role.ID,
	}
	// El cupo del rol se verifica dentro de la transacción de alta.
	if err := uc.userRepo.Create(ctx, user); err != nil {
		return nil, err
	}
	uc.log.Info().Str("user_id", user.ID).Str("role", role.Name).Msg("usuario registrado")
	if uc.notifier != nil {
		if err := uc.notifier.Notify(ctx, domain.TopicUsers, domain.TopicRoles); err != nil {
			uc.log.Warn().Err(err).Str("user_id", user.ID).Msg("no se pudo notificar el cambio")
		}
	}
	out := dto.UserFromEntity(user, role)
	return &out, nil
}

// Login verifica email/password, genera JWT y retorna token + usuario.
func (uc *AuthUseCase) Login(ctx context.Context, in dto.LoginRequest) (*dto.LoginResponse, error) {
	email := normalizeEmail(in.Email)
	if !validation.IsEmail(email) {
		return nil, domain.ErrInvalidEmail
	}
	user, err := uc.userRepo.GetByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, domain.ErrUserNotFound
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(in.Password)); err != nil {
		return nil, domain.ErrWrongPassword
	}
	role, err := uc.roleRepo.GetByID(ctx, user.RoleID)
	if err != nil {
		return nil, err
	}
	token, claims, err := jwt.Generate(uc.jwtCfg.Secret, user.ID, user.Email, uc.jwtCfg.Issuer, uc.jwtCfg.ExpMinutes)
	if err != nil {
		return nil, err
	}
	return &dto.LoginResponse{
		Token:     token,
		ExpiresAt: claims.ExpiresAt.Time,
		User:      dto.UserFromEntity(user, role),
	}, nil
}

// Logout revoca el token (por su jti) hasta que expire.
func (uc *AuthUseCase) Logout(ctx context.Context, claims *jwt.Claims) error {
	if claims == nil || claims.ID == "" {
		return domain.ErrUnauthorized
	}
	ttl := claims.ExpiresIn(time.Now())
	if ttl <= 0 {
		return nil
	}
	return uc.revoker.Revoke(ctx, claims.ID, ttl)
}

// IsRevoked consulta la lista de revocación (usado por el middleware).
func (uc *AuthUseCase) IsRevoked(ctx context.Context, tokenID string) (bool, error) {
	return uc.revoker.IsRevoked(ctx, tokenID)
}

// Me perfil del usuario autenticado con su rol y permisos vigentes.
func (uc *AuthUseCase) Me(ctx context.Context, userID string) (*dto.UserResponse, error) {
	user, err := uc.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, domain.ErrUserNotFound
	}
	role, err := uc.roleRepo.GetByID(ctx, user.RoleID)
	if err != nil {
		return nil, err
	}
	out := dto.UserFromEntity(user, role)
	return &out, nil
}

func normalizeEmail(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
