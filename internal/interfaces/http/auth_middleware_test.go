package http_test

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/Inventario-rooftop/internal/application/usecase"
	"github.com/jhoicas/Inventario-rooftop/internal/domain/entity"
	"github.com/jhoicas/Inventario-rooftop/internal/infrastructure/memory"
	apphttp "github.com/jhoicas/Inventario-rooftop/internal/interfaces/http"
	pkgjwt "github.com/jhoicas/Inventario-rooftop/pkg/jwt"
)

// ──────────────────────────────────────────────────────────────────────────────
// Helpers de test
// ──────────────────────────────────────────────────────────────────────────────

const (
	testJWTSecret = "test-secret-key-for-unit-tests"
	testIssuer    = "inventario-rooftop-test"
	testExpMin    = 60
)

// fakeRevocations lista de revocación controlada por el test.
type fakeRevocations struct {
	revoked map[string]bool
	err     error
}

func (f *fakeRevocations) IsRevoked(_ context.Context, tokenID string) (bool, error) {
	return f.revoked[tokenID], f.err
}

// seedUser crea en el store un rol con los permisos indicados y un usuario con ese rol.
func seedUser(t *testing.T, mem *memory.Store, email string, perms ...entity.Permission) *entity.User {
	t.Helper()
	ctx := context.Background()
	granted := make(map[entity.Permission]bool, len(perms))
	for _, p := range perms {
		granted[p] = true
	}
	role := &entity.Role{Name: "rol-" + email, Permissions: granted}
	require.NoError(t, mem.Roles().Create(ctx, role))
	user := &entity.User{Email: email, Nombre: "ana", Apellidos: "gómez", RoleID: role.ID}
	require.NoError(t, mem.Users().Create(ctx, user))
	return user
}

func bearer(t *testing.T, userID string) (string, *pkgjwt.Claims) {
	t.Helper()
	tok, claims, err := pkgjwt.Generate(testJWTSecret, userID, "x@rooftop.co", testIssuer, testExpMin)
	require.NoError(t, err, "debe generarse un token JWT válido")
	return "Bearer " + tok, claims
}

// buildTestApp aplicación mínima: JWT + permiso + handler dummy.
func buildTestApp(mem *memory.Store, revoked apphttp.RevocationChecker, perm entity.Permission) *fiber.App {
	resolver := usecase.NewUserUseCase(mem.Users(), mem.Roles(), nil, zerolog.Nop())
	app := fiber.New()
	app.Get("/protected",
		apphttp.AuthMiddleware(testJWTSecret, revoked),
		apphttp.RequirePermission(perm, resolver),
		func(c *fiber.Ctx) error {
			actor := apphttp.GetActor(c)
			return c.JSON(fiber.Map{"ok": true, "user_id": apphttp.GetUserID(c), "actor": actor.DisplayName()})
		},
	)
	return app
}

func doRequest(t *testing.T, app *fiber.App, target, authHeader string) *http.Response {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, target, nil)
	if authHeader != "" {
		req.Header.Set("Authorization", authHeader)
	}
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	return resp
}

func bodyString(t *testing.T, resp *http.Response) string {
	t.Helper()
	b, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return string(b)
}

// ──────────────────────────────────────────────────────────────────────────────
// Tests AuthMiddleware
// ──────────────────────────────────────────────────────────────────────────────

func TestAuthMiddleware_SinToken_Retorna401(t *testing.T) {
	app := buildTestApp(memory.New(), nil, entity.PermViewReports)
	resp := doRequest(t, app, "/protected", "")
	defer resp.Body.Close()

	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	assert.Contains(t, bodyString(t, resp), "MISSING_TOKEN")
}

func TestAuthMiddleware_TokenInvalido_Retorna401(t *testing.T) {
	app := buildTestApp(memory.New(), nil, entity.PermViewReports)
	resp := doRequest(t, app, "/protected", "Bearer token.invalido.aqui")
	defer resp.Body.Close()

	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	assert.Contains(t, bodyString(t, resp), "INVALID_TOKEN")
}

func TestAuthMiddleware_TokenEnQuery(t *testing.T) {
	mem := memory.New()
	user := seedUser(t, mem, "query@rooftop.co", entity.PermViewReports)
	app := buildTestApp(mem, nil, entity.PermViewReports)
	tok, _ := bearer(t, user.ID)

	resp := doRequest(t, app, "/protected?token="+tok[len("Bearer "):], "")
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestAuthMiddleware_TokenRevocado_Retorna401(t *testing.T) {
	mem := memory.New()
	user := seedUser(t, mem, "rev@rooftop.co", entity.PermViewReports)
	tok, claims := bearer(t, user.ID)
	app := buildTestApp(mem, &fakeRevocations{revoked: map[string]bool{claims.ID: true}}, entity.PermViewReports)

	resp := doRequest(t, app, "/protected", tok)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	assert.Contains(t, bodyString(t, resp), "TOKEN_REVOKED")
}

func TestAuthMiddleware_FalloDeRevocacion_Retorna503(t *testing.T) {
	mem := memory.New()
	user := seedUser(t, mem, "down@rooftop.co", entity.PermViewReports)
	tok, _ := bearer(t, user.ID)
	app := buildTestApp(mem, &fakeRevocations{err: errors.New("redis caído")}, entity.PermViewReports)

	resp := doRequest(t, app, "/protected", tok)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
}

// ──────────────────────────────────────────────────────────────────────────────
// Tests RequirePermission
// ──────────────────────────────────────────────────────────────────────────────

func TestRequirePermission_ConPermiso_Retorna200(t *testing.T) {
	mem := memory.New()
	user := seedUser(t, mem, "admin@rooftop.co", entity.PermViewReports)
	tok, _ := bearer(t, user.ID)
	app := buildTestApp(mem, &fakeRevocations{}, entity.PermViewReports)

	resp := doRequest(t, app, "/protected", tok)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var body map[string]interface{}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, true, body["ok"])
	assert.Equal(t, user.ID, body["user_id"])
	assert.Equal(t, "ana gómez", body["actor"])
}

func TestRequirePermission_SinPermiso_Retorna403(t *testing.T) {
	mem := memory.New()
	user := seedUser(t, mem, "mesero@rooftop.co", entity.PermRegisterMovement)
	tok, _ := bearer(t, user.ID)
	app := buildTestApp(mem, nil, entity.PermViewReports)

	resp := doRequest(t, app, "/protected", tok)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	assert.Contains(t, bodyString(t, resp), "FORBIDDEN")
}

// El rol se lee en cada request: quitar el permiso aplica sin emitir un token nuevo.
func TestRequirePermission_CambioDeRolAplicaDeInmediato(t *testing.T) {
	ctx := context.Background()
	mem := memory.New()
	user := seedUser(t, mem, "cambio@rooftop.co", entity.PermViewReports)
	tok, _ := bearer(t, user.ID)
	app := buildTestApp(mem, nil, entity.PermViewReports)

	resp := doRequest(t, app, "/protected", tok)
	resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	role, err := mem.Roles().GetByID(ctx, user.RoleID)
	require.NoError(t, err)
	role.Permissions[entity.PermViewReports] = false
	require.NoError(t, mem.Roles().Update(ctx, role))

	resp = doRequest(t, app, "/protected", tok)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
}

func TestRequirePermission_UsuarioEliminado_Retorna401(t *testing.T) {
	mem := memory.New()
	user := seedUser(t, mem, "borrado@rooftop.co", entity.PermViewReports)
	tok, _ := bearer(t, user.ID)
	require.NoError(t, mem.Users().Delete(context.Background(), user.ID))
	app := buildTestApp(mem, nil, entity.PermViewReports)

	resp := doRequest(t, app, "/protected", tok)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}
