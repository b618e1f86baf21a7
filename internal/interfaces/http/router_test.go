package http_test

import (
	"bytes"
	"context"
	"encoding/json"
	"math"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/Inventario-rooftop/internal/application/analytics"
	"github.com/jhoicas/Inventario-rooftop/internal/application/auth"
	"github.com/jhoicas/Inventario-rooftop/internal/application/dto"
	"github.com/jhoicas/Inventario-rooftop/internal/application/inventory"
	"github.com/jhoicas/Inventario-rooftop/internal/application/usecase"
	"github.com/jhoicas/Inventario-rooftop/internal/domain"
	"github.com/jhoicas/Inventario-rooftop/internal/domain/entity"
	"github.com/jhoicas/Inventario-rooftop/internal/infrastructure/memory"
	"github.com/jhoicas/Inventario-rooftop/internal/infrastructure/realtime"
	"github.com/jhoicas/Inventario-rooftop/internal/infrastructure/session"
	apphttp "github.com/jhoicas/Inventario-rooftop/internal/interfaces/http"
)

// testServer API completa sobre el store en memoria.
type testServer struct {
	app *fiber.App
	mem *memory.Store
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	mem := memory.New()
	log := zerolog.Nop()
	hub := realtime.NewHub(nil, "", log)
	hub.Register(domain.TopicItems, func(ctx context.Context) (any, error) { return mem.Items().List(ctx) })
	hub.Register(domain.TopicMovements, func(ctx context.Context) (any, error) { return nil, nil })

	authUC := auth.NewAuthUseCase(mem.Users(), mem.Roles(), session.NewMemoryRevoker(), nil,
		auth.JWTConfig{Secret: testJWTSecret, ExpMinutes: testExpMin, Issuer: testIssuer}, log)
	reports := analytics.NewReportUseCase(mem.Items(), mem.Movements(), mem.Snapshots(), time.UTC)

	app := fiber.New()
	apphttp.Router(app, apphttp.RouterDeps{
		AuthUC:        authUC,
		RoleUC:        usecase.NewRoleUseCase(mem.Roles(), nil, log),
		UserUC:        usecase.NewUserUseCase(mem.Users(), mem.Roles(), nil, log),
		ItemUC:        inventory.NewItemUseCase(mem.Items(), mem.State(), nil, 3, log),
		MovementUC:    inventory.NewMovementUseCase(mem, mem.Items(), nil, nil, 3, log),
		LifecycleUC:   inventory.NewLifecycleUseCase(mem.State(), nil, log),
		Replenishment: inventory.NewReplenishmentUseCase(mem.Items(), mem.Movements()),
		ReportUC:      reports,
		DashboardUC:   analytics.NewDashboardUseCase(mem.Items(), mem.Movements(), time.UTC),
		Realtime:      hub,
		JWTSecret:     testJWTSecret,
		Location:      time.UTC,
	})
	return &testServer{app: app, mem: mem}
}

func (s *testServer) do(t *testing.T, method, target, token string, body any) *http.Response {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, target, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", token)
	}
	resp, err := s.app.Test(req, -1)
	require.NoError(t, err)
	return resp
}

func decode[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	defer resp.Body.Close()
	var out T
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return out
}

func TestRouter_ItemsYMovimientos(t *testing.T) {
	srv := newTestServer(t)
	admin := seedUser(t, srv.mem, "admin@rooftop.co", entity.AllPermissions...)
	mesero := seedUser(t, srv.mem, "mesero@rooftop.co", entity.PermRegisterMovement)
	adminTok, _ := bearer(t, admin.ID)
	meseroTok, _ := bearer(t, mesero.ID)

	// Crear producto: solo con addProduct.
	resp := srv.do(t, http.MethodPost, "/api/items", meseroTok, dto.CreateItemRequest{Name: "Tomate", Bodega: 10})
	resp.Body.Close()
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	resp = srv.do(t, http.MethodPost, "/api/items", adminTok, dto.CreateItemRequest{Name: "Tomate", Bodega: 10, Cocina: 2, StockMin: 3})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	item := decode[dto.ItemResponse](t, resp)
	assert.Equal(t, int64(12), item.Total)
	assert.Equal(t, "ana gómez", item.Responsable)

	// Traslado por nombre exacto.
	resp = srv.do(t, http.MethodPost, "/api/inventory/movements", meseroTok,
		dto.RegisterMovementRequest{ItemName: "Tomate", Type: "bodega-cocina", Quantity: 4})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	res := decode[dto.MovementResultResponse](t, resp)
	assert.Equal(t, int64(6), res.Item.Bodega)
	assert.Equal(t, int64(6), res.Item.Cocina)
	assert.Equal(t, int64(10), res.Movement.BeforeBodega)
	assert.Equal(t, mesero.ID, res.Movement.ResponsibleID)

	// Rechazos del motor.
	resp = srv.do(t, http.MethodPost, "/api/inventory/movements", meseroTok,
		dto.RegisterMovementRequest{ItemID: item.ID, Type: "salida-bodega", Quantity: 100})
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
	assert.Equal(t, "INSUFFICIENT_STOCK", decode[dto.ErrorResponse](t, resp).Code)

	resp = srv.do(t, http.MethodPost, "/api/inventory/movements", meseroTok,
		dto.RegisterMovementRequest{ItemID: item.ID, Type: "ingreso-bodega", Quantity: math.MaxInt64})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "VALIDATION", decode[dto.ErrorResponse](t, resp).Code)

	resp = srv.do(t, http.MethodPost, "/api/inventory/movements", meseroTok,
		dto.RegisterMovementRequest{ItemID: item.ID, Type: "robo", Quantity: 1})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "INVALID_MOVEMENT_TYPE", decode[dto.ErrorResponse](t, resp).Code)

	resp = srv.do(t, http.MethodPost, "/api/inventory/movements", meseroTok,
		dto.RegisterMovementRequest{ItemID: "no-existe", Type: "salida-bodega", Quantity: 1})
	resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	// Historial: requiere viewMovementHistory.
	resp = srv.do(t, http.MethodGet, "/api/inventory/movements", meseroTok, nil)
	resp.Body.Close()
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	resp = srv.do(t, http.MethodGet, "/api/inventory/movements?limit=10", adminTok, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Len(t, decode[[]dto.MovementResponse](t, resp), 1)

	// Búsqueda por subcadena sin distinguir mayúsculas.
	resp = srv.do(t, http.MethodGet, "/api/items/search?q=tom", meseroTok, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Len(t, decode[[]dto.ItemResponse](t, resp), 1)
}

func TestRouter_CierreBloqueaMovimientos(t *testing.T) {
	srv := newTestServer(t)
	admin := seedUser(t, srv.mem, "admin@rooftop.co", entity.AllPermissions...)
	tok, _ := bearer(t, admin.ID)

	resp := srv.do(t, http.MethodPost, "/api/items", tok, dto.CreateItemRequest{Name: "Arroz", Bodega: 5})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	item := decode[dto.ItemResponse](t, resp)

	resp = srv.do(t, http.MethodPost, "/api/inventory/close", tok, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	snap := decode[dto.SnapshotResponse](t, resp)
	assert.Equal(t, 1, snap.ItemCount)

	resp = srv.do(t, http.MethodPost, "/api/inventory/close", tok, nil)
	resp.Body.Close()
	assert.Equal(t, http.StatusConflict, resp.StatusCode)

	resp = srv.do(t, http.MethodPost, "/api/inventory/movements", tok,
		dto.RegisterMovementRequest{ItemID: item.ID, Type: "ingreso-bodega", Quantity: 1})
	assert.Equal(t, http.StatusLocked, resp.StatusCode)
	assert.Equal(t, "INVENTORY_CLOSED", decode[dto.ErrorResponse](t, resp).Code)

	resp = srv.do(t, http.MethodGet, "/api/inventory/state", tok, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.True(t, decode[dto.InventoryStateResponse](t, resp).IsClosed)

	resp = srv.do(t, http.MethodGet, "/api/reports/snapshots", tok, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Len(t, decode[[]dto.SnapshotResponse](t, resp), 1)

	resp = srv.do(t, http.MethodPost, "/api/inventory/reopen", tok, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.False(t, decode[dto.InventoryStateResponse](t, resp).IsClosed)

	resp = srv.do(t, http.MethodPost, "/api/inventory/movements", tok,
		dto.RegisterMovementRequest{ItemID: item.ID, Type: "ingreso-bodega", Quantity: 1})
	resp.Body.Close()
	assert.Equal(t, http.StatusCreated, resp.StatusCode)
}

func TestRouter_AuthYRoles(t *testing.T) {
	srv := newTestServer(t)
	ctx := context.Background()
	open := &entity.Role{Name: "mesero", Permissions: map[entity.Permission]bool{entity.PermRegisterMovement: true}}
	require.NoError(t, srv.mem.Roles().Create(ctx, open))

	// Listado público para el formulario de registro.
	resp := srv.do(t, http.MethodGet, "/api/roles/available", "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Len(t, decode[[]dto.AvailableRoleResponse](t, resp), 1)

	resp = srv.do(t, http.MethodPost, "/api/auth/register", "", dto.RegisterRequest{
		Email: "luis@rooftop.co", Password: "secreto1", Nombre: "Luis", RoleID: open.ID,
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	resp.Body.Close()

	resp = srv.do(t, http.MethodPost, "/api/auth/login", "", dto.LoginRequest{Email: "nadie@rooftop.co", Password: "secreto1"})
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	assert.Equal(t, "USER_NOT_FOUND", decode[dto.ErrorResponse](t, resp).Code)

	resp = srv.do(t, http.MethodPost, "/api/auth/login", "", dto.LoginRequest{Email: "luis@rooftop.co", Password: "secreto1"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	login := decode[dto.LoginResponse](t, resp)
	tok := "Bearer " + login.Token

	resp = srv.do(t, http.MethodGet, "/api/auth/me", tok, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "luis", decode[dto.UserResponse](t, resp).Nombre)

	resp = srv.do(t, http.MethodGet, "/api/roles", tok, nil)
	resp.Body.Close()
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	resp = srv.do(t, http.MethodPost, "/api/auth/logout", tok, nil)
	resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp = srv.do(t, http.MethodGet, "/api/auth/me", tok, nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	assert.Equal(t, "TOKEN_REVOKED", decode[dto.ErrorResponse](t, resp).Code)
}

func TestRouter_AdministracionDeUsuarios(t *testing.T) {
	srv := newTestServer(t)
	admin := seedUser(t, srv.mem, "admin@rooftop.co", entity.AllPermissions...)
	other := seedUser(t, srv.mem, "otro@rooftop.co")
	tok, _ := bearer(t, admin.ID)

	resp := srv.do(t, http.MethodGet, "/api/users", tok, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Len(t, decode[[]dto.UserResponse](t, resp), 2)

	resp = srv.do(t, http.MethodDelete, "/api/users/"+admin.ID, tok, nil)
	resp.Body.Close()
	assert.Equal(t, http.StatusConflict, resp.StatusCode)

	resp = srv.do(t, http.MethodDelete, "/api/users/"+other.ID, tok, nil)
	resp.Body.Close()
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)

	nombre := "ana maría"
	resp = srv.do(t, http.MethodPut, "/api/profile", tok, dto.UpdateProfileRequest{Nombre: &nombre})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "ana maría", decode[dto.UserResponse](t, resp).Nombre)
}

func TestRouter_Realtime(t *testing.T) {
	srv := newTestServer(t)
	user := seedUser(t, srv.mem, "sin-permisos@rooftop.co")
	tok, _ := bearer(t, user.ID)

	upgrade := func(target string) *http.Response {
		req := httptest.NewRequest(http.MethodGet, target, nil)
		req.Header.Set("Authorization", tok)
		req.Header.Set("Connection", "Upgrade")
		req.Header.Set("Upgrade", "websocket")
		resp, err := srv.app.Test(req, -1)
		require.NoError(t, err)
		return resp
	}

	resp := srv.do(t, http.MethodGet, "/api/realtime/items", tok, nil)
	resp.Body.Close()
	assert.Equal(t, http.StatusUpgradeRequired, resp.StatusCode)

	resp = upgrade("/api/realtime/desconocido")
	resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp = upgrade("/api/realtime/movements")
	resp.Body.Close()
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
}
