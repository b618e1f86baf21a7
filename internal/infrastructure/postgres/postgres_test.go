package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/Inventario-rooftop/internal/domain"
	"github.com/jhoicas/Inventario-rooftop/internal/domain/entity"
	"github.com/jhoicas/Inventario-rooftop/pkg/config"
)

type fakeRow struct {
	values []any
	err    error
}

func (r fakeRow) Scan(dest ...any) error {
	if r.err != nil {
		return r.err
	}
	if len(dest) != len(r.values) {
		return fmt.Errorf("scan: %d destinos, %d valores", len(dest), len(r.values))
	}
	for i, v := range r.values {
		switch d := dest[i].(type) {
		case *string:
			*d = v.(string)
		case *int:
			*d = v.(int)
		case *[]byte:
			*d = v.([]byte)
		case *time.Time:
			*d = v.(time.Time)
		default:
			return fmt.Errorf("tipo no soportado %T", dest[i])
		}
	}
	return nil
}

func TestStoreErr(t *testing.T) {
	assert.NoError(t, storeErr("op", nil))

	err := storeErr("insert", errors.New("connection refused"))
	assert.ErrorIs(t, err, domain.ErrStoreUnavailable)
	assert.Contains(t, err.Error(), "insert")

	err = storeErr("commit", &pgconn.PgError{Code: "40001"})
	assert.ErrorIs(t, err, domain.ErrVersionConflict)
	assert.NotErrorIs(t, err, domain.ErrStoreUnavailable)

	err = storeErr("update item", &pgconn.PgError{Code: "23514", ConstraintName: "inventory_items_bodega_check"})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
	assert.NotErrorIs(t, err, domain.ErrStoreUnavailable)
	assert.Equal(t, domain.CategoryValidation, domain.Category(err))

	assert.True(t, isUniqueViolation(&pgconn.PgError{Code: "23505"}))
	assert.False(t, isUniqueViolation(&pgconn.PgError{Code: "23503"}))
}

func TestScanRole_DecodesPermissions(t *testing.T) {
	now := time.Date(2026, 3, 11, 9, 0, 0, 0, time.UTC)
	perms, err := encodePermissions(map[entity.Permission]bool{
		entity.PermRegisterMovement: true,
		entity.PermViewReports:      false,
	})
	require.NoError(t, err)

	role, err := scanRole(fakeRow{values: []any{"r1", "Cocinero", 3, perms, now, now}})
	require.NoError(t, err)
	assert.Equal(t, "Cocinero", role.Name)
	assert.Equal(t, 3, role.MaxUsers)
	assert.True(t, role.Permissions[entity.PermRegisterMovement])
	assert.False(t, role.Permissions[entity.PermViewReports])

	_, err = scanRole(fakeRow{values: []any{"r1", "X", 0, []byte("{"), now, now}})
	assert.Error(t, err)
}

func TestSnapshotItemsJSON(t *testing.T) {
	obs := "faltante"
	items := []entity.InventoryItem{
		{ID: "a", Name: "Limón", Bodega: 3, Cocina: 2, Ingreso: 5, Salida: 1, StockMin: 2, Observations: &obs, Version: 4},
		{ID: "b", Name: "Sal", Bodega: 1},
	}
	raw, err := json.Marshal(snapshotItemsToJSON(items))
	require.NoError(t, err)
	assert.Contains(t, string(raw), `"stock_min":2`)

	var decoded []snapshotItemJSON
	require.NoError(t, json.Unmarshal(raw, &decoded))
	back := snapshotItemsFromJSON(decoded)
	require.Len(t, back, 2)
	assert.Equal(t, items[0].Salida, back[0].Salida)
	require.NotNil(t, back[0].Observations)
	assert.Equal(t, "faltante", *back[0].Observations)
	assert.Nil(t, back[1].Observations)
}

func TestSchemaIsEmbedded(t *testing.T) {
	files, err := fs.Glob(schemaFS, "schema/*.sql")
	require.NoError(t, err)
	require.NotEmpty(t, files)

	script, err := schemaFS.ReadFile(files[0])
	require.NoError(t, err)
	for _, table := range []string{"inventory_items", "inventory_movements", "inventory_state", "inventory_snapshots", "roles", "users"} {
		assert.True(t, strings.Contains(string(script), "CREATE TABLE IF NOT EXISTS "+table), table)
	}
}

func TestTypeStrings(t *testing.T) {
	assert.Equal(t, []string{"salida-cocina", "salida-bodega"}, typeStrings(entity.OutflowTypes))
}

func TestPoolConfigFor(t *testing.T) {
	cfg := config.DBConfig{Host: "db", Port: 5432, User: "app", Password: "x", DBName: "inv", SSLMode: "disable"}

	pc, err := poolConfigFor(cfg)
	require.NoError(t, err)
	assert.Equal(t, int32(defaultMaxConns), pc.MaxConns)
	assert.Equal(t, int32(defaultMinConns), pc.MinConns)
	assert.Equal(t, defaultApplicationName, pc.ConnConfig.RuntimeParams["application_name"])

	cfg.MaxConns, cfg.MinConns, cfg.ApplicationName = 4, 10, "rooftop-api"
	pc, err = poolConfigFor(cfg)
	require.NoError(t, err)
	assert.Equal(t, int32(4), pc.MaxConns)
	assert.Equal(t, int32(defaultMinConns), pc.MinConns, "min mayor que max se ignora")
	assert.Equal(t, "rooftop-api", pc.ConnConfig.RuntimeParams["application_name"])

	_, err = poolConfigFor(config.DBConfig{DatabaseURL: "postgres://%zz"})
	assert.Error(t, err)
}

func TestLookupIPv4_Literal(t *testing.T) {
	ip, err := lookupIPv4(context.Background(), "127.0.0.1")
	require.NoError(t, err)
	assert.Equal(t, "127.0.0.1", ip)

	_, err = lookupIPv4(context.Background(), "::1")
	assert.Error(t, err)
}
