package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/jhoicas/Inventario-rooftop/internal/domain/entity"
	"github.com/jhoicas/Inventario-rooftop/internal/domain/repository"
)

var _ repository.MovementRepository = (*MovementRepo)(nil)

const movementColumns = `id, product_id, product_name, type, quantity, before_bodega, before_cocina,
	after_bodega, after_cocina, responsible, responsible_id, observations, created_at`

func scanMovement(row rowScanner) (*entity.Movement, error) {
	var m entity.Movement
	var responsibleID *string
	err := row.Scan(
		&m.ID, &m.ProductID, &m.ProductName, &m.Type, &m.Quantity, &m.BeforeBodega, &m.BeforeCocina,
		&m.AfterBodega, &m.AfterCocina, &m.Responsible, &responsibleID, &m.Observations, &m.Timestamp,
	)
	if err != nil {
		return nil, err
	}
	if responsibleID != nil {
		m.ResponsibleID = *responsibleID
	}
	return &m, nil
}

// insertMovement agrega un movimiento al libro. Solo se llama desde LedgerStore.CommitMovement.
func insertMovement(ctx context.Context, q Querier, m *entity.Movement) error {
	var responsibleID *string
	if m.ResponsibleID != "" {
		responsibleID = &m.ResponsibleID
	}
	query := `
		INSERT INTO inventory_movements (` + movementColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`
	_, err := q.Exec(ctx, query,
		m.ID, m.ProductID, m.ProductName, string(m.Type), m.Quantity, m.BeforeBodega, m.BeforeCocina,
		m.AfterBodega, m.AfterCocina, m.Responsible, responsibleID, m.Observations, m.Timestamp,
	)
	if err != nil {
		return storeErr("insert movement", err)
	}
	return nil
}

// MovementRepo lectura del libro de movimientos sobre PostgreSQL.
type MovementRepo struct {
	q Querier
}

// NewMovementRepository construye el adaptador. Pasar pool o tx (Querier).
func NewMovementRepository(q Querier) *MovementRepo {
	return &MovementRepo{q: q}
}

// List historial filtrado, más reciente primero.
func (r *MovementRepo) List(ctx context.Context, f repository.MovementFilter) ([]*entity.Movement, error) {
	query := `SELECT ` + movementColumns + ` FROM inventory_movements WHERE true`
	args := []any{}
	pos := 1
	if f.From != nil {
		query += fmt.Sprintf(" AND created_at >= $%d", pos)
		args = append(args, *f.From)
		pos++
	}
	if f.To != nil {
		query += fmt.Sprintf(" AND created_at < $%d", pos)
		args = append(args, *f.To)
		pos++
	}
	if f.ProductID != "" {
		query += fmt.Sprintf(" AND product_id = $%d", pos)
		args = append(args, f.ProductID)
		pos++
	}
	if len(f.Types) > 0 {
		query += fmt.Sprintf(" AND type = ANY($%d)", pos)
		args = append(args, typeStrings(f.Types))
		pos++
	}
	query += " ORDER BY created_at DESC, id DESC"
	if f.Limit > 0 {
		query += fmt.Sprintf(" LIMIT $%d", pos)
		args = append(args, f.Limit)
	}

	rows, err := r.q.Query(ctx, query, args...)
	if err != nil {
		return nil, storeErr("list movements", err)
	}
	defer rows.Close()
	list := make([]*entity.Movement, 0)
	for rows.Next() {
		m, err := scanMovement(rows)
		if err != nil {
			return nil, storeErr("scan movement", err)
		}
		list = append(list, m)
	}
	if err := rows.Err(); err != nil {
		return nil, storeErr("iterar movimientos", err)
	}
	return list, nil
}

// OutflowTotals suma las salidas por nombre de producto, mayor cantidad primero.
func (r *MovementRepo) OutflowTotals(ctx context.Context, from, to time.Time) ([]repository.OutflowTotal, error) {
	query := `
		SELECT product_name, SUM(quantity)::bigint AS total
		FROM inventory_movements
		WHERE type = ANY($1) AND created_at >= $2 AND created_at < $3
		GROUP BY product_name
		ORDER BY total DESC, product_name`
	rows, err := r.q.Query(ctx, query, typeStrings(entity.OutflowTypes), from, to)
	if err != nil {
		return nil, storeErr("outflow totals", err)
	}
	list, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (repository.OutflowTotal, error) {
		var t repository.OutflowTotal
		err := row.Scan(&t.ProductName, &t.Quantity)
		return t, err
	})
	if err != nil {
		return nil, storeErr("scan outflow totals", err)
	}
	return list, nil
}

// ActivityDays días distintos (medianoche en loc) con movimientos, en orden ascendente.
// La agrupación por día se hace en loc, del lado de la aplicación.
func (r *MovementRepo) ActivityDays(ctx context.Context, from, to time.Time, loc *time.Location) ([]time.Time, error) {
	if loc == nil {
		loc = time.Local
	}
	query := `
		SELECT DISTINCT date_trunc('minute', created_at) AS minute
		FROM inventory_movements
		WHERE created_at >= $1 AND created_at < $2
		ORDER BY minute`
	rows, err := r.q.Query(ctx, query, from, to)
	if err != nil {
		return nil, storeErr("activity days", err)
	}
	stamps, err := pgx.CollectRows(rows, pgx.RowTo[time.Time])
	if err != nil {
		return nil, storeErr("scan activity days", err)
	}
	days := make([]time.Time, 0)
	seen := make(map[time.Time]bool)
	for _, ts := range stamps {
		t := ts.In(loc)
		d := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, loc)
		if !seen[d] {
			seen[d] = true
			days = append(days, d)
		}
	}
	return days, nil
}

func typeStrings(types []entity.MovementType) []string {
	out := make([]string, len(types))
	for i, t := range types {
		out[i] = string(t)
	}
	return out
}
