package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/jhoicas/Inventario-rooftop/internal/domain"
	"github.com/jhoicas/Inventario-rooftop/internal/domain/entity"
	"github.com/jhoicas/Inventario-rooftop/internal/domain/repository"
)

var _ repository.RoleRepository = (*RoleRepo)(nil)

const roleColumns = `id, name, max_users, permissions, created_at, updated_at`

func scanRole(row rowScanner) (*entity.Role, error) {
	var (
		r   entity.Role
		raw []byte
	)
	if err := row.Scan(&r.ID, &r.Name, &r.MaxUsers, &raw, &r.CreatedAt, &r.UpdatedAt); err != nil {
		return nil, err
	}
	perms := map[string]bool{}
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &perms); err != nil {
			return nil, fmt.Errorf("decodificar permisos del rol %s: %w", r.ID, err)
		}
	}
	r.Permissions = make(map[entity.Permission]bool, len(perms))
	for k, v := range perms {
		r.Permissions[entity.Permission(k)] = v
	}
	return &r, nil
}

func encodePermissions(perms map[entity.Permission]bool) ([]byte, error) {
	out := make(map[string]bool, len(perms))
	for k, v := range perms {
		out[string(k)] = v
	}
	return json.Marshal(out)
}

// RoleRepo roles sobre PostgreSQL; permisos en JSONB.
type RoleRepo struct {
	q  Querier
	tx *TxRunner
}

// NewRoleRepository construye el adaptador.
func NewRoleRepository(q Querier, tx *TxRunner) *RoleRepo {
	return &RoleRepo{q: q, tx: tx}
}

// Create inserta el rol; nombre repetido (sin distinguir mayúsculas) -> ErrDuplicate.
func (r *RoleRepo) Create(ctx context.Context, role *entity.Role) error {
	if role.ID == "" {
		role.ID = uuid.New().String()
	}
	perms, err := encodePermissions(role.Permissions)
	if err != nil {
		return err
	}
	err = r.q.QueryRow(ctx, `
		INSERT INTO roles (id, name, max_users, permissions, created_at, updated_at)
		VALUES ($1, $2, $3, $4, now(), now())
		RETURNING created_at, updated_at`, role.ID, role.Name, role.MaxUsers, perms).
		Scan(&role.CreatedAt, &role.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrDuplicate
		}
		return storeErr("insert role", err)
	}
	return nil
}

// GetByID devuelve (nil, nil) si no existe.
func (r *RoleRepo) GetByID(ctx context.Context, id string) (*entity.Role, error) {
	return r.getOne(ctx, `SELECT `+roleColumns+` FROM roles WHERE id = $1`, id)
}

// GetByName sin distinguir mayúsculas.
func (r *RoleRepo) GetByName(ctx context.Context, name string) (*entity.Role, error) {
	return r.getOne(ctx, `SELECT `+roleColumns+` FROM roles WHERE lower(name) = lower(btrim($1))`, name)
}

func (r *RoleRepo) getOne(ctx context.Context, query string, arg string) (*entity.Role, error) {
	role, err := scanRole(r.q.QueryRow(ctx, query, arg))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, storeErr("get role", err)
	}
	return role, nil
}

// List roles ordenados por nombre.
func (r *RoleRepo) List(ctx context.Context) ([]*entity.Role, error) {
	rows, err := r.q.Query(ctx, `SELECT `+roleColumns+` FROM roles ORDER BY lower(name), id`)
	if err != nil {
		return nil, storeErr("list roles", err)
	}
	defer rows.Close()
	list := make([]*entity.Role, 0)
	for rows.Next() {
		role, err := scanRole(rows)
		if err != nil {
			return nil, storeErr("scan role", err)
		}
		list = append(list, role)
	}
	if err := rows.Err(); err != nil {
		return nil, storeErr("iterar roles", err)
	}
	return list, nil
}

// Update reemplaza nombre, cupo y permisos.
func (r *RoleRepo) Update(ctx context.Context, role *entity.Role) error {
	perms, err := encodePermissions(role.Permissions)
	if err != nil {
		return err
	}
	err = r.q.QueryRow(ctx, `
		UPDATE roles SET name = $2, max_users = $3, permissions = $4, updated_at = now()
		WHERE id = $1
		RETURNING created_at, updated_at`, role.ID, role.Name, role.MaxUsers, perms).
		Scan(&role.CreatedAt, &role.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.ErrNotFound
	}
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrDuplicate
		}
		return storeErr("update role", err)
	}
	return nil
}

// Delete falla con ErrConflict si algún usuario tiene el rol. Bloquea la fila del rol para
// que un alta concurrente de usuario no quede huérfana.
func (r *RoleRepo) Delete(ctx context.Context, id string) error {
	return r.tx.Run(ctx, func(q Querier) error {
		var locked string
		err := q.QueryRow(ctx, `SELECT id FROM roles WHERE id = $1 FOR UPDATE`, id).Scan(&locked)
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.ErrNotFound
		}
		if err != nil {
			return storeErr("lock role", err)
		}
		var n int
		if err := q.QueryRow(ctx, `SELECT count(*) FROM users WHERE role_id = $1`, id).Scan(&n); err != nil {
			return storeErr("contar usuarios del rol", err)
		}
		if n > 0 {
			return fmt.Errorf("%w: %d usuarios tienen este rol", domain.ErrConflict, n)
		}
		if _, err := q.Exec(ctx, `DELETE FROM roles WHERE id = $1`, id); err != nil {
			return storeErr("delete role", err)
		}
		return nil
	})
}

// UserCounts cantidad de usuarios por rol.
func (r *RoleRepo) UserCounts(ctx context.Context) (map[string]int, error) {
	rows, err := r.q.Query(ctx, `SELECT role_id, count(*) FROM users GROUP BY role_id`)
	if err != nil {
		return nil, storeErr("user counts", err)
	}
	defer rows.Close()
	out := make(map[string]int)
	for rows.Next() {
		var (
			roleID string
			n      int
		)
		if err := rows.Scan(&roleID, &n); err != nil {
			return nil, storeErr("scan user count", err)
		}
		out[roleID] = n
	}
	if err := rows.Err(); err != nil {
		return nil, storeErr("iterar conteos", err)
	}
	return out, nil
}
