package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/jhoicas/Inventario-rooftop/internal/domain"
	"github.com/jhoicas/Inventario-rooftop/internal/domain/entity"
	"github.com/jhoicas/Inventario-rooftop/internal/domain/repository"
)

var _ repository.UserRepository = (*UserRepo)(nil)

const userColumns = `id, email, password_hash, nombre, apellidos, celular, role_id, created_at, updated_at`

func scanUser(row rowScanner) (*entity.User, error) {
	var u entity.User
	err := row.Scan(&u.ID, &u.Email, &u.PasswordHash, &u.Nombre, &u.Apellidos, &u.Celular, &u.RoleID,
		&u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &u, nil
}

// UserRepo implementación del puerto UserRepository sobre PostgreSQL.
type UserRepo struct {
	q  Querier
	tx *TxRunner
}

// NewUserRepository construye el adaptador de persistencia para usuarios.
func NewUserRepository(q Querier, tx *TxRunner) *UserRepo {
	return &UserRepo{q: q, tx: tx}
}

// reserveRoleSlot bloquea la fila del rol y verifica que admita un usuario más. Dos altas
// concurrentes sobre el mismo rol se serializan en el FOR UPDATE.
func reserveRoleSlot(ctx context.Context, q Querier, roleID string) error {
	var maxUsers int
	err := q.QueryRow(ctx, `SELECT max_users FROM roles WHERE id = $1 FOR UPDATE`, roleID).Scan(&maxUsers)
	if errors.Is(err, pgx.ErrNoRows) {
		return fmt.Errorf("rol %s: %w", roleID, domain.ErrNotFound)
	}
	if err != nil {
		return storeErr("lock role", err)
	}
	role := entity.Role{ID: roleID, MaxUsers: maxUsers}
	var current int
	if err := q.QueryRow(ctx, `SELECT count(*) FROM users WHERE role_id = $1`, roleID).Scan(&current); err != nil {
		return storeErr("contar usuarios del rol", err)
	}
	if !role.HasCapacity(current) {
		return domain.ErrRoleFull
	}
	return nil
}

// Create persiste un nuevo usuario verificando el cupo del rol en la misma transacción.
func (r *UserRepo) Create(ctx context.Context, user *entity.User) error {
	if user.ID == "" {
		user.ID = uuid.New().String()
	}
	return r.tx.Run(ctx, func(q Querier) error {
		if err := reserveRoleSlot(ctx, q, user.RoleID); err != nil {
			return err
		}
		err := q.QueryRow(ctx, `
			INSERT INTO users (id, email, password_hash, nombre, apellidos, celular, role_id, created_at, updated_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, now(), now())
			RETURNING created_at, updated_at`,
			user.ID, user.Email, user.PasswordHash, user.Nombre, user.Apellidos, user.Celular, user.RoleID,
		).Scan(&user.CreatedAt, &user.UpdatedAt)
		if err != nil {
			if isUniqueViolation(err) {
				return domain.ErrEmailAlreadyExists
			}
			return storeErr("insert user", err)
		}
		return nil
	})
}

// GetByID obtiene un usuario por ID; (nil, nil) si no existe.
func (r *UserRepo) GetByID(ctx context.Context, id string) (*entity.User, error) {
	return r.getOne(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id)
}

// GetByEmail sin distinguir mayúsculas.
func (r *UserRepo) GetByEmail(ctx context.Context, email string) (*entity.User, error) {
	return r.getOne(ctx, `SELECT `+userColumns+` FROM users WHERE lower(email) = lower(btrim($1)) LIMIT 1`, email)
}

func (r *UserRepo) getOne(ctx context.Context, query, arg string) (*entity.User, error) {
	u, err := scanUser(r.q.QueryRow(ctx, query, arg))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, storeErr("get user", err)
	}
	return u, nil
}

// List usuarios ordenados por nombre y apellidos.
func (r *UserRepo) List(ctx context.Context) ([]*entity.User, error) {
	rows, err := r.q.Query(ctx, `SELECT `+userColumns+` FROM users ORDER BY nombre, apellidos, id`)
	if err != nil {
		return nil, storeErr("list users", err)
	}
	defer rows.Close()
	list := make([]*entity.User, 0)
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, storeErr("scan user", err)
		}
		list = append(list, u)
	}
	if err := rows.Err(); err != nil {
		return nil, storeErr("iterar usuarios", err)
	}
	return list, nil
}

// Update guarda perfil y rol; si el rol cambia, reserva cupo en el nuevo.
func (r *UserRepo) Update(ctx context.Context, user *entity.User) error {
	return r.tx.Run(ctx, func(q Querier) error {
		var currentRole string
		err := q.QueryRow(ctx, `SELECT role_id FROM users WHERE id = $1 FOR UPDATE`, user.ID).Scan(&currentRole)
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.ErrUserNotFound
		}
		if err != nil {
			return storeErr("lock user", err)
		}
		if currentRole != user.RoleID {
			if err := reserveRoleSlot(ctx, q, user.RoleID); err != nil {
				return err
			}
		}
		err = q.QueryRow(ctx, `
			UPDATE users SET nombre = $2, apellidos = $3, celular = $4, role_id = $5, updated_at = now()
			WHERE id = $1
			RETURNING created_at, updated_at`,
			user.ID, user.Nombre, user.Apellidos, user.Celular, user.RoleID,
		).Scan(&user.CreatedAt, &user.UpdatedAt)
		if err != nil {
			return storeErr("update user", err)
		}
		return nil
	})
}

// Delete elimina el usuario.
func (r *UserRepo) Delete(ctx context.Context, id string) error {
	tag, err := r.q.Exec(ctx, `DELETE FROM users WHERE id = $1`, id)
	if err != nil {
		return storeErr("delete user", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrUserNotFound
	}
	return nil
}
