package dto

import (
	"sort"

	"github.com/jhoicas/Inventario-rooftop/internal/domain/entity"
)

// ItemFromEntity convierte un InventoryItem a su representación HTTP.
func ItemFromEntity(it *entity.InventoryItem) ItemResponse {
	return ItemResponse{
		ID:           it.ID,
		Name:         it.Name,
		Bodega:       it.Bodega,
		Cocina:       it.Cocina,
		Total:        it.Total(),
		Ingreso:      it.Ingreso,
		Salida:       it.Salida,
		StockMin:     it.StockMin,
		StockMax:     it.StockMax,
		LowStock:     it.IsLowStock(),
		Responsable:  it.Responsable,
		Observations: it.Observations,
		LastUpdated:  it.LastUpdated,
		Version:      it.Version,
	}
}

// ItemsFromEntities convierte una lista de ítems.
func ItemsFromEntities(items []*entity.InventoryItem) []ItemResponse {
	out := make([]ItemResponse, 0, len(items))
	for _, it := range items {
		out = append(out, ItemFromEntity(it))
	}
	return out
}

// MovementFromEntity convierte un Movement a su representación HTTP.
func MovementFromEntity(m *entity.Movement) MovementResponse {
	return MovementResponse{
		ID:            m.ID,
		ProductID:     m.ProductID,
		ProductName:   m.ProductName,
		Type:          string(m.Type),
		Quantity:      m.Quantity,
		BeforeBodega:  m.BeforeBodega,
		BeforeCocina:  m.BeforeCocina,
		AfterBodega:   m.AfterBodega,
		AfterCocina:   m.AfterCocina,
		Responsible:   m.Responsible,
		ResponsibleID: m.ResponsibleID,
		Observations:  m.Observations,
		Timestamp:     m.Timestamp,
	}
}

// MovementsFromEntities convierte una lista de movimientos.
func MovementsFromEntities(movs []*entity.Movement) []MovementResponse {
	out := make([]MovementResponse, 0, len(movs))
	for _, m := range movs {
		out = append(out, MovementFromEntity(m))
	}
	return out
}

// StateFromEntity convierte el estado del inventario.
func StateFromEntity(st *entity.InventoryState) InventoryStateResponse {
	return InventoryStateResponse{IsClosed: st.IsClosed, UpdatedAt: st.UpdatedAt, UpdatedBy: st.UpdatedBy}
}

// SnapshotFromEntity convierte un snapshot; los ítems solo se incluyen si withItems.
func SnapshotFromEntity(s *entity.InventorySnapshot, withItems bool) SnapshotResponse {
	out := SnapshotResponse{ID: s.ID, CreatedBy: s.CreatedBy, CreatedAt: s.CreatedAt, ItemCount: len(s.Items)}
	if withItems {
		out.Items = make([]ItemResponse, 0, len(s.Items))
		for i := range s.Items {
			out.Items = append(out.Items, ItemFromEntity(&s.Items[i]))
		}
	}
	return out
}

// RoleFromEntity convierte un rol junto con su cantidad de usuarios.
func RoleFromEntity(r *entity.Role, userCount int) RoleResponse {
	perms := make(map[string]bool, len(entity.AllPermissions))
	for _, p := range entity.AllPermissions {
		perms[string(p)] = r.Permissions[p]
	}
	return RoleResponse{
		ID:          r.ID,
		Name:        r.Name,
		MaxUsers:    r.MaxUsers,
		UserCount:   userCount,
		Permissions: perms,
		CreatedAt:   r.CreatedAt,
		UpdatedAt:   r.UpdatedAt,
	}
}

// UserFromEntity convierte un usuario; el rol es opcional.
func UserFromEntity(u *entity.User, role *entity.Role) UserResponse {
	out := UserResponse{
		ID:        u.ID,
		Email:     u.Email,
		Nombre:    u.Nombre,
		Apellidos: u.Apellidos,
		Celular:   u.Celular,
		RoleID:    u.RoleID,
		CreatedAt: u.CreatedAt,
		UpdatedAt: u.UpdatedAt,
	}
	if role != nil {
		out.RoleName = role.Name
		for p, ok := range role.Permissions {
			if ok {
				out.Permissions = append(out.Permissions, string(p))
			}
		}
		sort.Strings(out.Permissions)
	}
	return out
}
