package domain

// Temas de cambio publicados a los suscriptores en tiempo real. Cada notificación
// implica que el suscriptor debe recibir de nuevo el estado completo del tema.
const (
	TopicItems     = "items"
	TopicMovements = "movements"
	TopicState     = "state"
	TopicRoles     = "roles"
	TopicUsers     = "users"
)

// Topics lista los temas suscribibles.
var Topics = []string{TopicItems, TopicMovements, TopicState, TopicRoles, TopicUsers}
