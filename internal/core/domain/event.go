package domain

// EntityUpdateEvent is a single attribute change of a host entity.
type EntityUpdateEvent struct {
	EntityID  string
	Attribute string
	Payload   string
}
