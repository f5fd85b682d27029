package port

type EventPublisher interface {
	// Publish hands an event to every subscriber without waiting for them.
	Publish(event string, payload any)
}
