package events

// Kafka topics for downstream analytics consumers.
const (
	TopicTradingEvents = "trading.events"
)

// Event types carried on TopicTradingEvents.
const (
	TypePositionOpened = "position.opened"
	TypePositionClosed = "position.closed"
)
