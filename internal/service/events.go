package service

// RespondedEvent is emitted when a notification resolves through response
// intake. Exactly one terminal event is ever emitted per notification; the
// compare-and-swap on status suppresses the losing side of a race.
type RespondedEvent struct {
	NotificationID string
	UserID         string
	ResponseTimeMs int64
}

// ExpiredEvent is emitted when the deadline timer wins the terminal
// transition.
type ExpiredEvent struct {
	NotificationID string
	UserID         string
}

// ScoreSink consumes terminal notification events. The engine calls it
// synchronously after the state transition commits; implementations must be
// idempotent against replays of the same notification id.
type ScoreSink interface {
	HandleResponded(event RespondedEvent)
	HandleExpired(event ExpiredEvent)
}
