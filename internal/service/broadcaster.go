package service

// Session event types pushed to subscribers
const (
	EventState           = "session.state"
	EventDraftSaved      = "draft.saved"
	EventSubmitStarted   = "submit.started"
	EventSubmitSucceeded = "submit.succeeded"
	EventSubmitFailed    = "submit.failed"
	EventClosed          = "session.closed"
)

// Broadcaster interface for WebSocket broadcasting (avoids import cycle)
type Broadcaster interface {
	BroadcastToSession(sessionID string, msgType string, payload interface{})
	DisconnectSession(sessionID string)
}
