package model

import "time"

// SessionSnapshot is the cached form of a live session, used to rehydrate it
// after a restart. State carries the same fields a draft would.
type SessionSnapshot struct {
	SessionID string    `json:"sessionId"`
	State     Draft     `json:"state"`
	Status    string    `json:"status,omitempty"`
	LastError string    `json:"lastError,omitempty"`
	UpdatedAt time.Time `json:"updatedAt"`
}
