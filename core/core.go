package core

import "github.com/google/uuid"

// NewID generates a new unique identifier for agents, events and triggers.
func NewID() string {
	return uuid.NewString()
}
