// Package model defines the core domain models used throughout the application.
package model

import "time"

// RawMessage is one SMS as delivered by the message source.
type RawMessage struct {
	Timestamp time.Time `json:"timestamp"`
	ID        string    `json:"id,omitempty"` // Source message id, if the source has one
	Sender    string    `json:"sender"`
	Body      string    `json:"body"`
	Read      bool      `json:"read"`
}
