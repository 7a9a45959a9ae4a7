// Package messaging provides abstractions for message broker communication.
// Services publish and consume job messages through these interfaces
// without being coupled to a specific broker implementation.
package messaging

import (
	"context"
	"time"
)

// Message represents a message received from or sent to a message broker.
type Message struct {
	// Subject is the topic the message was published to.
	Subject string

	// Data is the raw message payload.
	Data []byte

	// Metadata contains optional key-value pairs for message headers.
	Metadata map[string]string

	// Timestamp is when the message was received.
	Timestamp time.Time
}

// MessageHandler processes a received message.
// Returning an error marks the delivery as failed.
type MessageHandler func(ctx context.Context, msg *Message) error

// Publisher publishes messages to subjects.
type Publisher interface {
	// PublishMsg sends a Message with headers and waits for the broker to persist it.
	PublishMsg(ctx context.Context, msg *Message) error

	// IsConnected returns true if the client is connected to the broker.
	IsConnected() bool
}
