// Package messaging defines the queue abstraction that carries decision
// events from notification relays to the approval listener.
package messaging

import (
	"context"
	"errors"
)

// Vendor represents the name of a messaging vendor
type Vendor string

const (
	VendorMemory Vendor = "memory"
	VendorRedis  Vendor = "redis"
	VendorFS     Vendor = "fs"
)

// ErrClosed is returned by operations on a closed queue.
var ErrClosed = errors.New("messaging: queue closed")

// Queue represents an abstract message queue for any payload type
type Queue[T any] interface {
	// Publish adds a new message with payload to the queue
	Publish(ctx context.Context, t *T) error

	// Consume blocks until a message is available or ctx is done
	Consume(ctx context.Context) (Message[T], error)
}

// Message represents a message retrieved from a queue
type Message[T any] interface {
	// T returns the payload of this message
	T() *T

	// Ack acknowledges successful processing of this message
	Ack() error

	// Nack indicates failure in processing this message
	Nack(err error) error
}

// ErrAlreadyProcessed is returned when a message is acked or nacked twice.
var ErrAlreadyProcessed = errors.New("messaging: message already processed")
