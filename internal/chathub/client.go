package chathub

import (
	"errors"

	"storybook/backend/internal/models"
)

var (
	// ErrClientClosed is returned by Deliver after Close.
	ErrClientClosed = errors.New("chathub: client closed")
	// ErrSendBufferFull is returned by Deliver when the outbound queue is full.
	ErrSendBufferFull = errors.New("chathub: send buffer full")
)

// Client is one live channel of a user. It abstracts the underlying
// transport so the hub can manage connections uniformly.
type Client interface {
	// GetUserID returns the authenticated user behind the channel.
	GetUserID() string

	// Deliver queues ev for the client without blocking. A non-nil error
	// means the event was not queued and the channel should be dropped.
	Deliver(ev models.Event) error

	// Run starts the client's read and write pumps.
	Run()
	// Close stops the pumps and closes the connection. Safe to call twice.
	Close()
}
