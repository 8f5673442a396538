package chathub_test

import (
	"sync"

	"storybook/backend/internal/chathub"
	"storybook/backend/internal/models"
)

type MockClient struct {
	userID string

	mu       sync.Mutex
	received []models.Event
	failWith error
	closed   int
}

func newMockClient(userID string) *MockClient {
	return &MockClient{userID: userID}
}

// failing returns a client whose Deliver always fails with err.
func failing(userID string, err error) *MockClient {
	return &MockClient{userID: userID, failWith: err}
}

func (c *MockClient) GetUserID() string {
	return c.userID
}

func (c *MockClient) Deliver(ev models.Event) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.failWith != nil {
		return c.failWith
	}
	if c.closed > 0 {
		return chathub.ErrClientClosed
	}
	c.received = append(c.received, ev)
	return nil
}

func (c *MockClient) Run() {
	// Not needed for testing
}

func (c *MockClient) Close() {
	c.mu.Lock()
	c.closed++
	c.mu.Unlock()
}

func (c *MockClient) Events() []models.Event {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]models.Event(nil), c.received...)
}

func (c *MockClient) Closed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed > 0
}
