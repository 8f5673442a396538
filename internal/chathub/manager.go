package chathub

import (
	"context"
	"sync"

	"storybook/backend/internal/models"

	"go.uber.org/zap"
)

// Publisher fans an event out to every instance. *Bus implements it.
type Publisher interface {
	Publish(ctx context.Context, userID string, ev models.Event) error
}

// ManagerService is the connection registry: user id -> live channels, plus
// the reverse index channel -> user id. One mutex guards both maps and is
// never held while writing to a connection.
type ManagerService struct {
	mu      sync.Mutex
	clients map[string]map[Client]struct{}
	owners  map[Client]string
	closed  bool

	bus    Publisher
	logger *zap.Logger
}

// NewManagerService Constructor
func NewManagerService(logger *zap.Logger) *ManagerService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ManagerService{
		clients: make(map[string]map[Client]struct{}),
		owners:  make(map[Client]string),
		logger:  logger,
	}
}

// SetPublisher routes Notify through p instead of delivering locally.
func (m *ManagerService) SetPublisher(p Publisher) {
	m.mu.Lock()
	m.bus = p
	m.mu.Unlock()
}

// Register adds c under userID. Registering the same channel again is a
// no-op. After Shutdown the channel is closed instead.
func (m *ManagerService) Register(c Client, userID string) {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		c.Close()
		return
	}
	if _, ok := m.owners[c]; ok {
		m.mu.Unlock()
		return
	}
	set, ok := m.clients[userID]
	if !ok {
		set = make(map[Client]struct{})
		m.clients[userID] = set
	}
	set[c] = struct{}{}
	m.owners[c] = userID
	m.mu.Unlock()

	activeConnections.Inc()
	m.logger.Debug("client registered", zap.String("user_id", userID))
}

// Unregister removes c. Unknown channels are ignored.
func (m *ManagerService) Unregister(c Client) {
	if m.remove(c) {
		m.logger.Debug("client unregistered", zap.String("user_id", c.GetUserID()))
	}
}

func (m *ManagerService) remove(c Client) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	userID, ok := m.owners[c]
	if !ok {
		return false
	}
	delete(m.owners, c)
	if set, ok := m.clients[userID]; ok {
		delete(set, c)
		if len(set) == 0 {
			delete(m.clients, userID)
		}
	}
	activeConnections.Dec()
	return true
}

// Deliver sends ev to every local channel of userID and returns how many
// accepted it. A channel that fails is unregistered and closed; delivery to
// the others continues.
func (m *ManagerService) Deliver(userID string, ev models.Event) int {
	m.mu.Lock()
	targets := make([]Client, 0, len(m.clients[userID]))
	for c := range m.clients[userID] {
		targets = append(targets, c)
	}
	m.mu.Unlock()

	delivered := 0
	for _, c := range targets {
		if err := c.Deliver(ev); err != nil {
			eventsDropped.Inc()
			m.logger.Warn("dropping channel after failed send",
				zap.String("user_id", userID),
				zap.String("event", ev.Type),
				zap.Error(err))
			m.Unregister(c)
			c.Close()
			continue
		}
		eventsDelivered.Inc()
		delivered++
	}
	return delivered
}

// Notify delivers ev to userID on whichever instance holds the user's
// channels. Without a publisher it is a local Deliver. A failed publish
// falls back to local delivery.
func (m *ManagerService) Notify(ctx context.Context, userID string, ev models.Event) {
	m.mu.Lock()
	bus := m.bus
	m.mu.Unlock()

	if bus != nil {
		err := bus.Publish(ctx, userID, ev)
		if err == nil {
			return
		}
		m.logger.Warn("event publish failed, delivering locally",
			zap.String("user_id", userID), zap.Error(err))
	}
	m.Deliver(userID, ev)
}

// IsOnline reports whether userID has a channel on this instance.
func (m *ManagerService) IsOnline(userID string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.clients[userID]) > 0
}

func (m *ManagerService) ConnectionCount(userID string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.clients[userID])
}

// Shutdown closes every channel and rejects later registrations.
func (m *ManagerService) Shutdown() {
	m.mu.Lock()
	m.closed = true
	all := make([]Client, 0, len(m.owners))
	for c := range m.owners {
		all = append(all, c)
	}
	m.clients = make(map[string]map[Client]struct{})
	m.owners = make(map[Client]string)
	m.mu.Unlock()

	for _, c := range all {
		activeConnections.Dec()
		c.Close()
	}
	m.logger.Info("chat hub shut down", zap.Int("closed_channels", len(all)))
}
