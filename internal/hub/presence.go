package hub

import "sync"

// Registry is the single source of truth for which users currently hold an
// open channel. At most one entry exists per user; registering over an
// existing entry displaces it, and deregistration is keyed by channel
// identity so a displaced channel's late disconnect can never evict its
// replacement.
type Registry struct {
	mu     sync.RWMutex
	byUser map[string]*Client
}

func NewRegistry() *Registry {
	return &Registry{
		byUser: make(map[string]*Client),
	}
}

// Register inserts or replaces the entry for the client's user and returns
// the displaced client, if any. The caller owns closing the displaced
// channel.
func (r *Registry) Register(c *Client) *Client {
	r.mu.Lock()
	defer r.mu.Unlock()

	prev := r.byUser[c.userID]
	if prev == c {
		return nil
	}
	r.byUser[c.userID] = c
	return prev
}

// Deregister removes the entry for userID only if its channel identity
// matches. The comparison happens here, under the lock, never against a
// value captured earlier: a disconnect for a superseded channel is a no-op
// and returns false.
func (r *Registry) Deregister(userID, channelID string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	current, ok := r.byUser[userID]
	if !ok || current.ID != channelID {
		return false
	}
	delete(r.byUser, userID)
	return true
}

// Get returns the live channel for a user, if one exists.
func (r *Registry) Get(userID string) (*Client, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	c, ok := r.byUser[userID]
	return c, ok
}

// IsOnline reports whether the user has a registered channel.
func (r *Registry) IsOnline(userID string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	_, ok := r.byUser[userID]
	return ok
}

// ListOnline returns the identities of all registered users.
func (r *Registry) ListOnline() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	users := make([]string, 0, len(r.byUser))
	for userID := range r.byUser {
		users = append(users, userID)
	}
	return users
}

// Count returns the number of registered channels.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return len(r.byUser)
}

// Snapshot returns the registered clients at this instant.
func (r *Registry) Snapshot() []*Client {
	r.mu.RLock()
	defer r.mu.RUnlock()

	clients := make([]*Client, 0, len(r.byUser))
	for _, c := range r.byUser {
		clients = append(clients, c)
	}
	return clients
}
