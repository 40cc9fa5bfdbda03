package hub

import (
	"sync"
	"time"

	"github.com/prithvirajx-max/Driftyy-sub001/internal/event"

	"go.uber.org/zap"
)

// typingExpiry bounds a stuck typing indicator without requiring keep-alive
// events from the client.
const typingExpiry = 3 * time.Second

type typingKey struct {
	sender    string
	recipient string
}

// TypingTracker holds the ephemeral per-(sender,recipient) typing state. An
// entry exists exactly while the sender counts as typing; each entry owns
// one expiry timer. A repeated start restarts the timer, it never stacks.
type TypingTracker struct {
	mu      sync.Mutex
	entries map[typingKey]*time.Timer

	registry *Registry
	logger   *zap.Logger
}

func NewTypingTracker(registry *Registry, logger *zap.Logger) *TypingTracker {
	return &TypingTracker{
		entries:  make(map[typingKey]*time.Timer),
		registry: registry,
		logger:   logger,
	}
}

// StartTyping pushes typing=true to the recipient's channel if reachable and
// arms a fresh expiry timer. Any prior timer for the key is stopped
// synchronously before the replacement is armed, so a reordered expiry can
// never fire after a newer start.
func (t *TypingTracker) StartTyping(senderID, recipientID string) {
	key := typingKey{sender: senderID, recipient: recipientID}

	t.mu.Lock()
	if prev, ok := t.entries[key]; ok {
		prev.Stop()
	}
	var timer *time.Timer
	timer = time.AfterFunc(typingExpiry, func() {
		t.expire(key, timer)
	})
	t.entries[key] = timer
	t.mu.Unlock()

	t.push(recipientID, senderID, true)
}

// StopTyping cancels the entry and immediately pushes typing=false.
func (t *TypingTracker) StopTyping(senderID, recipientID string) {
	t.remove(typingKey{sender: senderID, recipient: recipientID})
	t.push(recipientID, senderID, false)
}

// MessageSent is the implicit stop: a message from sender to recipient ends
// the indicator, but only pushes typing=false if one was active.
func (t *TypingTracker) MessageSent(senderID, recipientID string) {
	if t.remove(typingKey{sender: senderID, recipient: recipientID}) {
		t.push(recipientID, senderID, false)
	}
}

// ClearForSender cancels every entry belonging to a disconnecting sender and
// tells each recipient the sender stopped typing.
func (t *TypingTracker) ClearForSender(senderID string) {
	t.mu.Lock()
	recipients := make([]string, 0)
	for key, timer := range t.entries {
		if key.sender != senderID {
			continue
		}
		timer.Stop()
		delete(t.entries, key)
		recipients = append(recipients, key.recipient)
	}
	t.mu.Unlock()

	for _, recipientID := range recipients {
		t.push(recipientID, senderID, false)
	}
}

// ActiveCount returns the number of live typing indicators.
func (t *TypingTracker) ActiveCount() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.entries)
}

// expire runs when a timer fires. The entry is only removed if the firing
// timer is still the current one for its key; a concurrent restart wins.
func (t *TypingTracker) expire(key typingKey, self *time.Timer) {
	t.mu.Lock()
	current, ok := t.entries[key]
	if !ok || current != self {
		t.mu.Unlock()
		return
	}
	delete(t.entries, key)
	t.mu.Unlock()

	t.logger.Debug("typing indicator expired",
		zap.String("sender", key.sender),
		zap.String("recipient", key.recipient),
	)
	t.push(key.recipient, key.sender, false)
}

func (t *TypingTracker) remove(key typingKey) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	timer, ok := t.entries[key]
	if !ok {
		return false
	}
	timer.Stop()
	delete(t.entries, key)
	return true
}

// push delivers a typing_status to the recipient's reachable channel. An
// unreachable recipient is a silent no-op, never queued.
func (t *TypingTracker) push(recipientID, typistID string, isTyping bool) {
	recipient, ok := t.registry.Get(recipientID)
	if !ok {
		return
	}
	recipient.SafeSend(event.New(event.EventTypingStatus, event.TypingStatusPayload{
		UserID:   typistID,
		IsTyping: isTyping,
	}), sendTimeout)
}
