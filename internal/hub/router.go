package hub

import (
	"context"
	"errors"
	"fmt"

	"github.com/prithvirajx-max/Driftyy-sub001/internal/event"

	"go.uber.org/zap"
)

var (
	// ErrGroupNotFound means the fanout target group does not exist.
	ErrGroupNotFound = errors.New("group not found")

	// ErrNotAMember means the sender is not in the group's current
	// membership snapshot.
	ErrNotAMember = errors.New("sender is not a group member")
)

// Router resolves fanout targets against the presence registry and pushes
// events to reachable channels. It never queues or retries: durability for
// offline recipients belongs to the storage layer and the push-notification
// collaborator.
type Router struct {
	registry *Registry
	groups   GroupStore
	logger   *zap.Logger
}

func NewRouter(registry *Registry, groups GroupStore, logger *zap.Logger) *Router {
	return &Router{
		registry: registry,
		groups:   groups,
		logger:   logger,
	}
}

// RoutePrivate delivers an event to a single user's channel. Returns whether
// the recipient was reachable; false is a normal outcome, not an error.
func (rt *Router) RoutePrivate(recipientID string, ev event.WsEvent) bool {
	recipient, ok := rt.registry.Get(recipientID)
	if !ok {
		rt.logger.Debug("recipient unreachable", zap.String("recipient", recipientID))
		return false
	}

	if !recipient.SafeSend(ev, sendTimeout) {
		rt.logger.Warn("failed to push event to recipient",
			zap.String("recipient", recipientID),
			zap.String("event", ev.Event),
		)
		return false
	}
	return true
}

// RouteGroup fans an event out to every current member of a group except the
// sender. Membership is re-fetched from storage on every call so delivery
// always reflects current membership. Returns the subset of notified members
// that were online, for the caller to ack back to the sender in one batch.
func (rt *Router) RouteGroup(ctx context.Context, senderID, groupID string, ev event.WsEvent) ([]string, error) {
	group, err := rt.groups.FindGroupByID(ctx, groupID)
	if err != nil {
		return nil, fmt.Errorf("group lookup failed: %w", err)
	}
	if group == nil {
		return nil, ErrGroupNotFound
	}
	if !group.HasMember(senderID) {
		return nil, ErrNotAMember
	}

	deliveredTo := make([]string, 0, len(group.MemberIDs))
	for _, memberID := range group.MemberIDs {
		if memberID == senderID {
			continue
		}
		if rt.RoutePrivate(memberID, ev) {
			deliveredTo = append(deliveredTo, memberID)
		}
	}

	rt.logger.Debug("group fanout complete",
		zap.String("group_id", groupID),
		zap.Int("members", len(group.MemberIDs)),
		zap.Int("delivered", len(deliveredTo)),
	)

	return deliveredTo, nil
}

// Broadcast pushes an event to every registered channel except the one
// identified by exceptChannelID.
func (rt *Router) Broadcast(ev event.WsEvent, exceptChannelID string) {
	for _, c := range rt.registry.Snapshot() {
		if c.ID == exceptChannelID {
			continue
		}
		c.SafeSend(ev, sendTimeout)
	}
}
