package hub

import (
	"context"
	"time"

	"github.com/prithvirajx-max/Driftyy-sub001/internal/event"

	"go.uber.org/zap"
)

// DeliveryTracker flips delivered/read flags on persisted messages and
// pushes the matching receipts back to senders. Storage failures are logged
// and surfaced as degraded; the real-time receipt is pushed regardless,
// because chat liveness wins over strict consistency with the stored flag.
type DeliveryTracker struct {
	registry *Registry
	typing   *TypingTracker
	messages MessageStore
	logger   *zap.Logger
}

func NewDeliveryTracker(registry *Registry, typing *TypingTracker, messages MessageStore, logger *zap.Logger) *DeliveryTracker {
	return &DeliveryTracker{
		registry: registry,
		typing:   typing,
		messages: messages,
		logger:   logger,
	}
}

// OnMessageSent runs after a private message was fanned out. If the
// recipient is online at send time the message counts as delivered right
// away: the stored flag is set, a receipt goes back to the sender, and any
// typing state for the sender→recipient pair ends. An offline recipient
// leaves delivery pending; a later OnDeliveryAck performs the transition.
func (d *DeliveryTracker) OnMessageSent(ctx context.Context, sender *Client, p event.SendMessagePayload) {
	if !d.registry.IsOnline(p.RecipientID) {
		d.logger.Debug("recipient offline, delivery pending",
			zap.String("message_id", p.MessageID),
			zap.String("recipient", p.RecipientID),
		)
		return
	}

	if err := d.messages.MarkMessageDelivered(ctx, p.MessageID); err != nil {
		d.logger.Warn("storage unavailable while marking delivered, receipt still sent",
			zap.String("message_id", p.MessageID),
			zap.Error(err),
		)
	}

	sender.SafeSend(event.New(event.EventMessageDelivered, event.DeliveryReceiptPayload{
		MessageID:   p.MessageID,
		DeliveredTo: p.RecipientID,
		DeliveredAt: time.Now().UnixMilli(),
	}), sendTimeout)

	d.typing.MessageSent(sender.userID, p.RecipientID)
}

// OnDeliveryAck handles a client-reported delivery ack, fired on
// reconnect/catch-up for messages the reporter received while offline. The
// stored flag becomes true and the original sender gets its receipt if
// reachable.
func (d *DeliveryTracker) OnDeliveryAck(ctx context.Context, reporter *Client, p event.DeliveredPayload) {
	if err := d.messages.MarkMessageDelivered(ctx, p.MessageID); err != nil {
		d.logger.Warn("storage unavailable while acking delivery, receipt still sent",
			zap.String("message_id", p.MessageID),
			zap.Error(err),
		)
	}

	sender, ok := d.registry.Get(p.SenderID)
	if !ok {
		return
	}
	sender.SafeSend(event.New(event.EventMessageDelivered, event.DeliveryReceiptPayload{
		MessageID:   p.MessageID,
		DeliveredTo: reporter.userID,
		DeliveredAt: time.Now().UnixMilli(),
	}), sendTimeout)
}

// OnMessageRead pushes a read receipt to the message sender if reachable.
// The stored read flag is owned by the REST layer on this path; this signal
// only carries the receipt fanout.
func (d *DeliveryTracker) OnMessageRead(ctx context.Context, reader *Client, p event.ReadPayload) {
	sender, ok := d.registry.Get(p.SenderID)
	if !ok {
		d.logger.Debug("read receipt dropped, sender unreachable",
			zap.String("message_id", p.MessageID),
			zap.String("sender", p.SenderID),
		)
		return
	}
	sender.SafeSend(event.New(event.EventMessageRead, event.ReadReceiptPayload{
		MessageID: p.MessageID,
		ReadBy:    reader.userID,
		ReadAt:    time.Now().UnixMilli(),
	}), sendTimeout)
}
