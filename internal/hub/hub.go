package hub

import (
	"context"
	"encoding/json"
	"errors"
	"hash/fnv"
	"net/http"
	"sync"
	"time"

	"github.com/prithvirajx-max/Driftyy-sub001/internal/auth"
	"github.com/prithvirajx-max/Driftyy-sub001/internal/event"
	"github.com/prithvirajx-max/Driftyy-sub001/internal/model"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

// SessionAuthenticator validates the session ticket presented at
// channel-open time and resolves it to a user identity.
type SessionAuthenticator interface {
	Authenticate(ctx context.Context, ticket string) (*model.User, error)
}

type inboundEvent struct {
	event  event.WsEvent
	client *Client
}

// Hub owns the channel lifecycle: it admits authenticated channels into the
// presence registry, dispatches their events to the typing tracker, fanout
// router and delivery tracker, and tears everything down on disconnect.
type Hub struct {
	registry *Registry
	typing   *TypingTracker
	router   *Router
	delivery *DeliveryTracker

	auth     SessionAuthenticator
	groups   GroupStore
	messages MessageStore

	// rooms maps roomID → channelID → client. Every registered channel sits
	// in its user's private room; further rooms come from join_room.
	rooms   map[string]map[string]*Client
	roomsMu sync.RWMutex

	register   chan *Client
	unregister chan *Client

	// inbound is sharded by channel identity, one queue per worker: a
	// client's events are handled in the order received, the pool only
	// interleaves across channels.
	inbound []chan inboundEvent

	upgrader websocket.Upgrader
	logger   *zap.Logger

	wg     sync.WaitGroup
	ctx    context.Context
	cancel context.CancelFunc
}

func NewHub(auth SessionAuthenticator, groups GroupStore, messages MessageStore, allowedOrigins []string, logger *zap.Logger) *Hub {
	ctx, cancel := context.WithCancel(context.Background())

	registry := NewRegistry()
	typing := NewTypingTracker(registry, logger)
	router := NewRouter(registry, groups, logger)

	h := &Hub{
		registry:   registry,
		typing:     typing,
		router:     router,
		delivery:   NewDeliveryTracker(registry, typing, messages, logger),
		auth:       auth,
		groups:     groups,
		messages:   messages,
		rooms:      make(map[string]map[string]*Client),
		register:   make(chan *Client, 1024),
		unregister: make(chan *Client, 1024),
		inbound:    make([]chan inboundEvent, workerPoolSize),
		logger:     logger,
		ctx:        ctx,
		cancel:     cancel,
	}

	h.upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin:     originChecker(allowedOrigins),
	}

	// run manager loop
	go h.run()

	// one worker per inbound queue
	for i := range h.inbound {
		queue := make(chan inboundEvent, inboundQueueSize) // buffer for burst handling
		h.inbound[i] = queue
		h.wg.Add(1)
		go func() {
			defer h.wg.Done()
			for {
				select {
				case <-h.ctx.Done():
					return
				case in, ok := <-queue:
					if !ok {
						return
					}
					h.dispatch(in.event, in.client)
				}
			}
		}()
	}

	return h
}

// inboundQueue returns the queue that handles a channel's events. The
// mapping is fixed for the channel's lifetime.
func (h *Hub) inboundQueue(c *Client) chan inboundEvent {
	f := fnv.New32a()
	f.Write([]byte(c.ID))
	return h.inbound[f.Sum32()%uint32(len(h.inbound))]
}

func (h *Hub) run() {
	for {
		select {
		case <-h.ctx.Done():
			return
		case c := <-h.register:
			h.addClient(c)
		case c := <-h.unregister:
			h.removeClient(c)
		}
	}
}

// addClient admits an authenticated channel: registry entry, private room,
// online broadcast. A channel that closed before reaching the run loop is
// skipped, it can never re-enter Registered.
func (h *Hub) addClient(c *Client) {
	if !c.markRegistered() {
		h.logger.Debug("channel closed before registration", zap.String("channel_id", c.ID))
		return
	}

	displaced := h.registry.Register(c)
	if displaced != nil {
		// Reconnect replaced a stale channel. Its eventual disconnect is a
		// no-op in the registry because deregistration is channel-keyed.
		h.logger.Info("replacing stale channel for user",
			zap.String("user_id", c.userID),
			zap.String("old_channel", displaced.ID),
			zap.String("new_channel", c.ID),
		)
		displaced.Close()
	}

	h.joinRoom(privateRoom(c.userID), c)

	h.router.Broadcast(event.New(event.EventUserOnline, event.UserOnlinePayload{
		UserID:   c.userID,
		IsOnline: true,
	}), c.ID)

	h.logger.Info("channel registered",
		zap.String("user_id", c.userID),
		zap.String("channel_id", c.ID),
	)
}

// removeClient handles a disconnect. Registry eviction, typing cleanup and
// the offline broadcast only happen when the disconnecting channel is still
// the authoritative one for its user; a stale disconnect only leaves rooms.
func (h *Hub) removeClient(c *Client) {
	h.leaveAllRooms(c)

	if h.registry.Deregister(c.userID, c.ID) {
		h.typing.ClearForSender(c.userID)

		h.router.Broadcast(event.New(event.EventUserOnline, event.UserOnlinePayload{
			UserID:   c.userID,
			IsOnline: false,
		}), c.ID)

		h.logger.Info("channel deregistered",
			zap.String("user_id", c.userID),
			zap.String("channel_id", c.ID),
		)
	} else {
		h.logger.Debug("stale disconnect ignored",
			zap.String("user_id", c.userID),
			zap.String("channel_id", c.ID),
		)
	}

	c.Close()
}

// dispatch isolates each event: a panic in one handler never takes down
// other channels' state or the process.
func (h *Hub) dispatch(ev event.WsEvent, c *Client) {
	defer func() {
		if r := recover(); r != nil {
			h.logger.Error("panic in event handler",
				zap.Any("panic", r),
				zap.String("event", ev.Event),
				zap.String("channel_id", c.ID),
			)
		}
	}()
	h.handleEvent(ev, c)
}

func (h *Hub) handleEvent(ev event.WsEvent, c *Client) {
	switch ev.Event {
	case event.EventSendMessage:
		h.handleSendMessage(ev, c)
	case event.EventMessageDelivered:
		var p event.DeliveredPayload
		if !h.decode(ev, &p, c) {
			return
		}
		h.delivery.OnDeliveryAck(h.ctx, c, p)
	case event.EventMessageRead:
		var p event.ReadPayload
		if !h.decode(ev, &p, c) {
			return
		}
		h.delivery.OnMessageRead(h.ctx, c, p)
	case event.EventTyping:
		var p event.TypingPayload
		if !h.decode(ev, &p, c) {
			return
		}
		if p.RecipientID == "" {
			h.sendError(c, "invalid_payload", "recipientId is required")
			return
		}
		if p.IsTyping {
			h.typing.StartTyping(c.userID, p.RecipientID)
		} else {
			h.typing.StopTyping(c.userID, p.RecipientID)
		}
	case event.EventJoinRoom:
		var p event.RoomPayload
		if !h.decode(ev, &p, c) {
			return
		}
		if p.RoomID == "" {
			h.sendError(c, "invalid_payload", "roomId is required")
			return
		}
		h.joinRoom(p.RoomID, c)
	case event.EventLeaveRoom:
		var p event.RoomPayload
		if !h.decode(ev, &p, c) {
			return
		}
		h.leaveRoom(p.RoomID, c)
	case event.EventUpdateAvailability:
		var p event.AvailabilityPayload
		if !h.decode(ev, &p, c) {
			return
		}
		c.SetAvailability(p.IsAvailable, p.Reason, p.Duration)
		h.router.Broadcast(event.New(event.EventAvailabilityUpdate, event.AvailabilityUpdatePayload{
			UserID:      c.userID,
			IsAvailable: p.IsAvailable,
			Reason:      p.Reason,
			Duration:    p.Duration,
		}), c.ID)
	default:
		h.logger.Debug("unknown event type",
			zap.String("event", ev.Event),
			zap.String("channel_id", c.ID),
		)
		h.sendError(c, "unknown_event", "unknown event type: "+ev.Event)
	}
}

func (h *Hub) handleSendMessage(ev event.WsEvent, c *Client) {
	var p event.SendMessagePayload
	if !h.decode(ev, &p, c) {
		return
	}
	if p.MessageID == "" {
		h.sendError(c, "invalid_payload", "messageId is required")
		return
	}

	switch p.ChatType {
	case event.ChatTypePrivate:
		if p.RecipientID == "" {
			h.sendError(c, "invalid_payload", "recipientId is required for private chat")
			return
		}

		h.router.RoutePrivate(p.RecipientID, event.New(event.EventNewMessage, h.outboundMessage(c, p)))
		h.delivery.OnMessageSent(h.ctx, c, p)

	case event.ChatTypeGroup:
		if p.GroupID == "" {
			h.sendError(c, "invalid_payload", "groupId is required for group chat")
			return
		}

		deliveredTo, err := h.router.RouteGroup(h.ctx, c.userID, p.GroupID, event.New(event.EventNewGroupMessage, h.outboundMessage(c, p)))
		if err != nil {
			switch {
			case errors.Is(err, ErrGroupNotFound):
				h.sendError(c, "group_not_found", "group does not exist")
			case errors.Is(err, ErrNotAMember):
				h.sendError(c, "not_a_member", "you are not a member of this group")
			default:
				h.logger.Error("group fanout degraded",
					zap.String("group_id", p.GroupID),
					zap.Error(err),
				)
				h.sendError(c, "storage_unavailable", "group lookup failed")
			}
			return
		}

		// One batched ack: the subset of notified members online at send time.
		c.SafeSend(event.New(event.EventGroupMessageDelivered, event.GroupDeliveryReceiptPayload{
			MessageID:   p.MessageID,
			GroupID:     p.GroupID,
			DeliveredTo: deliveredTo,
			DeliveredAt: time.Now().UnixMilli(),
		}), sendTimeout)

	default:
		h.sendError(c, "invalid_payload", "chatType must be private or group")
	}
}

func (h *Hub) outboundMessage(c *Client, p event.SendMessagePayload) event.NewMessagePayload {
	return event.NewMessagePayload{
		MessageID:    p.MessageID,
		SenderID:     c.userID,
		SenderName:   c.displayName,
		SenderAvatar: c.avatar,
		ChatType:     p.ChatType,
		GroupID:      p.GroupID,
		Body:         p.Body,
		SentAt:       time.Now().UnixMilli(),
	}
}

// decode unmarshals an event payload, rejecting malformed input at the
// boundary with an error event to the offending channel only.
func (h *Hub) decode(ev event.WsEvent, v interface{}, c *Client) bool {
	if err := json.Unmarshal(ev.Payload, v); err != nil {
		h.logger.Debug("malformed payload",
			zap.String("event", ev.Event),
			zap.String("channel_id", c.ID),
			zap.Error(err),
		)
		h.sendError(c, "invalid_payload", "malformed payload for event "+ev.Event)
		return false
	}
	return true
}

func (h *Hub) sendError(c *Client, code, message string) {
	c.SafeSend(event.New(event.EventError, event.ErrorPayload{
		Code:    code,
		Message: message,
	}), sendTimeout)
}

// -----------------------------------------------------------------
// Rooms
// -----------------------------------------------------------------

func privateRoom(userID string) string {
	return "user:" + userID
}

func (h *Hub) joinRoom(roomID string, c *Client) {
	h.roomsMu.Lock()
	defer h.roomsMu.Unlock()

	room, ok := h.rooms[roomID]
	if !ok {
		room = make(map[string]*Client)
		h.rooms[roomID] = room
	}
	room[c.ID] = c
}

func (h *Hub) leaveRoom(roomID string, c *Client) {
	h.roomsMu.Lock()
	defer h.roomsMu.Unlock()

	if room, ok := h.rooms[roomID]; ok {
		delete(room, c.ID)
		if len(room) == 0 {
			delete(h.rooms, roomID)
		}
	}
}

func (h *Hub) leaveAllRooms(c *Client) {
	h.roomsMu.Lock()
	defer h.roomsMu.Unlock()

	for roomID, room := range h.rooms {
		delete(room, c.ID)
		if len(room) == 0 {
			delete(h.rooms, roomID)
		}
	}
}

// -----------------------------------------------------------------
// Channel admission
// -----------------------------------------------------------------

func originChecker(allowed []string) func(*http.Request) bool {
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" {
			return true
		}
		for _, a := range allowed {
			if origin == a {
				return true
			}
		}
		return false
	}
}

// ServeWS upgrades a channel-open request. The session ticket is validated
// exactly once, synchronously, before any registry mutation; an invalid
// ticket closes the channel with an Authentication error reason before any
// event is accepted.
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Debug("websocket upgrade failed", zap.Error(err))
		return
	}

	user, err := h.auth.Authenticate(r.Context(), auth.TicketFromRequest(r))
	if err != nil {
		h.logger.Info("channel refused: authentication failed", zap.Error(err))
		deadline := time.Now().Add(writeWait)
		conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.ClosePolicyViolation, "Authentication error"), deadline)
		conn.Close()
		return
	}

	c := newClient(user, conn, h)

	select {
	case h.register <- c:
		go c.ReadMessages()
		go c.WriteMessages()
	case <-time.After(registerTimeout):
		h.logger.Warn("failed to register channel: timeout", zap.String("channel_id", c.ID))
		c.Close()
		conn.Close()
	}
}

// Stop closes every channel and drains the worker pool.
func (h *Hub) Stop() {
	h.cancel()

	for _, c := range h.registry.Snapshot() {
		c.Close()
	}

	for _, queue := range h.inbound {
		close(queue)
	}
	h.wg.Wait()
}
