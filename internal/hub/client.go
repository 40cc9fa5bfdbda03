package hub

import (
	"context"
	"net"
	"sync"
	"sync/atomic"
	"time"

	"github.com/prithvirajx-max/Driftyy-sub001/internal/event"
	"github.com/prithvirajx-max/Driftyy-sub001/internal/model"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

// Channel lifecycle states. Closed is absorbing: a channel never re-enters
// Registered, a reconnect opens a brand-new channel.
const (
	StateConnecting int32 = iota
	StateAuthenticated
	StateRegistered
	StateClosed
)

var (
	// tuning parameters
	writeWait          = 10 * time.Second       // time allowed to write a message to the peer
	pongWait           = 20 * time.Second       // time allowed to read the next pong message from the peer
	pingInterval       = (pongWait * 9) / 10    // send pings to peer with this period
	maxMessageSize     = 64 * 1024              // max inbound message size (64KB)
	sendBufSize        = 256                    // per-connection outbound buffer size
	workerPoolSize     = 16                     // number of workers to process inbound events
	sendTimeout        = 2 * time.Second        // timeout for enqueuing outbound messages
	inboundQueueSize   = 256                    // per-worker inbound queue size
	registerTimeout    = 5 * time.Second        // timeout for client registration
	unregisterTimeout  = 5 * time.Second        // timeout for client unregistration
	inboundSendTimeout = 500 * time.Millisecond // timeout for sending to inbound channel
)

// Client is one open bidirectional push channel. The user identity and
// display snapshot are captured at open time, after ticket validation.
type Client struct {
	ID          string // channel identity, unique per connection
	userID      string
	displayName string
	avatar      string
	openedAt    time.Time

	conn *websocket.Conn
	hub  *Hub

	egress chan event.WsEvent
	state  atomic.Int32

	// availability set via update_availability, transient per channel
	available bool
	reason    string
	duration  string
	availMu   sync.RWMutex

	// cancel or stop goroutines
	cancel         context.CancelFunc
	ctx            context.Context
	once           sync.Once
	connClosed     chan struct{}
	connClosedOnce sync.Once
}

func newClient(user *model.User, conn *websocket.Conn, h *Hub) *Client {
	ctx, cancel := context.WithCancel(context.Background())

	c := &Client{
		ID:          uuid.New().String(),
		userID:      user.UserID,
		displayName: user.DisplayName(),
		avatar:      user.Avatar,
		openedAt:    time.Now(),
		conn:        conn,
		hub:         h,
		egress:      make(chan event.WsEvent, sendBufSize),
		available:   true,
		cancel:      cancel,
		ctx:         ctx,
		connClosed:  make(chan struct{}),
	}
	c.state.Store(StateAuthenticated)
	return c
}

// State returns the current lifecycle state.
func (c *Client) State() int32 {
	return c.state.Load()
}

// markRegistered moves Authenticated→Registered. Returns false if the
// channel already closed, in which case it must not be treated as online.
func (c *Client) markRegistered() bool {
	return c.state.CompareAndSwap(StateAuthenticated, StateRegistered)
}

func (c *Client) UserID() string { return c.userID }

func (c *Client) ReadMessages() {
	defer func() {
		select {
		case c.hub.unregister <- c:
			// unregistered successfully
		case <-time.After(unregisterTimeout):
			c.hub.logger.Warn("failed to unregister client: timeout", zap.String("channel_id", c.ID))
		}
		c.Close()
	}()

	c.conn.SetReadLimit(int64(maxMessageSize))
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(c.pongHandler)

	// All of this channel's events go to one queue so they are handled in
	// the order received.
	inbound := c.hub.inboundQueue(c)

	for {
		select {
		case <-c.ctx.Done():
			return
		default:
			var ev event.WsEvent

			if err := c.conn.ReadJSON(&ev); err != nil {

				if websocket.IsCloseError(err,
					websocket.CloseNormalClosure,
					websocket.CloseGoingAway,
					websocket.CloseAbnormalClosure,
				) {
					c.hub.logger.Debug("client disconnected", zap.String("channel_id", c.ID))
					return
				}

				if websocket.IsUnexpectedCloseError(err,
					websocket.CloseInternalServerErr,
					websocket.CloseProtocolError,
				) {
					c.hub.logger.Debug("unexpected close",
						zap.String("channel_id", c.ID),
						zap.Error(err),
					)
				}

				if ne, ok := err.(net.Error); ok && ne.Timeout() {
					c.hub.logger.Debug("client timed out, closing connection", zap.String("channel_id", c.ID))
					return
				}

				c.hub.logger.Debug("read error",
					zap.String("channel_id", c.ID),
					zap.Error(err),
				)
				return
			}

			// Non-blocking send into inbound processing queue to avoid blocking reader
			select {
			case inbound <- inboundEvent{client: c, event: ev}:
				// accepted for processing
			case <-time.After(inboundSendTimeout):
				c.hub.logger.Warn("inbound send timeout, dropping client", zap.String("channel_id", c.ID))
				c.cancel()
				c.conn.Close()
			case <-c.ctx.Done():
				return
			}
		}
	}
}

func (c *Client) WriteMessages() {
	ticker := time.NewTicker(pingInterval)

	defer func() {
		ticker.Stop()
		c.Close()
		_ = c.conn.Close()

		c.connClosedOnce.Do(func() {
			close(c.connClosed)
		})
	}()

	for {
		select {
		case <-c.ctx.Done():
			if err := c.conn.WriteMessage(websocket.CloseMessage, nil); err != nil {
				c.hub.logger.Debug("connection closed", zap.Error(err))
			}
			return
		case ev := <-c.egress:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteJSON(ev); err != nil {
				c.hub.logger.Debug("write error",
					zap.String("channel_id", c.ID),
					zap.Error(err),
				)
				return
			}
		case <-ticker.C:
			if err := c.conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait)); err != nil {
				c.hub.logger.Debug("ping error",
					zap.String("channel_id", c.ID),
					zap.Error(err),
				)
				return
			}
		}
	}
}

func (c *Client) pongHandler(string) error {
	return c.conn.SetReadDeadline(time.Now().Add(pongWait))
}

// SafeSend attempts to enqueue an event on the client's egress channel.
// Returns false if the channel is closed or the buffer stays full past the
// timeout; the event is dropped, never queued elsewhere.
func (c *Client) SafeSend(ev event.WsEvent, timeout time.Duration) bool {
	if c.State() == StateClosed {
		return false
	}

	select {
	case <-c.ctx.Done():
		return false
	case c.egress <- ev:
		return true
	case <-time.After(timeout):
		return false
	}
}

func (c *Client) Close() {
	c.once.Do(func() {
		c.state.Store(StateClosed)

		// egress is never closed: concurrent senders race only against the
		// cancelled context, not against a close. Buffered events past this
		// point are simply never drained.
		c.cancel()

		if c.conn == nil {
			return
		}

		// Wait for WriteMessages to close conn, or force close after timeout
		go func() {
			select {
			case <-c.connClosed:
				// WriteMessages closed it properly
			case <-time.After(5 * time.Second):
				_ = c.conn.Close()
			}
		}()
	})
}

// IsClosed returns true if the channel reached its terminal state.
func (c *Client) IsClosed() bool {
	return c.State() == StateClosed
}

// -----------------------------------------------------------------
// Availability
// -----------------------------------------------------------------

// SetAvailability records the channel's availability snapshot.
func (c *Client) SetAvailability(available bool, reason, duration string) {
	c.availMu.Lock()
	defer c.availMu.Unlock()
	c.available = available
	c.reason = reason
	c.duration = duration
}

// Availability returns the current availability snapshot.
func (c *Client) Availability() (bool, string, string) {
	c.availMu.RLock()
	defer c.availMu.RUnlock()
	return c.available, c.reason, c.duration
}
