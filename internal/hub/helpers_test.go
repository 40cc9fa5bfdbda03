package hub

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/prithvirajx-max/Driftyy-sub001/internal/event"
	"github.com/prithvirajx-max/Driftyy-sub001/internal/model"

	"go.uber.org/zap"
)

// newTestClient builds a channel without an underlying connection. Events
// pushed to it are read straight off the egress buffer.
func newTestClient(userID string) *Client {
	return newClient(&model.User{
		UserID:   userID,
		Username: userID,
		IsActive: true,
	}, nil, nil)
}

// recvEvent waits for the next event pushed to a client.
func recvEvent(t *testing.T, c *Client, timeout time.Duration) (event.WsEvent, bool) {
	t.Helper()
	select {
	case ev, ok := <-c.egress:
		if !ok {
			return event.WsEvent{}, false
		}
		return ev, true
	case <-time.After(timeout):
		return event.WsEvent{}, false
	}
}

// mustRecv fails the test if no event arrives in time.
func mustRecv(t *testing.T, c *Client, timeout time.Duration) event.WsEvent {
	t.Helper()
	ev, ok := recvEvent(t, c, timeout)
	if !ok {
		t.Fatal("expected an event, got none")
	}
	return ev
}

// expectNone fails the test if any event arrives within the window.
func expectNone(t *testing.T, c *Client, window time.Duration) {
	t.Helper()
	if ev, ok := recvEvent(t, c, window); ok {
		t.Fatalf("expected no event, got %q", ev.Event)
	}
}

func decodePayload(t *testing.T, ev event.WsEvent, v interface{}) {
	t.Helper()
	if err := json.Unmarshal(ev.Payload, v); err != nil {
		t.Fatalf("failed to decode %s payload: %v", ev.Event, err)
	}
}

// fakeGroupStore serves membership snapshots from memory.
type fakeGroupStore struct {
	groups map[string]*model.Group
	err    error
}

func (f *fakeGroupStore) FindGroupByID(_ context.Context, id string) (*model.Group, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.groups[id], nil
}

func (f *fakeGroupStore) IsMember(_ context.Context, groupID, userID string) (bool, error) {
	if f.err != nil {
		return false, f.err
	}
	g := f.groups[groupID]
	if g == nil {
		return false, nil
	}
	return g.HasMember(userID), nil
}

func groupOf(id string, memberIDs ...string) *model.Group {
	return &model.Group{
		GroupID:   id,
		MemberIDs: memberIDs,
		IsActive:  true,
	}
}

// fakeMessageStore records flag updates and can inject failures.
type fakeMessageStore struct {
	delivered []string
	read      []string
	err       error
}

func (f *fakeMessageStore) MarkMessageDelivered(_ context.Context, messageID string) error {
	if f.err != nil {
		return f.err
	}
	f.delivered = append(f.delivered, messageID)
	return nil
}

func (f *fakeMessageStore) MarkMessageRead(_ context.Context, messageID string) error {
	if f.err != nil {
		return f.err
	}
	f.read = append(f.read, messageID)
	return nil
}

func (f *fakeMessageStore) wasDelivered(messageID string) bool {
	for _, id := range f.delivered {
		if id == messageID {
			return true
		}
	}
	return false
}

// fakeAuthenticator resolves any ticket to a user of the same name.
type fakeAuthenticator struct{}

func (fakeAuthenticator) Authenticate(_ context.Context, ticket string) (*model.User, error) {
	return &model.User{UserID: ticket, Username: ticket, IsActive: true}, nil
}

func newTestHub(groups GroupStore, messages MessageStore) *Hub {
	return NewHub(fakeAuthenticator{}, groups, messages, nil, zap.NewNop())
}
