package hub

import (
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/prithvirajx-max/Driftyy-sub001/internal/event"
	"github.com/prithvirajx-max/Driftyy-sub001/internal/model"
)

// drain empties a client's egress buffer so a test can assert only on the
// events produced after a known point.
func drain(c *Client) {
	for {
		select {
		case <-c.egress:
		default:
			return
		}
	}
}

func expectError(t *testing.T, c *Client, code string) {
	t.Helper()
	ev := mustRecv(t, c, time.Second)
	if ev.Event != event.EventError {
		t.Fatalf("expected error event, got %q", ev.Event)
	}
	var p event.ErrorPayload
	decodePayload(t, ev, &p)
	if p.Code != code {
		t.Errorf("error code = %q, want %q", p.Code, code)
	}
}

func TestHub_RegisterBroadcastsOnline(t *testing.T) {
	h := newTestHub(&fakeGroupStore{}, &fakeMessageStore{})
	defer h.Stop()

	alice := newTestClient("alice")
	h.addClient(alice)

	bob := newTestClient("bob")
	h.addClient(bob)

	ev := mustRecv(t, alice, time.Second)
	if ev.Event != event.EventUserOnline {
		t.Fatalf("alice received %q, want user_online", ev.Event)
	}
	var p event.UserOnlinePayload
	decodePayload(t, ev, &p)
	if p.UserID != "bob" || !p.IsOnline {
		t.Errorf("broadcast = {%s %v}, want {bob true}", p.UserID, p.IsOnline)
	}

	// The joining channel never sees its own transition.
	expectNone(t, bob, 200*time.Millisecond)
}

func TestHub_DisconnectBroadcastsOfflineAndClearsTyping(t *testing.T) {
	h := newTestHub(&fakeGroupStore{}, &fakeMessageStore{})
	defer h.Stop()

	alice := newTestClient("alice")
	bob := newTestClient("bob")
	h.addClient(alice)
	h.addClient(bob)
	drain(alice)

	h.typing.StartTyping("alice", "bob")
	drain(bob)

	h.removeClient(alice)

	if h.registry.IsOnline("alice") {
		t.Error("alice should be offline after disconnect")
	}
	if !alice.IsClosed() {
		t.Error("disconnected channel should be closed")
	}

	// bob sees the typing indicator clear and the offline transition.
	sawTypingStop := false
	sawOffline := false
	for i := 0; i < 2; i++ {
		ev := mustRecv(t, bob, time.Second)
		switch ev.Event {
		case event.EventTypingStatus:
			var p event.TypingStatusPayload
			decodePayload(t, ev, &p)
			if p.UserID == "alice" && !p.IsTyping {
				sawTypingStop = true
			}
		case event.EventUserOnline:
			var p event.UserOnlinePayload
			decodePayload(t, ev, &p)
			if p.UserID == "alice" && !p.IsOnline {
				sawOffline = true
			}
		}
	}
	if !sawTypingStop {
		t.Error("expected the typing indicator to clear on disconnect")
	}
	if !sawOffline {
		t.Error("expected an offline broadcast on disconnect")
	}
	if h.typing.ActiveCount() != 0 {
		t.Errorf("expected typing entries cleared, got %d", h.typing.ActiveCount())
	}
}

func TestHub_ReconnectReplacesAndStaleDisconnectIsSilent(t *testing.T) {
	h := newTestHub(&fakeGroupStore{}, &fakeMessageStore{})
	defer h.Stop()

	old := newTestClient("alice")
	h.addClient(old)

	observer := newTestClient("bob")
	h.addClient(observer)
	drain(observer)

	replacement := newTestClient("alice")
	h.addClient(replacement)

	if !old.IsClosed() {
		t.Error("the displaced channel should be closed")
	}
	if got, _ := h.registry.Get("alice"); got != replacement {
		t.Fatal("registry should hold the replacement channel")
	}
	drain(observer)

	// The old channel's disconnect arrives after the replacement registered.
	// No offline broadcast: the user never left.
	h.removeClient(old)

	if !h.registry.IsOnline("alice") {
		t.Error("alice must stay online after a stale disconnect")
	}
	expectNone(t, observer, 300*time.Millisecond)
}

func TestHub_ClosedChannelNeverRegisters(t *testing.T) {
	h := newTestHub(&fakeGroupStore{}, &fakeMessageStore{})
	defer h.Stop()

	c := newTestClient("alice")
	c.Close()
	h.addClient(c)

	if h.registry.IsOnline("alice") {
		t.Error("a channel that closed before registration must not appear online")
	}
}

func TestHub_PrivateMessageFlow(t *testing.T) {
	messages := &fakeMessageStore{}
	h := newTestHub(&fakeGroupStore{}, messages)
	defer h.Stop()

	alice := newTestClient("alice")
	bob := newTestClient("bob")
	h.addClient(alice)
	h.addClient(bob)
	drain(alice)
	drain(bob)

	h.handleEvent(event.New(event.EventSendMessage, event.SendMessagePayload{
		MessageID:   "m1",
		ChatType:    event.ChatTypePrivate,
		RecipientID: "bob",
		Body:        "hey",
	}), alice)

	got := mustRecv(t, bob, time.Second)
	if got.Event != event.EventNewMessage {
		t.Fatalf("bob received %q, want new_message", got.Event)
	}
	var msg event.NewMessagePayload
	decodePayload(t, got, &msg)
	if msg.MessageID != "m1" || msg.SenderID != "alice" || msg.Body != "hey" {
		t.Errorf("message = %+v", msg)
	}
	if msg.SenderName == "" {
		t.Error("fanned-out message should carry the sender display snapshot")
	}

	receipt := mustRecv(t, alice, time.Second)
	if receipt.Event != event.EventMessageDelivered {
		t.Fatalf("alice received %q, want message_delivered", receipt.Event)
	}
	if !messages.wasDelivered("m1") {
		t.Error("expected the stored delivered flag to be set")
	}
}

func TestHub_PrivateMessageToOfflineRecipient(t *testing.T) {
	messages := &fakeMessageStore{}
	h := newTestHub(&fakeGroupStore{}, messages)
	defer h.Stop()

	alice := newTestClient("alice")
	h.addClient(alice)

	h.handleEvent(event.New(event.EventSendMessage, event.SendMessagePayload{
		MessageID:   "m1",
		ChatType:    event.ChatTypePrivate,
		RecipientID: "bob",
	}), alice)

	// No receipt and no stored flag until bob acks after reconnect.
	expectNone(t, alice, 300*time.Millisecond)
	if messages.wasDelivered("m1") {
		t.Error("delivered flag must stay unset for an offline recipient")
	}

	bob := newTestClient("bob")
	h.addClient(bob)
	drain(alice)

	h.handleEvent(event.New(event.EventMessageDelivered, event.DeliveredPayload{
		MessageID: "m1",
		SenderID:  "alice",
	}), bob)

	receipt := mustRecv(t, alice, time.Second)
	if receipt.Event != event.EventMessageDelivered {
		t.Fatalf("alice received %q, want message_delivered", receipt.Event)
	}
	if !messages.wasDelivered("m1") {
		t.Error("expected the stored delivered flag to be set after the ack")
	}
}

func TestHub_GroupMessageFlow(t *testing.T) {
	groups := &fakeGroupStore{groups: map[string]*model.Group{
		"g1": groupOf("g1", "alice", "bob", "carol", "dave"),
	}}
	h := newTestHub(groups, &fakeMessageStore{})
	defer h.Stop()

	alice := newTestClient("alice")
	bob := newTestClient("bob")
	carol := newTestClient("carol")
	for _, c := range []*Client{alice, bob, carol} {
		h.addClient(c)
	}
	drain(alice)
	drain(bob)
	drain(carol)

	h.handleEvent(event.New(event.EventSendMessage, event.SendMessagePayload{
		MessageID: "m1",
		ChatType:  event.ChatTypeGroup,
		GroupID:   "g1",
		Body:      "hello group",
	}), alice)

	for _, member := range []*Client{bob, carol} {
		got := mustRecv(t, member, time.Second)
		if got.Event != event.EventNewGroupMessage {
			t.Fatalf("%s received %q, want new_group_message", member.userID, got.Event)
		}
	}

	ack := mustRecv(t, alice, time.Second)
	if ack.Event != event.EventGroupMessageDelivered {
		t.Fatalf("alice received %q, want group_message_delivered", ack.Event)
	}
	var p event.GroupDeliveryReceiptPayload
	decodePayload(t, ack, &p)
	if p.MessageID != "m1" || p.GroupID != "g1" {
		t.Errorf("ack = %+v", p)
	}
	if len(p.DeliveredTo) != 2 {
		t.Errorf("deliveredTo = %v, want the two online members", p.DeliveredTo)
	}
	for _, id := range p.DeliveredTo {
		if id == "alice" || id == "dave" {
			t.Errorf("deliveredTo must exclude the sender and offline members, got %v", p.DeliveredTo)
		}
	}
}

func TestHub_GroupMessageErrors(t *testing.T) {
	groups := &fakeGroupStore{groups: map[string]*model.Group{
		"g1": groupOf("g1", "bob", "carol"),
	}}
	h := newTestHub(groups, &fakeMessageStore{})
	defer h.Stop()

	alice := newTestClient("alice")
	h.addClient(alice)

	h.handleEvent(event.New(event.EventSendMessage, event.SendMessagePayload{
		MessageID: "m1",
		ChatType:  event.ChatTypeGroup,
		GroupID:   "missing",
	}), alice)
	expectError(t, alice, "group_not_found")

	h.handleEvent(event.New(event.EventSendMessage, event.SendMessagePayload{
		MessageID: "m2",
		ChatType:  event.ChatTypeGroup,
		GroupID:   "g1",
	}), alice)
	expectError(t, alice, "not_a_member")

	groups.err = errors.New("mongo down")
	h.handleEvent(event.New(event.EventSendMessage, event.SendMessagePayload{
		MessageID: "m3",
		ChatType:  event.ChatTypeGroup,
		GroupID:   "g1",
	}), alice)
	expectError(t, alice, "storage_unavailable")
}

func TestHub_SendMessageValidation(t *testing.T) {
	h := newTestHub(&fakeGroupStore{}, &fakeMessageStore{})
	defer h.Stop()

	alice := newTestClient("alice")
	h.addClient(alice)

	h.handleEvent(event.New(event.EventSendMessage, event.SendMessagePayload{
		ChatType:    event.ChatTypePrivate,
		RecipientID: "bob",
	}), alice)
	expectError(t, alice, "invalid_payload")

	h.handleEvent(event.New(event.EventSendMessage, event.SendMessagePayload{
		MessageID: "m1",
		ChatType:  event.ChatTypePrivate,
	}), alice)
	expectError(t, alice, "invalid_payload")

	h.handleEvent(event.New(event.EventSendMessage, event.SendMessagePayload{
		MessageID: "m1",
		ChatType:  "carrier-pigeon",
	}), alice)
	expectError(t, alice, "invalid_payload")
}

func TestHub_MalformedPayloadRejectedAtBoundary(t *testing.T) {
	h := newTestHub(&fakeGroupStore{}, &fakeMessageStore{})
	defer h.Stop()

	alice := newTestClient("alice")
	bob := newTestClient("bob")
	h.addClient(alice)
	h.addClient(bob)
	drain(alice)

	h.handleEvent(event.WsEvent{
		Event:   event.EventTyping,
		Payload: json.RawMessage(`{"recipientId":`),
	}, alice)

	expectError(t, alice, "invalid_payload")
	// The malformed event affects only the offending channel.
	expectNone(t, bob, 200*time.Millisecond)
	if !h.registry.IsOnline("alice") {
		t.Error("a malformed payload must not disconnect the channel")
	}
}

func TestHub_UnknownEventRejected(t *testing.T) {
	h := newTestHub(&fakeGroupStore{}, &fakeMessageStore{})
	defer h.Stop()

	alice := newTestClient("alice")
	h.addClient(alice)

	h.handleEvent(event.WsEvent{Event: "teleport", Payload: json.RawMessage(`{}`)}, alice)
	expectError(t, alice, "unknown_event")
}

func TestHub_TypingEventRouting(t *testing.T) {
	h := newTestHub(&fakeGroupStore{}, &fakeMessageStore{})
	defer h.Stop()

	alice := newTestClient("alice")
	bob := newTestClient("bob")
	h.addClient(alice)
	h.addClient(bob)
	drain(alice)
	drain(bob)

	h.handleEvent(event.New(event.EventTyping, event.TypingPayload{
		RecipientID: "bob",
		IsTyping:    true,
	}), alice)
	expectTypingStatus(t, bob, time.Second, "alice", true)

	h.handleEvent(event.New(event.EventTyping, event.TypingPayload{
		RecipientID: "bob",
		IsTyping:    false,
	}), alice)
	expectTypingStatus(t, bob, time.Second, "alice", false)

	h.handleEvent(event.New(event.EventTyping, event.TypingPayload{}), alice)
	expectError(t, alice, "invalid_payload")
}

func TestHub_AvailabilityBroadcast(t *testing.T) {
	h := newTestHub(&fakeGroupStore{}, &fakeMessageStore{})
	defer h.Stop()

	alice := newTestClient("alice")
	bob := newTestClient("bob")
	h.addClient(alice)
	h.addClient(bob)
	drain(alice)
	drain(bob)

	h.handleEvent(event.New(event.EventUpdateAvailability, event.AvailabilityPayload{
		IsAvailable: false,
		Reason:      "in a meeting",
		Duration:    "1h",
	}), alice)

	ev := mustRecv(t, bob, time.Second)
	if ev.Event != event.EventAvailabilityUpdate {
		t.Fatalf("bob received %q, want availability_update", ev.Event)
	}
	var p event.AvailabilityUpdatePayload
	decodePayload(t, ev, &p)
	if p.UserID != "alice" || p.IsAvailable || p.Reason != "in a meeting" {
		t.Errorf("availability update = %+v", p)
	}

	// The sender's own channel is excluded from the broadcast.
	expectNone(t, alice, 200*time.Millisecond)

	available, reason, _ := alice.Availability()
	if available || reason != "in a meeting" {
		t.Error("the channel should hold the updated availability snapshot")
	}
}

func TestHub_SameChannelEventsHandledInOrder(t *testing.T) {
	h := newTestHub(&fakeGroupStore{}, &fakeMessageStore{})
	defer h.Stop()

	alice := newTestClient("alice")
	bob := newTestClient("bob")
	h.addClient(alice)
	h.addClient(bob)
	drain(alice)
	drain(bob)

	// Bob has no real connection reading his egress; drain it for the
	// duration of the test so a full buffer cannot stall the worker on
	// SafeSend's timeout and skew what the assertion observes.
	done := make(chan struct{})
	defer close(done)
	go func() {
		for {
			select {
			case <-bob.egress:
			case <-done:
				return
			}
		}
	}()

	queue := h.inboundQueue(alice)
	if h.inboundQueue(alice) != queue {
		t.Fatal("a channel's queue mapping must be stable")
	}

	start := event.New(event.EventTyping, event.TypingPayload{RecipientID: "bob", IsTyping: true})
	stop := event.New(event.EventTyping, event.TypingPayload{RecipientID: "bob", IsTyping: false})

	// Each stop follows its start on the same channel. If a start were ever
	// handled after its stop, it would re-arm a typing entry the stop can no
	// longer cancel.
	for i := 0; i < 300; i++ {
		queue <- inboundEvent{client: alice, event: start}
		queue <- inboundEvent{client: alice, event: stop}
	}

	deadline := time.Now().Add(3 * time.Second)
	for len(queue) > 0 && time.Now().Before(deadline) {
		time.Sleep(10 * time.Millisecond)
	}
	time.Sleep(100 * time.Millisecond)

	if got := h.typing.ActiveCount(); got != 0 {
		t.Fatalf("a start handled after its stop left %d typing entries armed", got)
	}
}

func TestHub_RoomMembership(t *testing.T) {
	h := newTestHub(&fakeGroupStore{}, &fakeMessageStore{})
	defer h.Stop()

	alice := newTestClient("alice")
	h.addClient(alice)

	h.roomsMu.RLock()
	_, inPrivate := h.rooms[privateRoom("alice")][alice.ID]
	h.roomsMu.RUnlock()
	if !inPrivate {
		t.Fatal("registration should place the channel in its private room")
	}

	h.handleEvent(event.New(event.EventJoinRoom, event.RoomPayload{RoomID: "standup"}), alice)
	h.roomsMu.RLock()
	_, joined := h.rooms["standup"][alice.ID]
	h.roomsMu.RUnlock()
	if !joined {
		t.Error("join_room should add the channel to the room")
	}

	h.handleEvent(event.New(event.EventLeaveRoom, event.RoomPayload{RoomID: "standup"}), alice)
	h.roomsMu.RLock()
	_, stillThere := h.rooms["standup"]
	h.roomsMu.RUnlock()
	if stillThere {
		t.Error("an emptied room should be dropped")
	}

	h.removeClient(alice)
	h.roomsMu.RLock()
	_, stillPrivate := h.rooms[privateRoom("alice")]
	h.roomsMu.RUnlock()
	if stillPrivate {
		t.Error("disconnect should clear room membership")
	}
}
