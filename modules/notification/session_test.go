package notification

import (
	"context"
	"encoding/json"
	"io"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/jobboard-realtime/domain/identity"
	"github.com/example/jobboard-realtime/modules/registry"
	"github.com/example/jobboard-realtime/modules/store"
)

// fakeTransport feeds scripted frames to a session and records writes and
// the close handshake.
type fakeTransport struct {
	id          string
	inbound     chan []byte
	written     [][]byte
	closed      bool
	closeCode   int
	closeReason string
}

func newFakeTransport(id string, frames ...[]byte) *fakeTransport {
	t := &fakeTransport{id: id, inbound: make(chan []byte, len(frames))}
	for _, f := range frames {
		t.inbound <- f
	}
	close(t.inbound)
	return t
}

func (t *fakeTransport) ID() string { return t.id }

func (t *fakeTransport) Write(data []byte) error {
	t.written = append(t.written, data)
	return nil
}

func (t *fakeTransport) Read() ([]byte, error) {
	data, ok := <-t.inbound
	if !ok {
		return nil, io.EOF
	}
	return data, nil
}

func (t *fakeTransport) Close(code int, reason string) error {
	t.closed = true
	t.closeCode = code
	t.closeReason = reason
	return nil
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatal("condition not reached in time")
		}
		time.Sleep(time.Millisecond)
	}
}

func TestSession_RejectsAnonymous(t *testing.T) {
	transport := newFakeTransport("conn-1")
	reg := registry.NewRegistry(nil)
	session := NewSession(transport, reg, nil, "alice")

	err := session.Run(context.Background())
	assert.ErrorIs(t, err, ErrForbidden)
	assert.True(t, transport.closed)
	assert.Equal(t, CloseNormal, transport.closeCode)
	// A rejected connection never appears in any subscriber set.
	assert.Zero(t, reg.ConnCount())
	assert.Empty(t, reg.Rooms())
}

func TestSession_RejectsMismatchedIdentity(t *testing.T) {
	transport := newFakeTransport("conn-1")
	reg := registry.NewRegistry(nil)
	self := &identity.Identity{UserID: "mallory"}
	session := NewSession(transport, reg, self, "alice")

	err := session.Run(context.Background())
	assert.ErrorIs(t, err, ErrForbidden)
	assert.Equal(t, CloseNormal, transport.closeCode)
	assert.Zero(t, reg.ConnCount())
}

func TestSession_JoinsOwnFeed(t *testing.T) {
	// Have the session observe a notification published before it
	// disconnects: feed one dummy inbound frame so the read loop spins once
	// after the join, then publish and let the transport close.
	transport := newFakeTransport("conn-1", []byte("ignored"))
	reg := registry.NewRegistry(nil)
	self := &identity.Identity{UserID: "alice"}
	session := NewSession(transport, reg, self, "alice")

	require.NoError(t, session.Run(context.Background()))

	// Inbound frames on a feed are discarded, never echoed.
	assert.Empty(t, transport.written)
	// The session left the registry clean on disconnect.
	assert.Zero(t, reg.ConnCount())
	assert.Empty(t, reg.Rooms())
}

func TestSession_ReceivesFanOut(t *testing.T) {
	reg := registry.NewRegistry(nil)
	ctx := context.Background()
	self := &identity.Identity{UserID: "alice"}

	// Drive the session manually: register and join happen inside Run, so
	// borrow its wiring by publishing while the read loop is parked on an
	// open inbound channel.
	transport := &fakeTransport{id: "conn-1", inbound: make(chan []byte)}
	session := NewSession(transport, reg, self, "alice")

	done := make(chan error, 1)
	go func() { done <- session.Run(ctx) }()

	// Wait until the session has joined its room.
	waitFor(t, func() bool { return reg.InRoom("conn-1", RoomName("alice")) })

	service := NewService(&memStore{}, reg, Config{})
	_, err := service.Notify(ctx, "alice", store.NotificationJobAlert, "New listing")
	require.NoError(t, err)

	waitFor(t, func() bool { return len(transport.written) == 1 })
	var frame Frame
	require.NoError(t, json.Unmarshal(transport.written[0], &frame))
	assert.Equal(t, "New listing", frame.Message)

	close(transport.inbound)
	require.NoError(t, <-done)
}
