package chat

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/example/jobboard-realtime/modules/store"
)

// memUserFinder holds a fixed set of users.
type memUserFinder struct {
	users map[string]*store.User
}

func (f *memUserFinder) FindByID(id string) (*store.User, error) {
	user, ok := f.users[id]
	if !ok {
		return nil, store.ErrUserNotFound
	}
	return user, nil
}

// memMessageStore keeps messages in memory and records calls.
type memMessageStore struct {
	messages  []*store.Message
	createErr error
	markReads []string
}

func (s *memMessageStore) Create(msg *store.Message) error {
	if s.createErr != nil {
		return s.createErr
	}
	s.messages = append(s.messages, msg)
	return nil
}

func (s *memMessageStore) CountUnread(receiverID, senderID string) (int, error) {
	count := 0
	for _, msg := range s.messages {
		if msg.ReceiverID == receiverID && msg.SenderID == senderID && !msg.Read {
			count++
		}
	}
	return count, nil
}

func (s *memMessageStore) MarkRead(receiverID, senderID string) error {
	s.markReads = append(s.markReads, receiverID+"<-"+senderID)
	for _, msg := range s.messages {
		if msg.ReceiverID == receiverID && msg.SenderID == senderID {
			msg.Read = true
		}
	}
	return nil
}

// recordingPublisher captures published room events.
type recordingPublisher struct {
	rooms      []string
	eventTypes []string
	payloads   []any
	publishErr error
}

func (p *recordingPublisher) Publish(_ context.Context, room, eventType string, payload any) error {
	if p.publishErr != nil {
		return p.publishErr
	}
	p.rooms = append(p.rooms, room)
	p.eventTypes = append(p.eventTypes, eventType)
	p.payloads = append(p.payloads, payload)
	return nil
}

func testUsers() *memUserFinder {
	return &memUserFinder{users: map[string]*store.User{
		"alice": {ID: "alice", Email: "alice@example.com",
			Profile: store.Profile{Kind: store.ProfileEmployee, Image: "alice.png"}},
		"bob": {ID: "bob", Email: "bob@example.com",
			Profile: store.Profile{Kind: store.ProfileCompany, Image: "bob-logo.png"}},
	}}
}

func TestService_Send(t *testing.T) {
	users := testUsers()
	messages := &memMessageStore{}
	publisher := &recordingPublisher{}
	service := NewService(users, messages, publisher)

	payload, err := service.Send(context.Background(), "alice", "bob", "hello bob")
	if err != nil {
		t.Fatalf("Send() error = %v", err)
	}

	// Exactly one row stored and one event published.
	if len(messages.messages) != 1 {
		t.Fatalf("expected 1 persisted message, got %d", len(messages.messages))
	}
	if len(publisher.rooms) != 1 {
		t.Fatalf("expected 1 published event, got %d", len(publisher.rooms))
	}
	if publisher.rooms[0] != "chat_alice_bob" {
		t.Errorf("expected publish to canonical room, got %q", publisher.rooms[0])
	}
	if publisher.eventTypes[0] != EventChatMessage {
		t.Errorf("expected event type %q, got %q", EventChatMessage, publisher.eventTypes[0])
	}

	if payload.SenderID != "alice" || payload.ReceiverID != "bob" {
		t.Errorf("unexpected participants %q -> %q", payload.SenderID, payload.ReceiverID)
	}
	if payload.IsRead {
		t.Error("expected new message to be unread")
	}
	if payload.SenderProfileImage != "alice.png" || payload.ReceiverProfileImage != "bob-logo.png" {
		t.Errorf("unexpected profile images %q / %q", payload.SenderProfileImage, payload.ReceiverProfileImage)
	}
	if payload.ReceiverUnread != 1 {
		t.Errorf("expected receiver unread count 1, got %d", payload.ReceiverUnread)
	}
}

func TestService_SendIncrementsUnread(t *testing.T) {
	service := NewService(testUsers(), &memMessageStore{}, &recordingPublisher{})

	for want := 1; want <= 3; want++ {
		payload, err := service.Send(context.Background(), "alice", "bob", "ping")
		if err != nil {
			t.Fatalf("Send() error = %v", err)
		}
		if payload.ReceiverUnread != want {
			t.Errorf("expected unread count %d, got %d", want, payload.ReceiverUnread)
		}
	}
}

func TestService_SendValidation(t *testing.T) {
	tests := []struct {
		name       string
		senderID   string
		receiverID string
		text       string
		wantErr    error
	}{
		{"empty text", "alice", "bob", "", ErrEmptyText},
		{"self message", "alice", "alice", "hi me", ErrSelfMessage},
		{"unknown sender", "ghost", "bob", "hi", store.ErrUserNotFound},
		{"unknown receiver", "alice", "ghost", "hi", store.ErrUserNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			messages := &memMessageStore{}
			publisher := &recordingPublisher{}
			service := NewService(testUsers(), messages, publisher)

			_, err := service.Send(context.Background(), tt.senderID, tt.receiverID, tt.text)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("Send() error = %v, want %v", err, tt.wantErr)
			}
			// Rejected sends never persist or publish.
			if len(messages.messages) != 0 {
				t.Errorf("expected no persisted messages, got %d", len(messages.messages))
			}
			if len(publisher.rooms) != 0 {
				t.Errorf("expected no published events, got %d", len(publisher.rooms))
			}
		})
	}
}

func TestService_PublishFailureKeepsMessage(t *testing.T) {
	messages := &memMessageStore{}
	publisher := &recordingPublisher{publishErr: errors.New("bus unavailable")}
	service := NewService(testUsers(), messages, publisher)

	payload, err := service.Send(context.Background(), "alice", "bob", "hello")
	if err == nil {
		t.Fatal("expected publish error")
	}
	if payload == nil {
		t.Fatal("expected payload despite publish failure")
	}
	if len(messages.messages) != 1 {
		t.Errorf("expected message to stay persisted, got %d", len(messages.messages))
	}
}

func TestService_CreateFailureDoesNotPublish(t *testing.T) {
	messages := &memMessageStore{createErr: errors.New("disk full")}
	publisher := &recordingPublisher{}
	service := NewService(testUsers(), messages, publisher)

	if _, err := service.Send(context.Background(), "alice", "bob", "hello"); err == nil {
		t.Fatal("expected error when persistence fails")
	}
	if len(publisher.rooms) != 0 {
		t.Errorf("expected no publish when persistence fails, got %d", len(publisher.rooms))
	}
}

func TestService_OpenConversation(t *testing.T) {
	messages := &memMessageStore{}
	service := NewService(testUsers(), messages, &recordingPublisher{})
	ctx := context.Background()

	if err := service.OpenConversation(ctx, "alice", "bob"); err != nil {
		t.Fatalf("OpenConversation() error = %v", err)
	}
	if len(messages.markReads) != 1 || messages.markReads[0] != "alice<-bob" {
		t.Errorf("expected unread messages from bob to alice marked read, got %v", messages.markReads)
	}

	if err := service.OpenConversation(ctx, "alice", "ghost"); !errors.Is(err, store.ErrUserNotFound) {
		t.Errorf("expected ErrUserNotFound for unknown counterparty, got %v", err)
	}
}

func TestNewMessagePayload_TimeFormats(t *testing.T) {
	created := time.Date(2026, 3, 9, 14, 5, 0, 0, time.UTC)
	msg := &store.Message{
		ID: "m1", SenderID: "alice", ReceiverID: "bob",
		Text: "hi", CreatedAt: created,
	}
	users := testUsers()
	payload := NewMessagePayload(msg, users.users["alice"], users.users["bob"], 2)

	if payload.Time12 != "2:05 PM" {
		t.Errorf("expected 12-hour time %q, got %q", "2:05 PM", payload.Time12)
	}
	if payload.Time24 != "14:05" {
		t.Errorf("expected 24-hour time %q, got %q", "14:05", payload.Time24)
	}

	data, err := json.Marshal(payload)
	if err != nil {
		t.Fatalf("failed to marshal payload: %v", err)
	}
	var decoded map[string]any
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("failed to decode payload: %v", err)
	}
	for _, key := range []string{"id", "sender_id", "receiver_id", "is_read", "time12", "time24", "receiver_unread"} {
		if _, ok := decoded[key]; !ok {
			t.Errorf("expected payload field %q", key)
		}
	}
}
