package chat

import (
	"errors"
	"unicode/utf8"

	"github.com/example/jobboard-realtime/modules/store"
)

// MaxTextLength bounds a single chat message.
const MaxTextLength = 5000

// EventChatMessage is the room event type carrying a chat message payload.
const EventChatMessage = "chat_message"

// Close codes used by chat sessions. 4003 and 4404 are application codes in
// the private range; 1011 is the standard internal-error closure.
const (
	CloseForbidden     = 4003
	CloseNotFound      = 4404
	CloseInternalError = 1011
)

// Validation and protocol errors.
var (
	ErrEmptyText       = errors.New("message text cannot be empty")
	ErrTextTooLong     = errors.New("message text exceeds maximum length")
	ErrTextInvalid     = errors.New("message text contains invalid characters")
	ErrSelfMessage     = errors.New("cannot send a message to yourself")
	ErrUnauthenticated = errors.New("connection is not authenticated")
)

// InboundFrame is the only frame a chat client sends.
type InboundFrame struct {
	Text string `json:"text"`
}

// ErrorFrame is sent in-band for recoverable failures; the connection stays
// open so the client can retry with a corrected message.
type ErrorFrame struct {
	Error string `json:"error"`
}

// MessagePayload is the broadcast frame every subscriber of the conversation
// room receives after a message is persisted.
type MessagePayload struct {
	ID                   string `json:"id"`
	SenderID             string `json:"sender_id"`
	SenderProfileImage   string `json:"sender_profile_image"`
	ReceiverID           string `json:"receiver_id"`
	ReceiverProfileImage string `json:"receiver_profile_image"`
	Text                 string `json:"text"`
	IsRead               bool   `json:"is_read"`
	Time12               string `json:"time12"`
	Time24               string `json:"time24"`
	ReceiverUnread       int    `json:"receiver_unread"`
}

// RoomName returns the canonical room key for a conversation. The key is
// order-independent: both participants compute the same name regardless of
// which side they are on, so a published message reaches whoever is
// connected.
func RoomName(userA, userB string) string {
	lo, hi := userA, userB
	if hi < lo {
		lo, hi = hi, lo
	}
	return "chat_" + lo + "_" + hi
}

// ValidateText validates inbound message text.
func ValidateText(text string) error {
	if text == "" {
		return ErrEmptyText
	}
	if len(text) > MaxTextLength {
		return ErrTextTooLong
	}
	if !utf8.ValidString(text) {
		return ErrTextInvalid
	}
	return nil
}

// NewMessagePayload builds the broadcast payload for a persisted message.
func NewMessagePayload(msg *store.Message, sender, receiver *store.User, receiverUnread int) *MessagePayload {
	return &MessagePayload{
		ID:                   msg.ID,
		SenderID:             msg.SenderID,
		SenderProfileImage:   sender.Profile.Image,
		ReceiverID:           msg.ReceiverID,
		ReceiverProfileImage: receiver.Profile.Image,
		Text:                 msg.Text,
		IsRead:               msg.Read,
		Time12:               msg.CreatedAt.Format("3:04 PM"),
		Time24:               msg.CreatedAt.Format("15:04"),
		ReceiverUnread:       receiverUnread,
	}
}
