package notification

import "errors"

// EventNotification is the room event type carrying a notification frame.
const EventNotification = "notification"

// CloseNormal is the standard closure code used when an unauthorized
// connection is turned away before joining any room.
const CloseNormal = 1000

// Errors.
var (
	ErrForbidden    = errors.New("identity does not match requested feed")
	ErrEmptyMessage = errors.New("notification message cannot be empty")
	ErrEmptyUser    = errors.New("notification user cannot be empty")
)

// Frame is the JSON frame delivered to notification feed subscribers.
type Frame struct {
	Message string `json:"message"`
}

// RoomName returns the room key for a user's notification feed.
func RoomName(userID string) string {
	return "notification_" + userID
}
