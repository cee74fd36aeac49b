package events

import (
	"encoding/json"

	"github.com/go-monolith/mono/pkg/helper"
)

// RoomEvent is the wire envelope carried over the event bus for every room
// broadcast. The payload is the exact JSON frame delivered to subscribers;
// the registry on each node fans it out to the local members of Room.
type RoomEvent struct {
	Room    string          `json:"room"`
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
	Origin  string          `json:"origin"` // node that published the event
}

// RoomEventV1 is the typed event definition for room broadcasts.
var RoomEventV1 = helper.EventDefinition[RoomEvent](
	"registry",
	"RoomEvent",
	"v1",
)
