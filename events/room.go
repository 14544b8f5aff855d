package events

import (
	"encoding/json"

	"github.com/broady/mxapi/mxid"
)

// RoomNameEventContent is the content of an m.room.name state event.
// An empty name is the same as no name.
type RoomNameEventContent struct {
	Name *string `json:"name,omitempty"`
}

// NewRoomNameEventContent returns content for name. An empty name clears it.
func NewRoomNameEventContent(name string) *RoomNameEventContent {
	if name == "" {
		return &RoomNameEventContent{}
	}
	return &RoomNameEventContent{Name: &name}
}

func (*RoomNameEventContent) EventType() string { return TypeRoomName }

func (c *RoomNameEventContent) UnmarshalJSON(data []byte) error {
	type plain RoomNameEventContent
	var p plain
	if err := json.Unmarshal(data, &p); err != nil {
		return err
	}
	if p.Name != nil && *p.Name == "" {
		p.Name = nil
	}
	*c = RoomNameEventContent(p)
	return nil
}

// RedactionEventContent is the content of an m.room.redaction event.
type RedactionEventContent struct {
	// Redacts moved into the content in room version 11.
	Redacts mxid.EventID `json:"redacts,omitempty"`
	Reason  string       `json:"reason,omitempty"`
}

func (*RedactionEventContent) EventType() string { return TypeRoomRedaction }

// RedactionEvent is a complete redaction event as delivered to clients.
type RedactionEvent struct {
	Content RedactionEventContent `json:"content"`
	// Redacts is the top-level copy used by room versions before 11.
	Redacts        mxid.EventID    `json:"redacts,omitempty"`
	EventID        mxid.EventID    `json:"event_id"`
	Sender         mxid.UserID     `json:"sender"`
	OriginServerTS int64           `json:"origin_server_ts"`
	RoomID         mxid.RoomID     `json:"room_id"`
	Type           string          `json:"type"`
	Unsigned       json.RawMessage `json:"unsigned,omitempty"`
}

// RedactedEventID returns the ID of the redacted event from the content or,
// for older room versions, the top-level field.
func (e *RedactionEvent) RedactedEventID() mxid.EventID {
	if e.Content.Redacts != "" {
		return e.Content.Redacts
	}
	return e.Redacts
}
