package clientapi

import (
	"encoding/json"
	"net/http"

	"github.com/google/uuid"

	"github.com/broady/mxapi"
	"github.com/broady/mxapi/events"
	"github.com/broady/mxapi/mxid"
)

// NewTransactionID returns a fresh transaction ID for idempotent sends.
func NewTransactionID() string {
	return uuid.NewString()
}

type SendMessageEventRequest struct {
	RoomID    mxid.RoomID `json:"room_id" mxapi:"path"`
	EventType string      `json:"event_type" mxapi:"path"`
	// TxnID makes retries idempotent: the server returns the original event ID.
	TxnID string `json:"txn_id" mxapi:"path"`
	// Content is the event content sent as the request body.
	Content json.RawMessage `mxapi:"newtype_body"`
}

type SendMessageEventResponse struct {
	EventID mxid.EventID `json:"event_id"`
}

var SendMessageEvent = mxapi.MustDefine[SendMessageEventRequest, SendMessageEventResponse](mxapi.Metadata{
	Name:           "send_message_event",
	Description:    "Send a message event to a room.",
	Method:         http.MethodPut,
	Authentication: true,
	History: mxapi.History{
		mxapi.Since("1.0", "/_matrix/client/r0/rooms/{room_id}/send/{event_type}/{txn_id}"),
		mxapi.Since("1.1", "/_matrix/client/v3/rooms/{room_id}/send/{event_type}/{txn_id}"),
	},
})

// NewSendMessageEventRequest encodes content for sending to roomID under a new
// transaction ID.
func NewSendMessageEventRequest(roomID mxid.RoomID, content events.EventContent) (*SendMessageEventRequest, error) {
	body, err := json.Marshal(content)
	if err != nil {
		return nil, err
	}
	return &SendMessageEventRequest{
		RoomID:    roomID,
		EventType: content.EventType(),
		TxnID:     NewTransactionID(),
		Content:   body,
	}, nil
}

type RedactEventRequest struct {
	RoomID  mxid.RoomID  `json:"room_id" mxapi:"path"`
	EventID mxid.EventID `json:"event_id" mxapi:"path"`
	TxnID   string       `json:"txn_id" mxapi:"path"`
	Reason  string       `json:"reason" mxapi:"optional"`
}

type RedactEventResponse struct {
	// EventID is the ID of the redaction event.
	EventID mxid.EventID `json:"event_id"`
}

var RedactEvent = mxapi.MustDefine[RedactEventRequest, RedactEventResponse](mxapi.Metadata{
	Name:           "redact_event",
	Description:    "Redact an event, stripping all information not critical to the event graph.",
	Method:         http.MethodPut,
	Authentication: true,
	History: mxapi.History{
		mxapi.Since("1.0", "/_matrix/client/r0/rooms/{room_id}/redact/{event_id}/{txn_id}"),
		mxapi.Since("1.1", "/_matrix/client/v3/rooms/{room_id}/redact/{event_id}/{txn_id}"),
	},
})

type GetRoomNameRequest struct {
	RoomID mxid.RoomID `json:"room_id" mxapi:"path"`
}

type GetRoomNameResponse struct {
	Content events.RoomNameEventContent `mxapi:"newtype_body"`
}

// GetRoomName reads the m.room.name state event, whose state key is empty.
var GetRoomName = mxapi.MustDefine[GetRoomNameRequest, GetRoomNameResponse](mxapi.Metadata{
	Name:           "get_room_name",
	Description:    "Get the name of a room.",
	Method:         http.MethodGet,
	Authentication: true,
	History: mxapi.History{
		mxapi.Since("1.0", "/_matrix/client/r0/rooms/{room_id}/state/m.room.name/"),
		mxapi.Since("1.1", "/_matrix/client/v3/rooms/{room_id}/state/m.room.name/"),
	},
})
