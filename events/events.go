// Package events holds the event content types used by the endpoint
// catalogue, and a registry that maps event types to them.
package events

import (
	"fmt"
	"reflect"
	"slices"

	"github.com/invopop/jsonschema"
	"github.com/samber/lo"
)

// EventContent is the payload of an event of one type.
type EventContent interface {
	EventType() string
}

// Event types with registered content.
const (
	TypeRoomName      = "m.room.name"
	TypeRoomRedaction = "m.room.redaction"
	TypeRoomMessage   = "m.room.message"
)

var registry = map[string]reflect.Type{
	TypeRoomName:      reflect.TypeFor[RoomNameEventContent](),
	TypeRoomRedaction: reflect.TypeFor[RedactionEventContent](),
	TypeRoomMessage:   reflect.TypeFor[FileMessageEventContent](),
}

// New returns a new zero content value for eventType.
func New(eventType string) (EventContent, bool) {
	t, ok := registry[eventType]
	if !ok {
		return nil, false
	}
	return reflect.New(t).Interface().(EventContent), true
}

// Types lists the registered event types in sorted order.
func Types() []string {
	types := lo.Keys(registry)
	slices.Sort(types)
	return types
}

// Schema returns the JSON schema of the content of eventType.
func Schema(eventType string) (*jsonschema.Schema, error) {
	t, ok := registry[eventType]
	if !ok {
		return nil, fmt.Errorf("events: unknown event type %q", eventType)
	}
	r := &jsonschema.Reflector{
		DoNotReference: true,
		ExpandedStruct: true,
	}
	s := r.ReflectFromType(t)
	s.Title = eventType
	return s, nil
}
