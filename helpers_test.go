package mxapi

import (
	"context"
	"net/http"

	"github.com/broady/mxapi/mxid"
)

type greetRequest struct {
	RoomID mxid.RoomID `json:"room_id" mxapi:"path"`
	Name   string      `json:"name" validate:"required,min=3"`
	Sender mxid.UserID `json:"sender" mxapi:"optional" validate:"omitempty,mx_user_id"`
}

type greetResponse struct {
	Greeting string `json:"greeting"`
}

var greet = MustDefine[greetRequest, greetResponse](Metadata{
	Name:           "greet",
	Method:         http.MethodPost,
	Authentication: true,
	History: History{
		Since("1.0", "/_test/r0/rooms/{room_id}/greet"),
		Since("1.1", "/_test/v3/rooms/{room_id}/greet"),
	},
})

const greetPath = "/_test/v3/rooms/!room:example.org/greet"

func greetFunc(ctx context.Context, req *greetRequest) (*greetResponse, error) {
	return &greetResponse{Greeting: "hello " + req.Name + " in " + string(req.RoomID)}, nil
}

type pingRequest struct{}

type pingResponse struct {
	Version string `json:"version"`
}

var ping = MustDefine[pingRequest, pingResponse](Metadata{
	Name:   "ping",
	Method: http.MethodGet,
	History: History{
		Since("1.0", "/_test/r0/ping"),
		Since("1.1", "/_test/v3/ping"),
	},
})

// pingFunc reports the version of the history entry that served the call.
func pingFunc(ctx context.Context, _ *pingRequest) (*pingResponse, error) {
	c, _ := FromContext(ctx)
	return &pingResponse{Version: c.Version().String()}, nil
}

type greetingRequest struct {
	RoomID mxid.RoomID `json:"room_id" mxapi:"path"`
}

// greeting shares greet's path with a different method.
var greeting = MustDefine[greetingRequest, greetResponse](Metadata{
	Name:   "greeting",
	Method: http.MethodGet,
	History: History{
		Since("1.1", "/_test/v3/rooms/{room_id}/greet"),
	},
})
