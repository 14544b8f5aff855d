package testutil_test

import (
	"context"
	"net/http"
	"testing"

	"github.com/broady/mxapi"
	"github.com/broady/mxapi/testutil"
)

type greetRequest struct {
	RoomID string `json:"room_id" mxapi:"path"`
	Name   string `json:"name" validate:"required,min=3"`
}

type greetResponse struct {
	Message string `json:"message"`
}

var greet = mxapi.MustDefine[greetRequest, greetResponse](mxapi.Metadata{
	Name:   "greet",
	Method: http.MethodPost,
	History: mxapi.History{
		mxapi.Since("1.0", "/_test/v1/rooms/{room_id}/greet"),
	},
})

func greetHandler() *mxapi.Handler[greetRequest, greetResponse] {
	return mxapi.NewHandler(greet, func(ctx context.Context, req *greetRequest) (*greetResponse, error) {
		return &greetResponse{Message: "Hello, " + req.Name + " in " + req.RoomID}, nil
	})
}

// TestRequestBuilder demonstrates the fluent API for building requests
func TestRequestBuilder(t *testing.T) {
	w := testutil.NewRequest().
		POST("/_test/v1/rooms/lobby/greet").
		WithJSON(map[string]string{"name": "Alice"}).
		Serve(greetHandler())

	testutil.AssertStatus(t, w, http.StatusOK)
	testutil.AssertJSONResponse(t, w, &greetResponse{Message: "Hello, Alice in lobby"})
}

// TestRequestBuilder_Validation demonstrates validation error handling
func TestRequestBuilder_Validation(t *testing.T) {
	w := testutil.NewRequest().
		POST("/_test/v1/rooms/lobby/greet").
		WithJSON(map[string]string{"name": "Al"}).
		Serve(greetHandler())

	testutil.AssertStatus(t, w, http.StatusBadRequest)
	errResp := testutil.AssertJSONError(t, w, "M_INVALID_PARAM")
	if errResp.Message != "Name: must be at least 3" {
		t.Errorf("unexpected message %q", errResp.Message)
	}
}

func TestRequestBuilder_Unrecognized(t *testing.T) {
	w := testutil.NewRequest().
		POST("/_test/v1/rooms/lobby/wave").
		Serve(greetHandler())

	testutil.AssertStatus(t, w, http.StatusNotFound)
	testutil.AssertJSONError(t, w, "M_UNRECOGNIZED")
}

func TestRequestBuilder_Query(t *testing.T) {
	req, _ := testutil.NewRequest().
		GET("/search").
		WithQuery("term", "a b").
		WithQuery("term", "c").
		WithAccessToken("secret").
		Build()

	if got := req.URL.Query()["term"]; len(got) != 2 || got[0] != "a b" || got[1] != "c" {
		t.Errorf("unexpected query %v", got)
	}
	auth := req.Header.Get("Authorization")
	if auth != "Bearer secret" {
		t.Errorf("unexpected Authorization header %q", auth)
	}
}
