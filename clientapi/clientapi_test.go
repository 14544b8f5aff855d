package clientapi

import (
	"encoding/json"
	"net/http"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/broady/mxapi"
	"github.com/broady/mxapi/events"
	"github.com/broady/mxapi/mxid"
)

var (
	v10  = mxapi.MustParseVersion("1.0")
	v11  = mxapi.MustParseVersion("1.1")
	v111 = mxapi.MustParseVersion("1.11")
)

func TestCatalogue(t *testing.T) {
	seen := make(map[string]bool)
	for _, ep := range All() {
		name := ep.Metadata().Name
		assert.False(t, seen[name], "duplicate endpoint name %s", name)
		seen[name] = true

		found, ok := Lookup(name)
		require.True(t, ok, name)
		assert.Equal(t, name, found.Metadata().Name)

		_, err := ep.Resolve(v11)
		assert.NoError(t, err, name)
	}

	_, ok := Lookup("no_such_endpoint")
	assert.False(t, ok)
}

func TestGetContent(t *testing.T) {
	req, err := NewGetContentRequest("mxc://example.org/ascERGshawAWawugaAcauga")
	require.NoError(t, err)

	msg, err := GetContent.OutgoingRequest(req, v11)
	require.NoError(t, err)
	assert.Equal(t, "/_matrix/media/v3/download/example.org/ascERGshawAWawugaAcauga", msg.Path)
	assert.Empty(t, msg.Query)

	msg, err = GetContent.OutgoingRequest(req, v10)
	require.NoError(t, err)
	assert.Equal(t, "/_matrix/media/r0/download/example.org/ascERGshawAWawugaAcauga", msg.Path)

	got, err := GetContent.IncomingRequest(msg)
	require.NoError(t, err)
	if diff := cmp.Diff(req, got); diff != "" {
		t.Errorf("round trip mismatch (-want +got):\n%s", diff)
	}

	assert.False(t, GetContent.IsDeprecated(v11))
	assert.True(t, GetContent.IsDeprecated(v111))

	_, err = NewGetContentRequest("https://example.org/a")
	assert.ErrorIs(t, err, mxid.ErrInvalidID)
}

func TestGetContent_Response(t *testing.T) {
	res := &GetContentResponse{
		File:                      []byte("hello"),
		ContentType:               "text/plain",
		ContentDisposition:        `inline; filename="hello.txt"`,
		CrossOriginResourcePolicy: "cross-origin",
	}
	msg, err := GetContent.OutgoingResponse(res)
	require.NoError(t, err)
	assert.Equal(t, "cross-origin", msg.Header.Get("Cross-Origin-Resource-Policy"))

	got, err := GetContent.IncomingResponse(msg)
	require.NoError(t, err)
	if diff := cmp.Diff(res, got); diff != "" {
		t.Errorf("round trip mismatch (-want +got):\n%s", diff)
	}
}

func TestGetContentAsFilename(t *testing.T) {
	req, err := NewGetContentAsFilenameRequest("mxc://example.org/abc", "my file.png")
	require.NoError(t, err)

	msg, err := GetContentAsFilename.OutgoingRequest(req, v11)
	require.NoError(t, err)
	assert.Equal(t, "/_matrix/media/v3/download/example.org/abc/my%20file.png", msg.Path)

	got, err := GetContentAsFilename.IncomingRequest(msg)
	require.NoError(t, err)
	assert.Equal(t, "my file.png", got.Filename)
}

func TestCreateContent(t *testing.T) {
	msg, err := CreateContent.OutgoingRequest(&CreateContentRequest{
		File:        []byte{1, 2, 3},
		ContentType: "image/png",
		Filename:    "a.png",
	}, v11)
	require.NoError(t, err)
	assert.Equal(t, http.MethodPost, msg.Method)
	assert.Equal(t, "image/png", msg.Header.Get("Content-Type"))
	assert.Equal(t, "filename=a.png", msg.RawQuery())
	assert.Equal(t, []byte{1, 2, 3}, msg.Body)
	assert.True(t, CreateContent.RequiresAuth())
	assert.True(t, CreateContent.RateLimited())

	res, err := CreateContent.IncomingResponse(&mxapi.Message{
		Status: http.StatusOK,
		Body:   []byte(`{"content_uri":"mxc://example.org/abc"}`),
	})
	require.NoError(t, err)
	assert.Equal(t, mxid.MxcURI("mxc://example.org/abc"), res.ContentURI)

	_, err = CreateContent.IncomingResponse(&mxapi.Message{
		Status: http.StatusOK,
		Body:   []byte(`{"content_uri":"https://example.org/abc"}`),
	})
	assert.ErrorIs(t, err, mxapi.ErrFieldDecode)
}

func TestRequestMSISDNToken(t *testing.T) {
	req := &RequestMSISDNTokenRequest{
		ClientSecret: "secret",
		Country:      "GB",
		PhoneNumber:  "07700900001",
		SendAttempt:  1,
		IdentityServerInfo: &IdentityServerInfo{
			IDServer:      "id.example.org",
			IDAccessToken: "token",
		},
	}

	msg, err := RequestMSISDNToken.OutgoingRequest(req, v11)
	require.NoError(t, err)
	assert.JSONEq(t, `{
		"client_secret": "secret",
		"country": "GB",
		"phone_number": "07700900001",
		"send_attempt": 1,
		"id_server": "id.example.org",
		"id_access_token": "token"
	}`, string(msg.Body))

	got, err := RequestMSISDNToken.IncomingRequest(msg)
	require.NoError(t, err)
	if diff := cmp.Diff(req, got); diff != "" {
		t.Errorf("round trip mismatch (-want +got):\n%s", diff)
	}

	req.IdentityServerInfo = nil
	msg, err = RequestMSISDNToken.OutgoingRequest(req, v11)
	require.NoError(t, err)
	got, err = RequestMSISDNToken.IncomingRequest(msg)
	require.NoError(t, err)
	assert.Nil(t, got.IdentityServerInfo)

	desc := RequestMSISDNToken.Describe()
	last := desc.Request[len(desc.Request)-1]
	assert.True(t, last.Deprecated)
	assert.True(t, last.Flatten)
}

func TestRequestMSISDNToken_Validation(t *testing.T) {
	err := mxapi.NewValidator().Struct(&RequestMSISDNTokenRequest{
		ClientSecret: "secret",
		Country:      "Great Britain",
		PhoneNumber:  "07700900001",
	})
	envelope := mxapi.DefaultErrorTransformer(err)
	assert.Equal(t, mxapi.CodeInvalidParam, envelope.Code)
	assert.Equal(t, "Country: must be a two-letter country code", envelope.Message)
}

func TestGetPushRulesGlobalScope(t *testing.T) {
	msg, err := GetPushRulesGlobalScope.OutgoingRequest(nil, v11)
	require.NoError(t, err)
	assert.Equal(t, "/_matrix/client/v3/pushrules/global/", msg.Path)
	assert.Nil(t, msg.Body)

	body := `{
		"override": [{"rule_id": ".m.rule.master", "default": true, "enabled": false, "actions": []}],
		"content": [],
		"room": [],
		"sender": [],
		"underride": [{
			"rule_id": ".m.rule.message",
			"default": true,
			"enabled": true,
			"actions": ["notify", {"set_tweak": "highlight", "value": false}],
			"conditions": [{"kind": "event_match", "key": "type", "pattern": "m.room.message"}]
		}]
	}`
	res, err := GetPushRulesGlobalScope.IncomingResponse(&mxapi.Message{Status: http.StatusOK, Body: []byte(body)})
	require.NoError(t, err)
	require.Len(t, res.Global.Underride, 1)
	rule := res.Global.Underride[0]
	assert.Equal(t, ".m.rule.message", rule.RuleID)
	assert.Len(t, rule.Actions, 2)
	assert.Equal(t, "event_match", rule.Conditions[0].Kind)
	assert.Equal(t, ".m.rule.master", res.Global.Override[0].RuleID)
}

func TestSendMessageEvent(t *testing.T) {
	content := events.NewPlainFile("report.pdf", "mxc://example.org/report", nil)
	req, err := NewSendMessageEventRequest("!room:example.org", content)
	require.NoError(t, err)
	assert.Equal(t, events.TypeRoomMessage, req.EventType)
	assert.NotEmpty(t, req.TxnID)

	msg, err := SendMessageEvent.OutgoingRequest(req, v11)
	require.NoError(t, err)
	assert.Equal(t, http.MethodPut, msg.Method)
	assert.Equal(t, "application/json", msg.Header.Get("Content-Type"))

	got, err := SendMessageEvent.IncomingRequest(msg)
	require.NoError(t, err)
	assert.Equal(t, req.RoomID, got.RoomID)
	assert.Equal(t, req.TxnID, got.TxnID)

	var decoded events.FileMessageEventContent
	require.NoError(t, json.Unmarshal(got.Content, &decoded))
	assert.Equal(t, "report.pdf", decoded.Body)
	assert.Equal(t, mxid.MxcURI("mxc://example.org/report"), decoded.URL)

	other, err := NewSendMessageEventRequest("!room:example.org", content)
	require.NoError(t, err)
	assert.NotEqual(t, req.TxnID, other.TxnID)
}

func TestRedactEvent(t *testing.T) {
	req := &RedactEventRequest{RoomID: "!room:example.org", EventID: "$abc", TxnID: "t1", Reason: "spam"}
	msg, err := RedactEvent.OutgoingRequest(req, v11)
	require.NoError(t, err)
	assert.JSONEq(t, `{"reason":"spam"}`, string(msg.Body))

	got, err := RedactEvent.IncomingRequest(msg)
	require.NoError(t, err)
	assert.Equal(t, req, got)

	msg.Path = "/_matrix/client/v3/rooms/!room:example.org/redact/abc/t1"
	_, err = RedactEvent.IncomingRequest(msg)
	assert.ErrorIs(t, err, mxapi.ErrFieldDecode)
}

func TestGetRoomName(t *testing.T) {
	msg, err := GetRoomName.OutgoingRequest(&GetRoomNameRequest{RoomID: "!room:example.org"}, v11)
	require.NoError(t, err)
	assert.Equal(t, "/_matrix/client/v3/rooms/%21room:example.org/state/m.room.name/", msg.Path)

	res, err := GetRoomName.IncomingResponse(&mxapi.Message{Status: http.StatusOK, Body: []byte(`{"name":"Lobby"}`)})
	require.NoError(t, err)
	require.NotNil(t, res.Content.Name)
	assert.Equal(t, "Lobby", *res.Content.Name)

	res, err = GetRoomName.IncomingResponse(&mxapi.Message{Status: http.StatusOK, Body: []byte(`{"name":""}`)})
	require.NoError(t, err)
	assert.Nil(t, res.Content.Name)

	_, err = GetRoomName.IncomingResponse(&mxapi.Message{
		Status: http.StatusNotFound,
		Body:   []byte(`{"errcode":"M_NOT_FOUND","error":"Event not found."}`),
	})
	var envelope *mxapi.Error
	require.ErrorAs(t, err, &envelope)
	assert.Equal(t, mxapi.CodeNotFound, envelope.Code)
}

func TestGetLocationForProtocol(t *testing.T) {
	req := &GetLocationForProtocolRequest{Protocol: "irc", Fields: map[string]string{"network": "libera", "channel": "#matrix"}}
	msg, err := GetLocationForProtocol.OutgoingRequest(req, v11)
	require.NoError(t, err)
	assert.Equal(t, "channel=%23matrix&network=libera", msg.RawQuery())

	got, err := GetLocationForProtocol.IncomingRequest(msg)
	require.NoError(t, err)
	assert.Equal(t, req, got)

	res, err := GetLocationForProtocol.IncomingResponse(&mxapi.Message{
		Status: http.StatusOK,
		Body:   []byte(`[{"alias":"#freenode_#matrix:matrix.org","protocol":"irc","fields":{"network":"freenode","channel":"#matrix"}}]`),
	})
	require.NoError(t, err)
	require.Len(t, res.Locations, 1)
	assert.Equal(t, "freenode", res.Locations[0].Fields["network"])
}
