package mxapi

import (
	"context"
	"fmt"
	"net/http"
)

// Client sends endpoint requests to a homeserver.
type Client struct {
	// HTTPClient defaults to http.DefaultClient.
	HTTPClient *http.Client
	BaseURL    string
	// AccessToken is sent as a bearer token to endpoints that require authentication.
	AccessToken string
	// Version selects the path template of each endpoint.
	Version Version
	// MaxResponseSize bounds response bodies. 0 disables the limit.
	MaxResponseSize int64
}

// NewClient builds a client from cfg.
func NewClient(cfg Config, accessToken string) (*Client, error) {
	if cfg.HomeserverURL == "" {
		return nil, fmt.Errorf("mxapi: MXAPI_HOMESERVER_URL is required")
	}
	v, err := cfg.ProtocolVersion()
	if err != nil {
		return nil, err
	}
	return &Client{
		BaseURL:         cfg.HomeserverURL,
		AccessToken:     accessToken,
		Version:         v,
		MaxResponseSize: bodyLimit(cfg.MaxBodySize),
	}, nil
}

func (c *Client) httpClient() *http.Client {
	if c.HTTPClient != nil {
		return c.HTTPClient
	}
	return http.DefaultClient
}

// Send marshals req for the client's version, performs the call and unmarshals
// the response. Error responses are returned as *Error.
func Send[Req, Res any](ctx context.Context, c *Client, ep *Endpoint[Req, Res], req *Req) (*Res, error) {
	msg, err := ep.OutgoingRequest(req, c.Version)
	if err != nil {
		return nil, err
	}
	if ep.RequiresAuth() {
		if c.AccessToken == "" {
			return nil, Errorf(CodeMissingToken, "%s requires an access token", ep.Metadata().Name)
		}
		msg.Header.Set("Authorization", "Bearer "+c.AccessToken)
	}

	httpReq, err := msg.HTTPRequest(ctx, c.BaseURL)
	if err != nil {
		return nil, err
	}
	resp, err := c.httpClient().Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("mxapi: %s: %w", ep.Metadata().Name, err)
	}
	out, err := ReadResponse(resp, c.MaxResponseSize)
	if err != nil {
		return nil, fmt.Errorf("mxapi: %s: reading response: %w", ep.Metadata().Name, err)
	}
	return ep.IncomingResponse(out)
}
