// Package clientapi defines a subset of the Matrix client-server API as
// mxapi endpoints. Each endpoint is a package-level value with its request and
// response types next to it.
package clientapi

import (
	"net/http"

	"github.com/broady/mxapi"
	"github.com/broady/mxapi/mxid"
)

// GetContentRequest downloads content from the media repository.
type GetContentRequest struct {
	// ServerName was called serverName in the r0 paths.
	ServerName mxid.ServerName `json:"server_name" mxapi:"path,alias=1.0:serverName"`
	MediaID    string          `json:"media_id" mxapi:"path,alias=1.0:mediaId"`
	// AllowRemote prevents routing loops between servers when false.
	AllowRemote bool `json:"allow_remote" mxapi:"query,default=true"`
	// TimeoutMS is how long to wait for content that is not yet uploaded.
	TimeoutMS uint64 `json:"timeout_ms" mxapi:"query,default=20000"`
	// AllowRedirect lets the server answer with a redirect.
	AllowRedirect bool `json:"allow_redirect" mxapi:"query,optional"`
}

type GetContentResponse struct {
	File                      []byte `mxapi:"raw_body"`
	ContentType               string `mxapi:"header=Content-Type,optional"`
	ContentDisposition        string `mxapi:"header=Content-Disposition,optional"`
	CrossOriginResourcePolicy string `mxapi:"header=Cross-Origin-Resource-Policy,optional"`
}

var GetContent = mxapi.MustDefine[GetContentRequest, GetContentResponse](mxapi.Metadata{
	Name:        "get_content",
	Description: "Retrieve content from the media store.",
	Method:      http.MethodGet,
	History: mxapi.History{
		mxapi.Since("1.0", "/_matrix/media/r0/download/{serverName}/{mediaId}"),
		mxapi.Since("1.1", "/_matrix/media/v3/download/{server_name}/{media_id}"),
		mxapi.DeprecatedSince("1.11", "/_matrix/media/v3/download/{server_name}/{media_id}"),
	},
})

// NewGetContentRequest returns a download request for an mxc URI.
func NewGetContentRequest(uri mxid.MxcURI) (*GetContentRequest, error) {
	server, mediaID, err := uri.Parts()
	if err != nil {
		return nil, err
	}
	return &GetContentRequest{ServerName: server, MediaID: mediaID, AllowRemote: true, TimeoutMS: 20000}, nil
}

type GetContentAsFilenameRequest struct {
	ServerName mxid.ServerName `json:"server_name" mxapi:"path"`
	MediaID    string          `json:"media_id" mxapi:"path"`
	// Filename is returned in the Content-Disposition header.
	Filename    string `json:"filename" mxapi:"path"`
	AllowRemote bool   `json:"allow_remote" mxapi:"query,default=true"`
}

var GetContentAsFilename = mxapi.MustDefine[GetContentAsFilenameRequest, GetContentResponse](mxapi.Metadata{
	Name:        "get_content_as_filename",
	Description: "Retrieve content from the media store, specifying a filename to return.",
	Method:      http.MethodGet,
	History: mxapi.History{
		mxapi.Since("1.0", "/_matrix/media/r0/download/{server_name}/{media_id}/{filename}"),
		mxapi.Since("1.1", "/_matrix/media/v3/download/{server_name}/{media_id}/{filename}"),
	},
})

// NewGetContentAsFilenameRequest returns a download request for an mxc URI.
func NewGetContentAsFilenameRequest(uri mxid.MxcURI, filename string) (*GetContentAsFilenameRequest, error) {
	server, mediaID, err := uri.Parts()
	if err != nil {
		return nil, err
	}
	return &GetContentAsFilenameRequest{ServerName: server, MediaID: mediaID, Filename: filename, AllowRemote: true}, nil
}

type CreateContentRequest struct {
	File        []byte `mxapi:"raw_body"`
	ContentType string `mxapi:"header=Content-Type,optional"`
	Filename    string `json:"filename" mxapi:"query,optional"`
}

type CreateContentResponse struct {
	ContentURI mxid.MxcURI `json:"content_uri"`
	BlurHash   string      `json:"xyz.amorgan.blurhash" mxapi:"optional"`
}

var CreateContent = mxapi.MustDefine[CreateContentRequest, CreateContentResponse](mxapi.Metadata{
	Name:           "create_content",
	Description:    "Upload content to the media store.",
	Method:         http.MethodPost,
	Authentication: true,
	RateLimited:    true,
	History: mxapi.History{
		mxapi.Since("1.0", "/_matrix/media/r0/upload"),
		mxapi.Since("1.1", "/_matrix/media/v3/upload"),
	},
})
