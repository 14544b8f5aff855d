package clientapi

import (
	"net/http"

	"github.com/broady/mxapi"
)

// Location is a portal to a third-party network.
type Location struct {
	Alias    string            `json:"alias"`
	Protocol string            `json:"protocol"`
	Fields   map[string]string `json:"fields"`
}

type GetLocationForProtocolRequest struct {
	Protocol string `json:"protocol" mxapi:"path"`
	// Fields are protocol-specific search fields, passed as the query string.
	Fields map[string]string `mxapi:"query_map"`
}

type GetLocationForProtocolResponse struct {
	Locations []Location `mxapi:"newtype_body"`
}

var GetLocationForProtocol = mxapi.MustDefine[GetLocationForProtocolRequest, GetLocationForProtocolResponse](mxapi.Metadata{
	Name:           "get_location_for_protocol",
	Description:    "Fetch third party locations for a protocol.",
	Method:         http.MethodGet,
	Authentication: true,
	History: mxapi.History{
		mxapi.Since("1.0", "/_matrix/client/r0/thirdparty/location/{protocol}"),
		mxapi.Since("1.1", "/_matrix/client/v3/thirdparty/location/{protocol}"),
	},
})
