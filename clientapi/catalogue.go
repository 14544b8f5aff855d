package clientapi

import (
	"github.com/samber/lo"

	"github.com/broady/mxapi"
)

// All returns every endpoint of the package.
func All() []mxapi.EndpointInfo {
	return []mxapi.EndpointInfo{
		GetContent,
		GetContentAsFilename,
		CreateContent,
		RequestMSISDNToken,
		GetPushRulesGlobalScope,
		SendMessageEvent,
		RedactEvent,
		GetRoomName,
		GetLocationForProtocol,
	}
}

// Lookup finds an endpoint by its metadata name.
func Lookup(name string) (mxapi.EndpointInfo, bool) {
	return lo.Find(All(), func(e mxapi.EndpointInfo) bool { return e.Metadata().Name == name })
}
