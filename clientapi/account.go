package clientapi

import (
	"net/http"

	"github.com/broady/mxapi"
)

// IdentityServerInfo names an identity server and the token to use with it.
type IdentityServerInfo struct {
	IDServer      string `json:"id_server"`
	IDAccessToken string `json:"id_access_token"`
}

// RequestMSISDNTokenRequest requests a 3PID management token for a phone number.
type RequestMSISDNTokenRequest struct {
	ClientSecret string `json:"client_secret" validate:"required,max=255"`
	// Country is a two-letter ISO 3166 country code.
	Country     string `json:"country" validate:"required,iso3166_1_alpha2"`
	PhoneNumber string `json:"phone_number" validate:"required"`
	// SendAttempt distinguishes protocol retries from requests to resend the SMS.
	SendAttempt uint64 `json:"send_attempt"`
	NextLink    string `json:"next_link" mxapi:"optional"`
	// IdentityServerInfo is sent inline with the other members.
	IdentityServerInfo *IdentityServerInfo `mxapi:"flatten,deprecated"`
}

type RequestMSISDNTokenResponse struct {
	SID string `json:"sid"`
	// SubmitURL is where the validation token is submitted, if not to the client.
	SubmitURL string `json:"submit_url" mxapi:"optional"`
}

var RequestMSISDNToken = mxapi.MustDefine[RequestMSISDNTokenRequest, RequestMSISDNTokenResponse](mxapi.Metadata{
	Name:        "request_3pid_management_token_via_msisdn",
	Description: "Request a 3PID management token with a phone number.",
	Method:      http.MethodPost,
	History: mxapi.History{
		mxapi.Since("1.0", "/_matrix/client/r0/account/3pid/msisdn/requestToken"),
		mxapi.Since("1.1", "/_matrix/client/v3/account/3pid/msisdn/requestToken"),
	},
})
