package clientapi

import (
	"encoding/json"
	"net/http"

	"github.com/broady/mxapi"
)

// Ruleset is a user's push rules, grouped by kind in evaluation order.
type Ruleset struct {
	Override  []PushRule `json:"override"`
	Content   []PushRule `json:"content"`
	Room      []PushRule `json:"room"`
	Sender    []PushRule `json:"sender"`
	Underride []PushRule `json:"underride"`
}

type PushRule struct {
	RuleID  string `json:"rule_id"`
	Default bool   `json:"default"`
	Enabled bool   `json:"enabled"`
	// Actions are either strings or tweak objects, kept verbatim.
	Actions    []json.RawMessage `json:"actions"`
	Conditions []PushCondition   `json:"conditions,omitempty"`
	Pattern    string            `json:"pattern,omitempty"`
}

type PushCondition struct {
	Kind    string `json:"kind"`
	Key     string `json:"key,omitempty"`
	Pattern string `json:"pattern,omitempty"`
	Is      string `json:"is,omitempty"`
}

type GetPushRulesGlobalScopeRequest struct{}

type GetPushRulesGlobalScopeResponse struct {
	Global Ruleset `mxapi:"newtype_body"`
}

var GetPushRulesGlobalScope = mxapi.MustDefine[GetPushRulesGlobalScopeRequest, GetPushRulesGlobalScopeResponse](mxapi.Metadata{
	Name:           "get_pushrules_global_scope",
	Description:    "Retrieve all push rulesets in the global scope for this user.",
	Method:         http.MethodGet,
	Authentication: true,
	History: mxapi.History{
		mxapi.Since("1.0", "/_matrix/client/r0/pushrules/global/"),
		mxapi.Since("1.1", "/_matrix/client/v3/pushrules/global/"),
	},
})
