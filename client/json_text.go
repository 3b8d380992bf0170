package client

import (
	"gopkg.in/launchdarkly/go-sdk-common.v2/ldvalue"
)

// JSONText is how a property of a JSON response compares with text such as a channel id:
// strings as they are, null or missing as "", and anything else in its JSON form.
func JSONText(v ldvalue.Value) string {
	switch v.Type() {
	case ldvalue.StringType:
		return v.StringValue()
	case ldvalue.NullType:
		return ""
	default:
		return v.JSONString()
	}
}
