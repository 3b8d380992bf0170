package serverconf

import (
	"fmt"
	"io/ioutil"

	"github.com/BurntSushi/toml"
	"gopkg.in/launchdarkly/go-sdk-common.v2/ldvalue"
)

// omitKey lists options that should have no directive at all, since TOML has no null value.
const omitKey = "omit"

// LoadOverride reads an Override from a TOML file. See ParseOverride for the format.
func LoadOverride(path string) (Override, error) {
	data, err := ioutil.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return ParseOverride(string(data))
}

// ParseOverride reads an Override from TOML text. Each top-level key is an option name whose
// value is a string, number or boolean. The "omit" key is an array of option names to set to
// Omitted:
//
//	store_messages = false
//	ping_message_interval = "5s"
//	omit = ["header_template"]
func ParseOverride(text string) (Override, error) {
	var raw map[string]interface{}
	if _, err := toml.Decode(text, &raw); err != nil {
		return nil, fmt.Errorf("could not parse option overrides: %w", err)
	}
	ret := make(Override, len(raw))
	for key, value := range raw {
		if key == omitKey {
			names, ok := value.([]interface{})
			if !ok {
				return nil, fmt.Errorf("%q must be an array of option names", omitKey)
			}
			for _, n := range names {
				name, ok := n.(string)
				if !ok || !Option(name).known() {
					return nil, &ValidationError{Option: Option(fmt.Sprint(n)), Message: "is not a known option"}
				}
				ret[Option(name)] = Omitted
			}
			continue
		}
		option := Option(key)
		if !option.known() {
			return nil, &ValidationError{Option: option, Message: "is not a known option"}
		}
		switch v := value.(type) {
		case string:
			ret[option] = ldvalue.String(v)
		case int64:
			ret[option] = ldvalue.Int(int(v))
		case float64:
			ret[option] = ldvalue.Float64(v)
		case bool:
			ret[option] = ldvalue.Bool(v)
		default:
			return nil, &ValidationError{Option: option, Message: fmt.Sprintf("has unsupported value %v", v)}
		}
	}
	return ret, nil
}
