package serverconf

import (
	"fmt"
	"sort"
	"strconv"

	"gopkg.in/launchdarkly/go-sdk-common.v2/ldvalue"
)

// Omitted is the value that suppresses an optional directive.
var Omitted = ldvalue.Null()

// Override is a set of per-test configuration changes. A key that is present replaces the
// default, including when its value is Omitted; keys that are absent keep the default.
type Override map[Option]ldvalue.Value

// Configuration is the complete set of values that the configuration file is rendered from.
// It is never modified after construction; Merge returns a new Configuration.
type Configuration struct {
	values map[Option]ldvalue.Value
}

// Defaults builds the configuration used by every test unless it overrides something.
func Defaults(env Environment) Configuration {
	return Configuration{values: map[Option]ldvalue.Value{
		Host:    ldvalue.String(env.Host),
		Port:    ldvalue.Int(env.Port),
		Workers: ldvalue.Int(env.Workers),

		Daemon:                       ldvalue.Bool(true),
		MasterProcess:                ldvalue.Bool(true),
		MaxReservedMemory:            ldvalue.String("10m"),
		AuthorizedChannelsOnly:       ldvalue.Bool(false),
		BroadcastChannelMaxQtd:       ldvalue.Int(3),
		BroadcastChannelPrefix:       ldvalue.String("broad_"),
		ContentType:                  ldvalue.String("text/html; charset=utf-8"),
		HeaderTemplate:               ldvalue.String(defaultHeaderTemplate(env.Host)),
		MaxChannelIDLength:           ldvalue.Int(200),
		MaxMessageBufferLength:       ldvalue.Int(20),
		MaxNumberOfBroadcastChannels: Omitted,
		MaxNumberOfChannels:          Omitted,
		MessageTemplate:              ldvalue.String(`<script>p(~id~,\'~channel~\',\'~text~\');</script>`),
		MinMessageBufferTimeout:      ldvalue.String("50m"),
		PingMessageInterval:          ldvalue.String("10s"),
		StoreMessages:                ldvalue.Bool(true),
		SubscriberConnectionTimeout:  Omitted,
		SubscriberDisconnectInterval: Omitted,
		MemoryCleanupTimeout:         ldvalue.String("5m"),
		ClientMaxBodySize:            ldvalue.String("32k"),
		ClientBodyBufferSize:         ldvalue.String("32k"),
	}}
}

func defaultHeaderTemplate(host string) string {
	return `<html><head><meta http-equiv=\"Content-Type\" content=\"text/html; charset=utf-8\">\r\n` +
		`<meta http-equiv=\"Cache-Control\" content=\"no-store\">\r\n` +
		`<meta http-equiv=\"Cache-Control\" content=\"no-cache\">\r\n` +
		`<meta http-equiv=\"Expires\" content=\"Thu, 1 Jan 1970 00:00:00 GMT\">\r\n` +
		`<script type=\"text/javascript\">\r\nwindow.onError = null;\r\n` +
		`document.domain = \'` + host + `\';\r\nparent.PushStream.register(this);\r\n</script>\r\n` +
		`</head>\r\n<body onload=\"try { parent.PushStream.reset(this) } catch (e) {}\">`
}

// Merge returns a new Configuration with the override applied on top of c. If the override
// changes the host and c still has the default header template, the header template follows
// the new host.
func (c Configuration) Merge(override Override) Configuration {
	values := make(map[Option]ldvalue.Value, len(c.values)+len(override))
	for k, v := range c.values {
		values[k] = v
	}
	for k, v := range override {
		values[k] = v
	}
	if host, ok := override[Host]; ok {
		if _, ownHeader := override[HeaderTemplate]; !ownHeader &&
			c.Text(HeaderTemplate) == defaultHeaderTemplate(c.Text(Host)) {
			values[HeaderTemplate] = ldvalue.String(defaultHeaderTemplate(FormatValue(host)))
		}
	}
	return Configuration{values: values}
}

// BaseURL is the root URL that a server started with this configuration listens on.
func (c Configuration) BaseURL() string {
	return fmt.Sprintf("http://%s:%s", c.Text(Host), c.Text(Port))
}

// Get returns the value of an option, or Omitted if it has none.
func (c Configuration) Get(option Option) ldvalue.Value {
	if v, ok := c.values[option]; ok {
		return v
	}
	return Omitted
}

// IsOmitted is true if the option's directive will not appear in the rendered file.
func (c Configuration) IsOmitted(option Option) bool {
	return c.Get(option).IsNull()
}

// Text returns the option's value as it appears in the configuration file.
func (c Configuration) Text(option Option) string {
	return FormatValue(c.Get(option))
}

// Options returns the names of all options that have a value, in sorted order.
func (c Configuration) Options() []Option {
	ret := make([]Option, 0, len(c.values))
	for k, v := range c.values {
		if !v.IsNull() {
			ret = append(ret, k)
		}
	}
	sort.Slice(ret, func(i, j int) bool { return ret[i] < ret[j] })
	return ret
}

// Validate checks that the configuration can be rendered into a usable file.
func (c Configuration) Validate() error {
	for _, required := range []Option{Host, Port, Workers} {
		if c.IsOmitted(required) {
			return &ValidationError{Option: required, Message: "is required"}
		}
	}
	for k, v := range c.values {
		if !k.known() {
			return &ValidationError{Option: k, Message: "is not a known option"}
		}
		switch v.Type() {
		case ldvalue.NullType, ldvalue.StringType, ldvalue.NumberType, ldvalue.BoolType:
		default:
			return &ValidationError{Option: k, Message: fmt.Sprintf("has unsupported value %s", v.JSONString())}
		}
	}
	if !c.IsOmitted(ClientMaxBodySize) && !c.IsOmitted(ClientBodyBufferSize) &&
		c.Text(ClientMaxBodySize) != c.Text(ClientBodyBufferSize) {
		return &ValidationError{
			Option:  ClientMaxBodySize,
			Message: fmt.Sprintf("must be equal to %s", ClientBodyBufferSize),
		}
	}
	return nil
}

func (o Option) known() bool {
	if o == Host || o == Port || o == Workers {
		return true
	}
	_, ok := DirectiveFor(o)
	return ok
}

// FormatValue renders a value the way the server's configuration syntax expects it. Booleans
// become on/off, integral numbers have no decimal point, and Omitted becomes an empty string.
func FormatValue(v ldvalue.Value) string {
	switch v.Type() {
	case ldvalue.StringType:
		return v.StringValue()
	case ldvalue.BoolType:
		if v.BoolValue() {
			return "on"
		}
		return "off"
	case ldvalue.NumberType:
		if v.IsInt() {
			return strconv.Itoa(v.IntValue())
		}
		return strconv.FormatFloat(v.Float64Value(), 'f', -1, 64)
	case ldvalue.NullType:
		return ""
	default:
		return v.JSONString()
	}
}

// ValidationError means a Configuration cannot be rendered.
type ValidationError struct {
	Option  Option
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid configuration: option %q %s", e.Option, e.Message)
}
