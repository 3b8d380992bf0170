package serverconf

// Option is the name of a configuration value.
type Option string

// Options that are always written to the configuration file.
const (
	Host    Option = "host"
	Port    Option = "port"
	Workers Option = "workers"
)

// Options that produce a directive only when they have a value.
const (
	Daemon                       Option = "daemon"
	MasterProcess                Option = "master_process"
	MaxReservedMemory            Option = "max_reserved_memory"
	MessageTemplate              Option = "message_template"
	StoreMessages                Option = "store_messages"
	MaxMessageBufferLength       Option = "max_message_buffer_length"
	MinMessageBufferTimeout      Option = "min_message_buffer_timeout"
	MaxChannelIDLength           Option = "max_channel_id_length"
	BroadcastChannelPrefix       Option = "broadcast_channel_prefix"
	BroadcastChannelMaxQtd       Option = "broadcast_channel_max_qtd"
	MaxNumberOfChannels          Option = "max_number_of_channels"
	MaxNumberOfBroadcastChannels Option = "max_number_of_broadcast_channels"
	MemoryCleanupTimeout         Option = "memory_cleanup_timeout"
	ClientMaxBodySize            Option = "client_max_body_size"
	ClientBodyBufferSize         Option = "client_body_buffer_size"
	HeaderTemplate               Option = "header_template"
	ContentType                  Option = "content_type"
	AuthorizedChannelsOnly       Option = "authorized_channels_only"
	PingMessageInterval          Option = "ping_message_interval"
	SubscriberDisconnectInterval Option = "subscriber_disconnect_interval"
	SubscriberConnectionTimeout  Option = "subscriber_connection_timeout"
)

// Block identifies the part of the configuration file a directive is written in.
type Block string

const (
	MainBlock      Block = "main"
	HTTPBlock      Block = "http"
	PublishBlock   Block = "publish"
	SubscribeBlock Block = "subscribe"
)

// Directive describes how an optional Option is written to the configuration file.
type Directive struct {
	Option Option
	Name   string
	Quoted bool
	Blocks []Block
}

var pubSub = []Block{PublishBlock, SubscribeBlock}

var directives = []Directive{
	{Option: Daemon, Name: "daemon", Blocks: []Block{MainBlock}},
	{Option: MasterProcess, Name: "master_process", Blocks: []Block{MainBlock}},
	{Option: MaxReservedMemory, Name: "push_stream_max_reserved_memory", Blocks: []Block{HTTPBlock}},
	{Option: MessageTemplate, Name: "push_stream_message_template", Quoted: true, Blocks: pubSub},
	{Option: StoreMessages, Name: "push_stream_store_messages", Blocks: []Block{PublishBlock}},
	{Option: MaxMessageBufferLength, Name: "push_stream_max_message_buffer_length", Blocks: []Block{PublishBlock}},
	{Option: MinMessageBufferTimeout, Name: "push_stream_min_message_buffer_timeout", Blocks: []Block{PublishBlock}},
	{Option: MaxChannelIDLength, Name: "push_stream_max_channel_id_length", Blocks: pubSub},
	{Option: BroadcastChannelPrefix, Name: "push_stream_broadcast_channel_prefix", Quoted: true, Blocks: pubSub},
	{Option: BroadcastChannelMaxQtd, Name: "push_stream_broadcast_channel_max_qtd", Blocks: pubSub},
	{Option: MaxNumberOfChannels, Name: "push_stream_max_number_of_channels", Blocks: pubSub},
	{Option: MaxNumberOfBroadcastChannels, Name: "push_stream_max_number_of_broadcast_channels", Blocks: pubSub},
	{Option: MemoryCleanupTimeout, Name: "push_stream_memory_cleanup_timeout", Blocks: pubSub},
	{Option: ClientMaxBodySize, Name: "client_max_body_size", Blocks: []Block{PublishBlock}},
	{Option: ClientBodyBufferSize, Name: "client_body_buffer_size", Blocks: []Block{PublishBlock}},
	{Option: HeaderTemplate, Name: "push_stream_header_template", Quoted: true, Blocks: []Block{SubscribeBlock}},
	{Option: ContentType, Name: "push_stream_content_type", Quoted: true, Blocks: []Block{SubscribeBlock}},
	{Option: AuthorizedChannelsOnly, Name: "push_stream_authorized_channels_only", Blocks: []Block{SubscribeBlock}},
	{Option: PingMessageInterval, Name: "push_stream_ping_message_interval", Blocks: []Block{SubscribeBlock}},
	{Option: SubscriberDisconnectInterval, Name: "push_stream_subscriber_disconnect_interval", Blocks: []Block{SubscribeBlock}},
	{Option: SubscriberConnectionTimeout, Name: "push_stream_subscriber_connection_timeout", Blocks: []Block{SubscribeBlock}},
}

// Directives returns the descriptions of all optional directives.
func Directives() []Directive {
	return append([]Directive(nil), directives...)
}

// DirectiveFor returns the description of an optional directive.
func DirectiveFor(option Option) (Directive, bool) {
	for _, d := range directives {
		if d.Option == option {
			return d, true
		}
	}
	return Directive{}, false
}
