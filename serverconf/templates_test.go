package serverconf

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/launchdarkly/go-sdk-common.v2/ldvalue"
)

func renderForTest(t *testing.T, c Configuration) string {
	templates, err := NewTemplates()
	require.NoError(t, err)
	text, err := templates.Render(c)
	require.NoError(t, err)
	return text
}

func linesNaming(text, directive string) []string {
	var ret []string
	for _, line := range strings.Split(text, "\n") {
		fields := strings.Fields(line)
		if len(fields) > 0 && fields[0] == directive {
			ret = append(ret, strings.TrimSpace(line))
		}
	}
	return ret
}

func everyOptionSet() Override {
	return Override{
		MaxNumberOfChannels:          ldvalue.Int(7),
		MaxNumberOfBroadcastChannels: ldvalue.Int(2),
		SubscriberConnectionTimeout:  ldvalue.String("30s"),
		SubscriberDisconnectInterval: ldvalue.String("1s"),
	}
}

func TestRenderRequiredDirectives(t *testing.T) {
	text := renderForTest(t, Defaults(testEnv))
	assert.Equal(t, []string{"listen          9999;"}, linesNaming(text, "listen"))
	assert.Equal(t, []string{"server_name     example;"}, linesNaming(text, "server_name"))
	assert.Equal(t, []string{"worker_processes        2;"}, linesNaming(text, "worker_processes"))
	assert.Len(t, linesNaming(text, "chunked_transfer_encoding"), 1)
	assert.Len(t, linesNaming(text, "include"), 1)
}

func TestRenderEveryDirectiveWithValue(t *testing.T) {
	c := Defaults(testEnv).Merge(everyOptionSet())
	text := renderForTest(t, c)
	for _, d := range Directives() {
		t.Run(string(d.Option), func(t *testing.T) {
			value := c.Text(d.Option)
			if d.Quoted {
				value = `"` + value + `"`
			}
			expected := make([]string, len(d.Blocks))
			for i := range d.Blocks {
				expected[i] = d.Name + " " + value + ";"
			}
			assert.Equal(t, expected, linesNaming(text, d.Name))
		})
	}
}

func TestRenderEveryDirectiveOmitted(t *testing.T) {
	override := Override{}
	for _, d := range Directives() {
		override[d.Option] = Omitted
	}
	text := renderForTest(t, Defaults(testEnv).Merge(override))
	for _, d := range Directives() {
		assert.Empty(t, linesNaming(text, d.Name), "directive %s should not be present", d.Name)
		assert.NotContains(t, text, d.Name+" ")
	}
	assert.NotContains(t, text, "\n\n", "omitted directives should not leave blank lines")
}

func TestRenderIsDeterministic(t *testing.T) {
	c := Defaults(testEnv).Merge(everyOptionSet())
	assert.Equal(t, renderForTest(t, c), renderForTest(t, c))
}

func TestRenderDirectivesInTheirBlocks(t *testing.T) {
	text := renderForTest(t, Defaults(testEnv))
	pub := strings.Index(text, "location /pub {")
	sub := strings.Index(text, "location ~ /sub/(.*)? {")
	require.True(t, pub > 0 && sub > pub)

	storeMessages := strings.Index(text, "push_stream_store_messages on;")
	assert.True(t, storeMessages > pub && storeMessages < sub, "store_messages belongs to the publisher location")

	ping := strings.Index(text, "push_stream_ping_message_interval 10s;")
	assert.True(t, ping > sub, "ping interval belongs to the subscriber location")

	memory := strings.Index(text, "push_stream_max_reserved_memory 10m;")
	assert.True(t, memory > 0 && memory < pub, "reserved memory belongs to the http block")
}

func TestRenderRejectsInvalidConfiguration(t *testing.T) {
	templates, err := NewTemplates()
	require.NoError(t, err)
	_, err = templates.Render(Defaults(testEnv).Merge(Override{Host: Omitted}))
	assert.Error(t, err)
}

func TestMimeTypesTable(t *testing.T) {
	templates, err := NewTemplates()
	require.NoError(t, err)
	assert.Contains(t, templates.MimeTypes(), "text/html                             html htm shtml;")
	assert.True(t, strings.HasPrefix(strings.TrimSpace(templates.MimeTypes()), "types {"))
}

func TestUnescape(t *testing.T) {
	assert.Equal(t, `<script>p(~id~,'~channel~','~text~');</script>`,
		Unescape(`<script>p(~id~,\'~channel~\',\'~text~\');</script>`))
	assert.Equal(t, "a\"b\r\nc\\d", Unescape(`a\"b\r\nc\\d`))
}
