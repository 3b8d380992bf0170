package serverconf

import (
	"errors"
	"io/ioutil"
	"path/filepath"
	"testing"

	"gopkg.in/launchdarkly/go-sdk-common.v2/ldvalue"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseOverride(t *testing.T) {
	override, err := ParseOverride(`
store_messages = false
ping_message_interval = "5s"
max_message_buffer_length = 50
omit = ["header_template", "content_type"]
`)
	require.NoError(t, err)
	assert.Equal(t, Override{
		StoreMessages:          ldvalue.Bool(false),
		PingMessageInterval:    ldvalue.String("5s"),
		MaxMessageBufferLength: ldvalue.Int(50),
		HeaderTemplate:         Omitted,
		ContentType:            Omitted,
	}, override)

	c := Defaults(testEnv).Merge(override)
	assert.Equal(t, "off", c.Text(StoreMessages))
	assert.Equal(t, "50", c.Text(MaxMessageBufferLength))
	assert.True(t, c.IsOmitted(HeaderTemplate))
	assert.NoError(t, c.Validate())
}

func TestParseOverrideErrors(t *testing.T) {
	for _, tc := range []struct {
		name string
		text string
	}{
		{"syntax", `store_messages = `},
		{"unknown option", `no_such_option = 1`},
		{"unknown omitted option", `omit = ["no_such_option"]`},
		{"omit is not an array", `omit = "header_template"`},
		{"table value", "[store_messages]\nx = 1"},
		{"array value", `port = [1, 2]`},
	} {
		t.Run(tc.name, func(t *testing.T) {
			_, err := ParseOverride(tc.text)
			assert.Error(t, err)
		})
	}

	_, err := ParseOverride(`no_such_option = 1`)
	var ve *ValidationError
	require.True(t, errors.As(err, &ve))
	assert.Equal(t, Option("no_such_option"), ve.Option)
}

func TestLoadOverride(t *testing.T) {
	path := filepath.Join(t.TempDir(), "options.toml")
	require.NoError(t, ioutil.WriteFile(path, []byte(`workers = 3`), 0600))
	override, err := LoadOverride(path)
	require.NoError(t, err)
	assert.Equal(t, Override{Workers: ldvalue.Int(3)}, override)

	_, err = LoadOverride(filepath.Join(t.TempDir(), "missing.toml"))
	assert.Error(t, err)
}
