package pushtests

import (
	"strings"

	"github.com/pushstream/contract-tests/serverconf"

	"gopkg.in/launchdarkly/go-sdk-common.v2/ldvalue"

	"github.com/stretchr/testify/assert"
)

func doConfigurationTests(t *T) {
	t.RunWithServer("omitted message template delivers raw text",
		serverconf.Override{serverconf.MessageTemplate: serverconf.Omitted},
		func(t *T) {
			channel := t.NewChannel("ch_test_raw_text")
			var received strings.Builder
			t.SubscribeAfterConnect(channel, func() {
				t.Publish(channel, "raw text")
			}, func(chunk string) bool {
				received.WriteString(chunk)
				return strings.Contains(received.String(), "raw text")
			})
			assert.Equal(t, t.HeaderText()+"raw text", received.String())
		})

	t.RunWithServer("omitted header template sends no header",
		serverconf.Override{serverconf.HeaderTemplate: serverconf.Omitted},
		func(t *T) {
			channel := t.NewChannel("ch_test_no_header")
			pattern := t.MessagePattern(channel, "body")
			var received strings.Builder
			t.SubscribeAfterConnect(channel, func() {
				t.Publish(channel, "body")
			}, func(chunk string) bool {
				received.WriteString(chunk)
				return pattern.MatchString(received.String())
			})
			assert.Regexp(t, "^"+pattern.String()+"$", received.String())
		})

	t.RunWithServer("custom message template",
		serverconf.Override{serverconf.MessageTemplate: ldvalue.String(`{\"id\":~id~,\"text\":\"~text~\"}`)},
		func(t *T) {
			channel := t.NewChannel("ch_test_custom_template")
			pattern := t.MessagePattern(channel, "custom")
			var received strings.Builder
			t.SubscribeAfterConnect(channel, func() {
				t.Publish(channel, "custom")
			}, func(chunk string) bool {
				received.WriteString(chunk)
				return pattern.MatchString(received.String())
			})
			assert.Contains(t, received.String(), `"text":"custom"`)
		})

	t.Run("effective configuration", func(t *T) {
		t.RunWithServer("override replaces default", serverconf.Override{serverconf.StoreMessages: ldvalue.Bool(false)},
			func(t *T) {
				assert.Equal(t, "off", t.Configuration().Text(serverconf.StoreMessages))
			})
	})
}
