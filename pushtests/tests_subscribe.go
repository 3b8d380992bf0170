package pushtests

import (
	"strings"

	"github.com/stretchr/testify/assert"
)

func doSubscribeTests(t *T) {
	t.RunWithServer("header template arrives first", nil, func(t *T) {
		header := t.HeaderText()
		if header == "" {
			t.SkipWithReason("no header template is configured")
		}
		var received strings.Builder
		t.SubscribeUntil("ch_test_header", nil, SubscribeTimeout, func(chunk string) bool {
			received.WriteString(chunk)
			return received.Len() >= len(header)
		})
		assert.True(t, strings.HasPrefix(received.String(), header))
	})

	t.RunWithServer("published message is rendered through the message template", nil, func(t *T) {
		channel := t.NewChannel("ch_test_subscribe")
		pattern := t.MessagePattern(channel, "hello world")
		var received strings.Builder
		t.SubscribeAfterConnect(channel, func() {
			t.Publish(channel, "hello world")
		}, func(chunk string) bool {
			received.WriteString(chunk)
			return pattern.MatchString(received.String())
		})
		rest := strings.TrimPrefix(received.String(), t.HeaderText())
		assert.Regexp(t, "^"+pattern.String(), rest)
	})

	t.RunWithServer("messages arrive in publish order", nil, func(t *T) {
		channel := t.NewChannel("ch_test_order")
		first, second := t.MessagePattern(channel, "first"), t.MessagePattern(channel, "second")
		var received strings.Builder
		t.SubscribeAfterConnect(channel, func() {
			t.Publish(channel, "first")
			t.Publish(channel, "second")
		}, func(chunk string) bool {
			received.WriteString(chunk)
			return second.MatchString(received.String())
		})
		firstAt := first.FindStringIndex(received.String())
		secondAt := second.FindStringIndex(received.String())
		if assert.NotNil(t, firstAt) && assert.NotNil(t, secondAt) {
			assert.Less(t, firstAt[0], secondAt[0])
		}
	})

	t.RunWithServer("subscriber only receives its own channel", nil, func(t *T) {
		channel, other := t.NewChannel("ch_test_mine"), t.NewChannel("ch_test_other")
		mine := t.MessagePattern(channel, "mine")
		var received strings.Builder
		t.SubscribeAfterConnect(channel, func() {
			t.Publish(other, "theirs")
			t.Publish(channel, "mine")
		}, func(chunk string) bool {
			received.WriteString(chunk)
			return mine.MatchString(received.String())
		})
		assert.NotContains(t, received.String(), "theirs")
	})
}
