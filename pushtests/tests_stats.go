package pushtests

import (
	"github.com/pushstream/contract-tests/client"

	"github.com/stretchr/testify/assert"
)

func doStatsTests(t *T) {
	t.RunWithServer("published channel is reported", nil, func(t *T) {
		channel := t.NewChannel("ch_test_stats")
		t.Publish(channel, "body")
		stats := t.ChannelStats(channel)
		assert.Equal(t, channel, client.JSONText(stats.GetByKey("channel")))
		assert.Equal(t, "1", client.JSONText(stats.GetByKey("published_messages")))
	})

	t.RunWithServer("published message count grows", nil, func(t *T) {
		channel := t.NewChannel("ch_test_stats_count")
		for i := 0; i < 3; i++ {
			t.Publish(channel, "body")
		}
		stats := t.ChannelStats(channel)
		assert.Equal(t, "3", client.JSONText(stats.GetByKey("published_messages")))
	})
}
