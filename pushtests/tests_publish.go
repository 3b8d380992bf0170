package pushtests

import (
	"net/http"

	"github.com/stretchr/testify/assert"
)

func doPublishTests(t *T) {
	t.RunWithServer("accepted message echoes channel", nil, func(t *T) {
		result := t.Publish("ch_test_publish", "body")
		assert.Equal(t, http.StatusOK, result.Status)
		assert.Equal(t, "ch_test_publish", result.Channel)
	})

	t.RunWithServer("numeric channel id", nil, func(t *T) {
		result := t.Publish("123", "body")
		assert.Equal(t, "123", result.Channel)
	})

	t.RunWithServer("empty body is accepted", nil, func(t *T) {
		result := t.Publish("ch_test_empty_body", "")
		assert.Equal(t, http.StatusOK, result.Status)
	})

	t.RunWithServer("request headers are allowed", nil, func(t *T) {
		headers := map[string]string{"Content-Type": "text/plain", "Accept": "application/json"}
		result := t.PublishWithHeaders("ch_test_headers", headers, "body")
		assert.Equal(t, "ch_test_headers", result.Channel)
	})
}
