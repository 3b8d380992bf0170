package client

import (
	"testing"

	"gopkg.in/launchdarkly/go-sdk-common.v2/ldvalue"

	"github.com/stretchr/testify/assert"
)

func TestJSONText(t *testing.T) {
	for expected, value := range map[string]ldvalue.Value{
		"ch":        ldvalue.String("ch"),
		"":          ldvalue.Null(),
		"42":        ldvalue.Int(42),
		"1.5":       ldvalue.Float64(1.5),
		"true":      ldvalue.Bool(true),
		"false":     ldvalue.Bool(false),
		`{"a":1}`:   ldvalue.Parse([]byte(`{"a":1}`)),
		`["x","y"]`: ldvalue.ArrayOf(ldvalue.String("x"), ldvalue.String("y")),
	} {
		assert.Equal(t, expected, JSONText(value))
	}
}
