package framework

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegexFilters(t *testing.T) {
	var filters RegexFilters
	assert.True(t, filters.AsFilter(TestID{Path: []string{"anything"}}))

	require.NoError(t, filters.MustMatch.Set("^publish"))
	require.NoError(t, filters.MustNotMatch.Set("empty"))

	assert.True(t, filters.AsFilter(TestID{Path: []string{"publish", "basic"}}))
	assert.False(t, filters.AsFilter(TestID{Path: []string{"publish", "empty body"}}))
	assert.False(t, filters.AsFilter(TestID{Path: []string{"subscribe", "publish"}}))
}

func TestRegexListRejectsBadPattern(t *testing.T) {
	var list RegexList
	assert.Error(t, list.Set("("))
	assert.False(t, list.IsDefined())
}

func TestPrintFilterDescription(t *testing.T) {
	var buf bytes.Buffer
	PrintFilterDescription(&buf, RegexFilters{})
	assert.Equal(t, "", buf.String())

	var filters RegexFilters
	require.NoError(t, filters.MustMatch.Set("a"))
	require.NoError(t, filters.MustMatch.Set("b"))
	PrintFilterDescription(&buf, filters)
	assert.Contains(t, buf.String(), `skip any not matching "a" or "b"`)
	assert.NotContains(t, buf.String(), "skip any matching")
}

func TestPrintResults(t *testing.T) {
	var buf bytes.Buffer
	PrintResults(&buf, Results{Tests: []TestResult{{TestID: TestID{Path: []string{"a"}}}}})
	assert.Contains(t, buf.String(), "All tests passed")
	assert.Contains(t, buf.String(), "(1 passed, 0 skipped)")

	buf.Reset()
	failure := TestResult{TestID: TestID{Path: []string{"b", "c"}}, Errors: []error{assert.AnError}}
	PrintResults(&buf, Results{Tests: []TestResult{failure}, Failures: []TestResult{failure}})
	assert.Contains(t, buf.String(), "FAILED TESTS (1)")
	assert.Contains(t, buf.String(), "b/c")
	assert.Contains(t, buf.String(), assert.AnError.Error())
	assert.Contains(t, buf.String(), "0 passed, 1 failed, 0 skipped")
}
