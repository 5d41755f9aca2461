package biz

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncodeToken(t *testing.T) {
	frame, err := EncodeToken("Hello")
	require.NoError(t, err)
	assert.Equal(t, "data: {\"token\":\"Hello\"}\n\n", string(frame))
}

func TestEncodeError(t *testing.T) {
	frame, err := EncodeError("stream failed")
	require.NoError(t, err)
	assert.Equal(t, "data: {\"error\":\"stream failed\"}\n\n", string(frame))
}

func TestEncodeWarning(t *testing.T) {
	frame, err := EncodeWarning("tool call limit reached")
	require.NoError(t, err)
	assert.Equal(t, "data: {\"warning\":\"tool call limit reached\"}\n\n", string(frame))
}

func TestEncodeComplete(t *testing.T) {
	frame, err := EncodeComplete([]string{"https://docs.example.com"})
	require.NoError(t, err)
	s := string(frame)
	assert.True(t, strings.HasPrefix(s, "data: "))
	assert.True(t, strings.HasSuffix(s, "\n\n"))
	assert.Contains(t, s, `"complete":true`)
	assert.Contains(t, s, `"source_urls":["https://docs.example.com"]`)
	assert.Contains(t, s, `"question_suggestions":[]`)
}

func TestEncodeComplete_NilURLs(t *testing.T) {
	// Arrays are always present, never null.
	frame, err := EncodeComplete(nil)
	require.NoError(t, err)
	assert.Contains(t, string(frame), `"source_urls":[]`)
	assert.NotContains(t, string(frame), "null")
}
