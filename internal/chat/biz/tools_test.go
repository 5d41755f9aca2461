package biz

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/iranzithierry/cognova-backend/pkg/errors"
)

type stubTool struct {
	name   string
	result string
	err    error
}

func (t *stubTool) Name() string { return t.name }

func (t *stubTool) Execute(_ context.Context, _ *ToolContext) (string, error) {
	return t.result, t.err
}

func TestToolRegistry(t *testing.T) {
	r := NewToolRegistry()

	require.NoError(t, r.Register(&stubTool{name: "search"}))

	err := r.Register(&stubTool{name: "search"})
	require.Error(t, err)
	assert.True(t, apperrors.IsCode(err, apperrors.ErrInvalidParam.Code))

	err = r.Register(&stubTool{name: "  "})
	require.Error(t, err)

	tool, ok := r.Get("search")
	assert.True(t, ok)
	assert.Equal(t, "search", tool.Name())

	_, ok = r.Get("browse")
	assert.False(t, ok)

	assert.Equal(t, []string{"search"}, r.Names())
}

func TestParseToolCall(t *testing.T) {
	tests := []struct {
		name     string
		payload  string
		wantName string
		wantArgs map[string]any
		wantErr  bool
	}{
		{
			name:     "valid json",
			payload:  `{"name": "search", "arguments": {"query": "pricing"}}`,
			wantName: "search",
			wantArgs: map[string]any{"query": "pricing"},
		},
		{
			name:     "surrounding whitespace",
			payload:  "\n  {\"name\": \"search\", \"arguments\": {}}  \n",
			wantName: "search",
			wantArgs: map[string]any{},
		},
		{
			name:     "python single quotes normalized",
			payload:  `{'name': 'search', 'arguments': {'query': 'refunds'}}`,
			wantName: "search",
			wantArgs: map[string]any{"query": "refunds"},
		},
		{
			name:     "python None normalized",
			payload:  `{'name': 'search', 'arguments': {'filter': None}}`,
			wantName: "search",
			wantArgs: map[string]any{"filter": nil},
		},
		{
			name:    "not json at all",
			payload: "search(query)",
			wantErr: true,
		},
		{
			name:    "missing name",
			payload: `{"arguments": {"query": "x"}}`,
			wantErr: true,
		},
		{
			name:    "empty payload",
			payload: "",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			call, err := parseToolCall(tt.payload)
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, apperrors.IsCode(err, apperrors.ErrToolCallMalformed.Code))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantName, call.Name)
			assert.Equal(t, tt.wantArgs, call.Arguments)
		})
	}
}
