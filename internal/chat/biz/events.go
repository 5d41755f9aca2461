// Package biz implements the streaming chat orchestrator.
package biz

import (
	"github.com/iranzithierry/cognova-backend/pkg/utils/json"
)

// EventFunc delivers one encoded SSE frame to the client. Returning an error
// aborts the stream.
type EventFunc func(frame []byte) error

type tokenEvent struct {
	Token string `json:"token"`
}

type errorEvent struct {
	Error string `json:"error"`
}

type warningEvent struct {
	Warning string `json:"warning"`
}

type completeEvent struct {
	Complete            bool     `json:"complete"`
	SourceURLs          []string `json:"source_urls"`
	QuestionSuggestions []string `json:"question_suggestions"`
}

// encodeSSE frames a payload as one SSE data event.
func encodeSSE(v any) ([]byte, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	frame := make([]byte, 0, len(data)+8)
	frame = append(frame, "data: "...)
	frame = append(frame, data...)
	frame = append(frame, "\n\n"...)
	return frame, nil
}

// EncodeToken frames a token event.
func EncodeToken(token string) ([]byte, error) {
	return encodeSSE(tokenEvent{Token: token})
}

// EncodeError frames an error event.
func EncodeError(message string) ([]byte, error) {
	return encodeSSE(errorEvent{Error: message})
}

// EncodeWarning frames a warning event.
func EncodeWarning(message string) ([]byte, error) {
	return encodeSSE(warningEvent{Warning: message})
}

// EncodeComplete frames the terminal event of a turn. The URL and suggestion
// arrays are always present, empty rather than null.
func EncodeComplete(sourceURLs []string) ([]byte, error) {
	if sourceURLs == nil {
		sourceURLs = []string{}
	}
	return encodeSSE(completeEvent{
		Complete:            true,
		SourceURLs:          sourceURLs,
		QuestionSuggestions: []string{},
	})
}
