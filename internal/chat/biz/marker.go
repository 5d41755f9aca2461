package biz

import "strings"

// Tool-call markers emitted inline by the model. They can arrive split
// across token boundaries at any position.
const (
	toolCallOpen  = "<tool_call>"
	toolCallClose = "</tool_call>"
)

type scannerState int

const (
	stateText scannerState = iota
	stateCollecting
)

// markerScanner incrementally separates plain text from tool-call payloads
// in a token stream. Text that could still turn out to be the beginning of
// an open marker is held back until disambiguated.
type markerScanner struct {
	state   scannerState
	pending strings.Builder // text state: undecided tail
	call    strings.Builder // collecting state: payload so far
}

func newMarkerScanner() *markerScanner {
	return &markerScanner{}
}

// feed consumes one token and returns the text safe to emit plus a complete
// tool-call payload when its closing marker arrived in this token.
func (s *markerScanner) feed(token string) (emit string, call string, hasCall bool) {
	var out strings.Builder
	rest := token

	for {
		if s.state == stateText {
			buf := s.pending.String() + rest
			s.pending.Reset()
			rest = ""

			if hasCall {
				// One call per feed; whatever follows waits for the next
				// token (the stream stops after a call anyway).
				s.pending.WriteString(buf)
				break
			}

			if i := strings.Index(buf, toolCallOpen); i >= 0 {
				out.WriteString(buf[:i])
				s.state = stateCollecting
				rest = buf[i+len(toolCallOpen):]
				if rest == "" {
					break
				}
				continue
			}

			hold := partialMarkerSuffix(buf, toolCallOpen)
			out.WriteString(buf[:len(buf)-hold])
			s.pending.WriteString(buf[len(buf)-hold:])
			break
		}

		// Collecting: hold everything until the closing marker shows up.
		buf := s.call.String() + rest
		s.call.Reset()
		rest = ""

		i := strings.Index(buf, toolCallClose)
		if i < 0 {
			s.call.WriteString(buf)
			break
		}

		call = buf[:i]
		hasCall = true
		s.state = stateText
		rest = buf[i+len(toolCallClose):]
		if rest == "" {
			break
		}
	}
	return out.String(), call, hasCall
}

// unterminated reports whether the stream ended inside a tool call.
func (s *markerScanner) unterminated() bool {
	return s.state == stateCollecting
}

// flush returns any held-back text at end of stream. A partial open-marker
// prefix that never completed is plain text after all.
func (s *markerScanner) flush() string {
	if s.state != stateText {
		return ""
	}
	out := s.pending.String()
	s.pending.Reset()
	return out
}

// partialMarkerSuffix returns the length of the longest suffix of buf that
// is a proper prefix of marker.
func partialMarkerSuffix(buf, marker string) int {
	max := len(marker) - 1
	if max > len(buf) {
		max = len(buf)
	}
	for n := max; n > 0; n-- {
		if strings.HasSuffix(buf, marker[:n]) {
			return n
		}
	}
	return 0
}
