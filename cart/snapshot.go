package cart

import (
	"encoding/json"
)

// EncodeSnapshot serializes the line sequence. Totals are never persisted.
func EncodeSnapshot(lines []Line) ([]byte, error) {
	if lines == nil {
		lines = []Line{}
	}
	return json.Marshal(lines)
}

// DecodeSnapshot parses a persisted line sequence. Missing, non-array or
// malformed data yields nil, which restores to the empty cart.
func DecodeSnapshot(data []byte) []Line {
	if len(data) == 0 {
		return nil
	}
	var lines []Line
	if err := json.Unmarshal(data, &lines); err != nil {
		return nil
	}
	if !validLines(lines) {
		return nil
	}
	return lines
}
