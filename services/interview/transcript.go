package interview

import (
	"strings"
)

// FlattenTranscript renders the turn sequence as a human-readable transcript:
// one "<ROLE>: <content>" line per turn, joined by a blank line. The output
// is byte-for-byte deterministic for a given sequence.
func FlattenTranscript(turns []Turn) string {
	if len(turns) == 0 {
		return ""
	}
	lines := make([]string, 0, len(turns))
	for _, turn := range turns {
		lines = append(lines, strings.ToUpper(string(turn.Role))+": "+turn.Content)
	}
	return strings.Join(lines, "\n\n")
}
