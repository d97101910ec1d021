// Package notes reads and writes the last-seen marker line that assetsync
// keeps inside a hardware record's free-text notes field.
//
// The marker looks like:
//
//	BigFix Last Report: 2025-07-15 10:55:00
//
// Everything else in the notes belongs to people and is never touched.
package notes

import (
	"strings"
	"time"

	"github.com/agentstation/assetsync/pkg/constants"
)

// Parse returns the timestamp on the first marker line in notes. A missing
// or malformed marker yields the zero time, which sorts before every real
// report.
func Parse(notes string) time.Time {
	line, ok := findMarker(notes)
	if !ok {
		return time.Time{}
	}
	_, value, _ := strings.Cut(line, constants.NotesMarker)
	t, err := time.Parse(constants.NotesTimeLayout, strings.TrimSpace(value))
	if err != nil {
		return time.Time{}
	}
	return t
}

// HasMarker reports whether notes contains a marker line at all.
func HasMarker(notes string) bool {
	_, ok := findMarker(notes)
	return ok
}

// Format renders the marker line for t.
func Format(t time.Time) string {
	return constants.NotesMarker + " " + t.Format(constants.NotesTimeLayout)
}

// Patch returns notes with its marker line replaced by one for t. Other lines
// are kept byte for byte. Without a marker the new line is appended.
func Patch(notes string, t time.Time) string {
	marker := Format(t)
	if strings.TrimSpace(notes) == "" {
		return marker
	}

	lines := strings.Split(notes, "\n")
	for i, line := range lines {
		if strings.Contains(line, constants.NotesMarker) {
			// keep a CRLF line ending if the remote stored one
			if strings.HasSuffix(line, "\r") {
				marker += "\r"
			}
			lines[i] = marker
			return strings.Join(lines, "\n")
		}
	}

	if strings.HasSuffix(notes, "\n") {
		return notes + marker
	}
	return notes + "\n" + marker
}

func findMarker(notes string) (string, bool) {
	for _, line := range strings.Split(notes, "\n") {
		if strings.Contains(line, constants.NotesMarker) {
			return strings.TrimRight(line, "\r"), true
		}
	}
	return "", false
}
