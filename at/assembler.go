package at

import "strings"

// Assembler joins decoded fragments of a serial stream into complete lines.
//
// Fragments carry no alignment guarantee: one line may arrive in many
// fragments, and one fragment may close several lines. A CRLF split across
// two fragments is still recognised.
type Assembler struct {
	buf strings.Builder
}

// Feed appends fragment and returns every line it completed, in order and
// without the terminator. Text after the last terminator stays buffered.
func (a *Assembler) Feed(fragment string) []string {
	if fragment == "" {
		return nil
	}
	s := a.buf.String() + fragment
	a.buf.Reset()

	var lines []string
	for {
		i := strings.Index(s, CRLF)
		if i < 0 {
			break
		}
		lines = append(lines, s[:i])
		s = s[i+len(CRLF):]
	}
	a.buf.WriteString(s)
	return lines
}

// Pending returns the buffered partial line.
func (a *Assembler) Pending() string {
	return a.buf.String()
}

// Reset drops any buffered partial line.
func (a *Assembler) Reset() {
	a.buf.Reset()
}
