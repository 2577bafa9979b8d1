package modem

import (
	"slices"
	"strings"
)

// Status is the terminal status of a command exchange.
type Status string

const (
	StatusNone  Status = ""
	StatusOK    Status = "OK"
	StatusError Status = "ERROR"
)

// Result is the outcome of one command: its terminal status and every line
// the modem sent for it, the terminal line included. A Result is built during
// a single exchange and is read-only once returned.
type Result struct {
	status Status
	lines  []string
}

func (r *Result) addLine(line string) {
	r.lines = append(r.lines, line)
}

func (r *Result) setStatus(s Status) {
	r.status = s
}

func (r *Result) Status() Status {
	return r.status
}

// OK reports whether the modem answered OK.
func (r *Result) OK() bool {
	return r.status == StatusOK
}

// Lines returns a copy of the response lines.
func (r *Result) Lines() []string {
	return slices.Clone(r.lines)
}

// Text returns the response lines joined with newlines.
func (r *Result) Text() string {
	return strings.Join(r.lines, "\n")
}
