// Package status maps the runner's result codes and step severities to
// the consumer status model and folds step outcomes into a run status.
package status

import (
	"encoding/json"
	"fmt"
)

// Status is a consumer-facing execution status. The numeric values are
// the ones the test-management host uses.
type Status int

const (
	Failed        Status = 1
	Passed        Status = 2
	NotRun        Status = 3
	NotApplicable Status = 4
	Blocked       Status = 5
	Caution       Status = 6
)

var names = map[Status]string{
	Failed:        "Failed",
	Passed:        "Passed",
	NotRun:        "NotRun",
	NotApplicable: "NotApplicable",
	Blocked:       "Blocked",
	Caution:       "Caution",
}

func (s Status) String() string {
	if n, ok := names[s]; ok {
		return n
	}
	return fmt.Sprintf("Status(%d)", int(s))
}

// Parse returns the Status named s.
func Parse(s string) (Status, error) {
	for st, n := range names {
		if n == s {
			return st, nil
		}
	}
	return 0, fmt.Errorf("unknown status %q", s)
}

// MarshalJSON renders the status by name.
func (s Status) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.String())
}

// UnmarshalJSON accepts a status name.
func (s *Status) UnmarshalJSON(data []byte) error {
	var name string
	if err := json.Unmarshal(data, &name); err != nil {
		return err
	}
	st, err := Parse(name)
	if err != nil {
		return err
	}
	*s = st
	return nil
}

// FromResult maps the runner's overall result code. Only exact codes are
// recognised; anything else is Blocked.
func FromResult(code string) Status {
	switch code {
	case "Success":
		return Passed
	case "Failed", "Error":
		return Failed
	case "Warn":
		return Caution
	default:
		return Blocked
	}
}

// FromLevel maps a step severity level. Unrecognised levels are NotRun.
func FromLevel(level string) Status {
	switch level {
	case "Success":
		return Passed
	case "Info":
		return NotApplicable
	case "Warn":
		return Caution
	case "Failure", "Error":
		return Failed
	default:
		return NotRun
	}
}

// Escalate returns the run status after a step with status step.
// Caution only raises Passed, NotRun and NotApplicable; Failed raises
// anything. No step lowers a status or raises it to Blocked.
func Escalate(overall, step Status) Status {
	switch step {
	case Caution:
		switch overall {
		case Passed, NotRun, NotApplicable:
			return Caution
		}
	case Failed:
		return Failed
	}
	return overall
}

// Fold applies Escalate for each step in order.
func Fold(overall Status, steps ...Status) Status {
	for _, s := range steps {
		overall = Escalate(overall, s)
	}
	return overall
}

// Succeeded reports whether s counts as a successful run for exit codes.
func (s Status) Succeeded() bool {
	switch s {
	case Passed, Caution, NotApplicable:
		return true
	}
	return false
}
