// Package report holds the normalized execution report handed back to the
// host, and the stores that keep executions for later inspection.
package report

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/deixis/rxlaunch/internal/status"
)

// FormatPlainText marks the transcript and message as plain text.
const FormatPlainText = "PlainText"

// Store persists and retrieves executions.
type Store interface {
	Save(e *Execution) error
	Load(id string) (*Execution, error)
}

// ErrNotFound is returned by Load when no execution has the given id.
var ErrNotFound = errors.New("execution not found")

// ErrNoHistory is returned by List when the backing store cannot enumerate executions.
var ErrNoHistory = errors.New("store does not keep an execution history")

// Lister is implemented by stores that can enumerate past executions.
type Lister interface {
	// List returns up to limit executions, most recent first, without steps.
	List(limit int) ([]*Execution, error)
}

// Execution is the report of one runner invocation.
type Execution struct {
	ID             string        `json:"id"`
	RunnerName     string        `json:"runner_name"`
	RunnerTestName string        `json:"runner_test_name"`
	TestSetID      int           `json:"test_set_id"`
	TestCaseID     int           `json:"test_case_id"`
	ProjectID      int           `json:"project_id,omitempty"`
	StartDate      time.Time     `json:"start_date"`
	EndDate        time.Time     `json:"end_date"`
	Status         status.Status `json:"status"`
	Message        string        `json:"message"`
	Transcript     string        `json:"transcript"`
	Format         string        `json:"format"`
	ArtifactPath   string        `json:"artifact_path,omitempty"`
	ExitCode       int           `json:"exit_code"`
	Error          string        `json:"error,omitempty"`
	Steps          []Step        `json:"steps,omitempty"`
}

// Step is one runner log item mapped to a test step.
type Step struct {
	Position       int           `json:"position"` // 1-based, no gaps
	Description    string        `json:"description"`
	ExpectedResult string        `json:"expected_result"` // the runner reports no expectations
	ActualResult   string        `json:"actual_result"`
	SampleData     string        `json:"sample_data"`
	Status         status.Status `json:"status"`
}

// AppendStep appends a step at the next position and escalates the
// execution status with the step's status.
func (e *Execution) AppendStep(description, actual string, st status.Status) Step {
	s := Step{
		Position:     len(e.Steps) + 1,
		Description:  description,
		ActualResult: actual,
		Status:       st,
	}
	e.Steps = append(e.Steps, s)
	e.Status = status.Escalate(e.Status, st)
	return s
}

// Duration returns the wall-clock time the runner took.
func (e *Execution) Duration() time.Duration {
	if e.StartDate.IsZero() || e.EndDate.IsZero() {
		return 0
	}
	return e.EndDate.Sub(e.StartDate)
}

// StepsWithStatus returns the steps of e with one of the given statuses.
// With no statuses, every step is returned.
func StepsWithStatus(e *Execution, statuses ...status.Status) []Step {
	if len(statuses) == 0 {
		return e.Steps
	}
	var out []Step
	for _, s := range e.Steps {
		for _, want := range statuses {
			if s.Status == want {
				out = append(out, s)
				break
			}
		}
	}
	return out
}

// Counts tallies steps by status.
func Counts(e *Execution) map[status.Status]int {
	counts := make(map[status.Status]int)
	for _, s := range e.Steps {
		counts[s.Status]++
	}
	return counts
}

// summaryOrder lists step statuses most severe first.
var summaryOrder = []status.Status{status.Failed, status.Caution, status.Passed, status.NotApplicable, status.NotRun}

// Summary describes step counts, e.g. "1 Failed, 3 Passed". Statuses
// without steps are left out; no steps gives "".
func Summary(e *Execution) string {
	counts := Counts(e)
	var parts []string
	for _, st := range summaryOrder {
		if n := counts[st]; n > 0 {
			parts = append(parts, fmt.Sprintf("%d %s", n, st))
		}
	}
	return strings.Join(parts, ", ")
}
