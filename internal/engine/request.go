package engine

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/deixis/rxlaunch/internal/runner"
)

// ScriptType says how the test script is attached to a request.
type ScriptType string

const (
	// Linked scripts reference an executable on disk, optionally followed
	// by "|extra runner arguments".
	Linked ScriptType = "linked"
	// Embedded scripts carry their content inline. The runner cannot
	// execute them.
	Embedded ScriptType = "embedded"
)

// UnmarshalJSON accepts the type name case-insensitively. An empty value
// means Linked.
func (t *ScriptType) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	switch ScriptType(strings.ToLower(s)) {
	case "", Linked:
		*t = Linked
	case Embedded:
		*t = Embedded
	default:
		return fmt.Errorf("unknown script type %q", s)
	}
	return nil
}

// Request describes one test execution.
type Request struct {
	Type       ScriptType     `json:"type"`
	Script     string         `json:"script"`
	Parameters []runner.Param `json:"parameters,omitempty"`
	TestSetID  int            `json:"test_set_id"`
	TestCaseID int            `json:"test_case_id"`
	RunnerName string         `json:"runner_name,omitempty"`
	ProjectID  int            `json:"project_id,omitempty"`
}

// resultName is the base name shared by the output directory and the
// result file, e.g. "TS12_TC34".
func (r Request) resultName() string {
	return fmt.Sprintf("TS%d_TC%d", r.TestSetID, r.TestCaseID)
}
