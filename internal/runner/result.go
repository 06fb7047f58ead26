package runner

import "time"

// Result holds the outcome of one runner process.
type Result struct {
	RunID           string    // unique identifier for this run
	ExitCode        int       // process exit code; advisory only
	Stdout          []byte    // captured stdout (may be truncated)
	Stderr          []byte    // captured stderr (may be truncated)
	Truncated       bool      // true if stdout exceeded the size cap
	StderrTruncated bool      // true if stderr exceeded the size cap
	Start           time.Time // taken immediately before the process starts
	End             time.Time // taken immediately after the process exit is confirmed
}
