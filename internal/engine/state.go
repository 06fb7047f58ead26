package engine

// State is a stage of the execution pipeline.
type State int32

const (
	Idle State = iota
	Preparing
	Launching
	AwaitingExit
	ParsingResult
	Completed
	Error
)

var stateNames = [...]string{
	Idle:          "Idle",
	Preparing:     "Preparing",
	Launching:     "Launching",
	AwaitingExit:  "AwaitingExit",
	ParsingResult: "ParsingResult",
	Completed:     "Completed",
	Error:         "Error",
}

func (s State) String() string {
	if s >= 0 && int(s) < len(stateNames) {
		return stateNames[s]
	}
	return "Unknown"
}

// Terminal reports whether no further transition follows s.
func (s State) Terminal() bool {
	return s == Completed || s == Error
}

// Status is the health of the engine as seen by the host.
type Status int32

const (
	StatusOK Status = iota
	StatusError
)

func (s Status) String() string {
	if s == StatusError {
		return "Error"
	}
	return "OK"
}
