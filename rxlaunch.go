// Package rxlaunch holds the identity of the Ranorex launcher and the
// failure kinds shared by its internal packages.
package rxlaunch

// Version is the launcher version reported to hosts.
const Version = "4.0.1"

// ExternalSystem is the display name of the runner being launched.
const ExternalSystem = "Ranorex"

// Descriptor identifies the launcher to the host that requests executions.
// It is a plain value; hosts read it, nothing writes it.
type Descriptor struct {
	Author  string `json:"author"`
	ID      string `json:"id"`
	Name    string `json:"name"`
	Token   string `json:"token"`
	Version string `json:"version"`
}

// Identity returns the launcher descriptor.
func Identity() Descriptor {
	return Descriptor{
		Author:  "step2IT GmbH",
		ID:      "714a64be-78f3-4d17-89bc-984b95d58e6a",
		Name:    "Ranorex Automation Engine",
		Token:   "RanorexEngine",
		Version: Version,
	}
}
