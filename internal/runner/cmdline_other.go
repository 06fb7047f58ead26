//go:build !windows

package runner

import "os/exec"

// setCommandLine is a no-op: the argv from SplitCommandLine is used.
func setCommandLine(cmd *exec.Cmd, exe, args string) {}
