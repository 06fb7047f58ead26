//go:build windows

package runner

import (
	"os/exec"
	"syscall"
)

// setCommandLine hands the composed argument string to the OS unchanged,
// so quoting such as /param:name="a b" reaches the runner exactly as built.
func setCommandLine(cmd *exec.Cmd, exe, args string) {
	line := syscall.EscapeArg(exe)
	if args != "" {
		line += " " + args
	}
	cmd.SysProcAttr = &syscall.SysProcAttr{CmdLine: line}
}
