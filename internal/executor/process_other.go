//go:build !windows

package executor

import "os/exec"

// hideWindow is a no-op: only Windows opens console windows for child processes
func hideWindow(*exec.Cmd) {}
