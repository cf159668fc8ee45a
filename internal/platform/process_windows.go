//go:build windows

package platform

import (
	"os/exec"
	"strconv"
	"syscall"

	"golang.org/x/sys/windows"
)

// PrepareCommand starts the child in a new process group without a console window.
func PrepareCommand(cmd *exec.Cmd) {
	cmd.SysProcAttr = &syscall.SysProcAttr{
		CreationFlags: windows.CREATE_NEW_PROCESS_GROUP,
		HideWindow:    true,
	}
}

// TerminateProcess ends the process tree of cmd. Windows has no SIGTERM.
func TerminateProcess(cmd *exec.Cmd) error {
	return KillProcess(cmd)
}

// KillProcess force-kills the process tree of cmd.
func KillProcess(cmd *exec.Cmd) error {
	if cmd == nil || cmd.Process == nil {
		return nil
	}
	pid := strconv.Itoa(cmd.Process.Pid)
	if err := exec.Command("taskkill", "/T", "/F", "/PID", pid).Run(); err == nil {
		return nil
	}
	return cmd.Process.Kill()
}
