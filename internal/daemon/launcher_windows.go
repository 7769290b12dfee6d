//go:build windows

package daemon

import (
	"errors"
	"os/exec"
	"syscall"
	"unsafe"
)

var (
	kernel32             = syscall.NewLazyDLL("kernel32.dll")
	procTerminateProcess = kernel32.NewProc("TerminateProcess")
	procGetProcessTimes  = kernel32.NewProc("GetProcessTimes")
)

func configureDetachedAttrs(cmd *exec.Cmd) {
	// CREATE_NO_WINDOW keeps the daemon off the console.
	cmd.SysProcAttr = &syscall.SysProcAttr{
		CreationFlags: syscall.CREATE_NEW_PROCESS_GROUP | 0x08000000,
	}
}

// Signal approximates Unix signals: signal 0 probes for existence and
// everything else terminates. Windows offers no graceful SIGTERM, so
// the escalation collapses to a single TerminateProcess.
func (l execLauncher) Signal(pid int, sig syscall.Signal) error {
	if pid < 0 {
		pid = -pid
	}
	if pid == 0 {
		return errors.New("invalid pid")
	}
	if sig == 0 {
		if !l.Alive(pid) {
			return errors.New("process does not exist")
		}
		return nil
	}
	h, err := syscall.OpenProcess(syscall.PROCESS_TERMINATE, false, uint32(pid))
	if err != nil {
		// Already gone.
		return nil
	}
	defer func() { _ = syscall.CloseHandle(h) }()
	ret, _, callErr := procTerminateProcess.Call(uintptr(h), uintptr(1))
	if ret == 0 {
		return callErr
	}
	return nil
}

func (execLauncher) Alive(pid int) bool {
	if pid <= 0 {
		return false
	}
	h, err := syscall.OpenProcess(syscall.PROCESS_QUERY_INFORMATION, false, uint32(pid))
	if err != nil {
		return false
	}
	_ = syscall.CloseHandle(h)
	return true
}

func (execLauncher) StartTime(pid int) int64 {
	if pid <= 0 {
		return 0
	}
	h, err := syscall.OpenProcess(syscall.PROCESS_QUERY_INFORMATION, false, uint32(pid))
	if err != nil {
		return 0
	}
	defer func() { _ = syscall.CloseHandle(h) }()

	var creation, exit, kernel, user syscall.Filetime
	ret, _, _ := procGetProcessTimes.Call(uintptr(h),
		uintptr(unsafe.Pointer(&creation)), uintptr(unsafe.Pointer(&exit)),
		uintptr(unsafe.Pointer(&kernel)), uintptr(unsafe.Pointer(&user)))
	if ret == 0 {
		return 0
	}
	// FILETIME counts 100-ns ticks since 1601-01-01 UTC.
	const ticksPerSecond = 10000000
	const epochDiff = 11644473600
	ft := (uint64(creation.HighDateTime) << 32) | uint64(creation.LowDateTime)
	return int64(ft/ticksPerSecond) - epochDiff
}
