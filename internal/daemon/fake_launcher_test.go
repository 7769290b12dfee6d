package daemon

import (
	"errors"
	"sync"
	"syscall"
	"time"
)

// fakeProc is one process tracked by fakeLauncher.
type fakeProc struct {
	start      int64
	alive      bool
	ignoreTerm bool
}

// fakeLauncher simulates the process backend so lifecycle tests run
// without real daemons. SIGTERM kills a process unless it was launched
// with ignoreTerm; SIGKILL always does.
type fakeLauncher struct {
	mu         sync.Mutex
	nextPID    int
	procs      map[int]*fakeProc
	starts     int
	startErr   error
	ignoreTerm bool
}

func newFakeLauncher() *fakeLauncher {
	return &fakeLauncher{nextPID: 4000, procs: make(map[int]*fakeProc)}
}

func (f *fakeLauncher) Start(LaunchSpec) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.startErr != nil {
		return 0, f.startErr
	}
	f.nextPID++
	f.starts++
	f.procs[f.nextPID] = &fakeProc{
		start:      time.Now().Unix(),
		alive:      true,
		ignoreTerm: f.ignoreTerm,
	}
	return f.nextPID, nil
}

func (f *fakeLauncher) Signal(pid int, sig syscall.Signal) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if pid < 0 {
		pid = -pid
	}
	p, ok := f.procs[pid]
	if !ok || !p.alive {
		return errors.New("no such process")
	}
	switch sig {
	case syscall.Signal(0):
	case syscall.SIGTERM:
		if !p.ignoreTerm {
			p.alive = false
		}
	case syscall.SIGKILL:
		p.alive = false
	}
	return nil
}

func (f *fakeLauncher) Alive(pid int) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.procs[pid]
	return ok && p.alive
}

func (f *fakeLauncher) StartTime(pid int) int64 {
	f.mu.Lock()
	defer f.mu.Unlock()
	if p, ok := f.procs[pid]; ok {
		return p.start
	}
	return 0
}

// exit marks pid dead, as if the daemon shut itself down.
func (f *fakeLauncher) exit(pid int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if p, ok := f.procs[pid]; ok {
		p.alive = false
	}
}

func (f *fakeLauncher) startCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.starts
}
