// Copyright © 2026 Groups.io, Inc.
// SPDX-License-Identifier: Apache-2.0

// Package port probes OS-level port occupancy, the liveness signal for
// managed applications.
package port

import (
	"context"
	"fmt"
	"os/exec"
	"sort"
	"strconv"
	"strings"
	"syscall"
	"time"

	ps "github.com/mitchellh/go-ps"
)

const (
	// termGrace is how long Free waits between SIGTERM and SIGKILL.
	termGrace = 1 * time.Second
	// pollInterval is the WaitUntilFree polling granularity.
	pollInterval = 1 * time.Second
)

// Executor runs port introspection tools. Swappable for tests.
type Executor interface {
	// LookPath reports whether a tool is callable.
	LookPath(file string) (string, error)
	// Output runs a tool and returns its stdout. A non-zero exit with
	// empty output is not an error: lsof and fuser exit non-zero when
	// nothing matches.
	Output(ctx context.Context, name string, args ...string) (string, error)
}

// RealExecutor executes real commands.
type RealExecutor struct{}

// LookPath implements Executor.
func (e *RealExecutor) LookPath(file string) (string, error) {
	return exec.LookPath(file)
}

// Output implements Executor.
func (e *RealExecutor) Output(ctx context.Context, name string, args ...string) (string, error) {
	out, err := exec.CommandContext(ctx, name, args...).Output()
	if err != nil {
		if len(out) == 0 {
			if _, ok := err.(*exec.ExitError); ok {
				return "", nil
			}
		}
		return string(out), err
	}
	return string(out), nil
}

// Occupancy is the result of a liveness probe.
type Occupancy struct {
	Occupied bool
	// Verified is false when no introspection tool was available and
	// "free" is the assumed default. Callers rendering status should
	// distinguish this degraded result from a verified "free".
	Verified bool
}

// Owner identifies a process holding a listening socket.
type Owner struct {
	PID  int
	Name string
}

// Prober classifies port occupancy through an ordered tool fallback chain:
// lsof, then ss, then fuser. Absence of every tool degrades to assumed-free
// rather than failing, since a false "occupied" would block legitimate
// starts.
type Prober struct {
	exec Executor
}

// NewProber creates a prober using the real executor.
func NewProber() *Prober {
	return &Prober{exec: &RealExecutor{}}
}

// NewProberWithExecutor creates a prober with a custom executor.
func NewProberWithExecutor(e Executor) *Prober {
	return &Prober{exec: e}
}

// IsOccupied reports whether an OS-level listening socket exists on port.
func (p *Prober) IsOccupied(ctx context.Context, port int) Occupancy {
	if pids, ok := p.lsofPIDs(ctx, port); ok {
		return Occupancy{Occupied: len(pids) > 0, Verified: true}
	}
	if listening, ok := p.ssListening(ctx, port); ok {
		return Occupancy{Occupied: listening, Verified: true}
	}
	if pids, ok := p.fuserPIDs(ctx, port); ok {
		return Occupancy{Occupied: len(pids) > 0, Verified: true}
	}
	return Occupancy{Occupied: false, Verified: false}
}

// OwningPIDs returns the PIDs holding listening sockets on port, via the
// same fallback chain. No tool at all yields an empty set.
func (p *Prober) OwningPIDs(ctx context.Context, port int) []int {
	if pids, ok := p.lsofPIDs(ctx, port); ok {
		return pids
	}
	if pids, ok := p.ssPIDs(ctx, port); ok {
		return pids
	}
	if pids, ok := p.fuserPIDs(ctx, port); ok {
		return pids
	}
	return nil
}

// Owners resolves owning PIDs to process names for display.
func (p *Prober) Owners(ctx context.Context, port int) []Owner {
	pids := p.OwningPIDs(ctx, port)
	owners := make([]Owner, 0, len(pids))
	for _, pid := range pids {
		owner := Owner{PID: pid}
		if proc, err := ps.FindProcess(pid); err == nil && proc != nil {
			owner.Name = proc.Executable()
		}
		owners = append(owners, owner)
	}
	return owners
}

// Free terminates every process owning the port: SIGTERM first, a short
// grace period, then SIGKILL for survivors. Returns true iff no owning PID
// remains afterwards. The port itself may take longer to release; callers
// needing that should follow with WaitUntilFree.
func (p *Prober) Free(ctx context.Context, port int) bool {
	pids := p.OwningPIDs(ctx, port)
	if len(pids) == 0 {
		return true
	}

	for _, pid := range pids {
		syscall.Kill(pid, syscall.SIGTERM)
	}

	select {
	case <-time.After(termGrace):
	case <-ctx.Done():
		return false
	}

	survivors := p.OwningPIDs(ctx, port)
	for _, pid := range survivors {
		syscall.Kill(pid, syscall.SIGKILL)
	}

	return len(p.OwningPIDs(ctx, port)) == 0
}

// WaitUntilFree polls occupancy until the port is free or the timeout
// elapses. Returns true immediately if the port is already free.
func (p *Prober) WaitUntilFree(ctx context.Context, port int, timeout time.Duration) bool {
	deadline := time.Now().Add(timeout)
	for {
		if !p.IsOccupied(ctx, port).Occupied {
			return true
		}
		if time.Now().After(deadline) {
			return false
		}
		select {
		case <-time.After(pollInterval):
		case <-ctx.Done():
			return false
		}
	}
}

// lsofPIDs queries lsof for listener PIDs. ok is false when lsof is not
// callable.
func (p *Prober) lsofPIDs(ctx context.Context, port int) (pids []int, ok bool) {
	if _, err := p.exec.LookPath("lsof"); err != nil {
		return nil, false
	}
	out, err := p.exec.Output(ctx, "lsof", "-nP", "-t", fmt.Sprintf("-iTCP:%d", port), "-sTCP:LISTEN")
	if err != nil {
		return nil, false
	}
	return parsePIDLines(out), true
}

// ssListening checks ss output for a listener on port.
func (p *Prober) ssListening(ctx context.Context, port int) (listening bool, ok bool) {
	lines, ok := p.ssLines(ctx, port)
	if !ok {
		return false, false
	}
	return len(lines) > 0, true
}

// ssPIDs extracts pid=N annotations from ss output. Without privileges ss
// may omit process info; the PIDs are then simply absent.
func (p *Prober) ssPIDs(ctx context.Context, port int) (pids []int, ok bool) {
	lines, ok := p.ssLines(ctx, port)
	if !ok {
		return nil, false
	}

	seen := make(map[int]bool)
	for _, line := range lines {
		for _, field := range strings.Split(line, "pid=") {
			n := 0
			for n < len(field) && field[n] >= '0' && field[n] <= '9' {
				n++
			}
			if n == 0 {
				continue
			}
			if pid, err := strconv.Atoi(field[:n]); err == nil && !seen[pid] {
				seen[pid] = true
				pids = append(pids, pid)
			}
		}
	}
	sort.Ints(pids)
	return pids, true
}

// ssLines returns the ss output lines whose local address ends in :port.
func (p *Prober) ssLines(ctx context.Context, port int) (matches []string, ok bool) {
	if _, err := p.exec.LookPath("ss"); err != nil {
		return nil, false
	}
	out, err := p.exec.Output(ctx, "ss", "-ltnp")
	if err != nil {
		// Retry without -p; process info needs privileges on some systems
		out, err = p.exec.Output(ctx, "ss", "-ltn")
		if err != nil {
			return nil, false
		}
	}

	suffix := ":" + strconv.Itoa(port)
	for _, line := range strings.Split(out, "\n") {
		fields := strings.Fields(line)
		// Header: State Recv-Q Send-Q Local-Address:Port ...
		if len(fields) < 4 || fields[0] != "LISTEN" {
			continue
		}
		if strings.HasSuffix(fields[3], suffix) {
			matches = append(matches, line)
		}
	}
	return matches, true
}

// fuserPIDs queries fuser for the port's owners.
func (p *Prober) fuserPIDs(ctx context.Context, port int) (pids []int, ok bool) {
	if _, err := p.exec.LookPath("fuser"); err != nil {
		return nil, false
	}
	out, err := p.exec.Output(ctx, "fuser", fmt.Sprintf("%d/tcp", port))
	if err != nil {
		return nil, false
	}
	return parsePIDLines(out), true
}

// parsePIDLines extracts whitespace-separated PIDs from tool output.
func parsePIDLines(out string) []int {
	var pids []int
	seen := make(map[int]bool)
	for _, field := range strings.Fields(out) {
		if pid, err := strconv.Atoi(field); err == nil && pid > 0 && !seen[pid] {
			seen[pid] = true
			pids = append(pids, pid)
		}
	}
	sort.Ints(pids)
	return pids
}
