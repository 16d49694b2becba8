// Package proc implements the process skeleton: a fixed-size table of
// process slots with the state-machine transitions spec.md §4.8 names.
// It is a placeholder — no context switch or scheduler exists yet
// (spec.md §1 Non-goals, §9 Open Questions) — so its design obligations
// stop at the transitions below.
package proc

import (
	"vmkernel/kernel"
	"vmkernel/kernel/mm/vmm"
	ksync "vmkernel/kernel/sync"
)

// NPROC is the fixed number of process slots the table holds.
const NPROC = 2

// State is one of a process slot's lifecycle states (spec.md §4.8).
type State uint8

const (
	// Available marks a slot with no process in it.
	Available State = iota
	// Ready marks a slot holding a process eligible to run but not
	// currently running.
	Ready
	// Running marks the slot of the process currently executing.
	Running
	// Blocked marks a slot holding a process waiting on an event.
	Blocked
	// Zombie marks a slot holding a process that has exited but whose
	// exit code has not yet been collected.
	Zombie
)

var errTableFull = &kernel.Error{Module: "proc", Message: "process table full"}

// Process is one slot of the fixed-size process table.
type Process struct {
	mu        ksync.Spinlock
	state     State
	pid       uint64
	exitCode  int
	pageTable vmm.PageTable
}

// State returns the process's current lifecycle state.
func (p *Process) State() State {
	p.mu.Acquire()
	defer p.mu.Release()
	return p.state
}

// PID returns the process's assigned process id.
func (p *Process) PID() uint64 {
	p.mu.Acquire()
	defer p.mu.Release()
	return p.pid
}

// PageTable returns the process's own page-table copy (spec.md §3
// Lifecycle, §4.8). This kernel only ever runs a single address space in
// practice (spec.md §1 Non-goals rules out per-process address spaces);
// the per-slot copy exists because the original design leaves the door
// open to that without committing to context-switch code (spec.md §9
// Open Questions).
func (p *Process) PageTable() *vmm.PageTable {
	return &p.pageTable
}

// Table is the fixed-size array of process slots plus the PID counter
// that hands out new process ids (spec.md §4.8).
type Table struct {
	mu      ksync.Spinlock
	slots   [NPROC]Process
	nextPID uint64
}

// AllocateProcess scans the table for the first Available slot, transitions
// it to Ready, assigns the next PID, and installs a fresh, empty page table
// (spec.md §4.8). Returns errTableFull if every slot is occupied.
func (t *Table) AllocateProcess() (*Process, *kernel.Error) {
	t.mu.Acquire()
	defer t.mu.Release()

	for i := range t.slots {
		slot := &t.slots[i]

		slot.mu.Acquire()
		if slot.state != Available {
			slot.mu.Release()
			continue
		}

		t.nextPID++
		slot.pid = t.nextPID
		slot.state = Ready
		slot.exitCode = 0
		slot.pageTable.Zero()
		slot.mu.Release()

		return slot, nil
	}

	return nil, errTableFull
}
