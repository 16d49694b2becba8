// Package kmain wires the virtual memory core's boot sequence together:
// frame allocator init, memory subsystem init, heap bootstrap, process
// table construction (spec.md §2 data flow). Acquiring the boot payload
// itself — the handshake with a real bootloader — is out of scope
// (spec.md §1); Kmain takes it as an argument instead, the same shape the
// teacher's kernel/kmain.Kmain takes the multiboot info pointer in.
package kmain

import (
	"vmkernel/bootinfo"
	"vmkernel/kernel"
	"vmkernel/kernel/cpu"
	"vmkernel/kernel/kfmt"
	"vmkernel/kernel/mm/heap"
	"vmkernel/kernel/mm/pmm"
	"vmkernel/kernel/mm/vmm"
	"vmkernel/kernel/proc"
)

var errKmainReturned = &kernel.Error{Module: "kmain", Message: "Kmain returned"}

// processTable is the fixed NPROC-slot process table (spec.md §4.8),
// constructed once boot has reached a point where a process can be
// scheduled.
var processTable proc.Table

// Kmain runs the boot-time data flow spec.md §2 describes: frame allocator
// init (reads the memory map) → memory subsystem init (stores the
// physical-memory offset) → heap bootstrap (uses the frame allocator to
// walk/install PTEs for the heap's virtual range, then hands that range to
// the general-purpose allocator) → process table construction. Kmain never
// returns: if any step fails it panics with that step's error (spec.md §7:
// heap init failure aborts boot), and once every step has succeeded it
// panics with errKmainReturned, as it has nothing further to run.
func Kmain(info bootinfo.Info) {
	frameAlloc := pmm.New(info.MemoryMap)

	vmm.Init(info.PhysicalMemoryOffset, cpu.ReadCR3)

	root := vmm.ActivePageTable()
	if err := heap.Init(root, frameAlloc); err != nil {
		kfmt.Panic(err)
	}

	if _, err := processTable.AllocateProcess(); err != nil {
		kfmt.Panic(err)
	}

	kfmt.Panic(errKmainReturned)
}
