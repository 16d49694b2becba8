// Package cpu declares the small set of amd64 primitives the virtual memory
// core needs to touch real hardware state: the CR3 control register (which
// frame backs the active page-table hierarchy) and the TLB. Each function
// below has no Go body; its implementation lives in cpu_amd64.s, following
// the teacher's convention of keeping architecture-specific assembly out of
// the Go source and declaring only the call signature here.
package cpu

// ReadCR3 returns the physical frame address of the page table currently
// pointed to by the CR3 control register (spec.md §4.5, §6).
func ReadCR3() uintptr

// FlushTLBEntry invalidates the TLB entry for the given virtual address.
// map_page never calls this on the caller's behalf (spec.md §4.4, §9); it is
// exposed so that callers that must honor the ordering guarantee in
// spec.md §5 (install a mapping, then invalidate it, before relying on it)
// have a primitive to do so.
func FlushTLBEntry(virtAddr uintptr)

// Halt stops instruction execution. Used as the terminal action of
// kfmt.Panic.
func Halt()
