// Package kernel provides the types and helpers shared by every other
// package in this repository: the kernel-wide error type and the raw memory
// helpers used before a general-purpose allocator exists.
package kernel

import (
	"reflect"
	"unsafe"
)

// Error describes a kernel-level failure. All kernel errors are defined as
// package-level variables that are pointers to Error. This requirement stems
// from the fact that a general-purpose allocator is not guaranteed to be
// available when an error needs to be constructed, so errors.New (which
// allocates) cannot be used.
type Error struct {
	// Module names the package that generated the error.
	Module string

	// Message describes what went wrong.
	Message string
}

// Error implements the error interface.
func (e *Error) Error() string {
	return e.Message
}

// Memset fills the count bytes starting at addr with value. It is used to
// zero-initialize page frames and other freshly allocated physical memory
// before it is linked into a live data structure.
func Memset(addr uintptr, value byte, count uintptr) {
	buf := *(*[]byte)(unsafe.Pointer(&reflect.SliceHeader{
		Data: addr,
		Len:  int(count),
		Cap:  int(count),
	}))

	for i := range buf {
		buf[i] = value
	}
}
