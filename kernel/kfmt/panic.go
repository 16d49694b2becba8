package kfmt

import (
	"io"

	"vmkernel/kernel"
	"vmkernel/kernel/cpu"
)

var (
	// haltFn is mocked by tests and is automatically inlined by the
	// compiler in the real kernel build.
	haltFn = cpu.Halt

	errUnknownCause = &kernel.Error{Module: "rt", Message: "unknown cause"}
)

// Panic prints the supplied error (if any) to the currently attached output
// sink, or to the early ring buffer if none has been attached yet, and halts
// the CPU. Panic is the target every uninitialized-subsystem fault and every
// invariant violation (spec.md §7) funnels into; it never returns.
func Panic(e interface{}) {
	var err *kernel.Error

	switch t := e.(type) {
	case *kernel.Error:
		err = t
	case string:
		errUnknownCause.Message = t
		err = errUnknownCause
	case error:
		errUnknownCause.Message = t.Error()
		err = errUnknownCause
	case nil:
	default:
		errUnknownCause.Message = "non-error panic value"
		err = errUnknownCause
	}

	module := "kernel"
	if err != nil {
		module = err.Module
	}
	pw := &PrefixWriter{Sink: sinkOrRingBuffer(), Prefix: []byte("[" + module + "] ")}

	Fprintf(pw, "-----------------------------------\n")
	if err != nil {
		Fprintf(pw, "unrecoverable error: %s\n", err.Message)
	}
	Fprintf(pw, "*** kernel panic: system halted ***\n")
	Fprintf(pw, "-----------------------------------\n")

	haltFn()
}

// sinkOrRingBuffer returns the currently attached output sink, falling back
// to the early ring buffer when no sink has been attached yet (mirrors the
// fallback Printf itself applies through doWrite).
func sinkOrRingBuffer() io.Writer {
	if outputSink != nil {
		return outputSink
	}
	return &earlyPrintBuffer
}
