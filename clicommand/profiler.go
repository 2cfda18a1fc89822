package clicommand

import (
	"os"
	"path/filepath"
	"runtime"
	"runtime/pprof"
	"runtime/trace"

	"github.com/gantry-ci/gantry/logger"
)

// Accepted --profile values, mapped to the canonical profile name used in
// the output filename.
var profileNames = map[string]string{
	"cpu":    "cpu",
	"mem":    "mem",
	"memory": "mem",
	"mutex":  "mutex",
	"block":  "block",
	"thread": "thread",
	"trace":  "trace",
}

// Profile starts collecting the named profile, and returns the function that
// stops collection and flushes the output file. An unknown mode is fatal.
func Profile(l logger.Logger, mode string) func() {
	name, ok := profileNames[mode]
	if !ok {
		l.Fatal("Unknown profile mode %q (want cpu, mem, mutex, block, thread, or trace)", mode)
	}

	dir, err := os.MkdirTemp("", "profile")
	if err != nil {
		l.Fatal("Could not create profile output directory: %v", err)
	}

	fn := filepath.Join(dir, name+".pprof")
	f, err := os.Create(fn)
	if err != nil {
		l.Fatal("Could not create the %s profile file at %q: %v", name, fn, err)
	}

	// Runs after the mode-specific stop, once everything has been written.
	flush := func() {
		if err := f.Close(); err != nil {
			l.Fatal("Could not close the profile file %s: %v", fn, err)
		}
		l.Info("Finished %s profiling, %s", name, fn)
	}

	must := func(err error) {
		if err != nil {
			l.Fatal("Writing the %s profile failed: %v", name, err)
		}
	}

	switch name {
	case "cpu":
		l.Info("Profiling CPU into %s", fn)
		must(pprof.StartCPUProfile(f))
		return func() {
			pprof.StopCPUProfile()
			flush()
		}

	case "mem":
		l.Info("Heap profile will be written to %s", fn)
		return func() {
			must(pprof.WriteHeapProfile(f))
			flush()
		}

	case "mutex":
		runtime.SetMutexProfileFraction(1)
		l.Info("Collecting mutex contention in %s", fn)
		return func() {
			if mp := pprof.Lookup("mutex"); mp != nil {
				must(mp.WriteTo(f, 0))
			}
			runtime.SetMutexProfileFraction(0)
			flush()
		}

	case "block":
		runtime.SetBlockProfileRate(1)
		l.Info("Collecting blocking events in %s", fn)
		return func() {
			if bp := pprof.Lookup("block"); bp != nil {
				must(bp.WriteTo(f, 0))
			}
			runtime.SetBlockProfileRate(0)
			flush()
		}

	case "thread":
		l.Info("Thread creation profile will be written to %s", fn)
		return func() {
			if tp := pprof.Lookup("threadcreate"); tp != nil {
				must(tp.WriteTo(f, 0))
			}
			flush()
		}

	case "trace":
		if err := trace.Start(f); err != nil {
			l.Fatal("Could not start the execution trace: %v", err)
		}
		l.Info("Tracing execution into %s", fn)
		return func() {
			trace.Stop()
			flush()
		}
	}

	return flush
}
