package profile

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"runtime/pprof"
	"slices"
)

// KindCPU is the CPU profile. Every other kind is a snapshot written by
// [Profiler.Stop].
const KindCPU = "cpu"

// ErrUnknownProfile indicates an unsupported profile kind.
var ErrUnknownProfile = errors.New("unknown profile")

// Kinds returns the supported profile kinds.
func Kinds() []string {
	return []string{KindCPU, "heap", "allocs", "goroutine", "threadcreate", "block", "mutex"}
}

// Profiler controls the lifecycle of runtime profiling sessions.
//
// Call [Profiler.Start] to begin profiling and [Profiler.Stop] to write all
// enabled profiles.
//
// Create instances with [Config.NewProfiler].
type Profiler struct {
	cpuFile *os.File
	Config
}

// Path returns the output file of the given profile kind.
func (p *Profiler) Path(kind string) string {
	return filepath.Join(p.Dir, kind+".pprof")
}

// Start configures runtime profiling rates and starts CPU profiling if
// enabled. Call [Profiler.Stop] when profiling is complete to write snapshot
// profiles. Nothing is configured when no profile is enabled.
func (p *Profiler) Start() error {
	err := p.Validate()
	if err != nil {
		return err
	}

	if len(p.Profiles) == 0 {
		return nil
	}

	runtime.MemProfileRate = p.MemProfileRate
	runtime.SetBlockProfileRate(p.BlockProfileRate)
	runtime.SetMutexProfileFraction(p.MutexProfileFraction)

	if p.Dir != "" {
		err = os.MkdirAll(p.Dir, 0o755)
		if err != nil {
			return fmt.Errorf("creating profile directory: %w", err)
		}
	}

	if slices.Contains(p.Profiles, KindCPU) {
		f, err := os.Create(p.Path(KindCPU)) //nolint:gosec // Profile path from CLI flag is expected.
		if err != nil {
			return fmt.Errorf("creating CPU profile: %w", err)
		}

		p.cpuFile = f

		err = pprof.StartCPUProfile(f)
		if err != nil {
			//nolint:errcheck // The start error is more useful.
			p.cpuFile.Close()

			p.cpuFile = nil

			return fmt.Errorf("starting CPU profile: %w", err)
		}
	}

	return nil
}

// Stop stops CPU profiling and writes all enabled snapshot profiles.
func (p *Profiler) Stop() error {
	if p.cpuFile != nil {
		pprof.StopCPUProfile()

		err := p.cpuFile.Close()
		p.cpuFile = nil

		if err != nil {
			return fmt.Errorf("closing CPU profile: %w", err)
		}
	}

	for _, kind := range p.Profiles {
		if kind == KindCPU {
			continue
		}

		err := p.writeProfile(kind)
		if err != nil {
			return fmt.Errorf("write %s profile: %w", kind, err)
		}
	}

	return nil
}

// writeProfile writes a named pprof profile to its file.
func (p *Profiler) writeProfile(kind string) error {
	prof := pprof.Lookup(kind)
	if prof == nil {
		return fmt.Errorf("%w: %s", ErrUnknownProfile, kind)
	}

	f, err := os.Create(p.Path(kind)) //nolint:gosec // Profile path from CLI flag is expected.
	if err != nil {
		return fmt.Errorf("create %s profile: %w", kind, err)
	}

	err = prof.WriteTo(f, 0)
	if err != nil {
		//nolint:errcheck // The write error is more useful.
		f.Close()

		return fmt.Errorf("write %s profile: %w", kind, err)
	}

	err = f.Close()
	if err != nil {
		return fmt.Errorf("write %s profile: %w", kind, err)
	}

	return nil
}
