// Package profile adds runtime profiling capabilities to CLI applications.
//
// It supports CPU, heap, allocs, goroutine, threadcreate, block, and mutex
// profiles through command-line flags. Use [Config.RegisterFlags] to add CLI
// flags and [Config.RegisterCompletions] to wire up shell completions.
//
// Typical usage creates a [Config], registers flags, then creates a [Profiler]
// to wrap command execution:
//
//	cfg := profile.NewConfig()
//	cfg.RegisterFlags(rootCmd.PersistentFlags())
//
//	var p *profile.Profiler
//	rootCmd.PersistentPreRunE = func(_ *cobra.Command, _ []string) error {
//	    p = cfg.NewProfiler()
//	    return p.Start()
//	}
//
// Users can then enable profiling via flags like --profile=cpu,heap, which
// writes cpu.pprof and heap.pprof to --profile-dir.
package profile
