// Package log builds [log/slog] handlers from level and format names.
//
// Three formats are available: [FormatJSON] and [FormatLogfmt] use the
// standard library handlers, and [FormatText] uses the colorized handler of
// [charm.land/log/v2]. Levels are [LevelError], [LevelWarn], [LevelInfo] and
// [LevelDebug].
//
// [Config] binds both choices to CLI flags and their shell completions:
//
//	cfg := log.NewConfig()
//	cfg.RegisterFlags(rootCmd.PersistentFlags())
//	cfg.RegisterCompletions(rootCmd)
//
//	logger, err := cfg.NewLogger(os.Stderr)
//
// While a Bubble Tea program owns the terminal, log output cannot go to it.
// [Config.NewTailLogger] sends records to a [Tail], which keeps the newest
// lines in memory for the program to show in its own view:
//
//	logger, tail, err := cfg.NewTailLogger()
//
//	if line, _, ok := tail.Last(); ok {
//	    // Render line in the status bar.
//	}
package log
