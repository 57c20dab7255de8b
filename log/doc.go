// Package log provides a simple, leveled logging facade for the tickflow
// runtime.
//
// The scheduler reports tick advancement, stratum transitions and loop
// iteration boundaries at debug level; graph construction problems and
// aborted ticks are reported at error level. Applications that embed a runtime
// can route this output into their own logging setup by implementing the
// Logger interface, or by wrapping a kataras/golog logger with
// NewGologLogger.
//
// # Log Levels
//
// Five levels, in order of increasing severity:
//
//   - LogLevelDebug: scheduler internals (tick/stratum/loop transitions)
//   - LogLevelInfo: general informational messages
//   - LogLevelWarn: potentially problematic situations
//   - LogLevelError: failures that need attention
//   - LogLevelNone: disables all output
//
// # Example
//
//	// Watch the scheduler work:
//	log.SetLogLevel(log.LogLevelDebug)
//
//	// Or route into an existing golog logger:
//	gl := golog.New()
//	log.SetDefaultLogger(log.NewGologLogger(gl))
//
// Messages below the configured level are filtered out before formatting.
package log
