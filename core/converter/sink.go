package converter

// ProgressSink receives one human-readable line per processed file. The same
// abstraction serves the CLI (stdout/stderr writes) and the interactive shell
// (render channel post), so the batch code never branches on how it is run.
type ProgressSink func(message string, isError bool)

// NopSink discards all progress output.
func NopSink(string, bool) {}
