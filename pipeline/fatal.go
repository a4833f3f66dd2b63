package pipeline

import "log"

// Fatal reports a single diagnostic line and aborts, matching
// original_source/write.c's die(): the pipeline cannot meaningfully
// resume from a mid-stream failure (partial output is useless once the
// stream index is inconsistent), so every I/O, codec or tar-parse
// error is fatal — no retry, no skip, no partial-success mode
// (spec.md §7). Tests replace this var so a failure case can be
// observed without killing the test binary.
var Fatal = func(format string, args ...any) {
	log.Fatalf(format, args...)
}
