package pipeline

import (
	"os"
	"runtime"
	"strconv"
)

// CHUNKSIZE is the size of the pieces the reader pulls input in and the
// writer streams the file-index payload in, matching
// original_source/write.c's CHUNKSIZE usage in tar_read and
// write_file_index_buf.
const CHUNKSIZE = 64 * 1024

// NumWorkers resolves the encoder parallelism N: an explicit override if
// positive, else the PIXZ_WORKERS environment variable, else
// runtime.GOMAXPROCS(0) — spec.md §6's "default is hardware parallelism."
func NumWorkers(override int) int {
	if override > 0 {
		return override
	}
	if v := os.Getenv("PIXZ_WORKERS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			return n
		}
	}
	return runtime.GOMAXPROCS(0)
}
