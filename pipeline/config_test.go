package pipeline

import (
	"os"
	"runtime"
	"testing"
)

func TestNumWorkersOverrideWins(t *testing.T) {
	t.Setenv("PIXZ_WORKERS", "7")
	if got := NumWorkers(3); got != 3 {
		t.Fatalf("NumWorkers(3) = %d, want 3", got)
	}
}

func TestNumWorkersFallsBackToEnv(t *testing.T) {
	t.Setenv("PIXZ_WORKERS", "5")
	if got := NumWorkers(0); got != 5 {
		t.Fatalf("NumWorkers(0) = %d, want 5", got)
	}
}

func TestNumWorkersIgnoresInvalidEnv(t *testing.T) {
	t.Setenv("PIXZ_WORKERS", "not-a-number")
	if got := NumWorkers(0); got != runtime.GOMAXPROCS(0) {
		t.Fatalf("NumWorkers(0) = %d, want %d", got, runtime.GOMAXPROCS(0))
	}
}

func TestNumWorkersFallsBackToGOMAXPROCS(t *testing.T) {
	os.Unsetenv("PIXZ_WORKERS")
	if got := NumWorkers(0); got != runtime.GOMAXPROCS(0) {
		t.Fatalf("NumWorkers(0) = %d, want %d", got, runtime.GOMAXPROCS(0))
	}
}
