package pipeline

import "testing"

func TestTarEntryPadding(t *testing.T) {
	tests := []struct {
		size int64
		want uint64
	}{
		{0, 0},
		{1, 511},
		{12, 500},
		{511, 1},
		{512, 0},
		{513, 511},
		{1024, 0},
	}
	for _, tc := range tests {
		if got := tarEntryPadding(tc.size); got != tc.want {
			t.Errorf("tarEntryPadding(%d) = %d, want %d", tc.size, got, tc.want)
		}
	}
}
