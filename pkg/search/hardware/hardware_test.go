package hardware

import "testing"

func TestLogicalCores(t *testing.T) {
	if LogicalCores() < 1 {
		t.Fatal("LogicalCores returned less than 1")
	}
}

func TestWorkersForNeverExceedsBounds(t *testing.T) {
	totals := []int64{1, 9_999, 10_000, 99_999, 100_000, 999_999, 1_000_000, 2_147_483_648}
	for _, total := range totals {
		n := WorkersFor(total)
		if n < 1 {
			t.Errorf("WorkersFor(%d) = %d, want at least 1", total, n)
		}
		if n > 8 {
			t.Errorf("WorkersFor(%d) = %d, want at most 8", total, n)
		}
	}
}

func TestWorkersForSmallRangeIsSerial(t *testing.T) {
	if n := WorkersFor(9_999); n != 1 {
		t.Errorf("WorkersFor(9999) = %d, want 1", n)
	}
}
