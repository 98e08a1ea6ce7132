package profiling

import (
	"strings"
	"testing"
	"time"
)

func TestTrackAccumulates(t *testing.T) {
	ResetTick()
	for range 3 {
		stop := Track("test.Op")
		time.Sleep(time.Millisecond)
		stop()
	}
	Track("test.Cheap")()

	samples := Snapshot()
	if len(samples) != 2 {
		t.Fatalf("Expected 2 samples, got %d", len(samples))
	}
	if samples[0].Name != "test.Op" || samples[0].Count != 3 {
		t.Errorf("Expected test.Op×3 first, got %+v", samples[0])
	}

	top := TopN(1)
	if !strings.HasPrefix(top, "test.Op:") || !strings.HasSuffix(top, "×3") {
		t.Errorf("Unexpected TopN output %q", top)
	}

	ResetTick()
	if got := TopN(5); got != "" {
		t.Errorf("Expected empty report after reset, got %q", got)
	}
}
