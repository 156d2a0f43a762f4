package profiler

import (
	"io"
	"os"
	"testing"
	"time"

	"github.com/Carmen-Shannon/oxy-anim/common"
)

func TestMain(m *testing.M) {
	common.SetLogOutput(io.Discard)
	os.Exit(m.Run())
}

func TestRecordSummarizesInterval(t *testing.T) {
	p := NewProfiler(time.Second)
	start := time.Unix(1000, 0)
	clock := start
	p.lastTime = start
	p.now = func() time.Time { return clock }

	if p.Record(2 * time.Millisecond) {
		t.Fatal("logged before the interval elapsed")
	}
	clock = start.Add(500 * time.Millisecond)
	if p.Record(6 * time.Millisecond) {
		t.Fatal("logged before the interval elapsed")
	}
	clock = start.Add(2 * time.Second)
	if !p.Record(4 * time.Millisecond) {
		t.Fatal("expected a summary once the interval elapsed")
	}

	s := p.Snapshot()
	if s.TicksPerSecond != 1.5 {
		t.Errorf("ticks/s = %f, want 1.5", s.TicksPerSecond)
	}
	if s.MeanTick != 4*time.Millisecond {
		t.Errorf("mean = %s, want 4ms", s.MeanTick)
	}
	if s.MaxTick != 6*time.Millisecond {
		t.Errorf("max = %s, want 6ms", s.MaxTick)
	}

	// The next interval starts from scratch.
	clock = start.Add(3 * time.Second)
	if !p.Record(time.Millisecond) {
		t.Fatal("expected a second summary")
	}
	if got := p.Snapshot().MaxTick; got != time.Millisecond {
		t.Errorf("max after reset = %s, want 1ms", got)
	}
}

func TestNewProfilerDefaultsInterval(t *testing.T) {
	if p := NewProfiler(0); p.updateInterval != time.Second {
		t.Errorf("interval = %s, want 1s", p.updateInterval)
	}
}
