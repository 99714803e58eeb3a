package anim

import (
	"math"
	"testing"
	"time"

	"github.com/decker502/lovetap/pkg/clock"
)

const ms = time.Millisecond

func approx(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

func TestTimingInterpolatesLazily(t *testing.T) {
	s := clock.NewScheduler()
	v := NewValue(0)
	done := false
	Timing(v, 10, 1000*ms, Linear).Start(s, func() { done = true })

	s.Advance(250 * ms)
	if !approx(v.Get(), 2.5) {
		t.Errorf("value at 250ms: got %v, want 2.5", v.Get())
	}
	if done {
		t.Error("timing finished early")
	}

	s.Advance(750 * ms)
	if !done {
		t.Fatal("timing should be done at 1000ms")
	}
	if v.Get() != 10 {
		t.Errorf("final value: got %v, want 10", v.Get())
	}
}

func TestTimingStopFreezesValue(t *testing.T) {
	s := clock.NewScheduler()
	v := NewValue(0)
	done := false
	n := Timing(v, 100, 1000*ms, Linear)
	n.Start(s, func() { done = true })

	s.Advance(400 * ms)
	n.Stop()
	s.Advance(time.Second)

	if done {
		t.Error("stopped timing called done")
	}
	if !approx(v.Get(), 40) {
		t.Errorf("frozen value: got %v, want 40", v.Get())
	}
}

func TestTimingFuncEvaluatesTargetAtStart(t *testing.T) {
	s := clock.NewScheduler()
	v := NewValue(0)
	target := 1.0
	n := TimingFunc(v, func() float64 { return target }, 100*ms, nil)
	target = 7
	n.Start(s, func() {})
	s.Advance(100 * ms)
	if v.Get() != 7 {
		t.Errorf("value: got %v, want 7", v.Get())
	}
}

func TestSequenceRunsInOrder(t *testing.T) {
	s := clock.NewScheduler()
	var log []time.Duration
	mark := func() { log = append(log, s.Now()) }

	seq := Sequence(
		Delay(100*ms),
		Call(mark),
		Delay(200*ms),
		Call(mark),
	)
	finished := time.Duration(-1)
	seq.Start(s, func() { finished = s.Now() })
	s.Advance(time.Second)

	if len(log) != 2 || log[0] != 100*ms || log[1] != 300*ms {
		t.Errorf("marks: got %v, want [100ms 300ms]", log)
	}
	if finished != 300*ms {
		t.Errorf("finished at: got %v, want 300ms", finished)
	}
}

func TestParallelCompletesAtMaxChild(t *testing.T) {
	s := clock.NewScheduler()
	finished := time.Duration(-1)
	Parallel(Delay(100*ms), Delay(700*ms), Delay(300*ms)).Start(s, func() { finished = s.Now() })
	s.Advance(time.Second)
	if finished != 700*ms {
		t.Errorf("finished at: got %v, want 700ms", finished)
	}
}

func TestEmptyGroupsCompleteImmediately(t *testing.T) {
	s := clock.NewScheduler()
	seqDone, parDone := false, false
	Sequence().Start(s, func() { seqDone = true })
	Parallel().Start(s, func() { parDone = true })
	if !seqDone || !parDone {
		t.Errorf("empty groups: sequence=%v parallel=%v, want both done", seqDone, parDone)
	}
}

func TestLoopFiniteAndInfinite(t *testing.T) {
	s := clock.NewScheduler()
	finiteDone := time.Duration(-1)
	Loop(Delay(50*ms), 5).Start(s, func() { finiteDone = s.Now() })

	count := 0
	infinite := Loop(Sequence(Delay(100*ms), Call(func() { count++ })), 0)
	infinite.Start(s, func() { t.Error("infinite loop should never complete") })

	s.Advance(1050 * ms)
	if finiteDone != 250*ms {
		t.Errorf("finite loop done at: got %v, want 250ms", finiteDone)
	}
	if count != 10 {
		t.Errorf("infinite loop iterations: got %d, want 10", count)
	}

	infinite.Stop()
	s.Advance(time.Second)
	if count != 10 {
		t.Errorf("iterations after stop: got %d, want 10", count)
	}
}

func TestLoopWithSynchronousBody(t *testing.T) {
	s := clock.NewScheduler()
	calls := 0
	done := false
	Loop(Call(func() { calls++ }), 20).Start(s, func() { done = true })
	if calls != 20 || !done {
		t.Errorf("sync loop: calls=%d done=%v, want 20 true", calls, done)
	}
}

func TestStopSequenceStopsNestedParallel(t *testing.T) {
	s := clock.NewScheduler()
	v := NewValue(0)
	fired := false
	seq := Sequence(
		Parallel(Timing(v, 1, time.Second, Linear), Delay(2*time.Second)),
		Call(func() { fired = true }),
	)
	seq.Start(s, func() {})
	s.Advance(500 * ms)
	seq.Stop()
	s.Advance(5 * time.Second)

	if fired {
		t.Error("step after stopped parallel ran")
	}
	if s.Pending() != 0 {
		t.Errorf("pending timers: got %d, want 0", s.Pending())
	}
}

func TestNodesUnderCancelledGroup(t *testing.T) {
	s := clock.NewScheduler()
	g := clock.NewGroup(s)
	v := NewValue(3)
	done := false
	Sequence(Timing(v, 9, time.Second, nil), Call(func() { done = true })).Start(g, func() {})

	s.Advance(500 * ms)
	g.Cancel()
	s.Advance(time.Second)

	if done {
		t.Error("callback ran after group cancel")
	}
	if s.Pending() != 0 {
		t.Errorf("pending timers: got %d, want 0", s.Pending())
	}
}

func TestStartUnderCancelledGroupLeavesValue(t *testing.T) {
	s := clock.NewScheduler()
	g := clock.NewGroup(s)
	g.Cancel()
	v := NewValue(3)
	Timing(v, 9, time.Second, nil).Start(g, func() { t.Error("done called under cancelled group") })
	s.Advance(2 * time.Second)
	if v.Get() != 3 {
		t.Errorf("value: got %v, want 3", v.Get())
	}
}
