package player_test

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Sumatoshi-tech/sorttrace/pkg/algorithm"
	"github.com/Sumatoshi-tech/sorttrace/pkg/operation"
	"github.com/Sumatoshi-tech/sorttrace/pkg/player"
)

type fakeTimer struct {
	clock   *fakeClock
	delay   time.Duration
	fn      func()
	stopped bool
}

func (t *fakeTimer) Stop() bool {
	t.clock.mu.Lock()
	defer t.clock.mu.Unlock()

	wasPending := !t.stopped
	t.stopped = true

	return wasPending
}

// fakeClock queues callbacks until Fire is called.
type fakeClock struct {
	mu      sync.Mutex
	pending []*fakeTimer
	delays  []time.Duration
}

func (c *fakeClock) AfterFunc(d time.Duration, f func()) player.Timer {
	c.mu.Lock()
	defer c.mu.Unlock()

	timer := &fakeTimer{clock: c, delay: d, fn: f}
	c.pending = append(c.pending, timer)
	c.delays = append(c.delays, d)

	return timer
}

// Fire runs the oldest live timer. It reports false when nothing is pending.
func (c *fakeClock) Fire() bool {
	c.mu.Lock()

	for len(c.pending) > 0 {
		timer := c.pending[0]
		c.pending = c.pending[1:]

		if timer.stopped {
			continue
		}

		timer.stopped = true
		c.mu.Unlock()

		timer.fn()

		return true
	}

	c.mu.Unlock()

	return false
}

func (c *fakeClock) Pending() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	live := 0

	for _, timer := range c.pending {
		if !timer.stopped {
			live++
		}
	}

	return live
}

func (c *fakeClock) LastDelay() time.Duration {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.delays[len(c.delays)-1]
}

var sample = []float64{3, 1, 4, 1, 5, 9, 2, 6}

func loaded(t *testing.T, opts ...player.Option) (*player.Player, operation.Trace) {
	t.Helper()

	doc, errs := algorithm.Run(algorithm.MergeSortID, algorithm.NewMergeSort(), algorithm.Input{Array: sample})
	require.Empty(t, errs)

	p := player.New(opts...)
	p.Load(doc.Input.Array)
	p.SetOperations(doc.Operations)

	return p, doc.Operations
}

func TestPlayer_IdleCallsAreNoOps(t *testing.T) {
	t.Parallel()

	clock := &fakeClock{}
	p := player.New(player.WithClock(clock))

	p.StepForward()
	p.StepBackward()
	p.Seek(3)
	p.Play()
	p.Reset()

	assert.Equal(t, player.StatusIdle, p.Status())
	assert.Equal(t, 0, p.Snapshot().CurrentStep)
	assert.Zero(t, clock.Pending())
}

func TestPlayer_Load(t *testing.T) {
	t.Parallel()

	p := player.New()
	input := []float64{2, 1}
	p.Load(input)

	input[0] = 99

	snap := p.Snapshot()
	assert.Equal(t, []float64{2, 1}, snap.OriginalArray)
	assert.Equal(t, []float64{2, 1}, snap.CurrentArray)
	assert.Empty(t, snap.Operations)
	assert.Equal(t, player.StatusReady, p.Status())
}

func TestPlayer_StepForwardMatchesReplay(t *testing.T) {
	t.Parallel()

	p, ops := loaded(t)

	for step := 1; step <= len(ops); step++ {
		p.StepForward()
		assert.Equal(t, operation.Replay(sample, ops, step), p.Snapshot().CurrentArray, "step %d", step)
	}

	assert.Equal(t, []float64{1, 1, 2, 3, 4, 5, 6, 9}, p.Snapshot().CurrentArray)
}

func TestPlayer_BoundaryNoOps(t *testing.T) {
	t.Parallel()

	p, ops := loaded(t)

	p.StepBackward()
	assert.Equal(t, 0, p.Snapshot().CurrentStep)
	assert.Equal(t, sample, p.Snapshot().CurrentArray)

	p.Seek(len(ops))
	before := p.Snapshot()

	p.StepForward()
	assert.Equal(t, before, p.Snapshot())
}

func TestPlayer_StepBackward(t *testing.T) {
	t.Parallel()

	p, ops := loaded(t)

	p.Seek(10)
	p.StepBackward()

	snap := p.Snapshot()
	assert.Equal(t, 9, snap.CurrentStep)
	assert.Equal(t, operation.Replay(sample, ops, 9), snap.CurrentArray)
}

func TestPlayer_SeekIdempotence(t *testing.T) {
	t.Parallel()

	p, ops := loaded(t)

	p.Seek(12)
	first := p.Snapshot().CurrentArray

	p.Seek(12)
	assert.Equal(t, first, p.Snapshot().CurrentArray)

	p.Seek(len(ops) - 1)
	p.Seek(3)
	p.Seek(12)
	assert.Equal(t, first, p.Snapshot().CurrentArray)
}

func TestPlayer_SeekClamps(t *testing.T) {
	t.Parallel()

	p, ops := loaded(t)

	p.Seek(len(ops) + 100)
	assert.Equal(t, len(ops), p.Snapshot().CurrentStep)

	p.Seek(-5)
	assert.Equal(t, 0, p.Snapshot().CurrentStep)
	assert.Equal(t, sample, p.Snapshot().CurrentArray)
}

func TestPlayer_SetSpeedClamps(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in   float64
		want float64
	}{
		{in: 0, want: player.MinSpeed},
		{in: -3, want: player.MinSpeed},
		{in: 10, want: player.MaxSpeed},
		{in: 2, want: 2},
	}

	for _, tt := range tests {
		p := player.New()
		p.SetSpeed(tt.in)
		assert.InDelta(t, tt.want, p.Snapshot().Speed, 1e-9, "speed %v", tt.in)
	}

	assert.InDelta(t, player.MaxSpeed, player.New(player.WithSpeed(100)).Snapshot().Speed, 1e-9)
}

func TestPlayer_PlayRunsToEndAndPauses(t *testing.T) {
	t.Parallel()

	clock := &fakeClock{}
	p, ops := loaded(t, player.WithClock(clock), player.WithSpeed(2))

	p.Play()
	assert.Equal(t, player.StatusPlaying, p.Status())
	assert.Equal(t, 500*time.Millisecond, clock.LastDelay())

	ticks := 0
	for clock.Fire() {
		ticks++
	}

	assert.Equal(t, len(ops), ticks)
	assert.Equal(t, player.StatusReady, p.Status())

	snap := p.Snapshot()
	assert.False(t, snap.IsPlaying)
	assert.Equal(t, len(ops), snap.CurrentStep)
	assert.Equal(t, []float64{1, 1, 2, 3, 4, 5, 6, 9}, snap.CurrentArray)
}

func TestPlayer_OneTickInFlight(t *testing.T) {
	t.Parallel()

	clock := &fakeClock{}
	p, _ := loaded(t, player.WithClock(clock))

	p.Play()
	p.Play()
	assert.Equal(t, 1, clock.Pending())

	require.True(t, clock.Fire())
	assert.Equal(t, 1, clock.Pending())
	assert.Equal(t, 1, p.Snapshot().CurrentStep)
}

func TestPlayer_SpeedAppliesOnNextTick(t *testing.T) {
	t.Parallel()

	clock := &fakeClock{}
	p, _ := loaded(t, player.WithClock(clock))

	p.Play()
	assert.Equal(t, time.Second, clock.LastDelay())

	p.SetSpeed(4)
	assert.Equal(t, time.Second, clock.LastDelay())

	require.True(t, clock.Fire())
	assert.Equal(t, 250*time.Millisecond, clock.LastDelay())
}

func TestPlayer_PauseStopsTicks(t *testing.T) {
	t.Parallel()

	clock := &fakeClock{}
	p, _ := loaded(t, player.WithClock(clock))

	p.Play()
	require.True(t, clock.Fire())
	require.True(t, clock.Fire())

	p.Pause()
	p.Pause()

	assert.False(t, clock.Fire())
	assert.Equal(t, 2, p.Snapshot().CurrentStep)
	assert.Equal(t, player.StatusReady, p.Status())
}

func TestPlayer_StaleTickIsIgnored(t *testing.T) {
	t.Parallel()

	clock := &fakeClock{}
	p, _ := loaded(t, player.WithClock(clock))

	p.Play()

	clock.mu.Lock()
	stale := clock.pending[0]
	clock.mu.Unlock()

	p.Pause()

	// A tick that already started racing with Pause must not mutate.
	stale.fn()

	assert.Equal(t, 0, p.Snapshot().CurrentStep)
}

func TestPlayer_PlayAtEndRestarts(t *testing.T) {
	t.Parallel()

	clock := &fakeClock{}
	p, ops := loaded(t, player.WithClock(clock))

	p.Seek(len(ops))
	p.Play()

	snap := p.Snapshot()
	assert.True(t, snap.IsPlaying)
	assert.Equal(t, 0, snap.CurrentStep)
	assert.Equal(t, sample, snap.CurrentArray)
}

func TestPlayer_PlayEmptyTraceIsNoOp(t *testing.T) {
	t.Parallel()

	clock := &fakeClock{}
	p := player.New(player.WithClock(clock))
	p.Load([]float64{1})

	p.Play()

	assert.Equal(t, player.StatusReady, p.Status())
	assert.Zero(t, clock.Pending())
}

func TestPlayer_Reset(t *testing.T) {
	t.Parallel()

	clock := &fakeClock{}
	p, _ := loaded(t, player.WithClock(clock))

	p.Play()
	require.True(t, clock.Fire())
	require.True(t, clock.Fire())

	p.Reset()

	snap := p.Snapshot()
	assert.False(t, snap.IsPlaying)
	assert.Equal(t, 0, snap.CurrentStep)
	assert.Equal(t, sample, snap.CurrentArray)
	assert.False(t, clock.Fire())
}

func TestPlayer_CloseIgnoresPlay(t *testing.T) {
	t.Parallel()

	clock := &fakeClock{}
	p, _ := loaded(t, player.WithClock(clock))

	p.Close()
	p.Play()

	assert.Equal(t, player.StatusReady, p.Status())
	assert.Zero(t, clock.Pending())
}

func TestPlayer_ObserverOrder(t *testing.T) {
	t.Parallel()

	clock := &fakeClock{}

	var steps []int

	observer := func(snap player.Snapshot, m player.Metrics) {
		assert.Equal(t, snap.CurrentStep, m.CurrentStep)
		steps = append(steps, snap.CurrentStep)
	}

	p, _ := loaded(t, player.WithClock(clock), player.WithObserver(observer))
	steps = nil

	p.StepForward()
	p.StepForward()
	p.StepBackward()
	p.Seek(5)

	assert.Equal(t, []int{1, 2, 1, 5}, steps)
}

func TestPlayer_ObserverReadsStateUnderConcurrentChanges(t *testing.T) {
	t.Parallel()

	var p *player.Player

	observer := func(player.Snapshot, player.Metrics) {
		if p == nil {
			return
		}

		snap := p.Snapshot()
		assert.LessOrEqual(t, snap.CurrentStep, snap.TotalSteps)
		assert.Equal(t, snap.CurrentStep, p.Metrics().CurrentStep)
	}

	p, _ = loaded(t, player.WithClock(&fakeClock{}), player.WithObserver(observer))

	const workers, rounds = 4, 200

	var wg sync.WaitGroup

	for w := range workers {
		wg.Add(1)

		go func() {
			defer wg.Done()

			for i := range rounds {
				if (i+w)%2 == 0 {
					p.StepForward()
				} else {
					p.StepBackward()
				}
			}
		}()
	}

	done := make(chan struct{})

	go func() {
		wg.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(10 * time.Second):
		t.Fatal("observer reading state blocked concurrent steps")
	}
}

func TestPlayer_ObserverMayChangeState(t *testing.T) {
	t.Parallel()

	var (
		p     *player.Player
		steps []int
	)

	observer := func(snap player.Snapshot, _ player.Metrics) {
		steps = append(steps, snap.CurrentStep)

		if snap.CurrentStep == 1 {
			p.Seek(5)
		}
	}

	p, _ = loaded(t, player.WithClock(&fakeClock{}), player.WithObserver(observer))
	steps = nil

	p.StepForward()

	assert.Equal(t, []int{1, 5}, steps)
	assert.Equal(t, 5, p.Snapshot().CurrentStep)
}

func TestComputeMetrics(t *testing.T) {
	t.Parallel()

	ops := operation.Trace{
		operation.Compare(0, 1, 2, 1),
		operation.Write(0, 1),
		operation.Write(1, 2),
		operation.Mark(operation.StateSorted, 0, 1),
	}

	m := player.ComputeMetrics(ops, 2)
	assert.Equal(t, player.Metrics{Comparisons: 1, Swaps: 1, ElapsedTime: 2, CurrentStep: 2, TotalSteps: 4}, m)

	m = player.ComputeMetrics(ops, 99)
	assert.Equal(t, 2, m.Swaps)
	assert.Equal(t, 4, m.CurrentStep)
}

func TestStatusString(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "idle", player.StatusIdle.String())
	assert.Equal(t, "ready", player.StatusReady.String())
	assert.Equal(t, "playing", player.StatusPlaying.String())
}
