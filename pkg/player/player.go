// Package player scrubs through a recorded trace. It reconstructs the array at
// any step and can advance on a timer.
package player

import (
	"log/slog"
	"math"
	"slices"
	"sync"
	"time"

	"github.com/Sumatoshi-tech/sorttrace/pkg/operation"
)

// Speed bounds and default.
const (
	MinSpeed     = 0.25
	MaxSpeed     = 4.0
	DefaultSpeed = 1.0
)

const baseTickPeriod = time.Second

// Status is the coarse player state.
type Status int

// Player states.
const (
	StatusIdle Status = iota
	StatusReady
	StatusPlaying
)

func (s Status) String() string {
	switch s {
	case StatusIdle:
		return "idle"
	case StatusReady:
		return "ready"
	case StatusPlaying:
		return "playing"
	default:
		return "unknown"
	}
}

// Snapshot is a copy of the player state. Operations is shared with the
// player and must not be modified.
type Snapshot struct {
	IsPlaying     bool            `json:"is_playing"     yaml:"is_playing"`
	CurrentStep   int             `json:"current_step"   yaml:"current_step"`
	TotalSteps    int             `json:"total_steps"    yaml:"total_steps"`
	Speed         float64         `json:"speed"          yaml:"speed"`
	Operations    operation.Trace `json:"operations"     yaml:"operations"`
	CurrentArray  []float64       `json:"current_array"  yaml:"current_array"`
	OriginalArray []float64       `json:"original_array" yaml:"original_array"`
}

// Observer is notified after every state change, in the order the changes
// happened. Notifications are delivered with no player lock held, by one
// goroutine at a time: usually the one that made the change, otherwise the
// goroutine already delivering. Observers may call any Player method; a
// change made from an observer is delivered after the current notification.
type Observer func(Snapshot, Metrics)

// Option configures a Player.
type Option func(*Player)

// WithClock sets the clock used for playback ticks.
func WithClock(clock Clock) Option {
	return func(p *Player) {
		p.clock = clock
	}
}

// WithObserver registers an observer. May be given several times.
func WithObserver(obs Observer) Option {
	return func(p *Player) {
		if obs != nil {
			p.observers = append(p.observers, obs)
		}
	}
}

// WithSpeed sets the initial speed multiplier. The value is clamped.
func WithSpeed(speed float64) Option {
	return func(p *Player) {
		p.speed = clampSpeed(speed, p.speed)
	}
}

// WithLogger sets the logger for playback transitions.
func WithLogger(logger *slog.Logger) Option {
	return func(p *Player) {
		if logger != nil {
			p.logger = logger
		}
	}
}

// Player owns the current array and the cursor over a trace.
// All methods are safe for concurrent use.
type Player struct {
	mu sync.Mutex

	// pending holds notifications in mutation order; draining is set while
	// one goroutine delivers them.
	pending  []notification
	draining bool

	clock     Clock
	observers []Observer
	logger    *slog.Logger

	loaded   bool
	closed   bool
	playing  bool
	speed    float64
	step     int
	ops      operation.Trace
	current  []float64
	original []float64

	// generation invalidates ticks scheduled before the last play or pause.
	generation uint64
	timer      Timer
}

// New creates an idle player.
func New(opts ...Option) *Player {
	p := &Player{
		clock:  RealClock(),
		speed:  DefaultSpeed,
		logger: slog.Default(),
	}

	for _, opt := range opts {
		opt(p)
	}

	return p
}

// Load installs a new original array and clears the trace.
func (p *Player) Load(array []float64) {
	p.mu.Lock()

	p.stopLocked()
	p.loaded = true
	p.original = slices.Clone(array)
	p.current = slices.Clone(array)
	p.ops = nil
	p.step = 0

	p.emitUnlock()
}

// SetOperations installs a trace and rewinds to step 0.
func (p *Player) SetOperations(ops operation.Trace) {
	p.mu.Lock()

	p.stopLocked()
	p.loaded = true
	p.ops = ops
	p.step = 0
	p.current = slices.Clone(p.original)

	p.emitUnlock()
}

// StepForward applies the next operation. It is a no-op at the end.
func (p *Player) StepForward() {
	p.mu.Lock()

	if !p.loaded || p.step >= len(p.ops) {
		p.mu.Unlock()

		return
	}

	p.forwardLocked()
	p.emitUnlock()
}

// StepBackward moves the cursor back one step. It is a no-op at step 0.
func (p *Player) StepBackward() {
	p.mu.Lock()

	if !p.loaded || p.step == 0 {
		p.mu.Unlock()

		return
	}

	p.seekLocked(p.step - 1)
	p.emitUnlock()
}

// Seek moves the cursor to step, clamped to [0, total steps].
func (p *Player) Seek(step int) {
	p.mu.Lock()

	step = clamp(step, 0, len(p.ops))
	if !p.loaded || step == p.step {
		p.mu.Unlock()

		return
	}

	p.seekLocked(step)
	p.emitUnlock()
}

// Play starts advancing one step per tick. A finished trace restarts from
// the beginning. Playing an empty trace does nothing.
func (p *Player) Play() {
	p.mu.Lock()

	if !p.loaded || p.closed || p.playing || len(p.ops) == 0 {
		p.mu.Unlock()

		return
	}

	if p.step >= len(p.ops) {
		p.seekLocked(0)
	}

	p.playing = true
	p.generation++
	p.scheduleLocked()

	p.logger.Debug("player: play", "step", p.step, "total", len(p.ops), "speed", p.speed)

	p.emitUnlock()
}

// Pause stops playback. No tick mutates the player after Pause returns.
func (p *Player) Pause() {
	p.mu.Lock()

	if !p.playing {
		p.mu.Unlock()

		return
	}

	p.stopLocked()

	p.logger.Debug("player: pause", "step", p.step)

	p.emitUnlock()
}

// Reset pauses and rewinds to step 0.
func (p *Player) Reset() {
	p.mu.Lock()

	if !p.loaded {
		p.mu.Unlock()

		return
	}

	p.stopLocked()
	p.seekLocked(0)
	p.emitUnlock()
}

// SetSpeed sets the playback multiplier, clamped to [MinSpeed, MaxSpeed].
// A pending tick keeps its original delay. NaN is ignored.
func (p *Player) SetSpeed(speed float64) {
	p.mu.Lock()

	next := clampSpeed(speed, p.speed)
	if next == p.speed {
		p.mu.Unlock()

		return
	}

	p.speed = next
	p.emitUnlock()
}

// Close stops playback. Later calls to Play are ignored.
func (p *Player) Close() {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.stopLocked()
	p.closed = true
}

// Snapshot returns a copy of the current state.
func (p *Player) Snapshot() Snapshot {
	p.mu.Lock()
	defer p.mu.Unlock()

	return p.snapshotLocked()
}

// Metrics returns the metrics at the current step.
func (p *Player) Metrics() Metrics {
	p.mu.Lock()
	defer p.mu.Unlock()

	return ComputeMetrics(p.ops, p.step)
}

// Status reports the coarse player state.
func (p *Player) Status() Status {
	p.mu.Lock()
	defer p.mu.Unlock()

	switch {
	case !p.loaded:
		return StatusIdle
	case p.playing:
		return StatusPlaying
	default:
		return StatusReady
	}
}

// TickPeriod is the delay between playback steps at the given speed.
func TickPeriod(speed float64) time.Duration {
	return time.Duration(float64(baseTickPeriod) / speed)
}

func (p *Player) tick(generation uint64) {
	p.mu.Lock()

	if !p.playing || generation != p.generation {
		p.mu.Unlock()

		return
	}

	p.timer = nil

	if p.step < len(p.ops) {
		p.forwardLocked()
	}

	if p.step >= len(p.ops) {
		p.playing = false
		p.generation++

		p.logger.Debug("player: finished", "total", len(p.ops))
	} else {
		p.scheduleLocked()
	}

	p.emitUnlock()
}

func (p *Player) scheduleLocked() {
	generation := p.generation
	p.timer = p.clock.AfterFunc(TickPeriod(p.speed), func() {
		p.tick(generation)
	})
}

func (p *Player) stopLocked() {
	p.playing = false
	p.generation++

	if p.timer != nil {
		p.timer.Stop()
		p.timer = nil
	}
}

func (p *Player) forwardLocked() {
	operation.Apply(p.current, p.ops[p.step])
	p.step++
}

func (p *Player) seekLocked(step int) {
	p.step = clamp(step, 0, len(p.ops))
	p.current = operation.Replay(p.original, p.ops, p.step)
}

func (p *Player) snapshotLocked() Snapshot {
	return Snapshot{
		IsPlaying:     p.playing,
		CurrentStep:   p.step,
		TotalSteps:    len(p.ops),
		Speed:         p.speed,
		Operations:    p.ops,
		CurrentArray:  slices.Clone(p.current),
		OriginalArray: slices.Clone(p.original),
	}
}

type notification struct {
	snap    Snapshot
	metrics Metrics
}

// emitUnlock queues the current state, then releases p.mu. When no other
// goroutine is delivering, the caller drains the queue with p.mu released.
func (p *Player) emitUnlock() {
	if len(p.observers) == 0 {
		p.mu.Unlock()

		return
	}

	p.pending = append(p.pending, notification{
		snap:    p.snapshotLocked(),
		metrics: ComputeMetrics(p.ops, p.step),
	})

	if p.draining {
		p.mu.Unlock()

		return
	}

	p.draining = true

	for len(p.pending) > 0 {
		batch := p.pending
		p.pending = nil
		p.mu.Unlock()

		for _, n := range batch {
			for _, obs := range p.observers {
				obs(n.snap, n.metrics)
			}
		}

		p.mu.Lock()
	}

	p.draining = false
	p.mu.Unlock()
}

func clampSpeed(speed, fallback float64) float64 {
	if math.IsNaN(speed) {
		return fallback
	}

	return math.Max(MinSpeed, math.Min(MaxSpeed, speed))
}
