package telemetry

import (
	"math/rand"
	"sync"
	"time"
)

const (
	DefaultCapacity = 13
	DefaultSpacing  = time.Hour
)

// Feed is a fixed-capacity rolling window of simulated hive samples.
// The window always holds exactly capacity samples, oldest first.
type Feed struct {
	mu       sync.RWMutex
	capacity int
	samples  []Sample
	rng      Rand
	now      func() time.Time

	subMu   sync.Mutex
	subs    map[int]func([]Sample)
	nextSub int
}

type Option func(*Feed)

// WithRand sets the randomness source used for every generated sample.
func WithRand(r Rand) Option {
	return func(f *Feed) { f.rng = r }
}

// WithClock sets the clock used for sample timestamps.
func WithClock(now func() time.Time) Option {
	return func(f *Feed) { f.now = now }
}

// NewFeed builds a feed pre-filled with capacity samples spaced spacing apart
// and ending at the current time. Capacity below 1 is treated as 1.
func NewFeed(capacity int, spacing time.Duration, opts ...Option) *Feed {
	if capacity < 1 {
		capacity = 1
	}
	f := &Feed{
		capacity: capacity,
		rng:      rand.New(rand.NewSource(time.Now().UnixNano())),
		now:      time.Now,
		subs:     make(map[int]func([]Sample)),
	}
	for _, opt := range opts {
		opt(f)
	}

	end := f.now()
	f.samples = make([]Sample, 0, capacity+1)
	for i := capacity - 1; i >= 0; i-- {
		ts := end.Add(-time.Duration(i) * spacing)
		f.samples = append(f.samples, newSample(ts, f.rng, InitialWeightRange))
	}
	return f
}

// Capacity returns the fixed window length.
func (f *Feed) Capacity() int { return f.capacity }

// Tick appends one fresh sample, evicts the oldest and notifies subscribers once.
func (f *Feed) Tick() Sample {
	f.mu.Lock()
	s := newSample(f.now(), f.rng, DriftWeightRange)
	f.samples = append(f.samples, s)
	f.samples = f.samples[len(f.samples)-f.capacity:]
	snapshot := f.snapshotLocked()
	f.mu.Unlock()

	f.notify(snapshot)
	return s
}

// Latest returns the most recently appended sample.
func (f *Feed) Latest() Sample {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.samples[len(f.samples)-1]
}

// Window returns a copy of the current window, oldest first.
func (f *Feed) Window() []Sample {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.snapshotLocked()
}

// Subscribe registers fn to receive the window after every tick.
// The returned func removes the subscription.
func (f *Feed) Subscribe(fn func([]Sample)) func() {
	f.subMu.Lock()
	id := f.nextSub
	f.nextSub++
	f.subs[id] = fn
	f.subMu.Unlock()

	return func() {
		f.subMu.Lock()
		delete(f.subs, id)
		f.subMu.Unlock()
	}
}

func (f *Feed) snapshotLocked() []Sample {
	out := make([]Sample, len(f.samples))
	copy(out, f.samples)
	return out
}

func (f *Feed) notify(window []Sample) {
	f.subMu.Lock()
	fns := make([]func([]Sample), 0, len(f.subs))
	for _, fn := range f.subs {
		fns = append(fns, fn)
	}
	f.subMu.Unlock()

	for _, fn := range fns {
		cp := make([]Sample, len(window))
		copy(cp, window)
		fn(cp)
	}
}
