// Package shuffle computes randomized play orders over a candidate pool.
package shuffle

import (
	"math/rand"
	"time"

	"github.com/tessro/jukebox/internal/core"
)

// Scheduler holds a shuffled play order and a cursor into it. The order is
// rebuilt in full on every reshuffle and never patched in place.
type Scheduler struct {
	pool       []*core.Track
	order      []*core.Track
	cursor     int
	generation int
	rng        *rand.Rand
}

// Option configures a Scheduler.
type Option func(*Scheduler)

// WithRand sets the random source.
func WithRand(rng *rand.Rand) Option {
	return func(s *Scheduler) {
		if rng != nil {
			s.rng = rng
		}
	}
}

// New creates an empty scheduler.
func New(opts ...Option) *Scheduler {
	s := &Scheduler{
		rng: rand.New(rand.NewSource(time.Now().UnixNano())),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Reshuffle replaces the candidate pool and produces a fresh order with the
// cursor at 0.
func (s *Scheduler) Reshuffle(pool []*core.Track) {
	s.pool = make([]*core.Track, len(pool))
	copy(s.pool, pool)
	s.shuffle()
}

func (s *Scheduler) shuffle() {
	order := make([]*core.Track, len(s.pool))
	copy(order, s.pool)
	for i := len(order) - 1; i > 0; i-- {
		j := s.rng.Intn(i + 1)
		order[i], order[j] = order[j], order[i]
	}
	s.order = order
	s.cursor = 0
	s.generation++
}

// Current returns the track at the cursor.
func (s *Scheduler) Current() (*core.Track, bool) {
	if len(s.order) == 0 {
		return nil, false
	}
	return s.order[s.cursor], true
}

// Advance moves the cursor forward. Running past the end reshuffles the
// same pool and restarts at 0. Returns false on an empty pool.
func (s *Scheduler) Advance() (*core.Track, bool) {
	if len(s.order) == 0 {
		return nil, false
	}
	if s.cursor+1 >= len(s.order) {
		s.shuffle()
	} else {
		s.cursor++
	}
	return s.order[s.cursor], true
}

// Len returns the size of the play order.
func (s *Scheduler) Len() int {
	return len(s.order)
}

// Cursor returns the current position.
func (s *Scheduler) Cursor() int {
	return s.cursor
}

// Generation increments on every reshuffle.
func (s *Scheduler) Generation() int {
	return s.generation
}

// Snapshot returns a copy of the play order.
func (s *Scheduler) Snapshot() core.PlayOrder {
	tracks := make([]*core.Track, len(s.order))
	copy(tracks, s.order)
	return core.PlayOrder{
		Tracks:     tracks,
		Cursor:     s.cursor,
		Generation: s.generation,
	}
}
