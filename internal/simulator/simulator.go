// Package simulator flips random signals to imitate live telemetry.
package simulator

import (
	"context"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/plc-visualizer/safety-dashboard/internal/models"
	"github.com/rs/zerolog/log"
)

// Rand is the randomness the simulator draws from.
type Rand interface {
	Float64() float64
}

// Target is the state the simulator mutates.
type Target interface {
	MutateSignals(coll models.Collection, fn func(models.Signal) bool) ([]string, error)
}

// Config tunes the simulator.
type Config struct {
	Interval        time.Duration
	TickProbability float64 // chance that a tick mutates anything
	FlipProbability float64 // per-signal flip chance on a mutating tick
}

// DefaultConfig matches the dashboard's demo behavior.
func DefaultConfig() Config {
	return Config{
		Interval:        3 * time.Second,
		TickProbability: 0.10,
		FlipProbability: 0.05,
	}
}

// NewRand returns a seeded PCG generator. A zero seed is time based.
func NewRand(seed uint64) *rand.Rand {
	if seed == 0 {
		seed = uint64(time.Now().UnixNano())
	}
	return rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
}

// Simulator periodically mutates a Target until stopped.
type Simulator struct {
	cfg    Config
	target Target

	randMu sync.Mutex
	rnd    Rand

	mu      sync.Mutex
	cancel  context.CancelFunc
	done    <-chan struct{}
	wg      sync.WaitGroup
	running bool
	ticks   uint64
}

// New creates a stopped simulator.
func New(cfg Config, target Target, rnd Rand) *Simulator {
	def := DefaultConfig()
	if cfg.Interval <= 0 {
		cfg.Interval = def.Interval
	}
	return &Simulator{cfg: cfg, target: target, rnd: rnd}
}

// Start launches the periodic loop. It is a no-op when already running.
// The loop ends when ctx is cancelled or Stop is called.
func (s *Simulator) Start(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.running {
		return
	}

	ctx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	s.done = ctx.Done()
	s.running = true
	s.wg.Add(1)

	go func() {
		defer s.wg.Done()
		s.run(ctx)

		// the parent ctx may end the loop without Stop
		s.mu.Lock()
		if s.done == ctx.Done() {
			s.running = false
		}
		s.mu.Unlock()
	}()

	log.Info().
		Dur("interval", s.cfg.Interval).
		Float64("tick_probability", s.cfg.TickProbability).
		Float64("flip_probability", s.cfg.FlipProbability).
		Msg("simulator started")
}

// Stop cancels the loop and waits for it to exit. No mutation happens after
// Stop returns.
func (s *Simulator) Stop() {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return
	}
	s.cancel()
	s.running = false
	s.mu.Unlock()

	s.wg.Wait()
	log.Info().Msg("simulator stopped")
}

// Running reports whether the loop is active.
func (s *Simulator) Running() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}

// Ticks returns how many ticks have run.
func (s *Simulator) Ticks() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ticks
}

func (s *Simulator) run(ctx context.Context) {
	ticker := time.NewTicker(s.cfg.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			// a tick racing with Stop must not mutate
			if ctx.Err() != nil {
				return
			}
			s.Step()
		}
	}
}

// Step runs one tick synchronously and returns the flipped signal ids.
func (s *Simulator) Step() []string {
	s.mu.Lock()
	s.ticks++
	s.mu.Unlock()

	s.randMu.Lock()
	if s.rnd.Float64() >= s.cfg.TickProbability {
		s.randMu.Unlock()
		return nil
	}
	coll := models.CollectionOutputs
	if s.rnd.Float64() < 0.5 {
		coll = models.CollectionInputs
	}
	s.randMu.Unlock()

	changed, err := s.target.MutateSignals(coll, func(sig models.Signal) bool {
		s.randMu.Lock()
		flip := s.rnd.Float64() < s.cfg.FlipProbability
		s.randMu.Unlock()
		if flip {
			return !sig.CurrentState
		}
		return sig.CurrentState
	})
	if err != nil {
		log.Error().Err(err).Msg("simulator: mutate failed")
		return nil
	}
	if len(changed) > 0 {
		log.Debug().Str("collection", string(coll)).Strs("changed", changed).Msg("simulated signal change")
	}
	return changed
}
