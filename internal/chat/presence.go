package chat

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/nhle/labdesk/internal/clock"
)

// Presence simulator defaults.
const (
	DefaultPresenceInterval = 30 * time.Second
	DefaultFlipProbability  = 0.2
)

// PresenceTarget receives presence changes. *Session satisfies it.
type PresenceTarget interface {
	AgentOnline() bool
	SetAgentOnline(online bool)
}

// PresenceOptions configures a PresenceSimulator.
type PresenceOptions struct {
	Clock clock.Clock

	// Interval between presence checks.
	Interval time.Duration

	// FlipProbability is the chance of toggling presence on each check.
	FlipProbability float64

	// Float returns values in [0, 1). Nil uses math/rand.
	Float func() float64

	Logger zerolog.Logger
}

// PresenceSimulator periodically toggles a target's agent presence to
// simulate support staff going on and off shift.
type PresenceSimulator struct {
	mu      sync.Mutex
	target  PresenceTarget
	opts    PresenceOptions
	timer   clock.Timer
	running bool
	stop    context.CancelFunc
}

// NewPresenceSimulator creates a stopped simulator for target.
func NewPresenceSimulator(target PresenceTarget, opts PresenceOptions) *PresenceSimulator {
	if opts.Clock == nil {
		opts.Clock = clock.New()
	}
	if opts.Interval <= 0 {
		opts.Interval = DefaultPresenceInterval
	}
	if opts.FlipProbability < 0 {
		opts.FlipProbability = 0
	}
	if opts.Float == nil {
		opts.Float = rand.Float64
	}
	return &PresenceSimulator{target: target, opts: opts}
}

// Start begins ticking. The simulator stops when ctx is done or Stop is
// called. Starting a running simulator is a no-op.
func (p *PresenceSimulator) Start(ctx context.Context) {
	p.mu.Lock()
	if p.running {
		p.mu.Unlock()
		return
	}
	ctx, cancel := context.WithCancel(ctx)
	p.running = true
	p.stop = cancel
	p.armLocked()
	p.mu.Unlock()

	go func() {
		<-ctx.Done()
		p.Stop()
	}()
}

// Stop cancels the pending tick. It is safe to call more than once.
func (p *PresenceSimulator) Stop() {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.running {
		return
	}
	p.running = false
	if p.timer != nil {
		p.timer.Stop()
		p.timer = nil
	}
	if p.stop != nil {
		p.stop()
		p.stop = nil
	}
}

// Running reports whether the simulator is ticking.
func (p *PresenceSimulator) Running() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.running
}

func (p *PresenceSimulator) armLocked() {
	p.timer = p.opts.Clock.AfterFunc(p.opts.Interval, p.tick)
}

func (p *PresenceSimulator) tick() {
	p.mu.Lock()
	if !p.running {
		p.mu.Unlock()
		return
	}
	flip := p.opts.Float() < p.opts.FlipProbability
	p.armLocked()
	p.mu.Unlock()

	if !flip {
		return
	}
	online := !p.target.AgentOnline()
	p.target.SetAgentOnline(online)
	p.opts.Logger.Debug().Bool("online", online).Msg("simulated presence flipped")
}
