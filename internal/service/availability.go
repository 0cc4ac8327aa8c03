package service

import (
	"context"
	"log/slog"
	"sync/atomic"
	"time"
)

// Availability is the cached verdict on the primary engine.
type Availability int32

const (
	AvailabilityUnknown Availability = iota
	AvailabilityUp
	AvailabilityDown
	// AvailabilityProbing is held while one caller pings the engine. Other
	// callers treat it as unavailable.
	AvailabilityProbing
)

func (a Availability) String() string {
	switch a {
	case AvailabilityUp:
		return "up"
	case AvailabilityDown:
		return "down"
	case AvailabilityProbing:
		return "probing"
	default:
		return "unknown"
	}
}

// AvailabilityState holds the availability verdict. It is shared by the
// search and suggest paths and safe for concurrent use.
type AvailabilityState struct {
	v      atomic.Int32
	downAt atomic.Int64
}

// NewAvailabilityState returns a state in AvailabilityUnknown.
func NewAvailabilityState() *AvailabilityState {
	return &AvailabilityState{}
}

// Load returns the current verdict.
func (s *AvailabilityState) Load() Availability {
	return Availability(s.v.Load())
}

// Set stores a verdict. Setting AvailabilityDown records the time.
func (s *AvailabilityState) Set(a Availability) {
	if a == AvailabilityDown {
		s.downAt.Store(time.Now().UnixNano())
	}
	s.v.Store(int32(a))
}

// CompareAndSwap replaces old with next and reports whether it did.
func (s *AvailabilityState) CompareAndSwap(old, next Availability) bool {
	return s.v.CompareAndSwap(int32(old), int32(next))
}

// Reset returns the state to AvailabilityUnknown.
func (s *AvailabilityState) Reset() {
	s.v.Store(int32(AvailabilityUnknown))
}

// DownSince returns when the state last became AvailabilityDown.
func (s *AvailabilityState) DownSince() time.Time {
	return time.Unix(0, s.downAt.Load())
}

// Pinger checks whether the primary engine is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// ProberConfig controls how availability is probed.
type ProberConfig struct {
	// ReprobeInterval is how long a down verdict is trusted. Zero trusts it
	// until MarkDown or Reset.
	ReprobeInterval time.Duration

	// PingTimeout bounds a single probe.
	PingTimeout time.Duration
}

// Prober answers whether the primary engine should be tried. The first call
// pings the engine and caches the verdict; later calls read the cache.
type Prober struct {
	state  *AvailabilityState
	pinger Pinger
	cfg    ProberConfig
	logger *slog.Logger
	now    func() time.Time
}

// NewProber creates a prober over state.
func NewProber(state *AvailabilityState, pinger Pinger, cfg ProberConfig, logger *slog.Logger) *Prober {
	if cfg.PingTimeout <= 0 {
		cfg.PingTimeout = 2 * time.Second
	}
	return &Prober{
		state:  state,
		pinger: pinger,
		cfg:    cfg,
		logger: logger,
		now:    time.Now,
	}
}

// State returns the underlying availability state.
func (p *Prober) State() *AvailabilityState {
	return p.state
}

// IsAvailable reports whether the primary engine should be tried. Only one
// caller probes at a time; concurrent callers get false until it finishes.
func (p *Prober) IsAvailable(ctx context.Context) bool {
	switch p.state.Load() {
	case AvailabilityUp:
		return true
	case AvailabilityProbing:
		return false
	case AvailabilityDown:
		if p.cfg.ReprobeInterval <= 0 || p.now().Sub(p.state.DownSince()) < p.cfg.ReprobeInterval {
			return false
		}
		if !p.state.CompareAndSwap(AvailabilityDown, AvailabilityUnknown) {
			return p.state.Load() == AvailabilityUp
		}
	}

	if !p.state.CompareAndSwap(AvailabilityUnknown, AvailabilityProbing) {
		return p.state.Load() == AvailabilityUp
	}

	// The probe outlives a cancelled request so its verdict is not a false down.
	pingCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), p.cfg.PingTimeout)
	defer cancel()

	if err := p.pinger.Ping(pingCtx); err != nil {
		p.state.Set(AvailabilityDown)
		p.logger.WarnContext(ctx, "primary search engine unavailable",
			slog.String("error", err.Error()),
		)
		return false
	}

	p.state.Set(AvailabilityUp)
	p.logger.InfoContext(ctx, "primary search engine available")
	return true
}

// MarkDown discards the cached verdict after a primary call failed. The
// next IsAvailable probes again.
func (p *Prober) MarkDown() {
	p.state.Reset()
}
