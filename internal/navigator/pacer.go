// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package navigator

import (
	"context"
	"time"

	"github.com/jonboulle/clockwork"
)

// Pacer enforces a minimum interval between consecutive real fetches so
// a run stays under the source's anti-automation radar. Cache hits
// bypass it.
type Pacer struct {
	clock clockwork.Clock
	delay time.Duration
	last  time.Time
}

// NewPacer returns a pacer ticking on the given clock. A zero or
// negative delay disables pacing.
func NewPacer(clock clockwork.Clock, delay time.Duration) *Pacer {
	return &Pacer{clock: clock, delay: delay}
}

// Wait blocks until at least the configured delay has passed since the
// previous Wait returned. The first call never blocks.
func (p *Pacer) Wait(ctx context.Context) error {
	if p.delay <= 0 {
		return ctx.Err()
	}

	now := p.clock.Now()
	if !p.last.IsZero() {
		if rem := p.delay - now.Sub(p.last); rem > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-p.clock.After(rem):
			}
		}
	}

	p.last = p.clock.Now()
	return nil
}
