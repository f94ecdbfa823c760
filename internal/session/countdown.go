package session

import (
	"math"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
)

// Countdown approximates the seconds left until a server-declared round
// deadline. Display only: the server ends rounds, not this timer. Clock
// skew between client and server is not corrected.
type Countdown struct {
	clock  clockwork.Clock
	onTick func(remaining int)

	mu       sync.Mutex
	deadline time.Time
	active   bool
	cancel   chan struct{}
}

// NewCountdown creates a countdown. onTick may be nil; when set it fires
// once per second with the remaining whole seconds, ending with 0.
func NewCountdown(clock clockwork.Clock, onTick func(remaining int)) *Countdown {
	return &Countdown{clock: clock, onTick: onTick}
}

// Start begins counting down to deadline. Any prior countdown is cancelled
// first; at most one ticker runs per session.
func (c *Countdown) Start(deadline time.Time) {
	c.mu.Lock()
	c.stopLocked()
	c.deadline = deadline
	c.active = true
	cancel := make(chan struct{})
	c.cancel = cancel
	// Created here so the ticker exists before Start returns.
	ticker := c.clock.NewTicker(time.Second)
	c.mu.Unlock()

	go c.run(cancel, deadline, ticker)
}

// Stop cancels the countdown. Idempotent.
func (c *Countdown) Stop() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.stopLocked()
}

func (c *Countdown) stopLocked() {
	if c.cancel != nil {
		close(c.cancel)
		c.cancel = nil
	}
	c.active = false
}

// Remaining reports the whole seconds left, never negative, 0 when no
// countdown is running.
func (c *Countdown) Remaining() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.active {
		return 0
	}
	return remainingSeconds(c.deadline, c.clock.Now())
}

func (c *Countdown) run(cancel chan struct{}, deadline time.Time, ticker clockwork.Ticker) {
	defer ticker.Stop()

	for {
		select {
		case <-cancel:
			return
		case now := <-ticker.Chan():
			// A restart may have closed cancel while a tick was pending.
			select {
			case <-cancel:
				return
			default:
			}
			remaining := remainingSeconds(deadline, now)
			if c.onTick != nil {
				c.onTick(remaining)
			}
			if remaining <= 0 {
				c.mu.Lock()
				if c.cancel == cancel {
					c.cancel = nil
					c.active = false
				}
				c.mu.Unlock()
				return
			}
		}
	}
}

func remainingSeconds(deadline, now time.Time) int {
	remaining := int(math.Round(deadline.Sub(now).Seconds()))
	if remaining < 0 {
		return 0
	}
	return remaining
}
