package chanlock

import (
	"context"
	"time"

	"github.com/rs/zerolog"
	"github.com/sasha-s/go-deadlock"
)

// Utility for diagnosing a stuck loop. The loop marks each stage it enters
// and releases when an iteration completes; Watch logs when an iteration
// has been running for longer than the timeout.
type Chanlock struct {
	log     zerolog.Logger
	timeout time.Duration

	mutex    deadlock.RWMutex
	lastMark string
	busy     bool
	since    time.Time
	reported bool
}

const (
	TIMEOUT_DURATION      = 15 * time.Second
	HEALTH_CHECK_DURATION = 1 * time.Second
)

func New(logger zerolog.Logger) *Chanlock {
	return &Chanlock{
		log:     logger,
		timeout: TIMEOUT_DURATION,
	}
}

func (c *Chanlock) SetTimeout(timeout time.Duration) {
	c.mutex.Lock()
	c.timeout = timeout
	c.mutex.Unlock()
}

// Mark records the stage the loop is in. The first mark after a Release
// starts the clock.
func (c *Chanlock) Mark(name string) {
	c.mutex.Lock()
	c.lastMark = name
	if !c.busy {
		c.busy = true
		c.since = time.Now()
	}
	c.mutex.Unlock()
}

func (c *Chanlock) Release() {
	c.mutex.Lock()
	c.lastMark = ""
	c.busy = false
	c.reported = false
	c.mutex.Unlock()
}

// Stalled returns the last mark if the current iteration started more than
// the timeout before now.
func (c *Chanlock) Stalled(now time.Time) (string, bool) {
	c.mutex.RLock()
	defer c.mutex.RUnlock()

	if !c.busy || now.Sub(c.since) < c.timeout {
		return "", false
	}

	return c.lastMark, true
}

func (c *Chanlock) check(now time.Time) bool {
	mark, stalled := c.Stalled(now)
	if !stalled {
		return false
	}

	c.mutex.Lock()
	reported := c.reported
	c.reported = true
	c.mutex.Unlock()

	if reported {
		return true
	}

	c.log.Error().Msgf("tick loop no longer healthy")
	if mark != "" {
		c.log.Error().Msgf("last mark: %s", mark)
	}

	return true
}

// Watch checks the loop every HEALTH_CHECK_DURATION until ctx is done.
func (c *Chanlock) Watch(ctx context.Context) {
	ticker := time.NewTicker(HEALTH_CHECK_DURATION)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case now := <-ticker.C:
				c.check(now)
			case <-ctx.Done():
				return
			}
		}
	}()
}
