// Package table runs the shared dice table: one physics world, the dice in
// it, and the loop that steps it while a roll is in flight.
package table

import (
	"context"
	"math/rand"
	"time"

	"github.com/cfoust/tumble/pkg/chanlock"
	"github.com/cfoust/tumble/pkg/dice"
	"github.com/cfoust/tumble/pkg/utils"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/repeale/fp-go/option"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/sasha-s/go-deadlock"
)

const OUTPUT_BUFFER = 256

type Controller struct {
	utils.Session

	settings Settings
	world    World
	dice     []Die
	rng      *rand.Rand

	// Only the manual mode skips the loop; ticks are driven by Tick.
	manual bool

	tick       uint64
	roll       opt.Option[RollSession]
	lastResult opt.Option[RollSettled]
	snapshot   dice.Snapshot

	running  bool
	loopDone chan struct{}
	health   *chanlock.Chanlock

	outputs *utils.Topic[Output]
	mutex   deadlock.Mutex
}

type Option func(*Controller)

// WithRand sets the source of throw randomness.
func WithRand(rng *rand.Rand) Option {
	return func(c *Controller) {
		c.rng = rng
	}
}

// WithManualTicks disables the tick loop. Callers advance the table with
// Tick.
func WithManualTicks() Option {
	return func(c *Controller) {
		c.manual = true
	}
}

func NewController(ctx context.Context, settings Settings, options ...Option) (*Controller, error) {
	if err := settings.Validate(); err != nil {
		return nil, err
	}

	world, dies := buildWorld(settings.Physics)

	controller := &Controller{
		Session:    utils.NewSession(ctx),
		settings:   settings,
		world:      world,
		dice:       dies,
		roll:       opt.None[RollSession](),
		lastResult: opt.None[RollSettled](),
		outputs:    utils.NewTopic[Output](OUTPUT_BUFFER),
		health:     chanlock.New(log.With().Str("module", "table").Logger()),
	}

	for _, option := range options {
		option(controller)
	}

	if controller.rng == nil {
		controller.rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}

	controller.snapshot = controller.takeSnapshot()

	if !controller.manual {
		controller.health.Watch(controller.Ctx())
	}

	return controller, nil
}

// Subscribe returns a subscriber that receives every output of the table.
func (c *Controller) Subscribe() *utils.Subscriber[Output] {
	return c.outputs.Subscribe()
}

// Apply runs a command and returns the outputs it produced. They are also
// published to subscribers.
func (c *Controller) Apply(command Command) []Output {
	switch command := command.(type) {
	case ThrowRequested:
		c.RequestThrow()
		return nil
	case TickElapsed:
		outputs, _ := c.advance(command.Elapsed)
		return outputs
	}
	return nil
}

// RequestThrow throws the dice unless a roll is already in flight, in which
// case nothing happens. It reports whether the throw was accepted.
func (c *Controller) RequestThrow() bool {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	if c.IsDone() {
		return false
	}

	if opt.IsSome(c.roll) {
		log.Debug().Uint64("tick", c.tick).Msg("ignoring throw, roll in flight")
		return false
	}

	throwDice(c.dice, c.settings.Throw, c.rng)
	c.roll = opt.Some(RollSession{
		Started:   time.Now(),
		StartTick: c.tick,
		StartTime: c.world.Time(),
		Rolling:   true,
	})

	log.Info().Uint64("tick", c.tick).Msg("dice thrown")

	c.startLoop()
	return true
}

// Tick advances the table by one tick and returns its outputs.
func (c *Controller) Tick(elapsed time.Duration) []Output {
	return c.Apply(TickElapsed{Elapsed: elapsed})
}

func (c *Controller) State() State {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	return c.state()
}

func (c *Controller) state() State {
	if opt.IsSome(c.roll) {
		return StateRolling
	}
	return StateIdle
}

// Snapshot returns the snapshot of the latest tick.
func (c *Controller) Snapshot() dice.Snapshot {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	return c.snapshot.Clone()
}

func (c *Controller) LastResult() opt.Option[dice.RollResult] {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	if opt.IsNone(c.lastResult) {
		return opt.None[dice.RollResult]()
	}
	return opt.Some(c.lastResult.Value.Result.Clone())
}

// Sync returns the latest snapshot together with the last settled roll, read
// at the same instant. Every output published after the call has a later
// tick than the snapshot.
func (c *Controller) Sync() (dice.Snapshot, opt.Option[RollSettled]) {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	snapshot := c.snapshot.Clone()
	if opt.IsNone(c.lastResult) {
		return snapshot, opt.None[RollSettled]()
	}

	settled := c.lastResult.Value
	return snapshot, opt.Some(RollSettled{
		Tick:   settled.Tick,
		Result: settled.Result.Clone(),
	})
}

func (c *Controller) Status() Status {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	status := Status{
		State:       c.state(),
		Tick:        c.tick,
		Time:        c.snapshot.Time,
		Subscribers: c.outputs.Len(),
		Roll:        c.roll,
		LastResult:  opt.None[dice.RollResult](),
	}
	if opt.IsSome(c.lastResult) {
		status.LastResult = opt.Some(c.lastResult.Value.Result.Clone())
	}

	return status
}

func (c *Controller) takeSnapshot() dice.Snapshot {
	poses := make([]dice.Pose, len(c.dice))
	for i, die := range c.dice {
		poses[i] = die.Pose()
	}

	return dice.Snapshot{
		Tick: c.tick,
		Time: c.world.Time(),
		Dice: poses,
	}
}

func (c *Controller) motions() []dice.Motion {
	motions := make([]dice.Motion, len(c.dice))
	for i, die := range c.dice {
		motions[i] = die.Motion()
	}
	return motions
}

func (c *Controller) orientations() []mgl64.Quat {
	orientations := make([]mgl64.Quat, len(c.dice))
	for i, die := range c.dice {
		orientations[i] = die.Body.Quaternion()
	}
	return orientations
}

// settle ends the current roll. Must be called with the lock held.
func (c *Controller) settle(roll RollSession, forced bool) dice.RollResult {
	result := dice.Resolve(c.orientations())
	result.Ticks = c.tick - roll.StartTick
	result.Duration = time.Duration((c.world.Time() - roll.StartTime) * float64(time.Second))
	result.Forced = forced

	c.roll = opt.None[RollSession]()
	c.lastResult = opt.Some(RollSettled{
		Tick:   c.tick,
		Result: result.Clone(),
	})
	c.running = false

	return result
}

// advance steps the world once and reports whether a roll is still in
// flight afterwards.
func (c *Controller) advance(elapsed time.Duration) ([]Output, bool) {
	c.health.Mark("step")
	c.mutex.Lock()

	dt := 1 / float64(c.settings.TickRate)
	realDt := 0.0
	if c.settings.ScaleByWallClock && elapsed > 0 {
		realDt = elapsed.Seconds()
	}
	c.world.Step(dt, realDt, c.settings.MaxSubSteps)
	c.tick++

	c.health.Mark("snapshot")
	c.snapshot = c.takeSnapshot()
	outputs := []Output{SnapshotReady{Snapshot: c.snapshot.Clone()}}

	if opt.IsSome(c.roll) {
		roll := c.roll.Value
		settled := dice.Settled(c.motions(), c.settings.RestThreshold)

		limit := c.settings.MaxRollDuration.Std()
		forced := false
		if !settled && limit > 0 {
			rolled := time.Duration((c.world.Time() - roll.StartTime) * float64(time.Second))
			forced = rolled >= limit
		}

		if settled || forced {
			result := c.settle(roll, forced)
			outputs = append(outputs, RollSettled{
				Tick:   c.tick,
				Result: result.Clone(),
			})

			var event *zerolog.Event
			if forced {
				event = log.Warn().Bool("forced", true)
			} else {
				event = log.Info()
			}
			event.
				Ints("individual", result.Individual).
				Int("total", result.Total).
				Uint64("ticks", result.Ticks).
				Msg("roll settled")
		}
	}

	rolling := opt.IsSome(c.roll)
	c.mutex.Unlock()

	c.health.Mark("publish")
	for _, output := range outputs {
		if missed := c.outputs.Publish(output); missed > 0 {
			log.Warn().Int("missed", missed).Msg("subscribers too slow for table output")
		}
	}
	c.health.Release()

	return outputs, rolling
}

// startLoop starts the tick loop unless it is already running. Must be
// called with the lock held.
func (c *Controller) startLoop() {
	if c.manual || c.running || c.IsDone() {
		return
	}

	c.running = true
	previous := c.loopDone
	done := make(chan struct{})
	c.loopDone = done

	go c.run(previous, done)
}

func (c *Controller) run(previous <-chan struct{}, done chan struct{}) {
	defer close(done)

	ctx := c.Ctx()

	// The previous loop may still be publishing its result.
	if previous != nil {
		select {
		case <-previous:
		case <-ctx.Done():
			return
		}
	}

	interval := time.Second / time.Duration(c.settings.TickRate)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	last := time.Now()
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			elapsed := now.Sub(last)
			last = now

			_, rolling := c.advance(elapsed)
			if !rolling {
				return
			}
		}
	}
}

// Running reports whether the tick loop is active.
func (c *Controller) Running() bool {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	return c.running
}

// Shutdown stops the tick loop and waits for it to exit.
func (c *Controller) Shutdown(ctx context.Context) error {
	c.Cancel()

	c.mutex.Lock()
	done := c.loopDone
	c.mutex.Unlock()

	if done == nil {
		return nil
	}

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
