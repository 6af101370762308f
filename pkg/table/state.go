package table

import (
	"time"

	"github.com/cfoust/tumble/pkg/dice"

	"github.com/repeale/fp-go/option"
)

type State byte

const (
	StateIdle State = iota
	StateRolling
)

func (s State) String() string {
	switch s {
	case StateRolling:
		return "rolling"
	default:
		return "idle"
	}
}

func (s State) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// Commands are the inputs of the table.
type Command interface {
	isCommand()
}

type ThrowRequested struct{}

// TickElapsed advances the table by one tick. Elapsed is the wall-clock time
// since the previous tick and is only used when scaling by wall clock.
type TickElapsed struct {
	Elapsed time.Duration
}

func (ThrowRequested) isCommand() {}
func (TickElapsed) isCommand()    {}

// Outputs are what the table tells its observers.
type Output interface {
	isOutput()
}

type SnapshotReady struct {
	Snapshot dice.Snapshot
}

type RollSettled struct {
	Tick   uint64
	Result dice.RollResult
}

func (SnapshotReady) isOutput() {}
func (RollSettled) isOutput()   {}

// RollSession is a roll in progress.
type RollSession struct {
	Started   time.Time
	StartTick uint64
	// Simulated time at the throw.
	StartTime float64
	Rolling   bool
}

type Status struct {
	State State
	Tick  uint64
	// Simulated seconds.
	Time        float64
	Subscribers int
	Roll        opt.Option[RollSession]
	LastResult  opt.Option[dice.RollResult]
}
