package table

import (
	"errors"
	"fmt"

	"github.com/cfoust/tumble/pkg/dice"
	"github.com/cfoust/tumble/pkg/utils"
)

const (
	// Half-width of the square arena.
	FIELD_RADIUS = 2.5
	// Dice are cubes with this edge length.
	DIE_SIZE = 0.5
	DIE_MASS = 1.0
	// Distance between dice centers in the rest and throw rows.
	ROW_SPACING = 0.75
)

type PhysicsSettings struct {
	// Acceleration towards -Y.
	Gravity          float64 `yaml:"gravity" json:"gravity"`
	Friction         float64 `yaml:"friction" json:"friction"`
	Restitution      float64 `yaml:"restitution" json:"restitution"`
	LinearDamping    float64 `yaml:"linearDamping" json:"linearDamping"`
	AngularDamping   float64 `yaml:"angularDamping" json:"angularDamping"`
	SolverIterations int     `yaml:"solverIterations" json:"solverIterations"`
}

// ThrowSettings controls how dice leave the hand. Every die gets its own
// jitter.
type ThrowSettings struct {
	// Height of the row the dice are thrown from.
	Height float64 `yaml:"height" json:"height"`
	// Speed towards the far wall.
	Speed       float64 `yaml:"speed" json:"speed"`
	SpeedJitter float64 `yaml:"speedJitter" json:"speedJitter"`
	// Upward speed.
	Lift       float64 `yaml:"lift" json:"lift"`
	LiftJitter float64 `yaml:"liftJitter" json:"liftJitter"`
	// Largest sideways speed in either direction.
	SideJitter float64 `yaml:"sideJitter" json:"sideJitter"`
	// Largest spin around each axis, in radians per second.
	Spin float64 `yaml:"spin" json:"spin"`
}

type Settings struct {
	TickRate    int `yaml:"tickRate" json:"tickRate"`
	MaxSubSteps int `yaml:"maxSubSteps" json:"maxSubSteps"`
	// Feed the measured time between ticks to the physics step.
	ScaleByWallClock bool    `yaml:"scaleByWallClock" json:"scaleByWallClock"`
	RestThreshold    float64 `yaml:"restThreshold" json:"restThreshold"`
	// Simulated time after which a roll is settled where the dice lie. Zero
	// lets rolls run until they come to rest.
	MaxRollDuration utils.Duration `yaml:"maxRollDuration" json:"maxRollDuration"`

	Physics PhysicsSettings `yaml:"physics" json:"physics"`
	Throw   ThrowSettings   `yaml:"throw" json:"throw"`
}

func DefaultSettings() Settings {
	return Settings{
		TickRate:         60,
		MaxSubSteps:      3,
		ScaleByWallClock: true,
		RestThreshold:    dice.RestThreshold,
		Physics: PhysicsSettings{
			Gravity:          9.82,
			Friction:         0.4,
			Restitution:      0.3,
			LinearDamping:    0.1,
			AngularDamping:   0.1,
			SolverIterations: 20,
		},
		Throw: ThrowSettings{
			Height:      1,
			Speed:       6,
			SpeedJitter: 1.5,
			Lift:        2,
			LiftJitter:  1,
			SideJitter:  0.6,
			Spin:        15,
		},
	}
}

var ErrInvalidSettings = errors.New("invalid table settings")

func (s Settings) Validate() error {
	invalid := func(format string, args ...any) error {
		return fmt.Errorf("%w: %s", ErrInvalidSettings, fmt.Sprintf(format, args...))
	}

	switch {
	case s.TickRate <= 0:
		return invalid("tickRate must be positive, got %d", s.TickRate)
	case s.MaxSubSteps < 1:
		return invalid("maxSubSteps must be at least 1, got %d", s.MaxSubSteps)
	case s.RestThreshold < 0:
		return invalid("restThreshold must not be negative")
	case s.MaxRollDuration < 0:
		return invalid("maxRollDuration must not be negative")
	case s.Physics.Gravity <= 0:
		return invalid("gravity must be positive")
	case s.Physics.Friction < 0 || s.Physics.Restitution < 0 || s.Physics.Restitution > 1:
		return invalid("friction must be >= 0 and restitution within [0, 1]")
	case s.Physics.LinearDamping < 0 || s.Physics.LinearDamping >= 1 ||
		s.Physics.AngularDamping < 0 || s.Physics.AngularDamping >= 1:
		return invalid("damping must be within [0, 1)")
	case s.Physics.SolverIterations < 1:
		return invalid("solverIterations must be at least 1")
	case s.Throw.Height < DIE_SIZE/2:
		return invalid("throw height must keep dice above the ground")
	}

	return nil
}
