package protocol

import (
	"github.com/cfoust/tumble/pkg/dice"
)

const (
	// Client -> server
	ThrowDiceEvent = "throwDice"
	// Server -> client
	DiceStateUpdateEvent = "diceStateUpdate"
	DiceResultEvent      = "diceResult"
)

type Vector struct {
	X float64 `json:"x" cbor:"x"`
	Y float64 `json:"y" cbor:"y"`
	Z float64 `json:"z" cbor:"z"`
}

type Quaternion struct {
	X float64 `json:"x" cbor:"x"`
	Y float64 `json:"y" cbor:"y"`
	Z float64 `json:"z" cbor:"z"`
	W float64 `json:"w" cbor:"w"`
}

// The pose of one die, in die index order.
type DieState struct {
	Position   Vector     `json:"position" cbor:"position"`
	Quaternion Quaternion `json:"quaternion" cbor:"quaternion"`
}

type DiceResult struct {
	// Sorted ascending
	Individual []int `json:"individual" cbor:"individual"`
	Total      int   `json:"total" cbor:"total"`
	// Set when the roll was cut short before the dice came to rest
	Forced bool `json:"forced,omitempty" cbor:"forced,omitempty"`
}

// Every message on the wire, in both directions, is wrapped in an Envelope.
type Envelope[T any] struct {
	Event string `json:"event" cbor:"event"`
	// Simulation tick the payload belongs to
	Tick uint64 `json:"tick,omitempty" cbor:"tick,omitempty"`
	Data T      `json:"data,omitempty" cbor:"data,omitempty"`
}

// Used to peek at the event name of incoming messages.
type GenericMessage struct {
	Event string `json:"event" cbor:"event"`
}

func FromSnapshot(snapshot dice.Snapshot) []DieState {
	states := make([]DieState, len(snapshot.Dice))
	for i, pose := range snapshot.Dice {
		position := pose.Position
		q := pose.Quaternion
		states[i] = DieState{
			Position: Vector{
				X: position.X(),
				Y: position.Y(),
				Z: position.Z(),
			},
			Quaternion: Quaternion{
				X: q.X(),
				Y: q.Y(),
				Z: q.Z(),
				W: q.W,
			},
		}
	}
	return states
}

func FromResult(result dice.RollResult) DiceResult {
	individual := make([]int, len(result.Individual))
	copy(individual, result.Individual)
	return DiceResult{
		Individual: individual,
		Total:      result.Total,
		Forced:     result.Forced,
	}
}
