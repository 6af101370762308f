package dice

import (
	"sort"
	"time"

	"github.com/go-gl/mathgl/mgl64"
)

type Pose struct {
	Position   mgl64.Vec3
	Quaternion mgl64.Quat
}

// Snapshot is the state of every die after one tick.
type Snapshot struct {
	Tick uint64
	// Simulated seconds since the table was created.
	Time float64
	Dice []Pose
}

func (s Snapshot) Clone() Snapshot {
	dice := make([]Pose, len(s.Dice))
	copy(dice, s.Dice)
	s.Dice = dice
	return s
}

type RollResult struct {
	// Face values sorted ascending.
	Individual []int
	Total      int

	// Ticks the roll took.
	Ticks uint64
	// Simulated time the roll took.
	Duration time.Duration
	// Set when the roll was cut short before every die came to rest.
	Forced bool
}

func (r RollResult) Clone() RollResult {
	individual := make([]int, len(r.Individual))
	copy(individual, r.Individual)
	r.Individual = individual
	return r
}

// Resolve reads the face of every die and returns them sorted along with
// their sum.
func Resolve(orientations []mgl64.Quat) RollResult {
	values := make([]int, 0, len(orientations))
	total := 0
	for _, orientation := range orientations {
		value := Face(orientation)
		values = append(values, value)
		total += value
	}

	sort.Ints(values)

	return RollResult{
		Individual: values,
		Total:      total,
	}
}
