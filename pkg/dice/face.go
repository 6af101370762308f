// Package dice holds the pure parts of a roll: reading the face that points
// up, deciding when a roll has come to rest and assembling the result.
package dice

import (
	"github.com/go-gl/mathgl/mgl64"
)

const (
	// Number of dice on the table.
	Count = 5
	// Speed under which a die counts as resting, for both linear and
	// angular velocity.
	RestThreshold = 0.05
)

// Up is the world up vector.
var Up = mgl64.Vec3{0, 1, 0}

type face struct {
	axis  mgl64.Vec3
	value int
}

// Enumeration order matters: on a tie the first face wins.
var faces = [6]face{
	{mgl64.Vec3{0, 1, 0}, 1},
	{mgl64.Vec3{0, -1, 0}, 6},
	{mgl64.Vec3{1, 0, 0}, 3},
	{mgl64.Vec3{-1, 0, 0}, 4},
	{mgl64.Vec3{0, 0, 1}, 2},
	{mgl64.Vec3{0, 0, -1}, 5},
}

// Face returns the value of the face pointing up for a die with the given
// orientation.
func Face(orientation mgl64.Quat) int {
	orientation = orientation.Normalize()

	best := faces[0].value
	bestDot := orientation.Rotate(faces[0].axis).Dot(Up)
	for _, candidate := range faces[1:] {
		dot := orientation.Rotate(candidate.axis).Dot(Up)
		if dot > bestDot {
			best = candidate.value
			bestDot = dot
		}
	}

	return best
}

// Opposite returns the value on the face opposite to value.
func Opposite(value int) int {
	return 7 - value
}
