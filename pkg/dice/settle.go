package dice

import (
	"github.com/go-gl/mathgl/mgl64"
)

// Motion is the part of a die's state the settle check looks at.
type Motion struct {
	Velocity        mgl64.Vec3
	AngularVelocity mgl64.Vec3
}

// AtRest reports whether neither speed exceeds threshold.
func AtRest(motion Motion, threshold float64) bool {
	return motion.Velocity.Len() <= threshold &&
		motion.AngularVelocity.Len() <= threshold
}

// Settled reports whether every die is at rest in this observation. An empty
// table never settles.
func Settled(motions []Motion, threshold float64) bool {
	if len(motions) == 0 {
		return false
	}

	for _, motion := range motions {
		if !AtRest(motion, threshold) {
			return false
		}
	}

	return true
}
