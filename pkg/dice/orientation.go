package dice

import (
	"math"
	"math/rand"

	"github.com/go-gl/mathgl/mgl64"
)

// RandomOrientation returns a uniformly distributed unit quaternion
// (Shoemake).
func RandomOrientation(rng *rand.Rand) mgl64.Quat {
	u1, u2, u3 := rng.Float64(), rng.Float64(), rng.Float64()
	a, b := math.Sqrt(1-u1), math.Sqrt(u1)
	return mgl64.Quat{
		W: b * math.Cos(2*math.Pi*u3),
		V: mgl64.Vec3{
			a * math.Sin(2*math.Pi*u2),
			a * math.Cos(2*math.Pi*u2),
			b * math.Sin(2*math.Pi*u3),
		},
	}.Normalize()
}
