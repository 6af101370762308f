package table

import (
	"math/rand"

	"github.com/cfoust/tumble/pkg/dice"

	"github.com/go-gl/mathgl/mgl64"
)

// symmetric returns a value in [-limit, limit).
func symmetric(rng *rand.Rand, limit float64) float64 {
	return (rng.Float64()*2 - 1) * limit
}

// throwDice lines the dice up in front of the +Z wall and sends them towards
// the far wall.
func throwDice(dies []Die, settings ThrowSettings, rng *rand.Rand) {
	z := FIELD_RADIUS - ROW_SPACING
	for _, die := range dies {
		body := die.Body
		body.SetPosition(rowPosition(die.Index, settings.Height, z))
		body.SetQuaternion(dice.RandomOrientation(rng))

		body.SetVelocity(mgl64.Vec3{})
		body.SetAngularVelocity(mgl64.Vec3{})

		body.SetVelocity(mgl64.Vec3{
			symmetric(rng, settings.SideJitter),
			settings.Lift + rng.Float64()*settings.LiftJitter,
			-(settings.Speed + rng.Float64()*settings.SpeedJitter),
		})
		body.SetAngularVelocity(mgl64.Vec3{
			symmetric(rng, settings.Spin),
			symmetric(rng, settings.Spin),
			symmetric(rng, settings.Spin),
		})
	}
}
