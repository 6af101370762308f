package dice

import (
	"testing"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/stretchr/testify/assert"
)

func still() Motion {
	return Motion{}
}

func TestAtRest(t *testing.T) {
	assert.True(t, AtRest(still(), RestThreshold))

	// ties settle
	assert.True(t, AtRest(Motion{Velocity: mgl64.Vec3{0.05, 0, 0}}, RestThreshold))
	assert.True(t, AtRest(Motion{AngularVelocity: mgl64.Vec3{0, 0, -0.05}}, RestThreshold))

	assert.False(t, AtRest(Motion{Velocity: mgl64.Vec3{0.051, 0, 0}}, RestThreshold))
	assert.False(t, AtRest(Motion{AngularVelocity: mgl64.Vec3{0, 0.06, 0}}, RestThreshold))

	// the magnitude counts, not the components
	assert.False(t, AtRest(Motion{Velocity: mgl64.Vec3{0.04, 0.04, 0}}, RestThreshold))
}

func TestSettled(t *testing.T) {
	motions := make([]Motion, Count)
	assert.True(t, Settled(motions, RestThreshold))

	for i := range motions {
		moving := make([]Motion, Count)
		copy(moving, motions)
		moving[i].AngularVelocity = mgl64.Vec3{0, 1, 0}
		assert.False(t, Settled(moving, RestThreshold), "die %d still spinning", i)

		moving[i] = Motion{Velocity: mgl64.Vec3{0, -0.2, 0}}
		assert.False(t, Settled(moving, RestThreshold), "die %d still falling", i)
	}

	assert.False(t, Settled(nil, RestThreshold))
}
