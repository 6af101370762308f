package dice

import (
	"math"
	"math/rand"
	"testing"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/stretchr/testify/assert"
)

var (
	xAxis = mgl64.Vec3{1, 0, 0}
	zAxis = mgl64.Vec3{0, 0, 1}
)

func TestFaceCanonical(t *testing.T) {
	cases := []struct {
		name        string
		orientation mgl64.Quat
		expected    int
	}{
		{"+Y up", mgl64.QuatIdent(), 1},
		{"-Y up", mgl64.QuatRotate(math.Pi, xAxis), 6},
		{"+X up", mgl64.QuatRotate(math.Pi/2, zAxis), 3},
		{"-X up", mgl64.QuatRotate(-math.Pi/2, zAxis), 4},
		{"+Z up", mgl64.QuatRotate(-math.Pi/2, xAxis), 2},
		{"-Z up", mgl64.QuatRotate(math.Pi/2, xAxis), 5},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			assert.Equal(t, c.expected, Face(c.orientation))
		})
	}
}

func TestFaceSpinAroundUpKeepsValue(t *testing.T) {
	tipped := mgl64.QuatRotate(math.Pi/2, zAxis)
	for _, angle := range []float64{0.3, 1, 2.5, -2} {
		spun := mgl64.QuatRotate(angle, Up).Mul(tipped)
		assert.Equal(t, 3, Face(spun))
	}
}

func TestFaceSlightTilt(t *testing.T) {
	// Leaning less than 45 degrees towards +X still reads the top face.
	assert.Equal(t, 1, Face(mgl64.QuatRotate(0.7, zAxis)))
	assert.Equal(t, 3, Face(mgl64.QuatRotate(0.9, zAxis)))
}

func TestOppositeFacesSumToSeven(t *testing.T) {
	pairs := [][2]int{{0, 1}, {2, 3}, {4, 5}}
	for _, pair := range pairs {
		a, b := faces[pair[0]], faces[pair[1]]
		assert.True(t, a.axis.Add(b.axis).ApproxEqual(mgl64.Vec3{}))
		assert.Equal(t, 7, a.value+b.value)
		assert.Equal(t, b.value, Opposite(a.value))
	}
}

func TestRandomOrientationIsUnit(t *testing.T) {
	rng := rand.New(rand.NewSource(3))
	for i := 0; i < 1000; i++ {
		assert.InDelta(t, 1, RandomOrientation(rng).Len(), 1e-12)
	}
}

func TestFaceAlwaysInRange(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	seen := make(map[int]bool)
	for i := 0; i < 5000; i++ {
		value := Face(RandomOrientation(rng))
		assert.GreaterOrEqual(t, value, 1)
		assert.LessOrEqual(t, value, 6)
		seen[value] = true
	}
	assert.Len(t, seen, 6)
}

func TestFaceUnnormalized(t *testing.T) {
	q := mgl64.QuatRotate(math.Pi, xAxis).Scale(3)
	assert.Equal(t, 6, Face(q))
}
