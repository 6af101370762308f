package table

import (
	"math"

	"github.com/cfoust/tumble/pkg/dice"
	"github.com/cfoust/tumble/pkg/physics"

	"github.com/go-gl/mathgl/mgl64"
)

// World is the part of the physics engine the controller drives.
type World interface {
	// Advance by fixed steps of dt. realDt <= 0 means exactly one step.
	Step(dt, realDt float64, maxSubSteps int) int
	// Simulated seconds.
	Time() float64
}

type Body interface {
	Position() mgl64.Vec3
	SetPosition(mgl64.Vec3)
	Quaternion() mgl64.Quat
	SetQuaternion(mgl64.Quat)
	Velocity() mgl64.Vec3
	SetVelocity(mgl64.Vec3)
	AngularVelocity() mgl64.Vec3
	SetAngularVelocity(mgl64.Vec3)
}

type Die struct {
	Index int
	Body  Body
}

func (d Die) Pose() dice.Pose {
	return dice.Pose{
		Position:   d.Body.Position(),
		Quaternion: d.Body.Quaternion(),
	}
}

func (d Die) Motion() dice.Motion {
	return dice.Motion{
		Velocity:        d.Body.Velocity(),
		AngularVelocity: d.Body.AngularVelocity(),
	}
}

// rowPosition spreads dice along X, centered on the origin.
func rowPosition(index int, y, z float64) mgl64.Vec3 {
	offset := float64(index) - float64(dice.Count-1)/2
	return mgl64.Vec3{offset * ROW_SPACING, y, z}
}

// restPose is where dice wait before the first throw.
func restPose(index int) physics.Pose {
	return physics.NewPose(rowPosition(index, DIE_SIZE/2, 0))
}

var (
	xAxis = mgl64.Vec3{1, 0, 0}
	zAxis = mgl64.Vec3{0, 0, 1}
)

// Planes take their normal from their local +Y, so walls are the ground
// rotated to face the center.
func wallPoses() []physics.Pose {
	return []physics.Pose{
		{Position: mgl64.Vec3{FIELD_RADIUS, 0, 0}, Quaternion: mgl64.QuatRotate(math.Pi/2, zAxis)},
		{Position: mgl64.Vec3{-FIELD_RADIUS, 0, 0}, Quaternion: mgl64.QuatRotate(-math.Pi/2, zAxis)},
		{Position: mgl64.Vec3{0, 0, FIELD_RADIUS}, Quaternion: mgl64.QuatRotate(-math.Pi/2, xAxis)},
		{Position: mgl64.Vec3{0, 0, -FIELD_RADIUS}, Quaternion: mgl64.QuatRotate(math.Pi/2, xAxis)},
	}
}

// buildWorld creates the arena and the dice resting in a row.
func buildWorld(settings PhysicsSettings) (*physics.World, []Die) {
	world := physics.NewWorld(mgl64.Vec3{0, -settings.Gravity, 0})
	world.Iterations = settings.SolverIterations

	felt := physics.Material{
		Name:        "felt",
		Friction:    settings.Friction,
		Restitution: settings.Restitution,
	}
	world.AddStaticPlane(physics.NewPose(mgl64.Vec3{}), felt)
	for _, pose := range wallPoses() {
		world.AddStaticPlane(pose, felt)
	}

	half := DIE_SIZE / 2
	dieMaterial := physics.Material{
		Name:        "die",
		Friction:    settings.Friction,
		Restitution: settings.Restitution,
	}

	dies := make([]Die, dice.Count)
	for i := range dies {
		body := world.AddBox(mgl64.Vec3{half, half, half}, DIE_MASS, restPose(i), dieMaterial)
		body.LinearDamping = settings.LinearDamping
		body.AngularDamping = settings.AngularDamping
		dies[i] = Die{Index: i, Body: body}
	}

	return world, dies
}
