// Package physics is a small rigid body engine for boxes resting on static
// planes. It integrates with semi-implicit Euler and resolves contacts with
// sequential impulses.
package physics

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

const DEFAULT_ITERATIONS = 20

type World struct {
	Gravity mgl64.Vec3
	// Velocity solver passes per step.
	Iterations int

	planes   []*Plane
	bodies   []*Body
	contacts []contact

	accumulator float64
	time        float64
	steps       uint64
}

func NewWorld(gravity mgl64.Vec3) *World {
	return &World{
		Gravity:    gravity,
		Iterations: DEFAULT_ITERATIONS,
	}
}

// AddStaticPlane adds an infinite plane through pose.Position whose normal
// is the local +Y axis of pose.Quaternion.
func (w *World) AddStaticPlane(pose Pose, material Material) *Plane {
	plane := newPlane(pose, material)
	w.planes = append(w.planes, plane)
	return plane
}

// AddBox adds a box with the given half extents. A mass of zero makes it
// static.
func (w *World) AddBox(halfExtents mgl64.Vec3, mass float64, pose Pose, material Material) *Body {
	body := newBox(len(w.bodies), halfExtents, mass, pose, material)
	w.bodies = append(w.bodies, body)
	return body
}

func (w *World) Bodies() []*Body {
	return w.bodies
}

func (w *World) Planes() []*Plane {
	return w.planes
}

// Time is the simulated time in seconds.
func (w *World) Time() float64 {
	return w.time
}

// Steps is the number of fixed steps taken so far.
func (w *World) Steps() uint64 {
	return w.steps
}

// Step advances the world in fixed increments of dt and returns how many
// were taken.
//
// With realDt <= 0 exactly one step runs. Otherwise realDt is added to an
// accumulator and as many fixed steps as it covers run, capped at
// maxSubSteps. At least one step always runs so simulated time keeps moving;
// the overdraft is paid back on later calls. Time that could not be caught
// up within maxSubSteps is dropped.
func (w *World) Step(dt, realDt float64, maxSubSteps int) int {
	if dt <= 0 {
		return 0
	}

	if realDt <= 0 {
		w.internalStep(dt)
		return 1
	}

	if maxSubSteps < 1 {
		maxSubSteps = 1
	}

	w.accumulator += realDt
	substeps := int(w.accumulator / dt)
	if substeps < 1 {
		substeps = 1
	}
	if substeps > maxSubSteps {
		substeps = maxSubSteps
	}

	for i := 0; i < substeps; i++ {
		w.internalStep(dt)
	}

	w.accumulator -= float64(substeps) * dt
	if w.accumulator > dt {
		w.accumulator = math.Mod(w.accumulator, dt)
	}
	if w.accumulator < -dt {
		w.accumulator = -dt
	}

	return substeps
}

func (w *World) internalStep(dt float64) {
	for _, body := range w.bodies {
		if body.isStatic() {
			continue
		}

		body.velocity = body.velocity.Add(w.Gravity.Mul(dt))
		body.velocity = body.velocity.Mul(math.Pow(1-body.LinearDamping, dt))
		body.angularVelocity = body.angularVelocity.Mul(math.Pow(1-body.AngularDamping, dt))
	}

	contacts := w.collide()
	for i := range contacts {
		contacts[i].prepare(dt)
	}

	for iteration := 0; iteration < w.Iterations; iteration++ {
		for i := range contacts {
			contacts[i].solve()
		}
	}

	for _, body := range w.bodies {
		body.integrate(dt)
	}

	w.correctPositions()

	w.time += dt
	w.steps++
}
