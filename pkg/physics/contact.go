package physics

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

const (
	// Corners closer than this to a surface take part in the solve even if
	// they are not touching yet.
	CONTACT_MARGIN = 0.02
	// Penetration tolerated without positional correction.
	CONTACT_SLOP = 0.001
	// Fraction of the remaining penetration removed per step.
	CORRECTION_RATE = 0.8
	// Approach speed below which contacts do not bounce.
	BOUNCE_THRESHOLD = 0.5
	// Body against body contacts use spheres of min(halfExtent) * this.
	PROXY_RADIUS_SCALE = 1.2
)

type contact struct {
	a *Body
	// nil when a touches a plane
	b *Body

	// Points from b (or the plane) towards a.
	normal   mgl64.Vec3
	tangents [2]mgl64.Vec3
	ra, rb   mgl64.Vec3
	// Signed separation, negative when penetrating.
	gap float64

	friction    float64
	restitution float64

	normalMass  float64
	tangentMass [2]float64
	// Lowest relative normal velocity the solver will accept.
	target float64

	normalImpulse  float64
	tangentImpulse [2]float64
}

func tangentBasis(n mgl64.Vec3) [2]mgl64.Vec3 {
	reference := mgl64.Vec3{1, 0, 0}
	if math.Abs(n[0]) > 0.9 {
		reference = mgl64.Vec3{0, 0, 1}
	}
	t1 := n.Cross(reference).Normalize()
	t2 := n.Cross(t1)
	return [2]mgl64.Vec3{t1, t2}
}

func (c *contact) relativeVelocity() mgl64.Vec3 {
	v := c.a.velocityAt(c.ra)
	if c.b != nil {
		v = v.Sub(c.b.velocityAt(c.rb))
	}
	return v
}

func (c *contact) effectiveMass(direction mgl64.Vec3) float64 {
	k := c.a.invMass + direction.Dot(c.a.applyInvInertia(c.ra.Cross(direction)).Cross(c.ra))
	if c.b != nil {
		k += c.b.invMass + direction.Dot(c.b.applyInvInertia(c.rb.Cross(direction)).Cross(c.rb))
	}
	if k <= 0 {
		return 0
	}
	return 1 / k
}

func (c *contact) prepare(dt float64) {
	c.tangents = tangentBasis(c.normal)
	c.normalMass = c.effectiveMass(c.normal)
	c.tangentMass[0] = c.effectiveMass(c.tangents[0])
	c.tangentMass[1] = c.effectiveMass(c.tangents[1])

	approach := c.relativeVelocity().Dot(c.normal)
	switch {
	case c.gap > 0:
		// Speculative: allow closing the gap this step, no further.
		c.target = -c.gap / dt
	case approach < -BOUNCE_THRESHOLD:
		c.target = -c.restitution * approach
	default:
		c.target = 0
	}
}

func (c *contact) apply(impulse mgl64.Vec3) {
	c.a.applyImpulse(impulse, c.ra)
	if c.b != nil {
		c.b.applyImpulse(impulse.Mul(-1), c.rb)
	}
}

func (c *contact) solve() {
	vn := c.relativeVelocity().Dot(c.normal)
	lambda := (c.target - vn) * c.normalMass
	previous := c.normalImpulse
	c.normalImpulse = math.Max(previous+lambda, 0)
	c.apply(c.normal.Mul(c.normalImpulse - previous))

	limit := c.friction * c.normalImpulse
	for i, tangent := range c.tangents {
		vt := c.relativeVelocity().Dot(tangent)
		lambda := -vt * c.tangentMass[i]
		previous := c.tangentImpulse[i]
		c.tangentImpulse[i] = mgl64.Clamp(previous+lambda, -limit, limit)
		c.apply(tangent.Mul(c.tangentImpulse[i] - previous))
	}
}

func (w *World) collide() []contact {
	contacts := w.contacts[:0]

	for _, body := range w.bodies {
		if body.isStatic() {
			continue
		}

		corners := body.corners()
		for _, plane := range w.planes {
			friction, restitution := combine(body.material, plane.material)
			for _, corner := range corners {
				gap := plane.Distance(corner)
				if gap >= CONTACT_MARGIN {
					continue
				}

				contacts = append(contacts, contact{
					a:           body,
					normal:      plane.Normal,
					ra:          corner.Sub(body.position),
					gap:         gap,
					friction:    friction,
					restitution: restitution,
				})
			}
		}
	}

	for i, a := range w.bodies {
		for _, b := range w.bodies[i+1:] {
			if a.isStatic() && b.isStatic() {
				continue
			}

			delta := a.position.Sub(b.position)
			distance := delta.Len()
			gap := distance - a.proxyRadius - b.proxyRadius
			if gap >= CONTACT_MARGIN {
				continue
			}

			normal := mgl64.Vec3{0, 1, 0}
			if distance > 1e-9 {
				normal = delta.Mul(1 / distance)
			}

			friction, restitution := combine(a.material, b.material)
			contacts = append(contacts, contact{
				a:           a,
				b:           b,
				normal:      normal,
				ra:          normal.Mul(-a.proxyRadius),
				rb:          normal.Mul(b.proxyRadius),
				gap:         gap,
				friction:    friction,
				restitution: restitution,
			})
		}
	}

	w.contacts = contacts
	return contacts
}

// correctPositions pushes bodies out of planes and apart from each other
// without touching their velocities.
func (w *World) correctPositions() {
	for _, body := range w.bodies {
		if body.isStatic() {
			continue
		}

		for _, plane := range w.planes {
			deepest := 0.0
			for _, corner := range body.corners() {
				deepest = math.Min(deepest, plane.Distance(corner))
			}

			depth := -deepest - CONTACT_SLOP
			if depth <= 0 {
				continue
			}
			body.position = body.position.Add(plane.Normal.Mul(depth * CORRECTION_RATE))
		}
	}

	for i, a := range w.bodies {
		for _, b := range w.bodies[i+1:] {
			delta := a.position.Sub(b.position)
			distance := delta.Len()
			depth := a.proxyRadius + b.proxyRadius - distance - CONTACT_SLOP
			if depth <= 0 || distance < 1e-9 {
				continue
			}

			total := a.invMass + b.invMass
			if total == 0 {
				continue
			}

			push := delta.Mul(depth * CORRECTION_RATE / distance / total)
			a.position = a.position.Add(push.Mul(a.invMass))
			b.position = b.position.Sub(push.Mul(b.invMass))
		}
	}
}
