package physics

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// Material describes the surface of a body or plane. When two surfaces touch
// their friction coefficients are combined with a geometric mean and the
// larger restitution wins.
type Material struct {
	Name        string
	Friction    float64
	Restitution float64
}

func combine(a, b Material) (friction, restitution float64) {
	friction = math.Sqrt(a.Friction * b.Friction)
	restitution = math.Max(a.Restitution, b.Restitution)
	return
}

// Pose is a position plus an orientation.
type Pose struct {
	Position   mgl64.Vec3
	Quaternion mgl64.Quat
}

func NewPose(position mgl64.Vec3) Pose {
	return Pose{
		Position:   position,
		Quaternion: mgl64.QuatIdent(),
	}
}

// Body is a dynamic box.
type Body struct {
	id          int
	halfExtents mgl64.Vec3
	mass        float64
	invMass     float64
	// Inverse of the principal moments of inertia in the body frame.
	invInertia mgl64.Vec3
	material   Material

	// Radius of the sphere used for body against body contacts.
	proxyRadius float64

	LinearDamping  float64
	AngularDamping float64

	position        mgl64.Vec3
	quaternion      mgl64.Quat
	velocity        mgl64.Vec3
	angularVelocity mgl64.Vec3
}

func newBox(id int, halfExtents mgl64.Vec3, mass float64, pose Pose, material Material) *Body {
	hx, hy, hz := halfExtents[0], halfExtents[1], halfExtents[2]

	body := &Body{
		id:          id,
		halfExtents: halfExtents,
		mass:        mass,
		material:    material,
		proxyRadius: math.Min(hx, math.Min(hy, hz)) * PROXY_RADIUS_SCALE,
		position:    pose.Position,
		quaternion:  pose.Quaternion.Normalize(),
	}

	if mass > 0 {
		body.invMass = 1 / mass
		body.invInertia = mgl64.Vec3{
			3 / (mass * (hy*hy + hz*hz)),
			3 / (mass * (hx*hx + hz*hz)),
			3 / (mass * (hx*hx + hy*hy)),
		}
	}

	return body
}

func (b *Body) ID() int { return b.id }
func (b *Body) HalfExtents() mgl64.Vec3 { return b.halfExtents }
func (b *Body) Mass() float64 { return b.mass }
func (b *Body) Material() Material { return b.material }
func (b *Body) Position() mgl64.Vec3 { return b.position }
func (b *Body) Quaternion() mgl64.Quat { return b.quaternion }
func (b *Body) Velocity() mgl64.Vec3 { return b.velocity }
func (b *Body) AngularVelocity() mgl64.Vec3 { return b.angularVelocity }

func (b *Body) SetPosition(position mgl64.Vec3) {
	b.position = position
}

// SetQuaternion normalizes the orientation before storing it.
func (b *Body) SetQuaternion(quaternion mgl64.Quat) {
	b.quaternion = quaternion.Normalize()
}

func (b *Body) SetVelocity(velocity mgl64.Vec3) {
	b.velocity = velocity
}

func (b *Body) SetAngularVelocity(angularVelocity mgl64.Vec3) {
	b.angularVelocity = angularVelocity
}

func (b *Body) isStatic() bool {
	return b.invMass == 0
}

// applyInvInertia multiplies v by the inverse inertia tensor in world space.
func (b *Body) applyInvInertia(v mgl64.Vec3) mgl64.Vec3 {
	local := b.quaternion.Conjugate().Rotate(v)
	local = mgl64.Vec3{
		local[0] * b.invInertia[0],
		local[1] * b.invInertia[1],
		local[2] * b.invInertia[2],
	}
	return b.quaternion.Rotate(local)
}

// velocityAt returns the velocity of the point at offset r from the center.
func (b *Body) velocityAt(r mgl64.Vec3) mgl64.Vec3 {
	return b.velocity.Add(b.angularVelocity.Cross(r))
}

func (b *Body) applyImpulse(impulse, r mgl64.Vec3) {
	if b.isStatic() {
		return
	}
	b.velocity = b.velocity.Add(impulse.Mul(b.invMass))
	b.angularVelocity = b.angularVelocity.Add(b.applyInvInertia(r.Cross(impulse)))
}

// corners returns the eight box corners in world space.
func (b *Body) corners() [8]mgl64.Vec3 {
	var out [8]mgl64.Vec3
	h := b.halfExtents
	i := 0
	for _, sx := range [2]float64{-1, 1} {
		for _, sy := range [2]float64{-1, 1} {
			for _, sz := range [2]float64{-1, 1} {
				local := mgl64.Vec3{sx * h[0], sy * h[1], sz * h[2]}
				out[i] = b.position.Add(b.quaternion.Rotate(local))
				i++
			}
		}
	}
	return out
}

func (b *Body) integrate(dt float64) {
	if b.isStatic() {
		return
	}

	b.position = b.position.Add(b.velocity.Mul(dt))

	spin := mgl64.Quat{W: 0, V: b.angularVelocity}
	delta := spin.Mul(b.quaternion).Scale(0.5 * dt)
	b.quaternion = b.quaternion.Add(delta).Normalize()
}

// Plane is an immovable half-space. Points p with Normal·p >= Offset are
// outside of it.
type Plane struct {
	Normal   mgl64.Vec3
	Offset   float64
	material Material
}

// newPlane builds a plane whose normal is the local +Y axis of pose.
func newPlane(pose Pose, material Material) *Plane {
	normal := pose.Quaternion.Normalize().Rotate(mgl64.Vec3{0, 1, 0}).Normalize()
	return &Plane{
		Normal:   normal,
		Offset:   normal.Dot(pose.Position),
		material: material,
	}
}

func (p *Plane) Material() Material { return p.material }

// Distance is the signed distance of point from the plane surface.
func (p *Plane) Distance(point mgl64.Vec3) float64 {
	return p.Normal.Dot(point) - p.Offset
}
