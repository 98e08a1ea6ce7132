package game

import (
	"math"

	"github.com/go-gl/mathgl/mgl32"
)

const (
	// ViewerSpeed is the flying speed in blocks per second.
	ViewerSpeed = 15
	// PitchLimit bounds the look pitch in radians.
	PitchLimit = 1.7
)

// Viewer is the free-flying camera. +Z is forward at zero yaw.
type Viewer struct {
	Position mgl32.Vec3
	Pitch    float32
	Yaw      float32
}

// NewViewer places a viewer at pos looking down +Z.
func NewViewer(pos mgl32.Vec3) Viewer {
	return Viewer{Position: pos}
}

// Rotation is yaw about Y applied after pitch about X.
func (v Viewer) Rotation() mgl32.Mat4 {
	return mgl32.HomogRotate3DY(v.Yaw).Mul4(mgl32.HomogRotate3DX(v.Pitch))
}

// Transform is the per-frame matrix handed to the raytracer: the viewer
// translation combined with the transposed rotation.
func (v Viewer) Transform() mgl32.Mat4 {
	return mgl32.Translate3D(v.Position.X(), v.Position.Y(), v.Position.Z()).Mul4(v.Rotation().Transpose())
}

// Forward is the unit look direction.
func (v Viewer) Forward() mgl32.Vec3 {
	return v.Rotation().Mul4x1(mgl32.Vec4{0, 0, 1, 0}).Vec3()
}

// Move flies the viewer for dt seconds. Horizontal axes follow the yaw only;
// the combined direction is capped at unit length before scaling.
func (v Viewer) Move(in Input, dt float32) Viewer {
	sin, cos := math.Sincos(float64(v.Yaw))
	forward := mgl32.Vec3{float32(sin), 0, float32(cos)}
	right := mgl32.Vec3{float32(cos), 0, float32(-sin)}
	up := mgl32.Vec3{0, 1, 0}

	var m mgl32.Vec3
	if in.Forward {
		m = m.Add(forward)
	}
	if in.Backward {
		m = m.Sub(forward)
	}
	if in.Right {
		m = m.Add(right)
	}
	if in.Left {
		m = m.Sub(right)
	}
	if in.Up {
		m = m.Add(up)
	}
	if in.Down {
		m = m.Sub(up)
	}
	if l := m.Len(); l > 1 {
		m = m.Mul(1 / l)
	}
	v.Position = v.Position.Add(m.Mul(dt * ViewerSpeed))
	return v
}

// Pan applies the mouse delta. Pitch is clamped to ±PitchLimit.
func (v Viewer) Pan(in Input, sensitivity float32) Viewer {
	v.Yaw += in.MouseDX * sensitivity
	v.Pitch = mgl32.Clamp(v.Pitch+in.MouseDY*sensitivity, -PitchLimit, PitchLimit)
	return v
}
