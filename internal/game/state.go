package game

import (
	"voxtrace/internal/config"
	"voxtrace/internal/world"
)

// fovStep is the field of view change, in degrees, per tick a zoom key is held.
const fovStep = 0.5

// Input is the sampled control state for one tick.
type Input struct {
	Forward, Backward bool
	Left, Right       bool
	Up, Down          bool

	MouseDX, MouseDY float32

	Place bool // place grass against the targeted face
	Break bool // remove the targeted block

	WidenView  bool
	NarrowView bool
}

// State is everything a tick advances.
type State struct {
	Viewer      Viewer
	FieldOfView float32
}

// Params are the fixed inputs of Step.
type Params struct {
	Sensitivity float32
}

// Step advances s by one tick of dt seconds. It has no side effects.
func Step(s State, in Input, dt float32, p Params) State {
	s.Viewer = s.Viewer.Pan(in, p.Sensitivity).Move(in, dt)
	if in.WidenView {
		s.FieldOfView += fovStep
	}
	if in.NarrowView {
		s.FieldOfView -= fovStep
	}
	s.FieldOfView = config.ClampFieldOfView(s.FieldOfView)
	return s
}

// Chunk returns the chunk containing the viewer.
func (s State) Chunk(edge int) world.ChunkCoord {
	return world.ViewerChunk(s.Viewer.Position, edge)
}
