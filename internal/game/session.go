package game

import (
	"errors"
	"time"

	"github.com/go-gl/mathgl/mgl32"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"voxtrace/internal/gpu"
	"voxtrace/internal/physics"
	"voxtrace/internal/profiling"
	"voxtrace/internal/streaming"
	"voxtrace/internal/world"
)

// Frame is what the raytracer receives each tick.
type Frame struct {
	Transform      mgl32.Mat4
	FieldOfView    float32
	Viewer         world.ChunkCoord
	RenderDistance int
	Slots          *gpu.SlotPool
}

// Renderer consumes the slot arena once per tick.
type Renderer interface {
	Render(f Frame) error
}

// Snapshot describes the session after a tick.
type Snapshot struct {
	Tick        uint64           `json:"tick"`
	Position    [3]float32       `json:"position"`
	Pitch       float32          `json:"pitch"`
	Yaw         float32          `json:"yaw"`
	FieldOfView float32          `json:"field_of_view"`
	Streaming   streaming.Report `json:"streaming"`
	Edits       int              `json:"edits"`
}

// SessionOptions configures a Session.
type SessionOptions struct {
	Sensitivity    float32
	EditsPerSecond float64
	Renderer       Renderer       // optional
	OnTick         func(Snapshot) // optional
}

// Session owns all mutable game state and drives one tick at a time:
// Step, streaming, edits, then rendering.
type Session struct {
	ctrl   *streaming.Controller
	log    *zap.Logger
	params Params
	opts   SessionOptions
	edits  *rate.Limiter

	state State
	prev  *world.ChunkCoord
	tick  uint64
}

// NewSession creates a session starting from initial.
func NewSession(ctrl *streaming.Controller, initial State, opts SessionOptions, log *zap.Logger) *Session {
	burst := max(int(opts.EditsPerSecond), 1)
	return &Session{
		ctrl:   ctrl,
		log:    log,
		params: Params{Sensitivity: opts.Sensitivity},
		opts:   opts,
		edits:  rate.NewLimiter(rate.Limit(opts.EditsPerSecond), burst),
		state:  initial,
	}
}

// State returns the current game state.
func (s *Session) State() State { return s.state }

// Controller returns the streaming controller.
func (s *Session) Controller() *streaming.Controller { return s.ctrl }

// Advance runs one tick. Only device failures are returned; edits that
// target unloaded chunks are dropped.
func (s *Session) Advance(in Input, dt float32) (Snapshot, error) {
	defer profiling.Track("game.Advance")()
	s.tick++
	s.state = Step(s.state, in, dt, s.params)

	edge := s.ctrl.Pool().Edge()
	cur := s.state.Chunk(edge)
	report, err := s.ctrl.Tick(s.prev, cur)
	if err != nil {
		return Snapshot{}, err
	}
	s.prev = &cur

	edits, err := s.applyEdits(in, time.Now())
	if err != nil {
		return Snapshot{}, err
	}

	if s.opts.Renderer != nil {
		err := s.opts.Renderer.Render(Frame{
			Transform:      s.state.Viewer.Transform(),
			FieldOfView:    s.state.FieldOfView,
			Viewer:         cur,
			RenderDistance: s.ctrl.Pool().Ring().RenderDistance,
			Slots:          s.ctrl.Pool(),
		})
		if err != nil {
			return Snapshot{}, err
		}
	}

	pos := s.state.Viewer.Position
	snap := Snapshot{
		Tick:        s.tick,
		Position:    [3]float32{pos.X(), pos.Y(), pos.Z()},
		Pitch:       s.state.Viewer.Pitch,
		Yaw:         s.state.Viewer.Yaw,
		FieldOfView: s.state.FieldOfView,
		Streaming:   report,
		Edits:       edits,
	}
	if s.opts.OnTick != nil {
		s.opts.OnTick(snap)
	}
	return snap, nil
}

// Target returns the block the viewer is looking at, if any.
func (s *Session) Target() physics.RaycastResult {
	v := s.state.Viewer
	return physics.Raycast(v.Position, v.Forward(), physics.MinReachDistance, physics.MaxReachDistance, s.ctrl.Store())
}

func (s *Session) applyEdits(in Input, now time.Time) (int, error) {
	if !in.Place && !in.Break {
		return 0, nil
	}
	hit := s.Target()
	if !hit.Hit {
		return 0, nil
	}

	n := 0
	try := func(p world.BlockPos, b world.Block) error {
		if !s.edits.AllowN(now, 1) {
			return nil
		}
		err := s.ctrl.PlaceBlock(p, b.Code())
		switch {
		case errors.Is(err, world.ErrChunkNotLoaded):
			s.log.Debug("edit dropped", zap.Any("pos", p), zap.Error(err))
			return nil
		case err != nil:
			return err
		}
		n++
		return nil
	}
	if in.Place {
		if err := try(hit.AdjacentPosition, world.Grass); err != nil {
			return n, err
		}
	}
	if in.Break {
		if err := try(hit.HitPosition, world.Air); err != nil {
			return n, err
		}
	}
	return n, nil
}
