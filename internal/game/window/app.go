// Package window drives a game.Session from a glfw window with a GL context.
package window

import (
	"time"

	"github.com/go-gl/gl/v4.3-core/gl"
	"github.com/go-gl/glfw/v3.3/glfw"
	"go.uber.org/zap"

	"voxtrace/internal/game"
	"voxtrace/internal/graphics"
	"voxtrace/internal/input"
	"voxtrace/internal/profiling"
)

// slowTick is the processing time above which a tick is logged.
const slowTick = 16 * time.Millisecond

// App drives a Session from a glfw window.
type App struct {
	window       *glfw.Window
	inputManager *input.InputManager
	session      *game.Session
	crosshair    *graphics.Crosshair
	log          *zap.Logger

	// Save is called on F5. Optional.
	Save func() error

	fpsLimiter *game.FPSLimiter
	tickRate   int
	captured   bool
	profile    bool
	lastTime   time.Time
}

// NewApp creates an app ticking session at tickRate ticks per second.
func NewApp(window *glfw.Window, im *input.InputManager, session *game.Session, tickRate int, log *zap.Logger) *App {
	return &App{
		window:       window,
		inputManager: im,
		session:      session,
		log:          log,
		fpsLimiter:   game.NewFPSLimiter(),
		tickRate:     tickRate,
		lastTime:     time.Now(),
	}
}

// Run ticks until the window closes or a tick fails.
func (a *App) Run() error {
	crosshair, err := graphics.NewCrosshair()
	if err != nil {
		return err
	}
	a.crosshair = crosshair
	defer crosshair.Dispose()

	a.setCursorCaptured(true)
	for !a.window.ShouldClose() {
		if err := a.tick(); err != nil {
			return err
		}
	}
	return nil
}

func (a *App) tick() error {
	profiling.ResetTick()
	startTick := time.Now() // Measure pure processing time
	dt := startTick.Sub(a.lastTime).Seconds()
	a.lastTime = startTick

	glfw.PollEvents()
	im := a.inputManager

	if im.JustPressed(input.ActionQuit) {
		a.window.SetShouldClose(true)
	}
	if im.JustPressed(input.ActionToggleCursor) {
		a.setCursorCaptured(!a.captured)
	}
	if im.JustPressed(input.ActionToggleProfiling) {
		a.profile = !a.profile
	}
	if im.JustPressed(input.ActionSave) && a.Save != nil {
		if err := a.Save(); err != nil {
			a.log.Error("save failed", zap.Error(err))
		}
	}

	snap, err := a.session.Advance(sampleInput(im, a.captured), float32(dt))
	if err != nil {
		return err
	}

	gl.ClearColor(0, 0, 0, 1)
	gl.Clear(gl.COLOR_BUFFER_BIT)
	if w, h := a.window.GetFramebufferSize(); w > 0 && h > 0 {
		a.crosshair.Render(float32(w)/float32(h), a.session.Target().Hit)
	}
	a.window.SwapBuffers()

	// Check if tick took too long
	if d := time.Since(startTick); d > slowTick || a.profile {
		a.log.Info("tick timing",
			zap.Duration("elapsed", d),
			zap.Uint64("tick", snap.Tick),
			zap.String("top", profiling.TopN(5)))
	}

	im.PostUpdate() // Clear "JustPressed" flags and mouse motion
	a.fpsLimiter.Wait(a.tickRate)
	return nil
}

func (a *App) setCursorCaptured(captured bool) {
	a.captured = captured
	if captured {
		a.window.SetInputMode(glfw.CursorMode, glfw.CursorDisabled)
	} else {
		a.window.SetInputMode(glfw.CursorMode, glfw.CursorNormal)
	}
	a.inputManager.ResetCursor()
}
