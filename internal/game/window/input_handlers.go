package window

import (
	"github.com/go-gl/gl/v4.3-core/gl"
	"github.com/go-gl/glfw/v3.3/glfw"

	"voxtrace/internal/game"
	"voxtrace/internal/input"
)

// SetupInputHandlers wires window callbacks into the app's input manager.
func SetupInputHandlers(app *App) {
	window := app.window
	app.inputManager.Attach(window)

	// Framebuffer size callback
	window.SetFramebufferSizeCallback(func(w *glfw.Window, fbWidth, fbHeight int) {
		gl.Viewport(0, 0, int32(fbWidth), int32(fbHeight))
	})

	// Release the cursor when focus is lost
	window.SetFocusCallback(func(w *glfw.Window, focused bool) {
		if !focused {
			app.setCursorCaptured(false)
		}
	})
}

// sampleInput converts the held actions into one tick of Input.
func sampleInput(im *input.InputManager, captured bool) game.Input {
	in := game.Input{
		Forward:    im.IsActive(input.ActionMoveForward),
		Backward:   im.IsActive(input.ActionMoveBackward),
		Left:       im.IsActive(input.ActionMoveLeft),
		Right:      im.IsActive(input.ActionMoveRight),
		Up:         im.IsActive(input.ActionMoveUp),
		Down:       im.IsActive(input.ActionMoveDown),
		Place:      im.IsActive(input.ActionPlace),
		Break:      im.IsActive(input.ActionBreak),
		WidenView:  im.IsActive(input.ActionWidenView),
		NarrowView: im.IsActive(input.ActionNarrowView),
	}
	// Looking around only while the cursor is confined
	if captured {
		dx, dy := im.MouseDelta()
		in.MouseDX, in.MouseDY = float32(dx), float32(dy)
	}
	return in
}
