package input

import (
	"testing"

	"github.com/go-gl/glfw/v3.3/glfw"
)

func TestKeyEdges(t *testing.T) {
	im := NewInputManager()
	im.HandleKeyEvent(glfw.KeyW, glfw.Press)
	if !im.IsActive(ActionMoveForward) || !im.JustPressed(ActionMoveForward) {
		t.Fatalf("Expected W to be held and just pressed")
	}
	im.PostUpdate()
	im.HandleKeyEvent(glfw.KeyW, glfw.Repeat)
	if !im.IsActive(ActionMoveForward) || im.JustPressed(ActionMoveForward) {
		t.Errorf("Expected repeat to hold without a new edge")
	}
	im.HandleKeyEvent(glfw.KeyW, glfw.Release)
	if im.IsActive(ActionMoveForward) {
		t.Errorf("Expected release to clear the action")
	}
}

func TestMouseButtons(t *testing.T) {
	im := NewInputManager()
	im.HandleMouseButtonEvent(glfw.MouseButtonRight, glfw.Press)
	if !im.IsActive(ActionBreak) || im.IsActive(ActionPlace) {
		t.Errorf("Expected right button to map to break only")
	}
}

func TestMouseDelta(t *testing.T) {
	im := NewInputManager()
	im.HandleCursorPos(100, 100)
	im.HandleCursorPos(110, 95)
	im.HandleCursorPos(115, 90)
	if dx, dy := im.MouseDelta(); dx != 15 || dy != -10 {
		t.Errorf("Expected delta (15,-10), got (%v,%v)", dx, dy)
	}
	im.PostUpdate()
	if dx, dy := im.MouseDelta(); dx != 0 || dy != 0 {
		t.Errorf("Expected delta reset, got (%v,%v)", dx, dy)
	}
	im.ResetCursor()
	im.HandleCursorPos(0, 0)
	if dx, dy := im.MouseDelta(); dx != 0 || dy != 0 {
		t.Errorf("Expected no jump after reset, got (%v,%v)", dx, dy)
	}
}

func TestUnboundIgnored(t *testing.T) {
	im := NewInputManager()
	im.HandleKeyEvent(glfw.KeyZ, glfw.Press)
	for a := Action(0); a < ActionCount; a++ {
		if im.IsActive(a) {
			t.Fatalf("Unexpected active action %d", a)
		}
	}
	if im.IsActive(ActionCount) {
		t.Errorf("Sentinel must never be active")
	}
}
