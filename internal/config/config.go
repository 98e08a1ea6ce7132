package config

import "sync"

const (
	MinRenderDistance = 1
	MaxRenderDistance = 8

	MinFieldOfView = 50
	MaxFieldOfView = 160
)

// RenderSettings holds render configuration that may change while running.
type RenderSettings struct {
	mu               sync.RWMutex
	renderDistance   int     // in chunks
	mouseSensitivity float32 // radians per pixel
}

var globalRenderSettings = &RenderSettings{
	renderDistance:   3, // default value
	mouseSensitivity: 0.002,
}

// GetRenderDistance returns the current render distance in chunks
func GetRenderDistance() int {
	globalRenderSettings.mu.RLock()
	defer globalRenderSettings.mu.RUnlock()
	return globalRenderSettings.renderDistance
}

// SetRenderDistance sets the render distance in chunks
func SetRenderDistance(distance int) {
	globalRenderSettings.mu.Lock()
	defer globalRenderSettings.mu.Unlock()
	globalRenderSettings.renderDistance = ClampRenderDistance(distance)
}

// GetMouseSensitivity returns the look sensitivity in radians per pixel.
func GetMouseSensitivity() float32 {
	globalRenderSettings.mu.RLock()
	defer globalRenderSettings.mu.RUnlock()
	return globalRenderSettings.mouseSensitivity
}

// SetMouseSensitivity sets the look sensitivity. Non-positive values are ignored.
func SetMouseSensitivity(s float32) {
	if s <= 0 {
		return
	}
	globalRenderSettings.mu.Lock()
	defer globalRenderSettings.mu.Unlock()
	globalRenderSettings.mouseSensitivity = s
}

// ClampRenderDistance limits a render distance to the supported range.
func ClampRenderDistance(distance int) int {
	return min(max(distance, MinRenderDistance), MaxRenderDistance)
}

// ClampFieldOfView limits a field of view, in degrees, to the supported range.
func ClampFieldOfView(fov float32) float32 {
	return min(max(fov, MinFieldOfView), MaxFieldOfView)
}
