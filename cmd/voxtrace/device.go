package main

import (
	"fmt"

	"github.com/go-gl/glfw/v3.3/glfw"
	"go.uber.org/zap"

	gamewindow "voxtrace/internal/game/window"
	"voxtrace/internal/gpu"
	"voxtrace/internal/gpu/glcompute"
	"voxtrace/internal/terrain"
)

// openDevice creates the compute device. The GL backend also returns the
// window owning its context; headless runs keep that window hidden.
func openDevice(backend string, headless bool, log *zap.Logger) (gpu.Device, *glfw.Window, error) {
	switch backend {
	case "soft":
		return gpu.NewSoftDevice(log, terrain.SoftKernels()), nil, nil
	case "gl":
	default:
		return nil, nil, fmt.Errorf("unknown backend %q", backend)
	}

	shaders, err := terrain.Shaders()
	if err != nil {
		return nil, nil, err
	}
	if err := glfw.Init(); err != nil {
		return nil, nil, fmt.Errorf("init glfw: %w", err)
	}
	window, err := gamewindow.SetupWindow("voxtrace", !headless)
	if err != nil {
		glfw.Terminate()
		return nil, nil, fmt.Errorf("create window: %w", err)
	}
	dev, err := glcompute.New(log, shaders)
	if err != nil {
		window.Destroy()
		glfw.Terminate()
		return nil, nil, err
	}
	return dev, window, nil
}
