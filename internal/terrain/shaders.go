package terrain

import (
	"embed"
	"fmt"

	"voxtrace/internal/gpu"
)

//go:embed shaders/*.comp
var shaderFS embed.FS

var shaderFiles = map[gpu.Kernel]string{
	gpu.KernelTerrain:       "shaders/terrain.comp",
	gpu.KernelDistanceSetup: "shaders/distance_setup.comp",
	gpu.KernelDistanceSweep: "shaders/distance_sweep.comp",
}

// Shaders returns the GLSL compute source of every kernel.
func Shaders() (map[gpu.Kernel]string, error) {
	out := make(map[gpu.Kernel]string, len(shaderFiles))
	for k, name := range shaderFiles {
		src, err := shaderFS.ReadFile(name)
		if err != nil {
			return nil, fmt.Errorf("shader for %v: %w", k, err)
		}
		out[k] = string(src)
	}
	return out, nil
}
