package graphics

import (
	_ "embed"

	"github.com/go-gl/gl/v4.3-core/gl"

	"voxtrace/internal/profiling"
)

var (
	//go:embed shaders/crosshair.vert
	crosshairVert string
	//go:embed shaders/crosshair.frag
	crosshairFrag string
)

// CrosshairVertices are two line segments in clip space.
var CrosshairVertices = []float32{
	-0.02, 0.0,
	0.02, 0.0,
	0.0, -0.02,
	0.0, 0.02,
}

// Crosshair draws the targeting cross. It turns red while a block is
// within reach.
type Crosshair struct {
	shader *Shader
	vao    uint32
	vbo    uint32
}

// NewCrosshair compiles the crosshair program. Requires a current GL context.
func NewCrosshair() (*Crosshair, error) {
	shader, err := NewShader(crosshairVert, crosshairFrag)
	if err != nil {
		return nil, err
	}
	c := &Crosshair{shader: shader}

	gl.GenVertexArrays(1, &c.vao)
	gl.BindVertexArray(c.vao)

	gl.GenBuffers(1, &c.vbo)
	gl.BindBuffer(gl.ARRAY_BUFFER, c.vbo)
	gl.BufferData(gl.ARRAY_BUFFER, len(CrosshairVertices)*4, gl.Ptr(CrosshairVertices), gl.STATIC_DRAW)

	gl.EnableVertexAttribArray(0)
	gl.VertexAttribPointerWithOffset(0, 2, gl.FLOAT, false, 2*4, 0)
	gl.BindVertexArray(0)
	return c, nil
}

// Render draws the crosshair for a viewport of the given aspect ratio.
func (c *Crosshair) Render(aspectRatio float32, targeting bool) {
	defer profiling.Track("graphics.Crosshair")()
	c.shader.Use()
	c.shader.SetFloat("aspectRatio", aspectRatio)
	if targeting {
		c.shader.SetVector3("color", 1, 0.3, 0.3)
	} else {
		c.shader.SetVector3("color", 1, 1, 1)
	}

	gl.BindVertexArray(c.vao)
	gl.LineWidth(1.0)
	gl.DrawArrays(gl.LINES, 0, 4)
	gl.BindVertexArray(0)
}

// Dispose cleans up OpenGL resources
func (c *Crosshair) Dispose() {
	if c.vao != 0 {
		gl.DeleteVertexArrays(1, &c.vao)
	}
	if c.vbo != 0 {
		gl.DeleteBuffers(1, &c.vbo)
	}
	c.shader.Delete()
}
