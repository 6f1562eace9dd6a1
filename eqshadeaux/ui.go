//go:build !tinygo && cgo

package eqshadeaux

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/go-gl/gl/v4.6-core/gl"
	"github.com/go-gl/glfw/v3.3/glfw"
	"github.com/soypat/eqshade"
	"github.com/soypat/eqshade/glbuild"
	"github.com/soypat/glgl/v4.6-core/glgl"
)

// previewProgram is a linked brightness program and its uniform locations.
type previewProgram struct {
	prog     glgl.Program
	uniforms map[string]int32
	u        Uniforms
}

func ui(s *Scene, cfg UIConfig) error {
	log := cfg.Logger
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	window, term, err := startGLFW(cfg.Width, cfg.Height)
	if err != nil {
		return err
	}
	defer term()
	current, err := compilePreview(s, log)
	if err != nil {
		return err
	}
	defer func() { current.prog.Delete() }()

	// Define a quad covering the screen.
	var vao uint32
	gl.GenVertexArrays(1, &vao)
	gl.BindVertexArray(vao)
	defer gl.DeleteVertexArrays(1, &vao)
	var vbo uint32
	gl.GenBuffers(1, &vbo)
	gl.BindBuffer(gl.ARRAY_BUFFER, vbo)
	defer gl.DeleteBuffers(1, &vbo)
	vertices := []float32{
		-1.0, -1.0,
		1.0, -1.0,
		-1.0, 1.0,
		-1.0, 1.0,
		1.0, -1.0,
		1.0, 1.0,
	}
	gl.BufferData(gl.ARRAY_BUFFER, 4*len(vertices), gl.Ptr(vertices), gl.STATIC_DRAW)
	bindQuad := func(p previewProgram) error {
		posAttrib, err := p.prog.AttribLocation("aPos\x00")
		if err != nil {
			return err
		}
		gl.BindVertexArray(vao)
		gl.EnableVertexAttribArray(posAttrib)
		gl.VertexAttribPointer(posAttrib, 2, gl.FLOAT, false, 0, gl.PtrOffset(0))
		return nil
	}
	if err = bindQuad(current); err != nil {
		return err
	}

	ctx := cfg.Context
	lastReload := time.Now()
	for !window.ShouldClose() {
		if ctx != nil {
			select {
			case <-ctx.Done():
				return ctx.Err()
			default:
			}
		}
		if cfg.Reload != nil && time.Since(lastReload) > time.Second {
			lastReload = time.Now()
			next, changed, err := reloadPreview(cfg.Reload, log)
			switch {
			case err != nil:
				log.Error("reload failed, keeping last program", slog.String("err", err.Error()))
			case changed:
				if err = bindQuad(next); err != nil {
					next.prog.Delete()
					log.Error("binding reloaded program", slog.String("err", err.Error()))
					break
				}
				current.prog.Delete()
				current = next
				log.Info("reloaded scene")
			}
		}
		width, height := window.GetFramebufferSize()
		gl.Viewport(0, 0, int32(width), int32(height))
		gl.ClearColor(0.0, 0.0, 0.0, 1.0)
		gl.Clear(gl.COLOR_BUFFER_BIT)

		current.prog.Bind()
		u := current.u
		values := map[string]float32{
			"width":     float32(width),
			"height":    float32(height),
			"time":      float32(glfw.GetTime()),
			"unit_t":    u.UnitT,
			"min_value": u.MinValue,
			"max_value": u.MaxValue,
			"min_x":     u.Bounds.Min.X,
			"max_x":     u.Bounds.Max.X,
			"min_y":     u.Bounds.Min.Y,
			"max_y":     u.Bounds.Max.Y,
		}
		for name, loc := range current.uniforms {
			gl.Uniform1f(loc, values[name])
		}
		gl.BindVertexArray(vao)
		gl.DrawArrays(gl.TRIANGLES, 0, 6)
		window.SwapBuffers()

		// Limit frame rate.
		time.Sleep(time.Second / 60)
		glfw.PollEvents()
	}
	return nil
}

// reloadPreview loads a scene with reload and compiles it. changed is false
// when reload returned a nil scene.
func reloadPreview(reload func() (*Scene, error), log *slog.Logger) (p previewProgram, changed bool, err error) {
	s, err := reload()
	if err != nil || s == nil {
		return p, false, err
	}
	p, err = compilePreview(s, log)
	if err != nil {
		return p, false, err
	}
	return p, true, nil
}

func compilePreview(s *Scene, log *slog.Logger) (previewProgram, error) {
	in, err := s.Input()
	if err != nil {
		return previewProgram{}, err
	}
	u, err := s.EvalUniforms()
	if err != nil {
		return previewProgram{}, err
	}
	prog, err := eqshade.NewCompiler(eqshade.Config{Dialect: glbuild.DialectCore}).Compile(in)
	if err != nil {
		return previewProgram{}, err
	}
	LogDiagnostics(log, prog.Diagnostics)
	glprog, err := glgl.CompileProgram(glgl.ShaderSource{
		Vertex:   prog.Vertex + "\x00",
		Fragment: prog.Fragment + "\x00",
	})
	if err != nil {
		return previewProgram{}, fmt.Errorf("%s\n\n%w", prog.Fragment, err)
	}
	p := previewProgram{
		prog:     glprog,
		uniforms: make(map[string]int32, len(glbuild.Uniforms)),
		u:        u,
	}
	for _, name := range glbuild.Uniforms {
		loc, err := glprog.UniformLocation(name + "\x00")
		if err != nil {
			continue // Unused uniforms are optimized out.
		}
		p.uniforms[name] = loc
	}
	return p, nil
}

func startGLFW(width, height int) (window *glfw.Window, term func(), err error) {
	if err := glfw.Init(); err != nil {
		return nil, nil, fmt.Errorf("failed to initialize GLFW: %w", err)
	}

	glfw.WindowHint(glfw.ContextVersionMajor, 4)
	glfw.WindowHint(glfw.ContextVersionMinor, 6)
	glfw.WindowHint(glfw.OpenGLProfile, glfw.OpenGLCoreProfile)
	glfw.WindowHint(glfw.Resizable, glfw.True)

	window, err = glfw.CreateWindow(width, height, "eqshade brightness field", nil, nil)
	if err != nil {
		glfw.Terminate()
		return nil, nil, fmt.Errorf("failed to create GLFW window: %w", err)
	}
	window.MakeContextCurrent()

	if err := gl.Init(); err != nil {
		glfw.Terminate()
		return nil, nil, fmt.Errorf("failed to initialize OpenGL: %w", err)
	}
	return window, glfw.Terminate, nil
}
