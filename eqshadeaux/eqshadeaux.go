// Package eqshadeaux contains host helpers to get started with eqshade quickly:
// scene file loading, PNG rendering and an interactive preview window.
package eqshadeaux

import (
	"context"
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/soypat/eqshade"
	"github.com/soypat/eqshade/glbuild"
	"github.com/soypat/eqshade/gleval"
	"github.com/soypat/eqshade/glrender"
)

type RenderConfig struct {
	// Width of the rendered field in pixels.
	Width int
	// Height of the rendered field in pixels. If zero it is sized
	// automatically from Width to preserve the aspect ratio of the domain.
	Height int
	// UseGPU evaluates the field with OpenGL. Requires cgo.
	UseGPU bool
	// Time is the wall clock time in seconds the field is rendered at.
	// The t variable is Time*unit_t.
	Time float32
	// Legend appends a colorbar with the brightness range below the image.
	Legend bool
	// Colormap converts normalized brightness to color. Nil selects [glrender.Grayscale].
	Colormap func(float32) color.Color
	// Logger receives progress and compiler diagnostics. Nil is silent.
	Logger *slog.Logger
}

// Render is an auxiliary function to aid users in getting setup in using eqshade quickly.
// It renders the scene and writes the image to w as PNG.
func Render(w io.Writer, s *Scene, cfg RenderConfig) error {
	if cfg.Width <= 0 || cfg.Height < 0 {
		return errors.New("Render requires positive image width")
	}
	log := cfg.Logger
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	conv := cfg.Colormap
	if conv == nil {
		conv = glrender.Grayscale
	}
	in, err := s.Input()
	if err != nil {
		return err
	}
	u, err := s.EvalUniforms()
	if err != nil {
		return err
	}
	height := cfg.Height
	if height == 0 {
		sz := u.Bounds.Size()
		height = max(1, int(float32(cfg.Width)*sz.Y/sz.X+0.5))
	}
	t := cfg.Time * u.UnitT

	watch := stopwatch()
	var field gleval.Field
	if cfg.UseGPU {
		log.Info("using GPU")
		terminate, err := gleval.Init1x1GLFW()
		if err != nil {
			return err
		}
		defer terminate()
		prog, err := eqshade.NewCompiler(eqshade.Config{Dialect: glbuild.DialectCore}).Compile(in)
		if err != nil {
			return err
		}
		LogDiagnostics(log, prog.Diagnostics)
		gpu, err := gleval.NewGPUField(prog, u.Bounds)
		if err != nil {
			return err
		}
		defer gpu.Delete()
		gpu.SetTime(t)
		field = gpu
	} else {
		log.Info("using CPU")
		cpu, err := gleval.NewCPUField(in, u.Bounds)
		if err != nil {
			return err
		}
		cpu.SetTime(t)
		field = cpu
	}
	log.Debug("instantiated field", slog.Duration("elapsed", watch()))

	renderer, err := glrender.NewImageRenderer(u.MinValue, u.MaxValue, conv)
	if err != nil {
		return err
	}
	fullHeight := height
	if cfg.Legend {
		fullHeight += legendHeight
	}
	img := image.NewRGBA(image.Rect(0, 0, cfg.Width, fullHeight))
	watch = stopwatch()
	err = renderer.Render(field, img.SubImage(image.Rect(0, 0, cfg.Width, height)).(*image.RGBA), nil)
	if err != nil {
		return err
	}
	log.Info("rendered field", slog.Int("width", cfg.Width), slog.Int("height", height), slog.Duration("elapsed", watch()))
	if cfg.Legend {
		err = drawLegend(img, image.Rect(0, height, cfg.Width, fullHeight), conv, u, legendCaption(u, t))
		if err != nil {
			return err
		}
	}
	return png.Encode(w, img)
}

// RenderPNGFile renders the scene and saves the result to a PNG file with said filename.
func RenderPNGFile(filename string, s *Scene, cfg RenderConfig) error {
	fp, err := os.Create(filename)
	if err != nil {
		return err
	}
	defer fp.Close()
	err = Render(fp, s, cfg)
	if err != nil {
		return err
	}
	if cfg.Logger != nil {
		cfg.Logger.Info("wrote image", slog.String("file", fp.Name()))
	}
	return fp.Sync()
}

// LogDiagnostics logs compiler diagnostics, errors at error level and
// warnings at warn level.
func LogDiagnostics(log *slog.Logger, diags []eqshade.Diagnostic) {
	for _, d := range diags {
		level := slog.LevelWarn
		if d.Severity == eqshade.SeverityError {
			level = slog.LevelError
		}
		where := d.Function
		if where == "" {
			where = "brightness"
		}
		log.Log(context.Background(), level, d.Msg, slog.String("function", where))
	}
}

// WriteProgram compiles the scene and writes the vertex and fragment units.
func WriteProgram(vert, frag io.Writer, s *Scene, cfg eqshade.Config) (eqshade.Program, error) {
	in, err := s.Input()
	if err != nil {
		return eqshade.Program{}, err
	}
	prog, err := eqshade.NewCompiler(cfg).Compile(in)
	if err != nil {
		return eqshade.Program{}, err
	}
	_, err = io.WriteString(vert, prog.Vertex)
	if err != nil {
		return prog, fmt.Errorf("writing vertex unit: %w", err)
	}
	_, err = io.WriteString(frag, prog.Fragment)
	if err != nil {
		return prog, fmt.Errorf("writing fragment unit: %w", err)
	}
	return prog, nil
}

func stopwatch() func() time.Duration {
	start := time.Now()
	return func() time.Duration {
		return time.Since(start)
	}
}

type UIConfig struct {
	Width, Height int
	// Context cancels the preview loop.
	Context context.Context
	Logger  *slog.Logger
	// Reload is polled about once a second. A nil scene means unchanged.
	// A scene that fails to compile is logged and the last good program
	// stays on screen.
	Reload func() (*Scene, error)
}

// Preview opens a window that draws the scene's grayscale brightness field
// with the time uniform driven by the wall clock. Requires cgo and must run
// on the main OS thread.
func Preview(s *Scene, cfg UIConfig) error {
	if cfg.Width <= 0 || cfg.Height <= 0 {
		return errors.New("Preview requires positive window dimensions")
	}
	return ui(s, cfg)
}
