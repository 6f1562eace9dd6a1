// Command eqshade compiles MathJSON brightness fields described in scene
// files into GLSL programs, renders them to PNG or previews them live.
//
//	eqshade compile [flags] scene.cue
//	eqshade render [flags] scene.cue
//	eqshade preview [flags] scene.cue
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/soypat/eqshade"
	"github.com/soypat/eqshade/eqshadeaux"
	"github.com/soypat/eqshade/glbuild"
)

func init() {
	// GLFW event handling must run on the main OS thread.
	runtime.LockOSThread()
}

const usage = `usage: eqshade <compile|render|preview> [flags] <scene file>

Scene files are CUE or JSON documents with functions, constants, an
equation and host uniforms. Run a subcommand with -h for its flags.
`

func main() {
	err := run(os.Args[1:], os.Stdout, os.Stderr)
	if errors.Is(err, flag.ErrHelp) {
		os.Exit(2)
	} else if err != nil {
		fmt.Fprintln(os.Stderr, "eqshade:", err)
		os.Exit(1)
	}
}

func run(args []string, stdout, stderr io.Writer) error {
	if len(args) == 0 {
		fmt.Fprint(stderr, usage)
		return flag.ErrHelp
	}
	cmd, args := args[0], args[1:]
	fs := flag.NewFlagSet("eqshade "+cmd, flag.ContinueOnError)
	fs.SetOutput(stderr)
	var (
		logLevel   = fs.String("log", "info", "log level: debug, info, warn or error")
		logFile    = fs.String("logfile", "", "also write JSON logs to this file")
		logJournal = fs.Bool("journal", false, "also send logs to the systemd journal")
	)
	var command func(log *slog.Logger, scene string) error
	switch cmd {
	case "compile":
		command = compileFlags(fs, stdout)
	case "render":
		command = renderFlags(fs)
	case "preview":
		command = previewFlags(fs)
	case "help", "-h", "-help", "--help":
		fmt.Fprint(stderr, usage)
		return nil
	default:
		fmt.Fprint(stderr, usage)
		return fmt.Errorf("unknown command %q", cmd)
	}
	err := fs.Parse(args)
	if err != nil {
		return err
	}
	if fs.NArg() != 1 {
		fs.Usage()
		return errors.New("expected exactly one scene file argument")
	}
	var level slog.Level
	err = level.UnmarshalText([]byte(*logLevel))
	if err != nil {
		return err
	}
	log, closeLog, err := newLogger(stderr, logConfig{level: level, file: *logFile, journal: *logJournal})
	if err != nil {
		return err
	}
	defer closeLog()
	return command(log, fs.Arg(0))
}

func compileFlags(fs *flag.FlagSet, stdout io.Writer) func(*slog.Logger, string) error {
	var (
		dialect = fs.String("dialect", "core", "GLSL dialect: core (#version 460) or webgl")
		out     = fs.String("o", "", "output path prefix for .vert and .frag files, fragment unit printed to stdout if empty")
		unroll  = fs.Int("unroll", 0, "largest iteration count unrolled into straight-line code, 0 selects the default and negative always loops")
	)
	return func(log *slog.Logger, scene string) error {
		cfg := eqshade.Config{UnrollLimit: *unroll}
		switch *dialect {
		case "core":
			cfg.Dialect = glbuild.DialectCore
		case "webgl":
			cfg.Dialect = glbuild.DialectWebGL
		default:
			return fmt.Errorf("unknown dialect %q", *dialect)
		}
		s, err := eqshadeaux.LoadSceneFile(scene)
		if err != nil {
			return err
		}
		if *out == "" {
			prog, err := eqshadeaux.WriteProgram(io.Discard, stdout, s, cfg)
			eqshadeaux.LogDiagnostics(log, prog.Diagnostics)
			return err
		}
		vert, err := os.Create(*out + ".vert")
		if err != nil {
			return err
		}
		defer vert.Close()
		frag, err := os.Create(*out + ".frag")
		if err != nil {
			return err
		}
		defer frag.Close()
		prog, err := eqshadeaux.WriteProgram(vert, frag, s, cfg)
		if err != nil {
			return err
		}
		eqshadeaux.LogDiagnostics(log, prog.Diagnostics)
		log.Info("wrote program", slog.String("vertex", vert.Name()), slog.String("fragment", frag.Name()), slog.String("dialect", cfg.Dialect.String()))
		return nil
	}
}

func renderFlags(fs *flag.FlagSet) func(*slog.Logger, string) error {
	var (
		out      = fs.String("o", "", "output PNG file, defaults to the scene name with .png extension")
		width    = fs.Int("width", 800, "image width in pixels")
		height   = fs.Int("height", 0, "image height in pixels, 0 preserves the domain aspect ratio")
		t        = fs.Float64("t", 0, "wall clock time in seconds, scaled by unit_t")
		useGPU   = fs.Bool("gpu", false, "evaluate the field on the GPU")
		legend   = fs.Bool("legend", false, "append a colorbar legend")
		colormap = fs.String("colormap", "gray", "colormap: "+strings.Join(eqshadeaux.Colormaps, ", "))
	)
	return func(log *slog.Logger, scene string) error {
		conv, err := eqshadeaux.ColorConversionByName(*colormap)
		if err != nil {
			return err
		}
		s, err := eqshadeaux.LoadSceneFile(scene)
		if err != nil {
			return err
		}
		filename := *out
		if filename == "" {
			filename = strings.TrimSuffix(filepath.Base(scene), filepath.Ext(scene)) + ".png"
		}
		return eqshadeaux.RenderPNGFile(filename, s, eqshadeaux.RenderConfig{
			Width:    *width,
			Height:   *height,
			UseGPU:   *useGPU,
			Time:     float32(*t),
			Legend:   *legend,
			Colormap: conv,
			Logger:   log,
		})
	}
}

func previewFlags(fs *flag.FlagSet) func(*slog.Logger, string) error {
	var (
		width  = fs.Int("width", 800, "window width")
		height = fs.Int("height", 600, "window height")
		watch  = fs.Bool("watch", true, "reload the scene file when it changes")
	)
	return func(log *slog.Logger, scene string) error {
		s, err := eqshadeaux.LoadSceneFile(scene)
		if err != nil {
			return err
		}
		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
		defer stop()
		cfg := eqshadeaux.UIConfig{
			Width:   *width,
			Height:  *height,
			Context: ctx,
			Logger:  log,
		}
		if *watch {
			cfg.Reload = fileReloader(scene)
		}
		err = eqshadeaux.Preview(s, cfg)
		if errors.Is(err, context.Canceled) {
			return nil
		}
		return err
	}
}

// fileReloader returns a reload function that loads the scene file only
// after its modification time changes.
func fileReloader(scene string) func() (*eqshadeaux.Scene, error) {
	var lastMod time.Time
	if info, err := os.Stat(scene); err == nil {
		lastMod = info.ModTime()
	}
	return func() (*eqshadeaux.Scene, error) {
		info, err := os.Stat(scene)
		if err != nil {
			return nil, err
		}
		if !info.ModTime().After(lastMod) {
			return nil, nil
		}
		lastMod = info.ModTime()
		return eqshadeaux.LoadSceneFile(scene)
	}
}
