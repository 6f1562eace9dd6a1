package eqshadeaux

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"math"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/soypat/eqshade/glrender"
	"github.com/soypat/geometry/ms2"
)

func loadTestScene(t *testing.T, name string) *Scene {
	t.Helper()
	s, err := LoadSceneFile(filepath.Join("testdata", name))
	if err != nil {
		t.Fatal(err)
	}
	return s
}

func TestLoadScene(t *testing.T) {
	for _, test := range []struct {
		file      string
		functions []string
		constants []string
		uniforms  Uniforms
	}{
		{
			file:      "mandelbrot.cue",
			functions: []string{"f", "escape"},
			constants: []string{"R"},
			uniforms: Uniforms{
				MinValue: 0, MaxValue: 4,
				Bounds: ms2.Box{Min: ms2.Vec{X: -2.5, Y: -1.25}, Max: ms2.Vec{X: 1, Y: 1.25}},
				UnitT:  1,
			},
		},
		{
			file:      "julia.json",
			functions: []string{"f_1", "escape"},
			constants: []string{"r", "R"},
			uniforms: Uniforms{
				MinValue: 0, MaxValue: 4,
				Bounds: ms2.Box{Min: ms2.Vec{X: -1.6, Y: -1.2}, Max: ms2.Vec{X: 1.6, Y: 1.2}},
				UnitT:  math.Pi / 4,
			},
		},
	} {
		t.Run(test.file, func(t *testing.T) {
			s := loadTestScene(t, test.file)
			in, err := s.Input()
			if err != nil {
				t.Fatal(err)
			}
			var functions, constants []string
			for _, fn := range in.Functions {
				functions = append(functions, fn.Symbol)
			}
			for _, c := range in.Constants {
				constants = append(constants, c.Symbol)
			}
			if diff := cmp.Diff(test.functions, functions); diff != "" {
				t.Errorf("functions mismatch (-want +got):\n%s", diff)
			}
			if diff := cmp.Diff(test.constants, constants); diff != "" {
				t.Errorf("constants mismatch (-want +got):\n%s", diff)
			}
			u, err := s.EvalUniforms()
			if err != nil {
				t.Fatal(err)
			}
			if diff := cmp.Diff(test.uniforms, u, cmpopts.EquateApprox(0, 1e-6)); diff != "" {
				t.Errorf("uniforms mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestLoadSceneInvalid(t *testing.T) {
	for _, test := range []struct {
		name string
		src  string
	}{
		{name: "missing equation", src: `constants: [{symbol: "a", value: 1}]`},
		{name: "unknown field", src: `equation: "x", colormap: "fire"`},
		{name: "empty constant symbol", src: `equation: "x", constants: [{symbol: "", value: 1}]`},
		{name: "bad expression", src: `equation: [1, 2]`},
		{name: "syntax", src: `equation: [`},
	} {
		_, err := LoadScene([]byte(test.src), test.name+".cue")
		if err == nil {
			t.Errorf("%s: expected error loading %s", test.name, test.src)
		}
	}
}

func TestEvalUniforms(t *testing.T) {
	s, err := LoadScene([]byte(`equation: "x"`), "default.cue")
	if err != nil {
		t.Fatal(err)
	}
	u, err := s.EvalUniforms()
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff(DefaultUniforms(), u); diff != "" {
		t.Errorf("default uniforms mismatch (-want +got):\n%s", diff)
	}

	for _, test := range []struct {
		src     string
		wantErr string
	}{
		{src: `equation: "x", uniforms: {max_value: 0}`, wantErr: "must differ"},
		{src: `equation: "x", uniforms: {min_x: 3}`, wantErr: "empty domain"},
		{src: `equation: "x", uniforms: {min_y: "x"}`, wantErr: "min_y"},
		{src: `equation: "x", uniforms: {unit_t: ["Divide", 1, 0]}`, wantErr: "unit_t"},
		{src: `equation: "x", uniforms: {max_x: ["Complex", 1, 2]}`, wantErr: "want float"},
	} {
		s, err := LoadScene([]byte(test.src), "uniforms.cue")
		if err != nil {
			t.Fatal(err)
		}
		_, err = s.EvalUniforms()
		if err == nil || !strings.Contains(err.Error(), test.wantErr) {
			t.Errorf("%s: want error containing %q, got %v", test.src, test.wantErr, err)
		}
	}
}

func TestRenderCPU(t *testing.T) {
	s := loadTestScene(t, "mandelbrot.cue")
	const width = 35
	for _, legend := range []bool{false, true} {
		var buf bytes.Buffer
		err := Render(&buf, s, RenderConfig{Width: width, Legend: legend})
		if err != nil {
			t.Fatal(err)
		}
		img, err := png.Decode(&buf)
		if err != nil {
			t.Fatal(err)
		}
		// Domain is 3.5 by 2.5.
		wantHeight := 25
		if legend {
			wantHeight += legendHeight
		}
		if got := img.Bounds(); got != image.Rect(0, 0, width, wantHeight) {
			t.Errorf("legend=%v: got bounds %v, want height %d", legend, got, wantHeight)
		}
		// Origin of the complex plane lies inside the set, a near zero brightness.
		ox := int(2.5 / 3.5 * width)
		domainH := 25.0
		oy := 25 - 1 - int(1.25/2.5*domainH)
		if r, _, _, _ := img.At(ox, oy).RGBA(); r>>8 > 16 {
			t.Errorf("legend=%v: origin pixel not dark, red=%d", legend, r>>8)
		}
		// Far corner escapes to the clamp radius, the max brightness.
		if r, _, _, _ := img.At(width-1, 0).RGBA(); r>>8 < 200 {
			t.Errorf("legend=%v: escaped pixel not bright, red=%d", legend, r>>8)
		}
	}
}

func TestRenderBadConfig(t *testing.T) {
	s := loadTestScene(t, "mandelbrot.cue")
	var buf bytes.Buffer
	err := Render(&buf, s, RenderConfig{Width: 0})
	if err == nil {
		t.Error("expected error for zero width")
	}
	err = Render(&buf, &Scene{}, RenderConfig{Width: 8})
	if err == nil {
		t.Error("expected error for scene without equation")
	}
}

func TestDrawLegend(t *testing.T) {
	const width = 200
	img := image.NewRGBA(image.Rect(0, 0, width, legendHeight))
	u := DefaultUniforms()
	err := drawLegend(img, img.Bounds(), glrender.Grayscale, u, legendCaption(u, 0.5))
	if err != nil {
		t.Fatal(err)
	}
	barY := 10
	left := img.RGBAAt(legendMargin, barY)
	right := img.RGBAAt(width-legendMargin-1, barY)
	if left.R != 0 || right.R != 255 {
		t.Errorf("colorbar ends: got %v and %v, want black and white", left, right)
	}
	var lit int
	for x := range width {
		for y := 17; y < legendHeight; y++ {
			if img.RGBAAt(x, y).R > 0 {
				lit++
			}
		}
	}
	if lit == 0 {
		t.Error("no label pixels drawn")
	}
}

func TestLegendCaption(t *testing.T) {
	got := legendCaption(DefaultUniforms(), 1.5)
	want := "x [-2, 2]  y [-2, 2]  t=1.5"
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestColorConversionByName(t *testing.T) {
	for _, name := range Colormaps {
		conv, err := ColorConversionByName(name)
		if err != nil {
			t.Fatal(err)
		}
		c := color.RGBAModel.Convert(conv(float32(math.NaN()))).(color.RGBA)
		if c != red {
			t.Errorf("%s: NaN mapped to %v, want red", name, c)
		}
		if name == "rainbow" {
			continue // Periodic palette.
		}
		lo := color.GrayModel.Convert(conv(0)).(color.Gray)
		hi := color.GrayModel.Convert(conv(1)).(color.Gray)
		if lo.Y >= hi.Y {
			t.Errorf("%s: colormap not increasing in luminance: %v >= %v", name, lo.Y, hi.Y)
		}
	}
	_, err := ColorConversionByName("viridis")
	if err == nil {
		t.Error("expected error for unknown colormap")
	}
}

func TestColorGradient(t *testing.T) {
	c0 := color.RGBA{R: 255, A: 255}
	c1 := color.RGBA{B: 255, A: 255}
	conv := ColorConversionLinearGradient(c0, c1)
	if got := conv(-1); got != color.Color(c0) {
		t.Errorf("below range got %v, want %v", got, c0)
	}
	if got := conv(2); got != color.Color(c1) {
		t.Errorf("above range got %v, want %v", got, c1)
	}
	// Hue interpolates the short way around through magenta.
	mid := color.RGBAModel.Convert(conv(0.5)).(color.RGBA)
	if mid.G != 0 || mid.R < 200 || mid.B < 200 {
		t.Errorf("midpoint got %v, want magenta", mid)
	}
}
