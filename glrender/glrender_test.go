package glrender_test

import (
	"image"
	"image/color"
	"testing"

	"github.com/soypat/eqshade"
	"github.com/soypat/eqshade/gleval"
	"github.com/soypat/eqshade/glrender"
	"github.com/soypat/eqshade/mathjson"
	"github.com/soypat/geometry/ms2"
)

func TestRenderOrientation(t *testing.T) {
	// Brightness grows with y so the top row of the image must be brightest.
	eq, err := mathjson.Parse([]byte(`"y"`))
	if err != nil {
		t.Fatal(err)
	}
	f, err := gleval.NewCPUField(eqshade.Input{Equation: eq}, ms2.Box{Max: ms2.Vec{X: 1, Y: 1}})
	if err != nil {
		t.Fatal(err)
	}
	ir, err := glrender.NewImageRenderer(0, 1, nil)
	if err != nil {
		t.Fatal(err)
	}
	img := image.NewGray(image.Rect(0, 0, 3, 4))
	err = ir.Render(f, img, nil)
	if err != nil {
		t.Fatal(err)
	}
	wantRows := []uint8{223, 159, 96, 32} // (j+0.5)/4 scaled, top to bottom.
	for y, want := range wantRows {
		for x := 0; x < 3; x++ {
			got := img.GrayAt(x, y).Y
			if got != want {
				t.Errorf("pixel (%d, %d): got %d, want %d", x, y, got, want)
			}
		}
	}
}

func TestGrayscale(t *testing.T) {
	for _, test := range []struct {
		n    float32
		want color.Color
	}{
		{-1, color.Gray{Y: 0}},
		{0.5, color.Gray{Y: 128}},
		{2, color.Gray{Y: 255}},
		{glrender.Normalize(3, 1, 5), color.Gray{Y: 128}},
	} {
		if got := glrender.Grayscale(test.n); got != test.want {
			t.Errorf("Grayscale(%g) = %v, want %v", test.n, got, test.want)
		}
	}
	var zero float32
	if got := glrender.Grayscale(zero / zero); got != (color.RGBA{R: 255, A: 255}) {
		t.Errorf("NaN must render red, got %v", got)
	}
}

func TestNewImageRendererRange(t *testing.T) {
	_, err := glrender.NewImageRenderer(1, 1, nil)
	if err == nil {
		t.Error("expected empty range error")
	}
}
