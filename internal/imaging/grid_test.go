package imaging

import (
	"image/color"
	"testing"
)

func TestGridLoupe(t *testing.T) {
	img := createInMemoryImage(10, 10, color.NRGBA{128, 128, 128, 255})

	result, err := GridLoupe(img, 5, 5, 1, 8, "#ff0000")
	if err != nil {
		t.Fatalf("GridLoupe failed: %v", err)
	}
	if result.Width != 24 || result.Height != 24 {
		t.Errorf("dimensions: got %dx%d, want 24x24", result.Width, result.Height)
	}

	out := decodeResult(t, result)
	tests := []struct {
		name string
		x, y int
		want color.NRGBA
	}{
		{"cell interior", 2, 2, color.NRGBA{128, 128, 128, 255}},
		{"vertical line", 16, 2, color.NRGBA{192, 64, 64, 255}},
		{"horizontal line", 2, 16, color.NRGBA{192, 64, 64, 255}},
		{"center outline", 8, 12, color.NRGBA{255, 255, 255, 255}},
		{"center outline far edge", 15, 12, color.NRGBA{255, 255, 255, 255}},
		{"center interior", 12, 12, color.NRGBA{128, 128, 128, 255}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := nrgbaAt(out, tt.x, tt.y); got != tt.want {
				t.Errorf("(%d,%d): got %v, want %v", tt.x, tt.y, got, tt.want)
			}
		})
	}
}

func TestGridLoupe_OutlineContrast(t *testing.T) {
	img := createInMemoryImage(4, 4, color.NRGBA{250, 250, 250, 255})

	result, err := GridLoupe(img, 0, 0, 0, 4, "red")
	if err != nil {
		t.Fatalf("GridLoupe failed: %v", err)
	}
	out := decodeResult(t, result)
	if got := nrgbaAt(out, 0, 0); got != (color.NRGBA{0, 0, 0, 255}) {
		t.Errorf("outline over a light pixel: got %v, want black", got)
	}
}

func TestGridLoupe_SmallScaleSkipsGrid(t *testing.T) {
	img := createInMemoryImage(4, 4, color.NRGBA{0, 0, 0, 255})

	result, err := GridLoupe(img, 2, 2, 1, 2, "red")
	if err != nil {
		t.Fatalf("GridLoupe failed: %v", err)
	}
	out := decodeResult(t, result)
	if got := nrgbaAt(out, 0, 2); got != (color.NRGBA{0, 0, 0, 255}) {
		t.Errorf("no grid expected at scale 2: got %v", got)
	}
	if got := nrgbaAt(out, 2, 2); got != (color.NRGBA{255, 255, 255, 255}) {
		t.Errorf("outline: got %v, want white", got)
	}
}

func TestGridLoupe_Errors(t *testing.T) {
	img := createInMemoryImage(4, 4, color.NRGBA{0, 0, 0, 255})

	if _, err := GridLoupe(img, 4, 0, 1, 8, "red"); err == nil {
		t.Error("expected error for out-of-bounds center")
	}
}
