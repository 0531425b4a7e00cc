package gb

import (
	"image"
	"image/png"
	"os"
	"path/filepath"
	"testing"
)

func TestSavePNGRoundTrip(t *testing.T) {
	s := NewScreen()
	s.SetPixel(Pos{X: 1, Y: 2}, Color{G: 1})

	path := filepath.Join(t.TempDir(), "frame.png")
	if err := SavePNG(path, s.Image()); err != nil {
		t.Fatalf("SavePNG() = %v", err)
	}

	f, err := os.Open(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	decoded, err := png.Decode(f)
	if err != nil {
		t.Fatalf("png.Decode() = %v", err)
	}
	b := decoded.Bounds()
	if b.Dx() != 160 || b.Dy() != 144 {
		t.Fatalf("decoded bounds = %v, want 160x144", b)
	}
	r, g, _, _ := decoded.At(1, 2).RGBA()
	if r != 0 || g != 0xFFFF {
		t.Errorf("decoded pixel (1,2) = r=%d g=%d, want pure green", r, g)
	}
}

func TestSaveWebP(t *testing.T) {
	s := NewScreen()
	path := filepath.Join(t.TempDir(), "frame.webp")
	if err := SaveWebP(path, s.Image()); err != nil {
		t.Fatalf("SaveWebP() = %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	// RIFF container with a WEBP form type.
	if len(data) < 12 || string(data[0:4]) != "RIFF" || string(data[8:12]) != "WEBP" {
		t.Fatalf("output is not a WebP file (first bytes: %q)", data[:min(len(data), 12)])
	}
}

func TestSavePNGBadPath(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 1, 1))
	if err := SavePNG(filepath.Join(t.TempDir(), "missing", "frame.png"), img); err == nil {
		t.Fatal("expected error for unwritable path")
	}
}
