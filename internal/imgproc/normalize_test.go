package imgproc

import (
	"bytes"
	"context"
	"image/color"
	"testing"

	"github.com/disintegration/imaging"
)

func encodeTestImage(t *testing.T, width, height int) []byte {
	t.Helper()
	img := imaging.New(width, height, color.NRGBA{R: 120, G: 80, B: 40, A: 255})
	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, imaging.PNG); err != nil {
		t.Fatalf("encode test image: %v", err)
	}
	return buf.Bytes()
}

func decodedSize(t *testing.T, jpeg []byte) (int, int) {
	t.Helper()
	img, err := imaging.Decode(bytes.NewReader(jpeg))
	if err != nil {
		t.Fatalf("decode normalized output: %v", err)
	}
	return img.Bounds().Dx(), img.Bounds().Dy()
}

func TestNormalizeClampsLargeImages(t *testing.T) {
	n := NewNormalizer(1)
	out, err := n.Normalize(context.Background(), encodeTestImage(t, 4000, 2000))
	if err != nil {
		t.Fatalf("Normalize() error = %v", err)
	}

	w, h := decodedSize(t, out)
	if w != 1500 || h != 750 {
		t.Errorf("dimensions = %dx%d, want 1500x750 (clamped, aspect preserved)", w, h)
	}
}

func TestNormalizeClampsPortraitImages(t *testing.T) {
	n := NewNormalizer(1)
	out, err := n.Normalize(context.Background(), encodeTestImage(t, 1000, 3000))
	if err != nil {
		t.Fatalf("Normalize() error = %v", err)
	}

	w, h := decodedSize(t, out)
	if w != 500 || h != 1500 {
		t.Errorf("dimensions = %dx%d, want 500x1500", w, h)
	}
}

func TestNormalizeNeverUpscales(t *testing.T) {
	n := NewNormalizer(1)
	out, err := n.Normalize(context.Background(), encodeTestImage(t, 400, 300))
	if err != nil {
		t.Fatalf("Normalize() error = %v", err)
	}

	w, h := decodedSize(t, out)
	if w != 400 || h != 300 {
		t.Errorf("dimensions = %dx%d, want unchanged 400x300", w, h)
	}
}

func TestNormalizeRejectsGarbage(t *testing.T) {
	n := NewNormalizer(1)
	if _, err := n.Normalize(context.Background(), []byte("definitely not an image")); err == nil {
		t.Fatal("expected decode error")
	}
}

func TestNormalizeCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	n := NewNormalizer(1)
	if _, err := n.Normalize(ctx, encodeTestImage(t, 100, 100)); err == nil {
		t.Fatal("expected error for cancelled context")
	}
}
