package imgproc

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"runtime"

	"github.com/disintegration/imaging"
)

// ErrNormalizeTimeout is returned when the resize/encode stage exceeds
// its allotted time. Callers treat it like any other normalization
// failure: no OCR, failure placeholder instead.
var ErrNormalizeTimeout = errors.New("image normalization timed out")

// Normalizer produces the canonical 1500px/q70 JPEG for an upload.
// Decode and encode are CPU-bound, so the work runs on a bounded pool
// of worker slots off the caller's goroutine; the caller only waits,
// with a hard timeout.
type Normalizer struct {
	slots chan struct{}
}

// NewNormalizer builds a normalizer with the given number of worker
// slots. workers <= 0 means one slot per available CPU.
func NewNormalizer(workers int) *Normalizer {
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	return &Normalizer{slots: make(chan struct{}, workers)}
}

// Normalize decodes an image, clamps its long side to MaxDimension
// without ever upscaling, and re-encodes it as JPEG at the pipeline
// quality. Returns an error on decode failure or timeout.
func (n *Normalizer) Normalize(ctx context.Context, data []byte) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, resizeTimeout)
	defer cancel()

	select {
	case n.slots <- struct{}{}:
	case <-ctx.Done():
		return nil, normalizeErr(ctx)
	}

	type result struct {
		jpeg []byte
		err  error
	}
	done := make(chan result, 1)
	go func() {
		defer func() { <-n.slots }()
		jpeg, err := encodeJPEG(data)
		done <- result{jpeg, err}
	}()

	select {
	case res := <-done:
		return res.jpeg, res.err
	case <-ctx.Done():
		return nil, normalizeErr(ctx)
	}
}

func normalizeErr(ctx context.Context) error {
	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return ErrNormalizeTimeout
	}
	return ctx.Err()
}

func encodeJPEG(data []byte) ([]byte, error) {
	img, err := imaging.Decode(bytes.NewReader(data), imaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("decode image: %w", err)
	}

	bounds := img.Bounds()
	if bounds.Dx() > MaxDimension || bounds.Dy() > MaxDimension {
		// Fit preserves aspect ratio and never upscales.
		img = imaging.Fit(img, MaxDimension, MaxDimension, imaging.Lanczos)
	}

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, imaging.JPEG, imaging.JPEGQuality(JPEGQuality)); err != nil {
		return nil, fmt.Errorf("encode jpeg: %w", err)
	}
	return buf.Bytes(), nil
}
