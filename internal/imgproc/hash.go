// Package imgproc computes content fingerprints and the single
// canonical compressed representation used by the ingestion pipeline.
// One stream serves preview, storage and the OCR call alike, so cache
// entries and freshly processed uploads stay byte-comparable.
package imgproc

import (
	"context"
	"crypto/md5"
	"encoding/hex"
	"fmt"
	"time"
)

// Pipeline-wide constants. Not per-call tunables: changing them would
// split the cache between old and new entries.
const (
	MaxDimension = 1500
	PDFDimension = 1800
	JPEGQuality  = 70

	hashTimeout   = 20 * time.Second
	resizeTimeout = 40 * time.Second
	pdfTimeout    = 20 * time.Second
)

// Hash returns the MD5 content fingerprint of data. The wait is
// bounded: if hashing does not finish inside the ceiling, a unique
// time-derived fallback is returned instead of blocking the pipeline.
// Fallback fingerprints are not content-addressed, so callers must
// tolerate cache misses for them.
func Hash(ctx context.Context, data []byte) string {
	if len(data) == 0 {
		return FallbackHash("error")
	}
	if ctx.Err() != nil {
		return FallbackHash("timeout")
	}

	done := make(chan string, 1)
	go func() {
		sum := md5.Sum(data)
		done <- hex.EncodeToString(sum[:])
	}()

	timer := time.NewTimer(hashTimeout)
	defer timer.Stop()

	select {
	case h := <-done:
		return h
	case <-timer.C:
		return FallbackHash("timeout")
	case <-ctx.Done():
		return FallbackHash("timeout")
	}
}

// FallbackHash builds a unique non-content-addressed fingerprint.
func FallbackHash(kind string) string {
	return fmt.Sprintf("%s-hash-%d", kind, time.Now().UnixMilli())
}
