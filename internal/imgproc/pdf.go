package imgproc

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/disintegration/imaging"
)

// RasterizePDF renders the first page of a PDF to the canonical JPEG
// using the pdftoppm utility from poppler. Unlike the general image
// path, the page is scaled to PDFDimension on its long side even when
// that means upscaling: vector-rendered pages stay legible when blown
// up, scanned photos do not. The stage carries its own timeout.
func RasterizePDF(ctx context.Context, data []byte) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, pdfTimeout)
	defer cancel()

	tempDir, err := os.MkdirTemp("", "kairos-pdf-")
	if err != nil {
		return nil, fmt.Errorf("create temp dir: %w", err)
	}
	defer os.RemoveAll(tempDir)

	pdfPath := filepath.Join(tempDir, "input.pdf")
	if err := os.WriteFile(pdfPath, data, 0o600); err != nil {
		return nil, fmt.Errorf("write temp pdf: %w", err)
	}

	if err := runPdftoppm(ctx, pdfPath, filepath.Join(tempDir, "page")); err != nil {
		return nil, err
	}

	pagePath, err := firstPageFile(tempDir)
	if err != nil {
		return nil, err
	}

	img, err := imaging.Open(pagePath)
	if err != nil {
		return nil, fmt.Errorf("decode rendered page: %w", err)
	}

	width := img.Bounds().Dx()
	height := img.Bounds().Dy()
	if width >= height {
		img = imaging.Resize(img, PDFDimension, 0, imaging.Lanczos)
	} else {
		img = imaging.Resize(img, 0, PDFDimension, imaging.Lanczos)
	}

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, imaging.JPEG, imaging.JPEGQuality(JPEGQuality)); err != nil {
		return nil, fmt.Errorf("encode page jpeg: %w", err)
	}
	return buf.Bytes(), nil
}

func firstPageFile(dir string) (string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return "", fmt.Errorf("read temp dir: %w", err)
	}

	var pages []string
	for _, e := range entries {
		if !e.IsDir() && strings.HasSuffix(e.Name(), ".png") {
			pages = append(pages, e.Name())
		}
	}
	if len(pages) == 0 {
		return "", fmt.Errorf("pdftoppm produced no pages")
	}
	sort.Strings(pages)
	return filepath.Join(dir, pages[0]), nil
}
