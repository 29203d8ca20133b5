// Package pipeline runs uploaded invoice files through
// hash/normalize -> cache gate -> OCR -> mapping, with bounded batch
// concurrency and per-entry cancellation.
package pipeline

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/tiendc/go-deepcopy"
	"golang.org/x/sync/errgroup"

	"kairos/internal/imgproc"
	"kairos/internal/model"
	"kairos/internal/service"
)

// OCR is the recognition collaborator.
type OCR interface {
	Recognize(ctx context.Context, image string) (service.Fields, error)
}

// Archive is the persisted store of previously recognized items,
// indexed by content fingerprint.
type Archive interface {
	FindByFingerprint(ctx context.Context, hash string) (*model.LineItem, error)
}

// Normalizer produces the canonical compressed JPEG for raw image bytes.
type Normalizer interface {
	Normalize(ctx context.Context, data []byte) ([]byte, error)
}

// Rasterizer renders the first page of a PDF to JPEG.
type Rasterizer func(ctx context.Context, data []byte) ([]byte, error)

// Analyzer runs one upload through the full ingestion pipeline.
type Analyzer struct {
	ocr        OCR
	archive    Archive
	normalizer Normalizer
	rasterize  Rasterizer
}

func NewAnalyzer(ocr OCR, archive Archive, normalizer Normalizer) *Analyzer {
	return &Analyzer{
		ocr:        ocr,
		archive:    archive,
		normalizer: normalizer,
		rasterize:  imgproc.RasterizePDF,
	}
}

// Analyze processes a single upload. The context carries the entry's
// cancellation signal; it is checked before every remaining stage so a
// cancel lands promptly even between stages. A nil error always comes
// with a line item; context.Canceled marks user cancellation, any other
// error means the caller should settle the entry as failed.
func (a *Analyzer) Analyze(ctx context.Context, up model.Upload, info model.ReimbursementInfo) (*model.LineItem, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	data := up.Data
	var precomputed []byte
	if up.IsPDF() {
		jpeg, err := a.rasterize(ctx, data)
		if err != nil {
			return nil, fmt.Errorf("pdf conversion failed: %w", err)
		}
		// The rasterizer already emits the canonical JPEG; keep it to
		// skip the redundant re-encode in the normalizer.
		data = jpeg
		precomputed = jpeg
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	img, err := a.prepare(ctx, up.Name, data, precomputed)
	if err != nil {
		return nil, err
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	preview := model.DataURL("image/jpeg", img.JPEG)

	if item := a.cacheLookup(ctx, img.FileHash, preview, up.IsPDF()); item != nil {
		return item, nil
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	fields, err := a.ocr.Recognize(ctx, preview)
	if err != nil {
		return nil, err
	}

	item := service.MapOCRFields(fields, up, preview, img.FileHash, info)
	return &item, nil
}

// prepare runs hashing and normalization in parallel; they are
// independent suspension points with independent timeouts.
func (a *Analyzer) prepare(ctx context.Context, name string, data, precomputed []byte) (*model.NormalizedImage, error) {
	img := &model.NormalizedImage{SourceName: name, JPEG: precomputed}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		img.FileHash = imgproc.Hash(gctx, data)
		return nil
	})
	if precomputed == nil {
		g.Go(func() error {
			jpeg, err := a.normalizer.Normalize(gctx, data)
			if err != nil {
				return fmt.Errorf("image compression failed: %w", err)
			}
			img.JPEG = jpeg
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return img, nil
}

// cacheLookup short-circuits OCR for fingerprints already archived. The
// cached fields are cloned into a fresh identity and the preview is
// replaced with the current upload's own; a stale lookup error is a
// cache miss, never a pipeline failure.
func (a *Analyzer) cacheLookup(ctx context.Context, hash, preview string, isPDF bool) *model.LineItem {
	if a.archive == nil || hash == "" {
		return nil
	}

	cached, err := a.archive.FindByFingerprint(ctx, hash)
	if err != nil {
		slog.Warn("cache lookup failed, proceeding to OCR", "hash", hash, "error", err)
		return nil
	}
	if cached == nil {
		return nil
	}

	var item model.LineItem
	if err := deepcopy.Copy(&item, cached); err != nil {
		slog.Warn("cache clone failed, proceeding to OCR", "hash", hash, "error", err)
		return nil
	}

	item.ID = model.NewID()
	item.FileHash = hash
	item.PreviewURL = preview
	item.IsPDF = isPDF
	item.IsCached = true
	return &item
}
