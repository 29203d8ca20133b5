package imgproc

import (
	"context"
	"fmt"
	"os/exec"
)

// runPdftoppm renders only the first page. Requires poppler on PATH.
func runPdftoppm(ctx context.Context, pdfPath, outPrefix string) error {
	cmd := exec.CommandContext(ctx, "pdftoppm", "-png", "-f", "1", "-l", "1", pdfPath, outPrefix)
	output, err := cmd.CombinedOutput()
	if err != nil {
		if ctx.Err() != nil {
			return fmt.Errorf("pdf rendering: %w", ctx.Err())
		}
		return fmt.Errorf("pdftoppm failed (is poppler installed?): %w, output: %s", err, string(output))
	}
	return nil
}
