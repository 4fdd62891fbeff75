package images

import (
	"bytes"
	"context"
	"fmt"
	"image"
	_ "image/gif"  // register decoder
	_ "image/jpeg" // register decoder
	_ "image/png"  // register decoder
	"runtime"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"golang.org/x/sync/errgroup"

	"github.com/ukaji3/offerstruct-go/pkg/offerstruct/models"
)

// Verify sniffs every image's content type and reads its dimensions on a
// pool of at most workers goroutines (CPU count when workers <= 0). Images
// are updated in place. Undecodable images stay bound and are reported as
// UnreadableImage. Diagnostics follow the order of images.
func Verify(ctx context.Context, imgs []models.ProductImage, workers int) ([]models.Diagnostic, error) {
	if workers <= 0 {
		workers = runtime.NumCPU()
	}

	perImage := make([]*models.Diagnostic, len(imgs))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)

	for i := range imgs {
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			perImage[i] = verifyOne(&imgs[i])
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var diags []models.Diagnostic
	for _, d := range perImage {
		if d != nil {
			diags = append(diags, *d)
		}
	}
	return diags, nil
}

// verifyOne fills MIME, dimensions and Verified for one image.
func verifyOne(img *models.ProductImage) *models.Diagnostic {
	mt := mimetype.Detect(img.Data)
	img.MIME = mt.String()
	if i := strings.IndexByte(img.MIME, ';'); i >= 0 {
		img.MIME = img.MIME[:i]
	}
	if img.Extension == "" {
		img.Extension = strings.TrimPrefix(mt.Extension(), ".")
	}

	cfg, _, err := image.DecodeConfig(bytes.NewReader(img.Data))
	if err != nil {
		return &models.Diagnostic{
			Code:     models.CodeUnreadableImage,
			Severity: models.SeverityWarning,
			Row:      img.Anchor.Row,
			Column:   img.Anchor.Col,
			Message:  fmt.Sprintf("image at %s (%s) could not be decoded: %v", img.CellRef, img.MIME, err),
		}
	}
	img.Width, img.Height = cfg.Width, cfg.Height
	img.Verified = true
	return nil
}
