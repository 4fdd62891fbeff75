package offerstruct

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"unicode"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/ukaji3/offerstruct-go/pkg/offerstruct/images"
	"github.com/ukaji3/offerstruct-go/pkg/offerstruct/models"
	"github.com/ukaji3/offerstruct-go/pkg/offerstruct/parser"
	"github.com/ukaji3/offerstruct-go/pkg/offerstruct/rows"
	"github.com/ukaji3/offerstruct-go/pkg/offerstruct/template"
)

// refNamespace scopes product references generated by ProductRef.
var refNamespace = uuid.NewSHA1(uuid.NameSpaceURL, []byte("https://github.com/ukaji3/offerstruct-go/product"))

// Extract runs the full pipeline over one xlsx held in memory.
//
// Fatal problems (corrupt archive, empty or missing sheet, unknown preset)
// return a nil result and a *StageError. A template scoring below the
// confidence threshold returns the partial result, marked quarantined and
// without products, together with ErrLowConfidenceTemplate. Cancellation
// discards all partial work and returns ctx.Err(). Every other anomaly is
// recorded in the result's report.
//
// Extract is deterministic: identical bytes and options give identical
// results.
func Extract(ctx context.Context, sourceID string, data []byte, opts Options) (*models.Result, error) {
	log := opts.logger().With(zap.String("source", sourceID))

	kw, err := opts.keywords()
	if err != nil {
		return nil, NewStageError(sourceID, StageAnalyze, err)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	grid, anchors, err := parser.Load(ctx, data, parser.LoadOptions{Sheet: opts.Sheet})
	if err != nil {
		if cerr := ctx.Err(); cerr != nil {
			return nil, cerr
		}
		return nil, NewStageError(sourceID, StageLoad, err)
	}
	log.Debug("grid loaded",
		zap.String("sheet", grid.Sheet()),
		zap.Int("cells", grid.Len()),
		zap.Int("merges", len(grid.Merges())),
		zap.Int("anchors", len(anchors)),
	)
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	profile, err := resolveProfile(grid, kw, opts)
	if err != nil {
		return nil, NewStageError(sourceID, StageAnalyze, err)
	}
	log.Debug("template resolved",
		zap.String("template", profile.Name),
		zap.Int("header_row", profile.HeaderRow),
		zap.Int("routes", len(profile.Routes)),
		zap.Float64("confidence", profile.Confidence),
	)

	res := &models.Result{
		SourceID: sourceID,
		Sheet:    grid.Sheet(),
		Profile:  profile,
		Products: []models.Product{},
	}
	rep := &res.Report
	rep.SourceID = sourceID
	rep.Sheet = grid.Sheet()
	rep.Template = profile.Name
	rep.Confidence = profile.Confidence
	rep.HeaderRow = profile.HeaderRow
	rep.ImagesTotal = len(anchors)
	rep.Add(profile.Diagnostics...)

	if profile.Confidence < opts.ConfidenceThreshold {
		rep.Quarantined = true
		rep.RowsTotal = dataRows(grid, profile.HeaderRow)
		rep.RowsUnresolved = rep.RowsTotal
		rep.Add(models.Diagnostic{
			Code:     models.CodeLowConfidenceTemplate,
			Severity: models.SeverityError,
			Row:      profile.HeaderRow,
			Message:  fmt.Sprintf("template confidence %.2f is below threshold %.2f", profile.Confidence, opts.ConfidenceThreshold),
		})
		log.Warn("file quarantined",
			zap.Float64("confidence", profile.Confidence),
			zap.Float64("threshold", opts.ConfidenceThreshold),
		)
		return res, eris.Wrapf(ErrLowConfidenceTemplate, "%s: confidence %.2f", sourceID, profile.Confidence)
	}

	blocks, diags := rows.Segment(grid, profile)
	rep.Add(diags...)
	for i := range blocks {
		blocks[i].Ref = ProductRef(sourceID, grid.Sheet(), blocks[i])
	}
	log.Debug("rows segmented", zap.Int("blocks", len(blocks)))
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	ex := rows.NewExtractor(kw, opts.magnitudePolicy())
	var offers []models.PriceOffer
	for _, b := range blocks {
		o, d := ex.Extract(grid, profile, b)
		offers = append(offers, o...)
		rep.Add(d...)
	}
	log.Debug("fields extracted", zap.Int("offers", len(offers)))
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	mapOpts := images.MapOptions{
		MainColumn: images.MainColumn(profile, anchors, opts.ImageColumn),
		Tolerance:  opts.RowTolerance,
	}
	imgs, orphans, diags := images.MapImages(anchors, blocks, mapOpts)
	rep.Add(diags...)

	diags, err = images.Verify(ctx, imgs, opts.VerifyWorkers)
	if err != nil {
		return nil, err
	}
	rep.Add(diags...)
	images.AssignFilenames(sourceID, imgs)

	res.Products = Assemble(blocks, offers, imgs, rep)
	res.Orphans = orphans

	rep.RowsTotal = dataRows(grid, profile.HeaderRow)
	rep.RowsResolved = blockRows(grid, blocks)
	rep.RowsUnresolved = rep.RowsTotal - rep.RowsResolved
	rep.ImagesResolved = len(imgs)
	rep.ImagesOrphaned = len(orphans)

	logDiagnostics(log, rep.Diagnostics)
	log.Info("extraction complete",
		zap.Int("products", rep.Products),
		zap.Int("offers", rep.Offers),
		zap.Int("images", rep.ImagesResolved),
		zap.Int("orphans", rep.ImagesOrphaned),
		zap.Int("diagnostics", len(rep.Diagnostics)),
	)
	return res, nil
}

// ExtractFile reads path and runs Extract with an ID derived from its name.
func ExtractFile(ctx context.Context, path string, opts Options) (*models.Result, error) {
	src := Source{ID: SourceIDFromPath(path), Path: path}
	data, err := readSource(src)
	if err != nil {
		return nil, err
	}
	return Extract(ctx, src.ID, data, opts)
}

func readSource(src Source) ([]byte, error) {
	data, err := os.ReadFile(src.Path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, NewStageError(src.ID, StageRead, eris.Wrapf(ErrFileNotFound, "%s", src.Path))
		}
		return nil, NewStageError(src.ID, StageRead, eris.Wrapf(err, "read %s", src.Path))
	}
	return data, nil
}

// SourceIDFromPath derives a filename-safe source ID from a file path:
// the base name without extension, with anything but letters, digits,
// '-' and '_' replaced by '_'.
func SourceIDFromPath(path string) string {
	base := filepath.Base(path)
	base = strings.TrimSuffix(base, filepath.Ext(base))
	id := strings.Map(func(r rune) rune {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || r == '-' || r == '_' {
			return r
		}
		return '_'
	}, base)
	if id == "" {
		return "source"
	}
	return id
}

// ProductRef is the deterministic reference of a block: a name-based UUID
// over the source, sheet and row range.
func ProductRef(sourceID, sheet string, b models.ProductBlock) string {
	key := fmt.Sprintf("%s|%s|%d-%d", sourceID, sheet, b.StartRow, b.EndRow)
	return uuid.NewSHA1(refNamespace, []byte(key)).String()
}

func resolveProfile(grid *models.CellGrid, kw *template.KeywordTable, opts Options) (*models.TemplateProfile, error) {
	preset, err := template.SelectPreset(opts.Presets, opts.Template)
	if err != nil {
		return nil, err
	}
	if preset != nil {
		return preset.Profile()
	}
	return template.NewAnalyzer(kw, opts.HeaderScanRows).Analyze(grid), nil
}

// dataRows counts non-blank rows below the header.
func dataRows(grid *models.CellGrid, headerRow int) int {
	n := 0
	for row := headerRow + 1; row <= grid.MaxRow(); row++ {
		if !grid.IsBlankRow(row) {
			n++
		}
	}
	return n
}

// blockRows counts non-blank rows inside blocks.
func blockRows(grid *models.CellGrid, blocks []models.ProductBlock) int {
	n := 0
	for _, b := range blocks {
		for row := b.StartRow; row <= b.EndRow; row++ {
			if !grid.IsBlankRow(row) {
				n++
			}
		}
	}
	return n
}

func logDiagnostics(log *zap.Logger, diags []models.Diagnostic) {
	for _, d := range diags {
		fields := []zap.Field{
			zap.String("code", string(d.Code)),
			zap.Int("row", d.Row),
			zap.String("message", d.Message),
		}
		if d.Route != "" {
			fields = append(fields, zap.String("route", d.Route))
		}
		if d.Severity == models.SeverityInfo {
			log.Debug("diagnostic", fields...)
			continue
		}
		log.Warn("diagnostic", fields...)
	}
}
