package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/dustin/go-humanize"
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/ukaji3/offerstruct-go/pkg/offerstruct"
	"github.com/ukaji3/offerstruct-go/pkg/offerstruct/output"
)

type batchFlags struct {
	outDir    string
	imagesDir string
	workers   int
	pretty    bool
}

var batchOpts batchFlags

var batchCmd = &cobra.Command{
	Use:   "batch <input.xlsx>...",
	Short: "Extract many commercial proposals concurrently",
	Long: `Extract every given file on a worker pool. A failing file never stops
the batch. Results go to --out-dir as <source>.json; quarantined files
get <source>.report.json instead.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		opts, err := cfg.ExtractOptions()
		if err != nil {
			return err
		}
		opts.Logger = zap.L()

		bopts := cfg.BatchOptions()
		if cmd.Flags().Changed("workers") {
			bopts.Workers = batchOpts.workers
		}

		return runBatch(ctx, cmd.ErrOrStderr(), args, opts, bopts, batchOpts)
	},
}

func init() {
	batchCmd.Flags().StringVar(&batchOpts.outDir, "out-dir", "", "directory for per-file JSON results (default: none)")
	batchCmd.Flags().StringVar(&batchOpts.imagesDir, "images-dir", "", "directory to write product images to")
	batchCmd.Flags().IntVar(&batchOpts.workers, "workers", 4, "number of files processed concurrently")
	batchCmd.Flags().BoolVar(&batchOpts.pretty, "pretty", false, "pretty-print JSON output")
	rootCmd.AddCommand(batchCmd)
}

func runBatch(ctx context.Context, stderr io.Writer, paths []string, opts offerstruct.Options, bopts offerstruct.BatchOptions, f batchFlags) error {
	sources := make([]offerstruct.Source, len(paths))
	for i, p := range paths {
		sources[i] = offerstruct.Source{Path: p}
	}

	results := offerstruct.ExtractBatch(ctx, sources, opts, bopts)

	if f.outDir != "" {
		if err := os.MkdirAll(f.outDir, 0755); err != nil {
			return eris.Wrap(err, "create output dir")
		}
	}

	var (
		ok, quarantined, failed int
		products, offers        int
		imageBytes              uint64
	)
	for _, r := range results {
		switch {
		case r.OK():
			ok++
			products += r.Result.Report.Products
			offers += r.Result.Report.Offers
			if err := writeBatchResult(r, f); err != nil {
				return err
			}
			if f.imagesDir != "" {
				n, err := writeImages(r.Result, f.imagesDir)
				if err != nil {
					return eris.Wrapf(err, "write images of %s", r.Source.Path)
				}
				imageBytes += n
			}
		case offerstruct.IsQuarantined(r.Err):
			quarantined++
			if err := writeBatchResult(r, f); err != nil {
				return err
			}
			fmt.Fprintf(stderr, "quarantined %s: %v\n", r.Source.Path, r.Err)
		default:
			failed++
			fmt.Fprintf(stderr, "failed %s: %v\n", r.Source.Path, r.Err)
		}
	}

	fmt.Fprintf(stderr, "%s files: %d ok, %d quarantined, %d failed; %s products, %s offers",
		humanize.Comma(int64(len(results))), ok, quarantined, failed,
		humanize.Comma(int64(products)), humanize.Comma(int64(offers)))
	if imageBytes > 0 {
		fmt.Fprintf(stderr, ", %s of images", humanize.Bytes(imageBytes))
	}
	fmt.Fprintln(stderr)

	if err := ctx.Err(); err != nil {
		return err
	}
	switch {
	case failed > 0:
		return eris.Errorf("%d of %d files failed", failed, len(results))
	case quarantined > 0:
		return &exitError{code: exitQuarantined, err: eris.Errorf("%d of %d files quarantined", quarantined, len(results))}
	}
	return nil
}

func writeBatchResult(r offerstruct.BatchResult, f batchFlags) error {
	if f.outDir == "" {
		return nil
	}

	var (
		data []byte
		name string
		err  error
	)
	if r.OK() {
		data, err = output.ResultToJSON(r.Result, f.pretty)
		name = r.Source.ID + ".json"
	} else {
		data, err = output.ReportToJSON(&r.Result.Report, f.pretty)
		name = r.Source.ID + ".report.json"
	}
	if err != nil {
		return eris.Wrapf(err, "serialize %s", r.Source.Path)
	}
	if err := os.WriteFile(filepath.Join(f.outDir, name), data, 0644); err != nil {
		return eris.Wrapf(err, "write %s", name)
	}
	return nil
}
