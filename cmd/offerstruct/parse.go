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
	"github.com/ukaji3/offerstruct-go/pkg/offerstruct/models"
	"github.com/ukaji3/offerstruct-go/pkg/offerstruct/output"
)

type parseFlags struct {
	template  string
	sheet     string
	output    string
	imagesDir string
	dryRun    bool
	pretty    bool
}

var parseOpts parseFlags

var parseCmd = &cobra.Command{
	Use:   "parse <input.xlsx>",
	Short: "Extract one commercial proposal",
	Long: `Extract one commercial proposal and print its products as JSON.

Exit status is 0 on success, 2 when the layout could not be recognised
with enough confidence (the report is still printed), 1 on fatal errors.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		opts, err := cfg.ExtractOptions()
		if err != nil {
			return err
		}
		opts.Logger = zap.L()
		if cmd.Flags().Changed("template") {
			opts.Template = parseOpts.template
		}
		if cmd.Flags().Changed("sheet") {
			opts.Sheet = parseOpts.sheet
		}

		return runParse(ctx, cmd.OutOrStdout(), cmd.ErrOrStderr(), args[0], opts, parseOpts)
	},
}

func init() {
	parseCmd.Flags().StringVar(&parseOpts.template, "template", "auto", "template: auto, preset index (1-based) or preset name")
	parseCmd.Flags().StringVar(&parseOpts.sheet, "sheet", "", "worksheet to parse (default: active sheet)")
	parseCmd.Flags().StringVarP(&parseOpts.output, "output", "o", "", "output file path (default: stdout)")
	parseCmd.Flags().StringVar(&parseOpts.imagesDir, "images-dir", "", "directory to write product images to")
	parseCmd.Flags().BoolVar(&parseOpts.dryRun, "dry-run", false, "print only the extraction report")
	parseCmd.Flags().BoolVar(&parseOpts.pretty, "pretty", false, "pretty-print JSON output")
	rootCmd.AddCommand(parseCmd)
}

func runParse(ctx context.Context, stdout, stderr io.Writer, path string, opts offerstruct.Options, f parseFlags) error {
	res, err := offerstruct.ExtractFile(ctx, path, opts)
	if err != nil && !offerstruct.IsQuarantined(err) {
		return eris.Wrapf(err, "parse %s", path)
	}

	if err != nil || f.dryRun {
		data, jerr := output.ReportToJSON(&res.Report, f.pretty)
		if jerr != nil {
			return eris.Wrap(jerr, "serialize report")
		}
		fmt.Fprintln(stdout, string(data))
		if err != nil {
			return &exitError{code: exitQuarantined, err: err}
		}
		printSummary(stderr, res, 0)
		return nil
	}

	data, err := output.ResultToJSON(res, f.pretty)
	if err != nil {
		return eris.Wrap(err, "serialize result")
	}
	if f.output != "" {
		if err := os.WriteFile(f.output, data, 0644); err != nil {
			return eris.Wrap(err, "write output")
		}
	} else {
		fmt.Fprintln(stdout, string(data))
	}

	var written uint64
	if f.imagesDir != "" {
		written, err = writeImages(res, f.imagesDir)
		if err != nil {
			return eris.Wrap(err, "write images")
		}
	}

	printSummary(stderr, res, written)
	return nil
}

// writeImages stores every bound image under its suggested filename and
// returns the number of bytes written.
func writeImages(res *models.Result, dir string) (uint64, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return 0, err
	}

	var total uint64
	for _, p := range res.Products {
		for _, img := range p.Images {
			if err := os.WriteFile(filepath.Join(dir, img.Filename), img.Data, 0644); err != nil {
				return total, err
			}
			total += uint64(len(img.Data))
		}
	}
	return total, nil
}

func printSummary(w io.Writer, res *models.Result, imageBytes uint64) {
	rep := res.Report
	fmt.Fprintf(w, "%s [%s]: %d products, %d offers, %d/%d images",
		rep.SourceID, rep.Template, rep.Products, rep.Offers, rep.ImagesResolved, rep.ImagesTotal)
	if imageBytes > 0 {
		fmt.Fprintf(w, " (%s written)", humanize.Bytes(imageBytes))
	}
	fmt.Fprintf(w, ", %d diagnostics\n", len(rep.Diagnostics))
}
