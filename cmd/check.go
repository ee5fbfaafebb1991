package cmd

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/KaramelBytes/skelaudit-cli/internal/analysis"
	"github.com/KaramelBytes/skelaudit-cli/internal/charts"
	"github.com/KaramelBytes/skelaudit-cli/internal/dataset"
	"github.com/KaramelBytes/skelaudit-cli/internal/labels"
	"github.com/KaramelBytes/skelaudit-cli/internal/utils"
	"github.com/cyclopcam/logs"
	"github.com/spf13/cobra"
)

var (
	chkModes      []string
	chkDataDir    string
	chkFormat     string
	chkOutput     string
	chkPlotsDir   string
	chkNoise      float64
	chkImbalance  float64
	chkFailOnWarn bool
)

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Audit preprocessed dataset splits",
	Long: `Loads the joint, bounding-box and crowd-feature arrays plus the label file of
each requested split and reports shapes, sample alignment, per-channel
statistics, sentinel ratio, value-range anomalies and class distribution.
Every split is audited independently; a failing split does not stop the others.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		s := settings()
		modes := utils.SplitList(s.Mode)
		if cmd.Flags().Changed("mode") {
			modes = utils.SplitList(chkModes...)
		}
		if len(modes) == 0 {
			return fmt.Errorf("no split selected (use --mode train,val,test)")
		}
		splits := make([]dataset.Split, 0, len(modes))
		for _, m := range modes {
			sp, err := dataset.ParseSplit(m)
			if err != nil {
				return err
			}
			splits = append(splits, sp)
		}
		dataDir := s.DataDir
		if chkDataDir != "" {
			dataDir = chkDataDir
		}
		format := s.ReportFormat
		if chkFormat != "" {
			format = strings.ToLower(chkFormat)
		}
		if format != "md" && format != "json" {
			return fmt.Errorf("unsupported report format: %s (use md|json)", format)
		}
		plotsDir := s.PlotsDir
		if chkPlotsDir != "" {
			plotsDir = chkPlotsDir
		}

		acfg := analysis.DefaultConfig()
		acfg.NoiseThreshold = s.NoiseThreshold
		acfg.ImbalanceThreshold = s.ImbalanceThreshold
		if cmd.Flags().Changed("noise-threshold") {
			acfg.NoiseThreshold = chkNoise
		}
		if cmd.Flags().Changed("imbalance-threshold") {
			acfg.ImbalanceThreshold = chkImbalance
		}

		l := getLogger(cmd.ErrOrStderr())

		var failed, warned []string
		for _, sp := range splits {
			r, err := checkSplit(cmd, dataDir, sp, acfg, format, plotsDir, len(splits) > 1, logs.NewPrefixLogger(l, "["+sp.String()+"]"))
			if err != nil {
				fmt.Fprintf(cmd.ErrOrStderr(), "✗ %s: %s\n", sp, describeCheckError(err))
				failed = append(failed, sp.String())
				continue
			}
			if len(r.Warnings) > 0 {
				warned = append(warned, sp.String())
			}
		}
		if len(failed) > 0 {
			return fmt.Errorf("%d of %d splits failed: %s", len(failed), len(splits), strings.Join(failed, ", "))
		}
		if chkFailOnWarn && len(warned) > 0 {
			return fmt.Errorf("warnings reported for: %s", strings.Join(warned, ", "))
		}
		return nil
	},
}

func checkSplit(cmd *cobra.Command, dataDir string, sp dataset.Split, acfg analysis.Config, format, plotsDir string, multi bool, log logs.Log) (*analysis.Report, error) {
	r, err := analysis.RunSplit(dataDir, sp, acfg, log)
	if err != nil {
		return nil, err
	}

	var body []byte
	switch format {
	case "json":
		if body, err = utils.PrettyJSON(r); err != nil {
			return nil, err
		}
	default:
		body = []byte(r.Markdown())
	}
	// A JSON report on stdout must stay parseable; status lines move to stderr.
	status := cmd.OutOrStdout()
	if chkOutput == "" && format == "json" {
		status = cmd.ErrOrStderr()
	}
	if chkOutput != "" {
		path := outputPathFor(chkOutput, sp, multi)
		if err := utils.SafeWriteFile(path, body); err != nil {
			return nil, fmt.Errorf("write report: %w", err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "✓ Wrote %s report to %s\n", sp, path)
	} else {
		fmt.Fprintln(cmd.OutOrStdout(), string(body))
	}

	if plotsDir != "" {
		paths, err := charts.RenderAll(plotsDir, r)
		if err != nil {
			// Charts are optional output; the audit itself succeeded.
			log.Warnf("rendering charts: %v", err)
		}
		for _, p := range paths {
			fmt.Fprintf(status, "✓ Wrote chart %s\n", p)
		}
	}

	if len(r.Warnings) > 0 {
		fmt.Fprintf(status, "⚠ %s: %d warnings\n", sp, len(r.Warnings))
	} else {
		fmt.Fprintf(status, "✓ %s: no issues found\n", sp)
	}
	return r, nil
}

// outputPathFor inserts the split name before the extension when several
// splits share one --output path.
func outputPathFor(path string, sp dataset.Split, multi bool) string {
	if !multi {
		return path
	}
	ext := filepath.Ext(path)
	return strings.TrimSuffix(path, ext) + "_" + sp.String() + ext
}

func describeCheckError(err error) string {
	var missing *dataset.MissingInputError
	var format *labels.LabelFormatError
	var shape *analysis.ShapeError
	switch {
	case errors.As(err, &missing):
		return "missing input: " + missing.Error()
	case errors.As(err, &format):
		return "unrecognized label format: " + format.Error()
	case errors.As(err, &shape):
		return "shape violation: " + shape.Error()
	default:
		return err.Error()
	}
}

func init() {
	rootCmd.AddCommand(checkCmd)
	checkCmd.Flags().StringSliceVarP(&chkModes, "mode", "m", nil, "comma-separated splits to audit: train,val,test (default from config: mode)")
	checkCmd.Flags().StringVarP(&chkDataDir, "data-dir", "d", "", "directory holding the preprocessed split files (default from config: data_dir)")
	checkCmd.Flags().StringVarP(&chkFormat, "format", "f", "", "report format: md|json (default from config: report_format)")
	checkCmd.Flags().StringVarP(&chkOutput, "output", "o", "", "write the report to this path instead of stdout")
	checkCmd.Flags().StringVar(&chkPlotsDir, "plots-dir", "", "write distribution charts (PNG) into this directory")
	checkCmd.Flags().Float64Var(&chkNoise, "noise-threshold", 0.2, "mean visibility below which a sample counts as noisy")
	checkCmd.Flags().Float64Var(&chkImbalance, "imbalance-threshold", 0.1, "class mean-area spread above which classes are flagged")
	checkCmd.Flags().BoolVar(&chkFailOnWarn, "fail-on-warn", false, "exit non-zero when any split reports warnings")
}
