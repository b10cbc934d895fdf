package cmd

import (
	"fmt"
	"io"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/ChrisMcGann/ChromaID/pkg/analysis"
	"github.com/ChrisMcGann/ChromaID/pkg/peak"
)

// detectOptions holds flags shared by detect and identify. Unset flags keep
// the configured value.
type detectOptions struct {
	smoothing        string
	smoothingLevel   int
	baselineWindow   int
	noiseFactor      float64
	minimumAmplitude float64
	highBaseline     bool
}

func (o *detectOptions) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&o.smoothing, "smoothing", "", "Smoothing method: moving_average, lwma, savitzky_golay, binomial, lowess, loess, none")
	cmd.Flags().IntVar(&o.smoothingLevel, "smoothing-level", 0, "Smoothing half window in scans")
	cmd.Flags().IntVar(&o.baselineWindow, "baseline-window", 0, "Baseline window in scans (0 disables baseline correction)")
	cmd.Flags().Float64Var(&o.noiseFactor, "noise-factor", 0, "Noise factor for the global noise floor")
	cmd.Flags().Float64Var(&o.minimumAmplitude, "min-amplitude", 0, "Minimum peak amplitude")
	cmd.Flags().BoolVar(&o.highBaseline, "high-baseline", false, "Reject peaks whose edges sit far above the median baseline")
}

// apply copies changed flags into the loaded configuration.
func (o *detectOptions) apply(cmd *cobra.Command, a *app) {
	flags := cmd.Flags()
	if flags.Changed("smoothing") {
		a.cfg.Smoothing.Method = o.smoothing
	}
	if flags.Changed("smoothing-level") {
		a.cfg.Smoothing.Level = o.smoothingLevel
	}
	if flags.Changed("baseline-window") {
		a.cfg.Smoothing.BaselineWindow = o.baselineWindow
	}
	if flags.Changed("noise-factor") {
		a.cfg.Peak.NoiseFactor = o.noiseFactor
	}
	if flags.Changed("min-amplitude") {
		a.cfg.Peak.MinimumAmplitude = o.minimumAmplitude
	}
	if flags.Changed("high-baseline") {
		a.cfg.Peak.HighBaseline = o.highBaseline
	}
}

// pipeline builds a detection-only pipeline from the configuration.
func (a *app) pipeline() (*analysis.Pipeline, error) {
	smooth, err := a.cfg.SmoothingFunc()
	if err != nil {
		return nil, err
	}
	params, err := a.cfg.PeakParams()
	if err != nil {
		return nil, err
	}
	return &analysis.Pipeline{
		Smooth:         smooth,
		SmoothingLevel: a.cfg.Smoothing.Level,
		BaselineWindow: a.cfg.Smoothing.BaselineWindow,
		PeakParams:     params,
		Logger:         a.logger,
	}, nil
}

func newDetectCommand(a *app) *cobra.Command {
	opts := &detectOptions{}
	cmd := &cobra.Command{
		Use:   "detect <scans.tsv>...",
		Short: "Detect chromatographic peaks in scan tables",
		Long: `Detect peaks on the total ion chromatogram of one or more scan tables.

Scan tables hold one centroid per row: scan number, retention time (minutes),
m/z and intensity, separated by tabs, commas or spaces.

Examples:
  chromaid detect run01.tsv
  chromaid detect --smoothing savitzky_golay --smoothing-level 3 run*.tsv`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts.apply(cmd, a)
			p, err := a.pipeline()
			if err != nil {
				return err
			}
			results, err := p.RunBatch(cmd.Context(), args, a.cfg.Workers)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			for _, res := range results {
				printPeaks(out, res)
			}
			return nil
		},
	}
	opts.register(cmd)
	return cmd
}

func printPeaks(out io.Writer, res *analysis.Result) {
	fmt.Fprintf(out, "%s (%d scans, %d peaks, run %s)\n", res.Source, res.Scans, len(res.Detection.Peaks), res.RunID)
	if len(res.Detection.Peaks) == 0 {
		return
	}
	headers := []string{"Peak", "Scan", "RT", "Start", "End", "Height", "Area", "S/N", "Purity", "Rank"}
	aligns := []columnAlignment{alignRight, alignRight, alignRight, alignRight, alignRight, alignRight, alignRight, alignRight, alignRight, alignRight}
	rows := make([][]string, 0, len(res.Detection.Peaks))
	for _, pk := range res.Detection.Peaks {
		rows = append(rows, peakRow(pk))
	}
	fmt.Fprintln(out, renderTable(headers, rows, aligns))
	if res.Detection.Aborted {
		fmt.Fprintln(out, "warning: peak scan stopped early; later peaks may be missing")
	}
}

func peakRow(pk peak.PeakDetectionResult) []string {
	return []string{
		strconv.Itoa(pk.PeakID),
		strconv.Itoa(pk.ScanIDAtPeakTop),
		fmt.Sprintf("%.3f", pk.RTAtPeakTop),
		fmt.Sprintf("%.3f", pk.RTAtLeftPeakEdge),
		fmt.Sprintf("%.3f", pk.RTAtRightPeakEdge),
		fmt.Sprintf("%.0f", pk.IntensityAtPeakTop),
		fmt.Sprintf("%.0f", pk.AreaAboveBaseline),
		fmt.Sprintf("%.1f", pk.SignalToNoise),
		fmt.Sprintf("%.2f", pk.PeakPureValue),
		strconv.Itoa(pk.AmplitudeOrder),
	}
}
