package cmd

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ChrisMcGann/ChromaID/pkg/analysis"
	"github.com/ChrisMcGann/ChromaID/pkg/core"
	"github.com/ChrisMcGann/ChromaID/pkg/identify"
	"github.com/ChrisMcGann/ChromaID/pkg/librarydb"
	"github.com/ChrisMcGann/ChromaID/pkg/reader/msp"
)

func newIdentifyCommand(a *app) *cobra.Command {
	detect := &detectOptions{}
	var (
		libraryPath   string
		alkanesPath   string
		retentionType string
		mzTolerance   float64
		scoreCutoff   float64
		onlyTopHit    bool
	)

	cmd := &cobra.Command{
		Use:   "identify <scans.tsv>...",
		Short: "Detect peaks and identify them against a reference library",
		Long: `Detect peaks in each scan table, extract the apex spectrum of every peak and
match it against a reference library (SQLite database written by "import",
or an MSP file read directly).

Examples:
  chromaid identify --library nist.db run01.tsv
  chromaid identify --library lib.msp --retention-type ri --alkanes alkanes.csv run01.tsv`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			detect.apply(cmd, a)
			flags := cmd.Flags()
			if flags.Changed("library") {
				a.cfg.Library.Path = libraryPath
			}
			if flags.Changed("alkanes") {
				a.cfg.Alkanes.File = alkanesPath
			}
			if flags.Changed("retention-type") {
				a.cfg.Identification.RetentionType = strings.ToLower(retentionType)
			}
			if flags.Changed("mz-tolerance") {
				a.cfg.Identification.MZTolerance = mzTolerance
			}
			if flags.Changed("score-cutoff") {
				a.cfg.Identification.IdentificationScoreCutoff = scoreCutoff
			}
			if flags.Changed("only-top-hit") {
				a.cfg.Identification.OnlyTopHit = onlyTopHit
			}

			p, err := a.pipeline()
			if err != nil {
				return err
			}
			if p.Identifier, err = a.identifier(); err != nil {
				return err
			}
			if p.Ladder, err = a.ladder(); err != nil {
				return err
			}
			if p.Identifier != nil && len(p.Ladder) == 0 && a.cfg.Identification.RetentionType == "ri" {
				a.logger.Warn("retention index matching without an alkane ladder; peaks carry no retention index")
			}

			results, err := p.RunBatch(cmd.Context(), args, a.cfg.Workers)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			for _, res := range results {
				printIdentifications(out, res)
			}
			return nil
		},
	}

	detect.register(cmd)
	cmd.Flags().StringVarP(&libraryPath, "library", "l", "", "Reference library (.db or .msp)")
	cmd.Flags().StringVar(&alkanesPath, "alkanes", "", "n-alkane ladder file (carbon, retention time)")
	cmd.Flags().StringVar(&retentionType, "retention-type", "", "Retention axis: rt or ri")
	cmd.Flags().Float64Var(&mzTolerance, "mz-tolerance", 0, "m/z tolerance in Da")
	cmd.Flags().Float64Var(&scoreCutoff, "score-cutoff", 0, "Minimum total score (0-1)")
	cmd.Flags().BoolVar(&onlyTopHit, "only-top-hit", false, "Assign each library record to its best peak only")
	return cmd
}

// identifier loads and prepares the configured library.
func (a *app) identifier() (*identify.Identifier, error) {
	path := a.cfg.Library.Path
	if path == "" {
		return nil, fmt.Errorf("no reference library: set --library or [library] path")
	}
	params, err := a.cfg.IdentifyParams()
	if err != nil {
		return nil, err
	}

	records, err := a.loadLibrary(path)
	if err != nil {
		return nil, err
	}
	prepared := identify.PrepareLibrary(records, params)
	if dropped := len(records) - len(prepared); dropped > 0 {
		a.logger.Warn("library records without retention dropped",
			slog.Int("dropped", dropped),
			slog.String("retention_type", params.RetentionType.String()))
	}
	a.logger.Info("library loaded", slog.String("path", path), slog.Int("records", len(prepared)))

	return identify.NewIdentifier(prepared, params)
}

func (a *app) loadLibrary(path string) ([]*core.Spectrum, error) {
	if strings.EqualFold(filepath.Ext(path), ".msp") {
		f, err := os.Open(path)
		if err != nil {
			return nil, fmt.Errorf("failed to open library: %w", err)
		}
		defer f.Close()
		records, err := msp.NewReader(f, path).ReadAll()
		if err != nil {
			return nil, err
		}
		filterConfig := a.cfg.LibraryFilter()
		for _, rec := range records {
			filterConfig.Apply(rec)
		}
		return records, nil
	}
	return librarydb.Load(path)
}

// ladder reads the configured alkane ladder, if any.
func (a *app) ladder() (identify.AlkaneLadder, error) {
	path := a.cfg.Alkanes.File
	if path == "" {
		return nil, nil
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open alkane ladder: %w", err)
	}
	defer f.Close()
	alkanes, err := identify.ReadAlkanes(f)
	if err != nil {
		return nil, err
	}
	return identify.NewAlkaneLadder(alkanes)
}

func printIdentifications(out io.Writer, res *analysis.Result) {
	fmt.Fprintf(out, "%s (%d scans, %d peaks, run %s)\n", res.Source, res.Scans, len(res.Detection.Peaks), res.RunID)
	if len(res.Identifications) == 0 {
		return
	}
	headers := []string{"Peak", "RT", "RI", "Compound", "ID", "Ref RT/RI", "Dot", "Rev", "Presence", "Score"}
	aligns := []columnAlignment{alignRight, alignRight, alignRight, alignLeft, alignLeft, alignRight, alignRight, alignRight, alignRight, alignRight}
	rows := make([][]string, 0, len(res.Identifications))
	for i, id := range res.Identifications {
		spec := res.Spectra[i]
		row := []string{
			strconv.Itoa(id.PeakID),
			fmt.Sprintf("%.3f", spec.RetentionTime),
			formatRetention(spec.RetentionIndex, "%.1f"),
		}
		if !id.Matched() {
			row = append(row, "unknown", "", "", "", "", "", "")
		} else {
			row = append(row,
				id.Name,
				id.CompoundID,
				formatRetention(id.ReferenceRetention, "%.3f"),
				fmt.Sprintf("%.3f", id.DotProduct),
				fmt.Sprintf("%.3f", id.ReverseDotProduct),
				fmt.Sprintf("%.3f", id.PresencePercentage),
				fmt.Sprintf("%.3f", id.TotalScore),
			)
		}
		rows = append(rows, row)
	}
	fmt.Fprintln(out, renderTable(headers, rows, aligns))
}

func formatRetention(v float64, format string) string {
	if v < 0 {
		return "-"
	}
	return fmt.Sprintf(format, v)
}
