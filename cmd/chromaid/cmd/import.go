package cmd

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/ChrisMcGann/ChromaID/pkg/librarydb"
	"github.com/ChrisMcGann/ChromaID/pkg/reader/msp"
)

func newImportCommand(a *app) *cobra.Command {
	var (
		inputFile     string
		outputFile    string
		description   string
		topN          int
		cutoffPercent float64
	)

	cmd := &cobra.Command{
		Use:   "import",
		Short: "Import an MSP library into a SQLite database",
		Long: `Import an EI spectral library in MSP format into a SQLite library database.
Importing into an existing database appends to it.

Examples:
  # Import with default settings
  chromaid import --in library.msp --out library.db

  # Keep the 50 most intense peaks above 1% of the base peak
  chromaid import --in library.msp --out library.db --top-n 50 --cutoff 1`,
		RunE: func(cmd *cobra.Command, args []string) error {
			flags := cmd.Flags()
			if flags.Changed("top-n") {
				a.cfg.Library.TopN = topN
			}
			if flags.Changed("cutoff") {
				a.cfg.Library.IntensityCutoff = cutoffPercent
			}
			count, skipped, err := a.importMSP(inputFile, outputFile, description)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintln(out, renderTable(
				[]string{"Input", "Output", "Imported", "Skipped"},
				[][]string{{inputFile, outputFile, strconv.Itoa(count), strconv.Itoa(skipped)}},
				[]columnAlignment{alignLeft, alignLeft, alignRight, alignRight},
			))
			return nil
		},
	}

	cmd.Flags().StringVarP(&inputFile, "in", "i", "", "Input MSP file (required)")
	cmd.Flags().StringVarP(&outputFile, "out", "o", "", "Output database file (required)")
	cmd.Flags().StringVar(&description, "description", "", "Library description stored in the header")
	cmd.Flags().IntVar(&topN, "top-n", 0, "Keep only top N most intense peaks (0 = no limit)")
	cmd.Flags().Float64Var(&cutoffPercent, "cutoff", 0, "Intensity cutoff as % of base peak (0 = no cutoff)")
	_ = cmd.MarkFlagRequired("in")
	_ = cmd.MarkFlagRequired("out")
	return cmd
}

// importMSP streams records from inputFile into the database at outputFile.
// Records that fail validation after filtering are skipped with a warning.
func (a *app) importMSP(inputFile, outputFile, description string) (int, int, error) {
	if _, err := os.Stat(inputFile); os.IsNotExist(err) {
		return 0, 0, fmt.Errorf("input file does not exist: %s", inputFile)
	}
	inFile, err := os.Open(inputFile)
	if err != nil {
		return 0, 0, fmt.Errorf("failed to open input file: %w", err)
	}
	defer inFile.Close()

	if description == "" {
		description = fmt.Sprintf("Imported from %s", inputFile)
	}
	writer, err := librarydb.NewWriter(outputFile, description)
	if err != nil {
		return 0, 0, fmt.Errorf("failed to create output database: %w", err)
	}
	defer writer.Close()

	filterConfig := a.cfg.LibraryFilter()
	reader := msp.NewReader(inFile, inputFile)

	count, skipped := 0, 0
	for reader.Next() {
		spec := reader.Spectrum()
		filterConfig.Apply(spec)

		if err := spec.Validate(); err != nil {
			a.logger.Warn("skipping invalid record",
				slog.String("name", spec.DisplayName()),
				slog.String("error", err.Error()))
			skipped++
			continue
		}
		if err := writer.WriteSpectrum(spec); err != nil {
			return count, skipped, fmt.Errorf("failed to write spectrum %s: %w", spec.DisplayName(), err)
		}

		count++
		if count%1000 == 0 {
			a.logger.Info("import progress", slog.Int("records", count))
		}
	}
	if err := reader.Err(); err != nil {
		return count, skipped, fmt.Errorf("error reading input file: %w", err)
	}

	if err := writer.Finalize(); err != nil {
		return count, skipped, fmt.Errorf("failed to finalize database: %w", err)
	}
	a.logger.Info("import complete",
		slog.String("output", outputFile),
		slog.Int("records", count),
		slog.Int("skipped", skipped))
	return count, skipped, nil
}
