// Package msp provides a streaming reader for EI MSP spectral libraries
// (NIST/MS-DIAL style).
package msp

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/ChrisMcGann/ChromaID/pkg/core"
)

const maxLineSize = 1024 * 1024

// Reader provides streaming access to MSP format files
type Reader struct {
	scanner     *bufio.Scanner
	source      string
	lineNum     int
	currentSpec *core.Spectrum
	err         error
}

// NewReader creates a new MSP reader. source is recorded on every spectrum.
func NewReader(r io.Reader, source string) *Reader {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), maxLineSize)
	return &Reader{
		scanner: scanner,
		source:  source,
	}
}

// Next advances to the next spectrum. Returns false when no more spectra or error.
func (r *Reader) Next() bool {
	r.currentSpec = nil

	spec, err := r.readSpectrum()
	if err != nil {
		if err != io.EOF {
			r.err = err
		}
		return false
	}

	r.currentSpec = spec
	return true
}

// Spectrum returns the current spectrum
func (r *Reader) Spectrum() *core.Spectrum {
	return r.currentSpec
}

// Err returns any error encountered during reading
func (r *Reader) Err() error {
	return r.err
}

// ReadAll reads every remaining spectrum.
func (r *Reader) ReadAll() ([]*core.Spectrum, error) {
	var spectra []*core.Spectrum
	for r.Next() {
		spectra = append(spectra, r.Spectrum())
	}
	return spectra, r.Err()
}

// readSpectrum reads a single entry. An entry ends after its declared number
// of peaks, at a blank line, or at end of input.
func (r *Reader) readSpectrum() (*core.Spectrum, error) {
	spec := core.NewSpectrum()
	spec.SourceFormat = "msp"
	spec.SourceFile = r.source

	started := false
	numPeaks := -1

	for r.scanner.Scan() {
		r.lineNum++
		line := strings.TrimSpace(r.scanner.Text())

		if line == "" {
			if started {
				return r.finish(spec)
			}
			continue
		}

		if numPeaks >= 0 {
			peaks, err := parsePeakLine(line)
			if err != nil {
				return nil, fmt.Errorf("line %d: %w", r.lineNum, err)
			}
			spec.Peaks = append(spec.Peaks, peaks...)
			if len(spec.Peaks) >= numPeaks {
				return r.finish(spec)
			}
			continue
		}

		key, value, ok := strings.Cut(line, ":")
		if !ok {
			return nil, fmt.Errorf("line %d: expected 'Key: value', got %q", r.lineNum, line)
		}
		started = true
		value = strings.TrimSpace(value)

		if err := r.parseField(spec, strings.ToUpper(strings.TrimSpace(key)), value, &numPeaks); err != nil {
			return nil, fmt.Errorf("line %d: %w", r.lineNum, err)
		}
		if numPeaks == 0 {
			return r.finish(spec)
		}
	}

	if err := r.scanner.Err(); err != nil {
		return nil, err
	}

	// If we have a partially read spectrum, return it
	if started {
		return r.finish(spec)
	}

	return nil, io.EOF
}

func (r *Reader) finish(spec *core.Spectrum) (*core.Spectrum, error) {
	if spec.Name == "" {
		return nil, fmt.Errorf("line %d: entry without NAME", r.lineNum)
	}
	if !spec.ArePeaksSorted() {
		spec.SortPeaks()
	}
	return spec, nil
}

// parseField stores one header field. Unknown keys are ignored.
func (r *Reader) parseField(spec *core.Spectrum, key, value string, numPeaks *int) error {
	switch key {
	case "NAME":
		spec.Name = value

	case "DB#", "ID", "NISTNO":
		spec.CompoundID = value

	case "FORMULA":
		spec.Formula = value

	case "INCHIKEY":
		spec.InChIKey = value
		if spec.CompoundID == "" {
			spec.CompoundID = value
		}

	case "RETENTIONTIME", "RT", "RETENTION_TIME":
		rt, err := parseRetention(value)
		if err != nil {
			return fmt.Errorf("invalid retention time %q: %w", value, err)
		}
		spec.RetentionTime = rt

	case "RETENTIONINDEX", "RI", "RETENTION_INDEX":
		ri, err := parseRetention(value)
		if err != nil {
			return fmt.Errorf("invalid retention index %q: %w", value, err)
		}
		spec.RetentionIndex = ri

	case "COMMENT", "COMMENTS":
		spec.Comment = value

	case "NUM PEAKS", "NUMPEAKS", "NUM_PEAKS":
		n, err := strconv.Atoi(value)
		if err != nil || n < 0 {
			return fmt.Errorf("invalid num peaks %q", value)
		}
		*numPeaks = n
	}
	return nil
}

// parseRetention accepts an optional unit suffix ("5.21 min").
func parseRetention(value string) (float64, error) {
	fields := strings.Fields(value)
	if len(fields) == 0 {
		return -1, nil
	}
	return strconv.ParseFloat(fields[0], 64)
}

// parsePeakLine parses "mz intensity", "mz intensity; mz intensity;" or
// "mz:intensity mz:intensity" peak lists.
func parsePeakLine(line string) ([]core.Peak, error) {
	var peaks []core.Peak
	for _, group := range strings.Split(line, ";") {
		group = strings.TrimSpace(group)
		if group == "" {
			continue
		}
		fields := strings.Fields(strings.ReplaceAll(group, ":", " "))
		if len(fields)%2 != 0 {
			// trailing annotation, e.g. `41 250 "C3H5+"`
			if len(fields) == 3 {
				fields = fields[:2]
			} else {
				return nil, fmt.Errorf("invalid peak format %q", group)
			}
		}
		for i := 0; i+1 < len(fields); i += 2 {
			peak, err := parsePeak(fields[i], fields[i+1])
			if err != nil {
				return nil, err
			}
			peaks = append(peaks, peak)
		}
	}
	return peaks, nil
}

func parsePeak(mzStr, intensityStr string) (core.Peak, error) {
	mz, err := strconv.ParseFloat(mzStr, 64)
	if err != nil {
		return core.Peak{}, fmt.Errorf("invalid m/z value: %w", err)
	}

	intensity, err := strconv.ParseFloat(intensityStr, 64)
	if err != nil {
		return core.Peak{}, fmt.Errorf("invalid intensity value: %w", err)
	}

	return core.Peak{MZ: mz, Intensity: intensity}, nil
}
