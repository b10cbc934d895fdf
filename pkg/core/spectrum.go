// Package core provides the intermediate representation (IR) models and validation logic
// for chromatograms, mass spectra and reference library records used by ChromaID.
package core

import (
	"fmt"
	"math"
	"sort"
	"strings"
)

// RetentionType selects which retention axis keys the library and the queries.
type RetentionType int

const (
	// RetentionTime keys records by retention time in minutes.
	RetentionTime RetentionType = iota
	// RetentionIndex keys records by Kovats retention index.
	RetentionIndex
)

func (t RetentionType) String() string {
	switch t {
	case RetentionTime:
		return "rt"
	case RetentionIndex:
		return "ri"
	default:
		return fmt.Sprintf("RetentionType(%d)", int(t))
	}
}

// ParseRetentionType accepts "rt" or "ri" (case-insensitive).
func ParseRetentionType(s string) (RetentionType, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "rt", "retention_time", "":
		return RetentionTime, nil
	case "ri", "retention_index":
		return RetentionIndex, nil
	default:
		return RetentionTime, fmt.Errorf("unknown retention type %q, must be rt or ri", s)
	}
}

// Spectrum represents a single EI mass spectrum. Reference library records and
// the apex spectra of detected peaks share this type.
type Spectrum struct {
	// Identity
	Name       string // Compound name
	CompoundID string // Library identifier (DB#, ID, InChIKey...)
	Formula    string
	InChIKey   string

	// Retention axes; a negative value means the axis is unknown.
	RetentionTime  float64 // minutes
	RetentionIndex float64

	Peaks []Peak // m/z ascending

	Comment string

	// Internal tracking
	SourceFile   string
	SourceFormat string // msp, sqlite, scans
}

// Peak represents a single m/z, intensity pair.
type Peak struct {
	MZ        float64
	Intensity float64
}

// ValidationError represents an error found during validation.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation error in %s: %s", e.Field, e.Message)
}

// NewSpectrum returns an empty spectrum with both retention axes unknown.
func NewSpectrum() *Spectrum {
	return &Spectrum{
		RetentionTime:  -1,
		RetentionIndex: -1,
		Peaks:          []Peak{},
	}
}

// Validate checks that a spectrum can be used as a library record.
func (s *Spectrum) Validate() error {
	var errs []string

	if s.Name == "" {
		errs = append(errs, "name is required")
	}
	if len(s.Peaks) == 0 {
		errs = append(errs, "at least one peak is required")
	}

	for i, peak := range s.Peaks {
		if math.IsNaN(peak.MZ) || math.IsInf(peak.MZ, 0) {
			errs = append(errs, fmt.Sprintf("peak %d has invalid m/z", i))
		}
		if math.IsNaN(peak.Intensity) || math.IsInf(peak.Intensity, 0) {
			errs = append(errs, fmt.Sprintf("peak %d has invalid intensity", i))
		}
		if peak.MZ <= 0 {
			errs = append(errs, fmt.Sprintf("peak %d m/z must be positive", i))
		}
		if peak.Intensity < 0 {
			errs = append(errs, fmt.Sprintf("peak %d intensity must be non-negative", i))
		}
	}

	if !s.ArePeaksSorted() {
		errs = append(errs, "peaks must be sorted by m/z")
	}

	if len(errs) > 0 {
		return &ValidationError{
			Field:   "Spectrum",
			Message: strings.Join(errs, "; "),
		}
	}

	return nil
}

// ArePeaksSorted checks if peaks are sorted by m/z in ascending order.
func (s *Spectrum) ArePeaksSorted() bool {
	for i := 1; i < len(s.Peaks); i++ {
		if s.Peaks[i].MZ < s.Peaks[i-1].MZ {
			return false
		}
	}
	return true
}

// SortPeaks sorts peaks by m/z in ascending order.
func (s *Spectrum) SortPeaks() {
	sort.Slice(s.Peaks, func(i, j int) bool {
		return s.Peaks[i].MZ < s.Peaks[j].MZ
	})
}

// BasePeak returns the most intense peak, or a zero Peak for an empty spectrum.
func (s *Spectrum) BasePeak() Peak {
	var base Peak
	for _, p := range s.Peaks {
		if p.Intensity > base.Intensity {
			base = p
		}
	}
	return base
}

// Retention returns the key on the requested axis; negative when unknown.
func (s *Spectrum) Retention(t RetentionType) float64 {
	if t == RetentionIndex {
		return s.RetentionIndex
	}
	return s.RetentionTime
}

// HasRetention reports whether the requested axis is known.
func (s *Spectrum) HasRetention(t RetentionType) bool {
	return s.Retention(t) >= 0
}

// DisplayName returns the compound name, falling back to the identifier.
func (s *Spectrum) DisplayName() string {
	if s.Name != "" {
		return s.Name
	}
	if s.CompoundID != "" {
		return s.CompoundID
	}
	return "unnamed"
}

// RoundFloat rounds a float to n decimal places
func RoundFloat(val float64, precision int) float64 {
	ratio := math.Pow(10, float64(precision))
	return math.Round(val*ratio) / ratio
}
