package identify

import (
	"fmt"
	"strings"

	"github.com/ChrisMcGann/ChromaID/pkg/core"
)

// Params controls library matching.
type Params struct {
	RetentionType core.RetentionType

	MZTolerance    float64 // Da, used to bin query and library peaks
	MassRangeBegin float64
	MassRangeEnd   float64

	RetentionTimeTolerance  float64 // minutes
	RetentionIndexTolerance float64

	EISimilarityCutoff        float64 // 0-1, candidates below are skipped before retention scoring
	IdentificationScoreCutoff float64 // 0-1, best match must score strictly above

	UseRetentionForFiltering bool
	UseRetentionForScoring   bool
	OnlyTopHit               bool

	// RetentionWeight is the share of the total score taken by retention
	// similarity when retention scoring is on.
	RetentionWeight float64

	DotProductWeight        float64
	ReverseDotProductWeight float64
	PresenceWeight          float64

	Workers int // 0 or less runs sequentially
}

// DefaultParams returns the default matching parameters.
func DefaultParams() Params {
	return Params{
		RetentionType:             core.RetentionTime,
		MZTolerance:               0.5,
		MassRangeBegin:            0,
		MassRangeEnd:              1000,
		RetentionTimeTolerance:    0.5,
		RetentionIndexTolerance:   20,
		EISimilarityCutoff:        0.7,
		IdentificationScoreCutoff: 0.7,
		UseRetentionForFiltering:  true,
		UseRetentionForScoring:    true,
		RetentionWeight:           0.5,
		DotProductWeight:          3,
		ReverseDotProductWeight:   2,
		PresenceWeight:            1,
	}
}

// Tolerance returns the retention tolerance for the active axis.
func (p Params) Tolerance() float64 {
	if p.RetentionType == core.RetentionIndex {
		return p.RetentionIndexTolerance
	}
	return p.RetentionTimeTolerance
}

// Validate checks the parameters for values that would make scores meaningless.
func (p Params) Validate() error {
	var errs []string

	if p.MZTolerance <= 0 {
		errs = append(errs, "mz tolerance must be positive")
	}
	if p.MassRangeBegin < 0 {
		errs = append(errs, "mass range begin must be non-negative")
	}
	if p.MassRangeEnd > 0 && p.MassRangeEnd <= p.MassRangeBegin {
		errs = append(errs, "mass range end must exceed begin")
	}
	if p.UseRetentionForFiltering || p.UseRetentionForScoring {
		if p.Tolerance() <= 0 {
			errs = append(errs, fmt.Sprintf("%s tolerance must be positive", p.RetentionType))
		}
	}
	if p.RetentionWeight < 0 || p.RetentionWeight > 1 {
		errs = append(errs, "retention weight must be within [0,1]")
	}
	if p.DotProductWeight < 0 || p.ReverseDotProductWeight < 0 || p.PresenceWeight < 0 {
		errs = append(errs, "similarity weights must be non-negative")
	}
	if p.DotProductWeight+p.ReverseDotProductWeight+p.PresenceWeight <= 0 {
		errs = append(errs, "at least one similarity weight must be positive")
	}

	if len(errs) > 0 {
		return &core.ValidationError{Field: "identify.Params", Message: strings.Join(errs, "; ")}
	}
	return nil
}
