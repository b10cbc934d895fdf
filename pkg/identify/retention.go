package identify

import (
	"bufio"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"
)

// Alkane is one n-alkane reference: carbon count and retention time (minutes).
type Alkane struct {
	Carbon        int
	RetentionTime float64
}

// AlkaneLadder converts retention times to Kovats retention indices by
// linear interpolation between bracketing n-alkanes.
type AlkaneLadder []Alkane

// NewAlkaneLadder sorts the alkanes and checks that carbon counts and
// retention times increase together.
func NewAlkaneLadder(alkanes []Alkane) (AlkaneLadder, error) {
	if len(alkanes) < 2 {
		return nil, fmt.Errorf("alkane ladder needs at least 2 entries, got %d", len(alkanes))
	}
	ladder := make(AlkaneLadder, len(alkanes))
	copy(ladder, alkanes)
	sort.Slice(ladder, func(i, j int) bool { return ladder[i].Carbon < ladder[j].Carbon })

	for i, a := range ladder {
		if a.Carbon <= 0 || a.RetentionTime < 0 {
			return nil, fmt.Errorf("invalid alkane C%d at %.4f min", a.Carbon, a.RetentionTime)
		}
		if i > 0 && (a.Carbon == ladder[i-1].Carbon || a.RetentionTime <= ladder[i-1].RetentionTime) {
			return nil, fmt.Errorf("alkane C%d does not elute after C%d", a.Carbon, ladder[i-1].Carbon)
		}
	}
	return ladder, nil
}

// RetentionIndex returns the Kovats index for rt. Times outside the ladder
// are extrapolated from the nearest segment. Negative times return -1.
func (l AlkaneLadder) RetentionIndex(rt float64) float64 {
	if rt < 0 || len(l) < 2 {
		return -1
	}
	i := sort.Search(len(l), func(i int) bool { return l[i].RetentionTime > rt })
	switch {
	case i == 0:
		i = 1
	case i == len(l):
		i = len(l) - 1
	}
	lo, hi := l[i-1], l[i]
	frac := (rt - lo.RetentionTime) / (hi.RetentionTime - lo.RetentionTime)
	return 100 * (float64(lo.Carbon) + float64(hi.Carbon-lo.Carbon)*frac)
}

// ReadAlkanes parses "carbon rt" lines separated by whitespace, tab or comma.
// Blank lines, '#' comments and a non-numeric header line are skipped.
func ReadAlkanes(r io.Reader) ([]Alkane, error) {
	scanner := bufio.NewScanner(r)
	var alkanes []Alkane
	lineNum := 0
	for scanner.Scan() {
		lineNum++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		fields := strings.FieldsFunc(line, func(r rune) bool {
			return r == ',' || r == '\t' || r == ' '
		})
		if len(fields) < 2 {
			return nil, fmt.Errorf("line %d: expected carbon and retention time", lineNum)
		}
		carbon, err := strconv.Atoi(strings.TrimPrefix(strings.ToUpper(fields[0]), "C"))
		if err != nil {
			if len(alkanes) == 0 {
				continue
			}
			return nil, fmt.Errorf("line %d: invalid carbon number %q: %w", lineNum, fields[0], err)
		}
		rt, err := strconv.ParseFloat(fields[1], 64)
		if err != nil {
			return nil, fmt.Errorf("line %d: invalid retention time %q: %w", lineNum, fields[1], err)
		}
		alkanes = append(alkanes, Alkane{Carbon: carbon, RetentionTime: rt})
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read alkanes: %w", err)
	}
	return alkanes, nil
}
