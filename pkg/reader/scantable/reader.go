// Package scantable provides a streaming reader for long-format GC-MS scan
// tables: one row per centroid with scan number, retention time (minutes),
// m/z and intensity, separated by tabs, commas or spaces.
package scantable

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/ChrisMcGann/ChromaID/pkg/core"
)

// Scan is one full-scan spectrum.
type Scan struct {
	Number int
	Time   float64
	Peaks  []core.Peak
}

type row struct {
	scan      int
	time      float64
	mz        float64
	intensity float64
}

// Reader provides streaming access to scan tables. Rows of one scan must be
// contiguous and scans must not go back in time.
type Reader struct {
	scanner     *bufio.Scanner
	lineNum     int
	rows        int
	pending     *row
	seen        map[int]bool
	lastTime    float64
	currentScan *Scan
	err         error
}

// NewReader creates a new scan table reader
func NewReader(r io.Reader) *Reader {
	return &Reader{
		scanner:  bufio.NewScanner(r),
		seen:     make(map[int]bool),
		lastTime: -1,
	}
}

// Next advances to the next scan. Returns false when no more scans or error.
func (r *Reader) Next() bool {
	r.currentScan = nil

	scan, err := r.readScan()
	if err != nil {
		if err != io.EOF {
			r.err = err
		}
		return false
	}

	r.currentScan = scan
	return true
}

// Scan returns the current scan
func (r *Reader) Scan() *Scan {
	return r.currentScan
}

// Err returns any error encountered during reading
func (r *Reader) Err() error {
	return r.err
}

func (r *Reader) readScan() (*Scan, error) {
	var scan *Scan

	for {
		var next *row
		if r.pending != nil {
			next, r.pending = r.pending, nil
		} else {
			var err error
			next, err = r.readRow()
			if err == io.EOF {
				break
			}
			if err != nil {
				return nil, err
			}
		}

		if scan != nil && next.scan != scan.Number {
			r.pending = next
			break
		}
		if scan == nil {
			if r.seen[next.scan] {
				return nil, fmt.Errorf("line %d: scan %d is not contiguous", r.lineNum, next.scan)
			}
			if next.time < r.lastTime {
				return nil, fmt.Errorf("line %d: scan %d goes back in time", r.lineNum, next.scan)
			}
			r.seen[next.scan] = true
			r.lastTime = next.time
			scan = &Scan{Number: next.scan, Time: next.time}
		}
		if next.mz > 0 {
			scan.Peaks = append(scan.Peaks, core.Peak{MZ: next.mz, Intensity: next.intensity})
		}
	}

	if scan == nil {
		return nil, io.EOF
	}
	return scan, nil
}

// readRow returns the next data row, skipping blanks, comments and a header.
func (r *Reader) readRow() (*row, error) {
	for r.scanner.Scan() {
		r.lineNum++
		line := strings.TrimSpace(r.scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		fields := strings.FieldsFunc(line, func(c rune) bool {
			return c == '\t' || c == ',' || c == ' '
		})
		if len(fields) < 4 {
			return nil, fmt.Errorf("line %d: expected scan, time, mz, intensity", r.lineNum)
		}

		scan, err := strconv.Atoi(fields[0])
		if err != nil {
			if r.rows == 0 {
				continue // header
			}
			return nil, fmt.Errorf("line %d: invalid scan number %q: %w", r.lineNum, fields[0], err)
		}
		values := make([]float64, 3)
		for i, f := range fields[1:4] {
			v, err := strconv.ParseFloat(f, 64)
			if err != nil {
				return nil, fmt.Errorf("line %d: invalid value %q: %w", r.lineNum, f, err)
			}
			values[i] = v
		}
		r.rows++
		return &row{scan: scan, time: values[0], mz: values[1], intensity: values[2]}, nil
	}
	if err := r.scanner.Err(); err != nil {
		return nil, err
	}
	return nil, io.EOF
}
