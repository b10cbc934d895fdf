package librarydb

import (
	"database/sql"
	"fmt"
	"os"

	"github.com/ChrisMcGann/ChromaID/pkg/core"
)

// Header describes a library database.
type Header struct {
	Version      int
	CreationDate string
	Description  string
	NumSpectra   int
}

// Load reads every record of the library at path in insertion order.
// Unknown retention values come back negative.
func Load(path string) ([]*core.Spectrum, error) {
	db, err := open(path)
	if err != nil {
		return nil, err
	}
	defer db.Close()

	rows, err := db.Query(`
		SELECT c.Name, c.Formula, c.InChiKey, c.Accession, c.Comment,
		       s.RetentionTime, s.RetentionIndex, s.blobMass, s.blobIntensity, s.SourceFile
		FROM SpectrumTable s
		JOIN CompoundTable c ON c.CompoundId = s.CompoundId
		ORDER BY s.SpectrumId
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query spectra: %w", err)
	}
	defer rows.Close()

	var spectra []*core.Spectrum
	for rows.Next() {
		var (
			formula, inchiKey, accession, comment, source sql.NullString
			rt, ri                                        sql.NullFloat64
			mzBlob, intBlob                               []byte
		)
		spec := core.NewSpectrum()
		if err := rows.Scan(&spec.Name, &formula, &inchiKey, &accession, &comment,
			&rt, &ri, &mzBlob, &intBlob, &source); err != nil {
			return nil, fmt.Errorf("failed to scan spectrum: %w", err)
		}

		spec.Formula = formula.String
		spec.InChIKey = inchiKey.String
		spec.CompoundID = accession.String
		spec.Comment = comment.String
		spec.SourceFile = source.String
		spec.SourceFormat = "sqlite"
		if rt.Valid {
			spec.RetentionTime = rt.Float64
		}
		if ri.Valid {
			spec.RetentionIndex = ri.Float64
		}

		mzs, err := decodeFloat64(mzBlob)
		if err != nil {
			return nil, fmt.Errorf("record %q m/z: %w", spec.Name, err)
		}
		intensities, err := decodeFloat64(intBlob)
		if err != nil {
			return nil, fmt.Errorf("record %q intensity: %w", spec.Name, err)
		}
		if len(mzs) != len(intensities) {
			return nil, fmt.Errorf("record %q has %d m/z values but %d intensities", spec.Name, len(mzs), len(intensities))
		}
		spec.Peaks = make([]core.Peak, len(mzs))
		for i := range mzs {
			spec.Peaks[i] = core.Peak{MZ: mzs[i], Intensity: intensities[i]}
		}

		spectra = append(spectra, spec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read spectra: %w", err)
	}

	return spectra, nil
}

// ReadHeader returns the header row of the library at path.
func ReadHeader(path string) (*Header, error) {
	db, err := open(path)
	if err != nil {
		return nil, err
	}
	defer db.Close()

	var (
		h           Header
		created     sql.NullString
		description sql.NullString
	)
	err = db.QueryRow(`SELECT version, CreationDate, Description, NumSpectra FROM HeaderTable LIMIT 1`).
		Scan(&h.Version, &created, &description, &h.NumSpectra)
	if err != nil {
		return nil, fmt.Errorf("failed to read header: %w", err)
	}
	h.CreationDate = created.String
	h.Description = description.String
	return &h, nil
}

// open refuses to create a new empty database on a mistyped path.
func open(path string) (*sql.DB, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("failed to open library: %w", err)
	}
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	return db, nil
}
