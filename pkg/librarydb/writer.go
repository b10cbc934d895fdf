// Package librarydb stores EI reference libraries in SQLite so they can be
// imported once and loaded quickly for identification runs.
package librarydb

import (
	"database/sql"
	"encoding/binary"
	"fmt"
	"math"
	"time"

	"github.com/ChrisMcGann/ChromaID/pkg/core"
	_ "github.com/mattn/go-sqlite3"
)

const (
	// Date format for HeaderTable (ISO 8601)
	headerDateFormat = "2006-01-02"
	schemaVersion    = 1
)

const schema = `
	CREATE TABLE IF NOT EXISTS CompoundTable (
		CompoundId INTEGER PRIMARY KEY,
		Name TEXT NOT NULL,
		Formula TEXT,
		InChiKey TEXT,
		Accession TEXT,
		Comment TEXT
	);

	CREATE TABLE IF NOT EXISTS SpectrumTable (
		SpectrumId INTEGER PRIMARY KEY,
		CompoundId INTEGER REFERENCES CompoundTable(CompoundId),
		RetentionTime DOUBLE,
		RetentionIndex DOUBLE,
		IonizationMode TEXT,
		NumPeaks INTEGER,
		blobMass BLOB,
		blobIntensity BLOB,
		SourceFile TEXT
	);

	CREATE INDEX IF NOT EXISTS idx_spectrum_rt ON SpectrumTable(RetentionTime);
	CREATE INDEX IF NOT EXISTS idx_spectrum_ri ON SpectrumTable(RetentionIndex);

	CREATE TABLE IF NOT EXISTS HeaderTable (
		version INTEGER NOT NULL DEFAULT 0,
		CreationDate TEXT,
		LastModifiedDate TEXT,
		Description TEXT,
		NumSpectra INTEGER
	);
`

// Writer handles writing library records to a SQLite database file. All
// records are inserted in one transaction committed by Finalize.
type Writer struct {
	db           *sql.DB
	tx           *sql.Tx
	outputPath   string
	description  string
	compoundStmt *sql.Stmt
	spectrumStmt *sql.Stmt
	compoundID   int
	closed       bool
	now          func() time.Time
}

// NewWriter creates a new library database at outputPath. An existing
// database is appended to.
func NewWriter(outputPath, description string) (*Writer, error) {
	db, err := sql.Open("sqlite3", outputPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	w := &Writer{
		db:          db,
		outputPath:  outputPath,
		description: description,
		now:         time.Now,
	}

	if err := w.createTables(); err != nil {
		db.Close()
		return nil, err
	}

	if err := w.db.QueryRow(`SELECT COALESCE(MAX(CompoundId), 0) + 1 FROM CompoundTable`).Scan(&w.compoundID); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to read next compound id: %w", err)
	}

	if err := w.prepareStatements(); err != nil {
		db.Close()
		return nil, err
	}

	return w, nil
}

// createTables creates the required database schema
func (w *Writer) createTables() error {
	if _, err := w.db.Exec(schema); err != nil {
		return fmt.Errorf("failed to create tables: %w", err)
	}
	return nil
}

// prepareStatements opens the import transaction and prepares the inserts
func (w *Writer) prepareStatements() error {
	var err error

	w.tx, err = w.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	w.compoundStmt, err = w.tx.Prepare(`
		INSERT INTO CompoundTable (CompoundId, Name, Formula, InChiKey, Accession, Comment)
		VALUES (?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		w.tx.Rollback()
		return fmt.Errorf("failed to prepare compound statement: %w", err)
	}

	w.spectrumStmt, err = w.tx.Prepare(`
		INSERT INTO SpectrumTable (
			SpectrumId, CompoundId, RetentionTime, RetentionIndex, IonizationMode,
			NumPeaks, blobMass, blobIntensity, SourceFile
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		w.tx.Rollback()
		return fmt.Errorf("failed to prepare spectrum statement: %w", err)
	}

	return nil
}

// WriteSpectrum writes a single library record to the database
func (w *Writer) WriteSpectrum(spec *core.Spectrum) error {
	if err := spec.Validate(); err != nil {
		return fmt.Errorf("record %q: %w", spec.DisplayName(), err)
	}

	_, err := w.compoundStmt.Exec(
		w.compoundID,    // CompoundId
		spec.Name,       // Name
		spec.Formula,    // Formula
		spec.InChIKey,   // InChiKey
		spec.CompoundID, // Accession
		spec.Comment,    // Comment
	)
	if err != nil {
		return fmt.Errorf("failed to insert compound: %w", err)
	}

	// Encode peaks as binary blobs (little-endian float64)
	mzBlob := encodePeaksFloat64(spec.Peaks, true)
	intBlob := encodePeaksFloat64(spec.Peaks, false)

	_, err = w.spectrumStmt.Exec(
		w.compoundID,                  // SpectrumId (1:1 with CompoundId)
		w.compoundID,                  // CompoundId
		nullable(spec.RetentionTime),  // RetentionTime
		nullable(spec.RetentionIndex), // RetentionIndex
		"EI",                          // IonizationMode
		len(spec.Peaks),               // NumPeaks
		mzBlob,                        // blobMass
		intBlob,                       // blobIntensity
		spec.SourceFile,               // SourceFile
	)
	if err != nil {
		return fmt.Errorf("failed to insert spectrum: %w", err)
	}

	w.compoundID++
	return nil
}

// nullable maps an unknown (negative) retention value to NULL.
func nullable(v float64) interface{} {
	if v < 0 {
		return nil
	}
	return v
}

// encodePeaksFloat64 encodes peak data as little-endian float64 blob
func encodePeaksFloat64(peaks []core.Peak, useMZ bool) []byte {
	buf := make([]byte, len(peaks)*8)
	for i, peak := range peaks {
		value := peak.Intensity
		if useMZ {
			value = peak.MZ
		}
		binary.LittleEndian.PutUint64(buf[i*8:], math.Float64bits(value))
	}
	return buf
}

// decodeFloat64 reverses encodePeaksFloat64 for one axis.
func decodeFloat64(blob []byte) ([]float64, error) {
	if len(blob)%8 != 0 {
		return nil, fmt.Errorf("blob length %d is not a multiple of 8", len(blob))
	}
	values := make([]float64, len(blob)/8)
	for i := range values {
		values[i] = math.Float64frombits(binary.LittleEndian.Uint64(blob[i*8:]))
	}
	return values, nil
}

// Finalize commits the records, writes the header and closes the database.
// Calls after the first are no-ops.
func (w *Writer) Finalize() error {
	if w.closed {
		return nil
	}
	w.closed = true

	if w.compoundStmt != nil {
		w.compoundStmt.Close()
	}
	if w.spectrumStmt != nil {
		w.spectrumStmt.Close()
	}

	if err := w.tx.Commit(); err != nil {
		w.db.Close()
		return fmt.Errorf("failed to commit records: %w", err)
	}

	var count int
	if err := w.db.QueryRow(`SELECT COUNT(*) FROM SpectrumTable`).Scan(&count); err != nil {
		w.db.Close()
		return fmt.Errorf("failed to count spectra: %w", err)
	}

	today := w.now().Format(headerDateFormat)
	if _, err := w.db.Exec(`DELETE FROM HeaderTable`); err != nil {
		w.db.Close()
		return fmt.Errorf("failed to reset header: %w", err)
	}
	_, err := w.db.Exec(`
		INSERT INTO HeaderTable (version, CreationDate, LastModifiedDate, Description, NumSpectra)
		VALUES (?, ?, ?, ?, ?)
	`, schemaVersion, today, today, w.description, count)
	if err != nil {
		w.db.Close()
		return fmt.Errorf("failed to insert header: %w", err)
	}

	if err := w.db.Close(); err != nil {
		return fmt.Errorf("failed to close database: %w", err)
	}

	return nil
}

// Close closes the database connection (alias for Finalize)
func (w *Writer) Close() error {
	return w.Finalize()
}
