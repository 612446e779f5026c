package database

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/justsurfingit/job-ledger-sync/internal/models"
)

// ErrLedgerNotFound is returned by a store that requires an existing ledger.
var ErrLedgerNotFound = errors.New("ledger not found")

const utf8BOM = "\ufeff"

// CSVStore keeps the ledger in a comma-delimited UTF-8 file with a header row.
type CSVStore struct {
	Path string

	// RequireExisting makes Load fail with ErrLedgerNotFound instead of
	// starting an empty ledger.
	RequireExisting bool
}

func NewCSVStore(path string) *CSVStore {
	return &CSVStore{Path: path}
}

// Exists reports whether the ledger file is present.
func (s *CSVStore) Exists() bool {
	_, err := os.Stat(s.Path)
	return err == nil
}

// Load reads the ledger. Columns are matched by header name: schema columns
// missing from the file come back empty, unknown columns land in Extra.
func (s *CSVStore) Load(ctx context.Context) ([]models.JobApplication, error) {
	data, err := os.ReadFile(s.Path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			if s.RequireExisting {
				return nil, fmt.Errorf("%w: %s", ErrLedgerNotFound, s.Path)
			}
			return []models.JobApplication{}, nil
		}
		return nil, fmt.Errorf("read ledger %s: %w", s.Path, err)
	}
	ledger, err := DecodeCSV(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("parse ledger %s: %w", s.Path, err)
	}
	return ledger, nil
}

// Persist replaces the file with the full ledger. The new content is written
// to a temporary file first and renamed into place.
func (s *CSVStore) Persist(ctx context.Context, ledger []models.JobApplication) error {
	var buf bytes.Buffer
	if err := EncodeCSV(&buf, ledger); err != nil {
		return err
	}
	if dir := filepath.Dir(s.Path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	return writeFileAtomic(s.Path, buf.Bytes(), 0o644)
}

// DecodeCSV parses a ledger file body.
func DecodeCSV(r io.Reader) ([]models.JobApplication, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err == io.EOF {
		return []models.JobApplication{}, nil
	}
	if err != nil {
		return nil, err
	}
	for i := range header {
		header[i] = strings.TrimSpace(header[i])
	}
	if len(header) > 0 {
		header[0] = strings.TrimPrefix(header[0], utf8BOM)
	}

	ledger := []models.JobApplication{}
	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		if isBlankRow(row) {
			continue
		}
		var rec models.JobApplication
		for i, col := range header {
			if col == "" {
				continue
			}
			value := ""
			if i < len(row) {
				value = row[i]
			}
			rec.Set(col, value)
		}
		ledger = append(ledger, rec)
	}
	return ledger, nil
}

// EncodeCSV writes the nine schema columns followed by any extra columns in
// alphabetical order.
func EncodeCSV(w io.Writer, ledger []models.JobApplication) error {
	header := append(append([]string(nil), models.Columns...), extraColumns(ledger)...)

	writer := csv.NewWriter(w)
	if err := writer.Write(header); err != nil {
		return err
	}
	row := make([]string, len(header))
	for i := range ledger {
		for c, col := range header {
			row[c] = ledger[i].Get(col)
		}
		if err := writer.Write(row); err != nil {
			return err
		}
	}
	writer.Flush()
	return writer.Error()
}

func extraColumns(ledger []models.JobApplication) []string {
	seen := map[string]bool{}
	var cols []string
	for _, rec := range ledger {
		for k := range rec.Extra {
			if !seen[k] && !models.IsSchemaColumn(k) {
				seen[k] = true
				cols = append(cols, k)
			}
		}
	}
	sort.Strings(cols)
	return cols
}

func isBlankRow(row []string) bool {
	for _, v := range row {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}

func writeFileAtomic(path string, data []byte, mode os.FileMode) error {
	dir := filepath.Dir(path)
	tmpFile, err := os.CreateTemp(dir, "."+filepath.Base(path)+".tmp-*")
	if err != nil {
		return err
	}
	tmpName := tmpFile.Name()
	committed := false
	defer func() {
		if !committed {
			_ = os.Remove(tmpName)
		}
	}()
	if _, err := tmpFile.Write(data); err != nil {
		_ = tmpFile.Close()
		return err
	}
	if err := tmpFile.Chmod(mode); err != nil {
		_ = tmpFile.Close()
		return err
	}
	if err := tmpFile.Close(); err != nil {
		return err
	}
	if err := os.Rename(tmpName, path); err != nil {
		return err
	}
	committed = true
	return nil
}
