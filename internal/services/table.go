package services

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/nexconsult/cnpj-enricher/internal/models"
)

// IdentifierColumn is the required input column name
const IdentifierColumn = "CNPJ"

var errMissingColumn = fmt.Errorf("Coluna '%s' não encontrada", IdentifierColumn)

// LoadInputTable opens path and reads its CNPJ column
func LoadInputTable(path string) (*models.InputTable, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, &InputError{Source: path, Err: err}
	}
	defer f.Close()

	return ReadInputTable(f, filepath.Base(path))
}

// ReadInputTable reads a CSV whose header has a column named CNPJ (compared
// after trimming, case-insensitively). Other columns are ignored; rows missing
// the column yield an empty identifier.
func ReadInputTable(r io.Reader, source string) (*models.InputTable, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true

	header, err := cr.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, &InputError{Source: source, Err: errMissingColumn}
		}
		return nil, &InputError{Source: source, Err: fmt.Errorf("read header: %w", err)}
	}

	idx := -1
	for i, col := range header {
		if i == 0 {
			col = strings.TrimPrefix(col, "\ufeff")
		}
		if strings.EqualFold(strings.TrimSpace(col), IdentifierColumn) {
			idx = i
			break
		}
	}
	if idx < 0 {
		return nil, &InputError{Source: source, Err: errMissingColumn}
	}

	table := &models.InputTable{Source: source}
	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, &InputError{Source: source, Err: fmt.Errorf("read row: %w", err)}
		}
		if idx < len(rec) {
			table.Identifiers = append(table.Identifiers, rec[idx])
		} else {
			table.Identifiers = append(table.Identifiers, "")
		}
	}

	return table, nil
}
