// Package report writes the success and failure reports of an enrichment run.
package report

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/nexconsult/cnpj-enricher/internal/models"
	"github.com/sirupsen/logrus"
)

const (
	OKFileName     = "cnpjs_ok.csv"
	ErrorsFileName = "cnpjs_erros.csv"
)

// WriteSuccessesCSV writes the success report, header first
func WriteSuccessesCSV(w io.Writer, records []models.CompanyRecord) error {
	rows := make([][]string, 0, len(records))
	for _, r := range records {
		rows = append(rows, r.Values())
	}
	return writeCSV(w, models.CompanyRecordHeader(), rows)
}

// WriteFailuresCSV writes the error report, header first
func WriteFailuresCSV(w io.Writer, failures []models.Failure) error {
	rows := make([][]string, 0, len(failures))
	for _, f := range failures {
		rows = append(rows, f.Values())
	}
	return writeCSV(w, models.FailureHeader(), rows)
}

func writeCSV(w io.Writer, header []string, rows [][]string) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(header); err != nil {
		return err
	}
	if err := cw.WriteAll(rows); err != nil {
		return err
	}
	return cw.Error()
}

// SaveDir writes both reports into dir and returns the paths written. A
// report whose list is empty is not created.
func SaveDir(dir string, result *models.RunResult) ([]string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create output dir: %w", err)
	}

	var written []string
	if len(result.Successes) > 0 {
		path := filepath.Join(dir, OKFileName)
		if err := saveFile(path, func(w io.Writer) error {
			return WriteSuccessesCSV(w, result.Successes)
		}); err != nil {
			return written, err
		}
		written = append(written, path)
	}

	if len(result.Failures) > 0 {
		path := filepath.Join(dir, ErrorsFileName)
		if err := saveFile(path, func(w io.Writer) error {
			return WriteFailuresCSV(w, result.Failures)
		}); err != nil {
			return written, err
		}
		written = append(written, path)
	}

	return written, nil
}

func saveFile(path string, write func(io.Writer) error) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", filepath.Base(path), err)
	}
	if err := write(f); err != nil {
		f.Close()
		return fmt.Errorf("write %s: %w", filepath.Base(path), err)
	}
	return f.Close()
}

// DirPersister saves run results into a fixed directory
type DirPersister struct {
	Dir    string
	Logger *logrus.Logger

	written []string
}

// Persist writes the reports of result into p.Dir
func (p *DirPersister) Persist(_ context.Context, result *models.RunResult) error {
	paths, err := SaveDir(p.Dir, result)
	p.written = paths
	if err != nil {
		return err
	}

	if p.Logger != nil {
		p.Logger.WithFields(logrus.Fields{
			"dir":       p.Dir,
			"files":     paths,
			"successes": len(result.Successes),
			"failures":  len(result.Failures),
		}).Info("Reports saved")
	}
	return nil
}

// Written returns the files saved by the last Persist call
func (p *DirPersister) Written() []string {
	return p.written
}
