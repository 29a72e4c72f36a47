package samplesheet

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/okian/contestboard/internal/domain/model"
	"github.com/okian/contestboard/internal/domain/sheet"
	"github.com/okian/contestboard/pkg/logger"
)

// File permission constants.
const (
	directoryPermission = 0750
)

// WriteCSV writes employees as a contest sheet with the given header names.
func WriteCSV(w io.Writer, cols sheet.Columns, employees []model.Employee) error {
	cw := csv.NewWriter(w)
	header := []string{
		cols.StaffName, cols.CompanyName, cols.Branch, cols.Outstanding,
		cols.DomesticBusinessTarget, cols.InternationalBusinessTarget,
		cols.DomesticFreshTarget, cols.InternationalFreshTarget,
		cols.BusinessAchievement, cols.FreshCustomerAchievement,
	}
	if err := cw.Write(header); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	for i, e := range employees {
		row := []string{
			e.StaffName, e.CompanyName, e.Branch, e.Outstanding,
			e.DomesticBusinessTarget, e.InternationalBusinessTarget,
			e.DomesticFreshTarget, e.InternationalFreshTarget,
			e.BusinessAchievement, e.FreshCustomerAchievement,
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("write row %d: %w", i, err)
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("flush csv: %w", err)
	}
	return nil
}

// saveCSV writes the sheet to cfg.OutputFile and returns the path used.
func saveCSV(ctx context.Context, cfg *Config, employees []model.Employee) (string, error) {
	filename := cfg.OutputFile
	if filename == "" {
		filename = "sample_sheet_" + time.Now().Format("20060102_150405") + ".csv"
	}
	if dir := filepath.Dir(filename); dir != "." {
		if err := os.MkdirAll(dir, directoryPermission); err != nil {
			return "", fmt.Errorf("failed to create directory: %w", err)
		}
	}

	file, err := os.Create(filename)
	if err != nil {
		return "", fmt.Errorf("failed to create file: %w", err)
	}
	defer func() {
		if err := file.Close(); err != nil {
			logger.Get().Error(context.Background(), "failed to close file", logger.Error(err))
		}
	}()

	if err := WriteCSV(file, cfg.Columns, employees); err != nil {
		return "", err
	}
	logger.Get().Info(ctx, "sample sheet saved", logger.String("filename", filename))
	return filename, nil
}
