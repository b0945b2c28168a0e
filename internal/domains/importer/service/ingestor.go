package service

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"deliveryops-backend/internal/domains/importer/model"

	"github.com/rs/zerolog/log"
	"github.com/shakinm/xlsReader/xls"
	"github.com/xuri/excelize/v2"
)

// MaxImportFileSize is the upload size limit (5 MB).
const MaxImportFileSize = 5 << 20

// ParseImportFile decodes an uploaded spreadsheet into a header row plus a
// raw string matrix. Only the first sheet of a workbook is read.
func ParseImportFile(filename string, r io.Reader, size int64) (*model.RawSheet, error) {
	ext := strings.ToLower(filepath.Ext(filename))

	switch ext {
	case ".csv", ".xls", ".xlsx":
	default:
		return nil, &model.FileFormatError{Filename: filename, Err: model.ErrUnsupportedFormat}
	}

	if size > MaxImportFileSize {
		return nil, &model.FileFormatError{Filename: filename, Err: model.ErrFileTooLarge}
	}

	// Some multipart readers report size -1; cap the read either way.
	data, err := io.ReadAll(io.LimitReader(r, MaxImportFileSize+1))
	if err != nil {
		return nil, &model.ParseError{Filename: filename, Err: err}
	}
	if int64(len(data)) > MaxImportFileSize {
		return nil, &model.FileFormatError{Filename: filename, Err: model.ErrFileTooLarge}
	}

	var records [][]string
	switch ext {
	case ".csv":
		records, err = readCSV(data)
	case ".xls":
		records, err = readLegacyWorkbook(data)
	default:
		records, err = readWorkbook(data)
	}
	if err != nil {
		return nil, &model.ParseError{Filename: filename, Err: err}
	}

	// Header-only files count as empty.
	if len(records) < 2 {
		return nil, &model.ParseError{Filename: filename, Err: model.ErrEmptySheet}
	}

	sheet := &model.RawSheet{
		Headers: records[0],
		Rows:    records[1:],
	}

	log.Info().
		Str("file_name", filename).
		Int("columns", len(sheet.Headers)).
		Int("rows", len(sheet.Rows)).
		Msg("Import file parsed")

	return sheet, nil
}

func readCSV(data []byte) ([][]string, error) {
	// Strip a UTF-8 BOM; Excel prepends one when exporting CSV.
	data = bytes.TrimPrefix(data, []byte{0xEF, 0xBB, 0xBF})

	reader := csv.NewReader(bytes.NewReader(data))
	reader.TrimLeadingSpace = true
	reader.FieldsPerRecord = -1 // ragged rows are tolerated, padded later

	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to read CSV: %w", err)
	}
	return records, nil
}

func readWorkbook(data []byte) ([][]string, error) {
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to open workbook: %w", err)
	}
	defer f.Close()

	sheetName := f.GetSheetName(0)
	if sheetName == "" {
		return nil, fmt.Errorf("workbook has no sheets")
	}

	rows, err := f.GetRows(sheetName)
	if err != nil {
		return nil, fmt.Errorf("failed to read sheet %q: %w", sheetName, err)
	}
	return rows, nil
}

// readLegacyWorkbook reads BIFF .xls files, which excelize does not open.
func readLegacyWorkbook(data []byte) ([][]string, error) {
	workbook, err := xls.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to open workbook: %w", err)
	}

	sheet, err := workbook.GetSheet(0)
	if err != nil {
		return nil, fmt.Errorf("workbook has no sheets: %w", err)
	}

	records := make([][]string, 0, sheet.GetNumberRows())
	for i := 0; i < sheet.GetNumberRows(); i++ {
		row, err := sheet.GetRow(i)
		if err != nil {
			return nil, fmt.Errorf("failed to read sheet row %d: %w", i, err)
		}
		cells := row.GetCols()
		record := make([]string, len(cells))
		for j, cell := range cells {
			record[j] = cell.GetString()
		}
		records = append(records, record)
	}
	return records, nil
}
