package responses

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/parquet-go/parquet-go"
	"github.com/xuri/excelize/v2"
)

const sheetName = "Responses"

// Formats accepted by Export
const (
	FormatCSV     = "csv"
	FormatParquet = "parquet"
	FormatXLSX    = "xlsx"
)

// Export writes rows to path in the given format
func Export(path, format string, rows []AnswerRow) error {
	var write func(io.Writer, []AnswerRow) error
	switch format {
	case FormatCSV:
		write = WriteCSV
	case FormatParquet:
		write = WriteParquet
	case FormatXLSX:
		write = WriteXLSX
	default:
		return fmt.Errorf("unsupported format: %s (supported: csv, parquet, xlsx)", format)
	}

	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}
	if err := write(file, rows); err != nil {
		file.Close()
		return err
	}
	if err := file.Close(); err != nil {
		return fmt.Errorf("failed to close output file: %w", err)
	}
	return nil
}

func WriteCSV(w io.Writer, rows []AnswerRow) error {
	writer := csv.NewWriter(w)
	if err := writer.Write(Header); err != nil {
		return err
	}
	for _, r := range rows {
		if err := writer.Write(r.fields()); err != nil {
			return err
		}
	}
	writer.Flush()
	if err := writer.Error(); err != nil {
		return fmt.Errorf("failed to write CSV: %w", err)
	}
	return nil
}

func WriteParquet(w io.Writer, rows []AnswerRow) error {
	writer := parquet.NewGenericWriter[AnswerRow](w)
	if _, err := writer.Write(rows); err != nil {
		return fmt.Errorf("failed to write parquet rows: %w", err)
	}
	if err := writer.Close(); err != nil {
		return fmt.Errorf("failed to close parquet writer: %w", err)
	}
	return nil
}

func WriteXLSX(w io.Writer, rows []AnswerRow) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", sheetName); err != nil {
		return fmt.Errorf("failed to name sheet: %w", err)
	}

	header := make([]interface{}, len(Header))
	for i, h := range Header {
		header[i] = h
	}
	if err := f.SetSheetRow(sheetName, "A1", &header); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}

	for i, r := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		values := []interface{}{
			r.FormNumber, r.ResponseID, r.Respondent, r.SubmittedAt,
			r.QuestionNumber, r.ImageName, r.ImageID, r.Answer, r.AnswerIndex,
		}
		if err := f.SetSheetRow(sheetName, cell, &values); err != nil {
			return fmt.Errorf("failed to write row %d: %w", i+1, err)
		}
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("failed to write workbook: %w", err)
	}
	return nil
}

func (r AnswerRow) fields() []string {
	return []string{
		strconv.Itoa(r.FormNumber),
		r.ResponseID,
		r.Respondent,
		r.SubmittedAt,
		strconv.Itoa(r.QuestionNumber),
		r.ImageName,
		r.ImageID,
		r.Answer,
		strconv.Itoa(r.AnswerIndex),
	}
}
