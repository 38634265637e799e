package reports

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"strconv"
	"time"

	"github.com/jung-kurt/gofpdf"
	"github.com/xuri/excelize/v2"
)

// Exporter renders guest rows as a downloadable file. It returns the file
// bytes, a file name and the content type.
type Exporter interface {
	Export(format string, rows []GuestRow) ([]byte, string, string, error)
}

type exporter struct {
	now func() time.Time
}

func NewExporter() Exporter {
	return &exporter{now: time.Now}
}

func uintString(v uint) string {
	return strconv.FormatUint(uint64(v), 10)
}

func (e *exporter) Export(format string, rows []GuestRow) ([]byte, string, string, error) {
	name := "guests_report_" + e.now().Format("20060102_150405")

	switch format {
	case FormatExcel:
		data, err := exportGuestsExcel(rows)
		if err != nil {
			return nil, "", "", err
		}
		return data, name + ".xlsx", contentTypeExcel, nil

	case FormatCSV:
		data, err := exportGuestsCSV(rows)
		if err != nil {
			return nil, "", "", err
		}
		return data, name + ".csv", contentTypeCSV, nil

	case FormatPDF:
		data, err := exportGuestsPDF(rows)
		if err != nil {
			return nil, "", "", err
		}
		return data, name + ".pdf", contentTypePDF, nil

	default:
		return nil, "", "", ErrUnsupportedFormat
	}
}

func exportGuestsCSV(rows []GuestRow) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)

	if err := w.Write(guestHeaders); err != nil {
		return nil, err
	}
	for _, r := range rows {
		if err := w.Write(r.values()); err != nil {
			return nil, err
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func exportGuestsExcel(rows []GuestRow) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	sheet := "Guests"
	if err := f.SetSheetName("Sheet1", sheet); err != nil {
		return nil, err
	}

	for i, h := range guestHeaders {
		cell, err := excelize.CoordinatesToCellName(i+1, 1)
		if err != nil {
			return nil, err
		}
		if err := f.SetCellValue(sheet, cell, h); err != nil {
			return nil, err
		}
	}

	for rIdx, r := range rows {
		for cIdx, v := range r.values() {
			cell, err := excelize.CoordinatesToCellName(cIdx+1, rIdx+2)
			if err != nil {
				return nil, err
			}
			var value interface{} = v
			if cIdx == 0 {
				value = r.ID
			}
			if err := f.SetCellValue(sheet, cell, value); err != nil {
				return nil, err
			}
		}
	}

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func exportGuestsPDF(rows []GuestRow) ([]byte, error) {
	pdf := gofpdf.New("L", "mm", "A4", "")
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	pdf.AddPage()
	pdf.SetFont("Arial", "B", 14)
	pdf.Cell(0, 10, "Guests Report")
	pdf.Ln(12)

	widths := []float64{10, 30, 24, 32, 28, 30, 14, 20, 24, 24, 28, 28}
	pdf.SetFont("Arial", "B", 8)
	for i, h := range guestHeaders {
		pdf.CellFormat(widths[i], 7, h, "1", 0, "C", false, 0, "")
	}
	pdf.Ln(-1)

	pdf.SetFont("Arial", "", 7)
	for _, r := range rows {
		for i, v := range r.values() {
			pdf.CellFormat(widths[i], 6, tr(v), "1", 0, "L", false, 0, "")
		}
		pdf.Ln(-1)
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("render pdf: %w", err)
	}
	return buf.Bytes(), nil
}
