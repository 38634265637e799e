package reports

import (
	"bytes"
	"encoding/csv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

var sampleRows = []GuestRow{
	{ID: 1, Name: "Asha", Mobile: "9876543210", EventName: "Sharma Wedding", GiftName: "Silver Coin", Code: "123456", Status: "Claimed", VerifiedBy: "Ravi", CreatedAt: "2026-12-05 10:00:00", VerifiedAt: "2026-12-05 11:30:00"},
	{ID: 2, Name: "Bhavna, Jr.", Mobile: "9123456780", EventName: "Sharma Wedding", GiftName: "Sweet Box", Code: "654321", Status: "Not Claimed", CreatedAt: "2026-12-05 10:05:00"},
}

func fixedExporter() *exporter {
	return &exporter{now: func() time.Time { return time.Date(2026, 12, 6, 8, 0, 0, 0, time.UTC) }}
}

func TestExportExcelIsReadable(t *testing.T) {
	data, name, ctype, err := fixedExporter().Export(FormatExcel, sampleRows)
	require.NoError(t, err)
	assert.Equal(t, "guests_report_20261206_080000.xlsx", name)
	assert.Equal(t, contentTypeExcel, ctype)

	f, err := excelize.OpenReader(bytes.NewReader(data))
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows("Guests")
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, guestHeaders, rows[0])
	assert.Equal(t, "Asha", rows[1][1])
	assert.Equal(t, "Claimed", rows[1][7])
	assert.Equal(t, "2", rows[2][0])
}

func TestExportCSV(t *testing.T) {
	data, name, ctype, err := fixedExporter().Export(FormatCSV, sampleRows)
	require.NoError(t, err)
	assert.Equal(t, "guests_report_20261206_080000.csv", name)
	assert.Equal(t, "text/csv", ctype)

	records, err := csv.NewReader(bytes.NewReader(data)).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 3)
	assert.Equal(t, "Bhavna, Jr.", records[2][1])
	assert.Equal(t, "Not Claimed", records[2][7])
}

func TestExportPDF(t *testing.T) {
	data, _, ctype, err := fixedExporter().Export(FormatPDF, sampleRows)
	require.NoError(t, err)
	assert.Equal(t, "application/pdf", ctype)
	assert.True(t, bytes.HasPrefix(data, []byte("%PDF-")))
}

func TestExportRejectsUnknownFormat(t *testing.T) {
	_, _, _, err := NewExporter().Export("docx", sampleRows)
	assert.ErrorIs(t, err, ErrUnsupportedFormat)
}
