package reports

import "github.com/sharath018/event-gift-backend/internal/apperr"

const (
	DateRangeDaily   = "daily"
	DateRangeWeekly  = "weekly"
	DateRangeMonthly = "monthly"
	DateRangeYearly  = "yearly"
	DateRangeCustom  = "custom"

	FormatCSV   = "csv"
	FormatExcel = "excel"
	FormatPDF   = "pdf"

	contentTypeExcel = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	contentTypeCSV   = "text/csv"
	contentTypePDF   = "application/pdf"
)

var ErrUnsupportedFormat = apperr.New(apperr.ErrValidation, "unsupported_format", "Format must be one of excel, csv, pdf")

// GuestRow is one line of the guest report. Timestamps are preformatted in the
// report timezone.
type GuestRow struct {
	ID            uint
	Name          string
	Mobile        string
	EventName     string
	GiftName      string
	CustomMessage string
	Code          string
	Status        string
	RegisteredBy  string
	VerifiedBy    string
	CreatedAt     string
	VerifiedAt    string
}

var guestHeaders = []string{
	"ID", "Name", "Mobile", "Event", "Gift", "Message", "Code", "Status",
	"Registered By", "Verified By", "Registered At", "Verified At",
}

func (r GuestRow) values() []string {
	return []string{
		uintString(r.ID), r.Name, r.Mobile, r.EventName, r.GiftName, r.CustomMessage, r.Code, r.Status,
		r.RegisteredBy, r.VerifiedBy, r.CreatedAt, r.VerifiedAt,
	}
}
