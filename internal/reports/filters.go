package reports

import (
	"time"

	"github.com/sharath018/event-gift-backend/internal/apperr"
)

// Range bounds a report query. A nil end means unbounded.
type Range struct {
	From *time.Time
	To   *time.Time
}

func (r Range) Empty() bool {
	return r.From == nil && r.To == nil
}

// GetDateRange resolves a preset relative to now (in now's location) or a
// custom "2006-01-02" pair. Custom bounds are each optional and the end day is
// included in full. An empty preset with no dates yields an empty Range.
func GetDateRange(preset, startStr, endStr string, now time.Time) (Range, error) {
	loc := now.Location()
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, loc)
	span := func(start, endExclusive time.Time) Range {
		end := endExclusive.Add(-time.Nanosecond)
		return Range{From: &start, To: &end}
	}

	switch preset {
	case DateRangeDaily:
		return span(today, today.AddDate(0, 0, 1)), nil
	case DateRangeWeekly:
		return span(today.AddDate(0, 0, -6), today.AddDate(0, 0, 1)), nil
	case DateRangeMonthly:
		first := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, loc)
		return span(first, first.AddDate(0, 1, 0)), nil
	case DateRangeYearly:
		first := time.Date(now.Year(), 1, 1, 0, 0, 0, 0, loc)
		return span(first, first.AddDate(1, 0, 0)), nil
	case DateRangeCustom, "":
	default:
		return Range{}, apperr.Invalid("dateRange", "must be one of daily, weekly, monthly, yearly, custom")
	}

	var r Range
	if startStr != "" {
		start, err := time.ParseInLocation("2006-01-02", startStr, loc)
		if err != nil {
			return Range{}, apperr.Invalid("startDate", "must be YYYY-MM-DD")
		}
		r.From = &start
	}
	if endStr != "" {
		end, err := time.ParseInLocation("2006-01-02", endStr, loc)
		if err != nil {
			return Range{}, apperr.Invalid("endDate", "must be YYYY-MM-DD")
		}
		end = end.AddDate(0, 0, 1).Add(-time.Nanosecond)
		r.To = &end
	}
	if r.From != nil && r.To != nil && r.From.After(*r.To) {
		return Range{}, apperr.Invalid("startDate", "must not be after endDate")
	}
	return r, nil
}
