package domain

import (
	"math"
	"strings"
	"time"
)

// excelEpoch is day zero of the 1900 date system as counted from 1899-12-30.
// Starting two days before 1900-01-01 absorbs the phantom 1900-02-29 that
// the 1900 system inherited from Lotus 1-2-3, so serials from 61 onwards
// land on the same calendar date the spreadsheet displays. Serial 60 (the
// phantom day) maps to 1900-02-28, and serials 1-59 land one day earlier
// than the spreadsheet shows.
var excelEpoch = time.Date(1899, time.December, 30, 0, 0, 0, 0, time.UTC)

// maxExcelSerial is 9999-12-31, the last date the 1900 system can express.
const maxExcelSerial = 2958465

// isoLayouts are the accepted textual date forms, date part first.
var isoLayouts = []string{
	"2006-01-02",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	time.RFC3339,
}

// ExcelSerialToDate converts an Excel serial day number to a calendar date.
// Fractional days (time of day) are truncated. Negative, non-finite and
// out-of-range serials fail.
func ExcelSerialToDate(serial float64) (time.Time, bool) {
	if math.IsNaN(serial) || math.IsInf(serial, 0) || serial < 0 || serial > maxExcelSerial {
		return time.Time{}, false
	}
	return excelEpoch.AddDate(0, 0, int(math.Floor(serial))), true
}

// ParseISODate parses a YYYY-MM-DD date, optionally followed by a time part.
func ParseISODate(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	for _, layout := range isoLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC), true
		}
	}
	return time.Time{}, false
}
