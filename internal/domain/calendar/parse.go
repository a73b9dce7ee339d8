package calendar

import (
	"math"
	"strconv"
	"strings"
	"time"
)

// Spreadsheet serial dates count days from 1899-12-30 (1900 date system).
var serialEpoch = time.Date(1899, time.December, 30, 0, 0, 0, 0, time.UTC)

const maxSerial = 2958465 // 9999-12-31

var cellLayouts = []string{
	"2006-01-02",
	"2006/01/02",
	"1/2/2006",
	time.RFC3339,
	"2006-01-02 15:04:05",
	"Jan 2, 2006",
	"January 2, 2006",
	"2 January 2006",
	"2 Jan 2006",
}

// ParseCell converts a raw cell value into a Date. Empty, non-date and
// out-of-range values report ok=false; it never fails loudly.
func ParseCell(raw string) (Date, bool) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return Date{}, false
	}

	if serial, err := strconv.ParseFloat(s, 64); err == nil {
		if math.IsNaN(serial) || serial < 1 || serial > maxSerial {
			return Date{}, false
		}
		return Of(serialEpoch.AddDate(0, 0, int(serial))), true
	}

	for _, layout := range cellLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return Of(t), true
		}
	}
	return Date{}, false
}

// ParsePositiveInt reads the leading integer of raw ("2 quarters" -> 2, "1.5" -> 1).
// Values without leading digits or not greater than zero report ok=false.
func ParsePositiveInt(raw string) (int, bool) {
	s := strings.TrimSpace(raw)
	s = strings.TrimPrefix(s, "+")

	end := 0
	for end < len(s) && s[end] >= '0' && s[end] <= '9' {
		end++
	}
	if end == 0 {
		return 0, false
	}

	n, err := strconv.Atoi(s[:end])
	if err != nil || n <= 0 {
		return 0, false
	}
	return n, true
}
