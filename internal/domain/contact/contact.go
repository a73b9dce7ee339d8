// internal/domain/contact/contact.go
package contact

import (
	"strings"

	"rolodex_reminder/internal/domain/calendar"
)

// Contact is one data row of the sheet after header resolution and cell parsing.
// Absent dates are zero values; TouchIntervalQuarters is 0 when absent.
type Contact struct {
	Name                  string
	Email                 string
	PhoneNumber           string
	Company               string
	Title                 string
	Timezone              string
	LastConversationNotes string
	Birthday              calendar.Date
	Anniversary           calendar.Date
	LastInteraction       calendar.Date
	TouchIntervalQuarters int
}

// IsBlank reports a row with no name, email and phone. Such rows are skipped.
func (c Contact) IsBlank() bool {
	return c.Name == "" && c.Email == "" && c.PhoneNumber == ""
}

// Sheet is what a grid source hands to the scan: the raw rows (row 0 is the
// header row) plus the two settings cells.
type Sheet struct {
	Rows        [][]string
	Recipient   string
	TriggerHour string
}

// Headers returns row 0, or nil for an empty sheet.
func (s *Sheet) Headers() []string {
	if s == nil || len(s.Rows) == 0 {
		return nil
	}
	return s.Rows[0]
}

// Len is the total row count including the header row.
func (s *Sheet) Len() int {
	if s == nil {
		return 0
	}
	return len(s.Rows)
}

// Columns holds the positions of every contact field in one header row.
type Columns struct {
	name, email, phone, company, title, timezone, notes   int
	birthday, anniversary, lastInteraction, touchInterval int
}

// NewColumns resolves each contact field against headers once per slice.
func NewColumns(headers []string) Columns {
	idx := func(f Field) int {
		i, _ := ColumnIndex(headers, f)
		return i
	}
	return Columns{
		name:            idx(FieldName),
		email:           idx(FieldEmail),
		phone:           idx(FieldPhoneNumber),
		company:         idx(FieldCompany),
		title:           idx(FieldTitle),
		timezone:        idx(FieldTimezone),
		notes:           idx(FieldLastConversationNotes),
		birthday:        idx(FieldBirthday),
		anniversary:     idx(FieldAnniversary),
		lastInteraction: idx(FieldLastInteraction),
		touchInterval:   idx(FieldTouchIntervalQuarters),
	}
}

// Contact maps a raw row to a Contact. Missing columns and short rows read as absent.
func (c Columns) Contact(row []string) Contact {
	ct := Contact{
		Name:                  Text(row, c.name),
		Email:                 Text(row, c.email),
		PhoneNumber:           Text(row, c.phone),
		Company:               Text(row, c.company),
		Title:                 Text(row, c.title),
		Timezone:              Text(row, c.timezone),
		LastConversationNotes: Text(row, c.notes),
	}
	ct.Birthday, _ = calendar.ParseCell(cell(row, c.birthday))
	ct.Anniversary, _ = calendar.ParseCell(cell(row, c.anniversary))
	ct.LastInteraction, _ = calendar.ParseCell(cell(row, c.lastInteraction))
	ct.TouchIntervalQuarters, _ = calendar.ParsePositiveInt(cell(row, c.touchInterval))
	return ct
}

// Text returns the trimmed text of row[i], or "" when i is out of range.
func Text(row []string, i int) string {
	return strings.TrimSpace(cell(row, i))
}

func cell(row []string, i int) string {
	if i < 0 || i >= len(row) {
		return ""
	}
	return row[i]
}
