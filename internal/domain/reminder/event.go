// Package reminder decides which reminders fire for a contact on a given day
// and renders them into the HTML digest.
package reminder

import (
	"rolodex_reminder/internal/domain/calendar"
	"rolodex_reminder/internal/domain/contact"
)

// Kind identifies why a contact shows up in the digest.
type Kind string

const (
	KindBirthday      Kind = "Birthday"
	KindAnniversary   Kind = "Anniversary"
	KindTouchInterval Kind = "Touch Interval"
)

// MonthsPerQuarter converts the sheet's touch interval into calendar months.
const MonthsPerQuarter = 3

// Evaluate returns the reminder kinds that fire for c on today, in rendering order.
// Rules are independent; a contact may match several at once.
func Evaluate(c contact.Contact, today calendar.Date) []Kind {
	var kinds []Kind
	if calendar.SameMonthDay(today, c.Birthday) {
		kinds = append(kinds, KindBirthday)
	}
	if calendar.SameMonthDay(today, c.Anniversary) {
		kinds = append(kinds, KindAnniversary)
	}
	if next, ok := NextTouch(c); ok && next.Equal(today) {
		kinds = append(kinds, KindTouchInterval)
	}
	return kinds
}

// NextTouch is LastInteraction plus the touch interval, when both are present.
func NextTouch(c contact.Contact) (calendar.Date, bool) {
	if c.LastInteraction.IsZero() || c.TouchIntervalQuarters <= 0 {
		return calendar.Date{}, false
	}
	return calendar.AddMonths(c.LastInteraction, c.TouchIntervalQuarters*MonthsPerQuarter), true
}
