// internal/domain/contact/schema.go
package contact

// Field is the exact header text of a column in the contact sheet.
type Field string

const (
	FieldName                  Field = "Name"
	FieldEmail                 Field = "Email"
	FieldPhoneNumber           Field = "Phone Number"
	FieldLinkedIn              Field = "LinkedIn"
	FieldCompany               Field = "Company"
	FieldTitle                 Field = "Title"
	FieldIndustry              Field = "Industry"
	FieldCountry               Field = "Country of Residence"
	FieldCity                  Field = "City"
	FieldTimezone              Field = "Timezone"
	FieldReligion              Field = "Religion"
	FieldBirthday              Field = "Birthday"
	FieldHolidays              Field = "Holidays"
	FieldLastInteraction       Field = "Last Interaction"
	FieldLastMeeting           Field = "Last Meeting"
	FieldTouchIntervalQuarters Field = "Touch Interval (Quater)" // spelling matches existing sheets
	FieldLastConversationNotes Field = "Last Conversation Notes"
	FieldAnniversary           Field = "Anniversary"
	FieldRecipientEmail        Field = "Recipient Email"
	FieldTriggerHour           Field = "Trigger hour (0–23)"
)

// layout is the full header row written when a sheet is initialized.
// The empty entry is a spacer column between contact data and the settings columns.
var layout = []Field{
	FieldName,
	FieldEmail,
	FieldPhoneNumber,
	FieldLinkedIn,
	FieldCompany,
	FieldTitle,
	FieldIndustry,
	FieldCountry,
	FieldCity,
	FieldTimezone,
	FieldReligion,
	FieldBirthday,
	FieldHolidays,
	FieldLastInteraction,
	FieldLastMeeting,
	FieldTouchIntervalQuarters,
	FieldLastConversationNotes,
	FieldAnniversary,
	"",
	FieldRecipientEmail,
	FieldTriggerHour,
}

// Headers returns a copy of the ordered header row.
func Headers() []string {
	out := make([]string, len(layout))
	for i, f := range layout {
		out[i] = string(f)
	}
	return out
}

// HeaderPosition returns the zero-based position of field in the initialized layout.
func HeaderPosition(field Field) (int, bool) {
	return ColumnIndex(Headers(), field)
}

// ColumnIndex finds field in a live header row. Matching is exact and case-sensitive;
// a missing header reports ok=false.
func ColumnIndex(headers []string, field Field) (int, bool) {
	if field == "" {
		return -1, false
	}
	for i, h := range headers {
		if h == string(field) {
			return i, true
		}
	}
	return -1, false
}
