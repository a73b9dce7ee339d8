package contact

import (
	"testing"
	"time"

	"rolodex_reminder/internal/domain/calendar"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestColumnIndexExactMatch(t *testing.T) {
	t.Parallel()
	headers := []string{"Email", "Name", "phone number", "Phone Number"}

	i, ok := ColumnIndex(headers, FieldName)
	require.True(t, ok)
	assert.Equal(t, 1, i)

	i, ok = ColumnIndex(headers, FieldPhoneNumber)
	require.True(t, ok)
	assert.Equal(t, 3, i, "lookup is case-sensitive")

	_, ok = ColumnIndex(headers, FieldBirthday)
	assert.False(t, ok)

	_, ok = ColumnIndex([]string{"", "Name"}, "")
	assert.False(t, ok, "the spacer column is never a field")
}

func TestHeadersLayout(t *testing.T) {
	t.Parallel()
	headers := Headers()
	require.Len(t, headers, 21)
	assert.Equal(t, "Name", headers[0])
	assert.Equal(t, "Recipient Email", headers[19])

	pos, ok := HeaderPosition(FieldLastConversationNotes)
	require.True(t, ok)
	assert.Equal(t, 16, pos)

	headers[0] = "changed"
	assert.Equal(t, "Name", Headers()[0], "Headers must return a copy")
}

func TestColumnsContactReorderedHeaders(t *testing.T) {
	t.Parallel()
	headers := []string{"Birthday", "Touch Interval (Quater)", "Name", "Last Interaction", "Email", "Title", "Company"}
	row := []string{"1990-06-14", "2", "  Ada Lovelace ", "45688", "ada@example.com", "", "Analytical"}

	ct := NewColumns(headers).Contact(row)

	assert.Equal(t, "Ada Lovelace", ct.Name)
	assert.Equal(t, "ada@example.com", ct.Email)
	assert.Equal(t, "Analytical", ct.Company)
	assert.Empty(t, ct.Title)
	assert.Empty(t, ct.PhoneNumber, "missing header reads as absent")
	assert.Equal(t, calendar.New(1990, time.June, 14), ct.Birthday)
	assert.Equal(t, calendar.New(2025, time.January, 31), ct.LastInteraction)
	assert.True(t, ct.Anniversary.IsZero())
	assert.Equal(t, 2, ct.TouchIntervalQuarters)
	assert.False(t, ct.IsBlank())
}

func TestColumnsContactShortAndMalformedRow(t *testing.T) {
	t.Parallel()
	cols := NewColumns(Headers())

	ct := cols.Contact([]string{"", "", ""})
	assert.True(t, ct.IsBlank())

	row := make([]string, 18)
	row[0] = "Bob"
	row[11] = "not a date"
	row[15] = "often"
	ct = cols.Contact(row)
	assert.Equal(t, "Bob", ct.Name)
	assert.True(t, ct.Birthday.IsZero())
	assert.Zero(t, ct.TouchIntervalQuarters)
}

func TestSheetAccessors(t *testing.T) {
	t.Parallel()
	var nilSheet *Sheet
	assert.Zero(t, nilSheet.Len())
	assert.Nil(t, nilSheet.Headers())

	s := &Sheet{Rows: [][]string{{"Name"}, {"Ada"}}}
	assert.Equal(t, 2, s.Len())
	assert.Equal(t, []string{"Name"}, s.Headers())
}
