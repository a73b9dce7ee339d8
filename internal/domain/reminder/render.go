package reminder

import (
	"strings"

	"rolodex_reminder/internal/domain/contact"
)

// Subject is the fixed subject line of the digest email.
const Subject = "Rolodex Reminder Notification"

var htmlEscaper = strings.NewReplacer(
	"&", "&amp;",
	"<", "&lt;",
	">", "&gt;",
	`"`, "&quot;",
	"'", "&#039;",
)

// EscapeHTML trims s and escapes it for embedding in the digest markup.
func EscapeHTML(s string) string {
	return htmlEscaper.Replace(strings.TrimSpace(s))
}

// HeaderFragment is the table header row. It is emitted once per scan, by the first slice.
func HeaderFragment() string {
	return "<tr style='background:#f2f2f2;'>" +
		"<th>Name</th>" +
		"<th>Trigger Type</th>" +
		"<th>Email / Phone</th>" +
		"<th>Time Zone</th>" +
		"<th>Company &amp; Title</th>" +
		"<th>Last Conversation Notes</th>" +
		"</tr>"
}

// RenderRow renders one digest row for c. kinds must not be empty.
func RenderRow(c contact.Contact, kinds []Kind) string {
	labels := make([]string, len(kinds))
	for i, k := range kinds {
		labels[i] = string(k)
	}

	var b strings.Builder
	b.WriteString("<tr>")
	b.WriteString("<td>" + EscapeHTML(c.Name) + "</td>")
	b.WriteString("<td>" + strings.Join(labels, ", ") + "</td>")

	b.WriteString("<td>" + EscapeHTML(c.Email))
	if phone := EscapeHTML(c.PhoneNumber); phone != "" {
		b.WriteString("<br>" + phone)
	}
	b.WriteString("</td>")

	b.WriteString("<td>" + EscapeHTML(c.Timezone) + "</td>")

	b.WriteString("<td>" + EscapeHTML(c.Company))
	if title := EscapeHTML(c.Title); title != "" {
		b.WriteString(" — " + title)
	}
	b.WriteString("</td>")

	b.WriteString("<td>" + EscapeHTML(c.LastConversationNotes) + "</td>")
	b.WriteString("</tr>")
	return b.String()
}

// HasMatches reports whether accumulated fragments hold anything beyond the header row.
func HasMatches(fragments []string) bool {
	return len(fragments) > 1
}

// ComposeDigest wraps all fragments into one HTML document with a single table.
func ComposeDigest(fragments []string) string {
	return "<html><body>" +
		"<table border='1' cellpadding='5' cellspacing='0' " +
		"style='border-collapse:collapse;width:100%;'>" +
		strings.Join(fragments, "") +
		"</table></body></html>"
}
