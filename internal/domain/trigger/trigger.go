// internal/domain/trigger/trigger.go
package trigger

import (
	"time"
)

// Handler names the callback a trigger invokes. Triggers are always looked up
// by handler rather than by stored handles.
type Handler string

const (
	HandlerDailyKickoff Handler = "sendReminders"     // starts a scan at row 1
	HandlerContinuation Handler = "continueReminders" // resumes a scan from the cursor
)

// Kind distinguishes recurring from one-shot triggers.
type Kind string

const (
	KindDaily Kind = "DAILY"
	KindOnce  Kind = "ONCE"
)

// Trigger is an installed schedule.
type Trigger struct {
	ID        string
	Handler   Handler
	Kind      Kind
	FireAt    time.Time // KindOnce only
	Hour      int       // KindDaily only, 0-23
	Timezone  string    // KindDaily only, IANA name
	CreatedAt time.Time
}
