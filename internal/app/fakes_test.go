package app

import (
	"context"
	"fmt"
	"io"
	"sync"
	"testing"
	"time"

	"rolodex_reminder/internal/domain/contact"
	"rolodex_reminder/internal/domain/mail"
	"rolodex_reminder/internal/domain/property"
	"rolodex_reminder/internal/domain/trigger"
	"rolodex_reminder/internal/infra/cache"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"
)

type memProps struct {
	mu     sync.Mutex
	values map[string]string
	sets   []string // every value written, in order
}

func newMemProps() *memProps {
	return &memProps{values: make(map[string]string)}
}

func (p *memProps) Get(_ context.Context, key string) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	v, ok := p.values[key]
	if !ok {
		return "", property.ErrNotFound
	}
	return v, nil
}

func (p *memProps) Set(_ context.Context, key, value string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.values[key] = value
	p.sets = append(p.sets, value)
	return nil
}

func (p *memProps) Delete(_ context.Context, key string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	delete(p.values, key)
	return nil
}

type fakeScheduler struct {
	mu       sync.Mutex
	seq      int
	triggers []*trigger.Trigger
	delays   []time.Duration
}

func (s *fakeScheduler) ScheduleAfter(_ context.Context, handler trigger.Handler, delay time.Duration) (*trigger.Trigger, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.seq++
	t := &trigger.Trigger{ID: fmt.Sprintf("t%d", s.seq), Handler: handler, Kind: trigger.KindOnce}
	s.triggers = append(s.triggers, t)
	s.delays = append(s.delays, delay)
	return t, nil
}

func (s *fakeScheduler) ScheduleDaily(_ context.Context, handler trigger.Handler, hour int, timezone string) (*trigger.Trigger, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.seq++
	t := &trigger.Trigger{ID: fmt.Sprintf("t%d", s.seq), Handler: handler, Kind: trigger.KindDaily, Hour: hour, Timezone: timezone}
	s.triggers = append(s.triggers, t)
	return t, nil
}

func (s *fakeScheduler) List(_ context.Context) ([]*trigger.Trigger, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]*trigger.Trigger(nil), s.triggers...), nil
}

func (s *fakeScheduler) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, t := range s.triggers {
		if t.ID == id {
			s.triggers = append(s.triggers[:i], s.triggers[i+1:]...)
			return nil
		}
	}
	return nil
}

func (s *fakeScheduler) byHandler(h trigger.Handler) []*trigger.Trigger {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*trigger.Trigger
	for _, t := range s.triggers {
		if t.Handler == h {
			out = append(out, t)
		}
	}
	return out
}

// fire consumes the oldest pending continuation the way the real scheduler does.
func (s *fakeScheduler) fire() bool {
	pending := s.byHandler(trigger.HandlerContinuation)
	if len(pending) == 0 {
		return false
	}
	_ = s.Delete(context.Background(), pending[0].ID)
	return true
}

type fakeMailer struct {
	mu   sync.Mutex
	sent []mail.Message
	err  error
}

func (m *fakeMailer) Send(_ context.Context, msg mail.Message) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.sent = append(m.sent, msg)
	return nil
}

type staticSource struct {
	sheet *contact.Sheet
	err   error
}

func (s *staticSource) Read(_ context.Context) (*contact.Sheet, error) {
	return s.sheet, s.err
}

type fakeInitializer struct {
	recipient string
	hour      int
	calls     int
}

func (f *fakeInitializer) Initialize(_ context.Context, recipient string, triggerHour int) error {
	f.recipient = recipient
	f.hour = triggerHour
	f.calls++
	return nil
}

// row builds a data row in the standard column layout.
func row(cells map[contact.Field]string) []string {
	out := make([]string, len(contact.Headers()))
	for f, v := range cells {
		if pos, ok := contact.HeaderPosition(f); ok {
			out[pos] = v
		}
	}
	return out
}

func newSheet(recipient, hour string, rows ...[]string) *contact.Sheet {
	return &contact.Sheet{
		Rows:        append([][]string{contact.Headers()}, rows...),
		Recipient:   recipient,
		TriggerHour: hour,
	}
}

func discardLogger() *logrus.Entry {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return logrus.NewEntry(l)
}

type harness struct {
	mini      *miniredis.Miniredis
	props     *memProps
	scheduler *fakeScheduler
	mailer    *fakeMailer
	source    *staticSource
	cursor    *Cursor
	triggers  *TriggerService
	scan      *ScanService
}

var testToday = time.Date(2026, 10, 18, 10, 0, 0, 0, time.UTC)

func newHarness(t *testing.T, sheet *contact.Sheet, sliceSize int) *harness {
	t.Helper()
	mini := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mini.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	h := &harness{
		mini:      mini,
		props:     newMemProps(),
		scheduler: &fakeScheduler{},
		mailer:    &fakeMailer{},
		source:    &staticSource{sheet: sheet},
	}
	h.cursor = NewCursor(h.props, cache.NewRedisAccumulator(client, "test:"), time.Hour)
	h.triggers = NewTriggerService(h.scheduler, 2*time.Minute, discardLogger())
	h.scan = NewScanService(h.source, h.cursor, h.triggers, h.mailer, nil, discardLogger(), ScanConfig{
		SliceSize:  sliceSize,
		Location:   time.UTC,
		OwnerEmail: "owner@example.com",
	})
	h.scan.now = func() time.Time { return testToday }
	return h
}

// drain starts a scan and fires continuations until none is pending.
func (h *harness) drain(t *testing.T) (continuations int) {
	t.Helper()
	ctx := context.Background()
	require.NoError(t, h.scan.Start(ctx))
	for h.scheduler.fire() {
		continuations++
		require.NoError(t, h.scan.Continue(ctx))
	}
	return continuations
}
