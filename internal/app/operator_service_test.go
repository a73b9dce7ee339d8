package app

import (
	"context"
	"testing"

	"rolodex_reminder/internal/domain/contact"
	"rolodex_reminder/internal/domain/trigger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestOperator(t *testing.T, sheet *contact.Sheet) (*OperatorService, *harness, *fakeInitializer) {
	t.Helper()
	h := newHarness(t, sheet, DefaultSliceSize)
	initr := &fakeInitializer{}
	op := NewOperatorService(h.scan, h.triggers, h.cursor, h.source, initr, OperatorConfig{
		OwnerEmail:      "owner@example.com",
		Timezone:        "America/New_York",
		AdminTelegramID: 42,
	}, discardLogger())
	return op, h, initr
}

func TestOperatorAuthorize(t *testing.T) {
	op, _, _ := newTestOperator(t, newSheet("", ""))
	assert.NoError(t, op.Authorize(42))
	assert.ErrorIs(t, op.Authorize(7), ErrOperatorNotAuthorized)
}

func TestInstallDailyFromSheet(t *testing.T) {
	tests := []struct {
		name     string
		cell     string
		override *int
		want     int
	}{
		{name: "sheet hour", cell: "14", want: 14},
		{name: "garbage falls back", cell: "soon", want: DefaultTriggerHour},
		{name: "out of range falls back", cell: "25", want: DefaultTriggerHour},
		{name: "override wins", cell: "14", override: intPtr(6), want: 6},
		{name: "invalid override falls back", cell: "14", override: intPtr(-2), want: DefaultTriggerHour},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			op, h, _ := newTestOperator(t, newSheet("", tt.cell))

			installed, err := op.InstallDailyFromSheet(context.Background(), tt.override)
			require.NoError(t, err)
			assert.Equal(t, tt.want, installed.Hour)
			assert.Equal(t, "America/New_York", installed.Timezone)
			assert.Len(t, h.scheduler.byHandler(trigger.HandlerDailyKickoff), 1)
		})
	}
}

func TestOperatorSetupSheet(t *testing.T) {
	op, _, initr := newTestOperator(t, newSheet("", ""))

	require.NoError(t, op.SetupSheet(context.Background()))
	assert.Equal(t, 1, initr.calls)
	assert.Equal(t, "owner@example.com", initr.recipient)
	assert.Equal(t, DefaultTriggerHour, initr.hour)
}

func TestOperatorStatus(t *testing.T) {
	sheet := newSheet("boss@example.com", "9", sampleContacts()...)
	op, h, _ := newTestOperator(t, sheet)
	h.scan.cfg.SliceSize = 3
	ctx := context.Background()

	st, err := op.Status(ctx)
	require.NoError(t, err)
	assert.False(t, st.ScanActive)
	assert.False(t, st.DailyPresent)
	assert.Empty(t, st.Triggers)

	_, err = op.InstallDailyFromSheet(ctx, intPtr(8))
	require.NoError(t, err)
	res, err := op.RunNow(ctx)
	require.NoError(t, err)
	require.False(t, res.Completed)

	st, err = op.Status(ctx)
	require.NoError(t, err)
	assert.True(t, st.ScanActive)
	assert.Equal(t, 4, st.NextOffset)
	assert.Equal(t, 3, st.AccumRows)
	assert.True(t, st.DailyPresent)
	assert.Equal(t, 8, st.DailyHour)
	assert.Len(t, st.Triggers, 2)

	removed, err := op.RemoveAllTriggers(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, removed)
}

func TestOperatorQueueRun(t *testing.T) {
	op, h, _ := newTestOperator(t, newSheet("", ""))

	queued, err := op.QueueRun(context.Background())
	require.NoError(t, err)
	assert.Equal(t, trigger.HandlerDailyKickoff, queued.Handler)
	assert.Equal(t, trigger.KindOnce, queued.Kind)
	assert.Zero(t, h.scheduler.delays[0])
	assert.Empty(t, h.mailer.sent, "nothing runs until the scheduler fires")
}

func intPtr(v int) *int { return &v }
