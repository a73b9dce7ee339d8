package sheet

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"rolodex_reminder/internal/domain/calendar"
	"rolodex_reminder/internal/domain/contact"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func TestSettingsCells(t *testing.T) {
	t.Parallel()
	recipient, hour, err := settingsCells()
	require.NoError(t, err)
	assert.Equal(t, "T2", recipient)
	assert.Equal(t, "U2", hour)
}

func TestInitializeThenRead(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "contacts.xlsx")
	wb := NewWorkbook(path, "Contacts")

	require.NoError(t, wb.Initialize(ctx, "owner@example.com", 9))

	s, err := wb.Read(ctx)
	require.NoError(t, err)
	require.GreaterOrEqual(t, s.Len(), 2)
	assert.Equal(t, contact.Headers()[:18], s.Headers()[:18])
	assert.Equal(t, "owner@example.com", s.Recipient)
	assert.Equal(t, "9", s.TriggerHour)

	f, err := excelize.OpenFile(path)
	require.NoError(t, err)
	defer f.Close()
	panes, err := f.GetPanes("Contacts")
	require.NoError(t, err)
	assert.True(t, panes.Freeze)
	assert.Equal(t, 1, panes.YSplit)
	width, err := f.GetColWidth("Contacts", "Q")
	require.NoError(t, err)
	assert.Equal(t, notesWidth, width)
}

func TestReadParsesDateCells(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "contacts.xlsx")
	wb := NewWorkbook(path, "")
	require.NoError(t, wb.Initialize(ctx, "owner@example.com", 7))

	f, err := excelize.OpenFile(path)
	require.NoError(t, err)
	sheet := f.GetSheetName(f.GetActiveSheetIndex())
	require.NoError(t, f.SetCellValue(sheet, "A3", "Ada Lovelace"))
	require.NoError(t, f.SetCellValue(sheet, "L3", time.Date(1990, time.June, 14, 0, 0, 0, 0, time.UTC)))
	require.NoError(t, f.SetCellValue(sheet, "N3", "2025-01-31"))
	require.NoError(t, f.SetCellValue(sheet, "P3", 1))
	require.NoError(t, f.Save())
	require.NoError(t, f.Close())

	s, err := wb.Read(ctx)
	require.NoError(t, err)
	require.Equal(t, 3, s.Len())

	c := contact.NewColumns(s.Headers()).Contact(s.Rows[2])
	assert.Equal(t, "Ada Lovelace", c.Name)
	assert.Equal(t, calendar.New(1990, time.June, 14), c.Birthday)
	assert.Equal(t, calendar.New(2025, time.January, 31), c.LastInteraction)
	assert.Equal(t, 1, c.TouchIntervalQuarters)
}

func TestReadMissingWorkbook(t *testing.T) {
	t.Parallel()
	_, err := NewWorkbook(filepath.Join(t.TempDir(), "missing.xlsx"), "").Read(context.Background())
	require.Error(t, err)
}

func TestReadUnknownSheet(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "contacts.xlsx")
	require.NoError(t, NewWorkbook(path, "Contacts").Initialize(ctx, "owner@example.com", 9))

	_, err := NewWorkbook(path, "Other").Read(ctx)
	require.Error(t, err)
}
