// internal/app/scan_service.go
package app

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"rolodex_reminder/internal/domain/calendar"
	"rolodex_reminder/internal/domain/contact"
	"rolodex_reminder/internal/domain/mail"
	"rolodex_reminder/internal/domain/reminder"
	"rolodex_reminder/internal/infra/metrics"

	"github.com/sirupsen/logrus"
)

// DefaultSliceSize keeps one slice well inside a single invocation's time budget.
const DefaultSliceSize = 900

// ScanConfig holds the tunables of a scan.
type ScanConfig struct {
	SliceSize  int
	Location   *time.Location // "today" is taken in this timezone
	OwnerEmail string         // recipient when the sheet's recipient cell is blank
}

// SliceResult describes what one slice did.
type SliceResult struct {
	Start      int
	End        int
	TotalRows  int // including the header row
	Matched    int // contacts matched in this slice
	Completed  bool
	DigestSent bool
	Recipient  string // set when the scan completed
}

// ScanService runs the batched reminder scan: one call evaluates one slice of the
// sheet, accumulates its rows and either schedules the next slice or sends the digest.
type ScanService struct {
	source   contact.Source
	cursor   *Cursor
	triggers *TriggerService
	mailer   mail.Sender
	metrics  *metrics.Metrics
	logger   *logrus.Entry
	cfg      ScanConfig
	now      func() time.Time
}

func NewScanService(
	source contact.Source,
	cursor *Cursor,
	triggers *TriggerService,
	mailer mail.Sender,
	m *metrics.Metrics,
	logger *logrus.Entry,
	cfg ScanConfig,
) *ScanService {
	if cfg.SliceSize <= 0 {
		cfg.SliceSize = DefaultSliceSize
	}
	if cfg.Location == nil {
		cfg.Location = time.UTC
	}
	return &ScanService{
		source:   source,
		cursor:   cursor,
		triggers: triggers,
		mailer:   mailer,
		metrics:  m,
		logger:   logger,
		cfg:      cfg,
		now:      time.Now,
	}
}

// Start begins a fresh scan at the first data row. It is the daily kickoff handler.
func (s *ScanService) Start(ctx context.Context) error {
	_, err := s.RunSlice(ctx, 1)
	return err
}

// Continue resumes the scan from the persisted cursor. It is the continuation
// handler; without a cursor it starts from the first data row.
func (s *ScanService) Continue(ctx context.Context) error {
	offset, ok, err := s.cursor.Offset(ctx)
	if err != nil {
		return err
	}
	if !ok {
		s.logger.Warn("No scan cursor found; starting from the first row")
		offset = 1
	}
	_, err = s.RunSlice(ctx, offset)
	return err
}

// RunSlice evaluates rows [start, start+SliceSize) against today. Offsets below 1
// are treated as 1.
func (s *ScanService) RunSlice(ctx context.Context, start int) (*SliceResult, error) {
	if start < 1 {
		start = 1
	}
	today := calendar.Today(s.now(), s.cfg.Location)

	sheet, err := s.source.Read(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to read contact sheet: %w", err)
	}
	total := sheet.Len()
	end := min(start+s.cfg.SliceSize, total)
	result := &SliceResult{Start: start, End: end, TotalRows: total}

	logger := s.logger.WithFields(logrus.Fields{
		"start": start,
		"end":   end,
		"total": total,
		"today": today.String(),
	})

	var fragments []string
	if start == 1 {
		// A new scan never inherits rows or continuations from one that was abandoned.
		if err := s.cursor.Reset(ctx); err != nil {
			return nil, err
		}
		if cancelled, err := s.triggers.CancelContinuations(ctx); err != nil {
			return nil, err
		} else if cancelled > 0 {
			logger.WithField("cancelled", cancelled).Warn("Dropped continuation triggers of an unfinished scan")
		}
		fragments = append(fragments, reminder.HeaderFragment())
	}

	cols := contact.NewColumns(sheet.Headers())
	for i := start; i < end; i++ {
		c := cols.Contact(sheet.Rows[i])
		if c.IsBlank() {
			continue
		}
		kinds := reminder.Evaluate(c, today)
		if len(kinds) == 0 {
			continue
		}
		fragments = append(fragments, reminder.RenderRow(c, kinds))
		result.Matched++
		for _, k := range kinds {
			s.metrics.ReminderMatched(string(k))
		}
	}
	s.metrics.SliceProcessed(max(end-start, 0))

	if err := s.cursor.Append(ctx, fragments); err != nil {
		return nil, err
	}

	if end < total {
		if err := s.cursor.Advance(ctx, end); err != nil {
			return nil, err
		}
		if _, err := s.triggers.ScheduleContinuation(ctx); err != nil {
			return nil, err
		}
		s.metrics.ContinuationScheduled()
		logger.WithField("matched", result.Matched).Info("Slice processed; continuation scheduled")
		return result, nil
	}

	result.Completed = true
	result.Recipient = s.resolveRecipient(sheet)
	if err := s.finalize(ctx, result, logger); err != nil {
		return result, err
	}
	return result, nil
}

// finalize sends the digest when anything matched, then returns the cursor to idle
// and drops continuation triggers. A delivery failure returns before cleanup.
func (s *ScanService) finalize(ctx context.Context, result *SliceResult, logger *logrus.Entry) error {
	rows, err := s.cursor.Rows(ctx)
	if err != nil {
		return err
	}

	matched := 0
	if reminder.HasMatches(rows) {
		matched = len(rows) - 1
		msg := mail.Message{
			To:       result.Recipient,
			Subject:  reminder.Subject,
			HTMLBody: reminder.ComposeDigest(rows),
		}
		if err := s.mailer.Send(ctx, msg); err != nil {
			logger.WithError(err).Error("Failed to send reminder digest")
			return fmt.Errorf("failed to send reminder digest: %w", err)
		}
		result.DigestSent = true
		logger.WithFields(logrus.Fields{
			"recipient": result.Recipient,
			"contacts":  matched,
		}).Info("Reminder digest sent")
	} else {
		logger.Info("Scan complete; no reminders today")
	}
	s.metrics.ScanCompleted(matched, result.DigestSent)

	var errs []error
	if err := s.cursor.Clear(ctx); err != nil {
		errs = append(errs, err)
	}
	if _, err := s.triggers.CancelContinuations(ctx); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

func (s *ScanService) resolveRecipient(sheet *contact.Sheet) string {
	if r := strings.TrimSpace(sheet.Recipient); r != "" {
		return r
	}
	return s.cfg.OwnerEmail
}
