package app

import (
	"context"
	"fmt"

	"rolodex_reminder/internal/domain/contact"
	"rolodex_reminder/internal/domain/trigger"

	"github.com/sirupsen/logrus"
)

// ErrOperatorNotAuthorized is returned to chat users other than the configured admin.
var ErrOperatorNotAuthorized = fmt.Errorf("performing user is not authorized as the operator")

// OperatorConfig holds what the operator commands need beyond the services.
type OperatorConfig struct {
	OwnerEmail      string
	Timezone        string
	AdminTelegramID int64
}

// Status is a snapshot of the reminder machinery.
type Status struct {
	Triggers     []*trigger.Trigger
	ScanActive   bool
	NextOffset   int
	AccumRows    int
	DailyHour    int  // hour of the installed daily kickoff
	DailyPresent bool // false when no kickoff is installed
}

// OperatorService backs the menu actions: run now, install the daily trigger,
// remove all triggers, set up the sheet and report status. The CLI and the chat
// bot both call into it.
type OperatorService struct {
	scan        *ScanService
	triggers    *TriggerService
	cursor      *Cursor
	source      contact.Source
	initializer contact.Initializer
	cfg         OperatorConfig
	logger      *logrus.Entry
}

func NewOperatorService(
	scan *ScanService,
	triggers *TriggerService,
	cursor *Cursor,
	source contact.Source,
	initializer contact.Initializer,
	cfg OperatorConfig,
	logger *logrus.Entry,
) *OperatorService {
	return &OperatorService{
		scan:        scan,
		triggers:    triggers,
		cursor:      cursor,
		source:      source,
		initializer: initializer,
		cfg:         cfg,
		logger:      logger,
	}
}

// Authorize checks that a chat user may run operator commands.
func (s *OperatorService) Authorize(telegramID int64) error {
	if s.cfg.AdminTelegramID == 0 || telegramID != s.cfg.AdminTelegramID {
		return ErrOperatorNotAuthorized
	}
	return nil
}

// RunNow starts a fresh scan immediately. Later slices still run through
// continuation triggers.
func (s *OperatorService) RunNow(ctx context.Context) (*SliceResult, error) {
	s.logger.Info("Manual reminder run requested")
	return s.scan.RunSlice(ctx, 1)
}

// QueueRun asks the running scheduler to start a scan. Unlike RunNow it never
// overlaps a slice that is already running.
func (s *OperatorService) QueueRun(ctx context.Context) (*trigger.Trigger, error) {
	s.logger.Info("Reminder run queued")
	return s.triggers.QueueKickoff(ctx)
}

// InstallDailyFromSheet installs the daily kickoff. The hour comes from override
// when given, otherwise from the sheet's trigger-hour cell.
func (s *OperatorService) InstallDailyFromSheet(ctx context.Context, override *int) (*trigger.Trigger, error) {
	var hour int
	if override != nil {
		hour = NormalizeHour(*override)
	} else {
		sheet, err := s.source.Read(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to read trigger hour: %w", err)
		}
		hour = ParseTriggerHour(sheet.TriggerHour)
	}
	return s.triggers.InstallDailyTrigger(ctx, hour, s.cfg.Timezone)
}

func (s *OperatorService) RemoveAllTriggers(ctx context.Context) (int, error) {
	return s.triggers.RemoveAllTriggers(ctx)
}

// SetupSheet writes the header layout and the default settings: the owner as
// recipient and DefaultTriggerHour.
func (s *OperatorService) SetupSheet(ctx context.Context) error {
	if err := s.initializer.Initialize(ctx, s.cfg.OwnerEmail, DefaultTriggerHour); err != nil {
		return fmt.Errorf("failed to set up sheet: %w", err)
	}
	s.logger.WithField("recipient", s.cfg.OwnerEmail).Info("Sheet initialized")
	return nil
}

func (s *OperatorService) Status(ctx context.Context) (*Status, error) {
	triggers, err := s.triggers.ListTriggers(ctx)
	if err != nil {
		return nil, err
	}
	offset, active, err := s.cursor.Offset(ctx)
	if err != nil {
		return nil, err
	}
	rows, err := s.cursor.Rows(ctx)
	if err != nil {
		return nil, err
	}

	st := &Status{
		Triggers:   triggers,
		ScanActive: active,
		NextOffset: offset,
		AccumRows:  len(rows),
	}
	for _, t := range triggers {
		if t.Handler == trigger.HandlerDailyKickoff && t.Kind == trigger.KindDaily {
			st.DailyHour = t.Hour
			st.DailyPresent = true
		}
	}
	return st, nil
}
