package contact

import "context"

// Source reads the whole contact sheet.
type Source interface {
	Read(ctx context.Context) (*Sheet, error)
}

// Initializer prepares a sheet with the header row, formatting and default settings.
type Initializer interface {
	Initialize(ctx context.Context, recipient string, triggerHour int) error
}
