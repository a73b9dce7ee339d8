// internal/infra/sheet/workbook.go
package sheet

import (
	"context"
	"errors"
	"fmt"
	"os"

	"rolodex_reminder/internal/domain/contact"

	"github.com/xuri/excelize/v2"
)

const (
	headerFill      = "1155CC" // navy
	headerFontColor = "FFFFFF"
	columnWidth     = 21.0 // ~150px
	notesWidth      = 42.0 // ~300px
	settingsRow     = 2
)

// Workbook reads and initializes the contact sheet of an .xlsx file.
// An empty sheet name means the workbook's active sheet.
type Workbook struct {
	path      string
	sheetName string
}

func NewWorkbook(path, sheetName string) *Workbook {
	return &Workbook{path: path, sheetName: sheetName}
}

// Read returns every row with raw cell values (dates stay spreadsheet serial
// numbers) plus the recipient and trigger-hour settings cells.
func (w *Workbook) Read(ctx context.Context) (*contact.Sheet, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	f, err := excelize.OpenFile(w.path)
	if err != nil {
		return nil, fmt.Errorf("failed to open workbook %s: %w", w.path, err)
	}
	defer f.Close()

	name, err := w.resolveSheet(f)
	if err != nil {
		return nil, err
	}

	rows, err := f.GetRows(name, excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, fmt.Errorf("failed to read rows of sheet %s: %w", name, err)
	}

	recipientCell, hourCell, err := settingsCells()
	if err != nil {
		return nil, err
	}
	recipient, err := f.GetCellValue(name, recipientCell)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", recipientCell, err)
	}
	hour, err := f.GetCellValue(name, hourCell)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", hourCell, err)
	}

	return &contact.Sheet{Rows: rows, Recipient: recipient, TriggerHour: hour}, nil
}

// Initialize writes the header row with its formatting, freezes it, sizes the
// columns and fills the settings cells. A missing workbook file is created.
func (w *Workbook) Initialize(ctx context.Context, recipient string, triggerHour int) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	f, name, err := w.openOrCreate()
	if err != nil {
		return err
	}
	defer f.Close()

	headers := contact.Headers()
	if err := f.SetSheetRow(name, "A1", &headers); err != nil {
		return fmt.Errorf("failed to write headers: %w", err)
	}

	lastCol, err := excelize.ColumnNumberToName(len(headers))
	if err != nil {
		return err
	}
	style, err := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Color: headerFontColor},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{headerFill}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
	})
	if err != nil {
		return fmt.Errorf("failed to create header style: %w", err)
	}
	if err := f.SetCellStyle(name, "A1", lastCol+"1", style); err != nil {
		return fmt.Errorf("failed to style headers: %w", err)
	}

	if err := f.SetPanes(name, &excelize.Panes{
		Freeze:      true,
		YSplit:      1,
		TopLeftCell: "A2",
		ActivePane:  "bottomLeft",
	}); err != nil {
		return fmt.Errorf("failed to freeze header row: %w", err)
	}

	if err := f.SetColWidth(name, "A", lastCol, columnWidth); err != nil {
		return fmt.Errorf("failed to set column widths: %w", err)
	}
	if pos, ok := contact.HeaderPosition(contact.FieldLastConversationNotes); ok {
		notesCol, err := excelize.ColumnNumberToName(pos + 1)
		if err != nil {
			return err
		}
		if err := f.SetColWidth(name, notesCol, notesCol, notesWidth); err != nil {
			return fmt.Errorf("failed to widen notes column: %w", err)
		}
	}

	recipientCell, hourCell, err := settingsCells()
	if err != nil {
		return err
	}
	if err := f.SetCellValue(name, recipientCell, recipient); err != nil {
		return fmt.Errorf("failed to write %s: %w", recipientCell, err)
	}
	if err := f.SetCellValue(name, hourCell, triggerHour); err != nil {
		return fmt.Errorf("failed to write %s: %w", hourCell, err)
	}

	if err := f.SaveAs(w.path); err != nil {
		return fmt.Errorf("failed to save workbook %s: %w", w.path, err)
	}
	return nil
}

func (w *Workbook) openOrCreate() (*excelize.File, string, error) {
	f, err := excelize.OpenFile(w.path)
	if errors.Is(err, os.ErrNotExist) {
		f = excelize.NewFile()
		if w.sheetName != "" {
			if err := f.SetSheetName(f.GetSheetName(0), w.sheetName); err != nil {
				f.Close()
				return nil, "", fmt.Errorf("failed to name sheet %s: %w", w.sheetName, err)
			}
		}
	} else if err != nil {
		return nil, "", fmt.Errorf("failed to open workbook %s: %w", w.path, err)
	}

	name, err := w.resolveSheet(f)
	if err != nil {
		f.Close()
		return nil, "", err
	}
	return f, name, nil
}

func (w *Workbook) resolveSheet(f *excelize.File) (string, error) {
	if w.sheetName == "" {
		return f.GetSheetName(f.GetActiveSheetIndex()), nil
	}
	idx, err := f.GetSheetIndex(w.sheetName)
	if err != nil {
		return "", fmt.Errorf("invalid sheet name %s: %w", w.sheetName, err)
	}
	if idx < 0 {
		return "", fmt.Errorf("sheet %s not found in %s", w.sheetName, w.path)
	}
	return w.sheetName, nil
}

// settingsCells locates the recipient and trigger-hour cells: the first data row
// under their headers in the initialized layout (T2 and U2).
func settingsCells() (recipient, hour string, err error) {
	cellFor := func(field contact.Field) (string, error) {
		pos, ok := contact.HeaderPosition(field)
		if !ok {
			return "", fmt.Errorf("no column for %s", field)
		}
		return excelize.CoordinatesToCellName(pos+1, settingsRow)
	}
	if recipient, err = cellFor(contact.FieldRecipientEmail); err != nil {
		return "", "", err
	}
	if hour, err = cellFor(contact.FieldTriggerHour); err != nil {
		return "", "", err
	}
	return recipient, hour, nil
}
