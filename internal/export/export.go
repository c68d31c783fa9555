// Package export renders the roster, attendance, and assessment records as an
// Excel workbook for download.
package export

import (
	"context"
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"github.com/K-ALOHA/voxregister/internal/store"
)

// sheet names in the generated workbook.
const (
	sheetStudents   = "Students"
	sheetAttendance = "Attendance"
	sheetIA1        = "IA1 Marks"
	sheetIA2        = "IA2 Marks"
)

// Report selects which sections the generated workbook contains.
type Report string

const (
	// ReportComplete includes the roster, attendance, and both assessments.
	ReportComplete Report = "complete"
	// ReportAttendance includes the roster and attendance sheets only.
	ReportAttendance Report = "attendance"
	// ReportMarks includes the roster and both assessment sheets only.
	ReportMarks Report = "marks"
)

// ParseReport maps a request parameter to a [Report]; empty means complete.
func ParseReport(s string) (Report, error) {
	switch Report(s) {
	case "", ReportComplete:
		return ReportComplete, nil
	case ReportAttendance:
		return ReportAttendance, nil
	case ReportMarks:
		return ReportMarks, nil
	}
	return "", fmt.Errorf("export: unknown report type %q", s)
}

// Write builds the report workbook from st and writes the .xlsx bytes to w.
func Write(ctx context.Context, st store.Store, w io.Writer, report Report) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := writeStudents(ctx, f, st); err != nil {
		return err
	}
	if report == ReportComplete || report == ReportAttendance {
		if err := writeAttendance(ctx, f, st); err != nil {
			return err
		}
	}
	if report == ReportComplete || report == ReportMarks {
		if err := writeMarks(ctx, f, st, sheetIA1, store.IA1); err != nil {
			return err
		}
		if err := writeMarks(ctx, f, st, sheetIA2, store.IA2); err != nil {
			return err
		}
	}

	// The default sheet excelize creates is replaced by Students.
	if err := f.DeleteSheet("Sheet1"); err != nil {
		return fmt.Errorf("export: delete default sheet: %w", err)
	}

	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("export: write workbook: %w", err)
	}
	return nil
}

func writeStudents(ctx context.Context, f *excelize.File, st store.Store) error {
	students, err := st.ListStudents(ctx)
	if err != nil {
		return fmt.Errorf("export: students: %w", err)
	}

	if _, err := f.NewSheet(sheetStudents); err != nil {
		return fmt.Errorf("export: new sheet %s: %w", sheetStudents, err)
	}
	if err := setRow(f, sheetStudents, 1, "USN", "Name"); err != nil {
		return err
	}
	for i, s := range students {
		if err := setRow(f, sheetStudents, i+2, s.USN, s.Name); err != nil {
			return err
		}
	}
	return nil
}

func writeAttendance(ctx context.Context, f *excelize.File, st store.Store) error {
	records, err := st.ListAttendance(ctx)
	if err != nil {
		return fmt.Errorf("export: attendance: %w", err)
	}

	if _, err := f.NewSheet(sheetAttendance); err != nil {
		return fmt.Errorf("export: new sheet %s: %w", sheetAttendance, err)
	}
	if err := setRow(f, sheetAttendance, 1, "Date", "USN", "Name", "Status"); err != nil {
		return err
	}
	for i, r := range records {
		if err := setRow(f, sheetAttendance, i+2, r.Date, r.USN, r.Name, string(r.Status)); err != nil {
			return err
		}
	}
	return nil
}

func writeMarks(ctx context.Context, f *excelize.File, st store.Store, sheet string, ia store.IAType) error {
	records, err := st.MarksByIA(ctx, ia)
	if err != nil {
		return fmt.Errorf("export: %s: %w", ia, err)
	}

	if _, err := f.NewSheet(sheet); err != nil {
		return fmt.Errorf("export: new sheet %s: %w", sheet, err)
	}
	header := []any{"USN", "Name"}
	for q := 1; q <= 8; q++ {
		header = append(header, fmt.Sprintf("Q%d", q))
	}
	header = append(header, "Total")
	if err := setRow(f, sheet, 1, header...); err != nil {
		return err
	}

	for i, r := range records {
		row := []any{r.USN, r.Name}
		for q := 1; q <= 8; q++ {
			if score, ok := r.Questions[q]; ok {
				row = append(row, score)
			} else {
				row = append(row, "")
			}
		}
		row = append(row, r.Total)
		if err := setRow(f, sheet, i+2, row...); err != nil {
			return err
		}
	}
	return nil
}

// setRow writes values into one row starting at column A.
func setRow(f *excelize.File, sheet string, row int, values ...any) error {
	cell, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		return fmt.Errorf("export: cell name: %w", err)
	}
	if err := f.SetSheetRow(sheet, cell, &values); err != nil {
		return fmt.Errorf("export: set row %d on %s: %w", row, sheet, err)
	}
	return nil
}
