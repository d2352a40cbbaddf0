// Package report exports capture sessions as an XLSX workbook for
// attendance audits.
package report

import (
	"fmt"
	"io"
	"sort"
	"time"

	"github.com/teslashibe/go-liveness/pkg/liveness"
	"github.com/teslashibe/go-liveness/pkg/session"
	"github.com/xuri/excelize/v2"
)

// Sheet names.
const (
	SessionsSheet = "Sessions"
	SummarySheet  = "Summary"
)

// ContentType is the MIME type of the generated workbook.
const ContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

const timeLayout = "2006-01-02 15:04:05"

var sessionHeaders = []string{
	"Session ID", "Created", "Ended", "Facing", "Challenge",
	"State", "Outcome", "Error", "Photo Width", "Photo Height", "Photo Bytes",
}

// Build creates the workbook. The caller must Close the returned file.
func Build(sessions []session.Info, generatedAt time.Time) (*excelize.File, error) {
	f := excelize.NewFile()

	if err := f.SetSheetName("Sheet1", SessionsSheet); err != nil {
		f.Close()
		return nil, fmt.Errorf("report: rename sheet: %w", err)
	}
	if err := writeSessions(f, sessions); err != nil {
		f.Close()
		return nil, err
	}
	if _, err := f.NewSheet(SummarySheet); err != nil {
		f.Close()
		return nil, fmt.Errorf("report: add summary sheet: %w", err)
	}
	if err := writeSummary(f, sessions, generatedAt); err != nil {
		f.Close()
		return nil, err
	}
	return f, nil
}

// Write builds the workbook and streams it to w.
func Write(w io.Writer, sessions []session.Info, generatedAt time.Time) error {
	f, err := Build(sessions, generatedAt)
	if err != nil {
		return err
	}
	defer func() { _ = f.Close() }()

	if err := f.Write(w); err != nil {
		return fmt.Errorf("report: write workbook: %w", err)
	}
	return nil
}

func writeSessions(f *excelize.File, sessions []session.Info) error {
	header, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{"#E0E7FF"}},
	})
	if err != nil {
		return fmt.Errorf("report: header style: %w", err)
	}

	for i, h := range sessionHeaders {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		if err := f.SetCellValue(SessionsSheet, cell, h); err != nil {
			return fmt.Errorf("report: header %s: %w", h, err)
		}
	}
	last, _ := excelize.CoordinatesToCellName(len(sessionHeaders), 1)
	if err := f.SetCellStyle(SessionsSheet, "A1", last, header); err != nil {
		return fmt.Errorf("report: header style: %w", err)
	}

	for i, s := range sessions {
		row := []any{
			s.ID,
			s.CreatedAt.Format(timeLayout),
			"",
			string(s.Facing),
			string(s.Snapshot.Challenge.Kind),
			string(s.Snapshot.State),
			string(s.Snapshot.Outcome),
			s.Snapshot.Error,
		}
		if s.EndedAt != nil {
			row[2] = s.EndedAt.Format(timeLayout)
		}
		if s.Photo != nil {
			row = append(row, s.Photo.Width, s.Photo.Height, s.Photo.Bytes)
		}

		cell, _ := excelize.CoordinatesToCellName(1, i+2)
		if err := f.SetSheetRow(SessionsSheet, cell, &row); err != nil {
			return fmt.Errorf("report: row %d: %w", i+2, err)
		}
	}

	if err := f.SetColWidth(SessionsSheet, "A", "A", 38); err != nil {
		return err
	}
	if err := f.SetColWidth(SessionsSheet, "B", "C", 20); err != nil {
		return err
	}
	if err := f.SetColWidth(SessionsSheet, "H", "H", 40); err != nil {
		return err
	}

	return f.SetPanes(SessionsSheet, &excelize.Panes{
		Freeze:      true,
		YSplit:      1,
		TopLeftCell: "A2",
		ActivePane:  "bottomLeft",
	})
}

// Tally counts sessions per outcome.
func Tally(sessions []session.Info) map[liveness.Outcome]int {
	out := make(map[liveness.Outcome]int)
	for _, s := range sessions {
		out[s.Snapshot.Outcome]++
	}
	return out
}

func writeSummary(f *excelize.File, sessions []session.Info, generatedAt time.Time) error {
	rows := [][]any{
		{"Generated", generatedAt.Format(timeLayout)},
		{"Total sessions", len(sessions)},
		{},
		{"Outcome", "Count"},
	}

	tally := Tally(sessions)
	outcomes := make([]string, 0, len(tally))
	for o := range tally {
		outcomes = append(outcomes, string(o))
	}
	sort.Strings(outcomes)
	for _, o := range outcomes {
		rows = append(rows, []any{o, tally[liveness.Outcome(o)]})
	}

	for i, row := range rows {
		if len(row) == 0 {
			continue
		}
		cell, _ := excelize.CoordinatesToCellName(1, i+1)
		if err := f.SetSheetRow(SummarySheet, cell, &row); err != nil {
			return fmt.Errorf("report: summary row %d: %w", i+1, err)
		}
	}
	return f.SetColWidth(SummarySheet, "A", "A", 18)
}
