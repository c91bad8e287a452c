// Package report renders an analyzer.Report into the spec-mandated
// accessibility workbook: Executive Summary, Detailed Analysis,
// Template Projection, Funnel Analysis, Recommendations, Charts and
// Raw Data sheets.
package report

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/xuri/excelize/v2"

	"github.com/a11y-auditor/auditor/internal/analyzer"
	"github.com/a11y-auditor/auditor/internal/model"
)

// Sheet names, in the order spec §6 lists them.
const (
	SheetExecutiveSummary    = "Executive Summary"
	SheetDetailedAnalysis    = "Detailed Analysis"
	SheetTemplateProjection  = "Template Projection"
	SheetFunnelAnalysis      = "Funnel Analysis"
	SheetRecommendations     = "Recommendations"
	SheetCharts              = "Charts"
	SheetRawData             = "Raw Data"
)

// FunnelSummary is one funnel run's outcome, as surfaced on the Funnel
// Analysis sheet.
type FunnelSummary struct {
	FunnelID       string
	TotalSteps     int
	StepsCompleted int
	StepResults    []bool
	Artifacts      []model.FunnelArtifact
}

// WorkbookData is everything one workbook render needs.
type WorkbookData struct {
	Domain    string
	Generated time.Time
	RunID     string
	Report    *analyzer.Report
	Funnels   []FunnelSummary
}

// WorkbookWriter persists a rendered workbook to disk. The
// Orchestrator's analysis stage does not go through this interface:
// it builds an ExcelWorkbookWriter directly with its ChartRenderer.
type WorkbookWriter interface {
	Write(path string, data WorkbookData) error
}

// ChartRenderer draws chart objects onto an already-populated sheet.
// Kept as its own interface (rather than folded into WorkbookWriter)
// so a caller can swap in a no-op renderer in environments where
// chart rendering isn't wanted, without losing the rest of the
// workbook.
type ChartRenderer interface {
	Render(f *excelize.File, sheetName string, data WorkbookData) error
}

// ExcelWorkbookWriter is the default WorkbookWriter, built on
// excelize the way the teacher's exportXLSX builds its single-sheet
// CSV-equivalent export, generalized to the fixed multi-sheet layout
// spec §6 requires.
type ExcelWorkbookWriter struct {
	Charts ChartRenderer
}

// NewExcelWorkbookWriter returns a writer using chart as its
// ChartRenderer. A nil chart renderer skips the Charts sheet's chart
// objects (the sheet itself, with its summary table, is still
// written).
func NewExcelWorkbookWriter(chart ChartRenderer) *ExcelWorkbookWriter {
	return &ExcelWorkbookWriter{Charts: chart}
}

// Write renders data into a .xlsx file at path.
func (w *ExcelWorkbookWriter) Write(path string, data WorkbookData) error {
	if data.RunID == "" {
		data.RunID = uuid.NewString()
	}
	if data.Generated.IsZero() {
		data.Generated = time.Now()
	}

	f := excelize.NewFile()
	defer f.Close()

	styles, err := newStyles(f)
	if err != nil {
		return fmt.Errorf("report: building styles: %w", err)
	}

	writeExecutiveSummary(f, styles, data)
	writeDetailedAnalysis(f, styles, data)
	if data.Report != nil && len(data.Report.TemplateProjections) > 0 {
		writeTemplateProjection(f, styles, data)
	}
	if len(data.Funnels) > 0 {
		writeFunnelAnalysis(f, styles, data)
	}
	writeRecommendations(f, styles, data)
	writeChartsSheet(f, styles, data)
	writeRawData(f, styles, data)

	if w.Charts != nil {
		if err := w.Charts.Render(f, SheetCharts, data); err != nil {
			return fmt.Errorf("report: rendering charts: %w", err)
		}
	}

	f.DeleteSheet("Sheet1")
	f.SetActiveSheet(0)

	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("report: saving workbook to %s: %w", path, err)
	}
	return nil
}

// styles bundles the cell styles shared across sheets, built once per
// workbook the way the teacher's exportXLSX builds headerStyle/
// evenRowStyle once per export.
type styles struct {
	header  int
	evenRow int
	title   int
	good    int
	warn    int
	bad     int
}

func newStyles(f *excelize.File) (*styles, error) {
	header, err := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Color: "FFFFFF"},
		Fill:      excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{"2E5C8A"}},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
		Border:    []excelize.Border{{Type: "bottom", Color: "000000", Style: 1}},
	})
	if err != nil {
		return nil, err
	}
	evenRow, err := f.NewStyle(&excelize.Style{Fill: excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{"F5F5F5"}}})
	if err != nil {
		return nil, err
	}
	title, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true, Size: 16}})
	if err != nil {
		return nil, err
	}
	good, err := f.NewStyle(&excelize.Style{Fill: excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{"C8E6C9"}}})
	if err != nil {
		return nil, err
	}
	warn, err := f.NewStyle(&excelize.Style{Fill: excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{"FFE0B2"}}})
	if err != nil {
		return nil, err
	}
	bad, err := f.NewStyle(&excelize.Style{Fill: excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{"FFCDD2"}}})
	if err != nil {
		return nil, err
	}
	return &styles{header: header, evenRow: evenRow, title: title, good: good, warn: warn, bad: bad}, nil
}

// writeHeaderRow writes a bold header row at row 1 and returns the
// last column letter used.
func writeHeaderRow(f *excelize.File, sheet string, st *styles, cols []string) string {
	for i, col := range cols {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		f.SetCellValue(sheet, cell, col)
		f.SetCellStyle(sheet, cell, cell, st.header)
	}
	last, _ := excelize.ColumnNumberToName(len(cols))
	return last
}

// sanitizeSheetName mirrors the teacher's export.go sanitizeSheetName:
// Excel sheet names forbid a handful of characters and cap at 31
// runes.
func sanitizeSheetName(name string) string {
	result := name
	for _, ch := range []string{"\\", "/", "?", "*", "[", "]", ":"} {
		result = strings.ReplaceAll(result, ch, "_")
	}
	if len(result) > 31 {
		result = result[:31]
	}
	return result
}
