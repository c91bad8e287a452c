package report

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/a11y-auditor/auditor/internal/analyzer"
	"github.com/a11y-auditor/auditor/internal/model"
)

func sampleReport() *analyzer.Report {
	vs := model.ViolationSet{Violations: []model.Violation{
		{PageURL: "https://e.test/", ViolationID: "image-alt", Impact: model.ImpactCritical},
		{PageURL: "https://e.test/about", ViolationID: "color-contrast", Impact: model.ImpactSerious},
	}}
	return analyzer.Analyze(vs, analyzer.Options{Domain: "e.test"})
}

func TestWrite_ProducesAllMandatorySheetsExceptOptionalOnes(t *testing.T) {
	data := WorkbookData{Domain: "e.test", Generated: time.Unix(0, 0), RunID: "run-1", Report: sampleReport()}
	path := filepath.Join(t.TempDir(), "report.xlsx")

	w := NewExcelWorkbookWriter(DefaultChartRenderer{})
	require.NoError(t, w.Write(path, data))

	f, err := excelize.OpenFile(path)
	require.NoError(t, err)
	defer f.Close()

	sheets := f.GetSheetList()
	for _, want := range []string{SheetExecutiveSummary, SheetDetailedAnalysis, SheetRecommendations, SheetCharts, SheetRawData} {
		assert.Contains(t, sheets, want)
	}
	assert.NotContains(t, sheets, SheetTemplateProjection)
	assert.NotContains(t, sheets, SheetFunnelAnalysis)
	assert.NotContains(t, sheets, "Sheet1")
}

func TestWrite_IncludesFunnelAnalysisWhenFunnelsPresent(t *testing.T) {
	data := WorkbookData{
		Domain: "e.test",
		Report: sampleReport(),
		Funnels: []FunnelSummary{
			{FunnelID: "checkout", TotalSteps: 4, StepsCompleted: 2, StepResults: []bool{true, true, false}},
		},
	}
	path := filepath.Join(t.TempDir(), "report.xlsx")

	w := NewExcelWorkbookWriter(nil)
	require.NoError(t, w.Write(path, data))

	f, err := excelize.OpenFile(path)
	require.NoError(t, err)
	defer f.Close()

	assert.Contains(t, f.GetSheetList(), SheetFunnelAnalysis)
	v, _ := f.GetCellValue(SheetFunnelAnalysis, "A2")
	assert.Equal(t, "checkout", v)
	v, _ = f.GetCellValue(SheetFunnelAnalysis, "C2")
	assert.Equal(t, "2", v)
}

func TestWrite_ExecutiveSummaryCarriesScoreAndImpactTable(t *testing.T) {
	data := WorkbookData{Domain: "e.test", Report: sampleReport()}
	path := filepath.Join(t.TempDir(), "report.xlsx")

	require.NoError(t, NewExcelWorkbookWriter(nil).Write(path, data))

	f, err := excelize.OpenFile(path)
	require.NoError(t, err)
	defer f.Close()

	level, _ := f.GetCellValue(SheetExecutiveSummary, "B6")
	assert.NotEmpty(t, level)
}

func TestWrite_RawDataListsOneRowPerViolation(t *testing.T) {
	data := WorkbookData{Domain: "e.test", Report: sampleReport()}
	path := filepath.Join(t.TempDir(), "report.xlsx")

	require.NoError(t, NewExcelWorkbookWriter(nil).Write(path, data))

	f, err := excelize.OpenFile(path)
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows(SheetRawData)
	require.NoError(t, err)
	assert.Len(t, rows, len(data.Report.Rows)+1) // header + data
}

func TestSanitizeSheetName_ReplacesInvalidCharsAndTruncates(t *testing.T) {
	got := sanitizeSheetName("a/b?c*d[e]f:g-this-is-a-very-long-sheet-name-indeed")
	assert.LessOrEqual(t, len(got), 31)
	assert.NotContains(t, got, "/")
	assert.NotContains(t, got, "*")
}
