package report

import (
	"fmt"

	"github.com/xuri/excelize/v2"
)

func writeExecutiveSummary(f *excelize.File, st *styles, data WorkbookData) {
	sheet := SheetExecutiveSummary
	f.NewSheet(sheet)
	f.SetActiveSheet(0)

	f.SetCellValue(sheet, "A1", "Accessibility Audit — "+data.Domain)
	f.SetCellStyle(sheet, "A1", "A1", st.title)
	f.SetCellValue(sheet, "A2", "Generated")
	f.SetCellValue(sheet, "B2", data.Generated.Format("2006-01-02 15:04:05 MST"))
	f.SetCellValue(sheet, "A3", "Run ID")
	f.SetCellValue(sheet, "B3", data.RunID)

	row := 5
	if data.Report != nil {
		score := data.Report.Score
		f.SetCellValue(sheet, fmt.Sprintf("A%d", row), "Conformance Score")
		f.SetCellValue(sheet, fmt.Sprintf("B%d", row), score.Score)
		row++
		f.SetCellValue(sheet, fmt.Sprintf("A%d", row), "Conformance Level")
		f.SetCellValue(sheet, fmt.Sprintf("B%d", row), score.Level)
		row++
		f.SetCellValue(sheet, fmt.Sprintf("A%d", row), "Pages Analyzed")
		f.SetCellValue(sheet, fmt.Sprintf("B%d", row), score.UniquePages)
		row++
		f.SetCellValue(sheet, fmt.Sprintf("A%d", row), "Total Findings")
		f.SetCellValue(sheet, fmt.Sprintf("B%d", row), len(data.Report.Rows))
		row += 2

		cols := []string{"Impact", "Count", "% of Findings", "Avg per Page"}
		for i, col := range cols {
			cell := cellRef(i+1, row)
			f.SetCellValue(sheet, cell, col)
			f.SetCellStyle(sheet, cell, cell, st.header)
		}
		row++
		for _, s := range data.Report.ByImpact {
			f.SetCellValue(sheet, fmt.Sprintf("A%d", row), string(s.Impact))
			f.SetCellValue(sheet, fmt.Sprintf("B%d", row), s.Count)
			f.SetCellValue(sheet, fmt.Sprintf("C%d", row), s.Percentage)
			f.SetCellValue(sheet, fmt.Sprintf("D%d", row), s.PerPageAvg)
			row++
		}
	}

	f.SetColWidth(sheet, "A", "A", 24)
	f.SetColWidth(sheet, "B", "D", 16)
}

func writeDetailedAnalysis(f *excelize.File, st *styles, data WorkbookData) {
	sheet := SheetDetailedAnalysis
	f.NewSheet(sheet)
	if data.Report == nil {
		return
	}

	row := 1
	row = writeSection(f, sheet, st, row, "By Page",
		[]string{"Page URL", "Critical", "Serious", "Moderate", "Minor", "Total", "Priority Score"},
		len(data.Report.ByPage),
		func(i, r int) {
			p := data.Report.ByPage[i]
			f.SetCellValue(sheet, cellRef(1, r), string(p.PageURL))
			f.SetCellValue(sheet, cellRef(2, r), p.Counts["critical"])
			f.SetCellValue(sheet, cellRef(3, r), p.Counts["serious"])
			f.SetCellValue(sheet, cellRef(4, r), p.Counts["moderate"])
			f.SetCellValue(sheet, cellRef(5, r), p.Counts["minor"])
			f.SetCellValue(sheet, cellRef(6, r), p.Total)
			f.SetCellValue(sheet, cellRef(7, r), p.PriorityScore)
		})

	row++
	row = writeSection(f, sheet, st, row, "By Violation",
		[]string{"Violation ID", "Occurrences", "Affected Pages", "Most Common Impact", "Priority Score"},
		len(data.Report.ByViolation),
		func(i, r int) {
			v := data.Report.ByViolation[i]
			f.SetCellValue(sheet, cellRef(1, r), v.ViolationID)
			f.SetCellValue(sheet, cellRef(2, r), v.Occurrences)
			f.SetCellValue(sheet, cellRef(3, r), v.AffectedPages)
			f.SetCellValue(sheet, cellRef(4, r), string(v.MostCommonImpact))
			f.SetCellValue(sheet, cellRef(5, r), v.PriorityScore)
		})

	row++
	writeSection(f, sheet, st, row, "By Page Type",
		[]string{"Page Type", "Pages", "Total Findings", "Priority Score", "Top WCAG Principle"},
		len(data.Report.ByPageType),
		func(i, r int) {
			g := data.Report.ByPageType[i]
			f.SetCellValue(sheet, cellRef(1, r), g.Key)
			f.SetCellValue(sheet, cellRef(2, r), g.Pages)
			f.SetCellValue(sheet, cellRef(3, r), g.Total)
			f.SetCellValue(sheet, cellRef(4, r), g.PriorityScore)
			f.SetCellValue(sheet, cellRef(5, r), string(g.TopPrinciple))
		})

	for _, col := range []string{"A", "B", "C", "D", "E", "F", "G"} {
		f.SetColWidth(sheet, col, col, 22)
	}
}

func writeTemplateProjection(f *excelize.File, st *styles, data WorkbookData) {
	sheet := SheetTemplateProjection
	f.NewSheet(sheet)

	cols := []string{"Template ID", "Representative URL", "Occurrence Count", "Projected Critical",
		"Projected Serious", "Projected Moderate", "Projected Minor", "Priority Score", "Criticality"}
	writeHeaderRow(f, sheet, st, cols)

	for i, p := range data.Report.TemplateProjections {
		r := i + 2
		f.SetCellValue(sheet, cellRef(1, r), string(p.TemplateID))
		f.SetCellValue(sheet, cellRef(2, r), string(p.RepresentativeURL))
		f.SetCellValue(sheet, cellRef(3, r), p.OccurrenceCount)
		f.SetCellValue(sheet, cellRef(4, r), p.ProjectedCounts["critical"])
		f.SetCellValue(sheet, cellRef(5, r), p.ProjectedCounts["serious"])
		f.SetCellValue(sheet, cellRef(6, r), p.ProjectedCounts["moderate"])
		f.SetCellValue(sheet, cellRef(7, r), p.ProjectedCounts["minor"])
		f.SetCellValue(sheet, cellRef(8, r), p.PriorityScore)
		f.SetCellValue(sheet, cellRef(9, r), string(p.Criticality))

		style := st.good
		switch p.Criticality {
		case "High":
			style = st.bad
		case "Medium":
			style = st.warn
		}
		cell := cellRef(9, r)
		f.SetCellStyle(sheet, cell, cell, style)
	}
	for _, col := range []string{"A", "B", "C", "D", "E", "F", "G", "H", "I"} {
		f.SetColWidth(sheet, col, col, 20)
	}
}

func writeFunnelAnalysis(f *excelize.File, st *styles, data WorkbookData) {
	sheet := SheetFunnelAnalysis
	f.NewSheet(sheet)

	cols := []string{"Funnel ID", "Total Steps", "Steps Completed", "Step Results"}
	writeHeaderRow(f, sheet, st, cols)

	for i, fn := range data.Funnels {
		r := i + 2
		f.SetCellValue(sheet, cellRef(1, r), fn.FunnelID)
		f.SetCellValue(sheet, cellRef(2, r), fn.TotalSteps)
		f.SetCellValue(sheet, cellRef(3, r), fn.StepsCompleted)
		f.SetCellValue(sheet, cellRef(4, r), formatBoolSlice(fn.StepResults))
	}

	if data.Report != nil && len(data.Report.ByFunnelStep) > 0 {
		row := len(data.Funnels) + 3
		writeSection(f, sheet, st, row, "By Funnel Step",
			[]string{"Funnel#Step", "Pages", "Total Findings", "Priority Score"},
			len(data.Report.ByFunnelStep),
			func(i, r int) {
				g := data.Report.ByFunnelStep[i]
				f.SetCellValue(sheet, cellRef(1, r), g.Key)
				f.SetCellValue(sheet, cellRef(2, r), g.Pages)
				f.SetCellValue(sheet, cellRef(3, r), g.Total)
				f.SetCellValue(sheet, cellRef(4, r), g.PriorityScore)
			})
	}

	for _, col := range []string{"A", "B", "C", "D"} {
		f.SetColWidth(sheet, col, col, 24)
	}
}

func writeRecommendations(f *excelize.File, st *styles, data WorkbookData) {
	sheet := SheetRecommendations
	f.NewSheet(sheet)
	if data.Report == nil {
		return
	}

	cols := []string{"Violation ID", "Occurrences", "Priority Score", "Description", "Technical Fix", "User Impact"}
	writeHeaderRow(f, sheet, st, cols)

	for i, v := range data.Report.ByViolation {
		r := i + 2
		f.SetCellValue(sheet, cellRef(1, r), v.ViolationID)
		f.SetCellValue(sheet, cellRef(2, r), v.Occurrences)
		f.SetCellValue(sheet, cellRef(3, r), v.PriorityScore)
		f.SetCellValue(sheet, cellRef(4, r), v.Solution.Description)
		f.SetCellValue(sheet, cellRef(5, r), v.Solution.Technical)
		f.SetCellValue(sheet, cellRef(6, r), v.Solution.UserImpact)
	}

	f.SetColWidth(sheet, "A", "A", 22)
	f.SetColWidth(sheet, "B", "C", 14)
	f.SetColWidth(sheet, "D", "F", 40)
}

func writeChartsSheet(f *excelize.File, st *styles, data WorkbookData) {
	sheet := SheetCharts
	f.NewSheet(sheet)
	if data.Report == nil {
		return
	}

	cols := []string{"Impact", "Count"}
	writeHeaderRow(f, sheet, st, cols)
	for i, s := range data.Report.ByImpact {
		r := i + 2
		f.SetCellValue(sheet, cellRef(1, r), string(s.Impact))
		f.SetCellValue(sheet, cellRef(2, r), s.Count)
	}
	f.SetColWidth(sheet, "A", "B", 16)
}

func writeRawData(f *excelize.File, st *styles, data WorkbookData) {
	sheet := SheetRawData
	f.NewSheet(sheet)
	if data.Report == nil {
		return
	}

	cols := []string{"Page URL", "Violation ID", "Impact", "Page Type", "WCAG Principle", "WCAG Criterion",
		"Target", "HTML", "Failure Summary", "Auth Required", "Funnel Name", "Funnel Step", "Severity Weight"}
	writeHeaderRow(f, sheet, st, cols)

	for i, row := range data.Report.Rows {
		r := i + 2
		f.SetCellValue(sheet, cellRef(1, r), string(row.PageURL))
		f.SetCellValue(sheet, cellRef(2, r), row.ViolationID)
		f.SetCellValue(sheet, cellRef(3, r), string(row.Impact))
		f.SetCellValue(sheet, cellRef(4, r), row.PageType)
		f.SetCellValue(sheet, cellRef(5, r), string(row.WCAG.Principle))
		f.SetCellValue(sheet, cellRef(6, r), row.WCAG.Criterion)
		f.SetCellValue(sheet, cellRef(7, r), row.TargetSelector)
		f.SetCellValue(sheet, cellRef(8, r), row.HTMLFragment)
		f.SetCellValue(sheet, cellRef(9, r), row.FailureSummary)
		f.SetCellValue(sheet, cellRef(10, r), row.AuthRequired)
		f.SetCellValue(sheet, cellRef(11, r), row.FunnelName)
		f.SetCellValue(sheet, cellRef(12, r), row.FunnelStep)
		f.SetCellValue(sheet, cellRef(13, r), row.SeverityWeight)

		if r%2 == 0 {
			last := cellRef(len(cols), r)
			first := cellRef(1, r)
			f.SetCellStyle(sheet, first, last, st.evenRow)
		}
	}

	lastCol, _ := excelize.ColumnNumberToName(len(cols))
	f.AutoFilter(sheet, fmt.Sprintf("%s!A1:%s%d", sheet, lastCol, len(data.Report.Rows)+1), nil)
	f.SetPanes(sheet, &excelize.Panes{Freeze: true, YSplit: 1, TopLeftCell: "A2", ActivePane: "bottomLeft"})
}

// writeSection writes a bold sub-heading followed by a header row and
// n data rows, returning the next free row after the section.
func writeSection(f *excelize.File, sheet string, st *styles, startRow int, title string, cols []string, n int, writeRow func(i, row int)) int {
	f.SetCellValue(sheet, fmt.Sprintf("A%d", startRow), title)
	f.SetCellStyle(sheet, fmt.Sprintf("A%d", startRow), fmt.Sprintf("A%d", startRow), st.title)
	headerRow := startRow + 1
	for i, col := range cols {
		cell, _ := excelize.CoordinatesToCellName(i+1, headerRow)
		f.SetCellValue(sheet, cell, col)
		f.SetCellStyle(sheet, cell, cell, st.header)
	}
	for i := 0; i < n; i++ {
		writeRow(i, headerRow+1+i)
	}
	return headerRow + 1 + n
}

func cellRef(col, row int) string {
	name, _ := excelize.ColumnNumberToName(col)
	return fmt.Sprintf("%s%d", name, row)
}

func formatBoolSlice(bs []bool) string {
	out := ""
	for i, b := range bs {
		if i > 0 {
			out += ", "
		}
		if b {
			out += "pass"
		} else {
			out += "fail"
		}
	}
	return out
}
