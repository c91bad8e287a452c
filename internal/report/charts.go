package report

import (
	"fmt"

	"github.com/xuri/excelize/v2"
)

// DefaultChartRenderer draws a bar chart of violation counts by impact
// on the Charts sheet, over the table writeChartsSheet already placed
// there.
type DefaultChartRenderer struct{}

// Render implements ChartRenderer.
func (DefaultChartRenderer) Render(f *excelize.File, sheetName string, data WorkbookData) error {
	if data.Report == nil || len(data.Report.ByImpact) == 0 {
		return nil
	}

	lastRow := len(data.Report.ByImpact) + 1
	return f.AddChart(sheetName, "D2", &excelize.Chart{
		Type: excelize.Bar,
		Series: []excelize.ChartSeries{
			{
				Name:       sheetName + "!$B$1",
				Categories: fmt.Sprintf("%s!$A$2:$A$%d", sheetName, lastRow),
				Values:     fmt.Sprintf("%s!$B$2:$B$%d", sheetName, lastRow),
			},
		},
		Title: []excelize.RichTextRun{{Text: "Violations by Impact"}},
		Legend: excelize.ChartLegend{
			Position: "bottom",
		},
		PlotArea: excelize.ChartPlotArea{
			ShowVal: true,
		},
	})
}
