package main

import (
	"fmt"
	"math"

	"github.com/pterm/pterm"

	"heat_pump_calc/heatpump"
)

func formatStat(v float64, format string) string {
	if math.IsNaN(v) {
		return "-"
	}
	return fmt.Sprintf(format, v)
}

// summaryTable returns the rows of the summary table of a finished sweep.
func summaryTable(set *heatpump.MapSet) pterm.TableData {
	data := pterm.TableData{
		{"Map", "Unit", "Cells", "Min", "Max", "Mean"},
	}
	for _, m := range []*heatpump.PowerMap{set.Heating, set.Electrical, set.COP} {
		format := "%.1f"
		if m.Unit == "-" {
			format = "%.3f"
		}
		s := m.Stats()
		data = append(data, []string{
			m.Name,
			m.Unit,
			fmt.Sprint(s.Count),
			formatStat(s.Min, format),
			formatStat(s.Max, format),
			formatStat(s.Mean, format),
		})
	}
	return data
}

func printSummary(e *heatpump.Evaluator, set *heatpump.MapSet, written []string) {
	pterm.DefaultSection.Printf("Heat pump maps [%s]\n", set.Refrigerant)
	pterm.Info.Printf("Refrigerant %s, SH %g K, SC %g K, %g cm3 x %g rps\n",
		e.Params.Refrigerant, e.Params.Superheat, e.Params.Subcooling, e.Params.Displacement, e.Params.Speed)
	pterm.Info.Printf("Isentropic efficiency %s\n", e.Isentropic)
	pterm.Info.Printf("Volumetric efficiency %s\n", e.Volumetric)

	pterm.DefaultTable.WithHasHeader().WithData(summaryTable(set)).Render()

	if n := len(set.Skipped); n > 0 {
		pterm.Warning.Printf("%d of %d points skipped (first: %s: %v)\n",
			n, n+len(set.Results), set.Skipped[0].Point, set.Skipped[0].Err)
	}

	items := make([]pterm.BulletListItem, len(written))
	for i, path := range written {
		items[i] = pterm.BulletListItem{Level: 0, Text: path}
	}
	pterm.Success.Println("Results written")
	pterm.DefaultBulletList.WithItems(items).Render()
}
