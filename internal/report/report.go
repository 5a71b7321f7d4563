// Package report renders a lightweight activity chart for the current
// detection layer. It is a debugging and briefing aid, not part of the map
// UI, so it ships as a self-contained HTML page.
package report

import (
	"fmt"
	"io"
	"sort"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"

	"github.com/marisklase/darkwatch/internal/present"
)

// DailyCounts tallies detection features per calendar date. Features without
// a date property are ignored.
func DailyCounts(fc present.FeatureCollection) (dates []string, counts []int) {
	byDate := map[string]int{}
	for _, f := range fc.Features {
		d, ok := f.Properties["date"].(string)
		if !ok || d == "" {
			continue
		}
		byDate[d]++
	}
	dates = make([]string, 0, len(byDate))
	for d := range byDate {
		dates = append(dates, d)
	}
	sort.Strings(dates)
	counts = make([]int, len(dates))
	for i, d := range dates {
		counts[i] = byDate[d]
	}
	return dates, counts
}

// Render writes a bar chart of dark vessel detections per day.
func Render(w io.Writer, title string, fc present.FeatureCollection) error {
	dates, counts := DailyCounts(fc)

	data := make([]opts.BarData, len(counts))
	for i, c := range counts {
		data[i] = opts.BarData{Value: c}
	}

	bar := charts.NewBar()
	bar.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{PageTitle: title, Theme: "dark", Width: "1100px", Height: "500px"}),
		charts.WithTitleOpts(opts.Title{
			Title:    title,
			Subtitle: fmt.Sprintf("%d detections over %d days", total(counts), len(dates)),
		}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
		charts.WithXAxisOpts(opts.XAxis{Name: "date"}),
		charts.WithYAxisOpts(opts.YAxis{Name: "detections"}),
	)
	bar.SetXAxis(dates)
	bar.AddSeries("dark vessels", data)

	if err := bar.Render(w); err != nil {
		return fmt.Errorf("render report: %w", err)
	}
	return nil
}

func total(counts []int) int {
	sum := 0
	for _, c := range counts {
		sum += c
	}
	return sum
}
