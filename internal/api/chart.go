package api

import (
	"fmt"
	"net/http"
	"sort"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"
)

// dwellChart renders a bar chart (HTML) of stop event counts per class.
// Debugging-only view to eyeball dwell activity without a frontend.
func (s *Server) dwellChart(w http.ResponseWriter, r *http.Request) {
	counts, err := s.db.EventCountsByClass()
	if err != nil {
		http.Error(w, fmt.Sprintf("failed to retrieve event counts: %v", err), http.StatusInternalServerError)
		return
	}

	classes := make([]int, 0, len(counts))
	for c := range counts {
		classes = append(classes, c)
	}
	sort.Ints(classes)

	labels := make([]string, 0, len(classes))
	data := make([]opts.BarData, 0, len(classes))
	for _, c := range classes {
		labels = append(labels, fmt.Sprintf("class %d", c))
		data = append(data, opts.BarData{Value: counts[c]})
	}

	bar := charts.NewBar()
	bar.SetGlobalOptions(
		charts.WithTitleOpts(opts.Title{
			Title:    "Stop events by class",
			Subtitle: fmt.Sprintf("run %s", s.runID),
		}),
	)
	bar.SetXAxis(labels).AddSeries("stop events", data)

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := bar.Render(w); err != nil {
		http.Error(w, fmt.Sprintf("failed to render chart: %v", err), http.StatusInternalServerError)
	}
}
