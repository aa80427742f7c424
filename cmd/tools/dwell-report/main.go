// Command dwell-report summarises the stop events recorded in a
// dwellwatch database: per-class counts plus timing statistics over the
// inter-event gaps, with an optional echarts HTML page.
//
// Usage:
//
//	go run ./cmd/tools/dwell-report -db dwellwatch.db [-html report.html]
package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"sort"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"
	"gonum.org/v1/gonum/stat"

	"github.com/quaystone/dwellwatch/internal/db"
)

var (
	dbFile   = flag.String("db", "dwellwatch.db", "Event database path")
	htmlFile = flag.String("html", "", "Optional output path for an HTML chart")
)

func main() {
	flag.Parse()

	database, err := db.NewDB(*dbFile)
	if err != nil {
		log.Fatalf("failed to open database: %v", err)
	}
	defer database.Close()

	events, err := database.Events(0)
	if err != nil {
		log.Fatalf("failed to load events: %v", err)
	}
	if len(events) == 0 {
		log.Print("no stop events recorded")
		return
	}

	counts, err := database.EventCountsByClass()
	if err != nil {
		log.Fatalf("failed to load event counts: %v", err)
	}

	fmt.Printf("%d stop events\n\n", len(events))
	classes := make([]int, 0, len(counts))
	for c := range counts {
		classes = append(classes, c)
	}
	sort.Ints(classes)
	for _, c := range classes {
		fmt.Printf("  class %-4d %d\n", c, counts[c])
	}

	if gaps := interEventGaps(events); len(gaps) > 0 {
		mean := stat.Mean(gaps, nil)
		stddev := stat.StdDev(gaps, nil)
		sort.Float64s(gaps)
		median := stat.Quantile(0.5, stat.Empirical, gaps, nil)
		p95 := stat.Quantile(0.95, stat.Empirical, gaps, nil)
		fmt.Printf("\ninter-event gap (seconds): mean=%.1f stddev=%.1f median=%.1f p95=%.1f\n",
			mean, stddev, median, p95)
	}

	if *htmlFile != "" {
		if err := writeChart(*htmlFile, classes, counts); err != nil {
			log.Fatalf("failed to write chart: %v", err)
		}
		log.Printf("chart written to %s", *htmlFile)
	}
}

// interEventGaps returns the gaps between consecutive stop events in
// seconds. Events arrive newest first.
func interEventGaps(events []db.StopEvent) []float64 {
	gaps := make([]float64, 0, len(events)-1)
	for i := 0; i < len(events)-1; i++ {
		gap := events[i].StoppedAt.Sub(events[i+1].StoppedAt).Seconds()
		if gap >= 0 {
			gaps = append(gaps, gap)
		}
	}
	return gaps
}

func writeChart(path string, classes []int, counts map[int]int64) error {
	labels := make([]string, 0, len(classes))
	data := make([]opts.BarData, 0, len(classes))
	for _, c := range classes {
		labels = append(labels, fmt.Sprintf("class %d", c))
		data = append(data, opts.BarData{Value: counts[c]})
	}

	bar := charts.NewBar()
	bar.SetGlobalOptions(charts.WithTitleOpts(opts.Title{Title: "Stop events by class"}))
	bar.SetXAxis(labels).AddSeries("stop events", data)

	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	return bar.Render(f)
}
