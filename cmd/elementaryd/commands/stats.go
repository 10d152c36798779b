package commands

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/fatih/color"
	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

type statsEntry struct {
	Time   time.Time      `json:"time"`
	Event  string         `json:"event"`
	Fields map[string]any `json:"fields"`
}

// NewStatsCommand creates the `stats` command: it reads a session log
// written by `serve --session-log` and prints directive throughput and
// error-rate summaries, the offline counterpart to the live RED metrics
// the server records through its OTel meter.
func NewStatsCommand() *cobra.Command {
	var logPath, chartPath string

	cmd := &cobra.Command{
		Use:           "stats",
		Short:         "Summarize a session log written by the serve command",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(_ *cobra.Command, _ []string) error {
			return runStats(logPath, chartPath)
		},
	}

	cmd.Flags().StringVarP(&logPath, "log", "l", "", "Path to the session log file")
	cmd.Flags().StringVar(&chartPath, "chart", "", "Write an HTML line chart of per-minute directive activity to this path")
	_ = cmd.MarkFlagRequired("log")

	return cmd
}

func runStats(logPath, chartPath string) error {
	file, err := os.Open(logPath) //nolint:gosec // operator-supplied CLI path
	if err != nil {
		return fmt.Errorf("open session log: %w", err)
	}
	defer file.Close()

	var (
		total, ok, failed int
		first, last       time.Time
	)

	perMinute := map[string][2]int{} // minute bucket -> [ok, failed]

	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		var entry statsEntry

		if err := json.Unmarshal(scanner.Bytes(), &entry); err != nil {
			continue
		}

		total++

		if first.IsZero() || entry.Time.Before(first) {
			first = entry.Time
		}

		if entry.Time.After(last) {
			last = entry.Time
		}

		bucket := entry.Time.Truncate(time.Minute).Format(time.RFC3339)
		counts := perMinute[bucket]

		if status, _ := entry.Fields["status"].(string); status == "ok" {
			ok++
			counts[0]++
		} else {
			failed++
			counts[1]++
		}

		perMinute[bucket] = counts
	}

	if err := scanner.Err(); err != nil {
		return fmt.Errorf("read session log: %w", err)
	}

	printSummary(logPath, total, ok, failed, first, last)

	if chartPath != "" {
		if err := writeActivityChart(chartPath, perMinute); err != nil {
			return fmt.Errorf("write chart: %w", err)
		}
	}

	return nil
}

// writeActivityChart renders a per-minute directive activity line chart to
// an HTML file, the CLI's offline counterpart to the live RED metrics the
// server records through its OTel meter.
func writeActivityChart(path string, perMinute map[string][2]int) error {
	buckets := make([]string, 0, len(perMinute))
	for bucket := range perMinute {
		buckets = append(buckets, bucket)
	}

	sort.Strings(buckets)

	okSeries := make([]opts.LineData, len(buckets))
	failedSeries := make([]opts.LineData, len(buckets))

	for i, bucket := range buckets {
		counts := perMinute[bucket]
		okSeries[i] = opts.LineData{Value: counts[0]}
		failedSeries[i] = opts.LineData{Value: counts[1]}
	}

	line := charts.NewLine()
	line.SetGlobalOptions(
		charts.WithTitleOpts(opts.Title{Title: "Directive activity"}),
		charts.WithXAxisOpts(opts.XAxis{Name: "minute"}),
		charts.WithYAxisOpts(opts.YAxis{Name: "directives"}),
	)
	line.SetXAxis(buckets).
		AddSeries("ok", okSeries).
		AddSeries("error", failedSeries)

	out, err := os.Create(path) //nolint:gosec // operator-supplied CLI output path
	if err != nil {
		return fmt.Errorf("create chart file: %w", err)
	}
	defer out.Close()

	if err := line.Render(out); err != nil {
		return fmt.Errorf("render chart: %w", err)
	}

	return nil
}

func printSummary(logPath string, total, ok, failed int, first, last time.Time) {
	bold := color.New(color.Bold)
	bold.Printf("Session log: %s\n", logPath)

	tbl := table.NewWriter()
	tbl.SetOutputMirror(os.Stdout)
	tbl.AppendHeader(table.Row{"Metric", "Value"})
	tbl.AppendRow(table.Row{"Directives", humanize.Comma(int64(total))})
	tbl.AppendRow(table.Row{"Succeeded", humanize.Comma(int64(ok))})
	tbl.AppendRow(table.Row{"Failed", humanize.Comma(int64(failed))})

	if total > 0 {
		errorRate := float64(failed) / float64(total) * 100 //nolint:mnd // percentage conversion
		tbl.AppendRow(table.Row{"Error rate", fmt.Sprintf("%.2f%%", errorRate)})
	}

	if !first.IsZero() {
		tbl.AppendRow(table.Row{"First event", humanize.Time(first)})
		tbl.AppendRow(table.Row{"Last event", humanize.Time(last)})
	}

	tbl.Render()
}
