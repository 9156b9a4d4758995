// Package report renders run results for the terminal.
package report

import (
	"fmt"
	"io"
	"sort"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"mediasort/internal/catalog"
)

// Render writes the run summary: outcome table, yearly distribution, and
// throughput. Dry runs get a banner reminding the reader nothing was copied.
func Render(w io.Writer, stats catalog.Stats, elapsed time.Duration, mode string, dryRun bool) {
	if dryRun {
		fmt.Fprintln(w, "DRY RUN: no files were copied and no changes were saved.")
		fmt.Fprintln(w, "Run again without --dry-run to apply this plan.")
		fmt.Fprintln(w)
	}

	fmt.Fprintln(w, renderSummary(stats, mode))
	if len(stats.Yearly) > 0 {
		fmt.Fprintln(w)
		fmt.Fprintln(w, renderYearly(stats.Yearly))
	}
	fmt.Fprintln(w)
	fmt.Fprintln(w, renderThroughput(stats, elapsed))
}

// RenderStats writes the aggregate tables without the run framing; used by
// the stats command against the durable catalog.
func RenderStats(w io.Writer, stats catalog.Stats) {
	fmt.Fprintln(w, renderSummary(stats, ""))
	if len(stats.Yearly) > 0 {
		fmt.Fprintln(w)
		fmt.Fprintln(w, renderYearly(stats.Yearly))
	}
}

func renderSummary(stats catalog.Stats, mode string) string {
	rows := make([][]string, 0, 10)
	if mode != "" {
		rows = append(rows, []string{"Mode", mode})
	}
	rows = append(rows, [][]string{
		{"Total files", humanize.Comma(int64(stats.TotalFiles))},
		{"Processed", humanize.Comma(int64(stats.ProcessedFiles))},
		{"Duplicates", humanize.Comma(int64(stats.DuplicateFiles))},
		{"Unsupported", humanize.Comma(int64(stats.UnsupportedFiles))},
		{"Errors", humanize.Comma(int64(stats.ErrorFiles))},
		{"Photos", humanize.Comma(int64(stats.Photos))},
		{"Videos", humanize.Comma(int64(stats.Videos))},
		{"Bytes copied", humanize.IBytes(uint64(stats.BytesCopied))},
	}...)
	if stats.ExistingFiles > 0 {
		rows = append(rows, []string{"Pre-indexed (existing)", humanize.Comma(int64(stats.ExistingFiles))})
	}
	return renderTable([]string{"Result", "Count"}, rows, []columnAlignment{alignLeft, alignRight})
}

func renderYearly(yearly map[string]int) string {
	years := make([]string, 0, len(yearly))
	for year := range yearly {
		years = append(years, year)
	}
	sort.Sort(sort.Reverse(sort.StringSlice(years)))

	rows := make([][]string, 0, len(years))
	for _, year := range years {
		rows = append(rows, []string{year, humanize.Comma(int64(yearly[year]))})
	}
	return renderTable([]string{"Year", "Files"}, rows, []columnAlignment{alignLeft, alignRight})
}

func renderThroughput(stats catalog.Stats, elapsed time.Duration) string {
	if elapsed <= 0 {
		elapsed = time.Millisecond
	}
	rate := float64(stats.TotalFiles) / elapsed.Seconds()
	return fmt.Sprintf("Completed in %s (%.1f files/s)", elapsed.Round(time.Millisecond), rate)
}

type columnAlignment int

const (
	alignLeft columnAlignment = iota
	alignRight
)

func renderTable(headers []string, rows [][]string, aligns []columnAlignment) string {
	columns := len(headers)
	if columns == 0 {
		return ""
	}

	tw := table.NewWriter()
	tw.SetStyle(table.StyleRounded)

	header := make(table.Row, columns)
	for i := 0; i < columns; i++ {
		header[i] = headers[i]
	}
	tw.AppendHeader(header)

	for _, row := range rows {
		r := make(table.Row, columns)
		for i := 0; i < columns; i++ {
			if i < len(row) {
				r[i] = row[i]
			} else {
				r[i] = ""
			}
		}
		tw.AppendRow(r)
	}

	columnConfigs := make([]table.ColumnConfig, 0, columns)
	for i := 0; i < columns; i++ {
		align := text.AlignLeft
		if i < len(aligns) && aligns[i] == alignRight {
			align = text.AlignRight
		}
		columnConfigs = append(columnConfigs, table.ColumnConfig{
			Number:      i + 1,
			Align:       align,
			AlignHeader: text.AlignLeft,
		})
	}
	tw.SetColumnConfigs(columnConfigs)

	return tw.Render()
}
