package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/fatih/color"
	"github.com/mattn/go-isatty"

	"github.com/arloliu/sopkit"
	"github.com/arloliu/sopkit/internal/config"
	"github.com/arloliu/sopkit/report"
	"github.com/arloliu/sopkit/stats"
)

const labelWidth = 20

type renderer struct {
	w       io.Writer
	heading *color.Color
	errText *color.Color
}

func newRenderer(w io.Writer, colorize bool) *renderer {
	r := &renderer{
		w:       w,
		heading: color.New(color.FgCyan, color.Bold),
		errText: color.New(color.FgRed, color.Bold),
	}
	for _, c := range []*color.Color{r.heading, r.errText} {
		if colorize {
			c.EnableColor()
		} else {
			c.DisableColor()
		}
	}

	return r
}

func colorEnabled(mode string, w io.Writer) bool {
	switch mode {
	case config.ColorAlways:
		return true
	case config.ColorNever:
		return false
	}
	if os.Getenv("NO_COLOR") != "" {
		return false
	}

	return shouldColorize(w)
}

func shouldColorize(writer io.Writer) bool {
	file, ok := writer.(*os.File)
	if !ok {
		return false
	}
	fd := file.Fd()

	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}

func (r *renderer) title(s string) {
	fmt.Fprintln(r.w)
	r.heading.Fprintln(r.w, s)
	fmt.Fprintln(r.w, strings.Repeat("=", 40))
}

func (r *renderer) field(label string, value any) {
	fmt.Fprintf(r.w, "%*s: %v\n", labelWidth, label, value)
}

func (r *renderer) metadata(m report.Metadata) {
	r.title("PACKAGE METADATA")
	r.field("name", m.Name)
	r.field("pack_application_id", m.PackApplicationID)
	timestamp := "(none)"
	if m.Timestamp != nil {
		timestamp = *m.Timestamp
	}
	r.field("timestamp", timestamp)
	r.field("version", m.Version)
}

func (r *renderer) recordStats(rs stats.RecordStats, actions stats.ActionsSummary) {
	r.title("RECORD STATISTICS")
	r.field("Total records", humanize.Comma(int64(rs.Total)))
	r.field("Delete operations", humanize.Comma(int64(rs.Deletes)))
	r.field("Strong overwrites", humanize.Comma(int64(rs.StrongOverwrites)))

	if len(actions) == 0 {
		return
	}
	fmt.Fprintf(r.w, "\n%*s:\n", labelWidth, "Actions")
	for _, name := range actions.SortedNames() {
		fmt.Fprintf(r.w, "%*s  %s: %s\n", labelWidth+2, "", name, humanize.Comma(int64(actions[name])))
	}
}

func (r *renderer) tables(tables []stats.TableInfo) {
	if len(tables) == 0 {
		return
	}

	rows := make([][]string, 0, len(tables))
	total := 0
	for _, t := range tables {
		total += t.RecordCount
		names := t.ActionNames()
		parts := make([]string, len(names))
		for i, name := range names {
			parts[i] = fmt.Sprintf("%s:%d", name, t.Actions[name])
		}
		rows = append(rows, []string{t.Name, humanize.Comma(int64(t.RecordCount)), strings.Join(parts, ", ")})
	}

	r.title("TABLES")
	fmt.Fprintln(r.w, renderTable(tableSpec{
		headers: []string{"Table", "Records", "Actions"},
		rows:    rows,
		footer:  []string{"Total", humanize.Comma(int64(total))},
		aligns:  []columnAlignment{alignLeft, alignRight, alignLeft},
	}))
}

func (r *renderer) diagnostics(d report.Diagnostics) {
	r.title("DIAGNOSTIC INFORMATION")
	if d.Failed() {
		r.field("error", d.Error)
	} else {
		r.field("data_entry", d.DataEntry)
		r.field("data_file_size", fmt.Sprintf("%d (%s)", d.DataFileSize, humanize.IBytes(uint64(d.DataFileSize))))
		r.field("first_10_bytes", d.FirstBytes)
		r.field("last_10_bytes", d.LastBytes)
		r.field("fingerprint", d.Fingerprint)
	}
	if len(d.Files) == 0 {
		return
	}
	fmt.Fprintf(r.w, "%*s:\n", labelWidth, "Files in archive")
	for _, f := range d.Files {
		fmt.Fprintf(r.w, "%*s  %s\n", labelWidth+2, "", f)
	}
}

func (r *renderer) failure(err error) {
	r.errText.Fprintf(r.w, "Error analyzing file: %v\n", err)
}

func (r *renderer) renderMetadataOnly(ctx context.Context, a *sopkit.Analyzer) error {
	m, err := a.Metadata(ctx)
	if err != nil {
		return err
	}
	r.metadata(m)

	return nil
}

func (r *renderer) renderStatsOnly(ctx context.Context, a *sopkit.Analyzer) error {
	rs, err := a.RecordStats(ctx)
	if err != nil {
		return err
	}
	actions, err := a.ActionsSummary(ctx)
	if err != nil {
		return err
	}
	r.recordStats(rs, actions)

	return nil
}

func (r *renderer) renderTablesOnly(ctx context.Context, a *sopkit.Analyzer) error {
	tables, err := a.Tables(ctx)
	if err != nil {
		return err
	}
	r.tables(tables)

	return nil
}

func (r *renderer) renderFull(ctx context.Context, a *sopkit.Analyzer, verbose bool) error {
	rep, err := a.Report(ctx)
	if err != nil {
		return err
	}
	tables, err := a.Tables(ctx)
	if err != nil {
		return err
	}

	r.metadata(rep.Metadata)
	r.recordStats(
		stats.RecordStats{
			Total:            rep.RecordStatistics.TotalRecords,
			Deletes:          rep.RecordStatistics.DeleteOperations,
			StrongOverwrites: rep.RecordStatistics.StrongOverwrites,
		},
		rep.RecordStatistics.ActionsBreakdown,
	)
	r.tables(tables)

	if verbose {
		fi := rep.FileInfo
		fmt.Fprintln(r.w)
		r.field("File", fi.FilePath)
		r.field("Size", fmt.Sprintf("%s (%d bytes)", humanize.IBytes(uint64(fi.FileSize)), fi.FileSize))
		r.field("Strategy", fi.Strategy)
		r.field("Analysis ID", fi.AnalysisID)
	}

	return nil
}

func writeReport(ctx context.Context, w io.Writer, format string, a *sopkit.Analyzer) error {
	rep, err := a.Report(ctx)
	if err != nil {
		return err
	}
	if format == config.FormatYAML {
		return report.WriteYAML(w, rep)
	}

	return report.WriteJSON(w, rep)
}
