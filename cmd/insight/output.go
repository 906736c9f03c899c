package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/kapu/creator-insight-go/internal/domain"
	"github.com/kapu/creator-insight-go/pkg/errors"
	"github.com/spf13/cobra"
)

// writeJSON encodes v as indented JSON to the command's stdout.
func writeJSON(cmd *cobra.Command, v any) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func printReport(cmd *cobra.Command, opts *commandOptions, result *domain.AnalysisResult) error {
	if opts.wantsJSON() {
		return writeJSON(cmd, result)
	}
	writeReport(cmd.OutOrStdout(), result)
	return nil
}

func writeReport(out io.Writer, r *domain.AnalysisResult) {
	source := "fresh"
	if r.FromCache {
		source = "cached narrative"
	}
	fmt.Fprintln(out, renderKeyValues([][2]string{
		{"Video", r.Video.Title},
		{"Channel", r.Video.ChannelTitle},
		{"Range", r.Range.String()},
		{"Views", strconv.FormatUint(r.Metrics.Views, 10)},
		{"Likes", strconv.FormatUint(r.Metrics.Likes, 10)},
		{"Comments", strconv.FormatUint(r.Metrics.Comments, 10)},
		{"Fingerprint", r.Fingerprint},
		{"Source", source},
	}))

	rows := make([][]string, 0, len(r.Insights))
	for _, in := range r.Insights {
		rows = append(rows, []string{in.Label, in.Value, string(in.Verdict), in.Detail})
	}
	fmt.Fprintln(out, renderTable([]string{"Insight", "Value", "Verdict", "Detail"}, rows))

	n := r.Narrative
	fmt.Fprintf(out, "\nSummary\n  %s\n\nDescription\n  %s\n", n.Summary, n.Description)
	writeList(out, "Strengths", n.Strengths)
	writeList(out, "Improvements", n.Improvements)
	writeList(out, "Checklist", n.Checklist)
	writeList(out, "Alternate angles", n.AlternateAngles)
	writeList(out, "Title ideas", n.TitleIdeas)
	if n.Niche != nil {
		fmt.Fprintf(out, "\nNiche\n  %s / %s (%s)\n", n.Niche.Label, n.Niche.SubNiche, n.Niche.Audience)
	}

	if r.Audience.Available {
		a := r.Audience.Payload
		fmt.Fprintf(out, "\nAudience (%d comments)\n  positive %.0f%%  neutral %.0f%%  negative %.0f%%\n",
			a.CommentsAnalyzed, a.Sentiment.Positive*100, a.Sentiment.Neutral*100, a.Sentiment.Negative*100)
		writeList(out, "Themes", a.Themes)
		quotes := make([]string, 0, len(a.Quotes))
		for _, q := range a.Quotes {
			quotes = append(quotes, fmt.Sprintf("%q %s", q.Text, q.Author))
		}
		writeList(out, "Quotes", quotes)
	}

	unknowable := make([]string, 0, len(r.Capabilities.Unknowable))
	for _, c := range r.Capabilities.Unknowable {
		unknowable = append(unknowable, c.Label)
	}
	writeList(out, "Not visible from public data", unknowable)
	writeList(out, "Notes", r.Capabilities.Notes)
}

func writeList(out io.Writer, title string, items []string) {
	if len(items) == 0 {
		return
	}
	fmt.Fprintf(out, "\n%s\n", title)
	for _, item := range items {
		fmt.Fprintf(out, "  - %s\n", item)
	}
}

func renderKeyValues(pairs [][2]string) string {
	rows := make([][]string, 0, len(pairs))
	for _, p := range pairs {
		rows = append(rows, []string{p[0], p[1]})
	}
	return renderTable([]string{"Field", "Value"}, rows)
}

func renderTable(headers []string, rows [][]string) string {
	tw := table.NewWriter()
	tw.SetStyle(table.StyleRounded)

	header := make(table.Row, len(headers))
	for i, h := range headers {
		header[i] = h
	}
	tw.AppendHeader(header)

	for _, row := range rows {
		r := make(table.Row, len(headers))
		for i := range headers {
			if i < len(row) {
				r[i] = row[i]
			} else {
				r[i] = ""
			}
		}
		tw.AppendRow(r)
	}

	configs := make([]table.ColumnConfig, 0, len(headers))
	for i := range headers {
		configs = append(configs, table.ColumnConfig{
			Number:           i + 1,
			Align:            text.AlignLeft,
			WidthMax:         72,
			WidthMaxEnforcer: text.WrapSoft,
		})
	}
	tw.SetColumnConfigs(configs)
	return tw.Render()
}

// describeError prefixes typed failures with their code for the terminal.
func describeError(err error) error {
	ie, ok := errors.AsInsightError(err)
	if !ok {
		return err
	}
	msg := ie.Error()
	if stage, _ := ie.Details["stage"].(string); stage != "" && !strings.Contains(msg, stage) {
		msg = stage + ": " + msg
	}
	return fmt.Errorf("%s: %s", ie.Code, msg)
}
