package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"
)

type columnAlignment int

const (
	alignLeft columnAlignment = iota
	alignRight
)

func writeJSON(cmd *cobra.Command, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("encode json: %w", err)
	}
	_, err = fmt.Fprintf(cmd.OutOrStdout(), "%s\n", data)
	return err
}

// writeTable renders rows as a rounded table on a terminal. Pipes get
// tab-separated lines with a header row.
func writeTable(cmd *cobra.Command, headers []string, rows [][]string, aligns []columnAlignment) {
	out := cmd.OutOrStdout()
	if !stdoutIsTTY(out) {
		writeTSV(out, headers, rows)
		return
	}
	fmt.Fprintln(out, renderTable(headers, rows, aligns))
}

func writeTSV(out io.Writer, headers []string, rows [][]string) {
	lines := make([]string, 0, len(rows)+1)
	lines = append(lines, strings.Join(headers, "\t"))
	for _, row := range rows {
		lines = append(lines, strings.Join(row, "\t"))
	}
	fmt.Fprintln(out, strings.Join(lines, "\n"))
}

func stdoutIsTTY(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

func renderTable(headers []string, rows [][]string, aligns []columnAlignment) string {
	if len(headers) == 0 {
		return ""
	}
	tw := table.NewWriter()
	tw.SetStyle(table.StyleRounded)
	tw.AppendHeader(padRow(headers, len(headers)))
	for _, row := range rows {
		tw.AppendRow(padRow(row, len(headers)))
	}

	configs := make([]table.ColumnConfig, len(headers))
	for idx := range headers {
		configs[idx] = table.ColumnConfig{Number: idx + 1, Align: text.AlignLeft, AlignHeader: text.AlignLeft}
		if idx < len(aligns) && aligns[idx] == alignRight {
			configs[idx].Align = text.AlignRight
		}
	}
	tw.SetColumnConfigs(configs)
	return tw.Render()
}

// padRow converts cells into a table row of exactly width columns.
func padRow(cells []string, width int) table.Row {
	row := make(table.Row, width)
	for idx := range row {
		row[idx] = ""
		if idx < len(cells) {
			row[idx] = cells[idx]
		}
	}
	return row
}
