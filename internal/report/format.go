// Package report renders trial records into the results formats consumed by
// operators and downstream plotting.
package report

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"

	"shadowbench/internal/core"
)

// Header opens the results section. External tooling searches for it.
const Header = "Fault Injection Results:"

const (
	keyWidth   = 30
	cellWidth  = 11
	rowFormat  = "%-30s| %6s | %-11s | %-11s | %s\n"
	columnsKey = "Driver/Application"
)

var separator = strings.Repeat("-", keyWidth) + "|" +
	strings.Repeat("-", 8) + "|" +
	strings.Repeat("-", cellWidth+2) + "|" +
	strings.Repeat("-", cellWidth+2) + "|" +
	strings.Repeat("-", 12)

// Render writes the text report for records, in the given order. The section
// is terminated by a blank line.
func Render(w io.Writer, records []core.TrialRecord) error {
	_, err := io.WriteString(w, RenderString(records))
	return err
}

// RenderString returns the text report for records.
func RenderString(records []core.TrialRecord) string {
	var b strings.Builder
	b.WriteString(Header + "\n")
	fmt.Fprintf(&b, rowFormat, columnsKey, "Trials", "Automatic", "Manual", "Failed")
	b.WriteString(separator + "\n")
	for _, r := range records {
		fmt.Fprintf(&b, rowFormat,
			r.Key.String(),
			strconv.Itoa(r.Total()),
			formatCell(r, core.AutomaticRecovery),
			formatCell(r, core.ManualRecovery),
			formatCell(r, core.FailedRecovery))
	}
	b.WriteString("\n")
	return b.String()
}

func formatCell(r core.TrialRecord, kind core.OutcomeKind) string {
	return fmt.Sprintf("%3d (%3d%%)", r.Count(kind), r.Percent(kind))
}

type jsonRecord struct {
	Driver      string `json:"driver"`
	Application string `json:"application"`
	Automatic   int    `json:"automatic"`
	Manual      int    `json:"manual"`
	Failed      int    `json:"failed"`
	Total       int    `json:"total"`
}

// FormatJSON writes records as an indented JSON array.
func FormatJSON(w io.Writer, records []core.TrialRecord) error {
	output := make([]jsonRecord, 0, len(records))
	for _, r := range records {
		output = append(output, jsonRecord{
			Driver:      r.Key.Driver,
			Application: r.Key.Application,
			Automatic:   r.Automatic,
			Manual:      r.Manual,
			Failed:      r.Failed,
			Total:       r.Total(),
		})
	}

	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(output)
}

// FormatCSV writes one row per record with outcome percentages, the layout
// the plotting scripts export.
func FormatCSV(w io.Writer, records []core.TrialRecord) error {
	cw := csv.NewWriter(w)
	_ = cw.Write([]string{"Driver", "Application", "Total Trials",
		"Automatic Recovery %", "Manual Recovery %", "Failed Recovery %"})
	for _, r := range records {
		_ = cw.Write([]string{
			r.Key.Driver,
			r.Key.Application,
			strconv.Itoa(r.Total()),
			strconv.Itoa(r.Percent(core.AutomaticRecovery)),
			strconv.Itoa(r.Percent(core.ManualRecovery)),
			strconv.Itoa(r.Percent(core.FailedRecovery)),
		})
	}
	cw.Flush()
	return cw.Error()
}

// Format names an output encoding.
type Format string

const (
	Text Format = "text"
	JSON Format = "json"
	CSV  Format = "csv"
)

// ParseFormat validates a format name.
func ParseFormat(s string) (Format, error) {
	switch f := Format(s); f {
	case Text, JSON, CSV:
		return f, nil
	}
	return "", fmt.Errorf("format must be 'text', 'json' or 'csv', got %q", s)
}

// Write encodes records in format f.
func Write(w io.Writer, f Format, records []core.TrialRecord) error {
	switch f {
	case JSON:
		return FormatJSON(w, records)
	case CSV:
		return FormatCSV(w, records)
	default:
		return Render(w, records)
	}
}
