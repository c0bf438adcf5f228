package report

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"shadowbench/internal/core"
)

// ErrNoResults is returned by Parse when the input has no results section.
var ErrNoResults = errors.New("results section not found")

// Parse extracts trial records from text containing a rendered report. The
// section may be preceded by arbitrary lines and ends at the first blank
// line or EOF.
func Parse(r io.Reader) ([]core.TrialRecord, error) {
	scanner := bufio.NewScanner(r)

	found := false
	for scanner.Scan() {
		if strings.HasPrefix(strings.TrimSpace(scanner.Text()), Header) {
			found = true
			break
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading results: %w", err)
	}
	if !found {
		return nil, ErrNoResults
	}

	var records []core.TrialRecord
	lineNo := 0
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			break
		}
		lineNo++
		if strings.HasPrefix(line, columnsKey) || strings.Trim(line, "-|+") == "" {
			continue
		}
		rec, err := parseRow(line)
		if err != nil {
			return nil, fmt.Errorf("results line %d: %w", lineNo, err)
		}
		records = append(records, rec)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading results: %w", err)
	}
	return records, nil
}

func parseRow(line string) (core.TrialRecord, error) {
	parts := strings.Split(line, "|")
	if len(parts) != 5 {
		return core.TrialRecord{}, fmt.Errorf("expected 5 columns, got %d", len(parts))
	}

	driver, application, ok := strings.Cut(strings.TrimSpace(parts[0]), "/")
	if !ok {
		return core.TrialRecord{}, fmt.Errorf("malformed key %q", strings.TrimSpace(parts[0]))
	}
	rec := core.TrialRecord{Key: core.TrialKey{Driver: driver, Application: application}}
	if err := rec.Key.Validate(); err != nil {
		return core.TrialRecord{}, err
	}

	total, err := strconv.Atoi(strings.TrimSpace(parts[1]))
	if err != nil {
		return core.TrialRecord{}, fmt.Errorf("malformed trial count %q", strings.TrimSpace(parts[1]))
	}

	counts := [3]*int{&rec.Automatic, &rec.Manual, &rec.Failed}
	for i, dst := range counts {
		cell := strings.TrimSpace(parts[i+2])
		count, _, _ := strings.Cut(cell, " ")
		n, err := strconv.Atoi(count)
		if err != nil || n < 0 {
			return core.TrialRecord{}, fmt.Errorf("malformed %s cell %q", core.OutcomeKinds[i], cell)
		}
		*dst = n
	}

	if rec.Total() != total {
		return core.TrialRecord{}, fmt.Errorf("%s: outcome counts sum to %d, trials column says %d",
			rec.Key, rec.Total(), total)
	}
	return rec, nil
}
