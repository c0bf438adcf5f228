// Package benchmark defines the (driver, application, outcome counts) tables
// that a replay reproduces.
package benchmark

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"shadowbench/internal/core"
)

// Entry is one benchmarked scenario and the number of trials of each
// outcome kind to submit for it.
type Entry struct {
	Driver      string `yaml:"driver"`
	Application string `yaml:"application"`
	Automatic   int    `yaml:"automatic"`
	Manual      int    `yaml:"manual"`
	Failed      int    `yaml:"failed"`
}

// Key returns the entry's TrialKey.
func (e Entry) Key() core.TrialKey {
	return core.TrialKey{Driver: e.Driver, Application: e.Application}
}

// Count returns the number of trials of kind requested by the entry.
func (e Entry) Count(kind core.OutcomeKind) int {
	switch kind {
	case core.AutomaticRecovery:
		return e.Automatic
	case core.ManualRecovery:
		return e.Manual
	case core.FailedRecovery:
		return e.Failed
	}
	return 0
}

// Total returns the number of trials requested by the entry.
func (e Entry) Total() int {
	return e.Automatic + e.Manual + e.Failed
}

// Table is an ordered list of entries.
type Table []Entry

// Default returns the fault-injection outcomes reported for the sound,
// network and IDE shadow drivers, 100 trials per application.
func Default() Table {
	return Table{
		{Driver: "snd", Application: "mp3_player", Automatic: 79, Manual: 16, Failed: 5},
		{Driver: "snd", Application: "audio_recorder", Automatic: 44, Manual: 56, Failed: 0},
		{Driver: "e1000", Application: "network_file_transfer", Automatic: 97, Manual: 3, Failed: 0},
		{Driver: "e1000", Application: "network_analyzer", Automatic: 76, Manual: 24, Failed: 0},
		{Driver: "ide", Application: "compiler", Automatic: 38, Manual: 58, Failed: 4},
		{Driver: "ide", Application: "database", Automatic: 58, Manual: 38, Failed: 4},
	}
}

// Trials returns the total number of submissions a replay of t performs.
func (t Table) Trials() int {
	n := 0
	for _, e := range t {
		n += e.Total()
	}
	return n
}

// Validate checks keys and counts and rejects duplicate keys.
func (t Table) Validate() error {
	if len(t) == 0 {
		return fmt.Errorf("benchmark table has no entries")
	}
	seen := make(map[core.TrialKey]int, len(t))
	for i, e := range t {
		if err := e.Key().Validate(); err != nil {
			return fmt.Errorf("entry %d: %w", i, err)
		}
		if e.Automatic < 0 || e.Manual < 0 || e.Failed < 0 {
			return fmt.Errorf("entry %d (%s): counts must be >= 0", i, e.Key())
		}
		if prev, ok := seen[e.Key()]; ok {
			return fmt.Errorf("entry %d (%s): duplicates entry %d", i, e.Key(), prev)
		}
		seen[e.Key()] = i
	}
	return nil
}

type tableFile struct {
	Entries Table `yaml:"entries"`
}

// LoadTable reads and validates a YAML benchmark table.
func LoadTable(path string) (Table, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading benchmark table: %w", err)
	}

	var f tableFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parsing benchmark table: %w", err)
	}

	if err := f.Entries.Validate(); err != nil {
		return nil, fmt.Errorf("validating benchmark table: %w", err)
	}
	return f.Entries, nil
}
