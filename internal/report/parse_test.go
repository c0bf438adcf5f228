package report

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"shadowbench/internal/core"
)

func TestParse_RoundTrip(t *testing.T) {
	records := sampleRecords()

	got, err := Parse(strings.NewReader(RenderString(records)))

	require.NoError(t, err)
	assert.Equal(t, records, got)
}

func TestParse_WithPreambleAndTrailer(t *testing.T) {
	input := "Shadow Driver Test Results\nsession: 1234\n\n" +
		RenderString(sampleRecords()) +
		"unrelated trailing output | with | pipes | in | it\n"

	got, err := Parse(strings.NewReader(input))

	require.NoError(t, err)
	assert.Len(t, got, 2)
}

func TestParse_EmptySection(t *testing.T) {
	got, err := Parse(strings.NewReader(RenderString(nil)))

	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestParse_NoHeader(t *testing.T) {
	_, err := Parse(strings.NewReader("nothing to see here\n"))
	assert.True(t, errors.Is(err, ErrNoResults))
}

func TestParse_MalformedRows(t *testing.T) {
	tests := []struct {
		name string
		row  string
		want string
	}{
		{"missing columns", "snd/mp3_player | 100 | 79", "expected 5 columns"},
		{"missing slash", "sndmp3 | 1 | 1 (100%) | 0 (0%) | 0 (0%)", "malformed key"},
		{"bad total", "snd/mp3 | x | 1 (100%) | 0 (0%) | 0 (0%)", "malformed trial count"},
		{"bad cell", "snd/mp3 | 1 | one | 0 (0%) | 0 (0%)", "malformed automatic cell"},
		{"sum mismatch", "snd/mp3 | 5 | 1 (100%) | 0 (0%) | 0 (0%)", "sum to 1"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse(strings.NewReader(Header + "\n" + tt.row + "\n"))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestParse_KeyWithSlashInApplication(t *testing.T) {
	records := []core.TrialRecord{
		{Key: core.TrialKey{Driver: "ide", Application: "db/postgres"}, Failed: 2},
	}

	got, err := Parse(strings.NewReader(RenderString(records)))

	require.NoError(t, err)
	assert.Equal(t, records, got)
}
