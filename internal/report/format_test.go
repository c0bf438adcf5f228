package report

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"shadowbench/internal/core"
)

func sampleRecords() []core.TrialRecord {
	return []core.TrialRecord{
		{Key: core.TrialKey{Driver: "snd", Application: "mp3_player"}, Automatic: 79, Manual: 16, Failed: 5},
		{Key: core.TrialKey{Driver: "e1000", Application: "network_file_transfer"}, Automatic: 97, Manual: 3},
	}
}

func TestRenderString_Rows(t *testing.T) {
	output := RenderString(sampleRecords())
	lines := strings.Split(output, "\n")

	require.Len(t, lines, 7)
	assert.Equal(t, Header, lines[0])
	assert.Equal(t, "Driver/Application            | Trials | Automatic   | Manual      | Failed", lines[1])
	assert.Equal(t, "------------------------------|--------|-------------|-------------|------------", lines[2])
	assert.Equal(t, "snd/mp3_player                |    100 |  79 ( 79%)  |  16 ( 16%)  |   5 (  5%)", lines[3])
	assert.Equal(t, "e1000/network_file_transfer   |    100 |  97 ( 97%)  |   3 (  3%)  |   0 (  0%)", lines[4])
	assert.Equal(t, "", lines[5], "section must end with a blank line")
}

func TestRenderString_Empty(t *testing.T) {
	output := RenderString(nil)

	assert.True(t, strings.HasPrefix(output, Header+"\n"))
	assert.Equal(t, 4, strings.Count(output, "\n"), "header, columns, separator and blank line only")
}

func TestRenderString_Deterministic(t *testing.T) {
	a := RenderString(sampleRecords())
	b := RenderString(sampleRecords())
	assert.Equal(t, a, b)
}

func TestRender_DoesNotMutate(t *testing.T) {
	records := sampleRecords()
	before := append([]core.TrialRecord(nil), records...)

	var buf bytes.Buffer
	require.NoError(t, Render(&buf, records))

	assert.Equal(t, before, records)
	assert.Equal(t, RenderString(records), buf.String())
}

type failingWriter struct{}

func (failingWriter) Write([]byte) (int, error) { return 0, errors.New("disk full") }

func TestRender_WriterError(t *testing.T) {
	err := Render(failingWriter{}, sampleRecords())
	assert.EqualError(t, err, "disk full")
}

func TestFormatJSON(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, FormatJSON(&buf, sampleRecords()[:1]))

	expected := `[
  {
    "driver": "snd",
    "application": "mp3_player",
    "automatic": 79,
    "manual": 16,
    "failed": 5,
    "total": 100
  }
]
`
	assert.Equal(t, expected, buf.String())
}

func TestFormatJSON_Empty(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, FormatJSON(&buf, nil))
	assert.Equal(t, "[]\n", buf.String())
}

func TestFormatCSV(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, FormatCSV(&buf, sampleRecords()))

	expected := "Driver,Application,Total Trials,Automatic Recovery %,Manual Recovery %,Failed Recovery %\n" +
		"snd,mp3_player,100,79,16,5\n" +
		"e1000,network_file_transfer,100,97,3,0\n"
	assert.Equal(t, expected, buf.String())
}

func TestParseFormat(t *testing.T) {
	for _, name := range []string{"text", "json", "csv"} {
		f, err := ParseFormat(name)
		require.NoError(t, err)
		assert.Equal(t, Format(name), f)
	}

	_, err := ParseFormat("xml")
	assert.Error(t, err)
}

func TestWrite_Dispatch(t *testing.T) {
	var text, csvOut bytes.Buffer
	require.NoError(t, Write(&text, Text, sampleRecords()))
	require.NoError(t, Write(&csvOut, CSV, sampleRecords()))

	assert.True(t, strings.HasPrefix(text.String(), Header))
	assert.True(t, strings.HasPrefix(csvOut.String(), "Driver,Application"))
}
