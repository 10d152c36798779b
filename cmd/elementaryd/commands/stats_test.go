package commands

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunStats_RejectsMissingFile(t *testing.T) {
	t.Parallel()

	err := runStats("/nonexistent/session.log", "")
	require.Error(t, err)
}

func TestRunStats_SummarizesJSONLEntries(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := dir + "/session.log"

	content := `{"time":"2026-08-01T10:00:00Z","event":"directive","fields":{"status":"ok"}}
{"time":"2026-08-01T10:00:01Z","event":"directive","fields":{"status":"error"}}
{"time":"2026-08-01T10:00:02Z","event":"directive","fields":{"status":"ok"}}
`

	require.NoError(t, writeFile(path, content))

	err := runStats(path, "")
	require.NoError(t, err)
}

func TestRunStats_SkipsMalformedLines(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := dir + "/session.log"

	content := "not json\n" + `{"time":"2026-08-01T10:00:00Z","event":"directive","fields":{"status":"ok"}}` + "\n"

	require.NoError(t, writeFile(path, content))

	err := runStats(path, "")
	require.NoError(t, err)
}

func TestRunStats_HandlesEmptyFile(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := dir + "/empty.log"

	require.NoError(t, writeFile(path, ""))

	err := runStats(path, "")
	require.NoError(t, err)
}

func TestRunStats_WritesActivityChartWhenRequested(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	logPath := dir + "/session.log"
	chartPath := dir + "/activity.html"

	content := `{"time":"2026-08-01T10:00:00Z","event":"directive","fields":{"status":"ok"}}
{"time":"2026-08-01T10:00:30Z","event":"directive","fields":{"status":"error"}}
`

	require.NoError(t, writeFile(logPath, content))

	err := runStats(logPath, chartPath)
	require.NoError(t, err)

	info, err := os.Stat(chartPath)
	require.NoError(t, err)
	assert.Greater(t, info.Size(), int64(0))
}

func TestWriteActivityChart_EmptyBucketsStillRenders(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	chartPath := dir + "/empty.html"

	err := writeActivityChart(chartPath, map[string][2]int{})
	require.NoError(t, err)

	info, err := os.Stat(chartPath)
	require.NoError(t, err)
	assert.Greater(t, info.Size(), int64(0))
}
