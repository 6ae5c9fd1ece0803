package fixtures

import (
	"os"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"
)

var monday = time.Date(2024, 3, 4, 0, 0, 0, 0, time.UTC)

func TestGenerateWorkday(t *testing.T) {
	gen := NewTestDataGenerator(t.TempDir())
	path, err := gen.GenerateWorkday("team/alice.csv", "alice", monday)
	require.NoError(t, err)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	require.Len(t, lines, 5)
	assert.Equal(t, strings.Join(csvHeader, ","), lines[0])
	assert.Equal(t, "2024-03-04 09:00:00,2024-03-04 10:00:00,Web,3600,docs.example.com,,alice,Docs", lines[1])
}

func TestWriteJSONAndJSONL(t *testing.T) {
	gen := NewTestDataGenerator(t.TempDir())

	path, err := gen.WriteJSON("bob.json", Workday("bob", monday))
	require.NoError(t, err)
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, int64(4), gjson.GetBytes(data, "#").Int())
	assert.Equal(t, "bob", gjson.GetBytes(data, "0.User").String())
	assert.False(t, gjson.GetBytes(data, "0.Application").Exists())

	path, err = gen.GenerateLargeDataset("carol.jsonl", "carol", monday.Add(8*time.Hour), 7)
	require.NoError(t, err)
	data, err = os.ReadFile(path)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	require.Len(t, lines, 7)
	assert.Equal(t, "Idle", gjson.Get(lines[2], "Type").String())
	assert.Equal(t, "2024-03-04 08:30:00", gjson.Get(lines[6], "StartTime").String())
	assert.Equal(t, int64(300), gjson.Get(lines[6], "Duration").Int())
}

func TestCreateEmptyExportAndCleanup(t *testing.T) {
	gen := NewTestDataGenerator(t.TempDir())
	path, err := gen.CreateEmptyExport("empty.csv")
	require.NoError(t, err)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, strings.Join(csvHeader, ",")+"\n", string(data))

	require.NoError(t, gen.CleanupTestData())
	_, err = os.Stat(gen.GetBaseDir())
	assert.True(t, os.IsNotExist(err))
}
