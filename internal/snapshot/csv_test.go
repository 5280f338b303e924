package snapshot

import (
	"bytes"
	"encoding/csv"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"go-jobwatch-automation/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func readCSV(t *testing.T, path string) (bom bool, rows [][]string) {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	bom = bytes.HasPrefix(data, []byte("\xEF\xBB\xBF"))
	data = bytes.TrimPrefix(data, []byte("\xEF\xBB\xBF"))
	rows, err = csv.NewReader(bytes.NewReader(data)).ReadAll()
	require.NoError(t, err)
	return bom, rows
}

func TestWrite_OverwritesSnapshot(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out", "jobs.csv")

	first := []models.Posting{
		{ID: "1", Title: "Dev, Backend", Company: "Acme", PostDateRaw: "Sep 1, 2025", JobTypes: []string{"Co-op", "Full-time"}, Description: "<p>Go &amp; <b>SQL</b></p>"},
		{ID: "2", Title: "Café Tester", Company: "Bistro"},
	}
	require.NoError(t, Write(path, first))

	bom, rows := readCSV(t, path)
	assert.True(t, bom)
	require.Len(t, rows, 3)
	assert.Equal(t, Columns, rows[0])
	assert.Equal(t, "Dev, Backend", rows[1][1])
	assert.Equal(t, "Co-op, Full-time", rows[1][6])
	assert.Equal(t, "Go & SQL", rows[1][11])
	assert.Equal(t, "Café Tester", rows[2][1])

	require.NoError(t, Write(path, first[:1]))
	_, rows = readCSV(t, path)
	assert.Len(t, rows, 2, "second write replaces, never appends")
}

func TestStripHTML(t *testing.T) {
	assert.Equal(t, "", StripHTML("", 10))
	assert.Equal(t, "Hello world", StripHTML("<div><p>Hello</p>\n<p>world</p><script>x()</script></div>", 50))
	assert.Equal(t, "plain text", StripHTML("plain   text", 50))

	long := strings.Repeat("é", 20)
	got := StripHTML(long, 10)
	assert.Equal(t, strings.Repeat("é", 9)+"…", got)
}
