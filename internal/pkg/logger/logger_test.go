package logger

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIsolatedLoggerRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "audit.log")
	l := NewIsolatedLogger(path)

	l.Info("AUDIT", "phase changed", map[string]interface{}{"session_id": "s1"})
	l.Info("AUDIT", "phase changed", map[string]interface{}{"session_id": "s2"})
	l.Warn("AUDIT", "item discarded", map[string]interface{}{"session_id": "s1"})
	l.Debug("AUDIT", "dropped below info", nil)
	require.NoError(t, l.Sync())

	got, err := ReadEntries(path, func(e LogEntry) bool { return e.Details["session_id"] == "s1" }, 0)

	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "item discarded", got[0].Message)
	assert.Equal(t, "WARN", got[0].Level)
	assert.Equal(t, "AUDIT", got[1].Module)
}

func TestReadEntriesLimitAndMissingFile(t *testing.T) {
	dir := t.TempDir()
	got, err := ReadEntries(filepath.Join(dir, "none.log"), nil, 10)
	require.NoError(t, err)
	assert.Empty(t, got)

	path := filepath.Join(dir, "x.log")
	lines := `{"level":"INFO","message":"a"}
not json
{"level":"INFO","message":"b"}
{"level":"INFO","message":"c"}
`
	require.NoError(t, os.WriteFile(path, []byte(lines), 0o644))

	got, err = ReadEntries(path, nil, 2)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "c", got[0].Message)
	assert.Equal(t, "b", got[1].Message)
}

func TestNopLogger(t *testing.T) {
	l := NewNop()
	l.Error("X", "ignored", map[string]interface{}{"error": "boom"})
	assert.Empty(t, l.FilePath())
}
