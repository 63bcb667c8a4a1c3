package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/outreach-cli/internal/pipeline"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var buf bytes.Buffer
	rootCmd.SetOut(&buf)
	rootCmd.SetErr(&buf)
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return buf.String(), err
}

func setupTestEnv(t *testing.T) {
	t.Helper()
	dir := t.TempDir()
	origDir, _ := os.Getwd()
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { os.Chdir(origDir) })
	t.Setenv("OUTREACH_STORE_DRIVER", "sqlite")
	t.Setenv("OUTREACH_STORE_DATABASE_URL", filepath.Join(dir, "leads.db"))
	t.Setenv("OUTREACH_LOG_LEVEL", "error")
}

func TestInitCommand(t *testing.T) {
	setupTestEnv(t)
	out, err := execute(t, "init")
	require.NoError(t, err)
	assert.Contains(t, out, "Database ready")
}

func TestScoreCommand_EmptyStore(t *testing.T) {
	setupTestEnv(t)
	_, err := execute(t, "init")
	require.NoError(t, err)

	out, err := execute(t, "score")
	require.NoError(t, err)
	assert.Contains(t, out, "Leads scored:  0")
}

func TestClearCommand_RequiresExactToken(t *testing.T) {
	setupTestEnv(t)
	_, err := execute(t, "init")
	require.NoError(t, err)

	_, err = execute(t, "clear-all", "--confirm", "yes please")
	require.Error(t, err)

	out, err := execute(t, "clear-all", "--confirm", pipeline.ClearConfirmToken)
	require.NoError(t, err)
	assert.Contains(t, out, "All lead data cleared.")
}

func TestSendCommand_InvalidDate(t *testing.T) {
	setupTestEnv(t)
	_, err := execute(t, "init")
	require.NoError(t, err)

	_, err = execute(t, "send", "--date", "tomorrow")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid action date")
}

func TestReadQueriesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "queries.txt")
	require.NoError(t, os.WriteFile(path, []byte(`
# seed queries
cnc machine shop ohio

metal fabrication indiana
`), 0644))

	queries, err := readQueriesFile(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"cnc machine shop ohio", "metal fabrication indiana"}, queries)

	_, err = readQueriesFile(filepath.Join(t.TempDir(), "missing.txt"))
	assert.Error(t, err)
}
