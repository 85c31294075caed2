package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mahdiidarabi/keyscan/internal/foundlog"
	"github.com/mahdiidarabi/keyscan/pkg/pathtree"
)

// hash160 of the compressed public key of private key 1.
const key1Hash160 = "751e76e8199196d454941c45d1b3a323f1433bd6"

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out, errOut bytes.Buffer
	cmd := NewRootCmd()
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestNewRootCmd_Subcommands(t *testing.T) {
	t.Parallel()

	cmd := NewRootCmd()
	names := make(map[string]bool)
	for _, sub := range cmd.Commands() {
		names[sub.Name()] = true
	}
	for _, want := range []string{"scan", "analyze", "filter", "status", "version"} {
		assert.True(t, names[want], "missing subcommand %s", want)
	}
	assert.True(t, cmd.SilenceUsage)
}

func TestVersionCmd(t *testing.T) {
	t.Parallel()

	out, err := execute(t, "version")
	require.NoError(t, err)
	assert.Contains(t, out, "keyscan version")
	assert.NotEmpty(t, getVersion())
	assert.NotEmpty(t, getCommit())
}

func TestFilterCmd(t *testing.T) {
	t.Parallel()

	out, err := execute(t, "filter", "112233", "112211", "aab", "fff", "xyz")
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 5)
	assert.Equal(t, "112233\tvalid", lines[0])
	assert.Equal(t, "112211\trejected (repeated_double)", lines[1])
	assert.Equal(t, "aab\trejected (restricted_double)", lines[2])
	assert.Equal(t, "fff\trejected (triple)", lines[3])
	assert.True(t, strings.HasPrefix(lines[4], "xyz\tinvalid"))

	_, err = execute(t, "filter")
	require.Error(t, err)
}

func TestAnalyzeCmd(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	corpus := filepath.Join(dir, "solved.txt")
	require.NoError(t, os.WriteFile(corpus, []byte("# solved\n12\n13\n25\n8\n"), 0o600))
	table := filepath.Join(dir, "table.json")

	out, err := execute(t, "analyze", "--corpus", corpus, "--lengths", "2", "--out", table, "--threshold", "1")
	require.NoError(t, err)
	assert.Contains(t, out, "Analyzed 4 keys")
	assert.Contains(t, out, "Most common prefixes of length 2")
	assert.Contains(t, out, "keeps 2 prefixes")

	loaded, err := pathtree.LoadTable(table)
	require.NoError(t, err)
	assert.Equal(t, 4, loaded.TotalPaths)
	assert.Equal(t, []pathtree.Path{"R", "RL"}, loaded.AllowedPrefixes(1).Prefixes())

	_, err = execute(t, "analyze")
	require.Error(t, err, "--corpus is required")
}

func scanArgs(dir string, extra ...string) []string {
	args := []string{
		"scan",
		"--start", "1", "--end", "0x10",
		"--target", key1Hash160, "--format", "hash160", "--compressed",
		"--strategy", "exhaustive", "--no-filter", "--workers", "2",
		"--checkpoint-dir", filepath.Join(dir, "checkpoints"),
		"--found-log", filepath.Join(dir, "found.jsonl"),
	}
	return append(args, extra...)
}

func TestScanCmd_FindsResumesAndResets(t *testing.T) {
	dir := t.TempDir()

	out, err := execute(t, scanArgs(dir)...)
	require.NoError(t, err)
	assert.Contains(t, out, "[+] Found key 01")
	assert.Contains(t, out, "Identifier: "+key1Hash160)

	fl, err := foundlog.Open(foundlog.BackendJSONL, filepath.Join(dir, "found.jsonl"))
	require.NoError(t, err)
	recs, err := fl.Records(context.Background())
	require.NoError(t, err)
	require.NoError(t, fl.Close())
	require.Len(t, recs, 1)
	assert.Equal(t, "01", recs[0].CandidateHex)

	// The first shard resumes after the match, so the rerun finds nothing.
	out, err = execute(t, scanArgs(dir)...)
	require.NoError(t, err)
	assert.NotContains(t, out, "Found key")
	assert.Contains(t, out, "Range exhausted without a match.")

	out, err = execute(t, scanArgs(dir, "--reset")...)
	require.NoError(t, err)
	assert.Contains(t, out, "[+] Found key 01")

	out, err = execute(t, "status", "--checkpoint-dir", filepath.Join(dir, "checkpoints"))
	require.NoError(t, err)
	assert.Contains(t, out, "STRATEGY")
	assert.Equal(t, 2, strings.Count(out, "exhaustive"))
}

func TestScanCmd_ConfigFile(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("KEYSCAN_TEST_TARGET", key1Hash160)

	cfgPath := filepath.Join(dir, "keyscan.yaml")
	yaml := `range:
  start: "0x1"
  end: "0xf"
target:
  value: "${KEYSCAN_TEST_TARGET}"
  format: hash160
  compressed: true
strategy: guided
workers: 1
filter:
  enabled: false
checkpoint:
  interval: 5
  dir: ` + filepath.Join(dir, "cp") + `
found_log:
  backend: sqlite
  path: ` + filepath.Join(dir, "found.db") + `
`
	require.NoError(t, os.WriteFile(cfgPath, []byte(yaml), 0o600))

	out, err := execute(t, "scan", "--config", cfgPath)
	require.NoError(t, err)
	assert.Contains(t, out, "[+] Found key 1\n")
	assert.Contains(t, out, "Identifier: "+key1Hash160)
}

func TestScanCmd_InvalidConfiguration(t *testing.T) {
	dir := t.TempDir()

	_, err := execute(t, scanArgs(dir, "--start", "0x20")...)
	require.Error(t, err, "start beyond end")

	_, err = execute(t, scanArgs(dir, "--target", "zz")...)
	require.Error(t, err, "malformed hex target")

	_, err = execute(t, "scan", "--config", filepath.Join(dir, "missing.yaml"))
	require.Error(t, err)

	_, err = execute(t, scanArgs(dir, "--max-found", "3")...)
	require.Error(t, err, "max-found needs collect-all")
}

func TestStatusCmd_Empty(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	out, err := execute(t, "status", "--checkpoint-dir", dir)
	require.NoError(t, err)
	assert.Contains(t, out, "No checkpoints in "+dir)
}
