package filediffs

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestEngine(t *testing.T, cfg *Config) *Engine {
	t.Helper()
	e, err := NewEngine(cfg, WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))))
	require.NoError(t, err)
	return e
}

func TestEngine_Report(t *testing.T) {
	e := newTestEngine(t, &Config{})
	a := TextUnit("a\nb\nc\n", "left")
	b := TextUnit("a\nx\nc\n", "right")

	res, err := e.Diff(context.Background(), a, b)
	require.NoError(t, err)
	assert.Equal(t, OutcomeReport, res.Outcome)
	assert.Equal(t, "--- left\n+++ right\n@@ -1,3 +1,3 @@\n a\n-b\n+x\n c\n", res.Report)
	assert.NoError(t, res.Wait())
}

func TestEngine_NoDifference(t *testing.T) {
	e := newTestEngine(t, &Config{})

	res, err := e.Diff(context.Background(), TextUnit("same\ntext", "a"), TextUnit("same\ntext", "b"))
	require.NoError(t, err)
	assert.Equal(t, OutcomeNoDifference, res.Outcome)
	assert.Empty(t, res.Report)

	// Line terminators do not count as differences.
	res, err = e.Diff(context.Background(), TextUnit("same\r\ntext\r\n", "a"), TextUnit("same\ntext", "b"))
	require.NoError(t, err)
	assert.Equal(t, OutcomeNoDifference, res.Outcome)
}

func TestEngine_FileAgainstText(t *testing.T) {
	path := filepath.Join(t.TempDir(), "saved.txt")
	require.NoError(t, os.WriteFile(path, []byte("one\ntwo\n"), 0o644))

	e := newTestEngine(t, &Config{Algorithm: AlgorithmMyers})
	res, err := e.Diff(context.Background(), FileUnit(path, ""), TextUnit("one\n2\n", "buffer_(Unsaved)"))
	require.NoError(t, err)
	assert.Equal(t, "--- "+path+"\n+++ buffer_(Unsaved)\n@@ -1,2 +1,2 @@\n one\n-two\n+2\n", res.Report)
	assert.FileExists(t, path)
}

func TestEngine_ReleasesUnitsOnError(t *testing.T) {
	e := newTestEngine(t, &Config{})
	a := TextUnit("text", "")
	tmp, err := a.Path()
	require.NoError(t, err)

	_, err = e.Diff(context.Background(), a, FileUnit(filepath.Join(t.TempDir(), "missing"), ""))
	require.ErrorIs(t, err, os.ErrNotExist)
	assert.NoFileExists(t, tmp)
}

func TestEngine_ContextLines(t *testing.T) {
	one := 1
	e := newTestEngine(t, &Config{Context: &one})
	res, err := e.Diff(context.Background(), TextUnit("1\n2\n3\n4\n5\n", "a"), TextUnit("1\n2\nx\n4\n5\n", "b"))
	require.NoError(t, err)
	assert.Equal(t, "--- a\n+++ b\n@@ -2,3 +2,3 @@\n 2\n-3\n+x\n 4\n", res.Report)
}

func TestEngine_CommandLine(t *testing.T) {
	e := newTestEngine(t, &Config{Cmd: []string{"tool", "--left=$file1", "$file2", "-L", "$caption1 vs $caption2"}})
	path := filepath.Join(t.TempDir(), "x.txt")
	require.NoError(t, os.WriteFile(path, nil, 0o644))

	a := FileUnit(path, "")
	b := TextUnit("text", "clip")
	defer b.Close()

	args, err := e.commandLine(a, b)
	require.NoError(t, err)
	tmp, _ := b.Path()
	assert.Equal(t, []string{"tool", "--left=" + path, tmp, "-L", path + " vs clip"}, args)
}

func TestEngine_ExternalToolReleasesAfterExit(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("uses cat")
	}
	if _, err := exec.LookPath("cat"); err != nil {
		t.Skip("cat not available")
	}

	e := newTestEngine(t, &Config{Cmd: []string{"difftool", "$file1", "$file2"}})
	pr, pw := io.Pipe()
	var launched []string
	e.command = func(name string, args ...string) *exec.Cmd {
		launched = append([]string{name}, args...)
		// cat runs until the test closes its stdin.
		cmd := exec.Command("cat")
		cmd.Stdin = pr
		return cmd
	}

	a := TextUnit("left\n", "a")
	b := TextUnit("right\n", "b")
	res, err := e.Diff(context.Background(), a, b)
	require.NoError(t, err)
	assert.Equal(t, OutcomeExternal, res.Outcome)

	require.Len(t, launched, 3)
	assert.Equal(t, "difftool", launched[0])
	assert.FileExists(t, launched[1])
	assert.FileExists(t, launched[2])
	left, err := os.ReadFile(launched[1])
	require.NoError(t, err)
	assert.Equal(t, "left\n", string(left))

	require.NoError(t, pw.Close())
	require.NoError(t, res.Wait())
	assert.NoFileExists(t, launched[1])
	assert.NoFileExists(t, launched[2])
}

func TestEngine_ExternalToolLaunchFailure(t *testing.T) {
	missing := filepath.Join(t.TempDir(), "no-such-difftool")
	e := newTestEngine(t, &Config{Cmd: []string{missing, "$file1", "$file2"}})

	a := TextUnit("left", "a")
	b := TextUnit("right", "b")
	pathA, err := a.Path()
	require.NoError(t, err)
	pathB, err := b.Path()
	require.NoError(t, err)

	_, err = e.Diff(context.Background(), a, b)
	require.ErrorIs(t, err, ErrExternalTool)
	assert.NoFileExists(t, pathA)
	assert.NoFileExists(t, pathB)
}

func TestEngine_OperationID(t *testing.T) {
	var buf bytes.Buffer
	log := slog.New(slog.NewJSONHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	e, err := NewEngine(&Config{}, WithLogger(log))
	require.NoError(t, err)

	_, err = e.Diff(context.Background(), TextUnit("a\n", "l"), TextUnit("a\n", "r"))
	require.NoError(t, err)
	_, err = e.Diff(context.Background(), TextUnit("a\n", "l"), TextUnit("b\n", "r"))
	require.NoError(t, err)

	var ops []string
	sc := bufio.NewScanner(&buf)
	for sc.Scan() {
		var rec struct {
			Msg string `json:"msg"`
			Op  string `json:"op"`
		}
		require.NoError(t, json.Unmarshal(sc.Bytes(), &rec))
		_, err := uuid.Parse(rec.Op)
		require.NoError(t, err, "record %q", rec.Msg)
		ops = append(ops, rec.Op)
	}
	require.Len(t, ops, 2)
	assert.NotEqual(t, ops[0], ops[1])
}

func TestNewEngine_UnknownAlgorithm(t *testing.T) {
	_, err := NewEngine(&Config{Algorithm: "nope"})
	assert.Error(t, err)
}
