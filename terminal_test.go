package filediffs

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestTerminal(t *testing.T, opt TerminalOption, stdin string) (*TerminalHost, *bytes.Buffer, *bytes.Buffer) {
	t.Helper()
	var out, errOut bytes.Buffer
	h, err := NewTerminalHost(opt, strings.NewReader(stdin), &out, &errOut)
	require.NoError(t, err)
	return h, &out, &errOut
}

func TestTerminalHost_ActiveView(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "a.txt")
	require.NoError(t, os.WriteFile(file, []byte("one\ntwo\nthree\n"), 0o644))

	h, _, _ := newTestTerminal(t, TerminalOption{File: file, Selections: []string{"2:3", "1"}}, "")
	v := h.ActiveView()
	assert.Equal(t, file, v.FileName)
	assert.False(t, v.Dirty)
	assert.Equal(t, "one\ntwo\nthree\n", v.Text)
	assert.Equal(t, []string{"two\nthree", "one"}, v.Selections)

	h, _, _ = newTestTerminal(t, TerminalOption{File: file, Buffer: "-"}, "edited\n")
	v = h.ActiveView()
	assert.True(t, v.Dirty)
	assert.Equal(t, "edited\n", v.Text)
}

func TestTerminalHost_Errors(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "a.txt")
	require.NoError(t, os.WriteFile(file, []byte("one\n"), 0o644))

	tests := []struct {
		name string
		opt  TerminalOption
	}{
		{"no file or buffer", TerminalOption{}},
		{"missing file", TerminalOption{File: filepath.Join(dir, "missing")}},
		{"selection out of range", TerminalOption{File: file, Selections: []string{"1:5"}}},
		{"bad selection", TerminalOption{File: file, Selections: []string{"a:b"}}},
		{"missing tab", TerminalOption{File: file, Tabs: []string{filepath.Join(dir, "missing")}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewTerminalHost(tt.opt, strings.NewReader(""), &bytes.Buffer{}, &bytes.Buffer{})
			assert.Error(t, err)
		})
	}
}

func TestTerminalHost_Choose(t *testing.T) {
	items := []string{"alpha", "beta", "gamma"}
	file := filepath.Join(t.TempDir(), "a.txt")
	require.NoError(t, os.WriteFile(file, nil, 0o644))

	t.Run("prompt", func(t *testing.T) {
		h, _, errOut := newTestTerminal(t, TerminalOption{File: file}, "2\n")
		idx, err := h.Choose(context.Background(), items)
		require.NoError(t, err)
		assert.Equal(t, 1, idx)
		assert.Contains(t, errOut.String(), "  2) beta")
	})

	t.Run("empty answer cancels", func(t *testing.T) {
		h, _, _ := newTestTerminal(t, TerminalOption{File: file}, "")
		idx, err := h.Choose(context.Background(), items)
		require.NoError(t, err)
		assert.Equal(t, -1, idx)
	})

	t.Run("pick by label then prompt", func(t *testing.T) {
		h, _, _ := newTestTerminal(t, TerminalOption{File: file, Pick: "gamma"}, "1\n")
		idx, err := h.Choose(context.Background(), items)
		require.NoError(t, err)
		assert.Equal(t, 2, idx)
		idx, err = h.Choose(context.Background(), items)
		require.NoError(t, err)
		assert.Equal(t, 0, idx)
	})

	t.Run("bad pick", func(t *testing.T) {
		h, _, _ := newTestTerminal(t, TerminalOption{File: file, Pick: "9"}, "")
		_, err := h.Choose(context.Background(), items)
		assert.Error(t, err)
	})
}

func TestTerminalHost_Tabs(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "a.txt")
	other := filepath.Join(dir, "b.txt")
	require.NoError(t, os.WriteFile(file, []byte("a\n"), 0o644))
	require.NoError(t, os.WriteFile(other, []byte("b\n"), 0o644))

	h, out, _ := newTestTerminal(t, TerminalOption{File: file, Tabs: []string{other}}, "")
	app := newTestApp(t, &Config{}, h)
	require.NoError(t, app.Run(context.Background(), SourceTab))
	assert.Equal(t, "--- "+file+"\n+++ "+other+"\n@@ -1 +1 @@\n-a\n+b\n", out.String())
}

func TestTerminalHost_SavedNoDifference(t *testing.T) {
	file := filepath.Join(t.TempDir(), "a.txt")
	require.NoError(t, os.WriteFile(file, []byte("same\n"), 0o644))

	h, out, errOut := newTestTerminal(t, TerminalOption{File: file, Buffer: "-"}, "same\n")
	app := newTestApp(t, &Config{}, h)
	require.NoError(t, app.Run(context.Background(), SourceSaved))
	assert.Empty(t, out.String())
	assert.Equal(t, "No Difference\n", errOut.String())
}
