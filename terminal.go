package filediffs

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/atotto/clipboard"
)

// TerminalOption describes the editor state a terminal session stands in for.
type TerminalOption struct {
	// File is the active file. Its content on disk is the saved version.
	File string
	// Buffer holds unsaved content for the active view: a path, or "-" for stdin.
	Buffer string
	// Selections are 1-based inclusive line ranges such as "3:7".
	Selections []string
	// Tabs are other open files.
	Tabs []string
	// Roots are the project folders.
	Roots []string
	// Pick answers the first prompt with an index (1-based) or a label.
	Pick string
}

// TerminalHost is a Host backed by files, stdin and the system clipboard.
type TerminalHost struct {
	active  View
	views   []View
	folders []string
	pick    string

	in     *bufio.Reader
	out    io.Writer
	errOut io.Writer

	readClipboard func() (string, error)
}

var _ Host = (*TerminalHost)(nil)

// NewTerminalHost reads the files named by opt and returns a Host over them.
func NewTerminalHost(opt TerminalOption, stdin io.Reader, stdout, stderr io.Writer) (*TerminalHost, error) {
	active := View{ID: 0, FileName: opt.File}
	switch {
	case opt.Buffer == "-":
		b, err := io.ReadAll(stdin)
		if err != nil {
			return nil, fmt.Errorf("failed to read buffer from stdin: %w", err)
		}
		active.Text, active.Name, active.Dirty = string(b), "stdin", true
		stdin = strings.NewReader("")
	case opt.Buffer != "":
		text, err := readText(opt.Buffer)
		if err != nil {
			return nil, err
		}
		active.Text, active.Name, active.Dirty = text, filepath.Base(opt.Buffer), true
	case opt.File != "":
		text, err := readText(opt.File)
		if err != nil {
			return nil, err
		}
		active.Text = text
	default:
		return nil, errors.New("either a file or a buffer is required")
	}

	for _, r := range opt.Selections {
		sel, err := selectLines(active.Text, r)
		if err != nil {
			return nil, err
		}
		active.Selections = append(active.Selections, sel)
	}

	views := []View{active}
	for i, path := range opt.Tabs {
		text, err := readText(path)
		if err != nil {
			return nil, err
		}
		views = append(views, View{ID: i + 1, FileName: path, Text: text})
	}

	return &TerminalHost{
		active:        active,
		views:         views,
		folders:       opt.Roots,
		pick:          opt.Pick,
		in:            bufio.NewReader(stdin),
		out:           stdout,
		errOut:        stderr,
		readClipboard: clipboard.ReadAll,
	}, nil
}

// selectLines returns the lines START through END of text, joined by "\n".
func selectLines(text, spec string) (string, error) {
	from, to, ok := strings.Cut(spec, ":")
	if !ok {
		to = from
	}
	start, err := strconv.Atoi(from)
	if err != nil {
		return "", fmt.Errorf("invalid selection %q: %w", spec, err)
	}
	end, err := strconv.Atoi(to)
	if err != nil {
		return "", fmt.Errorf("invalid selection %q: %w", spec, err)
	}
	lines := splitLines(text)
	if start < 1 || end < start || end > len(lines) {
		return "", fmt.Errorf("selection %q is outside lines 1-%d", spec, len(lines))
	}
	return strings.Join(lines[start-1:end], "\n"), nil
}

func (h *TerminalHost) ActiveView() View  { return h.active }
func (h *TerminalHost) Views() []View     { return h.views }
func (h *TerminalHost) Folders() []string { return h.folders }

func (h *TerminalHost) Clipboard() (string, error) {
	return h.readClipboard()
}

// Choose answers from the preset pick if there is one, otherwise it prints a
// numbered list and reads the answer. An empty answer cancels.
func (h *TerminalHost) Choose(ctx context.Context, items []string) (int, error) {
	if pick := h.pick; pick != "" {
		h.pick = ""
		return pickIndex(items, pick)
	}

	for i, item := range items {
		fmt.Fprintf(h.errOut, "%3d) %s\n", i+1, item)
	}
	fmt.Fprintf(h.errOut, "Select [1-%d]: ", len(items))
	line, err := h.in.ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return -1, fmt.Errorf("failed to read choice: %w", err)
	}
	line = strings.TrimSpace(line)
	if line == "" {
		return -1, nil
	}
	return pickIndex(items, line)
}

func pickIndex(items []string, pick string) (int, error) {
	if n, err := strconv.Atoi(pick); err == nil {
		if n < 1 || n > len(items) {
			return -1, fmt.Errorf("choice %d is outside 1-%d", n, len(items))
		}
		return n - 1, nil
	}
	for i, item := range items {
		if item == pick {
			return i, nil
		}
	}
	return -1, fmt.Errorf("no choice named %q", pick)
}

func (h *TerminalHost) ShowReport(report string) error {
	_, err := io.WriteString(h.out, report)
	return err
}

func (h *TerminalHost) Status(msg string) {
	fmt.Fprintln(h.errOut, msg)
}
