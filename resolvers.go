package filediffs

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
)

// ErrCanceled is returned when the user dismisses a prompt. It is not a failure.
var ErrCanceled = errors.New("canceled")

// Source is where the second side of a comparison comes from.
type Source int

const (
	SourceClipboard Source = iota
	SourceSelections
	SourceSaved
	SourceFile
	SourceTab
)

// Mode tells whether the active side is the whole file or the selected text.
type Mode int

const (
	FileMode Mode = iota
	SelectionMode
)

func (m Mode) noun() string {
	if m == SelectionMode {
		return "selection"
	}
	return "file"
}

// Label returns the menu text for s.
func (s Source) Label(m Mode) string {
	switch s {
	case SourceClipboard:
		return fmt.Sprintf("Diff %s with Clipboard", m.noun())
	case SourceSelections:
		return "Diff Selections"
	case SourceSaved:
		return fmt.Sprintf("Diff %s with Saved", m.noun())
	case SourceFile:
		return fmt.Sprintf("Diff %s with File in Project…", m.noun())
	case SourceTab:
		return fmt.Sprintf("Diff %s with Open Tab…", m.noun())
	default:
		return fmt.Sprintf("Source(%d)", int(s))
	}
}

// Menu returns the sources that apply to v, in menu order, and the mode
// their labels should use.
func Menu(v View) ([]Source, Mode) {
	sources := []Source{SourceClipboard, SourceSaved, SourceFile, SourceTab}
	mode := FileMode
	switch n := len(v.NonEmptySelections()); {
	case n == 2:
		sources = []Source{SourceClipboard, SourceSelections, SourceSaved, SourceFile, SourceTab}
	case n > 0:
		mode = SelectionMode
	}
	if v.FileName == "" || !v.Dirty {
		filtered := sources[:0]
		for _, s := range sources {
			if s != SourceSaved {
				filtered = append(filtered, s)
			}
		}
		sources = filtered
	}
	return sources, mode
}

// CurrentUnit returns the active side of v: its selected text, the file itself
// when it is saved and clean, or else the whole buffer.
func CurrentUnit(v View) *Unit {
	text := strings.Join(v.NonEmptySelections(), "")
	if text == "" {
		if v.FileName != "" && !v.Dirty {
			return FileUnit(v.FileName, "")
		}
		text = v.Text
	}
	name := v.FileName
	if name == "" {
		name = v.Name
	}
	return TextUnit(text, name+"_(Unsaved)")
}

// Resolve gathers the two sides for source. The returned units must be
// released by the caller, usually by handing them to Engine.Diff.
// ErrCanceled is returned if the user dismissed a prompt.
func Resolve(ctx context.Context, h Host, source Source) (*Unit, *Unit, error) {
	switch source {
	case SourceClipboard:
		return resolveClipboard(h)
	case SourceSelections:
		return resolveSelections(h)
	case SourceSaved:
		return resolveSaved(h)
	case SourceFile:
		return resolveFile(ctx, h)
	case SourceTab:
		return resolveTab(ctx, h)
	default:
		return nil, nil, fmt.Errorf("unknown source %d", int(source))
	}
}

func resolveClipboard(h Host) (*Unit, *Unit, error) {
	text, err := h.Clipboard()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read clipboard: %w", err)
	}
	return CurrentUnit(h.ActiveView()), TextUnit(text, "(clipboard)"), nil
}

func resolveSelections(h Host) (*Unit, *Unit, error) {
	sel := h.ActiveView().NonEmptySelections()
	if len(sel) < 2 {
		return nil, nil, fmt.Errorf("two selections are required, got %d", len(sel))
	}
	return TextUnit(TrimIndent(sel[0]), "first selection"),
		TextUnit(TrimIndent(sel[1]), "second selection"), nil
}

func resolveSaved(h Host) (*Unit, *Unit, error) {
	v := h.ActiveView()
	if v.FileName == "" {
		return nil, nil, fmt.Errorf("buffer %q has never been saved", v.Name)
	}
	return FileUnit(v.FileName, ""), CurrentUnit(v), nil
}

func resolveFile(ctx context.Context, h Host) (*Unit, *Unit, error) {
	v := h.ActiveView()
	choices, err := ProjectChoices(h.Folders(), v.FileName)
	if err != nil {
		return nil, nil, err
	}
	if len(choices) == 0 {
		return nil, nil, fmt.Errorf("no other files found in project folders")
	}
	labels := make([]string, len(choices))
	for i, c := range choices {
		labels[i] = c.Label
	}
	idx, err := choose(ctx, h, labels)
	if err != nil {
		return nil, nil, err
	}
	return CurrentUnit(v), FileUnit(choices[idx].Path, ""), nil
}

func resolveTab(ctx context.Context, h Host) (*Unit, *Unit, error) {
	v := h.ActiveView()
	choices := TabChoices(h.Views(), v.ID)
	var idx int
	switch len(choices) {
	case 0:
		return nil, nil, fmt.Errorf("no other open views")
	case 1:
	default:
		labels := make([]string, len(choices))
		for i, c := range choices {
			labels[i] = filepath.Base(c.Label)
		}
		var err error
		if idx, err = choose(ctx, h, labels); err != nil {
			return nil, nil, err
		}
	}
	c := choices[idx]
	return CurrentUnit(v), TextUnit(c.Text, c.Label), nil
}

// TabChoices lists the views other than the one with id current. Text is the
// buffer content as shown, not the file on disk. Label is the file name, the
// view name, or "untitled N" for views with neither.
func TabChoices(views []View, current int) []Choice {
	var choices []Choice
	untitled := 1
	for _, v := range views {
		if v.ID == current {
			continue
		}
		label := v.FileName
		if label == "" {
			label = v.Name
		}
		if label == "" {
			label = fmt.Sprintf("untitled %d", untitled)
			untitled++
		}
		choices = append(choices, Choice{Label: label, Path: v.FileName, Text: v.Text})
	}
	return choices
}

func choose(ctx context.Context, h Host, items []string) (int, error) {
	idx, err := h.Choose(ctx, items)
	if err != nil {
		return -1, err
	}
	if idx < 0 {
		return -1, ErrCanceled
	}
	if idx >= len(items) {
		return -1, fmt.Errorf("choice %d out of range", idx)
	}
	return idx, nil
}
