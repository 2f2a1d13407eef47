package filediffs

import "context"

// View is a snapshot of an editor buffer.
type View struct {
	ID       int
	FileName string // empty for buffers that were never saved
	Name     string // display name for buffers without a file
	Dirty    bool   // true when the buffer differs from the file on disk
	Text     string
	// Selections holds the selected text, one entry per selection, in order.
	// Empty selections may be present and are ignored.
	Selections []string
}

// NonEmptySelections returns the selections that contain text.
func (v View) NonEmptySelections() []string {
	var out []string
	for _, s := range v.Selections {
		if s != "" {
			out = append(out, s)
		}
	}
	return out
}

// Host is the editor hosting a diff command.
type Host interface {
	// ActiveView returns the view the command was invoked from.
	ActiveView() View
	// Views returns every open view in the active window, including the active one.
	Views() []View
	// Folders returns the project root folders.
	Folders() []string
	// Clipboard returns the clipboard text.
	Clipboard() (string, error)
	// Choose presents items and returns the selected index, or -1 if the user
	// dismissed the prompt.
	Choose(ctx context.Context, items []string) (int, error)
	// ShowReport displays a diff report in a new, non-persistent buffer.
	ShowReport(report string) error
	// Status shows a transient notice.
	Status(msg string)
}
