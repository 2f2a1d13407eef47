package filediffs

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// ErrConstruction is the panic value when a Unit is built without an origin.
var ErrConstruction = errors.New("filediffs: unit needs a file path or text content")

// Origin is where the content of a Unit comes from: a FilePath or an InMemoryText.
type Origin interface {
	isOrigin()
}

// FilePath is an existing file on disk.
type FilePath string

// InMemoryText is text that only lives in memory until a file path is needed.
type InMemoryText string

func (FilePath) isOrigin()     {}
func (InMemoryText) isOrigin() {}

// Unit is one side of a comparison.
//
// A Unit is resolved lazily: Path writes in-memory text to a temp file on first
// use and Lines reads a file on first use. Both results are memoized. Close removes
// the temp file if this Unit created one. A Unit is not safe for concurrent use.
type Unit struct {
	origin  Origin
	caption string

	materialized string
	owned        bool
	lines        []string
	closed       bool
}

// NewUnit returns a Unit for origin. caption may be empty, in which case
// Caption falls back to Path. NewUnit panics with ErrConstruction if origin is
// nil or an empty FilePath.
func NewUnit(origin Origin, caption string) *Unit {
	switch o := origin.(type) {
	case FilePath:
		if o == "" {
			panic(ErrConstruction)
		}
	case InMemoryText:
	default:
		panic(ErrConstruction)
	}
	return &Unit{origin: origin, caption: caption}
}

// FileUnit is shorthand for NewUnit(FilePath(path), caption).
func FileUnit(path, caption string) *Unit {
	return NewUnit(FilePath(path), caption)
}

// TextUnit is shorthand for NewUnit(InMemoryText(text), caption).
func TextUnit(text, caption string) *Unit {
	return NewUnit(InMemoryText(text), caption)
}

// Origin returns the origin the Unit was built from.
func (u *Unit) Origin() Origin {
	return u.origin
}

// Path returns a file holding the Unit's content. For in-memory text the first
// call writes a temp file owned by the Unit; later calls return the same path.
func (u *Unit) Path() (string, error) {
	switch o := u.origin.(type) {
	case FilePath:
		return string(o), nil
	case InMemoryText:
		if u.closed {
			return "", fmt.Errorf("unit %q is already closed", u.caption)
		}
		if u.materialized != "" {
			return u.materialized, nil
		}
		path, err := writeTemp(string(o), tempSuffix(u.caption))
		if err != nil {
			return "", err
		}
		u.materialized = path
		u.owned = true
		return path, nil
	}
	panic(ErrConstruction)
}

// Lines returns the content split into lines without terminators.
func (u *Unit) Lines() ([]string, error) {
	if u.lines != nil {
		return u.lines, nil
	}
	switch o := u.origin.(type) {
	case InMemoryText:
		u.lines = splitLines(string(o))
	case FilePath:
		text, err := readText(string(o))
		if err != nil {
			return nil, err
		}
		u.lines = splitLines(text)
	default:
		panic(ErrConstruction)
	}
	return u.lines, nil
}

// Caption returns the explicit caption, or the Unit's path when there is none.
func (u *Unit) Caption() (string, error) {
	if u.caption != "" {
		return u.caption, nil
	}
	return u.Path()
}

// Owned reports whether the Unit created a temp file that Close will remove.
func (u *Unit) Owned() bool {
	return u.owned
}

// Close removes the temp file created by Path, if any. It never removes a
// FilePath origin and is a no-op after the first call.
func (u *Unit) Close() error {
	if u.closed {
		return nil
	}
	u.closed = true
	if !u.owned {
		return nil
	}
	if err := os.Remove(u.materialized); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to remove temp file %s: %w", u.materialized, err)
	}
	return nil
}

// tempSuffix keeps the caption's extension so external tools can pick a
// syntax mode. Extensions that are not plain alphanumerics are dropped.
func tempSuffix(caption string) string {
	ext := filepath.Ext(caption)
	if len(ext) < 2 {
		return ""
	}
	for _, r := range ext[1:] {
		if !(r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z' || r >= '0' && r <= '9') {
			return ""
		}
	}
	return ext
}

func writeTemp(text, ext string) (string, error) {
	f, err := os.CreateTemp("", "filediffs-*"+ext)
	if err != nil {
		return "", fmt.Errorf("failed to create temp file: %w", err)
	}
	if _, err := f.WriteString(text); err != nil {
		f.Close()
		os.Remove(f.Name())
		return "", fmt.Errorf("failed to write temp file %s: %w", f.Name(), err)
	}
	if err := f.Close(); err != nil {
		os.Remove(f.Name())
		return "", fmt.Errorf("failed to write temp file %s: %w", f.Name(), err)
	}
	return f.Name(), nil
}
