package filediffs

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/pmezard/go-difflib/difflib"
	"github.com/sergi/go-diff/diffmatchpatch"
)

// Line matching algorithms.
const (
	AlgorithmDifflib = "difflib"
	AlgorithmMyers   = "myers"
)

// DefaultContext is the number of unchanged lines shown around each change.
const DefaultContext = 3

// opCode describes how to turn a[i1:i2] into b[j1:j2].
// tag is 'e' (equal), 'r' (replace), 'd' (delete) or 'i' (insert).
type opCode struct {
	tag    byte
	i1, i2 int
	j1, j2 int
}

type lineMatcher func(a, b []string) []opCode

func matcherFor(algorithm string) (lineMatcher, error) {
	switch algorithm {
	case "", AlgorithmDifflib:
		return difflibOpCodes, nil
	case AlgorithmMyers:
		return myersOpCodes, nil
	default:
		return nil, fmt.Errorf("unknown diff algorithm %q", algorithm)
	}
}

// difflibOpCodes matches lines with the SequenceMatcher longest matching block
// algorithm.
func difflibOpCodes(a, b []string) []opCode {
	m := difflib.NewMatcher(a, b)
	var ops []opCode
	for _, c := range m.GetOpCodes() {
		ops = append(ops, opCode{tag: c.Tag, i1: c.I1, i2: c.I2, j1: c.J1, j2: c.J2})
	}
	return ops
}

// myersOpCodes matches lines with diff-match-patch. Each distinct line is
// encoded as a single rune so the diff runs over whole lines.
func myersOpCodes(a, b []string) []opCode {
	index := map[string]rune{}
	encode := func(lines []string) []rune {
		out := make([]rune, len(lines))
		for k, line := range lines {
			r, ok := index[line]
			if !ok {
				r = lineRune(len(index))
				index[line] = r
			}
			out[k] = r
		}
		return out
	}
	ra, rb := encode(a), encode(b)

	dmp := diffmatchpatch.New()
	dmp.DiffTimeout = 0
	diffs := dmp.DiffMainRunes(ra, rb, false)

	var ops []opCode
	i, j := 0, 0
	add := func(tag byte, di, dj int) {
		if n := len(ops); n > 0 && tag != 'e' && ops[n-1].tag != 'e' {
			// Merge adjacent deletes and inserts into a single replace.
			last := &ops[n-1]
			last.tag = 'r'
			last.i2 += di
			last.j2 += dj
		} else {
			ops = append(ops, opCode{tag: tag, i1: i, i2: i + di, j1: j, j2: j + dj})
		}
		i += di
		j += dj
	}
	for _, d := range diffs {
		n := utf8.RuneCountInString(d.Text)
		if n == 0 {
			continue
		}
		switch d.Type {
		case diffmatchpatch.DiffEqual:
			add('e', n, n)
		case diffmatchpatch.DiffDelete:
			add('d', n, 0)
		case diffmatchpatch.DiffInsert:
			add('i', 0, n)
		}
	}
	return ops
}

// lineRune maps a line index to a rune, skipping the surrogate range which
// does not survive a round trip through a Go string.
func lineRune(n int) rune {
	if n >= 0xD800 {
		n += 0x800
	}
	return rune(n)
}

// groupOpCodes splits ops into hunks with up to n lines of context.
// Changes separated by no more than 2n equal lines share a hunk.
func groupOpCodes(ops []opCode, n int) [][]opCode {
	if len(ops) == 0 {
		return nil
	}
	codes := make([]opCode, len(ops))
	copy(codes, ops)

	// Trim leading and trailing equal runs down to the context size.
	if c := codes[0]; c.tag == 'e' {
		codes[0] = opCode{'e', max(c.i1, c.i2-n), c.i2, max(c.j1, c.j2-n), c.j2}
	}
	if c := codes[len(codes)-1]; c.tag == 'e' {
		codes[len(codes)-1] = opCode{'e', c.i1, min(c.i2, c.i1+n), c.j1, min(c.j2, c.j1+n)}
	}

	var groups [][]opCode
	var group []opCode
	for _, c := range codes {
		if c.tag == 'e' && c.i2-c.i1 > 2*n {
			group = append(group, opCode{'e', c.i1, min(c.i2, c.i1+n), c.j1, min(c.j2, c.j1+n)})
			groups = append(groups, group)
			group = nil
			c.i1 = max(c.i1, c.i2-n)
			c.j1 = max(c.j1, c.j2-n)
		}
		group = append(group, c)
	}
	if len(group) > 0 && !(len(group) == 1 && group[0].tag == 'e') {
		groups = append(groups, group)
	}

	// Drop groups without changes, e.g. when the input had none at all.
	out := groups[:0]
	for _, g := range groups {
		for _, c := range g {
			if c.tag != 'e' {
				out = append(out, g)
				break
			}
		}
	}
	return out
}

// unifiedDiff formats the differences between a and b as a unified diff.
// It returns an empty string if there are no differences.
func unifiedDiff(a, b []string, labelA, labelB string, context int, match lineMatcher) string {
	hunks := groupOpCodes(match(a, b), context)
	if len(hunks) == 0 {
		return ""
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "--- %s\n", labelA)
	fmt.Fprintf(&sb, "+++ %s\n", labelB)
	for _, h := range hunks {
		writeHunk(&sb, a, b, h)
	}
	return sb.String()
}

func writeHunk(sb *strings.Builder, a, b []string, h []opCode) {
	first, last := h[0], h[len(h)-1]
	fmt.Fprintf(sb, "@@ -%s +%s @@\n", formatRange(first.i1, last.i2), formatRange(first.j1, last.j2))
	for _, c := range h {
		if c.tag == 'e' {
			for _, line := range a[c.i1:c.i2] {
				sb.WriteString(" " + line + "\n")
			}
			continue
		}
		if c.tag == 'r' || c.tag == 'd' {
			for _, line := range a[c.i1:c.i2] {
				sb.WriteString("-" + line + "\n")
			}
		}
		if c.tag == 'r' || c.tag == 'i' {
			for _, line := range b[c.j1:c.j2] {
				sb.WriteString("+" + line + "\n")
			}
		}
	}
}

// formatRange renders a hunk range: "start" for one line, "start,length"
// otherwise, where an empty range starts at the line before it.
func formatRange(start, stop int) string {
	beginning := start + 1
	length := stop - start
	if length == 1 {
		return fmt.Sprintf("%d", beginning)
	}
	if length == 0 {
		beginning--
	}
	return fmt.Sprintf("%d,%d", beginning, length)
}
