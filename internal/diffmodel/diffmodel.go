// Package diffmodel parses unified diffs and translates line ranges
// across the hunks they describe.
package diffmodel

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/sevigo/coderadar/internal/chunk"
)

// Hunk describes one aligned change region of a unified diff.
type Hunk struct {
	BaseStart int
	BaseLen   int
	HeadStart int
	HeadLen   int
}

// baseEnd returns the last base-side line this hunk touches (inclusive).
// For a pure insertion (BaseLen == 0) that's BaseStart itself: unified
// diff headers for insertions (e.g. `@@ -3,0 +4,2 @@`) anchor the insert
// point just after base line BaseStart, not before it.
func (h Hunk) baseEnd() int {
	if h.BaseLen == 0 {
		return h.BaseStart
	}
	return h.BaseStart + h.BaseLen - 1
}

// FileDiff is the set of hunks touching one file between two revisions.
type FileDiff struct {
	Path      string
	OldPath   string
	NewPath   string
	IsDeleted bool
	Hunks     []Hunk
}

var (
	diffGitRe  = regexp.MustCompile(`^diff --git a/(.+) b/(.+)$`)
	oldPathRe  = regexp.MustCompile(`^--- (?:a/(.+)|/dev/null)$`)
	newPathRe  = regexp.MustCompile(`^\+\+\+ (?:b/(.+)|/dev/null)$`)
	hunkHdrRe  = regexp.MustCompile(`^@@ -(\d+)(?:,(\d+))? \+(\d+)(?:,(\d+))? @@`)
	deletedHdr = "deleted file mode"
)

// ParseUnifiedDiff parses the output of `git diff --unified=0` (or similar)
// into one FileDiff per path that differs. It tolerates hunk headers
// without explicit lengths (missing length defaults to 1), produces a
// FileDiff for pure deletions even without hunks, and skips entries with
// neither hunks nor a deletion marker.
func ParseUnifiedDiff(text string) []FileDiff {
	var diffs []FileDiff
	var cur *FileDiff

	finish := func() {
		if cur == nil {
			return
		}
		if len(cur.Hunks) > 0 || cur.IsDeleted {
			diffs = append(diffs, *cur)
		}
		cur = nil
	}

	lines := strings.Split(text, "\n")
	for _, line := range lines {
		switch {
		case strings.HasPrefix(line, "diff --git "):
			finish()
			m := diffGitRe.FindStringSubmatch(line)
			fd := FileDiff{}
			if len(m) == 3 {
				fd.OldPath, fd.NewPath, fd.Path = m[1], m[2], m[2]
			}
			cur = &fd
		case strings.HasPrefix(line, deletedHdr):
			if cur != nil {
				cur.IsDeleted = true
				if cur.OldPath != "" {
					cur.Path = cur.OldPath
				}
			}
		case strings.HasPrefix(line, "--- "):
			if cur != nil {
				m := oldPathRe.FindStringSubmatch(line)
				if len(m) == 2 && m[1] != "" {
					cur.OldPath = m[1]
					if cur.IsDeleted || cur.NewPath == "" {
						cur.Path = m[1]
					}
				}
			}
		case strings.HasPrefix(line, "+++ "):
			if cur != nil {
				m := newPathRe.FindStringSubmatch(line)
				if len(m) == 2 && m[1] != "" {
					cur.NewPath = m[1]
					if !cur.IsDeleted {
						cur.Path = m[1]
					}
				}
			}
		case strings.HasPrefix(line, "@@"):
			if cur == nil {
				continue
			}
			if h, ok := parseHunkHeader(line); ok {
				cur.Hunks = append(cur.Hunks, h)
			}
		}
	}
	finish()

	return diffs
}

func parseHunkHeader(line string) (Hunk, bool) {
	m := hunkHdrRe.FindStringSubmatch(line)
	if m == nil {
		return Hunk{}, false
	}
	baseStart := atoiOr(m[1], 0)
	baseLen := atoiOr(m[2], 1)
	headStart := atoiOr(m[3], 0)
	headLen := atoiOr(m[4], 1)
	return Hunk{BaseStart: baseStart, BaseLen: baseLen, HeadStart: headStart, HeadLen: headLen}, true
}

func atoiOr(s string, def int) int {
	if s == "" {
		return def
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return def
	}
	return n
}

// Translate moves a chunk range across the supplied hunks, in order. For
// each hunk that ends at or before the range's start, both endpoints shift
// by head_len - base_len. For a hunk that overlaps the range, endpoints are
// left untouched and Relocalize is set. Hunks fully past the range are
// ignored. Hunks are assumed disjoint and sorted ascending by base line, as
// unified diff output guarantees.
func Translate(r chunk.Range, hunks []Hunk) chunk.Range {
	out := r
	for _, h := range hunks {
		delta := h.HeadLen - h.BaseLen
		switch {
		case h.baseEnd() < out.StartLine:
			out.StartLine += delta
			out.EndLine += delta
		case h.BaseLen == 0:
			// Pure insertion at or after this range's start: an empty
			// base-side span can't overlap actual content, so there's
			// nothing to relocalize, but the anchor isn't strictly
			// before the range either, so leave it untouched rather
			// than guess at a partial shift.
		case h.BaseStart > out.EndLine:
			// hunk fully past this range; no effect
		default:
			out.Relocalize = true
		}
	}
	return out
}
