// Package relocalize re-anchors unchanged chunks whose byte-slice moved
// within their file, by exact then fuzzy match against the new source.
package relocalize

import (
	"bytes"

	"github.com/sevigo/coderadar/internal/chunk"
)

// ExactRelocate searches for slice verbatim in src. It returns the
// half-open byte range of the match and true iff found.
func ExactRelocate(slice, src []byte) (start, end int, ok bool) {
	if len(slice) == 0 {
		return 0, 0, false
	}
	idx := bytes.Index(src, slice)
	if idx < 0 {
		return 0, 0, false
	}
	return idx, idx + len(slice), true
}

// FuzzyRelocate slides a window the size of slice over src at quarter-window
// strides, comparing window hashes against slice's hash. The first match
// wins.
func FuzzyRelocate(slice, src []byte) (start, end int, ok bool) {
	window := len(slice)
	if window == 0 || window > len(src) {
		return 0, 0, false
	}
	stride := window / 4
	if stride < 1 {
		stride = 1
	}

	target := chunk.Hash(string(slice))
	for offset := 0; offset+window <= len(src); offset += stride {
		candidate := src[offset : offset+window]
		if chunk.Hash(string(candidate)) == target {
			return offset, offset + window, true
		}
	}
	return 0, 0, false
}

// Relocate attempts exact relocation, then fuzzy relocation, of prevContent
// within headSrc. On success it returns a Range with recomputed line
// numbers and Relocalize cleared. On failure it returns ok=false; the
// caller must treat the chunk as changed rather than trust stale positions.
func Relocate(prevContent []byte, headSrc []byte) (r chunk.Range, ok bool) {
	start, end, found := ExactRelocate(prevContent, headSrc)
	if !found {
		start, end, found = FuzzyRelocate(prevContent, headSrc)
	}
	if !found {
		return chunk.Range{}, false
	}

	return chunk.Range{
		StartLine:  chunk.LineAt(headSrc, start),
		EndLine:    chunk.LineAt(headSrc, maxInt(start, end-1)),
		ByteStart:  start,
		ByteEnd:    end,
		Relocalize: false,
	}, true
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
