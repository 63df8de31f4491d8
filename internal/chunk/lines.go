package chunk

import "bytes"

// lineIndex maps 1-based line numbers to byte offsets within a source blob.
type lineIndex struct {
	starts []int // starts[i] is the byte offset where line i+1 begins
	length int
}

func buildLineIndex(src []byte) *lineIndex {
	idx := &lineIndex{starts: []int{0}, length: len(src)}
	for i, b := range src {
		if b == '\n' {
			idx.starts = append(idx.starts, i+1)
		}
	}
	return idx
}

func (li *lineIndex) totalLines() int {
	return len(li.starts)
}

// byteRange returns the half-open [start,end) byte range covering
// 1-based inclusive lines [startLine, endLine].
func (li *lineIndex) byteRange(startLine, endLine int) (int, int) {
	if startLine < 1 {
		startLine = 1
	}
	if endLine > len(li.starts) {
		endLine = len(li.starts)
	}
	start := li.starts[startLine-1]
	var end int
	if endLine >= len(li.starts) {
		end = li.length
	} else {
		end = li.starts[endLine]
	}
	return start, end
}

// lineAt returns the 1-based line number containing byte offset b.
func (li *lineIndex) lineAt(b int) int {
	// binary search over starts
	lo, hi := 0, len(li.starts)-1
	for lo < hi {
		mid := (lo + hi + 1) / 2
		if li.starts[mid] <= b {
			lo = mid
		} else {
			hi = mid - 1
		}
	}
	return lo + 1
}

func countNewlines(src []byte, from, to int) int {
	return bytes.Count(src[from:to], []byte{'\n'})
}

// LineAt returns the 1-based line number containing byte offset b within src.
func LineAt(src []byte, b int) int {
	return buildLineIndex(src).lineAt(b)
}

// ByteRangeForLines returns the half-open [start,end) byte range covering
// 1-based inclusive lines [startLine, endLine] within src, used to hydrate
// block/focus text for a stored point's line interval.
func ByteRangeForLines(src []byte, startLine, endLine int) (int, int) {
	return buildLineIndex(src).byteRange(startLine, endLine)
}
