package chunk

import (
	"fmt"
	"strings"
)

// splitOversized splits any chunk whose content exceeds maxChars into
// ordered parts at line boundaries. Parts share sig_hash and get a
// "_partN" suffix on symbol and logical_id; each part gets its own
// content_hash since its content differs.
func splitOversized(chunks []Chunk, maxChars int) []Chunk {
	if maxChars <= 0 {
		return chunks
	}
	out := make([]Chunk, 0, len(chunks))
	for _, c := range chunks {
		if len(c.Content) <= maxChars {
			out = append(out, c)
			continue
		}
		out = append(out, splitOne(c, maxChars)...)
	}
	return out
}

func splitOne(c Chunk, maxChars int) []Chunk {
	lines := strings.Split(c.Content, "\n")

	type part struct {
		lines     []string
		startLine int
	}
	var parts []part
	cur := part{startLine: c.Range.StartLine}
	curLen := 0
	lineNo := c.Range.StartLine

	flush := func(nextStart int) {
		if len(cur.lines) > 0 {
			parts = append(parts, cur)
		}
		cur = part{startLine: nextStart}
		curLen = 0
	}

	for _, l := range lines {
		if curLen > 0 && curLen+len(l)+1 > maxChars {
			flush(lineNo)
		}
		cur.lines = append(cur.lines, l)
		curLen += len(l) + 1
		lineNo++
	}
	flush(0)
	if len(cur.lines) > 0 {
		parts = append(parts, cur)
	}

	if len(parts) <= 1 {
		return []Chunk{c}
	}

	result := make([]Chunk, 0, len(parts))
	byteOffset := c.Range.ByteStart
	for i, p := range parts {
		content := strings.Join(p.lines, "\n")
		endLine := p.startLine + len(p.lines) - 1
		suffix := fmt.Sprintf("_part%d", i+1)
		symbol := c.Symbol + suffix

		partChunk := c
		partChunk.Symbol = symbol
		partChunk.LogicalID = LogicalID(c.RepoID, c.Path, symbol)
		partChunk.Content = content
		partChunk.ContentHash = Hash(content)
		partChunk.Range = Range{
			StartLine: p.startLine,
			EndLine:   endLine,
			ByteStart: byteOffset,
			ByteEnd:   byteOffset + len(content),
		}
		byteOffset += len(content) + 1

		result = append(result, partChunk)
	}
	return result
}
