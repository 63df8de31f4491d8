package chunk

// genericChunks slides a fixed line window across src, yielding one Chunk
// per window with a line-anchored "range:SSSS-EEEE" symbol. This is the
// fallback used whenever no syntax-aware chunker is available or the
// syntax-aware pass fails structurally.
func genericChunks(src []byte, path, repoID, language string, window int) []Chunk {
	if window <= 0 {
		window = 120
	}
	idx := buildLineIndex(src)
	total := idx.totalLines()
	if total == 0 {
		return nil
	}

	var out []Chunk
	for start := 1; start <= total; start += window {
		end := start + window - 1
		if end > total {
			end = total
		}
		bs, be := idx.byteRange(start, end)
		if be <= bs {
			continue
		}
		content := string(src[bs:be])
		symbol := RangeSymbol(start, end)
		out = append(out, Chunk{
			LogicalID: LogicalID(repoID, path, symbol),
			RepoID:    repoID,
			Path:      path,
			Language:  language,
			Symbol:    symbol,
			Range: Range{
				StartLine: start,
				EndLine:   end,
				ByteStart: bs,
				ByteEnd:   be,
			},
			Content:     content,
			ContentHash: Hash(content),
			SigHash:     SigHash("range", symbol),
		})
	}
	return out
}
