package chunk

import (
	"fmt"
	"path/filepath"
	"strings"
)

// Options tunes the chunker's behavior.
type Options struct {
	LineWindow int // generic chunker window size, in lines
	MaxChars   int // per-chunk character cap, already floored by the caller
}

// DefaultOptions mirrors the configuration defaults.
func DefaultOptions() Options {
	return Options{LineWindow: 120, MaxChars: 2048}
}

// Chunker turns a file's text into an ordered list of logical chunks.
type Chunker struct {
	opts Options
}

// New creates a Chunker with the given options.
func New(opts Options) *Chunker {
	if opts.LineWindow <= 0 {
		opts.LineWindow = 120
	}
	if opts.MaxChars <= 0 {
		opts.MaxChars = 2048
	}
	return &Chunker{opts: opts}
}

// Chunks implements the selection policy: syntax-aware chunking when a
// parser is available, falling back to the generic line-window chunker on
// any structural failure, with plugins participating via their three hooks.
func (ch *Chunker) Chunks(src []byte, path, repoID, stackType string, plugins []Plugin) ([]Chunk, error) {
	ext := strings.ToLower(filepath.Ext(path))
	if unsupportedExts[ext] {
		return nil, nil
	}

	var applicable []Plugin
	for _, p := range plugins {
		if p.Supports(path, stackType) {
			applicable = append(applicable, p)
		}
	}

	processed := src
	for _, p := range applicable {
		var err error
		processed, err = p.Preprocess(processed, path, repoID)
		if err != nil {
			return nil, fmt.Errorf("plugin preprocess failed for %s: %w", path, err)
		}
	}

	chunks, ok := syntaxChunks(processed, path, repoID, ext)
	if !ok {
		language := ""
		if def, found := definitionsByExt[ext]; found {
			language = def.name
		}
		chunks = genericChunks(processed, path, repoID, language, ch.opts.LineWindow)
	}

	chunks = splitOversized(chunks, ch.opts.MaxChars)

	for _, p := range applicable {
		chunks = p.Postprocess(chunks)
	}

	for _, p := range applicable {
		extra := p.ExtraChunks(processed, path, repoID)
		chunks = append(chunks, splitOversized(extra, ch.opts.MaxChars)...)
	}

	return chunks, nil
}
