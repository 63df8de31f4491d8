package payload

import "github.com/sevigo/coderadar/internal/chunk"

// Fields is the payload enrichment a Plugin contributes for one chunk.
// Indexer-side application only fills a scalar field left empty by an
// earlier plugin (see Apply for tags, edges and stack meta), matching the "payload.get(x) or default" merge the reference
// implementation uses when multiple plugins touch the same chunk.
type Fields struct {
	StackType     string
	ComponentType string
	ScreenName    string
	LayoutFile    string
	NavGraphID    string
	StackText     string
	Tags          []string
	Edges         []chunk.Edge
	StackMeta     map[string]any
}

// Plugin is the payload-side extension point: given a chunk and its
// target branch/commit, it derives stack-specific payload fields. StackType
// identifies which repo.StackType this plugin applies to, so the indexer
// can select the right plugin without reflection.
type Plugin interface {
	StackType() string
	BuildPayload(c chunk.Chunk, branch, commitSHA string) Fields
}

// Apply merges f into c: scalar fields are filled only where c leaves
// them empty, Tags and Edges are appended and deduplicated, and f's
// StackMeta keys overwrite c's.
func Apply(c chunk.Chunk, f Fields) chunk.Chunk {
	if c.StackType == "" {
		c.StackType = f.StackType
	}
	if c.ComponentType == "" {
		c.ComponentType = f.ComponentType
	}
	if c.ScreenName == "" {
		c.ScreenName = f.ScreenName
	}
	if c.LayoutFile == "" {
		c.LayoutFile = f.LayoutFile
	}
	if c.NavGraphID == "" {
		c.NavGraphID = f.NavGraphID
	}
	if c.StackText == "" {
		c.StackText = f.StackText
	}
	if len(f.Tags) > 0 {
		c.Tags = dedupeStrings(append(append([]string{}, c.Tags...), f.Tags...))
	}
	if len(f.Edges) > 0 {
		c.Edges = MergeEdges(c.Edges, f.Edges)
	}
	if len(f.StackMeta) > 0 {
		if c.StackMeta == nil {
			c.StackMeta = map[string]any{}
		}
		for k, v := range f.StackMeta {
			c.StackMeta[k] = v
		}
	}
	return c
}

func dedupeStrings(ss []string) []string {
	seen := make(map[string]struct{}, len(ss))
	out := make([]string, 0, len(ss))
	for _, s := range ss {
		if s == "" {
			continue
		}
		if _, ok := seen[s]; ok {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	return out
}
