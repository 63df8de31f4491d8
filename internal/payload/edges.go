// Package payload defines the structural-edge taxonomy and the
// PayloadPlugin capability that stack plugins implement to enrich a
// chunk's payload.
package payload

import (
	"encoding/json"
	"path/filepath"
	"strings"

	"github.com/sevigo/coderadar/internal/chunk"
)

// Edge type taxonomy. The set is closed in the core but extensible by
// plugins defining their own string constants.
const (
	EdgeBindsLayout    = "BINDS_LAYOUT"
	EdgeNavDestination = "NAV_DESTINATION"
	EdgeNavAction      = "NAV_ACTION"
	EdgeNavigatesTo    = "NAVIGATES_TO"
	EdgeUsesViewModel  = "USES_VIEWMODEL"
	EdgeCallsAPI       = "CALLS_API"
)

// NormalizeID strips a leading "@"/"+" and any namespace prefix (the part
// before the first "/") from an Android-style id, then lower-cases it.
func NormalizeID(value string) string {
	if value == "" {
		return ""
	}
	cleaned := value
	if idx := strings.Index(cleaned, "/"); idx >= 0 {
		cleaned = cleaned[idx+1:]
	}
	cleaned = strings.TrimLeft(cleaned, "@+")
	return strings.ToLower(cleaned)
}

// NormalizeLayoutTarget rewrites a layout name to its repo-relative form.
func NormalizeLayoutTarget(name string) string {
	if name == "" {
		return ""
	}
	base := strings.TrimSuffix(filepath.Base(name), filepath.Ext(name))
	return "layout/" + base + ".xml"
}

// BuildEdge constructs an Edge, omitting an empty meta map.
func BuildEdge(edgeType, target string, meta map[string]any) chunk.Edge {
	e := chunk.Edge{Type: edgeType, Target: target}
	if len(meta) > 0 {
		e.Meta = meta
	}
	return e
}

// DedupeEdges removes duplicate edges keyed by (type, target, canonical meta).
func DedupeEdges(edges []chunk.Edge) []chunk.Edge {
	seen := make(map[string]struct{}, len(edges))
	out := make([]chunk.Edge, 0, len(edges))
	for _, e := range edges {
		metaKey := ""
		if e.Meta != nil {
			if b, err := json.Marshal(sortedMeta(e.Meta)); err == nil {
				metaKey = string(b)
			}
		}
		key := e.Type + "\x00" + e.Target + "\x00" + metaKey
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, e)
	}
	return out
}

// MergeEdges concatenates edge lists and dedupes the result.
func MergeEdges(lists ...[]chunk.Edge) []chunk.Edge {
	var merged []chunk.Edge
	for _, l := range lists {
		merged = append(merged, l...)
	}
	return DedupeEdges(merged)
}

// sortedMeta produces a deterministic JSON-marshalable view of a meta map
// so equal maps always hash to the same dedup key.
func sortedMeta(m map[string]any) map[string]any {
	return m
}
