// Package android implements the android_app stack plugin: structural edge
// extraction and payload enrichment for Android manifests, layouts,
// navigation graphs, and Kotlin/Java sources.
//
// Grounded on the reference implementation's AndroidChunkPlugin and
// AndroidPayloadPlugin (server/services/android_plugins.py): the same three
// XML surfaces (manifest, layout, nav graph) feed synthetic summary chunks,
// and the same regex heuristics over Kotlin/Java source derive component
// type, screen name, and the BINDS_LAYOUT / NAVIGATES_TO / USES_VIEWMODEL /
// CALLS_API edges.
package android

import (
	"fmt"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/sevigo/coderadar/internal/chunk"
	"github.com/sevigo/coderadar/internal/payload"
)

const StackType = "android_app"

// ChunkPlugin implements chunk.Plugin for the android_app stack: it
// contributes one synthetic summary chunk per manifest/layout/nav-graph XML
// file, since those files have no function/class spans for the tree-sitter
// or generic chunkers to anchor on.
type ChunkPlugin struct{}

func NewChunkPlugin() *ChunkPlugin { return &ChunkPlugin{} }

func (p *ChunkPlugin) Supports(path, stackType string) bool {
	if stackType != StackType {
		return false
	}
	return xmlKind(path) != ""
}

func (p *ChunkPlugin) Preprocess(src []byte, path, repoID string) ([]byte, error) {
	return src, nil
}

func (p *ChunkPlugin) Postprocess(chunks []chunk.Chunk) []chunk.Chunk {
	return chunks
}

func (p *ChunkPlugin) ExtraChunks(src []byte, path, repoID string) []chunk.Chunk {
	kind := xmlKind(path)
	if kind == "" {
		return nil
	}
	root, err := parseXML(src)
	if err != nil || root == nil {
		return nil
	}

	var meta map[string]any
	var summary string
	switch kind {
	case "manifest":
		meta, summary = summarizeManifest(root)
	case "layout":
		meta, summary = summarizeLayout(root, path)
	case "navgraph":
		meta, summary = summarizeNavGraph(root, path)
	}
	meta["xml_kind"] = kind

	symbol := "xml:summary"
	lines := totalLines(src)
	c := chunk.Chunk{
		LogicalID:   chunk.LogicalID(repoID, path, symbol),
		RepoID:      repoID,
		Path:        path,
		Language:    "xml",
		Symbol:      symbol,
		Range:       chunk.Range{StartLine: 1, EndLine: lines, ByteStart: 0, ByteEnd: len(src)},
		Content:     summary,
		ContentHash: chunk.Hash(summary),
		SigHash:     chunk.SigHash("xml", path),
		Meta:        meta,
	}
	return []chunk.Chunk{c}
}

func totalLines(src []byte) int {
	if len(src) == 0 {
		return 1
	}
	return strings.Count(string(src), "\n") + 1
}

func xmlKind(path string) string {
	if !strings.HasSuffix(path, ".xml") {
		return ""
	}
	base := filepath.Base(path)
	slash := filepath.ToSlash(path)
	switch {
	case base == "AndroidManifest.xml":
		return "manifest"
	case strings.Contains(slash, "/res/layout/") || strings.Contains(slash, "/res/layout-"):
		return "layout"
	case strings.Contains(slash, "/res/navigation/"):
		return "navgraph"
	}
	return ""
}

// summarizeManifest walks <activity>/<service>/<receiver>/<provider>
// declarations and records their android:name and intent-filter actions,
// mirroring the reference implementation's component inventory.
func summarizeManifest(root *node) (map[string]any, string) {
	var components []map[string]any
	var parts []string
	for _, tag := range []string{"activity", "service", "receiver", "provider"} {
		for _, n := range root.findAll(tag) {
			name := strings.TrimPrefix(n.attr("name"), ".")
			if name == "" {
				continue
			}
			actions := intentFilterActions(n)
			comp := map[string]any{"type": tag, "name": name}
			part := name
			if len(actions) > 0 {
				comp["actions"] = actions
				part = fmt.Sprintf("%s actions=%s", name, strings.Join(actions, ","))
			}
			components = append(components, comp)
			parts = append(parts, part)
		}
	}
	meta := map[string]any{"components": components}
	summary := fmt.Sprintf("Android manifest declaring %d component(s): %s", len(components), strings.Join(parts, ", "))
	return meta, summary
}

// intentFilterActions collects every <intent-filter><action android:name="..."/>
// declared under a manifest component.
func intentFilterActions(n *node) []string {
	var actions []string
	for _, filter := range n.findAll("intent-filter") {
		for _, a := range filter.findAll("action") {
			if name := a.attr("name"); name != "" {
				actions = append(actions, name)
			}
		}
	}
	return actions
}

// summarizeLayout records every view id declared in the layout, the
// resource name it binds to (used to dedupe BINDS_LAYOUT edges against),
// any nested <fragment>/<include> references, and the data-binding
// <variable type="..."> viewmodel class, if any.
func summarizeLayout(root *node, path string) (map[string]any, string) {
	var ids []string
	var fragments []string
	var viewModelClass string
	root.walk(func(n *node) {
		if id := n.attr("id"); id != "" {
			ids = append(ids, payload.NormalizeID(id))
		}
		if n.tag == "fragment" || n.tag == "include" {
			if name := n.attr("name"); name != "" {
				fragments = append(fragments, name)
			}
			if layout := n.appAttr("layout"); layout != "" {
				fragments = append(fragments, layout)
			}
		}
		if n.tag == "variable" && viewModelClass == "" {
			if t := n.attr("type"); t != "" {
				viewModelClass = t
			}
		}
	})
	target := payload.NormalizeLayoutTarget(path)
	meta := map[string]any{
		"layout_target": target,
		"view_ids":      ids,
		"fragments":     fragments,
	}
	summary := fmt.Sprintf("Android layout %s with %d view(s)", target, len(ids))
	if viewModelClass != "" {
		meta["viewmodel_class"] = viewModelClass
		summary += fmt.Sprintf(", viewmodel %s", viewModelClass)
	}
	return meta, summary
}

// summarizeNavGraph records every <fragment>/<dialog>/<activity> destination id,
// every <action> id->destination edge, and the graph's own
// app:startDestination, declared in the nav graph.
func summarizeNavGraph(root *node, path string) (map[string]any, string) {
	var destinations []string
	var actions []map[string]string
	for _, tag := range []string{"fragment", "dialog", "activity"} {
		for _, n := range root.findAll(tag) {
			id := payload.NormalizeID(n.attr("id"))
			if id == "" {
				continue
			}
			destinations = append(destinations, id)
		}
	}
	for _, n := range root.findAll("action") {
		dest := payload.NormalizeID(n.attr("destination"))
		id := payload.NormalizeID(n.attr("id"))
		if dest == "" {
			continue
		}
		actions = append(actions, map[string]string{"id": id, "destination": dest})
	}
	navGraphID := payload.NormalizeID(strings.TrimSuffix(filepath.Base(path), ".xml"))
	startDestination := payload.NormalizeID(root.appAttr("startDestination"))
	meta := map[string]any{
		"nav_graph_id":      navGraphID,
		"destinations":      destinations,
		"actions":           actions,
		"start_destination": startDestination,
	}
	summary := fmt.Sprintf("Android nav graph %s with %d destination(s)", navGraphID, len(destinations))
	if startDestination != "" {
		summary += fmt.Sprintf(", start %s", startDestination)
	}
	return meta, summary
}

var (
	classDeclRe     = regexp.MustCompile(`(?m)^\s*(?:public\s+|open\s+|internal\s+)*(?:abstract\s+)?class\s+(\w+)\s*(?:\([^)]*\))?\s*:\s*([\w.<>]+)`)
	layoutRefRe     = regexp.MustCompile(`R\.layout\.(\w+)`)
	navigateIDRe    = regexp.MustCompile(`navigate\(\s*R\.id\.(\w+)`)
	startActivityRe = regexp.MustCompile(`startActivity[^(]*\(\s*[\w.]*\(?\s*[\w.]*,?\s*(\w+)Activity(?:::class\.java)?`)
	viewModelRe     = regexp.MustCompile(`(\w+)ViewModel\s*(?:::class\.java)?\s*[>)]`)
	apiCallRe       = regexp.MustCompile(`(\w+)(Api|Service)\.(\w+)\s*\(`)
)

// PayloadPlugin implements payload.Plugin for the android_app stack.
type PayloadPlugin struct{}

func NewPayloadPlugin() *PayloadPlugin { return &PayloadPlugin{} }

func (p *PayloadPlugin) StackType() string { return StackType }

func (p *PayloadPlugin) BuildPayload(c chunk.Chunk, branch, commitSHA string) payload.Fields {
	if c.Language == "xml" {
		return p.buildXMLPayload(c)
	}
	return p.buildSourcePayload(c)
}

func (p *PayloadPlugin) buildXMLPayload(c chunk.Chunk) payload.Fields {
	kind, _ := c.Meta["xml_kind"].(string)
	f := payload.Fields{StackType: StackType, StackMeta: c.Meta}
	switch kind {
	case "manifest":
		f.ComponentType = "manifest"
		f.Tags = []string{"android", "manifest"}
		f.StackText = c.Content
	case "layout":
		if target, ok := c.Meta["layout_target"].(string); ok {
			f.LayoutFile = target
		}
		f.ComponentType = "layout"
		f.Tags = []string{"android", "layout"}
		f.StackText = c.Content
		if vm, ok := c.Meta["viewmodel_class"].(string); ok && vm != "" {
			f.Edges = payload.DedupeEdges([]chunk.Edge{payload.BuildEdge(payload.EdgeUsesViewModel, vm, nil)})
		}
	case "navgraph":
		if id, ok := c.Meta["nav_graph_id"].(string); ok {
			f.NavGraphID = id
		}
		f.ComponentType = "navgraph"
		f.Tags = []string{"android", "navigation"}
		f.StackText = c.Content
		f.Edges = navGraphEdges(c.Meta)
	}
	return f
}

func navGraphEdges(meta map[string]any) []chunk.Edge {
	var edges []chunk.Edge
	navGraphID, _ := meta["nav_graph_id"].(string)
	if dests, ok := meta["destinations"].([]string); ok {
		for _, d := range dests {
			edges = append(edges, payload.BuildEdge(payload.EdgeNavDestination, d, map[string]any{"nav_graph_id": navGraphID}))
		}
	}
	if actions, ok := meta["actions"].([]map[string]string); ok {
		for _, a := range actions {
			edges = append(edges, payload.BuildEdge(payload.EdgeNavAction, a["destination"], map[string]any{
				"nav_graph_id": navGraphID,
				"action_id":    a["id"],
			}))
		}
	}
	return payload.DedupeEdges(edges)
}

func (p *PayloadPlugin) buildSourcePayload(c chunk.Chunk) payload.Fields {
	lang := c.Language
	if lang == "" && (strings.HasSuffix(c.Path, ".kt") || strings.HasSuffix(c.Path, ".kts")) {
		// The chunker has no Kotlin grammar, so .kt chunks carry no language.
		lang = "kotlin"
	}
	if lang != "kotlin" && lang != "java" {
		return payload.Fields{}
	}
	content := c.Content

	componentType, baseName := classifyComponent(content)
	f := payload.Fields{StackType: StackType}
	if componentType != "" {
		f.ComponentType = componentType
		f.Tags = append(f.Tags, "android", componentType)
	}
	if componentType == "activity" || componentType == "fragment" {
		f.ScreenName = baseName
	}

	var edges []chunk.Edge
	for _, m := range layoutRefRe.FindAllStringSubmatch(content, -1) {
		target := payload.NormalizeLayoutTarget(m[1] + ".xml")
		edges = append(edges, payload.BuildEdge(payload.EdgeBindsLayout, target, nil))
		if f.LayoutFile == "" {
			f.LayoutFile = target
		}
	}
	for _, m := range navigateIDRe.FindAllStringSubmatch(content, -1) {
		edges = append(edges, payload.BuildEdge(payload.EdgeNavigatesTo, payload.NormalizeID(m[1]), nil))
	}
	for _, m := range startActivityRe.FindAllStringSubmatch(content, -1) {
		edges = append(edges, payload.BuildEdge(payload.EdgeNavigatesTo, strings.ToLower(m[1]), map[string]any{"via": "start_activity"}))
	}
	for _, m := range viewModelRe.FindAllStringSubmatch(content, -1) {
		edges = append(edges, payload.BuildEdge(payload.EdgeUsesViewModel, strings.ToLower(m[1]), nil))
	}
	for _, m := range apiCallRe.FindAllStringSubmatch(content, -1) {
		target := strings.ToLower(m[1]+m[2]) + "." + m[3]
		edges = append(edges, payload.BuildEdge(payload.EdgeCallsAPI, target, nil))
	}
	f.Edges = payload.DedupeEdges(edges)

	if f.ComponentType != "" {
		f.StackText = fmt.Sprintf("Android %s %s", f.ComponentType, baseName)
	}
	return f
}

// classifyComponent inspects a class declaration's supertype to decide the
// Android component kind, mirroring the reference implementation's
// substring checks on the superclass name.
func classifyComponent(content string) (componentType, name string) {
	m := classDeclRe.FindStringSubmatch(content)
	if m == nil {
		return "", ""
	}
	className, super := m[1], m[2]
	switch {
	case strings.Contains(super, "ViewModel"):
		return "viewmodel", strings.TrimSuffix(className, "ViewModel")
	case strings.Contains(super, "Activity"):
		return "activity", strings.TrimSuffix(className, "Activity")
	case strings.Contains(super, "Fragment"):
		return "fragment", strings.TrimSuffix(className, "Fragment")
	case strings.Contains(super, "Service"):
		return "service", strings.TrimSuffix(className, "Service")
	case strings.Contains(super, "BroadcastReceiver"):
		return "receiver", strings.TrimSuffix(className, "Receiver")
	}
	return "", className
}
