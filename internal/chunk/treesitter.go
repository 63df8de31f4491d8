package chunk

import (
	"context"
	"regexp"

	sitter "github.com/smacker/go-tree-sitter"
)

var identifierRe = regexp.MustCompile(`[A-Za-z_][A-Za-z0-9_]*`)

// syntaxChunks walks the parse tree of src and emits one Chunk per
// definition node (function, method, class/struct/enum/trait/impl). It
// returns ok=false when the extension is unsupported or parsing fails
// structurally, signalling the caller to fall back to the generic chunker.
func syntaxChunks(src []byte, path, repoID, ext string) ([]Chunk, bool) {
	def, ok := definitionsByExt[ext]
	if !ok {
		return nil, false
	}

	parser := sitter.NewParser()
	parser.SetLanguage(def.language)

	tree, err := parser.ParseCtx(context.Background(), nil, src)
	if err != nil || tree == nil {
		return nil, false
	}
	root := tree.RootNode()
	if root == nil || root.IsMissing() {
		return nil, false
	}

	nodeTypes := make(map[string]bool)
	for _, t := range def.functionNodes {
		nodeTypes[t] = true
	}
	for _, t := range def.methodNodes {
		nodeTypes[t] = true
	}
	for _, t := range def.classNodes {
		nodeTypes[t] = true
	}
	if len(nodeTypes) == 0 {
		return nil, false
	}

	w := walker{}
	nodes := w.collectNodes(root, nodeTypes)
	if len(nodes) == 0 {
		// Valid parse, just nothing to chunk at this granularity; let the
		// caller fall back to line windows so the file isn't skipped.
		return nil, false
	}

	idx := buildLineIndex(src)

	var chunks []Chunk
	for _, node := range nodes {
		name := extractName(node, def.nameField, src)
		if name == "" {
			continue
		}

		var symbol string
		if def.isClassNode(node.Type()) {
			symbol = ClassSymbol(name)
		} else {
			symbol = FuncSymbol(name)
		}

		startByte, endByte := int(node.StartByte()), int(node.EndByte())
		content := string(src[startByte:endByte])
		if content == "" {
			continue
		}

		startLine := idx.lineAt(startByte)
		endLine := idx.lineAt(endByte - 1)

		c := Chunk{
			LogicalID: LogicalID(repoID, path, symbol),
			RepoID:    repoID,
			Path:      path,
			Language:  def.name,
			Symbol:    symbol,
			Range: Range{
				StartLine: startLine,
				EndLine:   endLine,
				ByteStart: startByte,
				ByteEnd:   endByte,
			},
			Content:     content,
			ContentHash: Hash(content),
			SigHash:     SigHash(symbolKind(symbol), name),
		}

		if enclosing := w.enclosingDefinition(node, def); enclosing != nil {
			enclosingName := extractName(enclosing, def.nameField, src)
			if enclosingName != "" {
				blockSymbol := ClassSymbol(enclosingName)
				c.BlockID = LogicalID(repoID, path, blockSymbol)
				bs, be := int(enclosing.StartByte()), int(enclosing.EndByte())
				c.BlockRange = &Range{
					StartLine: idx.lineAt(bs),
					EndLine:   idx.lineAt(be - 1),
					ByteStart: bs,
					ByteEnd:   be,
				}
			}
		}

		chunks = append(chunks, c)
	}

	if len(chunks) == 0 {
		return nil, false
	}
	return chunks, true
}

func extractName(node *sitter.Node, nameField string, src []byte) string {
	child := node.ChildByFieldName(nameField)
	if child == nil {
		switch node.Type() {
		case "type_declaration": // Go: the name sits on the wrapped type_spec
			if spec := node.NamedChild(0); spec != nil {
				child = spec.ChildByFieldName("name")
			}
		case "impl_item": // Rust: an impl is named by the type it implements
			child = node.ChildByFieldName("type")
		case "struct_specifier", "union_specifier", "enum_specifier", "class_specifier":
			// C/C++: only a specifier with a body defines the type
			if node.ChildByFieldName("body") != nil {
				child = node.ChildByFieldName("name")
			}
		}
	}
	if child == nil {
		return ""
	}
	text := nodeText(child, src)
	return identifierRe.FindString(text)
}

func symbolKind(symbol string) string {
	if len(symbol) >= 6 && symbol[:6] == "class:" {
		return "class"
	}
	return "func"
}
