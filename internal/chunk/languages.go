package chunk

import (
	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/c"
	"github.com/smacker/go-tree-sitter/cpp"
	"github.com/smacker/go-tree-sitter/csharp"
	"github.com/smacker/go-tree-sitter/golang"
	"github.com/smacker/go-tree-sitter/java"
	"github.com/smacker/go-tree-sitter/javascript"
	"github.com/smacker/go-tree-sitter/python"
	"github.com/smacker/go-tree-sitter/rust"
	"github.com/smacker/go-tree-sitter/typescript/tsx"
	"github.com/smacker/go-tree-sitter/typescript/typescript"
)

// definition describes, for one language, which tree-sitter node types are
// "definitions" worth chunking and how to pull a name out of one.
type definition struct {
	name          string
	language      *sitter.Language
	functionNodes []string
	methodNodes   []string
	classNodes    []string
	nameField     string
}

var definitionsByExt = map[string]definition{
	".py": {
		name:          "python",
		language:      python.GetLanguage(),
		functionNodes: []string{"function_definition"},
		classNodes:    []string{"class_definition"},
		nameField:     "name",
	},
	".go": {
		name:          "go",
		language:      golang.GetLanguage(),
		functionNodes: []string{"function_declaration"},
		methodNodes:   []string{"method_declaration"},
		classNodes:    []string{"type_declaration"},
		nameField:     "name",
	},
	".java": {
		name:          "java",
		language:      java.GetLanguage(),
		functionNodes: []string{"method_declaration", "constructor_declaration"},
		classNodes:    []string{"class_declaration", "interface_declaration", "enum_declaration"},
		nameField:     "name",
	},
	".c": {
		name:          "c",
		language:      c.GetLanguage(),
		functionNodes: []string{"function_definition"},
		classNodes:    []string{"struct_specifier", "union_specifier", "enum_specifier"},
		nameField:     "declarator",
	},
	".cpp": {
		name:          "cpp",
		language:      cpp.GetLanguage(),
		functionNodes: []string{"function_definition"},
		classNodes:    []string{"class_specifier", "struct_specifier"},
		nameField:     "declarator",
	},
	".rs": {
		name:          "rust",
		language:      rust.GetLanguage(),
		functionNodes: []string{"function_item"},
		methodNodes:   []string{"impl_item"},
		classNodes:    []string{"struct_item", "enum_item", "trait_item"},
		nameField:     "name",
	},
	".js": {
		name:          "javascript",
		language:      javascript.GetLanguage(),
		functionNodes: []string{"function_declaration"},
		methodNodes:   []string{"method_definition"},
		classNodes:    []string{"class_declaration"},
		nameField:     "name",
	},
	".ts": {
		name:          "typescript",
		language:      typescript.GetLanguage(),
		functionNodes: []string{"function_declaration"},
		methodNodes:   []string{"method_definition"},
		classNodes:    []string{"class_declaration", "interface_declaration"},
		nameField:     "name",
	},
	".tsx": {
		name:          "tsx",
		language:      tsx.GetLanguage(),
		functionNodes: []string{"function_declaration"},
		methodNodes:   []string{"method_definition"},
		classNodes:    []string{"class_declaration", "interface_declaration"},
		nameField:     "name",
	},
	".cs": {
		name:          "csharp",
		language:      csharp.GetLanguage(),
		functionNodes: []string{"method_declaration", "local_function_statement"},
		methodNodes:   []string{"constructor_declaration"},
		classNodes:    []string{"class_declaration", "struct_declaration", "interface_declaration", "enum_declaration"},
		nameField:     "name",
	},
}

// unsupportedExts produce zero chunks rather than falling back to the
// generic chunker: they are not source text a reader would want chunked.
var unsupportedExts = map[string]bool{
	".xlsx": true, ".xls": true, ".png": true, ".jpg": true, ".jpeg": true,
	".gif": true, ".ico": true, ".pdf": true, ".zip": true, ".tar": true,
	".gz": true, ".woff": true, ".woff2": true, ".ttf": true, ".so": true,
	".dll": true, ".exe": true, ".class": true, ".jar": true,
}

func (d definition) isFunctionNode(t string) bool {
	return contains(d.functionNodes, t) || contains(d.methodNodes, t)
}

func (d definition) isClassNode(t string) bool {
	return contains(d.classNodes, t)
}

func contains(ss []string, s string) bool {
	for _, v := range ss {
		if v == s {
			return true
		}
	}
	return false
}
