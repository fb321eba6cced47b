package insight

import (
	"fmt"
	"path/filepath"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/csharp"
	"github.com/smacker/go-tree-sitter/golang"
	"github.com/smacker/go-tree-sitter/java"
	"github.com/smacker/go-tree-sitter/javascript"
	"github.com/smacker/go-tree-sitter/python"
	"github.com/smacker/go-tree-sitter/typescript/typescript"

	"github.com/gryffinlabs/gryffin/collector"
)

// languageForPath maps a file extension to a tree-sitter language, or nil
// for unsupported files.
func languageForPath(path string) *sitter.Language {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".go":
		return golang.GetLanguage()
	case ".py":
		return python.GetLanguage()
	case ".js", ".jsx", ".mjs":
		return javascript.GetLanguage()
	case ".ts", ".tsx":
		return typescript.GetLanguage()
	case ".java":
		return java.GetLanguage()
	case ".cs":
		return csharp.GetLanguage()
	default:
		return nil
	}
}

// OutlineFile extracts the top-level declarations of a source file as
// "kind name" lines. Unsupported languages yield no outline.
func OutlineFile(path string, source []byte) []string {
	lang := languageForPath(path)
	if lang == nil {
		return nil
	}

	parser := sitter.NewParser()
	parser.SetLanguage(lang)
	tree := parser.Parse(nil, source)
	if tree == nil {
		return nil
	}
	defer tree.Close()

	var lines []string
	root := tree.RootNode()
	for i := 0; i < int(root.NamedChildCount()); i++ {
		lines = append(lines, outlineNode(root.NamedChild(i), source)...)
	}
	return lines
}

// outlineNode emits declaration lines for one top-level node, unwrapping
// export/decorator/namespace wrappers one level deep.
func outlineNode(node *sitter.Node, source []byte) []string {
	switch node.Type() {
	case "function_declaration", "function_definition":
		return []string{declLine("func", node, source)}
	case "method_declaration":
		return []string{declLine("method", node, source)}
	case "class_declaration", "class_definition":
		return []string{declLine("class", node, source)}
	case "interface_declaration":
		return []string{declLine("interface", node, source)}
	case "enum_declaration":
		return []string{declLine("enum", node, source)}
	case "type_declaration":
		var lines []string
		for i := 0; i < int(node.NamedChildCount()); i++ {
			spec := node.NamedChild(i)
			if spec.Type() == "type_spec" {
				lines = append(lines, declLine("type", spec, source))
			}
		}
		return lines
	case "export_statement", "decorated_definition":
		var lines []string
		for i := 0; i < int(node.NamedChildCount()); i++ {
			lines = append(lines, outlineNode(node.NamedChild(i), source)...)
		}
		return lines
	case "namespace_declaration":
		lines := []string{declLine("namespace", node, source)}
		for i := 0; i < int(node.NamedChildCount()); i++ {
			child := node.NamedChild(i)
			if child.Type() == "declaration_list" {
				for j := 0; j < int(child.NamedChildCount()); j++ {
					lines = append(lines, outlineNode(child.NamedChild(j), source)...)
				}
			}
		}
		return lines
	default:
		return nil
	}
}

func declLine(kind string, node *sitter.Node, source []byte) string {
	if name := node.ChildByFieldName("name"); name != nil {
		return fmt.Sprintf("%s %s", kind, name.Content(source))
	}
	return kind
}

// buildOutlineSection renders the project outline included at the top of the
// analysis payload: one block per file that has recognizable declarations.
func buildOutlineSection(files []collector.FileRecord) string {
	var b strings.Builder
	for _, f := range files {
		lines := OutlineFile(f.Path, []byte(f.Content))
		if len(lines) == 0 {
			continue
		}
		b.WriteString(f.Path)
		b.WriteString("\n")
		for _, line := range lines {
			b.WriteString("  ")
			b.WriteString(line)
			b.WriteString("\n")
		}
	}
	return b.String()
}
