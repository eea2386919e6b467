package utils

import (
	"go/ast"
	"go/doc/comment"
	"go/parser"
	"go/token"
	"strings"
	"testing"
)

// TestDocCommentsCanonical checks that doc comments with example blocks are
// already in the form gofmt rewrites them to.
func TestDocCommentsCanonical(t *testing.T) {
	fset := token.NewFileSet()
	file, err := parser.ParseFile(fset, "filemanager.go", nil, parser.ParseComments)
	if err != nil {
		t.Fatal(err)
	}

	for _, name := range []string{"GenerateOutputFileName"} {
		var doc *ast.CommentGroup
		for _, decl := range file.Decls {
			if fn, ok := decl.(*ast.FuncDecl); ok && fn.Name.Name == name {
				doc = fn.Doc
			}
		}
		if doc == nil {
			t.Fatalf("%s has no doc comment", name)
		}

		var lines []string
		for _, c := range doc.List {
			lines = append(lines, c.Text)
		}
		got := strings.Join(lines, "\n") + "\n"

		var p comment.Parser
		var pr comment.Printer
		want := string(pr.Comment(p.Parse(doc.Text())))

		if got != want {
			t.Errorf("%s doc comment is not canonical:\ngot:\n%s\nwant:\n%s", name, got, want)
		}
	}
}
