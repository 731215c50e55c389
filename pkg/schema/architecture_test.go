package schema

import (
	"go/parser"
	"go/token"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// TestSchemaImportsNoInternalPackages keeps the schema package at the bottom
// of the dependency graph: stores and services import it, never the reverse.
func TestSchemaImportsNoInternalPackages(t *testing.T) {
	wd, err := os.Getwd()
	if err != nil {
		t.Fatalf("getwd: %v", err)
	}
	entries, err := os.ReadDir(wd)
	if err != nil {
		t.Fatalf("read dir: %v", err)
	}

	fset := token.NewFileSet()
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.HasSuffix(name, ".go") || strings.HasSuffix(name, "_test.go") {
			continue
		}
		file, err := parser.ParseFile(fset, filepath.Join(wd, name), nil, parser.ImportsOnly)
		if err != nil {
			t.Fatalf("parse %s: %v", name, err)
		}
		for _, imp := range file.Imports {
			path := strings.Trim(imp.Path.Value, `"`)
			if strings.Contains(path, "/internal/") || strings.HasPrefix(path, "internal/") {
				t.Errorf("%s imports internal package %s", name, path)
			}
			if strings.Contains(path, ".") && !strings.HasPrefix(path, "appstudio/") {
				t.Errorf("%s imports third-party package %s; schema must stay dependency-free", name, path)
			}
		}
	}
}
