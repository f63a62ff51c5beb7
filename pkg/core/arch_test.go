package core_test

import (
	"go/parser"
	"go/token"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/leapstack-labs/prefixsql/pkg/core"
)

// TestCoreImportsOnly verifies pkg/core only imports the standard library.
func TestCoreImportsOnly(t *testing.T) {
	fset := token.NewFileSet()

	entries, err := os.ReadDir(".")
	if err != nil {
		t.Fatalf("Failed to read core directory: %v", err)
	}

	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".go") {
			continue
		}
		if strings.HasSuffix(entry.Name(), "_test.go") {
			continue
		}

		path := filepath.Join(".", entry.Name())
		f, err := parser.ParseFile(fset, path, nil, parser.ImportsOnly)
		if err != nil {
			t.Errorf("Failed to parse %s: %v", path, err)
			continue
		}

		for _, imp := range f.Imports {
			importPath := strings.Trim(imp.Path.Value, `"`)
			if strings.Contains(importPath, ".") {
				t.Errorf("%s imports forbidden package: %s", entry.Name(), importPath)
			}
		}
	}
}

func TestTargetAdapterConfig(t *testing.T) {
	target := &core.TargetConfig{Type: "sqlite", Database: "app.db", Prefix: "wp_"}
	cfg := target.AdapterConfig()
	if cfg.Path != "app.db" {
		t.Errorf("Path = %q, want %q", cfg.Path, "app.db")
	}
	if cfg.Prefix != "wp_" {
		t.Errorf("Prefix = %q, want %q", cfg.Prefix, "wp_")
	}

	pg := (&core.TargetConfig{Type: "postgres", Database: "app", User: "u"}).AdapterConfig()
	if pg.Path != "" || pg.Username != "u" {
		t.Errorf("unexpected postgres config: %+v", pg)
	}
}
