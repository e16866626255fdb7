package architecture_test

import (
	"go/parser"
	"go/token"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestHexagonalLayerImports(t *testing.T) {
	t.Parallel()
	for _, imp := range packageImports(t, filepath.Join("..", "modules")) {
		module, layer := moduleName(imp.file), detectLayer(imp.file)
		if module == "" || layer == "" || !strings.Contains(imp.path, "studyvault/internal/modules/") {
			continue
		}
		if violatesLayerRule(module, layer, imp.path) {
			t.Fatalf("forbidden import in %s (%s): %s", imp.file, layer, imp.path)
		}
	}
}

func moduleName(path string) string {
	parts := strings.Split(path, "/")
	for i := 0; i < len(parts)-1; i++ {
		if parts[i] == "modules" && i+1 < len(parts) {
			return parts[i+1]
		}
	}
	return ""
}

func detectLayer(path string) string {
	for _, layer := range []string{"adapter/in", "adapter/out", "usecase", "service", "domain", "port/in", "port/out", "dto"} {
		if strings.Contains(path, "/"+layer+"/") {
			return layer
		}
	}
	return ""
}

func isPortIn(path string) bool {
	return strings.Contains(path, "/port/in/") || strings.HasSuffix(path, "/port/in")
}

func isDTO(path string) bool {
	return strings.Contains(path, "/dto/") || strings.HasSuffix(path, "/dto")
}

func violatesLayerRule(module, layer, importPath string) bool {
	sameModule := strings.Contains(importPath, "/internal/modules/"+module+"/")
	if !sameModule {
		if strings.Contains(importPath, "/service/") || strings.Contains(importPath, "/adapter/") || strings.Contains(importPath, "/usecase/") {
			return true
		}
		if isPortIn(importPath) || isDTO(importPath) {
			return false
		}
	}

	switch layer {
	case "adapter/in":
		return !isPortIn(importPath) && !isDTO(importPath)
	case "usecase":
		return strings.Contains(importPath, "/adapter/")
	case "service":
		return strings.Contains(importPath, "/adapter/") || strings.Contains(importPath, "/usecase/")
	case "domain":
		return strings.Contains(importPath, "/adapter/") || strings.Contains(importPath, "/usecase/") || strings.Contains(importPath, "/service/")
	default:
		return false
	}
}

// Platform and ui packages sit below the modules and never reach up.
func TestSharedPackagesDoNotImportModules(t *testing.T) {
	t.Parallel()
	for _, dir := range []string{filepath.Join("..", "platform"), filepath.Join("..", "ui")} {
		for _, imp := range packageImports(t, dir) {
			if strings.Contains(imp.path, "studyvault/internal/modules/") || strings.HasSuffix(imp.path, "studyvault/internal/bootstrap") {
				t.Fatalf("forbidden import in %s: %s", imp.file, imp.path)
			}
		}
	}
}

// The CLI gets its handlers from bootstrap and only shares dto types with
// the modules.
func TestCommandsReachModulesThroughBootstrap(t *testing.T) {
	t.Parallel()
	for _, imp := range packageImports(t, filepath.Join("..", "..", "cmd")) {
		if strings.Contains(imp.path, "studyvault/internal/modules/") && !isDTO(imp.path) {
			t.Fatalf("forbidden import in %s: %s", imp.file, imp.path)
		}
	}
}

type fileImport struct {
	file string
	path string
}

func packageImports(t *testing.T, root string) []fileImport {
	t.Helper()
	fset := token.NewFileSet()
	var out []fileImport
	err := filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !strings.HasSuffix(path, ".go") || strings.HasSuffix(path, "_test.go") {
			return nil
		}
		node, err := parser.ParseFile(fset, path, nil, parser.ImportsOnly)
		if err != nil {
			return err
		}
		for _, imp := range node.Imports {
			out = append(out, fileImport{file: filepath.ToSlash(path), path: strings.Trim(imp.Path.Value, `"`)})
		}
		return nil
	})
	if err != nil {
		t.Fatalf("walk %s: %v", root, err)
	}
	return out
}
