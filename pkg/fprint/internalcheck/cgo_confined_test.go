package internalcheck

import (
	"fmt"
	"go/parser"
	"go/token"
	"strconv"
	"strings"
	"testing"

	"golang.org/x/tools/go/packages"
)

const backendPkg = "github.com/fprint-go/libfprint-go/pkg/fprint/internal/backend"

func TestCgoConfinedToBackend(t *testing.T) {
	cfg := &packages.Config{
		Mode: packages.NeedName | packages.NeedFiles,
	}

	pkgs, err := packages.Load(cfg, "github.com/fprint-go/libfprint-go/...")
	if err != nil {
		t.Fatalf("load packages: %v", err)
	}

	var findings []string
	fset := token.NewFileSet()

	for _, pkg := range pkgs {
		if pkg.PkgPath == backendPkg {
			continue
		}
		// Files excluded by build constraints still count.
		files := append(append([]string(nil), pkg.GoFiles...), pkg.IgnoredFiles...)
		for _, name := range files {
			if !strings.HasSuffix(name, ".go") {
				continue
			}
			f, err := parser.ParseFile(fset, name, nil, parser.ImportsOnly)
			if err != nil {
				t.Fatalf("parse %s: %v", name, err)
			}
			for _, imp := range f.Imports {
				path, err := strconv.Unquote(imp.Path.Value)
				if err != nil {
					continue
				}
				if path == "C" {
					findings = append(findings, fmt.Sprintf("%s: import \"C\" outside %s", fset.Position(imp.Pos()), backendPkg))
				}
			}
		}
	}

	if len(findings) > 0 {
		t.Fatalf("cgo policy violation:\n%s", strings.Join(findings, "\n"))
	}
}
