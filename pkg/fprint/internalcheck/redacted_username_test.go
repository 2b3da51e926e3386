package internalcheck

import (
	"fmt"
	"go/ast"
	"go/token"
	"strconv"
	"strings"
	"testing"

	"golang.org/x/tools/go/packages"
)

const loggingPkg = "github.com/fprint-go/libfprint-go/pkg/fprint/logging"

// TestUsernameAlwaysRedacted rejects any log call that passes a "username"
// key directly. Usernames go through logging.Redacted.
func TestUsernameAlwaysRedacted(t *testing.T) {
	cfg := &packages.Config{
		Mode: packages.NeedSyntax | packages.NeedTypes | packages.NeedTypesInfo | packages.NeedFiles | packages.NeedName,
	}

	pkgs, err := packages.Load(cfg, "github.com/fprint-go/libfprint-go/pkg/fprint", "github.com/fprint-go/libfprint-go/pkg/fprint/simdev")
	if err != nil {
		t.Fatalf("load package: %v", err)
	}

	var findings []string

	for _, pkg := range pkgs {
		fset := pkg.Fset
		for _, file := range pkg.Syntax {
			ast.Inspect(file, func(n ast.Node) bool {
				call, ok := n.(*ast.CallExpr)
				if !ok {
					return true
				}
				selector, ok := call.Fun.(*ast.SelectorExpr)
				if !ok || !isLoggerMethod(selector.Sel.Name) {
					return true
				}
				obj := pkg.TypesInfo.Uses[selector.Sel]
				if obj == nil || obj.Pkg() == nil || obj.Pkg().Path() != loggingPkg {
					return true
				}
				for _, arg := range call.Args {
					lit, ok := arg.(*ast.BasicLit)
					if !ok || lit.Kind != token.STRING {
						continue
					}
					value, err := strconv.Unquote(lit.Value)
					if err == nil && strings.EqualFold(value, "username") {
						findings = append(findings, fmt.Sprintf("%s: log usernames with logging.Redacted", fset.Position(lit.Pos())))
					}
				}
				return true
			})
		}
	}

	if len(findings) > 0 {
		t.Fatalf("username logging policy violation:\n%s", strings.Join(findings, "\n"))
	}
}

func isLoggerMethod(name string) bool {
	switch name {
	case "Debug", "Info", "Warn", "Error", "With":
		return true
	}
	return false
}
