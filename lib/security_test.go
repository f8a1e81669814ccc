// Package lib holds cross-package audit tests over the source tree.
package lib

import (
	"go/ast"
	"go/parser"
	"go/token"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// sourceFiles parses every non-test Go file under lib/.
func sourceFiles(t *testing.T, mode parser.Mode) map[string]*ast.File {
	t.Helper()
	files := make(map[string]*ast.File)
	fset := token.NewFileSet()
	err := filepath.Walk(".", func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() || !strings.HasSuffix(path, ".go") || strings.HasSuffix(path, "_test.go") {
			return nil
		}
		f, err := parser.ParseFile(fset, path, nil, mode)
		if err != nil {
			return err
		}
		files[path] = f
		return nil
	})
	require.NoError(t, err)
	require.NotEmpty(t, files)
	return files
}

// TestAllRandomnessFromCryptoRand verifies no package draws key material or
// staging tokens from math/rand.
func TestAllRandomnessFromCryptoRand(t *testing.T) {
	for path, f := range sourceFiles(t, parser.ImportsOnly) {
		for _, imp := range f.Imports {
			p := strings.Trim(imp.Path.Value, `"`)
			assert.NotContains(t, []string{"math/rand", "math/rand/v2"}, p,
				"%s imports %s; use crypto/rand or go-i2p/crypto/rand", path, p)
		}
	}
}

// TestSecretsNeverLogged verifies no logging call is handed a KeyPair secret.
func TestSecretsNeverLogged(t *testing.T) {
	for path, f := range sourceFiles(t, 0) {
		ast.Inspect(f, func(n ast.Node) bool {
			call, ok := n.(*ast.CallExpr)
			if !ok || !isLogCall(call) {
				return true
			}
			ast.Inspect(call, func(inner ast.Node) bool {
				sel, ok := inner.(*ast.SelectorExpr)
				if ok && sel.Sel.Name == "Secret" {
					t.Errorf("%s: logging call references Secret()", path)
				}
				return true
			})
			return true
		})
	}
}

// TestEngineMethodsAreTyped verifies every engine call names its method with
// an engine.Method constant rather than a string literal, keeping the
// method surface auditable in lib/engine.
func TestEngineMethodsAreTyped(t *testing.T) {
	for path, f := range sourceFiles(t, 0) {
		ast.Inspect(f, func(n ast.Node) bool {
			call, ok := n.(*ast.CallExpr)
			if !ok {
				return true
			}
			sel, ok := call.Fun.(*ast.SelectorExpr)
			if !ok {
				return true
			}
			var methodArg int
			switch sel.Sel.Name {
			case "Invoke", "InvokeStatic":
				methodArg = 1
			case "Construct":
				methodArg = 0
			default:
				return true
			}
			if len(call.Args) <= methodArg {
				return true
			}
			if lit, ok := call.Args[methodArg].(*ast.BasicLit); ok && lit.Kind == token.STRING {
				t.Errorf("%s: %s called with string literal %s", path, sel.Sel.Name, lit.Value)
			}
			return true
		})
	}
}

// isLogCall matches log.X(...) and chains such as log.WithFields(...).Info(...).
func isLogCall(call *ast.CallExpr) bool {
	for expr := call.Fun; ; {
		switch e := expr.(type) {
		case *ast.SelectorExpr:
			if id, ok := e.X.(*ast.Ident); ok {
				return id.Name == "log"
			}
			expr = e.X
		case *ast.CallExpr:
			expr = e.Fun
		default:
			return false
		}
	}
}
