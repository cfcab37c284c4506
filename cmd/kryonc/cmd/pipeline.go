package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/kryonlabs/kryon/internal/ast"
	"github.com/kryonlabs/kryon/internal/bytecode"
	"github.com/kryonlabs/kryon/internal/diag"
	"github.com/kryonlabs/kryon/internal/frontend/jsx"
	"github.com/kryonlabs/kryon/internal/frontend/kry"
	"github.com/kryonlabs/kryon/internal/frontend/sexpr"
	"github.com/kryonlabs/kryon/internal/frontend/xmlkry"
	"github.com/kryonlabs/kryon/internal/ir/builder"
)

// parseFile dispatches to the frontend named by path's extension. Every
// concrete frontend converges on the shared raw AST, so the CLI only
// needs to pick which Parse to call, never how to interpret its result.
func parseFile(path, source string) (*ast.Root, *diag.List, error) {
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".kry":
		root, diags := kry.Parse(path, source)
		return root, diags, nil
	case ".kryx", ".xml":
		root, diags := xmlkry.Parse(path, source)
		return root, diags, nil
	case ".kjsx", ".jsx":
		root, diags := jsx.Parse(path, source)
		return root, diags, nil
	case ".ksx", ".sx":
		root, diags := sexpr.Parse(path, source)
		return root, diags, nil
	default:
		return nil, nil, fmt.Errorf("unrecognized source extension %q (expected one of .kry, .kryx/.xml, .kjsx/.jsx, .ksx/.sx)", ext)
	}
}

// includeLoader resolves an `include "path"` directive relative to the
// including file's directory, re-running parseFile on whatever frontend
// the included path's own extension names — includes need not share the
// including file's DSL flavor, only its shared ast.Root vocabulary.
func includeLoader(fromFile string) func(path string) (*ast.Root, error) {
	base := filepath.Dir(fromFile)
	return func(path string) (*ast.Root, error) {
		full := path
		if !filepath.IsAbs(full) {
			full = filepath.Join(base, path)
		}
		content, err := os.ReadFile(full)
		if err != nil {
			return nil, err
		}
		root, diags, err := parseFile(full, string(content))
		if err != nil {
			return nil, err
		}
		if diags.HasErrors() {
			return nil, fmt.Errorf("%s", diags.Error())
		}
		return root, nil
	}
}

// printDiags writes every diagnostic in diags to stderr, with a source
// excerpt when the diagnostic's file matches the file the caller is
// currently reporting on.
func printDiags(diags *diag.List, file, source string) {
	for _, d := range diags.Items() {
		if d.Pos.File == file {
			fmt.Fprintln(os.Stderr, d.Format(source))
		} else {
			fmt.Fprintln(os.Stderr, d.Format(""))
		}
	}
}

// buildResult bundles what every downstream stage (bytecode compiler,
// serializers, runtime) needs out of parsing+building one compilation unit.
type buildResult struct {
	file   string
	source string
	result *builder.Result
}

// loadAndBuild runs parse -> builder.Build for one source file, logging and
// printing diagnostics as it goes. recovery mirrors builder.Options.RecoveryMode:
// when false, any error diagnostic at either stage aborts with a non-nil err.
func loadAndBuild(path string, recovery bool) (*buildResult, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	source := string(content)

	root, diags, err := parseFile(path, source)
	if err != nil {
		return nil, err
	}
	printDiags(diags, path, source)
	if diags.HasErrors() && !recovery {
		return nil, fmt.Errorf("parsing %s failed", path)
	}

	res, bdiags := builder.Build(root, path, builder.Options{
		RecoveryMode:  recovery,
		IncludeLoader: includeLoader(path),
	})
	printDiags(bdiags, path, source)
	if bdiags.HasErrors() && !recovery {
		return nil, fmt.Errorf("building IR for %s failed", path)
	}

	return &buildResult{file: path, source: source, result: res}, nil
}

// compileHandlers lowers every handler body the builder stubbed out into
// bytecode Functions in place on br.result.IR.
func compileHandlers(br *buildResult) error {
	diags := bytecode.Compile(br.result.IR, br.result.HandlerSources, br.result.ParamNames)
	printDiags(diags, br.file, br.source)
	if diags.HasErrors() {
		return fmt.Errorf("bytecode compilation for %s failed", br.file)
	}
	return nil
}

// defaultOutputPath replaces path's extension with newExt ("" keeps none).
func defaultOutputPath(path, newExt string) string {
	ext := filepath.Ext(path)
	if ext == "" {
		return path + newExt
	}
	return strings.TrimSuffix(path, ext) + newExt
}
