// Copyright 2025 The Jac Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package jacfmt implements the canonical Jac source printer: it walks a
// parsed *ast.Module and re-emits it with fixed indentation, spacing,
// and member ordering (imports, then archetypes, then free functions,
// then with-entry blocks, then client pages), so running it twice over
// the same module yields byte-identical output.
//
// There is no third-party pretty-printing library in the retrieved
// pack, and Jac's own grammar is specific to this module, so this
// prints directly against Go's strings.Builder rather than reaching for
// a general templating engine.
package jacfmt

import (
	"fmt"
	"strings"

	"github.com/jac-lang/jac/internal/ast"
)

const indentUnit = "    "

// Format renders mod in canonical form. It reports an error only if mod
// is nil; a structurally valid AST always formats successfully, since
// formatting never re-validates semantics the pass pipeline already
// checked.
func Format(mod *ast.Module) (string, error) {
	if mod == nil {
		return "", fmt.Errorf("jacfmt: nil module")
	}
	var b strings.Builder
	printImports(&b, mod.Imports)
	printArchetypes(&b, mod.Archetypes)
	printFunctions(&b, mod.Functions)
	printGlobals(&b, mod.Globals)
	printClients(&b, mod.Clients)
	return b.String(), nil
}

func printImports(b *strings.Builder, imports []*ast.Import) {
	for _, im := range imports {
		b.WriteString("import from ")
		b.WriteString(im.ModuleName)
		if len(im.Items) > 0 {
			b.WriteString(" { ")
			b.WriteString(strings.Join(im.Items, ", "))
			b.WriteString(" }")
		}
		if im.Alias != "" {
			b.WriteString(" as ")
			b.WriteString(im.Alias)
		} else if im.Reexport {
			b.WriteString(" as pub")
		}
		b.WriteString(";\n")
	}
	if len(imports) > 0 {
		b.WriteString("\n")
	}
}

func printDecorators(b *strings.Builder, indent string, decs []*ast.Decorator) {
	for _, d := range decs {
		b.WriteString(indent)
		b.WriteString("@")
		b.WriteString(d.Name)
		if len(d.Args) > 0 {
			b.WriteString("(")
			b.WriteString(strings.Join(d.Args, ", "))
			b.WriteString(")")
		}
		b.WriteString("\n")
	}
}

func printArchetypes(b *strings.Builder, archetypes []*ast.Archetype) {
	for _, a := range archetypes {
		printDecorators(b, "", a.Decorators)
		if a.Access != "" && a.Access != ast.AccessPrivate {
			b.WriteString(string(a.Access))
			b.WriteString(" ")
		}
		b.WriteString(string(a.Kind))
		b.WriteString(" ")
		b.WriteString(a.Name)
		if len(a.Bases) > 0 {
			b.WriteString("(")
			b.WriteString(strings.Join(a.Bases, ", "))
			b.WriteString(")")
		}
		if !a.HasBody {
			b.WriteString(";\n\n")
			continue
		}
		b.WriteString(" {\n")
		for _, f := range a.Fields {
			printField(b, indentUnit, f)
		}
		for _, ab := range a.Abilities {
			printAbility(b, indentUnit, ab)
		}
		b.WriteString("}\n\n")
	}
}

func printField(b *strings.Builder, indent string, f *ast.Field) {
	b.WriteString(indent)
	b.WriteString("has ")
	b.WriteString(f.Name)
	if f.TypeName != "" {
		b.WriteString(": ")
		b.WriteString(f.TypeName)
	}
	if f.HasDef {
		b.WriteString(" = ")
		b.WriteString(f.Default)
	}
	b.WriteString(";\n")
}

func printAbility(b *strings.Builder, indent string, ab *ast.Ability) {
	printDecorators(b, indent, ab.Decorators)
	b.WriteString(indent)
	b.WriteString("can ")
	b.WriteString(ab.Name)
	b.WriteString("(")
	for i, p := range ab.Params {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(p.Name)
		if p.TypeName != "" {
			b.WriteString(": ")
			b.WriteString(p.TypeName)
		}
		if p.HasDef {
			b.WriteString(" = ")
			b.WriteString(p.Default)
		}
	}
	b.WriteString(")")
	if ab.ReturnType != "" {
		b.WriteString(" -> ")
		b.WriteString(ab.ReturnType)
	}
	if ab.OtherArch != "" || ab.IsEntry || ab.IsExit {
		b.WriteString(" with")
		if ab.OtherArch != "" {
			b.WriteString(" ")
			b.WriteString(ab.OtherArch)
		}
		if ab.IsEntry {
			b.WriteString(" entry")
		} else if ab.IsExit {
			b.WriteString(" exit")
		}
	}
	if !ab.HasBody {
		b.WriteString(";\n")
		return
	}
	b.WriteString(" {\n")
	printBody(b, indent+indentUnit, ab.Body)
	b.WriteString(indent)
	b.WriteString("}\n")
}

// stmtKeyword maps a Stmt.Kind recognized by the parser's shallow
// statement classifier back to the leading keyword it consumed, so
// reprinting doesn't silently drop it (parser.parseStmt stores only the
// text *after* the keyword in Stmt.Text/Args).
func stmtKeyword(kind string) string {
	switch kind {
	case "report", "visit", "disengage":
		return kind
	case "assign":
		return "let"
	default:
		return ""
	}
}

func printBody(b *strings.Builder, indent string, body *ast.Body) {
	if body == nil {
		return
	}
	for _, s := range body.Statements {
		b.WriteString(indent)
		if kw := stmtKeyword(s.Kind); kw != "" {
			b.WriteString(kw)
			if s.Text != "" {
				b.WriteString(" ")
			}
		}
		b.WriteString(s.Text)
		b.WriteString(";\n")
	}
}

func printFunctions(b *strings.Builder, fns []*ast.Ability) {
	for _, fn := range fns {
		printAbility(b, "", fn)
		b.WriteString("\n")
	}
}

func printGlobals(b *strings.Builder, globals []*ast.WithEntry) {
	for _, we := range globals {
		b.WriteString("with entry")
		if we.Name != "" {
			b.WriteString(" ")
			b.WriteString(we.Name)
		}
		b.WriteString(" {\n")
		printBody(b, indentUnit, we.Body)
		b.WriteString("}\n\n")
	}
}

func printClients(b *strings.Builder, clients []*ast.ClientBlock) {
	for _, cl := range clients {
		b.WriteString("client ")
		b.WriteString(cl.Name)
		b.WriteString(" {\n")
		printBody(b, indentUnit, cl.Body)
		b.WriteString("}\n\n")
	}
}
