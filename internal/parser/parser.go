// Copyright 2025 The Jac Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package parser implements the Parse pass: source text to ast.Module.
//
// The grammar covers the archetype-bearing surface this spec's pipeline
// needs to resolve symbols, match declarations to implementations, and
// drive the walker runtime: module-level imports, node/edge/walker/
// object/class archetypes with has-fields and can-abilities, impl
// blocks, with-entry blocks, and decorators. Statement *bodies* are kept
// as a flat list of classified-but-unparsed statements (ast.Stmt) — full
// expression semantics are out of this spec's scope (see spec.md §1
// Non-goals: "target-language code emission syntax... is a pluggable
// backend whose contract is stated, not enumerated").
package parser

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/jac-lang/jac/internal/ast"
	"github.com/jac-lang/jac/internal/lexer"
)

// Diagnostic is a single parse-time error or warning, recoverable unless
// Fatal is set.
type Diagnostic struct {
	Span    ast.Location
	Message string
	Fatal   bool
}

// Result is the outcome of parsing one source unit.
type Result struct {
	Module      *ast.Module
	Diagnostics []Diagnostic
}

// Parse tokenizes and parses src (from path) into an ast.Module. It
// recovers on benign errors (accumulated as non-fatal Diagnostics) and
// returns a best-effort module even when errors are present. No
// diagnostic it records is fatal; a brace left unclosed at end of input
// ends the open block without a diagnostic.
func Parse(path, src string, kind ast.SourceUnitKind) Result {
	toks := lexer.Lex(path, src)
	p := &parser{path: path, toks: toks}
	mod := ast.NewModule(p.locAt(0), moduleNameFromPath(path), path, kind)
	p.mod = mod

	for !p.atEOF() {
		p.skipStray()
		if p.atEOF() {
			break
		}
		switch {
		case p.isKeyword("import"):
			if imp := p.parseImport(); imp != nil {
				mod.Imports = append(mod.Imports, imp)
			}
		case p.isKeyword("impl"):
			p.parseImplAsArchetypeDecl()
		case p.isArchetypeStart():
			if arch := p.parseArchetype(); arch != nil {
				mod.Archetypes = append(mod.Archetypes, arch)
			}
		case p.isKeyword("with"):
			p.parseWithEntry()
		case p.isKeyword("can"):
			fn := p.parseAbility("")
			fn.IsFunction = true
			mod.Functions = append(mod.Functions, fn)
		case p.isDecorator():
			decs := p.parseDecorators()
			p.pendingDecorators = decs
			continue
		default:
			// Unrecognized top-level token: skip it and record a
			// recoverable diagnostic, mirroring the pipeline's
			// "recovers on benign errors" contract.
			tk := p.cur()
			p.diag(fmt.Sprintf("unexpected token %q at top level", tk.Text), false)
			p.pos++
		}
	}

	return Result{Module: mod, Diagnostics: p.diags}
}

func moduleNameFromPath(path string) string {
	base := path
	if idx := strings.LastIndexByte(base, '/'); idx >= 0 {
		base = base[idx+1:]
	}
	base = strings.TrimSuffix(base, ".jac")
	base = strings.TrimSuffix(base, ".impl")
	base = strings.TrimSuffix(base, ".test")
	base = strings.TrimSuffix(base, ".cl")
	return base
}

type parser struct {
	path              string
	toks              []lexer.Token
	pos               int
	mod               *ast.Module
	diags             []Diagnostic
	pendingDecorators []*ast.Decorator
}

func (p *parser) cur() lexer.Token {
	if p.pos >= len(p.toks) {
		return p.toks[len(p.toks)-1]
	}
	return p.toks[p.pos]
}

func (p *parser) peekAt(n int) lexer.Token {
	i := p.pos + n
	if i >= len(p.toks) {
		return p.toks[len(p.toks)-1]
	}
	return p.toks[i]
}

func (p *parser) atEOF() bool { return p.cur().Kind == lexer.EOF }

func (p *parser) isKeyword(kw string) bool {
	t := p.cur()
	return t.Kind == lexer.Keyword && t.Text == kw
}

func (p *parser) isSymbol(sym string) bool {
	t := p.cur()
	return t.Kind == lexer.Symbol && t.Text == sym
}

func (p *parser) isDecorator() bool { return p.cur().Kind == lexer.Decorator }

func (p *parser) isArchetypeStart() bool {
	t := p.cur()
	if t.Kind != lexer.Keyword {
		return false
	}
	switch t.Text {
	case "node", "edge", "walker", "object", "class":
		return true
	case "public", "protected", "private":
		nxt := p.peekAt(1)
		return nxt.Kind == lexer.Keyword && (nxt.Text == "node" || nxt.Text == "edge" || nxt.Text == "walker" || nxt.Text == "object" || nxt.Text == "class")
	}
	return false
}

func (p *parser) locAt(tokIdx int) ast.Location {
	if tokIdx >= len(p.toks) {
		tokIdx = len(p.toks) - 1
	}
	t := p.toks[tokIdx]
	return ast.Location{Path: p.path, FirstLine: t.Line, FirstCol: t.Col, LastLine: t.EndLn, LastCol: t.EndCol}
}

func (p *parser) curLoc() ast.Location { return p.locAt(p.pos) }

func (p *parser) diag(msg string, fatal bool) {
	p.diags = append(p.diags, Diagnostic{Span: p.curLoc(), Message: msg, Fatal: fatal})
}

func (p *parser) skipStray() {
	for p.isSymbol(";") {
		p.pos++
	}
}

func (p *parser) parseDecorators() []*ast.Decorator {
	var decs []*ast.Decorator
	for p.isDecorator() {
		loc := p.curLoc()
		name := p.cur().Text
		p.pos++
		var args []string
		if p.isSymbol("(") {
			p.pos++
			for !p.isSymbol(")") && !p.atEOF() {
				args = append(args, p.cur().Text)
				p.pos++
				if p.isSymbol(",") {
					p.pos++
				}
			}
			if p.isSymbol(")") {
				p.pos++
			}
		}
		decs = append(decs, &ast.Decorator{Location: loc, Name: name, Args: args})
	}
	return decs
}

func (p *parser) takePendingDecorators() []*ast.Decorator {
	d := p.pendingDecorators
	p.pendingDecorators = nil
	return d
}

func (p *parser) parseAccess() ast.Access {
	t := p.cur()
	if t.Kind == lexer.Keyword {
		switch t.Text {
		case "public":
			p.pos++
			return ast.AccessPublic
		case "protected":
			p.pos++
			return ast.AccessProtected
		case "private":
			p.pos++
			return ast.AccessPrivate
		}
	}
	return ast.AccessPrivate
}

func (p *parser) parseImport() *ast.Import {
	loc := p.curLoc()
	p.pos++ // 'import'
	if p.isKeyword("from") {
		p.pos++
	}
	var modParts []string
	for p.cur().Kind == lexer.Ident || p.cur().Kind == lexer.Keyword {
		modParts = append(modParts, p.cur().Text)
		p.pos++
		if p.isSymbol(".") {
			p.pos++
			continue
		}
		break
	}
	result := &ast.Import{
		Location:   loc,
		ModuleName: strings.Join(modParts, "."),
	}

	if p.isSymbol("{") {
		p.pos++
		for !p.isSymbol("}") && !p.atEOF() {
			result.Items = append(result.Items, p.cur().Text)
			p.pos++
			if p.isSymbol(",") {
				p.pos++
			}
		}
		if p.isSymbol("}") {
			p.pos++
		}
	}
	if p.isKeyword("as") {
		p.pos++
		result.Alias = p.cur().Text
		p.pos++
		if result.Alias == "pub" {
			result.Reexport = true
		}
	}
	p.skipStray()
	return result
}

// parseArchetype parses `[access] KIND Name [(base, base)] { members }`.
func (p *parser) parseArchetype() *ast.Archetype {
	loc := p.curLoc()
	decs := p.takePendingDecorators()
	access := p.parseAccess()

	kindTok := p.cur()
	var kind ast.ArchetypeKind
	switch kindTok.Text {
	case "node":
		kind = ast.KindNode
	case "edge":
		kind = ast.KindEdge
	case "walker":
		kind = ast.KindWalker
	case "object":
		kind = ast.KindObject
	case "class":
		kind = ast.KindClass
	default:
		p.diag(fmt.Sprintf("expected archetype kind, found %q", kindTok.Text), false)
		p.pos++
		return nil
	}
	p.pos++ // kind keyword

	name := p.cur().Text
	p.pos++ // name

	arch := &ast.Archetype{
		Location:   loc,
		Kind:       kind,
		Name:       name,
		Access:     access,
		Decorators: decs,
	}
	for _, d := range decs {
		if d.Name == "streaming" {
			arch.Streaming = true
		}
	}

	if p.isSymbol("(") {
		p.pos++
		for !p.isSymbol(")") && !p.atEOF() {
			arch.Bases = append(arch.Bases, p.cur().Text)
			p.pos++
			if p.isSymbol(",") {
				p.pos++
			}
		}
		if p.isSymbol(")") {
			p.pos++
		}
	}

	if !p.isSymbol("{") {
		// Forward declaration awaiting an impl block elsewhere.
		p.skipStray()
		return arch
	}
	arch.HasBody = true
	p.pos++ // '{'
	for !p.isSymbol("}") && !p.atEOF() {
		p.skipStray()
		if p.isSymbol("}") {
			break
		}
		switch {
		case p.isDecorator():
			p.pendingDecorators = p.parseDecorators()
			continue
		case p.isKeyword("has"):
			arch.Fields = append(arch.Fields, p.parseField())
		case p.isKeyword("can"):
			ab := p.parseAbility(name)
			arch.Abilities = append(arch.Abilities, ab)
		default:
			p.diag(fmt.Sprintf("unexpected token %q in archetype body", p.cur().Text), false)
			p.pos++
		}
	}
	if p.isSymbol("}") {
		p.pos++
	}
	return arch
}

// parseField parses `has name: Type [= default];`.
func (p *parser) parseField() *ast.Field {
	loc := p.curLoc()
	p.pos++ // 'has'
	f := &ast.Field{Location: loc}
	f.Name = p.cur().Text
	p.pos++
	if p.isSymbol(":") {
		p.pos++
		f.TypeName = p.cur().Text
		p.pos++
	}
	if p.isSymbol("=") {
		p.pos++
		f.HasDef = true
		f.Default = p.consumeExprText()
	}
	p.skipStray()
	return f
}

// parseAbility parses `can name(params) [-> RetType] [with Other entry|exit] { body }`
// or its bodyless forward form terminated by `;`.
func (p *parser) parseAbility(ownerArch string) *ast.Ability {
	loc := p.curLoc()
	decs := p.takePendingDecorators()
	p.pos++ // 'can'

	ab := &ast.Ability{Location: loc, OwnerArch: ownerArch, Decorators: decs, Access: ast.AccessPublic}
	for _, d := range decs {
		switch d.Name {
		case "streaming":
			ab.Streaming = true
		case "api", "public_api":
			ab.IsPublicAPI = true
		}
	}
	ab.Name = p.cur().Text
	p.pos++

	if p.isSymbol("(") {
		p.pos++
		for !p.isSymbol(")") && !p.atEOF() {
			ab.Params = append(ab.Params, p.parseParam())
			if p.isSymbol(",") {
				p.pos++
			}
		}
		if p.isSymbol(")") {
			p.pos++
		}
	}
	if p.isSymbol("->") {
		p.pos++
		ab.ReturnType = p.cur().Text
		p.pos++
	}
	if p.isKeyword("with") {
		p.pos++
		if !p.isKeyword("entry") && !p.isKeyword("exit") {
			ab.OtherArch = p.cur().Text
			p.pos++
		}
		switch {
		case p.isKeyword("entry"):
			ab.IsEntry = true
			p.pos++
		case p.isKeyword("exit"):
			ab.IsExit = true
			p.pos++
		}
	}

	if p.isSymbol("{") {
		ab.HasBody = true
		ab.Body = p.parseBody()
	} else {
		p.skipStray()
	}
	return ab
}

func (p *parser) parseParam() *ast.Field {
	loc := p.curLoc()
	f := &ast.Field{Location: loc}
	f.Name = p.cur().Text
	p.pos++
	if p.isSymbol(":") {
		p.pos++
		f.TypeName = p.cur().Text
		p.pos++
	}
	if p.isSymbol("=") {
		p.pos++
		f.HasDef = true
		f.Default = p.consumeExprText()
	}
	return f
}

// parseBody parses a brace-delimited block into a flat list of classified
// statements. Expression grammar is intentionally shallow: each statement
// is scanned up to its terminating `;` or `}` and classified by its
// leading keyword so later passes can recognize visit/report/disengage
// without a full expression parser.
func (p *parser) parseBody() *ast.Body {
	loc := p.curLoc()
	body := &ast.Body{Location: loc}
	p.pos++ // '{'
	for !p.isSymbol("}") && !p.atEOF() {
		p.skipStray()
		if p.isSymbol("}") || p.atEOF() {
			break
		}
		body.Statements = append(body.Statements, p.parseStmt())
	}
	if p.isSymbol("}") {
		p.pos++
	}
	return body
}

func (p *parser) parseStmt() *ast.Stmt {
	loc := p.curLoc()
	kind := "expr"
	var args []string
	leading := p.cur()

	switch {
	case leading.Kind == lexer.Keyword && leading.Text == "visit":
		kind = "visit"
		p.pos++
	case leading.Kind == lexer.Keyword && leading.Text == "report":
		kind = "report"
		p.pos++
	case leading.Kind == lexer.Keyword && leading.Text == "disengage":
		kind = "disengage"
		p.pos++
	case leading.Kind == lexer.Keyword && (leading.Text == "let" || leading.Text == "glob"):
		kind = "assign"
		p.pos++
	}

	depth := 0
	for !p.atEOF() {
		if p.isSymbol("{") || p.isSymbol("(") || p.isSymbol("[") {
			depth++
		}
		if p.isSymbol("}") || p.isSymbol(")") || p.isSymbol("]") {
			if depth == 0 {
				break
			}
			depth--
		}
		if depth == 0 && p.isSymbol(";") {
			break
		}
		args = append(args, tokenText(p.cur()))
		p.pos++
	}
	text := strings.Join(args, " ")
	if p.isSymbol(";") {
		p.pos++
	}
	return &ast.Stmt{Location: loc, Kind: kind, Text: text, Args: args}
}

// consumeExprText scans a single default-value expression up to the next
// top-level `,`, `;`, `)`, or `}`.
func (p *parser) consumeExprText() string {
	var parts []string
	depth := 0
	for !p.atEOF() {
		if p.isSymbol("(") || p.isSymbol("[") || p.isSymbol("{") {
			depth++
		}
		if p.isSymbol(")") || p.isSymbol("]") || p.isSymbol("}") {
			if depth == 0 {
				break
			}
			depth--
		}
		if depth == 0 && (p.isSymbol(",") || p.isSymbol(";")) {
			break
		}
		parts = append(parts, tokenText(p.cur()))
		p.pos++
	}
	return strings.Join(parts, " ")
}

// tokenText renders t's text for inclusion in a shallow-parsed statement
// or default-value expression. String tokens have their delimiting
// quotes stripped by the lexer, which would otherwise make a literal
// indistinguishable from a bare identifier once joined into Stmt.Text;
// re-wrapping them here lets the Walker Runtime's statement interpreter
// tell "T" (a literal) apart from T (a lookup) without a full expression
// parser.
func tokenText(t lexer.Token) string {
	if t.Kind == lexer.String {
		return strconv.Quote(t.Text)
	}
	return t.Text
}

// parseImplAsArchetypeDecl parses `impl Name[.method] { ... }` and records
// it as a pseudo-archetype annex contribution on the module; the Annex
// Loader and Symbol/Def-Impl Match pass fold it into its target later.
func (p *parser) parseImplAsArchetypeDecl() {
	loc := p.curLoc()
	p.pos++ // 'impl'
	target := p.cur().Text
	p.pos++
	archName, methodName := target, ""
	if p.isSymbol(".") {
		p.pos++
		methodName = p.cur().Text
		p.pos++
	}

	impl := &ast.ImplBlock{Location: loc, TargetName: target, ArchName: archName, MethodName: methodName}
	if p.isSymbol("{") && methodName == "" {
		p.pos++ // '{'
		for !p.isSymbol("}") && !p.atEOF() {
			switch {
			case p.isKeyword("has"):
				impl.Fields = append(impl.Fields, p.parseField())
			case p.isKeyword("can"):
				impl.Abilities = append(impl.Abilities, p.parseAbility(archName))
			default:
				p.pos++
			}
		}
		if p.isSymbol("}") {
			p.pos++
		}
	} else if p.isSymbol("{") {
		impl.Body = p.parseBody()
	} else {
		p.skipStray()
	}
	p.mod.Impls = append(p.mod.Impls, impl)
}

// parseWithEntry parses a top-level `with entry [Name] { ... }` block.
func (p *parser) parseWithEntry() *ast.WithEntry {
	loc := p.curLoc()
	p.pos++ // 'with'
	if p.isKeyword("entry") {
		p.pos++
	}
	we := &ast.WithEntry{Location: loc}
	if !p.isSymbol("{") {
		we.Name = p.cur().Text
		p.pos++
	}
	if p.isSymbol("{") {
		we.Body = p.parseBody()
	} else {
		p.skipStray()
	}
	p.mod.Globals = append(p.mod.Globals, we)
	return we
}
