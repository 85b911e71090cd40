// Copyright 2025 The Jac Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package ast defines the typed tree produced by the Parse pass and
// threaded, mutated, and annotated by every later pass in the pipeline.
//
// Every node carries a source Location so diagnostics and formatter
// round-trips can point back at exact text. Archetype-bearing kinds
// (Module, Archetype, Ability, ClientBlock, Decorator, Import, WithEntry)
// are the ones the rest of the pipeline cares about; expression-level
// nodes are represented generically via Body.
package ast

// Location is the source span of a single AST node: (path, first_line,
// last_line, first_col, last_col). Columns and lines are 1-indexed.
type Location struct {
	Path      string
	FirstLine int
	LastLine  int
	FirstCol  int
	LastCol   int
}

// ArchetypeKind enumerates the declarable archetype kinds.
type ArchetypeKind string

const (
	KindNode   ArchetypeKind = "node"
	KindEdge   ArchetypeKind = "edge"
	KindWalker ArchetypeKind = "walker"
	KindObject ArchetypeKind = "object"
	KindClass  ArchetypeKind = "class"
)

// Access is the declared visibility of a symbol or archetype member.
type Access string

const (
	AccessPublic    Access = "public"
	AccessProtected Access = "protected"
	AccessPrivate   Access = "private"
)

// SourceUnitKind classifies a parsed module by its role in a base
// module's annex set.
type SourceUnitKind string

const (
	UnitMain        SourceUnitKind = "main"
	UnitImpl        SourceUnitKind = "impl"
	UnitClient      SourceUnitKind = "client"
	UnitTest        SourceUnitKind = "test"
	UnitPackageInit SourceUnitKind = "package-init"
)

// Node is the common interface implemented by every AST node.
type Node interface {
	Loc() Location
}

// Module is the root of a parsed source unit.
type Module struct {
	Location   Location
	Name       string
	Path       string
	Kind       SourceUnitKind
	Imports    []*Import
	Archetypes []*Archetype
	Globals    []*WithEntry
	Clients    []*ClientBlock
	Impls      []*ImplBlock
	Functions  []*Ability // top-level callables (Ability.OwnerArch == "")
	StubOnly   bool
	AnnexedBy  string // non-empty when this module is itself an annex attached to a base

	// ImplMod, TestMod, and ClientMod hold the annex modules attached to
	// this base module by the Annex Loader. Populated only on main-kind
	// modules. ClientMod's ClientBlocks are also flattened onto Clients
	// above for lookup convenience; ClientMod itself exists so callers
	// that need the annex's own Path (e.g. the Hot Reloader, reverse-
	// resolving a changed .cl.jac file) don't have to re-derive it.
	ImplMod   []*Module
	TestMod   []*Module
	ClientMod []*Module
}

func (m *Module) Loc() Location { return m.Location }

func NewModule(loc Location, name, path string, kind SourceUnitKind) *Module {
	return &Module{Location: loc, Name: name, Path: path, Kind: kind}
}

// Import represents an `import from ...` statement.
type Import struct {
	Location   Location
	ModuleName string   // dotted logical name
	Items      []string // imported symbol names; empty means whole-module import
	Alias      string
	Reexport   bool // `import ... as pub` style re-export
}

func (n *Import) Loc() Location { return n.Location }

// Decorator is a `@name(args...)` annotation attached to an Archetype or
// Ability.
type Decorator struct {
	Location Location
	Name     string
	Args     []string
}

func (n *Decorator) Loc() Location { return n.Location }

// Field is a single typed attribute of an archetype's schema.
type Field struct {
	Location Location
	Name     string
	TypeName string
	HasDef   bool
	Default  string // textual representation; codegen backends interpret it
}

func (n *Field) Loc() Location { return n.Location }

// Archetype is a declared node/edge/walker/object/class.
type Archetype struct {
	Location   Location
	Kind       ArchetypeKind
	Name       string
	Access     Access
	Decorators []*Decorator
	Fields     []*Field
	Abilities  []*Ability
	Bases      []string // inheritance list
	HasBody    bool     // false for forward declarations awaiting an impl
	Streaming  bool     // walker archetypes declared `@streaming`
}

func (n *Archetype) Loc() Location { return n.Location }

// Ability is a handler declared on an archetype (`can NAME with TYPE
// entry|exit`) or a free-floating function/walker entry point.
type Ability struct {
	Location    Location
	Name        string
	OwnerArch   string // archetype this ability is declared on ("" for free functions)
	OtherArch   string // the paired archetype in a `with TYPE entry|exit` clause
	IsEntry     bool
	IsExit      bool
	HasBody     bool // no-body abilities require a matching impl
	Access      Access
	Decorators  []*Decorator
	Params      []*Field
	ReturnType  string
	Body        *Body
	IsFunction  bool // top-level callable function rather than an archetype ability
	IsPublicAPI bool // explicitly exported for API Server exposure
	Streaming   bool // declared `@streaming`; API Server responds with SSE
}

func (n *Ability) Loc() Location { return n.Location }

// ClientBlock is a declared client page export, rendered as HTML and
// invoked via `GET /{cl_prefix}/{name}`.
type ClientBlock struct {
	Location Location
	Name     string
	Body     *Body
}

func (n *ClientBlock) Loc() Location { return n.Location }

// WithEntry is a top-level `with entry { ... }` block, optionally named.
type WithEntry struct {
	Location Location
	Name     string // "" for the anonymous default entry block
	Body     *Body
}

func (n *WithEntry) Loc() Location { return n.Location }

// Body is an opaque statement block; the pipeline does not need to model
// full expression semantics to satisfy this spec, only to preserve text
// spans for unparsing and to let the interpreter backend walk statements.
type Body struct {
	Location   Location
	Statements []*Stmt
}

func (n *Body) Loc() Location { return n.Location }

// Stmt is a single opaque source statement retained verbatim alongside a
// coarse Kind used by later passes that need to recognize calls like
// `visit`, `report`, and `disengage` without a full expression grammar.
type Stmt struct {
	Location Location
	Kind     string // "visit" | "report" | "disengage" | "expr" | "assign" | "spawn" | "connect" | other
	Text     string
	Args     []string
}

func (n *Stmt) Loc() Location { return n.Location }

// ImplBlock represents a parsed `impl Name[.method] { ... }` annex
// contribution before the Symbol/Def-Impl Match pass folds it into the
// matching Ability/Archetype body.
type ImplBlock struct {
	Location   Location
	TargetName string // "Name" or "Name.method"
	ArchName   string
	MethodName string // "" when implementing a whole archetype
	Body       *Body
	Abilities  []*Ability
	Fields     []*Field
}

func (n *ImplBlock) Loc() Location { return n.Location }
