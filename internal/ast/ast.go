// Package ast defines the shared raw-AST vocabulary every frontend parser
// (frontend/kry, frontend/xmlkry, frontend/jsx, frontend/sexpr) produces.
// The IR builder consumes exactly this vocabulary regardless of which
// concrete DSL flavor parsed the source, which is what lets four unrelated
// grammars converge on one IR.
//
// Unlike the IR's Expression/Value tagged unions (internal/ir), names here
// are still plain strings — interning into the string table happens later,
// during IR Build's symbol-gather stage. The AST is owned by the builder
// and consumed on build; nothing downstream retains a reference into it.
package ast

import "github.com/kryonlabs/kryon/internal/token"

// Location pins a node to a point in its source file.
type Location struct {
	File   string
	Line   int
	Column int
}

// Node is any AST node. Every concrete node embeds Location and exposes it
// via Loc, satisfying both the shared record-a-location requirement and
// letting a single recover/synchronize routine report positions uniformly.
type Node interface {
	Loc() Location
	node()
}

// Directive is the marker interface for the `@name` directive variants
// below. Every directive is also a Node so it can sit inline in a body
// list — parsers are order-tolerant: directives and elements interleave.
type Directive interface {
	Node
	directive()
}

// Expression is the marker interface for raw (pre-IR) expression nodes.
type Expression interface {
	Node
	expr()
}

// Statement is a handler-body statement. Only assignment is effectful;
// everything else is a bare expression evaluated for its value, with the
// last statement in a body doubling as its implicit result.
type Statement interface {
	Node
	stmt()
}

// HandlerBody is either an inline statement list or a reference to a named
// function definition.
type HandlerBody interface {
	handlerBody()
}

// InlineHandler is a `{ ... }` handler body evaluated in place.
type InlineHandler struct {
	Statements []Statement
}

func (InlineHandler) handlerBody() {}

// NamedHandler references a FunctionDef by name instead of inlining code.
type NamedHandler struct {
	FunctionName string
}

func (NamedHandler) handlerBody() {}

// --- Root -------------------------------------------------------------

// Root is the top of one parsed file.
type Root struct {
	Location
	Directives []Directive
	Body       []Node
}

func (r *Root) Loc() Location { return r.Location }
func (*Root) node()           {}

// --- Element ------------------------------------------------------------

// Element is one `TypeName { ... }` block, generalized across every
// frontend's surface syntax (indented block, XML tag, JSX element, sexpr
// list).
type Element struct {
	Location
	TypeName   string
	ID         string // empty if unset
	StyleRef   string // empty if unset
	Properties []*Property
	Events     []*Event
	Children   []Node
}

func (e *Element) Loc() Location { return e.Location }
func (*Element) node()           {}

// Property is a single `name: value` pair on an element or style.
type Property struct {
	Location
	Name  string
	Value Expression
}

func (p *Property) Loc() Location { return p.Location }
func (*Property) node()           {}

// Event binds a handler to an event kind on an element.
type Event struct {
	Location
	Kind    string
	Handler HandlerBody
}

func (e *Event) Loc() Location { return e.Location }
func (*Event) node()           {}

// --- Definitions ----------------------------------------------------------

// Param is one component parameter, with an optional default expression.
type Param struct {
	Location
	Name    string
	Default Expression // nil if required
}

// ComponentDef declares a reusable component. The builder expands every
// instance of it inline, so instances of this definition never survive into
// IR — only the definition itself, verbatim, for round-trip/documentation.
type ComponentDef struct {
	Location
	Name       string
	Params     []Param
	Parent     string // empty if none
	StateVars  []*StateDef
	Functions  []*FunctionDef
	OnMount    *LifecycleHook
	OnUnmount  *LifecycleHook
	Body       []Node
}

func (c *ComponentDef) Loc() Location  { return c.Location }
func (*ComponentDef) node()            {}
func (*ComponentDef) directive()       {}

// LifecycleHook is an `on_mount { ... }` / `on_unmount { ... }` body.
type LifecycleHook struct {
	Location
	Statements []Statement
}

// StyleDef declares a named, possibly-inheriting property bundle.
type StyleDef struct {
	Location
	Name       string
	Parent     string // empty if none
	Properties []*Property
}

func (s *StyleDef) Loc() Location { return s.Location }
func (*StyleDef) node()           {}
func (*StyleDef) directive()      {}

// ThemeDef declares one named group of theme variables.
type ThemeDef struct {
	Location
	Group     string
	Variables []*ThemeVariable
}

func (t *ThemeDef) Loc() Location { return t.Location }
func (*ThemeDef) node()           {}
func (*ThemeDef) directive()      {}

// ThemeVariable is one `name: type = initial` entry inside a ThemeDef.
type ThemeVariable struct {
	Location
	Name    string
	Type    string
	Initial Expression
}

// --- Directive variants ----------------------------------------------------

// VariablesDirective is a top-level `@var` block of plain assignments.
type VariablesDirective struct {
	Location
	Assignments []*VarAssign
}

func (d *VariablesDirective) Loc() Location { return d.Location }
func (*VariablesDirective) node()           {}
func (*VariablesDirective) directive()      {}

// VarAssign is one `name = expr` pair inside a VariablesDirective.
type VarAssign struct {
	Location
	Name  string
	Value Expression
}

// ConstDirective declares a single compile-time constant.
type ConstDirective struct {
	Location
	Name  string
	Value Expression
}

func (d *ConstDirective) Loc() Location { return d.Location }
func (*ConstDirective) node()           {}
func (*ConstDirective) directive()      {}

// ForDirective is `@for`/`@const_for`; IsConst distinguishes the two — only
// the const form is unrolled at build time. frontend/kry parses both forms
// into this node without a diagnostic; the IR builder does not lower the
// plain form, so a non-const @for contributes no IR elements.
type ForDirective struct {
	Location
	IsConst  bool
	Index    string // bound loop index name, empty if unused
	Var      string
	Iterable Expression
	Body     []Node
}

func (d *ForDirective) Loc() Location { return d.Location }
func (*ForDirective) node()           {}
func (*ForDirective) directive()      {}

// ElifPair is one `@elif cond { ... }` clause.
type ElifPair struct {
	Cond Expression
	Body []Node
}

// IfDirective is `@if`/`@const_if`.
type IfDirective struct {
	Location
	IsConst   bool
	Cond      Expression
	Then      []Node
	ElifPairs []ElifPair
	Else      []Node // nil if no @else
}

func (d *IfDirective) Loc() Location { return d.Location }
func (*IfDirective) node()           {}
func (*IfDirective) directive()      {}

// IncludeDirective inlines another file's body.
type IncludeDirective struct {
	Location
	Path     string
	Expanded bool // set once the builder has resolved it, to detect cycles
}

func (d *IncludeDirective) Loc() Location { return d.Location }
func (*IncludeDirective) node()           {}
func (*IncludeDirective) directive()      {}

// ImportDirective brings named symbols from another compilation unit into
// scope.
type ImportDirective struct {
	Location
	Path    string
	Symbols []string // empty means import everything exported
}

func (d *ImportDirective) Loc() Location { return d.Location }
func (*ImportDirective) node()           {}
func (*ImportDirective) directive()      {}

// ExportDirective marks symbols as visible to importers.
type ExportDirective struct {
	Location
	Symbols []string
}

func (d *ExportDirective) Loc() Location { return d.Location }
func (*ExportDirective) node()           {}
func (*ExportDirective) directive()      {}

// FunctionDef declares a named handler function, bytecode or host-language.
// Language "" (the empty string) means the embedded bytecode language; any
// other tag ("js", "lua", "rc", ...) means Code is host source handed
// through verbatim for a non-bytecode runtime to execute.
type FunctionDef struct {
	Location
	Language string
	Name     string
	Params   []string
	Body     []Statement // only meaningful when Language == ""
	Code     string      // only meaningful when Language != ""
}

func (d *FunctionDef) Loc() Location { return d.Location }
func (*FunctionDef) node()           {}
func (*FunctionDef) directive()      {}

// StateDef declares one reactive state variable.
type StateDef struct {
	Location
	Name    string
	Type    string // "int" | "float" | "string" | "bool", empty to infer from Initial
	Initial Expression
}

func (d *StateDef) Loc() Location { return d.Location }
func (*StateDef) node()           {}
func (*StateDef) directive()      {}

// WatchDirective binds a handler to run whenever Var changes.
type WatchDirective struct {
	Location
	Var     string
	Handler HandlerBody
}

func (d *WatchDirective) Loc() Location { return d.Location }
func (*WatchDirective) node()           {}
func (*WatchDirective) directive()      {}

// EventDirective is a top-level (non-element-scoped) event binding, e.g. a
// component-level `@event`.
type EventDirective struct {
	Location
	Kind    string
	Handler HandlerBody
}

func (d *EventDirective) Loc() Location { return d.Location }
func (*EventDirective) node()           {}
func (*EventDirective) directive()      {}

// UnknownDirective is the recoverable placeholder for an unrecognized
// `@name ...`: it leaves this node in the AST with a diagnostic attached,
// rather than aborting the parse.
type UnknownDirective struct {
	Location
	Name       string
	Diagnostic string
}

func (d *UnknownDirective) Loc() Location { return d.Location }
func (*UnknownDirective) node()           {}
func (*UnknownDirective) directive()      {}

// --- Statements -------------------------------------------------------------

// ExprStatement evaluates an expression for its value (and, for the last
// statement in a handler body, as the implicit result).
type ExprStatement struct {
	Location
	Expr Expression
}

func (s *ExprStatement) Loc() Location { return s.Location }
func (*ExprStatement) node()           {}
func (*ExprStatement) stmt()           {}

// AssignStatement is `target = expr`, the only effectful form the bytecode
// compiler accepts.
type AssignStatement struct {
	Location
	Target string
	Value  Expression
}

func (s *AssignStatement) Loc() Location { return s.Location }
func (*AssignStatement) node()           {}
func (*AssignStatement) stmt()           {}

// --- Expressions -------------------------------------------------------------

// LiteralKind tags a Literal's payload.
type LiteralKind int

const (
	LitString LiteralKind = iota
	LitInt
	LitFloat
	LitBool
	LitNull
	LitColor
	LitUnit
)

// LiteralValue is the raw, not-yet-interned payload of a Literal expression.
type LiteralValue struct {
	Kind      LiteralKind
	Str       string
	Int       int64
	Float     float64
	Bool      bool
	Color     [4]uint8
	UnitValue float64
	Unit      token.Unit
}

// Literal is a constant value appearing directly in source.
type Literal struct {
	Location
	Value LiteralValue
}

func (e *Literal) Loc() Location { return e.Location }
func (*Literal) node()           {}
func (*Literal) expr()           {}

// VarRef refers to a variable, constant, or state cell by name.
type VarRef struct {
	Location
	Name string
}

func (e *VarRef) Loc() Location { return e.Location }
func (*VarRef) node()           {}
func (*VarRef) expr()           {}

// MemberAccess is `target.member`.
type MemberAccess struct {
	Location
	Target Expression
	Member string
}

func (e *MemberAccess) Loc() Location { return e.Location }
func (*MemberAccess) node()           {}
func (*MemberAccess) expr()           {}

// ArrayAccess is `target[index]`.
type ArrayAccess struct {
	Location
	Target Expression
	Index  Expression
}

func (e *ArrayAccess) Loc() Location { return e.Location }
func (*ArrayAccess) node()           {}
func (*ArrayAccess) expr()           {}

// BinaryOp is a closed-enum infix operator application. Op is one of:
// "+" "-" "*" "/" "%" "==" "!=" "<" ">" "<=" ">=" "&&" "||".
type BinaryOp struct {
	Location
	Op          string
	Left, Right Expression
}

func (e *BinaryOp) Loc() Location { return e.Location }
func (*BinaryOp) node()           {}
func (*BinaryOp) expr()           {}

// UnaryOp is a closed-enum prefix operator application: "-" or "!".
type UnaryOp struct {
	Location
	Op      string
	Operand Expression
}

func (e *UnaryOp) Loc() Location { return e.Location }
func (*UnaryOp) node()           {}
func (*UnaryOp) expr()           {}

// Ternary is `cond ? then : else`.
type Ternary struct {
	Location
	Cond, Then, Else Expression
}

func (e *Ternary) Loc() Location { return e.Location }
func (*Ternary) node()           {}
func (*Ternary) expr()           {}

// FunctionCall invokes a named function (either a FunctionDef or a builtin)
// with positional arguments.
type FunctionCall struct {
	Location
	Name string
	Args []Expression
}

func (e *FunctionCall) Loc() Location { return e.Location }
func (*FunctionCall) node()           {}
func (*FunctionCall) expr()           {}

// TemplateSegment is one piece of a Template: either a literal string run or
// an embedded expression (`${...}`).
type TemplateSegment struct {
	Literal string // valid when Expr == nil
	Expr    Expression
}

// Template is a `"...${expr}..."` interpolated string.
type Template struct {
	Location
	Segments []TemplateSegment
}

func (e *Template) Loc() Location { return e.Location }
func (*Template) node()           {}
func (*Template) expr()           {}

// ArrayLit is an `[a, b, c]` literal.
type ArrayLit struct {
	Location
	Elements []Expression
}

func (e *ArrayLit) Loc() Location { return e.Location }
func (*ArrayLit) node()           {}
func (*ArrayLit) expr()           {}

// ObjectEntry is one `key: value` pair inside an ObjectLit.
type ObjectEntry struct {
	Key   string
	Value Expression
}

// ObjectLit is a `{ key: value, ... }` literal used in expression position
// (distinct from a style/element block, which is a Node not an Expression).
type ObjectLit struct {
	Location
	Entries []ObjectEntry
}

func (e *ObjectLit) Loc() Location { return e.Location }
func (*ObjectLit) node()           {}
func (*ObjectLit) expr()           {}
