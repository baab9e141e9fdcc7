// Package ast defines the Rill abstract syntax tree: a closed sum of node
// kinds, each carrying a source span. Evaluation dispatches over node kind
// rather than through virtual methods (see DESIGN.md).
package ast

import "github.com/rill-lang/rill/internal/rill/token"

// Node is implemented by every AST node.
type Node interface {
	Span() token.Span
}

// Stmt is implemented by statement-level nodes.
type Stmt interface {
	Node
	stmtNode()
}

// Expr is implemented by expression-level nodes.
type Expr interface {
	Node
	exprNode()
}

type Base struct{ Sp token.Span }

func (b Base) Span() token.Span { return b.Sp }

// Script is the root node: optional frontmatter plus an ordered statement list.
type Script struct {
	Base
	Frontmatter *Frontmatter
	Statements  []Stmt
}

// Frontmatter is an opaque key/value header, left uninterpreted by the core.
type Frontmatter struct {
	Base
	Raw string
}

// Statement wraps a PipeChain expression, with an optional annotation prefix.
type Statement struct {
	Base
	Annotations []Annotation
	Chain       *PipeChain
}

func (*Statement) stmtNode() {}

// RecoveryError stands in for a statement that failed to parse in
// error-recovery mode.
type RecoveryError struct {
	Base
	Message string
}

func (*RecoveryError) stmtNode() {}

// Annotation is one entry of a `^(...)` annotation prefix.
type Annotation struct {
	Base
	Name   string // empty when this is a spread annotation
	Value  Expr   // nil when Spread is set
	Spread Expr   // set for `^(*x)`
}

// TerminatorKind distinguishes the tail of a PipeChain.
type TerminatorKind int

const (
	NoTerminator TerminatorKind = iota
	CaptureTerm                 // => $name or :> $name (aliases, see DESIGN.md)
	BreakTerm
	ReturnTerm
)

// PipeChain is a head expression followed by zero or more pipe segments and
// an optional terminator.
type PipeChain struct {
	Base
	Head          Expr
	Segments      []Expr
	Terminator    TerminatorKind
	CaptureTarget string // variable name when Terminator == CaptureTerm
}

func (*PipeChain) exprNode() {}

// Ident is a bare identifier used in host-call and namespace positions.
type Ident struct {
	Base
	Name string
}

func (*Ident) exprNode() {}

// Literal is a string, number, or bool constant.
type Literal struct {
	Base
	Value interface{} // string | float64 | bool | nil
}

func (*Literal) exprNode() {}

// InterpString is a string literal containing `{expr}` interpolations.
type InterpString struct {
	Base
	Parts []InterpPart
}

func (*InterpString) exprNode() {}

// InterpPart is either a literal text run or an embedded expression.
type InterpPart struct {
	Text string
	Expr Expr // nil when this part is a literal text run
}

// TupleLit is `[e1, e2, ...]`.
type TupleLit struct {
	Base
	Elements []Expr
	Spreads  []bool // parallel to Elements; true when the element is `*x`
}

func (*TupleLit) exprNode() {}

// DictEntry is one `key: value` pair of a dict literal.
type DictEntry struct {
	Key   interface{} // string | float64 | bool
	Value Expr
}

// DictLit is `[k1: v1, k2: v2, ...]`.
type DictLit struct {
	Base
	Entries []DictEntry
}

func (*DictLit) exprNode() {}

// Param is one closure parameter.
type Param struct {
	Name    string
	Type    string // "", "string", "number", "bool"
	Default Expr   // nil when absent
}

// Closure is `|params| body` or `|| body`.
type Closure struct {
	Base
	Params []Param
	Body   Expr // Block or a single Expression
}

func (*Closure) exprNode() {}

// Block is `{ s1 s2 ... sn }`.
type Block struct {
	Base
	Statements []Stmt
}

func (*Block) exprNode() {}

// Variable is a `$name` reference, the lone pipe variable `$`, or `$@`.
type VarKind int

const (
	VarNamed VarKind = iota
	VarPipe
	VarAccum
)

type Variable struct {
	Base
	Kind VarKind
	Name string // set when Kind == VarNamed
}

func (*Variable) exprNode() {}

// HostCall is `ns::name(args)` or `name(args)`.
type HostCall struct {
	Base
	Name string
	Args []Arg
}

func (*HostCall) exprNode() {}

// ClosureCall is `$name(args)` optionally followed by a property chain
// before the final call, e.g. `$fn.a.b(args)`.
type ClosureCall struct {
	Base
	Target Expr // Variable(VarNamed) or a property chain rooted at one
	Args   []Arg
}

func (*ClosureCall) exprNode() {}

// PipeInvoke is `$(args)`: invoke the current pipe value as a callable.
type PipeInvoke struct {
	Base
	Args []Arg
}

func (*PipeInvoke) exprNode() {}

// Arg is one call argument: positional, named, or a spread.
type Arg struct {
	Name   string // set for named args
	Value  Expr
	Spread bool
}

// MethodCall is `.name(args)` or bare `.name` applied to the preceding value.
type MethodCall struct {
	Base
	Name     string
	Args     []Arg
	HasParen bool
}

func (*MethodCall) exprNode() {}

// PropertyChain is `.a.b.c`, with an existence-check variant per hop
// (`.?a`) recorded in Safe.
type PropertyChain struct {
	Base
	Hops []PropertyHop
}

func (*PropertyChain) exprNode() {}

type PropertyHop struct {
	Name string
	Safe bool
}

// PostfixExpr is a primary plus postfix operations (method/property chain),
// with an optional `?? default`.
type PostfixExpr struct {
	Base
	Primary Expr
	Ops     []Expr // MethodCall | PropertyChain, applied in order
	Default Expr   // `?? default`, nil when absent
}

func (*PostfixExpr) exprNode() {}

// Conditional is `cond ? then ! else`.
type Conditional struct {
	Base
	Cond Expr
	Then Expr
	Else Expr
}

func (*Conditional) exprNode() {}

// WhileLoop is `@(cond) @ { body }`.
type WhileLoop struct {
	Base
	Cond   Expr
	Body   Expr
	DoWhile bool
}

func (*WhileLoop) exprNode() {}

// CollectionKind distinguishes each/map/fold/filter.
type CollectionKind int

const (
	KindEach CollectionKind = iota
	KindMap
	KindFold
	KindFilter
)

// CollectionExpr is `each|map|fold|filter (init)? body`.
type CollectionExpr struct {
	Base
	Kind    CollectionKind
	Init    Expr // optional accumulator initializer, each/fold only
	Body    Expr // Closure | Block | GroupedExpr | Variable | Spread
}

func (*CollectionExpr) exprNode() {}

// Destructure is `*< [pattern, ...]`.
type Destructure struct {
	Base
	Patterns []DestructPattern
}

func (*Destructure) exprNode() {}

// DestructPattern is one slot of a destructuring pattern.
type DestructPattern struct {
	Skip    bool // `_`
	Name    string
	Rest    bool // `*name` trailing collector
	Nested  []DestructPattern
}

// Slice is `/< [start:stop:step]`.
type Slice struct {
	Base
	Start Expr
	Stop  Expr
	Step  Expr
}

func (*Slice) exprNode() {}

// Spread is `*x` used in positions other than argument lists / tuple literals
// (those are represented inline via Arg.Spread / TupleLit.Spreads).
type Spread struct {
	Base
	Value Expr
}

func (*Spread) exprNode() {}

// BinaryOp enumerates binary operators.
type BinaryOp int

const (
	OpAdd BinaryOp = iota
	OpSub
	OpMul
	OpDiv
	OpMod
	OpEq
	OpNeq
	OpLt
	OpLe
	OpGt
	OpGe
	OpAnd
	OpOr
)

type BinaryExpr struct {
	Base
	Op    BinaryOp
	Left  Expr
	Right Expr
}

func (*BinaryExpr) exprNode() {}

// UnaryOp enumerates unary operators.
type UnaryOp int

const (
	OpNeg UnaryOp = iota
	OpNot
)

type UnaryExpr struct {
	Base
	Op      UnaryOp
	Operand Expr
}

func (*UnaryExpr) exprNode() {}

// GroupedExpr is a parenthesized expression, e.g. a while-condition wrapper
// `@(cond)` or a plain `(expr)` pipe target.
type GroupedExpr struct {
	Base
	Inner Expr
}

func (*GroupedExpr) exprNode() {}

// TypeOp is `:T` (assertion) or `:?T` (check), postfix on a value.
type TypeOp struct {
	Base
	Assert bool // true for `:T`, false for `:?T`
	Type   string
}

func (*TypeOp) exprNode() {}

// InvokeOp is a bare `(args)` postfix applied to the accumulated value,
// invoking it as a callable — covers `$fn.a.b(args)` once the `.a.b`
// property hops have been consumed as prior Ops.
type InvokeOp struct {
	Base
	Args []Arg
}

func (*InvokeOp) exprNode() {}
