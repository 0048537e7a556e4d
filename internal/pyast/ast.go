// Package pyast defines the Python syntax-tree abstraction consumed by
// the analysis engine. The tree is fully materialized by a parser front
// end (internal/pyparse) before analysis starts; nothing in this package
// performs I/O or retains state across files.
//
// Constructs the engine does not reason about are lowered to Opaque
// nodes. An Opaque node still carries its nested statements so scope
// resolution observes every write, but detectors treat it as missing
// information.
package pyast

import "github.com/standardbeagle/pycheck/internal/types"

// Node is implemented by every statement and expression.
type Node interface {
	Span() types.Span
}

// Stmt is the statement marker.
type Stmt interface {
	Node
	stmtNode()
}

// Expr is the expression marker.
type Expr interface {
	Node
	exprNode()
}

type Base struct{ Loc types.Span }

// Span returns the node's source span.
func (b Base) Span() types.Span { return b.Loc }

// Module is the root of one file's tree.
type Module struct {
	Base
	Body []Stmt
}

// ---- statements ----

// Param is a function parameter. Default values are kept for span
// bookkeeping only.
type Param struct {
	Base
	Name    string
	Default Expr
}

// FuncDef declares a function. The name binds in the enclosing scope;
// parameters bind in the function's own scope.
type FuncDef struct {
	Base
	Name     string
	NameSpan types.Span
	Params   []*Param
	Body     []Stmt
	IsLambda bool
}

// ClassDef declares a class. Bases keeps the declaration order;
// ancestry resolution only ever walks the first one.
type ClassDef struct {
	Base
	Name     string
	NameSpan types.Span
	Bases    []Expr
	Body     []Stmt
}

// Assign is `targets... = value`, with chained form `x = y = v`
// flattened into multiple targets. Unpacked holds targets bound by
// destructuring (`a, b = v`), whose individual values are unknown.
type Assign struct {
	Base
	Targets  []Expr
	Unpacked []Expr
	Value    Expr
}

// AugAssign is `target op= value`. The produced value derives from the
// prior one, so it always counts as a non-literal assignment.
type AugAssign struct {
	Base
	Target Expr
	Op     string
	Value  Expr
}

// ExprStmt is a standalone expression statement.
type ExprStmt struct {
	Base
	Value Expr
}

// If covers if/elif/else; an elif arm appears as a nested If in Else.
type If struct {
	Base
	Cond Expr
	Body []Stmt
	Else []Stmt
}

// While is a while loop with optional else arm.
type While struct {
	Base
	Cond Expr
	Body []Stmt
	Else []Stmt
}

// For is a for loop. Target names rebind once per iteration.
type For struct {
	Base
	Target Expr
	Iter   Expr
	Body   []Stmt
	Else   []Stmt
}

// ExceptHandler is one except clause. Alias, when present, binds the
// caught exception in the enclosing scope.
type ExceptHandler struct {
	Base
	Type  Expr
	Alias *Name
	Body  []Stmt
}

// Try is a try/except/else/finally statement.
type Try struct {
	Base
	Body     []Stmt
	Handlers []*ExceptHandler
	Else     []Stmt
	Finally  []Stmt
}

// With lowers a with statement: items evaluated, aliases bound, body run.
type With struct {
	Base
	Items   []Expr
	Aliases []*Name
	Body    []Stmt
}

// Raise is a raise statement; Exc may be nil for a bare re-raise.
type Raise struct {
	Base
	Exc   Expr
	Cause Expr
}

// Return is a return statement; Value may be nil.
type Return struct {
	Base
	Value Expr
}

// Global redirects the listed names to the module scope.
type Global struct {
	Base
	Names []*Name
}

// Nonlocal redirects the listed names to the nearest enclosing
// function scope that binds them.
type Nonlocal struct {
	Base
	Names []*Name
}

// Import binds one or more names to imported modules or members.
// Each binding keeps its dotted source path for knowledge-base lookup.
type Import struct {
	Base
	Bindings []ImportBinding
}

// ImportBinding is one name introduced by an import statement.
type ImportBinding struct {
	Name *Name
	Path string
}

// Delete unbinds names; treated as a non-literal write for constancy.
type Delete struct {
	Base
	Targets []Expr
}

// Pass is a no-op statement (also covers break/continue/assert, which
// neither bind names nor carry checked expressions).
type Pass struct {
	Base
}

// OpaqueStmt wraps a statement kind the engine does not model. Nested
// blocks and possible binding targets are preserved so resolution stays
// conservative.
type OpaqueStmt struct {
	Base
	// BoundNames are identifiers the statement may write (e.g. match
	// capture patterns). Each is demoted to non-constant.
	BoundNames []*Name
	Exprs      []Expr
	Body       []Stmt
}

func (*Module) stmtNode()     {}
func (*FuncDef) stmtNode()    {}
func (*ClassDef) stmtNode()   {}
func (*Assign) stmtNode()     {}
func (*AugAssign) stmtNode()  {}
func (*ExprStmt) stmtNode()   {}
func (*If) stmtNode()         {}
func (*While) stmtNode()      {}
func (*For) stmtNode()        {}
func (*Try) stmtNode()        {}
func (*With) stmtNode()       {}
func (*Raise) stmtNode()      {}
func (*Return) stmtNode()     {}
func (*Global) stmtNode()     {}
func (*Nonlocal) stmtNode()   {}
func (*Import) stmtNode()     {}
func (*Delete) stmtNode()     {}
func (*Pass) stmtNode()       {}
func (*OpaqueStmt) stmtNode() {}

// ---- expressions ----

// LiteralKind discriminates scalar literal values.
type LiteralKind uint8

const (
	LitInt LiteralKind = iota
	LitFloat
	LitBool
	LitStr
	LitBytes
	LitNone
)

func (k LiteralKind) String() string {
	switch k {
	case LitInt:
		return "int"
	case LitFloat:
		return "float"
	case LitBool:
		return "bool"
	case LitStr:
		return "str"
	case LitBytes:
		return "bytes"
	case LitNone:
		return "None"
	}
	return "unknown"
}

// Literal is a scalar literal. Raw is the source text.
type Literal struct {
	Base
	Kind LiteralKind
	Raw  string
}

// DisplayKind discriminates container display forms.
type DisplayKind uint8

const (
	DisplayList DisplayKind = iota
	DisplayTuple
	DisplaySet
	DisplayDict
)

func (k DisplayKind) String() string {
	switch k {
	case DisplayList:
		return "list"
	case DisplayTuple:
		return "tuple"
	case DisplaySet:
		return "set"
	case DisplayDict:
		return "dict"
	}
	return "unknown"
}

// Display is a list/tuple/set/dict display. Elts holds plain elements
// (pair values for dicts); Splats holds unpacking elements.
type Display struct {
	Base
	Kind   DisplayKind
	Elts   []Expr
	Splats []Expr
}

// Name is an identifier reference or binding occurrence.
type Name struct {
	Base
	ID string
}

// Attribute is `Value.Attr`. AttrSpan covers the attribute name only.
type Attribute struct {
	Base
	Value    Expr
	Attr     string
	AttrSpan types.Span
}

// Subscript is `Value[Index]`.
type Subscript struct {
	Base
	Value Expr
	Index Expr
}

// Call is a call expression. Args holds positional and keyword argument
// value expressions in source order.
type Call struct {
	Base
	Func Expr
	Args []Expr
}

// BoolOp is one `and`/`or` operator application. Chains appear as
// nested BoolOps exactly as parsed; flattening into maximal chains is
// the analyzer's job.
type BoolOp struct {
	Base
	Op    string // "and" or "or"
	Left  Expr
	Right Expr
}

// Not is the unary `not` operator; its operand is a condition.
type Not struct {
	Base
	Operand Expr
}

// Compare is a comparison chain. Ops are the operator lexemes in
// order ("<", "in", "not in", ...).
type Compare struct {
	Base
	Operands []Expr
	Ops      []string
}

// IfExp is `Body if Cond else Else`.
type IfExp struct {
	Base
	Cond Expr
	Body Expr
	Else Expr
}

// Yield is a yield or yield-from expression.
type Yield struct {
	Base
	Value Expr
}

// NamedExpr is the walrus operator `Target := Value`.
type NamedExpr struct {
	Base
	Target *Name
	Value  Expr
}

// OpaqueExpr is any expression form the engine does not model
// (arithmetic, comprehensions, f-strings with interpolation, await...).
// Sub-expressions are preserved for resolution.
type OpaqueExpr struct {
	Base
	Exprs []Expr
	// Funcs holds nested function-like scopes (lambdas inside opaque
	// expressions) so their bodies still resolve.
	Funcs []*FuncDef
}

func (*Literal) exprNode()    {}
func (*Display) exprNode()    {}
func (*Name) exprNode()       {}
func (*Attribute) exprNode()  {}
func (*Subscript) exprNode()  {}
func (*Call) exprNode()       {}
func (*BoolOp) exprNode()     {}
func (*Not) exprNode()        {}
func (*Compare) exprNode()    {}
func (*IfExp) exprNode()      {}
func (*Yield) exprNode()      {}
func (*NamedExpr) exprNode()  {}
func (*OpaqueExpr) exprNode() {}
