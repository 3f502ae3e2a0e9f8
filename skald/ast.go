package skald

// Pos is a source position carried by every AST node.
type Pos struct {
	Line int
	Col  int
}

// Node is implemented by every AST node.
type Node interface {
	Position() Pos
}

func (p Pos) Position() Pos { return p }

// Program is one parsed translation unit, together with the struct
// types it declared.
type Program struct {
	Pos
	Decls []Decl
	Types *Registry
}

// Decl is a top-level declaration.
type Decl interface {
	Node
	decl()
}

// StructDecl declares a flat struct type.
type StructDecl struct {
	Pos
	Name string
	Type *StructType
}

// VarDecl declares a global or local variable. Global initializers
// are restricted to compile-time integer literals.
type VarDecl struct {
	Pos
	Name   string
	Ty     Type
	Init   Expr
	Global bool
}

// Param is one function parameter, optionally pinned to a register
// with an `in` hint.
type Param struct {
	Pos
	Name    string
	Ty      Type
	RegHint string
}

// FuncDecl declares a function. RetHint pins the return register.
type FuncDecl struct {
	Pos
	Name    string
	Params  []Param
	RetTy   Type
	RetHint string
	Body    []Stmt
}

func (*StructDecl) decl() {}
func (*VarDecl) decl()    {}
func (*FuncDecl) decl()   {}

// Stmt is a statement.
type Stmt interface {
	Node
	stmt()
}

// Return returns an optional value.
type Return struct {
	Pos
	Value Expr
}

// Assign assigns to a name, field, or array element. Op is "=" or a
// compound operator (+=, -=, &=, |=, ^=, <<=, >>=, <<<=, >>>=).
type Assign struct {
	Pos
	Target Expr
	Value  Expr
	Op     string
}

// ExprStmt evaluates an expression for effect (calls only).
type ExprStmt struct {
	Pos
	X Expr
}

// If is a conditional with an optional else block.
type If struct {
	Pos
	Cond Expr
	Then []Stmt
	Else []Stmt
}

// While is a pre-tested loop.
type While struct {
	Pos
	Cond Expr
	Body []Stmt
}

// Break exits the innermost loop.
type Break struct{ Pos }

// Continue re-tests the innermost loop.
type Continue struct{ Pos }

func (*VarDecl) stmt()  {}
func (*Return) stmt()   {}
func (*Assign) stmt()   {}
func (*ExprStmt) stmt() {}
func (*If) stmt()       {}
func (*While) stmt()    {}
func (*Break) stmt()    {}
func (*Continue) stmt() {}

// Expr is an expression.
type Expr interface {
	Node
	expr()
}

// IntLiteral is an integer literal.
type IntLiteral struct {
	Pos
	Value int64
}

// NameRef references a variable.
type NameRef struct {
	Pos
	Ident string
}

// FieldAccess selects a struct field.
type FieldAccess struct {
	Pos
	Base  Expr // NameRef in the current surface
	Field string
}

// ArrayIndex selects a one-dimensional array element.
type ArrayIndex struct {
	Pos
	Base  Expr // NameRef in the current surface
	Index Expr
}

// AddressOf is get_addr(lvalue): the typed address of a struct field
// or a struct value.
type AddressOf struct {
	Pos
	Target Expr // NameRef or FieldAccess
}

// Deref is get_content(addr): a load through a typed address. The
// argument must be an AddressOf expression.
type Deref struct {
	Pos
	Addr Expr
}

// Unary is ~x (bitwise not). Unary +/- parse as 0+x / 0-x.
type Unary struct {
	Pos
	Op string
	X  Expr
}

// Binary is a binary operation.
type Binary struct {
	Pos
	Op  string
	LHS Expr
	RHS Expr
}

// Call invokes a user function.
type Call struct {
	Pos
	Callee string
	Args   []Expr
}

// Cast is cast_u24/cast_s24: a bit-preserving reinterpret between the
// data types.
type Cast struct {
	Pos
	Target Type
	X      Expr
}

func (*IntLiteral) expr()  {}
func (*NameRef) expr()     {}
func (*FieldAccess) expr() {}
func (*ArrayIndex) expr()  {}
func (*AddressOf) expr()   {}
func (*Deref) expr()       {}
func (*Unary) expr()       {}
func (*Binary) expr()      {}
func (*Call) expr()        {}
func (*Cast) expr()        {}
