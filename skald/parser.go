package skald

import (
	"strconv"
	"strings"
)

// Parser builds the typed AST by recursive descent. It owns the type
// registry for the translation unit; struct declarations register
// their layout as they parse so later type references resolve.
type Parser struct {
	tokens []Token
	i      int
	types  *Registry
}

// NewParser lexes src and prepares a parser.
func NewParser(src string) (*Parser, error) {
	toks, err := NewLexer(src).Tokens()
	if err != nil {
		return nil, err
	}
	return &Parser{tokens: toks, types: NewRegistry()}, nil
}

// Parse parses a whole translation unit.
func Parse(src string) (*Program, error) {
	p, err := NewParser(src)
	if err != nil {
		return nil, err
	}
	return p.parseProgram()
}

func (p *Parser) peek() Token  { return p.tokens[p.i] }
func (p *Parser) peekN(n int) Token {
	idx := p.i + n
	if idx >= len(p.tokens) {
		return p.tokens[len(p.tokens)-1]
	}
	return p.tokens[idx]
}

func (p *Parser) eat(tt TokenType) (Token, error) {
	t := p.peek()
	if t.Type != tt {
		return t, errorf(ErrorParse, t.Line, t.Col, "expected %s, got %q", tokenTypeName(tt), tokenText(t))
	}
	p.i++
	return t, nil
}

func (p *Parser) accept(tt TokenType) (Token, bool) {
	t := p.peek()
	if t.Type == tt {
		p.i++
		return t, true
	}
	return t, false
}

func tokenText(t Token) string {
	if t.Type == TokenEOF {
		return "end of input"
	}
	return t.Text
}

func tokenTypeName(tt TokenType) string {
	switch tt {
	case TokenIdent:
		return "identifier"
	case TokenNumber:
		return "number"
	case TokenEOF:
		return "end of input"
	}
	for text, kw := range keywords {
		if kw == tt {
			return "'" + text + "'"
		}
	}
	for _, op := range []struct {
		text string
		tt   TokenType
	}{
		{"(", TokenLParen}, {")", TokenRParen}, {"{", TokenLBrace}, {"}", TokenRBrace},
		{"[", TokenLBrack}, {"]", TokenRBrack}, {":", TokenColon}, {",", TokenComma},
		{";", TokenSemi}, {".", TokenDot}, {"->", TokenArrow}, {"=", TokenEq},
		{"<", TokenLT}, {">", TokenGT},
	} {
		if op.tt == tt {
			return "'" + op.text + "'"
		}
	}
	return "token"
}

func (p *Parser) parseProgram() (*Program, error) {
	prog := &Program{Pos: Pos{Line: 1, Col: 1}, Types: p.types}
	for p.peek().Type != TokenEOF {
		switch p.peek().Type {
		case TokenLet:
			d, err := p.parseGlobalLet()
			if err != nil {
				return nil, err
			}
			prog.Decls = append(prog.Decls, d)
		case TokenFn:
			d, err := p.parseFn()
			if err != nil {
				return nil, err
			}
			prog.Decls = append(prog.Decls, d)
		case TokenStruct:
			d, err := p.parseStruct()
			if err != nil {
				return nil, err
			}
			prog.Decls = append(prog.Decls, d)
		default:
			t := p.peek()
			return nil, errorf(ErrorParse, t.Line, t.Col, "unexpected %q at top level", tokenText(t))
		}
	}
	return prog, nil
}

func (p *Parser) parseStruct() (*StructDecl, error) {
	kw, _ := p.accept(TokenStruct)
	name, err := p.eat(TokenIdent)
	if err != nil {
		return nil, err
	}
	if _, err := p.eat(TokenLBrace); err != nil {
		return nil, err
	}
	var fields []Field
	for p.peek().Type != TokenRBrace {
		fname, err := p.eat(TokenIdent)
		if err != nil {
			return nil, err
		}
		if _, err := p.eat(TokenColon); err != nil {
			return nil, err
		}
		fty, err := p.parseType()
		if err != nil {
			return nil, err
		}
		if _, err := p.eat(TokenSemi); err != nil {
			return nil, err
		}
		fields = append(fields, Field{Name: fname.Text, Ty: fty})
	}
	if _, err := p.eat(TokenRBrace); err != nil {
		return nil, err
	}
	st, err := p.types.DefineStruct(name.Text, fields)
	if err != nil {
		return nil, errorf(ErrorType, name.Line, name.Col, "%v", err)
	}
	return &StructDecl{Pos: Pos{kw.Line, kw.Col}, Name: name.Text, Type: st}, nil
}

func (p *Parser) parseGlobalLet() (*VarDecl, error) {
	v, err := p.parseLet()
	if err != nil {
		return nil, err
	}
	v.Global = true
	return v, nil
}

func (p *Parser) parseLet() (*VarDecl, error) {
	kw, _ := p.accept(TokenLet)
	name, err := p.eat(TokenIdent)
	if err != nil {
		return nil, err
	}
	if _, err := p.eat(TokenColon); err != nil {
		return nil, err
	}
	ty, err := p.parseType()
	if err != nil {
		return nil, err
	}
	var init Expr
	if _, ok := p.accept(TokenEq); ok {
		init, err = p.parseExpr()
		if err != nil {
			return nil, err
		}
	}
	if _, err := p.eat(TokenSemi); err != nil {
		return nil, err
	}
	return &VarDecl{Pos: Pos{kw.Line, kw.Col}, Name: name.Text, Ty: ty, Init: init}, nil
}

// parseType parses u24, s24, addr<T>, a struct name, or any of those
// with a one-dimensional array suffix [N].
func (p *Parser) parseType() (Type, error) {
	t := p.peek()
	var base Type
	switch t.Type {
	case TokenU24:
		p.i++
		base = U24
	case TokenS24:
		p.i++
		base = S24
	case TokenAddr:
		p.i++
		if _, ok := p.accept(TokenLT); !ok {
			return nil, errorf(ErrorParse, t.Line, t.Col, "'addr' must be parameterized as addr<type>")
		}
		inner, err := p.parseType()
		if err != nil {
			return nil, err
		}
		if _, err := p.eat(TokenGT); err != nil {
			return nil, err
		}
		base = AddrOf(inner)
	case TokenIdent:
		p.i++
		st, ok := p.types.LookupStruct(t.Text)
		if !ok {
			return nil, errorf(ErrorType, t.Line, t.Col, "unknown type %q", t.Text)
		}
		base = st
	default:
		return nil, errorf(ErrorParse, t.Line, t.Col, "expected type, got %q", tokenText(t))
	}
	if _, ok := p.accept(TokenLBrack); ok {
		n, err := p.eat(TokenNumber)
		if err != nil {
			return nil, err
		}
		length, err := parseInt(n.Text)
		if err != nil {
			return nil, errorf(ErrorParse, n.Line, n.Col, "invalid array length %q", n.Text)
		}
		if _, err := p.eat(TokenRBrack); err != nil {
			return nil, err
		}
		if p.peek().Type == TokenLBrack {
			t := p.peek()
			return nil, errorf(ErrorParse, t.Line, t.Col, "multi-dimensional arrays are not supported")
		}
		arr, err := ArrayOf(base, int(length))
		if err != nil {
			return nil, errorf(ErrorType, n.Line, n.Col, "%v", err)
		}
		return arr, nil
	}
	return base, nil
}

func (p *Parser) parseFn() (*FuncDecl, error) {
	kw, _ := p.accept(TokenFn)
	name, err := p.eat(TokenIdent)
	if err != nil {
		return nil, err
	}
	if _, err := p.eat(TokenLParen); err != nil {
		return nil, err
	}
	var params []Param
	if p.peek().Type != TokenRParen {
		for {
			prm, err := p.parseParam()
			if err != nil {
				return nil, err
			}
			params = append(params, prm)
			if _, ok := p.accept(TokenComma); !ok {
				break
			}
		}
	}
	if _, err := p.eat(TokenRParen); err != nil {
		return nil, err
	}
	var retTy Type
	retHint := ""
	if _, ok := p.accept(TokenArrow); ok {
		retTy, err = p.parseType()
		if err != nil {
			return nil, err
		}
		if _, ok := p.accept(TokenOut); ok {
			reg, err := p.eat(TokenIdent)
			if err != nil {
				return nil, err
			}
			retHint = strings.ToUpper(reg.Text)
		}
	}
	if _, err := p.eat(TokenLBrace); err != nil {
		return nil, err
	}
	var body []Stmt
	for p.peek().Type != TokenRBrace {
		s, err := p.parseStmt()
		if err != nil {
			return nil, err
		}
		body = append(body, s)
	}
	if _, err := p.eat(TokenRBrace); err != nil {
		return nil, err
	}
	return &FuncDecl{Pos: Pos{kw.Line, kw.Col}, Name: name.Text, Params: params, RetTy: retTy, RetHint: retHint, Body: body}, nil
}

func (p *Parser) parseParam() (Param, error) {
	name, err := p.eat(TokenIdent)
	if err != nil {
		return Param{}, err
	}
	if _, err := p.eat(TokenColon); err != nil {
		return Param{}, err
	}
	ty, err := p.parseType()
	if err != nil {
		return Param{}, err
	}
	hint := ""
	if _, ok := p.accept(TokenIn); ok {
		reg, err := p.eat(TokenIdent)
		if err != nil {
			return Param{}, err
		}
		hint = strings.ToUpper(reg.Text)
	}
	return Param{Pos: Pos{name.Line, name.Col}, Name: name.Text, Ty: ty, RegHint: hint}, nil
}

func (p *Parser) parseBlock() ([]Stmt, error) {
	if _, err := p.eat(TokenLBrace); err != nil {
		return nil, err
	}
	var out []Stmt
	for p.peek().Type != TokenRBrace {
		s, err := p.parseStmt()
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	if _, err := p.eat(TokenRBrace); err != nil {
		return nil, err
	}
	return out, nil
}

func (p *Parser) parseStmt() (Stmt, error) {
	t := p.peek()
	switch t.Type {
	case TokenLet:
		return p.parseLet()
	case TokenIf:
		return p.parseIf()
	case TokenWhile:
		return p.parseWhile()
	case TokenBreak:
		p.i++
		if _, err := p.eat(TokenSemi); err != nil {
			return nil, err
		}
		return &Break{Pos{t.Line, t.Col}}, nil
	case TokenContinue:
		p.i++
		if _, err := p.eat(TokenSemi); err != nil {
			return nil, err
		}
		return &Continue{Pos{t.Line, t.Col}}, nil
	case TokenReturn:
		return p.parseReturn()
	case TokenIdent:
		if p.peekN(1).Type == TokenLParen {
			e, err := p.parsePrimary()
			if err != nil {
				return nil, err
			}
			if _, err := p.eat(TokenSemi); err != nil {
				return nil, err
			}
			return &ExprStmt{Pos{t.Line, t.Col}, e}, nil
		}
		return p.parseAssign()
	}
	return nil, errorf(ErrorParse, t.Line, t.Col, "unexpected %q in function body", tokenText(t))
}

func (p *Parser) parseIf() (*If, error) {
	kw, _ := p.accept(TokenIf)
	if _, err := p.eat(TokenLParen); err != nil {
		return nil, err
	}
	cond, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	if _, err := p.eat(TokenRParen); err != nil {
		return nil, err
	}
	then, err := p.parseBlock()
	if err != nil {
		return nil, err
	}
	var els []Stmt
	if _, ok := p.accept(TokenElse); ok {
		els, err = p.parseBlock()
		if err != nil {
			return nil, err
		}
	}
	return &If{Pos: Pos{kw.Line, kw.Col}, Cond: cond, Then: then, Else: els}, nil
}

func (p *Parser) parseWhile() (*While, error) {
	kw, _ := p.accept(TokenWhile)
	if _, err := p.eat(TokenLParen); err != nil {
		return nil, err
	}
	cond, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	if _, err := p.eat(TokenRParen); err != nil {
		return nil, err
	}
	body, err := p.parseBlock()
	if err != nil {
		return nil, err
	}
	return &While{Pos: Pos{kw.Line, kw.Col}, Cond: cond, Body: body}, nil
}

func (p *Parser) parseReturn() (*Return, error) {
	kw, _ := p.accept(TokenReturn)
	var val Expr
	if p.peek().Type != TokenSemi {
		var err error
		val, err = p.parseExpr()
		if err != nil {
			return nil, err
		}
	}
	if _, err := p.eat(TokenSemi); err != nil {
		return nil, err
	}
	return &Return{Pos: Pos{kw.Line, kw.Col}, Value: val}, nil
}

var assignOps = []struct {
	tt TokenType
	op string
}{
	{TokenRolEq, "<<<="},
	{TokenRorEq, ">>>="},
	{TokenPlusEq, "+="},
	{TokenMinusEq, "-="},
	{TokenAndEq, "&="},
	{TokenOrEq, "|="},
	{TokenXorEq, "^="},
	{TokenShlEq, "<<="},
	{TokenShrEq, ">>="},
	{TokenEq, "="},
}

func (p *Parser) parseAssign() (*Assign, error) {
	name, err := p.eat(TokenIdent)
	if err != nil {
		return nil, err
	}
	var lhs Expr = &NameRef{Pos{name.Line, name.Col}, name.Text}
	for {
		if _, ok := p.accept(TokenDot); ok {
			fld, err := p.eat(TokenIdent)
			if err != nil {
				return nil, err
			}
			lhs = &FieldAccess{Pos{name.Line, name.Col}, lhs, fld.Text}
			continue
		}
		if _, ok := p.accept(TokenLBrack); ok {
			idx, err := p.parseExpr()
			if err != nil {
				return nil, err
			}
			if _, err := p.eat(TokenRBrack); err != nil {
				return nil, err
			}
			lhs = &ArrayIndex{Pos{name.Line, name.Col}, lhs, idx}
			continue
		}
		break
	}
	op := ""
	for _, cand := range assignOps {
		if _, ok := p.accept(cand.tt); ok {
			op = cand.op
			break
		}
	}
	if op == "" {
		t := p.peek()
		return nil, errorf(ErrorParse, t.Line, t.Col, "expected assignment operator after lvalue")
	}
	val, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	if _, err := p.eat(TokenSemi); err != nil {
		return nil, err
	}
	return &Assign{Pos: Pos{name.Line, name.Col}, Target: lhs, Value: val, Op: op}, nil
}

// Expression grammar, loosest binding first:
//
//	expr       := bitor
//	bitor      := bitxor ( '|' bitxor )*
//	bitxor     := bitand ( '^' bitand )*
//	bitand     := equality ( '&' equality )*
//	equality   := relational ( ('=='|'!=') relational )*
//	relational := shift ( ('<'|'>'|'<='|'>=') shift )*
//	shift      := add ( ('<<'|'>>') add )*
//	add        := mul ( ('+'|'-') mul )*
//	mul        := unary ( ('*'|'/') unary )*
//	unary      := ('+'|'-'|'~') unary | primary
//	primary    := NUMBER | IDENT chain | call | '(' expr ')'
func (p *Parser) parseExpr() (Expr, error) { return p.parseBitOr() }

func (p *Parser) parseBinaryChain(next func() (Expr, error), ops map[TokenType]string) (Expr, error) {
	lhs, err := next()
	if err != nil {
		return nil, err
	}
	for {
		t := p.peek()
		op, ok := ops[t.Type]
		if !ok {
			return lhs, nil
		}
		p.i++
		rhs, err := next()
		if err != nil {
			return nil, err
		}
		lhs = &Binary{Pos: Pos{t.Line, t.Col}, Op: op, LHS: lhs, RHS: rhs}
	}
}

func (p *Parser) parseBitOr() (Expr, error) {
	return p.parseBinaryChain(p.parseBitXor, map[TokenType]string{TokenBar: "|"})
}

func (p *Parser) parseBitXor() (Expr, error) {
	return p.parseBinaryChain(p.parseBitAnd, map[TokenType]string{TokenCaret: "^"})
}

func (p *Parser) parseBitAnd() (Expr, error) {
	return p.parseBinaryChain(p.parseEquality, map[TokenType]string{TokenAmp: "&"})
}

func (p *Parser) parseEquality() (Expr, error) {
	return p.parseBinaryChain(p.parseRelational, map[TokenType]string{TokenEqEq: "==", TokenNotEq: "!="})
}

func (p *Parser) parseRelational() (Expr, error) {
	return p.parseBinaryChain(p.parseShift, map[TokenType]string{
		TokenLT: "<", TokenGT: ">", TokenLE: "<=", TokenGE: ">=",
	})
}

func (p *Parser) parseShift() (Expr, error) {
	return p.parseBinaryChain(p.parseAdd, map[TokenType]string{TokenShl: "<<", TokenShr: ">>"})
}

func (p *Parser) parseAdd() (Expr, error) {
	return p.parseBinaryChain(p.parseMul, map[TokenType]string{TokenPlus: "+", TokenMinus: "-"})
}

func (p *Parser) parseMul() (Expr, error) {
	return p.parseBinaryChain(p.parseUnary, map[TokenType]string{TokenStar: "*", TokenSlash: "/"})
}

func (p *Parser) parseUnary() (Expr, error) {
	t := p.peek()
	switch t.Type {
	case TokenPlus, TokenMinus:
		p.i++
		rhs, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		// Unary +x / -x are 0+x / 0-x.
		zero := &IntLiteral{Pos{t.Line, t.Col}, 0}
		return &Binary{Pos: Pos{t.Line, t.Col}, Op: t.Text, LHS: zero, RHS: rhs}, nil
	case TokenTilde:
		p.i++
		rhs, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		return &Unary{Pos: Pos{t.Line, t.Col}, Op: "~", X: rhs}, nil
	}
	return p.parsePrimary()
}

func (p *Parser) parsePrimary() (Expr, error) {
	t := p.peek()
	switch t.Type {
	case TokenNumber:
		p.i++
		v, err := parseInt(t.Text)
		if err != nil {
			return nil, errorf(ErrorParse, t.Line, t.Col, "invalid number %q", t.Text)
		}
		return &IntLiteral{Pos{t.Line, t.Col}, v}, nil
	case TokenIdent:
		p.i++
		if p.peek().Type == TokenLParen {
			return p.finishCall(t)
		}
		var base Expr = &NameRef{Pos{t.Line, t.Col}, t.Text}
		for {
			if _, ok := p.accept(TokenDot); ok {
				fld, err := p.eat(TokenIdent)
				if err != nil {
					return nil, err
				}
				base = &FieldAccess{Pos{t.Line, t.Col}, base, fld.Text}
				continue
			}
			if _, ok := p.accept(TokenLBrack); ok {
				idx, err := p.parseExpr()
				if err != nil {
					return nil, err
				}
				if _, err := p.eat(TokenRBrack); err != nil {
					return nil, err
				}
				base = &ArrayIndex{Pos{t.Line, t.Col}, base, idx}
				continue
			}
			return base, nil
		}
	case TokenLParen:
		p.i++
		e, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		if _, err := p.eat(TokenRParen); err != nil {
			return nil, err
		}
		return e, nil
	}
	return nil, errorf(ErrorParse, t.Line, t.Col, "expected expression, got %q", tokenText(t))
}

// finishCall parses the argument list after a callee identifier and
// recognizes the built-in pseudo-calls cast_u24, cast_s24, get_addr
// and get_content.
func (p *Parser) finishCall(name Token) (Expr, error) {
	if _, err := p.eat(TokenLParen); err != nil {
		return nil, err
	}
	var args []Expr
	if p.peek().Type != TokenRParen {
		for {
			a, err := p.parseExpr()
			if err != nil {
				return nil, err
			}
			args = append(args, a)
			if _, ok := p.accept(TokenComma); !ok {
				break
			}
		}
	}
	if _, err := p.eat(TokenRParen); err != nil {
		return nil, err
	}
	pos := Pos{name.Line, name.Col}
	switch name.Text {
	case "cast_u24", "cast_s24":
		if len(args) != 1 {
			return nil, errorf(ErrorParse, name.Line, name.Col, "%s expects exactly 1 argument", name.Text)
		}
		tgt := Type(U24)
		if name.Text == "cast_s24" {
			tgt = S24
		}
		return &Cast{Pos: pos, Target: tgt, X: args[0]}, nil
	case "get_addr":
		if len(args) != 1 {
			return nil, errorf(ErrorParse, name.Line, name.Col, "get_addr expects 1 argument")
		}
		switch args[0].(type) {
		case *NameRef, *FieldAccess:
		default:
			return nil, errorf(ErrorType, name.Line, name.Col, "get_addr argument must be a variable or field access")
		}
		return &AddressOf{Pos: pos, Target: args[0]}, nil
	case "get_content":
		if len(args) != 1 {
			return nil, errorf(ErrorParse, name.Line, name.Col, "get_content expects 1 argument")
		}
		return &Deref{Pos: pos, Addr: args[0]}, nil
	}
	return &Call{Pos: pos, Callee: name.Text, Args: args}, nil
}

func parseInt(text string) (int64, error) {
	base := 10
	s := text
	switch {
	case len(s) > 2 && (s[:2] == "0x" || s[:2] == "0X"):
		base, s = 16, s[2:]
	case len(s) > 2 && (s[:2] == "0b" || s[:2] == "0B"):
		base, s = 2, s[2:]
	case len(s) > 2 && (s[:2] == "0o" || s[:2] == "0O"):
		base, s = 8, s[2:]
	}
	return strconv.ParseInt(s, base, 64)
}

