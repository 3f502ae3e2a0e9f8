// Package asm implements the two-pass assembler for the Amber 24-bit
// ISA: include and macro preprocessing, pass-1 address assignment and
// symbol collection, fixed-point .equ resolution, pass-2 encoding
// with pseudo-instruction expansion, and the binary/hex packers.
package asm

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/vanbako/henad/isa"
)

// Assembler holds all mutable state of one assembly. The state is
// reset at the start of every Assemble call, so an instance may be
// reused sequentially.
type Assembler struct {
	origin     int64
	symbols    *SymbolTable
	ir         []Item
	pendingEqu []pendingEqu
	macros     *MacroTable
	pre        *Preprocessor
}

type pendingEqu struct {
	name string
	expr string
	line int
	src  string
}

// New creates an assembler with the given origin (a word address).
func New(origin int64) *Assembler {
	return &Assembler{
		origin:  origin,
		symbols: NewSymbolTable(),
		macros:  NewMacroTable(),
		pre:     NewPreprocessor(),
	}
}

// Origin returns the configured origin word address.
func (a *Assembler) Origin() int64 { return a.origin }

// Symbols exposes the symbol table after assembly (for listings and
// symbol dumps).
func (a *Assembler) Symbols() *SymbolTable { return a.symbols }

// Items exposes the pass-1 IR after assembly.
func (a *Assembler) Items() []Item { return a.ir }

// AssembleFile assembles a single file, resolving relative includes
// against the file's directory.
func (a *Assembler) AssembleFile(path string) ([]uint32, error) {
	a.reset()
	pre, err := a.pre.ExpandFile(path)
	if err != nil {
		return nil, err
	}
	return a.assemblePreprocessed(pre)
}

// Assemble assembles raw source text. Includes resolve against the
// current working directory.
func (a *Assembler) Assemble(source string) ([]uint32, error) {
	a.reset()
	pre, err := a.pre.Expand(source, "")
	if err != nil {
		return nil, err
	}
	return a.assemblePreprocessed(pre)
}

func (a *Assembler) reset() {
	a.symbols.Clear()
	a.symbols.Preload(isa.BuiltinSymbols())
	a.ir = a.ir[:0]
	a.pendingEqu = a.pendingEqu[:0]
	a.macros.Clear()
}

func (a *Assembler) assemblePreprocessed(source string) ([]uint32, error) {
	lines, err := a.macros.CollectDefinitions(strings.Split(source, "\n"))
	if err != nil {
		return nil, err
	}
	lines, err = a.macros.ExpandLines(lines)
	if err != nil {
		return nil, err
	}
	if err := a.pass1(lines); err != nil {
		return nil, err
	}
	if err := a.resolvePendingEqu(); err != nil {
		return nil, err
	}
	return a.pass2()
}

var equNameRe = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// pass1 tokenizes every line, collects labels, consumes .equ, and
// emits IR items with their word addresses. Instructions advance the
// PC by one word; pseudo-instructions by their precomputed expansion
// length.
func (a *Assembler) pass1(lines []string) error {
	pc := a.origin
	for i, raw := range lines {
		lineno := i + 1
		line := stripComment(raw)
		if line == "" {
			continue
		}

		if label, rest := splitLabel(line); label != "" {
			if err := a.symbols.Define(label, pc); err != nil {
				return errorf(ErrorSymbol, lineno, raw, "duplicate label %q", label)
			}
			line = rest
			if line == "" {
				continue
			}
		}

		if strings.HasPrefix(line, ".") {
			if err := a.pass1Directive(line, raw, lineno, &pc); err != nil {
				return err
			}
			continue
		}

		mnem, ops, err := parseInstruction(line)
		if err != nil {
			if e, ok := err.(*Error); ok {
				e.Line, e.Src = lineno, raw
			}
			return err
		}
		info := ItemInfo{Addr: pc, Src: raw, Line: lineno}
		if words, ok := pseudoWords(mnem); ok {
			a.ir = append(a.ir, &Pseudo{ItemInfo: info, Kind: mnem, Operands: ops, Words: words})
			pc += words
		} else {
			a.ir = append(a.ir, &Instruction{ItemInfo: info, Mnemonic: mnem, Operands: ops})
			pc++
		}
	}
	return nil
}

func (a *Assembler) pass1Directive(line, raw string, lineno int, pc *int64) error {
	name, args := parseDirective(line)
	switch name {
	case "org":
		if len(args) == 0 {
			return errorf(ErrorDirective, lineno, raw, ".org requires an address")
		}
		// Origins must be numeric literals; expressions belong in .equ.
		v, err := isa.ParseImm(args[0])
		if err != nil {
			return errorf(ErrorDirective, lineno, raw, ".org: %v", err)
		}
		*pc = v
		a.ir = append(a.ir, &Directive{ItemInfo: ItemInfo{Addr: *pc, Src: raw, Line: lineno}, Name: name, Args: args})
	case "align":
		if len(args) != 1 {
			return errorf(ErrorDirective, lineno, raw, ".align requires a single count")
		}
		n, err := isa.ParseImm(args[0])
		if err != nil {
			return errorf(ErrorDirective, lineno, raw, ".align: %v", err)
		}
		if n <= 0 {
			return errorf(ErrorDirective, lineno, raw, ".align count must be positive, got %d", n)
		}
		*pc = (*pc + n - 1) / n * n
		// Lowered to an org so pass 2 zero-pads any gap.
		a.ir = append(a.ir, &Directive{ItemInfo: ItemInfo{Addr: *pc, Src: raw, Line: lineno}, Name: "org", Args: args})
	case "equ":
		if len(args) != 2 {
			return errorf(ErrorDirective, lineno, raw, ".equ requires NAME, EXPR")
		}
		name, expr := args[0], args[1]
		if !equNameRe.MatchString(name) {
			return errorf(ErrorParse, lineno, raw, "invalid symbol name in .equ: %q", name)
		}
		if _, exists := a.symbols.Lookup(name); exists {
			return errorf(ErrorSymbol, lineno, raw, "redefinition of symbol %q in .equ", name)
		}
		// Evaluate now; a forward reference defers to the fixed point.
		if v, err := EvalExpr(a.symbols, expr, 48, false, *pc, false); err == nil {
			if derr := a.symbols.Define(name, v); derr != nil {
				return errorf(ErrorSymbol, lineno, raw, "%v", derr)
			}
		} else {
			a.pendingEqu = append(a.pendingEqu, pendingEqu{name: name, expr: expr, line: lineno, src: raw})
		}
	case "dw24", "diad":
		a.ir = append(a.ir, &Directive{ItemInfo: ItemInfo{Addr: *pc, Src: raw, Line: lineno}, Name: name, Args: args})
		*pc += int64(len(args))
	default:
		return errorf(ErrorDirective, lineno, raw, "unknown directive .%s", name)
	}
	return nil
}

// resolvePendingEqu iterates over the deferred .equ definitions until
// a pass binds nothing new. n passes over n entries suffice: every
// successful resolution strictly shrinks the pending set.
func (a *Assembler) resolvePendingEqu() error {
	pend := a.pendingEqu
	for range a.pendingEqu {
		if len(pend) == 0 {
			break
		}
		var next []pendingEqu
		for _, p := range pend {
			v, err := EvalExpr(a.symbols, p.expr, 48, false, a.origin, false)
			if err != nil {
				next = append(next, p)
				continue
			}
			if derr := a.symbols.Define(p.name, v); derr != nil {
				return errorf(ErrorSymbol, p.line, p.src, "%v", derr)
			}
		}
		if len(next) == len(pend) {
			break
		}
		pend = next
	}
	if len(pend) > 0 {
		var names []string
		for _, p := range pend {
			names = append(names, p.name+" (line "+strconv.Itoa(p.line)+")")
		}
		return errorf(ErrorSymbol, pend[0].line, pend[0].src,
			"unresolved .equ forward references: %s", strings.Join(names, ", "))
	}
	return nil
}

// stripComment removes a trailing ;-comment and surrounding space.
func stripComment(s string) string {
	if i := strings.IndexByte(s, ';'); i >= 0 {
		s = s[:i]
	}
	return strings.TrimSpace(s)
}

var labelRe = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// splitLabel splits a leading "label:" off a line. The text before
// the first colon is a label only when it is a bare identifier, which
// keeps operand colons intact.
func splitLabel(s string) (label, rest string) {
	i := strings.IndexByte(s, ':')
	if i < 0 {
		return "", s
	}
	before := strings.TrimSpace(s[:i])
	if !labelRe.MatchString(before) {
		return "", s
	}
	return before, strings.TrimSpace(s[i+1:])
}

// parseDirective splits ".name arg1, arg2" into a lowercase name and
// trimmed argument list.
func parseDirective(s string) (string, []string) {
	tok := strings.TrimSpace(s[1:])
	name := tok
	rest := ""
	if j := strings.IndexAny(tok, " \t"); j >= 0 {
		name, rest = tok[:j], tok[j+1:]
	}
	var args []string
	for _, a := range strings.Split(rest, ",") {
		if a = strings.TrimSpace(a); a != "" {
			args = append(args, a)
		}
	}
	return strings.ToLower(name), args
}

// Addressing-mode sugar rewritten to canonical operand lists.
var (
	exprParenARRe = regexp.MustCompile(`(?i)^\s*(.*?)\s*\(\s*(AR\d)\s*\)\s*$`)
	exprParenSRRe = regexp.MustCompile(`(?i)^\s*(.*?)\s*\(\s*(SR\d|PC|LR|SSP|FL)\s*\)\s*$`)
	arPlusExprRe  = regexp.MustCompile(`(?i)^(AR\d)\s*\+\s*(.+)$`)
	srPlusExprRe  = regexp.MustCompile(`(?i)^(SR\d|PC|LR|SSP|FL)\s*\+\s*(.+)$`)
	pcPlusDRRe    = regexp.MustCompile(`(?i)^PC\s*\+\s*(DR\d+)$`)
	drTokenRe     = regexp.MustCompile(`(?i)^DR\d+$`)
)

// parseInstruction splits "MNEMONIC op1, op2" and normalizes
// addressing-mode sugar:
//
//	PC + DRx        -> DRx           (PC-relative register branches)
//	expr(ARx)       -> expr, ARx
//	expr(SRx)       -> expr, SRx
//	ARx + expr      -> ARx, expr
//	SRx + expr      -> SRx, expr
//
// CSRWR/CSRRD additionally accept the data register on either side.
func parseInstruction(s string) (string, []string, error) {
	mnem := s
	rest := ""
	if j := strings.IndexAny(s, " \t"); j >= 0 {
		mnem, rest = s[:j], s[j+1:]
	}
	mnem = strings.ToUpper(strings.TrimSpace(mnem))
	if mnem == "" {
		return "", nil, errorf(ErrorParse, 0, "", "empty instruction line")
	}
	var ops []string
	for _, tok := range strings.Split(rest, ",") {
		tok = strings.TrimSpace(tok)
		if tok == "" {
			continue
		}
		// PC + DRx first so the SR rule cannot catch it.
		if m := pcPlusDRRe.FindStringSubmatch(tok); m != nil {
			ops = append(ops, strings.ToUpper(m[1]))
			continue
		}
		if m := exprParenARRe.FindStringSubmatch(tok); m != nil && strings.TrimSpace(m[1]) != "" {
			ops = append(ops, strings.TrimSpace(m[1]), strings.ToUpper(m[2]))
			continue
		}
		if m := exprParenSRRe.FindStringSubmatch(tok); m != nil && strings.TrimSpace(m[1]) != "" {
			ops = append(ops, strings.TrimSpace(m[1]), strings.ToUpper(m[2]))
			continue
		}
		if m := arPlusExprRe.FindStringSubmatch(tok); m != nil {
			ops = append(ops, strings.ToUpper(m[1]), strings.TrimSpace(m[2]))
			continue
		}
		if m := srPlusExprRe.FindStringSubmatch(tok); m != nil {
			ops = append(ops, strings.ToUpper(m[1]), strings.TrimSpace(m[2]))
			continue
		}
		ops = append(ops, tok)
	}
	// Friendly CSR operand order: the data register may be written on
	// either side.
	if mnem == "CSRWR" && len(ops) == 2 && drTokenRe.MatchString(ops[1]) && !drTokenRe.MatchString(ops[0]) {
		ops[0], ops[1] = strings.ToUpper(ops[1]), ops[0]
	}
	if mnem == "CSRRD" && len(ops) == 2 && drTokenRe.MatchString(ops[0]) && !drTokenRe.MatchString(ops[1]) {
		ops[0], ops[1] = ops[1], strings.ToUpper(ops[0])
	}
	return mnem, ops, nil
}

