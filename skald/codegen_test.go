package skald

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// compile lowers src with comments off and a small stack region so
// the output stays assertable.
func compile(t *testing.T, src string) string {
	t.Helper()
	out, err := Compile(src, Options{StackWords: 4, EmitComments: false})
	if err != nil {
		t.Fatalf("compile failed: %v\nsource:\n%s", err, src)
	}
	return out
}

func compileErr(t *testing.T, src string) *Error {
	t.Helper()
	_, err := Compile(src, Options{StackWords: 4, EmitComments: false})
	if err == nil {
		t.Fatalf("expected error for:\n%s", src)
	}
	serr, ok := err.(*Error)
	if !ok {
		t.Fatalf("expected *skald.Error, got %T: %v", err, err)
	}
	return serr
}

func codeLines(out string) []string {
	var lines []string
	for _, l := range strings.Split(out, "\n") {
		if strings.TrimSpace(l) != "" {
			lines = append(lines, l)
		}
	}
	return lines
}

// Seed: a two-parameter add with pinned registers lowers to a single
// ADDUR and an empty save set.
func TestCodegen_AddFunction(t *testing.T) {
	out := compile(t, "fn add(a: u24 in DR0, b: u24 in DR1) -> u24 out DR0 { return a + b; }")
	want := []string{
		"    .org 0",
		"add:",
		"    ADDUR DR1, DR0",
		"    RET",
		"__skald_stack_area:",
		"    .dw24 #0",
		"    .dw24 #0",
		"    .dw24 #0",
		"    .dw24 #0",
		"__skald_stack_top:",
	}
	require.Equal(t, want, codeLines(out))
}

func TestCodegen_CalleeSavedSynthesis(t *testing.T) {
	out := compile(t, "fn f(a: u24) -> u24 { let x: u24 = 2; return a + x; }")
	lines := codeLines(out)
	// Pushes cover exactly the registers allocated beyond the
	// parameters, pops mirror them in reverse before RET.
	assert.Contains(t, lines, "    PUSHur DR1, AR0")
	assert.Contains(t, lines, "    PUSHur DR2, AR0")
	ret := indexOf(lines, "    RET")
	require.Greater(t, ret, 1)
	assert.Equal(t, "    POPur AR0, DR1", lines[ret-1])
	assert.Equal(t, "    POPur AR0, DR2", lines[ret-2])
	assert.NotContains(t, lines, "    PUSHur DR0, AR0", "parameters are caller state")
}

func TestCodegen_MainInitializesStackPointer(t *testing.T) {
	out := compile(t, "fn main() { }")
	lines := codeLines(out)
	i := indexOf(lines, "main:")
	require.GreaterOrEqual(t, i, 0)
	assert.Equal(t, "    ADRAso #__skald_stack_top, AR0", lines[i+1])
}

func TestCodegen_GlobalStorage(t *testing.T) {
	out := compile(t, "let g: u24 = 5;\nlet p: addr<u24>;\n")
	lines := codeLines(out)
	i := indexOf(lines, "g:")
	require.GreaterOrEqual(t, i, 0)
	assert.Equal(t, "    .dw24 #5", lines[i+1])
	j := indexOf(lines, "p:")
	require.GreaterOrEqual(t, j, 0)
	// Two words, low then high.
	assert.Equal(t, "    .dw24 #0", lines[j+1])
	assert.Equal(t, "    .dw24 #0", lines[j+2])
}

func TestCodegen_GlobalInitializerMustBeLiteral(t *testing.T) {
	serr := compileErr(t, "let g: u24 = 1 + 2;")
	assert.Equal(t, ErrorType, serr.Kind)
}

func TestCodegen_StructFrame(t *testing.T) {
	out := compile(t, `
struct Point { x: u24; y: u24; }
fn f() -> u24 { let p: Point; p.x = 5; return p.x; }`)
	lines := codeLines(out)
	assert.Contains(t, lines, "    SUBASI #2, AR0", "frame allocation")
	assert.Contains(t, lines, "    LEASO AR0, #0, AR1", "base pointer setup")
	assert.Contains(t, lines, "    STSO DR1, #0, AR1", "field store")
	assert.Contains(t, lines, "    LDSO #0, AR1, DR2", "field load")
	assert.Contains(t, lines, "    ADDASI #2, AR0", "frame deallocation")
	// Frame free precedes the register pops.
	free := indexOf(lines, "    ADDASI #2, AR0")
	pop := indexOf(lines, "    POPAur AR0, AR1")
	assert.Less(t, free, pop)
}

func TestCodegen_AddressFieldUsesStaso(t *testing.T) {
	out := compile(t, `
struct Node { v: u24; next: addr<u24>; }
fn f(q: addr<u24>) { let n: Node; n.next = q; n.next += 1; }`)
	lines := codeLines(out)
	assert.Contains(t, lines, "    STASO AR1, #1, AR2", "address field store")
	assert.Contains(t, lines, "    LDASO #1, AR2, AR3", "address field load for compound op")
}

func TestCodegen_ComparisonConditionCodes(t *testing.T) {
	out := compile(t, "fn f(a: u24, b: u24) -> u24 { return a < b; }")
	lines := codeLines(out)
	assert.Contains(t, lines, "    CMPUR DR1, DR0")
	assert.Contains(t, lines, "    MOVui #0, DR2")
	assert.Contains(t, lines, "    MCCsi BT, #1, DR2", "unsigned < selects BT")
	assert.Contains(t, lines, "    MOVur DR2, DR0")

	out = compile(t, "fn f(a: s24, b: s24) -> u24 { return a >= b; }")
	lines = codeLines(out)
	assert.Contains(t, lines, "    CMPSR DR1, DR0")
	assert.Contains(t, lines, "    MCCsi GE, #1, DR2", "signed >= selects GE")
}

func TestCodegen_WhileLoop(t *testing.T) {
	out := compile(t, "fn f(n: u24) { while (n) { n -= 1; } }")
	lines := codeLines(out)
	begin := indexOf(lines, "__sk_while_1:")
	require.GreaterOrEqual(t, begin, 0)
	assert.Equal(t, "    TSTUR DR0", lines[begin+1])
	assert.Equal(t, "    BCCso EQ, __sk_endwhile_2", lines[begin+2])
	assert.Contains(t, lines, "    BALso __sk_while_1")
	assert.Contains(t, lines, "__sk_endwhile_2:")
}

func TestCodegen_IfElse(t *testing.T) {
	out := compile(t, "fn f(n: u24) -> u24 { if (n) { return 1; } else { return 2; } }")
	lines := codeLines(out)
	assert.Contains(t, lines, "    TSTUR DR0")
	assert.Contains(t, lines, "    BCCso EQ, __sk_else_2")
	assert.Contains(t, lines, "    BALso __sk_endif_1")
	assert.Contains(t, lines, "__sk_else_2:")
	assert.Contains(t, lines, "__sk_endif_1:")
}

func TestCodegen_BreakContinueTargets(t *testing.T) {
	out := compile(t, "fn f(n: u24) { while (n) { if (n) { break; } continue; } }")
	lines := codeLines(out)
	assert.Contains(t, lines, "    BALso __sk_endwhile_2", "break exits the loop")
	// continue jumps back to the loop head.
	count := 0
	for _, l := range lines {
		if l == "    BALso __sk_while_1" {
			count++
		}
	}
	assert.Equal(t, 2, count, "continue and loop tail both target the head")
}

func TestCodegen_BreakOutsideLoop(t *testing.T) {
	serr := compileErr(t, "fn f() { break; }")
	assert.Equal(t, ErrorCodegen, serr.Kind)
}

func TestCodegen_Call(t *testing.T) {
	out := compile(t, `
fn add(a: u24, b: u24) -> u24 { return a + b; }
fn main() { let r: u24 = add(1, 2); }`)
	lines := codeLines(out)
	assert.Contains(t, lines, "    BSRso add")
	assert.Contains(t, lines, "    MOVur DR0, DR1", "return value lands in the local")
}

func TestCodegen_CallArgumentMoves(t *testing.T) {
	out := compile(t, `
fn sink(p: addr<u24>) { }
fn f(q: addr<u24>) { sink(q); }`)
	lines := codeLines(out)
	// q arrives in AR1 which is also the argument slot: no move.
	assert.Contains(t, lines, "    BSRso sink")
	for _, l := range lines {
		assert.NotContains(t, l, "LEASO AR1, #0, AR1")
	}
}

func TestCodegen_VoidCallInExpression(t *testing.T) {
	serr := compileErr(t, `
fn nothing() { }
fn f() -> u24 { return nothing(); }`)
	assert.Equal(t, ErrorType, serr.Kind)
}

func TestCodegen_GetAddrAndContent(t *testing.T) {
	out := compile(t, `
struct P { x: u24; }
fn f() -> u24 { let p: P; return get_content(get_addr(p.x)); }`)
	lines := codeLines(out)
	assert.Contains(t, lines, "    LEASO AR1, #0, AR2", "get_addr computes base+offset")
	assert.Contains(t, lines, "    LDSO #0, AR2, DR1", "get_content loads through")
}

func TestCodegen_GetAddrWholeStruct(t *testing.T) {
	out := compile(t, `
struct P { x: u24; }
fn f() -> addr<P> { let p: P; return get_addr(p); }`)
	lines := codeLines(out)
	// The struct base pointer is the address; the default address
	// return register is AR1 which already holds it.
	assert.Contains(t, lines, "    RET")
	for _, l := range lines {
		assert.NotContains(t, l, "LEASO AR1, #0, AR1")
	}
}

func TestCodegen_GetAddrOfScalarRejected(t *testing.T) {
	serr := compileErr(t, "fn f() { let x: u24; let a: addr<u24> = get_addr(x); }")
	assert.Equal(t, ErrorType, serr.Kind)
}

func TestCodegen_GetContentRequiresAddressOf(t *testing.T) {
	serr := compileErr(t, "fn f(p: addr<u24>) -> u24 { return get_content(p); }")
	assert.Equal(t, ErrorType, serr.Kind)
}

func TestCodegen_AddrArithmetic(t *testing.T) {
	out := compile(t, "fn f(p: addr<u24>, n: u24, m: s24) { p += n; p -= m; }")
	lines := codeLines(out)
	assert.Contains(t, lines, "    ADDAUR DR0, AR1", "unsigned delta uses the unsigned address ALU")
	assert.Contains(t, lines, "    SUBASR DR1, AR1", "signed delta uses the signed address ALU")
}

func TestCodegen_AddrArithmeticRejectsAddrDelta(t *testing.T) {
	serr := compileErr(t, "fn f(p: addr<u24>, q: addr<u24>) { p += q; }")
	assert.Equal(t, ErrorType, serr.Kind)
}

func TestCodegen_AddrOnlyPlusMinus(t *testing.T) {
	serr := compileErr(t, "fn f(p: addr<u24>, n: u24) { p &= n; }")
	assert.Equal(t, ErrorType, serr.Kind)
}

func TestCodegen_StrictTypeMismatch(t *testing.T) {
	serr := compileErr(t, "fn f(a: u24, c: s24) -> u24 { return a + c; }")
	assert.Equal(t, ErrorType, serr.Kind)
}

func TestCodegen_ComparisonTypeMismatch(t *testing.T) {
	serr := compileErr(t, "fn f(a: u24, c: s24) -> u24 { return a < c; }")
	assert.Equal(t, ErrorType, serr.Kind)
}

func TestCodegen_AddressComparisonRejected(t *testing.T) {
	serr := compileErr(t, "fn f(p: addr<u24>, q: addr<u24>) -> u24 { return p == q; }")
	assert.Equal(t, ErrorType, serr.Kind)
}

func TestCodegen_CastReinterprets(t *testing.T) {
	out := compile(t, "fn f(c: s24 in DR1) -> u24 { return cast_u24(c); }")
	lines := codeLines(out)
	// A cast moves bits, nothing else.
	assert.Contains(t, lines, "    MOVur DR1, DR0")
	serr := compileErr(t, "fn f(c: s24) -> u24 { return c; }")
	assert.Equal(t, ErrorType, serr.Kind)
}

func TestCodegen_RotateAssign(t *testing.T) {
	out := compile(t, "fn f(a: u24, n: u24) { a <<<= n; a >>>= n; }")
	lines := codeLines(out)
	assert.Contains(t, lines, "    ROLUR DR1, DR0")
	assert.Contains(t, lines, "    RORUR DR1, DR0")
}

func TestCodegen_ShiftAmountEitherSignedness(t *testing.T) {
	out := compile(t, "fn f(a: u24, s: s24) -> u24 { return a << s; }")
	lines := codeLines(out)
	assert.Contains(t, lines, "    SHLUR DR1, DR0")

	out = compile(t, "fn f(a: s24, s: u24) -> s24 { return a >> s; }")
	lines = codeLines(out)
	assert.Contains(t, lines, "    SHRSR DR1, DR0", "signed destination shifts arithmetically")
}

func TestCodegen_ArrayConstantIndex(t *testing.T) {
	out := compile(t, "fn f() -> u24 { let xs: u24[3]; xs[0] = 7; xs[2] = 9; return xs[2]; }")
	lines := codeLines(out)
	assert.Contains(t, lines, "    SUBASI #3, AR0", "array frame allocation")
	assert.Contains(t, lines, "    STSO DR1, #0, AR1")
	assert.Contains(t, lines, "    STSO DR2, #2, AR1", "constant index folds into the offset")
	assert.Contains(t, lines, "    LDSO #2, AR1, DR3")
}

func TestCodegen_ArrayDynamicIndex(t *testing.T) {
	out := compile(t, "fn f(i: u24) -> u24 { let xs: u24[4]; return xs[i]; }")
	lines := codeLines(out)
	assert.Contains(t, lines, "    LEASO AR1, #0, AR2", "element address compute")
	assert.Contains(t, lines, "    ADDAUR DR0, AR2")
	assert.Contains(t, lines, "    LDSO #0, AR2, DR1")
}

func TestCodegen_ArrayAddressElementScales(t *testing.T) {
	out := compile(t, "fn f(i: u24) { let ps: addr<u24>[2]; ps[i] += 1; }")
	lines := codeLines(out)
	// Two-word elements double the index before the add.
	assert.Contains(t, lines, "    MOVur DR0, DR1")
	assert.Contains(t, lines, "    ADDUR DR1, DR1")
	assert.Contains(t, lines, "    LDASO #0, AR2, AR3")
}

func TestCodegen_ArrayIndexOutOfBounds(t *testing.T) {
	serr := compileErr(t, "fn f() -> u24 { let xs: u24[3]; return xs[3]; }")
	assert.Equal(t, ErrorType, serr.Kind)
}

func TestCodegen_RegisterExhaustion(t *testing.T) {
	var sb strings.Builder
	sb.WriteString("fn f() {\n")
	for i := 0; i < 20; i++ {
		sb.WriteString("let x")
		sb.WriteByte(byte('a' + i%26))
		sb.WriteString(string(rune('0' + i/10)))
		sb.WriteString(string(rune('0' + i%10)))
		sb.WriteString(": u24;\n")
	}
	sb.WriteString("}\n")
	serr := compileErr(t, sb.String())
	assert.Equal(t, ErrorCodegen, serr.Kind)
}

func TestCodegen_WideLiteralRejected(t *testing.T) {
	serr := compileErr(t, "fn f() -> u24 { return 4096; }")
	assert.Equal(t, ErrorCodegen, serr.Kind)
}

func indexOf(lines []string, want string) int {
	for i, l := range lines {
		if l == want {
			return i
		}
	}
	return -1
}
