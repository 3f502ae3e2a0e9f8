package asm

import (
	"fmt"

	"github.com/vanbako/henad/isa"
)

// Pseudo-instructions expand into fixed sequences of real encodings.
// Their lengths are statically known so pass 1 can assign final
// addresses and pass 2 never backpatches.

// absJumps maps the multi-word absolute control transfers to the
// concrete instruction consuming the low 12 bits of the 48-bit
// target. The three preceding LUIUI writes preload latch banks 2, 1
// and 0 with bits 47:36, 35:24 and 23:12.
var absJumps = map[string]string{
	"JCCUI": "JCCUI",
	"JSRUI": "JSRUI",
	"SWIUI": "SYSCALL",
}

// mathPseudo describes one async-math convenience op: the pre-shifted
// MATH_OP_* symbol, the expected operand count, whether OPB/OPC are
// written, and whether RES1 is read back.
type mathPseudo struct {
	opSym string
	args  int
	needB bool
	needC bool
	res1  bool
}

var mathPseudos = map[string]mathPseudo{
	"MULU24":    {"MATH_OP_MULU", 5, true, false, true},
	"MULS24":    {"MATH_OP_MULS", 5, true, false, true},
	"DIVU24":    {"MATH_OP_DIVU", 5, true, false, true},
	"DIVS24":    {"MATH_OP_DIVS", 5, true, false, true},
	"MODU24":    {"MATH_OP_MODU", 4, true, false, false},
	"MODS24":    {"MATH_OP_MODS", 4, true, false, false},
	"SQRTU24":   {"MATH_OP_SQRTU", 3, false, false, false},
	"ABS_S24":   {"MATH_OP_ABS_S", 3, false, false, false},
	"MIN_U24":   {"MATH_OP_MIN_U", 4, true, false, false},
	"MAX_U24":   {"MATH_OP_MAX_U", 4, true, false, false},
	"MIN_S24":   {"MATH_OP_MIN_S", 4, true, false, false},
	"MAX_S24":   {"MATH_OP_MAX_S", 4, true, false, false},
	"CLAMP_U24": {"MATH_OP_CLAMP_U", 5, true, true, false},
	"CLAMP_S24": {"MATH_OP_CLAMP_S", 5, true, true, false},
	"ADD24":     {"MATH_OP_ADD24", 4, true, false, false},
	"SUB24":     {"MATH_OP_SUB24", 4, true, false, false},
	"NEG24":     {"MATH_OP_NEG24", 3, false, false, false},
	"ADD12":     {"MATH_OP_ADD12", 4, true, false, false},
	"SUB12":     {"MATH_OP_SUB12", 4, true, false, false},
	"NEG12":     {"MATH_OP_NEG12", 3, false, false, false},
	"MUL12":     {"MATH_OP_MUL12", 4, true, false, false},
	"DIV12":     {"MATH_OP_DIV12", 5, true, false, true},
	"MOD12":     {"MATH_OP_MOD12", 4, true, false, false},
	"SQRT12":    {"MATH_OP_SQRT12", 3, false, false, false},
	"ABS12":     {"MATH_OP_ABS12", 3, false, false, false},
	"MIN12_U":   {"MATH_OP_MIN12_U", 4, true, false, false},
	"MAX12_U":   {"MATH_OP_MAX12_U", 4, true, false, false},
	"MIN12_S":   {"MATH_OP_MIN12_S", 4, true, false, false},
	"MAX12_S":   {"MATH_OP_MAX12_S", 4, true, false, false},
	"CLAMP12_U": {"MATH_OP_CLAMP12_U", 5, true, true, false},
	"CLAMP12_S": {"MATH_OP_CLAMP12_S", 5, true, true, false},
}

// words returns the expansion length: the operand CSR writes, the
// CTRL kick (MOVUI + CSRWR), the three-instruction READY poll, and
// the result reads.
func (m mathPseudo) words() int64 {
	n := int64(1) // OPA write
	if m.needB {
		n++
	}
	if m.needC {
		n++
	}
	n += 2 // MOVUI ctrl value, CSRWR ctrl
	n += 3 // poll: CSRRD / ANDUI / BCCSO
	n++    // RES0 read
	if m.res1 {
		n++
	}
	return n
}

// pseudoWords reports whether mnem is a pseudo-instruction and its
// statically known expansion length in words.
func pseudoWords(mnem string) (int64, bool) {
	if _, ok := absJumps[mnem]; ok {
		return 4, true
	}
	if m, ok := mathPseudos[mnem]; ok {
		return m.words(), true
	}
	switch mnem {
	case "PACK_DIAD":
		return 6, true
	case "UNPACK_DIAD":
		return 5, true
	case "DIAD_MOVUI":
		return 3, true
	}
	return 0, false
}

// expandPseudo emits the expansion of one pseudo item into words.
func (a *Assembler) expandPseudo(p *Pseudo, words *[]uint32) error {
	pc := p.Addr
	emit := func(mnem string, ops ...string) error {
		spec, ok := isa.Lookup(mnem)
		if !ok {
			return errorf(ErrorEncoding, p.Line, p.Src, "missing spec for %q (expanding %s)", mnem, p.Kind)
		}
		w, err := spec.Encode(ops, a.evalFunc(), pc)
		if err != nil {
			return at(wrapEncoding(err), p.Line, p.Src)
		}
		*words = append(*words, w&0xFFFFFF)
		pc++
		return nil
	}

	if target, ok := absJumps[p.Kind]; ok {
		return a.expandAbsJump(p, target, emit)
	}
	if m, ok := mathPseudos[p.Kind]; ok {
		return a.expandMath(p, m, emit)
	}
	switch p.Kind {
	case "PACK_DIAD":
		// PACK_DIAD DRhi, DRlo, DRdst, DRtmp
		if len(p.Operands) != 4 {
			return errorf(ErrorEncoding, p.Line, p.Src, "PACK_DIAD expects 4 operands")
		}
		hi, lo, dst, tmp := p.Operands[0], p.Operands[1], p.Operands[2], p.Operands[3]
		return firstErr(
			emit("MOVUR", hi, dst),
			emit("ANDUI", "#0xFFF", dst),
			emit("SHLUI", "#12", dst),
			emit("MOVUR", lo, tmp),
			emit("ANDUI", "#0xFFF", tmp),
			emit("ORUR", tmp, dst),
		)
	case "UNPACK_DIAD":
		// UNPACK_DIAD DRsrc, DRhi, DRlo
		if len(p.Operands) != 3 {
			return errorf(ErrorEncoding, p.Line, p.Src, "UNPACK_DIAD expects 3 operands")
		}
		src, hi, lo := p.Operands[0], p.Operands[1], p.Operands[2]
		return firstErr(
			emit("MOVUR", src, lo),
			emit("ANDUI", "#0xFFF", lo),
			emit("MOVUR", src, hi),
			emit("SHRUI", "#12", hi),
			emit("ANDUI", "#0xFFF", hi),
		)
	case "DIAD_MOVUI":
		// DIAD_MOVUI DRdst, #hi12, #lo12
		if len(p.Operands) != 3 {
			return errorf(ErrorEncoding, p.Line, p.Src, "DIAD_MOVUI expects 3 operands")
		}
		dst, immHi, immLo := p.Operands[0], p.Operands[1], p.Operands[2]
		return firstErr(
			emit("MOVUI", immHi, dst),
			emit("SHLUI", "#12", dst),
			emit("ORUI", immLo, dst),
		)
	}
	return errorf(ErrorEncoding, p.Line, p.Src, "unknown pseudo-instruction %q", p.Kind)
}

// expandAbsJump preloads the immediate latch banks 2, 1, 0 with the
// upper 36 bits of the 48-bit target, then emits the concrete control
// instruction with the low 12 bits.
func (a *Assembler) expandAbsJump(p *Pseudo, target string, emit func(string, ...string) error) error {
	wantOps := 1
	if p.Kind == "JCCUI" {
		wantOps = 2
	}
	if len(p.Operands) != wantOps {
		return errorf(ErrorEncoding, p.Line, p.Src, "%s requires %d operand(s)", p.Kind, wantOps)
	}
	exprTok := p.Operands[wantOps-1]
	imm48, err := EvalExpr(a.symbols, exprTok, 48, false, p.Addr, false)
	if err != nil {
		return at(err, p.Line, p.Src)
	}
	banks := []struct {
		bank  int
		imm12 int64
	}{
		{2, (imm48 >> 36) & 0xFFF},
		{1, (imm48 >> 24) & 0xFFF},
		{0, (imm48 >> 12) & 0xFFF},
	}
	for _, b := range banks {
		if err := emit("LUIUI", fmt.Sprintf("%d", b.bank), fmt.Sprintf("#%d", b.imm12)); err != nil {
			return err
		}
	}
	low := fmt.Sprintf("#%d", imm48&0xFFF)
	if p.Kind == "JCCUI" {
		return emit(target, p.Operands[0], low)
	}
	return emit(target, low)
}

// expandMath emits the CSR protocol for one async-math op: write the
// operand CSRs, kick CTRL with START|OP, poll STATUS until READY,
// read RES0 (and RES1 for two-result ops).
func (a *Assembler) expandMath(p *Pseudo, m mathPseudo, emit func(string, ...string) error) error {
	ops := p.Operands
	if len(ops) != m.args {
		return errorf(ErrorEncoding, p.Line, p.Src, "%s expects %d operands", p.Kind, m.args)
	}
	opa := ops[0]
	tmp := ops[len(ops)-1]

	if err := emit("CSRWR", opa, "#MATH_OPA"); err != nil {
		return err
	}
	if m.needC {
		// Clamp form: A, min, max, dst, tmp. OPB takes max, OPC min.
		if err := emit("CSRWR", ops[2], "#MATH_OPB"); err != nil {
			return err
		}
		if err := emit("CSRWR", ops[1], "#MATH_OPC"); err != nil {
			return err
		}
	} else if m.needB {
		if err := emit("CSRWR", ops[1], "#MATH_OPB"); err != nil {
			return err
		}
	}
	if err := emit("MOVUI", "#MATH_CTRL_START + "+m.opSym, tmp); err != nil {
		return err
	}
	if err := emit("CSRWR", tmp, "#MATH_CTRL"); err != nil {
		return err
	}
	// Poll until READY != 0; the branch target re-reads STATUS.
	if err := emit("CSRRD", "#MATH_STATUS", tmp); err != nil {
		return err
	}
	if err := emit("ANDUI", "#MATH_STATUS_READY", tmp); err != nil {
		return err
	}
	if err := emit("BCCSO", "EQ", ".-2"); err != nil {
		return err
	}
	if m.res1 {
		if err := emit("CSRRD", "#MATH_RES0", ops[len(ops)-3]); err != nil {
			return err
		}
		return emit("CSRRD", "#MATH_RES1", ops[len(ops)-2])
	}
	return emit("CSRRD", "#MATH_RES0", ops[len(ops)-2])
}

func firstErr(errs ...error) error {
	for _, err := range errs {
		if err != nil {
			return err
		}
	}
	return nil
}
