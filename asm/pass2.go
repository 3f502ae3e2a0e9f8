package asm

import (
	"github.com/vanbako/henad/isa"
)

// pass2 walks the IR and emits 24-bit words: zero-padding for org
// gaps, evaluated dw24 words, table-encoded instructions and pseudo
// expansions. Addresses were fixed in pass 1; nothing may grow or
// shrink here.
func (a *Assembler) pass2() ([]uint32, error) {
	var words []uint32
	for _, item := range a.ir {
		switch it := item.(type) {
		case *Directive:
			if err := a.encodeDirective(it, &words); err != nil {
				return nil, err
			}
		case *Pseudo:
			if err := a.expandPseudo(it, &words); err != nil {
				return nil, err
			}
		case *Instruction:
			w, err := a.encodeInstruction(it)
			if err != nil {
				return nil, err
			}
			words = append(words, w&0xFFFFFF)
		}
	}
	return words, nil
}

func (a *Assembler) encodeDirective(d *Directive, words *[]uint32) error {
	switch d.Name {
	case "org":
		// Zero-pad forward gaps; a backwards org emits nothing.
		gap := d.Addr - int64(len(*words)) - a.origin
		for ; gap > 0; gap-- {
			*words = append(*words, 0)
		}
	case "dw24", "diad":
		for _, arg := range d.Args {
			pc := int64(len(*words)) + a.origin
			v, err := EvalExpr(a.symbols, arg, 24, false, pc, false)
			if err != nil {
				return at(err, d.Line, d.Src)
			}
			*words = append(*words, uint32(v)&0xFFFFFF)
		}
	}
	return nil
}

func (a *Assembler) encodeInstruction(it *Instruction) (uint32, error) {
	spec, ok := isa.Lookup(it.Mnemonic)
	if !ok {
		return 0, errorf(ErrorEncoding, it.Line, it.Src, "unknown or unsupported mnemonic %q", it.Mnemonic)
	}
	w, err := spec.Encode(it.Operands, a.evalFunc(), it.Addr)
	if err != nil {
		return 0, at(wrapEncoding(err), it.Line, it.Src)
	}
	return w, nil
}

// evalFunc adapts the expression evaluator to the isa encoding hook.
func (a *Assembler) evalFunc() isa.EvalFunc {
	return func(token string, width int, signed bool, pc int64, pcRelative bool) (int64, error) {
		return EvalExpr(a.symbols, token, width, signed, pc, pcRelative)
	}
}

// at attaches the IR item's source position to an error that was
// produced without one.
func at(err error, line int, src string) error {
	if e, ok := err.(*Error); ok {
		if e.Line == 0 {
			e.Line, e.Src = line, src
		}
		return e
	}
	return errorf(ErrorEncoding, line, src, "%v", err)
}

// wrapEncoding converts plain operand-parse errors from the isa layer
// into encoding errors, keeping typed errors as they are.
func wrapEncoding(err error) error {
	if e, ok := err.(*Error); ok {
		return e
	}
	return errorf(ErrorEncoding, 0, "", "%v", err)
}
