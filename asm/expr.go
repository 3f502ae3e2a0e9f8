package asm

import (
	"strconv"
	"strings"

	"github.com/vanbako/henad/isa"
)

// EvalExpr evaluates an immediate expression token against a symbol
// table. It is a pure function of (token, symbols, pc, width, signed,
// pcRelative).
//
// The token may carry a leading '#'. '.' denotes the current PC (a
// word address). The expression is a left-to-right sum/difference of
// terms; each term is a bound symbol or a numeric literal
// (0x/0b/0o/decimal). With pcRelative the PC is subtracted before the
// range check. Signed values are range-checked against
// [-2^(w-1), 2^(w-1)-1] and returned in two's complement masked to w
// bits; unsigned values against [0, 2^w-1].
func EvalExpr(symbols *SymbolTable, token string, width int, signed bool, pc int64, pcRelative bool) (int64, error) {
	t := strings.TrimSpace(token)
	t = strings.TrimPrefix(t, "#")
	t = strings.ReplaceAll(t, ".", strconv.FormatInt(pc, 10))

	total := int64(0)
	sign := int64(1)
	buf := strings.Builder{}
	flush := func() error {
		term := strings.TrimSpace(buf.String())
		buf.Reset()
		if term == "" {
			return nil
		}
		if v, ok := symbols.Lookup(term); ok {
			total += sign * v
			return nil
		}
		v, err := isa.ParseImm(term)
		if err != nil {
			if term[0] >= '0' && term[0] <= '9' {
				return errorf(ErrorParse, 0, "", "invalid number in expression: %q", term)
			}
			return errorf(ErrorSymbol, 0, "", "unknown symbol in expression: %q", term)
		}
		total += sign * v
		return nil
	}
	for _, ch := range t {
		if ch == '+' || ch == '-' {
			if err := flush(); err != nil {
				return 0, err
			}
			if ch == '+' {
				sign = 1
			} else {
				sign = -1
			}
			continue
		}
		buf.WriteRune(ch)
	}
	if err := flush(); err != nil {
		return 0, err
	}

	if pcRelative {
		total -= pc
	}

	if signed {
		minv := int64(-1) << (width - 1)
		maxv := int64(1)<<(width-1) - 1
		if total < minv || total > maxv {
			return 0, errorf(ErrorEncoding, 0, "", "signed immediate out of range %d..%d: %d in %q", minv, maxv, total, token)
		}
		return total & (int64(1)<<width - 1), nil
	}
	maxv := int64(1)<<width - 1
	if total < 0 || total > maxv {
		return 0, errorf(ErrorEncoding, 0, "", "immediate out of range 0..%d: %d in %q", maxv, total, token)
	}
	return total, nil
}
