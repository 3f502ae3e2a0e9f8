package asm

import (
	"fmt"
	"sort"
)

// SymbolTable maps identifiers to 48-bit values. Labels are word
// addresses; .equ values may exceed 24 bits to support
// combined-immediate constants. A name binds at most once per
// assembly unit.
type SymbolTable struct {
	symbols map[string]int64
}

// NewSymbolTable creates an empty symbol table.
func NewSymbolTable() *SymbolTable {
	return &SymbolTable{symbols: make(map[string]int64)}
}

// Define binds a name, failing if it is already bound.
func (st *SymbolTable) Define(name string, value int64) error {
	if _, exists := st.symbols[name]; exists {
		return fmt.Errorf("symbol %q already defined", name)
	}
	st.symbols[name] = value
	return nil
}

// Lookup returns the value bound to name.
func (st *SymbolTable) Lookup(name string) (int64, bool) {
	v, ok := st.symbols[name]
	return v, ok
}

// Preload installs built-in symbols. Existing bindings are
// overwritten; this runs only on reset, before any user definitions.
func (st *SymbolTable) Preload(values map[string]int64) {
	for k, v := range values {
		st.symbols[k] = v
	}
}

// Names returns all bound names, sorted.
func (st *SymbolTable) Names() []string {
	out := make([]string, 0, len(st.symbols))
	for n := range st.symbols {
		out = append(out, n)
	}
	sort.Strings(out)
	return out
}

// Len returns the number of bound symbols.
func (st *SymbolTable) Len() int { return len(st.symbols) }

// Clear removes every binding.
func (st *SymbolTable) Clear() {
	st.symbols = make(map[string]int64)
}
