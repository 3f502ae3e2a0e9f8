package asm

// Item is one pass-1 result consumed by pass 2: a closed variant over
// Instruction, Directive and Pseudo. Addresses are word addresses
// assigned in pass 1 and never change between passes.
type Item interface {
	item()
	// Info returns the common address/source fields.
	Info() ItemInfo
}

// ItemInfo is the common part of every IR item.
type ItemInfo struct {
	Addr int64  // word address
	Src  string // originating source line
	Line int    // line number in the preprocessed stream
}

// Instruction is a single real instruction awaiting encoding.
type Instruction struct {
	ItemInfo
	Mnemonic string
	Operands []string
}

// Directive is a layout directive surviving into pass 2
// (org, dw24/diad). .equ is consumed in pass 1 and .align is lowered
// to an org.
type Directive struct {
	ItemInfo
	Name string
	Args []string
}

// Pseudo is a multi-word pseudo-instruction with a statically known
// expansion length, charged against the PC in pass 1 and expanded in
// pass 2.
type Pseudo struct {
	ItemInfo
	Kind     string
	Operands []string
	Words    int64
}

func (*Instruction) item() {}
func (*Directive) item()   {}
func (*Pseudo) item()      {}

func (i *Instruction) Info() ItemInfo { return i.ItemInfo }
func (d *Directive) Info() ItemInfo   { return d.ItemInfo }
func (p *Pseudo) Info() ItemInfo      { return p.ItemInfo }
