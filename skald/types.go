package skald

import "fmt"

// Type is the closed sum of Skald types: single-word data (u24/s24),
// typed two-word addresses, flat structs and one-dimensional arrays.
// Struct and array values are address-like: the value is the base
// pointer.
type Type interface {
	fmt.Stringer
	// Words is the storage size in 24-bit words.
	Words() int
	typ()
}

// DataType is a single-word data type; signedness selects the
// arithmetic and compare encodings.
type DataType struct {
	name   string
	signed bool
}

func (t *DataType) String() string { return t.name }
func (t *DataType) Words() int     { return 1 }
func (t *DataType) Signed() bool   { return t.signed }
func (*DataType) typ()             {}

// The two data types are singletons so identity comparison works.
var (
	U24 = &DataType{name: "u24"}
	S24 = &DataType{name: "s24", signed: true}
)

// AddrType is a typed two-word address parameterized over its
// pointee.
type AddrType struct {
	Pointee Type
}

func (t *AddrType) String() string { return "addr<" + t.Pointee.String() + ">" }
func (t *AddrType) Words() int     { return 2 }
func (*AddrType) typ()             {}

// AddrOf returns addr<t>.
func AddrOf(t Type) *AddrType { return &AddrType{Pointee: t} }

// Field is one struct field with its word offset.
type Field struct {
	Name   string
	Ty     Type
	Offset int
}

// StructType is a flat struct: fields are data or typed address, one
// and two words respectively, laid out in declaration order.
type StructType struct {
	Name   string
	Fields []Field
	Size   int
}

func (t *StructType) String() string { return t.Name }
func (t *StructType) Words() int     { return t.Size }
func (*StructType) typ()             {}

// Field looks up a field by name.
func (t *StructType) Field(name string) (Field, bool) {
	for _, f := range t.Fields {
		if f.Name == name {
			return f, true
		}
	}
	return Field{}, false
}

// ArrayType is a one-dimensional array of data or address elements
// laid out contiguously.
type ArrayType struct {
	Elem      Type
	Len       int
	ElemWords int
}

func (t *ArrayType) String() string { return fmt.Sprintf("%s[%d]", t.Elem, t.Len) }
func (t *ArrayType) Words() int     { return t.ElemWords * t.Len }
func (*ArrayType) typ()             {}

// IsAddrLike reports whether a value of t lives in an address
// register (addresses, structs and arrays; the latter two are their
// base pointers).
func IsAddrLike(t Type) bool {
	switch t.(type) {
	case *AddrType, *StructType, *ArrayType:
		return true
	}
	return false
}

// IsData reports whether t is u24 or s24.
func IsData(t Type) bool {
	_, ok := t.(*DataType)
	return ok
}

// IsSigned reports whether t is the signed data type.
func IsSigned(t Type) bool {
	d, ok := t.(*DataType)
	return ok && d.signed
}

// SameType reports structural type equality. Structs compare by
// identity (one definition per name), addresses by pointee.
func SameType(a, b Type) bool {
	switch at := a.(type) {
	case *DataType:
		return a == b
	case *AddrType:
		bt, ok := b.(*AddrType)
		return ok && SameType(at.Pointee, bt.Pointee)
	case *StructType:
		return a == b
	case *ArrayType:
		bt, ok := b.(*ArrayType)
		return ok && at.Len == bt.Len && SameType(at.Elem, bt.Elem)
	}
	return false
}

// Registry holds the struct types of one translation unit. It is
// owned by the parser; nothing in the package is globally mutable.
type Registry struct {
	structs map[string]*StructType
}

// NewRegistry creates an empty type registry.
func NewRegistry() *Registry {
	return &Registry{structs: make(map[string]*StructType)}
}

// DefineStruct lays out and registers a struct type. Data fields take
// one word, address fields two (low, high); structs do not nest.
func (r *Registry) DefineStruct(name string, fields []Field) (*StructType, error) {
	if _, exists := r.structs[name]; exists {
		return nil, fmt.Errorf("struct %q already defined", name)
	}
	st := &StructType{Name: name}
	offset := 0
	for _, f := range fields {
		switch f.Ty.(type) {
		case *DataType, *AddrType:
		default:
			return nil, fmt.Errorf("struct %q field %q: fields must be data or typed address", name, f.Name)
		}
		st.Fields = append(st.Fields, Field{Name: f.Name, Ty: f.Ty, Offset: offset})
		offset += f.Ty.Words()
	}
	st.Size = offset
	r.structs[name] = st
	return st, nil
}

// LookupStruct finds a registered struct type.
func (r *Registry) LookupStruct(name string) (*StructType, bool) {
	st, ok := r.structs[name]
	return st, ok
}

// ArrayOf builds a one-dimensional array type. Elements must be data
// or typed address; arrays and structs do not nest.
func ArrayOf(elem Type, length int) (*ArrayType, error) {
	switch elem.(type) {
	case *DataType, *AddrType:
	default:
		return nil, fmt.Errorf("array elements must be data or typed address, got %s", elem)
	}
	if length <= 0 {
		return nil, fmt.Errorf("array length must be positive, got %d", length)
	}
	return &ArrayType{Elem: elem, Len: length, ElemWords: elem.Words()}, nil
}
